package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParallelizeCoversEveryItemOnce(t *testing.T) {
	for _, n := range []int{1, 7, 64, 1000} {
		hits := make([]int32, n)
		Parallelize(n, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i, h := range hits {
			assert.Equal(t, int32(1), h, "item %d of %d", i, n)
		}
	}
}

func TestParallelizeWithThresholdSequential(t *testing.T) {
	var calls int
	ParallelizeWithThreshold(10, DefaultThreshold, func(start, end int) {
		calls++
		assert.Equal(t, 0, start)
		assert.Equal(t, 10, end)
	})
	assert.Equal(t, 1, calls)
}

func TestSetMaxWorkers(t *testing.T) {
	SetMaxWorkers(2)
	t.Cleanup(func() { SetMaxWorkers(0) })

	var chunks atomic.Int32
	Parallelize(100, func(start, end int) { chunks.Add(1) })
	assert.Equal(t, int32(2), chunks.Load())
}

func TestParallelizeZeroItems(t *testing.T) {
	Parallelize(0, func(start, end int) { t.Fatal("fn must not be called") })
}
