// Package parallel splits row-wise work (kernel matrices, batch prediction)
// into contiguous chunks run on separate goroutines.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// DefaultThreshold is the item count below which ParallelizeWithThreshold
// runs sequentially.
const DefaultThreshold = 256

var maxWorkers atomic.Int64

// SetMaxWorkers caps the number of goroutines used per call. n <= 0 restores
// the default of runtime.NumCPU().
func SetMaxWorkers(n int) {
	maxWorkers.Store(int64(n))
}

func workers() int {
	if n := int(maxWorkers.Load()); n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// Parallelize divides items into at most one chunk per worker and calls fn
// with each half-open range [start, end). It returns when every chunk is done.
func Parallelize(items int, fn func(start, end int)) {
	if items <= 0 {
		return
	}
	numWorkers := workers()
	if numWorkers > items {
		numWorkers = items
	}
	if numWorkers == 1 {
		fn(0, items)
		return
	}
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for start := 0; start < items; start += chunkSize {
		end := min(start+chunkSize, items)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn(0, items) on the calling goroutine when
// items <= threshold, and Parallelize otherwise.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}
