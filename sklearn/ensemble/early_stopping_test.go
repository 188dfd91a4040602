package ensemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEarlyStopping(t *testing.T) {
	es := NewEarlyStopping(2, 0.01)
	assert.False(t, es.Update(0, 1.0))
	assert.False(t, es.Update(1, 0.5))
	// Improvements smaller than tol count as no change.
	assert.False(t, es.Update(2, 0.495))
	assert.True(t, es.Update(3, 0.6))
	assert.Equal(t, 2, es.BestIteration)
	assert.InDelta(t, 0.495, es.BestScore, 1e-12)
	assert.True(t, es.ShouldStop())
}

func TestEarlyStopping_Disabled(t *testing.T) {
	es := NewEarlyStopping(0, 0)
	for i := 0; i < 10; i++ {
		assert.False(t, es.Update(i, float64(i)))
	}
	assert.False(t, es.ShouldStop())
	assert.Equal(t, -1, es.BestIteration)
}
