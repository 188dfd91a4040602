package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/mlps/physlearn/pkg/errors"
)

func TestClassBalance(t *testing.T) {
	warnings := captureWarnings(t)
	d := loadMaterials(t)
	*warnings = nil

	balance := d.ClassBalance()
	require.Len(t, balance, 3)
	assert.Equal(t, "insulator", balance[0].Name)
	assert.Equal(t, 2, balance[0].Count)
	assert.Equal(t, 4, balance[1].Count)
	assert.InDelta(t, 0.5, balance[1].Fraction, 1e-12)

	ratio, imbalanced := d.CheckBalance(0.25)
	assert.InDelta(t, 0.5, ratio, 1e-12)
	assert.False(t, imbalanced)
	assert.Empty(t, *warnings)

	assert.True(t, d.IsImbalanced(0.6))
	require.Len(t, *warnings, 1)
	var w *errors.ClassImbalanceWarning
	require.True(t, errors.As((*warnings)[0], &w))
	assert.Equal(t, "metal", w.Majority)
}

func TestDescribe(t *testing.T) {
	X := mat.NewDense(5, 1, []float64{1, 2, 3, 4, math.NaN()})
	d, err := New([]string{"x"}, "y", X, mat.NewVecDense(5, []float64{2, 4, 6, 8, 10}))
	require.NoError(t, err)

	summary := d.Describe()
	require.Len(t, summary, 2)
	s := summary[0]
	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 1, s.Missing)
	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3.0), s.Std, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.InDelta(t, 1.75, s.Q25, 1e-12)
	assert.InDelta(t, 2.5, s.Median, 1e-12)
	assert.InDelta(t, 3.25, s.Q75, 1e-12)
	assert.Equal(t, 4.0, s.Max)

	assert.Equal(t, "y", summary[1].Column)
	assert.InDelta(t, 6.0, summary[1].Median, 1e-12)
}

func TestCorrelations(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 4,
		2, 3,
		3, 2,
		4, 1,
	})
	d, err := New([]string{"up", "down"}, "y", X, mat.NewVecDense(4, []float64{10, 20, 30, 40}))
	require.NoError(t, err)
	corr := d.Correlations()
	assert.InDelta(t, 1.0, corr["up"], 1e-12)
	assert.InDelta(t, -1.0, corr["down"], 1e-12)
}
