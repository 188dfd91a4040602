package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/mlps/physlearn/pkg/errors"
)

func TestValidateXY(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})

	n, p, err := ValidateXY("test", X, mat.NewVecDense(3, nil))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 2, p)

	_, _, err = ValidateXY("test", X, mat.NewVecDense(2, nil))
	var de *errors.DimensionError
	assert.ErrorAs(t, err, &de)

	_, _, err = ValidateXY("test", nil, nil)
	assert.ErrorIs(t, err, errors.ErrEmptyData)
}

func TestVecFromMatrix(t *testing.T) {
	v, err := VecFromMatrix("test", mat.NewDense(3, 1, []float64{1, 2, 3}))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, v.RawVector().Data)

	_, err = VecFromMatrix("test", mat.NewDense(2, 2, nil))
	var ve *errors.ValueError
	assert.ErrorAs(t, err, &ve)

	_, err = VecFromMatrix("test", nil)
	assert.ErrorIs(t, err, errors.ErrEmptyData)
}

func TestRowAndLabelHelpers(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	sub := SelectRows(X, []int{2, 0})
	assert.Equal(t, []float64{5, 6, 1, 2}, sub.RawMatrix().Data)
	assert.Equal(t, []float64{5, 1}, Column(sub, 0))

	labels := UniqueLabels([]float64{2, 0, 2, 1, 0})
	assert.Equal(t, []float64{0, 1, 2}, labels)
	assert.Equal(t, map[float64]int{0: 0, 1: 1, 2: 2}, LabelIndex(labels))
	assert.Equal(t, []float64{1, 2}, SelectValues([]float64{0, 1, 2}, []int{1, 2}))
}

func TestModelWeights(t *testing.T) {
	w := &ModelWeights{
		ModelType:    "Ridge",
		Version:      WeightsVersion,
		Coefficients: []float64{0.5, -1},
		Intercept:    2,
		Features:     []string{"a", "b"},
		IsFitted:     true,
	}
	data, err := w.ToJSON()
	require.NoError(t, err)

	var back ModelWeights
	require.NoError(t, back.FromJSON(data))
	c, ok := back.Coefficient("b")
	assert.True(t, ok)
	assert.Equal(t, -1.0, c)

	cp := back.Clone()
	cp.Coefficients[0] = 9
	assert.Equal(t, 0.5, back.Coefficients[0])
}
