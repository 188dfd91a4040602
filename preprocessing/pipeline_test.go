package preprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/mlps/physlearn/core/model"
	"github.com/mlps/physlearn/pkg/errors"
	"github.com/mlps/physlearn/sklearn/linear_model"
)

func TestPipeline(t *testing.T) {
	X := mat.NewDense(6, 2, []float64{
		100, 0.01,
		200, 0.02,
		300, 0.01,
		400, 0.03,
		500, 0.02,
		600, 0.04,
	})
	y := mat.NewDense(6, 1, nil)
	for i := 0; i < 6; i++ {
		y.Set(i, 0, 0.01*X.At(i, 0)+50*X.At(i, 1))
	}

	p := NewPipeline(NewStandardScalerDefault(), linear_model.NewRidge(linear_model.WithRidgeAlpha(1e-9)))
	require.NoError(t, p.Fit(X, y))

	pred, err := p.Predict(X)
	require.NoError(t, err)
	for i := 0; i < 6; i++ {
		assert.InDelta(t, y.At(i, 0), pred.At(i, 0), 1e-6)
	}

	score, err := p.Score(X, y)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)

	assert.Nil(t, p.Classes())
	_, err = p.PredictProba(X)
	assert.ErrorIs(t, err, errors.ErrNotImplemented)
	_, err = p.DecisionFunction(X)
	assert.ErrorIs(t, err, errors.ErrNotImplemented)
}

func TestPipelineParams(t *testing.T) {
	p := NewPipeline(NewStandardScalerDefault(), linear_model.NewRidge())
	require.NoError(t, p.SetParams(map[string]interface{}{
		"alpha":             0.5,
		"scaler__with_mean": false,
	}))
	params := p.GetParams()
	assert.Equal(t, 0.5, params["alpha"])
	assert.Equal(t, false, params["scaler__with_mean"])
	assert.Equal(t, true, params["scaler__with_std"])

	clone := p.Clone().(model.Model)
	assert.Equal(t, params, clone.GetParams())
	assert.NotSame(t, p.Scaler, clone.(*Pipeline).Scaler)

	assert.Error(t, p.SetParams(map[string]interface{}{"scaler__copy": true}))
}

func TestPipelineUnfitted(t *testing.T) {
	p := NewPipeline(NewMinMaxScalerDefault(), linear_model.NewLinearRegression())
	_, err := p.Predict(mat.NewDense(1, 1, []float64{1}))
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))
}
