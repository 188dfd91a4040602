package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/mlps/physlearn/pkg/errors"
)

func vec(v ...float64) *mat.VecDense { return mat.NewVecDense(len(v), v) }

func TestPrecisionRecallF1Binary(t *testing.T) {
	yTrue := vec(0, 0, 1, 1, 1, 0)
	yPred := vec(0, 1, 1, 1, 0, 0)

	p, err := Precision(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, p, 1e-12)

	r, err := Recall(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, r, 1e-12)

	f, err := F1Score(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, f, 1e-12)
}

func TestPrecisionUndefinedWarns(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	t.Cleanup(func() { errors.SetWarningHandler(func(error) {}) })

	p, err := Precision(vec(0, 1, 1), vec(0, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 0.0, p)
	require.NotEmpty(t, warnings)

	var undefined *errors.UndefinedMetricWarning
	assert.True(t, errors.As(warnings[0], &undefined))
}

func TestMacroF1Multiclass(t *testing.T) {
	yTrue := vec(0, 1, 2, 0, 1, 2)
	yPred := vec(0, 2, 1, 0, 0, 1)
	// class 0: p=2/3 r=1 f=0.8; class 1: p=0 r=0; class 2: p=0 r=0
	f, err := F1Score(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 0.8/3, f, 1e-12)
}

func TestConfusionMatrix(t *testing.T) {
	cm, labels, err := ConfusionMatrix(vec(0, 1, 1, 2), vec(0, 1, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2}, labels)
	assert.Equal(t, []float64{
		1, 0, 0,
		0, 1, 1,
		0, 0, 1,
	}, cm.RawMatrix().Data)
}

type constPredictor struct{ out mat.Matrix }

func (c constPredictor) Predict(mat.Matrix) (mat.Matrix, error) { return c.out, nil }

func TestScorerOrientation(t *testing.T) {
	y := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	pred := constPredictor{out: mat.NewDense(4, 1, []float64{1, 2, 3, 6})}

	mse, err := GetScorer("neg_mean_squared_error")
	require.NoError(t, err)
	got, err := mse.Score(pred, &mat.Dense{}, y)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, got, 1e-12)

	r2, err := GetScorer("r2")
	require.NoError(t, err)
	got, err = r2.ScorePredictions(y, pred.out)
	require.NoError(t, err)
	assert.InDelta(t, 1-4.0/5.0, got, 1e-12)

	_, err = GetScorer("bogus")
	assert.Error(t, err)
	assert.Contains(t, ScorerNames(), "roc_auc")
	assert.Equal(t, "accuracy", DefaultScoring(true))
}

func TestScorersAreGreaterIsBetter(t *testing.T) {
	tests := []struct {
		scoring     string
		yTrue, good []float64
		bad         []float64
		wantBad     float64
	}{
		{"accuracy", []float64{0, 1, 2, 2}, []float64{0, 1, 2, 2}, []float64{0, 2, 2, 1}, 0.5},
		{"error", []float64{0, 1, 2, 2}, []float64{0, 1, 2, 2}, []float64{0, 2, 2, 1}, -0.5},
		{"neg_mean_absolute_error", gapTrue, gapTrue, gapPred, -0.25},
		{"neg_mean_squared_error", gapTrue, gapTrue, gapPred, -0.085},
		{"r2", gapTrue, gapTrue, gapPred, 1 - 0.34/6.8475},
	}
	for _, tt := range tests {
		t.Run(tt.scoring, func(t *testing.T) {
			s, err := GetScorer(tt.scoring)
			require.NoError(t, err)

			good, err := s.ScorePredictions(vec(tt.yTrue...), vec(tt.good...))
			require.NoError(t, err)
			bad, err := s.ScorePredictions(vec(tt.yTrue...), vec(tt.bad...))
			require.NoError(t, err)

			assert.InDelta(t, tt.wantBad, bad, 1e-12)
			assert.Greater(t, good, bad)
		})
	}
}
