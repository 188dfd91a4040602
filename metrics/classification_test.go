package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/mlps/physlearn/pkg/errors"
)

func captureWarnings(t *testing.T) *[]error {
	t.Helper()
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	t.Cleanup(func() { errors.SetWarningHandler(func(error) {}) })
	return &warnings
}

func TestAccuracyMulticlass(t *testing.T) {
	// labels as encoded from sorted class names: insulator=0, metal=1, semiconductor=2
	yTrue := vec(0, 1, 2, 2, 1, 0)
	yPred := vec(0, 2, 2, 2, 1, 1)

	acc, err := Accuracy(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 4.0/6.0, acc, 1e-12)

	miss, err := ClassificationError(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/6.0, miss, 1e-12)
	assert.InDelta(t, 1.0, acc+miss, 1e-12)

	_, err = Accuracy(yTrue, vec(0, 1))
	var de *errors.DimensionError
	assert.ErrorAs(t, err, &de)
}

func TestBinaryLogLoss(t *testing.T) {
	loss, err := BinaryLogLoss(vec(1, 0), vec(0.8, 0.3))
	require.NoError(t, err)
	assert.InDelta(t, -(math.Log(0.8)+math.Log(0.7))/2, loss, 1e-12)

	t.Run("certain and wrong is clipped", func(t *testing.T) {
		loss, err := BinaryLogLoss(vec(1), vec(0))
		require.NoError(t, err)
		assert.False(t, math.IsInf(loss, 0))
		assert.InDelta(t, -math.Log(logLossEps), loss, 1e-9)
	})

	t.Run("multiclass labels", func(t *testing.T) {
		_, err := BinaryLogLoss(vec(0, 2), vec(0.1, 0.9))
		var ve *errors.ValueError
		assert.ErrorAs(t, err, &ve)
	})
}

func TestAUC(t *testing.T) {
	tests := []struct {
		name  string
		yTrue []float64
		score []float64
		want  float64
	}{
		{"perfect ranking", []float64{0, 0, 1, 1}, []float64{0.1, 0.2, 0.7, 0.9}, 1},
		{"reversed ranking", []float64{1, 1, 0, 0}, []float64{0.1, 0.2, 0.7, 0.9}, 0},
		// one of four positive/negative pairs is misordered
		{"one swap", []float64{0, 0, 1, 1}, []float64{0.1, 0.4, 0.35, 0.8}, 0.75},
		{"tied scores", []float64{0, 1}, []float64{0.5, 0.5}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AUC(vec(tt.yTrue...), vec(tt.score...))
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}

	t.Run("single class warns", func(t *testing.T) {
		warnings := captureWarnings(t)
		got, err := AUC(vec(1, 1, 1), vec(0.2, 0.5, 0.9))
		require.NoError(t, err)
		assert.Equal(t, 0.5, got)
		require.Len(t, *warnings, 1)
		var undefined *errors.UndefinedMetricWarning
		assert.ErrorAs(t, (*warnings)[0], &undefined)
	})

	t.Run("multiclass labels", func(t *testing.T) {
		_, err := AUC(vec(0, 1, 2), vec(0.1, 0.5, 0.9))
		assert.Error(t, err)
	})
}

func TestAUCMatrixUsesFirstColumn(t *testing.T) {
	yTrue := mat.NewDense(4, 1, []float64{0, 0, 1, 1})
	scores := mat.NewDense(4, 2, []float64{
		0.1, 0.9,
		0.2, 0.8,
		0.7, 0.3,
		0.9, 0.1,
	})
	got, err := AUCMatrix(yTrue, scores)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestBinaryMetricsWarnOnlyForPositiveLabel(t *testing.T) {
	t.Run("precision with label 0 never predicted", func(t *testing.T) {
		warnings := captureWarnings(t)
		p, err := Precision(vec(0, 1), vec(1, 1))
		require.NoError(t, err)
		assert.InDelta(t, 0.5, p, 1e-12)
		assert.Empty(t, *warnings)
	})

	t.Run("recall with label 0 never true", func(t *testing.T) {
		warnings := captureWarnings(t)
		r, err := Recall(vec(1, 1), vec(0, 1))
		require.NoError(t, err)
		assert.InDelta(t, 0.5, r, 1e-12)
		assert.Empty(t, *warnings)
	})

	t.Run("positive label never predicted", func(t *testing.T) {
		warnings := captureWarnings(t)
		p, err := Precision(vec(0, 1), vec(0, 0))
		require.NoError(t, err)
		assert.Zero(t, p)
		assert.Len(t, *warnings, 1)
	})
}

func TestMacroMetricsWarnPerUndefinedClass(t *testing.T) {
	warnings := captureWarnings(t)
	// class 2 is never predicted
	p, err := Precision(vec(0, 1, 2), vec(0, 1, 1))
	require.NoError(t, err)
	assert.InDelta(t, (1+0.5+0)/3.0, p, 1e-12)
	assert.Len(t, *warnings, 1)
}
