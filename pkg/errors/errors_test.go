package errors

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		kind    string
		err     error
		wantMsg string
	}{
		{
			name:    "with original error",
			op:      "Fit",
			kind:    "invalid input",
			err:     fmt.Errorf("test error"),
			wantMsg: "physlearn: Fit: invalid input: test error",
		},
		{
			name:    "without original error",
			op:      "Predict",
			kind:    "not fitted",
			wantMsg: "physlearn: Predict: not fitted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)
			assert.Equal(t, tt.wantMsg, err.Error())

			// スタックトレースにテストファイルが含まれる
			assert.Contains(t, fmt.Sprintf("%+v", err), "errors_test.go")

			var modelErr *ModelError
			assert.True(t, As(err, &modelErr))
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Predict", 4, 3, 1)
	assert.Equal(t, "physlearn: Predict: dimension mismatch on axis 1 (features). Expected 4, got 3", err.Error())

	var dimErr *DimensionError
	require.True(t, As(err, &dimErr))
	assert.Equal(t, 4, dimErr.Expected)
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("Lasso", "Predict")
	assert.Equal(t, "physlearn: Lasso: this model is not fitted yet. Call Fit() before using Predict()", err.Error())

	var notFitted *NotFittedError
	assert.True(t, As(err, &notFitted))
}

func TestNewDataError(t *testing.T) {
	tests := []struct {
		name    string
		column  string
		row     int
		wantMsg string
	}{
		{"column and row", "energy", 12, `physlearn: LoadCSV: column "energy" row 12: not numeric`},
		{"column only", "energy", -1, `physlearn: LoadCSV: column "energy": not numeric`},
		{"neither", "", -1, "physlearn: LoadCSV: not numeric"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDataError("LoadCSV", tt.column, tt.row, "not numeric")
			assert.Equal(t, tt.wantMsg, err.Error())
			var dataErr *DataError
			assert.True(t, As(err, &dataErr))
		})
	}
}

func TestWarnRoutesToHandler(t *testing.T) {
	var got []error
	SetWarningHandler(func(w error) { got = append(got, w) })
	t.Cleanup(func() { SetWarningHandler(func(error) {}) })

	Warn(NewConvergenceWarning("Lasso", 1000, "duality gap 0.1"))
	Warn(NewClassImbalanceWarning("1", "0", 0.05, 0.2))

	require.Len(t, got, 2)
	assert.Equal(t, "Lasso failed to converge after 1000 iterations: duality gap 0.1", got[0].Error())
	assert.True(t, strings.HasPrefix(got[1].Error(), `class imbalance: minority class "1"`))
}

func TestZerologWarnFuncTakesPriority(t *testing.T) {
	var handled, zl int
	SetWarningHandler(func(error) { handled++ })
	SetZerologWarnFunc(func(error) { zl++ })
	t.Cleanup(func() { SetWarningHandler(func(error) {}) })

	Warn(NewUndefinedMetricWarning("precision", "no predicted samples", 0))
	assert.Equal(t, 0, handled)
	assert.Equal(t, 1, zl)
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "in %s: expected %d, got %d", "Predict", 10, 5)
	assert.True(t, Is(wrapped, ErrEmptyData))
	assert.Contains(t, wrapped.Error(), "in Predict: expected 10, got 5")

	chained := NewModelError("Operation", "failed", Wrap(fmt.Errorf("base error"), "wrapped once"))
	assert.Contains(t, chained.Error(), "base error")
}

func TestNumericalHelpers(t *testing.T) {
	assert.NoError(t, CheckValues("grad", []float64{1, 2}, 0))
	assert.Error(t, CheckScalar("loss", 1.0/zero(), 3))
	assert.Equal(t, 0.0, SafeDivide(1, 0))
	assert.Equal(t, 1.0, ClipValue(5, -1, 1))
	assert.InDelta(t, 0.5, Sigmoid(0), 1e-12)
	assert.InDelta(t, 1.0, Sigmoid(800), 1e-12)
	assert.InDelta(t, 0.0, Sigmoid(-800), 1e-12)

	p := Softmax(nil, []float64{1000, 1000})
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, p, 1e-12)
}

func zero() float64 { return 0 }
