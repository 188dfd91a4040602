// Package linear_model provides ordinary least squares, Ridge and Lasso
// regression together with regularization paths over the penalty strength.
package linear_model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/mlps/physlearn/core/model"
	"github.com/mlps/physlearn/metrics"
	"github.com/mlps/physlearn/pkg/errors"
)

// linearBase holds the learned parameters shared by every linear model.
type linearBase struct {
	state *model.StateManager

	name         string
	fitIntercept bool

	coef_      []float64
	intercept_ float64
}

func newLinearBase(name string) linearBase {
	return linearBase{state: model.NewStateManager(), name: name, fitIntercept: true}
}

// IsFitted returns whether the model has been fitted.
func (b *linearBase) IsFitted() bool {
	return b.state.IsFitted()
}

// Coef returns a copy of the learned coefficients.
func (b *linearBase) Coef() []float64 {
	if b.coef_ == nil {
		return nil
	}
	return append([]float64(nil), b.coef_...)
}

// Intercept returns the learned intercept.
func (b *linearBase) Intercept() float64 {
	return b.intercept_
}

// Predict returns X·coef + intercept as an n×1 matrix.
func (b *linearBase) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := b.state.RequireFitted(b.name, "Predict"); err != nil {
		return nil, err
	}
	rows, _, err := model.ValidateX(b.name+".Predict", X)
	if err != nil {
		return nil, err
	}
	if err := b.state.CheckFeatures(b.name+".Predict", X); err != nil {
		return nil, err
	}
	out := mat.NewVecDense(rows, nil)
	out.MulVec(X, mat.NewVecDense(len(b.coef_), b.coef_))
	for i := 0; i < rows; i++ {
		out.SetVec(i, out.AtVec(i)+b.intercept_)
	}
	return out, nil
}

// Score returns the coefficient of determination R² on (X, y).
func (b *linearBase) Score(X, y mat.Matrix) (float64, error) {
	pred, err := b.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(model.ColumnVector(y), model.ColumnVector(pred))
}

// setSolution records the fitted parameters.
func (b *linearBase) setSolution(coef []float64, intercept float64, nSamples int) {
	b.coef_ = coef
	b.intercept_ = intercept
	b.state.SetDimensions(len(coef), nSamples)
	b.state.SetFitted()
}

// exportWeights snapshots the coefficients with optional feature names.
func (b *linearBase) exportWeights(params map[string]interface{}, featureNames []string, meta map[string]interface{}) (*model.ModelWeights, error) {
	if err := b.state.RequireFitted(b.name, "ExportWeights"); err != nil {
		return nil, err
	}
	_, nSamples := b.state.GetDimensions()
	w := &model.ModelWeights{
		ModelType:       b.name,
		Version:         model.WeightsVersion,
		Coefficients:    b.Coef(),
		Intercept:       b.intercept_,
		Features:        append([]string(nil), featureNames...),
		Hyperparameters: params,
		IsFitted:        true,
		Metadata:        map[string]interface{}{"n_samples": nSamples},
	}
	for k, v := range meta {
		w.Metadata[k] = v
	}
	w.Metadata["checksum"] = checksum(w.Coefficients, w.Intercept)
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

// importWeights restores coefficients written by exportWeights.
func (b *linearBase) importWeights(w *model.ModelWeights) error {
	if w == nil {
		return errors.NewValueError(b.name+".ImportWeights", "weights cannot be nil")
	}
	if w.ModelType != b.name {
		return errors.NewValueError(b.name+".ImportWeights", "model type mismatch: got "+w.ModelType)
	}
	if err := w.Validate(); err != nil {
		return err
	}
	if sum, ok := w.Metadata["checksum"].(string); ok && sum != checksum(w.Coefficients, w.Intercept) {
		return errors.NewValueError(b.name+".ImportWeights", "checksum mismatch: weights may be corrupted")
	}
	nSamples := 0
	if v, ok := w.Metadata["n_samples"]; ok {
		nSamples, _ = model.ParamInt("n_samples", v)
	}
	b.setSolution(append([]float64(nil), w.Coefficients...), w.Intercept, nSamples)
	return nil
}

func checksum(coef []float64, intercept float64) string {
	data, _ := json.Marshal(append(append([]float64(nil), coef...), intercept))
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// centered returns X and y minus their column means when fitIntercept is
// set, plus the means needed to recover the intercept.
func centered(X mat.Matrix, y *mat.VecDense, fitIntercept bool) (*mat.Dense, *mat.VecDense, []float64, float64) {
	rows, cols := X.Dims()
	Xc := mat.DenseCopyOf(X)
	yc := mat.VecDenseCopyOf(y)
	xMean := make([]float64, cols)
	var yMean float64
	if !fitIntercept {
		return Xc, yc, xMean, 0
	}
	for j := 0; j < cols; j++ {
		col := model.Column(Xc, j)
		xMean[j] = floats.Sum(col) / float64(rows)
		floats.AddConst(-xMean[j], col)
		Xc.SetCol(j, col)
	}
	yMean = floats.Sum(yc.RawVector().Data) / float64(rows)
	for i := 0; i < rows; i++ {
		yc.SetVec(i, yc.AtVec(i)-yMean)
	}
	return Xc, yc, xMean, yMean
}

// interceptFrom recovers the intercept for coefficients fitted on centered data.
func interceptFrom(coef, xMean []float64, yMean float64) float64 {
	return yMean - floats.Dot(coef, xMean)
}

// prepareFit validates (X, y) and returns y as a contiguous vector.
func prepareFit(op string, X, y mat.Matrix) (*mat.VecDense, int, int, error) {
	n, p, err := model.ValidateXY(op, X, y)
	if err != nil {
		return nil, 0, 0, err
	}
	if err := errors.CheckMatrix(op, X, 0); err != nil {
		return nil, 0, 0, err
	}
	if err := errors.CheckMatrix(op, y, 0); err != nil {
		return nil, 0, 0, err
	}
	yv := mat.NewVecDense(n, model.Column(y, 0))
	return yv, n, p, nil
}

func nonNegative(name string, v interface{}) (float64, error) {
	f, err := model.ParamFloat(name, v)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, errors.NewValidationError(name, "must be non-negative", v)
	}
	return f, nil
}
