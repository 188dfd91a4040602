package linear_model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/mlps/physlearn/core/model"
	"github.com/mlps/physlearn/pkg/errors"
)

// LinearRegression is ordinary least squares solved by QR decomposition.
type LinearRegression struct {
	linearBase

	positive bool
	rank_    int
}

// LinearRegressionOption configures a LinearRegression.
type LinearRegressionOption func(*LinearRegression)

// WithLRFitIntercept sets whether an intercept is learned.
func WithLRFitIntercept(fit bool) LinearRegressionOption {
	return func(lr *LinearRegression) {
		lr.fitIntercept = fit
	}
}

// WithPositive clips negative coefficients to zero after solving.
func WithPositive(positive bool) LinearRegressionOption {
	return func(lr *LinearRegression) {
		lr.positive = positive
	}
}

// NewLinearRegression creates an OLS model that fits an intercept by default.
func NewLinearRegression(options ...LinearRegressionOption) *LinearRegression {
	lr := &LinearRegression{linearBase: newLinearBase("LinearRegression")}
	for _, opt := range options {
		opt(lr)
	}
	return lr
}

// Fit solves min ||y - Xw - b||² by QR on the centered data.
func (lr *LinearRegression) Fit(X, y mat.Matrix) error {
	yv, n, p, err := prepareFit("LinearRegression.Fit", X, y)
	if err != nil {
		return err
	}
	Xc, yc, xMean, yMean := centered(X, yv, lr.fitIntercept)

	coef := mat.NewVecDense(p, nil)
	if n >= p {
		var qr mat.QR
		qr.Factorize(Xc)
		err = qr.SolveVecTo(coef, false, yc)
	}
	if n < p || err != nil {
		// underdetermined or rank deficient: minimum-norm solution
		if err := solveSVD(coef, Xc, yc); err != nil {
			return errors.NewModelError("LinearRegression.Fit", "least squares", err)
		}
	}

	w := append([]float64(nil), coef.RawVector().Data...)
	if lr.positive {
		for i := range w {
			w[i] = max(w[i], 0)
		}
	}
	lr.rank_ = min(n, p)
	lr.setSolution(w, interceptFrom(w, xMean, yMean), n)
	return nil
}

// solveSVD writes the minimum-norm least squares solution of X·w = y into dst.
func solveSVD(dst *mat.VecDense, X *mat.Dense, y *mat.VecDense) error {
	var svd mat.SVD
	if !svd.Factorize(X, mat.SVDThin) {
		return errors.ErrSingularMatrix
	}
	rank := svd.Rank(1e-12)
	if rank == 0 {
		dst.Zero()
		return nil
	}
	var out mat.Dense
	svd.SolveTo(&out, y, rank)
	dst.CopyVec(out.ColView(0))
	return nil
}

// GetParams returns the hyperparameters.
func (lr *LinearRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"fit_intercept": lr.fitIntercept,
		"positive":      lr.positive,
	}
}

// SetParams updates the hyperparameters and resets the fitted state.
func (lr *LinearRegression) SetParams(params map[string]interface{}) error {
	for k, v := range params {
		var err error
		switch k {
		case "fit_intercept":
			lr.fitIntercept, err = model.ParamBool(k, v)
		case "positive":
			lr.positive, err = model.ParamBool(k, v)
		default:
			err = model.UnknownParam(lr.name, k, v)
		}
		if err != nil {
			return err
		}
	}
	lr.state.Reset()
	return nil
}

// Clone returns an unfitted copy with the same hyperparameters.
func (lr *LinearRegression) Clone() model.Estimator {
	return model.Clone[*LinearRegression](lr, NewLinearRegression())
}

// ExportWeights snapshots the coefficients, naming them by featureNames
// when given.
func (lr *LinearRegression) ExportWeights(featureNames []string) (*model.ModelWeights, error) {
	return lr.exportWeights(lr.GetParams(), featureNames, map[string]interface{}{"rank": lr.rank_})
}

// ImportWeights restores a model written by ExportWeights.
func (lr *LinearRegression) ImportWeights(w *model.ModelWeights) error {
	if w != nil {
		if err := lr.SetParams(w.Hyperparameters); err != nil {
			return err
		}
	}
	return lr.importWeights(w)
}

// String returns the string representation of the model.
func (lr *LinearRegression) String() string {
	if !lr.IsFitted() {
		return fmt.Sprintf("LinearRegression(fit_intercept=%t, positive=%t)", lr.fitIntercept, lr.positive)
	}
	nFeatures, _ := lr.state.GetDimensions()
	return fmt.Sprintf("LinearRegression(fit_intercept=%t, n_features=%d, fitted=true)", lr.fitIntercept, nFeatures)
}
