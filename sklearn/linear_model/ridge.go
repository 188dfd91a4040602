package linear_model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/mlps/physlearn/core/model"
	"github.com/mlps/physlearn/pkg/errors"
)

// Ridge minimizes ||y - Xw - b||² + alpha·||w||². The intercept is not
// penalized: it is recovered from the column means after solving on
// centered data.
type Ridge struct {
	linearBase

	alpha float64
}

// RidgeOption configures a Ridge model.
type RidgeOption func(*Ridge)

// WithRidgeAlpha sets the L2 penalty strength.
func WithRidgeAlpha(alpha float64) RidgeOption {
	return func(r *Ridge) { r.alpha = alpha }
}

// WithRidgeFitIntercept sets whether an intercept is learned.
func WithRidgeFitIntercept(fit bool) RidgeOption {
	return func(r *Ridge) { r.fitIntercept = fit }
}

// NewRidge creates a Ridge model with alpha = 1.
func NewRidge(options ...RidgeOption) *Ridge {
	r := &Ridge{linearBase: newLinearBase("Ridge"), alpha: 1.0}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Alpha returns the penalty strength.
func (r *Ridge) Alpha() float64 { return r.alpha }

// Fit solves (XᵀX + alpha·I)w = Xᵀy by Cholesky factorization.
func (r *Ridge) Fit(X, y mat.Matrix) error {
	if r.alpha < 0 {
		return errors.NewValidationError("alpha", "must be non-negative", r.alpha)
	}
	yv, n, p, err := prepareFit("Ridge.Fit", X, y)
	if err != nil {
		return err
	}
	Xc, yc, xMean, yMean := centered(X, yv, r.fitIntercept)

	gram := mat.NewSymDense(p, nil)
	gram.SymOuterK(1, Xc.T())
	for j := 0; j < p; j++ {
		gram.SetSym(j, j, gram.At(j, j)+r.alpha)
	}
	rhs := mat.NewVecDense(p, nil)
	rhs.MulVec(Xc.T(), yc)

	coef := mat.NewVecDense(p, nil)
	var chol mat.Cholesky
	if ok := chol.Factorize(gram); !ok || chol.SolveVecTo(coef, rhs) != nil {
		// alpha = 0 with collinear columns
		if err := solveSVD(coef, Xc, yc); err != nil {
			return errors.NewModelError("Ridge.Fit", "solve normal equations", err)
		}
	}

	w := append([]float64(nil), coef.RawVector().Data...)
	r.setSolution(w, interceptFrom(w, xMean, yMean), n)
	return nil
}

// GetParams returns the hyperparameters.
func (r *Ridge) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"alpha":         r.alpha,
		"fit_intercept": r.fitIntercept,
	}
}

// SetParams updates the hyperparameters and resets the fitted state.
func (r *Ridge) SetParams(params map[string]interface{}) error {
	for k, v := range params {
		var err error
		switch k {
		case "alpha":
			r.alpha, err = nonNegative(k, v)
		case "fit_intercept":
			r.fitIntercept, err = model.ParamBool(k, v)
		default:
			err = model.UnknownParam(r.name, k, v)
		}
		if err != nil {
			return err
		}
	}
	r.state.Reset()
	return nil
}

// Clone returns an unfitted copy with the same hyperparameters.
func (r *Ridge) Clone() model.Estimator {
	return model.Clone[*Ridge](r, NewRidge())
}

// ExportWeights snapshots the coefficients, naming them by featureNames
// when given.
func (r *Ridge) ExportWeights(featureNames []string) (*model.ModelWeights, error) {
	return r.exportWeights(r.GetParams(), featureNames, nil)
}

// ImportWeights restores a model written by ExportWeights.
func (r *Ridge) ImportWeights(w *model.ModelWeights) error {
	if w != nil {
		if err := r.SetParams(w.Hyperparameters); err != nil {
			return err
		}
	}
	return r.importWeights(w)
}

func (r *Ridge) String() string {
	return fmt.Sprintf("Ridge(alpha=%g, fit_intercept=%t)", r.alpha, r.fitIntercept)
}
