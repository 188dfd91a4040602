package linear_model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/mlps/physlearn/core/model"
	"github.com/mlps/physlearn/pkg/errors"
	"github.com/mlps/physlearn/pkg/log"
)

// Lasso minimizes (1/2n)·||y - Xw - b||² + alpha·||w||₁ by cyclic
// coordinate descent.
type Lasso struct {
	linearBase

	alpha     float64
	maxIter   int
	tol       float64
	warmStart bool

	nIter_ int
}

// LassoOption configures a Lasso model.
type LassoOption func(*Lasso)

// WithLassoAlpha sets the L1 penalty strength.
func WithLassoAlpha(alpha float64) LassoOption {
	return func(l *Lasso) { l.alpha = alpha }
}

// WithLassoMaxIter caps the number of full coordinate sweeps.
func WithLassoMaxIter(n int) LassoOption {
	return func(l *Lasso) { l.maxIter = n }
}

// WithLassoTol sets the stopping tolerance on the relative coefficient change.
func WithLassoTol(tol float64) LassoOption {
	return func(l *Lasso) { l.tol = tol }
}

// WithLassoFitIntercept sets whether an intercept is learned.
func WithLassoFitIntercept(fit bool) LassoOption {
	return func(l *Lasso) { l.fitIntercept = fit }
}

// WithWarmStart starts coordinate descent from the previous solution.
func WithWarmStart(warm bool) LassoOption {
	return func(l *Lasso) { l.warmStart = warm }
}

// NewLasso creates a Lasso with alpha = 1, maxIter = 1000, tol = 1e-4.
func NewLasso(options ...LassoOption) *Lasso {
	l := &Lasso{linearBase: newLinearBase("Lasso"), alpha: 1.0, maxIter: 1000, tol: 1e-4}
	for _, opt := range options {
		opt(l)
	}
	return l
}

// Alpha returns the penalty strength.
func (l *Lasso) Alpha() float64 { return l.alpha }

// NIter returns the number of sweeps the last Fit ran.
func (l *Lasso) NIter() int { return l.nIter_ }

// Fit runs coordinate descent until the largest coefficient update is below
// tol times the largest coefficient, or maxIter sweeps. Hitting maxIter
// emits a ConvergenceWarning and keeps the last iterate.
func (l *Lasso) Fit(X, y mat.Matrix) error {
	if l.alpha < 0 {
		return errors.NewValidationError("alpha", "must be non-negative", l.alpha)
	}
	if l.maxIter < 1 {
		return errors.NewValidationError("max_iter", "must be positive", l.maxIter)
	}
	yv, n, p, err := prepareFit("Lasso.Fit", X, y)
	if err != nil {
		return err
	}
	Xc, yc, xMean, yMean := centered(X, yv, l.fitIntercept)

	w := make([]float64, p)
	if l.warmStart && l.IsFitted() && len(l.coef_) == p {
		copy(w, l.coef_)
	}

	cols := make([][]float64, p)
	colSq := make([]float64, p)
	for j := range cols {
		cols[j] = model.Column(Xc, j)
		colSq[j] = floats.Dot(cols[j], cols[j]) / float64(n)
	}
	resid := append([]float64(nil), yc.RawVector().Data...)
	for j, wj := range w {
		if wj != 0 {
			floats.AddScaled(resid, -wj, cols[j])
		}
	}

	converged := false
	iter := 0
	for iter < l.maxIter && !converged {
		iter++
		var maxDelta, maxW float64
		for j := 0; j < p; j++ {
			if colSq[j] == 0 {
				w[j] = 0
				continue
			}
			old := w[j]
			rho := floats.Dot(cols[j], resid)/float64(n) + colSq[j]*old
			w[j] = softThreshold(rho, l.alpha) / colSq[j]
			if d := w[j] - old; d != 0 {
				floats.AddScaled(resid, -d, cols[j])
				maxDelta = math.Max(maxDelta, math.Abs(d))
			}
			maxW = math.Max(maxW, math.Abs(w[j]))
		}
		if err := errors.CheckValues("Lasso.Fit", w, iter); err != nil {
			return err
		}
		converged = maxW == 0 || maxDelta/maxW < l.tol
	}
	l.nIter_ = iter
	if !converged {
		errors.Warn(errors.NewConvergenceWarning("Lasso", iter,
			fmt.Sprintf("coordinate descent did not converge (alpha=%g); increase max_iter or scale the features", l.alpha)))
	}

	l.setSolution(w, interceptFrom(w, xMean, yMean), n)
	log.GetLoggerWithName("linear_model").Debug("lasso fitted",
		log.ModelNameKey, l.name,
		log.AlphaKey, l.alpha,
		log.IterationKey, iter,
	)
	return nil
}

func softThreshold(x, lambda float64) float64 {
	switch {
	case x > lambda:
		return x - lambda
	case x < -lambda:
		return x + lambda
	default:
		return 0
	}
}

// GetParams returns the hyperparameters.
func (l *Lasso) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"alpha":         l.alpha,
		"max_iter":      l.maxIter,
		"tol":           l.tol,
		"fit_intercept": l.fitIntercept,
		"warm_start":    l.warmStart,
	}
}

// SetParams updates the hyperparameters. The previous solution is kept so
// that warm_start can reuse it.
func (l *Lasso) SetParams(params map[string]interface{}) error {
	for k, v := range params {
		var err error
		switch k {
		case "alpha":
			l.alpha, err = nonNegative(k, v)
		case "max_iter":
			l.maxIter, err = model.ParamInt(k, v)
		case "tol":
			l.tol, err = nonNegative(k, v)
		case "fit_intercept":
			l.fitIntercept, err = model.ParamBool(k, v)
		case "warm_start":
			l.warmStart, err = model.ParamBool(k, v)
		default:
			err = model.UnknownParam(l.name, k, v)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Clone returns an unfitted copy with the same hyperparameters.
func (l *Lasso) Clone() model.Estimator {
	return model.Clone[*Lasso](l, NewLasso())
}

// ExportWeights snapshots the coefficients, naming them by featureNames
// when given.
func (l *Lasso) ExportWeights(featureNames []string) (*model.ModelWeights, error) {
	return l.exportWeights(l.GetParams(), featureNames, map[string]interface{}{"n_iter": l.nIter_})
}

// ImportWeights restores a model written by ExportWeights.
func (l *Lasso) ImportWeights(w *model.ModelWeights) error {
	if w != nil {
		if err := l.SetParams(w.Hyperparameters); err != nil {
			return err
		}
	}
	return l.importWeights(w)
}

func (l *Lasso) String() string {
	return fmt.Sprintf("Lasso(alpha=%g, max_iter=%d, tol=%g)", l.alpha, l.maxIter, l.tol)
}
