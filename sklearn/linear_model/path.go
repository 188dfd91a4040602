package linear_model

import (
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/mlps/physlearn/core/model"
	"github.com/mlps/physlearn/pkg/errors"
)

// Path holds the coefficients fitted at each penalty strength.
type Path struct {
	Kind string
	// Alphas are in descending order.
	Alphas []float64
	// Coefs[i] are the coefficients at Alphas[i].
	Coefs      [][]float64
	Intercepts []float64
	// Scores[i] is the training R² at Alphas[i].
	Scores []float64
}

// Coef returns the path of feature j across all alphas.
func (p *Path) Coef(j int) []float64 {
	out := make([]float64, len(p.Coefs))
	for i, c := range p.Coefs {
		out[i] = c[j]
	}
	return out
}

// NonZero counts the non-zero coefficients at each alpha.
func (p *Path) NonZero() []int {
	out := make([]int, len(p.Coefs))
	for i, c := range p.Coefs {
		for _, v := range c {
			if v != 0 {
				out[i]++
			}
		}
	}
	return out
}

type pathModel interface {
	model.LinearModel
	model.Scorer
}

// RegularizationPath fits a "ridge" or "lasso" model at every alpha, from
// the strongest penalty to the weakest. The lasso path warm-starts each fit
// from the previous solution. opts are applied to every model.
func RegularizationPath(kind string, X, y mat.Matrix, alphas []float64, opts ...LassoOption) (*Path, error) {
	if len(alphas) == 0 {
		return nil, errors.NewValidationError("alphas", "must not be empty", alphas)
	}
	for _, a := range alphas {
		if a < 0 || math.IsNaN(a) {
			return nil, errors.NewValidationError("alphas", "must be non-negative", a)
		}
	}
	sorted := slices.Clone(alphas)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	var fit func(alpha float64) (pathModel, error)
	switch kind {
	case "ridge":
		fit = func(alpha float64) (pathModel, error) {
			r := NewRidge(WithRidgeAlpha(alpha))
			return r, r.Fit(X, y)
		}
	case "lasso":
		lasso := NewLasso(append(opts, WithWarmStart(true))...)
		fit = func(alpha float64) (pathModel, error) {
			lasso.alpha = alpha
			return lasso, lasso.Fit(X, y)
		}
	default:
		return nil, errors.NewValidationError("kind", "must be ridge or lasso", kind)
	}

	path := &Path{Kind: kind, Alphas: sorted}
	for _, a := range sorted {
		m, err := fit(a)
		if err != nil {
			return nil, errors.Wrapf(err, "%s path at alpha=%g", kind, a)
		}
		score, err := m.Score(X, y)
		if err != nil {
			score = math.NaN()
		}
		path.Coefs = append(path.Coefs, m.Coef())
		path.Intercepts = append(path.Intercepts, m.Intercept())
		path.Scores = append(path.Scores, score)
	}
	return path, nil
}

// LogSpace returns n values spaced evenly on a log10 scale from 10^start
// to 10^stop inclusive.
func LogSpace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{math.Pow(10, start)}
	}
	return floats.LogSpan(make([]float64, n), math.Pow(10, start), math.Pow(10, stop))
}

// LassoAlphaMax returns the smallest alpha for which every Lasso
// coefficient is zero: max_j |x_jᵀ(y - ȳ)| / n on centered data.
func LassoAlphaMax(X, y mat.Matrix, fitIntercept bool) (float64, error) {
	yv, n, p, err := prepareFit("LassoAlphaMax", X, y)
	if err != nil {
		return 0, err
	}
	Xc, yc, _, _ := centered(X, yv, fitIntercept)
	var best float64
	for j := 0; j < p; j++ {
		best = math.Max(best, math.Abs(floats.Dot(model.Column(Xc, j), yc.RawVector().Data)))
	}
	return best / float64(n), nil
}
