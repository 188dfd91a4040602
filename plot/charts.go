package plot

import (
	"math"
	"slices"

	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/mlps/physlearn/dataset"
	"github.com/mlps/physlearn/pkg/errors"
	"github.com/mlps/physlearn/sklearn/linear_model"
)

// CoefficientBars draws one horizontal bar per feature coefficient.
func CoefficientBars(names []string, coef []float64, o Options, path string) error {
	if err := checkLengths("plot.CoefficientBars", len(coef), len(names)); err != nil {
		return err
	}
	defaultTitle(&o, "Coefficients", "coefficient", "")
	p := newPlot(o)
	if err := bars(p, names, coef, true, plotutil.Color(0)); err != nil {
		return err
	}
	return save(p, o, path)
}

// FeatureImportanceBars draws importances as horizontal bars, largest on top.
func FeatureImportanceBars(names []string, importances []float64, o Options, path string) error {
	if err := checkLengths("plot.FeatureImportanceBars", len(importances), len(names)); err != nil {
		return err
	}
	defaultTitle(&o, "Feature importances", "importance", "")
	order := make([]int, len(names))
	for i := range order {
		order[i] = i
	}
	// Ascending so the largest bar is drawn last, at the top.
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case importances[a] < importances[b]:
			return -1
		case importances[a] > importances[b]:
			return 1
		}
		return 0
	})
	n := make([]string, len(order))
	v := make([]float64, len(order))
	for k, i := range order {
		n[k], v[k] = names[i], importances[i]
	}
	p := newPlot(o)
	if err := bars(p, n, v, true, plotutil.Color(2)); err != nil {
		return err
	}
	return save(p, o, path)
}

// ClassBalanceBars draws the sample count of every class.
func ClassBalanceBars(counts []dataset.ClassCount, o Options, path string) error {
	if err := checkLengths("plot.ClassBalanceBars", len(counts)); err != nil {
		return err
	}
	defaultTitle(&o, "Class balance", "class", "samples")
	names := make([]string, len(counts))
	values := make([]float64, len(counts))
	for i, c := range counts {
		names[i], values[i] = c.Name, float64(c.Count)
	}
	p := newPlot(o)
	if err := bars(p, names, values, false, plotutil.Color(1)); err != nil {
		return err
	}
	return save(p, o, path)
}

// RegularizationPath plots every coefficient against alpha on a log axis.
func RegularizationPath(path *linear_model.Path, names []string, o Options, out string) error {
	if err := checkLengths("plot.RegularizationPath", len(path.Alphas), len(path.Coefs)); err != nil {
		return err
	}
	if len(path.Coefs[0]) != len(names) {
		return errors.NewDimensionError("plot.RegularizationPath", len(path.Coefs[0]), len(names), 1)
	}
	for _, a := range path.Alphas {
		if a <= 0 {
			return errors.NewValidationError("alpha", "must be positive on a log axis", a)
		}
	}
	o.LogX = true
	defaultTitle(&o, path.Kind+" regularization path", "alpha", "coefficient")
	p := newPlot(o)
	for j, name := range names {
		l, err := plotter.NewLine(xys(path.Alphas, path.Coef(j)))
		if err != nil {
			return errors.Wrapf(err, "plot: coefficient %s", name)
		}
		l.Color = plotutil.Color(j)
		l.Width = vg.Points(1.5)
		p.Add(l)
		p.Legend.Add(name, l)
	}
	return save(p, o, out)
}

// PredictedVsTrue scatters predictions against targets with the y = x
// reference line.
func PredictedVsTrue(yTrue, yPred []float64, o Options, path string) error {
	if err := checkLengths("plot.PredictedVsTrue", len(yTrue), len(yPred)); err != nil {
		return err
	}
	defaultTitle(&o, "Predicted vs true", "true", "predicted")
	p := newPlot(o)
	s, err := plotter.NewScatter(xys(yTrue, yPred))
	if err != nil {
		return errors.Wrap(err, "plot: scatter")
	}
	s.Shape = draw.CircleGlyph{}
	s.Radius = vg.Points(2.5)
	s.Color = plotutil.Color(0)
	p.Add(s)

	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range yTrue {
		lo = math.Min(lo, math.Min(yTrue[i], yPred[i]))
		hi = math.Max(hi, math.Max(yTrue[i], yPred[i]))
	}
	ref, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return errors.Wrap(err, "plot: reference line")
	}
	ref.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(ref)
	p.Legend.Add("y = x", ref)
	return save(p, o, path)
}
