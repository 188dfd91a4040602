package plot

import (
	"fmt"

	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/mlps/physlearn/core/model"
	"github.com/mlps/physlearn/diagnostics"
	"github.com/mlps/physlearn/pkg/errors"
	"github.com/mlps/physlearn/sklearn/model_selection"
)

// LearningCurve plots mean train and test scores against the training-set
// size with ±1 std bands.
func LearningCurve(res *model_selection.LearningCurveResult, o Options, path string) error {
	if err := checkLengths("plot.LearningCurve", len(res.TrainSizes), len(res.TestScores)); err != nil {
		return err
	}
	defaultTitle(&o, "Learning curve", "training samples", res.Scoring)
	x := make([]float64, len(res.TrainSizes))
	for i, s := range res.TrainSizes {
		x[i] = float64(s)
	}
	p := newPlot(o)
	if err := curvePair(p, x, &res.CurveResult); err != nil {
		return err
	}
	return save(p, o, path)
}

// ValidationCurve plots mean train and test scores against the swept
// parameter. Non-numeric values are placed at equal spacing.
func ValidationCurve(res *model_selection.ValidationCurveResult, o Options, path string) error {
	if err := checkLengths("plot.ValidationCurve", len(res.Values), len(res.TestScores)); err != nil {
		return err
	}
	defaultTitle(&o, "Validation curve", res.Param, res.Scoring)
	x := make([]float64, len(res.Values))
	numeric := true
	for i, v := range res.Values {
		f, err := model.ParamFloat(res.Param, v)
		if err != nil || (o.LogX && f <= 0) {
			numeric = false
			break
		}
		x[i] = f
	}
	if !numeric {
		o.LogX = false
		for i := range x {
			x[i] = float64(i)
		}
	}
	p := newPlot(o)
	if !numeric {
		names := make([]string, len(res.Values))
		for i, v := range res.Values {
			names[i] = label(v)
		}
		p.NominalX(names...)
	}
	if err := curvePair(p, x, &res.CurveResult); err != nil {
		return err
	}
	return save(p, o, path)
}

func curvePair(p *gplot.Plot, x []float64, c *model_selection.CurveResult) error {
	if err := addLine(p, "train", 0, x, c.TrainMean()); err != nil {
		return err
	}
	if err := addBand(p, 0, x, c.TrainMean(), c.TrainStd()); err != nil {
		return err
	}
	if err := addLine(p, "test", 1, x, c.TestMean()); err != nil {
		return err
	}
	return addBand(p, 1, x, c.TestMean(), c.TestStd())
}

// BoostingCurves plots the fold-averaged test score per stage for every
// depth, with the smoothed curve dashed and the best stage marked.
func BoostingCurves(diag *diagnostics.BoostingDiagnostic, o Options, path string) error {
	if err := checkLengths("plot.BoostingCurves", len(diag.Depths)); err != nil {
		return err
	}
	defaultTitle(&o, "Boosting stages by tree depth", "boosting stage", diag.Scoring)
	p := newPlot(o)
	for i, c := range diag.Depths {
		x := make([]float64, c.NStages())
		for s := range x {
			x[s] = float64(s + 1)
		}
		l, err := plotter.NewLine(xys(x, c.TestMean))
		if err != nil {
			return errors.Wrapf(err, "plot: depth %d", c.Depth)
		}
		l.Color = plotutil.Color(i)
		p.Add(l)
		p.Legend.Add(fmt.Sprintf("depth %d", c.Depth), l)

		if diag.Window > 1 {
			sm, err := plotter.NewLine(xys(x, c.Smoothed))
			if err != nil {
				return errors.Wrapf(err, "plot: depth %d smoothed", c.Depth)
			}
			sm.Color = plotutil.Color(i)
			sm.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
			p.Add(sm)
		}

		best, err := plotter.NewScatter(plotter.XYs{{X: float64(c.BestStage), Y: c.BestScore}})
		if err != nil {
			return errors.Wrapf(err, "plot: depth %d best", c.Depth)
		}
		best.Color = plotutil.Color(i)
		best.Radius = vg.Points(4)
		p.Add(best)
	}
	return save(p, o, path)
}
