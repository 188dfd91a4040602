// Package plot renders model diagnostics to image files with gonum/plot.
// The output format follows the file extension (.png, .svg, .pdf).
package plot

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/mlps/physlearn/pkg/errors"
	"github.com/mlps/physlearn/pkg/log"
)

// Options sets the labels and size of a figure. Width and Height are in
// inches; zero means 6×4.
type Options struct {
	Title  string
	XLabel string
	YLabel string
	Width  float64
	Height float64
	LogX   bool
}

func (o Options) size() (vg.Length, vg.Length) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = 6
	}
	if h <= 0 {
		h = 4
	}
	return vg.Length(w) * vg.Inch, vg.Length(h) * vg.Inch
}

func newPlot(o Options) *gplot.Plot {
	p := gplot.New()
	p.Title.Text = o.Title
	p.X.Label.Text = o.XLabel
	p.Y.Label.Text = o.YLabel
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
	if o.LogX {
		p.X.Scale = gplot.LogScale{}
		p.X.Tick.Marker = gplot.LogTicks{Prec: -1}
	}
	return p
}

// save writes p to path, creating the parent directory.
func save(p *gplot.Plot, o Options, path string) error {
	if path == "" {
		return errors.NewValidationError("path", "must not be empty", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "plot: create %s", dir)
		}
	}
	w, h := o.size()
	if err := p.Save(w, h, path); err != nil {
		return errors.Wrapf(err, "plot: save %s", path)
	}
	log.GetLoggerWithName("plot").Debug("figure written", log.PathKey, path, "title", o.Title)
	return nil
}

func xys(x, y []float64) plotter.XYs {
	pts := make(plotter.XYs, len(x))
	for i := range x {
		pts[i].X, pts[i].Y = x[i], y[i]
	}
	return pts
}

// addLine adds a solid line with point markers in palette color i.
func addLine(p *gplot.Plot, name string, i int, x, y []float64) error {
	l, s, err := plotter.NewLinePoints(xys(x, y))
	if err != nil {
		return errors.Wrapf(err, "plot: line %q", name)
	}
	l.Color = plotutil.Color(i)
	s.Color = plotutil.Color(i)
	s.Shape = draw.CircleGlyph{}
	s.Radius = vg.Points(2)
	p.Add(l, s)
	p.Legend.Add(name, l, s)
	return nil
}

// addBand draws mean ± std as two dashed lines in palette color i.
func addBand(p *gplot.Plot, i int, x, mean, std []float64) error {
	lo := make([]float64, len(mean))
	hi := make([]float64, len(mean))
	for k := range mean {
		lo[k], hi[k] = mean[k]-std[k], mean[k]+std[k]
	}
	for _, v := range [][]float64{lo, hi} {
		l, err := plotter.NewLine(xys(x, v))
		if err != nil {
			return errors.Wrap(err, "plot: band")
		}
		l.Color = plotutil.Color(i)
		l.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}
		p.Add(l)
	}
	return nil
}

func checkLengths(op string, n int, others ...int) error {
	if n == 0 {
		return errors.NewValueError(op, "nothing to plot")
	}
	for _, m := range others {
		if m != n {
			return errors.NewDimensionError(op, n, m, 0)
		}
	}
	return nil
}

func bars(p *gplot.Plot, names []string, values []float64, horizontal bool, c color.Color) error {
	b, err := plotter.NewBarChart(plotter.Values(values), vg.Points(14))
	if err != nil {
		return errors.Wrap(err, "plot: bars")
	}
	b.Color = c
	b.LineStyle.Width = 0
	b.Horizontal = horizontal
	p.Add(b)
	if horizontal {
		p.NominalY(names...)
	} else {
		p.NominalX(names...)
	}
	return nil
}

func defaultTitle(o *Options, title, xlabel, ylabel string) {
	if o.Title == "" {
		o.Title = title
	}
	if o.XLabel == "" {
		o.XLabel = xlabel
	}
	if o.YLabel == "" {
		o.YLabel = ylabel
	}
}

func label(v interface{}) string { return fmt.Sprint(v) }
