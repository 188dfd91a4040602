// Package report prints workflow results as terminal tables.
package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/mlps/physlearn/dataset"
	"github.com/mlps/physlearn/diagnostics"
	"github.com/mlps/physlearn/internal/experiment"
	"github.com/mlps/physlearn/sklearn/linear_model"
	"github.com/mlps/physlearn/sklearn/model_selection"
)

// newTable prints title on its own line; go-pretty wraps titles to the
// table width, which splits them on narrow tables.
func newTable(w io.Writer, title string, header table.Row) table.Writer {
	fmt.Fprintln(w, title)
	t := table.NewWriter()
	t.SetOutputMirror(w)
	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	style.Format.Footer = text.FormatDefault
	t.SetStyle(style)
	t.AppendHeader(header)
	return t
}

func num(v float64) string { return fmt.Sprintf("%.4f", v) }

func alignRight(cols ...int) []table.ColumnConfig {
	out := make([]table.ColumnConfig, len(cols))
	for i, c := range cols {
		out[i] = table.ColumnConfig{Number: c, Align: text.AlignRight}
	}
	return out
}

// Describe prints per-column summary statistics.
func Describe(w io.Writer, summaries []dataset.ColumnSummary) {
	t := newTable(w, "Summary statistics", table.Row{"column", "count", "missing", "mean", "std", "min", "25%", "50%", "75%", "max"})
	for _, s := range summaries {
		t.AppendRow(table.Row{s.Column, s.Count, s.Missing, num(s.Mean), num(s.Std), num(s.Min), num(s.Q25), num(s.Median), num(s.Q75), num(s.Max)})
	}
	t.SetColumnConfigs(alignRight(2, 3, 4, 5, 6, 7, 8, 9, 10))
	t.Render()
}

// Missing prints the missing-value count of every column that has any.
func Missing(w io.Writer, counts []dataset.MissingCount) {
	t := newTable(w, "Missing values", table.Row{"column", "missing", "ratio"})
	for _, c := range counts {
		if c.Count == 0 {
			continue
		}
		t.AppendRow(table.Row{c.Column, c.Count, num(c.Ratio)})
	}
	if t.Length() == 0 {
		t.AppendRow(table.Row{"(none)", 0, num(0)})
	}
	t.Render()
}

// ClassBalance prints the sample count and share of every class.
func ClassBalance(w io.Writer, counts []dataset.ClassCount) {
	t := newTable(w, "Class balance", table.Row{"class", "label", "count", "fraction"})
	for _, c := range counts {
		t.AppendRow(table.Row{c.Name, c.Label, c.Count, num(c.Fraction)})
	}
	t.SetColumnConfigs(alignRight(3, 4))
	t.Render()
}

// Correlations prints the Pearson correlation of every feature with the
// target, in feature order.
func Correlations(w io.Writer, features []string, corr map[string]float64) {
	t := newTable(w, "Correlation with target", table.Row{"feature", "pearson r"})
	for _, f := range features {
		if r, ok := corr[f]; ok {
			t.AppendRow(table.Row{f, num(r)})
		}
	}
	t.Render()
}

// Cleaning prints the row and column counts removed by each cleaning step.
func Cleaning(w io.Writer, steps []experiment.Step) {
	t := newTable(w, "Cleaning", table.Row{"step", "rows", "columns", "removed"})
	for _, s := range steps {
		t.AppendRow(table.Row{s.Name, s.Rows, s.Columns, s.Removed})
	}
	t.Render()
}

// CrossValidation prints per-fold scores followed by mean and std rows.
func CrossValidation(w io.Writer, name string, res *model_selection.CVResult) {
	t := newTable(w, fmt.Sprintf("%s cross-validation (%s)", name, res.Scoring), table.Row{"fold", "train", "test", "fit ms"})
	for i, s := range res.TestScores {
		train := "-"
		if i < len(res.TrainScores) {
			train = num(res.TrainScores[i])
		}
		var ms int64
		if i < len(res.FitTimes) {
			ms = res.FitTimes[i].Milliseconds()
		}
		t.AppendRow(table.Row{i + 1, train, num(s), ms})
	}
	t.AppendSeparator()
	trainMean, trainStd := "-", "-"
	if len(res.TrainScores) > 0 {
		trainMean, trainStd = num(res.MeanTrainScore()), num(res.StdTrainScore())
	}
	t.AppendFooter(table.Row{"mean", trainMean, num(res.MeanTestScore()), ""})
	t.AppendFooter(table.Row{"std", trainStd, num(res.StdTestScore()), ""})
	t.SetColumnConfigs(alignRight(2, 3, 4))
	t.Render()
}

// GridSearch prints every candidate in rank order.
func GridSearch(w io.Writer, results []model_selection.SearchResult) {
	t := newTable(w, "Grid search", table.Row{"rank", "params", "mean test", "std test", "mean train"})
	for _, r := range results {
		t.AppendRow(table.Row{r.Rank, model_selection.FormatParams(r.Params), num(r.MeanTestScore), num(r.StdTestScore), num(r.MeanTrainScore)})
	}
	t.SortBy([]table.SortBy{{Number: 1, Mode: table.AscNumeric}})
	t.Render()
}

// Curve prints mean ± std of train and test scores at every point.
func Curve(w io.Writer, title, xName string, xs []string, c *model_selection.CurveResult) {
	t := newTable(w, fmt.Sprintf("%s (%s)", title, c.Scoring), table.Row{xName, "train mean", "train std", "test mean", "test std"})
	trainMean, trainStd := c.TrainMean(), c.TrainStd()
	testMean, testStd := c.TestMean(), c.TestStd()
	for i, x := range xs {
		t.AppendRow(table.Row{x, num(trainMean[i]), num(trainStd[i]), num(testMean[i]), num(testStd[i])})
	}
	t.SetColumnConfigs(alignRight(2, 3, 4, 5))
	t.Render()
}

// Boosting prints the best stage of every depth and marks the overall best.
func Boosting(w io.Writer, diag *diagnostics.BoostingDiagnostic) {
	t := newTable(w, fmt.Sprintf("Boosting stages by depth (%s)", diag.Scoring), table.Row{"depth", "stages", "best stage", "best score", "final score", ""})
	bestDepth, _, _ := diag.Best()
	for i := range diag.Depths {
		c := &diag.Depths[i]
		mark := ""
		if c.Depth == bestDepth {
			mark = "*"
		}
		final := c.TestMean[len(c.TestMean)-1]
		t.AppendRow(table.Row{c.Depth, c.NStages(), c.BestStage, num(c.BestScore), num(final), mark})
	}
	t.Render()
}

// Coefficients prints one value per feature, such as linear coefficients
// or tree importances.
func Coefficients(w io.Writer, title string, names []string, values []float64) {
	keyValues(w, title, "feature", names, values)
}

// Scores prints named scalar results.
func Scores(w io.Writer, title string, names []string, values []float64) {
	keyValues(w, title, "metric", names, values)
}

func keyValues(w io.Writer, title, key string, names []string, values []float64) {
	t := newTable(w, title, table.Row{key, "value"})
	for i, n := range names {
		t.AppendRow(table.Row{n, num(values[i])})
	}
	t.SetColumnConfigs(alignRight(2))
	t.Render()
}

// Path prints the number of non-zero coefficients and the training score
// at every alpha of a regularization path.
func Path(w io.Writer, path *linear_model.Path) {
	t := newTable(w, path.Kind+" regularization path", table.Row{"alpha", "non-zero", "train r2"})
	nonZero := path.NonZero()
	for i, a := range path.Alphas {
		t.AppendRow(table.Row{fmt.Sprintf("%.4g", a), nonZero[i], num(path.Scores[i])})
	}
	t.SetColumnConfigs(alignRight(1, 2, 3))
	t.Render()
}
