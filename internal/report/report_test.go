package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mlps/physlearn/dataset"
	"github.com/mlps/physlearn/diagnostics"
	"github.com/mlps/physlearn/internal/experiment"
	"github.com/mlps/physlearn/sklearn/linear_model"
	"github.com/mlps/physlearn/sklearn/model_selection"
)

func TestCrossValidation(t *testing.T) {
	var buf bytes.Buffer
	CrossValidation(&buf, "tree", &model_selection.CVResult{
		Scoring:     "accuracy",
		TrainScores: []float64{1, 1},
		TestScores:  []float64{0.8, 0.9},
		FitTimes:    []time.Duration{3 * time.Millisecond, 4 * time.Millisecond},
	})
	out := buf.String()
	assert.Contains(t, out, "tree cross-validation (accuracy)")
	assert.Contains(t, out, "0.8500")
	assert.Contains(t, out, "0.0707")
	assert.Contains(t, out, "1.0000")
}

func TestCrossValidationWithoutTrainScores(t *testing.T) {
	var buf bytes.Buffer
	CrossValidation(&buf, "svm", &model_selection.CVResult{Scoring: "r2", TestScores: []float64{0.5, 0.7}})
	assert.Contains(t, buf.String(), "0.6000")
	assert.NotContains(t, buf.String(), "NaN")
}

func TestGridSearchSortsByRank(t *testing.T) {
	var buf bytes.Buffer
	GridSearch(&buf, []model_selection.SearchResult{
		{Params: map[string]interface{}{"alpha": 10.0}, MeanTestScore: 0.1, Rank: 2},
		{Params: map[string]interface{}{"alpha": 0.1}, MeanTestScore: 0.9, Rank: 1},
	})
	out := buf.String()
	assert.Less(t, strings.Index(out, "alpha=0.1"), strings.Index(out, "alpha=10"))
}

func TestDatasetTables(t *testing.T) {
	var buf bytes.Buffer
	Describe(&buf, []dataset.ColumnSummary{{Column: "density", Count: 10, Mean: 2.5, Max: 7}})
	ClassBalance(&buf, []dataset.ClassCount{{Label: 0, Name: "metal", Count: 8, Fraction: 0.8}})
	Missing(&buf, []dataset.MissingCount{{Column: "density", Count: 0}})
	Correlations(&buf, []string{"density", "absent"}, map[string]float64{"density": -0.25})
	Cleaning(&buf, []experiment.Step{{Name: "z-score", Rows: 98, Columns: 4, Removed: "2 rows"}})
	out := buf.String()
	for _, want := range []string{"density", "2.5000", "metal", "0.8000", "(none)", "-0.2500", "z-score", "2 rows"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "absent")
}

func TestBoostingMarksBestDepth(t *testing.T) {
	var buf bytes.Buffer
	Boosting(&buf, &diagnostics.BoostingDiagnostic{
		Scoring: "accuracy",
		Depths: []diagnostics.DepthCurve{
			{Depth: 1, TestMean: []float64{0.6, 0.7}, BestStage: 2, BestScore: 0.7},
			{Depth: 2, TestMean: []float64{0.8, 0.75}, BestStage: 1, BestScore: 0.8},
		},
	})
	var marked string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, "*") {
			marked = line
		}
	}
	assert.Contains(t, marked, "0.8000")
	assert.Contains(t, marked, "0.7500")
}

func TestCurveAndCoefficients(t *testing.T) {
	var buf bytes.Buffer
	Curve(&buf, "Learning curve", "samples", []string{"10", "20"}, &model_selection.CurveResult{
		Scoring:     "r2",
		TrainScores: [][]float64{{1, 1}, {0.9, 0.9}},
		TestScores:  [][]float64{{0.4, 0.6}, {0.7, 0.7}},
	})
	Coefficients(&buf, "Coefficients", []string{"a"}, []float64{1.25})
	Scores(&buf, "Held-out", []string{"r2"}, []float64{0.75})
	out := buf.String()
	assert.Contains(t, out, "Learning curve (r2)")
	assert.Contains(t, out, "0.5000")
	assert.Contains(t, out, "1.2500")
	assert.Contains(t, out, "metric")
}

func TestPath(t *testing.T) {
	var buf bytes.Buffer
	Path(&buf, &linear_model.Path{
		Kind:   "lasso",
		Alphas: []float64{10, 0.01},
		Coefs:  [][]float64{{0, 0}, {1.5, -0.2}},
		Scores: []float64{0, 0.98},
	})
	out := buf.String()
	assert.Contains(t, out, "lasso regularization path")
	assert.Contains(t, out, "0.01")
	assert.Contains(t, out, "0.9800")
}

func TestTitlesAndHeadersAreNotReformatted(t *testing.T) {
	var buf bytes.Buffer
	Scores(&buf, "Held-out evaluation on a narrow table", []string{"r2"}, []float64{0.9})
	lines := strings.Split(buf.String(), "\n")
	assert.Equal(t, "Held-out evaluation on a narrow table", lines[0])
	assert.Contains(t, buf.String(), "metric")
	assert.NotContains(t, buf.String(), "METRIC")
}
