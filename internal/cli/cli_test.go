package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlps/physlearn/pkg/errors"
)

func phasesCSV(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("a,b,phase\n")
	for i := 0; i < 24; i++ {
		a := i % 6
		phase := "alpha"
		if a >= 3 {
			phase = "beta"
		}
		fmt.Fprintf(&b, "%d,%d,%s\n", a, (i*5)%7, phase)
	}
	path := filepath.Join(t.TempDir(), "phases.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

func gapsCSV(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("a,b,gap\n")
	for i := 0; i < 30; i++ {
		a, c := i, (i*7)%11
		fmt.Fprintf(&b, "%d,%d,%d\n", a, c, 2*a-c+4)
	}
	path := filepath.Join(t.TempDir(), "gaps.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

// run executes the root command and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return stdout.String(), err
}

func exists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err, path)
	assert.Positive(t, info.Size())
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "physlearn "+Version)
}

func TestDescribe(t *testing.T) {
	figs := t.TempDir()
	out, err := run(t, "describe", "--data", phasesCSV(t), "--target", "phase", "--output-dir", figs)
	require.NoError(t, err)
	assert.Contains(t, out, "Summary statistics")
	assert.Contains(t, out, "Class balance")
	assert.Contains(t, out, "alpha")
	exists(t, filepath.Join(figs, "class_balance.png"))

	out, err = run(t, "describe", "--data", gapsCSV(t), "--target", "gap", "--task", "regression", "--output-dir", figs)
	require.NoError(t, err)
	assert.Contains(t, out, "Correlation with target")
}

func TestClean(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "clean.csv")
	out, err := run(t, "clean", "--data", phasesCSV(t), "--target", "phase", "--out", dst)
	require.NoError(t, err)
	assert.Contains(t, out, "Cleaning")
	assert.Contains(t, out, "z-score > 3")
	exists(t, dst)
}

func TestCrossValidationCommands(t *testing.T) {
	data := phasesCSV(t)
	figs := t.TempDir()
	common := []string{"--data", data, "--target", "phase", "--folds", "3", "--output-dir", figs}

	out, err := run(t, append([]string{"cv", "--set", "max_depth=2"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "tree cross-validation (accuracy)")

	out, err = run(t, append([]string{"grid", "--grid", "max_depth=1,3"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "best: max_depth=")

	out, err = run(t, append([]string{"boost", "--depths", "1,2", "--n-estimators", "5", "--window", "2"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Boosting stages by depth")
	exists(t, filepath.Join(figs, "boosting.png"))

	out, err = run(t, append([]string{"learning-curve", "--train-sizes", "0.5,1"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Learning curve (accuracy)")
	exists(t, filepath.Join(figs, "learning_curve.png"))

	out, err = run(t, append([]string{"validation-curve", "--param", "max_depth", "--values", "1,2,3"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Validation curve")
	exists(t, filepath.Join(figs, "validation_curve.png"))

	out, err = run(t, append([]string{"predict", "--model", "gbt", "--set", "n_estimators=10"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "importances")
	exists(t, filepath.Join(figs, "importances.png"))
}

func TestRegressionCommands(t *testing.T) {
	figs := t.TempDir()
	common := []string{"--data", gapsCSV(t), "--target", "gap", "--task", "regression", "--output-dir", figs, "--format", "svg"}

	out, err := run(t, append([]string{"path", "--kind", "lasso", "--alphas", "8"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "lasso regularization path")
	exists(t, filepath.Join(figs, "regularization_path.svg"))

	out, err = run(t, append([]string{"predict", "--model", "linear"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Held-out evaluation")
	assert.Contains(t, out, "coefficients")
	exists(t, filepath.Join(figs, "coefficients.svg"))
	exists(t, filepath.Join(figs, "predicted_vs_true.svg"))
}

func TestCommandErrors(t *testing.T) {
	_, err := run(t, "cv")
	var ve *errors.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "data.path", ve.ParamName)

	_, err = run(t, "cv", "--data", phasesCSV(t), "--target", "phase", "--set", "max_depth")
	assert.Error(t, err)

	_, err = run(t, "cv", "--data", phasesCSV(t), "--target", "phase", "--model", "lasso")
	assert.Error(t, err, "lasso is regression only")

	_, err = run(t, "cv", "--task", "clustering")
	assert.Error(t, err)
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"3", 3},
		{" 0.5 ", 0.5},
		{"1e-3", 1e-3},
		{"true", true},
		{"rbf", "rbf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseValue(tt.in), tt.in)
	}

	grid, err := parseGrid([]string{"C=0.1,1", "kernel=linear,rbf"})
	require.NoError(t, err)
	assert.Equal(t, []any{0.1, 1}, grid["C"])
	assert.Equal(t, []any{"linear", "rbf"}, grid["kernel"])
	_, err = parseGrid([]string{"=1"})
	assert.Error(t, err)
}
