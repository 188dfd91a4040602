package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlps/physlearn/pkg/errors"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "physlearn.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, TaskClassification, cfg.Task)
	assert.True(t, cfg.Classification())
	assert.Equal(t, 5, cfg.CV.Folds)
	assert.Equal(t, 42, cfg.CV.Seed)
	assert.Equal(t, []int{1, 2, 3}, cfg.Diagnostic.Depths)
	assert.Equal(t, 3.0, cfg.Clean.ZThreshold)
	assert.Equal(t, "figures", cfg.Output.Dir)
	assert.Len(t, cfg.Curve.TrainSizes, 5)
}

func TestLoadYAML(t *testing.T) {
	path := writeYAML(t, `
task: regression
data:
  path: materials.csv
  target: band_gap
  drop: [id, formula]
clean:
  missing: median
  z_threshold: 2.5
cv:
  folds: 3
model:
  name: ridge
  scaler: standard
  params:
    alpha: 0.5
grid:
  alpha: [0.1, 1, 10]
`)
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.False(t, cfg.Classification())
	assert.Equal(t, "materials.csv", cfg.Data.Path)
	assert.Equal(t, []string{"id", "formula"}, cfg.Data.Drop)
	assert.Equal(t, "median", cfg.Clean.Missing)
	assert.Equal(t, 2.5, cfg.Clean.ZThreshold)
	assert.Equal(t, 3, cfg.CV.Folds)
	assert.Equal(t, 42, cfg.CV.Seed, "unset keys keep their defaults")
	assert.Equal(t, "ridge", cfg.Model.Name)
	assert.Equal(t, 0.5, cfg.Model.Params["alpha"])
	assert.Len(t, cfg.Grid["alpha"], 3)
	require.NoError(t, cfg.ValidateData())
}

func TestLoadPrecedence(t *testing.T) {
	path := writeYAML(t, "cv:\n  folds: 3\n  seed: 7\nmodel:\n  name: svm\n")
	t.Setenv("PHYSLEARN_CV__FOLDS", "4")
	t.Setenv("PHYSLEARN_LOG__LEVEL", "debug")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("folds", 5, "")
	fs.String("model", "tree", "")
	fs.StringSlice("depths", nil, "")
	fs.Bool("unrelated", false, "")
	require.NoError(t, fs.Parse([]string{"--folds", "10", "--depths", "2,4", "--unrelated"}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.CV.Folds, "flag beats env and file")
	assert.Equal(t, 7, cfg.CV.Seed, "file beats defaults")
	assert.Equal(t, "svm", cfg.Model.Name, "unchanged flags do not override")
	assert.Equal(t, "debug", cfg.Log.Level, "env beats defaults")
	assert.Equal(t, []int{2, 4}, cfg.Diagnostic.Depths)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)

	_, err = Load(writeYAML(t, "task: clustering\n"), nil)
	var ve *errors.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "task", ve.ParamName)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		param  string
	}{
		{"missing strategy", func(c *Config) { c.Clean.Missing = "zero" }, "clean.missing"},
		{"missing ratio", func(c *Config) { c.Clean.MaxMissingRatio = 1.5 }, "clean.max_missing_ratio"},
		{"z threshold", func(c *Config) { c.Clean.ZThreshold = -1 }, "clean.z_threshold"},
		{"folds", func(c *Config) { c.CV.Folds = 1 }, "cv.folds"},
		{"test size", func(c *Config) { c.CV.TestSize = 1 }, "cv.test_size"},
		{"scaler", func(c *Config) { c.Model.Scaler = "robust" }, "model.scaler"},
		{"diagnostic model", func(c *Config) { c.Diagnostic.Model = "tree" }, "diagnostic.model"},
		{"depths", func(c *Config) { c.Diagnostic.Depths = []int{0} }, "diagnostic.depths"},
		{"window", func(c *Config) { c.Diagnostic.Window = 0 }, "diagnostic.window"},
		{"path kind", func(c *Config) { c.Curve.PathKind = "elasticnet" }, "curve.path_kind"},
		{"path alphas", func(c *Config) { c.Curve.PathAlphas = 1 }, "curve.path_alphas"},
		{"format", func(c *Config) { c.Output.Format = "gif" }, "output.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			var ve *errors.ValidationError
			require.ErrorAs(t, cfg.Validate(), &ve)
			assert.Equal(t, tt.param, ve.ParamName)
		})
	}
}

func TestValidateData(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.ValidateData())
	cfg.Data.Path = "x.csv"
	assert.Error(t, cfg.ValidateData())
	cfg.Data.Target = "y"
	assert.NoError(t, cfg.ValidateData())
	cfg.Data.Delimiter = ";;"
	assert.Error(t, cfg.ValidateData())
}
