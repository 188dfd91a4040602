// Package config holds the settings of a physlearn workflow run, layered
// from built-in defaults, a YAML file, PHYSLEARN_ environment variables and
// command-line flags.
package config

import (
	"slices"

	"github.com/mlps/physlearn/pkg/errors"
)

// Task values.
const (
	TaskClassification = "classification"
	TaskRegression     = "regression"
)

// Config is the full run configuration.
type Config struct {
	Data       DataConfig       `koanf:"data"`
	Clean      CleanConfig      `koanf:"clean"`
	Task       string           `koanf:"task"`
	CV         CVConfig         `koanf:"cv"`
	Model      ModelConfig      `koanf:"model"`
	Grid       map[string][]any `koanf:"grid"`
	Diagnostic DiagnosticConfig `koanf:"diagnostic"`
	Curve      CurveConfig      `koanf:"curve"`
	Output     OutputConfig     `koanf:"output"`
	Log        LogConfig        `koanf:"log"`
}

// DataConfig locates the input table.
type DataConfig struct {
	Path      string   `koanf:"path"`
	Target    string   `koanf:"target"`
	Drop      []string `koanf:"drop"`
	Features  []string `koanf:"features"`
	Delimiter string   `koanf:"delimiter"`
	Comment   string   `koanf:"comment"`
}

// CleanConfig controls the cleaning steps run before fitting.
type CleanConfig struct {
	// Missing is "drop", "mean", "median" or "none".
	Missing string `koanf:"missing"`
	// MaxMissingRatio drops feature columns with a larger share of NaNs.
	// 1 keeps every column.
	MaxMissingRatio float64 `koanf:"max_missing_ratio"`
	// ZThreshold removes rows with any |z| above it. 0 disables the filter.
	ZThreshold    float64 `koanf:"z_threshold"`
	ZScoreTarget  bool    `koanf:"z_score_target"`
	MinClassRatio float64 `koanf:"min_class_ratio"`
}

// CVConfig controls the splitter and the scoring.
type CVConfig struct {
	Folds      int    `koanf:"folds"`
	Shuffle    bool   `koanf:"shuffle"`
	Stratified bool   `koanf:"stratified"`
	Seed       int    `koanf:"seed"`
	NJobs      int    `koanf:"n_jobs"`
	Scoring    string `koanf:"scoring"`
	TrainScore bool   `koanf:"train_score"`
	// TestSize is the held-out fraction used by predict.
	TestSize float64 `koanf:"test_size"`
}

// ModelConfig names the estimator and its hyperparameters.
type ModelConfig struct {
	Name   string         `koanf:"name"`
	Scaler string         `koanf:"scaler"`
	Params map[string]any `koanf:"params"`
}

// DiagnosticConfig drives the boosting depth diagnostic.
type DiagnosticConfig struct {
	Model       string  `koanf:"model"`
	Depths      []int   `koanf:"depths"`
	NEstimators int     `koanf:"n_estimators"`
	LearnRate   float64 `koanf:"learning_rate"`
	Window      int     `koanf:"window"`
}

// CurveConfig drives the learning, validation and regularization curves.
type CurveConfig struct {
	TrainSizes []float64 `koanf:"train_sizes"`
	Param      string    `koanf:"param"`
	Values     []any     `koanf:"values"`
	LogX       bool      `koanf:"log_x"`
	// PathAlphas is the number of log-spaced alphas of a regularization path.
	PathAlphas int    `koanf:"path_alphas"`
	PathKind   string `koanf:"path_kind"`
}

// OutputConfig locates written figures.
type OutputConfig struct {
	Dir    string `koanf:"dir"`
	Format string `koanf:"format"`
}

// LogConfig configures pkg/log.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Classification reports whether the task is classification.
func (c *Config) Classification() bool { return c.Task == TaskClassification }

// Validate checks values that the loaders cannot type-check.
func (c *Config) Validate() error {
	if !slices.Contains([]string{TaskClassification, TaskRegression}, c.Task) {
		return errors.NewValidationError("task", "must be classification or regression", c.Task)
	}
	if !slices.Contains([]string{"drop", "mean", "median", "none"}, c.Clean.Missing) {
		return errors.NewValidationError("clean.missing", "must be drop, mean, median or none", c.Clean.Missing)
	}
	if c.Clean.MaxMissingRatio < 0 || c.Clean.MaxMissingRatio > 1 {
		return errors.NewValidationError("clean.max_missing_ratio", "must be in [0, 1]", c.Clean.MaxMissingRatio)
	}
	if c.Clean.ZThreshold < 0 {
		return errors.NewValidationError("clean.z_threshold", "must be non-negative", c.Clean.ZThreshold)
	}
	if c.CV.Folds < 2 {
		return errors.NewValidationError("cv.folds", "must be at least 2", c.CV.Folds)
	}
	if c.CV.TestSize <= 0 || c.CV.TestSize >= 1 {
		return errors.NewValidationError("cv.test_size", "must be in (0, 1)", c.CV.TestSize)
	}
	if !slices.Contains([]string{"none", "standard", "minmax"}, c.Model.Scaler) {
		return errors.NewValidationError("model.scaler", "must be none, standard or minmax", c.Model.Scaler)
	}
	if !slices.Contains([]string{"adaboost", "gbt"}, c.Diagnostic.Model) {
		return errors.NewValidationError("diagnostic.model", "must be adaboost or gbt", c.Diagnostic.Model)
	}
	for _, d := range c.Diagnostic.Depths {
		if d < 1 {
			return errors.NewValidationError("diagnostic.depths", "depths must be positive", d)
		}
	}
	if c.Diagnostic.Window < 1 {
		return errors.NewValidationError("diagnostic.window", "must be at least 1", c.Diagnostic.Window)
	}
	if !slices.Contains([]string{"lasso", "ridge"}, c.Curve.PathKind) {
		return errors.NewValidationError("curve.path_kind", "must be lasso or ridge", c.Curve.PathKind)
	}
	if c.Curve.PathAlphas < 2 {
		return errors.NewValidationError("curve.path_alphas", "must be at least 2", c.Curve.PathAlphas)
	}
	if !slices.Contains([]string{"png", "svg", "pdf"}, c.Output.Format) {
		return errors.NewValidationError("output.format", "must be png, svg or pdf", c.Output.Format)
	}
	return nil
}

// ValidateData checks the settings needed to load a dataset.
func (c *Config) ValidateData() error {
	if c.Data.Path == "" {
		return errors.NewValidationError("data.path", "is required", c.Data.Path)
	}
	if c.Data.Target == "" {
		return errors.NewValidationError("data.target", "is required", c.Data.Target)
	}
	if len([]rune(c.Data.Delimiter)) > 1 {
		return errors.NewValidationError("data.delimiter", "must be a single character", c.Data.Delimiter)
	}
	return nil
}
