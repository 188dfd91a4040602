package config

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/mlps/physlearn/pkg/errors"
)

// EnvPrefix prefixes environment overrides. A double underscore separates
// sections: PHYSLEARN_CV__N_JOBS sets cv.n_jobs.
const EnvPrefix = "PHYSLEARN_"

// Defaults returns the built-in settings as flat koanf keys.
func Defaults() map[string]any {
	return map[string]any{
		"task":                     TaskClassification,
		"data.delimiter":           ",",
		"clean.missing":            "drop",
		"clean.max_missing_ratio":  1.0,
		"clean.z_threshold":        3.0,
		"clean.z_score_target":     false,
		"clean.min_class_ratio":    0.2,
		"cv.folds":                 5,
		"cv.shuffle":               true,
		"cv.stratified":            true,
		"cv.seed":                  42,
		"cv.n_jobs":                0,
		"cv.scoring":               "",
		"cv.train_score":           true,
		"cv.test_size":             0.25,
		"model.name":               "tree",
		"model.scaler":             "none",
		"diagnostic.model":         "adaboost",
		"diagnostic.depths":        []int{1, 2, 3},
		"diagnostic.n_estimators":  100,
		"diagnostic.learning_rate": 0.1,
		"diagnostic.window":        5,
		"curve.train_sizes":        []float64{0.1, 0.325, 0.55, 0.775, 1.0},
		"curve.path_alphas":        30,
		"curve.path_kind":          "lasso",
		"output.dir":               "figures",
		"output.format":            "png",
		"log.level":                "info",
		"log.format":               "console",
	}
}

// flagKeys maps command-line flag names to config keys. Flags not listed
// here belong to a single command and are read by it directly.
var flagKeys = map[string]string{
	"data":          "data.path",
	"target":        "data.target",
	"drop":          "data.drop",
	"features":      "data.features",
	"delimiter":     "data.delimiter",
	"task":          "task",
	"missing":       "clean.missing",
	"z-threshold":   "clean.z_threshold",
	"folds":         "cv.folds",
	"seed":          "cv.seed",
	"n-jobs":        "cv.n_jobs",
	"scoring":       "cv.scoring",
	"model":         "model.name",
	"scaler":        "model.scaler",
	"ensemble":      "diagnostic.model",
	"depths":        "diagnostic.depths",
	"window":        "diagnostic.window",
	"n-estimators":  "diagnostic.n_estimators",
	"learning-rate": "diagnostic.learning_rate",
	"train-sizes":   "curve.train_sizes",
	"log-x":         "curve.log_x",
	"kind":          "curve.path_kind",
	"alphas":        "curve.path_alphas",
	"test-size":     "cv.test_size",
	"output-dir":    "output.dir",
	"format":        "output.format",
	"log-level":     "log.level",
	"log-format":    "log.format",
}

// Load layers defaults, the YAML file at path (skipped when empty), the
// environment and the changed flags in fs, then validates the result.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(err, "config: load defaults")
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "config: read %s", path)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, "config: load environment")
	}

	if fs != nil {
		if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		}), nil); err != nil {
			return nil, errors.Wrap(err, "config: load flags")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, "config: decode")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey turns PHYSLEARN_CV__N_JOBS into cv.n_jobs.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Default returns the configuration built from defaults alone.
func Default() *Config {
	k := koanf.New(".")
	_ = k.Load(confmap.Provider(Defaults(), "."), nil)
	var cfg Config
	_ = k.Unmarshal("", &cfg)
	return &cfg
}
