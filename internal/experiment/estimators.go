// Package experiment turns a config.Config into the pieces of a workflow
// run: a cleaned dataset, an estimator, a splitter and a scorer.
package experiment

import (
	"sort"
	"strings"

	"github.com/mlps/physlearn/core/model"
	"github.com/mlps/physlearn/diagnostics"
	"github.com/mlps/physlearn/internal/config"
	"github.com/mlps/physlearn/pkg/errors"
	"github.com/mlps/physlearn/preprocessing"
	"github.com/mlps/physlearn/sklearn/ensemble"
	"github.com/mlps/physlearn/sklearn/linear_model"
	"github.com/mlps/physlearn/sklearn/svm"
	"github.com/mlps/physlearn/sklearn/tree"
)

type builder struct {
	classifier func(seed int) model.Model
	regressor  func(seed int) model.Model
}

var builders = map[string]builder{
	"tree": {
		classifier: func(seed int) model.Model { return tree.NewDecisionTreeClassifier(tree.WithRandomState(seed)) },
		regressor:  func(seed int) model.Model { return tree.NewDecisionTreeRegressor(tree.WithRandomState(seed)) },
	},
	"svm": {
		classifier: func(seed int) model.Model { return svm.NewSVC(svm.WithRandomState(seed)) },
	},
	"adaboost": {
		classifier: func(seed int) model.Model { return ensemble.NewAdaBoostClassifier(ensemble.WithRandomState(seed)) },
	},
	"gbt": {
		classifier: func(seed int) model.Model {
			return ensemble.NewGradientBoostingClassifier(ensemble.WithRandomState(seed))
		},
		regressor: func(seed int) model.Model { return ensemble.NewGradientBoostingRegressor(ensemble.WithRandomState(seed)) },
	},
	"linear": {
		regressor: func(int) model.Model { return linear_model.NewLinearRegression() },
	},
	"ridge": {
		regressor: func(int) model.Model { return linear_model.NewRidge() },
	},
	"lasso": {
		regressor: func(int) model.Model { return linear_model.NewLasso() },
	},
}

// ModelNames lists the estimator names NewEstimator accepts.
func ModelNames() []string {
	names := make([]string, 0, len(builders))
	for n := range builders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NewEstimator builds the named estimator for the task, applies params via
// SetParams and, unless scaler is "none", wraps it in a Pipeline behind
// that scaler.
func NewEstimator(name string, classification bool, params map[string]any, scaler string, seed int) (model.Model, error) {
	b, ok := builders[name]
	if !ok {
		return nil, errors.NewValidationError("model.name", "must be one of "+strings.Join(ModelNames(), ", "), name)
	}
	ctor := b.regressor
	task := config.TaskRegression
	if classification {
		ctor, task = b.classifier, config.TaskClassification
	}
	if ctor == nil {
		return nil, errors.NewValidationError("model.name", "not available for "+task, name)
	}
	est := ctor(seed)
	if len(params) > 0 {
		if err := est.SetParams(params); err != nil {
			return nil, errors.Wrapf(err, "configure %s", name)
		}
	}
	switch scaler {
	case "", "none":
		return est, nil
	case "standard":
		return preprocessing.NewPipeline(preprocessing.NewStandardScalerDefault(), est), nil
	case "minmax":
		return preprocessing.NewPipeline(preprocessing.NewMinMaxScalerDefault(), est), nil
	default:
		return nil, errors.NewValidationError("model.scaler", "must be none, standard or minmax", scaler)
	}
}

// FromConfig builds the estimator named by cfg.Model.
func FromConfig(cfg *config.Config) (model.Model, error) {
	return NewEstimator(cfg.Model.Name, cfg.Classification(), cfg.Model.Params, cfg.Model.Scaler, cfg.CV.Seed)
}

// BoostingFactory returns the diagnostics factory for cfg.Diagnostic.
// AdaBoost is classification only.
func BoostingFactory(cfg *config.Config) (diagnostics.Factory, error) {
	d := cfg.Diagnostic
	opts := func(depth int) []ensemble.Option {
		return []ensemble.Option{
			ensemble.WithMaxDepth(depth),
			ensemble.WithNEstimators(d.NEstimators),
			ensemble.WithLearningRate(d.LearnRate),
			ensemble.WithRandomState(cfg.CV.Seed),
		}
	}
	switch {
	case d.Model == "adaboost" && cfg.Classification():
		return func(depth int) diagnostics.StagedEstimator {
			return ensemble.NewAdaBoostClassifier(opts(depth)...)
		}, nil
	case d.Model == "gbt" && cfg.Classification():
		return func(depth int) diagnostics.StagedEstimator {
			return ensemble.NewGradientBoostingClassifier(opts(depth)...)
		}, nil
	case d.Model == "gbt":
		return func(depth int) diagnostics.StagedEstimator {
			return ensemble.NewGradientBoostingRegressor(opts(depth)...)
		}, nil
	case d.Model == "adaboost":
		return nil, errors.NewValidationError("diagnostic.model", "adaboost needs a classification task", d.Model)
	default:
		return nil, errors.NewValidationError("diagnostic.model", "unknown boosting model; use adaboost or gbt", d.Model)
	}
}
