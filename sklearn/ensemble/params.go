// Package ensemble implements boosted tree ensembles: AdaBoost (SAMME) for
// classification and gradient boosting for regression and classification.
// Every ensemble can replay its predictions stage by stage, which the
// diagnostics package uses to pick the number of boosting rounds.
package ensemble

import (
	"github.com/mlps/physlearn/core/model"
	"github.com/mlps/physlearn/pkg/errors"
)

// params holds the hyperparameters of both ensemble families. AdaBoost
// reads only nEstimators, learningRate, maxDepth and randomState.
type params struct {
	nEstimators        int
	learningRate       float64
	maxDepth           int
	minSamplesLeaf     int
	subsample          float64
	randomState        int
	nIterNoChange      int
	validationFraction float64
	tol                float64
}

// Option configures an ensemble.
type Option func(*params)

// WithNEstimators sets the number of boosting stages.
func WithNEstimators(n int) Option { return func(p *params) { p.nEstimators = n } }

// WithLearningRate shrinks the contribution of each stage.
func WithLearningRate(lr float64) Option { return func(p *params) { p.learningRate = lr } }

// WithMaxDepth sets the depth of the base trees.
func WithMaxDepth(d int) Option { return func(p *params) { p.maxDepth = d } }

// WithMinSamplesLeaf sets the fewest samples in a base-tree leaf.
func WithMinSamplesLeaf(n int) Option { return func(p *params) { p.minSamplesLeaf = n } }

// WithSubsample fits each stage on this fraction of the training rows,
// drawn without replacement.
func WithSubsample(f float64) Option { return func(p *params) { p.subsample = f } }

// WithRandomState seeds row subsampling and the validation split.
func WithRandomState(seed int) Option { return func(p *params) { p.randomState = seed } }

// WithNIterNoChange enables early stopping on a held-out validation set.
func WithNIterNoChange(n int) Option { return func(p *params) { p.nIterNoChange = n } }

// WithValidationFraction sets the share of rows held out for early stopping.
func WithValidationFraction(f float64) Option {
	return func(p *params) { p.validationFraction = f }
}

// WithTol sets the validation-loss improvement early stopping requires.
func WithTol(t float64) Option { return func(p *params) { p.tol = t } }

func boostingDefaults() params {
	return params{
		nEstimators:        100,
		learningRate:       0.1,
		maxDepth:           3,
		minSamplesLeaf:     1,
		subsample:          1,
		validationFraction: 0.1,
		tol:                1e-4,
	}
}

func adaBoostDefaults() params {
	return params{nEstimators: 50, learningRate: 1, maxDepth: 1, minSamplesLeaf: 1, subsample: 1}
}

func (p *params) validateCommon() error {
	if p.nEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be at least 1", p.nEstimators)
	}
	if p.learningRate <= 0 {
		return errors.NewValidationError("learning_rate", "must be positive", p.learningRate)
	}
	if p.maxDepth < 1 {
		return errors.NewValidationError("max_depth", "must be at least 1", p.maxDepth)
	}
	if p.minSamplesLeaf < 1 {
		return errors.NewValidationError("min_samples_leaf", "must be at least 1", p.minSamplesLeaf)
	}
	return nil
}

func (p *params) validateBoosting() error {
	if err := p.validateCommon(); err != nil {
		return err
	}
	if p.subsample <= 0 || p.subsample > 1 {
		return errors.NewValidationError("subsample", "must be in (0, 1]", p.subsample)
	}
	if p.nIterNoChange > 0 && (p.validationFraction <= 0 || p.validationFraction >= 1) {
		return errors.NewValidationError("validation_fraction", "must be in (0, 1)", p.validationFraction)
	}
	if p.tol < 0 {
		return errors.NewValidationError("tol", "must be non-negative", p.tol)
	}
	return nil
}

func (p *params) adaBoostParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":  p.nEstimators,
		"learning_rate": p.learningRate,
		"max_depth":     p.maxDepth,
		"random_state":  p.randomState,
	}
}

func (p *params) boostingParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":        p.nEstimators,
		"learning_rate":       p.learningRate,
		"max_depth":           p.maxDepth,
		"min_samples_leaf":    p.minSamplesLeaf,
		"subsample":           p.subsample,
		"random_state":        p.randomState,
		"n_iter_no_change":    p.nIterNoChange,
		"validation_fraction": p.validationFraction,
		"tol":                 p.tol,
	}
}

// set applies values, accepting only the keys in allowed.
func (p *params) set(modelName string, allowed map[string]interface{}, values map[string]interface{}) error {
	for k, v := range values {
		if _, ok := allowed[k]; !ok {
			return model.UnknownParam(modelName, k, v)
		}
		var err error
		switch k {
		case "n_estimators":
			p.nEstimators, err = model.ParamInt(k, v)
		case "learning_rate":
			p.learningRate, err = model.ParamFloat(k, v)
		case "max_depth":
			p.maxDepth, err = model.ParamInt(k, v)
		case "min_samples_leaf":
			p.minSamplesLeaf, err = model.ParamInt(k, v)
		case "subsample":
			p.subsample, err = model.ParamFloat(k, v)
		case "random_state":
			p.randomState, err = model.ParamInt(k, v)
		case "n_iter_no_change":
			p.nIterNoChange, err = model.ParamInt(k, v)
		case "validation_fraction":
			p.validationFraction, err = model.ParamFloat(k, v)
		case "tol":
			p.tol, err = model.ParamFloat(k, v)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// normalize scales v to sum to one in place; an all-zero v is left alone.
func normalize(v []float64) []float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	if s > 0 {
		for i := range v {
			v[i] /= s
		}
	}
	return v
}
