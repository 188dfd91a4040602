package experiment

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/mlps/physlearn/core/model"
	"github.com/mlps/physlearn/dataset"
	"github.com/mlps/physlearn/diagnostics"
	"github.com/mlps/physlearn/internal/config"
	"github.com/mlps/physlearn/metrics"
	"github.com/mlps/physlearn/pkg/errors"
	"github.com/mlps/physlearn/pkg/log"
	"github.com/mlps/physlearn/preprocessing"
	"github.com/mlps/physlearn/sklearn/linear_model"
	"github.com/mlps/physlearn/sklearn/model_selection"
)

// Splitter returns a stratified k-fold splitter for classification when
// cv.stratified is set, and a plain k-fold otherwise.
func Splitter(cfg *config.Config) model_selection.Splitter {
	if cfg.Classification() && cfg.CV.Stratified {
		return model_selection.NewStratifiedKFold(cfg.CV.Folds, cfg.CV.Shuffle, cfg.CV.Seed)
	}
	return model_selection.NewKFold(cfg.CV.Folds, cfg.CV.Shuffle, cfg.CV.Seed)
}

// Scoring returns cv.scoring, or the task default when it is empty.
func Scoring(cfg *config.Config) string {
	if cfg.CV.Scoring != "" {
		return cfg.CV.Scoring
	}
	return metrics.DefaultScoring(cfg.Classification())
}

// CVOptions translates cv settings to model_selection options.
func CVOptions(cfg *config.Config) []model_selection.CVOption {
	return []model_selection.CVOption{
		model_selection.WithNJobs(cfg.CV.NJobs),
		model_selection.WithTrainScore(cfg.CV.TrainScore),
	}
}

// CrossValidate scores the configured estimator on d.
func CrossValidate(ctx context.Context, cfg *config.Config, d *dataset.Dataset) (*model_selection.CVResult, error) {
	est, err := FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return model_selection.CrossValidate(ctx, est, d.X, d.YMatrix(), Splitter(cfg), Scoring(cfg), CVOptions(cfg)...)
}

// GridSearch cross-validates every candidate of cfg.Grid and refits the
// best one on d.
func GridSearch(ctx context.Context, cfg *config.Config, d *dataset.Dataset) (*model_selection.GridSearchCV, error) {
	if len(cfg.Grid) == 0 {
		return nil, errors.NewValidationError("grid", "must name at least one parameter", cfg.Grid)
	}
	est, err := FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	gs := model_selection.NewGridSearchCV(est, model_selection.ParamGrid(cfg.Grid), Splitter(cfg), Scoring(cfg), CVOptions(cfg)...)
	if err := gs.Fit(ctx, d.X, d.YMatrix()); err != nil {
		return nil, err
	}
	return gs, nil
}

// LearningCurve scores the configured estimator at cfg.Curve.TrainSizes.
func LearningCurve(ctx context.Context, cfg *config.Config, d *dataset.Dataset) (*model_selection.LearningCurveResult, error) {
	est, err := FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return model_selection.LearningCurve(ctx, est, d.X, d.YMatrix(), cfg.Curve.TrainSizes, Splitter(cfg), Scoring(cfg), CVOptions(cfg)...)
}

// ValidationCurve sweeps cfg.Curve.Param over cfg.Curve.Values.
func ValidationCurve(ctx context.Context, cfg *config.Config, d *dataset.Dataset) (*model_selection.ValidationCurveResult, error) {
	if cfg.Curve.Param == "" || len(cfg.Curve.Values) == 0 {
		return nil, errors.NewValidationError("curve.param", "a parameter and its values are required", cfg.Curve.Param)
	}
	est, err := FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return model_selection.ValidationCurve(ctx, est, cfg.Curve.Param, cfg.Curve.Values, d.X, d.YMatrix(), Splitter(cfg), Scoring(cfg), CVOptions(cfg)...)
}

// BoostingDepth runs the boosting stage diagnostic for cfg.Diagnostic.
func BoostingDepth(ctx context.Context, cfg *config.Config, d *dataset.Dataset) (*diagnostics.BoostingDiagnostic, error) {
	factory, err := BoostingFactory(cfg)
	if err != nil {
		return nil, err
	}
	return diagnostics.BoostingDepth(ctx, factory, d.X, d.YMatrix(), diagnostics.Config{
		Depths:   cfg.Diagnostic.Depths,
		Splitter: Splitter(cfg),
		Scoring:  Scoring(cfg),
		Window:   cfg.Diagnostic.Window,
		NJobs:    cfg.CV.NJobs,
	})
}

// RegularizationPath fits cfg.Curve.PathKind over cfg.Curve.PathAlphas
// log-spaced alphas spanning three decades below the smallest alpha that
// zeroes every Lasso coefficient. Features are standardized first when
// model.scaler is "standard".
func RegularizationPath(cfg *config.Config, d *dataset.Dataset) (*linear_model.Path, error) {
	if cfg.Classification() {
		return nil, errors.NewValidationError("task", "regularization paths need a regression task", cfg.Task)
	}
	var X mat.Matrix = d.X
	if cfg.Model.Scaler == "standard" {
		Xs, err := preprocessing.NewStandardScalerDefault().FitTransform(d.X)
		if err != nil {
			return nil, err
		}
		X = Xs
	}
	alphaMax, err := linear_model.LassoAlphaMax(X, d.YMatrix(), true)
	if err != nil {
		return nil, err
	}
	if alphaMax == 0 {
		return nil, errors.NewValueError("RegularizationPath", "target is uncorrelated with every feature")
	}
	top := math.Log10(alphaMax)
	alphas := linear_model.LogSpace(top-3, top, cfg.Curve.PathAlphas)
	path, err := linear_model.RegularizationPath(cfg.Curve.PathKind, X, d.YMatrix(), alphas)
	if err != nil {
		return nil, err
	}
	logs.GetLoggerWithName("experiment").Info("regularization path computed",
		"kind", cfg.Curve.PathKind,
		"alphas", len(alphas),
		log.AlphaKey, alphaMax,
	)
	return path, nil
}

// Holdout is a single train/test evaluation.
type Holdout struct {
	Estimator model.Model
	Scoring   string
	Score     float64
	YTrue     []float64
	YPred     []float64
	Train     *dataset.Dataset
	Test      *dataset.Dataset
}

// FitHoldout splits d by cv.test_size, fits the configured estimator on
// the training part and scores it on the held-out part.
func FitHoldout(cfg *config.Config, d *dataset.Dataset) (*Holdout, error) {
	train, test, err := d.TrainTestSplit(cfg.CV.TestSize, cfg.CV.Seed, cfg.Classification())
	if err != nil {
		return nil, err
	}
	est, err := FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	if err := est.Fit(train.X, train.YMatrix()); err != nil {
		return nil, err
	}
	scorer, err := metrics.GetScorer(Scoring(cfg))
	if err != nil {
		return nil, err
	}
	score, err := scorer.Score(est, test.X, test.YMatrix())
	if err != nil {
		return nil, err
	}
	pred, err := est.Predict(test.X)
	if err != nil {
		return nil, err
	}
	return &Holdout{
		Estimator: est,
		Scoring:   scorer.Name,
		Score:     score,
		YTrue:     test.Targets(),
		YPred:     model.Column(pred, 0),
		Train:     train,
		Test:      test,
	}, nil
}

// Explain returns the fitted coefficients of a linear model or the
// importances of a tree ensemble, unwrapping a Pipeline. ok is false for
// estimators with neither.
func Explain(est model.Estimator) (kind string, values []float64, ok bool) {
	if p, isPipe := est.(*preprocessing.Pipeline); isPipe {
		return Explain(p.Estimator)
	}
	if lm, isLinear := est.(model.LinearModel); isLinear {
		return "coefficients", lm.Coef(), true
	}
	if fi, isTree := est.(model.FeatureImportancer); isTree {
		imp, err := fi.FeatureImportances()
		if err != nil {
			return "", nil, false
		}
		return "importances", imp, true
	}
	return "", nil, false
}
