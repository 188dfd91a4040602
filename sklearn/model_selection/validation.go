package model_selection

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/mlps/physlearn/core/model"
	"github.com/mlps/physlearn/metrics"
	"github.com/mlps/physlearn/pkg/errors"
	"github.com/mlps/physlearn/pkg/log"
)

// CVResult holds per-fold scores in fold order.
type CVResult struct {
	Scoring     string
	TrainScores []float64
	TestScores  []float64
	FitTimes    []time.Duration
	ScoreTimes  []time.Duration

	// Estimators holds the fitted fold models when ReturnEstimator is set.
	Estimators []model.Estimator
}

// MeanTestScore returns the mean test score.
func (cv *CVResult) MeanTestScore() float64 { return mean(cv.TestScores) }

// StdTestScore returns the sample standard deviation of the test scores.
func (cv *CVResult) StdTestScore() float64 { return std(cv.TestScores) }

// MeanTrainScore returns the mean train score, or NaN if not computed.
func (cv *CVResult) MeanTrainScore() float64 { return mean(cv.TrainScores) }

// StdTrainScore returns the sample standard deviation of the train scores.
func (cv *CVResult) StdTrainScore() float64 { return std(cv.TrainScores) }

func mean(v []float64) float64 {
	if len(v) == 0 {
		return math.NaN()
	}
	return stat.Mean(v, nil)
}

func std(v []float64) float64 {
	if len(v) <= 1 {
		return 0
	}
	return stat.StdDev(v, nil)
}

// CVOption configures CrossValidate and the searches built on it.
type CVOption func(*cvConfig)

type cvConfig struct {
	nJobs           int
	trainScore      bool
	returnEstimator bool
	logger          log.Logger
}

func defaultCVConfig() *cvConfig {
	return &cvConfig{nJobs: runtime.NumCPU(), logger: log.GetLoggerWithName("model_selection")}
}

// WithNJobs limits how many folds are fitted at once. n <= 0 means one per CPU.
func WithNJobs(n int) CVOption {
	return func(c *cvConfig) {
		if n <= 0 {
			n = runtime.NumCPU()
		}
		c.nJobs = n
	}
}

// WithTrainScore also scores each fold model on its training rows.
func WithTrainScore(enabled bool) CVOption {
	return func(c *cvConfig) { c.trainScore = enabled }
}

// WithReturnEstimator keeps the fitted fold models in CVResult.Estimators.
func WithReturnEstimator(enabled bool) CVOption {
	return func(c *cvConfig) { c.returnEstimator = enabled }
}

// WithLogger sets the logger used for per-fold records.
func WithLogger(l log.Logger) CVOption {
	return func(c *cvConfig) { c.logger = l }
}

// CrossValidate fits a clone of est on every training fold and scores it on
// the matching test fold. Folds run concurrently; scores are stored by fold
// index so the result does not depend on scheduling. The first fold error
// cancels the remaining folds.
func CrossValidate(ctx context.Context, est model.Model, X, y mat.Matrix, cv Splitter, scoring string, opts ...CVOption) (*CVResult, error) {
	cfg := defaultCVConfig()
	for _, o := range opts {
		o(cfg)
	}
	if _, _, err := model.ValidateXY("CrossValidate", X, y); err != nil {
		return nil, err
	}
	scorer, err := metrics.GetScorer(scoring)
	if err != nil {
		return nil, err
	}
	folds, err := cv.Split(X, y)
	if err != nil {
		return nil, err
	}

	nFolds := len(folds)
	result := &CVResult{
		Scoring:    scorer.Name,
		TestScores: make([]float64, nFolds),
		FitTimes:   make([]time.Duration, nFolds),
		ScoreTimes: make([]time.Duration, nFolds),
	}
	if cfg.trainScore {
		result.TrainScores = make([]float64, nFolds)
	}
	if cfg.returnEstimator {
		result.Estimators = make([]model.Estimator, nFolds)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.nJobs)
	for i, fold := range folds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fitted, fitTime, err := fitFold(est, X, y, fold)
			if err != nil {
				return errors.Wrapf(err, "fold %d", i)
			}
			start := time.Now()
			testScore, err := scorer.Score(fitted, model.SelectRows(X, fold.TestIndices), selectTargets(y, fold.TestIndices))
			if err != nil {
				return errors.Wrapf(err, "fold %d: score test", i)
			}
			result.TestScores[i] = testScore
			if cfg.trainScore {
				trainScore, err := scorer.Score(fitted, model.SelectRows(X, fold.TrainIndices), selectTargets(y, fold.TrainIndices))
				if err != nil {
					return errors.Wrapf(err, "fold %d: score train", i)
				}
				result.TrainScores[i] = trainScore
			}
			result.ScoreTimes[i] = time.Since(start)
			result.FitTimes[i] = fitTime
			if cfg.returnEstimator {
				result.Estimators[i] = fitted
			}
			cfg.logger.Debug("fold scored",
				log.FoldKey, i,
				log.ScoreKey, testScore,
				log.ScoringKey, scorer.Name,
				log.DurationMsKey, fitTime,
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// CrossValScore returns only the per-fold test scores.
func CrossValScore(ctx context.Context, est model.Model, X, y mat.Matrix, cv Splitter, scoring string, opts ...CVOption) ([]float64, error) {
	res, err := CrossValidate(ctx, est, X, y, cv, scoring, opts...)
	if err != nil {
		return nil, err
	}
	return res.TestScores, nil
}

// fitFold clones est and fits the clone on the fold's training rows. A
// panic inside Fit is returned as a *errors.PanicError.
func fitFold(est model.Model, X, y mat.Matrix, fold Fold) (fitted model.Estimator, elapsed time.Duration, err error) {
	if len(fold.TrainIndices) == 0 || len(fold.TestIndices) == 0 {
		return nil, 0, errors.NewValueError("CrossValidate", "empty train or test fold")
	}
	defer errors.Recover(&err, "CrossValidate fit")
	clone := est.Clone()
	start := time.Now()
	if err := clone.Fit(model.SelectRows(X, fold.TrainIndices), selectTargets(y, fold.TrainIndices)); err != nil {
		return nil, 0, err
	}
	return clone, time.Since(start), nil
}

func selectTargets(y mat.Matrix, indices []int) *mat.VecDense {
	out := mat.NewVecDense(len(indices), nil)
	for i, idx := range indices {
		out.SetVec(i, y.At(idx, 0))
	}
	return out
}

// TrainTestScore fits a clone of est on the train rows and scores it on
// both partitions.
func TrainTestScore(est model.Model, X, y mat.Matrix, train, test []int, scoring string) (trainScore, testScore float64, fitted model.Estimator, err error) {
	scorer, err := metrics.GetScorer(scoring)
	if err != nil {
		return 0, 0, nil, err
	}
	return trainTestScore(est, X, y, train, test, scorer)
}

func trainTestScore(est model.Model, X, y mat.Matrix, train, test []int, scorer metrics.Scorer) (trainScore, testScore float64, fitted model.Estimator, err error) {
	fitted, _, err = fitFold(est, X, y, Fold{TrainIndices: train, TestIndices: test})
	if err != nil {
		return 0, 0, nil, err
	}
	if trainScore, err = scorer.Score(fitted, model.SelectRows(X, train), selectTargets(y, train)); err != nil {
		return 0, 0, nil, err
	}
	if testScore, err = scorer.Score(fitted, model.SelectRows(X, test), selectTargets(y, test)); err != nil {
		return 0, 0, nil, err
	}
	return trainScore, testScore, fitted, nil
}

// String formats the result as "mean (+/- std)".
func (cv *CVResult) String() string {
	return fmt.Sprintf("%s: %.4f (+/- %.4f)", cv.Scoring, cv.MeanTestScore(), cv.StdTestScore())
}
