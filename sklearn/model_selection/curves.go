package model_selection

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/mlps/physlearn/core/model"
	"github.com/mlps/physlearn/metrics"
	"github.com/mlps/physlearn/pkg/errors"
	"github.com/mlps/physlearn/pkg/log"
)

// CurveResult holds train and test scores indexed [point][fold].
type CurveResult struct {
	Scoring     string
	TrainScores [][]float64
	TestScores  [][]float64
}

// TrainMean returns the mean train score at every point.
func (r *CurveResult) TrainMean() []float64 { return rowStat(r.TrainScores, mean) }

// TrainStd returns the sample standard deviation of train scores per point.
func (r *CurveResult) TrainStd() []float64 { return rowStat(r.TrainScores, std) }

// TestMean returns the mean test score at every point.
func (r *CurveResult) TestMean() []float64 { return rowStat(r.TestScores, mean) }

// TestStd returns the sample standard deviation of test scores per point.
func (r *CurveResult) TestStd() []float64 { return rowStat(r.TestScores, std) }

func rowStat(rows [][]float64, f func([]float64) float64) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = f(r)
	}
	return out
}

func newCurveResult(scoring string, points, folds int) *CurveResult {
	r := &CurveResult{
		Scoring:     scoring,
		TrainScores: make([][]float64, points),
		TestScores:  make([][]float64, points),
	}
	for i := range points {
		r.TrainScores[i] = make([]float64, folds)
		r.TestScores[i] = make([]float64, folds)
	}
	return r
}

// LearningCurveResult adds the absolute training-set sizes.
type LearningCurveResult struct {
	CurveResult
	TrainSizes []int
}

// LearningCurve scores est trained on growing prefixes of each training
// fold. trainSizes entries in (0, 1] are fractions of the smallest training
// fold; larger entries are absolute row counts.
func LearningCurve(ctx context.Context, est model.Model, X, y mat.Matrix, trainSizes []float64, cv Splitter, scoring string, opts ...CVOption) (*LearningCurveResult, error) {
	cfg := defaultCVConfig()
	for _, o := range opts {
		o(cfg)
	}
	if len(trainSizes) == 0 {
		return nil, errors.NewValidationError("train_sizes", "must not be empty", trainSizes)
	}
	if _, _, err := model.ValidateXY("LearningCurve", X, y); err != nil {
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
	maxTrain := math.MaxInt
	for _, f := range folds {
		maxTrain = min(maxTrain, len(f.TrainIndices))
	}
	sizes, err := absoluteSizes(trainSizes, maxTrain)
	if err != nil {
		return nil, err
	}

	res := &LearningCurveResult{CurveResult: *newCurveResult(scorer.Name, len(sizes), len(folds)), TrainSizes: sizes}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.nJobs)
	for p, n := range sizes {
		for f, fold := range folds {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				train := fold.TrainIndices[:n]
				tr, te, _, err := trainTestScore(est, X, y, train, fold.TestIndices, scorer)
				if err != nil {
					return errors.Wrapf(err, "train size %d, fold %d", n, f)
				}
				res.TrainScores[p][f] = tr
				res.TestScores[p][f] = te
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	cfg.logger.Info("learning curve computed",
		log.OperationKey, "learning_curve",
		log.NFoldsKey, len(folds),
		log.ScoringKey, scorer.Name,
	)
	return res, nil
}

// absoluteSizes converts fractional sizes and removes duplicates, keeping order.
func absoluteSizes(sizes []float64, maxTrain int) ([]int, error) {
	seen := make(map[int]bool, len(sizes))
	out := make([]int, 0, len(sizes))
	for _, s := range sizes {
		var n int
		switch {
		case s <= 0:
			return nil, errors.NewValidationError("train_sizes", "must be positive", s)
		case s <= 1:
			n = max(1, int(math.Floor(s*float64(maxTrain))))
		default:
			n = int(s)
			if n > maxTrain {
				return nil, errors.NewValidationError("train_sizes", "larger than the smallest training fold", s)
			}
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out, nil
}

// ValidationCurveResult adds the swept parameter values.
type ValidationCurveResult struct {
	CurveResult
	Param  string
	Values []interface{}
}

// ValidationCurve scores est across values of one hyperparameter.
func ValidationCurve(ctx context.Context, est model.Model, param string, values []interface{}, X, y mat.Matrix, cv Splitter, scoring string, opts ...CVOption) (*ValidationCurveResult, error) {
	cfg := defaultCVConfig()
	for _, o := range opts {
		o(cfg)
	}
	if len(values) == 0 {
		return nil, errors.NewValidationError(param, "no values to sweep", values)
	}
	if _, _, err := model.ValidateXY("ValidationCurve", X, y); err != nil {
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

	candidates := make([]model.Model, len(values))
	for i, v := range values {
		c, err := model.CloneModel(est)
		if err != nil {
			return nil, err
		}
		if err := c.SetParams(map[string]interface{}{param: v}); err != nil {
			return nil, errors.Wrapf(err, "%s=%v", param, v)
		}
		candidates[i] = c
	}

	res := &ValidationCurveResult{CurveResult: *newCurveResult(scorer.Name, len(values), len(folds)), Param: param, Values: values}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.nJobs)
	for p, cand := range candidates {
		for f, fold := range folds {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				tr, te, _, err := trainTestScore(cand, X, y, fold.TrainIndices, fold.TestIndices, scorer)
				if err != nil {
					return errors.Wrapf(err, "%s=%v, fold %d", param, values[p], f)
				}
				res.TrainScores[p][f] = tr
				res.TestScores[p][f] = te
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	cfg.logger.Info("validation curve computed",
		log.OperationKey, "validation_curve",
		log.HyperParamsKey, param,
		log.NFoldsKey, len(folds),
	)
	return res, nil
}
