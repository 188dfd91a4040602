// Package diagnostics cross-validates boosted ensembles stage by stage to
// show how the score evolves with the number of boosting rounds for each
// base-tree depth.
package diagnostics

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/mlps/physlearn/core/model"
	"github.com/mlps/physlearn/metrics"
	"github.com/mlps/physlearn/pkg/errors"
	"github.com/mlps/physlearn/pkg/log"
	"github.com/mlps/physlearn/sklearn/model_selection"
)

// StagedEstimator is an ensemble that can replay its predictions after
// every boosting stage.
type StagedEstimator interface {
	model.Estimator
	model.StagedPredictor
}

// stagedProba is implemented by boosted classifiers; threshold scorers
// such as roc_auc use it.
type stagedProba interface {
	Classes() []float64
	StagedPredictProba(X mat.Matrix, fn func(stage int, proba mat.Matrix) error) error
}

// Factory builds an unfitted ensemble whose base trees have the given depth.
type Factory func(depth int) StagedEstimator

// Config selects what BoostingDepth evaluates.
type Config struct {
	Depths   []int
	Splitter model_selection.Splitter
	Scoring  string
	// Window is the width of the trailing moving average; <= 1 disables it.
	Window int
	// NJobs bounds concurrent fold fits; <= 0 means one per CPU.
	NJobs int
}

// DepthCurve is the fold-averaged score per stage for one depth.
type DepthCurve struct {
	Depth     int
	TrainMean []float64
	TrainStd  []float64
	TestMean  []float64
	TestStd   []float64
	Smoothed  []float64
	// FoldStages is the number of stages each fold ensemble fitted.
	FoldStages []int
	BestStage  int // 1-based argmax of TestMean; first on ties
	BestScore  float64
}

// NStages returns the length of the curves.
func (c *DepthCurve) NStages() int { return len(c.TestMean) }

// BoostingDiagnostic holds one curve per depth in Config.Depths order.
type BoostingDiagnostic struct {
	Scoring string
	Window  int
	Depths  []DepthCurve
}

// Best returns the depth and 1-based stage with the highest mean test
// score. Ties go to the earlier depth.
func (d *BoostingDiagnostic) Best() (depth, stage int, score float64) {
	score = math.Inf(-1)
	for _, c := range d.Depths {
		if c.BestScore > score {
			depth, stage, score = c.Depth, c.BestStage, c.BestScore
		}
	}
	return depth, stage, score
}

type foldCurve struct {
	train, test []float64
}

// BoostingDepth fits factory(depth) on every training fold for every depth
// and scores each stage on the test fold and the training fold. Curves are
// averaged across folds stage by stage; a fold whose ensemble stopped
// early repeats its last score for the remaining stages.
func BoostingDepth(ctx context.Context, factory Factory, X, y mat.Matrix, cfg Config) (*BoostingDiagnostic, error) {
	if len(cfg.Depths) == 0 {
		return nil, errors.NewValidationError("depths", "must not be empty", cfg.Depths)
	}
	for _, d := range cfg.Depths {
		if d < 1 {
			return nil, errors.NewValidationError("depths", "every depth must be at least 1", d)
		}
	}
	if factory == nil {
		return nil, errors.NewValidationError("factory", "must not be nil", nil)
	}
	if cfg.Splitter == nil {
		return nil, errors.NewValidationError("splitter", "must not be nil", nil)
	}
	if _, _, err := model.ValidateXY("BoostingDepth", X, y); err != nil {
		return nil, err
	}
	scorer, err := metrics.GetScorer(cfg.Scoring)
	if err != nil {
		return nil, err
	}
	folds, err := cfg.Splitter.Split(X, y)
	if err != nil {
		return nil, err
	}
	nJobs := cfg.NJobs
	if nJobs <= 0 {
		nJobs = runtime.NumCPU()
	}

	curves := make([][]foldCurve, len(cfg.Depths))
	for i := range curves {
		curves[i] = make([]foldCurve, len(folds))
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(nJobs)
	for di, depth := range cfg.Depths {
		for fi, fold := range folds {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				fc, err := evaluateFold(factory(depth), X, y, fold, scorer)
				if err != nil {
					return errors.Wrapf(err, "depth %d, fold %d", depth, fi)
				}
				curves[di][fi] = fc
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger := log.GetLoggerWithName("diagnostics")
	out := &BoostingDiagnostic{Scoring: scorer.Name, Window: cfg.Window}
	for di, depth := range cfg.Depths {
		c := aggregate(depth, curves[di], cfg.Window)
		logger.Info("boosting depth evaluated",
			log.DepthKey, depth,
			log.StageKey, c.BestStage,
			log.ScoreKey, c.BestScore,
			log.ScoringKey, scorer.Name,
			log.NFoldsKey, len(folds))
		out.Depths = append(out.Depths, c)
	}
	return out, nil
}

func evaluateFold(est StagedEstimator, X, y mat.Matrix, fold model_selection.Fold, scorer metrics.Scorer) (foldCurve, error) {
	if est == nil {
		return foldCurve{}, errors.NewValidationError("factory", "returned a nil estimator", nil)
	}
	Xtr, ytr := model.SelectRows(X, fold.TrainIndices), targets(y, fold.TrainIndices)
	Xte, yte := model.SelectRows(X, fold.TestIndices), targets(y, fold.TestIndices)
	if err := est.Fit(Xtr, ytr); err != nil {
		return foldCurve{}, err
	}
	if est.NStages() == 0 {
		return foldCurve{}, errors.NewValueError("BoostingDepth", "estimator fitted zero stages")
	}
	train, err := stageScores(est, Xtr, ytr, scorer)
	if err != nil {
		return foldCurve{}, err
	}
	test, err := stageScores(est, Xte, yte, scorer)
	if err != nil {
		return foldCurve{}, err
	}
	return foldCurve{train: train, test: test}, nil
}

func stageScores(est StagedEstimator, X mat.Matrix, y *mat.VecDense, scorer metrics.Scorer) ([]float64, error) {
	scores := make([]float64, 0, est.NStages())
	if sp, ok := est.(stagedProba); ok && scorer.Threshold {
		if j := slices.Index(sp.Classes(), 1); j >= 0 {
			err := sp.StagedPredictProba(X, func(_ int, proba mat.Matrix) error {
				col := model.Column(proba, j)
				s, err := scorer.ScorePredictions(y, mat.NewVecDense(len(col), col))
				scores = append(scores, s)
				return err
			})
			return scores, err
		}
	}
	err := est.StagedPredict(X, func(_ int, yPred mat.Matrix) error {
		s, err := scorer.ScorePredictions(y, yPred)
		scores = append(scores, s)
		return err
	})
	return scores, err
}

func targets(y mat.Matrix, idx []int) *mat.VecDense {
	return mat.NewVecDense(len(idx), model.SelectValues(model.Column(y, 0), idx))
}

// aggregate averages fold curves stage by stage, padding short curves with
// their last value.
func aggregate(depth int, folds []foldCurve, window int) DepthCurve {
	n := 0
	c := DepthCurve{Depth: depth}
	for _, f := range folds {
		n = max(n, len(f.test))
		c.FoldStages = append(c.FoldStages, len(f.test))
	}
	c.TrainMean, c.TrainStd = make([]float64, n), make([]float64, n)
	c.TestMean, c.TestStd = make([]float64, n), make([]float64, n)
	tr := make([]float64, len(folds))
	te := make([]float64, len(folds))
	for s := 0; s < n; s++ {
		for k, f := range folds {
			tr[k] = at(f.train, s)
			te[k] = at(f.test, s)
		}
		c.TrainMean[s], c.TrainStd[s] = meanStd(tr)
		c.TestMean[s], c.TestStd[s] = meanStd(te)
	}
	c.Smoothed = MovingAverage(c.TestMean, window)
	c.BestStage, c.BestScore = 1, c.TestMean[0]
	for s, v := range c.TestMean {
		if v > c.BestScore {
			c.BestStage, c.BestScore = s+1, v
		}
	}
	return c
}

func at(v []float64, s int) float64 {
	if s < len(v) {
		return v[s]
	}
	return v[len(v)-1]
}

// meanStd returns the mean and the sample standard deviation (0 for one value).
func meanStd(v []float64) (float64, float64) {
	if len(v) == 1 {
		return v[0], 0
	}
	return stat.MeanStdDev(v, nil)
}

// MovingAverage returns the trailing mean of values over window points;
// the first window−1 entries average what is available. window <= 1
// returns a copy.
func MovingAverage(values []float64, window int) []float64 {
	out := slices.Clone(values)
	if window <= 1 {
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		out[i] = sum / float64(min(i+1, window))
	}
	return out
}

func (c *DepthCurve) String() string {
	return fmt.Sprintf("depth=%d best_stage=%d best_score=%.4f", c.Depth, c.BestStage, c.BestScore)
}
