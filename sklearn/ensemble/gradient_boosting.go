package ensemble

import (
	"math/rand/v2"
	"slices"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/mlps/physlearn/core/model"
	"github.com/mlps/physlearn/pkg/errors"
	"github.com/mlps/physlearn/pkg/log"
	"github.com/mlps/physlearn/sklearn/model_selection"
	"github.com/mlps/physlearn/sklearn/tree"
)

// booster is the stage loop shared by the gradient boosting regressor and
// classifier. Each stage fits one regression tree per output to the
// pseudo-residuals and replaces its leaf values with a Newton step.
type booster struct {
	params
	state *model.StateManager
	name  string

	init   []float64
	stages [][]*tree.DecisionTreeRegressor

	trainScore_      []float64
	validationScore_ []float64
	bestIteration_   int
	importances_     []float64
}

func newBooster(name string, opts []Option) booster {
	b := booster{params: boostingDefaults(), state: model.NewStateManager(), name: name}
	for _, o := range opts {
		o(&b.params)
	}
	return b
}

// fit runs the stage loop. y is the encoded target (values for squared
// loss, class indices for the classifiers); stratify is passed to the
// validation split.
func (b *booster) fit(X mat.Matrix, y []float64, loss lossFunction, stratify []float64) error {
	start := time.Now()
	n, p := X.Dims()
	K := loss.k()
	logger := log.GetLoggerWithName("ensemble")

	trainIdx := make([]int, n)
	for i := range trainIdx {
		trainIdx[i] = i
	}
	var valIdx []int
	if b.nIterNoChange > 0 {
		var err error
		trainIdx, valIdx, err = model_selection.TrainTestSplitIndices(n, b.validationFraction, b.randomState, stratify)
		if err != nil {
			return errors.Wrap(err, b.name+": validation split")
		}
		slices.Sort(trainIdx)
		slices.Sort(valIdx)
	}

	b.init = loss.initRaw(model.SelectValues(y, trainIdx))
	raw := make([]float64, n*K)
	for i := 0; i < n; i++ {
		copy(raw[i*K:(i+1)*K], b.init)
	}

	es := NewEarlyStopping(b.nIterNoChange, b.tol)
	rng := rand.New(rand.NewPCG(uint64(b.randomState), 0xda3e39cb94b95bdb))
	residuals := make([][]float64, K)
	for c := range residuals {
		residuals[c] = make([]float64, n)
	}
	b.stages = b.stages[:0]
	b.trainScore_ = b.trainScore_[:0]
	b.validationScore_ = b.validationScore_[:0]
	b.bestIteration_ = -1

	for m := 0; m < b.nEstimators; m++ {
		inBag := trainIdx
		if b.subsample < 1 {
			nb := max(1, int(b.subsample*float64(len(trainIdx))))
			perm := rng.Perm(len(trainIdx))[:nb]
			inBag = make([]int, nb)
			for k, q := range perm {
				inBag[k] = trainIdx[q]
			}
			slices.Sort(inBag)
		}
		Xb := model.SelectRows(X, inBag)
		for c := 0; c < K; c++ {
			loss.negGradient(y, raw, c, residuals[c])
		}

		stage := make([]*tree.DecisionTreeRegressor, K)
		for c := 0; c < K; c++ {
			t := tree.NewDecisionTreeRegressor(
				tree.WithMaxDepth(b.maxDepth),
				tree.WithMinSamplesLeaf(b.minSamplesLeaf),
				tree.WithRandomState(b.randomState+m),
			)
			rb := mat.NewVecDense(len(inBag), model.SelectValues(residuals[c], inBag))
			if err := t.Fit(Xb, rb); err != nil {
				return errors.Wrapf(err, "%s: stage %d", b.name, m+1)
			}
			if err := b.newtonLeaves(t, Xb, inBag, y, raw, residuals[c], c, loss); err != nil {
				return err
			}
			pred, err := t.Predict(X)
			if err != nil {
				return err
			}
			for i := 0; i < n; i++ {
				raw[i*K+c] += b.learningRate * pred.At(i, 0)
			}
			stage[c] = t
		}
		b.stages = append(b.stages, stage)

		trainLoss := loss.loss(y, raw, inBag)
		if err := errors.CheckScalar(b.name+".Fit", trainLoss, m+1); err != nil {
			return err
		}
		b.trainScore_ = append(b.trainScore_, trainLoss)
		logger.Debug("boosting stage",
			log.ModelNameKey, b.name,
			log.StageKey, m+1,
			log.LossKey, trainLoss)

		if es.Enabled {
			valLoss := loss.loss(y, raw, valIdx)
			b.validationScore_ = append(b.validationScore_, valLoss)
			if es.Update(m, valLoss) {
				logger.Info("early stopping",
					log.ModelNameKey, b.name,
					log.StageKey, m+1,
					"best_stage", es.BestIteration+1,
					log.LossKey, es.BestScore)
				break
			}
		}
	}
	b.bestIteration_ = es.BestIteration

	b.importances_ = make([]float64, p)
	for _, stage := range b.stages {
		for _, t := range stage {
			imp, err := t.FeatureImportances()
			if err != nil {
				return err
			}
			for j, v := range imp {
				b.importances_[j] += v
			}
		}
	}
	normalize(b.importances_)

	b.state.SetDimensions(p, n)
	b.state.SetFitted()
	logger.Info("boosting fitted",
		log.ModelNameKey, b.name,
		log.StageKey, len(b.stages),
		log.SamplesKey, n,
		log.DurationMsKey, time.Since(start).Milliseconds())
	return nil
}

// newtonLeaves overwrites each leaf with the loss's Newton step over the
// in-bag samples it holds.
func (b *booster) newtonLeaves(t *tree.DecisionTreeRegressor, Xb mat.Matrix, inBag []int, y, raw, residual []float64, c int, loss lossFunction) error {
	if _, ok := loss.(squaredLoss); ok {
		return nil
	}
	ids, err := t.Apply(Xb)
	if err != nil {
		return err
	}
	groups := map[int][]int{}
	for k, id := range ids {
		groups[id] = append(groups[id], inBag[k])
	}
	for id, samples := range groups {
		if err := t.SetLeafValue(id, loss.leafValue(samples, y, raw, residual, c)); err != nil {
			return err
		}
	}
	return nil
}

func (b *booster) check(method string, X mat.Matrix) error {
	if err := b.state.RequireFitted(b.name, method); err != nil {
		return err
	}
	if _, _, err := model.ValidateX(b.name+"."+method, X); err != nil {
		return err
	}
	return b.state.CheckFeatures(b.name+"."+method, X)
}

// stagedRaw calls fn with the raw scores after every stage. raw is reused
// between calls.
func (b *booster) stagedRaw(method string, X mat.Matrix, fn func(stage int, raw []float64) error) error {
	if err := b.check(method, X); err != nil {
		return err
	}
	n, _ := X.Dims()
	K := len(b.init)
	raw := make([]float64, n*K)
	for i := 0; i < n; i++ {
		copy(raw[i*K:(i+1)*K], b.init)
	}
	for m, stage := range b.stages {
		for c, t := range stage {
			pred, err := t.Predict(X)
			if err != nil {
				return err
			}
			for i := 0; i < n; i++ {
				raw[i*K+c] += b.learningRate * pred.At(i, 0)
			}
		}
		if err := fn(m+1, raw); err != nil {
			return err
		}
	}
	return nil
}

func (b *booster) finalRaw(method string, X mat.Matrix) ([]float64, error) {
	var out []float64
	err := b.stagedRaw(method, X, func(stage int, raw []float64) error {
		if stage == len(b.stages) {
			out = raw
		}
		return nil
	})
	return out, err
}

// NStages returns the number of fitted stages, which is below
// n_estimators when early stopping triggered.
func (b *booster) NStages() int { return len(b.stages) }

// TrainScore returns the in-bag training loss after each stage.
func (b *booster) TrainScore() []float64 { return slices.Clone(b.trainScore_) }

// ValidationScore returns the held-out loss after each stage; empty unless
// early stopping is enabled.
func (b *booster) ValidationScore() []float64 { return slices.Clone(b.validationScore_) }

// BestIteration returns the 1-based stage with the lowest validation loss,
// or 0 when early stopping is disabled.
func (b *booster) BestIteration() int { return b.bestIteration_ + 1 }

// FeatureImportances returns the impurity importances summed over every
// tree and normalized to one.
func (b *booster) FeatureImportances() ([]float64, error) {
	if err := b.state.RequireFitted(b.name, "FeatureImportances"); err != nil {
		return nil, err
	}
	return slices.Clone(b.importances_), nil
}

// GetParams returns the hyperparameters.
func (b *booster) GetParams() map[string]interface{} { return b.boostingParams() }

// SetParams updates the hyperparameters and resets the fitted state.
func (b *booster) SetParams(values map[string]interface{}) error {
	if err := b.set(b.name, b.boostingParams(), values); err != nil {
		return err
	}
	b.state.Reset()
	return nil
}

// GradientBoostingRegressor boosts regression trees on the squared loss.
type GradientBoostingRegressor struct {
	booster
}

// NewGradientBoostingRegressor creates a regressor with 100 stages,
// learning_rate 0.1 and depth-3 trees.
func NewGradientBoostingRegressor(opts ...Option) *GradientBoostingRegressor {
	return &GradientBoostingRegressor{booster: newBooster("GradientBoostingRegressor", opts)}
}

// Fit trains the ensemble.
func (g *GradientBoostingRegressor) Fit(X, y mat.Matrix) error {
	if err := g.validateBoosting(); err != nil {
		return err
	}
	if _, _, err := model.ValidateXY(g.name+".Fit", X, y); err != nil {
		return err
	}
	if err := errors.CheckMatrix(g.name+".Fit", X, 0); err != nil {
		return err
	}
	target := model.Column(y, 0)
	if err := errors.CheckValues(g.name+".Fit", target, 0); err != nil {
		return err
	}
	return g.fit(X, target, squaredLoss{}, nil)
}

// Predict returns the prediction of the full ensemble.
func (g *GradientBoostingRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	raw, err := g.finalRaw("Predict", X)
	if err != nil {
		return nil, err
	}
	return mat.NewVecDense(len(raw), raw), nil
}

// StagedPredict passes the prediction after each stage to fn.
func (g *GradientBoostingRegressor) StagedPredict(X mat.Matrix, fn func(stage int, yPred mat.Matrix) error) error {
	return g.stagedRaw("StagedPredict", X, func(stage int, raw []float64) error {
		return fn(stage, mat.NewVecDense(len(raw), raw))
	})
}

// Score returns R² on (X, y).
func (g *GradientBoostingRegressor) Score(X, y mat.Matrix) (float64, error) {
	return regressionScore(g, X, y)
}

// Clone returns an unfitted copy with the same hyperparameters.
func (g *GradientBoostingRegressor) Clone() model.Estimator {
	return &GradientBoostingRegressor{booster: booster{params: g.params, state: model.NewStateManager(), name: g.name}}
}
