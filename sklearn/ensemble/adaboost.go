package ensemble

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/mlps/physlearn/core/model"
	"github.com/mlps/physlearn/pkg/errors"
	"github.com/mlps/physlearn/pkg/log"
	"github.com/mlps/physlearn/sklearn/tree"
)

// AdaBoostClassifier is multiclass AdaBoost (SAMME) over decision trees.
// Fitting stops early when a tree classifies the weighted training set
// perfectly or when its weighted error reaches 1 − 1/K.
type AdaBoostClassifier struct {
	params
	state *model.StateManager

	classes_          []float64
	estimators        []*tree.DecisionTreeClassifier
	estimatorWeights_ []float64
	estimatorErrors_  []float64
	importances_      []float64
}

// NewAdaBoostClassifier creates an ensemble of 50 stumps with learning_rate 1.
func NewAdaBoostClassifier(opts ...Option) *AdaBoostClassifier {
	a := &AdaBoostClassifier{params: adaBoostDefaults(), state: model.NewStateManager()}
	for _, o := range opts {
		o(&a.params)
	}
	return a
}

// Fit trains the ensemble starting from uniform sample weights.
func (a *AdaBoostClassifier) Fit(X, y mat.Matrix) error {
	return a.FitWeighted(X, y, nil)
}

// FitWeighted trains the ensemble starting from the given sample weights.
func (a *AdaBoostClassifier) FitWeighted(X, y mat.Matrix, sampleWeight []float64) error {
	if err := a.validateCommon(); err != nil {
		return err
	}
	n, p, err := model.ValidateXY("AdaBoostClassifier.Fit", X, y)
	if err != nil {
		return err
	}
	if err := errors.CheckMatrix("AdaBoostClassifier.Fit", X, 0); err != nil {
		return err
	}
	labels := model.Column(y, 0)
	classes := model.UniqueLabels(labels)
	K := float64(len(classes))
	if len(classes) < 2 {
		return errors.NewValueError("AdaBoostClassifier.Fit", "need samples of at least two classes")
	}

	w := make([]float64, n)
	if sampleWeight == nil {
		for i := range w {
			w[i] = 1 / float64(n)
		}
	} else {
		if len(sampleWeight) != n {
			return errors.NewDimensionError("AdaBoostClassifier.Fit", n, len(sampleWeight), 0)
		}
		copy(w, sampleWeight)
		normalize(w)
	}

	a.estimators = a.estimators[:0]
	a.estimatorWeights_ = a.estimatorWeights_[:0]
	a.estimatorErrors_ = a.estimatorErrors_[:0]
	logger := log.GetLoggerWithName("ensemble")

	for m := 0; m < a.nEstimators; m++ {
		t := tree.NewDecisionTreeClassifier(tree.WithMaxDepth(a.maxDepth), tree.WithRandomState(a.randomState+m))
		if err := t.FitWeighted(X, y, w); err != nil {
			return errors.Wrapf(err, "AdaBoostClassifier: stage %d", m+1)
		}
		pred, err := t.Predict(X)
		if err != nil {
			return err
		}
		miss := make([]bool, n)
		var errSum, wSum float64
		for i := 0; i < n; i++ {
			wSum += w[i]
			if pred.At(i, 0) != labels[i] {
				miss[i] = true
				errSum += w[i]
			}
		}
		estErr := errSum / wSum

		if estErr <= 0 {
			a.push(t, 1, 0)
			logger.Debug("perfect base learner, stopping", log.StageKey, m+1)
			break
		}
		if estErr >= 1-1/K {
			if len(a.estimators) == 0 {
				return errors.NewValueError("AdaBoostClassifier.Fit",
					fmt.Sprintf("first base learner is no better than chance (error %.4f)", estErr))
			}
			logger.Debug("base learner no better than chance, stopping",
				log.StageKey, m+1, "error", estErr)
			break
		}

		alpha := a.learningRate * (math.Log((1-estErr)/estErr) + math.Log(K-1))
		a.push(t, alpha, estErr)
		logger.Debug("adaboost stage",
			log.StageKey, m+1,
			"error", estErr,
			"weight", alpha)

		if m == a.nEstimators-1 {
			break
		}
		for i := range w {
			if miss[i] && w[i] > 0 {
				w[i] *= errors.StabilizeExp(alpha)
			}
		}
		normalize(w)
	}

	a.importances_ = make([]float64, p)
	var total float64
	for m, t := range a.estimators {
		imp, err := t.FeatureImportances()
		if err != nil {
			return err
		}
		for j, v := range imp {
			a.importances_[j] += a.estimatorWeights_[m] * v
		}
		total += a.estimatorWeights_[m]
	}
	if total > 0 {
		for j := range a.importances_ {
			a.importances_[j] /= total
		}
	}

	a.classes_ = classes
	a.state.SetDimensions(p, n)
	a.state.SetFitted()
	logger.Info("adaboost fitted",
		log.ModelNameKey, "AdaBoostClassifier",
		log.StageKey, len(a.estimators),
		log.SamplesKey, n)
	return nil
}

func (a *AdaBoostClassifier) push(t *tree.DecisionTreeClassifier, weight, estErr float64) {
	a.estimators = append(a.estimators, t)
	a.estimatorWeights_ = append(a.estimatorWeights_, weight)
	a.estimatorErrors_ = append(a.estimatorErrors_, estErr)
}

func (a *AdaBoostClassifier) check(method string, X mat.Matrix) error {
	if err := a.state.RequireFitted("AdaBoostClassifier", method); err != nil {
		return err
	}
	if _, _, err := model.ValidateX("AdaBoostClassifier."+method, X); err != nil {
		return err
	}
	return a.state.CheckFeatures("AdaBoostClassifier."+method, X)
}

// staged calls fn after each stage with the weighted class votes divided
// by the total estimator weight so far (n×K).
func (a *AdaBoostClassifier) staged(method string, X mat.Matrix, fn func(stage int, votes *mat.Dense) error) error {
	if err := a.check(method, X); err != nil {
		return err
	}
	n, _ := X.Dims()
	K := len(a.classes_)
	index := model.LabelIndex(a.classes_)
	sums := mat.NewDense(n, K, nil)
	votes := mat.NewDense(n, K, nil)
	var total float64
	for m, t := range a.estimators {
		pred, err := t.Predict(X)
		if err != nil {
			return err
		}
		wm := a.estimatorWeights_[m]
		for i := 0; i < n; i++ {
			k := index[pred.At(i, 0)]
			sums.Set(i, k, sums.At(i, k)+wm)
		}
		total += wm
		votes.Scale(1/total, sums)
		if err := fn(m+1, votes); err != nil {
			return err
		}
	}
	return nil
}

func (a *AdaBoostClassifier) finalVotes(method string, X mat.Matrix) (*mat.Dense, error) {
	var out *mat.Dense
	err := a.staged(method, X, func(stage int, votes *mat.Dense) error {
		if stage == len(a.estimators) {
			out = votes
		}
		return nil
	})
	return out, err
}

func (a *AdaBoostClassifier) labelsFrom(votes *mat.Dense, dst *mat.VecDense) {
	n, _ := votes.Dims()
	for i := 0; i < n; i++ {
		dst.SetVec(i, a.classes_[argmax(votes.RawRowView(i))])
	}
}

func (a *AdaBoostClassifier) probaFrom(votes *mat.Dense) *mat.Dense {
	n, K := votes.Dims()
	out := mat.NewDense(n, K, nil)
	row := make([]float64, K)
	for i := 0; i < n; i++ {
		for k := range row {
			row[k] = votes.At(i, k) / float64(K-1)
		}
		errors.Softmax(row, row)
		out.SetRow(i, row)
	}
	return out
}

// DecisionFunction returns the normalized weighted votes: n×K, or n×1 as
// vote(Classes()[1]) − vote(Classes()[0]) for two classes.
func (a *AdaBoostClassifier) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	votes, err := a.finalVotes("DecisionFunction", X)
	if err != nil {
		return nil, err
	}
	n, K := votes.Dims()
	if K > 2 {
		return votes, nil
	}
	out := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		out.SetVec(i, votes.At(i, 1)-votes.At(i, 0))
	}
	return out, nil
}

// PredictProba returns softmax(votes / (K−1)) with columns in Classes() order.
func (a *AdaBoostClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	votes, err := a.finalVotes("PredictProba", X)
	if err != nil {
		return nil, err
	}
	return a.probaFrom(votes), nil
}

// Predict returns the class with the largest weighted vote; ties go to the
// smaller label.
func (a *AdaBoostClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	votes, err := a.finalVotes("Predict", X)
	if err != nil {
		return nil, err
	}
	n, _ := votes.Dims()
	out := mat.NewVecDense(n, nil)
	a.labelsFrom(votes, out)
	return out, nil
}

// StagedPredict passes the predicted labels after each stage to fn.
func (a *AdaBoostClassifier) StagedPredict(X mat.Matrix, fn func(stage int, yPred mat.Matrix) error) error {
	n, _ := X.Dims()
	out := mat.NewVecDense(max(n, 1), nil)
	return a.staged("StagedPredict", X, func(stage int, votes *mat.Dense) error {
		a.labelsFrom(votes, out)
		return fn(stage, out)
	})
}

// StagedPredictProba passes the class probabilities after each stage to fn.
func (a *AdaBoostClassifier) StagedPredictProba(X mat.Matrix, fn func(stage int, proba mat.Matrix) error) error {
	return a.staged("StagedPredictProba", X, func(stage int, votes *mat.Dense) error {
		return fn(stage, a.probaFrom(votes))
	})
}

// NStages returns the number of estimators kept.
func (a *AdaBoostClassifier) NStages() int { return len(a.estimators) }

// EstimatorWeights returns the vote weight of every kept estimator.
func (a *AdaBoostClassifier) EstimatorWeights() []float64 { return slices.Clone(a.estimatorWeights_) }

// EstimatorErrors returns the weighted training error of every kept estimator.
func (a *AdaBoostClassifier) EstimatorErrors() []float64 { return slices.Clone(a.estimatorErrors_) }

// Classes returns the training labels in ascending order.
func (a *AdaBoostClassifier) Classes() []float64 { return slices.Clone(a.classes_) }

// FeatureImportances returns the estimator-weighted mean of the tree importances.
func (a *AdaBoostClassifier) FeatureImportances() ([]float64, error) {
	if err := a.state.RequireFitted("AdaBoostClassifier", "FeatureImportances"); err != nil {
		return nil, err
	}
	return slices.Clone(a.importances_), nil
}

// Score returns the accuracy on (X, y).
func (a *AdaBoostClassifier) Score(X, y mat.Matrix) (float64, error) {
	return classificationScore(a, X, y)
}

// GetParams returns the hyperparameters.
func (a *AdaBoostClassifier) GetParams() map[string]interface{} { return a.adaBoostParams() }

// SetParams updates the hyperparameters and resets the fitted state.
func (a *AdaBoostClassifier) SetParams(values map[string]interface{}) error {
	if err := a.set("AdaBoostClassifier", a.adaBoostParams(), values); err != nil {
		return err
	}
	a.state.Reset()
	return nil
}

// Clone returns an unfitted copy with the same hyperparameters.
func (a *AdaBoostClassifier) Clone() model.Estimator {
	return &AdaBoostClassifier{params: a.params, state: model.NewStateManager()}
}

func (a *AdaBoostClassifier) String() string {
	return fmt.Sprintf("AdaBoostClassifier(n_estimators=%d, learning_rate=%g, max_depth=%d)",
		a.nEstimators, a.learningRate, a.maxDepth)
}
