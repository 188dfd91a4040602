package ensemble

import (
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/mlps/physlearn/core/model"
	"github.com/mlps/physlearn/metrics"
	"github.com/mlps/physlearn/pkg/errors"
)

// GradientBoostingClassifier boosts regression trees on the log-loss. Two
// classes use one tree per stage on the log-odds of Classes()[1]; K > 2
// classes fit K trees per stage on softmax scores.
type GradientBoostingClassifier struct {
	booster
	classes_ []float64
}

// NewGradientBoostingClassifier creates a classifier with 100 stages,
// learning_rate 0.1 and depth-3 trees.
func NewGradientBoostingClassifier(opts ...Option) *GradientBoostingClassifier {
	return &GradientBoostingClassifier{booster: newBooster("GradientBoostingClassifier", opts)}
}

// Fit trains the ensemble.
func (g *GradientBoostingClassifier) Fit(X, y mat.Matrix) error {
	if err := g.validateBoosting(); err != nil {
		return err
	}
	if _, _, err := model.ValidateXY(g.name+".Fit", X, y); err != nil {
		return err
	}
	if err := errors.CheckMatrix(g.name+".Fit", X, 0); err != nil {
		return err
	}
	labels := model.Column(y, 0)
	classes := model.UniqueLabels(labels)
	if len(classes) < 2 {
		return errors.NewValueError(g.name+".Fit", "need samples of at least two classes")
	}
	index := model.LabelIndex(classes)
	enc := make([]float64, len(labels))
	for i, l := range labels {
		enc[i] = float64(index[l])
	}

	var loss lossFunction = binomialLoss{}
	if len(classes) > 2 {
		loss = multinomialLoss{nClasses: len(classes)}
	}
	if err := g.fit(X, enc, loss, labels); err != nil {
		return err
	}
	g.classes_ = classes
	return nil
}

// probabilities turns raw scores into an n×K probability matrix.
func (g *GradientBoostingClassifier) probabilities(raw []float64, n int) *mat.Dense {
	K := len(g.classes_)
	out := mat.NewDense(n, K, nil)
	if K == 2 {
		for i := 0; i < n; i++ {
			p := errors.Sigmoid(raw[i])
			out.Set(i, 0, 1-p)
			out.Set(i, 1, p)
		}
		return out
	}
	row := make([]float64, K)
	for i := 0; i < n; i++ {
		errors.Softmax(row, raw[i*K:(i+1)*K])
		out.SetRow(i, row)
	}
	return out
}

func (g *GradientBoostingClassifier) labels(raw []float64, n int, dst *mat.VecDense) {
	K := len(g.classes_)
	for i := 0; i < n; i++ {
		if K == 2 {
			if raw[i] > 0 {
				dst.SetVec(i, g.classes_[1])
			} else {
				dst.SetVec(i, g.classes_[0])
			}
			continue
		}
		row := raw[i*K : (i+1)*K]
		dst.SetVec(i, g.classes_[argmax(row)])
	}
}

func argmax(v []float64) int {
	best := 0
	for k := 1; k < len(v); k++ {
		if v[k] > v[best] {
			best = k
		}
	}
	return best
}

// DecisionFunction returns the raw scores: log-odds (n×1) for two classes,
// softmax logits (n×K) otherwise.
func (g *GradientBoostingClassifier) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	raw, err := g.finalRaw("DecisionFunction", X)
	if err != nil {
		return nil, err
	}
	n, _ := X.Dims()
	return mat.NewDense(n, len(g.init), raw), nil
}

// PredictProba returns class probabilities with columns in Classes() order.
func (g *GradientBoostingClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	raw, err := g.finalRaw("PredictProba", X)
	if err != nil {
		return nil, err
	}
	n, _ := X.Dims()
	return g.probabilities(raw, n), nil
}

// Predict returns the most probable class per row.
func (g *GradientBoostingClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	raw, err := g.finalRaw("Predict", X)
	if err != nil {
		return nil, err
	}
	n, _ := X.Dims()
	out := mat.NewVecDense(n, nil)
	g.labels(raw, n, out)
	return out, nil
}

// StagedPredict passes the predicted labels after each stage to fn.
func (g *GradientBoostingClassifier) StagedPredict(X mat.Matrix, fn func(stage int, yPred mat.Matrix) error) error {
	n, _ := X.Dims()
	out := mat.NewVecDense(max(n, 1), nil)
	return g.stagedRaw("StagedPredict", X, func(stage int, raw []float64) error {
		g.labels(raw, n, out)
		return fn(stage, out)
	})
}

// StagedPredictProba passes the class probabilities after each stage to fn.
func (g *GradientBoostingClassifier) StagedPredictProba(X mat.Matrix, fn func(stage int, proba mat.Matrix) error) error {
	n, _ := X.Dims()
	return g.stagedRaw("StagedPredictProba", X, func(stage int, raw []float64) error {
		return fn(stage, g.probabilities(raw, n))
	})
}

// Classes returns the training labels in ascending order.
func (g *GradientBoostingClassifier) Classes() []float64 { return slices.Clone(g.classes_) }

// Score returns the accuracy on (X, y).
func (g *GradientBoostingClassifier) Score(X, y mat.Matrix) (float64, error) {
	return classificationScore(g, X, y)
}

// Clone returns an unfitted copy with the same hyperparameters.
func (g *GradientBoostingClassifier) Clone() model.Estimator {
	return &GradientBoostingClassifier{booster: booster{params: g.params, state: model.NewStateManager(), name: g.name}}
}

func classificationScore(p model.Predictor, X, y mat.Matrix) (float64, error) {
	pred, err := p.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(model.ColumnVector(y), model.ColumnVector(pred))
}

func regressionScore(p model.Predictor, X, y mat.Matrix) (float64, error) {
	pred, err := p.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(model.ColumnVector(y), model.ColumnVector(pred))
}
