package metrics

import (
	"slices"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/mlps/physlearn/core/model"
	"github.com/mlps/physlearn/pkg/errors"
)

// Scorer evaluates a fitted estimator on held-out data. Every scorer is
// oriented so that greater is better; error metrics are negated and carry
// a "neg_" prefix.
type Scorer struct {
	Name string

	// Threshold reports whether the metric needs continuous scores rather
	// than hard labels (roc_auc).
	Threshold bool

	metric func(yTrue, yPred *mat.VecDense) (float64, error)
	sign   float64
}

var scorers = map[string]Scorer{
	"accuracy":                    {Name: "accuracy", metric: Accuracy, sign: 1},
	"error":                       {Name: "error", metric: ClassificationError, sign: -1},
	"precision":                   {Name: "precision", metric: Precision, sign: 1},
	"recall":                      {Name: "recall", metric: Recall, sign: 1},
	"f1":                          {Name: "f1", metric: F1Score, sign: 1},
	"roc_auc":                     {Name: "roc_auc", metric: AUC, sign: 1, Threshold: true},
	"r2":                          {Name: "r2", metric: R2Score, sign: 1},
	"explained_variance":          {Name: "explained_variance", metric: ExplainedVarianceScore, sign: 1},
	"neg_mean_squared_error":      {Name: "neg_mean_squared_error", metric: MSE, sign: -1},
	"neg_root_mean_squared_error": {Name: "neg_root_mean_squared_error", metric: RMSE, sign: -1},
	"neg_mean_absolute_error":     {Name: "neg_mean_absolute_error", metric: MAE, sign: -1},
}

// GetScorer looks a scorer up by name.
func GetScorer(name string) (Scorer, error) {
	s, ok := scorers[name]
	if !ok {
		return Scorer{}, errors.NewValidationError("scoring", "unknown scorer; see ScorerNames()", name)
	}
	return s, nil
}

// ScorerNames lists the registered scorers in sorted order.
func ScorerNames() []string {
	names := make([]string, 0, len(scorers))
	for n := range scorers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefaultScoring returns "accuracy" for classification and "r2" for regression.
func DefaultScoring(classification bool) string {
	if classification {
		return "accuracy"
	}
	return "r2"
}

// ScorePredictions scores n×1 predictions against n×1 targets.
func (s Scorer) ScorePredictions(yTrue, yPred mat.Matrix) (float64, error) {
	yt, yp, err := columnPair(s.Name, yTrue, yPred, false)
	if err != nil {
		return 0, err
	}
	v, err := s.metric(yt, yp)
	if err != nil {
		return 0, err
	}
	return s.sign * v, nil
}

// Score predicts X with est and scores the result against y. Threshold
// scorers use the positive-class probability or decision value when the
// estimator provides one.
func (s Scorer) Score(est model.Predictor, X, y mat.Matrix) (float64, error) {
	if s.Threshold {
		if scores, ok, err := positiveScores(est, X); err != nil {
			return 0, err
		} else if ok {
			return s.ScorePredictions(y, scores)
		}
	}
	yPred, err := est.Predict(X)
	if err != nil {
		return 0, err
	}
	return s.ScorePredictions(y, yPred)
}

// positiveScores returns a continuous score for label 1.
func positiveScores(est model.Predictor, X mat.Matrix) (mat.Matrix, bool, error) {
	if clf, ok := est.(model.Classifier); ok && len(clf.Classes()) > 0 {
		j := slices.Index(clf.Classes(), 1)
		if j < 0 {
			return nil, false, nil
		}
		proba, err := clf.PredictProba(X)
		if err != nil {
			return nil, false, err
		}
		col := model.Column(proba, j)
		return mat.NewVecDense(len(col), col), true, nil
	}
	if df, ok := est.(model.DecisionFunctioner); ok {
		d, err := df.DecisionFunction(X)
		if errors.Is(err, errors.ErrNotImplemented) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		if _, c := d.Dims(); c == 1 {
			return d, true, nil
		}
	}
	return nil, false, nil
}
