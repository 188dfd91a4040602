package tree

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/mlps/physlearn/core/model"
	"github.com/mlps/physlearn/metrics"
)

// DecisionTreeClassifier is a CART classifier splitting on gini or entropy.
type DecisionTreeClassifier struct {
	params
	state *model.StateManager

	classes_            []float64
	nClasses_           int
	nodes               []node
	featureImportances_ []float64
}

// NewDecisionTreeClassifier creates a gini tree with no depth limit,
// min_samples_split = 2 and min_samples_leaf = 1.
func NewDecisionTreeClassifier(opts ...Option) *DecisionTreeClassifier {
	dt := &DecisionTreeClassifier{params: defaultParams("gini"), state: model.NewStateManager()}
	for _, o := range opts {
		o(&dt.params)
	}
	return dt
}

// Fit grows the tree with unit sample weights.
func (dt *DecisionTreeClassifier) Fit(X, y mat.Matrix) error {
	return dt.FitWeighted(X, y, nil)
}

// FitWeighted grows the tree with the given non-negative sample weights.
// Class distributions in the leaves are weight-proportional.
func (dt *DecisionTreeClassifier) FitWeighted(X, y mat.Matrix, sampleWeight []float64) error {
	if err := dt.validate("gini", "entropy"); err != nil {
		return err
	}
	cols, w, total, err := fitInput("DecisionTreeClassifier.Fit", X, y, sampleWeight)
	if err != nil {
		return err
	}
	labels := model.Column(y, 0)
	dt.classes_ = model.UniqueLabels(labels)
	dt.nClasses_ = len(dt.classes_)
	index := model.LabelIndex(dt.classes_)
	yIdx := make([]int, len(labels))
	for i, l := range labels {
		yIdx[i] = index[l]
	}

	crit := newClassCriterion(yIdx, w, dt.nClasses_, dt.criterion == "entropy")
	b := newBuilder(dt.params, cols, crit, total)
	samples := make([]int, 0, len(labels))
	for i := range labels {
		if w[i] > 0 {
			samples = append(samples, i)
		}
	}
	b.build(samples, 0)

	dt.nodes = b.nodes
	dt.featureImportances_ = normalizedImportances(b.importances)
	dt.state.SetDimensions(len(cols), len(labels))
	dt.state.SetFitted()
	return nil
}

func (dt *DecisionTreeClassifier) check(method string, X mat.Matrix) error {
	if err := dt.state.RequireFitted("DecisionTreeClassifier", method); err != nil {
		return err
	}
	if _, _, err := model.ValidateX("DecisionTreeClassifier."+method, X); err != nil {
		return err
	}
	return dt.state.CheckFeatures("DecisionTreeClassifier."+method, X)
}

// PredictProba returns the class distribution of the leaf each row falls in.
// Columns follow Classes().
func (dt *DecisionTreeClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.check("PredictProba", X); err != nil {
		return nil, err
	}
	ids := leaves(dt.nodes, X)
	out := mat.NewDense(len(ids), dt.nClasses_, nil)
	for i, id := range ids {
		out.SetRow(i, dt.nodes[id].value)
	}
	return out, nil
}

// Predict returns the most probable class per row; ties go to the smaller label.
func (dt *DecisionTreeClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.check("Predict", X); err != nil {
		return nil, err
	}
	ids := leaves(dt.nodes, X)
	out := mat.NewVecDense(len(ids), nil)
	for i, id := range ids {
		out.SetVec(i, dt.classes_[argmax(dt.nodes[id].value)])
	}
	return out, nil
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

// Score returns the accuracy on (X, y).
func (dt *DecisionTreeClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := dt.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(model.ColumnVector(y), model.ColumnVector(pred))
}

// Classes returns the labels seen in Fit in ascending order.
func (dt *DecisionTreeClassifier) Classes() []float64 {
	return append([]float64(nil), dt.classes_...)
}

// FeatureImportances returns the normalized total impurity decrease per feature.
func (dt *DecisionTreeClassifier) FeatureImportances() ([]float64, error) {
	if err := dt.state.RequireFitted("DecisionTreeClassifier", "FeatureImportances"); err != nil {
		return nil, err
	}
	return append([]float64(nil), dt.featureImportances_...), nil
}

// GetFeatureImportances is FeatureImportances without the error; nil before Fit.
func (dt *DecisionTreeClassifier) GetFeatureImportances() []float64 {
	imp, _ := dt.FeatureImportances()
	return imp
}

// GetDepth returns the depth of the deepest leaf; a single leaf has depth 0.
func (dt *DecisionTreeClassifier) GetDepth() int { return treeDepth(dt.nodes) }

// GetNLeaves returns the number of leaves.
func (dt *DecisionTreeClassifier) GetNLeaves() int { return leafCount(dt.nodes) }

// GetParams returns the hyperparameters.
func (dt *DecisionTreeClassifier) GetParams() map[string]interface{} { return dt.get() }

// SetParams updates the hyperparameters and resets the fitted state.
func (dt *DecisionTreeClassifier) SetParams(params map[string]interface{}) error {
	if err := dt.set("DecisionTreeClassifier", params); err != nil {
		return err
	}
	dt.state.Reset()
	return nil
}

// Clone returns an unfitted copy with the same hyperparameters.
func (dt *DecisionTreeClassifier) Clone() model.Estimator {
	return &DecisionTreeClassifier{params: dt.params, state: model.NewStateManager()}
}

func (dt *DecisionTreeClassifier) String() string {
	return fmt.Sprintf("DecisionTreeClassifier(criterion=%s, max_depth=%d, min_samples_leaf=%d)",
		dt.criterion, dt.maxDepth, dt.minSamplesLeaf)
}

