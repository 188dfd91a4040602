package tree

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/mlps/physlearn/core/model"
	"github.com/mlps/physlearn/metrics"
	"github.com/mlps/physlearn/pkg/errors"
)

// DecisionTreeRegressor is a CART regressor minimizing the weighted squared error.
type DecisionTreeRegressor struct {
	params
	state *model.StateManager

	nodes               []node
	featureImportances_ []float64
}

// NewDecisionTreeRegressor creates a squared_error tree with no depth limit.
func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	dt := &DecisionTreeRegressor{params: defaultParams("squared_error"), state: model.NewStateManager()}
	for _, o := range opts {
		o(&dt.params)
	}
	return dt
}

// Fit grows the tree with unit sample weights.
func (dt *DecisionTreeRegressor) Fit(X, y mat.Matrix) error {
	return dt.FitWeighted(X, y, nil)
}

// FitWeighted grows the tree with the given non-negative sample weights.
func (dt *DecisionTreeRegressor) FitWeighted(X, y mat.Matrix, sampleWeight []float64) error {
	if err := dt.validate("squared_error"); err != nil {
		return err
	}
	cols, w, total, err := fitInput("DecisionTreeRegressor.Fit", X, y, sampleWeight)
	if err != nil {
		return err
	}
	target := model.Column(y, 0)
	if err := errors.CheckValues("DecisionTreeRegressor.Fit", target, 0); err != nil {
		return err
	}

	b := newBuilder(dt.params, cols, newMSECriterion(target, w), total)
	samples := make([]int, 0, len(target))
	for i := range target {
		if w[i] > 0 {
			samples = append(samples, i)
		}
	}
	b.build(samples, 0)

	dt.nodes = b.nodes
	dt.featureImportances_ = normalizedImportances(b.importances)
	dt.state.SetDimensions(len(cols), len(target))
	dt.state.SetFitted()
	return nil
}

func (dt *DecisionTreeRegressor) check(method string, X mat.Matrix) error {
	if err := dt.state.RequireFitted("DecisionTreeRegressor", method); err != nil {
		return err
	}
	if _, _, err := model.ValidateX("DecisionTreeRegressor."+method, X); err != nil {
		return err
	}
	return dt.state.CheckFeatures("DecisionTreeRegressor."+method, X)
}

// Apply returns the leaf id each row of X falls in.
func (dt *DecisionTreeRegressor) Apply(X mat.Matrix) ([]int, error) {
	if err := dt.check("Apply", X); err != nil {
		return nil, err
	}
	return leaves(dt.nodes, X), nil
}

// Predict returns the leaf value for each row.
func (dt *DecisionTreeRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	ids, err := dt.Apply(X)
	if err != nil {
		return nil, err
	}
	out := mat.NewVecDense(len(ids), nil)
	for i, id := range ids {
		out.SetVec(i, dt.nodes[id].value[0])
	}
	return out, nil
}

// Score returns R² on (X, y).
func (dt *DecisionTreeRegressor) Score(X, y mat.Matrix) (float64, error) {
	pred, err := dt.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(model.ColumnVector(y), model.ColumnVector(pred))
}

// LeafIDs returns the ids of every leaf in node order.
func (dt *DecisionTreeRegressor) LeafIDs() []int {
	var ids []int
	for i := range dt.nodes {
		if dt.nodes[i].isLeaf() {
			ids = append(ids, i)
		}
	}
	return ids
}

func (dt *DecisionTreeRegressor) leaf(id int) (*node, error) {
	if id < 0 || id >= len(dt.nodes) || !dt.nodes[id].isLeaf() {
		return nil, errors.NewValidationError("leaf", "not a leaf id of this tree", id)
	}
	return &dt.nodes[id], nil
}

// LeafValue returns the output of leaf id.
func (dt *DecisionTreeRegressor) LeafValue(id int) (float64, error) {
	n, err := dt.leaf(id)
	if err != nil {
		return 0, err
	}
	return n.value[0], nil
}

// SetLeafValue overwrites the output of leaf id.
func (dt *DecisionTreeRegressor) SetLeafValue(id int, v float64) error {
	n, err := dt.leaf(id)
	if err != nil {
		return err
	}
	n.value[0] = v
	return nil
}

// FeatureImportances returns the normalized total impurity decrease per feature.
func (dt *DecisionTreeRegressor) FeatureImportances() ([]float64, error) {
	if err := dt.state.RequireFitted("DecisionTreeRegressor", "FeatureImportances"); err != nil {
		return nil, err
	}
	return append([]float64(nil), dt.featureImportances_...), nil
}

// GetDepth returns the depth of the deepest leaf.
func (dt *DecisionTreeRegressor) GetDepth() int { return treeDepth(dt.nodes) }

// GetNLeaves returns the number of leaves.
func (dt *DecisionTreeRegressor) GetNLeaves() int { return leafCount(dt.nodes) }

// GetParams returns the hyperparameters.
func (dt *DecisionTreeRegressor) GetParams() map[string]interface{} { return dt.get() }

// SetParams updates the hyperparameters and resets the fitted state.
func (dt *DecisionTreeRegressor) SetParams(params map[string]interface{}) error {
	if err := dt.set("DecisionTreeRegressor", params); err != nil {
		return err
	}
	dt.state.Reset()
	return nil
}

// Clone returns an unfitted copy with the same hyperparameters.
func (dt *DecisionTreeRegressor) Clone() model.Estimator {
	return &DecisionTreeRegressor{params: dt.params, state: model.NewStateManager()}
}

func (dt *DecisionTreeRegressor) String() string {
	return fmt.Sprintf("DecisionTreeRegressor(max_depth=%d, min_samples_leaf=%d)", dt.maxDepth, dt.minSamplesLeaf)
}
