package tree

import (
	"gonum.org/v1/gonum/mat"

	"github.com/mlps/physlearn/core/model"
	"github.com/mlps/physlearn/core/parallel"
	"github.com/mlps/physlearn/pkg/errors"
)

// fitInput validates X, y and sampleWeight and returns X by column plus
// the weights, defaulting to one per sample.
func fitInput(op string, X, y mat.Matrix, sampleWeight []float64) (cols [][]float64, w []float64, total float64, err error) {
	n, p, err := model.ValidateXY(op, X, y)
	if err != nil {
		return nil, nil, 0, err
	}
	if err := errors.CheckMatrix(op, X, 0); err != nil {
		return nil, nil, 0, err
	}
	if sampleWeight == nil {
		w = make([]float64, n)
		for i := range w {
			w[i] = 1
		}
	} else {
		if len(sampleWeight) != n {
			return nil, nil, 0, errors.NewDimensionError(op, n, len(sampleWeight), 0)
		}
		w = sampleWeight
	}
	for _, v := range w {
		if v < 0 {
			return nil, nil, 0, errors.NewValidationError("sample_weight", "must be non-negative", v)
		}
		total += v
	}
	if total <= 0 {
		return nil, nil, 0, errors.NewValidationError("sample_weight", "must have a positive sum", total)
	}
	cols = make([][]float64, p)
	for j := range cols {
		cols[j] = model.Column(X, j)
	}
	return cols, w, total, nil
}

func (p *params) validate(criteria ...string) error {
	ok := false
	for _, c := range criteria {
		ok = ok || p.criterion == c
	}
	if !ok {
		return errors.NewValidationError("criterion", "unsupported criterion", p.criterion)
	}
	if p.maxDepth < 0 {
		return errors.NewValidationError("max_depth", "must be non-negative (0 = unlimited)", p.maxDepth)
	}
	if p.minSamplesSplit < 2 {
		return errors.NewValidationError("min_samples_split", "must be at least 2", p.minSamplesSplit)
	}
	if p.minSamplesLeaf < 1 {
		return errors.NewValidationError("min_samples_leaf", "must be at least 1", p.minSamplesLeaf)
	}
	if p.minImpurityDecrease < 0 {
		return errors.NewValidationError("min_impurity_decrease", "must be non-negative", p.minImpurityDecrease)
	}
	if p.maxFeatures < 0 {
		return errors.NewValidationError("max_features", "must be non-negative", p.maxFeatures)
	}
	return nil
}

func (p *params) set(modelName string, values map[string]interface{}) error {
	for k, v := range values {
		var err error
		switch k {
		case "criterion":
			p.criterion, err = model.ParamString(k, v)
		case "max_depth":
			p.maxDepth, err = model.ParamInt(k, v)
		case "min_samples_split":
			p.minSamplesSplit, err = model.ParamInt(k, v)
		case "min_samples_leaf":
			p.minSamplesLeaf, err = model.ParamInt(k, v)
		case "min_impurity_decrease":
			p.minImpurityDecrease, err = model.ParamFloat(k, v)
		case "max_features":
			p.maxFeatures, err = model.ParamInt(k, v)
		case "random_state":
			p.randomState, err = model.ParamInt(k, v)
		default:
			err = model.UnknownParam(modelName, k, v)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// leaves maps every row of X to its leaf, in parallel for large batches.
func leaves(nodes []node, X mat.Matrix) []int {
	r, _ := X.Dims()
	out := make([]int, r)
	parallel.ParallelizeWithThreshold(r, parallel.DefaultThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = apply(nodes, func(j int) float64 { return X.At(i, j) })
		}
	})
	return out
}
