package model

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/mlps/physlearn/pkg/errors"
)

// ValidateXY checks that X is non-empty and y is an n×1 target aligned
// with X's rows.
func ValidateXY(op string, X, y mat.Matrix) (nSamples, nFeatures int, err error) {
	if X == nil || y == nil {
		return 0, 0, errors.NewModelError(op, "nil input", errors.ErrEmptyData)
	}
	nSamples, nFeatures = X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return 0, 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	yRows, yCols := y.Dims()
	if yCols != 1 {
		return 0, 0, errors.NewDimensionError(op, 1, yCols, 1)
	}
	if yRows != nSamples {
		return 0, 0, errors.NewDimensionError(op, nSamples, yRows, 0)
	}
	return nSamples, nFeatures, nil
}

// ValidateX checks that X is non-empty.
func ValidateX(op string, X mat.Matrix) (nSamples, nFeatures int, err error) {
	if X == nil {
		return 0, 0, errors.NewModelError(op, "nil input", errors.ErrEmptyData)
	}
	nSamples, nFeatures = X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return 0, 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	return nSamples, nFeatures, nil
}

// Column copies column j of m.
func Column(m mat.Matrix, j int) []float64 {
	r, _ := m.Dims()
	out := make([]float64, r)
	if d, ok := m.(*mat.Dense); ok {
		mat.Col(out, j, d)
		return out
	}
	for i := range out {
		out[i] = m.At(i, j)
	}
	return out
}

// ColumnVector returns the first column of m as a vector.
func ColumnVector(m mat.Matrix) *mat.VecDense {
	if v, ok := m.(*mat.VecDense); ok {
		return v
	}
	return mat.NewVecDense(len(Column(m, 0)), Column(m, 0))
}

// VecFromMatrix copies an n×1 matrix into a vector.
func VecFromMatrix(op string, m mat.Matrix) (*mat.VecDense, error) {
	if _, _, err := ValidateX(op, m); err != nil {
		return nil, err
	}
	if _, c := m.Dims(); c != 1 {
		return nil, errors.NewValueError(op, "must be a column vector (n×1 matrix)")
	}
	return ColumnVector(m), nil
}

// UniqueLabels returns the distinct values of y in ascending order.
func UniqueLabels(y []float64) []float64 {
	seen := make(map[float64]struct{}, 8)
	var labels []float64
	for _, v := range y {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			labels = append(labels, v)
		}
	}
	sort.Float64s(labels)
	return labels
}

// LabelIndex maps each class label to its position in classes.
func LabelIndex(classes []float64) map[float64]int {
	idx := make(map[float64]int, len(classes))
	for i, c := range classes {
		idx[c] = i
	}
	return idx
}

// SelectRows copies the rows of X at the given indices.
func SelectRows(X mat.Matrix, indices []int) *mat.Dense {
	_, c := X.Dims()
	if len(indices) == 0 || c == 0 {
		return &mat.Dense{}
	}
	out := mat.NewDense(len(indices), c, nil)
	src, isDense := X.(*mat.Dense)
	for i, idx := range indices {
		if isDense {
			out.SetRow(i, src.RawRowView(idx))
			continue
		}
		for j := 0; j < c; j++ {
			out.Set(i, j, X.At(idx, j))
		}
	}
	return out
}

// SelectValues copies y[indices].
func SelectValues(y []float64, indices []int) []float64 {
	out := make([]float64, len(indices))
	for i, idx := range indices {
		out[i] = y[idx]
	}
	return out
}

// Clone builds an unfitted copy of m through its parameters. It is the
// usual body of an estimator's Clone method.
func Clone[T interface {
	ParamGetter
	ParamSetter
}](m T, fresh T) T {
	// parameters produced by GetParams are always accepted by SetParams
	_ = fresh.SetParams(m.GetParams())
	return fresh
}

// CloneModel clones m and checks that the copy is itself a Model.
func CloneModel(m Model) (Model, error) {
	c, ok := m.Clone().(Model)
	if !ok {
		return nil, errors.NewModelError("Clone", "clone does not implement Model", errors.ErrNotImplemented)
	}
	return c, nil
}
