// Package dataset holds a tabular dataset as a numeric feature matrix plus
// a target column, and the cleaning steps applied to it before fitting:
// missing-value handling, z-score outlier rejection and class-balance
// checks.
//
// Every operation returns a new Dataset. Rows of X, Y and Index always stay
// aligned: removing a row removes it from all three.
package dataset

import (
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/mlps/physlearn/core/model"
	"github.com/mlps/physlearn/pkg/errors"
)

// Dataset is a feature matrix with an aligned target.
type Dataset struct {
	// Features names the columns of X.
	Features []string
	// Target names the target column.
	Target string

	X *mat.Dense
	Y *mat.VecDense

	// Index[i] is the 0-based data row in the source file that row i came from.
	Index []int

	// Classes holds the original string labels when the target was
	// label-encoded; Y then stores positions into Classes. Empty for
	// numeric targets.
	Classes []string
}

// New builds a Dataset from in-memory values. Index defaults to 0..n-1.
func New(features []string, target string, X *mat.Dense, y *mat.VecDense) (*Dataset, error) {
	d := &Dataset{Features: features, Target: target, X: X, Y: y}
	if X != nil {
		r, _ := X.Dims()
		d.Index = make([]int, r)
		for i := range d.Index {
			d.Index[i] = i
		}
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// NRows returns the number of samples.
func (d *Dataset) NRows() int {
	if d.X == nil {
		return 0
	}
	r, _ := d.X.Dims()
	return r
}

// NFeatures returns the number of feature columns.
func (d *Dataset) NFeatures() int {
	return len(d.Features)
}

// Validate checks the alignment invariant between X, Y, Index and Features.
func (d *Dataset) Validate() error {
	if d.X == nil || d.Y == nil {
		return errors.NewModelError("Dataset.Validate", "empty dataset", errors.ErrEmptyData)
	}
	r, c := d.X.Dims()
	if r == 0 {
		return errors.NewModelError("Dataset.Validate", "empty dataset", errors.ErrEmptyData)
	}
	if c != len(d.Features) {
		return errors.NewDimensionError("Dataset.Validate", len(d.Features), c, 1)
	}
	if d.Y.Len() != r {
		return errors.NewDimensionError("Dataset.Validate", r, d.Y.Len(), 0)
	}
	if len(d.Index) != r {
		return errors.NewDimensionError("Dataset.Validate", r, len(d.Index), 0)
	}
	return nil
}

// YMatrix returns Y as an n×1 matrix sharing Y's storage.
func (d *Dataset) YMatrix() mat.Matrix {
	return d.Y
}

// Targets copies Y into a slice.
func (d *Dataset) Targets() []float64 {
	out := make([]float64, d.Y.Len())
	for i := range out {
		out[i] = d.Y.AtVec(i)
	}
	return out
}

// ClassName returns the display label for an encoded class value.
func (d *Dataset) ClassName(v float64) string {
	i := int(v)
	if len(d.Classes) > 0 && float64(i) == v && i >= 0 && i < len(d.Classes) {
		return d.Classes[i]
	}
	return formatLabel(v)
}

// Subset returns the rows at indices, in that order.
func (d *Dataset) Subset(indices []int) (*Dataset, error) {
	n := d.NRows()
	for _, idx := range indices {
		if idx < 0 || idx >= n {
			return nil, errors.NewValueError("Dataset.Subset", "row index out of range")
		}
	}
	if len(indices) == 0 {
		return nil, errors.NewDataError("Dataset.Subset", "", -1, "subset selects no rows")
	}
	y := model.SelectValues(d.Targets(), indices)
	out := &Dataset{
		Features: slices.Clone(d.Features),
		Target:   d.Target,
		X:        model.SelectRows(d.X, indices),
		Y:        mat.NewVecDense(len(y), y),
		Index:    make([]int, len(indices)),
		Classes:  slices.Clone(d.Classes),
	}
	for i, idx := range indices {
		out.Index[i] = d.Index[idx]
	}
	return out, nil
}

// Select keeps only the named feature columns, in the given order.
func (d *Dataset) Select(features []string) (*Dataset, error) {
	cols := make([]int, len(features))
	for i, f := range features {
		j := slices.Index(d.Features, f)
		if j < 0 {
			return nil, errors.NewDataError("Dataset.Select", f, -1, "no such feature")
		}
		cols[i] = j
	}
	return d.keepColumns(cols), nil
}

// Drop removes the named feature columns.
func (d *Dataset) Drop(features ...string) (*Dataset, error) {
	var keep []int
	for j, f := range d.Features {
		if !slices.Contains(features, f) {
			keep = append(keep, j)
		}
	}
	for _, f := range features {
		if !slices.Contains(d.Features, f) {
			return nil, errors.NewDataError("Dataset.Drop", f, -1, "no such feature")
		}
	}
	if len(keep) == 0 {
		return nil, errors.NewDataError("Dataset.Drop", "", -1, "no feature columns left")
	}
	return d.keepColumns(keep), nil
}

func (d *Dataset) keepColumns(cols []int) *Dataset {
	n := d.NRows()
	x := mat.NewDense(n, len(cols), nil)
	names := make([]string, len(cols))
	for k, j := range cols {
		names[k] = d.Features[j]
		for i := 0; i < n; i++ {
			x.Set(i, k, d.X.At(i, j))
		}
	}
	return &Dataset{
		Features: names,
		Target:   d.Target,
		X:        x,
		Y:        mat.VecDenseCopyOf(d.Y),
		Index:    slices.Clone(d.Index),
		Classes:  slices.Clone(d.Classes),
	}
}

// Column copies the named feature column.
func (d *Dataset) Column(name string) ([]float64, error) {
	j := slices.Index(d.Features, name)
	if j < 0 {
		return nil, errors.NewDataError("Dataset.Column", name, -1, "no such feature")
	}
	return model.Column(d.X, j), nil
}
