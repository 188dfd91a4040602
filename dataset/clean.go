package dataset

import (
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/mlps/physlearn/core/model"
	"github.com/mlps/physlearn/pkg/errors"
	"github.com/mlps/physlearn/pkg/log"
)

// DefaultZThreshold is the z-score beyond which a row is an outlier.
const DefaultZThreshold = 3.0

// ImputeStrategy selects how missing feature values are filled.
type ImputeStrategy string

const (
	// ImputeDrop removes rows with any missing value.
	ImputeDrop ImputeStrategy = "drop"
	// ImputeMean fills with the column mean of observed values.
	ImputeMean ImputeStrategy = "mean"
	// ImputeMedian fills with the column median of observed values.
	ImputeMedian ImputeStrategy = "median"
)

// MissingCount is the number of missing values in one column.
type MissingCount struct {
	Column string
	Count  int
	Ratio  float64
}

// MissingReport counts NaNs per feature column, followed by the target.
func (d *Dataset) MissingReport() []MissingCount {
	n := d.NRows()
	report := make([]MissingCount, 0, len(d.Features)+1)
	for j, name := range d.Features {
		c := 0
		for i := 0; i < n; i++ {
			if math.IsNaN(d.X.At(i, j)) {
				c++
			}
		}
		report = append(report, MissingCount{Column: name, Count: c, Ratio: ratio(c, n)})
	}
	c := 0
	for i := 0; i < n; i++ {
		if math.IsNaN(d.Y.AtVec(i)) {
			c++
		}
	}
	return append(report, MissingCount{Column: d.Target, Count: c, Ratio: ratio(c, n)})
}

// HasMissing reports whether any value in X or Y is NaN.
func (d *Dataset) HasMissing() bool {
	for _, m := range d.MissingReport() {
		if m.Count > 0 {
			return true
		}
	}
	return false
}

func ratio(c, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(c) / float64(n)
}

// DropNA removes rows with a NaN in any feature or in the target.
func (d *Dataset) DropNA() (*Dataset, error) {
	n, p := d.NRows(), d.NFeatures()
	keep := make([]int, 0, n)
	for i := 0; i < n; i++ {
		ok := !math.IsNaN(d.Y.AtVec(i))
		for j := 0; ok && j < p; j++ {
			ok = !math.IsNaN(d.X.At(i, j))
		}
		if ok {
			keep = append(keep, i)
		}
	}
	return d.keepRows("DropNA", keep)
}

// Impute fills missing feature values using strategy. Rows whose target is
// missing are always dropped. ImputeDrop is equivalent to DropNA.
func (d *Dataset) Impute(strategy ImputeStrategy) (*Dataset, error) {
	if strategy == ImputeDrop {
		return d.DropNA()
	}
	if strategy != ImputeMean && strategy != ImputeMedian {
		return nil, errors.NewValidationError("missing", "must be drop, mean or median", string(strategy))
	}

	n := d.NRows()
	keep := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if !math.IsNaN(d.Y.AtVec(i)) {
			keep = append(keep, i)
		}
	}
	out, err := d.keepRows("Impute", keep)
	if err != nil {
		return nil, err
	}

	rows := out.NRows()
	for j, name := range out.Features {
		col := model.Column(out.X, j)
		observed := make([]float64, 0, rows)
		for _, v := range col {
			if !math.IsNaN(v) {
				observed = append(observed, v)
			}
		}
		if len(observed) == rows {
			continue
		}
		if len(observed) == 0 {
			return nil, errors.NewDataError("Impute", name, -1, "column has no observed values")
		}
		var fill float64
		if strategy == ImputeMean {
			fill = stat.Mean(observed, nil)
		} else {
			sort.Float64s(observed)
			fill = median(observed)
		}
		for i, v := range col {
			if math.IsNaN(v) {
				out.X.Set(i, j, fill)
			}
		}
	}
	return out, nil
}

// median of sorted values, averaging the middle pair for even lengths.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// DropColumnsAbove removes feature columns whose missing ratio exceeds
// maxRatio. It returns the dropped column names.
func (d *Dataset) DropColumnsAbove(maxRatio float64) (*Dataset, []string, error) {
	if maxRatio < 0 || maxRatio > 1 {
		return nil, nil, errors.NewValidationError("drop_column_ratio", "must be in [0, 1]", maxRatio)
	}
	var dropped []string
	for _, m := range d.MissingReport()[:d.NFeatures()] {
		if m.Ratio > maxRatio {
			dropped = append(dropped, m.Column)
		}
	}
	if len(dropped) == 0 {
		return d, nil, nil
	}
	out, err := d.Drop(dropped...)
	if err != nil {
		return nil, nil, err
	}
	return out, dropped, nil
}

// ZScoreFilter removes rows where any feature's z-score, and the target's
// when includeTarget is set, exceeds threshold in absolute value. Z-scores
// use the column mean and population standard deviation over all rows;
// constant columns never reject. It returns the filtered dataset and the
// source Index values of the removed rows. The data must have no missing
// values.
func (d *Dataset) ZScoreFilter(threshold float64, includeTarget bool) (*Dataset, []int, error) {
	if threshold <= 0 || math.IsNaN(threshold) {
		return nil, nil, errors.NewValidationError("zscore_threshold", "must be positive", threshold)
	}
	if d.HasMissing() {
		return nil, nil, errors.NewDataError("ZScoreFilter", "", -1, "missing values present; impute or drop them first")
	}

	n, p := d.NRows(), d.NFeatures()
	outlier := make([]bool, n)
	mark := func(col []float64) {
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 {
			return
		}
		for i, v := range col {
			if math.Abs((v-mean)/std) > threshold {
				outlier[i] = true
			}
		}
	}
	for j := 0; j < p; j++ {
		mark(model.Column(d.X, j))
	}
	if includeTarget {
		mark(d.Targets())
	}

	keep := make([]int, 0, n)
	var removed []int
	for i, bad := range outlier {
		if bad {
			removed = append(removed, d.Index[i])
			continue
		}
		keep = append(keep, i)
	}
	out, err := d.keepRows("ZScoreFilter", keep)
	if err != nil {
		return nil, nil, err
	}
	log.GetLoggerWithName("dataset").Debug("z-score filter applied",
		log.RemovedKey, len(removed),
		log.SamplesKey, out.NRows(),
		"threshold", threshold,
	)
	return out, removed, nil
}

// ZScores returns the population z-score of every feature value. Constant
// columns score 0.
func (d *Dataset) ZScores() *mat.Dense {
	n, p := d.NRows(), d.NFeatures()
	z := mat.NewDense(n, p, nil)
	for j := 0; j < p; j++ {
		col := model.Column(d.X, j)
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 {
			continue
		}
		for i, v := range col {
			z.Set(i, j, (v-mean)/std)
		}
	}
	return z
}

func (d *Dataset) keepRows(op string, keep []int) (*Dataset, error) {
	if len(keep) == 0 {
		return nil, errors.NewDataError(op, "", -1, "no rows left")
	}
	if len(keep) == d.NRows() {
		return &Dataset{
			Features: slices.Clone(d.Features),
			Target:   d.Target,
			X:        mat.DenseCopyOf(d.X),
			Y:        mat.VecDenseCopyOf(d.Y),
			Index:    slices.Clone(d.Index),
			Classes:  slices.Clone(d.Classes),
		}, nil
	}
	return d.Subset(keep)
}
