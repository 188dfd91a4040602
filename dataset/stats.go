package dataset

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/mlps/physlearn/core/model"
	"github.com/mlps/physlearn/pkg/errors"
)

// ClassCount is the support of one class.
type ClassCount struct {
	Label    float64
	Name     string
	Count    int
	Fraction float64
}

// ClassBalance counts samples per target class in ascending label order.
func (d *Dataset) ClassBalance() []ClassCount {
	counts := make(map[float64]int)
	for _, v := range d.Targets() {
		counts[v]++
	}
	labels := make([]float64, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	sort.Float64s(labels)

	n := d.NRows()
	out := make([]ClassCount, len(labels))
	for i, l := range labels {
		out[i] = ClassCount{Label: l, Name: d.ClassName(l), Count: counts[l], Fraction: ratio(counts[l], n)}
	}
	return out
}

// CheckBalance emits a ClassImbalanceWarning when the smallest class is
// less than minRatio times the largest. It returns the observed ratio.
func (d *Dataset) CheckBalance(minRatio float64) (float64, bool) {
	balance := d.ClassBalance()
	if len(balance) < 2 {
		return 1, false
	}
	minority, majority := balance[0], balance[0]
	for _, c := range balance[1:] {
		if c.Count < minority.Count {
			minority = c
		}
		if c.Count > majority.Count {
			majority = c
		}
	}
	r := float64(minority.Count) / float64(majority.Count)
	if r < minRatio {
		errors.Warn(errors.NewClassImbalanceWarning(minority.Name, majority.Name, r, minRatio))
		return r, true
	}
	return r, false
}

// IsImbalanced reports whether the minority/majority class ratio is below
// minRatio, emitting the same warning as CheckBalance.
func (d *Dataset) IsImbalanced(minRatio float64) bool {
	_, imbalanced := d.CheckBalance(minRatio)
	return imbalanced
}

// ColumnSummary holds descriptive statistics of one column. Missing values
// are excluded; Std is the sample standard deviation.
type ColumnSummary struct {
	Column  string
	Count   int
	Missing int
	Mean    float64
	Std     float64
	Min     float64
	Q25     float64
	Median  float64
	Q75     float64
	Max     float64
}

// Describe summarizes every feature column followed by the target.
func (d *Dataset) Describe() []ColumnSummary {
	out := make([]ColumnSummary, 0, d.NFeatures()+1)
	for j, name := range d.Features {
		out = append(out, summarize(name, model.Column(d.X, j)))
	}
	return append(out, summarize(d.Target, d.Targets()))
}

func summarize(name string, col []float64) ColumnSummary {
	s := ColumnSummary{Column: name}
	observed := make([]float64, 0, len(col))
	for _, v := range col {
		if math.IsNaN(v) {
			s.Missing++
			continue
		}
		observed = append(observed, v)
	}
	s.Count = len(observed)
	if s.Count == 0 {
		nan := math.NaN()
		s.Mean, s.Std, s.Min, s.Q25, s.Median, s.Q75, s.Max = nan, nan, nan, nan, nan, nan, nan
		return s
	}
	sort.Float64s(observed)
	s.Mean = stat.Mean(observed, nil)
	s.Std = math.NaN()
	if s.Count > 1 {
		s.Std = stat.StdDev(observed, nil)
	}
	s.Min = observed[0]
	s.Max = observed[s.Count-1]
	s.Q25 = quantile(0.25, observed)
	s.Median = quantile(0.5, observed)
	s.Q75 = quantile(0.75, observed)
	return s
}

// quantile interpolates linearly between order statistics, matching the
// usual (n-1)p definition.
func quantile(p float64, sorted []float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	h := p * float64(n-1)
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// Correlations returns the Pearson correlation of each feature with the
// target. Constant columns yield NaN.
func (d *Dataset) Correlations() map[string]float64 {
	y := d.Targets()
	out := make(map[string]float64, d.NFeatures())
	for j, name := range d.Features {
		out[name] = stat.Correlation(model.Column(d.X, j), y, nil)
	}
	return out
}
