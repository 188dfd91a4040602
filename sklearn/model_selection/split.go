// Package model_selection provides cross-validation splitters, fold-parallel
// cross-validation, grid search and learning/validation curves for any
// estimator implementing model.Model.
package model_selection

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/mlps/physlearn/pkg/errors"
	"github.com/mlps/physlearn/pkg/log"
)

// Splitter produces cross-validation folds.
type Splitter interface {
	Split(X, y mat.Matrix) ([]Fold, error)
	GetNSplits() int
}

// Fold holds the row indices of one train/test partition. Both slices are
// sorted ascending.
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

func newRand(seed int) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
}

// KFold splits rows into NSplits consecutive folds, optionally shuffled.
type KFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed int
}

// NewKFold creates a k-fold splitter. nSplits < 2 defaults to 5.
func NewKFold(nSplits int, shuffle bool, randomSeed int) *KFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &KFold{NSplits: nSplits, Shuffle: shuffle, RandomSeed: randomSeed}
}

// GetNSplits returns the number of folds.
func (kf *KFold) GetNSplits() int {
	return kf.NSplits
}

// Split returns NSplits folds. The first n % NSplits folds get one extra
// test sample.
func (kf *KFold) Split(X, _ mat.Matrix) ([]Fold, error) {
	nSamples, _ := X.Dims()
	if err := checkSplits("KFold", kf.NSplits, nSamples); err != nil {
		return nil, err
	}

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}
	if kf.Shuffle {
		r := newRand(kf.RandomSeed)
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	assignment := make([]int, nSamples)
	foldSize, remainder := nSamples/kf.NSplits, nSamples%kf.NSplits
	pos := 0
	for f := 0; f < kf.NSplits; f++ {
		size := foldSize
		if f < remainder {
			size++
		}
		for _, idx := range indices[pos : pos+size] {
			assignment[idx] = f
		}
		pos += size
	}
	return foldsFromAssignment(assignment, kf.NSplits), nil
}

// StratifiedKFold keeps each class's proportion roughly equal across folds.
type StratifiedKFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed int
}

// NewStratifiedKFold creates a stratified k-fold splitter. nSplits < 2
// defaults to 5.
func NewStratifiedKFold(nSplits int, shuffle bool, randomSeed int) *StratifiedKFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &StratifiedKFold{NSplits: nSplits, Shuffle: shuffle, RandomSeed: randomSeed}
}

// GetNSplits returns the number of folds.
func (skf *StratifiedKFold) GetNSplits() int {
	return skf.NSplits
}

// Split deals each class's samples round-robin over the folds, continuing
// from the fold where the previous class stopped, so fold sizes differ by
// at most one. Classes are visited in ascending label order.
func (skf *StratifiedKFold) Split(X, y mat.Matrix) ([]Fold, error) {
	nSamples, _ := X.Dims()
	if err := checkSplits("StratifiedKFold", skf.NSplits, nSamples); err != nil {
		return nil, err
	}
	if y == nil {
		return nil, errors.NewValueError("StratifiedKFold.Split", "y is required for stratification")
	}
	if r, _ := y.Dims(); r != nSamples {
		return nil, errors.NewDimensionError("StratifiedKFold.Split", nSamples, r, 0)
	}

	byClass := make(map[float64][]int)
	for i := 0; i < nSamples; i++ {
		label := y.At(i, 0)
		byClass[label] = append(byClass[label], i)
	}
	labels := make([]float64, 0, len(byClass))
	for l := range byClass {
		labels = append(labels, l)
	}
	sort.Float64s(labels)

	var r *rand.Rand
	if skf.Shuffle {
		r = newRand(skf.RandomSeed)
	}

	assignment := make([]int, nSamples)
	next := 0
	for _, label := range labels {
		members := byClass[label]
		if len(members) < skf.NSplits {
			log.GetLoggerWithName("model_selection").Warn("class has fewer members than n_splits",
				"label", label,
				"members", len(members),
				log.NFoldsKey, skf.NSplits,
			)
		}
		if r != nil {
			r.Shuffle(len(members), func(i, j int) {
				members[i], members[j] = members[j], members[i]
			})
		}
		for _, idx := range members {
			assignment[idx] = next
			next = (next + 1) % skf.NSplits
		}
	}
	return foldsFromAssignment(assignment, skf.NSplits), nil
}

func checkSplits(op string, nSplits, nSamples int) error {
	if nSplits < 2 {
		return errors.NewValidationError("n_splits", "must be at least 2", nSplits)
	}
	if nSplits > nSamples {
		return errors.NewValidationError("n_splits", fmt.Sprintf("%s: cannot exceed the number of samples (%d)", op, nSamples), nSplits)
	}
	return nil
}

func foldsFromAssignment(assignment []int, nSplits int) []Fold {
	folds := make([]Fold, nSplits)
	for idx, f := range assignment {
		for g := range folds {
			if g == f {
				folds[g].TestIndices = append(folds[g].TestIndices, idx)
			} else {
				folds[g].TrainIndices = append(folds[g].TrainIndices, idx)
			}
		}
	}
	return folds
}

// TrainTestSplitIndices partitions 0..n-1 into train and test index sets
// with round(testSize*n) test rows (at least one of each). With stratify
// set, each class contributes proportionally to the test set.
func TrainTestSplitIndices(n int, testSize float64, randomSeed int, stratify []float64) (train, test []int, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, errors.NewValidationError("test_size", "must be in (0, 1)", testSize)
	}
	nTest := int(math.Round(testSize * float64(n)))
	if nTest < 1 || nTest >= n {
		return nil, nil, errors.NewValidationError("test_size", fmt.Sprintf("leaves an empty train or test set for %d samples", n), testSize)
	}
	if stratify != nil && len(stratify) != n {
		return nil, nil, errors.NewDimensionError("TrainTestSplitIndices", n, len(stratify), 0)
	}

	r := newRand(randomSeed)
	isTest := make([]bool, n)
	if stratify == nil {
		for _, idx := range r.Perm(n)[:nTest] {
			isTest[idx] = true
		}
	} else {
		byClass := make(map[float64][]int)
		for i, v := range stratify {
			byClass[v] = append(byClass[v], i)
		}
		labels := make([]float64, 0, len(byClass))
		for l := range byClass {
			labels = append(labels, l)
		}
		sort.Float64s(labels)
		for _, l := range labels {
			members := byClass[l]
			r.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })
			k := int(math.Round(testSize * float64(len(members))))
			if k >= len(members) {
				k = len(members) - 1
			}
			for _, idx := range members[:k] {
				isTest[idx] = true
			}
		}
	}
	for i, t := range isTest {
		if t {
			test = append(test, i)
		} else {
			train = append(train, i)
		}
	}
	if len(test) == 0 {
		return nil, nil, errors.NewValidationError("test_size", "stratified split produced an empty test set", testSize)
	}
	return train, test, nil
}
