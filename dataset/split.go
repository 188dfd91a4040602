package dataset

import (
	"github.com/mlps/physlearn/sklearn/model_selection"
)

// TrainTestSplit partitions the rows into a training and a held-out set.
// With stratify set, each target class keeps its proportion in both parts.
// The split depends only on seed.
func (d *Dataset) TrainTestSplit(testFraction float64, seed int, stratify bool) (train, test *Dataset, err error) {
	var labels []float64
	if stratify {
		labels = d.Targets()
	}
	trainIdx, testIdx, err := model_selection.TrainTestSplitIndices(d.NRows(), testFraction, seed, labels)
	if err != nil {
		return nil, nil, err
	}
	if train, err = d.Subset(trainIdx); err != nil {
		return nil, nil, err
	}
	if test, err = d.Subset(testIdx); err != nil {
		return nil, nil, err
	}
	return train, test, nil
}
