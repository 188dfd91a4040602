package model_selection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLearningCurve(t *testing.T) {
	X, y := line(40)
	res, err := LearningCurve(context.Background(), &slopeModel{slope: 2}, X, y, []float64{0.25, 0.5, 1.0, 30}, NewKFold(4, true, 2), "r2")
	require.NoError(t, err)

	assert.Equal(t, []int{7, 15, 30}, res.TrainSizes)
	require.Len(t, res.TestScores, 3)
	for _, row := range res.TestScores {
		assert.Len(t, row, 4)
	}
	assert.Len(t, res.TestMean(), 3)
	assert.Len(t, res.TrainStd(), 3)

	_, err = LearningCurve(context.Background(), &slopeModel{}, X, y, []float64{31}, NewKFold(4, false, 0), "r2")
	assert.Error(t, err)
	_, err = LearningCurve(context.Background(), &slopeModel{}, X, y, nil, NewKFold(4, false, 0), "r2")
	assert.Error(t, err)
}

func TestValidationCurve(t *testing.T) {
	X, y := line(40)
	values := []interface{}{0.0, 2.0, 4.0}
	res, err := ValidationCurve(context.Background(), &slopeModel{}, "slope", values, X, y, NewKFold(5, true, 3), "r2")
	require.NoError(t, err)

	assert.Equal(t, "slope", res.Param)
	means := res.TestMean()
	require.Len(t, means, 3)
	assert.Greater(t, means[1], means[0])
	assert.Greater(t, means[1], means[2])

	_, err = ValidationCurve(context.Background(), &slopeModel{}, "slope", nil, X, y, NewKFold(5, false, 0), "r2")
	assert.Error(t, err)
}
