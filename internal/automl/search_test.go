package automl

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theblitlabs/automl-studio/internal/models"
)

// separableClassification builds two well-separated clusters.
func separableClassification(n int, seed int64) (X [][]float64, y []float64) {
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < n; i++ {
		class := float64(i % 2)
		center := class*10 - 5
		X = append(X, []float64{center + rng.NormFloat64(), center + rng.NormFloat64()})
		y = append(y, class)
	}
	return X, y
}

// noisyLinear builds y = 3x1 - 2x2 + 1 with small noise.
func noisyLinear(n int, seed int64) (X [][]float64, y []float64) {
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < n; i++ {
		x1 := rng.Float64() * 10
		x2 := rng.Float64() * 10
		X = append(X, []float64{x1, x2})
		y = append(y, 3*x1-2*x2+1+rng.NormFloat64()*0.01)
	}
	return X, y
}

func TestCompareClassification(t *testing.T) {
	X, y := separableClassification(120, 3)

	best, rows, err := Compare(X, y, models.BranchClassification, 2, 42)
	require.NoError(t, err)
	require.NotNil(t, best)
	require.NotEmpty(t, rows)

	// leaderboard is sorted best-first by accuracy
	for i := 1; i < len(rows); i++ {
		assert.GreaterOrEqual(t, rows[i-1].Scores["Accuracy"], rows[i].Scores["Accuracy"])
	}
	for _, row := range rows {
		assert.Contains(t, row.Scores, "Accuracy")
		assert.Contains(t, row.Scores, "F1")
		assert.Contains(t, row.Scores, "Prec.")
		assert.Contains(t, row.Scores, "Recall")
	}

	// clusters this separated should score near-perfectly
	assert.Greater(t, rows[0].Scores["Accuracy"], 0.95)

	pred, err := best.Predict(X)
	require.NoError(t, err)
	assert.Greater(t, Accuracy(y, pred), 0.95)
}

func TestCompareRegression(t *testing.T) {
	X, y := noisyLinear(120, 5)

	best, rows, err := Compare(X, y, models.BranchRegression, 0, 42)
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	for i := 1; i < len(rows); i++ {
		assert.LessOrEqual(t, rows[i-1].Scores["RMSE"], rows[i].Scores["RMSE"])
	}
	for _, row := range rows {
		assert.Contains(t, row.Scores, "RMSE")
		assert.Contains(t, row.Scores, "MAE")
		assert.Contains(t, row.Scores, "MSE")
		assert.Contains(t, row.Scores, "R2")
	}

	// an almost-noiseless linear target is easy for the linear family
	assert.Equal(t, "Linear Regression", rows[0].Model)
	assert.Less(t, rows[0].Scores["RMSE"], 0.1)

	pred, err := best.Predict(X)
	require.NoError(t, err)
	assert.Less(t, RMSE(y, pred), 0.1)
}

func TestCompareDeterministicWithSeed(t *testing.T) {
	X, y := separableClassification(60, 9)

	_, first, err := Compare(X, y, models.BranchClassification, 2, 7)
	require.NoError(t, err)
	_, second, err := Compare(X, y, models.BranchClassification, 2, 7)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Model, second[i].Model)
		assert.InDelta(t, first[i].Scores["Accuracy"], second[i].Scores["Accuracy"], 1e-12)
	}
}

func TestCompareTooFewRows(t *testing.T) {
	_, _, err := Compare([][]float64{{1}}, []float64{0}, models.BranchRegression, 0, 1)
	assert.Error(t, err)
}

func TestTuneEmptyGrid(t *testing.T) {
	X, y := noisyLinear(40, 2)
	est := NewLinearRegression()
	require.NoError(t, est.Fit(X, y))

	_, err := Tune(est, X, y, models.BranchRegression, 0, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyParamGrid))
}

func TestTuneDecisionTree(t *testing.T) {
	X, y := separableClassification(100, 4)

	tuned, err := Tune(NewDecisionTree(2), X, y, models.BranchClassification, 2, 21)
	require.NoError(t, err)

	pred, err := tuned.Predict(X)
	require.NoError(t, err)
	assert.Greater(t, Accuracy(y, pred), 0.9)
}

func TestHoldoutSplitCoversAllRows(t *testing.T) {
	trainIdx, validIdx := holdoutSplit(10, 3)
	assert.Len(t, trainIdx, 8)
	assert.Len(t, validIdx, 2)

	seen := make(map[int]bool)
	for _, i := range append(trainIdx, validIdx...) {
		assert.False(t, seen[i])
		seen[i] = true
	}
	assert.Len(t, seen, 10)
}
