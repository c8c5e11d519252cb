package automl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccuracy(t *testing.T) {
	assert.Equal(t, 0.75, Accuracy([]float64{0, 1, 1, 0}, []float64{0, 1, 0, 0}))
	assert.Equal(t, 0.0, Accuracy(nil, nil))
}

func TestConfusionMatrix(t *testing.T) {
	cm := ConfusionMatrix(
		[]float64{0, 0, 1, 1, 1},
		[]float64{0, 1, 1, 1, 0},
		2,
	)
	assert.Equal(t, [][]int{{1, 1}, {1, 2}}, cm)
}

func TestWeightedPRFPerfectPrediction(t *testing.T) {
	y := []float64{0, 1, 2, 0, 1, 2}
	p, r, f1 := WeightedPRF(y, y, 3)
	assert.InDelta(t, 1.0, p, 1e-9)
	assert.InDelta(t, 1.0, r, 1e-9)
	assert.InDelta(t, 1.0, f1, 1e-9)
}

func TestROCPointsPerfectSeparation(t *testing.T) {
	yTrue := []float64{1, 1, 0, 0}
	scores := []float64{0.9, 0.8, 0.2, 0.1}

	fpr, tpr, auc := ROCPoints(yTrue, scores)
	assert.InDelta(t, 1.0, auc, 1e-9)
	assert.Equal(t, 0.0, fpr[0])
	assert.Equal(t, 1.0, fpr[len(fpr)-1])
	assert.Equal(t, 1.0, tpr[len(tpr)-1])
}

func TestROCPointsRandomScoresAreChanceLevel(t *testing.T) {
	// identical scores for both classes give a diagonal curve
	_, _, auc := ROCPoints([]float64{1, 0, 1, 0}, []float64{0.5, 0.5, 0.5, 0.5})
	assert.InDelta(t, 0.5, auc, 1e-9)
}

func TestRegressionMetrics(t *testing.T) {
	yTrue := []float64{1, 2, 3, 4}
	yPred := []float64{1, 2, 3, 4}

	assert.InDelta(t, 0.0, MSE(yTrue, yPred), 1e-9)
	assert.InDelta(t, 0.0, RMSE(yTrue, yPred), 1e-9)
	assert.InDelta(t, 0.0, MAE(yTrue, yPred), 1e-9)
	assert.InDelta(t, 1.0, R2(yTrue, yPred), 1e-9)

	offset := []float64{2, 3, 4, 5}
	assert.InDelta(t, 1.0, MSE(yTrue, offset), 1e-9)
	assert.InDelta(t, 1.0, MAE(yTrue, offset), 1e-9)
	assert.InDelta(t, 0.2, R2(yTrue, offset), 1e-9)
}
