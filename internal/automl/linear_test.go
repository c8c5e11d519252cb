package automl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearRegressionFit(t *testing.T) {
	X, y := noisyLinear(100, 11)

	lr := NewLinearRegression()
	require.NoError(t, lr.Fit(X, y))

	assert.InDelta(t, 1.0, lr.Intercept, 0.1)
	assert.InDelta(t, 3.0, lr.Weights[0], 0.05)
	assert.InDelta(t, -2.0, lr.Weights[1], 0.05)
}

func TestLinearRegressionCollinearFeatures(t *testing.T) {
	var X [][]float64
	var y []float64
	for i := 0; i < 30; i++ {
		x1 := float64(i)
		X = append(X, []float64{x1, x1 + 1})
		y = append(y, 2*x1+3)
	}

	lr := NewLinearRegression()
	require.NoError(t, lr.Fit(X, y))

	preds, err := lr.Predict(X)
	require.NoError(t, err)
	for i, p := range preds {
		assert.InDelta(t, y[i], p, 0.1, "row %d", i)
	}
}

func TestLinearRegressionPredictUnfitted(t *testing.T) {
	lr := NewLinearRegression()
	_, err := lr.Predict([][]float64{{1, 2}})
	assert.Error(t, err)
}
