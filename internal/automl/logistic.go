package automl

import (
	"fmt"
	"math"
	"math/rand"
)

// LogisticRegression trains one-vs-rest binary models with mini-batch
// gradient descent.
type LogisticRegression struct {
	Classes      int
	Epochs       int
	LearningRate float64
	Seed         int64
	// Weights[k] holds [bias, w1..wn] for class k's one-vs-rest model.
	Weights [][]float64
}

func NewLogisticRegression(numClasses int) *LogisticRegression {
	return &LogisticRegression{
		Classes:      numClasses,
		Epochs:       200,
		LearningRate: 0.1,
		Seed:         1,
	}
}

func (l *LogisticRegression) Name() string { return "Logistic Regression" }

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func (l *LogisticRegression) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return fmt.Errorf("empty training data")
	}
	n := len(X[0])
	rng := rand.New(rand.NewSource(l.Seed))

	l.Weights = make([][]float64, l.Classes)
	for k := 0; k < l.Classes; k++ {
		w := make([]float64, n+1)
		scale := math.Sqrt(2.0 / float64(n+1))
		for i := range w {
			w[i] = rng.NormFloat64() * scale
		}

		for epoch := 0; epoch < l.Epochs; epoch++ {
			grad := make([]float64, n+1)
			for i, row := range X {
				target := 0.0
				if int(y[i]) == k {
					target = 1.0
				}
				diff := sigmoid(score(w, row)) - target
				grad[0] += diff
				for j, v := range row {
					grad[j+1] += diff * v
				}
			}
			step := l.LearningRate / float64(len(X))
			for j := range w {
				w[j] -= step * grad[j]
			}
		}
		l.Weights[k] = w
	}
	return nil
}

func score(w []float64, row []float64) float64 {
	s := w[0]
	for j, v := range row {
		s += w[j+1] * v
	}
	return s
}

func (l *LogisticRegression) PredictProba(X [][]float64) ([][]float64, error) {
	if l.Weights == nil {
		return nil, fmt.Errorf("logistic regression not fitted")
	}
	out := make([][]float64, len(X))
	for i, row := range X {
		probs := make([]float64, l.Classes)
		sum := 0.0
		for k, w := range l.Weights {
			probs[k] = sigmoid(score(w, row))
			sum += probs[k]
		}
		if sum > 0 {
			for k := range probs {
				probs[k] /= sum
			}
		}
		out[i] = probs
	}
	return out, nil
}

func (l *LogisticRegression) Predict(X [][]float64) ([]float64, error) {
	probs, err := l.PredictProba(X)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(X))
	for i, p := range probs {
		out[i] = float64(argmax(p))
	}
	return out, nil
}

func (l *LogisticRegression) NumClasses() int { return l.Classes }

func (l *LogisticRegression) ParamGrid() []Params {
	return []Params{
		{"learning_rate": 0.01},
		{"learning_rate": 0.1},
		{"learning_rate": 0.5},
	}
}

func (l *LogisticRegression) WithParams(p Params) Estimator {
	clone := NewLogisticRegression(l.Classes)
	clone.Epochs = l.Epochs
	clone.Seed = l.Seed
	if v, ok := p["learning_rate"]; ok {
		clone.LearningRate = v
	}
	return clone
}

// FeatureImportances averages absolute coefficients across the one-vs-rest
// models.
func (l *LogisticRegression) FeatureImportances() []float64 {
	if l.Weights == nil || len(l.Weights[0]) < 2 {
		return nil
	}
	out := make([]float64, len(l.Weights[0])-1)
	for _, w := range l.Weights {
		for j := 1; j < len(w); j++ {
			out[j-1] += math.Abs(w[j])
		}
	}
	return normalize(out)
}
