package automl

import "errors"

// ErrEmptyParamGrid is returned by Tune when an estimator exposes no
// hyperparameters to search over.
var ErrEmptyParamGrid = errors.New("empty parameter grid")

// Params is one point in an estimator's hyperparameter space.
type Params map[string]float64

// Estimator is a trainable model. Classification estimators predict class
// indices as float64; regression estimators predict raw values.
type Estimator interface {
	Name() string
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) ([]float64, error)

	// ParamGrid enumerates tuning candidates. An empty grid means the
	// estimator has nothing to tune.
	ParamGrid() []Params

	// WithParams returns a fresh, unfitted copy with the given
	// hyperparameters applied.
	WithParams(p Params) Estimator

	// FeatureImportances returns per-feature scores, or nil when the
	// estimator has no native notion of importance.
	FeatureImportances() []float64
}

// Classifier is implemented by estimators that expose class probabilities.
type Classifier interface {
	Estimator
	PredictProba(X [][]float64) ([][]float64, error)
	NumClasses() int
}

func argmax(vals []float64) int {
	best := 0
	for i, v := range vals {
		if v > vals[best] {
			best = i
		}
	}
	return best
}
