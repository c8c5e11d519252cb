package automl

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// LinearRegression fits ordinary least squares with an intercept term.
type LinearRegression struct {
	Intercept float64
	Weights   []float64
}

func NewLinearRegression() *LinearRegression { return &LinearRegression{} }

func (l *LinearRegression) Name() string { return "Linear Regression" }

func (l *LinearRegression) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return fmt.Errorf("empty training data")
	}
	rows, cols := len(X), len(X[0])

	a := mat.NewDense(rows, cols+1, nil)
	for i, row := range X {
		a.Set(i, 0, 1)
		for j, v := range row {
			a.Set(i, j+1, v)
		}
	}
	b := mat.NewVecDense(rows, append([]float64(nil), y...))

	var sol mat.Dense
	if err := sol.Solve(a, b); err != nil {
		// collinear features leave the design matrix near-singular;
		// retry with a lightly regularized normal-equations solve
		if rerr := ridgeSolve(&sol, a, b); rerr != nil {
			return fmt.Errorf("least squares solve failed: %w", err)
		}
	}

	l.Intercept = sol.At(0, 0)
	l.Weights = make([]float64, cols)
	for j := 0; j < cols; j++ {
		l.Weights[j] = sol.At(j+1, 0)
	}
	return nil
}

func ridgeSolve(sol *mat.Dense, a *mat.Dense, b *mat.VecDense) error {
	_, n := a.Dims()
	var ata mat.Dense
	ata.Mul(a.T(), a)
	for i := 0; i < n; i++ {
		ata.Set(i, i, ata.At(i, i)+1e-6)
	}
	var atb mat.Dense
	atb.Mul(a.T(), b)
	return sol.Solve(&ata, &atb)
}

func (l *LinearRegression) Predict(X [][]float64) ([]float64, error) {
	if l.Weights == nil {
		return nil, fmt.Errorf("linear regression not fitted")
	}
	out := make([]float64, len(X))
	for i, row := range X {
		pred := l.Intercept
		for j, v := range row {
			if j < len(l.Weights) {
				pred += v * l.Weights[j]
			}
		}
		out[i] = pred
	}
	return out, nil
}

// ParamGrid is empty: OLS has no hyperparameters, which exercises the
// tuning fallback path.
func (l *LinearRegression) ParamGrid() []Params { return nil }

func (l *LinearRegression) WithParams(Params) Estimator { return NewLinearRegression() }

// FeatureImportances reports absolute coefficient magnitudes.
func (l *LinearRegression) FeatureImportances() []float64 {
	if l.Weights == nil {
		return nil
	}
	out := make([]float64, len(l.Weights))
	for i, w := range l.Weights {
		out[i] = math.Abs(w)
	}
	return normalize(out)
}
