package automl

import (
	"fmt"

	"github.com/theblitlabs/automl-studio/internal/models"
)

// Tune grid-searches the estimator's hyperparameter space on an 80/20
// holdout split of the training data and returns the best configuration
// refit on the full data. Estimators that expose no grid return an error
// wrapping ErrEmptyParamGrid so callers can fall back to the untuned model.
func Tune(est Estimator, X [][]float64, y []float64, branch models.Branch, numClasses int, seed int64) (Estimator, error) {
	grid := est.ParamGrid()
	if len(grid) == 0 {
		return nil, fmt.Errorf("tuning %s: %w", est.Name(), ErrEmptyParamGrid)
	}
	if len(X) < 2 {
		return nil, fmt.Errorf("need at least 2 rows to tune, got %d", len(X))
	}

	trainIdx, validIdx := holdoutSplit(len(X), seed)
	Xt, yt := subset(X, y, trainIdx)
	Xv, yv := subset(X, y, validIdx)

	classification := branch == models.BranchClassification

	var best Estimator
	var bestScore float64
	found := false
	for _, p := range grid {
		cand := est.WithParams(p)
		if err := cand.Fit(Xt, yt); err != nil {
			continue
		}
		pred, err := cand.Predict(Xv)
		if err != nil {
			continue
		}
		var score float64
		if classification {
			score = Accuracy(yv, pred)
		} else {
			score = RMSE(yv, pred)
		}
		if rankNaN(score) {
			continue
		}
		better := score > bestScore
		if !classification {
			better = score < bestScore
		}
		if !found || better {
			best = cand
			bestScore = score
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("tuning %s: no grid point could be fitted", est.Name())
	}
	if err := best.Fit(X, y); err != nil {
		return nil, fmt.Errorf("refitting tuned %s: %w", best.Name(), err)
	}
	return best, nil
}
