package automl

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/theblitlabs/automl-studio/internal/models"
)

// candidateFamilies returns fresh estimators for the branch, ordered the way
// the leaderboard should list them when scores tie.
func candidateFamilies(branch models.Branch, numClasses int) []Estimator {
	if branch == models.BranchClassification {
		return []Estimator{
			NewLogisticRegression(numClasses),
			NewDecisionTree(numClasses),
			NewRandomForest(numClasses),
			NewXGBoost(numClasses),
			NewLightGBM(numClasses),
		}
	}
	return []Estimator{
		NewLinearRegression(),
		NewRandomForest(0),
		NewXGBoost(0),
		NewLightGBM(0),
		NewCatBoost(0),
	}
}

// holdoutSplit shuffles row indices with the given seed and carves off the
// last 20% as a validation set.
func holdoutSplit(n int, seed int64) (trainIdx, validIdx []int) {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	cut := n - n/5
	if cut < 1 {
		cut = 1
	}
	if cut >= n && n > 1 {
		cut = n - 1
	}
	return idx[:cut], idx[cut:]
}

func subset(X [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	xs := make([][]float64, len(idx))
	ys := make([]float64, len(idx))
	for i, j := range idx {
		xs[i] = X[j]
		ys[i] = y[j]
	}
	return xs, ys
}

// scoreClassifier evaluates a fitted classifier on the holdout and returns
// the leaderboard score row.
func scoreClassifier(est Estimator, Xv [][]float64, yv []float64, numClasses int) map[string]float64 {
	pred, _ := est.Predict(Xv)
	precision, recall, f1 := WeightedPRF(yv, pred, numClasses)
	scores := map[string]float64{
		"Accuracy": Accuracy(yv, pred),
		"Recall":   recall,
		"Prec.":    precision,
		"F1":       f1,
	}
	if clf, ok := est.(Classifier); ok {
		probs, err := clf.PredictProba(Xv)
		if err == nil {
			scores["AUC"] = AUC(yv, probs, numClasses)
		}
	}
	return scores
}

func scoreRegressor(est Estimator, Xv [][]float64, yv []float64) map[string]float64 {
	pred, _ := est.Predict(Xv)
	return map[string]float64{
		"RMSE": RMSE(yv, pred),
		"MAE":  MAE(yv, pred),
		"MSE":  MSE(yv, pred),
		"R2":   R2(yv, pred),
	}
}

// Compare fits every candidate family for the branch on an 80/20 holdout
// split, scores each on the validation rows and returns the winner refit on
// the full data together with a best-first leaderboard. Classification is
// ranked by Accuracy descending, regression by RMSE ascending; ties keep the
// candidate order, so reruns with the same seed produce identical
// leaderboards.
func Compare(X [][]float64, y []float64, branch models.Branch, numClasses int, seed int64) (Estimator, []models.MetricsRow, error) {
	if len(X) < 2 {
		return nil, nil, fmt.Errorf("need at least 2 rows to compare models, got %d", len(X))
	}
	trainIdx, validIdx := holdoutSplit(len(X), seed)
	Xt, yt := subset(X, y, trainIdx)
	Xv, yv := subset(X, y, validIdx)

	type scored struct {
		est    Estimator
		row    models.MetricsRow
		rank   float64
		order  int
		failed bool
	}
	classification := branch == models.BranchClassification

	var results []scored
	for i, est := range candidateFamilies(branch, numClasses) {
		if err := est.Fit(Xt, yt); err != nil {
			continue
		}
		var scores map[string]float64
		if classification {
			scores = scoreClassifier(est, Xv, yv, numClasses)
		} else {
			scores = scoreRegressor(est, Xv, yv)
		}
		rank := scores["Accuracy"]
		if !classification {
			rank = scores["RMSE"]
		}
		if rankNaN(rank) {
			continue
		}
		results = append(results, scored{
			est:   est,
			row:   models.MetricsRow{Model: est.Name(), Scores: scores},
			rank:  rank,
			order: i,
		})
	}
	if len(results) == 0 {
		return nil, nil, fmt.Errorf("no candidate model could be fitted")
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].rank != results[j].rank {
			if classification {
				return results[i].rank > results[j].rank
			}
			return results[i].rank < results[j].rank
		}
		return results[i].order < results[j].order
	})

	rows := make([]models.MetricsRow, len(results))
	for i, r := range results {
		rows[i] = r.row
	}

	best := results[0].est
	if err := best.Fit(X, y); err != nil {
		return nil, nil, fmt.Errorf("refitting %s on full data: %w", best.Name(), err)
	}
	return best, rows, nil
}

func rankNaN(v float64) bool {
	return v != v
}
