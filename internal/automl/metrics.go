package automl

import (
	"math"
	"sort"
)

// Accuracy is the fraction of exact matches between predicted and actual
// class indices.
func Accuracy(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return 0
	}
	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue))
}

// ConfusionMatrix counts actual (rows) versus predicted (columns) classes.
func ConfusionMatrix(yTrue, yPred []float64, numClasses int) [][]int {
	cm := make([][]int, numClasses)
	for i := range cm {
		cm[i] = make([]int, numClasses)
	}
	for i := range yTrue {
		a, p := int(yTrue[i]), int(yPred[i])
		if a >= 0 && a < numClasses && p >= 0 && p < numClasses {
			cm[a][p]++
		}
	}
	return cm
}

// WeightedPRF computes support-weighted precision, recall and F1 over the
// confusion matrix.
func WeightedPRF(yTrue, yPred []float64, numClasses int) (precision, recall, f1 float64) {
	cm := ConfusionMatrix(yTrue, yPred, numClasses)
	total := float64(len(yTrue))
	if total == 0 {
		return 0, 0, 0
	}
	for k := 0; k < numClasses; k++ {
		tp := float64(cm[k][k])
		var fp, fn float64
		for j := 0; j < numClasses; j++ {
			if j != k {
				fp += float64(cm[j][k])
				fn += float64(cm[k][j])
			}
		}
		support := tp + fn
		if support == 0 {
			continue
		}
		var p, r float64
		if tp+fp > 0 {
			p = tp / (tp + fp)
		}
		if tp+fn > 0 {
			r = tp / (tp + fn)
		}
		var f float64
		if p+r > 0 {
			f = 2 * p * r / (p + r)
		}
		w := support / total
		precision += w * p
		recall += w * r
		f1 += w * f
	}
	return precision, recall, f1
}

// ROCPoints computes the ROC curve and AUC for binary scores against 0/1
// truth labels, sweeping thresholds over the observed scores.
func ROCPoints(yTrue, scores []float64) (fpr, tpr []float64, auc float64) {
	type pair struct {
		score float64
		pos   bool
	}
	pairs := make([]pair, len(yTrue))
	var totalPos, totalNeg float64
	for i := range yTrue {
		pairs[i] = pair{scores[i], yTrue[i] == 1}
		if pairs[i].pos {
			totalPos++
		} else {
			totalNeg++
		}
	}
	if totalPos == 0 || totalNeg == 0 {
		return []float64{0, 1}, []float64{0, 1}, 0.5
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].score > pairs[j].score })

	fpr = []float64{0}
	tpr = []float64{0}
	var tp, fp float64
	for i := 0; i < len(pairs); {
		j := i
		for j < len(pairs) && pairs[j].score == pairs[i].score {
			if pairs[j].pos {
				tp++
			} else {
				fp++
			}
			j++
		}
		fpr = append(fpr, fp/totalNeg)
		tpr = append(tpr, tp/totalPos)
		i = j
	}

	for i := 1; i < len(fpr); i++ {
		auc += (fpr[i] - fpr[i-1]) * (tpr[i] + tpr[i-1]) / 2
	}
	return fpr, tpr, auc
}

// AUC computes a macro one-vs-rest AUC from class probabilities. For binary
// problems this is the standard single-curve AUC of the positive class.
func AUC(yTrue []float64, probs [][]float64, numClasses int) float64 {
	if len(probs) == 0 {
		return 0
	}
	if numClasses == 2 {
		scores := make([]float64, len(probs))
		for i, p := range probs {
			scores[i] = p[1]
		}
		_, _, auc := ROCPoints(yTrue, scores)
		return auc
	}
	var sum float64
	counted := 0
	for k := 0; k < numClasses; k++ {
		binary := make([]float64, len(yTrue))
		scores := make([]float64, len(yTrue))
		hasPos, hasNeg := false, false
		for i := range yTrue {
			if int(yTrue[i]) == k {
				binary[i] = 1
				hasPos = true
			} else {
				hasNeg = true
			}
			scores[i] = probs[i][k]
		}
		if !hasPos || !hasNeg {
			continue
		}
		_, _, auc := ROCPoints(binary, scores)
		sum += auc
		counted++
	}
	if counted == 0 {
		return 0
	}
	return sum / float64(counted)
}

// MSE is the mean squared error.
func MSE(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	var ss float64
	for i := range yTrue {
		d := yTrue[i] - yPred[i]
		ss += d * d
	}
	return ss / float64(len(yTrue))
}

// RMSE is the root mean squared error.
func RMSE(yTrue, yPred []float64) float64 {
	return math.Sqrt(MSE(yTrue, yPred))
}

// MAE is the mean absolute error.
func MAE(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	var sum float64
	for i := range yTrue {
		sum += math.Abs(yTrue[i] - yPred[i])
	}
	return sum / float64(len(yTrue))
}

// R2 is the coefficient of determination.
func R2(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	m := meanOf(yTrue)
	var ssTot, ssRes float64
	for i := range yTrue {
		ssTot += (yTrue[i] - m) * (yTrue[i] - m)
		ssRes += (yTrue[i] - yPred[i]) * (yTrue[i] - yPred[i])
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}
