package visualization

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"github.com/theblitlabs/automl-studio/internal/automl"
	"github.com/theblitlabs/automl-studio/internal/dataset"
	"github.com/theblitlabs/automl-studio/internal/models"
)

// Report is the full chart catalog for one prediction run. Every chart is
// attempted independently; a failure in one shows up as that chart's Error
// field while the rest still render.
type Report struct {
	Charts map[string]models.ChartSpec `json:"charts"`

	only map[string]bool
}

// Input carries everything the chart builders need for one run.
type Input struct {
	Estimator    automl.Estimator
	Encoder      *automl.Encoder
	Family       models.Branch
	Table        *dataset.Table
	X            [][]float64
	Predictions  []float64
	Actuals      []float64
	HasActuals   bool
	MetricsRows  []models.MetricsRow
	EstimatorTag string

	// ChartTypes narrows the catalog to the named charts. Empty means
	// every chart for the branch.
	ChartTypes []string
}

// Build assembles the chart catalog for the branch.
func Build(in Input) *Report {
	r := &Report{Charts: make(map[string]models.ChartSpec)}
	if len(in.ChartTypes) > 0 {
		r.only = make(map[string]bool, len(in.ChartTypes))
		for _, name := range in.ChartTypes {
			r.only[name] = true
		}
	}

	r.add("feature_importance", func() (models.ChartSpec, error) { return featureImportance(in) })
	r.add("prediction_distribution", func() (models.ChartSpec, error) { return predictionDistribution(in) })
	r.add("correlation_heatmap", func() (models.ChartSpec, error) { return correlationHeatmap(in.Table) })

	if in.Family == models.BranchClassification {
		r.add("confusion_matrix", func() (models.ChartSpec, error) { return confusionMatrix(in) })
		r.add("roc_curve", func() (models.ChartSpec, error) { return rocCurve(in) })
		r.add("classification_metrics", func() (models.ChartSpec, error) { return classificationMetrics(in) })
	} else {
		r.add("residual_plot", func() (models.ChartSpec, error) { return residualPlot(in) })
		r.add("regression_metrics", func() (models.ChartSpec, error) { return regressionMetrics(in) })
	}

	return r
}

func (r *Report) add(name string, build func() (models.ChartSpec, error)) {
	if r.only != nil && !r.only[name] {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			r.Charts[name] = models.ChartError(fmt.Sprintf("%v", p))
		}
	}()
	spec, err := build()
	if err != nil {
		r.Charts[name] = models.ChartError(err.Error())
		return
	}
	r.Charts[name] = spec
}

// featureImportance prefers the estimator's native importances, falls back
// to permutation attribution on a sample of rows when the estimator exposes
// none.
func featureImportance(in Input) (models.ChartSpec, error) {
	if in.Encoder == nil {
		return models.ChartSpec{}, fmt.Errorf("no encoder available")
	}
	names := in.Encoder.FeatureNames()

	imp := in.Estimator.FeatureImportances()
	if len(imp) == 0 {
		var err error
		imp, err = permutationImportance(in.Estimator, in.X, in.Predictions)
		if err != nil {
			return models.ChartSpec{}, err
		}
	}
	if len(imp) != len(names) {
		return models.ChartSpec{}, fmt.Errorf("importance length %d does not match %d features", len(imp), len(names))
	}

	return models.ChartSpec{
		Type:   "bar",
		Title:  "Feature Importance",
		XLabel: "Feature",
		YLabel: "Importance",
		Series: []models.Series{{Name: "importance", X: names, Y: imp}},
	}, nil
}

// permutationImportance scores each feature by how much shuffling it moves
// the model's own predictions, on a sample of at most 200 rows.
func permutationImportance(est automl.Estimator, X [][]float64, base []float64) ([]float64, error) {
	if len(X) == 0 || len(base) != len(X) {
		return nil, fmt.Errorf("no rows to attribute")
	}
	n := len(X)
	if n > 200 {
		n = 200
	}
	width := len(X[0])
	rng := rand.New(rand.NewSource(7))

	imp := make([]float64, width)
	for col := 0; col < width; col++ {
		shuffled := make([][]float64, n)
		for i := 0; i < n; i++ {
			row := make([]float64, width)
			copy(row, X[i])
			shuffled[i] = row
		}
		perm := rng.Perm(n)
		for i := 0; i < n; i++ {
			shuffled[i][col] = X[perm[i]][col]
		}
		pred, err := est.Predict(shuffled)
		if err != nil {
			return nil, err
		}
		var delta float64
		for i := 0; i < n; i++ {
			d := pred[i] - base[i]
			if d < 0 {
				d = -d
			}
			delta += d
		}
		imp[col] = delta / float64(n)
	}

	var total float64
	for _, v := range imp {
		total += v
	}
	if total > 0 {
		for i := range imp {
			imp[i] /= total
		}
	}
	return imp, nil
}

func predictionDistribution(in Input) (models.ChartSpec, error) {
	if len(in.Predictions) == 0 {
		return models.ChartSpec{}, fmt.Errorf("no predictions to plot")
	}

	if in.Family == models.BranchClassification {
		counts := make(map[string]float64)
		var order []string
		for _, p := range in.Predictions {
			label := in.Encoder.ClassLabel(p)
			if _, seen := counts[label]; !seen {
				order = append(order, label)
			}
			counts[label]++
		}
		ys := make([]float64, len(order))
		for i, label := range order {
			ys[i] = counts[label]
		}
		return models.ChartSpec{
			Type:   "bar",
			Title:  "Prediction Distribution",
			XLabel: "Predicted Class",
			YLabel: "Count",
			Series: []models.Series{{Name: "count", X: order, Y: ys}},
		}, nil
	}

	return models.ChartSpec{
		Type:   "histogram",
		Title:  "Prediction Distribution",
		XLabel: "Predicted Value",
		YLabel: "Frequency",
		Series: []models.Series{{Name: "predictions", Y: in.Predictions}},
	}, nil
}

// correlationHeatmap computes the Pearson correlation matrix of the numeric
// columns.
func correlationHeatmap(t *dataset.Table) (models.ChartSpec, error) {
	if t == nil {
		return models.ChartSpec{}, fmt.Errorf("no dataset available")
	}
	names := t.NumericColumnNames()
	if len(names) < 2 {
		return models.ChartSpec{}, fmt.Errorf("need at least 2 numeric columns, got %d", len(names))
	}

	cols := make([][]float64, len(names))
	for i, name := range names {
		c, _ := t.Column(name)
		vals := make([]float64, 0, t.Rows())
		for row := 0; row < t.Rows(); row++ {
			if c.Missing[row] {
				vals = append(vals, 0)
			} else {
				vals = append(vals, c.Floats[row])
			}
		}
		cols[i] = vals
	}

	z := make([][]float64, len(names))
	for i := range names {
		z[i] = make([]float64, len(names))
		for j := range names {
			if i == j {
				z[i][j] = 1
				continue
			}
			r := stat.Correlation(cols[i], cols[j], nil)
			if r != r {
				r = 0
			}
			z[i][j] = r
		}
	}

	return models.ChartSpec{
		Type:   "heatmap",
		Title:  "Correlation Heatmap",
		Labels: names,
		Series: []models.Series{{Name: "correlation", Z: z}},
	}, nil
}

func confusionMatrix(in Input) (models.ChartSpec, error) {
	if !in.HasActuals {
		return models.ChartSpec{}, fmt.Errorf("no actual labels available")
	}
	if len(in.Actuals) != len(in.Predictions) {
		return models.ChartSpec{}, fmt.Errorf("actuals length %d does not match predictions length %d", len(in.Actuals), len(in.Predictions))
	}
	classes := in.Encoder.Classes
	cm := automl.ConfusionMatrix(in.Actuals, in.Predictions, len(classes))

	z := make([][]float64, len(cm))
	for i, row := range cm {
		z[i] = make([]float64, len(row))
		for j, v := range row {
			z[i][j] = float64(v)
		}
	}

	return models.ChartSpec{
		Type:   "heatmap",
		Title:  "Confusion Matrix",
		XLabel: "Predicted",
		YLabel: "Actual",
		Labels: classes,
		Series: []models.Series{{Name: "counts", Z: z}},
	}, nil
}

// rocCurve renders a single curve for binary problems and one-vs-rest curves
// per class otherwise.
func rocCurve(in Input) (models.ChartSpec, error) {
	if !in.HasActuals {
		return models.ChartSpec{}, fmt.Errorf("no actual labels available")
	}
	clf, ok := in.Estimator.(automl.Classifier)
	if !ok {
		return models.ChartSpec{}, fmt.Errorf("estimator exposes no class probabilities")
	}
	probs, err := clf.PredictProba(in.X)
	if err != nil {
		return models.ChartSpec{}, err
	}
	if len(in.Actuals) != len(probs) {
		return models.ChartSpec{}, fmt.Errorf("actuals length %d does not match probabilities length %d", len(in.Actuals), len(probs))
	}
	classes := in.Encoder.Classes

	spec := models.ChartSpec{
		Type:   "line",
		Title:  "ROC Curve",
		XLabel: "False Positive Rate",
		YLabel: "True Positive Rate",
	}

	if len(classes) == 2 {
		scores := make([]float64, len(probs))
		for i, p := range probs {
			scores[i] = p[1]
		}
		fpr, tpr, auc := automl.ROCPoints(in.Actuals, scores)
		spec.Series = []models.Series{{
			Name: fmt.Sprintf("%s (AUC = %.3f)", classes[1], auc),
			XNum: fpr,
			Y:    tpr,
		}}
		return spec, nil
	}

	for k, class := range classes {
		binary := make([]float64, len(in.Actuals))
		scores := make([]float64, len(in.Actuals))
		for i := range in.Actuals {
			if int(in.Actuals[i]) == k {
				binary[i] = 1
			}
			scores[i] = probs[i][k]
		}
		fpr, tpr, auc := automl.ROCPoints(binary, scores)
		spec.Series = append(spec.Series, models.Series{
			Name: fmt.Sprintf("%s (AUC = %.3f)", class, auc),
			XNum: fpr,
			Y:    tpr,
		})
	}
	return spec, nil
}

func residualPlot(in Input) (models.ChartSpec, error) {
	if !in.HasActuals {
		return models.ChartSpec{}, fmt.Errorf("no actual values available")
	}
	if len(in.Actuals) != len(in.Predictions) {
		return models.ChartSpec{}, fmt.Errorf("actuals length %d does not match predictions length %d", len(in.Actuals), len(in.Predictions))
	}
	residuals := make([]float64, len(in.Predictions))
	for i := range in.Predictions {
		residuals[i] = in.Actuals[i] - in.Predictions[i]
	}
	return models.ChartSpec{
		Type:   "scatter",
		Title:  "Residual Plot",
		XLabel: "Predicted Value",
		YLabel: "Residual",
		Series: []models.Series{{Name: "residuals", XNum: in.Predictions, Y: residuals}},
	}, nil
}

func classificationMetrics(in Input) (models.ChartSpec, error) {
	if !in.HasActuals {
		return models.ChartSpec{}, fmt.Errorf("no actual labels available")
	}
	if len(in.Actuals) != len(in.Predictions) {
		return models.ChartSpec{}, fmt.Errorf("actuals length %d does not match predictions length %d", len(in.Actuals), len(in.Predictions))
	}
	numClasses := len(in.Encoder.Classes)
	precision, recall, f1 := automl.WeightedPRF(in.Actuals, in.Predictions, numClasses)
	return models.ChartSpec{
		Type:   "bar",
		Title:  "Classification Metrics",
		YLabel: "Score",
		Series: []models.Series{{
			Name: "metrics",
			X:    []string{"Accuracy", "Precision", "Recall", "F1"},
			Y: []float64{
				automl.Accuracy(in.Actuals, in.Predictions),
				precision,
				recall,
				f1,
			},
		}},
	}, nil
}

func regressionMetrics(in Input) (models.ChartSpec, error) {
	if !in.HasActuals {
		return models.ChartSpec{}, fmt.Errorf("no actual values available")
	}
	if len(in.Actuals) != len(in.Predictions) {
		return models.ChartSpec{}, fmt.Errorf("actuals length %d does not match predictions length %d", len(in.Actuals), len(in.Predictions))
	}
	return models.ChartSpec{
		Type:   "bar",
		Title:  "Regression Metrics",
		YLabel: "Value",
		Series: []models.Series{{
			Name: "metrics",
			X:    []string{"R2", "RMSE", "MAE", "MSE"},
			Y: []float64{
				automl.R2(in.Actuals, in.Predictions),
				automl.RMSE(in.Actuals, in.Predictions),
				automl.MAE(in.Actuals, in.Predictions),
				automl.MSE(in.Actuals, in.Predictions),
			},
		}},
	}, nil
}
