package visualization

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theblitlabs/automl-studio/internal/automl"
	"github.com/theblitlabs/automl-studio/internal/dataset"
	"github.com/theblitlabs/automl-studio/internal/models"
)

func classificationInput(t *testing.T) Input {
	t.Helper()
	csvData := "f1,f2,label\n" +
		"1,10,yes\n2,11,yes\n3,12,yes\n4,13,yes\n5,14,yes\n" +
		"50,60,no\n51,61,no\n52,62,no\n53,63,no\n54,64,no\n"
	table, err := dataset.ReadCSV(strings.NewReader(csvData))
	require.NoError(t, err)

	enc, err := automl.FitEncoder(table, "label", true)
	require.NoError(t, err)
	X, err := enc.Transform(table)
	require.NoError(t, err)
	y, err := enc.TargetVector(table)
	require.NoError(t, err)

	est := automl.NewDecisionTree(2)
	require.NoError(t, est.Fit(X, y))
	preds, err := est.Predict(X)
	require.NoError(t, err)

	return Input{
		Estimator:   est,
		Encoder:     enc,
		Family:      models.BranchClassification,
		Table:       table,
		X:           X,
		Predictions: preds,
		Actuals:     y,
		HasActuals:  true,
	}
}

func regressionInput(t *testing.T) Input {
	t.Helper()
	var b strings.Builder
	b.WriteString("x1,x2,target\n")
	rows := []string{
		"1,2,10", "2,3,14", "3,4,18", "4,5,22", "5,6,26",
		"6,7,30", "7,8,34", "8,9,38", "9,10,42", "10,11,46",
	}
	b.WriteString(strings.Join(rows, "\n") + "\n")
	table, err := dataset.ReadCSV(strings.NewReader(b.String()))
	require.NoError(t, err)

	enc, err := automl.FitEncoder(table, "target", false)
	require.NoError(t, err)
	X, err := enc.Transform(table)
	require.NoError(t, err)
	y, err := enc.TargetVector(table)
	require.NoError(t, err)

	est := automl.NewLinearRegression()
	require.NoError(t, est.Fit(X, y))
	preds, err := est.Predict(X)
	require.NoError(t, err)

	return Input{
		Estimator:   est,
		Encoder:     enc,
		Family:      models.BranchRegression,
		Table:       table,
		X:           X,
		Predictions: preds,
		Actuals:     y,
		HasActuals:  true,
	}
}

func TestBuildClassificationCatalog(t *testing.T) {
	report := Build(classificationInput(t))

	for _, name := range []string{
		"feature_importance",
		"prediction_distribution",
		"correlation_heatmap",
		"confusion_matrix",
		"roc_curve",
		"classification_metrics",
	} {
		chart, ok := report.Charts[name]
		require.True(t, ok, name)
		assert.Empty(t, chart.Error, name)
	}

	cm := report.Charts["confusion_matrix"]
	assert.Equal(t, "heatmap", cm.Type)
	assert.Equal(t, []string{"yes", "no"}, cm.Labels)
	require.Len(t, cm.Series, 1)
	assert.Len(t, cm.Series[0].Z, 2)

	roc := report.Charts["roc_curve"]
	assert.Equal(t, "line", roc.Type)
	require.Len(t, roc.Series, 1)
	assert.Contains(t, roc.Series[0].Name, "AUC")
}

func TestBuildRegressionCatalog(t *testing.T) {
	report := Build(regressionInput(t))

	for _, name := range []string{
		"feature_importance",
		"prediction_distribution",
		"correlation_heatmap",
		"residual_plot",
		"regression_metrics",
	} {
		chart, ok := report.Charts[name]
		require.True(t, ok, name)
		assert.Empty(t, chart.Error, name)
	}

	metrics := report.Charts["regression_metrics"]
	require.Len(t, metrics.Series, 1)
	assert.Equal(t, []string{"R2", "RMSE", "MAE", "MSE"}, metrics.Series[0].X)

	residuals := report.Charts["residual_plot"]
	assert.Equal(t, "scatter", residuals.Type)
}

func TestChartFailuresAreIsolated(t *testing.T) {
	in := classificationInput(t)
	// actuals no longer line up with predictions
	in.Actuals = in.Actuals[:3]

	report := Build(in)

	// charts that depend on actuals fail individually
	for _, name := range []string{"confusion_matrix", "classification_metrics"} {
		chart := report.Charts[name]
		assert.NotEmpty(t, chart.Error, name)
		assert.Empty(t, chart.Series, name)
	}

	// the rest of the catalog still renders
	for _, name := range []string{"feature_importance", "prediction_distribution", "correlation_heatmap"} {
		chart := report.Charts[name]
		assert.Empty(t, chart.Error, name)
	}
}

func TestBuildWithoutActuals(t *testing.T) {
	in := regressionInput(t)
	in.Actuals = nil
	in.HasActuals = false

	report := Build(in)

	assert.NotEmpty(t, report.Charts["residual_plot"].Error)
	assert.NotEmpty(t, report.Charts["regression_metrics"].Error)
	assert.Empty(t, report.Charts["feature_importance"].Error)
	assert.Empty(t, report.Charts["prediction_distribution"].Error)
}

func TestCorrelationHeatmapNeedsTwoNumericColumns(t *testing.T) {
	table, err := dataset.ReadCSV(strings.NewReader("x,label\n1,a\n2,b\n"))
	require.NoError(t, err)

	spec, err := correlationHeatmap(table)
	require.Error(t, err)
	assert.Empty(t, spec.Series)
}

func TestBuildChartTypeFilter(t *testing.T) {
	in := classificationInput(t)
	in.ChartTypes = []string{"feature_importance", "roc_curve"}

	report := Build(in)

	require.Len(t, report.Charts, 2)
	assert.Empty(t, report.Charts["feature_importance"].Error)
	assert.Empty(t, report.Charts["roc_curve"].Error)
}
