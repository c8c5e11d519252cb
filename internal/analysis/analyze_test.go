package analysis

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theblitlabs/automl-studio/internal/dataset"
	"github.com/theblitlabs/automl-studio/internal/models"
)

func mustTable(t *testing.T, csvData string) *dataset.Table {
	t.Helper()
	table, err := dataset.ReadCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	return table
}

func TestAnalyzeBinaryVerdict(t *testing.T) {
	table := mustTable(t, "f1,target\n1,yes\n2,no\n3,yes\n4,no\n")

	v := Analyze(table, "target", DefaultMulticlassThreshold)

	assert.Equal(t, models.ProblemTypeBinary, v.ProblemType)
	assert.Equal(t, []string{
		"Logistic Regression",
		"Decision Tree",
		"Random Forest",
		"XGBoost",
		"LightGBM",
	}, v.SuitableApproaches)
	assert.Equal(t, []string{
		"Confusion Matrix",
		"ROC Curve",
		"Feature Importance",
		"Target Distribution",
	}, v.RecommendedVisualizations)
}

func TestAnalyzeVerdictIndependentOfRowOrder(t *testing.T) {
	header := "f1,target\n"
	rows := []string{"1,yes", "2,no", "3,yes", "4,no", "5,yes", "6,no"}

	base := Analyze(mustTable(t, header+strings.Join(rows, "\n")+"\n"), "target", 20)

	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 5; trial++ {
		shuffled := append([]string{}, rows...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		v := Analyze(mustTable(t, header+strings.Join(shuffled, "\n")+"\n"), "target", 20)
		assert.Equal(t, base.ProblemType, v.ProblemType)
		assert.Equal(t, base.SuitableApproaches, v.SuitableApproaches)
	}
}

func TestAnalyzeThresholdBoundaries(t *testing.T) {
	buildTarget := func(distinct int) *dataset.Table {
		var b strings.Builder
		b.WriteString("f1,target\n")
		for i := 0; i < distinct*2; i++ {
			fmt.Fprintf(&b, "%d,class_%d\n", i, i%distinct)
		}
		return mustTable(t, b.String())
	}

	tests := []struct {
		distinct int
		want     models.ProblemType
	}{
		{2, models.ProblemTypeBinary},
		{3, models.ProblemTypeMulticlass},
		{19, models.ProblemTypeMulticlass},
		{20, models.ProblemTypeRegression},
		{25, models.ProblemTypeRegression},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("distinct=%d", tt.distinct), func(t *testing.T) {
			v := Analyze(buildTarget(tt.distinct), "target", 20)
			assert.Equal(t, tt.want, v.ProblemType)
		})
	}
}

func TestAnalyzeRegressionScenario(t *testing.T) {
	var b strings.Builder
	b.WriteString("sqft,price\n")
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, "%d,%d\n", 500+i*10, 100000+i*3137)
	}

	v := Analyze(mustTable(t, b.String()), "price", 20)

	assert.Equal(t, models.ProblemTypeRegression, v.ProblemType)
	assert.Equal(t, "Linear Regression", v.SuitableApproaches[0])
	assert.Contains(t, v.SuitableApproaches, "CatBoost")
	assert.Contains(t, v.RecommendedVisualizations, "Residual Plot")
}

func TestAnalyzeCharacteristicsAlwaysEmitted(t *testing.T) {
	table := mustTable(t, "a,b,c\n1,x,\n2,,3\n")

	v := Analyze(table, "missing_column", 20)

	assert.Equal(t, models.ProblemTypeUnknown, v.ProblemType)
	assert.Equal(t, 2, v.DataCharacteristics.NumericalColumns)
	assert.Equal(t, 1, v.DataCharacteristics.CategoricalColumns)
	assert.Equal(t, 2, v.DataCharacteristics.MissingValues)
	assert.Equal(t, 2, v.DataCharacteristics.TotalRows)
	assert.Equal(t, 3, v.DataCharacteristics.TotalColumns)
}

func TestAnalyzeFlagsABTesting(t *testing.T) {
	table := mustTable(t, "group,outcome,target\nA,1.5,yes\nB,2.5,no\n")

	v := Analyze(table, "target", 20)
	assert.Contains(t, v.SuitableApproaches, "A/B Testing")
	assert.Equal(t, "A/B Testing", v.SuitableApproaches[len(v.SuitableApproaches)-1])
}

func TestRunABTest(t *testing.T) {
	var b strings.Builder
	b.WriteString("group,outcome\n")
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, "A,%f\n", 10.0+float64(i%3)*0.1)
		fmt.Fprintf(&b, "B,%f\n", 15.0+float64(i%3)*0.1)
	}

	result := RunABTest(mustTable(t, b.String()))
	require.NotNil(t, result)

	assert.Equal(t, 20, result.GroupASize)
	assert.Equal(t, 20, result.GroupBSize)
	assert.InDelta(t, 10.1, result.GroupAMean, 0.05)
	assert.InDelta(t, 15.1, result.GroupBMean, 0.05)
	assert.Less(t, result.TStatistic, 0.0)
	assert.Less(t, result.PValue, 0.05)
	assert.True(t, result.Significant)
}

func TestRunABTestDegenerateCases(t *testing.T) {
	assert.Nil(t, RunABTest(mustTable(t, "group,outcome\nA,1\nA,2\n")))
	assert.Nil(t, RunABTest(mustTable(t, "a,b\n1,2\n")))
}
