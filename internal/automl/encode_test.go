package automl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theblitlabs/automl-studio/internal/dataset"
)

func tableFromCSV(t *testing.T, csvData string) *dataset.Table {
	t.Helper()
	table, err := dataset.ReadCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	return table
}

func TestFitEncoderClassification(t *testing.T) {
	table := tableFromCSV(t, "age,city,label\n30,Paris,yes\n25,London,no\n40,Paris,yes\n")

	enc, err := FitEncoder(table, "label", true)
	require.NoError(t, err)

	assert.Equal(t, "label", enc.TargetColumn)
	assert.Equal(t, []string{"yes", "no"}, enc.Classes)
	assert.Equal(t, []string{"age", "city=Paris", "city=London"}, enc.FeatureNames())
	assert.Equal(t, []string{"age", "city"}, enc.SourceFeatureNames())
}

func TestFitEncoderSingleClassFails(t *testing.T) {
	table := tableFromCSV(t, "x,label\n1,yes\n2,yes\n")
	_, err := FitEncoder(table, "label", true)
	assert.Error(t, err)
}

func TestEncoderTransform(t *testing.T) {
	table := tableFromCSV(t, "age,city,label\n30,Paris,yes\n25,London,no\n")
	enc, err := FitEncoder(table, "label", true)
	require.NoError(t, err)

	X, err := enc.Transform(table)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{
		{30, 1, 0},
		{25, 0, 1},
	}, X)

	y, err := enc.TargetVector(table)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, y)
}

func TestEncoderUnseenCategoryEncodesAsZeroBlock(t *testing.T) {
	train := tableFromCSV(t, "city,label\nParis,yes\nLondon,no\n")
	enc, err := FitEncoder(train, "label", true)
	require.NoError(t, err)

	scoring := tableFromCSV(t, "city,label\nBerlin,yes\n")
	X, err := enc.Transform(scoring)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0, 0}}, X)
}

func TestEncoderRegressionTarget(t *testing.T) {
	table := tableFromCSV(t, "x,price\n1,100\n2,200\n")
	enc, err := FitEncoder(table, "price", false)
	require.NoError(t, err)

	assert.Empty(t, enc.Classes)
	y, err := enc.TargetVector(table)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 200}, y)
}

func TestEncoderClassLabelRoundTrip(t *testing.T) {
	table := tableFromCSV(t, "x,label\n1,cat\n2,dog\n3,cat\n")
	enc, err := FitEncoder(table, "label", true)
	require.NoError(t, err)

	assert.Equal(t, "cat", enc.ClassLabel(0))
	assert.Equal(t, "dog", enc.ClassLabel(1))
	assert.Equal(t, "", enc.ClassLabel(5))
}
