package dataset

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSVTypeInference(t *testing.T) {
	csvData := "age,city,score\n34,Paris,0.5\n28,,1.25\n,London,2\n"

	table, err := ReadCSV(strings.NewReader(csvData))
	require.NoError(t, err)

	assert.Equal(t, 3, table.Rows())
	assert.Equal(t, 3, table.NumCols())

	age, ok := table.Column("age")
	require.True(t, ok)
	assert.Equal(t, Numeric, age.Kind)
	assert.Equal(t, 34.0, age.Floats[0])
	assert.True(t, age.Missing[2])

	city, ok := table.Column("city")
	require.True(t, ok)
	assert.Equal(t, Categorical, city.Kind)
	assert.Equal(t, "Paris", city.Strings[0])
	assert.True(t, city.Missing[1])

	assert.Equal(t, map[string]string{
		"age":   "float64",
		"city":  "object",
		"score": "float64",
	}, table.Dtypes())
}

func TestReadCSVMixedColumnIsCategorical(t *testing.T) {
	csvData := "code\n12\nAB\n34\n"

	table, err := ReadCSV(strings.NewReader(csvData))
	require.NoError(t, err)

	code, ok := table.Column("code")
	require.True(t, ok)
	assert.Equal(t, Categorical, code.Kind)
	assert.Equal(t, "12", code.Strings[0])
}

func TestReadCSVRejectsDuplicateHeader(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,a\n1,2\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDataFormat))
}

func TestReadCSVRejectsRaggedRows(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,b\n1,2\n3\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDataFormat))
}

func TestColumnMedian(t *testing.T) {
	tests := []struct {
		name    string
		values  []float64
		missing []bool
		want    float64
		ok      bool
	}{
		{
			name:    "odd count",
			values:  []float64{3, 1, 2},
			missing: []bool{false, false, false},
			want:    2,
			ok:      true,
		},
		{
			name:    "even count interpolates",
			values:  []float64{1, 2, 3, 10},
			missing: []bool{false, false, false, false},
			want:    2.5,
			ok:      true,
		},
		{
			name:    "skips missing cells",
			values:  []float64{5, 0, 1},
			missing: []bool{false, true, false},
			want:    3,
			ok:      true,
		},
		{
			name:    "all missing",
			values:  []float64{0, 0},
			missing: []bool{true, true},
			ok:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col := Column{Kind: Numeric, Floats: tt.values, Missing: tt.missing}
			got, ok := col.Median()
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestColumnModeFirstEncounteredWinsTies(t *testing.T) {
	col := Column{
		Kind:    Categorical,
		Strings: []string{"red", "blue", "red", "blue"},
		Missing: []bool{false, false, false, false},
	}
	mode, ok := col.Mode()
	require.True(t, ok)
	assert.Equal(t, "red", mode)
}

func TestDuplicateRowsAndDrop(t *testing.T) {
	csvData := "a,b\n1,x\n1,x\n2,y\n"
	table, err := ReadCSV(strings.NewReader(csvData))
	require.NoError(t, err)

	assert.Equal(t, 1, table.DuplicateRows())

	deduped := table.DropDuplicates()
	assert.Equal(t, 2, deduped.Rows())
	assert.Equal(t, 3, table.Rows())
}

func TestDropMissingTarget(t *testing.T) {
	csvData := "x,y\n1,10\n2,\n3,30\n"
	table, err := ReadCSV(strings.NewReader(csvData))
	require.NoError(t, err)

	filtered, err := table.DropMissingTarget("y")
	require.NoError(t, err)
	assert.Equal(t, 2, filtered.Rows())

	y, _ := filtered.Column("y")
	assert.Equal(t, []float64{10, 30}, y.Floats)
}

func TestWriteCSVRoundTrip(t *testing.T) {
	csvData := "a,b\n1,x\n2.5,\n"
	table, err := ReadCSV(strings.NewReader(csvData))
	require.NoError(t, err)

	var out strings.Builder
	require.NoError(t, table.WriteCSV(&out))
	assert.Equal(t, csvData, out.String())
}
