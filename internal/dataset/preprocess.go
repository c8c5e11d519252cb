package dataset

import (
	"fmt"
	"os"
)

// PreprocessReport enumerates every transformation applied, in order.
type PreprocessReport struct {
	OriginalShape        [2]int         `json:"original_shape"`
	MissingValues        map[string]int `json:"missing_values"`
	DuplicateRows        int            `json:"duplicate_rows"`
	NumericalColumns     []string       `json:"numerical_columns"`
	CategoricalColumns   []string       `json:"categorical_columns"`
	PreprocessingApplied []string       `json:"preprocessing_applied"`
	PreprocessedShape    [2]int         `json:"preprocessed_shape"`
	PreprocessedPath     string         `json:"preprocessed_path"`
}

// Preprocess imputes missing values (median for numeric columns, most
// frequent value for categorical ones, ties broken by first appearance),
// drops exact duplicate rows, and writes the result to a derived path. The
// operation is idempotent on data with nothing to fix.
func (s *Store) Preprocess(filename string) (*PreprocessReport, error) {
	table, err := s.Load(filename)
	if err != nil {
		return nil, err
	}

	report := &PreprocessReport{
		OriginalShape:        [2]int{table.Rows(), table.NumCols()},
		MissingValues:        make(map[string]int, table.NumCols()),
		DuplicateRows:        table.DuplicateRows(),
		NumericalColumns:     table.NumericColumnNames(),
		CategoricalColumns:   table.CategoricalColumnNames(),
		PreprocessingApplied: []string{},
	}
	for i := range table.Columns {
		c := &table.Columns[i]
		report.MissingValues[c.Name] = c.MissingCount()
	}

	for i := range table.Columns {
		c := &table.Columns[i]
		if c.Kind != Numeric || c.MissingCount() == 0 {
			continue
		}
		median, ok := c.Median()
		if !ok {
			continue
		}
		for row := range c.Floats {
			if c.Missing[row] {
				c.Floats[row] = median
				c.Missing[row] = false
			}
		}
		report.PreprocessingApplied = append(report.PreprocessingApplied,
			fmt.Sprintf("Filled missing values in %s with median", c.Name))
	}

	for i := range table.Columns {
		c := &table.Columns[i]
		if c.Kind != Categorical || c.MissingCount() == 0 {
			continue
		}
		fill, ok := c.Mode()
		if !ok {
			fill = "Unknown"
		}
		for row := range c.Strings {
			if c.Missing[row] {
				c.Strings[row] = fill
				c.Missing[row] = false
			}
		}
		report.PreprocessingApplied = append(report.PreprocessingApplied,
			fmt.Sprintf("Filled missing values in %s with mode", c.Name))
	}

	if report.DuplicateRows > 0 {
		table = table.DropDuplicates()
		report.PreprocessingApplied = append(report.PreprocessingApplied, "Removed duplicate rows")
	}

	derived := s.Path(PreprocessedName(filename))
	f, err := os.Create(derived)
	if err != nil {
		return nil, fmt.Errorf("failed to write preprocessed dataset: %w", err)
	}
	defer f.Close()
	if err := table.WriteCSV(f); err != nil {
		return nil, fmt.Errorf("failed to write preprocessed dataset: %w", err)
	}

	report.PreprocessedShape = [2]int{table.Rows(), table.NumCols()}
	report.PreprocessedPath = derived
	return report, nil
}
