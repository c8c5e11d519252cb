package analysis

import (
	"github.com/theblitlabs/automl-studio/internal/dataset"
	"github.com/theblitlabs/automl-studio/internal/models"
)

// DefaultMulticlassThreshold is the exclusive upper bound on distinct target
// values for a multi-class verdict. The two original front ends disagreed
// (10 vs 20); the REST surface used 20, which we keep as the default and
// expose through configuration.
const DefaultMulticlassThreshold = 20

// Characteristics summarizes a dataset independent of any target column.
type Characteristics struct {
	NumericalColumns   int `json:"numerical_columns"`
	CategoricalColumns int `json:"categorical_columns"`
	MissingValues      int `json:"missing_values"`
	TotalRows          int `json:"total_rows"`
	TotalColumns       int `json:"total_columns"`
}

// Verdict is the inferred problem type plus ranked candidate model families.
type Verdict struct {
	ProblemType               models.ProblemType `json:"problem_type"`
	SuitableApproaches        []string           `json:"suitable_approaches"`
	DataCharacteristics       Characteristics    `json:"data_characteristics"`
	RecommendedVisualizations []string           `json:"recommended_visualizations"`
	TargetColumn              string             `json:"target_column,omitempty"`
}

// Analyze inspects the designated target column's cardinality and emits a
// problem-type verdict. Dataset-wide characteristics are emitted even when
// no target is designated. The verdict is a pure function of the column's
// value set, so it is independent of row order.
func Analyze(t *dataset.Table, targetColumn string, multiclassThreshold int) *Verdict {
	if multiclassThreshold <= 2 {
		multiclassThreshold = DefaultMulticlassThreshold
	}

	v := &Verdict{
		ProblemType:        models.ProblemTypeUnknown,
		SuitableApproaches: []string{},
		TargetColumn:       targetColumn,
		DataCharacteristics: Characteristics{
			NumericalColumns:   len(t.NumericColumnNames()),
			CategoricalColumns: len(t.CategoricalColumnNames()),
			MissingValues:      t.MissingTotal(),
			TotalRows:          t.Rows(),
			TotalColumns:       t.NumCols(),
		},
	}

	if targetColumn != "" && t.HasColumn(targetColumn) {
		distinct := t.NUnique(targetColumn)
		switch {
		case distinct == 2:
			v.ProblemType = models.ProblemTypeBinary
			v.SuitableApproaches = []string{
				"Logistic Regression",
				"Decision Tree",
				"Random Forest",
				"XGBoost",
				"LightGBM",
			}
		case distinct > 2 && distinct < multiclassThreshold:
			v.ProblemType = models.ProblemTypeMulticlass
			v.SuitableApproaches = []string{
				"Random Forest",
				"XGBoost",
				"LightGBM",
			}
		default:
			v.ProblemType = models.ProblemTypeRegression
			v.SuitableApproaches = []string{
				"Linear Regression",
				"Random Forest",
				"XGBoost",
				"LightGBM",
				"CatBoost",
			}
		}
	}

	// A/B testing is flagged independent of the primary verdict.
	if t.HasColumn("group") && t.HasColumn("outcome") {
		v.SuitableApproaches = append(v.SuitableApproaches, "A/B Testing")
	}

	switch v.ProblemType {
	case models.ProblemTypeRegression:
		v.RecommendedVisualizations = []string{
			"Scatter Plot",
			"Residual Plot",
			"Feature Importance",
			"Correlation Heatmap",
		}
	case models.ProblemTypeBinary, models.ProblemTypeMulticlass:
		v.RecommendedVisualizations = []string{
			"Confusion Matrix",
			"ROC Curve",
			"Feature Importance",
			"Target Distribution",
		}
	}

	return v
}
