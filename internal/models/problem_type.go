package models

import "strings"

// ProblemType is the inferred learning task for a dataset/target pair.
type ProblemType string

const (
	ProblemTypeBinary     ProblemType = "Binary Classification"
	ProblemTypeMulticlass ProblemType = "Multi-class Classification"
	ProblemTypeRegression ProblemType = "Regression"
	ProblemTypeUnknown    ProblemType = "Unknown"
)

// Branch selects which model search delegate handles a training run.
type Branch string

const (
	BranchClassification Branch = "classification"
	BranchRegression     Branch = "regression"
)

// IsClassification reports whether the problem type is a classification task.
func (p ProblemType) IsClassification() bool {
	return p == ProblemTypeBinary || p == ProblemTypeMulticlass
}

// ParseBranch normalizes a free-text problem-type label to a search branch.
// The labels "binary classification", "multi-class classification" and
// "classification" map to the classification branch; everything else is
// treated as regression.
func ParseBranch(label string) Branch {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "binary classification", "multi-class classification", "classification":
		return BranchClassification
	default:
		return BranchRegression
	}
}

// BranchOf maps a typed problem type to its search branch.
func BranchOf(p ProblemType) Branch {
	if p.IsClassification() {
		return BranchClassification
	}
	return BranchRegression
}
