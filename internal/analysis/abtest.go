package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/theblitlabs/automl-studio/internal/dataset"
)

// ABTestResult reports a two-sample t-test over the outcome column split by
// the group column.
type ABTestResult struct {
	TStatistic  float64 `json:"t_statistic"`
	PValue      float64 `json:"p_value"`
	Significant bool    `json:"significant"`
	GroupAMean  float64 `json:"group_a_mean"`
	GroupBMean  float64 `json:"group_b_mean"`
	GroupASize  int     `json:"group_a_size"`
	GroupBSize  int     `json:"group_b_size"`
}

// RunABTest performs a pooled-variance two-sample t-test on outcome values
// for groups "A" and "B". Returns nil when the table lacks the group/outcome
// columns or either group is empty.
func RunABTest(t *dataset.Table) *ABTestResult {
	groupCol, ok := t.Column("group")
	if !ok || groupCol.Kind != dataset.Categorical {
		return nil
	}
	outcomeCol, ok := t.Column("outcome")
	if !ok || outcomeCol.Kind != dataset.Numeric {
		return nil
	}

	var groupA, groupB []float64
	for i := 0; i < t.Rows(); i++ {
		if groupCol.Missing[i] || outcomeCol.Missing[i] {
			continue
		}
		switch groupCol.Strings[i] {
		case "A":
			groupA = append(groupA, outcomeCol.Floats[i])
		case "B":
			groupB = append(groupB, outcomeCol.Floats[i])
		}
	}
	if len(groupA) == 0 || len(groupB) == 0 {
		return nil
	}

	meanA, varA := stat.MeanVariance(groupA, nil)
	meanB, varB := stat.MeanVariance(groupB, nil)
	nA, nB := float64(len(groupA)), float64(len(groupB))

	dof := nA + nB - 2
	if dof <= 0 {
		return nil
	}
	pooled := ((nA-1)*varA + (nB-1)*varB) / dof
	se := math.Sqrt(pooled * (1/nA + 1/nB))
	if se == 0 {
		return nil
	}
	tStat := (meanA - meanB) / se

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: dof}
	pValue := 2 * dist.Survival(math.Abs(tStat))

	return &ABTestResult{
		TStatistic:  tStat,
		PValue:      pValue,
		Significant: pValue < 0.05,
		GroupAMean:  meanA,
		GroupBMean:  meanB,
		GroupASize:  len(groupA),
		GroupBSize:  len(groupB),
	}
}
