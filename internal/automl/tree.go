package automl

import (
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// TreeNode is one node of a CART tree. Leaves carry the prediction value
// and, for classification, the class distribution.
type TreeNode struct {
	FeatureIndex int
	Threshold    float64
	Left         *TreeNode
	Right        *TreeNode
	Value        float64
	Probs        []float64
	IsLeaf       bool
	Samples      int
}

type treeOptions struct {
	maxDepth        int
	minSamplesSplit int
	maxFeatures     int // 0 means all
	numClasses      int // 0 means regression
	rng             *rand.Rand
}

type treeGrower struct {
	opts        treeOptions
	importances []float64
}

func growTree(X [][]float64, y []float64, opts treeOptions) (*TreeNode, []float64) {
	g := &treeGrower{opts: opts}
	if len(X) > 0 {
		g.importances = make([]float64, len(X[0]))
	}
	root := g.build(X, y, 0)
	return root, g.importances
}

func (g *treeGrower) build(X [][]float64, y []float64, depth int) *TreeNode {
	if depth >= g.opts.maxDepth || len(y) < g.opts.minSamplesSplit || homogeneous(y) {
		return g.leaf(y)
	}

	feature, threshold, gain := g.bestSplit(X, y)
	if gain <= 0 {
		return g.leaf(y)
	}

	leftX, leftY, rightX, rightY := partition(X, y, feature, threshold)
	if len(leftY) == 0 || len(rightY) == 0 {
		return g.leaf(y)
	}
	g.importances[feature] += gain * float64(len(y))

	return &TreeNode{
		FeatureIndex: feature,
		Threshold:    threshold,
		Left:         g.build(leftX, leftY, depth+1),
		Right:        g.build(rightX, rightY, depth+1),
		Samples:      len(y),
	}
}

func (g *treeGrower) leaf(y []float64) *TreeNode {
	node := &TreeNode{IsLeaf: true, Samples: len(y)}
	if g.opts.numClasses > 0 {
		node.Probs = classDistribution(y, g.opts.numClasses)
		node.Value = float64(argmax(node.Probs))
	} else {
		node.Value = meanOf(y)
	}
	return node
}

func (g *treeGrower) bestSplit(X [][]float64, y []float64) (int, float64, float64) {
	if len(X) == 0 {
		return 0, 0, 0
	}
	numFeatures := len(X[0])
	candidates := g.candidateFeatures(numFeatures)

	parent := g.impurity(y)
	bestFeature, bestThreshold, bestGain := 0, 0.0, 0.0

	values := make([]float64, len(X))
	for _, feature := range candidates {
		for i, row := range X {
			values[i] = row[feature]
		}
		for _, threshold := range thresholdCandidates(values) {
			var leftY, rightY []float64
			for i, row := range X {
				if row[feature] <= threshold {
					leftY = append(leftY, y[i])
				} else {
					rightY = append(rightY, y[i])
				}
			}
			if len(leftY) == 0 || len(rightY) == 0 {
				continue
			}
			leftW := float64(len(leftY)) / float64(len(y))
			rightW := float64(len(rightY)) / float64(len(y))
			gain := parent - (leftW*g.impurity(leftY) + rightW*g.impurity(rightY))
			if gain > bestGain {
				bestGain = gain
				bestFeature = feature
				bestThreshold = threshold
			}
		}
	}
	return bestFeature, bestThreshold, bestGain
}

func (g *treeGrower) candidateFeatures(numFeatures int) []int {
	if g.opts.maxFeatures <= 0 || g.opts.maxFeatures >= numFeatures {
		all := make([]int, numFeatures)
		for i := range all {
			all[i] = i
		}
		return all
	}
	perm := g.opts.rng.Perm(numFeatures)
	return perm[:g.opts.maxFeatures]
}

func (g *treeGrower) impurity(y []float64) float64 {
	if g.opts.numClasses > 0 {
		return giniImpurity(y, g.opts.numClasses)
	}
	return variance(y)
}

// thresholdCandidates picks quartile split points over the feature values.
func thresholdCandidates(values []float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	var out []float64
	last := 0.0
	for i, q := range []float64{0.25, 0.5, 0.75} {
		v := stat.Quantile(q, stat.Empirical, sorted, nil)
		if i == 0 || v != last {
			out = append(out, v)
		}
		last = v
	}
	return out
}

func (n *TreeNode) predict(row []float64) float64 {
	if n.IsLeaf {
		return n.Value
	}
	if row[n.FeatureIndex] <= n.Threshold {
		return n.Left.predict(row)
	}
	return n.Right.predict(row)
}

func (n *TreeNode) predictProbs(row []float64) []float64 {
	if n.IsLeaf {
		return n.Probs
	}
	if row[n.FeatureIndex] <= n.Threshold {
		return n.Left.predictProbs(row)
	}
	return n.Right.predictProbs(row)
}

func partition(X [][]float64, y []float64, feature int, threshold float64) ([][]float64, []float64, [][]float64, []float64) {
	var leftX, rightX [][]float64
	var leftY, rightY []float64
	for i, row := range X {
		if row[feature] <= threshold {
			leftX = append(leftX, row)
			leftY = append(leftY, y[i])
		} else {
			rightX = append(rightX, row)
			rightY = append(rightY, y[i])
		}
	}
	return leftX, leftY, rightX, rightY
}

func homogeneous(y []float64) bool {
	for _, v := range y {
		if v != y[0] {
			return false
		}
	}
	return true
}

func meanOf(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func variance(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	m := meanOf(vals)
	ss := 0.0
	for _, v := range vals {
		d := v - m
		ss += d * d
	}
	return ss / float64(len(vals))
}

func giniImpurity(y []float64, numClasses int) float64 {
	if len(y) == 0 {
		return 0
	}
	counts := make([]float64, numClasses)
	for _, v := range y {
		counts[int(v)]++
	}
	impurity := 1.0
	total := float64(len(y))
	for _, c := range counts {
		p := c / total
		impurity -= p * p
	}
	return impurity
}

func classDistribution(y []float64, numClasses int) []float64 {
	probs := make([]float64, numClasses)
	for _, v := range y {
		probs[int(v)]++
	}
	for i := range probs {
		probs[i] /= float64(len(y))
	}
	return probs
}

// DecisionTree is a single CART estimator usable for classification
// (Classes > 0) or regression.
type DecisionTree struct {
	MaxDepth        int
	MinSamplesSplit int
	Classes         int
	Seed            int64
	Root            *TreeNode
	Importances     []float64
}

func NewDecisionTree(numClasses int) *DecisionTree {
	return &DecisionTree{MaxDepth: 8, MinSamplesSplit: 2, Classes: numClasses, Seed: 1}
}

func (t *DecisionTree) Name() string { return "Decision Tree" }

func (t *DecisionTree) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return fmt.Errorf("empty training data")
	}
	root, importances := growTree(X, y, treeOptions{
		maxDepth:        t.MaxDepth,
		minSamplesSplit: t.MinSamplesSplit,
		numClasses:      t.Classes,
		rng:             rand.New(rand.NewSource(t.Seed)),
	})
	t.Root = root
	t.Importances = normalize(importances)
	return nil
}

func (t *DecisionTree) Predict(X [][]float64) ([]float64, error) {
	if t.Root == nil {
		return nil, fmt.Errorf("decision tree not fitted")
	}
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = t.Root.predict(row)
	}
	return out, nil
}

func (t *DecisionTree) PredictProba(X [][]float64) ([][]float64, error) {
	if t.Root == nil {
		return nil, fmt.Errorf("decision tree not fitted")
	}
	out := make([][]float64, len(X))
	for i, row := range X {
		out[i] = t.Root.predictProbs(row)
	}
	return out, nil
}

func (t *DecisionTree) NumClasses() int { return t.Classes }

func (t *DecisionTree) ParamGrid() []Params {
	return []Params{
		{"max_depth": 4},
		{"max_depth": 8},
		{"max_depth": 12},
	}
}

func (t *DecisionTree) WithParams(p Params) Estimator {
	clone := NewDecisionTree(t.Classes)
	clone.MinSamplesSplit = t.MinSamplesSplit
	clone.Seed = t.Seed
	if v, ok := p["max_depth"]; ok {
		clone.MaxDepth = int(v)
	}
	return clone
}

func (t *DecisionTree) FeatureImportances() []float64 { return t.Importances }

func normalize(vals []float64) []float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	if sum == 0 {
		return vals
	}
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = v / sum
	}
	return out
}
