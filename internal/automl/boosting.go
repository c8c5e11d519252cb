package automl

import (
	"fmt"
	"math"
	"math/rand"
)

// GradientBoosting is an additive ensemble of shallow regression trees fit
// to pseudo-residuals: squared loss for regression, one-vs-rest logistic
// loss for classification. The named variants fill the gradient-boosted
// slots of the candidate family lists with different depth/round/shrinkage
// profiles.
type GradientBoosting struct {
	Label        string
	NumRounds    int
	MaxDepth     int
	LearningRate float64
	Classes      int
	Seed         int64

	Base        float64
	Trees       []*TreeNode
	Bases       []float64
	ClassTrees  [][]*TreeNode
	Importances []float64
}

func newBoosting(label string, rounds, depth int, lr float64, numClasses int) *GradientBoosting {
	return &GradientBoosting{
		Label:        label,
		NumRounds:    rounds,
		MaxDepth:     depth,
		LearningRate: lr,
		Classes:      numClasses,
		Seed:         1,
	}
}

// NewXGBoost builds the depth-wise boosting variant.
func NewXGBoost(numClasses int) *GradientBoosting {
	return newBoosting("XGBoost", 50, 6, 0.3, numClasses)
}

// NewLightGBM builds the shallow, high-round variant.
func NewLightGBM(numClasses int) *GradientBoosting {
	return newBoosting("LightGBM", 80, 4, 0.1, numClasses)
}

// NewCatBoost builds the low-shrinkage variant (regression branch only).
func NewCatBoost(numClasses int) *GradientBoosting {
	return newBoosting("CatBoost", 60, 6, 0.05, numClasses)
}

func (g *GradientBoosting) Name() string { return g.Label }

func (g *GradientBoosting) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return fmt.Errorf("empty training data")
	}
	numFeatures := len(X[0])
	total := make([]float64, numFeatures)
	rng := rand.New(rand.NewSource(g.Seed))

	if g.Classes > 0 {
		g.Bases = make([]float64, g.Classes)
		g.ClassTrees = make([][]*TreeNode, g.Classes)
		for k := 0; k < g.Classes; k++ {
			binary := make([]float64, len(y))
			pos := 0.0
			for i, v := range y {
				if int(v) == k {
					binary[i] = 1
					pos++
				}
			}
			p := clampProb(pos / float64(len(y)))
			g.Bases[k] = math.Log(p / (1 - p))

			scores := make([]float64, len(y))
			for i := range scores {
				scores[i] = g.Bases[k]
			}
			for round := 0; round < g.NumRounds; round++ {
				residuals := make([]float64, len(y))
				for i := range y {
					residuals[i] = binary[i] - sigmoid(scores[i])
				}
				root, importances := growTree(X, residuals, treeOptions{
					maxDepth:        g.MaxDepth,
					minSamplesSplit: 2,
					rng:             rng,
				})
				g.ClassTrees[k] = append(g.ClassTrees[k], root)
				for i, row := range X {
					scores[i] += g.LearningRate * root.predict(row)
				}
				for j, v := range importances {
					total[j] += v
				}
			}
		}
		g.Importances = normalize(total)
		return nil
	}

	g.Base = meanOf(y)
	scores := make([]float64, len(y))
	for i := range scores {
		scores[i] = g.Base
	}
	for round := 0; round < g.NumRounds; round++ {
		residuals := make([]float64, len(y))
		for i := range y {
			residuals[i] = y[i] - scores[i]
		}
		root, importances := growTree(X, residuals, treeOptions{
			maxDepth:        g.MaxDepth,
			minSamplesSplit: 2,
			rng:             rng,
		})
		g.Trees = append(g.Trees, root)
		for i, row := range X {
			scores[i] += g.LearningRate * root.predict(row)
		}
		for j, v := range importances {
			total[j] += v
		}
	}
	g.Importances = normalize(total)
	return nil
}

func clampProb(p float64) float64 {
	const eps = 1e-6
	return math.Min(1-eps, math.Max(eps, p))
}

func (g *GradientBoosting) rawScore(row []float64, class int) float64 {
	s := g.Bases[class]
	for _, tree := range g.ClassTrees[class] {
		s += g.LearningRate * tree.predict(row)
	}
	return s
}

func (g *GradientBoosting) Predict(X [][]float64) ([]float64, error) {
	if g.Classes > 0 {
		probs, err := g.PredictProba(X)
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(X))
		for i, p := range probs {
			out[i] = float64(argmax(p))
		}
		return out, nil
	}
	if g.Trees == nil {
		return nil, fmt.Errorf("%s not fitted", g.Label)
	}
	out := make([]float64, len(X))
	for i, row := range X {
		s := g.Base
		for _, tree := range g.Trees {
			s += g.LearningRate * tree.predict(row)
		}
		out[i] = s
	}
	return out, nil
}

func (g *GradientBoosting) PredictProba(X [][]float64) ([][]float64, error) {
	if g.Classes == 0 {
		return nil, fmt.Errorf("%s is a regression model", g.Label)
	}
	if g.ClassTrees == nil {
		return nil, fmt.Errorf("%s not fitted", g.Label)
	}
	out := make([][]float64, len(X))
	for i, row := range X {
		probs := make([]float64, g.Classes)
		sum := 0.0
		for k := 0; k < g.Classes; k++ {
			probs[k] = sigmoid(g.rawScore(row, k))
			sum += probs[k]
		}
		if sum > 0 {
			for k := range probs {
				probs[k] /= sum
			}
		}
		out[i] = probs
	}
	return out, nil
}

func (g *GradientBoosting) NumClasses() int { return g.Classes }

func (g *GradientBoosting) ParamGrid() []Params {
	return []Params{
		{"num_rounds": 40, "learning_rate": 0.05},
		{"num_rounds": 60, "learning_rate": 0.1},
		{"num_rounds": 80, "learning_rate": 0.3},
	}
}

func (g *GradientBoosting) WithParams(p Params) Estimator {
	clone := newBoosting(g.Label, g.NumRounds, g.MaxDepth, g.LearningRate, g.Classes)
	clone.Seed = g.Seed
	if v, ok := p["num_rounds"]; ok {
		clone.NumRounds = int(v)
	}
	if v, ok := p["learning_rate"]; ok {
		clone.LearningRate = v
	}
	if v, ok := p["max_depth"]; ok {
		clone.MaxDepth = int(v)
	}
	return clone
}

func (g *GradientBoosting) FeatureImportances() []float64 { return g.Importances }
