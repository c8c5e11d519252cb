package automl

import (
	"fmt"
	"math"
	"math/rand"
)

// RandomForest bags CART trees over bootstrap samples with feature
// subsampling at each split.
type RandomForest struct {
	NumTrees        int
	MaxDepth        int
	MinSamplesSplit int
	Classes         int
	Seed            int64
	Trees           []*TreeNode
	Importances     []float64
}

func NewRandomForest(numClasses int) *RandomForest {
	return &RandomForest{
		NumTrees:        50,
		MaxDepth:        8,
		MinSamplesSplit: 2,
		Classes:         numClasses,
		Seed:            1,
	}
}

func (f *RandomForest) Name() string { return "Random Forest" }

func (f *RandomForest) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return fmt.Errorf("empty training data")
	}
	numFeatures := len(X[0])
	maxFeatures := int(math.Sqrt(float64(numFeatures)))
	if maxFeatures < 1 {
		maxFeatures = 1
	}
	rng := rand.New(rand.NewSource(f.Seed))

	f.Trees = make([]*TreeNode, 0, f.NumTrees)
	total := make([]float64, numFeatures)
	for t := 0; t < f.NumTrees; t++ {
		sampleX := make([][]float64, len(X))
		sampleY := make([]float64, len(y))
		for i := range sampleX {
			idx := rng.Intn(len(X))
			sampleX[i] = X[idx]
			sampleY[i] = y[idx]
		}
		root, importances := growTree(sampleX, sampleY, treeOptions{
			maxDepth:        f.MaxDepth,
			minSamplesSplit: f.MinSamplesSplit,
			maxFeatures:     maxFeatures,
			numClasses:      f.Classes,
			rng:             rng,
		})
		f.Trees = append(f.Trees, root)
		for j, v := range importances {
			total[j] += v
		}
	}
	f.Importances = normalize(total)
	return nil
}

func (f *RandomForest) Predict(X [][]float64) ([]float64, error) {
	if len(f.Trees) == 0 {
		return nil, fmt.Errorf("random forest not fitted")
	}
	out := make([]float64, len(X))
	if f.Classes > 0 {
		probs, err := f.PredictProba(X)
		if err != nil {
			return nil, err
		}
		for i, p := range probs {
			out[i] = float64(argmax(p))
		}
		return out, nil
	}
	for i, row := range X {
		sum := 0.0
		for _, tree := range f.Trees {
			sum += tree.predict(row)
		}
		out[i] = sum / float64(len(f.Trees))
	}
	return out, nil
}

// PredictProba averages class distributions across trees.
func (f *RandomForest) PredictProba(X [][]float64) ([][]float64, error) {
	if len(f.Trees) == 0 {
		return nil, fmt.Errorf("random forest not fitted")
	}
	if f.Classes == 0 {
		return nil, fmt.Errorf("random forest is a regression model")
	}
	out := make([][]float64, len(X))
	for i, row := range X {
		probs := make([]float64, f.Classes)
		for _, tree := range f.Trees {
			for k, p := range tree.predictProbs(row) {
				probs[k] += p
			}
		}
		for k := range probs {
			probs[k] /= float64(len(f.Trees))
		}
		out[i] = probs
	}
	return out, nil
}

func (f *RandomForest) NumClasses() int { return f.Classes }

func (f *RandomForest) ParamGrid() []Params {
	return []Params{
		{"num_trees": 25, "max_depth": 6},
		{"num_trees": 50, "max_depth": 8},
		{"num_trees": 100, "max_depth": 10},
	}
}

func (f *RandomForest) WithParams(p Params) Estimator {
	clone := NewRandomForest(f.Classes)
	clone.Seed = f.Seed
	if v, ok := p["num_trees"]; ok {
		clone.NumTrees = int(v)
	}
	if v, ok := p["max_depth"]; ok {
		clone.MaxDepth = int(v)
	}
	return clone
}

func (f *RandomForest) FeatureImportances() []float64 { return f.Importances }
