package services

import (
	"encoding/gob"
	"fmt"
	"os"
	"time"

	"github.com/theblitlabs/automl-studio/internal/automl"
	"github.com/theblitlabs/automl-studio/internal/models"
)

func init() {
	gob.Register(&automl.LinearRegression{})
	gob.Register(&automl.LogisticRegression{})
	gob.Register(&automl.DecisionTree{})
	gob.Register(&automl.RandomForest{})
	gob.Register(&automl.GradientBoosting{})
}

// Bundle is everything needed to reload a trained model and score new rows.
// Family records which branch the estimator belongs to so loaders never have
// to guess from the artifact contents.
type Bundle struct {
	Family        models.Branch
	EstimatorName string
	Estimator     automl.Estimator
	Encoder       *automl.Encoder
	TargetColumn  string
	Metrics       []models.MetricsRow
	CreatedAt     time.Time
}

// SaveBundle writes the bundle to path with gob encoding.
func SaveBundle(path string, b *Bundle) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create model file: %w", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(b); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	return nil
}

// LoadBundle reads a bundle back from disk.
func LoadBundle(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var b Bundle
	if err := gob.NewDecoder(f).Decode(&b); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if b.Estimator == nil {
		return nil, fmt.Errorf("model file %s holds no estimator", path)
	}
	return &b, nil
}
