package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/theblitlabs/automl-studio/internal/automl"
	"github.com/theblitlabs/automl-studio/internal/database/repositories"
	"github.com/theblitlabs/automl-studio/internal/dataset"
	"github.com/theblitlabs/automl-studio/internal/models"
	"github.com/theblitlabs/automl-studio/pkg/logger"
)

var (
	ErrModelNotFound = errors.New("model not found")
	ErrModelLoad     = errors.New("failed to load model")
	ErrPrediction    = errors.New("prediction failed")
)

// ModelService loads persisted model bundles, caches them and serves
// predictions. Heavy work runs through a bounded worker pool so a burst of
// requests cannot spawn unbounded goroutines.
type ModelService struct {
	registry   *repositories.ModelRepository
	modelDir   string
	maxEntries int

	slots chan struct{}

	mu       sync.RWMutex
	cache    map[string]*Bundle
	order    []string
	loadLock map[string]*sync.Mutex
}

// NewModelService builds a service with the given worker parallelism.
// maxEntries bounds the bundle cache; zero means unbounded.
func NewModelService(registry *repositories.ModelRepository, modelDir string, workers, maxEntries int) *ModelService {
	if workers < 1 {
		workers = 1
	}
	return &ModelService{
		registry:   registry,
		modelDir:   modelDir,
		maxEntries: maxEntries,
		slots:      make(chan struct{}, workers),
		cache:      make(map[string]*Bundle),
		loadLock:   make(map[string]*sync.Mutex),
	}
}

// Submit runs fn on the bounded pool, blocking while all slots are busy.
func (s *ModelService) Submit(ctx context.Context, fn func()) error {
	select {
	case s.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	go func() {
		defer func() { <-s.slots }()
		fn()
	}()
	return nil
}

// Do runs fn on the calling goroutine once a pool slot is free, so request
// handlers share the same concurrency bound as background work.
func (s *ModelService) Do(ctx context.Context, fn func()) error {
	select {
	case s.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.slots }()
	fn()
	return nil
}

// Load returns the bundle for modelID, reading it from disk at most once per
// ID even under concurrent callers. The registry index resolves the artifact
// path and family first; artifacts written before the index existed fall back
// to a direct file probe under the model directory.
func (s *ModelService) Load(ctx context.Context, modelID string) (*Bundle, error) {
	s.mu.RLock()
	if b, ok := s.cache[modelID]; ok {
		s.mu.RUnlock()
		return b, nil
	}
	s.mu.RUnlock()

	lock := s.keyLock(modelID)
	lock.Lock()
	defer lock.Unlock()

	// another caller may have finished the load while we waited
	s.mu.RLock()
	if b, ok := s.cache[modelID]; ok {
		s.mu.RUnlock()
		return b, nil
	}
	s.mu.RUnlock()

	path, family := s.resolve(ctx, modelID)
	if path == "" {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelID)
	}

	b, err := LoadBundle(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelID)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrModelLoad, modelID, err)
	}
	if b.Family == "" {
		b.Family = family
	}
	if b.Family == "" {
		// untagged artifact: probe classification first, then regression
		if b.Encoder != nil && len(b.Encoder.Classes) > 0 {
			b.Family = models.BranchClassification
		} else {
			b.Family = models.BranchRegression
		}
	}

	s.mu.Lock()
	s.cache[modelID] = b
	s.order = append(s.order, modelID)
	if s.maxEntries > 0 && len(s.order) > s.maxEntries {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.cache, oldest)
		log := logger.WithComponent("models")
		log.Debug().Str("model_id", oldest).Msg("Evicted model from cache")
	}
	s.mu.Unlock()

	return b, nil
}

func (s *ModelService) keyLock(modelID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.loadLock[modelID]
	if !ok {
		lock = &sync.Mutex{}
		s.loadLock[modelID] = lock
	}
	return lock
}

func (s *ModelService) resolve(ctx context.Context, modelID string) (path string, family models.Branch) {
	if s.registry != nil {
		rec, err := s.registry.Get(ctx, modelID)
		if err == nil {
			return rec.Path, models.Branch(rec.Family)
		}
		if !errors.Is(err, repositories.ErrModelRecordNotFound) {
			log := logger.WithComponent("models")
			log.Warn().Err(err).Str("model_id", modelID).Msg("Registry lookup failed")
		}
	}
	candidate := filepath.Join(s.modelDir, modelID+".gob")
	if _, err := os.Stat(candidate); err == nil {
		return candidate, ""
	}
	return "", ""
}

// Info describes a trained model for the inspection endpoint.
type Info struct {
	ModelID     string              `json:"model_id"`
	ProblemType string              `json:"problem_type"`
	Estimator   string              `json:"estimator"`
	Target      string              `json:"target_column"`
	Features    []string            `json:"features"`
	Metrics     []models.MetricsRow `json:"metrics,omitempty"`
	CreatedAt   string              `json:"created_at"`
}

// Describe returns registry and bundle metadata for one model.
func (s *ModelService) Describe(ctx context.Context, modelID string) (*Info, error) {
	b, err := s.Load(ctx, modelID)
	if err != nil {
		return nil, err
	}
	info := &Info{
		ModelID:     modelID,
		ProblemType: string(b.Family),
		Estimator:   b.EstimatorName,
		Target:      b.TargetColumn,
		CreatedAt:   b.CreatedAt.Format("2006-01-02T15:04:05Z"),
		Metrics:     b.Metrics,
	}
	if b.Encoder != nil {
		info.Features = b.Encoder.SourceFeatureNames()
	}
	return info, nil
}

// Predict scores one or more feature records against a trained model,
// preserving input order. Classification predictions come back as the
// original class labels.
func (s *ModelService) Predict(ctx context.Context, modelID string, records []map[string]any) (*models.PredictionResult, error) {
	b, err := s.Load(ctx, modelID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no records supplied", ErrPrediction)
	}

	table, err := tableFromRecords(b.Encoder, records)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPrediction, err)
	}
	X, err := b.Encoder.Transform(table)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPrediction, err)
	}
	raw, err := b.Estimator.Predict(X)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPrediction, err)
	}

	preds := make([]any, len(raw))
	classification := b.Family == models.BranchClassification
	for i, v := range raw {
		if classification {
			preds[i] = b.Encoder.ClassLabel(v)
		} else {
			preds[i] = v
		}
	}

	return &models.PredictionResult{
		ModelID:     modelID,
		Predictions: preds,
		Status:      "success",
	}, nil
}

// tableFromRecords assembles an in-memory table whose columns follow the
// encoder's training-time schema. Absent keys become missing cells.
func tableFromRecords(enc *automl.Encoder, records []map[string]any) (*dataset.Table, error) {
	if enc == nil {
		return nil, errors.New("model bundle has no encoder")
	}
	t := dataset.NewTable(len(records))
	for _, f := range enc.Features {
		kind := dataset.Categorical
		if f.Numeric {
			kind = dataset.Numeric
		}
		col := dataset.Column{Name: f.Name, Kind: kind}
		col.Floats = make([]float64, len(records))
		col.Strings = make([]string, len(records))
		col.Missing = make([]bool, len(records))
		for i, rec := range records {
			v, ok := rec[f.Name]
			if !ok || v == nil {
				col.Missing[i] = true
				continue
			}
			if f.Numeric {
				fv, err := toFloat(v)
				if err != nil {
					return nil, fmt.Errorf("column %q row %d: %v", f.Name, i, err)
				}
				col.Floats[i] = fv
			} else {
				col.Strings[i] = toString(v)
			}
		}
		t.Columns = append(t.Columns, col)
	}
	return t, nil
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case string:
		return strconv.ParseFloat(x, 64)
	default:
		return 0, fmt.Errorf("value %v is not numeric", v)
	}
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
