package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theblitlabs/automl-studio/internal/dataset"
	"github.com/theblitlabs/automl-studio/internal/models"
)

// trainFixture trains a small binary model and returns the model ID plus the
// directory its artifact lives in.
func trainFixture(t *testing.T) (string, string) {
	t.Helper()
	svc, store, modelDir := newTestTraining(t)
	_, err := store.Ingest(binaryCSV(60), "bin.csv")
	require.NoError(t, err)

	result, err := svc.Train(context.Background(), TrainRequest{
		Filename: "bin.csv",
		Target:   "label",
		Seed:     13,
	})
	require.NoError(t, err)
	require.Equal(t, "completed", result.Status)
	return result.ModelID, modelDir
}

func TestLoadUnknownModel(t *testing.T) {
	svc := NewModelService(nil, t.TempDir(), 2, 0)

	_, err := svc.Load(context.Background(), "model_19990101_000000")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrModelNotFound))
}

func TestLoadCachesBundle(t *testing.T) {
	modelID, modelDir := trainFixture(t)
	svc := NewModelService(nil, modelDir, 2, 0)

	first, err := svc.Load(context.Background(), modelID)
	require.NoError(t, err)
	second, err := svc.Load(context.Background(), modelID)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestLoadConcurrentCallersShareOneBundle(t *testing.T) {
	modelID, modelDir := trainFixture(t)
	svc := NewModelService(nil, modelDir, 4, 0)

	var wg sync.WaitGroup
	bundles := make([]*Bundle, 8)
	for i := range bundles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, err := svc.Load(context.Background(), modelID)
			assert.NoError(t, err)
			bundles[i] = b
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(bundles); i++ {
		assert.Same(t, bundles[0], bundles[i])
	}
}

func TestBoundedCacheEvictsOldest(t *testing.T) {
	dir := t.TempDir()
	store, err := dataset.NewStore(filepath.Join(dir, "data"))
	require.NoError(t, err)
	modelDir := filepath.Join(dir, "models")
	training := NewTrainingService(store, nil, modelDir, 20)
	_, err = store.Ingest(binaryCSV(40), "bin.csv")
	require.NoError(t, err)

	var ids []string
	for i := 0; i < 3; i++ {
		result, err := training.Train(context.Background(), TrainRequest{
			Filename: "bin.csv",
			Target:   "label",
			Seed:     int64(i + 1),
		})
		require.NoError(t, err)
		ids = append(ids, result.ModelID)
		// artifact IDs are second-granularity timestamps
		time.Sleep(1100 * time.Millisecond)
	}

	svc := NewModelService(nil, modelDir, 2, 2)
	for _, id := range ids {
		_, err := svc.Load(context.Background(), id)
		require.NoError(t, err)
	}

	svc.mu.RLock()
	defer svc.mu.RUnlock()
	assert.Len(t, svc.cache, 2)
	assert.NotContains(t, svc.cache, ids[0])
	assert.Contains(t, svc.cache, ids[2])
}

func TestDescribe(t *testing.T) {
	modelID, modelDir := trainFixture(t)
	svc := NewModelService(nil, modelDir, 2, 0)

	info, err := svc.Describe(context.Background(), modelID)
	require.NoError(t, err)

	assert.Equal(t, modelID, info.ModelID)
	assert.Equal(t, string(models.BranchClassification), info.ProblemType)
	assert.Equal(t, "label", info.Target)
	assert.Equal(t, []string{"f1", "f2"}, info.Features)
	assert.NotEmpty(t, info.Estimator)
	assert.NotEmpty(t, info.Metrics)
}

func TestPredictPreservesOrder(t *testing.T) {
	modelID, modelDir := trainFixture(t)
	svc := NewModelService(nil, modelDir, 2, 0)

	records := []map[string]any{
		{"f1": 2.0, "f2": 102.0},
		{"f1": 1001.0, "f2": 2001.0},
		{"f1": 4.0, "f2": 104.0},
		{"f1": 1003.0, "f2": 2003.0},
	}

	result, err := svc.Predict(context.Background(), modelID, records)
	require.NoError(t, err)
	require.Len(t, result.Predictions, 4)

	assert.Equal(t, "success", result.Status)
	assert.Equal(t, "yes", result.Predictions[0])
	assert.Equal(t, "no", result.Predictions[1])
	assert.Equal(t, "yes", result.Predictions[2])
	assert.Equal(t, "no", result.Predictions[3])
}

func TestPredictSingleRecord(t *testing.T) {
	modelID, modelDir := trainFixture(t)
	svc := NewModelService(nil, modelDir, 2, 0)

	result, err := svc.Predict(context.Background(), modelID, []map[string]any{
		{"f1": 2.0, "f2": 102.0},
	})
	require.NoError(t, err)
	require.Len(t, result.Predictions, 1)
	assert.Equal(t, "yes", result.Predictions[0])
}

func TestPredictBadRecordWrapsPredictionError(t *testing.T) {
	modelID, modelDir := trainFixture(t)
	svc := NewModelService(nil, modelDir, 2, 0)

	_, err := svc.Predict(context.Background(), modelID, []map[string]any{
		{"f1": "not a number", "f2": 1.0},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPrediction))
}

func TestPredictNoRecords(t *testing.T) {
	modelID, modelDir := trainFixture(t)
	svc := NewModelService(nil, modelDir, 2, 0)

	_, err := svc.Predict(context.Background(), modelID, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPrediction))
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	svc := NewModelService(nil, t.TempDir(), 2, 0)

	var mu sync.Mutex
	active, peak := 0, 0

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := svc.Do(context.Background(), func() {
				mu.Lock()
				active++
				if active > peak {
					peak = active
				}
				mu.Unlock()
				time.Sleep(10 * time.Millisecond)
				mu.Lock()
				active--
				mu.Unlock()
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak, 2)
	assert.Zero(t, active)
}

func TestBundleRoundTrip(t *testing.T) {
	modelID, modelDir := trainFixture(t)

	b, err := LoadBundle(filepath.Join(modelDir, fmt.Sprintf("%s.gob", modelID)))
	require.NoError(t, err)

	assert.Equal(t, models.BranchClassification, b.Family)
	assert.Equal(t, "label", b.TargetColumn)
	require.NotNil(t, b.Encoder)
	assert.Equal(t, []string{"yes", "no"}, b.Encoder.Classes)
	require.NotNil(t, b.Estimator)
	assert.Equal(t, b.EstimatorName, b.Estimator.Name())
	assert.False(t, b.CreatedAt.IsZero())
}
