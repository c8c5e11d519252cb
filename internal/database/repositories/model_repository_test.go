package repositories

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theblitlabs/automl-studio/internal/database"
	"github.com/theblitlabs/automl-studio/internal/models"
)

func newTestRepo(t *testing.T) *ModelRepository {
	t.Helper()
	db, err := database.Connect(context.Background(), filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewModelRepository(db)
}

func sampleRecord(id string, createdAt time.Time) *ModelRecord {
	return &ModelRecord{
		ModelID:   id,
		Family:    "classification",
		Estimator: "Random Forest",
		Path:      "/models/" + id + ".gob",
		Target:    "label",
		Metrics: []models.MetricsRow{
			{Model: "Random Forest", Scores: map[string]float64{"Accuracy": 0.93}},
		},
		CreatedAt: createdAt,
	}
}

func TestModelRepositoryCreateAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rec := sampleRecord("model_20240101_120000", time.Now().UTC().Truncate(time.Second))
	require.NoError(t, repo.Create(ctx, rec))

	got, err := repo.Get(ctx, rec.ModelID)
	require.NoError(t, err)

	assert.Equal(t, rec.ModelID, got.ModelID)
	assert.Equal(t, "classification", got.Family)
	assert.Equal(t, "Random Forest", got.Estimator)
	assert.Equal(t, rec.Path, got.Path)
	assert.Equal(t, "label", got.Target)
	require.Len(t, got.Metrics, 1)
	assert.Equal(t, 0.93, got.Metrics[0].Scores["Accuracy"])
}

func TestModelRepositoryGetMissing(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Get(context.Background(), "model_missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrModelRecordNotFound))
}

func TestModelRepositoryListNewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.Create(ctx, sampleRecord("model_a", base.Add(-time.Hour))))
	require.NoError(t, repo.Create(ctx, sampleRecord("model_b", base)))

	records, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "model_b", records[0].ModelID)
	assert.Equal(t, "model_a", records[1].ModelID)
}

func TestModelRepositoryDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sampleRecord("model_x", time.Now().UTC())))
	require.NoError(t, repo.Delete(ctx, "model_x"))

	_, err := repo.Get(ctx, "model_x")
	assert.True(t, errors.Is(err, ErrModelRecordNotFound))

	err = repo.Delete(ctx, "model_x")
	assert.True(t, errors.Is(err, ErrModelRecordNotFound))
}
