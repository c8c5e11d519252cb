package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/theblitlabs/automl-studio/internal/models"
)

var (
	ErrModelRecordNotFound = errors.New("model record not found")
)

// ModelRecord is one row of the trained model registry.
type ModelRecord struct {
	ModelID   string              `db:"model_id"`
	Family    string              `db:"family"`
	Estimator string              `db:"estimator"`
	Path      string              `db:"path"`
	Target    string              `db:"target"`
	Metrics   []models.MetricsRow `db:"-"`
	CreatedAt time.Time           `db:"created_at"`
}

type ModelRepository struct {
	db *sqlx.DB
}

func NewModelRepository(db *sqlx.DB) *ModelRepository {
	return &ModelRepository{db: db}
}

type dbModel struct {
	ModelID   string    `db:"model_id"`
	Family    string    `db:"family"`
	Estimator string    `db:"estimator"`
	Path      string    `db:"path"`
	Target    string    `db:"target"`
	Metrics   []byte    `db:"metrics"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *ModelRepository) Create(ctx context.Context, rec *ModelRecord) error {
	metricsJSON, err := json.Marshal(rec.Metrics)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	params := map[string]interface{}{
		"model_id":   rec.ModelID,
		"family":     rec.Family,
		"estimator":  rec.Estimator,
		"path":       rec.Path,
		"target":     rec.Target,
		"metrics":    metricsJSON,
		"created_at": rec.CreatedAt,
	}

	query := `
		INSERT INTO trained_models (
			model_id, family, estimator, path, target, metrics, created_at
		) VALUES (
			:model_id, :family, :estimator, :path, :target, :metrics, :created_at
		)
	`

	_, err = r.db.NamedExecContext(ctx, query, params)
	return err
}

func (r *ModelRepository) Get(ctx context.Context, modelID string) (*ModelRecord, error) {
	var row dbModel
	query := `SELECT * FROM trained_models WHERE model_id = $1`

	err := r.db.GetContext(ctx, &row, query, modelID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrModelRecordNotFound
		}
		return nil, err
	}

	return fromRow(row)
}

func (r *ModelRepository) List(ctx context.Context) ([]*ModelRecord, error) {
	var rows []dbModel
	query := `SELECT * FROM trained_models ORDER BY created_at DESC`

	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	records := make([]*ModelRecord, len(rows))
	for i, row := range rows {
		rec, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		records[i] = rec
	}

	return records, nil
}

func (r *ModelRepository) Delete(ctx context.Context, modelID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM trained_models WHERE model_id = $1`, modelID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrModelRecordNotFound
	}

	return nil
}

func fromRow(row dbModel) (*ModelRecord, error) {
	rec := &ModelRecord{
		ModelID:   row.ModelID,
		Family:    row.Family,
		Estimator: row.Estimator,
		Path:      row.Path,
		Target:    row.Target,
		CreatedAt: row.CreatedAt,
	}
	if len(row.Metrics) > 0 {
		if err := json.Unmarshal(row.Metrics, &rec.Metrics); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metrics: %w", err)
		}
	}
	return rec, nil
}
