package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/theblitlabs/automl-studio/internal/analysis"
	"github.com/theblitlabs/automl-studio/internal/automl"
	"github.com/theblitlabs/automl-studio/internal/database/repositories"
	"github.com/theblitlabs/automl-studio/internal/dataset"
	"github.com/theblitlabs/automl-studio/internal/models"
	"github.com/theblitlabs/automl-studio/pkg/logger"
)

var (
	ErrEmptyDataset   = errors.New("dataset is empty")
	ErrTargetNotFound = errors.New("target column not found")
	ErrUnknownFeature = errors.New("unknown feature columns")
)

// TrainRequest is one model-training submission.
type TrainRequest struct {
	Filename    string   `json:"filename"`
	Target      string   `json:"target_column"`
	ProblemType string   `json:"problem_type,omitempty"`
	Features    []string `json:"features,omitempty"`
	Seed        int64    `json:"seed,omitempty"`
}

// TrainingService runs the model search end to end: dataset load, problem
// branch resolution, candidate comparison, tuning and artifact persistence.
type TrainingService struct {
	store               *dataset.Store
	registry            *repositories.ModelRepository
	modelDir            string
	multiclassThreshold int

	mu   sync.RWMutex
	jobs map[string]*models.TrainingJob
}

func NewTrainingService(store *dataset.Store, registry *repositories.ModelRepository, modelDir string, multiclassThreshold int) *TrainingService {
	return &TrainingService{
		store:               store,
		registry:            registry,
		modelDir:            modelDir,
		multiclassThreshold: multiclassThreshold,
		jobs:                make(map[string]*models.TrainingJob),
	}
}

// Train executes one training run. Failures surface inside the returned
// result with status "failed" rather than as an error, including panics from
// deep inside the search, so the caller always receives diagnostics. The
// error return is reserved for precondition violations the API maps to 4xx.
func (s *TrainingService) Train(ctx context.Context, req TrainRequest) (result *models.TrainingResult, err error) {
	log := logger.WithComponent("training")

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("filename", req.Filename).Msg("Training run panicked")
			result = &models.TrainingResult{
				Status: "failed",
				Error:  fmt.Sprintf("%v", r),
				Details: &models.ErrorDetails{
					ErrorType:  fmt.Sprintf("%T", r),
					StackTrace: string(debug.Stack()),
				},
			}
			err = nil
		}
	}()

	table, err := s.store.LoadPreferPreprocessed(req.Filename)
	if err != nil {
		return nil, err
	}
	if table.Rows() == 0 {
		return nil, fmt.Errorf("%w: %s has no rows", ErrEmptyDataset, req.Filename)
	}
	if !table.HasColumn(req.Target) {
		return nil, fmt.Errorf("%w: %q not in %v", ErrTargetNotFound, req.Target, table.ColumnNames())
	}

	table, err = table.DropMissingTarget(req.Target)
	if err != nil {
		return nil, err
	}
	if table.Rows() == 0 {
		return nil, fmt.Errorf("%w: no rows remain after dropping null targets", ErrEmptyDataset)
	}

	if len(req.Features) > 0 {
		var missing []string
		for _, f := range req.Features {
			if !table.HasColumn(f) {
				missing = append(missing, f)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return nil, fmt.Errorf("%w: %s", ErrUnknownFeature, strings.Join(missing, ", "))
		}
		keep := append(append([]string{}, req.Features...), req.Target)
		table, err = table.Select(keep)
		if err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(s.modelDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create model directory: %w", err)
	}

	problemType := req.ProblemType
	if problemType == "" {
		verdict := analysis.Analyze(table, req.Target, s.multiclassThreshold)
		problemType = string(verdict.ProblemType)
	}
	branch := models.ParseBranch(problemType)

	log.Info().
		Str("filename", req.Filename).
		Str("target", req.Target).
		Str("problem_type", problemType).
		Msg("Starting model search")

	enc, err := automl.FitEncoder(table, req.Target, branch == models.BranchClassification)
	if err != nil {
		return failedResult(err), nil
	}
	X, err := enc.Transform(table)
	if err != nil {
		return failedResult(err), nil
	}
	y, err := enc.TargetVector(table)
	if err != nil {
		return failedResult(err), nil
	}

	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	best, rows, err := automl.Compare(X, y, branch, len(enc.Classes), seed)
	if err != nil {
		return failedResult(err), nil
	}

	tuned, err := automl.Tune(best, X, y, branch, len(enc.Classes), seed)
	if err != nil {
		if errors.Is(err, automl.ErrEmptyParamGrid) {
			log.Debug().Str("model", best.Name()).Msg("No parameter grid, keeping untuned model")
		} else {
			log.Warn().Err(err).Str("model", best.Name()).Msg("Tuning failed, keeping untuned model")
		}
		tuned = best
	}

	modelID := "model_" + time.Now().Format("20060102_150405")
	path := filepath.Join(s.modelDir, modelID+".gob")
	bundle := &Bundle{
		Family:        branch,
		EstimatorName: tuned.Name(),
		Estimator:     tuned,
		Encoder:       enc,
		TargetColumn:  req.Target,
		Metrics:       rows,
		CreatedAt:     time.Now().UTC(),
	}
	if err := SaveBundle(path, bundle); err != nil {
		return failedResult(err), nil
	}

	if s.registry != nil {
		rec := &repositories.ModelRecord{
			ModelID:   modelID,
			Family:    string(branch),
			Estimator: tuned.Name(),
			Path:      path,
			Target:    req.Target,
			Metrics:   rows,
			CreatedAt: bundle.CreatedAt,
		}
		if err := s.registry.Create(ctx, rec); err != nil {
			log.Warn().Err(err).Str("model_id", modelID).Msg("Failed to index model in registry")
		}
	}

	log.Info().Str("model_id", modelID).Str("model", tuned.Name()).Msg("Model search completed")

	return &models.TrainingResult{
		ModelID:     modelID,
		ProblemType: problemType,
		Metrics:     rows,
		Status:      "completed",
	}, nil
}

func failedResult(err error) *models.TrainingResult {
	return &models.TrainingResult{
		Status: "failed",
		Error:  err.Error(),
		Details: &models.ErrorDetails{
			ErrorType:  fmt.Sprintf("%T", err),
			StackTrace: string(debug.Stack()),
		},
	}
}

// StartJob registers a new tracked training run and returns its ID.
func (s *TrainingService) StartJob(req TrainRequest) *models.TrainingJob {
	job := &models.TrainingJob{
		ID:          uuid.New().String(),
		Filename:    req.Filename,
		Target:      req.Target,
		ProblemType: req.ProblemType,
		Status:      models.JobStatusRunning,
		StartedAt:   time.Now().UTC(),
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
	return job
}

// FinishJob records the outcome of a tracked run.
func (s *TrainingService) FinishJob(jobID string, result *models.TrainingResult, runErr error) {
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return
	}
	job.FinishedAt = &now
	switch {
	case runErr != nil:
		job.Status = models.JobStatusFailed
		job.Error = runErr.Error()
	case result != nil && result.Status == "failed":
		job.Status = models.JobStatusFailed
		job.Error = result.Error
	default:
		job.Status = models.JobStatusCompleted
		if result != nil {
			job.ModelID = result.ModelID
			job.ProblemType = result.ProblemType
		}
	}
}

// Jobs returns a snapshot of all tracked runs, newest first.
func (s *TrainingService) Jobs() []models.TrainingJob {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.TrainingJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, *job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out
}

// Job returns one tracked run by ID.
func (s *TrainingService) Job(jobID string) (models.TrainingJob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return models.TrainingJob{}, false
	}
	return *job, true
}
