package models

import "time"

// MetricsRow is one candidate family's scores from the model search.
type MetricsRow struct {
	Model  string             `json:"Model"`
	Scores map[string]float64 `json:"scores"`
}

// TrainingResult is returned for every training run. Failures are reported
// as data rather than raised, so long-running searches still surface their
// diagnostics to the caller.
type TrainingResult struct {
	ModelID     string        `json:"model_id,omitempty"`
	ProblemType string        `json:"model_type,omitempty"`
	Metrics     []MetricsRow  `json:"metrics,omitempty"`
	Status      string        `json:"status"`
	Error       string        `json:"error,omitempty"`
	Details     *ErrorDetails `json:"details,omitempty"`
}

type ErrorDetails struct {
	ErrorType  string `json:"error_type"`
	StackTrace string `json:"stack_trace"`
}

type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// TrainingJob tracks one dispatched training run for the status probe and
// the WebSocket stream.
type TrainingJob struct {
	ID          string     `json:"id"`
	Filename    string     `json:"filename"`
	Target      string     `json:"target"`
	ProblemType string     `json:"problem_type"`
	Status      JobStatus  `json:"status"`
	ModelID     string     `json:"model_id,omitempty"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// PredictionResult carries ordered predictions for a single record or batch.
type PredictionResult struct {
	ModelID     string `json:"model_id"`
	Predictions []any  `json:"predictions"`
	Status      string `json:"status"`
}
