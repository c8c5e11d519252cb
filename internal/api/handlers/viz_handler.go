package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/theblitlabs/automl-studio/internal/dataset"
	"github.com/theblitlabs/automl-studio/internal/models"
	"github.com/theblitlabs/automl-studio/internal/services"
	"github.com/theblitlabs/automl-studio/internal/visualization"
)

type visualizeRequest struct {
	Filename   string   `json:"filename"`
	ChartTypes []string `json:"chart_types,omitempty"`
}

type visualizeResponse struct {
	ModelID          string                      `json:"model_id"`
	Predictions      []any                       `json:"predictions"`
	TotalPredictions int                         `json:"total_predictions"`
	Truncated        bool                        `json:"truncated"`
	Charts           map[string]models.ChartSpec `json:"charts"`
}

const maxReturnedPredictions = 100

// PredictAndVisualize scores a stored dataset with a trained model and
// returns the chart catalog alongside the first hundred predictions. Chart
// failures surface per chart; one broken chart never hides the others.
func (h *StudioHandler) PredictAndVisualize(w http.ResponseWriter, r *http.Request) {
	modelID := mux.Vars(r)["model_id"]

	var req visualizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Filename == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "filename is required")
		return
	}

	bundle, err := h.models.Load(r.Context(), modelID)
	if err != nil {
		writeModelError(w, modelID, err)
		return
	}

	table, err := h.store.LoadPreferPreprocessed(req.Filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusNotFound, "dataset_not_found", "dataset "+req.Filename+" not found")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_format", err.Error())
		return
	}

	var resp *visualizeResponse
	var buildErr error
	if err := h.models.Do(r.Context(), func() {
		resp, buildErr = h.buildVisualization(modelID, bundle, table, req.ChartTypes)
	}); err != nil {
		writeError(w, http.StatusServiceUnavailable, "busy", "no prediction capacity available")
		return
	}
	if buildErr != nil {
		writeError(w, http.StatusBadRequest, "prediction_failed", buildErr.Error())
		return
	}

	h.metrics.ObservePredictions(modelID, resp.TotalPredictions)
	writeJSON(w, http.StatusOK, resp)
}

func (h *StudioHandler) buildVisualization(modelID string, bundle *services.Bundle, table *dataset.Table, chartTypes []string) (*visualizeResponse, error) {
	X, err := bundle.Encoder.Transform(table)
	if err != nil {
		return nil, err
	}
	raw, err := bundle.Estimator.Predict(X)
	if err != nil {
		return nil, err
	}

	in := visualization.Input{
		Estimator:   bundle.Estimator,
		Encoder:     bundle.Encoder,
		Family:      bundle.Family,
		Table:       table,
		X:           X,
		Predictions: raw,
		ChartTypes:  chartTypes,
	}
	// actuals are optional: the scoring dataset may omit the target column
	if table.HasColumn(bundle.TargetColumn) {
		if actuals, err := bundle.Encoder.TargetVector(table); err == nil {
			in.Actuals = actuals
			in.HasActuals = true
		}
	}

	report := visualization.Build(in)

	classification := bundle.Family == models.BranchClassification
	preds := make([]any, 0, maxReturnedPredictions)
	for i, v := range raw {
		if i >= maxReturnedPredictions {
			break
		}
		if classification {
			preds = append(preds, bundle.Encoder.ClassLabel(v))
		} else {
			preds = append(preds, v)
		}
	}

	return &visualizeResponse{
		ModelID:          modelID,
		Predictions:      preds,
		TotalPredictions: len(raw),
		Truncated:        len(raw) > maxReturnedPredictions,
		Charts:           report.Charts,
	}, nil
}
