package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/theblitlabs/automl-studio/internal/models"
	"github.com/theblitlabs/automl-studio/internal/services"
	"github.com/theblitlabs/automl-studio/pkg/logger"
)

// Train runs a model search synchronously through the bounded worker pool
// and returns the result. Failures inside the search come back as a 500
// carrying the structured failure body; precondition violations map to 4xx.
func (h *StudioHandler) Train(w http.ResponseWriter, r *http.Request) {
	var req services.TrainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Filename == "" || req.Target == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "filename and target_column are required")
		return
	}

	job := h.training.StartJob(req)
	start := time.Now()

	var result *models.TrainingResult
	var trainErr error
	if err := h.models.Do(r.Context(), func() {
		result, trainErr = h.training.Train(r.Context(), req)
	}); err != nil {
		h.training.FinishJob(job.ID, nil, err)
		writeError(w, http.StatusServiceUnavailable, "busy", "no training capacity available")
		return
	}
	h.training.FinishJob(job.ID, result, trainErr)

	if trainErr != nil {
		h.metrics.ObserveTraining(req.ProblemType, "rejected", time.Since(start))
		switch {
		case errors.Is(trainErr, os.ErrNotExist):
			writeError(w, http.StatusNotFound, "dataset_not_found", "dataset "+req.Filename+" not found")
		case errors.Is(trainErr, services.ErrTargetNotFound):
			writeError(w, http.StatusBadRequest, "target_not_found", trainErr.Error())
		case errors.Is(trainErr, services.ErrEmptyDataset):
			writeError(w, http.StatusBadRequest, "empty_dataset", trainErr.Error())
		case errors.Is(trainErr, services.ErrUnknownFeature):
			writeError(w, http.StatusBadRequest, "unknown_features", trainErr.Error())
		default:
			writeError(w, http.StatusInternalServerError, "training_failed", trainErr.Error())
		}
		return
	}

	h.metrics.ObserveTraining(result.ProblemType, result.Status, time.Since(start))
	status := http.StatusOK
	if result.Status == "failed" {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, result)
}

// TrainStatus reports the tracked training jobs plus pool configuration.
func (h *StudioHandler) TrainStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"jobs":         h.training.Jobs(),
		"workers":      h.cfg.Training.Workers,
		"max_duration": h.cfg.Training.MaxDuration.String(),
		"data_dir":     h.cfg.Storage.DataDir,
		"model_dir":    h.cfg.Storage.ModelDir,
	})
}

type wsMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// TrainJobsWS streams job status snapshots once per second until the client
// disconnects.
func (h *StudioHandler) TrainJobsWS(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("websocket")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Debug().Err(err).Msg("Connection closed")
				}
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteJSON(wsMessage{
				Type:    "training_jobs",
				Payload: h.training.Jobs(),
			}); err != nil {
				log.Debug().Err(err).Msg("Job snapshot send failed")
				return
			}
		}
	}
}

// GetModel returns registry and bundle metadata for one trained model.
func (h *StudioHandler) GetModel(w http.ResponseWriter, r *http.Request) {
	modelID := mux.Vars(r)["model_id"]

	info, err := h.models.Describe(r.Context(), modelID)
	if err != nil {
		writeModelError(w, modelID, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

type predictRequest struct {
	ModelID string          `json:"model_id"`
	Records json.RawMessage `json:"records"`
}

// decodeRecords accepts either a single JSON object or an array of objects.
func decodeRecords(raw json.RawMessage) ([]map[string]any, error) {
	var batch []map[string]any
	if err := json.Unmarshal(raw, &batch); err == nil {
		return batch, nil
	}
	var single map[string]any
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, err
	}
	return []map[string]any{single}, nil
}

// Predict scores one record or a batch against a trained model, preserving
// input order.
func (h *StudioHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ModelID == "" || len(req.Records) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "model_id and records are required")
		return
	}

	records, err := decodeRecords(req.Records)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "records must be an object or an array of objects")
		return
	}

	var result *models.PredictionResult
	var predErr error
	if err := h.models.Do(r.Context(), func() {
		result, predErr = h.models.Predict(r.Context(), req.ModelID, records)
	}); err != nil {
		writeError(w, http.StatusServiceUnavailable, "busy", "no prediction capacity available")
		return
	}
	if predErr != nil {
		writeModelError(w, req.ModelID, predErr)
		return
	}

	h.metrics.ObservePredictions(req.ModelID, len(result.Predictions))
	writeJSON(w, http.StatusOK, result)
}

func writeModelError(w http.ResponseWriter, modelID string, err error) {
	switch {
	case errors.Is(err, services.ErrModelNotFound):
		writeError(w, http.StatusNotFound, "model_not_found", "model "+modelID+" not found")
	case errors.Is(err, services.ErrModelLoad):
		writeError(w, http.StatusInternalServerError, "model_load_failed", err.Error())
	case errors.Is(err, services.ErrPrediction):
		writeError(w, http.StatusBadRequest, "prediction_failed", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
