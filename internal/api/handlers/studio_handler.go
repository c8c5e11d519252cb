package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/theblitlabs/automl-studio/internal/config"
	"github.com/theblitlabs/automl-studio/internal/dataset"
	"github.com/theblitlabs/automl-studio/internal/insight"
	"github.com/theblitlabs/automl-studio/internal/services"
	"github.com/theblitlabs/automl-studio/internal/telemetry"
)

// StudioHandler serves the full HTTP surface: dataset ingestion, analysis,
// training, model inspection, prediction, visualization and AI commentary.
type StudioHandler struct {
	cfg      *config.Config
	store    *dataset.Store
	training *services.TrainingService
	models   *services.ModelService
	ai       *insight.Client
	metrics  *telemetry.Metrics
	upgrader websocket.Upgrader
}

func NewStudioHandler(
	cfg *config.Config,
	store *dataset.Store,
	training *services.TrainingService,
	models *services.ModelService,
	ai *insight.Client,
	metrics *telemetry.Metrics,
) *StudioHandler {
	return &StudioHandler{
		cfg:      cfg,
		store:    store,
		training: training,
		models:   models,
		ai:       ai,
		metrics:  metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			// headers already sent, nothing recoverable
			return
		}
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: msg, Code: code})
}

func (h *StudioHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
