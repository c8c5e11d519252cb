package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/mux"
	"github.com/theblitlabs/automl-studio/internal/analysis"
	"github.com/theblitlabs/automl-studio/internal/dataset"
	"github.com/theblitlabs/automl-studio/pkg/logger"
)

// Upload accepts a multipart CSV upload and persists it for later analysis
// and training. Re-uploading the same filename overwrites the stored copy.
func (h *StudioHandler) Upload(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("upload")

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Upload.MaxFileSize)
	if err := r.ParseMultipartForm(h.cfg.Upload.MaxFileSize); err != nil {
		writeError(w, http.StatusBadRequest, "upload_too_large", "file exceeds the upload size limit")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing_file", "multipart field 'file' is required")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		writeError(w, http.StatusBadRequest, "invalid_format", "only CSV files are supported")
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read_failed", "failed to read uploaded file")
		return
	}

	report, err := h.store.Ingest(content, header.Filename)
	if err != nil {
		if errors.Is(err, dataset.ErrDataFormat) {
			writeError(w, http.StatusBadRequest, "invalid_format", err.Error())
			return
		}
		log.Error().Err(err).Str("filename", header.Filename).Msg("Dataset ingestion failed")
		writeError(w, http.StatusInternalServerError, "ingest_failed", "failed to store dataset")
		return
	}

	h.metrics.ObserveUpload(len(content))
	log.Info().Str("filename", report.Filename).Int("rows", report.Rows).Msg("Dataset uploaded")
	writeJSON(w, http.StatusOK, report)
}

// Preprocess cleans a stored dataset and writes the derived copy next to it.
func (h *StudioHandler) Preprocess(w http.ResponseWriter, r *http.Request) {
	filename := mux.Vars(r)["filename"]

	report, err := h.store.Preprocess(filename)
	if err != nil {
		switch {
		case errors.Is(err, os.ErrNotExist):
			writeError(w, http.StatusNotFound, "dataset_not_found", "dataset "+filename+" not found")
		case errors.Is(err, dataset.ErrDataFormat):
			writeError(w, http.StatusBadRequest, "invalid_format", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "preprocess_failed", err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, report)
}

type analyzeRequest struct {
	Filename     string `json:"filename"`
	TargetColumn string `json:"target_column"`
	AIInsights   bool   `json:"ai_insights,omitempty"`
}

type analyzeResponse struct {
	*analysis.Verdict
	ABTest     *analysis.ABTestResult `json:"ab_test,omitempty"`
	AIInsights *string                `json:"ai_insights,omitempty"`
}

// Analyze reports dataset characteristics and, when a target column is
// given, infers the problem type. Optional LLM commentary degrades to null
// rather than failing the analysis.
func (h *StudioHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Filename == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "filename is required")
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
	if req.TargetColumn != "" && !table.HasColumn(req.TargetColumn) {
		writeError(w, http.StatusBadRequest, "target_not_found", "target column "+req.TargetColumn+" not found")
		return
	}

	verdict := analysis.Analyze(table, req.TargetColumn, h.cfg.Training.MulticlassThreshold)
	resp := analyzeResponse{Verdict: verdict}

	if table.HasColumn("group") && table.HasColumn("outcome") {
		resp.ABTest = analysis.RunABTest(table)
	}

	if req.AIInsights && h.ai.Available() {
		verdictJSON, _ := json.Marshal(verdict)
		commentary, err := h.ai.DataInsights(r.Context(), string(verdictJSON))
		if err != nil {
			log := logger.WithComponent("analyze")
			log.Warn().Err(err).Msg("AI commentary failed")
		} else {
			resp.AIInsights = &commentary
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
