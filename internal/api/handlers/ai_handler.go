package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/theblitlabs/automl-studio/pkg/logger"
)

// AIStatus reports whether the commentary feature is configured.
func (h *StudioHandler) AIStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"available": h.ai.Available()})
}

func (h *StudioHandler) requireAI(w http.ResponseWriter) bool {
	if !h.ai.Available() {
		writeError(w, http.StatusBadRequest, "ai_unavailable", "AI commentary is not configured")
		return false
	}
	return true
}

type insightResponse struct {
	Insights string `json:"insights"`
}

type aiAnalysisRequest struct {
	Analysis json.RawMessage `json:"analysis"`
}

// AIInsights summarizes an analysis result in natural language.
func (h *StudioHandler) AIInsights(w http.ResponseWriter, r *http.Request) {
	if !h.requireAI(w) {
		return
	}
	var req aiAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Analysis) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "analysis is required")
		return
	}

	text, err := h.ai.DataInsights(r.Context(), string(req.Analysis))
	if err != nil {
		log := logger.WithComponent("ai")
		log.Warn().Err(err).Msg("Insight generation failed")
		writeError(w, http.StatusBadGateway, "ai_failed", "failed to generate insights")
		return
	}
	writeJSON(w, http.StatusOK, insightResponse{Insights: text})
}

type explainModelRequest struct {
	ProblemType string          `json:"problem_type"`
	BestModel   string          `json:"best_model"`
	Metrics     json.RawMessage `json:"metrics"`
}

// AIExplainModel turns a training leaderboard into a plain-language summary.
func (h *StudioHandler) AIExplainModel(w http.ResponseWriter, r *http.Request) {
	if !h.requireAI(w) {
		return
	}
	var req explainModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	text, err := h.ai.ExplainModel(r.Context(), req.ProblemType, req.BestModel, string(req.Metrics))
	if err != nil {
		log := logger.WithComponent("ai")
		log.Warn().Err(err).Msg("Model explanation failed")
		writeError(w, http.StatusBadGateway, "ai_failed", "failed to explain model")
		return
	}
	writeJSON(w, http.StatusOK, insightResponse{Insights: text})
}

// AIRecommendations suggests next steps for a dataset.
func (h *StudioHandler) AIRecommendations(w http.ResponseWriter, r *http.Request) {
	if !h.requireAI(w) {
		return
	}
	var req aiAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Analysis) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "analysis is required")
		return
	}

	text, err := h.ai.Recommendations(r.Context(), string(req.Analysis))
	if err != nil {
		log := logger.WithComponent("ai")
		log.Warn().Err(err).Msg("Recommendation generation failed")
		writeError(w, http.StatusBadGateway, "ai_failed", "failed to generate recommendations")
		return
	}
	writeJSON(w, http.StatusOK, insightResponse{Insights: text})
}

type askRequest struct {
	Question string          `json:"question"`
	Context  json.RawMessage `json:"context,omitempty"`
}

// AIAsk answers a free-form question, optionally grounded in prior results.
func (h *StudioHandler) AIAsk(w http.ResponseWriter, r *http.Request) {
	if !h.requireAI(w) {
		return
	}
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "question is required")
		return
	}

	text, err := h.ai.Ask(r.Context(), req.Question, string(req.Context))
	if err != nil {
		log := logger.WithComponent("ai")
		log.Warn().Err(err).Msg("Question answering failed")
		writeError(w, http.StatusBadGateway, "ai_failed", "failed to answer question")
		return
	}
	writeJSON(w, http.StatusOK, insightResponse{Insights: text})
}
