package proxy

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"textsummarizer/internal/summarizer"
)

type summarizeRequest struct {
	Text string `json:"text"`
}

type summarizeResponse struct {
	Summary string    `json:"summary,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Kind    summarizer.Kind `json:"kind"`
	Message string          `json:"message"`
}

type summarizeHandler struct {
	client runner
	log    *slog.Logger
}

func (h *summarizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		h.log.DebugContext(r.Context(), "Summarize request body is rejected",
			"error", err,
			"requestID", requestIDFromContext(r.Context()))

		writeJSON(w, http.StatusBadRequest, summarizeResponse{Error: &apiError{
			Kind:    summarizer.KindInvalidInput,
			Message: `Request body must be a JSON object with a "text" field.`,
		}})

		return
	}

	outcome := h.client.Run(r.Context(), req.Text)
	if outcome.OK() {
		writeJSON(w, http.StatusOK, summarizeResponse{Summary: outcome.Summary})
		return
	}

	writeJSON(w, statusForKind(outcome.Kind()), summarizeResponse{Error: &apiError{
		Kind:    outcome.Kind(),
		Message: outcome.Failure.Message,
	}})
}

func statusForKind(kind summarizer.Kind) int {
	switch kind {
	case summarizer.KindInvalidInput:
		return http.StatusBadRequest
	case summarizer.KindMissingCredential:
		return http.StatusInternalServerError
	case summarizer.KindModelLoading:
		return http.StatusServiceUnavailable
	case summarizer.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
