package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/ogpblog/internal/common"
)

type errorResponse struct {
	Error     string `json:"error"`
	Retryable *bool  `json:"retryable,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

func respondRetryable(w http.ResponseWriter, status int, message string, retryable bool) {
	respondJSON(w, status, errorResponse{Error: message, Retryable: &retryable})
}

const unavailableMessage = "Service temporarily unavailable, please try again"

// statusFor maps an error kind to an HTTP status. Transient failures become
// 503 only where the endpoint advertises it; elsewhere they are plain 500s.
func statusFor(kind common.Kind, allowUnavailable bool) int {
	switch kind {
	case common.KindValidation:
		return http.StatusBadRequest
	case common.KindNotFound:
		return http.StatusNotFound
	case common.KindConflict:
		return http.StatusConflict
	case common.KindTransient:
		if allowUnavailable {
			return http.StatusServiceUnavailable
		}
	}
	return http.StatusInternalServerError
}

// writeServiceError renders err as a JSON error. fallback is the message for
// failures that must not leak internals.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string, allowUnavailable bool) {
	kind := common.KindOf(err)
	status := statusFor(kind, allowUnavailable)

	switch status {
	case http.StatusBadRequest:
		respondError(w, status, common.MessageOf(err))
	case http.StatusNotFound:
		respondError(w, status, "Post not found")
	case http.StatusConflict:
		respondRetryable(w, status, common.MessageOf(err), common.IsRetryable(err))
	case http.StatusServiceUnavailable:
		h.logger.Warn(r.Context(), fallback, "error", err)
		respondRetryable(w, status, unavailableMessage, true)
	default:
		h.logger.Error(r.Context(), fallback, "error", err)
		respondError(w, status, fallback)
	}
}
