package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/FR-TheFury/medic-ai-sub000/internal/core"
	"github.com/FR-TheFury/medic-ai-sub000/internal/infrastructure/apiclient"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) writeMessage(w http.ResponseWriter, status int, message, field string) {
	h.writeJSON(w, status, ErrorResponse{Error: message, Field: field})
}

// writeError maps a service error onto its HTTP status.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message, field := classify(err)
	if status >= http.StatusInternalServerError {
		h.logger.Warn("Request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	h.writeMessage(w, status, message, field)
}

func classify(err error) (status int, message, field string) {
	var (
		validationErr *core.ValidationError
		parseErr      *core.ParseError
		predictionErr *core.PredictionError
		apiErr        *apiclient.APIError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, validationErr.Message, validationErr.Field
	case errors.As(err, &parseErr):
		return http.StatusBadRequest, parseErr.Error(), "file"
	case errors.Is(err, core.ErrFormBusy):
		return http.StatusConflict, "A submission is already in progress", ""
	case errors.Is(err, core.ErrInvalidPreferences):
		return http.StatusBadRequest, err.Error(), "fontSize"
	case errors.Is(err, core.ErrNotAuthenticated):
		return http.StatusUnauthorized, "Authentication required", ""
	case errors.As(err, &predictionErr):
		if errors.As(predictionErr.Err, &apiErr) && passThrough(apiErr.Status) {
			return apiErr.Status, predictionErr.Message, ""
		}
		return http.StatusBadGateway, predictionErr.Message, ""
	case errors.As(err, &apiErr):
		if passThrough(apiErr.Status) {
			return apiErr.Status, apiErr.Message(), ""
		}
		return http.StatusBadGateway, apiclient.MessageOf(err, apiclient.FallbackMessage), ""
	}
	return http.StatusInternalServerError, "Internal server error", ""
}

// passThrough reports the backend statuses answered as they are.
func passThrough(status int) bool {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &core.ValidationError{Field: "body", Message: "Invalid request body"}
	}
	return nil
}
