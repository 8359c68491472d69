package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"erp-sales/internal/core"
	"erp-sales/internal/lock"
)

type errorResponse struct {
	Error     string            `json:"error"`
	Code      string            `json:"code"`
	Fields    []core.FieldError `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	writeErrorResponse(w, r, status, errorResponse{Error: message, Code: code})
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, status int, resp errorResponse) {
	resp.RequestID = requestIDFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// writeServiceError maps a service error onto its HTTP status and code.
// Unclassified errors are logged and answered with a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	var (
		validationErr *core.ValidationError
		notFoundErr   *core.NotFoundError
		stateErr      *core.InvalidStateError
		conflictErr   *core.ConflictError
		limitErr      *core.LimitExceededError
	)
	switch {
	case errors.As(err, &validationErr):
		writeErrorResponse(w, r, http.StatusUnprocessableEntity, errorResponse{
			Error:  err.Error(),
			Code:   "VALIDATION_FAILED",
			Fields: validationErr.Fields,
		})
	case errors.As(err, &notFoundErr):
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.As(err, &stateErr):
		writeError(w, r, err.Error(), "INVALID_STATE", http.StatusConflict)
	case errors.As(err, &conflictErr):
		writeError(w, r, err.Error(), "CONFLICT", http.StatusConflict)
	case errors.As(err, &limitErr):
		writeError(w, r, err.Error(), "LIMIT_EXCEEDED", http.StatusConflict)
	case errors.Is(err, lock.ErrLocked):
		writeError(w, r, err.Error(), "LOCKED", http.StatusConflict)
	default:
		log.Error().Err(err).
			Str("request_id", requestIDFromContext(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

// writeCreated writes a JSON response with status 201.
func writeCreated(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusCreated, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
