package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"finova/internal/auth"
	"finova/internal/core"
	"finova/internal/storage"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// writeServiceError maps domain errors to HTTP statuses. Unknown
// errors become opaque 500s so internals never leak to clients.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var authErr *auth.Error
	var validationErr *core.ValidationError
	switch {
	case errors.As(err, &authErr):
		writeError(w, authStatus(authErr.Code), authErr.Code, authErr.Message())
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: errorDetail{
			Message: "Validation failed.",
			Fields:  validationErr.Fields,
		}})
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "", "Transaction not found.")
	default:
		slog.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "", auth.GenericMessage)
	}
}

func authStatus(code string) int {
	switch code {
	case auth.CodeInvalidEmail, auth.CodeWeakPassword:
		return http.StatusBadRequest
	case auth.CodeEmailInUse:
		return http.StatusConflict
	case auth.CodeUserNotFound, auth.CodeWrongPassword, auth.CodeInvalidCredential, auth.CodeInvalidToken:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "", "Invalid request body.")
		return false
	}
	return true
}
