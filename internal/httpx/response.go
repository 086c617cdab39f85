// Package httpx holds the JSON response helpers shared by the handlers and
// the auth middleware, plus the single table that maps domain errors to
// HTTP status codes.
package httpx

// CONSISTENT ERROR FORMAT:
// Every error response from the API has the same shape:
//
//	{"error": "not_found", "message": "blog with id 7 does not exist"}
//
// Clients can always parse the same two fields, whatever the status code.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/blog-api/internal/apperror"
)

// ErrorResponse is the standard error body returned by every endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`           // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"`         // Human-readable description
	Field   string `json:"field,omitempty"` // Offending field for validation and conflict errors
}

// mapping is one row of the error table.
type mapping struct {
	target    error
	status    int
	errorType string
}

// errorTable is checked top to bottom with errors.Is.
// InvalidCredentials sits above Unauthorized so a failed login keeps its own
// error type even though both are 401.
var errorTable = []mapping{
	{apperror.ErrValidation, http.StatusBadRequest, "validation_error"},
	{apperror.ErrConflict, http.StatusBadRequest, "conflict"},
	{apperror.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{apperror.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{apperror.ErrForbidden, http.StatusForbidden, "forbidden"},
	{apperror.ErrNotFound, http.StatusNotFound, "not_found"},
}

// WriteJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and the status code must be set BEFORE the body is written.
// Once Encode calls w.Write(), later header changes are silently ignored.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent, all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// WriteNoContent sends a bare 204.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// StatusOf returns the HTTP status and error type for err.
// Errors that are not in the table map to 500 / internal_error.
func StatusOf(err error) (int, string) {
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			return m.status, m.errorType
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

// WriteError maps a domain error to an HTTP response.
//
// The service layer knows nothing about status codes; this is the only place
// where apperror sentinels turn into 4xx/5xx. Every 401 carries a
// WWW-Authenticate: Bearer challenge.
//
// Unknown errors are logged and answered with a generic 500. The raw error
// never reaches the client: it may contain SQL or file paths.
func WriteError(w http.ResponseWriter, err error) {
	status, errorType := StatusOf(err)

	var appErr *apperror.AppError
	if status == http.StatusInternalServerError || !errors.As(err, &appErr) {
		slog.Error("unhandled error", slog.String("error", err.Error()))
		WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}

	WriteJSON(w, status, ErrorResponse{
		Error:   errorType,
		Message: appErr.Message,
		Field:   appErr.Field,
	})
}

// DecodeJSON decodes the request body into dst. Unknown fields are ignored;
// a malformed body becomes a validation error.
func DecodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.ValidationFailed("body", "invalid JSON body: "+err.Error())
	}
	return nil
}
