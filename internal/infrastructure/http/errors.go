package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// ErrorResponse represents a standardized error response format.
type ErrorResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

// WriteError writes a standardized JSON error response.
func WriteError(w http.ResponseWriter, statusCode int, message string, errs []string, log *slog.Logger) {
	WriteJSON(w, statusCode, ErrorResponse{
		Message: message,
		Errors:  errs,
	}, log)
}

// WriteJSON writes body as JSON with the given status. Encoding failures are
// only logged since the status line is already on the wire.
func WriteJSON(w http.ResponseWriter, statusCode int, body any, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil && log != nil {
		log.Error("failed to encode response", "error", err, "status", statusCode)
	}
}

// WriteRawJSON writes an already encoded JSON document. Non-JSON payloads are
// sent as a JSON string so the response stays parseable.
func WriteRawJSON(w http.ResponseWriter, statusCode int, raw []byte, log *slog.Logger) {
	if len(raw) == 0 {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(statusCode)
		return
	}
	if !json.Valid(raw) {
		WriteJSON(w, statusCode, string(raw), log)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if _, err := w.Write(raw); err != nil && log != nil {
		log.Error("failed to write response", "error", err, "status", statusCode)
	}
}

// UpstreamFailure is implemented by errors that carry the status and body of
// a failed SaludPlus answer.
type UpstreamFailure interface {
	error
	UpstreamStatus() int
	UpstreamBody() json.RawMessage
}

// AsUpstreamFailure finds an UpstreamFailure in err's chain.
func AsUpstreamFailure(err error) (UpstreamFailure, bool) {
	var failure UpstreamFailure
	if errors.As(err, &failure) {
		return failure, true
	}
	return nil, false
}
