package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
)

const maxJSONBodyBytes = 1 << 20 // 1MB

// envelope is the body of every JSON response.
type envelope struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       any    `json:"data,omitempty"`
}

// writeJSON sends a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("write JSON response", "error", err)
	}
}

// writeEnvelope sends {statusCode, message, data}. The status code is
// repeated in the body.
func writeEnvelope(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{StatusCode: status, Message: message, Data: data})
}

// readJSON decodes the request body into the given destination.
// An empty body decodes to the zero value.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
