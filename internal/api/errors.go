package api

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// ErrorResponse is the JSON body returned for every handled failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Fixed messages used in error bodies.
const (
	msgBakeryNotFound    = "Bakery not found"
	msgNoBakedGoodsFound = "No baked goods found"
	msgInternal          = "internal server error"
	msgUnavailable       = "service unavailable"
)

// encodeJSON encodes v followed by a newline. HTML characters such as &
// are written literally rather than as \u0026 escapes.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := encodeJSON(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"` + msgInternal + `"}` + "\n")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // Best-effort write to response; connection may be closed
	w.Write(body)
}

// writeError writes an {"error": message} response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, msgInternal)
}
