package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"video-streamer/internal/logging"
	"video-streamer/internal/media"
	"video-streamer/internal/sandbox"
)

// writeJSON encodes v as JSON and writes it to the response writer.
// Any encoding or write errors are logged since we typically cannot
// recover from them in an HTTP handler context.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, map[string]string{"error": message})
}

// writeJSONStatus writes a JSON object with the given status code.
func writeJSONStatus(w http.ResponseWriter, v interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, v)
}

// writePathError maps resolution failures onto 403/404/500.
func writePathError(w http.ResponseWriter, relPath string, err error) {
	switch {
	case errors.Is(err, sandbox.ErrForbidden):
		logging.Warn("Rejected path outside content root: %q", relPath)
		writeJSONError(w, "forbidden path", http.StatusForbidden)
	case errors.Is(err, sandbox.ErrNotFound):
		writeJSONError(w, "file not found: "+relPath, http.StatusNotFound)
	case errors.Is(err, media.ErrNotDirectory):
		writeJSONError(w, "not a directory: "+relPath, http.StatusNotFound)
	default:
		logging.Error("Failed to resolve %q: %v", relPath, err)
		writeJSONError(w, "internal server error", http.StatusInternalServerError)
	}
}
