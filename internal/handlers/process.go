package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"video-streamer/internal/filesystem"
	"video-streamer/internal/logging"
	"video-streamer/internal/sandbox"
	"video-streamer/internal/transcoder"
)

// ProcessResponse is returned when a transcode job is triggered.
type ProcessResponse struct {
	Status  string `json:"status"`
	Key     string `json:"key"`
	RelPath string `json:"relpath"`
	JobID   string `json:"jobId,omitempty"`
}

// StartProcessing schedules a transcode job for a source file and returns at once.
// GET /process/{relpath}?adaptive=false
func (h *Handlers) StartProcessing(w http.ResponseWriter, r *http.Request) {
	relPath := mux.Vars(r)["relpath"]

	source, ok := h.resolveSourceFile(w, relPath)
	if !ok {
		return
	}

	adaptive := true
	if v := r.URL.Query().Get("adaptive"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeJSONError(w, "invalid adaptive value: "+v, http.StatusBadRequest)
			return
		}
		adaptive = parsed
	}

	rel := cleanRelPath(relPath)
	key := sandbox.KeyFor(rel)

	_, err := h.transcoder.StartJob(key, source, adaptive)
	switch {
	case err == nil:
		writeJSONStatus(w, ProcessResponse{
			Status:  "processing_started",
			Key:     key,
			RelPath: rel,
			JobID:   h.transcoder.Registry().Get(key).ID,
		}, http.StatusAccepted)
	case errors.Is(err, transcoder.ErrAlreadyProcessing):
		writeJSONStatus(w, ProcessResponse{
			Status:  "already_processing",
			Key:     key,
			RelPath: rel,
			JobID:   h.transcoder.Registry().Get(key).ID,
		}, http.StatusConflict)
	case errors.Is(err, transcoder.ErrShuttingDown):
		writeJSONError(w, "server is shutting down", http.StatusServiceUnavailable)
	default:
		logging.Error("Failed to start job for %s: %v", rel, err)
		writeJSONError(w, "failed to start processing", http.StatusInternalServerError)
	}
}

// GetStatus reports a key's job state and which renditions exist.
// GET /status/{key}
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if !sandbox.ValidKey(key) {
		writeJSONError(w, "invalid key", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, h.transcoder.Status(key))
}

// ProbeResponse is the metadata returned for one source file.
type ProbeResponse struct {
	RelPath string `json:"relpath"`
	Key     string `json:"key"`
	transcoder.VideoInfo
	DurationText string `json:"durationText"`
}

// ProbeMedia returns best-effort metadata for a source file.
// GET /probe/{relpath}
func (h *Handlers) ProbeMedia(w http.ResponseWriter, r *http.Request) {
	relPath := mux.Vars(r)["relpath"]

	source, ok := h.resolveSourceFile(w, relPath)
	if !ok {
		return
	}

	rel := cleanRelPath(relPath)
	info := h.transcoder.Probe(r.Context(), source)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, ProbeResponse{
		RelPath:      rel,
		Key:          sandbox.KeyFor(rel),
		VideoInfo:    info,
		DurationText: info.DurationString(),
	})
}

// resolveSourceFile resolves relPath to a regular file, writing the error
// response itself when that fails.
func (h *Handlers) resolveSourceFile(w http.ResponseWriter, relPath string) (string, bool) {
	source, err := h.resolver.Resolve(relPath)
	if err != nil {
		writePathError(w, relPath, err)
		return "", false
	}

	info, err := filesystem.StatWithRetry(source, filesystem.DefaultRetryConfig())
	if err != nil || !info.Mode().IsRegular() {
		writeJSONError(w, "file not found: "+relPath, http.StatusNotFound)
		return "", false
	}
	return source, true
}
