package handlers

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/gorilla/mux"

	"video-streamer/internal/logging"
	"video-streamer/internal/sandbox"
	"video-streamer/internal/streaming"
)

// StreamMedia serves a source file or one of its MP4 renditions.
// GET /media/{relpath}?quality=720p
func (h *Handlers) StreamMedia(w http.ResponseWriter, r *http.Request) {
	relPath := mux.Vars(r)["relpath"]

	source, err := h.resolver.Resolve(relPath)
	if err != nil {
		writePathError(w, relPath, err)
		return
	}

	key := sandbox.KeyFor(cleanRelPath(relPath))
	target, quality := h.transcoder.Selector().Select(key, source, r.URL.Query().Get("quality"))
	if quality != "" {
		logging.Debug("Serving %s rendition of %s", quality, relPath)
	}

	h.serveFile(w, r, target, streaming.KindDirect, relPath)
}

// serveFile streams p and renders a 404 when it is missing. Every other
// outcome has already been written by the streamer.
func (h *Handlers) serveFile(w http.ResponseWriter, r *http.Request, p string, kind streaming.Kind, label string) {
	err := h.streamer.ServeFile(w, r, p, kind)
	switch {
	case err == nil:
	case errors.Is(err, streaming.ErrNotFound):
		writeJSONError(w, "file not found: "+label, http.StatusNotFound)
	case streaming.IsClientError(err):
		logging.Debug("Stream of %s ended early: %v", label, err)
	default:
		logging.Warn("Stream of %s failed: %v", label, err)
	}
}

// cleanRelPath normalizes a request path the way listings render it, so both
// derive the same key. Only call it after the raw path has been resolved.
func cleanRelPath(relPath string) string {
	return strings.Trim(path.Clean("/"+relPath), "/")
}
