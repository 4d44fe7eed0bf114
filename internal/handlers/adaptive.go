package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"video-streamer/internal/sandbox"
	"video-streamer/internal/streaming"
)

// StreamAdaptive serves a master playlist, variant playlist or segment from
// the key's HLS directory.
// GET /adaptive/{key}/{subpath}
func (h *Handlers) StreamAdaptive(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	key, subPath := vars["key"], vars["subpath"]

	if !sandbox.ValidKey(key) {
		writeJSONError(w, "forbidden path", http.StatusForbidden)
		return
	}

	hlsRoot, err := sandbox.New(h.transcoder.Layout().HLSDir(key))
	if err != nil {
		writeJSONError(w, "adaptive stream not found: "+key, http.StatusNotFound)
		return
	}

	target, err := hlsRoot.Resolve(subPath)
	if err != nil {
		writePathError(w, key+"/"+subPath, err)
		return
	}

	h.serveFile(w, r, target, streaming.KindAdaptive, key+"/"+subPath)
}

// GetPoster serves the poster frame written by the key's last job.
// GET /poster/{key}
func (h *Handlers) GetPoster(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if !sandbox.ValidKey(key) {
		writeJSONError(w, "invalid key", http.StatusBadRequest)
		return
	}

	h.serveFile(w, r, h.transcoder.Layout().PosterPath(key), streaming.KindDirect, key)
}
