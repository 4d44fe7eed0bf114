package handlers

import (
	"net/http"
)

// TriggerReindex queues a probe cache warm-up pass over the whole library.
func (h *Handlers) TriggerReindex(w http.ResponseWriter, _ *http.Request) {
	if h.indexer == nil {
		writeJSONError(w, "background probing is disabled", http.StatusNotFound)
		return
	}

	if h.indexer.IsIndexing() {
		writeJSONStatus(w, map[string]string{
			"status":  "already_running",
			"message": "Probe warm-up is already in progress",
		}, http.StatusOK)
		return
	}

	h.indexer.TriggerIndex()

	writeJSONStatus(w, map[string]string{
		"status":  "started",
		"message": "Probe warm-up queued",
	}, http.StatusAccepted)
}
