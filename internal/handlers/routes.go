package handlers

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes adds every endpoint to r.
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	// Health and version
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// Listings
	r.HandleFunc("/browse", h.RequireBrowseAuth(h.Browse)).Methods("GET")
	r.HandleFunc("/videos", h.RequireBrowseAuth(h.ListVideos)).Methods("GET")

	// Streaming
	r.HandleFunc("/media/{relpath:.+}", h.StreamMedia).Methods("GET", "HEAD")
	r.HandleFunc("/adaptive/{key}/{subpath:.+}", h.StreamAdaptive).Methods("GET", "HEAD")
	r.HandleFunc("/poster/{key}", h.GetPoster).Methods("GET", "HEAD")

	// Jobs
	r.HandleFunc("/process/{relpath:.+}", h.StartProcessing).Methods("GET", "POST")
	r.HandleFunc("/status/{key}", h.GetStatus).Methods("GET")
	r.HandleFunc("/probe/{relpath:.+}", h.ProbeMedia).Methods("GET")
	r.HandleFunc("/reindex", h.RequireBrowseAuth(h.TriggerReindex)).Methods("POST")
}
