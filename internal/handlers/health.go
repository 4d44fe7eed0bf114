package handlers

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"video-streamer/internal/indexer"
	"video-streamer/internal/startup"
)

const (
	statusHealthy     = "healthy"
	statusUnavailable = "unavailable"
	statusStopping    = "stopping"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Error   string `json:"error,omitempty"`

	// Job registry counts
	JobsProcessing int `json:"jobsProcessing"`
	JobsCompleted  int `json:"jobsCompleted"`
	JobsFailed     int `json:"jobsFailed"`

	// Probe cache warm-up, present when background probing is enabled
	Indexer *indexer.HealthStatus `json:"indexer,omitempty"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// readiness reports whether the content root is reachable and jobs are accepted.
func (h *Handlers) readiness() (string, string) {
	if h.transcoder.ShuttingDown() {
		return statusStopping, "shutting down"
	}
	info, err := os.Stat(h.resolver.Root())
	if err != nil {
		return statusUnavailable, "content root unavailable"
	}
	if !info.IsDir() {
		return statusUnavailable, "content root is not a directory"
	}
	return statusHealthy, ""
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	status, problem := h.readiness()
	stats := h.transcoder.Registry().GetStats()

	response := HealthResponse{
		Status:         status,
		Ready:          status == statusHealthy,
		Version:        startup.Version,
		Uptime:         time.Since(h.startTime).Round(time.Second).String(),
		Error:          problem,
		JobsProcessing: stats.Processing,
		JobsCompleted:  stats.Completed,
		JobsFailed:     stats.Error,
		GoVersion:      runtime.Version(),
		NumCPU:         runtime.NumCPU(),
		NumGoroutine:   runtime.NumGoroutine(),
	}
	if h.indexer != nil {
		indexStatus := h.indexer.GetHealthStatus()
		response.Indexer = &indexStatus
	}

	code := http.StatusOK
	if !response.Ready {
		code = http.StatusServiceUnavailable
	}
	writeJSONStatus(w, response, code)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only when the service is ready to accept traffic
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if status, problem := h.readiness(); status != statusHealthy {
		writeJSONStatus(w, map[string]string{
			"status": "not_ready",
			"error":  problem,
		}, http.StatusServiceUnavailable)
		return
	}
	writeJSONStatus(w, map[string]string{"status": "ready"}, http.StatusOK)
}
