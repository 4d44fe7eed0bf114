package metrics

// Volumes are the filesystem volume labels the server resolves paths to.
var Volumes = []string{"videos", "processed", "database", "unknown"}

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics(qualities []string) {
	// --- Filesystem operation metrics (per volume × operation) ---
	fsOps := []string{"stat", "open", "readdir"}

	for _, vol := range Volumes {
		for _, op := range fsOps {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
		}
	}

	// --- Streaming ---
	for _, kind := range []string{"direct", "adaptive"} {
		for _, outcome := range []string{"full", "partial", "unsatisfiable", "not_found"} {
			StreamResponsesTotal.WithLabelValues(kind, outcome)
		}
		StreamBytesTotal.WithLabelValues(kind)
	}
	for _, reason := range []string{"client_gone", "write_timeout", "truncated", "read_error"} {
		StreamErrorsTotal.WithLabelValues(reason)
	}

	// --- Jobs ---
	for _, state := range []string{"completed", "error"} {
		TranscoderJobsTotal.WithLabelValues(state)
	}
	for _, state := range []string{"not_started", "processing", "completed", "error"} {
		TranscoderJobsByState.WithLabelValues(state)
	}
	for _, reason := range []string{"already_processing", "shutting_down"} {
		TranscoderJobsRejected.WithLabelValues(reason)
	}
	for _, kind := range []string{"mp4", "hls"} {
		EncoderDuration.WithLabelValues(kind)
		for _, q := range qualities {
			for _, result := range []string{"success", "failure", "timeout", "skipped"} {
				EncoderInvocationsTotal.WithLabelValues(kind, q, result)
			}
		}
	}

	// --- Probe and cache ---
	for _, result := range []string{"success", "failure", "timeout", "cache_hit"} {
		ProbeTotal.WithLabelValues(result)
	}
	for _, op := range []string{"get_probe", "put_probe", "prune_probes", "initialize_schema"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, status := range []string{"success", "error"} {
		PosterGenerationsTotal.WithLabelValues(status)
	}
	for _, status := range []string{"success", "failure", "missing"} {
		AuthAttemptsTotal.WithLabelValues(status)
	}
}
