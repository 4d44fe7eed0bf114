package filesystem

// Observer records filesystem operation metrics. Implementations are provided
// by the metrics package to break the import cycle between filesystem and metrics.
type Observer interface {
	// ObserveOperation records duration and error status for a filesystem operation.
	// volume is the resolved volume label (e.g., "videos", "processed").
	// operation is the fs operation type: "stat", "open", "readdir".
	ObserveOperation(volume, operation string, durationSeconds float64, err error)

	ObserveRetryAttempt(retryOp, volume string)
	ObserveRetrySuccess(retryOp, volume string)
	ObserveRetryFailure(retryOp, volume string)
	ObserveStaleError(retryOp, volume string)
}

// defaultObserver is the package-level observer set at startup.
// If nil, metric recording is silently skipped (safe for tests).
var defaultObserver Observer

// SetObserver sets the package-level metrics observer.
// Call this once at startup after creating the observer implementation.
func SetObserver(o Observer) {
	defaultObserver = o
}

func observe() Observer {
	return defaultObserver
}
