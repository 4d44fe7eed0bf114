package workers

import (
	"runtime"
)

// Count returns a worker count scaled from GOMAXPROCS, which follows
// container CPU limits (Go 1.19+).
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound tasks
//   - below 1.0 for tasks that are themselves multi-threaded (an encoder
//     process already uses every core it can get)
//
// The result is at least 1. The limit parameter caps the worker count;
// use 0 for no limit.
func Count(multiplier float64, limit int) int {
	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForCPU returns worker count for CPU-bound tasks (1 per CPU).
// The limit parameter caps the maximum number of workers.
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForEncoder returns the number of transcode jobs to run at once: one per
// four CPUs, since each external encoder is multi-threaded.
func ForEncoder(limit int) int {
	return Count(0.25, limit)
}
