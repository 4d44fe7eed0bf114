// Package memory configures the Go runtime's soft memory limit and reports
// heap pressure to background work.
//
// # Configuration
//
// Call [ConfigureFromEnv] early in main, before significant allocations:
//
//	func main() {
//	    memory.ConfigureFromEnv()
//	    // ...
//	}
//
// The environment variables it reads:
//
//   - GOMEMLIMIT: standard Go variable. Takes precedence when set.
//   - MEMORY_LIMIT: container memory limit in bytes, typically injected via the
//     Kubernetes Downward API.
//   - MEMORY_RATIO: share of MEMORY_LIMIT given to the Go heap, between 0 and 1.
//     Defaults to [DefaultMemoryRatio]. The remainder is left for ffmpeg and
//     ffprobe child processes, which run outside the Go heap.
//
// A Deployment would wire MEMORY_LIMIT like this:
//
//	env:
//	  - name: MEMORY_LIMIT
//	    valueFrom:
//	      resourceFieldRef:
//	        resource: limits.memory
//
// # Backpressure
//
// A [Monitor] samples heap usage against the limit. Above the critical water
// mark it pauses: [Monitor.Wait] blocks callers until usage drops back below
// the high water mark. The probe cache warmer waits on it between files so a
// large library scan never competes with live streaming for memory.
package memory
