// Package filesystem provides filesystem helpers that retry on NFS stale file
// handles and label operations by the configured volume they touch.
package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"video-streamer/internal/logging"
)

// VolumeResolver maps file paths to known volume names for metric labeling.
// It matches the longest configured directory containing the path.
type VolumeResolver struct {
	// mounts is sorted by path length descending
	mounts []volumeMount
}

type volumeMount struct {
	path string // cleaned absolute path (e.g., "/videos")
	name string // volume label (e.g., "videos")
}

// NewVolumeResolver creates a resolver from a map of volume name → absolute path.
//
//	NewVolumeResolver(map[string]string{
//	    "videos":    "/videos",
//	    "processed": "/processed",
//	})
func NewVolumeResolver(volumes map[string]string) *VolumeResolver {
	mounts := make([]volumeMount, 0, len(volumes))
	for name, path := range volumes {
		absPath, err := filepath.Abs(path)
		if err != nil {
			absPath = filepath.Clean(path)
		}
		mounts = append(mounts, volumeMount{path: absPath, name: name})
	}

	sort.Slice(mounts, func(i, j int) bool {
		return len(mounts[i].path) > len(mounts[j].path)
	})

	return &VolumeResolver{mounts: mounts}
}

// Resolve returns the volume name for a given file path.
// Returns "unknown" if the path doesn't lie under any configured volume.
func (vr *VolumeResolver) Resolve(path string) string {
	if vr == nil {
		return "unknown"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "unknown"
	}

	for _, mount := range vr.mounts {
		if within(mount.path, absPath) {
			return mount.name
		}
	}

	return "unknown"
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !filepath.IsAbs(rel) && !startsWithParent(rel))
}

func startsWithParent(rel string) bool {
	return len(rel) >= 3 && rel[:2] == ".." && rel[2] == filepath.Separator
}

// defaultResolver is the package-level resolver set at startup
var defaultResolver *VolumeResolver

// SetDefaultVolumeResolver sets the package-level volume resolver.
// Call this once at startup after loading configuration.
func SetDefaultVolumeResolver(vr *VolumeResolver) {
	defaultResolver = vr
}

// RetryConfig configures retry behavior for filesystem operations
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// VolumeResolver overrides the package-level resolver for this operation.
	// If nil, the package-level default is used.
	VolumeResolver *VolumeResolver
}

// DefaultRetryConfig returns sensible defaults for NFS retry behavior
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

// resolveVolume returns the volume label for a path using the config's resolver
// or the package-level default.
func (c *RetryConfig) resolveVolume(path string) string {
	if c.VolumeResolver != nil {
		return c.VolumeResolver.Resolve(path)
	}
	return defaultResolver.Resolve(path)
}

// isNFSStaleError checks if an error is an NFS stale file handle error
func isNFSStaleError(err error) bool {
	if err == nil {
		return false
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ESTALE
	}

	return false
}

// withRetry runs fn until it succeeds, fails with a non-ESTALE error, or
// exhausts config.MaxRetries, backing off exponentially between attempts.
func withRetry[T any](op, path string, config RetryConfig, fn func() (T, error)) (T, error) {
	start := time.Now()
	volume := config.resolveVolume(path)
	obs := observe()
	var lastErr error
	var zero T
	backoff := config.InitialBackoff

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		result, err := fn()
		if err == nil {
			if attempt > 0 {
				logging.Info("NFS %s succeeded on retry %d for %s", op, attempt, path)
				if obs != nil {
					obs.ObserveRetrySuccess(op, volume)
				}
			}
			if obs != nil {
				obs.ObserveOperation(volume, op, time.Since(start).Seconds(), nil)
			}
			return result, nil
		}

		lastErr = err

		if !isNFSStaleError(err) {
			if obs != nil {
				obs.ObserveOperation(volume, op, time.Since(start).Seconds(), err)
			}
			return zero, err
		}

		if obs != nil {
			obs.ObserveStaleError(op, volume)
		}

		// Don't sleep after the last attempt
		if attempt < config.MaxRetries {
			if obs != nil {
				obs.ObserveRetryAttempt(op, volume)
			}
			logging.Debug("NFS %s stale file handle for %s, retrying in %v (attempt %d/%d)",
				op, path, backoff, attempt+1, config.MaxRetries)
			time.Sleep(backoff)

			backoff *= 2
			if backoff > config.MaxBackoff {
				backoff = config.MaxBackoff
			}
		}
	}

	logging.Warn("NFS %s failed after %d retries for %s: %v", op, config.MaxRetries, path, lastErr)
	if obs != nil {
		obs.ObserveRetryFailure(op, volume)
		obs.ObserveOperation(volume, op, time.Since(start).Seconds(), lastErr)
	}
	return zero, lastErr
}

// StatWithRetry performs os.Stat with retry logic for NFS stale file handle errors
func StatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	return withRetry("stat", path, config, func() (os.FileInfo, error) {
		return os.Stat(path)
	})
}

// OpenWithRetry performs os.Open with retry logic for NFS stale file handle errors
func OpenWithRetry(path string, config RetryConfig) (*os.File, error) {
	return withRetry("open", path, config, func() (*os.File, error) {
		return os.Open(path)
	})
}

// ReadDirWithRetry performs os.ReadDir with retry logic for NFS stale file handle errors
func ReadDirWithRetry(path string, config RetryConfig) ([]os.DirEntry, error) {
	return withRetry("readdir", path, config, func() ([]os.DirEntry, error) {
		return os.ReadDir(path)
	})
}
