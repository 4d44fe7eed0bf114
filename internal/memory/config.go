package memory

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"

	"video-streamer/internal/logging"
)

const (
	// DefaultMemoryRatio is the share of the container limit given to the Go heap.
	// Encoders run as child processes and need the rest.
	DefaultMemoryRatio = 0.75
)

// ConfigResult describes what ConfigureFromEnv did.
type ConfigResult struct {
	// Configured indicates whether a memory limit is in effect
	Configured bool

	// Source is "GOMEMLIMIT", "MEMORY_LIMIT" or "none"
	Source string

	// ContainerLimit is the parsed MEMORY_LIMIT in bytes (0 if not set)
	ContainerLimit int64

	// GoMemLimit is the effective runtime limit in bytes (0 if not set)
	GoMemLimit int64

	// Ratio is the MEMORY_RATIO applied (0 if not applicable)
	Ratio float64
}

// ConfigureFromEnv sets the runtime soft memory limit from the environment.
func ConfigureFromEnv() ConfigResult {
	return configure(os.Getenv, debug.SetMemoryLimit)
}

// configure is ConfigureFromEnv with the environment and runtime hooks injected.
func configure(getenv func(string) string, setLimit func(int64) int64) ConfigResult {
	if v := getenv("GOMEMLIMIT"); v != "" {
		result := ConfigResult{Source: "GOMEMLIMIT"}
		if limit := setLimit(-1); limit > 0 && limit < math.MaxInt64 {
			result.Configured = true
			result.GoMemLimit = limit
		}
		logging.Info("GOMEMLIMIT set via environment: %s", v)
		return result
	}

	raw := getenv("MEMORY_LIMIT")
	if raw == "" {
		logging.Debug("MEMORY_LIMIT not set, leaving GOMEMLIMIT unconfigured")
		return ConfigResult{Source: "none"}
	}

	memLimit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || memLimit <= 0 {
		logging.Warn("Ignoring invalid MEMORY_LIMIT %q", raw)
		return ConfigResult{Source: "none"}
	}

	ratio := parseRatio(getenv("MEMORY_RATIO"))
	goMemLimit := int64(float64(memLimit) * ratio)
	setLimit(goMemLimit)

	logging.Info("Configured GOMEMLIMIT: %s (%.0f%% of %s container limit)",
		formatBytes(goMemLimit), ratio*100, formatBytes(memLimit))

	return ConfigResult{
		Configured:     true,
		Source:         "MEMORY_LIMIT",
		ContainerLimit: memLimit,
		GoMemLimit:     goMemLimit,
		Ratio:          ratio,
	}
}

func parseRatio(raw string) float64 {
	if raw == "" {
		return DefaultMemoryRatio
	}
	ratio, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		logging.Warn("Failed to parse MEMORY_RATIO %q: %v, using default %.2f", raw, err, DefaultMemoryRatio)
		return DefaultMemoryRatio
	}
	if ratio <= 0 || ratio > 1 {
		logging.Warn("MEMORY_RATIO %q out of range (0.0-1.0], using default %.2f", raw, DefaultMemoryRatio)
		return DefaultMemoryRatio
	}
	return ratio
}

// formatBytes renders b using binary units, e.g. "1.5 GiB".
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
