package startup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"video-streamer/internal/logging"
	"video-streamer/internal/streaming"
	"video-streamer/internal/transcoder"
	"video-streamer/internal/workers"
)

// Config holds all application configuration
type Config struct {
	VideoDir     string
	ProcessedDir string
	DatabaseDir  string
	Port         string
	MetricsPort  string

	MetricsEnabled  bool
	LogStaticFiles  bool
	LogHealthChecks bool
	LogFile         logging.FileConfig

	FFmpegPath        string
	FFprobePath       string
	ProbeTimeout      time.Duration
	EncodeTimeout     time.Duration
	HLSSegmentSeconds int
	StreamChunkSize   int
	MaxConcurrentJobs int
	SkipUpscale       bool
	PostersEnabled    bool
	ProbeCacheMaxAge  time.Duration

	// Background probe cache warming
	IndexEnabled      bool
	IndexInterval     time.Duration
	IndexPollInterval time.Duration
	IndexWorkers      int

	CORSAllowedOrigins []string

	// Basic auth for /browse; disabled unless both are set.
	BrowseUsername     string
	BrowsePasswordHash string

	// Derived paths
	DatabasePath string
}

// BrowseAuthEnabled reports whether the listing endpoint requires credentials.
func (c *Config) BrowseAuthEnabled() bool {
	return c.BrowseUsername != "" && c.BrowsePasswordHash != ""
}

// LoadConfig loads and validates configuration from environment variables.
// A .env file in the working directory is read first; it never overrides
// variables that are already set.
func LoadConfig() (*Config, error) {
	envLoaded := loadDotEnv(".env")

	config := configFromEnv()
	logging.Configure(config.LogFile)

	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	if envLoaded {
		logging.Info("  Loaded .env file")
	}
	logConfig(config)

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	var err error
	if config.VideoDir, err = filepath.Abs(config.VideoDir); err != nil {
		return nil, fmt.Errorf("failed to resolve video directory path: %w", err)
	}
	logging.Info("  Video directory (absolute): %s", config.VideoDir)

	if config.ProcessedDir, err = filepath.Abs(config.ProcessedDir); err != nil {
		return nil, fmt.Errorf("failed to resolve processed directory path: %w", err)
	}
	logging.Info("  Processed directory (absolute): %s", config.ProcessedDir)

	if config.DatabaseDir, err = filepath.Abs(config.DatabaseDir); err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	logging.Info("  Database directory (absolute): %s", config.DatabaseDir)
	config.DatabasePath = filepath.Join(config.DatabaseDir, "probes.db")

	// Check/create video directory (warning only)
	if err := ensureDirectory(config.VideoDir, "video"); err != nil {
		logging.Warn("  Video directory issue: %v", err)
	}

	for _, dir := range []struct{ path, name string }{
		{config.ProcessedDir, "processed"},
		{config.DatabaseDir, "database"},
	} {
		if err := ensureDirectory(dir.path, dir.name); err != nil {
			return nil, fmt.Errorf("%s directory error: %w", dir.name, err)
		}
		logging.Debug("  Testing %s directory write access...", dir.name)
		if err := testWriteAccess(dir.path); err != nil {
			return nil, fmt.Errorf("%s directory is not writable: %w", dir.name, err)
		}
		logging.Info("  [OK] %s directory is writable", dir.name)
	}

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Adaptive streaming: ENABLED")
	logging.Info("    Posters:            %s", enabledString(config.PostersEnabled))
	logging.Info("    Skip upscale:       %s", enabledString(config.SkipUpscale))
	logging.Info("    Browse auth:        %s", enabledString(config.BrowseAuthEnabled()))
	logging.Info("    Probe warm-up:      %s", enabledString(config.IndexEnabled))
	logging.Info("    Metrics:            %s", enabledString(config.MetricsEnabled))

	return config, nil
}

// configFromEnv reads every setting, falling back to defaults on missing or
// invalid values.
func configFromEnv() *Config {
	return &Config{
		VideoDir:     getEnv("VIDEO_DIR", "/videos"),
		ProcessedDir: getEnv("PROCESSED_DIR", "/processed"),
		DatabaseDir:  getEnv("DATABASE_DIR", "/database"),
		Port:         getEnv("PORT", "8080"),
		MetricsPort:  getEnv("METRICS_PORT", "9090"),

		MetricsEnabled:  getEnvBool("METRICS_ENABLED", true),
		LogStaticFiles:  getEnvBool("LOG_STATIC_FILES", false),
		LogHealthChecks: getEnvBool("LOG_HEALTH_CHECKS", true),
		LogFile: logging.FileConfig{
			Path:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 30),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},

		FFmpegPath:        getEnv("FFMPEG_PATH", "ffmpeg"),
		FFprobePath:       getEnv("FFPROBE_PATH", "ffprobe"),
		ProbeTimeout:      getEnvDuration("PROBE_TIMEOUT", transcoder.DefaultProbeTimeout),
		EncodeTimeout:     getEnvDuration("ENCODE_TIMEOUT", transcoder.DefaultEncodeTimeout),
		HLSSegmentSeconds: getEnvInt("HLS_SEGMENT_SECONDS", transcoder.DefaultSegmentSeconds),
		StreamChunkSize:   getEnvInt("STREAM_CHUNK_SIZE", streaming.DefaultChunkSize),
		MaxConcurrentJobs: getEnvInt("MAX_CONCURRENT_JOBS", workers.ForEncoder(4)),
		SkipUpscale:       getEnvBool("SKIP_UPSCALE", false),
		PostersEnabled:    getEnvBool("POSTERS_ENABLED", true),
		ProbeCacheMaxAge:  getEnvDuration("PROBE_CACHE_MAX_AGE", 30*24*time.Hour),

		IndexEnabled:      getEnvBool("INDEX_ENABLED", true),
		IndexInterval:     getEnvDuration("INDEX_INTERVAL", 6*time.Hour),
		IndexPollInterval: getEnvDuration("INDEX_POLL_INTERVAL", 30*time.Second),
		IndexWorkers:      getEnvInt("INDEX_WORKERS", 2),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		BrowseUsername:     getEnv("BROWSE_USERNAME", ""),
		BrowsePasswordHash: getEnv("BROWSE_PASSWORD_HASH", ""),
	}
}

func logConfig(c *Config) {
	logging.Info("  VIDEO_DIR:            %s", c.VideoDir)
	logging.Info("  PROCESSED_DIR:        %s", c.ProcessedDir)
	logging.Info("  DATABASE_DIR:         %s", c.DatabaseDir)
	logging.Info("  PORT:                 %s", c.Port)
	logging.Info("  METRICS_PORT:         %s", c.MetricsPort)
	logging.Info("  METRICS_ENABLED:      %v", c.MetricsEnabled)
	logging.Info("  FFMPEG_PATH:          %s", c.FFmpegPath)
	logging.Info("  FFPROBE_PATH:         %s", c.FFprobePath)
	logging.Info("  PROBE_TIMEOUT:        %s", c.ProbeTimeout)
	logging.Info("  ENCODE_TIMEOUT:       %s", c.EncodeTimeout)
	logging.Info("  HLS_SEGMENT_SECONDS:  %d", c.HLSSegmentSeconds)
	logging.Info("  STREAM_CHUNK_SIZE:    %d", c.StreamChunkSize)
	logging.Info("  MAX_CONCURRENT_JOBS:  %d", c.MaxConcurrentJobs)
	logging.Info("  SKIP_UPSCALE:         %v", c.SkipUpscale)
	logging.Info("  POSTERS_ENABLED:      %v", c.PostersEnabled)
	logging.Info("  PROBE_CACHE_MAX_AGE:  %s", c.ProbeCacheMaxAge)
	logging.Info("  INDEX_ENABLED:        %v", c.IndexEnabled)
	logging.Info("  INDEX_INTERVAL:       %s", c.IndexInterval)
	logging.Info("  INDEX_POLL_INTERVAL:  %s", c.IndexPollInterval)
	logging.Info("  INDEX_WORKERS:        %d", c.IndexWorkers)
	logging.Info("  CORS_ALLOWED_ORIGINS: %s", strings.Join(c.CORSAllowedOrigins, ","))
	logging.Info("  BROWSE_USERNAME:      %s", valueOrUnset(c.BrowseUsername))
	logging.Info("  BROWSE_PASSWORD_HASH: %s", maskSecret(c.BrowsePasswordHash))
	logging.Info("  LOG_FILE:             %s", valueOrUnset(c.LogFile.Path))
	logging.Info("  LOG_STATIC_FILES:     %v", c.LogStaticFiles)
	logging.Info("  LOG_HEALTH_CHECKS:    %v", c.LogHealthChecks)
	logging.Info("  LOG_LEVEL:            %s", logging.GetLevel())
}

func loadDotEnv(path string) bool {
	if err := godotenv.Load(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logging.Warn("Failed to load %s: %v", path, err)
		}
		return false
	}
	return true
}

func valueOrUnset(v string) string {
	if v == "" {
		return "(unset)"
	}
	return v
}

func maskSecret(v string) string {
	if v == "" {
		return "(unset)"
	}
	return "(set)"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid positive integer for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid duration for %s: %q, using default: %s", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
