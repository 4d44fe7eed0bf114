// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig],
// after reading an optional .env file from the working directory (existing
// variables always win). The following variables are supported:
//
//   - VIDEO_DIR: Content root that sources are streamed from (default: /videos)
//   - PROCESSED_DIR: Output root for renditions, HLS sets and posters (default: /processed)
//   - DATABASE_DIR: Directory for the probe cache database (default: /database)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - FFMPEG_PATH, FFPROBE_PATH: Encoder and probe binaries (default: ffmpeg, ffprobe)
//   - PROBE_TIMEOUT: Per-probe deadline (default: 30s)
//   - ENCODE_TIMEOUT: Per-encoder-invocation deadline (default: 2h)
//   - HLS_SEGMENT_SECONDS: Target segment duration (default: 6)
//   - STREAM_CHUNK_SIZE: Bytes per streamed chunk (default: 1048576)
//   - MAX_CONCURRENT_JOBS: Transcode jobs encoding at once (default: a quarter of the CPUs, 1..4)
//   - SKIP_UPSCALE: Skip rungs taller than the source (default: false)
//   - POSTERS_ENABLED: Grab a poster frame after each job (default: true)
//   - PROBE_CACHE_MAX_AGE: Probe cache entries older than this are pruned at startup (default: 720h)
//   - CORS_ALLOWED_ORIGINS: Comma-separated origins (default: *)
//   - BROWSE_USERNAME, BROWSE_PASSWORD_HASH: Basic auth for /browse; the hash comes from cmd/hashpw
//   - LOG_LEVEL, DEBUG, LOG_FORMAT: Logging level and console format
//   - LOG_FILE, LOG_MAX_SIZE_MB, LOG_MAX_BACKUPS, LOG_MAX_AGE_DAYS, LOG_COMPRESS: Rotated log file
//   - LOG_STATIC_FILES: Log segment and static file requests (default: false)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//
// # Directory Setup
//
//   - Processed and database directories: required, created if missing, must be writable
//   - Video directory: checked and created if missing, warning only (normally mounted)
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
package startup
