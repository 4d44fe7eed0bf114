package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_streamer_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_streamer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_streamer_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Streaming metrics
var (
	StreamResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_streamer_stream_responses_total",
			Help: "Total number of streamed responses by kind (direct/adaptive) and outcome",
		},
		[]string{"kind", "outcome"}, // outcome: "full", "partial", "unsatisfiable", "not_found"
	)

	StreamBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_streamer_stream_bytes_total",
			Help: "Total number of body bytes written to clients",
		},
		[]string{"kind"},
	)

	StreamErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_streamer_stream_errors_total",
			Help: "Total number of streams that ended early",
		},
		[]string{"reason"}, // "client_gone", "write_timeout", "truncated", "read_error"
	)

	StreamsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_streamer_streams_active",
			Help: "Number of response bodies currently being streamed",
		},
	)
)

// Transcoder metrics
var (
	TranscoderJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_streamer_transcoder_jobs_total",
			Help: "Total number of transcoding jobs by final state",
		},
		[]string{"status"},
	)

	TranscoderJobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "video_streamer_transcoder_job_duration_seconds",
			Help:    "Transcoding job duration in seconds",
			Buckets: []float64{10, 30, 60, 120, 300, 600, 1200, 1800, 3600, 7200},
		},
	)

	TranscoderJobsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_streamer_transcoder_jobs_in_progress",
			Help: "Number of transcoding jobs currently in progress",
		},
	)

	TranscoderJobsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_streamer_transcoder_jobs_rejected_total",
			Help: "Total number of job triggers that were not started",
		},
		[]string{"reason"}, // "already_processing", "shutting_down"
	)

	TranscoderJobsByState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "video_streamer_transcoder_jobs_by_state",
			Help: "Number of job records in the registry by state",
		},
		[]string{"state"},
	)

	EncoderInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_streamer_encoder_invocations_total",
			Help: "Total number of external encoder invocations",
		},
		[]string{"kind", "quality", "result"}, // kind: "mp4", "hls", "poster"; result: "success", "failure", "timeout", "skipped"
	)

	EncoderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_streamer_encoder_duration_seconds",
			Help:    "External encoder invocation duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600},
		},
		[]string{"kind"},
	)
)

// Probe metrics
var (
	ProbeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_streamer_probe_total",
			Help: "Total number of metadata probes by result",
		},
		[]string{"result"}, // "success", "failure", "timeout", "cache_hit"
	)

	ProbeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "video_streamer_probe_duration_seconds",
			Help:    "Metadata probe duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_streamer_db_queries_total",
			Help: "Total number of probe cache queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_streamer_db_query_duration_seconds",
			Help:    "Probe cache query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)
)

// Poster metrics
var (
	PosterGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_streamer_poster_generations_total",
			Help: "Total number of poster generations",
		},
		[]string{"status"},
	)

	PosterGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "video_streamer_poster_generation_duration_seconds",
			Help:    "Poster grab and resize duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)

// Authentication metrics
var (
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_streamer_auth_attempts_total",
			Help: "Total number of browse authentication attempts",
		},
		[]string{"status"},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_streamer_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration in seconds by volume",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_streamer_filesystem_operation_errors_total",
			Help: "Total number of failed filesystem operations by volume",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_streamer_filesystem_retry_attempts_total",
			Help: "Total number of filesystem retry attempts after a stale file handle",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_streamer_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_streamer_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_streamer_filesystem_stale_errors_total",
			Help: "Total number of NFS stale file handle errors",
		},
		[]string{"operation", "volume"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_streamer_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_streamer_memory_paused",
			Help: "Whether background work is paused for memory pressure (1 = paused)",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_streamer_memory_gc_pauses_total",
			Help: "Total number of times background work paused and forced a GC",
		},
	)
)

// Probe cache warmer metrics
var (
	WarmerRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_streamer_warmer_runs_total",
			Help: "Total number of probe cache warming passes",
		},
	)

	WarmerLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_streamer_warmer_last_run_timestamp",
			Help: "Unix timestamp of the last completed warming pass",
		},
	)

	WarmerLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_streamer_warmer_last_run_duration_seconds",
			Help: "Duration of the last warming pass in seconds",
		},
	)

	WarmerFilesProbed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_streamer_warmer_files_probed_total",
			Help: "Total number of video files probed by the warmer",
		},
	)

	WarmerErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_streamer_warmer_errors_total",
			Help: "Total number of failed warming passes",
		},
	)

	WarmerIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_streamer_warmer_running",
			Help: "Whether a warming pass is in progress (1 = running)",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "video_streamer_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
