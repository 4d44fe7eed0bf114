// Package metrics provides Prometheus instrumentation for the video streaming server.
//
// All metrics are registered with the default registry through promauto and are
// prefixed with "video_streamer_".
//
// # Metric Categories
//
// ## HTTP Metrics
//   - HTTPRequestsTotal: Counter of total requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Streaming Metrics
//   - StreamResponsesTotal: Counter by kind (direct/adaptive) and outcome (full/partial/unsatisfiable/not_found)
//   - StreamBytesTotal: Counter of body bytes written by kind
//   - StreamErrorsTotal: Counter of streams that ended early, by reason
//   - StreamsActive: Gauge of bodies currently being written
//
// ## Transcoder Metrics
//   - TranscoderJobsTotal: Counter of finished jobs by final state
//   - TranscoderJobDuration: Histogram of job duration
//   - TranscoderJobsInProgress: Gauge of active jobs
//   - TranscoderJobsRejected: Counter of triggers that did not start a job
//   - TranscoderJobsByState: Gauge of registry records by state, refreshed by [Collector]
//   - EncoderInvocationsTotal: Counter by kind (mp4/hls/poster), quality and result
//   - EncoderDuration: Histogram of encoder run time by kind
//
// ## Probe and Cache Metrics
//   - ProbeTotal: Counter of metadata probes by result
//   - ProbeDuration: Histogram of probe run time
//   - DBQueryTotal, DBQueryDuration: probe cache queries
//
// ## Filesystem Metrics
//
// Recorded through the observer returned by [NewFilesystemObserver], which the
// filesystem package calls for every stat/open/readdir and NFS retry.
//
// # Usage
//
//	import "github.com/prometheus/client_golang/prometheus/promhttp"
//
//	mux.Handle("/metrics", promhttp.Handler())
//
// # Prometheus Queries
//
// Partial-content share of direct streams:
//
//	sum(rate(video_streamer_stream_responses_total{kind="direct",outcome="partial"}[5m])) /
//	sum(rate(video_streamer_stream_responses_total{kind="direct"}[5m]))
//
// Encoder failure rate by quality:
//
//	sum(rate(video_streamer_encoder_invocations_total{result=~"failure|timeout"}[1h])) by (quality)
package metrics
