// Package main is the entry point for the video streaming server.
//
// The server streams a directory tree of video files over HTTP with byte-range
// support, transcodes sources into fixed quality renditions and HLS ladders on
// request, and serves the resulting adaptive playlists and segments.
//
// # Application Lifecycle
//
//  1. Configuration Loading: reads .env and environment variables, validates directories
//  2. Memory Configuration: sets GOMEMLIMIT from MEMORY_LIMIT, leaving room for ffmpeg
//  3. Probe Cache: opens the SQLite probe cache and prunes stale entries
//  4. Component Initialization:
//     - Transcoder: ffmpeg/ffprobe job orchestration with a bounded job pool
//     - Metrics Collector: publishes job registry gauges
//     - Memory Monitor: pauses background probing under heap pressure
//     - Indexer: warms the probe cache in the background
//  5. HTTP Server Setup: routes, logging, compression and CORS middleware
//  6. Graceful Shutdown: on SIGINT/SIGTERM stops background work, kills
//     in-flight encoders and drains HTTP connections
//
// # Endpoints
//
//	GET  /media/{relpath}?quality=   direct stream of a source or rendition
//	GET  /adaptive/{key}/{subpath}   HLS master, variant playlists and segments
//	GET  /poster/{key}               poster frame
//	POST /process/{relpath}          start a transcode job
//	GET  /status/{key}               job and output status
//	GET  /probe/{relpath}            source metadata
//	GET  /browse?path=               directory listing (optional basic auth)
//	GET  /videos                     flat library listing
//	POST /reindex                    queue a probe cache warm-up pass
//	GET  /health, /healthz, /livez, /readyz, /version
//
// Prometheus metrics are served on METRICS_PORT at /metrics.
package main
