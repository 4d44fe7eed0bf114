// Package handlers provides the HTTP handlers of the video streaming server.
//
// It includes handlers for:
//   - Streaming source files and MP4 renditions with byte-range support
//   - Streaming adaptive (HLS) playlists and segments
//   - Triggering transcode jobs and querying their status
//   - Directory listings, optionally behind basic auth
//   - Metadata probes and poster images
//   - Health checks and version information
package handlers
