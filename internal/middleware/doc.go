// Package middleware provides HTTP middleware for the video streamer.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics labelled by route template
//   - Response compression (gzip) for JSON and text, never for media or range responses
package middleware
