package middleware

import (
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"video-streamer/internal/logging"
)

// responseWriter records the status and body size for the access log.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// LoggingConfig controls which requests reach the access log.
type LoggingConfig struct {
	SkipPaths []string
	// SkipExtensions are dropped unless LogStaticFiles is set. Players fetch
	// HLS segments every few seconds per viewer.
	SkipExtensions  []string
	LogStaticFiles  bool
	LogHealthChecks bool
}

// DefaultLoggingConfig skips segment and image fetches and logs health checks.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipPaths:       []string{},
		SkipExtensions:  []string{".ts", ".m4s", ".ico", ".png", ".jpg", ".jpeg"},
		LogStaticFiles:  false,
		LogHealthChecks: true,
	}
}

var healthCheckPaths = map[string]bool{
	"/health":  true,
	"/healthz": true,
	"/livez":   true,
	"/readyz":  true,
}

// Logger writes one W3C extended access line per request.
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	skipExt := make(map[string]bool, len(config.SkipExtensions))
	for _, ext := range config.SkipExtensions {
		skipExt[strings.ToLower(ext)] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if shouldSkip(r.URL.Path, config, skipExt) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			logging.Info("%s", accessLine(time.Now().UTC(), r, wrapped, time.Since(start)))
		})
	}
}

// accessLine formats the fields
//
//	date time c-ip cs-method cs-uri-stem cs-uri-query sc-status sc-bytes time-taken cs(Range) sc(Content-Encoding) cs(User-Agent)
//
// Every request-derived field is passed through sanitizeLogField.
func accessLine(now time.Time, r *http.Request, rw *responseWriter, took time.Duration) string {
	userAgent := sanitizeLogField(r.Header.Get("User-Agent"))
	if userAgent != "" {
		userAgent = escapeW3CField(userAgent)
	}

	return fmt.Sprintf("%s %s %s %s %s %s %d %d %d %s %s %s",
		now.Format("2006-01-02"),
		now.Format("15:04:05"),
		sanitizeLogField(getClientIP(r)),
		sanitizeLogField(r.Method),
		sanitizeLogField(r.URL.Path),
		orDash(sanitizeLogField(r.URL.RawQuery)),
		rw.statusCode,
		rw.bytesWritten,
		took.Milliseconds(),
		orDash(escapeW3CField(sanitizeLogField(r.Header.Get("Range")))),
		orDash(rw.Header().Get("Content-Encoding")),
		orDash(userAgent),
	)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// sanitizeLogField turns CR and LF into spaces and strips NUL, ESC and the
// other control characters except tab, so a header cannot forge log lines.
func sanitizeLogField(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r':
			b.WriteRune(' ')
		case r < 0x20 && r != '\t':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func shouldSkip(urlPath string, config LoggingConfig, skipExt map[string]bool) bool {
	for _, prefix := range config.SkipPaths {
		if strings.HasPrefix(urlPath, prefix) {
			return true
		}
	}
	if !config.LogHealthChecks && healthCheckPaths[urlPath] {
		return true
	}
	return !config.LogStaticFiles && skipExt[strings.ToLower(path.Ext(urlPath))]
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// escapeW3CField quotes values containing whitespace or quotes, doubling
// embedded quotes.
func escapeW3CField(s string) string {
	if strings.ContainsAny(s, " \t\"") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
