package middleware

import (
	"compress/gzip"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"
)

// CompressionConfig controls gzip of JSON and playlist responses.
type CompressionConfig struct {
	// MinSize is the smallest body, in bytes, worth compressing.
	MinSize int
	// Level is a compress/gzip level.
	Level int
	// CompressibleTypes are media types matched case-insensitively,
	// ignoring parameters.
	CompressibleTypes []string
}

// DefaultCompressionConfig compresses API bodies and HLS playlists above 1KB.
// Media bytes are already compressed and never match.
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize: 1024,
		Level:   gzip.DefaultCompression,
		CompressibleTypes: []string{
			"application/json",
			"application/problem+json",
			"application/vnd.apple.mpegurl",
			"text/plain",
		},
	}
}

var gzipWriterPools sync.Map // level -> *sync.Pool

func gzipPool(level int) *sync.Pool {
	if p, ok := gzipWriterPools.Load(level); ok {
		return p.(*sync.Pool)
	}
	p, _ := gzipWriterPools.LoadOrStore(level, &sync.Pool{
		New: func() interface{} {
			w, err := gzip.NewWriterLevel(io.Discard, level)
			if err != nil {
				w = gzip.NewWriter(io.Discard)
			}
			return w
		},
	})
	return p.(*sync.Pool)
}

// gzipResponseWriter holds the body back until MinSize bytes or the end of
// the response, then commits to either gzip or identity.
type gzipResponseWriter struct {
	http.ResponseWriter
	config     CompressionConfig
	compress   map[string]bool
	gzipWriter *gzip.Writer
	buffer     []byte
	statusCode int
	decided    bool
}

func newGzipResponseWriter(w http.ResponseWriter, config CompressionConfig) *gzipResponseWriter {
	compress := make(map[string]bool, len(config.CompressibleTypes))
	for _, t := range config.CompressibleTypes {
		compress[strings.ToLower(t)] = true
	}
	return &gzipResponseWriter{
		ResponseWriter: w,
		config:         config,
		compress:       compress,
		statusCode:     http.StatusOK,
		buffer:         make([]byte, 0, config.MinSize+1),
	}
}

func (g *gzipResponseWriter) WriteHeader(statusCode int) {
	if !g.decided {
		g.statusCode = statusCode
	}
}

func (g *gzipResponseWriter) Write(data []byte) (int, error) {
	if g.decided {
		if g.gzipWriter != nil {
			return g.gzipWriter.Write(data)
		}
		return g.ResponseWriter.Write(data)
	}

	g.buffer = append(g.buffer, data...)
	if len(g.buffer) > g.config.MinSize {
		if err := g.decide(); err != nil {
			return 0, err
		}
	}
	return len(data), nil
}

func (g *gzipResponseWriter) compressible() bool {
	mediaType, _, err := mime.ParseMediaType(g.Header().Get("Content-Type"))
	return err == nil && g.compress[mediaType]
}

// decide sends the header and flushes the buffered body.
func (g *gzipResponseWriter) decide() error {
	if g.decided {
		return nil
	}
	g.decided = true
	body := g.buffer
	g.buffer = nil

	if len(body) < g.config.MinSize || !g.compressible() {
		g.ResponseWriter.WriteHeader(g.statusCode)
		_, err := g.ResponseWriter.Write(body)
		return err
	}

	h := g.Header()
	h.Del("Content-Length")
	h.Set("Content-Encoding", "gzip")
	h.Add("Vary", "Accept-Encoding")

	g.gzipWriter = gzipPool(g.config.Level).Get().(*gzip.Writer)
	g.gzipWriter.Reset(g.ResponseWriter)
	g.ResponseWriter.WriteHeader(g.statusCode)
	_, err := g.gzipWriter.Write(body)
	return err
}

// Close ends the gzip stream and returns the writer to its pool.
func (g *gzipResponseWriter) Close() error {
	err := g.decide()
	if g.gzipWriter != nil {
		if cerr := g.gzipWriter.Close(); err == nil {
			err = cerr
		}
		gzipPool(g.config.Level).Put(g.gzipWriter)
		g.gzipWriter = nil
	}
	return err
}

func (g *gzipResponseWriter) Flush() {
	_ = g.decide()
	if g.gzipWriter != nil {
		_ = g.gzipWriter.Flush()
	}
	if f, ok := g.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (g *gzipResponseWriter) Unwrap() http.ResponseWriter {
	return g.ResponseWriter
}

// Compression gzips eligible responses for clients that accept it. Range
// requests pass through untouched since their offsets refer to the identity
// encoding.
func Compression(config CompressionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") || r.Header.Get("Range") != "" {
				next.ServeHTTP(w, r)
				return
			}

			gzw := newGzipResponseWriter(w, config)
			defer gzw.Close()
			next.ServeHTTP(gzw, r)
		})
	}
}
