package streaming

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"video-streamer/internal/filesystem"
	"video-streamer/internal/logging"
	"video-streamer/internal/mediatypes"
	"video-streamer/internal/metrics"
)

var (
	// ErrNotFound indicates the file could not be stat'ed or opened. Nothing has been
	// written to the response when ServeFile returns it.
	ErrNotFound = errors.New("file not found")

	// ErrTruncated indicates the file returned fewer bytes than its size promised.
	ErrTruncated = errors.New("stream truncated")
)

// DefaultChunkSize bounds the amount of file data held in memory per response.
const DefaultChunkSize = 1024 * 1024

// Kind selects the cache policy and metric label for a streamed file.
type Kind int

const (
	// KindDirect is a source file or MP4 rendition.
	KindDirect Kind = iota
	// KindAdaptive is an HLS playlist or segment.
	KindAdaptive
)

// MaxAge returns the public cache lifetime for the kind.
func (k Kind) MaxAge() time.Duration {
	if k == KindAdaptive {
		return 10 * time.Minute
	}
	return time.Hour
}

func (k Kind) String() string {
	if k == KindAdaptive {
		return "adaptive"
	}
	return "direct"
}

// Config configures a Streamer.
type Config struct {
	// ChunkSize is the size of each read from the file (0 = DefaultChunkSize).
	ChunkSize int
	Writer    TimeoutWriterConfig
	Retry     filesystem.RetryConfig
}

// DefaultConfig returns a Config with 1 MiB chunks and the default timeouts.
func DefaultConfig() Config {
	return Config{
		ChunkSize: DefaultChunkSize,
		Writer:    DefaultTimeoutWriterConfig(),
		Retry:     filesystem.DefaultRetryConfig(),
	}
}

// Streamer writes files to HTTP responses honouring single byte-range requests.
type Streamer struct {
	config Config
}

// NewStreamer creates a Streamer.
func NewStreamer(config Config) *Streamer {
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultChunkSize
	}
	if config.Writer.WriteTimeout <= 0 {
		config.Writer = DefaultTimeoutWriterConfig()
	}
	return &Streamer{config: config}
}

// ServeFile streams path to w. Without a Range header the whole file is sent
// with 200; a satisfiable range is sent with 206; a malformed or unsatisfiable
// range gets an empty 416 carrying "Content-Range: bytes */size".
//
// If the file cannot be found ServeFile returns an error wrapping ErrNotFound
// without touching w, so the caller can render its own 404. Every other
// outcome, including failures, has already been written when ServeFile returns.
func (s *Streamer) ServeFile(w http.ResponseWriter, r *http.Request, path string, kind Kind) error {
	info, err := filesystem.StatWithRetry(path, s.config.Retry)
	if err != nil || info.IsDir() {
		metrics.StreamResponsesTotal.WithLabelValues(kind.String(), "not_found").Inc()
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	size := info.Size()

	rng := Range{Start: 0, End: size - 1}
	partial := false
	if header := r.Header.Get("Range"); header != "" {
		rng, err = ParseRange(header, size)
		if err != nil {
			metrics.StreamResponsesTotal.WithLabelValues(kind.String(), "unsatisfiable").Inc()
			w.Header().Set("Content-Range", UnsatisfiedContentRange(size))
			w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
			return err
		}
		partial = true
	}

	file, err := filesystem.OpenWithRetry(path, s.config.Retry)
	if err != nil {
		metrics.StreamResponsesTotal.WithLabelValues(kind.String(), "not_found").Inc()
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			logging.Warn("Failed to close %s: %v", path, closeErr)
		}
	}()

	if rng.Start > 0 {
		if _, err := file.Seek(rng.Start, io.SeekStart); err != nil {
			http.Error(w, "Failed to read file", http.StatusInternalServerError)
			return fmt.Errorf("seek %s to %d: %w", path, rng.Start, err)
		}
	}

	h := w.Header()
	h.Set("Content-Type", mediatypes.MimeTypeFor(path))
	h.Set("Accept-Ranges", "bytes")
	h.Set("Content-Length", strconv.FormatInt(rng.Length(), 10))
	h.Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(kind.MaxAge().Seconds())))

	status := http.StatusOK
	outcome := "full"
	if partial {
		status = http.StatusPartialContent
		outcome = "partial"
		h.Set("Content-Range", rng.ContentRange(size))
	}
	metrics.StreamResponsesTotal.WithLabelValues(kind.String(), outcome).Inc()
	w.WriteHeader(status)

	if r.Method == http.MethodHead || rng.Length() == 0 {
		return nil
	}

	return s.copyRange(w, r, file, rng.Length(), kind)
}

// copyRange writes exactly length bytes from src in ChunkSize pieces.
func (s *Streamer) copyRange(w http.ResponseWriter, r *http.Request, src io.Reader, length int64, kind Kind) error {
	metrics.StreamsActive.Inc()
	defer metrics.StreamsActive.Dec()

	tw := NewTimeoutWriter(r.Context(), w, s.config.Writer)
	defer func() {
		_ = tw.Close()
		written, duration := tw.Stats()
		metrics.StreamBytesTotal.WithLabelValues(kind.String()).Add(float64(written))
		logging.Debug("Stream completed: %d/%d bytes in %v", written, length, duration)
	}()

	bufSize := int64(s.config.ChunkSize)
	if length < bufSize {
		bufSize = length
	}
	buf := make([]byte, bufSize)

	remaining := length
	for remaining > 0 {
		n := int64(len(buf))
		if remaining < n {
			n = remaining
		}

		read, readErr := src.Read(buf[:n])
		if read > 0 {
			if _, err := tw.Write(buf[:read]); err != nil {
				recordStreamError(err)
				return err
			}
			tw.Flush()
			remaining -= int64(read)
		}

		if read == 0 {
			if readErr != nil && !errors.Is(readErr, io.EOF) {
				metrics.StreamErrorsTotal.WithLabelValues("read_error").Inc()
				return fmt.Errorf("read: %w", readErr)
			}
			metrics.StreamErrorsTotal.WithLabelValues("truncated").Inc()
			return fmt.Errorf("%w: %d bytes missing", ErrTruncated, remaining)
		}
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			metrics.StreamErrorsTotal.WithLabelValues("read_error").Inc()
			return fmt.Errorf("read: %w", readErr)
		}
	}

	return nil
}

func recordStreamError(err error) {
	switch {
	case errors.Is(err, ErrClientGone), errors.Is(err, ErrStreamCanceled):
		metrics.StreamErrorsTotal.WithLabelValues("client_gone").Inc()
	case errors.Is(err, ErrWriteTimeout):
		metrics.StreamErrorsTotal.WithLabelValues("write_timeout").Inc()
	default:
		metrics.StreamErrorsTotal.WithLabelValues("client_gone").Inc()
	}
}

// IsClientError reports whether err describes the client going away or stalling
// rather than a server-side fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrClientGone) || errors.Is(err, ErrWriteTimeout) ||
		errors.Is(err, ErrStreamCanceled) || errors.Is(err, ErrMalformedRange) ||
		errors.Is(err, ErrUnsatisfiableRange)
}
