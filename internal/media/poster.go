package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/renameio/v2"

	"video-streamer/internal/logging"
	"video-streamer/internal/metrics"
)

const (
	// DefaultPosterWidth is the bounding box width for generated posters.
	DefaultPosterWidth = 640
	// DefaultPosterHeight is the bounding box height for generated posters.
	DefaultPosterHeight = 360
	// DefaultPosterQuality is the JPEG quality for generated posters.
	DefaultPosterQuality = 80
)

// ErrEmptyFrame indicates the frame grab produced no image data.
var ErrEmptyFrame = errors.New("empty frame")

// PosterWriter turns a grabbed frame into a JPEG poster on disk.
type PosterWriter struct {
	Width   int
	Height  int
	Quality int
}

// NewPosterWriter returns a PosterWriter with the default bounding box.
func NewPosterWriter() *PosterWriter {
	return &PosterWriter{
		Width:   DefaultPosterWidth,
		Height:  DefaultPosterHeight,
		Quality: DefaultPosterQuality,
	}
}

// Write decodes frame (any format imaging understands, normally PNG), scales
// it to fit the bounding box preserving aspect ratio and writes it to dst as
// JPEG. The file is replaced atomically so readers never see a partial image.
func (p *PosterWriter) Write(frame []byte, dst string) error {
	start := time.Now()
	err := p.write(frame, dst)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.PosterGenerationsTotal.WithLabelValues(status).Inc()
	metrics.PosterGenerationDuration.Observe(time.Since(start).Seconds())
	return err
}

func (p *PosterWriter) write(frame []byte, dst string) error {
	if len(frame) == 0 {
		return ErrEmptyFrame
	}

	img, err := imaging.Decode(bytes.NewReader(frame))
	if err != nil {
		return fmt.Errorf("failed to decode frame: %w", err)
	}

	img = p.fit(img)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.Quality)); err != nil {
		return fmt.Errorf("failed to encode poster: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create poster directory: %w", err)
	}
	if err := renameio.WriteFile(dst, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write poster %s: %w", dst, err)
	}

	logging.Debug("Wrote poster %s (%dx%d, %d bytes)", dst, img.Bounds().Dx(), img.Bounds().Dy(), buf.Len())
	return nil
}

// fit scales down only; smaller frames are kept as is.
func (p *PosterWriter) fit(img image.Image) image.Image {
	w, h := p.Width, p.Height
	if w <= 0 {
		w = DefaultPosterWidth
	}
	if h <= 0 {
		h = DefaultPosterHeight
	}
	b := img.Bounds()
	if b.Dx() <= w && b.Dy() <= h {
		return img
	}
	return imaging.Fit(img, w, h, imaging.Lanczos)
}
