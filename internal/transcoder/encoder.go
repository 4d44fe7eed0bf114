package transcoder

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"video-streamer/internal/logging"
	"video-streamer/internal/metrics"
	"video-streamer/internal/rendition"
)

// Encoder kinds, used as metric labels.
const (
	KindMP4    = "mp4"
	KindHLS    = "hls"
	KindPoster = "poster"
)

// DefaultSegmentSeconds is the target HLS segment duration.
const DefaultSegmentSeconds = 6

// posterOffset is where the poster frame is grabbed.
const posterOffset = "1"

// Encoder builds FFmpeg command lines and runs them with a deadline.
type Encoder struct {
	runner         Runner
	ffmpeg         string
	timeout        time.Duration
	segmentSeconds int
}

// NewEncoder returns an Encoder invoking ffmpegPath through runner. A zero
// timeout disables the per-invocation deadline.
func NewEncoder(runner Runner, ffmpegPath string, timeout time.Duration, segmentSeconds int) *Encoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if segmentSeconds <= 0 {
		segmentSeconds = DefaultSegmentSeconds
	}
	return &Encoder{
		runner:         runner,
		ffmpeg:         ffmpegPath,
		timeout:        timeout,
		segmentSeconds: segmentSeconds,
	}
}

// MP4Args returns the arguments for a standalone fast-start MP4 of quality q.
// The container is forced so output may carry any extension.
func MP4Args(input, output string, q rendition.QualityProfile) []string {
	args := []string{"-y", "-i", input}
	args = append(args, codecArgs(q)...)
	return append(args, "-movflags", "+faststart", "-f", "mp4", output)
}

// HLSArgs returns the arguments for a VOD HLS variant of quality q written
// into dir as index.m3u8 plus numbered segments.
func HLSArgs(input, dir string, q rendition.QualityProfile, segmentSeconds int) []string {
	args := []string{"-y", "-i", input}
	args = append(args, codecArgs(q)...)
	return append(args,
		"-hls_time", strconv.Itoa(segmentSeconds),
		"-hls_playlist_type", "vod",
		"-hls_flags", "independent_segments",
		"-hls_segment_filename", filepath.Join(dir, rendition.SegmentPattern),
		filepath.Join(dir, rendition.MediaPlaylist),
	)
}

// FrameArgs returns the arguments that write one PNG frame to stdout.
func FrameArgs(input string) []string {
	return []string{
		"-ss", posterOffset,
		"-i", input,
		"-vframes", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	}
}

func codecArgs(q rendition.QualityProfile) []string {
	return []string{
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "23",
		"-b:v", fmt.Sprintf("%dk", q.VideoBitrateKbps),
		"-maxrate", fmt.Sprintf("%dk", q.VideoBitrateKbps),
		"-bufsize", fmt.Sprintf("%dk", q.VideoBitrateKbps*2),
		"-s", q.Resolution(),
		"-c:a", "aac",
		"-b:a", fmt.Sprintf("%dk", q.AudioBitrateKbps),
	}
}

// EncodeMP4 writes output as quality q of input.
func (e *Encoder) EncodeMP4(ctx context.Context, input, output string, q rendition.QualityProfile) error {
	_, err := e.run(ctx, KindMP4, q.Name, MP4Args(input, output, q))
	return err
}

// EncodeHLS writes the HLS variant for quality q into dir, which must exist.
func (e *Encoder) EncodeHLS(ctx context.Context, input, dir string, q rendition.QualityProfile) error {
	_, err := e.run(ctx, KindHLS, q.Name, HLSArgs(input, dir, q, e.segmentSeconds))
	return err
}

// GrabFrame returns one PNG-encoded frame from near the start of input.
func (e *Encoder) GrabFrame(ctx context.Context, input string) ([]byte, error) {
	return e.run(ctx, KindPoster, "", FrameArgs(input))
}

func (e *Encoder) run(ctx context.Context, kind, quality string, args []string) ([]byte, error) {
	runCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := e.runner.Run(runCtx, e.ffmpeg, args...)
	metrics.EncoderDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())

	result := "success"
	switch {
	case err == nil:
	case ctx.Err() == nil && errors.Is(runCtx.Err(), context.DeadlineExceeded):
		result = "timeout"
		err = fmt.Errorf("%w: %s %s after %s", ErrEncoderTimeout, kind, quality, e.timeout)
	default:
		result = "failure"
		err = fmt.Errorf("%w: %s %s: %w", ErrEncoderFailure, kind, quality, err)
	}
	metrics.EncoderInvocationsTotal.WithLabelValues(kind, quality, result).Inc()

	if err != nil {
		logging.Debug("Encoder %s %s failed after %v", kind, quality, time.Since(start))
		return nil, err
	}
	return out, nil
}
