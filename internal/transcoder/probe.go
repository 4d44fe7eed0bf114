package transcoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"video-streamer/internal/database"
	"video-streamer/internal/filesystem"
	"video-streamer/internal/logging"
	"video-streamer/internal/metrics"
)

// DefaultProbeTimeout bounds a single ffprobe invocation.
const DefaultProbeTimeout = 30 * time.Second

// VideoInfo is the metadata extracted from a source file.
// Known is false when the probe failed; the other fields are then zero.
type VideoInfo struct {
	Duration float64 `json:"duration"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Size     int64   `json:"size"`
	Bitrate  int64   `json:"bitrate"`
	Known    bool    `json:"known"`
}

// DurationString formats the duration as m:ss, or "Unknown".
func (v VideoInfo) DurationString() string {
	if !v.Known || v.Duration <= 0 {
		return "Unknown"
	}
	total := int(v.Duration)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// ProbeCache stores probe results keyed by path, size and modification time.
// *database.Database satisfies it.
type ProbeCache interface {
	GetProbe(ctx context.Context, path string, size int64, modTime time.Time) (database.ProbeRecord, bool, error)
	PutProbe(ctx context.Context, path string, size int64, modTime time.Time, rec database.ProbeRecord) error
}

type probeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
		Size     string `json:"size"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
}

// ParseProbeOutput decodes ffprobe's -print_format json output. Dimensions
// come from the first video stream; absent format fields are zero.
func ParseProbeOutput(data []byte) (VideoInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return VideoInfo{}, fmt.Errorf("%w: %w", ErrProbeFailure, err)
	}

	info := VideoInfo{Known: true}
	var err error
	if info.Duration, err = parseFloatField(out.Format.Duration); err != nil {
		return VideoInfo{}, fmt.Errorf("%w: duration: %w", ErrProbeFailure, err)
	}
	if info.Size, err = parseIntField(out.Format.Size); err != nil {
		return VideoInfo{}, fmt.Errorf("%w: size: %w", ErrProbeFailure, err)
	}
	if info.Bitrate, err = parseIntField(out.Format.BitRate); err != nil {
		return VideoInfo{}, fmt.Errorf("%w: bit_rate: %w", ErrProbeFailure, err)
	}

	for _, s := range out.Streams {
		if s.CodecType == "video" {
			info.Width = s.Width
			info.Height = s.Height
			break
		}
	}
	return info, nil
}

func parseFloatField(s string) (float64, error) {
	if s == "" || s == "N/A" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseIntField(s string) (int64, error) {
	if s == "" || s == "N/A" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

// Prober runs ffprobe with a timeout. Concurrent probes of the same file
// share one invocation, and results are cached when a ProbeCache is set.
type Prober struct {
	runner  Runner
	ffprobe string
	timeout time.Duration
	cache   ProbeCache
	retry   filesystem.RetryConfig
	group   singleflight.Group
}

// NewProber returns a Prober. cache may be nil.
func NewProber(runner Runner, ffprobePath string, timeout time.Duration, cache ProbeCache) *Prober {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &Prober{
		runner:  runner,
		ffprobe: ffprobePath,
		timeout: timeout,
		cache:   cache,
		retry:   filesystem.DefaultRetryConfig(),
	}
}

// ProbeArgs returns the ffprobe arguments for path.
func ProbeArgs(path string) []string {
	return []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}
}

// Probe returns metadata for path. It never fails: any error is logged and
// an unknown VideoInfo is returned.
func (p *Prober) Probe(ctx context.Context, path string) VideoInfo {
	info, err := p.probe(ctx, path)
	if err != nil {
		logging.Debug("Probe of %s failed: %v", path, err)
		return VideoInfo{}
	}
	return info
}

func (p *Prober) probe(ctx context.Context, path string) (VideoInfo, error) {
	stat, err := filesystem.StatWithRetry(path, p.retry)
	if err != nil {
		metrics.ProbeTotal.WithLabelValues("failure").Inc()
		return VideoInfo{}, fmt.Errorf("%w: %w", ErrProbeFailure, err)
	}

	if info, ok := p.cached(ctx, path, stat); ok {
		metrics.ProbeTotal.WithLabelValues("cache_hit").Inc()
		return info, nil
	}

	flightKey := fmt.Sprintf("%s|%d|%d", path, stat.Size(), stat.ModTime().UnixNano())
	v, err, _ := p.group.Do(flightKey, func() (interface{}, error) {
		// The flight is shared, so one caller's cancellation must not fail
		// the others; run still applies the timeout.
		flightCtx := context.WithoutCancel(ctx)
		info, err := p.run(flightCtx, path)
		if err != nil {
			return VideoInfo{}, err
		}
		p.store(flightCtx, path, stat, info)
		return info, nil
	})
	if err != nil {
		return VideoInfo{}, err
	}
	return v.(VideoInfo), nil
}

func (p *Prober) run(ctx context.Context, path string) (VideoInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	out, err := p.runner.Run(ctx, p.ffprobe, ProbeArgs(path)...)
	metrics.ProbeDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			metrics.ProbeTotal.WithLabelValues("timeout").Inc()
			return VideoInfo{}, fmt.Errorf("%w: timed out after %s", ErrProbeFailure, p.timeout)
		}
		metrics.ProbeTotal.WithLabelValues("failure").Inc()
		return VideoInfo{}, fmt.Errorf("%w: %w", ErrProbeFailure, err)
	}

	info, err := ParseProbeOutput(out)
	if err != nil {
		metrics.ProbeTotal.WithLabelValues("failure").Inc()
		return VideoInfo{}, err
	}
	metrics.ProbeTotal.WithLabelValues("success").Inc()
	return info, nil
}

func (p *Prober) cached(ctx context.Context, path string, stat os.FileInfo) (VideoInfo, bool) {
	if p.cache == nil {
		return VideoInfo{}, false
	}
	rec, ok, err := p.cache.GetProbe(ctx, path, stat.Size(), stat.ModTime())
	if err != nil {
		logging.Warn("Probe cache lookup for %s failed: %v", path, err)
		return VideoInfo{}, false
	}
	if !ok {
		return VideoInfo{}, false
	}
	return VideoInfo{
		Duration: rec.Duration,
		Width:    rec.Width,
		Height:   rec.Height,
		Size:     rec.Size,
		Bitrate:  rec.Bitrate,
		Known:    true,
	}, true
}

func (p *Prober) store(ctx context.Context, path string, stat os.FileInfo, info VideoInfo) {
	if p.cache == nil {
		return
	}
	rec := database.ProbeRecord{
		Duration: info.Duration,
		Width:    info.Width,
		Height:   info.Height,
		Size:     info.Size,
		Bitrate:  info.Bitrate,
		ProbedAt: time.Now(),
	}
	if err := p.cache.PutProbe(ctx, path, stat.Size(), stat.ModTime(), rec); err != nil {
		logging.Warn("Probe cache store for %s failed: %v", path, err)
	}
}
