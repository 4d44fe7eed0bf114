package transcoder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"video-streamer/internal/filesystem"
	"video-streamer/internal/logging"
	"video-streamer/internal/media"
	"video-streamer/internal/metrics"
	"video-streamer/internal/playlist"
	"video-streamer/internal/rendition"
	"video-streamer/internal/workers"
)

// DefaultEncodeTimeout bounds a single encoder invocation.
const DefaultEncodeTimeout = 2 * time.Hour

// Config configures a Transcoder.
type Config struct {
	// OutputDir is the processed root; each key gets a sub-directory.
	OutputDir   string
	FFmpegPath  string
	FFprobePath string
	// Ladder defaults to rendition.DefaultLadder.
	Ladder        []rendition.QualityProfile
	EncodeTimeout time.Duration
	ProbeTimeout  time.Duration
	// SegmentSeconds is the HLS target segment duration.
	SegmentSeconds int
	// SkipUpscale skips rungs taller than the probed source.
	SkipUpscale bool
	// Posters enables the poster frame step.
	Posters bool
	// MaxConcurrentJobs bounds how many jobs encode at once (minimum 1).
	MaxConcurrentJobs int
}

// Transcoder runs transcode jobs and reports their status.
type Transcoder struct {
	config   Config
	layout   rendition.Layout
	selector *rendition.Selector
	runner   Runner
	encoder  *Encoder
	prober   *Prober
	posters  *media.PosterWriter
	registry *Registry
	pool     *workers.Pool
	retry    filesystem.RetryConfig

	shuttingDown atomic.Bool
}

// QualityStatus describes the on-disk state of one ladder rung for a key,
// together with the last job's step outcomes when there was one.
type QualityStatus struct {
	Name         string     `json:"name"`
	MP4          bool       `json:"mp4"`
	Adaptive     bool       `json:"adaptive"`
	Segments     int        `json:"segments"`
	MP4Step      StepStatus `json:"mp4Step,omitempty"`
	AdaptiveStep StepStatus `json:"adaptiveStep,omitempty"`
}

// Status is the answer to a status query for a key.
type Status struct {
	Key                string          `json:"key"`
	State              State           `json:"state"`
	AvailableQualities []string        `json:"availableQualities"`
	AdaptiveReady      bool            `json:"adaptiveReady"`
	Qualities          []QualityStatus `json:"qualities"`
	JobID              string          `json:"jobId,omitempty"`
	StartedAt          time.Time       `json:"startedAt,omitzero"`
	FinishedAt         time.Time       `json:"finishedAt,omitzero"`
	Error              string          `json:"error,omitempty"`
}

// New creates a Transcoder. runner executes ffmpeg and ffprobe; cache may be nil.
func New(config Config, runner Runner, cache ProbeCache) *Transcoder {
	if len(config.Ladder) == 0 {
		config.Ladder = rendition.DefaultLadder
	}
	if config.SegmentSeconds <= 0 {
		config.SegmentSeconds = DefaultSegmentSeconds
	}
	if config.EncodeTimeout < 0 {
		config.EncodeTimeout = 0
	}

	layout := rendition.Layout{Root: config.OutputDir}
	return &Transcoder{
		config:   config,
		layout:   layout,
		selector: rendition.NewSelector(layout, config.Ladder),
		runner:   runner,
		encoder:  NewEncoder(runner, config.FFmpegPath, config.EncodeTimeout, config.SegmentSeconds),
		prober:   NewProber(runner, config.FFprobePath, config.ProbeTimeout, cache),
		posters:  media.NewPosterWriter(),
		registry: NewRegistry(),
		pool:     workers.NewPool(config.MaxConcurrentJobs),
		retry:    filesystem.DefaultRetryConfig(),
	}
}

// Selector returns the rendition selector over this transcoder's output.
func (t *Transcoder) Selector() *rendition.Selector {
	return t.selector
}

// Registry returns the job registry.
func (t *Transcoder) Registry() *Registry {
	return t.registry
}

// Layout returns the output layout.
func (t *Transcoder) Layout() rendition.Layout {
	return t.layout
}

// Probe returns best-effort metadata for a source file.
func (t *Transcoder) Probe(ctx context.Context, path string) VideoInfo {
	return t.prober.Probe(ctx, path)
}

// StartJob schedules a job building key's renditions from input and returns
// immediately. The returned channel receives the final job snapshot once and
// is then closed. If a job for key is already processing, ErrAlreadyProcessing
// is returned and nothing is scheduled.
func (t *Transcoder) StartJob(key, input string, adaptive bool) (<-chan Job, error) {
	if t.shuttingDown.Load() {
		metrics.TranscoderJobsRejected.WithLabelValues("shutting_down").Inc()
		return nil, ErrShuttingDown
	}

	job, err := t.registry.TryStart(key, input, adaptive, rendition.Names(t.config.Ladder))
	if err != nil {
		metrics.TranscoderJobsRejected.WithLabelValues("already_processing").Inc()
		return nil, err
	}

	done := make(chan Job, 1)
	err = t.pool.Go(func(ctx context.Context) {
		defer close(done)
		done <- t.runJob(ctx, job)
	})
	if err != nil {
		t.registry.Finish(key, job.ID, ErrShuttingDown)
		metrics.TranscoderJobsRejected.WithLabelValues("shutting_down").Inc()
		return nil, ErrShuttingDown
	}

	logging.Info("Transcode job %s started for %s (adaptive=%v)", job.ID, key, adaptive)
	return done, nil
}

func (t *Transcoder) runJob(ctx context.Context, job Job) Job {
	start := time.Now()
	metrics.TranscoderJobsInProgress.Inc()
	defer metrics.TranscoderJobsInProgress.Dec()

	err := t.safeBuild(ctx, job)
	if err != nil {
		logging.Error("Transcode job %s for %s failed: %v", job.ID, job.Key, err)
	}

	final, ok := t.registry.Finish(job.Key, job.ID, err)
	if !ok {
		// Shutdown already recorded the outcome.
		return t.registry.Get(job.Key)
	}

	metrics.TranscoderJobsTotal.WithLabelValues(string(final.State)).Inc()
	metrics.TranscoderJobDuration.Observe(time.Since(start).Seconds())
	if final.State == StateCompleted {
		logging.Info("Transcode job %s for %s completed in %v", job.ID, job.Key, time.Since(start).Round(time.Second))
	}
	return final
}

func (t *Transcoder) safeBuild(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrJobFault, r)
		}
	}()
	return t.build(ctx, job)
}

// build runs every step of a job. Encoder failures skip the step; only
// input, directory, manifest or shutdown problems fail the job.
func (t *Transcoder) build(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrShuttingDown, err)
	}

	info, err := filesystem.StatWithRetry(job.Input, t.retry)
	if err != nil {
		return fmt.Errorf("%w: input %s: %w", ErrJobFault, job.Input, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: input %s is not a regular file", ErrJobFault, job.Input)
	}

	if err := os.MkdirAll(t.layout.MP4Dir(job.Key), 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrJobFault, err)
	}
	if job.Adaptive {
		if err := os.MkdirAll(t.layout.HLSDir(job.Key), 0o755); err != nil {
			return fmt.Errorf("%w: %w", ErrJobFault, err)
		}
	}

	sourceHeight := 0
	if t.config.SkipUpscale {
		if src := t.prober.Probe(ctx, job.Input); src.Known {
			sourceHeight = src.Height
		}
	}

	var variants []playlist.Variant
	for _, q := range t.config.Ladder {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrShuttingDown, err)
		}

		if sourceHeight > 0 && q.Height > sourceHeight {
			logging.Info("Skipping %s for %s: source is %dp", q.Name, job.Key, sourceHeight)
			t.skip(job, q.Name)
			continue
		}

		t.encodeMP4(ctx, job, q)

		if job.Adaptive {
			if v, ok := t.encodeHLS(ctx, job, q); ok {
				variants = append(variants, v)
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrShuttingDown, err)
	}

	if job.Adaptive {
		if err := t.writeMaster(job.Key, variants); err != nil {
			return fmt.Errorf("%w: %w", ErrJobFault, err)
		}
	}

	if t.config.Posters {
		t.writePoster(ctx, job)
	}
	return nil
}

func (t *Transcoder) skip(job Job, quality string) {
	t.registry.RecordStep(job.Key, job.ID, quality, KindMP4, StepSkipped)
	metrics.EncoderInvocationsTotal.WithLabelValues(KindMP4, quality, "skipped").Inc()
	if job.Adaptive {
		t.registry.RecordStep(job.Key, job.ID, quality, KindHLS, StepSkipped)
		metrics.EncoderInvocationsTotal.WithLabelValues(KindHLS, quality, "skipped").Inc()
	}
}

// encodeMP4 encodes into a hidden partial file next to the rendition and
// renames it into place only on success, so the selector never sees a
// half-written MP4.
func (t *Transcoder) encodeMP4(ctx context.Context, job Job, q rendition.QualityProfile) {
	logging.Info("[MP4] %s - %s", job.Key, q.Name)
	final := t.layout.MP4Path(job.Key, q.Name)
	part := partialPath(final)

	err := t.encoder.EncodeMP4(ctx, job.Input, part, q)
	if err == nil {
		err = os.Rename(part, final)
	}
	if err != nil {
		if rmErr := os.Remove(part); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			logging.Warn("Failed to remove partial %s: %v", part, rmErr)
		}
		logging.Warn("MP4 %s for %s failed: %v", q.Name, job.Key, err)
		t.registry.RecordStep(job.Key, job.ID, q.Name, KindMP4, StepFailed)
		return
	}
	t.registry.RecordStep(job.Key, job.ID, q.Name, KindMP4, StepDone)
}

// partialPath returns the in-progress name for an output file: ".720p.mp4.part".
func partialPath(final string) string {
	return filepath.Join(filepath.Dir(final), "."+filepath.Base(final)+".part")
}

func (t *Transcoder) encodeHLS(ctx context.Context, job Job, q rendition.QualityProfile) (playlist.Variant, bool) {
	logging.Info("[HLS] %s - %s", job.Key, q.Name)
	dir := t.layout.VariantDir(job.Key, q.Name)

	// Segments from an earlier run must not outlive a failed rebuild.
	err := os.RemoveAll(dir)
	if err == nil {
		err = os.MkdirAll(dir, 0o755)
	}
	if err != nil {
		logging.Warn("HLS %s for %s: %v", q.Name, job.Key, err)
		t.registry.RecordStep(job.Key, job.ID, q.Name, KindHLS, StepFailed)
		return playlist.Variant{}, false
	}

	if err := t.encoder.EncodeHLS(ctx, job.Input, dir, q); err != nil {
		logging.Warn("HLS %s for %s failed: %v", q.Name, job.Key, err)
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			logging.Warn("Failed to remove partial variant %s: %v", dir, rmErr)
		}
		t.registry.RecordStep(job.Key, job.ID, q.Name, KindHLS, StepFailed)
		return playlist.Variant{}, false
	}

	t.registry.RecordStep(job.Key, job.ID, q.Name, KindHLS, StepDone)
	return playlist.Variant{
		Name:       q.Name,
		Bandwidth:  q.Bandwidth(),
		Resolution: q.Resolution(),
		URI:        rendition.VariantURI(q.Name),
	}, true
}

// writeMaster writes the master playlist over the successful variants. With
// none, a master left by an earlier run is removed so it cannot point at
// variants this run failed to rebuild.
func (t *Transcoder) writeMaster(key string, variants []playlist.Variant) error {
	path := t.layout.MasterPath(key)
	if len(variants) == 0 {
		logging.Warn("No adaptive variants for %s, master playlist not written", key)
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	return playlist.WriteMaster(path, variants)
}

func (t *Transcoder) writePoster(ctx context.Context, job Job) {
	frame, err := t.encoder.GrabFrame(ctx, job.Input)
	if err != nil {
		logging.Warn("Poster frame for %s failed: %v", job.Key, err)
		return
	}
	if err := t.posters.Write(frame, t.layout.PosterPath(job.Key)); err != nil {
		logging.Warn("Poster for %s failed: %v", job.Key, err)
	}
}

// Status combines key's job record with what exists on disk.
func (t *Transcoder) Status(key string) Status {
	job := t.registry.Get(key)

	steps := make(map[string]QualityResult, len(job.Qualities))
	for _, q := range job.Qualities {
		steps[q.Name] = q
	}

	status := Status{
		Key:                key,
		State:              job.State,
		AvailableQualities: t.selector.Available(key),
		AdaptiveReady:      t.selector.AdaptiveReady(key),
		Qualities:          make([]QualityStatus, 0, len(t.config.Ladder)),
		JobID:              job.ID,
		StartedAt:          job.StartedAt,
		FinishedAt:         job.FinishedAt,
		Error:              job.Error,
	}

	available := make(map[string]bool, len(status.AvailableQualities))
	for _, name := range status.AvailableQualities {
		available[name] = true
	}

	for _, q := range t.config.Ladder {
		qs := QualityStatus{
			Name: q.Name,
			MP4:  available[q.Name],
		}
		if t.selector.VariantReady(key, q.Name) {
			qs.Adaptive = true
			if mp, err := playlist.ParseMediaFile(t.layout.VariantPlaylist(key, q.Name)); err == nil {
				qs.Segments = len(mp.Segments)
			}
		}
		if step, ok := steps[q.Name]; ok {
			qs.MP4Step = step.MP4
			qs.AdaptiveStep = step.Adaptive
		}
		status.Qualities = append(status.Qualities, qs)
	}
	return status
}

// Shutdown rejects new jobs, marks in-flight jobs as failed, cancels their
// encoder processes and waits for the workers or ctx.
func (t *Transcoder) Shutdown(ctx context.Context) error {
	t.shuttingDown.Store(true)

	keys := t.registry.FailProcessing(ErrShuttingDown)
	for _, key := range keys {
		logging.Warn("Transcode job for %s interrupted by shutdown", key)
		metrics.TranscoderJobsTotal.WithLabelValues(string(StateError)).Inc()
	}

	err := t.pool.Shutdown(ctx)
	t.Cleanup()
	return err
}

// ShuttingDown reports whether Shutdown has been called.
func (t *Transcoder) ShuttingDown() bool {
	return t.shuttingDown.Load()
}

// Cleanup kills any encoder processes still running.
func (t *Transcoder) Cleanup() {
	if c, ok := t.runner.(interface{ Cleanup() }); ok {
		c.Cleanup()
	}
}
