package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"video-streamer/internal/filesystem"
	"video-streamer/internal/logging"
	"video-streamer/internal/media"
	"video-streamer/internal/metrics"
	"video-streamer/internal/sandbox"
	"video-streamer/internal/transcoder"

	"golang.org/x/sync/errgroup"
)

const (
	// Default polling interval for change detection
	defaultPollInterval = 30 * time.Second

	// Default number of concurrent probes per pass
	defaultWorkers = 2
)

// ErrAlreadyIndexing is returned by Index while another pass is running.
var ErrAlreadyIndexing = errors.New("index already in progress")

// Prober extracts metadata from a source file, consulting and filling the cache.
type Prober interface {
	Probe(ctx context.Context, path string) transcoder.VideoInfo
}

// Waiter blocks while background work should stay paused.
type Waiter interface {
	Wait(ctx context.Context) error
}

// Config controls scheduling. Zero values fall back to defaults; an
// Interval of zero disables periodic passes.
type Config struct {
	Interval     time.Duration
	PollInterval time.Duration
	Workers      int
}

// Indexer periodically probes every video under the content root.
type Indexer struct {
	root    string
	scanner *media.Scanner
	prober  Prober
	waiter  Waiter
	config  Config
	retry   filesystem.RetryConfig

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	trigger chan struct{}

	indexMu              sync.Mutex
	isIndexing           bool
	lastIndexTime        time.Time
	initialIndexComplete bool
	lastError            error

	filesProbed atomic.Int64
	filesFailed atomic.Int64
	progress    atomic.Value

	stateMu         sync.RWMutex
	lastRootModTime time.Time
	lastTopLevel    map[string]time.Time
}

// IndexProgress tracks the pass in flight.
type IndexProgress struct {
	FilesTotal  int64     `json:"filesTotal"`
	FilesProbed int64     `json:"filesProbed"`
	FilesFailed int64     `json:"filesFailed"`
	StartedAt   time.Time `json:"startedAt,omitzero"`
}

// HealthStatus is the indexer's contribution to /health.
type HealthStatus struct {
	Ready         bool           `json:"ready"`
	Indexing      bool           `json:"indexing"`
	LastIndexed   time.Time      `json:"lastIndexed,omitzero"`
	LastError     string         `json:"lastError,omitempty"`
	FilesProbed   int64          `json:"filesProbed"`
	FilesFailed   int64          `json:"filesFailed"`
	IndexProgress *IndexProgress `json:"indexProgress,omitempty"`
}

// New creates an Indexer over the resolver's root.
func New(resolver *sandbox.Resolver, prober Prober, config Config) *Indexer {
	if config.PollInterval <= 0 {
		config.PollInterval = defaultPollInterval
	}
	if config.Workers < 1 {
		config.Workers = defaultWorkers
	}
	ctx, cancel := context.WithCancel(context.Background())
	idx := &Indexer{
		root:         resolver.Root(),
		scanner:      media.NewScanner(resolver),
		prober:       prober,
		config:       config,
		retry:        filesystem.DefaultRetryConfig(),
		ctx:          ctx,
		cancel:       cancel,
		trigger:      make(chan struct{}, 1),
		lastTopLevel: make(map[string]time.Time),
	}
	idx.progress.Store(IndexProgress{})
	return idx
}

// SetWaiter makes passes pause while w reports memory pressure.
func (idx *Indexer) SetWaiter(w Waiter) {
	idx.waiter = w
}

// Start runs the initial pass in the background and begins scheduling.
func (idx *Indexer) Start() {
	idx.wg.Add(1)
	go idx.run()
}

// Stop cancels any pass in flight and waits for background goroutines.
func (idx *Indexer) Stop() {
	idx.cancel()
	idx.wg.Wait()
}

func (idx *Indexer) run() {
	defer idx.wg.Done()

	logging.Info("Starting initial probe cache warm-up in background...")
	idx.runPass("initial")

	var periodic <-chan time.Time
	if idx.config.Interval > 0 {
		ticker := time.NewTicker(idx.config.Interval)
		defer ticker.Stop()
		periodic = ticker.C
	}

	poll := time.NewTicker(idx.config.PollInterval)
	defer poll.Stop()

	for {
		select {
		case <-periodic:
			idx.runPass("periodic")
		case <-poll.C:
			changed, err := idx.detectChanges()
			if err != nil {
				logging.Warn("Error detecting library changes: %v", err)
				continue
			}
			if changed {
				logging.Info("Library changes detected, re-probing")
				idx.runPass("change")
			}
		case <-idx.trigger:
			idx.runPass("manual")
		case <-idx.ctx.Done():
			return
		}
	}
}

func (idx *Indexer) runPass(reason string) {
	err := idx.Index(idx.ctx)
	switch {
	case err == nil, errors.Is(err, ErrAlreadyIndexing):
	case errors.Is(err, context.Canceled):
		logging.Debug("%s probe pass cancelled", reason)
	default:
		logging.Error("%s probe pass failed: %v", reason, err)
	}
}

// Index performs one full pass: every video under the root is probed.
func (idx *Indexer) Index(ctx context.Context) error {
	if !idx.tryStartIndexing() {
		return ErrAlreadyIndexing
	}

	metrics.WarmerIsRunning.Set(1)
	defer metrics.WarmerIsRunning.Set(0)
	metrics.WarmerRunsTotal.Inc()

	startTime := time.Now()
	err := idx.index(ctx, startTime)
	idx.finishIndexing(startTime, err)

	if err != nil {
		metrics.WarmerErrors.Inc()
		return err
	}

	idx.updateLastKnownState()

	duration := time.Since(startTime)
	metrics.WarmerLastRunTimestamp.Set(float64(time.Now().Unix()))
	metrics.WarmerLastRunDuration.Set(duration.Seconds())
	logging.Info("Probe pass complete: %d probed, %d failed in %v",
		idx.filesProbed.Load(), idx.filesFailed.Load(), duration.Round(time.Millisecond))
	return nil
}

func (idx *Indexer) index(ctx context.Context, startTime time.Time) error {
	videos, err := idx.scanner.WalkVideos()
	if err != nil {
		return err
	}

	idx.filesProbed.Store(0)
	idx.filesFailed.Store(0)
	total := int64(len(videos))
	idx.updateProgress(total, startTime)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.config.Workers)

	for _, v := range videos {
		if idx.waiter != nil {
			if err := idx.waiter.Wait(gctx); err != nil {
				_ = g.Wait()
				return fmt.Errorf("probe pass interrupted: %w", err)
			}
		}
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			info := idx.prober.Probe(gctx, v.AbsPath)
			if !info.Known {
				idx.filesFailed.Add(1)
			}
			idx.filesProbed.Add(1)
			metrics.WarmerFilesProbed.Inc()
			idx.updateProgress(total, startTime)
			return nil
		})
	}

	_ = g.Wait()
	return ctx.Err()
}

func (idx *Indexer) updateProgress(total int64, startTime time.Time) {
	idx.progress.Store(IndexProgress{
		FilesTotal:  total,
		FilesProbed: idx.filesProbed.Load(),
		FilesFailed: idx.filesFailed.Load(),
		StartedAt:   startTime,
	})
}

func (idx *Indexer) tryStartIndexing() bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	if idx.isIndexing {
		return false
	}
	idx.isIndexing = true
	return true
}

func (idx *Indexer) finishIndexing(startTime time.Time, err error) {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	idx.isIndexing = false
	idx.lastError = err
	if err == nil {
		idx.initialIndexComplete = true
		idx.lastIndexTime = startTime
	}
}

// detectChanges compares the root's and top-level directories' modification
// times with the snapshot taken after the last pass. It never recurses.
func (idx *Indexer) detectChanges() (bool, error) {
	rootInfo, err := filesystem.StatWithRetry(idx.root, idx.retry)
	if err != nil {
		return false, fmt.Errorf("failed to stat content root: %w", err)
	}
	current, err := idx.topLevelDirs()
	if err != nil {
		return false, err
	}

	idx.stateMu.RLock()
	defer idx.stateMu.RUnlock()

	if rootInfo.ModTime().After(idx.lastRootModTime) {
		logging.Debug("Content root modified: %v > %v", rootInfo.ModTime(), idx.lastRootModTime)
		return true, nil
	}
	if len(current) != len(idx.lastTopLevel) {
		return true, nil
	}
	for name, mod := range current {
		last, ok := idx.lastTopLevel[name]
		if !ok || mod.After(last) {
			logging.Debug("Directory %s changed", name)
			return true, nil
		}
	}
	return false, nil
}

func (idx *Indexer) topLevelDirs() (map[string]time.Time, error) {
	entries, err := filesystem.ReadDirWithRetry(idx.root, idx.retry)
	if err != nil {
		return nil, fmt.Errorf("failed to read content root: %w", err)
	}

	dirs := make(map[string]time.Time)
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := os.Stat(filepath.Join(idx.root, entry.Name()))
		if err != nil {
			continue
		}
		dirs[entry.Name()] = info.ModTime()
	}
	return dirs, nil
}

func (idx *Indexer) updateLastKnownState() {
	rootInfo, err := filesystem.StatWithRetry(idx.root, idx.retry)
	if err != nil {
		logging.Warn("Failed to stat content root for change detection: %v", err)
		return
	}
	dirs, err := idx.topLevelDirs()
	if err != nil {
		logging.Warn("Failed to snapshot content root: %v", err)
		return
	}

	idx.stateMu.Lock()
	idx.lastRootModTime = rootInfo.ModTime()
	idx.lastTopLevel = dirs
	idx.stateMu.Unlock()
}

// IsIndexing reports whether a pass is in progress.
func (idx *Indexer) IsIndexing() bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.isIndexing
}

// LastIndexTime returns when the last successful pass started.
func (idx *Indexer) LastIndexTime() time.Time {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.lastIndexTime
}

// TriggerIndex requests a pass. Requests made while one is already queued
// are coalesced.
func (idx *Indexer) TriggerIndex() {
	select {
	case idx.trigger <- struct{}{}:
	default:
	}
}

// GetProgress returns the progress of the current or last pass.
func (idx *Indexer) GetProgress() IndexProgress {
	if p, ok := idx.progress.Load().(IndexProgress); ok {
		return p
	}
	return IndexProgress{}
}

// GetHealthStatus reports indexing state for health endpoints.
func (idx *Indexer) GetHealthStatus() HealthStatus {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	status := HealthStatus{
		Ready:       idx.initialIndexComplete,
		Indexing:    idx.isIndexing,
		LastIndexed: idx.lastIndexTime,
		FilesProbed: idx.filesProbed.Load(),
		FilesFailed: idx.filesFailed.Load(),
	}
	if idx.isIndexing {
		progress := idx.GetProgress()
		status.IndexProgress = &progress
	}
	if idx.lastError != nil {
		status.LastError = idx.lastError.Error()
	}
	return status
}
