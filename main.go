package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"video-streamer/internal/database"
	"video-streamer/internal/filesystem"
	"video-streamer/internal/handlers"
	"video-streamer/internal/indexer"
	"video-streamer/internal/logging"
	"video-streamer/internal/memory"
	"video-streamer/internal/metrics"
	"video-streamer/internal/middleware"
	"video-streamer/internal/rendition"
	"video-streamer/internal/sandbox"
	"video-streamer/internal/startup"
	"video-streamer/internal/streaming"
	"video-streamer/internal/transcoder"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}
	defer logging.Sync()

	// Must run before significant allocations
	memory.ConfigureFromEnv()

	metrics.InitializeMetrics(rendition.Names(rendition.DefaultLadder))
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"videos":    config.VideoDir,
		"processed": config.ProcessedDir,
		"database":  config.DatabaseDir,
	}))

	// Initialize probe cache
	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer db.Close()

	pruned, err := db.PruneProbes(context.Background(), time.Now().Add(-config.ProbeCacheMaxAge))
	if err != nil {
		logging.Warn("Failed to prune probe cache: %v", err)
	}
	startup.LogProbeCacheInit(db.Path(), time.Since(dbStart), pruned)

	resolver, err := sandbox.New(config.VideoDir)
	if err != nil {
		startup.LogFatal("Failed to open video directory: %v", err)
	}

	// Initialize transcoder
	startup.LogTranscoderInit(config.FFmpegPath, config.FFprobePath, config.MaxConcurrentJobs)
	trans := transcoder.New(transcoder.Config{
		OutputDir:         config.ProcessedDir,
		FFmpegPath:        config.FFmpegPath,
		FFprobePath:       config.FFprobePath,
		Ladder:            rendition.DefaultLadder,
		EncodeTimeout:     config.EncodeTimeout,
		ProbeTimeout:      config.ProbeTimeout,
		SegmentSeconds:    config.HLSSegmentSeconds,
		SkipUpscale:       config.SkipUpscale,
		Posters:           config.PostersEnabled,
		MaxConcurrentJobs: config.MaxConcurrentJobs,
	}, transcoder.NewExecRunner(), db)

	collector := metrics.NewCollector(trans.Registry(), 15*time.Second)
	collector.Start()

	memMonitor := memory.NewMonitor(memory.DefaultConfig())
	memMonitor.Start()

	var idx *indexer.Indexer
	startup.LogIndexerInit(config.IndexEnabled, config.IndexInterval, config.IndexPollInterval, config.IndexWorkers)
	if config.IndexEnabled {
		idx = indexer.New(resolver, trans, indexer.Config{
			Interval:     config.IndexInterval,
			PollInterval: config.IndexPollInterval,
			Workers:      config.IndexWorkers,
		})
		idx.SetWaiter(memMonitor)
		idx.Start()
	}

	streamConfig := streaming.DefaultConfig()
	streamConfig.ChunkSize = config.StreamChunkSize
	h := handlers.New(config, resolver, trans, streaming.NewStreamer(streamConfig))
	if idx != nil {
		h.SetIndexer(idx)
	}

	// Setup router
	router := mux.NewRouter()
	h.RegisterRoutes(router)
	router.Use(mux.MiddlewareFunc(middleware.Metrics(middleware.DefaultMetricsConfig())))

	// Log routes dynamically
	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggedHandler := middleware.Logger(loggingConfig)(router)

	// Apply compression middleware
	compressionConfig := middleware.DefaultCompressionConfig()
	compressed := middleware.Compression(compressionConfig)(loggedHandler)

	handler := cors.New(cors.Options{
		AllowedOrigins: config.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Range", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Range", "Content-Length", "Accept-Ranges"},
	}).Handler(compressed)

	// Create server. WriteTimeout stays 0: large streams are bounded by the
	// streamer's own per-write timeout.
	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", h.MetricsHandler())
		metricsSrv = &http.Server{
			Addr:              ":" + config.MetricsPort,
			Handler:           metricsMux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Start graceful shutdown handler
	shutdownDone := make(chan struct{})
	go func() {
		handleShutdown(srv, metricsSrv, trans, idx, memMonitor, collector)
		close(shutdownDone)
	}()

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		trans.Cleanup()
		startup.LogFatal("Server error: %v", err)
	}
	<-shutdownDone
}

func handleShutdown(
	srv, metricsSrv *http.Server,
	trans *transcoder.Transcoder,
	idx *indexer.Indexer,
	memMonitor *memory.Monitor,
	collector *metrics.Collector,
) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if idx != nil {
		startup.LogShutdownStep("Stopping probe warm-up")
		idx.Stop()
		startup.LogShutdownStepComplete("Probe warm-up stopped")
	}
	memMonitor.Stop()

	startup.LogShutdownStep("Stopping transcode jobs")
	if err := trans.Shutdown(ctx); err != nil {
		logging.Warn("Transcoder shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Transcode jobs stopped")
	}

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		}
	}

	startup.LogShutdownComplete()
}
