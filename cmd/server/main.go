// Command server is the process entrypoint: it wires configuration,
// storage, domain services, the event bus, the real-time push layer, the
// HTTP surface, and the background reaper into one running process, the
// way the teacher's main.go wired its Wails app context — except this is a
// plain net/http server, not a desktop shell.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kingo/internal/app"
	"kingo/internal/config"
	"kingo/internal/events"
	"kingo/internal/events/handlers"
	"kingo/internal/extractor"
	"kingo/internal/httpapi"
	"kingo/internal/logger"
	"kingo/internal/push"
	"kingo/internal/ratelimit"
	"kingo/internal/reaper"
	"kingo/internal/services"
	"kingo/internal/storage/filestore"
	"kingo/internal/storage/kv"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(dataDir(cfg)); err != nil {
		panic(err)
	}
	logger.Log.Info().Str("listen_addr", cfg.ListenAddr).Msg("starting server")

	client := kv.NewClient(kv.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer func() {
		if err := client.Close(); err != nil {
			logger.Log.Warn().Err(err).Msg("kv client close failed")
		}
	}()

	jobRepo := kv.NewJobRepository(client, cfg.JobTTL())
	fileRepo := kv.NewFileRepository(client)
	archiveRepo := kv.NewArchiveRepository(client)
	rateLimitRepo := kv.NewRateLimitRepository(client)
	lock := kv.NewLock(client)

	files, err := filestore.New(cfg.DownloadDir)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("could not initialize file storage")
	}

	extractorClient := extractor.NewClient(cfg.ExtractorBinPath, cfg.FFmpegPath)

	bus := events.NewBus()
	handlers.RegisterLogging(bus)

	hub := push.NewHub(true)
	handlers.RegisterClientPush(bus, hub)
	handlers.RegisterMetrics(bus)

	jobManager := services.NewJobManager(jobRepo, bus, nil)
	fileManager := services.NewFileManager(fileRepo, files, nil)
	videoProcessor := services.NewVideoProcessor(extractorClient, nil)
	rateLimitManager := services.NewRateLimitManager(rateLimitRepo, cfg.RateLimitWhitelist, nil)

	downloadService := app.NewDownloadService(jobManager, fileManager, files, extractorClient, cfg.ScratchDir, cfg.BaseURL, cfg.FileTTL(), nil)
	queue := app.NewQueue(downloadService, 3)
	queue.Start()
	defer queue.Stop()

	jobService := app.NewJobService(jobManager, queue)
	videoService := app.NewVideoService(videoProcessor)

	pushHandler := push.NewHandler(hub, jobService)

	resolver := ratelimit.NewResolver(cfg)
	checker := ratelimit.NewChecker(rateLimitManager)
	limiter := httpapi.NewRateLimiter(resolver, checker)

	svc := &httpapi.Services{
		Jobs:   jobService,
		Videos: videoService,
		Files:  fileManager,
		Health: client,
	}
	router := httpapi.NewRouter(svc, limiter, pushHandler)

	r := reaper.New(jobManager, fileManager, archiveRepo, lock, cfg.ScratchDir, cfg.JobExpiration, nil)
	reaperCtx, stopReaper := context.WithCancel(context.Background())
	defer stopReaper()
	go runReaper(reaperCtx, r, cfg.ReaperInterval)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // file downloads and the websocket upgrade can run long
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("http server stopped unexpectedly")
		}
	}()

	waitForShutdown(srv)
}

// runReaper drives the reaper's sweep on a fixed interval until ctx is
// cancelled, matching the teacher's ticker-driven background goroutines.
func runReaper(ctx context.Context, r *reaper.Reaper, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			summary := r.Run(ctx)
			if len(summary.Errors) > 0 {
				logger.Log.Warn().Int("errors", len(summary.Errors)).Msg("reaper sweep completed with errors")
			}
		}
	}
}

// waitForShutdown blocks until SIGINT/SIGTERM, then drains in-flight HTTP
// requests before returning.
func waitForShutdown(srv *http.Server) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// dataDir is where logs (and, by the teacher's convention, other app
// state) are written. The service has no notion of a platform-specific
// app-data directory the way the desktop teacher did, so this is a fixed
// ./data directory relative to the process's working directory; it does
// not follow the configured download directory.
func dataDir(cfg config.Config) string {
	return "./data"
}
