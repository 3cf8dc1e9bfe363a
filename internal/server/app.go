// Package server wires the catalogs, the upload registry and the HTTP API
// together and runs them until the process is told to stop.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/streamviewer/internal/api"
	"github.com/dmitrijs2005/streamviewer/internal/config"
	"github.com/dmitrijs2005/streamviewer/internal/filex"
	"github.com/dmitrijs2005/streamviewer/internal/library"
	"github.com/dmitrijs2005/streamviewer/internal/logging"
	"github.com/dmitrijs2005/streamviewer/internal/netx"
	"github.com/dmitrijs2005/streamviewer/internal/probecache"
	"github.com/dmitrijs2005/streamviewer/internal/progress"
	"github.com/dmitrijs2005/streamviewer/internal/s3x"
	"github.com/dmitrijs2005/streamviewer/internal/tracks"
	"github.com/dmitrijs2005/streamviewer/internal/upload"
	"github.com/dmitrijs2005/streamviewer/internal/videos"
	"github.com/gofiber/fiber/v2"
)

const (
	shutdownTimeout    = 5 * time.Second
	cachePruneInterval = time.Hour
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	cache    *probecache.SQLiteCache
	hub      *progress.Hub
	registry *upload.Registry
	http     *fiber.App
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)
	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	tracksDir, err := filex.EnsureDir(c.TracksDir)
	if err != nil {
		return nil, fmt.Errorf("tracks dir: %w", err)
	}
	recordingsDir, err := filex.EnsureDir(c.RecordingsDir)
	if err != nil {
		return nil, fmt.Errorf("recordings dir: %w", err)
	}

	app := &App{config: c, logger: logger}

	var prober videos.Prober = videos.NewMP4Prober()
	if c.ProbeCacheDSN != "" {
		cache, err := probecache.Open(ctx, c.ProbeCacheDSN)
		if err != nil {
			return nil, fmt.Errorf("probe cache: %w", err)
		}
		app.cache = cache
		prober = videos.NewCachedProber(prober, cache, logger)
	}

	lib := library.NewService(
		tracks.NewCatalog(tracksDir, logger),
		videos.NewCatalog(recordingsDir, prober, c.ProbeTimeout, logger),
		tracks.NewParser(logger),
		logger,
	)

	resolver, transport, err := newUploadBackend(c)
	if err != nil {
		app.closeCache()
		return nil, err
	}

	app.hub = progress.NewHub(c.ProgressInterval, logger)
	app.registry = upload.NewRegistry(resolver, transport, app.hub, upload.Options{
		RootMarker:    c.Marker(),
		ChunkSize:     c.UploadChunkSize,
		Timeout:       c.UploadTimeout,
		Retention:     c.JobRetention,
		ObservedGrace: c.JobObservedGrace,
	}, logger)
	app.hub.SetSource(app.registry)

	app.http = api.NewApp(api.NewHandler(lib, app.registry, app.hub, recordingsDir, logger))
	return app, nil
}

// newUploadBackend picks where finished recordings are sent.
func newUploadBackend(c *config.Config) (upload.TargetResolver, upload.Transport, error) {
	switch strings.ToLower(c.UploadTransport) {
	case config.TransportHTTP, "":
		r, err := upload.NewTemplateResolver(c.UploadURLTemplate)
		if err != nil {
			return nil, nil, fmt.Errorf("upload url template: %w", err)
		}
		return r, netx.NewHTTPTransport(c.UploadMethod, c.UploadTimeout), nil
	case config.TransportS3:
		p := s3x.NewPresigner(s3x.Config{
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			Bucket:       c.S3Bucket,
			BaseEndpoint: c.S3BaseEndpoint,
			KeyPrefix:    c.S3KeyPrefix,
		})
		// presigned URLs only accept PUT
		return s3x.NewResolver(p), netx.NewHTTPTransport("PUT", c.UploadTimeout), nil
	default:
		return nil, nil, fmt.Errorf("unknown upload transport %q", c.UploadTransport)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.http.Listen(app.config.HTTPAddr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			app.logger.Error(ctx, "http server failed", "error", err)
		}
		cancelFunc()
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.http.ShutdownWithContext(shutdownCtx); err != nil {
			app.logger.Error(ctx, "http shutdown", "error", err)
		}
		<-errCh
	}
}

// pruneCache drops cached durations of recordings that no longer exist.
func (app *App) pruneCache(ctx context.Context) {
	keep := func(path string) bool {
		_, err := os.Stat(path)
		return !errors.Is(err, os.ErrNotExist)
	}

	ticker := time.NewTicker(cachePruneInterval)
	defer ticker.Stop()
	for {
		n, err := app.cache.Prune(ctx, keep)
		switch {
		case err != nil && ctx.Err() == nil:
			app.logger.Warn(ctx, "probe cache prune failed", "error", err)
		case n > 0:
			app.logger.Info(ctx, "probe cache pruned", "rows", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (app *App) closeCache() {
	if app.cache == nil {
		return
	}
	if err := app.cache.Close(); err != nil {
		app.logger.Error(context.Background(), "probe cache close", "error", err)
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "addr", app.config.HTTPAddr)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.registry.Run(ctx)
	}()

	if app.cache != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.pruneCache(ctx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.hub.Close()
	app.registry.Close()
	app.closeCache()
	app.logger.Info(context.Background(), "App stopped")
}
