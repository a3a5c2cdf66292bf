// Package main wires together the keyword crawler binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crawlkit/keywordcrawl/internal/api"
	"github.com/crawlkit/keywordcrawl/internal/archive"
	archivegcs "github.com/crawlkit/keywordcrawl/internal/archive/gcs"
	archivelocal "github.com/crawlkit/keywordcrawl/internal/archive/local"
	"github.com/crawlkit/keywordcrawl/internal/clock/system"
	"github.com/crawlkit/keywordcrawl/internal/config"
	"github.com/crawlkit/keywordcrawl/internal/crawler"
	collyfetcher "github.com/crawlkit/keywordcrawl/internal/fetcher/colly"
	"github.com/crawlkit/keywordcrawl/internal/hash/sha256"
	"github.com/crawlkit/keywordcrawl/internal/logging"
	"github.com/crawlkit/keywordcrawl/internal/metrics"
	"github.com/crawlkit/keywordcrawl/internal/parser"
	memorysink "github.com/crawlkit/keywordcrawl/internal/sink/memory"
	postgressink "github.com/crawlkit/keywordcrawl/internal/sink/postgres"
	pubsubsink "github.com/crawlkit/keywordcrawl/internal/sink/pubsub"
)

// runTracker keeps a race-free snapshot of the crawl for the ops API.
type runTracker struct {
	mu     sync.Mutex
	status api.Status
}

func newRunTracker(runID string) *runTracker {
	return &runTracker{status: api.Status{RunID: runID, State: string(crawler.StateIdle)}}
}

func (t *runTracker) setRunning() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.State = string(crawler.StateRunning)
}

func (t *runTracker) setFinished(state crawler.State, stats crawler.RunStats) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.State = string(state)
	t.status.Stats = stats
}

func (t *runTracker) snapshot() api.Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	runID := uuid.NewString()
	hasher := sha256.New()
	clock := system.New()
	normalizer := crawler.NewNormalizer(hasher)
	validator := crawler.NewValidator(cfg.Crawl.AllowedDomains, crawler.ValidatorOptions{
		DeniedExtensions: cfg.Crawl.DeniedExtensions,
		BlockedDomains:   cfg.Crawl.BlockedDomains,
	})
	processor := crawler.NewProcessor(
		normalizer,
		validator,
		cfg.Crawl.Keywords,
		clock,
		runID,
		logger.Named("processor"),
	)
	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:   cfg.Crawl.UserAgent,
		Timeout:     cfg.FetchTimeout(),
		MaxBodySize: cfg.HTTP.MaxBodySize,
	})
	htmlParser := parser.New()

	sink, closeSink, err := buildSink(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("sink init failed", zap.Error(err))
	}
	defer closeSink()

	blobs, err := buildArchive(ctx, cfg)
	if err != nil {
		logger.Fatal("archive init failed", zap.Error(err))
	}

	engine := crawler.NewEngine(
		crawler.EngineConfig{
			Seeds: cfg.Crawl.Seeds,
			Limits: crawler.Limits{
				MaxDepth: cfg.Crawl.MaxDepth,
				MaxURLs:  cfg.Crawl.MaxURLs,
			},
			Concurrency: cfg.Crawl.Concurrency,
			BlobPrefix:  cfg.Archive.Prefix,
		},
		normalizer,
		processor,
		fetcher,
		htmlParser,
		sink,
		blobs,
		clock,
		runID,
		logger.Named("engine"),
	)

	tracker := newRunTracker(runID)
	apiServer := api.NewServer(tracker.snapshot, logger.Named("api"))
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	tracker.setRunning()
	logger.Info("crawl started",
		zap.String("run_id", runID),
		zap.Strings("seeds", cfg.Crawl.Seeds),
		zap.Int("max_depth", cfg.Crawl.MaxDepth),
		zap.Int("max_urls", cfg.Crawl.MaxURLs),
	)
	stats, runErr := engine.Run(ctx)
	tracker.setFinished(engine.State(), stats)
	if runErr != nil {
		logger.Error("crawl aborted", zap.Error(runErr))
	}

	// Give operators a window to scrape final metrics and status before exit.
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	if runErr != nil {
		os.Exit(1)
	}
}

func buildSink(ctx context.Context, cfg config.Config, logger *zap.Logger) (crawler.Sink, func(), error) {
	var (
		sink      crawler.Sink
		closeSink = func() {}
	)
	switch cfg.Sink.Provider {
	case "postgres":
		pgSink, err := postgressink.New(ctx, postgressink.Config{
			DSN:      cfg.Sink.DSN,
			Table:    cfg.Sink.Table,
			MaxConns: int32(cfg.Sink.MaxOpenConns),
		})
		if err != nil {
			return nil, nil, err
		}
		sink = pgSink
		closeSink = pgSink.Close
	case "memory":
		sink = memorysink.New()
	default:
		return nil, nil, fmt.Errorf("unknown sink provider %q", cfg.Sink.Provider)
	}

	if cfg.PubSub.Enabled {
		publisher, err := pubsubsink.Connect(ctx, cfg.PubSub.ProjectID, cfg.PubSub.TopicName)
		if err != nil {
			return nil, nil, err
		}
		inner := closeSink
		closeSink = func() {
			publisher.Stop()
			inner()
		}
		sink = pubsubsink.NewMirror(sink, publisher, cfg.PubSub.TopicName, logger.Named("pubsub"))
	}

	return metrics.InstrumentSink(sink), closeSink, nil
}

func buildArchive(ctx context.Context, cfg config.Config) (crawler.BlobStore, error) {
	switch cfg.Archive.Provider {
	case "none":
		return archive.Noop{}, nil
	case "local":
		return archivelocal.New(archivelocal.Config{BaseDir: cfg.Archive.BaseDir})
	case "gcs":
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create storage client: %w", err)
		}
		return archivegcs.New(client, archivegcs.Config{Bucket: cfg.Archive.GCSBucket})
	default:
		return nil, fmt.Errorf("unknown archive provider %q", cfg.Archive.Provider)
	}
}
