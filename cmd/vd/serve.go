package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alfredjeanlab/prestataires/internal/auth"
	"github.com/alfredjeanlab/prestataires/internal/cache"
	"github.com/alfredjeanlab/prestataires/internal/config"
	"github.com/alfredjeanlab/prestataires/internal/events"
	"github.com/alfredjeanlab/prestataires/internal/pager"
	"github.com/alfredjeanlab/prestataires/internal/server"
	"github.com/alfredjeanlab/prestataires/internal/storage"
	"github.com/alfredjeanlab/prestataires/internal/store"
	"github.com/alfredjeanlab/prestataires/internal/store/memstore"
	"github.com/alfredjeanlab/prestataires/internal/store/postgres"
	vdsync "github.com/alfredjeanlab/prestataires/internal/sync"
	"github.com/spf13/cobra"
)

// demoPhotoBaseURL hosts the demo catalogue's photos when no public URL is
// configured.
const demoPhotoBaseURL = "https://images.prestataires.example"

// backend holds the server components built from a Config.
type backend struct {
	store     store.Store
	cache     cache.Cache
	publisher events.Publisher
	sub       events.Subscriber
	server    *server.VendorServer
	scheduler *vdsync.Scheduler

	stopInvalidator context.CancelFunc
	invalidatorDone <-chan error
}

// newBackend connects the store, cache, event bus and storage described by
// cfg and returns a ready VendorServer. Close releases everything.
func newBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *backend, err error) {
	b := &backend{}
	defer func() {
		if err != nil {
			b.Close(logger)
		}
	}()

	// Store.
	if cfg.Demo {
		mem := memstore.New()
		base := cfg.PhotoPublicURL
		if base == "" {
			base = demoPhotoBaseURL
		}
		n, err := memstore.SeedDemo(ctx, mem, base)
		if err != nil {
			return nil, fmt.Errorf("seeding demo catalogue: %w", err)
		}
		b.store = mem
		logger.Info("demo catalogue loaded", "vendors", n)
	} else {
		pg, err := postgres.NewWithRetry(ctx, cfg.DatabaseURL, 5, func(attempt int, err error) {
			logger.Warn("database not ready, retrying", "attempt", attempt, "err", err)
		})
		if err != nil {
			return nil, err
		}
		b.store = pg
	}

	// Cache.
	policy := cache.Policy{StaleTime: cfg.CacheStaleTime, GCTime: cfg.CacheGCTime}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		b.cache = cache.NewRedisCache(rc, cfg.CacheGCTime)
		logger.Info("redis cache enabled", "addr", cfg.RedisAddr)
	} else {
		b.cache = cache.NewMemoryCache(cfg.CacheGCTime)
		logger.Info("in-memory cache enabled (PRESTATAIRES_REDIS_ADDR not set)")
	}
	keys := cache.Keys{Prefix: cfg.CachePrefix}

	// Events.
	if cfg.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			return nil, err
		}
		b.publisher = pub
		sub, err := events.NewNATSSubscriber(cfg.NATSURL)
		if err != nil {
			return nil, err
		}
		b.sub = sub
		logger.Info("events enabled", "nats_url", cfg.NATSURL)
	} else {
		bus := events.NewLocalBus()
		b.publisher, b.sub = bus, bus
		logger.Info("in-process events (PRESTATAIRES_NATS_URL not set)")
	}

	invCtx, cancel := context.WithCancel(context.Background())
	b.stopInvalidator = cancel
	b.invalidatorDone, err = cache.NewInvalidator(b.cache, keys).Start(invCtx, b.sub)
	if err != nil {
		return nil, fmt.Errorf("subscribing cache invalidator: %w", err)
	}

	opts := []server.Option{
		server.WithFetcher(cache.NewFetcher(pager.SourceFetcher{Source: b.store}, b.cache, policy, keys)),
		server.WithPhotoSource(cache.NewPhotoSource(b.store, b.cache, policy, keys)),
		server.WithVerifier(auth.NewVerifier(cfg.JWTSecret)),
	}
	if cfg.JWTSecret == "" {
		logger.Warn("authentication disabled (PRESTATAIRES_JWT_SECRET not set); every caller is admin")
	}

	// Photo storage.
	if cfg.PhotoS3Bucket != "" {
		s3c, err := storage.NewS3Client(ctx, cfg.PhotoS3Region, cfg.PhotoS3Endpoint)
		if err != nil {
			return nil, err
		}
		opts = append(opts, server.WithUploader(storage.NewPhotoStore(s3c, cfg.PhotoS3Bucket, cfg.PhotoPublicURL)))
		logger.Info("photo uploads enabled", "bucket", cfg.PhotoS3Bucket)
	}

	b.server = server.NewVendorServer(b.store, b.publisher, opts...)

	// Catalogue export.
	if cfg.SyncInterval > 0 {
		var dests []vdsync.Destination
		if cfg.SyncS3Bucket != "" {
			d, err := vdsync.NewS3Destination(ctx, cfg.SyncS3Bucket, cfg.SyncS3Key, cfg.PhotoS3Region, cfg.PhotoS3Endpoint)
			if err != nil {
				logger.Error("failed to create S3 sync destination", "err", err)
			} else {
				dests = append(dests, d)
				logger.Info("sync S3 destination enabled", "bucket", cfg.SyncS3Bucket, "key", cfg.SyncS3Key)
			}
		}
		if cfg.SyncFile != "" {
			dests = append(dests, vdsync.NewFileDestination(cfg.SyncFile))
			logger.Info("sync file destination enabled", "path", cfg.SyncFile)
		}
		if len(dests) > 0 {
			b.scheduler = vdsync.NewScheduler(b.store, dests, cfg.SyncInterval, logger)
		}
	}
	return b, nil
}

// Close stops background work and releases connections. It is safe on a
// partially built backend.
func (b *backend) Close(logger *slog.Logger) {
	if b.scheduler != nil {
		b.scheduler.Stop()
	}
	if b.stopInvalidator != nil {
		b.stopInvalidator()
		if b.invalidatorDone != nil {
			<-b.invalidatorDone
		}
	}
	if b.publisher != nil {
		if err := b.publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
	}
	// A LocalBus is both publisher and subscriber and is already closed.
	if b.sub != nil && any(b.sub) != any(b.publisher) {
		if err := b.sub.Close(); err != nil {
			logger.Error("error closing subscriber", "err", err)
		}
	}
	if b.cache != nil {
		if err := b.cache.Close(); err != nil {
			logger.Error("error closing cache", "err", err)
		}
	}
	if b.store != nil {
		if err := b.store.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}
	}
}

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the directory server (HTTP and gRPC)",
	GroupID: "system",
	// Override PersistentPreRunE so we don't create a client connection.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		slog.SetDefault(logger)

		demo, _ := cmd.Flags().GetBool("demo")
		load := config.Load
		if demo {
			load = config.LoadDemo
		}
		cfg, err := load()
		if err != nil {
			return err
		}

		b, err := newBackend(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer b.Close(logger)

		grpcServer := server.NewGRPCServer(b.server)
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return err
		}
		go func() {
			logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC server error", "err", err)
			}
		}()

		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           b.server.NewHTTPHandler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		if b.scheduler != nil {
			b.scheduler.Start(cmd.Context())
			logger.Info("sync scheduler started", "interval", cfg.SyncInterval)
		}

		logger.Info("prestataires server started",
			"grpc_addr", cfg.GRPCAddr,
			"http_addr", cfg.HTTPAddr,
			"demo", cfg.Demo,
		)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		grpcServer.GracefulStop()
		logger.Info("gRPC server stopped")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().Bool("demo", false, "serve a seeded in-memory catalogue instead of Postgres")
}
