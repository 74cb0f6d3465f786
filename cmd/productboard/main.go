// Package main wires together the product submission service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gpubsub "cloud.google.com/go/pubsub"
	gcstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/craftmarket/productboard/internal/api"
	"github.com/craftmarket/productboard/internal/clock/system"
	"github.com/craftmarket/productboard/internal/config"
	"github.com/craftmarket/productboard/internal/id/uuid"
	"github.com/craftmarket/productboard/internal/imaging"
	"github.com/craftmarket/productboard/internal/logging"
	notifymemory "github.com/craftmarket/productboard/internal/notify/memory"
	notifypubsub "github.com/craftmarket/productboard/internal/notify/pubsub"
	"github.com/craftmarket/productboard/internal/product"
	gcsstore "github.com/craftmarket/productboard/internal/storage/gcs"
	localstore "github.com/craftmarket/productboard/internal/storage/local"
	memorystore "github.com/craftmarket/productboard/internal/storage/memory"
	"github.com/craftmarket/productboard/internal/storage/postgres"
	"github.com/craftmarket/productboard/internal/uploader"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
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

	store, err := postgres.NewProductStore(ctx, postgres.ProductStoreConfig{
		DSN:             cfg.DB.DSN,
		MaxConns:        cfg.DB.MaxConns,
		MinConns:        cfg.DB.MinConns,
		MaxConnLifetime: cfg.DB.ConnLifetime(),
	})
	if err != nil {
		logger.Fatal("product store init failed", zap.Error(err))
	}
	defer store.Close()

	blobs, cleanup, err := newBlobStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("blob store init failed", zap.Error(err))
	}
	defer cleanup()

	publisher, pubCleanup, err := newPublisher(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("publisher init failed", zap.Error(err))
	}
	defer pubCleanup()

	clock := system.New()
	idGen := uuid.New()
	engine := imaging.New(imaging.Config{
		OutputSize:   cfg.Imaging.OutputSize,
		MinDimension: cfg.Imaging.MinDimension,
		Scale:        cfg.Imaging.Scale,
	})
	up := uploader.New(blobs, idGen, uploader.Config{
		Prefix:      cfg.Storage.Prefix,
		ContentType: cfg.Storage.ContentType,
	}, logger.Named("uploader"))

	apiServer := api.NewServer(store, up, engine, publisher, idGen, clock, cfg, logger.Named("api"))

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

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

// newBlobStore selects the configured image storage backend. The returned
// cleanup releases any client resources and is safe to call once.
func newBlobStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (product.BlobStore, func(), error) {
	switch cfg.Storage.Provider {
	case "gcs":
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("gcs client: %w", err)
		}
		store, err := gcsstore.New(client, gcsstore.Config{Bucket: cfg.Storage.GCSBucket})
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if closeErr := client.Close(); closeErr != nil {
				logger.Warn("gcs client close failed", zap.Error(closeErr))
			}
		}
		return store, cleanup, nil
	case "local":
		store, err := localstore.New(localstore.Config{BaseDir: cfg.Storage.BaseDir})
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	case "memory":
		return memorystore.NewBlobStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage provider %q", cfg.Storage.Provider)
	}
}

// newPublisher returns the Pub/Sub publisher when enabled, otherwise an
// in-memory one so submissions still succeed without notifications leaving
// the process.
func newPublisher(ctx context.Context, cfg config.Config, logger *zap.Logger) (product.Publisher, func(), error) {
	if !cfg.PubSub.Enabled {
		logger.Info("pubsub disabled, review notifications stay in-process")
		return notifymemory.New(), func() {}, nil
	}
	client, err := gpubsub.NewClient(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("pubsub client: %w", err)
	}
	publisher := notifypubsub.New(client.Topic(cfg.PubSub.TopicName))
	cleanup := func() {
		publisher.Stop()
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("pubsub client close failed", zap.Error(closeErr))
		}
	}
	return publisher, cleanup, nil
}
