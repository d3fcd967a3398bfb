package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"order-cart/internal/cache"
	"order-cart/internal/catalog"
	"order-cart/internal/config"
	"order-cart/internal/database"
	"order-cart/internal/handler"
	"order-cart/internal/repository"
	"order-cart/internal/router"
	"order-cart/internal/service"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting order-cart API server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Catalogue store
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize catalog database: %w", err)
	}
	defer pool.Close()

	// Order store
	db, err := database.NewMongoDatabase(ctx, cfg.Mongo, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize order store: %w", err)
	}
	defer func() {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer disconnectCancel()
		if err := db.Client().Disconnect(disconnectCtx); err != nil {
			logger.Error().Err(err).Msg("failed to disconnect from order store")
		}
	}()

	itemRepo := repository.NewItemRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(db, cfg.Mongo.Collection, logger)

	if err := orderRepo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to ensure order indexes: %w", err)
	}

	if err := seedCatalog(ctx, cfg, itemRepo, logger); err != nil {
		return err
	}

	carts := cache.NewNoopCache()
	if cfg.Redis.Enabled {
		client, err := database.NewRedisClient(ctx, cfg.Redis, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize cart cache: %w", err)
		}
		defer client.Close()
		carts = cache.NewRedisCache(client, cfg.Redis.TTL)
	} else {
		logger.Info().Msg("cart cache disabled")
	}

	items := catalog.New(itemRepo, cfg.Breaker, logger)

	cartService := service.NewCartService(orderRepo, items, carts, logger)
	itemService := service.NewItemService(itemRepo, logger)

	mux := router.New(router.Config{
		Carts:          handler.NewCartHandler(cartService, logger),
		Orders:         handler.NewOrderHandler(cartService, logger),
		Items:          handler.NewItemHandler(itemService, logger),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
		HealthChecks: map[string]router.HealthCheck{
			"postgres": pool.Ping,
			"mongo": func(ctx context.Context) error {
				return db.Client().Ping(ctx, nil)
			},
		},
	}, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// seedCatalog loads the configured catalogue feeds, from S3 when enabled and from
// the local file system otherwise.
func seedCatalog(ctx context.Context, cfg *config.Config, repo repository.ItemRepository, logger zerolog.Logger) error {
	if len(cfg.Catalog.SeedFiles) == 0 {
		logger.Info().Msg("no catalog feeds configured, skipping seeding")
		return nil
	}

	var primary catalog.Loader
	if cfg.S3.Enabled {
		s3Loader, err := catalog.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
		} else {
			primary = s3Loader
		}
	}

	loader := catalog.NewFallbackLoader(primary, catalog.NewFileLoader(logger), cfg.S3.Prefix, logger)

	if _, err := catalog.NewSeeder(loader, repo, logger).Seed(ctx, cfg.Catalog.SeedFiles); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	return nil
}
