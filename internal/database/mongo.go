package database

import (
	"context"
	"fmt"
	"time"

	"order-cart/internal/config"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NewMongoDatabase connects to MongoDB and returns the configured database handle.
// Callers disconnect through db.Client().Disconnect.
func NewMongoDatabase(ctx context.Context, cfg config.MongoConfig, logger zerolog.Logger) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(time.Duration(cfg.ConnectTimeout) * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(uint64(cfg.MaxPoolSize)).
		SetMinPoolSize(uint64(cfg.MinPoolSize))

	logger.Info().
		Str("database", cfg.Database).
		Int("max_pool_size", cfg.MaxPoolSize).
		Msg("connecting to order store")

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Info().Msg("order store connection established")

	return client.Database(cfg.Database), nil
}
