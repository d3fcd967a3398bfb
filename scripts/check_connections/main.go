package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"order-cart/internal/config"
	"order-cart/internal/database"
)

// Checks that every backing store in the current environment is reachable.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := config.NewLogger(cfg.Logger)
	failed := false

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "postgres: %v\n", err)
		failed = true
	} else {
		var dbName string
		if err := pool.QueryRow(ctx, "SELECT current_database()").Scan(&dbName); err != nil {
			fmt.Fprintf(os.Stderr, "postgres: %v\n", err)
			failed = true
		} else {
			fmt.Printf("postgres: connected to %s\n", dbName)
		}
		pool.Close()
	}

	db, err := database.NewMongoDatabase(ctx, cfg.Mongo, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mongo: %v\n", err)
		failed = true
	} else {
		fmt.Printf("mongo: connected to %s\n", db.Name())
		_ = db.Client().Disconnect(ctx)
	}

	if cfg.Redis.Enabled {
		client, err := database.NewRedisClient(ctx, cfg.Redis, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "redis: %v\n", err)
			failed = true
		} else {
			fmt.Printf("redis: connected to %s\n", cfg.Redis.Addr)
			_ = client.Close()
		}
	}

	if failed {
		os.Exit(1)
	}
}
