package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"order-cart/internal/config"
	"order-cart/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const ordersCollection = "orders"

// TestEnv holds the catalogue and order stores backing an integration test.
type TestEnv struct {
	Pool    *pgxpool.Pool
	OrderDB *mongo.Database
}

// SetupTestEnv starts PostgreSQL and MongoDB containers and connects to both.
func SetupTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	ctx := context.Background()
	logger := zerolog.Nop()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := database.NewPoolFromConnString(ctx, connStr, config.DatabaseConfig{
		MaxConnections:  10,
		MinConnections:  2,
		MaxConnLifetime: 300,
	}, logger)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}
	t.Cleanup(pool.Close)

	createSchema(t, pool)

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		t.Fatalf("failed to start mongo container: %v", err)
	}
	t.Cleanup(func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate mongo container: %v", err)
		}
	})

	uri, err := mongoContainer.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get mongo connection string: %v", err)
	}

	db, err := database.NewMongoDatabase(ctx, config.MongoConfig{
		URI:            uri,
		Database:       "testdb",
		Collection:     ordersCollection,
		MaxPoolSize:    20,
		MinPoolSize:    1,
		ConnectTimeout: 10,
	}, logger)
	if err != nil {
		t.Fatalf("failed to connect to mongo: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Client().Disconnect(ctx)
	})

	return &TestEnv{Pool: pool, OrderDB: db}
}

// createSchema applies the catalogue schema shipped with the service.
func createSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	schema, err := os.ReadFile("../../scripts/sql/catalog.sql")
	if err != nil {
		t.Fatalf("failed to read schema: %v", err)
	}

	if _, err := pool.Exec(context.Background(), string(schema)); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
}

// SeedItems inserts the catalogue fixture used by the integration tests.
func SeedItems(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	items := []struct {
		id       string
		name     string
		price    string
		category string
	}{
		{"I001", "Espresso", "2.50", "coffee"},
		{"I002", "Croissant", "3.10", "bakery"},
		{"I003", "Blueberry Muffin", "2.95", "bakery"},
	}

	for _, it := range items {
		_, err := pool.Exec(context.Background(),
			"INSERT INTO items (id, name, price, category) VALUES ($1, $2, $3::numeric, $4)",
			it.id, it.name, it.price, it.category,
		)
		if err != nil {
			t.Fatalf("failed to seed item %s: %v", it.id, err)
		}
	}
}

// CleanupStores removes all catalogue items and orders.
func CleanupStores(t *testing.T, env *TestEnv) {
	t.Helper()

	ctx := context.Background()

	if _, err := env.Pool.Exec(ctx, "DELETE FROM items"); err != nil {
		t.Logf("failed to clean items: %v", err)
	}
	if _, err := env.OrderDB.Collection(ordersCollection).DeleteMany(ctx, bson.M{}); err != nil {
		t.Logf("failed to clean orders: %v", err)
	}
}
