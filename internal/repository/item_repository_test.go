package repository

import (
	"context"
	"testing"
	"time"

	"order-cart/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupItemTestDB creates a PostgreSQL testcontainer with the catalogue schema.
func setupItemTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if testing.Short() {
		t.Skip("skipping container test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	schema := `
		CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			price NUMERIC(12,2) NOT NULL CHECK (price >= 0),
			category TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`
	_, err = pool.Exec(ctx, schema)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

func catalogFixture() []model.Item {
	return []model.Item{
		{ID: "I001", Name: "Americano", Price: decimal.RequireFromString("3.50"), Category: "Coffee"},
		{ID: "I002", Name: "Bagel", Price: decimal.RequireFromString("2.25"), Category: "Bakery"},
		{ID: "I003", Name: "Croissant", Price: decimal.RequireFromString("2.95"), Category: "Bakery"},
	}
}

func TestItemRepository_UpsertAndGetAll(t *testing.T) {
	pool, cleanup := setupItemTestDB(t)
	defer cleanup()

	repo := NewItemRepository(pool, zerolog.Nop())
	ctx := context.Background()

	n, err := repo.UpsertMany(ctx, catalogFixture())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	tests := []struct {
		name     string
		limit    int
		offset   int
		expected []string
	}{
		{name: "All items ordered by name", limit: 10, offset: 0, expected: []string{"I001", "I002", "I003"}},
		{name: "First page", limit: 2, offset: 0, expected: []string{"I001", "I002"}},
		{name: "Second page", limit: 2, offset: 2, expected: []string{"I003"}},
		{name: "Past the end", limit: 2, offset: 10, expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := repo.GetAll(ctx, tt.limit, tt.offset)
			require.NoError(t, err)

			ids := make([]string, len(items))
			for i, item := range items {
				ids[i] = item.ID
			}
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestItemRepository_GetByID(t *testing.T) {
	pool, cleanup := setupItemTestDB(t)
	defer cleanup()

	repo := NewItemRepository(pool, zerolog.Nop())
	ctx := context.Background()

	_, err := repo.UpsertMany(ctx, catalogFixture())
	require.NoError(t, err)

	t.Run("Existing item keeps decimal price", func(t *testing.T) {
		item, err := repo.GetByID(ctx, "I002")
		require.NoError(t, err)
		require.NotNil(t, item)
		assert.Equal(t, "Bagel", item.Name)
		assert.True(t, decimal.RequireFromString("2.25").Equal(item.Price))
		assert.False(t, item.CreatedAt.IsZero())
	})

	t.Run("Missing item returns nil", func(t *testing.T) {
		item, err := repo.GetByID(ctx, "I999")
		require.NoError(t, err)
		assert.Nil(t, item)
	})
}

func TestItemRepository_GetByIDs(t *testing.T) {
	pool, cleanup := setupItemTestDB(t)
	defer cleanup()

	repo := NewItemRepository(pool, zerolog.Nop())
	ctx := context.Background()

	_, err := repo.UpsertMany(ctx, catalogFixture())
	require.NoError(t, err)

	items, err := repo.GetByIDs(ctx, []string{"I003", "I999", "I001"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "I001", items[0].ID)
	assert.Equal(t, "I003", items[1].ID)

	empty, err := repo.GetByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestItemRepository_UpsertUpdatesExisting(t *testing.T) {
	pool, cleanup := setupItemTestDB(t)
	defer cleanup()

	repo := NewItemRepository(pool, zerolog.Nop())
	ctx := context.Background()

	_, err := repo.UpsertMany(ctx, catalogFixture())
	require.NoError(t, err)

	_, err = repo.UpsertMany(ctx, []model.Item{
		{ID: "I001", Name: "Long Black", Price: decimal.RequireFromString("3.80"), Category: "Coffee"},
	})
	require.NoError(t, err)

	item, err := repo.GetByID(ctx, "I001")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "Long Black", item.Name)
	assert.True(t, decimal.RequireFromString("3.80").Equal(item.Price))

	all, err := repo.GetAll(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestItemRepository_UpsertRejectsNegativePrice(t *testing.T) {
	pool, cleanup := setupItemTestDB(t)
	defer cleanup()

	repo := NewItemRepository(pool, zerolog.Nop())
	ctx := context.Background()

	_, err := repo.UpsertMany(ctx, []model.Item{
		{ID: "I010", Name: "Valid", Price: decimal.RequireFromString("1.00"), Category: "Misc"},
		{ID: "I011", Name: "Invalid", Price: decimal.RequireFromString("-1.00"), Category: "Misc"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "I011")

	// The whole batch is rolled back
	item, err := repo.GetByID(ctx, "I010")
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestItemRepository_ErrorPaths(t *testing.T) {
	pool, cleanup := setupItemTestDB(t)
	defer cleanup()

	repo := NewItemRepository(pool, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.GetAll(ctx, 10, 0)
	assert.Error(t, err)

	_, err = repo.GetByID(ctx, "I001")
	assert.Error(t, err)

	_, err = repo.GetByIDs(ctx, []string{"I001"})
	assert.Error(t, err)

	_, err = repo.UpsertMany(ctx, catalogFixture())
	assert.Error(t, err)
}
