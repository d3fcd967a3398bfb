package repository

import (
	"context"
	"errors"
	"fmt"

	"order-cart/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// itemColumns selects price as text so it can be parsed without losing precision.
const itemColumns = `id, name, price::text, category, created_at`

// itemRepository implements the ItemRepository interface using PostgreSQL.
type itemRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewItemRepository creates a new PostgreSQL-backed catalogue repository.
func NewItemRepository(pool *pgxpool.Pool, logger zerolog.Logger) ItemRepository {
	return &itemRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "item").Logger(),
	}
}

// rowScanner is satisfied by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (model.Item, error) {
	var (
		item  model.Item
		price string
	)
	if err := row.Scan(&item.ID, &item.Name, &price, &item.Category, &item.CreatedAt); err != nil {
		return model.Item{}, err
	}

	p, err := decimal.NewFromString(price)
	if err != nil {
		return model.Item{}, fmt.Errorf("invalid price %q for item %s: %w", price, item.ID, err)
	}
	item.Price = p

	return item, nil
}

// GetAll retrieves all items with pagination support.
func (r *itemRepository) GetAll(ctx context.Context, limit, offset int) ([]model.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items
		ORDER BY name
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to query items")
		return nil, fmt.Errorf("failed to query items: %w", err)
	}

	return r.collect(rows)
}

// GetByID retrieves a single item by its ID.
func (r *itemRepository) GetByID(ctx context.Context, id string) (*model.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE id = $1
	`

	item, err := scanItem(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("item_id", id).Msg("item not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("item_id", id).Msg("failed to query item")
		return nil, fmt.Errorf("failed to query item: %w", err)
	}

	return &item, nil
}

// GetByIDs retrieves multiple items by their IDs.
func (r *itemRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Item, error) {
	if len(ids) == 0 {
		return []model.Item{}, nil
	}

	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE id = ANY($1)
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query items by IDs")
		return nil, fmt.Errorf("failed to query items by IDs: %w", err)
	}

	return r.collect(rows)
}

// UpsertMany inserts or updates items within one transaction using a batch.
func (r *itemRepository) UpsertMany(ctx context.Context, items []model.Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// No-op once committed
		_ = tx.Rollback(ctx)
	}()

	query := `
		INSERT INTO items (id, name, price, category)
		VALUES ($1, $2, $3::numeric, $4)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, price = EXCLUDED.price, category = EXCLUDED.category
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query, item.ID, item.Name, item.Price.String(), item.Category)
	}

	results := tx.SendBatch(ctx, batch)
	for i := range items {
		if _, err := results.Exec(); err != nil {
			results.Close()
			r.logger.Error().
				Err(err).
				Str("item_id", items[i].ID).
				Msg("failed to upsert item")
			return 0, fmt.Errorf("failed to upsert item %s: %w", items[i].ID, err)
		}
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("failed to close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Msg("failed to commit item upsert")
		return 0, fmt.Errorf("failed to commit item upsert: %w", err)
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("items upserted successfully")

	return len(items), nil
}

func (r *itemRepository) collect(rows pgx.Rows) ([]model.Item, error) {
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan item row")
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating item rows")
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}
