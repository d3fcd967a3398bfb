package repository

import (
	"context"

	"order-cart/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ItemRepository defines the interface for catalogue data access operations.
type ItemRepository interface {
	// GetAll retrieves all items with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Item, error)

	// GetByID retrieves a single item by its ID. It returns nil when the item does not exist.
	GetByID(ctx context.Context, id string) (*model.Item, error)

	// GetByIDs retrieves the items matching ids. Unknown ids are omitted from the result.
	GetByIDs(ctx context.Context, ids []string) ([]model.Item, error)

	// UpsertMany inserts or updates items in a single transaction and returns the number written.
	UpsertMany(ctx context.Context, items []model.Item) (int, error)
}

// OrderRepository defines the interface for order document operations.
type OrderRepository interface {
	// GetCart atomically finds the unpaid order of userID or creates it, returning
	// the document as it is after the update.
	GetCart(ctx context.Context, userID string) (*model.Order, error)

	// GetByID retrieves an order by its identifier.
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Order, error)

	// Save validates and persists the stored fields of an order. Existing orders are
	// only replaced while unpaid; a paid order yields ErrCartConflict.
	Save(ctx context.Context, order *model.Order) (*model.Order, error)

	// EnsureIndexes creates the indexes the order collection relies on.
	EnsureIndexes(ctx context.Context) error
}
