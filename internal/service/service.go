package service

import (
	"context"

	"order-cart/internal/model"
)

// ItemService defines read operations over the catalogue.
type ItemService interface {
	// GetAll retrieves catalogue items with pagination.
	GetAll(ctx context.Context, limit, offset int) ([]model.Item, error)

	// GetByID retrieves a single item by ID.
	GetByID(ctx context.Context, id string) (*model.Item, error)
}

// CartService defines the cart operations. Every returned order has its line items
// resolved against the catalogue.
type CartService interface {
	// GetCart returns the unpaid order of userID, creating it on first access.
	GetCart(ctx context.Context, userID string) (*model.Order, error)

	// AddItemToCart increments the line referencing itemID, or appends a new line
	// with quantity 1 after looking the item up in the catalogue, then saves the cart.
	AddItemToCart(ctx context.Context, cart *model.Order, itemID string) (*model.Order, error)

	// SetItemQty overwrites the quantity of the line referencing itemID, removing it
	// when qty is zero or less, then saves the cart. An item not in the cart is ignored.
	SetItemQty(ctx context.Context, cart *model.Order, itemID string, qty int) (*model.Order, error)

	// GetOrder retrieves any order, paid or not, by its hex identifier.
	GetOrder(ctx context.Context, id string) (*model.Order, error)
}
