package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"order-cart/internal/cache"
	"order-cart/internal/catalog"
	"order-cart/internal/model"
	"order-cart/internal/repository"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/singleflight"
)

const (
	// cacheTimeout bounds every cart cache call.
	cacheTimeout = time.Second

	// loadTimeout bounds a cart load shared by coalesced callers.
	loadTimeout = 10 * time.Second
)

// cartService implements CartService.
type cartService struct {
	orders  repository.OrderRepository
	catalog catalog.Catalog
	cache   cache.CartCache
	group   singleflight.Group
	logger  zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(
	orders repository.OrderRepository,
	catalog catalog.Catalog,
	carts cache.CartCache,
	logger zerolog.Logger,
) CartService {
	return &cartService{
		orders:  orders,
		catalog: catalog,
		cache:   carts,
		logger:  logger.With().Str("service", "cart").Logger(),
	}
}

// GetCart returns the cart of userID. Concurrent calls for the same user share one
// cache lookup and at most one upsert. Lines whose item has left the catalogue are
// dropped from the cart.
func (s *cartService) GetCart(ctx context.Context, userID string) (*model.Order, error) {
	if userID == "" {
		return nil, model.ErrInvalidUserID
	}

	v, err, shared := s.group.Do(userID, func() (interface{}, error) {
		// The load outlives the caller that started it; other callers may be waiting on it.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		if cart := s.cached(ctx, userID); cart != nil {
			return cart, nil
		}

		cart, err := s.orders.GetCart(ctx, userID)
		if err != nil {
			return nil, err
		}

		s.store(ctx, userID, cart)
		return cart, nil
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to get cart")
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	cart := v.(*model.Order)
	if shared {
		cart = clone(cart)
	}

	missing, err := s.resolve(ctx, cart)
	if err != nil {
		return nil, err
	}
	if len(missing) == 0 {
		return cart, nil
	}

	for _, itemID := range missing {
		cart.SetItemQty(itemID, 0)
	}

	s.logger.Warn().
		Str("order_id", cart.ID.Hex()).
		Strs("item_ids", missing).
		Msg("dropping cart lines for items missing from catalog")

	return s.save(ctx, cart)
}

// AddItemToCart adds one unit of itemID to cart.
func (s *cartService) AddItemToCart(ctx context.Context, cart *model.Order, itemID string) (*model.Order, error) {
	if cart == nil {
		return nil, model.ErrOrderNotFound
	}
	if itemID == "" {
		return nil, model.ErrItemNotFound
	}

	if !cart.IncrementItem(itemID) {
		item, err := s.catalog.FindItemByID(ctx, itemID)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("order_id", cart.ID.Hex()).
				Str("item_id", itemID).
				Msg("failed to look up item for cart")
			return nil, err
		}
		cart.AppendItem(item)
	}

	saved, err := s.save(ctx, cart)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", saved.ID.Hex()).
		Str("item_id", itemID).
		Int("total_qty", saved.TotalQty()).
		Msg("item added to cart")

	return saved, nil
}

// SetItemQty sets the quantity of itemID in cart.
func (s *cartService) SetItemQty(ctx context.Context, cart *model.Order, itemID string, qty int) (*model.Order, error) {
	if cart == nil {
		return nil, model.ErrOrderNotFound
	}

	if !cart.SetItemQty(itemID, qty) {
		s.logger.Debug().
			Str("order_id", cart.ID.Hex()).
			Str("item_id", itemID).
			Int("qty", qty).
			Msg("item not in cart, quantity unchanged")

		if err := s.populate(ctx, cart); err != nil {
			return nil, err
		}
		return cart, nil
	}

	saved, err := s.save(ctx, cart)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", saved.ID.Hex()).
		Str("item_id", itemID).
		Int("qty", qty).
		Msg("cart quantity updated")

	return saved, nil
}

// GetOrder retrieves an order by its hex identifier.
func (s *cartService) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		s.logger.Debug().Str("order_id", id).Msg("malformed order id")
		return nil, model.ErrInvalidOrderID
	}

	order, err := s.orders.GetByID(ctx, oid)
	if err != nil {
		if errors.Is(err, model.ErrOrderNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("order_id", id).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if err := s.populate(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}

// save persists cart, drops its cache entry and resolves its items.
func (s *cartService) save(ctx context.Context, cart *model.Order) (*model.Order, error) {
	saved, err := s.orders.Save(ctx, cart)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", cart.ID.Hex()).Msg("failed to save cart")
		if errors.Is(err, model.ErrCartConflict) && cart.User != "" {
			s.invalidate(ctx, cart.User)
		}
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	if saved.User != "" {
		s.invalidate(ctx, saved.User)
	}

	if err := s.populate(ctx, saved); err != nil {
		return nil, err
	}

	return saved, nil
}

// populate resolves every line item of order and fails with ErrItemNotResolved
// when a referenced item is missing from the catalogue.
func (s *cartService) populate(ctx context.Context, order *model.Order) error {
	missing, err := s.resolve(ctx, order)
	if err != nil {
		return err
	}

	if len(missing) > 0 {
		s.logger.Warn().
			Str("order_id", order.ID.Hex()).
			Strs("item_ids", missing).
			Msg("order references items missing from catalog")
		return fmt.Errorf("order %s items %s: %w", order.OrderID(), strings.Join(missing, ","), model.ErrItemNotResolved)
	}

	return nil
}

// resolve attaches catalogue items to the lines of order with one lookup and
// returns the ids it could not find.
func (s *cartService) resolve(ctx context.Context, order *model.Order) ([]string, error) {
	if len(order.LineItems) == 0 {
		return nil, nil
	}

	items, err := s.catalog.FindItemsByIDs(ctx, order.ItemIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve order items: %w", err)
	}

	return order.Populate(items), nil
}

// cached returns the cached cart of userID, or nil on a miss or a cache failure.
func (s *cartService) cached(ctx context.Context, userID string) *model.Order {
	ctx, cancel := context.WithTimeout(ctx, cacheTimeout)
	defer cancel()

	cart, err := s.cache.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("cart cache get failed")
		}
		return nil
	}

	if cart.IsPaid || cart.User != userID {
		s.logger.Warn().Str("user_id", userID).Msg("discarding stale cart cache entry")
		s.invalidate(ctx, userID)
		return nil
	}

	return cart
}

func (s *cartService) store(ctx context.Context, userID string, cart *model.Order) {
	ctx, cancel := context.WithTimeout(ctx, cacheTimeout)
	defer cancel()

	if err := s.cache.Set(ctx, userID, cart); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("cart cache set failed")
	}
}

func (s *cartService) invalidate(ctx context.Context, userID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheTimeout)
	defer cancel()

	if err := s.cache.Delete(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("cart cache invalidation failed")
	}
}

// clone copies the stored fields of order so callers sharing a result can mutate it.
func clone(order *model.Order) *model.Order {
	c := *order
	c.LineItems = make([]model.LineItem, len(order.LineItems))
	copy(c.LineItems, order.LineItems)
	return &c
}
