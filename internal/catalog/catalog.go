package catalog

import (
	"context"
	"errors"
	"fmt"

	"order-cart/internal/config"
	"order-cart/internal/model"
	"order-cart/internal/repository"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// Catalog resolves item references for orders.
type Catalog interface {
	// FindItemByID returns the item with the given id or ErrItemNotFound.
	FindItemByID(ctx context.Context, id string) (*model.Item, error)

	// FindItemsByIDs returns the items matching ids in a single lookup.
	// Unknown ids are omitted from the result.
	FindItemsByIDs(ctx context.Context, ids []string) ([]model.Item, error)
}

// breakerCatalog implements Catalog on top of the item repository, guarding every
// lookup with a circuit breaker.
type breakerCatalog struct {
	repo    repository.ItemRepository
	breaker *gobreaker.CircuitBreaker[[]model.Item]
	logger  zerolog.Logger
}

// New creates a catalogue backed by repo.
func New(repo repository.ItemRepository, cfg config.BreakerConfig, logger zerolog.Logger) Catalog {
	logger = logger.With().Str("component", "catalog").Logger()

	settings := gobreaker.Settings{
		Name:        "catalog",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			// A missing item or a caller that went away says nothing about catalogue health
			var domainErr *model.DomainError
			return err == nil ||
				errors.As(err, &domainErr) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}

	return &breakerCatalog{
		repo:    repo,
		breaker: gobreaker.NewCircuitBreaker[[]model.Item](settings),
		logger:  logger,
	}
}

// FindItemByID returns the item with the given id.
func (c *breakerCatalog) FindItemByID(ctx context.Context, id string) (*model.Item, error) {
	items, err := c.breaker.Execute(func() ([]model.Item, error) {
		item, err := c.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, model.ErrItemNotFound
		}
		return []model.Item{*item}, nil
	})
	if err != nil {
		if errors.Is(err, model.ErrItemNotFound) {
			c.logger.Debug().Str("item_id", id).Msg("item not found")
			return nil, err
		}
		return nil, c.unavailable(err, "failed to find item")
	}

	return &items[0], nil
}

// FindItemsByIDs returns the items matching ids.
func (c *breakerCatalog) FindItemsByIDs(ctx context.Context, ids []string) ([]model.Item, error) {
	if len(ids) == 0 {
		return []model.Item{}, nil
	}

	items, err := c.breaker.Execute(func() ([]model.Item, error) {
		return c.repo.GetByIDs(ctx, ids)
	})
	if err != nil {
		return nil, c.unavailable(err, "failed to find items")
	}

	return items, nil
}

// unavailable maps breaker rejections to ErrCatalogUnavailable and wraps other failures.
func (c *breakerCatalog) unavailable(err error, msg string) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.logger.Warn().Err(err).Msg("catalog lookup rejected by circuit breaker")
		return fmt.Errorf("%s: %w", msg, model.ErrCatalogUnavailable)
	}
	c.logger.Error().Err(err).Msg(msg)
	return fmt.Errorf("%s: %w", msg, err)
}
