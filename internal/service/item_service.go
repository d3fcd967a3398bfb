package service

import (
	"context"
	"fmt"

	"order-cart/internal/model"
	"order-cart/internal/repository"

	"github.com/rs/zerolog"
)

// Pagination bounds for catalogue listings.
const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// itemService implements ItemService.
type itemService struct {
	itemRepo repository.ItemRepository
	logger   zerolog.Logger
}

// NewItemService creates a new item service.
func NewItemService(itemRepo repository.ItemRepository, logger zerolog.Logger) ItemService {
	return &itemService{
		itemRepo: itemRepo,
		logger:   logger.With().Str("service", "item").Logger(),
	}
}

// GetAll retrieves a page of items ordered by name.
func (s *itemService) GetAll(ctx context.Context, limit, offset int) ([]model.Item, error) {
	switch {
	case limit <= 0:
		limit = defaultPageSize
	case limit > maxPageSize:
		limit = maxPageSize
	}
	offset = max(offset, 0)

	items, err := s.itemRepo.GetAll(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to list items")
		return nil, fmt.Errorf("failed to get items: %w", err)
	}

	return items, nil
}

// GetByID retrieves a single item.
func (s *itemService) GetByID(ctx context.Context, id string) (*model.Item, error) {
	if id == "" {
		return nil, model.ErrItemNotFound
	}

	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("item_id", id).Msg("failed to get item")
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	if item == nil {
		s.logger.Debug().Str("item_id", id).Msg("item not found")
		return nil, model.ErrItemNotFound
	}

	return item, nil
}
