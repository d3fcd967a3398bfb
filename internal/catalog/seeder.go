package catalog

import (
	"context"
	"fmt"

	"order-cart/internal/model"
	"order-cart/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Seeder loads catalogue feeds and writes their items to the item repository.
type Seeder struct {
	loader Loader
	repo   repository.ItemRepository
	logger zerolog.Logger
}

// NewSeeder creates a seeder reading feeds through loader.
func NewSeeder(loader Loader, repo repository.ItemRepository, logger zerolog.Logger) *Seeder {
	return &Seeder{
		loader: loader,
		repo:   repo,
		logger: logger.With().Str("component", "catalog-seeder").Logger(),
	}
}

// Seed loads every path concurrently and upserts the combined items. When the same
// id appears in several feeds, the feed listed last wins. It returns the number of
// items written.
func (s *Seeder) Seed(ctx context.Context, paths []string) (int, error) {
	if len(paths) == 0 {
		return 0, nil
	}

	s.logger.Info().Int("feed_count", len(paths)).Msg("seeding catalog")

	results := make([][]model.Item, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			items, err := s.loader.Load(gctx, path)
			if err != nil {
				return fmt.Errorf("failed to load catalog feed %s: %w", path, err)
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Msg("catalog seeding aborted")
		return 0, err
	}

	items := merge(results)

	written, err := s.repo.UpsertMany(ctx, items)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to write catalog items")
		return 0, fmt.Errorf("failed to seed catalog: %w", err)
	}

	s.logger.Info().Int("items_written", written).Msg("catalog seeded")

	return written, nil
}

// merge flattens feeds into distinct items, keeping the first position of each id
// and the last value seen for it.
func merge(feeds [][]model.Item) []model.Item {
	var items []model.Item
	index := make(map[string]int)
	for _, feed := range feeds {
		for _, item := range feed {
			if i, ok := index[item.ID]; ok {
				items[i] = item
				continue
			}
			index[item.ID] = len(items)
			items = append(items, item)
		}
	}
	return items
}
