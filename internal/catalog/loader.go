package catalog

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"order-cart/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// feedColumns is the number of fields of a feed record: id, name, price, category.
const feedColumns = 4

// Loader reads a catalogue feed and returns its items.
type Loader interface {
	// Load reads a gzipped CSV feed with one item per line.
	Load(ctx context.Context, path string) ([]model.Item, error)
}

// fileLoader implements Loader for feeds on the local file system.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based feed loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "catalog-loader").Logger(),
	}
}

// Load reads a gzipped feed file.
func (l *fileLoader) Load(ctx context.Context, path string) ([]model.Item, error) {
	l.logger.Info().Str("file", path).Msg("loading catalog feed")

	file, err := os.Open(path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to open catalog feed")
		return nil, fmt.Errorf("failed to open catalog feed %s: %w", path, err)
	}
	defer file.Close()

	items, err := readFeed(ctx, file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to read catalog feed")
		return nil, fmt.Errorf("failed to read catalog feed %s: %w", path, err)
	}

	l.logger.Info().
		Str("file", path).
		Int("items_loaded", len(items)).
		Msg("catalog feed loaded")

	return items, nil
}

// readFeed decodes a gzipped CSV stream. A leading header row is skipped and
// blank lines are ignored.
func readFeed(ctx context.Context, r io.Reader) ([]model.Item, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	reader := csv.NewReader(gz)
	reader.FieldsPerRecord = feedColumns
	reader.TrimLeadingSpace = true

	items := []model.Item{}
	for {
		if len(items)%10_000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		line, _ := reader.FieldPos(0)
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "id") {
			continue
		}

		item, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		items = append(items, item)
	}

	return items, nil
}

// parseRecord converts a feed record into an item.
func parseRecord(record []string) (model.Item, error) {
	id := strings.TrimSpace(record[0])
	if id == "" {
		return model.Item{}, fmt.Errorf("item id is required")
	}

	price, err := decimal.NewFromString(strings.TrimSpace(record[2]))
	if err != nil {
		return model.Item{}, fmt.Errorf("invalid price %q for item %s: %w", record[2], id, err)
	}
	if price.IsNegative() {
		return model.Item{}, fmt.Errorf("negative price for item %s", id)
	}

	return model.Item{
		ID:       id,
		Name:     strings.TrimSpace(record[1]),
		Price:    price,
		Category: strings.TrimSpace(record[3]),
	}, nil
}
