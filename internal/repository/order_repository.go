package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"order-cart/internal/model"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Index names created by EnsureIndexes.
const (
	IndexUnpaidCart    = "user_unpaid_cart"
	IndexUserCreatedAt = "user_created_at"
)

// orderRepository implements the OrderRepository interface using MongoDB.
type orderRepository struct {
	collection *mongo.Collection
	logger     zerolog.Logger
}

// NewOrderRepository creates a new MongoDB-backed order repository.
func NewOrderRepository(db *mongo.Database, collection string, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		collection: db.Collection(collection),
		logger:     logger.With().Str("repository", "order").Logger(),
	}
}

// GetCart finds the unpaid order of userID, creating it when absent.
func (r *orderRepository) GetCart(ctx context.Context, userID string) (*model.Order, error) {
	if userID == "" {
		return nil, model.ErrInvalidUserID
	}

	now := time.Now().UTC().Truncate(time.Millisecond)

	filter := bson.D{{Key: "user", Value: userID}, {Key: "isPaid", Value: false}}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "user", Value: userID},
			{Key: "updatedAt", Value: now},
		}},
		{Key: "$setOnInsert", Value: bson.D{
			{Key: "lineItems", Value: bson.A{}},
			{Key: "createdAt", Value: now},
		}},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var order model.Order
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&order)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			r.logger.Warn().Err(err).Str("user_id", userID).Msg("concurrent cart creation")
			return nil, fmt.Errorf("cart for user %s: %w", userID, model.ErrCartConflict)
		}
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to upsert cart")
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	r.logger.Debug().
		Str("user_id", userID).
		Str("order_id", order.ID.Hex()).
		Int("line_items", len(order.LineItems)).
		Msg("cart resolved")

	return &order, nil
}

// GetByID retrieves an order by its identifier.
func (r *orderRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Order, error) {
	var order model.Order
	err := r.collection.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.Debug().Str("order_id", id.Hex()).Msg("order not found")
			return nil, model.ErrOrderNotFound
		}
		r.logger.Error().Err(err).Str("order_id", id.Hex()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return &order, nil
}

// Save validates the order and replaces its stored document. Orders without an
// identifier are inserted. An existing order is only replaced while it is unpaid;
// otherwise Save fails with ErrCartConflict.
func (r *orderRepository) Save(ctx context.Context, order *model.Order) (*model.Order, error) {
	if err := order.Validate(); err != nil {
		r.logger.Warn().Err(err).Str("order_id", order.ID.Hex()).Msg("order failed validation")
		return nil, err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	isNew := order.ID.IsZero()
	if isNew {
		order.ID = primitive.NewObjectID()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	if order.LineItems == nil {
		order.LineItems = []model.LineItem{}
	}
	for i := range order.LineItems {
		line := &order.LineItems[i]
		if line.ID.IsZero() {
			line.ID = primitive.NewObjectID()
		}
		if line.CreatedAt.IsZero() {
			line.CreatedAt = now
		}
		if line.UpdatedAt.IsZero() {
			line.UpdatedAt = now
		}
	}

	if isNew {
		_, err := r.collection.InsertOne(ctx, order)
		if err != nil {
			return nil, r.saveError(err, order)
		}
	} else {
		// Only open carts are writable; a paid order is final.
		filter := bson.D{{Key: "_id", Value: order.ID}, {Key: "isPaid", Value: false}}
		res, err := r.collection.ReplaceOne(ctx, filter, order)
		if err != nil {
			return nil, r.saveError(err, order)
		}
		if res.MatchedCount == 0 {
			r.logger.Warn().Str("order_id", order.ID.Hex()).Msg("order is no longer an open cart")
			return nil, fmt.Errorf("order %s is no longer an open cart: %w", order.ID.Hex(), model.ErrCartConflict)
		}
	}

	r.logger.Debug().
		Str("order_id", order.ID.Hex()).
		Int("line_items", len(order.LineItems)).
		Bool("is_paid", order.IsPaid).
		Msg("order saved")

	return order, nil
}

func (r *orderRepository) saveError(err error, order *model.Order) error {
	if mongo.IsDuplicateKeyError(err) {
		r.logger.Warn().Err(err).Str("order_id", order.ID.Hex()).Msg("second unpaid order for user")
		return fmt.Errorf("order %s: %w", order.ID.Hex(), model.ErrCartConflict)
	}
	r.logger.Error().Err(err).Str("order_id", order.ID.Hex()).Msg("failed to save order")
	return fmt.Errorf("failed to save order: %w", err)
}

// EnsureIndexes creates the unique unpaid-cart index and the order history index.
func (r *orderRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			// At most one unpaid order per user
			Keys: bson.D{{Key: "user", Value: 1}},
			Options: options.Index().
				SetName(IndexUnpaidCart).
				SetUnique(true).
				SetPartialFilterExpression(bson.D{
					{Key: "user", Value: bson.D{{Key: "$exists", Value: true}}},
					{Key: "isPaid", Value: false},
				}),
		},
		{
			Keys:    bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName(IndexUserCreatedAt),
		},
	}

	names, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to create indexes")
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	r.logger.Info().Strs("indexes", names).Msg("order indexes ensured")

	return nil
}
