package service

import (
	"context"
	"errors"
	"testing"

	"order-cart/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockItemRepository is a mock implementation of ItemRepository.
type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) GetAll(ctx context.Context, limit, offset int) ([]model.Item, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Item), args.Error(1)
}

func (m *MockItemRepository) GetByID(ctx context.Context, id string) (*model.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Item), args.Error(1)
}

func (m *MockItemRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Item, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Item), args.Error(1)
}

func (m *MockItemRepository) UpsertMany(ctx context.Context, items []model.Item) (int, error) {
	args := m.Called(ctx, items)
	return args.Int(0), args.Error(1)
}

func TestItemService_GetAll(t *testing.T) {
	ctx := context.Background()

	testItems := []model.Item{
		{ID: "I001", Name: "Americano", Price: decimal.RequireFromString("3.00"), Category: "Coffee"},
		{ID: "I002", Name: "Bagel", Price: decimal.RequireFromString("2.20"), Category: "Bakery"},
	}

	tests := []struct {
		name           string
		limit          int
		offset         int
		expectedLimit  int
		expectedOffset int
		mockReturn     []model.Item
		mockError      error
		expectError    bool
	}{
		{name: "Explicit page", limit: 10, offset: 5, expectedLimit: 10, expectedOffset: 5, mockReturn: testItems},
		{name: "Zero limit uses default", limit: 0, expectedLimit: defaultPageSize, mockReturn: testItems},
		{name: "Negative limit uses default", limit: -3, expectedLimit: defaultPageSize, mockReturn: testItems},
		{name: "Limit capped", limit: 1000, expectedLimit: maxPageSize, mockReturn: testItems},
		{name: "Negative offset clamped", limit: 10, offset: -1, expectedLimit: 10, expectedOffset: 0, mockReturn: testItems},
		{name: "Repository error", limit: 10, expectedLimit: 10, mockError: errors.New("database error"), expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockItemRepository)
			service := NewItemService(mockRepo, zerolog.Nop())

			mockRepo.On("GetAll", ctx, tt.expectedLimit, tt.expectedOffset).
				Return(tt.mockReturn, tt.mockError)

			items, err := service.GetAll(ctx, tt.limit, tt.offset)

			if tt.expectError {
				require.Error(t, err)
				assert.Nil(t, items)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.mockReturn, items)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestItemService_GetByID(t *testing.T) {
	ctx := context.Background()

	testItem := &model.Item{ID: "I001", Name: "Americano", Price: decimal.RequireFromString("3.00")}

	tests := []struct {
		name        string
		itemID      string
		mockReturn  *model.Item
		mockError   error
		expectError bool
		expectedErr error
	}{
		{name: "Success", itemID: "I001", mockReturn: testItem},
		{name: "Item not found", itemID: "I999", expectError: true, expectedErr: model.ErrItemNotFound},
		{name: "Empty item ID", itemID: "", expectError: true, expectedErr: model.ErrItemNotFound},
		{name: "Repository error", itemID: "I001", mockError: errors.New("database error"), expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockItemRepository)
			service := NewItemService(mockRepo, zerolog.Nop())

			if tt.itemID != "" {
				mockRepo.On("GetByID", ctx, tt.itemID).Return(tt.mockReturn, tt.mockError)
			}

			item, err := service.GetByID(ctx, tt.itemID)

			if tt.expectError {
				require.Error(t, err)
				assert.Nil(t, item)
				if tt.expectedErr != nil {
					assert.Equal(t, tt.expectedErr, err)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.mockReturn, item)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}
