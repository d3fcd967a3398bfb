package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"order-cart/internal/cache"
	"order-cart/internal/catalog"
	"order-cart/internal/config"
	"order-cart/internal/handler"
	"order-cart/internal/middleware"
	"order-cart/internal/model"
	"order-cart/internal/repository"
	"order-cart/internal/router"
	"order-cart/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineItemResponse struct {
	ID       string          `json:"id"`
	Qty      int             `json:"qty"`
	Item     model.Item      `json:"item"`
	ExtPrice decimal.Decimal `json:"extPrice"`
}

type orderResponse struct {
	ID         string             `json:"id"`
	OrderID    string             `json:"orderId"`
	User       string             `json:"user"`
	LineItems  []lineItemResponse `json:"lineItems"`
	IsPaid     bool               `json:"isPaid"`
	OrderTotal decimal.Decimal    `json:"orderTotal"`
	TotalQty   int                `json:"totalQty"`
}

func setupTestServer(t *testing.T, env *TestEnv, carts cache.CartCache) http.Handler {
	t.Helper()

	logger := zerolog.Nop()

	itemRepo := repository.NewItemRepository(env.Pool, logger)
	orderRepo := repository.NewOrderRepository(env.OrderDB, ordersCollection, logger)
	require.NoError(t, orderRepo.EnsureIndexes(t.Context()))

	items := catalog.New(itemRepo, config.BreakerConfig{
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             time.Second,
		ConsecutiveFailures: 5,
	}, logger)

	cartService := service.NewCartService(orderRepo, items, carts, logger)
	itemService := service.NewItemService(itemRepo, logger)

	return router.New(router.Config{
		Carts:          handler.NewCartHandler(cartService, logger),
		Orders:         handler.NewOrderHandler(cartService, logger),
		Items:          handler.NewItemHandler(itemService, logger),
		AllowedOrigins: []string{"http://localhost:3000"},
		RequestTimeout: 10 * time.Second,
	}, logger)
}

func do(t *testing.T, server http.Handler, method, path, userID string, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if userID != "" {
		req.Header.Set(middleware.HeaderUserID, userID)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)
	return w
}

func decodeOrder(t *testing.T, w *httptest.ResponseRecorder) orderResponse {
	t.Helper()

	var order orderResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&order))
	return order
}

func TestItemAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	env := SetupTestEnv(t)
	server := setupTestServer(t, env, cache.NewNoopCache())

	t.Run("GET /api/items returns the catalogue", func(t *testing.T) {
		CleanupStores(t, env)
		SeedItems(t, env.Pool)

		w := do(t, server, http.MethodGet, "/api/items", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var items []model.Item
		require.NoError(t, json.NewDecoder(w.Body).Decode(&items))
		assert.Len(t, items, 3)
	})

	t.Run("GET /api/items with pagination", func(t *testing.T) {
		CleanupStores(t, env)
		SeedItems(t, env.Pool)

		w := do(t, server, http.MethodGet, "/api/items?limit=2&offset=2", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var items []model.Item
		require.NoError(t, json.NewDecoder(w.Body).Decode(&items))
		assert.Len(t, items, 1)
	})

	t.Run("GET /api/items/{id} returns 404 for unknown item", func(t *testing.T) {
		CleanupStores(t, env)

		w := do(t, server, http.MethodGet, "/api/items/I999", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		var errResp model.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&errResp))
		assert.Equal(t, model.ErrCodeItemNotFound, errResp.Error)
	})
}

func TestCartAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	env := SetupTestEnv(t)
	server := setupTestServer(t, env, cache.NewNoopCache())

	t.Run("GET /api/cart creates one cart per user", func(t *testing.T) {
		CleanupStores(t, env)

		first := decodeOrder(t, do(t, server, http.MethodGet, "/api/cart", "alice", nil))
		second := decodeOrder(t, do(t, server, http.MethodGet, "/api/cart", "alice", nil))

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "alice", first.User)
		assert.False(t, first.IsPaid)
		assert.Empty(t, first.LineItems)
		assert.True(t, first.OrderTotal.IsZero())
		assert.Len(t, first.OrderID, 6)
	})

	t.Run("adding items accumulates quantities and totals", func(t *testing.T) {
		CleanupStores(t, env)
		SeedItems(t, env.Pool)

		require.Equal(t, http.StatusOK, do(t, server, http.MethodPost, "/api/cart/items/I001", "bob", nil).Code)
		require.Equal(t, http.StatusOK, do(t, server, http.MethodPost, "/api/cart/items/I002", "bob", nil).Code)
		w := do(t, server, http.MethodPost, "/api/cart/items/I001", "bob", nil)
		require.Equal(t, http.StatusOK, w.Code)

		cart := decodeOrder(t, w)
		require.Len(t, cart.LineItems, 2)
		assert.Equal(t, "I001", cart.LineItems[0].Item.ID)
		assert.Equal(t, 2, cart.LineItems[0].Qty)
		assert.True(t, decimal.RequireFromString("5.00").Equal(cart.LineItems[0].ExtPrice))
		assert.Equal(t, "I002", cart.LineItems[1].Item.ID)
		assert.Equal(t, 1, cart.LineItems[1].Qty)
		assert.Equal(t, 3, cart.TotalQty)
		assert.True(t, decimal.RequireFromString("8.10").Equal(cart.OrderTotal))
	})

	t.Run("setting qty to zero removes the line", func(t *testing.T) {
		CleanupStores(t, env)
		SeedItems(t, env.Pool)

		require.Equal(t, http.StatusOK, do(t, server, http.MethodPost, "/api/cart/items/I001", "carol", nil).Code)
		require.Equal(t, http.StatusOK, do(t, server, http.MethodPost, "/api/cart/items/I003", "carol", nil).Code)

		w := do(t, server, http.MethodPut, "/api/cart/items/I003", "carol", []byte(`{"qty":4}`))
		require.Equal(t, http.StatusOK, w.Code)
		cart := decodeOrder(t, w)
		assert.Equal(t, 5, cart.TotalQty)
		assert.True(t, decimal.RequireFromString("14.30").Equal(cart.OrderTotal))

		w = do(t, server, http.MethodPut, "/api/cart/items/I001", "carol", []byte(`{"qty":0}`))
		require.Equal(t, http.StatusOK, w.Code)
		cart = decodeOrder(t, w)
		require.Len(t, cart.LineItems, 1)
		assert.Equal(t, "I003", cart.LineItems[0].Item.ID)

		reloaded := decodeOrder(t, do(t, server, http.MethodGet, "/api/cart", "carol", nil))
		assert.Equal(t, cart.ID, reloaded.ID)
		assert.Equal(t, 4, reloaded.TotalQty)
	})

	t.Run("adding an unknown item returns 404", func(t *testing.T) {
		CleanupStores(t, env)
		SeedItems(t, env.Pool)

		w := do(t, server, http.MethodPost, "/api/cart/items/I999", "dave", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		cart := decodeOrder(t, do(t, server, http.MethodGet, "/api/cart", "dave", nil))
		assert.Empty(t, cart.LineItems)
	})

	t.Run("invalid qty body returns 400", func(t *testing.T) {
		CleanupStores(t, env)

		w := do(t, server, http.MethodPut, "/api/cart/items/I001", "erin", []byte(`{"qty":"two"}`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("negative qty removes the line", func(t *testing.T) {
		CleanupStores(t, env)
		SeedItems(t, env.Pool)

		require.Equal(t, http.StatusOK, do(t, server, http.MethodPost, "/api/cart/items/I001", "frank", nil).Code)

		w := do(t, server, http.MethodPut, "/api/cart/items/I001", "frank", []byte(`{"qty":-1}`))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decodeOrder(t, w).LineItems)
	})

	t.Run("setting qty of an absent item leaves the cart unchanged", func(t *testing.T) {
		CleanupStores(t, env)
		SeedItems(t, env.Pool)

		w := do(t, server, http.MethodPut, "/api/cart/items/I002", "gus", []byte(`{"qty":3}`))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decodeOrder(t, w).LineItems)
	})

	t.Run("carts are isolated per user", func(t *testing.T) {
		CleanupStores(t, env)
		SeedItems(t, env.Pool)

		require.Equal(t, http.StatusOK, do(t, server, http.MethodPost, "/api/cart/items/I001", "gina", nil).Code)

		other := decodeOrder(t, do(t, server, http.MethodGet, "/api/cart", "hank", nil))
		assert.Empty(t, other.LineItems)
	})

	t.Run("a withdrawn item is dropped from the cart", func(t *testing.T) {
		CleanupStores(t, env)
		SeedItems(t, env.Pool)

		require.Equal(t, http.StatusOK, do(t, server, http.MethodPost, "/api/cart/items/I001", "iris", nil).Code)
		require.Equal(t, http.StatusOK, do(t, server, http.MethodPost, "/api/cart/items/I002", "iris", nil).Code)

		_, err := env.Pool.Exec(t.Context(), "DELETE FROM items WHERE id = $1", "I002")
		require.NoError(t, err)

		w := do(t, server, http.MethodGet, "/api/cart", "iris", nil)
		require.Equal(t, http.StatusOK, w.Code)
		cart := decodeOrder(t, w)
		require.Len(t, cart.LineItems, 1)
		assert.Equal(t, "I001", cart.LineItems[0].Item.ID)
		assert.True(t, decimal.RequireFromString("2.50").Equal(cart.OrderTotal))
	})

	t.Run("missing user header returns 401", func(t *testing.T) {
		w := do(t, server, http.MethodGet, "/api/cart", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestOrderAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	env := SetupTestEnv(t)
	server := setupTestServer(t, env, cache.NewNoopCache())

	t.Run("owner can fetch the order", func(t *testing.T) {
		CleanupStores(t, env)
		SeedItems(t, env.Pool)

		cart := decodeOrder(t, do(t, server, http.MethodPost, "/api/cart/items/I002", "ivy", nil))

		w := do(t, server, http.MethodGet, "/api/orders/"+cart.ID, "ivy", nil)
		require.Equal(t, http.StatusOK, w.Code)

		order := decodeOrder(t, w)
		assert.Equal(t, cart.ID, order.ID)
		assert.Equal(t, cart.OrderID, order.OrderID)
		assert.True(t, decimal.RequireFromString("3.10").Equal(order.OrderTotal))
	})

	t.Run("other users get 404", func(t *testing.T) {
		CleanupStores(t, env)

		cart := decodeOrder(t, do(t, server, http.MethodGet, "/api/cart", "jack", nil))

		w := do(t, server, http.MethodGet, "/api/orders/"+cart.ID, "kate", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed id returns 400", func(t *testing.T) {
		w := do(t, server, http.MethodGet, "/api/orders/not-an-id", "jack", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCartAPI_RedisCache_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	env := SetupTestEnv(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	server := setupTestServer(t, env, cache.NewRedisCache(client, time.Minute))

	CleanupStores(t, env)
	SeedItems(t, env.Pool)

	first := decodeOrder(t, do(t, server, http.MethodGet, "/api/cart", "lena", nil))
	assert.True(t, mr.Exists("cart:lena"))

	// Writes drop the cached copy so the next read sees the new line.
	require.Equal(t, http.StatusOK, do(t, server, http.MethodPost, "/api/cart/items/I001", "lena", nil).Code)
	assert.False(t, mr.Exists("cart:lena"))

	second := decodeOrder(t, do(t, server, http.MethodGet, "/api/cart", "lena", nil))
	assert.Equal(t, first.ID, second.ID)
	require.Len(t, second.LineItems, 1)
	assert.Equal(t, "Espresso", second.LineItems[0].Item.Name)
	assert.True(t, mr.Exists("cart:lena"))
}

func TestCORS_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	env := SetupTestEnv(t)
	server := setupTestServer(t, env, cache.NewNoopCache())

	req := httptest.NewRequest(http.MethodOptions, "/api/cart", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", middleware.HeaderUserID)
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
