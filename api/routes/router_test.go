package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/collection"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

const adminEmail = "admin@example.com"

type testServer struct {
	handler http.Handler
	conn    *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, nil)
}

func newTestServerWith(t *testing.T, customize func(*Deps)) *testServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, conn.AutoMigrate(models.All()...))
	t.Cleanup(func() { _ = sqlDB.Close() })

	cfg := &config.Config{
		App:        config.AppConfig{Env: "test"},
		JWT:        config.JWTConfig{Secret: "router-test-secret", Issuer: "storefront", ExpirationMinutes: 60},
		Auth:       config.AuthConfig{AdminEmail: adminEmail},
		Password:   config.PasswordConfig{ArgonMemoryKB: 1024, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32},
		Collection: config.CollectionConfig{MaxAttempts: 5, RetryBackoff: time.Millisecond},
	}
	logg := logger.Nop()
	client := db.NewFromGorm(conn)

	tokens, err := pkgAuth.NewTokenService(cfg.JWT)
	require.NoError(t, err)
	credentials, err := auth.NewCredentialStore(auth.CredentialStoreParams{
		DB:             client,
		PasswordConfig: cfg.Password,
		AuthConfig:     cfg.Auth,
		Logger:         logg,
	})
	require.NoError(t, err)
	guard, err := auth.NewGuard(auth.GuardParams{Tokens: tokens, Accounts: credentials, AuthConfig: cfg.Auth, Logger: logg})
	require.NoError(t, err)
	authSvc, err := auth.NewService(auth.ServiceParams{Credentials: credentials, Tokens: tokens})
	require.NoError(t, err)

	products, err := product.NewService(product.NewRepository(conn), client)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	engine, err := collection.NewService(collection.ServiceParams{
		Store:   collection.NewRepository(conn),
		Catalog: products,
		Config:  cfg.Collection,
		Metrics: metrics.NewCollectionMetrics(reg),
		Logger:  logg,
	})
	require.NoError(t, err)
	cartSvc, err := cart.NewService(engine, products)
	require.NoError(t, err)
	wishlistSvc, err := wishlist.NewService(engine, products)
	require.NoError(t, err)

	deps := Deps{
		Config:      cfg,
		Logger:      logg,
		Gatherer:    reg,
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
		DB:          client,
		Guard:       guard,
		Auth:        authSvc,
		Products:    products,
		Cart:        cartSvc,
		Wishlist:    wishlistSvc,
	}
	if customize != nil {
		customize(&deps)
	}
	return &testServer{handler: NewRouter(deps), conn: conn}
}

func (s *testServer) do(t *testing.T, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	return s.doWithHeaders(t, method, target, token, body, nil)
}

func (s *testServer) doWithHeaders(t *testing.T, method, target, token, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) seedProduct(t *testing.T, code string) int64 {
	t.Helper()
	p := &models.Product{
		Code:            code,
		Name:            "Product " + code,
		Category:        "Accessories",
		Price:           decimal.RequireFromString("19.90"),
		Quantity:        10,
		InventoryStatus: enums.InventoryStatusInStock,
	}
	require.NoError(t, s.conn.Create(p).Error)
	return p.ID
}

func (s *testServer) register(t *testing.T, email string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/account", "", fmt.Sprintf(`{"username":"u","firstname":"F","email":%q,"password":"secret1"}`, email))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp auth.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Status    int    `json:"status"`
		Code      string `json:"code"`
		Message   string `json:"message"`
		Timestamp int64  `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, rec.Code, body.Status)
	assert.NotZero(t, body.Timestamp)
	return body.Code
}

func TestAccountAndTokenFlow(t *testing.T) {
	s := newTestServer(t)

	body := `{"username":"jane","firstname":"Jane","email":"jane@example.com","password":"secret1"}`
	rec := s.do(t, http.MethodPost, "/api/account", "", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created auth.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Bearer", created.Type)
	assert.Equal(t, "jane@example.com", created.Email)
	assert.NotEmpty(t, created.Token)

	rec = s.do(t, http.MethodPost, "/api/account", "", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "DUPLICATE_RESOURCE", errorCode(t, rec))

	rec = s.do(t, http.MethodPost, "/api/token", "", `{"email":"jane@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/token", "", `{"email":"jane@example.com","password":"wrong-password"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHENTICATED", errorCode(t, rec))

	rec = s.do(t, http.MethodPost, "/api/token", "", `{"email":"nobody@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/account", "", `{"username":"x","email":"not-an-email","password":"123"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Code   string            `json:"code"`
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
	assert.Contains(t, body.Errors, "email")
	assert.Contains(t, body.Errors, "password")
}

func TestProductAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	id := s.seedProduct(t, "P-1")
	userToken := s.register(t, "user@example.com")
	adminToken := s.register(t, adminEmail)

	rec := s.do(t, http.MethodDelete, fmt.Sprintf("/api/products/%d", id), "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/api/products/%d", id), userToken, "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, rec))

	payload := `{"code":"P-2","name":"Bamboo Watch","category":"Accessories","price":"65.00","quantity":24,"inventoryStatus":"INSTOCK","rating":5}`
	rec = s.do(t, http.MethodPost, "/api/products", userToken, payload)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/products", adminToken, payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created product.ProductDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "P-2", created.Code)

	rec = s.do(t, http.MethodPut, "/api/products/999999", adminToken, payload)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/products/999999", adminToken, "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/api/products/%d", id), adminToken, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/api/products/%d", id), "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, rec))
}

func TestPublicProductRoutes(t *testing.T) {
	s := newTestServer(t)
	s.seedProduct(t, "A")
	s.seedProduct(t, "B")

	rec := s.do(t, http.MethodGet, "/api/products", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var items []product.ProductDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	assert.Len(t, items, 2)

	rec = s.do(t, http.MethodGet, "/api/products/category/Accessories", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	assert.Len(t, items, 2)

	rec = s.do(t, http.MethodGet, "/api/products/status/INSTOCK", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/products/status/SOLDOUT", "", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/products/abc", "", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartRoutes(t *testing.T) {
	s := newTestServer(t)
	id := s.seedProduct(t, "C-1")
	other := s.seedProduct(t, "C-2")
	token := s.register(t, "shopper@example.com")

	rec := s.do(t, http.MethodGet, "/api/cart", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, fmt.Sprintf("/api/cart?productId=%d&quantity=2", id), token, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodPost, fmt.Sprintf("/api/cart?productId=%d&quantity=3", id), token, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var entry cart.EntryDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.Equal(t, 5, entry.Quantity)

	rec = s.do(t, http.MethodPost, "/api/cart?productId=424242&quantity=1", token, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REFERENCE", errorCode(t, rec))

	rec = s.do(t, http.MethodPost, fmt.Sprintf("/api/cart?productId=%d&quantity=0", id), token, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))

	rec = s.do(t, http.MethodPut, fmt.Sprintf("/api/cart?productId=%d&quantity=7", id), token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.Equal(t, 7, entry.Quantity)

	rec = s.do(t, http.MethodPut, fmt.Sprintf("/api/cart?productId=%d&quantity=1", other), token, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/api/cart?productId=%d", other), token, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/cart", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []cart.EntryDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].Product.ID)

	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/api/cart?productId=%d", id), token, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/cart", token, "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Empty(t, entries)
}

func TestWishlistRoutes(t *testing.T) {
	s := newTestServer(t)
	id := s.seedProduct(t, "W-1")
	token := s.register(t, "wisher@example.com")

	rec := s.do(t, http.MethodPost, fmt.Sprintf("/api/wishlist?productId=%d", id), token, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, fmt.Sprintf("/api/wishlist?productId=%d", id), token, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "DUPLICATE_RESOURCE", errorCode(t, rec))

	rec = s.do(t, http.MethodGet, "/api/wishlist", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []wishlist.EntryDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 1)

	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/api/wishlist?productId=%d", id), token, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/api/wishlist?productId=%d", id), token, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health/live", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodGet, "/health/ready", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

type memoryIdempotencyStore struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memoryIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryIdempotencyStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key], _ = value.(string)
	return nil
}

func (m *memoryIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key], _ = value.(string)
	return true, nil
}

func (m *memoryIdempotencyStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memoryIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func TestRegistrationResponsesAreNeverStored(t *testing.T) {
	store := &memoryIdempotencyStore{data: map[string]string{}}
	s := newTestServerWith(t, func(d *Deps) { d.Idempotency = store })
	productID := s.seedProduct(t, "P-IDEM")

	key := map[string]string{"Idempotency-Key": "signup-1"}
	rec := s.doWithHeaders(t, http.MethodPost, "/api/account", "", `{"username":"u","firstname":"F","email":"idem@example.com","password":"secret1"}`, key)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created auth.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Empty(t, store.data, "registration must not persist its token")

	rec = s.doWithHeaders(t, http.MethodPost, "/api/account", "", `{"username":"u","firstname":"F","email":"idem@example.com","password":"secret1"}`, key)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "DUPLICATE_RESOURCE", errorCode(t, rec))

	rec = s.doWithHeaders(t, http.MethodPost, fmt.Sprintf("/api/cart?productId=%d&quantity=1", productID), created.Token, "", map[string]string{"Idempotency-Key": "cart-1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, store.data, 1)
	for _, record := range store.data {
		assert.NotContains(t, record, created.Token)
	}
}

func TestCartQuantityCeiling(t *testing.T) {
	s := newTestServer(t)
	id := s.seedProduct(t, "P-MAX")
	token := s.register(t, "max@example.com")

	rec := s.do(t, http.MethodPost, fmt.Sprintf("/api/cart?productId=%d&quantity=2147483647", id), token, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, fmt.Sprintf("/api/cart?productId=%d&quantity=1", id), token, "")
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))

	rec = s.do(t, http.MethodPut, fmt.Sprintf("/api/cart?productId=%d&quantity=9999999999", id), token, "")
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))

	rec = s.do(t, http.MethodGet, "/api/cart", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"quantity":2147483647`)
}
