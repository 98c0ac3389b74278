package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"catalog-service/internal/middleware"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCatalogReader is a mock implementation of CatalogReader
type MockCatalogReader struct {
	mock.Mock
}

func (m *MockCatalogReader) ListActiveCategories(ctx context.Context) ([]models.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *MockCatalogReader) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockCatalogReader) GetProductBySKU(ctx context.Context, sku string) (*models.Product, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockCatalogReader) ListActiveProducts(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockCatalogReader) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func newCatalogRouter(store *MockCatalogReader) http.Handler {
	h := NewCatalogHandler(store, PageLimits{Default: 24, Max: 100}, testLogger())
	r := setupTestRouter()
	storefront := r.Group("/storefront", middleware.Locale())
	storefront.GET("/categories", h.ListCategories)
	storefront.GET("/categories/:slug", h.GetCategory)
	storefront.GET("/products", h.ListProducts)
	storefront.GET("/products/:sku", h.GetProduct)
	r.GET("/ready", ReadinessCheck(store))
	r.GET("/health", HealthCheck)
	return r
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func sampleProduct() models.Product {
	return models.Product{
		ID:             uuid.New(),
		SKU:            "MNL-EVE-001",
		NameEN:         "Evening Dress",
		NameAR:         "فستان سهرة",
		DescriptionEN:  "Silk",
		WholesalePrice: decimal.RequireFromString("45.50"),
		Variants:       models.Variants{{ColorEN: "Black", ColorAR: "أسود", ColorHex: "#000000", Sizes: []string{"S"}}},
		CategorySlug:   "evening-wear",
		IsActive:       true,
	}
}

func TestListCategories_Localized(t *testing.T) {
	store := new(MockCatalogReader)
	store.On("ListActiveCategories", mock.Anything).Return([]models.Category{
		{ID: uuid.New(), Slug: "evening-wear", NameEN: "Evening Wear", NameAR: "ملابس سهرة", IsActive: true},
		{ID: uuid.New(), Slug: "abayas", NameEN: "Abayas", IsActive: true},
	}, nil)
	router := newCatalogRouter(store)

	w := get(router, "/storefront/categories?lang=ar")

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.CategoryListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "ملابس سهرة", resp.Data[0].Name)
	assert.Equal(t, "Evening Wear", resp.Data[0].NameEN)
	assert.Equal(t, "Abayas", resp.Data[1].Name, "Arabic falls back to English")
}

func TestListCategories_StoreError(t *testing.T) {
	store := new(MockCatalogReader)
	store.On("ListActiveCategories", mock.Anything).Return(nil, errors.New("connection refused"))

	w := get(newCatalogRouter(store), "/storefront/categories")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "FETCH_FAILED")
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestGetCategory_NotFound(t *testing.T) {
	store := new(MockCatalogReader)
	store.On("GetCategoryBySlug", mock.Anything, "missing").Return(nil, repository.ErrNotFound)

	w := get(newCatalogRouter(store), "/storefront/categories/missing")

	assert.Equal(t, http.StatusNotFound, w.Code)
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestGetProduct(t *testing.T) {
	product := sampleProduct()
	store := new(MockCatalogReader)
	store.On("GetProductBySKU", mock.Anything, "MNL-EVE-001").Return(&product, nil)

	w := get(newCatalogRouter(store), "/storefront/products/MNL-EVE-001")

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.ProductResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Evening Dress", resp.Data.Name)
	assert.Equal(t, "Silk", resp.Data.Description)
	assert.True(t, decimal.RequireFromString("45.5").Equal(resp.Data.WholesalePrice))
	assert.Len(t, resp.Data.Variants, 1)
}

func TestGetProduct_NotFound(t *testing.T) {
	store := new(MockCatalogReader)
	store.On("GetProductBySKU", mock.Anything, "NOPE").Return(nil, repository.ErrNotFound)

	w := get(newCatalogRouter(store), "/storefront/products/NOPE")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListProducts_Pagination(t *testing.T) {
	store := new(MockCatalogReader)
	store.On("ListActiveProducts", mock.Anything, repository.ProductFilter{CategorySlug: "evening-wear", Page: 2, Limit: 10}).
		Return([]models.Product{sampleProduct()}, int64(25), nil)

	w := get(newCatalogRouter(store), "/storefront/products?category=evening-wear&page=2&limit=10&lang=ar")

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.ProductListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "فستان سهرة", resp.Data[0].Name)
	assert.Equal(t, "Silk", resp.Data[0].Description, "Arabic falls back to English")
	assert.Equal(t, 3, resp.Pagination.TotalPages)
	assert.True(t, resp.Pagination.HasNext)
	assert.True(t, resp.Pagination.HasPrev)
	store.AssertExpectations(t)
}

func TestListProducts_ClampsLimit(t *testing.T) {
	store := new(MockCatalogReader)
	store.On("ListActiveProducts", mock.Anything, repository.ProductFilter{Page: 1, Limit: 24}).
		Return([]models.Product{}, int64(0), nil)

	w := get(newCatalogRouter(store), "/storefront/products?page=-4&limit=5000")

	require.Equal(t, http.StatusOK, w.Code)
	store.AssertExpectations(t)
}

func TestHealthAndReadiness(t *testing.T) {
	store := new(MockCatalogReader)
	store.On("Ping", mock.Anything).Return(nil).Once()
	store.On("Ping", mock.Anything).Return(errors.New("db down")).Once()
	router := newCatalogRouter(store)

	assert.Equal(t, http.StatusOK, get(router, "/health").Code)
	assert.Equal(t, http.StatusOK, get(router, "/ready").Code)

	w := get(router, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "not ready")
}
