package importer

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"catalog-service/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCatalogStore is a mock implementation of CatalogStore
type MockCatalogStore struct {
	mock.Mock
}

var _ CatalogStore = (*MockCatalogStore)(nil)

func (m *MockCatalogStore) UpsertProduct(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockCatalogStore) ListActiveCategories(ctx context.Context) ([]models.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Category), args.Error(1)
}

// memoryStore keeps products by SKU the way an upsert keyed on sku does
type memoryStore struct {
	mu         sync.Mutex
	categories []models.Category
	products   map[string]models.Product
}

func newMemoryStore(categories ...models.Category) *memoryStore {
	return &memoryStore{categories: categories, products: make(map[string]models.Product)}
}

func (s *memoryStore) UpsertProduct(ctx context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.products[product.SKU]; ok {
		product.ID = existing.ID
	} else if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	s.products[product.SKU] = *product
	return nil
}

func (s *memoryStore) ListActiveCategories(ctx context.Context) ([]models.Category, error) {
	return s.categories, nil
}

// recordingPublisher collects published SKUs
type recordingPublisher struct {
	skus chan string
}

func (p *recordingPublisher) PublishProductImported(ctx context.Context, product *models.Product) error {
	p.skus <- product.SKU
	return nil
}

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

const threeProductCSV = "SKU,Product Name (EN),Wholesale Price,Category,Color (EN),Sizes\n" +
	"P1,First,10,dresses,Black,\"S,M\"\n" +
	"P2,Second,-1,dresses,Red,L\n" +
	"P1,First again,99,dresses,Navy,XL\n" +
	",Orphan,5,dresses,Green,M\n" +
	"P3,Third,N/A,nonexistent-slug,,\n"

func TestRun_PartialFailure(t *testing.T) {
	store := new(MockCatalogStore)
	dressesID := uuid.New()
	store.On("ListActiveCategories", mock.Anything).Return([]models.Category{{ID: dressesID, Slug: "dresses"}}, nil)
	store.On("UpsertProduct", mock.Anything, mock.MatchedBy(func(p *models.Product) bool { return p.SKU == "P2" })).
		Return(errors.New("violates check constraint \"chk_products_wholesale_price\""))
	store.On("UpsertProduct", mock.Anything, mock.Anything).Return(nil)

	im := New(store, nil, testLogger(), Config{})
	result, err := im.Run(context.Background(), []byte(threeProductCSV), "products.csv", Options{})

	require.NoError(t, err)
	require.NotNil(t, result.Summary)
	assert.Equal(t, models.ImportStageSummarized, result.Stage)

	summary := result.Summary
	assert.True(t, summary.Success)
	assert.Equal(t, 2, summary.Count)
	assert.Equal(t, 3, summary.TotalProducts)
	assert.Equal(t, 5, summary.TotalRows)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "P2", summary.Errors[0].SKU)
	assert.Contains(t, summary.Errors[0].Error, "chk_products_wholesale_price")
	assert.Nil(t, summary.Warnings)

	store.AssertNumberOfCalls(t, "ListActiveCategories", 1)
	store.AssertNumberOfCalls(t, "UpsertProduct", 3)
}

func TestRun_VerboseWarnings(t *testing.T) {
	store := newMemoryStore(models.Category{ID: uuid.New(), Slug: "dresses"})

	im := New(store, nil, testLogger(), Config{})
	result, err := im.Run(context.Background(), []byte(threeProductCSV), "products.csv", Options{Verbose: true})
	require.NoError(t, err)

	codes := make(map[string]int)
	for _, w := range result.Summary.Warnings {
		codes[w.Code]++
	}
	assert.Equal(t, 1, codes[WarnPriceUnparseable])
	assert.Equal(t, 1, codes[WarnSKUMissing])
	assert.Equal(t, 1, codes[WarnScalarsIgnored])
	assert.Equal(t, 1, codes[WarnCategoryUnmatched])
	assert.Empty(t, result.Summary.Errors)
}

func TestRun_PersistsGroupedProducts(t *testing.T) {
	dressesID := uuid.New()
	store := newMemoryStore(models.Category{ID: dressesID, Slug: "dresses"})

	im := New(store, nil, testLogger(), Config{})
	_, err := im.Run(context.Background(), []byte(threeProductCSV), "products.csv", Options{})
	require.NoError(t, err)

	p1 := store.products["P1"]
	assert.Equal(t, "First", p1.NameEN)
	assert.True(t, decimal.NewFromInt(10).Equal(p1.WholesalePrice))
	require.Len(t, p1.Variants, 2)
	assert.Equal(t, []string{"S", "M"}, p1.Variants[0].Sizes)
	assert.Equal(t, "Navy", p1.Variants[1].ColorEN)
	require.NotNil(t, p1.CategoryID)
	assert.Equal(t, dressesID, *p1.CategoryID)

	p3 := store.products["P3"]
	assert.Nil(t, p3.CategoryID)
	assert.Equal(t, "nonexistent-slug", p3.CategorySlug)
	assert.True(t, p3.WholesalePrice.IsZero())
	assert.Equal(t, "Default", p3.Variants[0].ColorEN)
	assert.Equal(t, DefaultSizes, p3.Variants[0].Sizes)

	p2 := store.products["P2"]
	assert.True(t, decimal.NewFromInt(-1).Equal(p2.WholesalePrice), "got %s", p2.WholesalePrice)

	_, orphan := store.products[""]
	assert.False(t, orphan)
}

// priceCheckedStore rejects negative prices the way chk_products_wholesale_price does
type priceCheckedStore struct {
	*memoryStore
}

func (s priceCheckedStore) UpsertProduct(ctx context.Context, product *models.Product) error {
	if product.WholesalePrice.IsNegative() {
		return errors.New(`new row for relation "products" violates check constraint "chk_products_wholesale_price"`)
	}
	return s.memoryStore.UpsertProduct(ctx, product)
}

func TestRun_NegativePriceRejectedPerSKU(t *testing.T) {
	store := priceCheckedStore{newMemoryStore()}

	im := New(store, nil, testLogger(), Config{})
	result, err := im.Run(context.Background(), []byte("SKU,Wholesale Price\nNEG-1,-5\nOK-1,12.50\n"), "prices.csv", Options{Verbose: true})

	require.NoError(t, err)
	summary := result.Summary
	assert.Equal(t, 1, summary.Count)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "NEG-1", summary.Errors[0].SKU)
	assert.Contains(t, summary.Errors[0].Error, "chk_products_wholesale_price")
	for _, w := range summary.Warnings {
		assert.NotEqual(t, WarnPriceUnparseable, w.Code, "line %d", w.Line)
	}

	_, stored := store.products["NEG-1"]
	assert.False(t, stored)
	assert.True(t, decimal.RequireFromString("12.5").Equal(store.products["OK-1"].WholesalePrice))
}

func TestRun_Idempotent(t *testing.T) {
	store := newMemoryStore(models.Category{ID: uuid.New(), Slug: "dresses"})
	im := New(store, nil, testLogger(), Config{})

	first, err := im.Run(context.Background(), []byte(threeProductCSV), "products.csv", Options{})
	require.NoError(t, err)
	snapshot := make(map[string]models.Product, len(store.products))
	for sku, p := range store.products {
		snapshot[sku] = p
	}

	second, err := im.Run(context.Background(), []byte(threeProductCSV), "products.csv", Options{})
	require.NoError(t, err)

	assert.Equal(t, first.Summary.TotalProducts, second.Summary.TotalProducts)
	assert.Len(t, store.products, 3)
	for sku, p := range store.products {
		assert.Equal(t, snapshot[sku].ID, p.ID, sku)
		assert.Equal(t, snapshot[sku].Variants, p.Variants, sku)
	}
}

func TestRun_Preview(t *testing.T) {
	store := new(MockCatalogStore)

	im := New(store, nil, testLogger(), Config{})
	result, err := im.Run(context.Background(), []byte(threeProductCSV), "products.csv", Options{Preview: true})

	require.NoError(t, err)
	assert.Nil(t, result.Summary)
	require.NotNil(t, result.Preview)
	assert.Equal(t, models.ImportStageParsed, result.Stage)
	assert.True(t, result.Preview.Preview)
	assert.Equal(t, 5, result.Preview.TotalRows)
	assert.Equal(t, []string{"SKU", "Product Name (EN)", "Wholesale Price", "Category", "Color (EN)", "Sizes"}, result.Preview.Columns)
	require.Len(t, result.Preview.SampleRows, 2)
	assert.Equal(t, "P1", result.Preview.SampleRows[0]["SKU"])
	assert.Equal(t, "-1", result.Preview.SampleRows[1]["Wholesale Price"])

	store.AssertNotCalled(t, "ListActiveCategories", mock.Anything)
	store.AssertNotCalled(t, "UpsertProduct", mock.Anything, mock.Anything)
}

func TestRun_CategoryLookupFailure(t *testing.T) {
	store := new(MockCatalogStore)
	store.On("ListActiveCategories", mock.Anything).Return(nil, errors.New("connection refused"))

	im := New(store, nil, testLogger(), Config{})
	result, err := im.Run(context.Background(), []byte(threeProductCSV), "products.csv", Options{})

	assert.Nil(t, result)
	var importErr *ImportError
	require.ErrorAs(t, err, &importErr)
	assert.Equal(t, CodeCategoryLookupFailed, importErr.Code)
	assert.Equal(t, models.ImportStageGrouped, importErr.Stage)
	assert.Contains(t, err.Error(), "connection refused")
	store.AssertNotCalled(t, "UpsertProduct", mock.Anything, mock.Anything)
}

func TestRun_FatalFileErrors(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		file     string
		cfg      Config
		wantCode string
		wantErr  error
	}{
		{"missing file", nil, "", Config{}, CodeFileRequired, ErrNoFile},
		{"unsupported format", []byte("x"), "products.pdf", Config{}, CodeUnsupportedFormat, ErrUnsupportedFormat},
		{"header only", []byte("SKU\n"), "products.csv", Config{}, CodeEmptyFile, ErrEmptyFile},
		{"too large", []byte("SKU\nA\n"), "products.csv", Config{MaxFileBytes: 3}, CodeFileTooLarge, ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockCatalogStore)
			im := New(store, nil, testLogger(), tt.cfg)

			_, err := im.Run(context.Background(), tt.data, tt.file, Options{})

			var importErr *ImportError
			require.ErrorAs(t, err, &importErr)
			assert.Equal(t, tt.wantCode, importErr.Code)
			assert.ErrorIs(t, err, tt.wantErr)
			store.AssertNotCalled(t, "ListActiveCategories", mock.Anything)
		})
	}
}

func TestWriter_PublishesOnlyWrittenProducts(t *testing.T) {
	store := new(MockCatalogStore)
	store.On("UpsertProduct", mock.Anything, mock.MatchedBy(func(p *models.Product) bool { return p.SKU == "BAD" })).
		Return(errors.New("boom"))
	store.On("UpsertProduct", mock.Anything, mock.Anything).Return(nil)
	publisher := &recordingPublisher{skus: make(chan string, 2)}

	w := NewWriter(store, publisher, testLogger())
	results := w.Write(context.Background(), []*models.Product{{SKU: "GOOD"}, {SKU: "BAD"}})

	require.Len(t, results, 2)
	assert.True(t, results[0].OK())
	assert.False(t, results[1].OK())
	assert.EqualError(t, results[1].Err, "boom")

	select {
	case sku := <-publisher.skus:
		assert.Equal(t, "GOOD", sku)
	case <-time.After(time.Second):
		t.Fatal("expected an imported event for GOOD")
	}
	select {
	case sku := <-publisher.skus:
		t.Fatalf("unexpected event for %s", sku)
	case <-time.After(50 * time.Millisecond):
	}
}

type stubArchiver struct {
	key   string
	err   error
	calls int
}

func (a *stubArchiver) ArchiveUpload(ctx context.Context, fileName string, data []byte) (string, error) {
	a.calls++
	return a.key, a.err
}

func TestRun_ArchivesUpload(t *testing.T) {
	archiver := &stubArchiver{key: "uploads/2026/01/01/products.csv"}
	im := New(newMemoryStore(), nil, testLogger(), Config{}).WithArchiver(archiver)

	result, err := im.Run(context.Background(), []byte(threeProductCSV), "products.csv", Options{})

	require.NoError(t, err)
	assert.Equal(t, 1, archiver.calls)
	assert.Equal(t, "uploads/2026/01/01/products.csv", result.Summary.ArchiveKey)
}

func TestRun_ArchiveFailureDoesNotBlockImport(t *testing.T) {
	archiver := &stubArchiver{err: errors.New("bucket missing")}
	im := New(newMemoryStore(), nil, testLogger(), Config{}).WithArchiver(archiver)

	result, err := im.Run(context.Background(), []byte(threeProductCSV), "products.csv", Options{})

	require.NoError(t, err)
	assert.Empty(t, result.Summary.ArchiveKey)
	assert.Equal(t, 3, result.Summary.Count)
}

func TestRun_PreviewSkipsArchive(t *testing.T) {
	archiver := &stubArchiver{key: "k"}
	im := New(newMemoryStore(), nil, testLogger(), Config{}).WithArchiver(archiver)

	_, err := im.Run(context.Background(), []byte(threeProductCSV), "products.csv", Options{Preview: true})

	require.NoError(t, err)
	assert.Zero(t, archiver.calls)
}
