package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog-service/internal/models"
	"github.com/Tesseract-Nexus/go-shared/cache"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Cache TTL constants
const (
	ProductCacheTTL  = 5 * time.Minute  // Single product cache
	CategoryCacheTTL = 30 * time.Minute // Categories rarely change
)

// ErrNotFound is returned when a product or category does not exist or is inactive
var ErrNotFound = errors.New("not found")

// CatalogStore is implemented by every catalog backend
type CatalogStore interface {
	UpsertProduct(ctx context.Context, product *models.Product) error
	ListActiveCategories(ctx context.Context) ([]models.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	GetProductBySKU(ctx context.Context, sku string) (*models.Product, error)
	ListActiveProducts(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error)
	Ping(ctx context.Context) error
}

// ProductFilter selects a page of active products
type ProductFilter struct {
	CategorySlug string
	Page         int
	Limit        int
}

func (f ProductFilter) offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// upsertColumns are overwritten when an imported SKU already exists. id and
// created_at are kept.
var upsertColumns = []string{
	"name_en", "name_ar", "description_en", "description_ar",
	"wholesale_price", "variants", "category_id", "category_slug",
	"min_order_qty", "stock_qty", "is_active", "primary_image_url", "updated_at",
}

// CatalogRepository is the Postgres catalog store
type CatalogRepository struct {
	db     *gorm.DB
	cache  *cache.CacheLayer
	logger *logrus.Entry
}

var _ CatalogStore = (*CatalogRepository)(nil)

func NewCatalogRepository(db *gorm.DB, redis *redis.Client) *CatalogRepository {
	repo := &CatalogRepository{
		db:     db,
		logger: logrus.WithField("component", "catalog-repository"),
	}

	// Initialize CacheLayer with the existing Redis client
	if redis != nil {
		cacheConfig := cache.CacheConfig{
			L1Enabled:  true,
			L1MaxItems: 2000,
			L1TTL:      30 * time.Second,
			DefaultTTL: ProductCacheTTL,
			KeyPrefix:  "catalog:",
		}
		repo.cache = cache.NewCacheLayerFromClient(redis, cacheConfig)
	}

	return repo
}

// WithLogger replaces the default standard-logger entry
func (r *CatalogRepository) WithLogger(logger *logrus.Entry) *CatalogRepository {
	if logger != nil {
		r.logger = logger.WithField("component", "catalog-repository")
	}
	return r
}

func productCacheKey(sku string) string {
	return fmt.Sprintf("product:%s", sku)
}

func categoryCacheKey(slug string) string {
	return fmt.Sprintf("category:%s", slug)
}

const activeCategoriesCacheKey = "categories:active"

// UpsertProduct inserts the product or, when the SKU exists, overwrites its
// catalog fields and variant list
func (r *CatalogRepository) UpsertProduct(ctx context.Context, product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	product.UpdatedAt = time.Now()

	err := r.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns:   []clause.Column{{Name: "sku"}},
				DoUpdates: clause.AssignmentColumns(upsertColumns),
			},
			clause.Returning{Columns: []clause.Column{{Name: "id"}, {Name: "created_at"}}},
		).
		Create(product).Error
	if err != nil {
		return fmt.Errorf("failed to upsert product %s: %w", product.SKU, err)
	}

	if r.cache != nil {
		if err := r.cache.Delete(ctx, productCacheKey(product.SKU)); err != nil {
			r.logger.WithError(err).WithField("sku", product.SKU).Warn("Failed to invalidate product cache")
		}
	}
	return nil
}

// ListActiveCategories returns active categories by display order, cached
func (r *CatalogRepository) ListActiveCategories(ctx context.Context) ([]models.Category, error) {
	load := func() ([]models.Category, error) {
		var categories []models.Category
		err := r.db.WithContext(ctx).
			Where("is_active = ?", true).
			Order("display_order ASC, slug ASC").
			Find(&categories).Error
		if err != nil {
			return nil, fmt.Errorf("failed to list categories: %w", err)
		}
		return categories, nil
	}

	return cachedRead(ctx, r, activeCategoriesCacheKey, CategoryCacheTTL, load)
}

// GetCategoryBySlug returns one active category, cached
func (r *CatalogRepository) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	load := func() (*models.Category, error) {
		var category models.Category
		err := r.db.WithContext(ctx).Where("slug = ? AND is_active = ?", slug, true).First(&category).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get category %s: %w", slug, err)
		}
		return &category, nil
	}

	return cachedRead(ctx, r, categoryCacheKey(slug), CategoryCacheTTL, load)
}

// GetProductBySKU returns one active product, cached
func (r *CatalogRepository) GetProductBySKU(ctx context.Context, sku string) (*models.Product, error) {
	load := func() (*models.Product, error) {
		var product models.Product
		err := r.db.WithContext(ctx).Where("sku = ? AND is_active = ?", sku, true).First(&product).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get product %s: %w", sku, err)
		}
		return &product, nil
	}

	return cachedRead(ctx, r, productCacheKey(sku), ProductCacheTTL, load)
}

// cachedRead serves key from the cache, filling it from load on a miss.
// Errors from load are returned as-is; any other cache failure is logged and
// the read goes straight to the database.
func cachedRead[T any](ctx context.Context, r *CatalogRepository, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	if r.cache == nil {
		return load()
	}

	var (
		cached  T
		loaded  T
		loadErr error
		didLoad bool
	)
	err := r.cache.GetOrSetJSON(ctx, key, &cached, ttl, func() (any, error) {
		loaded, loadErr = load()
		didLoad = true
		return loaded, loadErr
	})
	switch {
	case err == nil:
		return cached, nil
	case loadErr != nil:
		return loaded, loadErr
	case didLoad:
		r.logger.WithError(err).WithField("key", key).Warn("Failed to decode cached value")
		return loaded, nil
	}

	r.logger.WithError(err).WithField("key", key).Warn("Cache unavailable, reading from database")
	return load()
}

// ListActiveProducts returns a page of active products, newest first
func (r *CatalogRepository) ListActiveProducts(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error) {
	var products []models.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Product{}).Where("is_active = ?", true)
	if filter.CategorySlug != "" {
		query = query.Where("category_slug = ?", filter.CategorySlug)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}
	if err := query.Order("created_at DESC, sku ASC").Offset(filter.offset()).Limit(filter.Limit).Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// Ping checks the database connection
func (r *CatalogRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
