package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"catalog-service/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
)

const (
	productsTable   = "products"
	categoriesTable = "categories"
)

// productRow is the upsert payload. id and created_at are left to the
// database so an existing row keeps them.
type productRow struct {
	SKU             string          `json:"sku"`
	NameEN          string          `json:"name_en"`
	NameAR          string          `json:"name_ar"`
	DescriptionEN   string          `json:"description_en"`
	DescriptionAR   string          `json:"description_ar"`
	WholesalePrice  decimal.Decimal `json:"wholesale_price"`
	Variants        models.Variants `json:"variants"`
	CategoryID      *uuid.UUID      `json:"category_id"`
	CategorySlug    string          `json:"category_slug"`
	MinOrderQty     int             `json:"min_order_qty"`
	StockQty        int             `json:"stock_qty"`
	IsActive        bool            `json:"is_active"`
	PrimaryImageURL string          `json:"primary_image_url"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func newProductRow(p *models.Product) productRow {
	variants := p.Variants
	if variants == nil {
		variants = models.Variants{}
	}
	return productRow{
		SKU:             p.SKU,
		NameEN:          p.NameEN,
		NameAR:          p.NameAR,
		DescriptionEN:   p.DescriptionEN,
		DescriptionAR:   p.DescriptionAR,
		WholesalePrice:  p.WholesalePrice,
		Variants:        variants,
		CategoryID:      p.CategoryID,
		CategorySlug:    p.CategorySlug,
		MinOrderQty:     p.MinOrderQty,
		StockQty:        p.StockQty,
		IsActive:        p.IsActive,
		PrimaryImageURL: p.PrimaryImageURL,
		UpdatedAt:       p.UpdatedAt,
	}
}

// SupabaseRepository is the catalog store backed by a Supabase project's
// PostgREST API
type SupabaseRepository struct {
	client *supabase.Client
}

var _ CatalogStore = (*SupabaseRepository)(nil)

func NewSupabaseRepository(url, serviceKey string) (*SupabaseRepository, error) {
	client, err := supabase.NewClient(url, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return &SupabaseRepository{client: client}, nil
}

// UpsertProduct inserts or merges the product on its SKU
func (r *SupabaseRepository) UpsertProduct(ctx context.Context, product *models.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	product.UpdatedAt = time.Now()

	var saved []models.Product
	_, err := r.client.From(productsTable).
		Upsert(newProductRow(product), "sku", "representation", "").
		ExecuteTo(&saved)
	if err != nil {
		return fmt.Errorf("failed to upsert product %s: %w", product.SKU, err)
	}
	if len(saved) > 0 {
		product.ID = saved[0].ID
		product.CreatedAt = saved[0].CreatedAt
	}
	return nil
}

// ListActiveCategories returns active categories by display order
func (r *SupabaseRepository) ListActiveCategories(ctx context.Context) ([]models.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var categories []models.Category
	_, err := r.client.From(categoriesTable).
		Select("*", "", false).
		Eq("is_active", "true").
		Order("display_order", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&categories)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// GetCategoryBySlug returns one active category
func (r *SupabaseRepository) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var categories []models.Category
	_, err := r.client.From(categoriesTable).
		Select("*", "", false).
		Eq("slug", slug).
		Eq("is_active", "true").
		Limit(1, "").
		ExecuteTo(&categories)
	if err != nil {
		return nil, fmt.Errorf("failed to get category %s: %w", slug, err)
	}
	if len(categories) == 0 {
		return nil, ErrNotFound
	}
	return &categories[0], nil
}

// GetProductBySKU returns one active product
func (r *SupabaseRepository) GetProductBySKU(ctx context.Context, sku string) (*models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var products []models.Product
	_, err := r.client.From(productsTable).
		Select("*", "", false).
		Eq("sku", sku).
		Eq("is_active", "true").
		Limit(1, "").
		ExecuteTo(&products)
	if err != nil {
		return nil, fmt.Errorf("failed to get product %s: %w", sku, err)
	}
	if len(products) == 0 {
		return nil, ErrNotFound
	}
	return &products[0], nil
}

// ListActiveProducts returns a page of active products, newest first
func (r *SupabaseRepository) ListActiveProducts(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	query := r.client.From(productsTable).
		Select("*", "exact", false).
		Eq("is_active", "true")
	if filter.CategorySlug != "" {
		query = query.Eq("category_slug", filter.CategorySlug)
	}

	from := filter.offset()
	var products []models.Product
	total, err := query.
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Range(from, from+filter.Limit-1, "").
		ExecuteTo(&products)
	if err != nil && isRangeNotSatisfiable(err) {
		// Page starts past the last row
		total, err = r.countActiveProducts(filter.CategorySlug)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to count products: %w", err)
		}
		return []models.Product{}, total, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

func (r *SupabaseRepository) countActiveProducts(categorySlug string) (int64, error) {
	query := r.client.From(productsTable).
		Select("id", "exact", true).
		Eq("is_active", "true")
	if categorySlug != "" {
		query = query.Eq("category_slug", categorySlug)
	}
	_, total, err := query.Execute()
	return total, err
}

// isRangeNotSatisfiable matches PostgREST's 416 answer to an offset beyond
// the row count
func isRangeNotSatisfiable(err error) bool {
	return strings.Contains(err.Error(), "(PGRST103)")
}

// Ping runs a one-row category query
func (r *SupabaseRepository) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, _, err := r.client.From(categoriesTable).
		Select("id", "", false).
		Limit(1, "").
		Execute()
	if err != nil {
		return fmt.Errorf("supabase unreachable: %w", err)
	}
	return nil
}
