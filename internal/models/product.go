package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Import-time constants for products created through the bulk importer
const (
	DefaultMinOrderQty = 1
	UnlimitedStockQty  = 999999 // Production items: stock is not tracked
)

// Variant is one color/size combination of a product
type Variant struct {
	ColorEN  string   `json:"color_en"`
	ColorAR  string   `json:"color_ar"`
	ColorHex string   `json:"color_hex"`
	Sizes    []string `json:"sizes"`
	ImageURL string   `json:"image_url"`
}

// Variants is stored as a JSONB array on the product row
type Variants []Variant

func (v Variants) Value() (driver.Value, error) {
	if v == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(v)
}

func (v *Variants) Scan(value interface{}) error {
	if value == nil {
		*v = make(Variants, 0)
		return nil
	}
	var data []byte
	switch val := value.(type) {
	case []byte:
		data = val
	case string:
		data = []byte(val)
	default:
		return fmt.Errorf("unsupported variants column type %T", value)
	}
	return json.Unmarshal(data, v)
}

// Product represents a wholesale catalog product. SKU is the natural key and
// the conflict target for imports.
type Product struct {
	ID              uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SKU             string          `json:"sku" gorm:"not null;uniqueIndex:idx_products_sku"`
	NameEN          string          `json:"name_en" gorm:"column:name_en;not null;default:''"`
	NameAR          string          `json:"name_ar" gorm:"column:name_ar;not null;default:''"`
	DescriptionEN   string          `json:"description_en" gorm:"column:description_en;not null;default:''"`
	DescriptionAR   string          `json:"description_ar" gorm:"column:description_ar;not null;default:''"`
	WholesalePrice  decimal.Decimal `json:"wholesale_price" gorm:"type:numeric(10,2);not null;default:0;check:chk_products_wholesale_price,wholesale_price >= 0"`
	Variants        Variants        `json:"variants" gorm:"type:jsonb;not null;default:'[]'"`
	CategoryID      *uuid.UUID      `json:"category_id" gorm:"type:uuid;index"`
	CategorySlug    string          `json:"category_slug" gorm:"index;not null;default:'general'"`
	MinOrderQty     int             `json:"min_order_qty" gorm:"not null;default:1"`
	StockQty        int             `json:"stock_qty" gorm:"not null;default:0"`
	IsActive        bool            `json:"is_active" gorm:"index;not null;default:true"`
	PrimaryImageURL string          `json:"primary_image_url" gorm:"column:primary_image_url;not null;default:''"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// Category represents a storefront category. Slug is the cross-reference key
// used by spreadsheet rows.
type Category struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Slug          string    `json:"slug" gorm:"not null;uniqueIndex:idx_categories_slug"`
	NameEN        string    `json:"name_en" gorm:"column:name_en;not null"`
	NameAR        string    `json:"name_ar" gorm:"column:name_ar;not null"`
	DescriptionEN string    `json:"description_en,omitempty" gorm:"column:description_en"`
	DescriptionAR string    `json:"description_ar,omitempty" gorm:"column:description_ar"`
	DisplayOrder  int       `json:"display_order" gorm:"not null;default:0"`
	IsActive      bool      `json:"is_active" gorm:"index;not null;default:true"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName returns the table name for the Category model
func (Category) TableName() string {
	return "categories"
}

// Response types

type PaginationInfo struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrevious"`
}

// ProductView is a product as served to the storefront, with convenience
// fields resolved for the request locale.
type ProductView struct {
	Product
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CategoryView is a category as served to the storefront
type CategoryView struct {
	Category
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type ProductResponse struct {
	Success bool         `json:"success"`
	Data    *ProductView `json:"data"`
}

type ProductListResponse struct {
	Success    bool            `json:"success"`
	Data       []ProductView   `json:"data"`
	Pagination *PaginationInfo `json:"pagination"`
}

type CategoryResponse struct {
	Success bool          `json:"success"`
	Data    *CategoryView `json:"data"`
}

type CategoryListResponse struct {
	Success bool           `json:"success"`
	Data    []CategoryView `json:"data"`
}

type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     Error  `json:"error"`
	Timestamp string `json:"timestamp,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}
