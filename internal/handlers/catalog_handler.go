package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"catalog-service/internal/middleware"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CatalogReader is the read side of the catalog store used by the storefront
type CatalogReader interface {
	ListActiveCategories(ctx context.Context) ([]models.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	GetProductBySKU(ctx context.Context, sku string) (*models.Product, error)
	ListActiveProducts(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, error)
}

// PageLimits bounds the storefront page size
type PageLimits struct {
	Default int
	Max     int
}

type CatalogHandler struct {
	store  CatalogReader
	limits PageLimits
	logger *logrus.Entry
}

func NewCatalogHandler(store CatalogReader, limits PageLimits, logger *logrus.Logger) *CatalogHandler {
	if limits.Default < 1 {
		limits.Default = 24
	}
	if limits.Max < limits.Default {
		limits.Max = limits.Default
	}
	return &CatalogHandler{
		store:  store,
		limits: limits,
		logger: logger.WithField("component", "catalog-handler"),
	}
}

// ListCategories returns the active categories
// @Summary List categories
// @Description Active categories ordered by display order
// @Tags Storefront
// @Produce json
// @Param lang query string false "en or ar"
// @Success 200 {object} models.CategoryListResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /storefront/categories [get]
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.store.ListActiveCategories(c.Request.Context())
	if err != nil {
		h.respondFetchError(c, "Failed to retrieve categories", err)
		return
	}

	locale := middleware.GetLocale(c)
	views := make([]models.CategoryView, 0, len(categories))
	for _, category := range categories {
		views = append(views, categoryView(category, locale))
	}

	c.JSON(http.StatusOK, models.CategoryListResponse{
		Success: true,
		Data:    views,
	})
}

// GetCategory returns one active category
// @Summary Get category
// @Description Get an active category by slug
// @Tags Storefront
// @Produce json
// @Param slug path string true "Category slug"
// @Param lang query string false "en or ar"
// @Success 200 {object} models.CategoryResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /storefront/categories/{slug} [get]
func (h *CatalogHandler) GetCategory(c *gin.Context) {
	category, err := h.store.GetCategoryBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.respondLookupError(c, "Category not found", err)
		return
	}

	view := categoryView(*category, middleware.GetLocale(c))
	c.JSON(http.StatusOK, models.CategoryResponse{
		Success: true,
		Data:    &view,
	})
}

// ListProducts returns a page of active products
// @Summary List products
// @Description Active products, newest first, optionally filtered by category slug
// @Tags Storefront
// @Produce json
// @Param category query string false "Category slug"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(24)
// @Param lang query string false "en or ar"
// @Success 200 {object} models.ProductListResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /storefront/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(h.limits.Default)))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > h.limits.Max {
		limit = h.limits.Default
	}

	products, total, err := h.store.ListActiveProducts(c.Request.Context(), repository.ProductFilter{
		CategorySlug: strings.TrimSpace(c.Query("category")),
		Page:         page,
		Limit:        limit,
	})
	if err != nil {
		h.respondFetchError(c, "Failed to retrieve products", err)
		return
	}

	locale := middleware.GetLocale(c)
	views := make([]models.ProductView, 0, len(products))
	for _, product := range products {
		views = append(views, productView(product, locale))
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	c.JSON(http.StatusOK, models.ProductListResponse{
		Success: true,
		Data:    views,
		Pagination: &models.PaginationInfo{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	})
}

// GetProduct returns one active product
// @Summary Get product
// @Description Get an active product by SKU
// @Tags Storefront
// @Produce json
// @Param sku path string true "Product SKU"
// @Param lang query string false "en or ar"
// @Success 200 {object} models.ProductResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /storefront/products/{sku} [get]
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := h.store.GetProductBySKU(c.Request.Context(), c.Param("sku"))
	if err != nil {
		h.respondLookupError(c, "Product not found", err)
		return
	}

	view := productView(*product, middleware.GetLocale(c))
	c.JSON(http.StatusOK, models.ProductResponse{
		Success: true,
		Data:    &view,
	})
}

func (h *CatalogHandler) respondLookupError(c *gin.Context, notFoundMessage string, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "NOT_FOUND",
				Message: notFoundMessage,
			},
		})
		return
	}
	h.respondFetchError(c, "Failed to retrieve catalog entry", err)
}

func (h *CatalogHandler) respondFetchError(c *gin.Context, message string, err error) {
	h.logger.WithError(err).WithField("path", c.FullPath()).Error(message)
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Success: false,
		Error: models.Error{
			Code:    "FETCH_FAILED",
			Message: message,
		},
	})
}

// productView resolves the display name and description for a locale.
// Arabic falls back to English when the Arabic text is empty.
func productView(p models.Product, locale string) models.ProductView {
	return models.ProductView{
		Product:     p,
		Name:        localized(locale, p.NameEN, p.NameAR),
		Description: localized(locale, p.DescriptionEN, p.DescriptionAR),
	}
}

func categoryView(c models.Category, locale string) models.CategoryView {
	return models.CategoryView{
		Category:    c,
		Name:        localized(locale, c.NameEN, c.NameAR),
		Description: localized(locale, c.DescriptionEN, c.DescriptionAR),
	}
}

func localized(locale, en, ar string) string {
	if locale == middleware.LocaleAR && ar != "" {
		return ar
	}
	return en
}
