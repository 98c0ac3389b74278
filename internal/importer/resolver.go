package importer

import (
	"fmt"
	"strings"

	"catalog-service/internal/models"
	"github.com/google/uuid"
)

// CategoryLookup maps a category slug to its id
type CategoryLookup map[string]uuid.UUID

// NewCategoryLookup indexes the active categories by slug
func NewCategoryLookup(categories []models.Category) CategoryLookup {
	lookup := make(CategoryLookup, len(categories))
	for _, c := range categories {
		slug := strings.TrimSpace(c.Slug)
		if slug == "" {
			continue
		}
		lookup[slug] = c.ID
	}
	return lookup
}

// Lookup returns the id for a slug
func (l CategoryLookup) Lookup(slug string) (uuid.UUID, bool) {
	id, ok := l[strings.TrimSpace(slug)]
	return id, ok
}

// Resolve sets CategoryID on every product whose slug is known. Unknown slugs
// leave the category empty; the product is still written.
func Resolve(g *Grouping, lookup CategoryLookup) []models.ImportWarning {
	var warnings []models.ImportWarning
	for _, product := range g.Products() {
		id, ok := lookup.Lookup(product.CategorySlug)
		if !ok {
			product.CategoryID = nil
			warnings = append(warnings, models.ImportWarning{
				SKU:     product.SKU,
				Code:    WarnCategoryUnmatched,
				Message: fmt.Sprintf("category %q does not match an active category", product.CategorySlug),
			})
			continue
		}
		categoryID := id
		product.CategoryID = &categoryID
	}
	return warnings
}
