package importer

import (
	"fmt"

	"catalog-service/internal/models"
)

// Grouping holds the products built from a file, keyed by SKU, in the order
// each SKU was first seen.
type Grouping struct {
	order []string
	bySKU map[string]*models.Product
}

func newGrouping() *Grouping {
	return &Grouping{bySKU: make(map[string]*models.Product)}
}

// Len returns the number of distinct SKUs
func (g *Grouping) Len() int {
	return len(g.order)
}

// Get returns the product for a SKU
func (g *Grouping) Get(sku string) (*models.Product, bool) {
	p, ok := g.bySKU[sku]
	return p, ok
}

// Products returns the grouped products in first-seen order
func (g *Grouping) Products() []*models.Product {
	products := make([]*models.Product, 0, len(g.order))
	for _, sku := range g.order {
		products = append(products, g.bySKU[sku])
	}
	return products
}

// Group aggregates rows into products by SKU. The first row of a SKU sets the
// product fields; every row of the SKU (the first included) appends one
// variant. Rows without a SKU are dropped.
func Group(rows []NormalizedRow) (*Grouping, []models.ImportWarning) {
	g := newGrouping()
	var warnings []models.ImportWarning

	for _, row := range rows {
		if row.SKU == "" {
			warnings = append(warnings, models.ImportWarning{
				Line:    row.Line,
				Code:    WarnSKUMissing,
				Message: "row has no SKU and was skipped",
			})
			continue
		}

		product, seen := g.bySKU[row.SKU]
		if !seen {
			g.bySKU[row.SKU] = newProduct(row)
			g.order = append(g.order, row.SKU)
			continue
		}

		if ignored := ignoredScalars(product, row); len(ignored) > 0 {
			warnings = append(warnings, models.ImportWarning{
				Line:    row.Line,
				SKU:     row.SKU,
				Code:    WarnScalarsIgnored,
				Message: fmt.Sprintf("repeat row for SKU keeps the first row's %v", ignored),
			})
		}
		product.Variants = append(product.Variants, newVariant(row))
	}
	return g, warnings
}

func newProduct(row NormalizedRow) *models.Product {
	nameAR := row.NameAR
	if nameAR == "" {
		nameAR = row.NameEN
	}
	return &models.Product{
		SKU:             row.SKU,
		NameEN:          row.NameEN,
		NameAR:          nameAR,
		DescriptionEN:   row.DescriptionEN,
		DescriptionAR:   row.DescriptionAR,
		WholesalePrice:  row.WholesalePrice,
		Variants:        models.Variants{newVariant(row)},
		CategorySlug:    row.CategoryLabel,
		MinOrderQty:     models.DefaultMinOrderQty,
		StockQty:        models.UnlimitedStockQty,
		IsActive:        true,
		PrimaryImageURL: "",
	}
}

func newVariant(row NormalizedRow) models.Variant {
	colorEN, colorAR := row.ColorEN, row.ColorAR
	switch {
	case colorEN == "" && colorAR == "":
		colorEN, colorAR = DefaultColor, DefaultColor
	case colorAR == "":
		colorAR = colorEN
	case colorEN == "":
		colorEN = colorAR
	}

	hex := row.ColorHex
	if hex == "" {
		hex = DefaultColorHex
	}
	sizes := row.Sizes
	if len(sizes) == 0 {
		sizes = append([]string(nil), DefaultSizes...)
	}

	return models.Variant{
		ColorEN:  colorEN,
		ColorAR:  colorAR,
		ColorHex: hex,
		Sizes:    sizes,
		ImageURL: "",
	}
}

// ignoredScalars lists product fields a repeat row tried to set differently
func ignoredScalars(product *models.Product, row NormalizedRow) []string {
	var fields []string
	if row.NameEN != "" && row.NameEN != product.NameEN {
		fields = append(fields, "name_en")
	}
	if row.DescriptionEN != "" && row.DescriptionEN != product.DescriptionEN {
		fields = append(fields, "description_en")
	}
	if !row.WholesalePrice.IsZero() && !row.WholesalePrice.Equal(product.WholesalePrice) {
		fields = append(fields, "wholesale_price")
	}
	return fields
}
