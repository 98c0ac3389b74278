package importer

import (
	"fmt"
	"strings"

	"catalog-service/internal/models"
	"github.com/shopspring/decimal"
)

// Defaults applied to blank cells
const (
	DefaultCategory = "general"
	DefaultColor    = "Default"
	DefaultColorHex = "#000000"
)

// DefaultSizes is used when a row has no usable sizes
var DefaultSizes = []string{"S", "M", "L", "XL"}

// Warning codes
const (
	WarnPriceUnparseable  = "PRICE_UNPARSEABLE"
	WarnSKUMissing        = "SKU_MISSING"
	WarnScalarsIgnored    = "SCALARS_IGNORED"
	WarnCategoryUnmatched = "CATEGORY_UNRESOLVED"
)

// headerAliases maps each field header to the legacy labels accepted for it
var headerAliases = map[string][]string{
	models.ColumnNameEN:        {"Name_EN"},
	models.ColumnNameAR:        {"Name_AR"},
	models.ColumnDescriptionEN: {"Description_EN"},
	models.ColumnDescriptionAR: {"Description_AR"},
	models.ColumnCategory:      {"Category_Slug"},
	models.ColumnPrice:         {"Price"},
}

// NormalizedRow is one typed variant candidate
type NormalizedRow struct {
	Line           int
	NameEN         string
	NameAR         string
	DescriptionEN  string
	DescriptionAR  string
	CategoryLabel  string
	SKU            string
	WholesalePrice decimal.Decimal
	ColorEN        string
	ColorAR        string
	ColorHex       string
	Sizes          []string
}

// Normalize maps a raw row onto typed fields. It never fails: blank or
// malformed cells fall back to defaults, and defaults that may hide bad data
// are reported as warnings.
func Normalize(raw RawRow) (NormalizedRow, []models.ImportWarning) {
	row := NormalizedRow{
		Line:          raw.Line,
		NameEN:        field(raw, models.ColumnNameEN).String(),
		NameAR:        field(raw, models.ColumnNameAR).String(),
		DescriptionEN: field(raw, models.ColumnDescriptionEN).String(),
		DescriptionAR: field(raw, models.ColumnDescriptionAR).String(),
		CategoryLabel: orDefault(field(raw, models.ColumnCategory).String(), DefaultCategory),
		SKU:           field(raw, models.ColumnSKU).String(),
		ColorEN:       field(raw, models.ColumnColorEN).String(),
		ColorAR:       field(raw, models.ColumnColorAR).String(),
		ColorHex:      orDefault(field(raw, models.ColumnHexCode).String(), DefaultColorHex),
		Sizes:         ParseSizes(field(raw, models.ColumnSizes).String()),
	}

	var warnings []models.ImportWarning
	price, warn := parsePrice(field(raw, models.ColumnPrice))
	row.WholesalePrice = price
	if warn != nil {
		warn.Line = raw.Line
		warn.SKU = row.SKU
		warnings = append(warnings, *warn)
	}
	return row, warnings
}

// ParseSizes splits a comma-separated cell, trimming tokens and dropping
// blanks. Order and duplicates are kept.
func ParseSizes(cell string) []string {
	var sizes []string
	for _, token := range strings.Split(cell, ",") {
		if token = strings.TrimSpace(token); token != "" {
			sizes = append(sizes, token)
		}
	}
	if len(sizes) == 0 {
		return append([]string(nil), DefaultSizes...)
	}
	return sizes
}

// parsePrice reads a locale-agnostic decimal. Unparseable values become
// zero; negative values pass through for the store to reject.
func parsePrice(cell Cell) (decimal.Decimal, *models.ImportWarning) {
	var price decimal.Decimal
	switch cell.Kind {
	case CellNumber:
		price = decimal.NewFromFloat(cell.Number)
	case CellText:
		text := strings.TrimSpace(cell.Text)
		if text == "" {
			return decimal.Zero, nil
		}
		parsed, err := decimal.NewFromString(text)
		if err != nil {
			return decimal.Zero, &models.ImportWarning{
				Code:    WarnPriceUnparseable,
				Message: fmt.Sprintf("wholesale price %q is not a number, using 0", text),
			}
		}
		price = parsed
	default:
		return decimal.Zero, nil
	}
	return price, nil
}

// field returns the first non-blank cell under the header or its aliases
func field(raw RawRow, header string) Cell {
	if c := raw.Get(header); !c.IsBlank() {
		return c
	}
	for _, alias := range headerAliases[header] {
		if c := raw.Get(alias); !c.IsBlank() {
			return c
		}
	}
	return Cell{}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
