package models

// ImportFormat represents the file format for import
type ImportFormat string

const (
	ImportFormatCSV  ImportFormat = "csv"
	ImportFormatXLSX ImportFormat = "xlsx"
)

// ImportStage is a step of the bulk import pipeline. Stages only move forward;
// a fatal condition ends the run in ImportStageFailed.
type ImportStage string

const (
	ImportStageReceived   ImportStage = "RECEIVED"
	ImportStageParsed     ImportStage = "PARSED"
	ImportStageNormalized ImportStage = "NORMALIZED"
	ImportStageGrouped    ImportStage = "GROUPED"
	ImportStageResolved   ImportStage = "RESOLVED"
	ImportStageWritten    ImportStage = "WRITTEN"
	ImportStageSummarized ImportStage = "SUMMARIZED"
	ImportStageFailed     ImportStage = "FAILED"
)

// Spreadsheet column headers
const (
	ColumnNameEN        = "Product Name (EN)"
	ColumnNameAR        = "Product Name (AR)"
	ColumnDescriptionEN = "Description (EN)"
	ColumnDescriptionAR = "Description (AR)"
	ColumnCategory      = "Category"
	ColumnSKU           = "SKU"
	ColumnPrice         = "Wholesale Price"
	ColumnColorEN       = "Color (EN)"
	ColumnColorAR       = "Color (AR)"
	ColumnHexCode       = "Hex Code"
	ColumnSizes         = "Sizes"
)

// ImportTemplateColumn defines a column in the import template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"` // string, number, list
	Example     string `json:"example"`
}

// ImportTemplate defines the structure of an import template
type ImportTemplate struct {
	Entity     string                 `json:"entity"`
	Version    string                 `json:"version"`
	Columns    []ImportTemplateColumn `json:"columns"`
	SampleData []map[string]string    `json:"sampleData,omitempty"`
}

// ImportRowError is a per-product write failure
type ImportRowError struct {
	SKU   string `json:"sku"`
	Error string `json:"error"`
}

// ImportWarning reports a silent drop or default applied during import.
// Warnings are only returned when the caller asks for verbose output.
type ImportWarning struct {
	Line    int    `json:"line,omitempty"`
	SKU     string `json:"sku,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImportSummary is the response of a completed (possibly partially failed) import
type ImportSummary struct {
	Success       bool             `json:"success"`
	Count         int              `json:"count"`
	TotalRows     int              `json:"total_rows"`
	TotalProducts int              `json:"total_products"`
	Errors        []ImportRowError `json:"errors,omitempty"`
	Warnings      []ImportWarning  `json:"warnings,omitempty"`
	ArchiveKey    string           `json:"archive_key,omitempty"`
	ProcessingMs  int64            `json:"processing_ms"`
}

// ImportPreview is the diagnostic response returned when preview is requested
type ImportPreview struct {
	Success    bool                     `json:"success"`
	Preview    bool                     `json:"preview"`
	TotalRows  int                      `json:"total_rows"`
	Columns    []string                 `json:"columns"`
	SampleRows []map[string]interface{} `json:"sample_rows"`
}

// ImportFailure is the response of an import that could not run
type ImportFailure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

// ProductImportColumns returns the column definitions for product import
func ProductImportColumns() []ImportTemplateColumn {
	return []ImportTemplateColumn{
		{Name: ColumnNameEN, Description: "Product name in English", Required: false, Type: "string", Example: "Elegant Evening Dress"},
		{Name: ColumnNameAR, Description: "Product name in Arabic (defaults to the English name)", Required: false, Type: "string", Example: "فستان سهرة أنيق"},
		{Name: ColumnDescriptionEN, Description: "Description in English", Required: false, Type: "string", Example: "Premium silk evening dress for special occasions."},
		{Name: ColumnDescriptionAR, Description: "Description in Arabic", Required: false, Type: "string", Example: "فستان سهرة حريري فاخر للمناسبات الخاصة."},
		{Name: ColumnCategory, Description: "Category slug (defaults to general)", Required: false, Type: "string", Example: "evening-dresses"},
		{Name: ColumnSKU, Description: "Product code. Repeat the SKU on extra rows to add colors", Required: true, Type: "string", Example: "MNL-EVE-001"},
		{Name: ColumnPrice, Description: "Wholesale unit price (USD)", Required: false, Type: "number", Example: "85.00"},
		{Name: ColumnColorEN, Description: "Color name in English", Required: false, Type: "string", Example: "Black"},
		{Name: ColumnColorAR, Description: "Color name in Arabic", Required: false, Type: "string", Example: "أسود"},
		{Name: ColumnHexCode, Description: "Color hex code (defaults to #000000)", Required: false, Type: "string", Example: "#000000"},
		{Name: ColumnSizes, Description: "Comma-separated sizes (defaults to S, M, L, XL)", Required: false, Type: "list", Example: "S, M, L, XL"},
	}
}

// ProductImportTemplate returns the template definition for products
func ProductImportTemplate() ImportTemplate {
	return ImportTemplate{
		Entity:  "products",
		Version: "2.0",
		Columns: ProductImportColumns(),
		SampleData: []map[string]string{
			{
				ColumnNameEN:        "Elegant Evening Dress",
				ColumnNameAR:        "فستان سهرة أنيق",
				ColumnDescriptionEN: "Premium silk evening dress for special occasions.",
				ColumnDescriptionAR: "فستان سهرة حريري فاخر للمناسبات الخاصة.",
				ColumnCategory:      "evening-dresses",
				ColumnSKU:           "MNL-EVE-001",
				ColumnPrice:         "85.00",
				ColumnColorEN:       "Black",
				ColumnColorAR:       "أسود",
				ColumnHexCode:       "#000000",
				ColumnSizes:         "S, M, L, XL",
			},
			{
				ColumnSKU:     "MNL-EVE-001",
				ColumnColorEN: "Navy",
				ColumnColorAR: "كحلي",
				ColumnHexCode: "#1F2A44",
				ColumnSizes:   "M, L",
			},
		},
	}
}
