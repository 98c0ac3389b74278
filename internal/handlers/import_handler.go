package handlers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"catalog-service/internal/importer"
	"catalog-service/internal/middleware"
	"catalog-service/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// multipartOverhead is the slack allowed on top of the file limit for the
// multipart envelope and form fields
const multipartOverhead = 1 << 20

const (
	templateSheet     = "Products"
	instructionsSheet = "Instructions"
	templateFileName  = "products_import_template"
)

// BulkImporter runs the import pipeline for one uploaded file
type BulkImporter interface {
	Run(ctx context.Context, data []byte, fileName string, opts importer.Options) (*importer.Result, error)
}

type ImportHandler struct {
	importer       BulkImporter
	maxUploadBytes int64
	logger         *logrus.Entry
}

func NewImportHandler(bulkImporter BulkImporter, maxUploadBytes int64, logger *logrus.Logger) *ImportHandler {
	return &ImportHandler{
		importer:       bulkImporter,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.WithField("component", "import-handler"),
	}
}

// BulkImport imports products from a CSV or Excel upload
// @Summary Bulk import products
// @Description Upsert products by SKU from a CSV or XLSX file. Rows sharing a SKU become color variants of one product. Partial failures are listed in errors with a 200 status.
// @Tags Import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX file"
// @Param preview query bool false "Only parse the file and return sample rows"
// @Param verbose query bool false "Include warnings for dropped rows and applied defaults"
// @Success 200 {object} models.ImportSummary
// @Failure 400 {object} models.ImportFailure
// @Failure 401 {object} models.ErrorResponse
// @Failure 413 {object} models.ImportFailure
// @Failure 503 {object} models.ImportFailure
// @Security BasicAuth
// @Router /admin/products/bulk-import [post]
func (h *ImportHandler) BulkImport(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondFailure(c, importer.CodeFileTooLarge, importer.ErrFileTooLarge.Error())
			return
		}
		h.respondFailure(c, importer.CodeFileRequired, "Please upload a CSV or Excel file in the 'file' field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.respondFailure(c, importer.CodeFileRequired, fmt.Sprintf("failed to read upload: %v", err))
		return
	}

	opts := importer.Options{
		Preview: queryFlag(c, "preview"),
		Verbose: queryFlag(c, "verbose"),
	}

	h.logger.WithFields(logrus.Fields{
		"file":    header.Filename,
		"bytes":   len(data),
		"preview": opts.Preview,
		"admin":   middleware.GetAdminUser(c),
	}).Info("Bulk import requested")

	result, err := h.importer.Run(c.Request.Context(), data, header.Filename, opts)
	if err != nil {
		var importErr *importer.ImportError
		if errors.As(err, &importErr) {
			h.respondFailure(c, importErr.Code, importErr.Error())
			return
		}
		c.JSON(http.StatusInternalServerError, models.ImportFailure{Success: false, Error: err.Error()})
		return
	}

	if result.Preview != nil {
		c.JSON(http.StatusOK, result.Preview)
		return
	}
	c.JSON(http.StatusOK, result.Summary)
}

func (h *ImportHandler) respondFailure(c *gin.Context, code, message string) {
	c.JSON(failureStatus(code), models.ImportFailure{
		Success: false,
		Error:   message,
		Code:    code,
	})
}

func failureStatus(code string) int {
	switch code {
	case importer.CodeFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case importer.CodeCategoryLookupFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

func queryFlag(c *gin.Context, name string) bool {
	value, err := strconv.ParseBool(c.Query(name))
	return err == nil && value
}

// GetImportTemplate returns the import template as a spreadsheet or its JSON definition
// @Summary Download import template
// @Description Reference spreadsheet with the import header row and example rows
// @Tags Import
// @Produce json
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param format query string false "xlsx, csv or json" default(xlsx)
// @Success 200 {object} models.ImportTemplate
// @Failure 400 {object} models.ErrorResponse
// @Security BasicAuth
// @Router /admin/products/bulk-template [get]
func (h *ImportHandler) GetImportTemplate(c *gin.Context) {
	template := models.ProductImportTemplate()

	switch format := c.DefaultQuery("format", string(models.ImportFormatXLSX)); format {
	case string(models.ImportFormatXLSX):
		h.writeXLSXTemplate(c, template)
	case string(models.ImportFormatCSV):
		h.writeCSVTemplate(c, template)
	case "json":
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"template": template,
		})
	default:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_FORMAT",
				Message: "format must be one of xlsx, csv, json",
				Field:   "format",
			},
		})
	}
}

func (h *ImportHandler) writeCSVTemplate(c *gin.Context, template models.ImportTemplate) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", "attachment; filename="+templateFileName+".csv")
	c.Status(http.StatusOK)

	writer := csv.NewWriter(c.Writer)
	headers := templateHeaders(template, false)
	_ = writer.Write(headers)
	for _, sample := range template.SampleData {
		_ = writer.Write(sampleRow(template, sample))
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		h.logger.WithError(err).Warn("Failed to write CSV template")
	}
}

func (h *ImportHandler) writeXLSXTemplate(c *gin.Context, template models.ImportTemplate) {
	f, err := buildXLSXTemplate(template)
	if err != nil {
		h.logger.WithError(err).Error("Failed to build XLSX template")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "TEMPLATE_FAILED",
				Message: "Failed to generate template",
			},
		})
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+templateFileName+".xlsx")
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		h.logger.WithError(err).Warn("Failed to write XLSX template")
	}
}

// buildXLSXTemplate lays out the header row (required columns marked with
// " *"), the example rows and an Instructions sheet
func buildXLSXTemplate(template models.ImportTemplate) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", templateSheet); err != nil {
		f.Close()
		return nil, err
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
	})
	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
	})

	for i, header := range templateHeaders(template, true) {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(templateSheet, cell, header)

		style := headerStyle
		if template.Columns[i].Required {
			style = requiredStyle
		}
		f.SetCellStyle(templateSheet, cell, cell, style)

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(templateSheet, colName, colName, 22)
	}

	// Example rows are written as text so prices keep their two decimals
	for r, sample := range template.SampleData {
		for i, value := range sampleRow(template, sample) {
			if value == "" {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(i+1, r+2)
			f.SetCellStr(templateSheet, cell, value)
		}
	}

	if _, err := f.NewSheet(instructionsSheet); err != nil {
		f.Close()
		return nil, err
	}
	writeInstructions(f, template)

	idx, _ := f.GetSheetIndex(templateSheet)
	f.SetActiveSheet(idx)
	return f, nil
}

func writeInstructions(f *excelize.File, template models.ImportTemplate) {
	lines := []string{
		"Product Import Instructions",
		"",
		"One row per color. Repeat the SKU on the next rows to add more colors to the same product.",
		"Name, description, price and category are read from the first row of each SKU.",
		"Rows without a SKU are skipped. Unknown categories are imported without a category link.",
		"Importing the same file again updates the products instead of creating duplicates.",
		"Only the first sheet of a workbook is read.",
		"",
		"Column Definitions:",
	}
	for i, line := range lines {
		f.SetCellValue(instructionsSheet, fmt.Sprintf("A%d", i+1), line)
	}

	headerRow := len(lines) + 1
	for i, title := range []string{"Column", "Description", "Required", "Type", "Example"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		f.SetCellValue(instructionsSheet, cell, title)
	}

	for i, col := range template.Columns {
		row := headerRow + 1 + i
		required := "Optional"
		if col.Required {
			required = "Required"
		}
		f.SetCellValue(instructionsSheet, fmt.Sprintf("A%d", row), col.Name)
		f.SetCellValue(instructionsSheet, fmt.Sprintf("B%d", row), col.Description)
		f.SetCellValue(instructionsSheet, fmt.Sprintf("C%d", row), required)
		f.SetCellValue(instructionsSheet, fmt.Sprintf("D%d", row), col.Type)
		f.SetCellStr(instructionsSheet, fmt.Sprintf("E%d", row), col.Example)
	}

	f.SetColWidth(instructionsSheet, "A", "A", 25)
	f.SetColWidth(instructionsSheet, "B", "B", 60)
	f.SetColWidth(instructionsSheet, "C", "D", 12)
	f.SetColWidth(instructionsSheet, "E", "E", 35)
}

func templateHeaders(template models.ImportTemplate, markRequired bool) []string {
	headers := make([]string, len(template.Columns))
	for i, col := range template.Columns {
		headers[i] = col.Name
		if markRequired && col.Required {
			headers[i] += " *"
		}
	}
	return headers
}

func sampleRow(template models.ImportTemplate, sample map[string]string) []string {
	row := make([]string, len(template.Columns))
	for i, col := range template.Columns {
		row[i] = sample[col.Name]
	}
	return row
}
