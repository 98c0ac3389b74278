package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"catalog-service/internal/models"
	"github.com/xuri/excelize/v2"
)

var (
	ErrNoFile            = errors.New("no file uploaded")
	ErrUnsupportedFormat = errors.New("unsupported file format: upload an Excel (.xlsx) or CSV file")
	ErrEmptyFile         = errors.New("the file contains no data rows")
	ErrFileTooLarge      = errors.New("the file exceeds the maximum upload size")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Sheet is the decoded first table of an uploaded file
type Sheet struct {
	Format  models.ImportFormat
	Columns []string
	Rows    []RawRow
}

// DetectFormat classifies a file by its extension
func DetectFormat(fileName string) (models.ImportFormat, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return models.ImportFormatCSV, nil
	case ".xlsx":
		return models.ImportFormatXLSX, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// Parse decodes the first sheet of a CSV or XLSX file into raw rows
func Parse(data []byte, fileName string) (*Sheet, error) {
	format, err := DetectFormat(fileName)
	if err != nil {
		return nil, err
	}

	var table [][]Cell
	var headers []string
	switch format {
	case models.ImportFormatCSV:
		headers, table, err = readCSV(data)
	default:
		headers, table, err = readXLSX(data)
	}
	if err != nil {
		return nil, err
	}

	sheet := &Sheet{Format: format, Columns: headers}
	for i, cells := range table {
		row := RawRow{Line: i + 2, Cells: make(map[string]Cell)}
		for col, cell := range cells {
			if col >= len(headers) || headers[col] == "" || cell.IsBlank() {
				continue
			}
			if _, dup := row.Cells[headers[col]]; dup {
				continue
			}
			row.Cells[headers[col]] = cell
		}
		if len(row.Cells) == 0 {
			continue
		}
		sheet.Rows = append(sheet.Rows, row)
	}

	if len(sheet.Rows) == 0 {
		return nil, ErrEmptyFile
	}
	return sheet, nil
}

// readCSV decodes delimited UTF-8 text. Every CSV value is text.
func readCSV(data []byte) ([]string, [][]Cell, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	text := strings.ToValidUTF8(string(data), "�")

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, ErrEmptyFile
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to read CSV header: %v", ErrUnsupportedFormat, err)
	}

	var table [][]Cell
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: error reading line %d: %v", ErrUnsupportedFormat, line, err)
		}
		cells := make([]Cell, len(record))
		for i, value := range record {
			cells[i] = TextCell(value)
		}
		table = append(table, cells)
	}
	return normalizeHeaders(header), table, nil
}

// readXLSX decodes the first worksheet of a workbook, keeping numeric cells
// as numbers.
func readXLSX(data []byte) ([]string, [][]Cell, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to open Excel file: %v", ErrUnsupportedFormat, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, ErrEmptyFile
	}
	sheetName := sheets[0]

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to read sheet: %v", ErrUnsupportedFormat, err)
	}
	if len(rows) == 0 {
		return nil, nil, ErrEmptyFile
	}

	table := make([][]Cell, 0, len(rows)-1)
	for rowIdx, values := range rows[1:] {
		cells := make([]Cell, len(values))
		for colIdx, value := range values {
			if strings.TrimSpace(value) == "" {
				continue
			}
			cellName, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
			}
			cells[colIdx] = xlsxCell(f, sheetName, cellName, value)
		}
		table = append(table, cells)
	}
	return normalizeHeaders(rows[0]), table, nil
}

func xlsxCell(f *excelize.File, sheet, cellName, value string) Cell {
	cellType, err := f.GetCellType(sheet, cellName)
	if err != nil {
		return TextCell(value)
	}
	switch cellType {
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if n, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return NumberCell(n)
		}
	}
	return TextCell(value)
}

func normalizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	for i, h := range raw {
		headers[i] = strings.TrimSpace(h)
		// Required marker added by the xlsx template
		headers[i] = strings.TrimSuffix(headers[i], " *")
	}
	return headers
}
