package importer

import (
	"strconv"
	"strings"
)

// CellKind tags the value held by a spreadsheet cell
type CellKind int

const (
	CellAbsent CellKind = iota
	CellText
	CellNumber
)

// Cell is one spreadsheet value as detected by the decoder
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

func TextCell(s string) Cell {
	return Cell{Kind: CellText, Text: s}
}

func NumberCell(n float64) Cell {
	return Cell{Kind: CellNumber, Number: n}
}

// String renders the cell as trimmed text. Numbers are printed without
// exponent or trailing zeros so numeric SKUs keep their digits.
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return strings.TrimSpace(c.Text)
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	default:
		return ""
	}
}

// IsBlank reports whether the cell carries no usable value
func (c Cell) IsBlank() bool {
	return c.Kind == CellAbsent || (c.Kind == CellText && strings.TrimSpace(c.Text) == "")
}

// Value returns the native value for JSON output (string or float64)
func (c Cell) Value() interface{} {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return c.Number
	default:
		return nil
	}
}

// RawRow is one data row keyed by header text. Line is the 1-based line in
// the source file (the header is line 1).
type RawRow struct {
	Line  int
	Cells map[string]Cell
}

// Get returns the cell under header, or an absent cell
func (r RawRow) Get(header string) Cell {
	if c, ok := r.Cells[header]; ok {
		return c
	}
	return Cell{}
}

// Values converts the row into a plain map for diagnostics
func (r RawRow) Values() map[string]interface{} {
	out := make(map[string]interface{}, len(r.Cells))
	for k, c := range r.Cells {
		out[k] = c.Value()
	}
	return out
}
