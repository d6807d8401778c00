// Package report turns merged tables into downloadable spreadsheets and chart aggregates.
package report

import (
	"fmt"
	"strconv"

	"github.com/research-explorer/backend/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	// XLSXContentType is the MIME type of exported workbooks.
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	// MergedFileName is the download name of the merged table.
	MergedFileName = "data_gabungan.xlsx"
	// FilteredFileName is the download name of the filtered table.
	FilteredFileName = "data_filtered.xlsx"
	// DefaultSheet is used when no sheet name is configured.
	DefaultSheet = "Data"
)

// ExportOptions controls how a table is written.
type ExportOptions struct {
	Sheet string
	// IntegerColumns are written as numbers instead of text.
	IntegerColumns []string
}

// ExportXLSX writes t to a single-sheet workbook: the header row, then every row in
// table order with no index column. Missing cells are left empty.
func ExportXLSX(t *models.Table, sheet string) ([]byte, error) {
	return ExportXLSXWithOptions(t, ExportOptions{Sheet: sheet})
}

// ExportTable exports t using the schema's sheet name, writing the normalized funds column as integers.
func ExportTable(t *models.Table, schema *models.Schema) ([]byte, error) {
	return ExportXLSXWithOptions(t, ExportOptions{
		Sheet:          schema.ExportSheet,
		IntegerColumns: []string{schema.NormalizedColumn},
	})
}

// ExportXLSXWithOptions is ExportXLSX with explicit options.
func ExportXLSXWithOptions(t *models.Table, opts ExportOptions) ([]byte, error) {
	sheet := opts.Sheet
	if sheet == "" {
		sheet = DefaultSheet
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return nil, fmt.Errorf("create stream writer: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	header := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: c}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	integer := make([]bool, len(t.Columns))
	for _, name := range opts.IntegerColumns {
		if i, ok := t.ColumnIndex(name); ok {
			integer[i] = true
		}
	}

	values := make([]interface{}, len(t.Columns))
	for r, row := range t.Rows {
		for i := range t.Columns {
			values[i] = nil
			if i >= len(row.Cells) || !row.Cells[i].Valid {
				continue
			}
			text := row.Cells[i].Text
			if integer[i] {
				if n, err := strconv.ParseInt(text, 10, 64); err == nil {
					values[i] = n
					continue
				}
			}
			values[i] = text
		}

		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", r+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("flush sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
