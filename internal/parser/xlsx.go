package parser

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/research-explorer/backend/internal/models"
	"github.com/xuri/excelize/v2"
)

var zipMagic = []byte("PK\x03\x04")

// XLSXLoader reads Office Open XML workbooks.
type XLSXLoader struct{}

func NewXLSXLoader() *XLSXLoader {
	return &XLSXLoader{}
}

func (l *XLSXLoader) Name() string {
	return "xlsx"
}

func (l *XLSXLoader) CanLoad(name string, head []byte) bool {
	if bytes.HasPrefix(head, zipMagic) {
		return true
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}

// Load reads the configured sheet (the first sheet by default). Cell values are read
// raw so that numbers are not reformatted by the workbook's display styles.
func (l *XLSXLoader) Load(name string, r io.Reader, schema *models.Schema) (*models.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheet := schema.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrHeaderNotFound)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}

	return buildTable(rows, schema)
}
