package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/research-explorer/backend/internal/models"
)

// CSVLoader reads comma separated exports of the same report layout.
// encoding/csv drops wholly empty lines, so preamble rows must carry their separators
// (",,,") for the header to stay on its physical row, as spreadsheet exports do.
type CSVLoader struct{}

func NewCSVLoader() *CSVLoader {
	return &CSVLoader{}
}

func (l *CSVLoader) Name() string {
	return "csv"
}

func (l *CSVLoader) CanLoad(name string, head []byte) bool {
	return strings.ToLower(filepath.Ext(name)) == ".csv"
}

func (l *CSVLoader) Load(name string, r io.Reader, schema *models.Schema) (*models.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}

	return buildTable(rows, schema)
}
