package parser

import (
	"fmt"
	"io"
	"os"

	"github.com/research-explorer/backend/internal/models"
	"gopkg.in/yaml.v3"
)

// ParseSchema parses a YAML dataset schema file.
// Keys left out of the file keep their DefaultSchema values.
func ParseSchema(filePath string) (*models.Schema, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseSchemaFromReader(file)
}

// ParseSchemaFromReader parses a schema from an io.Reader.
func ParseSchemaFromReader(r io.Reader) (*models.Schema, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	schema := models.DefaultSchema()
	if err := yaml.Unmarshal(data, schema); err != nil {
		return nil, err
	}

	if err := ValidateSchema(schema); err != nil {
		return nil, err
	}
	return schema, nil
}

// LoadSchemaOrDefault reads the schema at path, or returns the default schema when
// path is empty or does not exist.
func LoadSchemaOrDefault(path string) (*models.Schema, error) {
	if path == "" {
		return models.DefaultSchema(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return models.DefaultSchema(), nil
	}
	return ParseSchema(path)
}

// ValidateSchema checks the fields every loader depends on.
func ValidateSchema(s *models.Schema) error {
	if s.HeaderRow < 1 {
		return fmt.Errorf("schema: header_row must be >= 1, got %d", s.HeaderRow)
	}
	if s.CurrencyColumn == "" || s.NormalizedColumn == "" {
		return fmt.Errorf("schema: currency_column and normalized_column are required")
	}
	if s.SourceColumn == "" {
		return fmt.Errorf("schema: source_column is required")
	}
	if s.RangeStep < 1 {
		return fmt.Errorf("schema: range_step must be positive, got %d", s.RangeStep)
	}
	if s.ExportSheet == "" {
		s.ExportSheet = "Data"
	}
	return nil
}
