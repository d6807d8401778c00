package parser

import (
	"fmt"

	"github.com/research-explorer/backend/internal/models"
)

// MergeTables concatenates tables in order, tagging every row with the name of the file
// it came from. The result's columns are the union of the inputs' columns in first-seen
// order, each input's source column following its own columns. Cells an input does not
// have are filled with models.Missing. Inputs are not modified.
func MergeTables(tables []*models.Table, sourceNames []string, schema *models.Schema) (*models.Table, error) {
	if len(tables) == 0 {
		return nil, ErrEmptyInput
	}
	if len(sourceNames) != len(tables) {
		return nil, fmt.Errorf("merge: %d tables but %d source names", len(tables), len(sourceNames))
	}

	// 1. Column union
	var columns []string
	seen := make(map[string]struct{})
	add := func(c string) {
		if _, ok := seen[c]; !ok {
			seen[c] = struct{}{}
			columns = append(columns, c)
		}
	}
	totalRows := 0
	for _, t := range tables {
		for _, c := range t.Columns {
			add(c)
		}
		add(schema.SourceColumn)
		totalRows += t.Len()
	}

	merged := models.NewTable(columns)
	merged.Rows = make([]models.Row, 0, totalRows)
	sourceIdx, _ := merged.ColumnIndex(schema.SourceColumn)

	// 2. Rows, re-aligned to the union
	for i, t := range tables {
		for d, ok := range t.Dimensions {
			if ok {
				merged.Dimensions[d] = true
			}
		}

		mapping := make([]int, len(t.Columns))
		for ci, c := range t.Columns {
			mapping[ci], _ = merged.ColumnIndex(c)
		}

		source := sourceNames[i]
		sourceCell := models.TextCell(source)
		for _, row := range t.Rows {
			cells := make([]models.Cell, len(columns))
			for ci, cell := range row.Cells {
				if ci < len(mapping) {
					cells[mapping[ci]] = cell
				}
			}
			cells[sourceIdx] = sourceCell

			rec := row.Record
			rec.SourceFile = source
			merged.Rows = append(merged.Rows, models.Row{Cells: cells, Record: rec})
		}
	}

	return merged, nil
}
