package session

import (
	"errors"
	"fmt"

	"github.com/research-explorer/backend/internal/models"
	"github.com/research-explorer/backend/internal/parser"
	"github.com/research-explorer/backend/internal/report"
)

// Result is the outcome of one pass over an upload set.
type Result struct {
	Files       []models.FileResult
	LoadedCount int
	Merged      *models.Table
	Options     models.FilterOptions
	View
}

// View is the filtered part of a result, recomputed on every criteria change.
type View struct {
	Criteria models.Criteria
	Filtered *models.Table
	Charts   []models.Chart
}

// Pipeline loads, merges, filters and charts an upload set. It holds no state
// between runs.
type Pipeline struct {
	Registry *parser.Registry
	Schema   *models.Schema
}

// schema returns the configured schema or the default layout.
func (p *Pipeline) schema() *models.Schema {
	if p.Schema == nil {
		return models.DefaultSchema()
	}
	return p.Schema
}

// Run executes the pipeline with the built-in loaders.
func Run(inputs []parser.Input, criteria *models.Criteria, schema *models.Schema) (*Result, error) {
	p := &Pipeline{Registry: parser.NewRegistry(), Schema: schema}
	return p.Run(inputs, criteria)
}

// Run loads every input, skipping files that fail, merges the survivors in upload
// order and applies criteria, or the default criteria when nil.
// When no file survives the error wraps parser.ErrEmptyInput and the result still
// carries the per-file outcomes.
func (p *Pipeline) Run(inputs []parser.Input, criteria *models.Criteria) (*Result, error) {
	schema := p.schema()

	res := &Result{Files: make([]models.FileResult, 0, len(inputs))}
	tables := make([]*models.Table, 0, len(inputs))
	names := make([]string, 0, len(inputs))

	for _, in := range inputs {
		fr := models.FileResult{FileID: in.ID, Name: in.Name}
		table, err := p.Registry.Load(in, schema)
		if err != nil {
			fr.Status = models.FileStatusSkipped
			fr.Error = describeLoadError(err)
			res.Files = append(res.Files, fr)
			continue
		}
		fr.Status = models.FileStatusLoaded
		fr.Rows = table.Len()
		res.Files = append(res.Files, fr)
		tables = append(tables, table)
		names = append(names, in.Name)
	}
	res.LoadedCount = len(tables)

	merged, err := parser.MergeTables(tables, names, schema)
	if err != nil {
		return res, err
	}
	res.Merged = merged
	res.Options = parser.BuildOptions(merged, schema)

	c := parser.DefaultCriteria(merged)
	if criteria != nil {
		c = *criteria
	}
	res.View = Query(merged, c, schema)
	return res, nil
}

// Query filters merged and rebuilds the charts over the filtered rows.
func Query(merged *models.Table, c models.Criteria, schema *models.Schema) View {
	filtered := parser.ApplyFilter(merged, c)
	return View{
		Criteria: c,
		Filtered: filtered,
		Charts:   report.BuildCharts(filtered, schema),
	}
}

// describeLoadError turns a load failure into the message shown next to the file.
func describeLoadError(err error) string {
	if errors.Is(err, parser.ErrUnsupportedFormat) {
		return "file skipped: wrong format"
	}
	var le *parser.LoadError
	if errors.As(err, &le) {
		err = le.Err
	}
	return fmt.Sprintf("file skipped: %v", err)
}
