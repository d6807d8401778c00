package parser

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/research-explorer/backend/internal/models"
)

// Loader defines the interface for spreadsheet loaders.
type Loader interface {
	// Name returns the unique name of the loader.
	Name() string
	// CanLoad returns true if this loader can handle a file with the given name and leading bytes.
	CanLoad(name string, head []byte) bool
	// Load reads the whole file into a table bound to schema.
	Load(name string, r io.Reader, schema *models.Schema) (*models.Table, error)
}

var (
	// ErrEmptyInput is returned when no uploaded file survived loading.
	ErrEmptyInput = errors.New("no valid files")
	// ErrMissingColumn is returned when a required column is absent from a file.
	ErrMissingColumn = errors.New("missing required column")
	// ErrUnsupportedFormat is returned when no loader accepts a file.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrHeaderNotFound is returned when the file ends before the header row or the header is blank.
	ErrHeaderNotFound = errors.New("header row not found")
)

// LoadError reports a file that could not be loaded. The file is skipped, never partially merged.
type LoadError struct {
	File string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("file %q: %v", e.File, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// NewLoadError creates a LoadError.
func NewLoadError(file string, err error) *LoadError {
	return &LoadError{File: file, Err: err}
}

// Input is one uploaded file handed to the pipeline, either on disk or in memory.
type Input struct {
	ID   string
	Name string
	Path string
	Data []byte

	// Format names the loader to use ("xlsx", "csv") instead of detecting it,
	// e.g. for a CSV export saved as .txt.
	Format string
}

// Open returns a reader over the input's content.
func (in Input) Open() (io.ReadCloser, error) {
	if in.Data != nil || in.Path == "" {
		return io.NopCloser(bytes.NewReader(in.Data)), nil
	}
	return os.Open(in.Path)
}

// Load finds a loader for the input and reads it. Every failure is a *LoadError.
func (r *Registry) Load(in Input, schema *models.Schema) (*models.Table, error) {
	rc, err := in.Open()
	if err != nil {
		return nil, NewLoadError(in.Name, err)
	}
	defer rc.Close()

	br := bufio.NewReader(rc)
	head, _ := br.Peek(8)

	var l Loader
	if in.Format != "" {
		l, err = r.GetLoaderByName(in.Format)
	} else {
		l, err = r.FindLoader(in.Name, head)
	}
	if err != nil {
		return nil, NewLoadError(in.Name, err)
	}

	table, err := l.Load(in.Name, br, schema)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			return nil, le
		}
		return nil, NewLoadError(in.Name, err)
	}
	return table, nil
}

// buildTable turns raw rows into a table using the schema's header row.
// Columns with a blank header are discarded together with their cells.
func buildTable(rows [][]string, schema *models.Schema) (*models.Table, error) {
	headerRow := schema.HeaderRow
	if headerRow < 1 {
		headerRow = 1
	}
	if len(rows) < headerRow {
		return nil, fmt.Errorf("%w: file has %d rows, header expected at row %d", ErrHeaderNotFound, len(rows), headerRow)
	}

	header := rows[headerRow-1]
	var positions []int
	var labels []string
	used := make(map[string]bool)
	next := make(map[string]int)
	for i, h := range header {
		label := strings.TrimSpace(h)
		if label == "" {
			continue
		}
		// Duplicate labels get ".1", ".2" suffixes, skipping any suffixed name
		// already taken, so every column stays addressable.
		if used[label] {
			base := label
			for {
				next[base]++
				label = fmt.Sprintf("%s.%d", base, next[base])
				if !used[label] {
					break
				}
			}
		}
		used[label] = true
		positions = append(positions, i)
		labels = append(labels, label)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: row %d has no labels", ErrHeaderNotFound, headerRow)
	}

	labelIdx := make(map[string]int, len(labels))
	for i, l := range labels {
		labelIdx[l] = i
	}
	for _, req := range schema.RequiredColumns {
		if _, ok := labelIdx[req]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, req)
		}
	}

	// The normalized column is always present. Rows of a file without the currency
	// column carry 0, the normalized value of a missing amount, so the table and
	// the funds filter see the same number.
	currencyIdx, hasCurrency := labelIdx[schema.CurrencyColumn]
	numIdx, hasNum := labelIdx[schema.NormalizedColumn]
	columns := labels
	if !hasNum {
		columns = append(append([]string{}, labels...), schema.NormalizedColumn)
		numIdx = len(columns) - 1
	}

	t := models.NewTable(columns)
	dimIdx := make(map[models.Dimension]int)
	for _, d := range models.Dimensions {
		if i, ok := t.ColumnIndex(schema.ColumnFor(d)); ok {
			dimIdx[d] = i
			t.Dimensions[d] = true
		}
	}

	pool := NewStringIntern()
	for _, raw := range rows[headerRow:] {
		cells := make([]models.Cell, len(columns))
		blank := true
		for ci, pos := range positions {
			if pos < len(raw) && raw[pos] != "" {
				cells[ci] = pool.Cell(raw[pos])
				blank = false
			}
		}
		if blank {
			continue
		}

		var funds int64
		switch {
		case hasCurrency:
			funds = NormalizeCurrency(cells[currencyIdx].Value())
		case hasNum:
			funds = NormalizeCurrency(cells[numIdx].Value())
		}
		cells[numIdx] = models.TextCell(strconv.FormatInt(funds, 10))

		rec := models.Record{ApprovedFunds: funds}
		for d, i := range dimIdx {
			switch d {
			case models.DimensionProposalYear:
				rec.ProposalYear = cells[i]
			case models.DimensionExecutionYear:
				rec.ExecutionYear = cells[i]
			case models.DimensionFocusArea:
				rec.FocusArea = cells[i]
			case models.DimensionGrantProgram:
				rec.GrantProgram = cells[i]
			}
		}

		t.Rows = append(t.Rows, models.Row{Cells: cells, Record: rec})
	}

	return t, nil
}
