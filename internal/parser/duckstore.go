package parser

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/marcboeker/go-duckdb"
	"github.com/research-explorer/backend/internal/models"
)

// DuckOptions tunes the DuckDB connection.
type DuckOptions struct {
	Threads     int
	MemoryLimit string
}

// DefaultDuckOptions returns the settings used when none are configured.
func DefaultDuckOptions() DuckOptions {
	return DuckOptions{Threads: 4, MemoryLimit: "1GB"}
}

// dimensionColumns are the typed record columns stored next to the raw cells.
var dimensionColumns = map[models.Dimension]string{
	models.DimensionProposalYear:  "proposal_year",
	models.DimensionExecutionYear: "execution_year",
	models.DimensionFocusArea:     "focus_area",
	models.DimensionGrantProgram:  "grant_program",
}

// DuckStore keeps a merged table in a temporary DuckDB file so pages of rows
// and column summaries can be served without holding extra copies in memory.
type DuckStore struct {
	db       *sql.DB
	dbPath   string
	columns  []string
	dims     map[models.Dimension]bool
	rowCount int

	// Semaphore to limit concurrent queries
	querySem chan struct{}
}

// NewDuckStore creates a new DuckDB-backed store in the given temp directory.
func NewDuckStore(tempDir string, sessionID string, opts DuckOptions) (*DuckStore, error) {
	dbPath := filepath.Join(tempDir, fmt.Sprintf("dataset_%s.duckdb", sessionID))
	return NewDuckStoreAtPath(dbPath, opts)
}

// NewDuckStoreAtPath creates a new DuckDB-backed store at a specific path.
func NewDuckStoreAtPath(dbPath string, opts DuckOptions) (*DuckStore, error) {
	fmt.Printf("[DuckStore] Creating database at: %s\n", dbPath)

	if opts.Threads < 1 {
		opts.Threads = 1
	}
	if opts.MemoryLimit == "" {
		opts.MemoryLimit = "1GB"
	}

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			fmt.Sprintf("PRAGMA memory_limit='%s'", opts.MemoryLimit),
			fmt.Sprintf("PRAGMA threads=%d", opts.Threads),
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				fmt.Printf("[DuckStore] Pragma error: %v\n", err)
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	if err := db.Ping(); err != nil {
		db.Close()
		os.Remove(dbPath)
		return nil, fmt.Errorf("failed to open DuckDB: %w", err)
	}

	return &DuckStore{
		db:       db,
		dbPath:   dbPath,
		dims:     make(map[models.Dimension]bool),
		querySem: make(chan struct{}, 3), // Max 3 concurrent queries
	}, nil
}

func cellColumn(i int) string {
	return fmt.Sprintf("c%d", i)
}

// Load creates the rows table for t and appends every row using the Appender API.
// A store holds exactly one table; calling Load twice is an error.
func (ds *DuckStore) Load(t *models.Table) error {
	if ds.columns != nil {
		return fmt.Errorf("duckstore already loaded")
	}

	defs := []string{
		"id INTEGER PRIMARY KEY",
		"source VARCHAR NOT NULL",
		"funds BIGINT NOT NULL",
	}
	for _, d := range models.Dimensions {
		defs = append(defs, dimensionColumns[d]+" VARCHAR")
	}
	for i := range t.Columns {
		defs = append(defs, cellColumn(i)+" VARCHAR")
	}

	if _, err := ds.db.Exec("CREATE TABLE dataset_rows (" + strings.Join(defs, ", ") + ")"); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	start := time.Now()
	conn, err := ds.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	err = conn.Raw(func(driverConn interface{}) error {
		dConn, ok := driverConn.(*duckdb.Conn)
		if !ok {
			return fmt.Errorf("failed to cast to duckdb.Conn")
		}

		appender, err := duckdb.NewAppenderFromConn(dConn, "", "dataset_rows")
		if err != nil {
			return fmt.Errorf("failed to create appender: %w", err)
		}
		defer appender.Close()

		values := make([]driver.Value, 3+len(models.Dimensions)+len(t.Columns))
		for i, row := range t.Rows {
			values[0] = int32(i)
			values[1] = row.Record.SourceFile
			values[2] = row.Record.ApprovedFunds
			for j, d := range models.Dimensions {
				values[3+j] = row.Record.Dimension(d).Value()
			}
			off := 3 + len(models.Dimensions)
			for j := range t.Columns {
				if j < len(row.Cells) {
					values[off+j] = row.Cells[j].Value()
				} else {
					values[off+j] = nil
				}
			}
			if err := appender.AppendRow(values...); err != nil {
				return fmt.Errorf("failed to append row %d: %w", i, err)
			}
		}
		return appender.Flush()
	})
	if err != nil {
		return fmt.Errorf("appender error: %w", err)
	}

	ds.columns = append([]string{}, t.Columns...)
	for d, ok := range t.Dimensions {
		ds.dims[d] = ok
	}
	ds.rowCount = t.Len()
	fmt.Printf("[DuckStore] Loaded %d rows x %d columns in %v\n", ds.rowCount, len(ds.columns), time.Since(start))
	return nil
}

// Len returns the number of stored rows.
func (ds *DuckStore) Len() int {
	return ds.rowCount
}

func (ds *DuckStore) acquire(ctx context.Context) (func(), error) {
	select {
	case ds.querySem <- struct{}{}:
		return func() { <-ds.querySem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GetRows returns a 1-based page of rows in original order.
func (ds *DuckStore) GetRows(ctx context.Context, page, pageSize int) ([]models.Row, error) {
	release, err := ds.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if page < 1 || pageSize < 1 {
		return []models.Row{}, nil
	}

	return ds.selectPage(ctx, "", nil, page, pageSize)
}

// QueryRows returns a 1-based page of the rows matching c, in original order, and
// the number of matching rows. It selects the same rows as ApplyFilter.
func (ds *DuckStore) QueryRows(ctx context.Context, c models.Criteria, page, pageSize int) ([]models.Row, int, error) {
	release, err := ds.acquire(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer release()

	where, args := ds.whereClause(c)

	var total int
	if err := ds.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM dataset_rows"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if page < 1 || pageSize < 1 {
		return []models.Row{}, total, nil
	}

	rows, err := ds.selectPage(ctx, where, args, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// whereClause renders c over the typed columns. Selections on dimensions the
// table does not have are skipped; NULL never matches IN.
func (ds *DuckStore) whereClause(c models.Criteria) (string, []interface{}) {
	var conds []string
	var args []interface{}
	if c.Funds != nil {
		conds = append(conds, "funds BETWEEN ? AND ?")
		args = append(args, c.Funds.Min, c.Funds.Max)
	}
	for _, d := range models.Dimensions {
		vals := c.Selection(d)
		if len(vals) == 0 || !ds.dims[d] {
			continue
		}
		marks := make([]string, len(vals))
		for i, v := range vals {
			marks[i] = "?"
			args = append(args, v)
		}
		conds = append(conds, dimensionColumns[d]+" IN ("+strings.Join(marks, ", ")+")")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (ds *DuckStore) selectPage(ctx context.Context, where string, args []interface{}, page, pageSize int) ([]models.Row, error) {
	cols := []string{"source", "funds"}
	for _, d := range models.Dimensions {
		cols = append(cols, dimensionColumns[d])
	}
	for i := range ds.columns {
		cols = append(cols, cellColumn(i))
	}

	query := "SELECT " + strings.Join(cols, ", ") + " FROM dataset_rows" + where + " ORDER BY id LIMIT ? OFFSET ?"
	args = append(append([]interface{}{}, args...), pageSize, (page-1)*pageSize)
	rows, err := ds.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]models.Row, 0, pageSize)
	for rows.Next() {
		row, err := ds.scanRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (ds *DuckStore) scanRow(rows *sql.Rows) (models.Row, error) {
	var source string
	var funds int64
	dims := make([]sql.NullString, len(models.Dimensions))
	cells := make([]sql.NullString, len(ds.columns))

	dest := []interface{}{&source, &funds}
	for i := range dims {
		dest = append(dest, &dims[i])
	}
	for i := range cells {
		dest = append(dest, &cells[i])
	}
	if err := rows.Scan(dest...); err != nil {
		return models.Row{}, err
	}

	row := models.Row{
		Cells: make([]models.Cell, len(cells)),
		Record: models.Record{
			ApprovedFunds: funds,
			SourceFile:    source,
		},
	}
	for i, c := range cells {
		row.Cells[i] = nullCell(c)
	}
	row.Record.ProposalYear = nullCell(dims[0])
	row.Record.ExecutionYear = nullCell(dims[1])
	row.Record.FocusArea = nullCell(dims[2])
	row.Record.GrantProgram = nullCell(dims[3])
	return row, nil
}

func nullCell(s sql.NullString) models.Cell {
	if !s.Valid {
		return models.Missing
	}
	return models.TextCell(s.String)
}

// DistinctValues returns the distinct values of a dimension in natural order.
func (ds *DuckStore) DistinctValues(ctx context.Context, d models.Dimension) ([]string, error) {
	col, ok := dimensionColumns[d]
	if !ok {
		return nil, fmt.Errorf("unknown dimension: %s", d)
	}
	values := make([]string, 0)
	if !ds.dims[d] {
		return values, nil
	}

	release, err := ds.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := ds.db.QueryContext(ctx, "SELECT DISTINCT "+col+" FROM dataset_rows WHERE "+col+" IS NOT NULL")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	SortNatural(values)
	return values, nil
}

// FundsBounds returns the smallest and largest approved funds.
func (ds *DuckStore) FundsBounds(ctx context.Context) (int64, int64, error) {
	release, err := ds.acquire(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer release()

	var lo, hi sql.NullInt64
	if err := ds.db.QueryRowContext(ctx, "SELECT MIN(funds), MAX(funds) FROM dataset_rows").Scan(&lo, &hi); err != nil {
		return 0, 0, err
	}
	return lo.Int64, hi.Int64, nil
}

// Options builds the filter control values with SQL: distinct dimension values
// and the funds bounds. It matches BuildOptions over the loaded table.
func (ds *DuckStore) Options(ctx context.Context, step int64) (models.FilterOptions, error) {
	opts := models.FilterOptions{
		Values: make(map[models.Dimension][]string, len(models.Dimensions)),
	}
	for _, d := range models.Dimensions {
		values, err := ds.DistinctValues(ctx, d)
		if err != nil {
			return models.FilterOptions{}, fmt.Errorf("distinct %s: %w", d, err)
		}
		opts.Values[d] = values
	}
	lo, hi, err := ds.FundsBounds(ctx)
	if err != nil {
		return models.FilterOptions{}, fmt.Errorf("funds bounds: %w", err)
	}
	opts.Funds = models.FundsBounds{Min: lo, Max: hi, Step: step, Fixed: lo == hi}
	return opts, nil
}

// Close closes the database and removes the temp file
func (ds *DuckStore) Close() error {
	if ds.db != nil {
		ds.db.Close()
	}
	if ds.dbPath != "" {
		os.Remove(ds.dbPath)
		os.Remove(ds.dbPath + ".wal")
	}
	return nil
}
