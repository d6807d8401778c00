package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/research-explorer/backend/internal/models"
	"github.com/research-explorer/backend/internal/parser"
)

// DefaultMaxSessions limits concurrent datasets to prevent memory exhaustion
const DefaultMaxSessions = 10

// SessionMaxAge is how long to keep idle datasets before cleanup
const SessionMaxAge = 30 * time.Minute

// SessionKeepAliveWindow is how long to keep datasets that are actively being used
const SessionKeepAliveWindow = 5 * time.Minute

// DefaultPreviewRows is the number of merged rows shown in the dataset summary.
const DefaultPreviewRows = 10

// Options configures a Manager.
type Options struct {
	TempDir      string
	EnableDuckDB bool
	Duck         parser.DuckOptions
	MaxSessions  int
	PreviewRows  int
}

// DefaultOptions returns the options used by NewManager.
func DefaultOptions() Options {
	tempDir := os.Getenv("DUCKDB_TEMP_DIR")
	if tempDir == "" {
		tempDir = "./data/temp"
	}
	return Options{
		TempDir:      tempDir,
		EnableDuckDB: true,
		Duck:         parser.DefaultDuckOptions(),
		MaxSessions:  DefaultMaxSessions,
		PreviewRows:  DefaultPreviewRows,
	}
}

// Manager holds merged datasets, one per upload set.
type Manager struct {
	sessions map[string]*SessionState
	mu       sync.RWMutex
	pipeline *Pipeline
	opts     Options
	onEvict  func(*SessionState)
}

// SessionState holds the dataset summary, the merged table and its DuckDB copy.
// The merged table is never modified after the session is created.
type SessionState struct {
	Session      *models.DatasetSession
	Merged       *models.Table
	DuckStore    *parser.DuckStore // nil when DuckDB is disabled or failed to open
	FileIDs      []string
	LastAccessed time.Time
}

// NewManagerWithOptions creates a dataset manager.
func NewManagerWithOptions(registry *parser.Registry, schema *models.Schema, opts Options) *Manager {
	if opts.MaxSessions < 1 {
		opts.MaxSessions = DefaultMaxSessions
	}
	if opts.PreviewRows < 1 {
		opts.PreviewRows = DefaultPreviewRows
	}
	if opts.TempDir != "" {
		os.MkdirAll(opts.TempDir, 0755)
	}
	return &Manager{
		sessions: make(map[string]*SessionState),
		pipeline: &Pipeline{Registry: registry, Schema: schema},
		opts:     opts,
	}
}

// OnEvict registers a hook called whenever a dataset is removed.
func (m *Manager) OnEvict(fn func(*SessionState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEvict = fn
}

// Schema returns the dataset schema used for every upload.
func (m *Manager) Schema() *models.Schema {
	return m.pipeline.schema()
}

// shortID safely truncates an ID for logging (handles short IDs gracefully)
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// CreateDataset loads, merges and summarizes an upload set.
// If no file could be loaded the returned summary lists every file's error and the
// error wraps parser.ErrEmptyInput; nothing is stored in that case.
func (m *Manager) CreateDataset(inputs []parser.Input) (*models.DatasetSession, error) {
	m.cleanupOldSessionsIfNeeded()

	sessionID := uuid.New().String()
	start := time.Now()
	fmt.Printf("[Session %s] Loading %d file(s)\n", shortID(sessionID), len(inputs))

	res, err := m.pipeline.Run(inputs, nil)
	session := &models.DatasetSession{
		ID:          sessionID,
		Status:      models.DatasetStatusEmpty,
		Files:       res.Files,
		LoadedCount: res.LoadedCount,
		Columns:     []string{},
		CreatedAt:   start,
	}
	for _, f := range res.Files {
		if f.Status == models.FileStatusSkipped {
			fmt.Printf("[Session %s] %s: %s\n", shortID(sessionID), f.Name, f.Error)
		}
	}
	if err != nil {
		if !errors.Is(err, parser.ErrEmptyInput) {
			return session, fmt.Errorf("merge failed: %w", err)
		}
		fmt.Printf("[Session %s] No valid files\n", shortID(sessionID))
		return session, err
	}

	session.Status = models.DatasetStatusReady
	session.RowCount = res.Merged.Len()
	session.Columns = res.Merged.Columns
	session.Options = res.Options

	state := &SessionState{
		Session:      session,
		Merged:       res.Merged,
		LastAccessed: time.Now(),
	}
	for _, in := range inputs {
		if in.ID != "" {
			state.FileIDs = append(state.FileIDs, in.ID)
		}
	}

	if m.opts.EnableDuckDB {
		state.DuckStore = m.openDuckStore(sessionID, res.Merged)
	}
	if state.DuckStore != nil {
		opts, err := state.DuckStore.Options(context.Background(), m.pipeline.schema().RangeStep)
		if err != nil {
			fmt.Printf("[Session %s] WARNING: DuckDB options failed, using memory: %v\n", shortID(sessionID), err)
		} else {
			session.Options = opts
		}
	}

	session.ProcessingTimeMs = time.Since(start).Milliseconds()
	fmt.Printf("[Session %s] Merged %d of %d file(s): %d rows x %d columns in %dms\n",
		shortID(sessionID), res.LoadedCount, len(inputs), session.RowCount, len(session.Columns), session.ProcessingTimeMs)

	m.mu.Lock()
	m.sessions[sessionID] = state
	m.mu.Unlock()

	return session, nil
}

// openDuckStore copies the merged table into DuckDB. On failure the dataset is
// served from memory.
func (m *Manager) openDuckStore(sessionID string, t *models.Table) *parser.DuckStore {
	store, err := parser.NewDuckStore(m.opts.TempDir, sessionID, m.opts.Duck)
	if err != nil {
		fmt.Printf("[Session %s] WARNING: DuckDB unavailable, serving from memory: %v\n", shortID(sessionID), err)
		return nil
	}
	if err := store.Load(t); err != nil {
		store.Close()
		fmt.Printf("[Session %s] WARNING: DuckDB load failed, serving from memory: %v\n", shortID(sessionID), err)
		return nil
	}
	return store
}

// evictLocked closes a dataset's resources and removes it. Caller holds m.mu.
func (m *Manager) evictLocked(id string) {
	state, ok := m.sessions[id]
	if !ok {
		return
	}
	if state.DuckStore != nil {
		state.DuckStore.Close()
	}
	delete(m.sessions, id)
	if m.onEvict != nil {
		m.onEvict(state)
	}
}

// cleanupOldSessionsIfNeeded removes the least recently used datasets if at capacity
func (m *Manager) cleanupOldSessionsIfNeeded() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for len(m.sessions) >= m.opts.MaxSessions {
		var oldestID string
		var oldest time.Time
		for id, state := range m.sessions {
			if oldestID == "" || state.LastAccessed.Before(oldest) {
				oldestID = id
				oldest = state.LastAccessed
			}
		}
		m.evictLocked(oldestID)
		fmt.Printf("[Manager] Cleaned up old session %s to free memory\n", shortID(oldestID))
	}
}

// CleanupOldSessions removes datasets not accessed within maxAge,
// but keeps datasets that have been accessed within SessionKeepAliveWindow.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-maxAge)
	keepAliveCutoff := now.Add(-SessionKeepAliveWindow)

	for id, state := range m.sessions {
		if state.LastAccessed.After(keepAliveCutoff) {
			continue
		}
		if state.LastAccessed.Before(cutoff) {
			m.evictLocked(id)
			fmt.Printf("[Manager] Cleaned up aged session %s (last accessed: %s ago)\n",
				shortID(id), now.Sub(state.LastAccessed).Round(time.Second))
		}
	}
}

// DeleteSession removes a dataset and its resources.
func (m *Manager) DeleteSession(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return false
	}
	m.evictLocked(id)
	fmt.Printf("[Manager] Deleted session %s\n", shortID(id))
	return true
}

// Close removes every dataset.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id := range m.sessions {
		m.evictLocked(id)
	}
}

// Stats summarizes what the manager currently holds.
type Stats struct {
	Datasets     int  `json:"datasets"`
	Rows         int  `json:"rows"`
	DuckDBStores int  `json:"duckdbStores"`
	MaxDatasets  int  `json:"maxDatasets"`
	DuckDB       bool `json:"duckdb"`
}

// Stats returns the number of live datasets and the rows they hold.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := Stats{
		Datasets:    len(m.sessions),
		MaxDatasets: m.opts.MaxSessions,
		DuckDB:      m.opts.EnableDuckDB,
	}
	for _, state := range m.sessions {
		st.Rows += state.Merged.Len()
		if state.DuckStore != nil {
			st.DuckDBStores++
		}
	}
	return st
}

// GetSession returns a dataset summary by ID.
func (m *Manager) GetSession(id string) (*models.DatasetSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return state.Session, true
}

// TouchSession updates the LastAccessed timestamp for a dataset.
// This should be called whenever a dataset is actively being used
// to prevent it from being cleaned up.
func (m *Manager) TouchSession(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return false
	}
	state.LastAccessed = time.Now()
	return true
}

// GetTable returns the merged table of a dataset.
func (m *Manager) GetTable(id string) (*models.Table, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return state.Merged, true
}

// Preview returns the first merged rows of a dataset.
func (m *Manager) Preview(id string) ([]models.Row, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return state.Merged.Head(m.opts.PreviewRows).Rows, true
}

// GetRows returns a 1-based page of merged rows and the total row count.
func (m *Manager) GetRows(ctx context.Context, id string, page, pageSize int) ([]models.Row, int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, 0, false
	}

	// Use DuckStore if available (memory-efficient)
	if state.DuckStore != nil {
		rows, err := state.DuckStore.GetRows(ctx, page, pageSize)
		if err == nil {
			return rows, state.DuckStore.Len(), true
		}
		if err == context.DeadlineExceeded || err == context.Canceled {
			fmt.Printf("[Manager] GetRows timeout/cancelled for session %s\n", shortID(id))
			return nil, 0, false
		}
		fmt.Printf("[Manager] GetRows error, falling back to memory: %v\n", err)
	}

	return state.Merged.Page(page, pageSize), state.Merged.Len(), true
}

// Query filters a dataset and rebuilds its charts.
func (m *Manager) Query(id string, c models.Criteria) (*View, bool) {
	m.mu.RLock()
	state, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}

	view := Query(state.Merged, c, m.pipeline.schema())
	return &view, true
}

// QueryRows returns a 1-based page of the rows matching c and the number of matching
// rows. DuckDB answers when the dataset has a store; otherwise the merged table is
// filtered in memory.
func (m *Manager) QueryRows(ctx context.Context, id string, c models.Criteria, page, pageSize int) ([]models.Row, int, bool) {
	m.mu.RLock()
	state, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, 0, false
	}

	if state.DuckStore != nil {
		rows, total, err := state.DuckStore.QueryRows(ctx, c, page, pageSize)
		if err == nil {
			return rows, total, true
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			fmt.Printf("[Manager] QueryRows timeout/cancelled for session %s\n", shortID(id))
			return nil, 0, false
		}
		fmt.Printf("[Manager] QueryRows error, falling back to memory: %v\n", err)
	}

	filtered := parser.ApplyFilter(state.Merged, c)
	return filtered.Page(page, pageSize), filtered.Len(), true
}

// DefaultCriteria returns the criteria selecting the whole dataset.
func (m *Manager) DefaultCriteria(id string) (models.Criteria, bool) {
	t, ok := m.GetTable(id)
	if !ok {
		return models.Criteria{}, false
	}
	return parser.DefaultCriteria(t), true
}
