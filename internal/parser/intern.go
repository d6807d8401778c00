package parser

import (
	"sync"

	"github.com/research-explorer/backend/internal/models"
)

// StringIntern hands out one shared copy of each distinct cell text.
// Report columns such as focus area, grant program and the year columns repeat
// the same handful of values on every row.
type StringIntern struct {
	mu   sync.RWMutex
	pool map[string]string
}

// NewStringIntern creates a new string interner.
func NewStringIntern() *StringIntern {
	return &StringIntern{
		pool: make(map[string]string, 256),
	}
}

// MaxInternPoolSize caps the pool; past it strings are returned as-is.
const MaxInternPoolSize = 100000

// Intern returns the pooled copy of s, storing s if it is new.
func (si *StringIntern) Intern(s string) string {
	si.mu.RLock()
	if pooled, ok := si.pool[s]; ok {
		si.mu.RUnlock()
		return pooled
	}
	full := len(si.pool) >= MaxInternPoolSize
	si.mu.RUnlock()
	if full {
		return s
	}

	si.mu.Lock()
	defer si.mu.Unlock()
	if pooled, ok := si.pool[s]; ok {
		return pooled
	}
	if len(si.pool) >= MaxInternPoolSize {
		return s
	}
	si.pool[s] = s
	return s
}

// Cell interns s and wraps it as a present cell.
func (si *StringIntern) Cell(s string) models.Cell {
	return models.TextCell(si.Intern(s))
}

// Len returns the number of unique strings in the pool.
func (si *StringIntern) Len() int {
	si.mu.RLock()
	defer si.mu.RUnlock()
	return len(si.pool)
}
