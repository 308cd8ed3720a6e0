// Package introspect reads the table list and ordered column metadata from
// a live source database (spec.md §4.5). Concrete dialects register
// themselves into this package's registry the same way the teacher's
// internal/introspect registers per-dialect Introspecters keyed by
// core.Dialect, swapped here for core.Family since this system only ever
// introspects a source, never a destination schema to diff against.
package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"dbsnap/internal/core"
)

// Introspecter reads the tables and columns of a live source.
type Introspecter interface {
	// Tables returns every base table of the source: schema "public" for
	// Postgres, the connection's current DATABASE() for MySQL (spec.md
	// §4.5: other schemas are not auto-discovered).
	Tables(ctx context.Context, db *sql.DB) ([]core.TableID, error)
	// Columns returns the ordinal-sorted column metadata for one table.
	Columns(ctx context.Context, db *sql.DB, table core.TableID) (core.Columns, error)
}

var (
	mu       sync.RWMutex
	registry = make(map[core.Family]func() Introspecter)
)

// Register adds an Introspecter constructor for family. Concrete dialect
// packages call this from an init() func, mirroring the teacher's
// internal/introspect/mysql registration pattern.
func Register(family core.Family, fn func() Introspecter) {
	mu.Lock()
	defer mu.Unlock()
	registry[family] = fn
}

// New returns the registered Introspecter for family.
func New(family core.Family) (Introspecter, error) {
	mu.RLock()
	fn, ok := registry[family]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported database family %q", family)
	}
	return fn(), nil
}
