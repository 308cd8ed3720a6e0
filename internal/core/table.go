package core

import "sort"

// ColumnMeta is (name, SQL type name, ordinal) for one column, the shape
// introspection returns and the CSV codec consumes. Ordinals are unique
// within a table and start at 1.
type ColumnMeta struct {
	Name    string
	SQLType string
	Ordinal int
}

// Columns is an ordered-by-ordinal container of column metadata for one
// table, mirroring the SortedVec<DbColumnConfig> use in the original Rust
// implementation this package was distilled from.
type Columns []ColumnMeta

// SortByOrdinal returns a copy of c sorted by Ordinal ascending. Callers
// that build Columns from an unordered source (e.g. a YAML fixture in a
// test) should call this before using the slice positionally.
func (c Columns) SortByOrdinal() Columns {
	out := make(Columns, len(c))
	copy(out, c)
	sort.Slice(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out
}

// Names returns the column names in ordinal order, comma-joinable for a
// bulk-load column list.
func (c Columns) Names() []string {
	names := make([]string, len(c))
	for i, col := range c {
		names[i] = col.Name
	}
	return names
}

// TableID identifies a table by its owning database/schema name and its own
// name. It is the key used throughout the planner for skip lists, include
// lists, subset strategies, and transformer selection.
type TableID struct {
	Database string
	Table    string
}

func (t TableID) String() string {
	return t.Database + "." + t.Table
}

// SubsetStrategyKind enumerates the sum type over how a table's rows are
// filtered at export time.
type SubsetStrategyKind int

const (
	SubsetNone SubsetStrategyKind = iota
	SubsetRandom
	SubsetForeignKey
)

// SubsetStrategy is the sum type from spec.md §3: None (full table),
// Random(percent), or ForeignKey(condition). Percent and Condition are only
// meaningful for their matching Kind.
type SubsetStrategy struct {
	Kind      SubsetStrategyKind
	Percent   int    // 0..100, meaningful when Kind == SubsetRandom
	Condition string // opaque predicate, meaningful when Kind == SubsetForeignKey
}

// TableSubset binds a TableID to its subset strategy and the tables that
// should be copied in full regardless of the strategy (passthrough_tables in
// the YAML schema; see spec.md §9 — the driver never actually reads this
// field, carried here only so the config round-trips it faithfully).
type TableSubset struct {
	Table              TableID
	Strategy           SubsetStrategy
	PassthroughTables []string
}
