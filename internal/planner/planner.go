// Package planner turns a decoded source configuration into the
// dump driver's immutable execution plan (spec.md §4.4): the effective set
// of active transformers, the skip list, subset descriptors, and the
// only-tables list, with configuration-consistency validation.
package planner

import (
	"fmt"

	"dbsnap/internal/config"
	"dbsnap/internal/core"
)

// New builds a core.SourceOptions from a decoded SourceConfig, per
// spec.md §4.4. It flattens the nested transformer configuration into one
// binding per (table, column) without deduplicating — ambiguous
// configuration is intentionally surfaced as two active bindings for the
// same column, and SourceOptions.TransformersFor resolves the conflict by
// last-one-wins (spec.md §4.4/§8 pin this).
//
// It fails with a single-line, identifier-bearing error when a table
// appears in both only_tables and skip, checking every (only_tables ×
// skip) pair exhaustively and reporting the first conflict found.
func New(cfg config.SourceConfig) (core.SourceOptions, error) {
	skip := toTableIDs(cfg.Skip)
	onlyTables := toTableIDs(cfg.OnlyTables)

	if err := checkTableConflicts(onlyTables, skip); err != nil {
		return core.SourceOptions{}, err
	}

	return core.SourceOptions{
		Transformers: flattenTransformers(cfg),
		Skip:         skip,
		Subsets:      toSubsets(cfg.DatabaseSubset),
		OnlyTables:   onlyTables,
	}, nil
}

func toTableIDs(in []config.DbTable) []core.TableID {
	out := make([]core.TableID, len(in))
	for i, t := range in {
		out[i] = core.TableID{Database: t.Database, Table: t.Table}
	}
	return out
}

func toSubsets(in []config.DatabaseSubset) []core.TableSubset {
	out := make([]core.TableSubset, len(in))
	for i, s := range in {
		out[i] = core.TableSubset{
			Table:              core.TableID{Database: s.Database, Table: s.Table},
			Strategy:           s.Strategy,
			PassthroughTables: s.PassthroughTables,
		}
	}
	return out
}

// flattenTransformers walks database -> table -> columns and appends one
// TransformerBinding per column in iteration order, matching
// source_options.rs's new_transformers exactly: no de-duplication.
func flattenTransformers(cfg config.SourceConfig) []core.TransformerBinding {
	var bindings []core.TransformerBinding
	for _, table := range cfg.Transformers {
		id := core.TableID{Database: table.Database, Table: table.Table}
		for _, col := range table.Columns {
			bindings = append(bindings, core.TransformerBinding{
				Table:       id,
				Column:      col.Name,
				Transformer: col.Transformer.Build(table.Database, table.Table, col.Name),
			})
		}
	}
	return bindings
}

// checkTableConflicts is the exhaustive (only_tables x skip) check from
// spec.md §4.4: every pair is checked, and the first conflict found is
// fatal.
func checkTableConflicts(onlyTables, skip []core.TableID) error {
	for _, only := range onlyTables {
		for _, s := range skip {
			if only == s {
				return fmt.Errorf("table %s cannot appear in both only_tables and skip at the same time", only)
			}
		}
	}
	return nil
}
