package core

// SourceOptions is the planner's output: an immutable bundle consumed by
// the dump driver (spec.md §3, §4.4). It is built once, before any database
// I/O, and never mutated afterward.
type SourceOptions struct {
	Transformers []TransformerBinding
	Skip         []TableID
	Subsets      []TableSubset
	OnlyTables   []TableID
}

// TransformersFor returns the subset of bindings that apply to table,
// indexed by column name. The driver uses this to decide, per table,
// whether any per-row transformation work is needed at all — spec.md §4.3's
// "bypass allocation of a per-row map" fast path when the result is empty.
//
// Binding order is preserved: if the planner produced more than one binding
// for the same column (spec.md §4.4, ambiguous configuration), the later
// one in Transformers wins, since it overwrites the earlier map entry.
func (o SourceOptions) TransformersFor(table TableID) map[string]Transformer {
	var byColumn map[string]Transformer
	for _, b := range o.Transformers {
		if b.Table != table {
			continue
		}
		if byColumn == nil {
			byColumn = make(map[string]Transformer)
		}
		byColumn[b.Column] = b.Transformer
	}
	return byColumn
}

// IsSkipped reports whether table appears in the skip list.
func (o SourceOptions) IsSkipped(table TableID) bool {
	for _, t := range o.Skip {
		if t == table {
			return true
		}
	}
	return false
}

// OnlyTablesActive reports whether the "only-tables" filter is in effect
// for table selection.
//
// Spec.md §9 flags the ">1 entries" threshold below as almost certainly
// unintended, but spec.md §8's testable property pins exactly this
// behavior ("when only_tables has ≥ 2 entries..."), so this implementation
// keeps the threshold rather than "correcting" it out from under a pinned
// test — see DESIGN.md's open-question log.
func (o SourceOptions) OnlyTablesActive() bool {
	return len(o.OnlyTables) > 1
}

// OnlyTablesContains reports whether table is named in the only-tables list.
func (o SourceOptions) OnlyTablesContains(table TableID) bool {
	for _, t := range o.OnlyTables {
		if t == table {
			return true
		}
	}
	return false
}

// SubsetFor returns the subset descriptor bound to table, if any.
func (o SourceOptions) SubsetFor(table TableID) (TableSubset, bool) {
	for _, s := range o.Subsets {
		if s.Table == table {
			return s, true
		}
	}
	return TableSubset{}, false
}
