package transformer

import (
	"fmt"
	"io"

	"dbsnap/internal/core"
	"dbsnap/internal/jsonattr"
	"dbsnap/internal/kv"
)

// AttrOption binds one sub-attribute inside a compound transformer's
// payload to the child transformer that rewrites it (spec.md §4.3's
// "{attribute, child_transformer_config}").
type AttrOption struct {
	Attribute string
	Config    Config
}

// HstoreAttrOptions lists the sub-attributes a HstoreAttrTransformer
// rewrites.
type HstoreAttrOptions struct {
	Transformers []AttrOption
}

// HstoreAttrTransformer parses its cell as a hstore-like KV payload
// (package kv), recurses into chosen sub-keys with child transformers, and
// re-emits the payload (spec.md §4.3).
type HstoreAttrTransformer struct {
	base
	options HstoreAttrOptions
	warn    io.Writer
}

func NewHstoreAttr(database, table, column string, options HstoreAttrOptions) *HstoreAttrTransformer {
	return &HstoreAttrTransformer{base: newBase(database, table, column), options: options}
}

// SetWarnWriter directs transformer-content-mismatch warnings (spec.md §7)
// to w instead of discarding them.
func (t *HstoreAttrTransformer) SetWarnWriter(w io.Writer) { t.warn = w }

func (t *HstoreAttrTransformer) ID() string { return IDHstoreAttr }
func (t *HstoreAttrTransformer) Description() string {
	return "Change hstore key values using per-attribute transformers."
}

func (t *HstoreAttrTransformer) Transform(v core.Value) core.Value {
	if v.Kind != core.KindString {
		return v
	}

	m, ok := kv.Parse(v.Str)
	if !ok {
		// spec.md §4.2: missing pair separator is a silent no-op.
		return v
	}

	changed := false
	for _, opt := range t.options.Transformers {
		value, present := m.Get(opt.Attribute)
		if !present {
			continue
		}
		child := opt.Config.Build(t.database, t.table, opt.Attribute)
		result := child.Transform(core.StringValue(opt.Attribute, value))
		newValue, isString := result.StringVal()
		if !isString {
			// spec.md §4.3/§7: a compound child that changes a value's
			// tag is logged and skipped; the key keeps its prior value.
			logSkippedChild(t.warn, t.database, t.table, t.column, opt.Attribute)
			continue
		}
		m.Set(opt.Attribute, newValue)
		changed = true
	}

	if !changed {
		return v
	}
	return core.StringValue(v.Name, kv.Format(m))
}

// JSONAttrOptions lists the sub-attributes a JSONAttrTransformer rewrites.
type JSONAttrOptions struct {
	Transformers []AttrOption
}

// JSONAttrTransformer parses its cell as a brace-wrapped object payload
// (package jsonattr), recurses into chosen sub-keys with child
// transformers, and re-emits the payload (spec.md §4.3).
type JSONAttrTransformer struct {
	base
	options JSONAttrOptions
	warn    io.Writer
}

func NewJSONAttr(database, table, column string, options JSONAttrOptions) *JSONAttrTransformer {
	return &JSONAttrTransformer{base: newBase(database, table, column), options: options}
}

// SetWarnWriter directs transformer-content-mismatch warnings (spec.md §7)
// to w instead of discarding them.
func (t *JSONAttrTransformer) SetWarnWriter(w io.Writer) { t.warn = w }

func (t *JSONAttrTransformer) ID() string { return IDJSONAttr }
func (t *JSONAttrTransformer) Description() string {
	return "Change JSON-like key values using per-attribute transformers."
}

func (t *JSONAttrTransformer) Transform(v core.Value) core.Value {
	if v.Kind != core.KindString {
		return v
	}

	m, ok := jsonattr.Parse(v.Str)
	if !ok {
		return v
	}

	changed := false
	for _, opt := range t.options.Transformers {
		value, present := m.Get(opt.Attribute)
		if !present {
			continue
		}
		child := opt.Config.Build(t.database, t.table, opt.Attribute)
		result := child.Transform(core.StringValue(opt.Attribute, value))
		newValue, isString := result.StringVal()
		if !isString {
			logSkippedChild(t.warn, t.database, t.table, t.column, opt.Attribute)
			continue
		}
		m.Set(opt.Attribute, newValue)
		changed = true
	}

	if !changed {
		return v
	}
	return core.StringValue(v.Name, jsonattr.Format(m))
}

func logSkippedChild(w io.Writer, database, table, column, attribute string) {
	if w == nil {
		return
	}
	fmt.Fprintf(w, "skipping %s.%s.%s attribute %q: child transformer returned a non-string value\n", database, table, column, attribute)
}
