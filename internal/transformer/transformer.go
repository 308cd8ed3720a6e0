// Package transformer implements the value-rewriters from spec.md §4.3: a
// set of per-column pure functions selected by (database, table, column),
// including two compound transformers that recurse into embedded key/value
// payloads via package kv and package jsonattr.
//
// There is no fake-data-generation library anywhere in the retrieval pack
// (the teacher repo and the rest of the examples only ever reach for
// math/rand-style generation when they need synthetic values at all), so
// the synthetic values here are produced the same way: small embedded word
// lists plus math/rand, not a fabricated third-party dependency. See
// DESIGN.md.
package transformer

import "dbsnap/internal/core"

// Transformer IDs, matching the table in spec.md §4.3.
const (
	IDFirstName     = "first-name"
	IDEmail         = "email"
	IDPhoneNumber   = "phone-number"
	IDMobileNumber  = "mobile-number"
	IDCreditCard    = "credit-card"
	IDRandom        = "random"
	IDKeepFirstChar = "keep-first-char"
	IDRedacted      = "redacted"
	IDBlank         = "blank"
	IDTransient     = "transient"
	IDHstoreAttr    = "hstore-attr"
	IDJSONAttr      = "json-attr"
)

// base carries the (database, table, column) scoping every concrete
// transformer embeds, matching the teacher's pattern of small structs with
// shared accessor methods.
type base struct {
	database string
	table    string
	column   string
}

func newBase(database, table, column string) base {
	return base{database: database, table: table, column: column}
}

func (b base) DatabaseName() string { return b.database }
func (b base) TableName() string    { return b.table }
func (b base) ColumnName() string   { return b.column }

// Config is the tagged configuration for one column's transformer binding,
// the Go counterpart of the original's adjacently-tagged
// TransformerTypeConfig enum (config.rs). Exactly one of the pointer
// fields is meaningful, selected by Name; package config's YAML decoding
// is responsible for populating it from transformer_name/
// transformer_options.
type Config struct {
	Name string

	MobileNumber *MobileNumberOptions
	Redacted     *RedactedOptions
	HstoreAttr   *HstoreAttrOptions
	JSONAttr     *JSONAttrOptions
}

// Build constructs the concrete transformer this Config describes, scoped
// to (database, table, column). Unknown names fall back to transient
// (identity), the same "do nothing rather than guess" posture the original
// takes for a config enum variant it cannot resolve.
func (c Config) Build(database, table, column string) core.Transformer {
	switch c.Name {
	case IDFirstName:
		return NewFirstName(database, table, column)
	case IDEmail:
		return NewEmail(database, table, column)
	case IDPhoneNumber:
		return NewPhoneNumber(database, table, column)
	case IDMobileNumber:
		opts := MobileNumberOptionsDefault()
		if c.MobileNumber != nil {
			opts = *c.MobileNumber
		}
		return NewMobileNumber(database, table, column, opts)
	case IDCreditCard:
		return NewCreditCard(database, table, column)
	case IDRandom:
		return NewRandom(database, table, column)
	case IDKeepFirstChar:
		return NewKeepFirstChar(database, table, column)
	case IDRedacted:
		opts := RedactedOptionsDefault()
		if c.Redacted != nil {
			opts = *c.Redacted
		}
		return NewRedacted(database, table, column, opts)
	case IDBlank:
		return NewBlank(database, table, column)
	case IDHstoreAttr:
		opts := HstoreAttrOptions{}
		if c.HstoreAttr != nil {
			opts = *c.HstoreAttr
		}
		return NewHstoreAttr(database, table, column, opts)
	case IDJSONAttr:
		opts := JSONAttrOptions{}
		if c.JSONAttr != nil {
			opts = *c.JSONAttr
		}
		return NewJSONAttr(database, table, column, opts)
	case IDTransient, "":
		return NewTransient(database, table, column)
	default:
		return NewTransient(database, table, column)
	}
}
