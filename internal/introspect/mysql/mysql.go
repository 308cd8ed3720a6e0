// Package mysql implements introspect.Introspecter for the MySQL family,
// grounded directly on the teacher's internal/introspect/mysql package:
// the same information_schema queries, scoped to DATABASE() instead of a
// user-supplied schema name.
package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"dbsnap/internal/core"
	"dbsnap/internal/introspect"
)

func init() {
	introspect.Register(core.FamilyMySQL, New)
}

type introspecter struct{}

// New returns a MySQL introspect.Introspecter.
func New() introspect.Introspecter { return &introspecter{} }

func (i *introspecter) Tables(ctx context.Context, db *sql.DB) ([]core.TableID, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT table_schema, table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`)
	if err != nil {
		return nil, fmt.Errorf("introspecting mysql tables: %w", err)
	}
	defer rows.Close()

	var tables []core.TableID
	for rows.Next() {
		var schema, name string
		if err := rows.Scan(&schema, &name); err != nil {
			return nil, fmt.Errorf("introspecting mysql tables: %w", err)
		}
		tables = append(tables, core.TableID{Database: schema, Table: name})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("introspecting mysql tables: %w", err)
	}
	return tables, nil
}

func (i *introspecter) Columns(ctx context.Context, db *sql.DB, table core.TableID) (core.Columns, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT column_name, data_type, ordinal_position
		FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY ordinal_position
	`, table.Table)
	if err != nil {
		return nil, fmt.Errorf("introspecting columns for %s: %w", table, err)
	}
	defer rows.Close()

	var cols core.Columns
	for rows.Next() {
		var c core.ColumnMeta
		if err := rows.Scan(&c.Name, &c.SQLType, &c.Ordinal); err != nil {
			return nil, fmt.Errorf("introspecting columns for %s: %w", table, err)
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("introspecting columns for %s: %w", table, err)
	}
	return cols, nil
}
