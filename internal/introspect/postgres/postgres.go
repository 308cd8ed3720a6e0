// Package postgres implements introspect.Introspecter for the Postgres
// family, querying information_schema the same way the teacher's
// internal/introspect/mysql queries information_schema for MySQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"dbsnap/internal/core"
	"dbsnap/internal/introspect"
)

func init() {
	introspect.Register(core.FamilyPostgres, New)
}

type introspecter struct{}

// New returns a Postgres introspect.Introspecter.
func New() introspect.Introspecter { return &introspecter{} }

func (i *introspecter) Tables(ctx context.Context, db *sql.DB) ([]core.TableID, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`)
	if err != nil {
		return nil, classifyError("introspecting postgres tables", err)
	}
	defer rows.Close()

	var tables []core.TableID
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("introspecting postgres tables: %w", err)
		}
		tables = append(tables, core.TableID{Database: "public", Table: name})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("introspecting postgres tables: %w", err)
	}
	return tables, nil
}

func (i *introspecter) Columns(ctx context.Context, db *sql.DB, table core.TableID) (core.Columns, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT column_name, data_type, ordinal_position
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position
	`, table.Table)
	if err != nil {
		return nil, classifyError(fmt.Sprintf("introspecting columns for %s", table), err)
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

// classifyError folds a *pq.Error's SQLSTATE class into the wrapped error
// message (spec.md §9's "introspection failures are fatal" decision still
// applies; this only makes the fatal message tell a connection failure
// (class 08) apart from a permission failure (class 42) instead of printing
// the server's raw one-line text for both).
func classifyError(context string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08":
			return fmt.Errorf("%s: connection error (%s): %w", context, pqErr.Code.Name(), err)
		case "28":
			return fmt.Errorf("%s: authentication failure (%s): %w", context, pqErr.Code.Name(), err)
		case "42":
			return fmt.Errorf("%s: insufficient privilege or undefined object (%s): %w", context, pqErr.Code.Name(), err)
		}
	}
	return fmt.Errorf("%s: %w", context, err)
}
