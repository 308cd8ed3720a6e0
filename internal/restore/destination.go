package restore

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	"github.com/lib/pq"

	"dbsnap/internal/core"
	"dbsnap/internal/csvcodec"
)

// StdoutDestination is the generic sink from spec.md §4.7(a): it just
// writes every block verbatim, the way a human inspecting a dump would
// want to see it.
type StdoutDestination struct {
	out io.Writer
}

// NewStdoutDestination wraps out as a Destination.
func NewStdoutDestination(out io.Writer) *StdoutDestination {
	return &StdoutDestination{out: out}
}

// WriteQuery writes block followed by a newline.
func (d *StdoutDestination) WriteQuery(_ context.Context, block string) error {
	_, err := fmt.Fprintln(d.out, block)
	return err
}

// SQLDestination is the live-client destination from spec.md §4.7(b). Plain
// statements are executed as-is; a \COPY block is recognized by its header
// and replayed through whichever bulk-load mechanism the target family
// supports, since neither driver understands psql's backslash
// meta-commands directly.
type SQLDestination struct {
	db     *sql.DB
	family core.Family
}

// NewSQLDestination wraps an already-connected *sql.DB as a Destination.
func NewSQLDestination(db *sql.DB, family core.Family) *SQLDestination {
	return &SQLDestination{db: db, family: family}
}

// WriteQuery applies one block, dispatching \COPY blocks to copyBlock.
func (d *SQLDestination) WriteQuery(ctx context.Context, block string) error {
	trimmed := strings.TrimSpace(block)
	if strings.HasPrefix(trimmed, `\COPY`) {
		return d.copyBlock(ctx, block)
	}
	if _, err := d.db.ExecContext(ctx, block); err != nil {
		return fmt.Errorf("executing statement: %w", err)
	}
	return nil
}

func (d *SQLDestination) copyBlock(ctx context.Context, block string) error {
	table, columns, rows, err := parseCopyBlock(block)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	switch d.family {
	case core.FamilyPostgres:
		return d.copyBlockPostgres(ctx, table, columns, rows)
	case core.FamilyMySQL:
		return d.copyBlockMySQL(ctx, table, columns, rows)
	default:
		return fmt.Errorf("unsupported database family %q for bulk load", d.family)
	}
}

// copyBlockPostgres replays rows using lib/pq's native COPY protocol
// (pq.CopyIn), the idiomatic bulk-load path for this driver — a single
// prepared "COPY ... FROM STDIN" statement fed one row at a time.
func (d *SQLDestination) copyBlockPostgres(ctx context.Context, table core.TableID, columns, rows []string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning copy transaction for %s: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(table.Table, columns...))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("preparing copy for %s: %w", table, err)
	}

	for _, row := range rows {
		fields := csvcodec.SplitFields(row)
		args := make([]any, len(fields))
		for i, f := range fields {
			if f == "" {
				args[i] = nil
				continue
			}
			args[i] = f
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return fmt.Errorf("copying row into %s: %w", table, err)
		}
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		_ = tx.Rollback()
		return fmt.Errorf("finishing copy into %s: %w", table, err)
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("closing copy statement for %s: %w", table, err)
	}
	return tx.Commit()
}

// copyBlockMySQL has no COPY-protocol equivalent, so rows are replayed as a
// single batched multi-row INSERT, the conventional go-sql-driver/mysql
// bulk-load idiom.
func (d *SQLDestination) copyBlockMySQL(ctx context.Context, table core.TableID, columns, rows []string) error {
	placeholderRow := "(" + strings.TrimRight(strings.Repeat("?,", len(columns)), ",") + ")"
	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", table.Table, strings.Join(columns, ","))

	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(placeholderRow)
		for _, f := range csvcodec.SplitFields(row) {
			if f == "" {
				args = append(args, nil)
				continue
			}
			args = append(args, f)
		}
	}

	if _, err := d.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("bulk inserting into %s: %w", table, err)
	}
	return nil
}

// parseCopyBlock extracts the target table, ordinal-ordered column list,
// and row payloads from a \COPY ... FROM stdin block's text.
func parseCopyBlock(block string) (core.TableID, []string, []string, error) {
	lines := strings.Split(block, "\n")
	if len(lines) < 2 {
		return core.TableID{}, nil, nil, fmt.Errorf("malformed copy block: too few lines")
	}

	header := strings.TrimSpace(lines[0])
	open := strings.Index(header, "(")
	closeIdx := strings.Index(header, ")")
	if open < 0 || closeIdx < 0 || closeIdx < open {
		return core.TableID{}, nil, nil, fmt.Errorf("malformed copy block header: %q", header)
	}

	tablePart := strings.TrimSpace(strings.TrimPrefix(header[:open], `\COPY`))
	dotIdx := strings.LastIndex(tablePart, ".")
	var table core.TableID
	if dotIdx >= 0 {
		table = core.TableID{Database: tablePart[:dotIdx], Table: tablePart[dotIdx+1:]}
	} else {
		table = core.TableID{Table: tablePart}
	}

	var columns []string
	for _, c := range strings.Split(header[open+1:closeIdx], ",") {
		if c = strings.TrimSpace(c); c != "" {
			columns = append(columns, c)
		}
	}

	var rows []string
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == `\.` {
			break
		}
		rows = append(rows, line)
	}

	return table, columns, rows, nil
}
