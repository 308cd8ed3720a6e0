// Package dump implements the capture-and-transform pipeline (spec.md §4.6):
// it spawns the native schema-dump and bulk-export utilities, streams their
// stdout through the column codec and transformer registry, and pushes the
// result into a datastore.Writer one block at a time. Modeled on the
// process-spawning shape of the teacher's internal/apply package, which
// drives an external `mysql` client the same way this package drives
// `pg_dump`/`psql`.
package dump

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"dbsnap/internal/core"
	"dbsnap/internal/csvcodec"
	"dbsnap/internal/datastore"
	"dbsnap/internal/introspect"
)

const (
	defaultSchemaDumperBin = "pg_dump"
	defaultClientBin       = "psql"
	batchSize              = 1000
)

// CheckBinaries verifies both external utilities are on PATH before any I/O
// starts (spec.md §6, §9 — the original runs this check against the same
// binary twice; this reimplementation checks the dumper and the client
// independently, per the spec's own open-question recommendation).
func CheckBinaries(schemaDumperBin, clientBin string) error {
	if _, err := exec.LookPath(schemaDumperBin); err != nil {
		return fmt.Errorf("required binary %q not found on PATH", schemaDumperBin)
	}
	if _, err := exec.LookPath(clientBin); err != nil {
		return fmt.Errorf("required binary %q not found on PATH", clientBin)
	}
	return nil
}

// Config bundles everything a Driver needs to run one dump.
type Config struct {
	URI          core.ConnectionURI
	Options      core.SourceOptions
	Store        datastore.Writer
	Introspecter introspect.Introspecter

	// Out receives human-readable progress lines; defaults to io.Discard.
	Out io.Writer

	// SchemaDumperBin and ClientBin override the external utility names;
	// default to "pg_dump" and "psql".
	SchemaDumperBin string
	ClientBin       string
}

// Driver runs a single dump job against one source database.
type Driver struct {
	uri             core.ConnectionURI
	options         core.SourceOptions
	store           datastore.Writer
	introspecter    introspect.Introspecter
	out             io.Writer
	schemaDumperBin string
	clientBin       string
	splitter        *querySplitter
}

// New returns a Driver configured from cfg.
func New(cfg Config) *Driver {
	d := &Driver{
		uri:             cfg.URI,
		options:         cfg.Options,
		store:           cfg.Store,
		introspecter:    cfg.Introspecter,
		out:             cfg.Out,
		schemaDumperBin: cfg.SchemaDumperBin,
		clientBin:       cfg.ClientBin,
		splitter:        newQuerySplitter(),
	}
	if d.out == nil {
		d.out = io.Discard
	}
	if d.schemaDumperBin == "" {
		d.schemaDumperBin = defaultSchemaDumperBin
	}
	if d.clientBin == "" {
		d.clientBin = defaultClientBin
	}
	return d
}

// Run executes the full dump: schema phase, then one data phase per
// selected table, sequentially (spec.md §4.6's "Concurrency" rule). On any
// error the in-progress dump is aborted rather than finalized, so it never
// appears in the datastore index (spec.md §5).
func (d *Driver) Run(ctx context.Context, db *sql.DB) (core.DumpIndexEntry, error) {
	discovered, err := d.introspecter.Tables(ctx, db)
	if err != nil {
		_ = d.store.Abort()
		return core.DumpIndexEntry{}, fmt.Errorf("discovering source tables: %w", err)
	}

	plan := d.selectTables(discovered)

	if err := d.runSchemaPhase(ctx); err != nil {
		_ = d.store.Abort()
		return core.DumpIndexEntry{}, err
	}

	for _, table := range plan {
		columns, err := d.introspecter.Columns(ctx, db, table)
		if err != nil {
			_ = d.store.Abort()
			return core.DumpIndexEntry{}, fmt.Errorf("reading columns for %s: %w", table, err)
		}
		if err := d.runDataPhase(ctx, table, columns); err != nil {
			_ = d.store.Abort()
			return core.DumpIndexEntry{}, err
		}
	}

	entry, err := d.store.Finalize()
	if err != nil {
		return core.DumpIndexEntry{}, fmt.Errorf("finalizing dump: %w", err)
	}
	fmt.Fprintf(d.out, "dump %s complete: %d bytes\n", entry.Directory, entry.SizeBytes)
	return entry, nil
}

// selectTables applies spec.md §4.6's table-selection rule: only_tables
// wins outright when it has more than one entry (core.OnlyTablesActive),
// otherwise every discovered table not in skip is selected. Tables named by
// an explicit subset descriptor are always appended even if introspection
// never returned them.
func (d *Driver) selectTables(discovered []core.TableID) []core.TableID {
	var plan []core.TableID
	if d.options.OnlyTablesActive() {
		for _, t := range discovered {
			if d.options.OnlyTablesContains(t) {
				plan = append(plan, t)
			}
		}
	} else {
		for _, t := range discovered {
			if !d.options.IsSkipped(t) {
				plan = append(plan, t)
			}
		}
	}

	for _, subset := range d.options.Subsets {
		if !containsTable(plan, subset.Table) {
			plan = append(plan, subset.Table)
		}
	}
	return plan
}

func containsTable(tables []core.TableID, target core.TableID) bool {
	for _, t := range tables {
		if t == target {
			return true
		}
	}
	return false
}

// connectionArg is the literal string passed to the external utilities'
// -d/URI argument. For Postgres it is Raw, the URI as re-encoded by net/url
// (userinfo percent-escaped); other families have no Raw form, so the URI
// is reassembled from its parsed parts.
func (d *Driver) connectionArg() string {
	if d.uri.Raw != "" {
		return d.uri.Raw
	}
	return fmt.Sprintf("%s://%s:%s@%s:%d/%s", d.uri.Family, d.uri.Username, d.uri.Password, d.uri.Host, d.uri.Port, d.uri.Database)
}

// runSchemaPhase spawns the schema-dump utility and forwards each complete
// statement it emits to the datastore with identical original/transformed
// payloads (spec.md §4.6 — schema text is never rewritten).
func (d *Driver) runSchemaPhase(ctx context.Context) error {
	args := []string{"--no-owner", "-d", d.connectionArg(), "--schema-only"}
	for _, t := range d.options.OnlyTables {
		args = append(args, fmt.Sprintf("--table=%s", t))
	}

	cmd := exec.CommandContext(ctx, d.schemaDumperBin, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("spawning %s: %w", d.schemaDumperBin, err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawning %s: %w", d.schemaDumperBin, err)
	}

	output, err := io.ReadAll(stdout)
	if err != nil {
		_ = cmd.Wait()
		return fmt.Errorf("reading %s output: %w", d.schemaDumperBin, err)
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%s failed: %w (%s)", d.schemaDumperBin, err, stderr.String())
	}

	for _, stmt := range d.splitter.split(string(output)) {
		block := normalizeStatement(stmt)
		if err := d.store.WriteBatch(block, block); err != nil {
			return fmt.Errorf("writing schema statement: %w", err)
		}
	}
	return nil
}

func normalizeStatement(stmt string) []byte {
	stmt = strings.TrimSpace(stmt)
	if !strings.HasSuffix(stmt, ";") {
		stmt += ";"
	}
	return []byte(stmt + "\n")
}

// runDataPhase spawns the bulk-export client for one table and streams its
// stdout in batches of up to 1,000 rows, transforming each batch when any
// transformer binds to this table (spec.md §4.6 step 5).
func (d *Driver) runDataPhase(ctx context.Context, table core.TableID, columns core.Columns) error {
	sorted := columns.SortByOrdinal()
	query := d.buildQuery(table)
	copyCommand := fmt.Sprintf(`\copy (%s) to stdout with (delimiter E'\t', FORMAT csv, QUOTE E'T');`, query)

	cmd := exec.CommandContext(ctx, d.clientBin, "-Atx", d.connectionArg(), "-c", copyCommand)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("spawning %s: %w", d.clientBin, err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawning %s: %w", d.clientBin, err)
	}

	transformers := d.options.TransformersFor(table)
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	var batch []string
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		return d.writeBatch(table, sorted, transformers, batch)
	}

	for scanner.Scan() {
		batch = append(batch, scanner.Text())
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				_ = cmd.Wait()
				return err
			}
			batch = batch[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		_ = cmd.Wait()
		return fmt.Errorf("reading %s output for %s: %w", d.clientBin, table, err)
	}
	if err := flush(); err != nil {
		_ = cmd.Wait()
		return err
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%s failed for %s: %w (%s)", d.clientBin, table, err, stderr.String())
	}
	return nil
}

func (d *Driver) buildQuery(table core.TableID) string {
	base := fmt.Sprintf("select * from %s.%s", table.Database, table.Table)
	subset, ok := d.options.SubsetFor(table)
	if !ok {
		return base
	}
	switch subset.Strategy.Kind {
	case core.SubsetForeignKey:
		return fmt.Sprintf("%s where %s", base, subset.Strategy.Condition)
	case core.SubsetRandom:
		return fmt.Sprintf("select * from %s.%s TABLESAMPLE SYSTEM(%d) ORDER BY random()", table.Database, table.Table, subset.Strategy.Percent)
	default:
		return base
	}
}

func (d *Driver) writeBatch(table core.TableID, columns core.Columns, transformers map[string]core.Transformer, rows []string) error {
	originalBlock := buildCopyBlock(table, columns, rows)

	if len(transformers) == 0 {
		return d.store.WriteBatch(originalBlock, originalBlock)
	}

	transformedRows := make([]string, len(rows))
	for i, row := range rows {
		values, err := parseAndTransform(columns, row, transformers)
		if err != nil {
			return fmt.Errorf("table %s: %w", table, err)
		}
		transformedRows[i] = values
	}
	transformedBlock := buildCopyBlock(table, columns, transformedRows)
	return d.store.WriteBatch(originalBlock, transformedBlock)
}

func parseAndTransform(columns core.Columns, row string, transformers map[string]core.Transformer) (string, error) {
	values, err := csvcodec.Parse(columns, row)
	if err != nil {
		return "", err
	}
	for col, t := range transformers {
		if v, ok := values[col]; ok {
			values[col] = t.Transform(v)
		}
	}
	return csvcodec.Emit(columns, values)
}

func buildCopyBlock(table core.TableID, columns core.Columns, rows []string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "\\COPY %s.%s (%s) FROM stdin (delimiter E'\\t', FORMAT csv, QUOTE E'T');\n",
		table.Database, table.Table, strings.Join(columns.Names(), ","))
	for _, row := range rows {
		b.WriteString(row)
		b.WriteByte('\n')
	}
	b.WriteString("\\.\n")
	return b.Bytes()
}
