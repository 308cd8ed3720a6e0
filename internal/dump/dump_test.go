package dump

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"dbsnap/internal/core"
)

func tableID(db, table string) core.TableID {
	return core.TableID{Database: db, Table: table}
}

func TestSelectTablesOnlyTablesActive(t *testing.T) {
	d := &Driver{options: core.SourceOptions{
		OnlyTables: []core.TableID{tableID("app", "users"), tableID("app", "orders")},
	}}
	discovered := []core.TableID{tableID("app", "users"), tableID("app", "orders"), tableID("app", "logs")}

	plan := d.selectTables(discovered)
	assert.ElementsMatch(t, []core.TableID{tableID("app", "users"), tableID("app", "orders")}, plan)
}

// TestSelectTablesOnlyTablesSingleEntryInactive checks spec.md §8's pinned
// threshold: a single only_tables entry does not activate the filter.
func TestSelectTablesOnlyTablesSingleEntryInactive(t *testing.T) {
	d := &Driver{options: core.SourceOptions{
		OnlyTables: []core.TableID{tableID("app", "users")},
	}}
	discovered := []core.TableID{tableID("app", "users"), tableID("app", "orders")}

	plan := d.selectTables(discovered)
	assert.ElementsMatch(t, discovered, plan)
}

func TestSelectTablesSkipsListedTables(t *testing.T) {
	d := &Driver{options: core.SourceOptions{
		Skip: []core.TableID{tableID("app", "logs")},
	}}
	discovered := []core.TableID{tableID("app", "users"), tableID("app", "logs")}

	plan := d.selectTables(discovered)
	assert.Equal(t, []core.TableID{tableID("app", "users")}, plan)
}

func TestSelectTablesAppendsUndiscoveredSubsetTables(t *testing.T) {
	d := &Driver{options: core.SourceOptions{
		Subsets: []core.TableSubset{{Table: tableID("app", "archived_orders")}},
	}}
	discovered := []core.TableID{tableID("app", "users")}

	plan := d.selectTables(discovered)
	assert.ElementsMatch(t, []core.TableID{tableID("app", "users"), tableID("app", "archived_orders")}, plan)
}

func TestBuildQueryDefault(t *testing.T) {
	d := &Driver{}
	assert.Equal(t, "select * from app.users", d.buildQuery(tableID("app", "users")))
}

func TestBuildQueryForeignKeySubset(t *testing.T) {
	d := &Driver{options: core.SourceOptions{
		Subsets: []core.TableSubset{{
			Table:    tableID("app", "orders"),
			Strategy: core.SubsetStrategy{Kind: core.SubsetForeignKey, Condition: "customer_id = 1"},
		}},
	}}
	assert.Equal(t, "select * from app.orders where customer_id = 1", d.buildQuery(tableID("app", "orders")))
}

func TestBuildQueryRandomSubset(t *testing.T) {
	d := &Driver{options: core.SourceOptions{
		Subsets: []core.TableSubset{{
			Table:    tableID("app", "orders"),
			Strategy: core.SubsetStrategy{Kind: core.SubsetRandom, Percent: 10},
		}},
	}}
	got := d.buildQuery(tableID("app", "orders"))
	assert.Contains(t, got, "TABLESAMPLE SYSTEM(10)")
}

func TestNormalizeStatementAddsSemicolonAndNewline(t *testing.T) {
	assert.Equal(t, "create table x ();\n", string(normalizeStatement("create table x ()")))
	assert.Equal(t, "create table x ();\n", string(normalizeStatement("  create table x ();  ")))
}

func TestBuildCopyBlock(t *testing.T) {
	columns := core.Columns{
		{Name: "id", SQLType: "integer", Ordinal: 1},
		{Name: "name", SQLType: "varchar", Ordinal: 2},
	}
	block := buildCopyBlock(tableID("app", "users"), columns, []string{"1\tBob", "2\tAlice"})

	got := string(block)
	assert.Contains(t, got, `\COPY app.users (id,name) FROM stdin`)
	assert.Contains(t, got, "1\tBob\n")
	assert.Contains(t, got, "2\tAlice\n")
	assert.Contains(t, got, "\\.\n")
}

func TestParseAndTransformAppliesTransformerAndRoundTripsOtherColumns(t *testing.T) {
	columns := core.Columns{
		{Name: "id", SQLType: "integer", Ordinal: 1},
		{Name: "name", SQLType: "varchar", Ordinal: 2},
	}
	identity := identityTransformer{}
	row, err := parseAndTransform(columns, "1\tBob", map[string]core.Transformer{"name": identity})
	assert.NoError(t, err)
	assert.Equal(t, "1\tBob", row)
}

type identityTransformer struct{}

func (identityTransformer) ID() string                       { return "identity" }
func (identityTransformer) Description() string              { return "no-op" }
func (identityTransformer) DatabaseName() string              { return "" }
func (identityTransformer) TableName() string                 { return "" }
func (identityTransformer) ColumnName() string                { return "" }
func (identityTransformer) Transform(v core.Value) core.Value { return v }
