package dump

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitBySemicolonBasic(t *testing.T) {
	stmts := splitBySemicolon("CREATE TABLE a (id int);\nCREATE TABLE b (id int);")
	assert.Len(t, stmts, 2)
}

func TestSplitBySemicolonSkipsComments(t *testing.T) {
	stmts := splitBySemicolon("-- comment\nCREATE TABLE a (id int);\n-- another\nCREATE TABLE b (id int);")
	assert.Len(t, stmts, 2)
}

func TestSplitBySemicolonHandlesTrailingContentWithoutSemicolon(t *testing.T) {
	stmts := splitBySemicolon("CREATE TABLE a (id int);\nCREATE TABLE b (id int)")
	assert.Len(t, stmts, 2)
}

func TestSplitBySemicolonEmptyInput(t *testing.T) {
	assert.Empty(t, splitBySemicolon(""))
}

// TestQuerySplitterFallsBackForPostgresDDL checks that Postgres-flavored DDL
// the TiDB parser can't tokenize (e.g. SERIAL, double-quoted identifiers)
// still gets split, by the semicolon fallback.
func TestQuerySplitterFallsBackForPostgresDDL(t *testing.T) {
	s := newQuerySplitter()
	content := `CREATE TABLE "users" (id SERIAL PRIMARY KEY, email TEXT);
CREATE TABLE "orders" (id SERIAL PRIMARY KEY);`
	stmts := s.split(content)
	assert.Len(t, stmts, 2)
}

func TestQuerySplitterEmptyInput(t *testing.T) {
	s := newQuerySplitter()
	assert.Empty(t, s.split("   "))
}

func TestQuerySplitterUsesTiDBParserForValidSQL(t *testing.T) {
	s := newQuerySplitter()
	stmts := s.split("SELECT 1; SELECT 2;")
	assert.Len(t, stmts, 2)
}
