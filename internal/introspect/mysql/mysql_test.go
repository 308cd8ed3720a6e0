package mysql

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbsnap/internal/core"
)

func TestTablesReturnsDiscoveredBaseTables(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"table_schema", "table_name"}).AddRow("app", "orders").AddRow("app", "users")
	mock.ExpectQuery("information_schema.tables").WillReturnRows(rows)

	i := New()
	tables, err := i.Tables(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, []core.TableID{{Database: "app", Table: "orders"}, {Database: "app", Table: "users"}}, tables)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestColumnsReturnsOrdinalSortedColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"column_name", "data_type", "ordinal_position"}).
		AddRow("id", "int", 1).
		AddRow("name", "varchar", 2)
	mock.ExpectQuery("information_schema.columns").WithArgs("users").WillReturnRows(rows)

	i := New()
	cols, err := i.Columns(context.Background(), db, core.TableID{Database: "app", Table: "users"})
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "name", cols[1].Name)
	assert.Equal(t, 2, cols[1].Ordinal)
}

func TestColumnsWrapsQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("information_schema.columns").WillReturnError(assert.AnError)

	i := New()
	_, err = i.Columns(context.Background(), db, core.TableID{Database: "app", Table: "users"})
	assert.Error(t, err)
}
