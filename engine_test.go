package heapdb

import (
	"strings"
	"testing"

	"github.com/jward/heapdb/internal/catalog"
	"github.com/jward/heapdb/internal/sqlparse"
	"github.com/jward/heapdb/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func exec(t *testing.T, e *Engine, sql string) *QueryResult {
	t.Helper()
	stmt, err := sqlparse.Parse(sql)
	require.NoError(t, err, "parse %q", sql)
	result, err := e.Execute(stmt)
	require.NoError(t, err, "execute %q", sql)
	return result
}

func execErr(t *testing.T, e *Engine, sql string) error {
	t.Helper()
	stmt, err := sqlparse.Parse(sql)
	require.NoError(t, err, "parse %q", sql)
	_, err = e.Execute(stmt)
	require.Error(t, err, "execute %q", sql)
	return err
}

// =============================================================================
// SHOW over a fresh environment
// =============================================================================

func TestShow_FreshEnvironment(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	result := exec(t, e, "show columns from _tables")
	assert.Len(t, result.Rows, 1)
	assert.Equal(t, []string{"table_name", "column_name", "data_type"}, result.ColumnNames)

	result = exec(t, e, "show columns from _columns")
	assert.Len(t, result.Rows, 3)

	result = exec(t, e, "show columns from _indices")
	assert.Len(t, result.Rows, 6)

	// Schema tables are filtered out of SHOW TABLES.
	result = exec(t, e, "show tables")
	assert.Empty(t, result.Rows)
	assert.Equal(t, "successfully returned 0 rows", result.Message)
}

// =============================================================================
// DDL happy path
// =============================================================================

func TestDDL_CreateIndexDrop(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	result := exec(t, e, "create table egg (yolk text, white int, shell int)")
	assert.Equal(t, "created table egg", result.Message)

	result = exec(t, e, "show tables")
	require.Len(t, result.Rows, 1)
	assert.Equal(t, TextValue("egg"), result.Rows[0]["table_name"])

	result = exec(t, e, "show columns from egg")
	require.Len(t, result.Rows, 3)
	assert.Equal(t, TextValue("yolk"), result.Rows[0]["column_name"])
	assert.Equal(t, TextValue("TEXT"), result.Rows[0]["data_type"])

	result = exec(t, e, "create index chicken on egg (yolk, shell)")
	assert.Equal(t, "created index chicken", result.Message)

	result = exec(t, e, "show index from egg")
	require.Len(t, result.Rows, 2)
	assert.Equal(t, IntValue(1), result.Rows[0]["seq_in_index"])
	assert.Equal(t, IntValue(2), result.Rows[1]["seq_in_index"])
	assert.Equal(t, TextValue("BTREE"), result.Rows[0]["index_type"])
	assert.Equal(t, BoolValue(true), result.Rows[0]["is_unique"])

	result = exec(t, e, "drop index chicken from egg")
	assert.Equal(t, "dropped index chicken", result.Message)
	assert.Empty(t, exec(t, e, "show index from egg").Rows)

	result = exec(t, e, "drop table egg")
	assert.Equal(t, "dropped table egg", result.Message)
	assert.Empty(t, exec(t, e, "show tables").Rows)
	assert.Empty(t, exec(t, e, "show columns from egg").Rows)
}

func TestDDL_DropTableCascadesIndices(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	exec(t, e, "create table egg (yolk text, white int, shell int)")
	exec(t, e, "create index chicken on egg (yolk, shell)")
	require.Len(t, exec(t, e, "show index from egg").Rows, 2)

	exec(t, e, "drop table egg")
	assert.Empty(t, exec(t, e, "show tables").Rows)
	assert.Empty(t, exec(t, e, "show index from egg").Rows)
}

func TestDDL_TablePersistsAcrossEngines(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	e, err := New(dir)
	require.NoError(t, err)
	exec(t, e, "create table egg (yolk text)")
	require.NoError(t, e.Close())

	e, err = New(dir)
	require.NoError(t, err)
	defer e.Close()
	require.Len(t, exec(t, e, "show tables").Rows, 1)
}

// =============================================================================
// Failure paths and compensation
// =============================================================================

func TestDDL_DuplicateTable(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	exec(t, e, "create table egg (yolk text)")
	err := execErr(t, e, "create table egg (yolk text)")
	assert.ErrorIs(t, err, catalog.ErrDuplicate)
}

// TestDDL_CreateTableCompensation drives CREATE TABLE into a mid-flight
// failure (a duplicate column definition) and checks the catalog holds no
// trace of the table afterwards.
func TestDDL_CreateTableCompensation(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	err := execErr(t, e, "create table broken (a int, a text)")
	assert.ErrorIs(t, err, catalog.ErrDuplicate)

	assert.Empty(t, exec(t, e, "show tables").Rows)
	assert.Empty(t, exec(t, e, "show columns from broken").Rows)

	// The name is free for a clean retry.
	result := exec(t, e, "create table broken (a int, b text)")
	assert.Equal(t, "created table broken", result.Message)
}

func TestDDL_CreateTableUnsupportedType(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	err := execErr(t, e, "create table t (a double)")
	assert.True(t, IsNotImplemented(err))
	assert.Empty(t, exec(t, e, "show tables").Rows)
	assert.Empty(t, exec(t, e, "show columns from t").Rows)
}

func TestDDL_CreateIndexUnknownColumn(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	exec(t, e, "create table egg (yolk text)")
	err := execErr(t, e, "create index chicken on egg (feathers)")
	assert.ErrorIs(t, err, storage.ErrUnknownColumn)
	assert.Empty(t, exec(t, e, "show index from egg").Rows)
}

func TestDDL_DropSchemaTableRejected(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	for _, name := range []string{"_tables", "_columns", "_indices"} {
		err := execErr(t, e, "drop table "+name)
		assert.Contains(t, err.Error(), "schema table")
	}
}

func TestExecute_NonDDLNotImplemented(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	result := exec(t, e, "select * from egg")
	assert.Equal(t, "not implemented", result.Message)
	assert.Nil(t, result.Rows)
}

// =============================================================================
// Self test
// =============================================================================

func TestSelfTest_AllSuitesPass(t *testing.T) {
	var out strings.Builder
	ok := SelfTest(t.TempDir(), &out)
	assert.True(t, ok, out.String())
	assert.Contains(t, out.String(), "slotted page tests ok")
	assert.Contains(t, out.String(), "heap storage tests ok")
	assert.Contains(t, out.String(), "sql exec tests ok")
}
