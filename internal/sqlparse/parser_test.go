package sqlparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseOne(t *testing.T, sql string) Statement {
	t.Helper()
	stmt, err := Parse(sql)
	require.NoError(t, err, "parse %q", sql)
	return stmt
}

func TestParse_CreateTable(t *testing.T) {
	t.Parallel()
	stmt := parseOne(t, "create table egg (yolk text, white int, shell int)")
	create, ok := stmt.(*CreateStatement)
	require.True(t, ok)
	assert.Equal(t, CreateTable, create.Kind)
	assert.Equal(t, "egg", create.Table)
	assert.False(t, create.IfNotExists)
	assert.Equal(t, []ColumnDefinition{
		{Name: "yolk", Type: ColumnText},
		{Name: "white", Type: ColumnInt},
		{Name: "shell", Type: ColumnInt},
	}, create.Columns)
}

func TestParse_CreateTableIfNotExists(t *testing.T) {
	t.Parallel()
	stmt := parseOne(t, "CREATE TABLE IF NOT EXISTS egg (yolk TEXT)")
	create := stmt.(*CreateStatement)
	assert.True(t, create.IfNotExists)
}

func TestParse_CreateTableUnknownType(t *testing.T) {
	t.Parallel()
	stmt := parseOne(t, "create table t (a double, b blobby)")
	create := stmt.(*CreateStatement)
	assert.Equal(t, ColumnDouble, create.Columns[0].Type)
	assert.Equal(t, ColumnUnknown, create.Columns[1].Type)
}

func TestParse_CreateIndex(t *testing.T) {
	t.Parallel()
	stmt := parseOne(t, "create index chicken on egg (yolk, shell)")
	create := stmt.(*CreateStatement)
	assert.Equal(t, CreateIndex, create.Kind)
	assert.Equal(t, "chicken", create.Index)
	assert.Equal(t, "egg", create.Table)
	assert.Equal(t, []string{"yolk", "shell"}, create.IndexColumns)
	assert.Equal(t, "BTREE", create.IndexType, "BTREE is the default")

	stmt = parseOne(t, "create index h on egg (yolk) using hash")
	assert.Equal(t, "HASH", stmt.(*CreateStatement).IndexType)
}

func TestParse_Drop(t *testing.T) {
	t.Parallel()
	stmt := parseOne(t, "drop table egg")
	drop := stmt.(*DropStatement)
	assert.Equal(t, DropTable, drop.Kind)
	assert.Equal(t, "egg", drop.Table)

	stmt = parseOne(t, "drop index chicken from egg")
	drop = stmt.(*DropStatement)
	assert.Equal(t, DropIndex, drop.Kind)
	assert.Equal(t, "chicken", drop.Index)
	assert.Equal(t, "egg", drop.Table)
}

func TestParse_Show(t *testing.T) {
	t.Parallel()
	assert.Equal(t, &ShowStatement{Kind: ShowTables}, parseOne(t, "show tables"))
	assert.Equal(t, &ShowStatement{Kind: ShowColumns, Table: "_tables"}, parseOne(t, "show columns from _tables"))
	assert.Equal(t, &ShowStatement{Kind: ShowIndex, Table: "egg"}, parseOne(t, "show index from egg"))
}

func TestParse_Select(t *testing.T) {
	t.Parallel()
	stmt := parseOne(t, "select a, t.b from t where a > 5 and not b = 2")
	sel := stmt.(*SelectStatement)
	require.Len(t, sel.List, 2)
	assert.Equal(t, &Expr{Kind: ExprColumnRef, Name: "a"}, sel.List[0])
	assert.Equal(t, &Expr{Kind: ExprColumnRef, Table: "t", Name: "b"}, sel.List[1])
	require.NotNil(t, sel.Where)
	assert.Equal(t, OpAnd, sel.Where.Op)
}

func TestParse_SelectJoin(t *testing.T) {
	t.Parallel()
	stmt := parseOne(t, "select * from t left join u on t.id = u.id")
	sel := stmt.(*SelectStatement)
	require.Equal(t, TableJoin, sel.From.Kind)
	assert.Equal(t, JoinLeft, sel.From.Join.Kind)
	require.NotNil(t, sel.From.Join.Condition)

	stmt = parseOne(t, "select * from a, b, c")
	sel = stmt.(*SelectStatement)
	require.Equal(t, TableCrossProduct, sel.From.Kind)
	assert.Len(t, sel.From.List, 3)
}

func TestParse_TrailingSemicolon(t *testing.T) {
	t.Parallel()
	_, err := Parse("show tables;")
	require.NoError(t, err)
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()
	for _, sql := range []string{
		"",
		"frobnicate the database",
		"create table",
		"create table egg yolk text",
		"drop index chicken",
		"show me the money",
		"select from t",
		"create table egg (yolk text,)",
	} {
		_, err := Parse(sql)
		assert.Error(t, err, "parse %q", sql)
	}
}

func TestIsReservedWord(t *testing.T) {
	t.Parallel()
	assert.True(t, IsReservedWord("SELECT"))
	assert.True(t, IsReservedWord("COLUMNS"))
	assert.False(t, IsReservedWord("select"), "check is case-sensitive")
	assert.False(t, IsReservedWord("egg"))
}
