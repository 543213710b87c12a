package catalog

import (
	"testing"

	"github.com/jward/heapdb/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

// defineTable writes the catalog rows and heap file for a user table, the
// way the DDL executor does.
func defineTable(t *testing.T, c *Catalog, name string, columns []string, types []string) {
	t.Helper()
	_, err := c.Tables().Insert(storage.Row{"table_name": storage.TextValue(name)})
	require.NoError(t, err)
	for i, col := range columns {
		_, err := c.Columns().Insert(storage.Row{
			"table_name":  storage.TextValue(name),
			"column_name": storage.TextValue(col),
			"data_type":   storage.TextValue(types[i]),
		})
		require.NoError(t, err)
	}
	rel, err := c.GetTable(name)
	require.NoError(t, err)
	require.NoError(t, rel.Create())
}

// =============================================================================
// Bootstrap
// =============================================================================

func TestBootstrap_SchemaTablesDescribeThemselves(t *testing.T) {
	t.Parallel()
	c := newTestCatalog(t)

	names, attrs, err := c.GetColumns(TablesName)
	require.NoError(t, err)
	assert.Equal(t, []string{"table_name"}, names)
	assert.Equal(t, []storage.Attribute{{Type: storage.TextType}}, attrs)

	names, _, err = c.GetColumns(ColumnsName)
	require.NoError(t, err)
	assert.Equal(t, []string{"table_name", "column_name", "data_type"}, names)

	names, attrs, err = c.GetColumns(IndicesName)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"table_name", "index_name", "column_name",
		"seq_in_index", "index_type", "is_unique",
	}, names)
	assert.Equal(t, storage.IntType, attrs[3].Type)
	assert.Equal(t, storage.BooleanType, attrs[5].Type)
}

func TestBootstrap_TablesRowsSeeded(t *testing.T) {
	t.Parallel()
	c := newTestCatalog(t)

	handles, err := c.Tables().Select(nil)
	require.NoError(t, err)
	assert.Len(t, handles, 3)
}

func TestBootstrap_ReopenIsIdempotent(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	c, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	c, err = Open(dir)
	require.NoError(t, err)
	defer c.Close()

	handles, err := c.Tables().Select(nil)
	require.NoError(t, err)
	assert.Len(t, handles, 3)
	handles, err = c.Columns().Select(nil)
	require.NoError(t, err)
	assert.Len(t, handles, 10)
}

// =============================================================================
// Uniqueness and acceptance
// =============================================================================

func TestTables_DuplicateInsertLeavesStateAlone(t *testing.T) {
	t.Parallel()
	c := newTestCatalog(t)

	_, err := c.Tables().Insert(storage.Row{"table_name": storage.TextValue("egg")})
	require.NoError(t, err)

	before, err := c.Tables().Select(nil)
	require.NoError(t, err)

	_, err = c.Tables().Insert(storage.Row{"table_name": storage.TextValue("egg")})
	require.ErrorIs(t, err, ErrDuplicate)

	after, err := c.Tables().Select(nil)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestColumns_DuplicateKey(t *testing.T) {
	t.Parallel()
	c := newTestCatalog(t)

	row := storage.Row{
		"table_name":  storage.TextValue("egg"),
		"column_name": storage.TextValue("yolk"),
		"data_type":   storage.TextValue("TEXT"),
	}
	_, err := c.Columns().Insert(row)
	require.NoError(t, err)
	_, err = c.Columns().Insert(row)
	require.ErrorIs(t, err, ErrDuplicate)

	// Same column name under another table is fine.
	other := storage.Row{
		"table_name":  storage.TextValue("nest"),
		"column_name": storage.TextValue("yolk"),
		"data_type":   storage.TextValue("INT"),
	}
	_, err = c.Columns().Insert(other)
	require.NoError(t, err)
}

func TestColumns_RejectsBadIdentifiersAndTypes(t *testing.T) {
	t.Parallel()
	c := newTestCatalog(t)

	_, err := c.Columns().Insert(storage.Row{
		"table_name":  storage.TextValue("123"),
		"column_name": storage.TextValue("a"),
		"data_type":   storage.TextValue("INT"),
	})
	require.ErrorIs(t, err, ErrIdentifier)

	_, err = c.Columns().Insert(storage.Row{
		"table_name":  storage.TextValue("egg"),
		"column_name": storage.TextValue("bad name"),
		"data_type":   storage.TextValue("INT"),
	})
	require.ErrorIs(t, err, ErrIdentifier)

	_, err = c.Columns().Insert(storage.Row{
		"table_name":  storage.TextValue("egg"),
		"column_name": storage.TextValue("a"),
		"data_type":   storage.TextValue("FLOAT"),
	})
	require.ErrorIs(t, err, ErrDataType)
}

func TestIdentifierAcceptance(t *testing.T) {
	t.Parallel()
	assert.True(t, IsAcceptableIdentifier("egg"))
	assert.True(t, IsAcceptableIdentifier("_tables"))
	assert.True(t, IsAcceptableIdentifier("a1$_"))
	assert.True(t, IsAcceptableIdentifier("SELECT"), "reserved words pass")
	assert.False(t, IsAcceptableIdentifier(""))
	assert.False(t, IsAcceptableIdentifier("42"))
	assert.False(t, IsAcceptableIdentifier("-42"))
	assert.False(t, IsAcceptableIdentifier("has space"))
	assert.False(t, IsAcceptableIdentifier("semi;colon"))
}

// =============================================================================
// Table cache and user tables
// =============================================================================

func TestGetTable_BuildsFromColumnsInOrder(t *testing.T) {
	t.Parallel()
	c := newTestCatalog(t)
	defineTable(t, c, "egg", []string{"yolk", "white", "shell"}, []string{"TEXT", "INT", "INT"})

	rel, err := c.GetTable("egg")
	require.NoError(t, err)
	assert.Equal(t, []string{"yolk", "white", "shell"}, rel.Columns())
	assert.Equal(t, []storage.Attribute{
		{Type: storage.TextType}, {Type: storage.IntType}, {Type: storage.IntType},
	}, rel.Attributes())

	// Cached: the same instance comes back.
	again, err := c.GetTable("egg")
	require.NoError(t, err)
	assert.Same(t, rel, again)
}

func TestTablesDelete_EvictsCache(t *testing.T) {
	t.Parallel()
	c := newTestCatalog(t)
	defineTable(t, c, "egg", []string{"yolk"}, []string{"TEXT"})

	rel, err := c.GetTable("egg")
	require.NoError(t, err)

	handles, err := c.Tables().Select(storage.Row{"table_name": storage.TextValue("egg")})
	require.NoError(t, err)
	require.Len(t, handles, 1)
	require.NoError(t, c.Tables().Delete(handles[0]))

	// The row is gone and the cache no longer returns the old instance.
	handles, err = c.Tables().Select(storage.Row{"table_name": storage.TextValue("egg")})
	require.NoError(t, err)
	assert.Empty(t, handles)

	fresh, err := c.GetTable("egg")
	require.NoError(t, err)
	assert.NotSame(t, rel, fresh)
}

// =============================================================================
// Index metadata
// =============================================================================

func insertIndexRow(t *testing.T, c *Catalog, table, index, column string, seq int32, indexType string, unique bool) {
	t.Helper()
	_, err := c.Indices().Insert(storage.Row{
		"table_name":   storage.TextValue(table),
		"index_name":   storage.TextValue(index),
		"column_name":  storage.TextValue(column),
		"seq_in_index": storage.IntValue(seq),
		"index_type":   storage.TextValue(indexType),
		"is_unique":    storage.BoolValue(unique),
	})
	require.NoError(t, err)
}

func TestIndices_GetIndexColumns(t *testing.T) {
	t.Parallel()
	c := newTestCatalog(t)

	insertIndexRow(t, c, "egg", "chicken", "yolk", 1, "BTREE", true)
	insertIndexRow(t, c, "egg", "chicken", "shell", 2, "BTREE", true)
	insertIndexRow(t, c, "egg", "rooster", "white", 1, "HASH", false)

	columns, isHash, isUnique, err := c.GetIndexColumns("egg", "chicken")
	require.NoError(t, err)
	assert.Equal(t, []string{"yolk", "shell"}, columns)
	assert.False(t, isHash)
	assert.True(t, isUnique)

	columns, isHash, isUnique, err = c.GetIndexColumns("egg", "rooster")
	require.NoError(t, err)
	assert.Equal(t, []string{"white"}, columns)
	assert.True(t, isHash)
	assert.False(t, isUnique)

	names, err := c.GetIndexNames("egg")
	require.NoError(t, err)
	assert.Equal(t, []string{"chicken", "rooster"}, names)
}

func TestIndices_DuplicateKey(t *testing.T) {
	t.Parallel()
	c := newTestCatalog(t)

	insertIndexRow(t, c, "egg", "chicken", "yolk", 1, "BTREE", true)
	_, err := c.Indices().Insert(storage.Row{
		"table_name":   storage.TextValue("egg"),
		"index_name":   storage.TextValue("chicken"),
		"column_name":  storage.TextValue("yolk"),
		"seq_in_index": storage.IntValue(9),
		"index_type":   storage.TextValue("BTREE"),
		"is_unique":    storage.BoolValue(true),
	})
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestGetIndex_CachedStub(t *testing.T) {
	t.Parallel()
	c := newTestCatalog(t)

	ix := c.GetIndex("egg", "chicken")
	assert.Same(t, ix, c.GetIndex("egg", "chicken"))
	assert.Equal(t, "egg", ix.Table())
	assert.Equal(t, "chicken", ix.Name())

	// The physical index is a stub.
	require.NoError(t, ix.Create())
	handles, err := ix.Lookup(storage.Row{"yolk": storage.TextValue("x")})
	require.NoError(t, err)
	assert.Empty(t, handles)
	require.NoError(t, ix.Drop())
}
