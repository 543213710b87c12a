package catalog

import (
	"fmt"

	"github.com/jward/heapdb/internal/storage"
)

// Tables is the _tables schema table: one row per table in the environment,
// the schema tables included.
type Tables struct {
	*storage.Relation
	cat *Catalog
}

func newTables(cat *Catalog) *Tables {
	return &Tables{
		Relation: storage.NewRelation(cat.dir, TablesName,
			[]string{"table_name"},
			[]storage.Attribute{{Type: storage.TextType}},
		),
		cat: cat,
	}
}

// create makes the heap file and seeds one row per schema table.
func (t *Tables) create() error {
	if err := t.Relation.Create(); err != nil {
		return err
	}
	for _, name := range []string{TablesName, ColumnsName, IndicesName} {
		row := storage.Row{"table_name": storage.TextValue(name)}
		if _, err := t.Insert(row); err != nil {
			return err
		}
	}
	return nil
}

// Insert adds a table row after checking the name is an acceptable
// identifier and not already present.
func (t *Tables) Insert(row storage.Row) (storage.Handle, error) {
	name := row["table_name"].Text
	if !IsAcceptableIdentifier(name) {
		return storage.Handle{}, fmt.Errorf("table name %q: %w", name, ErrIdentifier)
	}
	handles, err := t.Select(storage.Row{"table_name": row["table_name"]})
	if err != nil {
		return storage.Handle{}, err
	}
	if len(handles) > 0 {
		return storage.Handle{}, fmt.Errorf("table %s: %w", name, ErrDuplicate)
	}
	return t.Relation.Insert(row)
}

// Delete removes a table row. The cached relation for that table is evicted
// first, so a reference obtained after the delete cannot observe the dead
// row.
func (t *Tables) Delete(h storage.Handle) error {
	row, err := t.Project(h, nil)
	if err != nil {
		return err
	}
	t.cat.evictTable(row["table_name"].Text)
	return t.Relation.Delete(h)
}

// Columns is the _columns schema table: one row per column of every table.
type Columns struct {
	*storage.Relation
	cat *Catalog
}

func newColumns(cat *Catalog) *Columns {
	text := storage.Attribute{Type: storage.TextType}
	return &Columns{
		Relation: storage.NewRelation(cat.dir, ColumnsName,
			[]string{"table_name", "column_name", "data_type"},
			[]storage.Attribute{text, text, text},
		),
		cat: cat,
	}
}

// schemaColumns describes every column of every schema table, in the order
// the bootstrap writes them.
var schemaColumns = []struct {
	table    string
	column   string
	dataType string
}{
	{TablesName, "table_name", "TEXT"},

	{ColumnsName, "table_name", "TEXT"},
	{ColumnsName, "column_name", "TEXT"},
	{ColumnsName, "data_type", "TEXT"},

	{IndicesName, "table_name", "TEXT"},
	{IndicesName, "index_name", "TEXT"},
	{IndicesName, "column_name", "TEXT"},
	{IndicesName, "seq_in_index", "INT"},
	{IndicesName, "index_type", "TEXT"},
	{IndicesName, "is_unique", "BOOLEAN"},
}

// create makes the heap file and seeds the rows describing the schema
// tables themselves.
func (c *Columns) create() error {
	if err := c.Relation.Create(); err != nil {
		return err
	}
	for _, sc := range schemaColumns {
		row := storage.Row{
			"table_name":  storage.TextValue(sc.table),
			"column_name": storage.TextValue(sc.column),
			"data_type":   storage.TextValue(sc.dataType),
		}
		if _, err := c.Insert(row); err != nil {
			return err
		}
	}
	return nil
}

// Insert adds a column row after checking identifiers, the data type, and
// (table_name, column_name) uniqueness.
func (c *Columns) Insert(row storage.Row) (storage.Handle, error) {
	table := row["table_name"].Text
	column := row["column_name"].Text
	if !IsAcceptableIdentifier(table) {
		return storage.Handle{}, fmt.Errorf("table name %q: %w", table, ErrIdentifier)
	}
	if !IsAcceptableIdentifier(column) {
		return storage.Handle{}, fmt.Errorf("column name %q: %w", column, ErrIdentifier)
	}
	if !IsAcceptableDataType(row["data_type"].Text) {
		return storage.Handle{}, fmt.Errorf("data type %q: %w", row["data_type"].Text, ErrDataType)
	}
	where := storage.Row{
		"table_name":  row["table_name"],
		"column_name": row["column_name"],
	}
	handles, err := c.Select(where)
	if err != nil {
		return storage.Handle{}, err
	}
	if len(handles) > 0 {
		return storage.Handle{}, fmt.Errorf("column %s.%s: %w", table, column, ErrDuplicate)
	}
	return c.Relation.Insert(row)
}

// Indices is the _indices schema table: one row per column of every index.
type Indices struct {
	*storage.Relation
	cat *Catalog
}

func newIndices(cat *Catalog) *Indices {
	text := storage.Attribute{Type: storage.TextType}
	return &Indices{
		Relation: storage.NewRelation(cat.dir, IndicesName,
			[]string{"table_name", "index_name", "column_name", "seq_in_index", "index_type", "is_unique"},
			[]storage.Attribute{
				text, text, text,
				{Type: storage.IntType},
				text,
				{Type: storage.BooleanType},
			},
		),
		cat: cat,
	}
}

// Create makes the heap file. There are no seed rows; the schema tables
// carry no indices.
func (ix *Indices) Create() error {
	return ix.Relation.Create()
}

// Insert adds an index row after checking identifiers and
// (table_name, index_name, column_name) uniqueness.
func (ix *Indices) Insert(row storage.Row) (storage.Handle, error) {
	for _, key := range []string{"table_name", "index_name", "column_name"} {
		if name := row[key].Text; !IsAcceptableIdentifier(name) {
			return storage.Handle{}, fmt.Errorf("%s %q: %w", key, name, ErrIdentifier)
		}
	}
	where := storage.Row{
		"table_name":  row["table_name"],
		"index_name":  row["index_name"],
		"column_name": row["column_name"],
	}
	handles, err := ix.Select(where)
	if err != nil {
		return storage.Handle{}, err
	}
	if len(handles) > 0 {
		return storage.Handle{}, fmt.Errorf("index column %s.%s(%s): %w",
			row["table_name"].Text, row["index_name"].Text, row["column_name"].Text, ErrDuplicate)
	}
	return ix.Relation.Insert(row)
}

// Delete removes an index row, evicting the cached index it belongs to.
func (ix *Indices) Delete(h storage.Handle) error {
	row, err := ix.Project(h, nil)
	if err != nil {
		return err
	}
	ix.cat.evictIndex(row["table_name"].Text, row["index_name"].Text)
	return ix.Relation.Delete(h)
}
