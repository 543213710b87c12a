// Package catalog maintains the self-describing schema tables _tables,
// _columns, and _indices, themselves stored as heap relations. It enforces
// catalog invariants (natural-key uniqueness, identifier and data-type
// acceptance) and caches the relations and indices it instantiates.
package catalog

import (
	"errors"
	"fmt"

	"github.com/jward/heapdb/internal/blockfile"
	"github.com/jward/heapdb/internal/storage"
)

// Names of the schema tables.
const (
	TablesName  = "_tables"
	ColumnsName = "_columns"
	IndicesName = "_indices"
)

var (
	// ErrDuplicate reports a catalog insert whose natural key already exists.
	ErrDuplicate = errors.New("already exists")
	// ErrIdentifier reports an unacceptable table, column, or index name.
	ErrIdentifier = errors.New("unacceptable identifier")
	// ErrDataType reports a data type the catalog does not accept.
	ErrDataType = errors.New("unacceptable data type")
)

// IsSchemaTable reports whether name is one of the three catalog tables.
func IsSchemaTable(name string) bool {
	return name == TablesName || name == ColumnsName || name == IndicesName
}

// Catalog is the schema catalog for one database environment directory.
// Construct one per environment with Open; there is no process-wide state.
type Catalog struct {
	dir     string
	tables  *Tables
	columns *Columns
	indices *Indices

	tableCache map[string]*storage.Relation
	indexCache map[indexKey]*Index
}

type indexKey struct {
	table string
	index string
}

// Open bootstraps the catalog in dir: each schema table is opened, or
// created and seeded on the first run, in the order _tables, _columns,
// _indices.
func Open(dir string) (*Catalog, error) {
	c := &Catalog{
		dir:        dir,
		tableCache: make(map[string]*storage.Relation),
		indexCache: make(map[indexKey]*Index),
	}
	c.tables = newTables(c)
	c.columns = newColumns(c)
	c.indices = newIndices(c)

	if err := createIfNotExists(c.tables.Relation, c.tables.create); err != nil {
		return nil, fmt.Errorf("bootstrap %s: %w", TablesName, err)
	}
	if err := createIfNotExists(c.columns.Relation, c.columns.create); err != nil {
		return nil, fmt.Errorf("bootstrap %s: %w", ColumnsName, err)
	}
	if err := createIfNotExists(c.indices.Relation, c.indices.Create); err != nil {
		return nil, fmt.Errorf("bootstrap %s: %w", IndicesName, err)
	}
	return c, nil
}

// createIfNotExists opens rel, falling back to create when the underlying
// file is missing. The create func is the schema table's own, so the
// self-describing seed rows get written.
func createIfNotExists(rel *storage.Relation, create func() error) error {
	err := rel.Open()
	if err == nil {
		return nil
	}
	if errors.Is(err, blockfile.ErrMissing) {
		return create()
	}
	return err
}

// Close releases the schema tables and every cached relation.
func (c *Catalog) Close() error {
	var firstErr error
	for _, rel := range c.tableCache {
		if err := rel.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, rel := range []*storage.Relation{c.tables.Relation, c.columns.Relation, c.indices.Relation} {
		if err := rel.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Dir returns the environment directory.
func (c *Catalog) Dir() string {
	return c.dir
}

// Tables returns the _tables schema table.
func (c *Catalog) Tables() *Tables {
	return c.tables
}

// Columns returns the _columns schema table.
func (c *Catalog) Columns() *Columns {
	return c.columns
}

// Indices returns the _indices schema table.
func (c *Catalog) Indices() *Indices {
	return c.indices
}

// GetTable returns the instantiated relation for table name, building it
// from the _columns rows on first reference and caching it after that.
func (c *Catalog) GetTable(name string) (*storage.Relation, error) {
	if rel, ok := c.tableCache[name]; ok {
		return rel, nil
	}
	columns, attrs, err := c.GetColumns(name)
	if err != nil {
		return nil, err
	}
	rel := storage.NewRelation(c.dir, name, columns, attrs)
	c.tableCache[name] = rel
	return rel, nil
}

// GetColumns returns the column names and attributes of table name, in
// catalog storage order.
func (c *Catalog) GetColumns(table string) ([]string, []storage.Attribute, error) {
	where := storage.Row{"table_name": storage.TextValue(table)}
	handles, err := c.columns.Select(where)
	if err != nil {
		return nil, nil, err
	}
	var (
		columns []string
		attrs   []storage.Attribute
	)
	for _, h := range handles {
		row, err := c.columns.Project(h, nil)
		if err != nil {
			return nil, nil, err
		}
		dt, ok := storage.DataTypeOf(row["data_type"].Text)
		if !ok {
			return nil, nil, fmt.Errorf("column %s.%s: %q: %w",
				table, row["column_name"].Text, row["data_type"].Text, ErrDataType)
		}
		columns = append(columns, row["column_name"].Text)
		attrs = append(attrs, storage.Attribute{Type: dt})
	}
	return columns, attrs, nil
}

// GetIndexColumns returns the key columns of the named index in seq_in_index
// order, along with whether the index is hash-organized and whether its key
// is unique.
func (c *Catalog) GetIndexColumns(table, index string) (columns []string, isHash, isUnique bool, err error) {
	where := storage.Row{
		"table_name": storage.TextValue(table),
		"index_name": storage.TextValue(index),
	}
	handles, err := c.indices.Select(where)
	if err != nil {
		return nil, false, false, err
	}
	columns = make([]string, len(handles))
	for _, h := range handles {
		row, err := c.indices.Project(h, nil)
		if err != nil {
			return nil, false, false, err
		}
		seq := int(row["seq_in_index"].Int)
		if seq < 1 || seq > len(columns) {
			return nil, false, false, fmt.Errorf("index %s.%s: seq_in_index %d out of range", table, index, seq)
		}
		columns[seq-1] = row["column_name"].Text
		isHash = row["index_type"].Text == "HASH"
		isUnique = row["is_unique"].Bool
	}
	return columns, isHash, isUnique, nil
}

// GetIndexNames returns the distinct index names on table, in catalog
// storage order.
func (c *Catalog) GetIndexNames(table string) ([]string, error) {
	where := storage.Row{"table_name": storage.TextValue(table)}
	handles, err := c.indices.Select(where)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var names []string
	for _, h := range handles {
		row, err := c.indices.Project(h, []string{"index_name"})
		if err != nil {
			return nil, err
		}
		name := row["index_name"].Text
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names, nil
}

// GetIndex returns the instantiated index for (table, index), cached per
// catalog.
func (c *Catalog) GetIndex(table, index string) *Index {
	key := indexKey{table: table, index: index}
	if ix, ok := c.indexCache[key]; ok {
		return ix
	}
	ix := &Index{table: table, name: index}
	c.indexCache[key] = ix
	return ix
}

// evictTable drops the cached relation for name, closing it if present.
func (c *Catalog) evictTable(name string) {
	if rel, ok := c.tableCache[name]; ok {
		delete(c.tableCache, name)
		rel.Close()
	}
}

// evictIndex drops the cached index for (table, index).
func (c *Catalog) evictIndex(table, index string) {
	delete(c.indexCache, indexKey{table: table, index: index})
}
