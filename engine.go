package heapdb

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/jward/heapdb/internal/catalog"
	"github.com/jward/heapdb/internal/sqlparse"
	"github.com/jward/heapdb/internal/storage"
)

// Engine executes parsed SQL statements against one database environment
// directory. It owns the catalog and, through it, every relation it touches.
// An Engine is single-threaded: at most one statement is in flight.
type Engine struct {
	dir string
	cat *catalog.Catalog
}

// QueryResult carries the outcome of one statement: the result columns and
// rows for SHOW forms, and a human-readable message for everything.
type QueryResult struct {
	ColumnNames      []string
	ColumnAttributes []storage.Attribute
	Rows             []storage.Row
	Message          string
}

// New opens an Engine over dir, creating the directory and bootstrapping the
// catalog on first use.
func New(dir string) (*Engine, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create environment %s: %w", dir, err)
	}
	cat, err := catalog.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("open catalog in %s: %w", dir, err)
	}
	return &Engine{dir: dir, cat: cat}, nil
}

// Close releases the catalog and every cached relation.
func (e *Engine) Close() error {
	return e.cat.Close()
}

// Dir returns the environment directory the engine was opened on.
func (e *Engine) Dir() string {
	return e.dir
}

// Execute runs one parsed statement. Statements outside the DDL subset
// produce a "not implemented" result rather than an error.
func (e *Engine) Execute(stmt sqlparse.Statement) (*QueryResult, error) {
	switch s := stmt.(type) {
	case *sqlparse.CreateStatement:
		switch s.Kind {
		case sqlparse.CreateTable:
			return e.createTable(s)
		case sqlparse.CreateIndex:
			return e.createIndex(s)
		}
	case *sqlparse.DropStatement:
		switch s.Kind {
		case sqlparse.DropTable:
			return e.dropTable(s)
		case sqlparse.DropIndex:
			return e.dropIndex(s)
		}
	case *sqlparse.ShowStatement:
		switch s.Kind {
		case sqlparse.ShowTables:
			return e.showTables()
		case sqlparse.ShowColumns:
			return e.showColumns(s)
		case sqlparse.ShowIndex:
			return e.showIndex(s)
		}
	}
	return &QueryResult{Message: "not implemented"}, nil
}

// columnTypeName maps a parsed column type to the catalog spelling. Types
// beyond INT and TEXT are not executable yet.
func columnTypeName(ct sqlparse.ColumnType) (string, error) {
	switch ct {
	case sqlparse.ColumnInt:
		return "INT", nil
	case sqlparse.ColumnText:
		return "TEXT", nil
	default:
		return "", fmt.Errorf("column type: %w", storage.ErrUnimplemented)
	}
}

// createTable inserts the _tables row, one _columns row per definition, and
// creates the heap file. Any failure after the first insert unwinds the
// catalog rows already written; compensation errors are swallowed so the
// original failure is what surfaces.
func (e *Engine) createTable(stmt *sqlparse.CreateStatement) (*QueryResult, error) {
	tableHandle, err := e.cat.Tables().Insert(storage.Row{
		"table_name": storage.TextValue(stmt.Table),
	})
	if err != nil {
		return nil, fmt.Errorf("create table %s: %w", stmt.Table, err)
	}

	var columnHandles []storage.Handle
	undo := func() {
		for _, h := range columnHandles {
			_ = e.cat.Columns().Delete(h)
		}
		_ = e.cat.Tables().Delete(tableHandle)
	}

	for _, col := range stmt.Columns {
		typeName, err := columnTypeName(col.Type)
		if err != nil {
			undo()
			return nil, fmt.Errorf("create table %s, column %s: %w", stmt.Table, col.Name, err)
		}
		h, err := e.cat.Columns().Insert(storage.Row{
			"table_name":  storage.TextValue(stmt.Table),
			"column_name": storage.TextValue(col.Name),
			"data_type":   storage.TextValue(typeName),
		})
		if err != nil {
			undo()
			return nil, fmt.Errorf("create table %s: %w", stmt.Table, err)
		}
		columnHandles = append(columnHandles, h)
	}

	table, err := e.cat.GetTable(stmt.Table)
	if err != nil {
		undo()
		return nil, fmt.Errorf("create table %s: %w", stmt.Table, err)
	}
	if stmt.IfNotExists {
		err = table.CreateIfNotExists()
	} else {
		err = table.Create()
	}
	if err != nil {
		undo()
		return nil, fmt.Errorf("create table %s: %w", stmt.Table, err)
	}

	return &QueryResult{Message: "created table " + stmt.Table}, nil
}

// createIndex checks the key columns against the table's schema, then
// writes one _indices row per key column with seq_in_index counting from 1.
func (e *Engine) createIndex(stmt *sqlparse.CreateStatement) (*QueryResult, error) {
	table, err := e.cat.GetTable(stmt.Table)
	if err != nil {
		return nil, fmt.Errorf("create index %s: %w", stmt.Index, err)
	}
	columns := table.Columns()
	for _, col := range stmt.IndexColumns {
		if !slices.Contains(columns, col) {
			return nil, fmt.Errorf("create index %s: no column %s in table %s: %w",
				stmt.Index, col, stmt.Table, storage.ErrUnknownColumn)
		}
	}

	isUnique := stmt.IndexType == "BTREE"
	for i, col := range stmt.IndexColumns {
		_, err := e.cat.Indices().Insert(storage.Row{
			"table_name":   storage.TextValue(stmt.Table),
			"index_name":   storage.TextValue(stmt.Index),
			"column_name":  storage.TextValue(col),
			"seq_in_index": storage.IntValue(int32(i + 1)),
			"index_type":   storage.TextValue(stmt.IndexType),
			"is_unique":    storage.BoolValue(isUnique),
		})
		if err != nil {
			return nil, fmt.Errorf("create index %s: %w", stmt.Index, err)
		}
	}

	if err := e.cat.GetIndex(stmt.Table, stmt.Index).Create(); err != nil {
		return nil, fmt.Errorf("create index %s: %w", stmt.Index, err)
	}
	return &QueryResult{Message: "created index " + stmt.Index}, nil
}

// dropTable cascades: index rows, column rows, the heap file, then the
// _tables row. Schema tables cannot be dropped.
func (e *Engine) dropTable(stmt *sqlparse.DropStatement) (*QueryResult, error) {
	name := stmt.Table
	if catalog.IsSchemaTable(name) {
		return nil, fmt.Errorf("drop table %s: cannot drop a schema table", name)
	}
	where := storage.Row{"table_name": storage.TextValue(name)}

	// Indices on the table go first; a physical index drop would hook in
	// here once indices have a physical structure.
	handles, err := e.cat.Indices().Select(where)
	if err != nil {
		return nil, fmt.Errorf("drop table %s: %w", name, err)
	}
	for _, h := range handles {
		if err := e.cat.Indices().Delete(h); err != nil {
			return nil, fmt.Errorf("drop table %s: %w", name, err)
		}
	}

	handles, err = e.cat.Columns().Select(where)
	if err != nil {
		return nil, fmt.Errorf("drop table %s: %w", name, err)
	}
	for _, h := range handles {
		if err := e.cat.Columns().Delete(h); err != nil {
			return nil, fmt.Errorf("drop table %s: %w", name, err)
		}
	}

	table, err := e.cat.GetTable(name)
	if err != nil {
		return nil, fmt.Errorf("drop table %s: %w", name, err)
	}
	if err := table.Drop(); err != nil {
		return nil, fmt.Errorf("drop table %s: %w", name, err)
	}

	handles, err = e.cat.Tables().Select(where)
	if err != nil {
		return nil, fmt.Errorf("drop table %s: %w", name, err)
	}
	for _, h := range handles {
		if err := e.cat.Tables().Delete(h); err != nil {
			return nil, fmt.Errorf("drop table %s: %w", name, err)
		}
	}

	return &QueryResult{Message: "dropped table " + name}, nil
}

// dropIndex drops the physical index (a no-op today) and removes every
// _indices row for (table, index).
func (e *Engine) dropIndex(stmt *sqlparse.DropStatement) (*QueryResult, error) {
	if err := e.cat.GetIndex(stmt.Table, stmt.Index).Drop(); err != nil {
		return nil, fmt.Errorf("drop index %s: %w", stmt.Index, err)
	}
	where := storage.Row{
		"table_name": storage.TextValue(stmt.Table),
		"index_name": storage.TextValue(stmt.Index),
	}
	handles, err := e.cat.Indices().Select(where)
	if err != nil {
		return nil, fmt.Errorf("drop index %s: %w", stmt.Index, err)
	}
	for _, h := range handles {
		if err := e.cat.Indices().Delete(h); err != nil {
			return nil, fmt.Errorf("drop index %s: %w", stmt.Index, err)
		}
	}
	return &QueryResult{Message: "dropped index " + stmt.Index}, nil
}

// showTables lists user tables; the schema tables are filtered out.
func (e *Engine) showTables() (*QueryResult, error) {
	columnNames, attrs, err := e.cat.GetColumns(catalog.TablesName)
	if err != nil {
		return nil, fmt.Errorf("show tables: %w", err)
	}
	handles, err := e.cat.Tables().Select(nil)
	if err != nil {
		return nil, fmt.Errorf("show tables: %w", err)
	}
	var rows []storage.Row
	for _, h := range handles {
		row, err := e.cat.Tables().Project(h, columnNames)
		if err != nil {
			return nil, fmt.Errorf("show tables: %w", err)
		}
		if !catalog.IsSchemaTable(row["table_name"].Text) {
			rows = append(rows, row)
		}
	}
	return &QueryResult{
		ColumnNames:      columnNames,
		ColumnAttributes: attrs,
		Rows:             rows,
		Message:          rowCountMessage(len(rows)),
	}, nil
}

// showColumns lists the _columns rows for one table.
func (e *Engine) showColumns(stmt *sqlparse.ShowStatement) (*QueryResult, error) {
	columnNames := []string{"table_name", "column_name", "data_type"}
	text := storage.Attribute{Type: storage.TextType}
	attrs := []storage.Attribute{text, text, text}

	where := storage.Row{"table_name": storage.TextValue(stmt.Table)}
	handles, err := e.cat.Columns().Select(where)
	if err != nil {
		return nil, fmt.Errorf("show columns from %s: %w", stmt.Table, err)
	}
	var rows []storage.Row
	for _, h := range handles {
		row, err := e.cat.Columns().Project(h, columnNames)
		if err != nil {
			return nil, fmt.Errorf("show columns from %s: %w", stmt.Table, err)
		}
		rows = append(rows, row)
	}
	return &QueryResult{
		ColumnNames:      columnNames,
		ColumnAttributes: attrs,
		Rows:             rows,
		Message:          rowCountMessage(len(rows)),
	}, nil
}

// showIndex lists the _indices rows for one table, all six columns.
func (e *Engine) showIndex(stmt *sqlparse.ShowStatement) (*QueryResult, error) {
	columnNames := []string{
		"table_name", "index_name", "column_name",
		"seq_in_index", "index_type", "is_unique",
	}
	text := storage.Attribute{Type: storage.TextType}
	attrs := []storage.Attribute{
		text, text, text,
		{Type: storage.IntType},
		text,
		{Type: storage.BooleanType},
	}

	where := storage.Row{"table_name": storage.TextValue(stmt.Table)}
	handles, err := e.cat.Indices().Select(where)
	if err != nil {
		return nil, fmt.Errorf("show index from %s: %w", stmt.Table, err)
	}
	var rows []storage.Row
	for _, h := range handles {
		row, err := e.cat.Indices().Project(h, columnNames)
		if err != nil {
			return nil, fmt.Errorf("show index from %s: %w", stmt.Table, err)
		}
		rows = append(rows, row)
	}
	return &QueryResult{
		ColumnNames:      columnNames,
		ColumnAttributes: attrs,
		Rows:             rows,
		Message:          rowCountMessage(len(rows)),
	}, nil
}

func rowCountMessage(n int) string {
	return fmt.Sprintf("successfully returned %d rows", n)
}

// IsNotImplemented reports whether err stems from an operation the engine
// does not support.
func IsNotImplemented(err error) bool {
	return errors.Is(err, storage.ErrUnimplemented)
}
