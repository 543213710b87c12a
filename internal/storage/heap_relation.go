package storage

import (
	"errors"
	"fmt"
	"maps"

	"github.com/jward/heapdb/internal/blockfile"
)

var (
	// ErrMissingColumn reports an inserted row that omits a declared column.
	ErrMissingColumn = errors.New("missing column")
	// ErrUnknownColumn reports a projection naming a column the relation
	// does not have.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrUnimplemented reports an operation the engine does not support.
	ErrUnimplemented = errors.New("not implemented")
)

// Relation is a named table stored as a heap of rows in one heap file. The
// column list and the attribute list are parallel and fixed for the life of
// the relation.
type Relation struct {
	name    string
	columns []string
	attrs   []Attribute
	file    *HeapFile
}

// NewRelation builds a relation over dir/<name>.db with the given schema.
// The file is opened lazily on first use.
func NewRelation(dir, name string, columns []string, attrs []Attribute) *Relation {
	return &Relation{
		name:    name,
		columns: columns,
		attrs:   attrs,
		file:    NewHeapFile(dir, name),
	}
}

// Name returns the table name.
func (r *Relation) Name() string {
	return r.name
}

// Columns returns the declared column names in order.
func (r *Relation) Columns() []string {
	return r.columns
}

// Attributes returns the attribute list parallel to Columns.
func (r *Relation) Attributes() []Attribute {
	return r.attrs
}

// Create makes the underlying heap file; fails if it already exists on disk
// while the relation is closed, and does nothing when the relation is open.
func (r *Relation) Create() error {
	return r.file.Create()
}

// CreateIfNotExists opens the heap file, creating it when the open fails
// because the file is missing.
func (r *Relation) CreateIfNotExists() error {
	err := r.Open()
	if err == nil {
		return nil
	}
	if errors.Is(err, blockfile.ErrMissing) {
		return r.Create()
	}
	return err
}

// Open opens the underlying heap file. Idempotent.
func (r *Relation) Open() error {
	return r.file.Open()
}

// Close closes the underlying heap file. Idempotent.
func (r *Relation) Close() error {
	return r.file.Close()
}

// Drop removes the relation's file. The relation is unusable afterwards.
func (r *Relation) Drop() error {
	return r.file.Drop()
}

// Insert validates and appends row, returning its handle. The row must
// supply every declared column; extra keys are ignored.
func (r *Relation) Insert(row Row) (Handle, error) {
	if err := r.Open(); err != nil {
		return Handle{}, err
	}
	full, err := r.validate(row)
	if err != nil {
		return Handle{}, err
	}
	return r.append(full)
}

// Update is not implemented.
func (r *Relation) Update(Handle, Row) error {
	return fmt.Errorf("update on %s: %w", r.name, ErrUnimplemented)
}

// Delete tombstones the record named by handle.
func (r *Relation) Delete(h Handle) error {
	if err := r.Open(); err != nil {
		return err
	}
	page, err := r.file.Get(h.Block)
	if err != nil {
		return err
	}
	page.Del(h.Record)
	return r.file.Put(page)
}

// Select returns the handles of every live record whose row matches where,
// in ascending (block, record) order. A nil where matches everything; a
// non-nil where matches rows whose named columns equal its values.
func (r *Relation) Select(where Row) ([]Handle, error) {
	if err := r.Open(); err != nil {
		return nil, err
	}
	var keys []string
	if where != nil {
		keys = make([]string, 0, len(where))
		for name := range where {
			keys = append(keys, name)
		}
	}
	var handles []Handle
	for _, blockID := range r.file.BlockIDs() {
		page, err := r.file.Get(blockID)
		if err != nil {
			return nil, err
		}
		for _, recordID := range page.IDs() {
			h := Handle{Block: blockID, Record: recordID}
			if where == nil {
				handles = append(handles, h)
				continue
			}
			sub, err := r.Project(h, keys)
			if err != nil {
				return nil, err
			}
			if maps.Equal(sub, where) {
				handles = append(handles, h)
			}
		}
	}
	return handles, nil
}

// Project reads the row at handle. With no names it returns the full row;
// otherwise a sub-row with exactly those columns, failing with
// ErrUnknownColumn for a name the row does not have.
func (r *Relation) Project(h Handle, names []string) (Row, error) {
	if err := r.Open(); err != nil {
		return nil, err
	}
	page, err := r.file.Get(h.Block)
	if err != nil {
		return nil, err
	}
	data, ok := page.Get(h.Record)
	if !ok {
		return nil, fmt.Errorf("project (%d,%d) in %s: %w", h.Block, h.Record, r.name, ErrNoRecord)
	}
	row, err := UnmarshalRow(data, r.columns, r.attrs)
	if err != nil {
		return nil, fmt.Errorf("project (%d,%d) in %s: %w", h.Block, h.Record, r.name, err)
	}
	if len(names) == 0 {
		return row, nil
	}
	result := make(Row, len(names))
	for _, name := range names {
		value, ok := row[name]
		if !ok {
			return nil, fmt.Errorf("table %s has no column %q: %w", r.name, name, ErrUnknownColumn)
		}
		result[name] = value
	}
	return result, nil
}

// validate checks that row supplies every declared column and returns the
// row trimmed to exactly the declared columns.
func (r *Relation) validate(row Row) (Row, error) {
	full := make(Row, len(r.columns))
	for _, name := range r.columns {
		value, ok := row[name]
		if !ok {
			return nil, fmt.Errorf("insert into %s without column %q: %w", r.name, name, ErrMissingColumn)
		}
		full[name] = value
	}
	return full, nil
}

// append marshals the row onto the last page, rolling over to a fresh page
// when the last one is full.
func (r *Relation) append(row Row) (Handle, error) {
	data, err := MarshalRow(row, r.columns, r.attrs)
	if err != nil {
		return Handle{}, fmt.Errorf("insert into %s: %w", r.name, err)
	}
	page, err := r.file.Get(r.file.Last())
	if err != nil {
		return Handle{}, err
	}
	recordID, err := page.Add(data)
	if errors.Is(err, ErrNoRoom) {
		page, err = r.file.GetNew()
		if err != nil {
			return Handle{}, err
		}
		recordID, err = page.Add(data)
	}
	if err != nil {
		return Handle{}, fmt.Errorf("insert into %s: %w", r.name, err)
	}
	if err := r.file.Put(page); err != nil {
		return Handle{}, err
	}
	return Handle{Block: r.file.Last(), Record: recordID}, nil
}
