package storage

import (
	"fmt"
	"path/filepath"

	"github.com/jward/heapdb/internal/blockfile"
)

// HeapFile manages an ordered sequence of slotted pages persisted in one
// block file. Block ids are 1-based and dense; creation forces block 1 to
// exist so a heap file is never empty.
type HeapFile struct {
	name   string
	path   string
	store  *blockfile.Store
	last   uint32
	closed bool
}

// NewHeapFile names a heap file for table name inside dir. The file on disk
// is <name>.db; nothing is opened yet.
func NewHeapFile(dir, name string) *HeapFile {
	return &HeapFile{
		name:   name,
		path:   filepath.Join(dir, name+".db"),
		closed: true,
	}
}

// Name returns the table name the file belongs to.
func (f *HeapFile) Name() string {
	return f.name
}

// Create makes the block file (failing if it already exists) and allocates
// the first page. On a heap file that is already open it does nothing and
// returns nil.
func (f *HeapFile) Create() error {
	if !f.closed {
		return nil
	}
	store, err := blockfile.Create(f.path)
	if err != nil {
		return fmt.Errorf("create heap file %s: %w", f.name, err)
	}
	f.store = store
	f.last = 0
	f.closed = false
	if _, err := f.GetNew(); err != nil {
		return fmt.Errorf("create heap file %s: %w", f.name, err)
	}
	return nil
}

// Open opens the existing block file and recovers last from its block count.
func (f *HeapFile) Open() error {
	if !f.closed {
		return nil
	}
	store, err := blockfile.Open(f.path)
	if err != nil {
		return fmt.Errorf("open heap file %s: %w", f.name, err)
	}
	count, err := store.Count()
	if err != nil {
		store.Close()
		return fmt.Errorf("open heap file %s: %w", f.name, err)
	}
	f.store = store
	f.last = count
	f.closed = false
	return nil
}

// Close releases the block file. Idempotent.
func (f *HeapFile) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	if err := f.store.Close(); err != nil {
		return fmt.Errorf("close heap file %s: %w", f.name, err)
	}
	return nil
}

// Drop closes the file and removes it from disk. The heap file is not
// reusable afterwards.
func (f *HeapFile) Drop() error {
	if err := f.Close(); err != nil {
		return err
	}
	if err := blockfile.Remove(f.path); err != nil {
		return fmt.Errorf("drop heap file %s: %w", f.name, err)
	}
	return nil
}

// GetNew allocates the next block, writes it out as an empty slotted page,
// and returns the page read back through the store.
func (f *HeapFile) GetNew() (*SlottedPage, error) {
	id := f.last + 1
	page := NewSlottedPage(make([]byte, BlockSize), id)
	if err := f.store.Put(id, page.Bytes()); err != nil {
		return nil, fmt.Errorf("heap file %s: new block: %w", f.name, err)
	}
	block, err := f.store.Get(id)
	if err != nil {
		return nil, fmt.Errorf("heap file %s: new block: %w", f.name, err)
	}
	f.last = id
	return LoadSlottedPage(block, id), nil
}

// Get fetches block id as a slotted page.
func (f *HeapFile) Get(id uint32) (*SlottedPage, error) {
	block, err := f.store.Get(id)
	if err != nil {
		return nil, fmt.Errorf("heap file %s: %w", f.name, err)
	}
	return LoadSlottedPage(block, id), nil
}

// Put writes the page's block back to the store.
func (f *HeapFile) Put(page *SlottedPage) error {
	if err := f.store.Put(page.ID(), page.Bytes()); err != nil {
		return fmt.Errorf("heap file %s: %w", f.name, err)
	}
	return nil
}

// BlockIDs returns every allocated block id, in order.
func (f *HeapFile) BlockIDs() []uint32 {
	ids := make([]uint32, 0, f.last)
	for id := uint32(1); id <= f.last; id++ {
		ids = append(ids, id)
	}
	return ids
}

// Last returns the highest block id allocated so far.
func (f *HeapFile) Last() uint32 {
	return f.last
}
