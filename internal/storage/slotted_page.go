package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/jward/heapdb/internal/blockfile"
)

// BlockSize is the fixed block length the storage layer works with.
const BlockSize = blockfile.BlockSize

// ErrNoRoom reports that a page cannot fit a record. The heap relation
// catches it to allocate a fresh page; nothing else should.
var ErrNoRoom = errors.New("not enough room in block")

// ErrNoRecord reports an access to a record id that is tombstoned or was
// never assigned in the page.
var ErrNoRecord = errors.New("no such record")

// Each slot header is (size, loc), two little-endian uint16s. Slot 0
// deliberately overlaps the page header, so the header for slot i sits at
// offset 4*i.
const slotSize = 4

// SlottedPage lays out variable-length records inside one block. Records
// pack downward from the high end; the slot directory grows upward from the
// header. Record ids start at 1 and are never reused, even after deletion.
type SlottedPage struct {
	block      []byte
	id         uint32
	numRecords uint16
	endFree    uint16
}

// NewSlottedPage formats block as a fresh, empty page.
func NewSlottedPage(block []byte, id uint32) *SlottedPage {
	p := &SlottedPage{block: block, id: id, numRecords: 0, endFree: BlockSize - 1}
	p.writeHeader()
	return p
}

// LoadSlottedPage interprets an already-formatted block.
func LoadSlottedPage(block []byte, id uint32) *SlottedPage {
	p := &SlottedPage{block: block, id: id}
	p.numRecords = p.getN(0)
	p.endFree = p.getN(2)
	return p
}

// ID returns the block id the page was constructed with.
func (p *SlottedPage) ID() uint32 {
	return p.id
}

// Bytes returns the page's backing block.
func (p *SlottedPage) Bytes() []byte {
	return p.block
}

// Add places data in the page and returns its new record id. Fails with
// ErrNoRoom when the page cannot fit one more slot header plus the payload.
func (p *SlottedPage) Add(data []byte) (uint16, error) {
	if !p.hasRoom(len(data)) {
		return 0, fmt.Errorf("add %d bytes: %w", len(data), ErrNoRoom)
	}
	p.numRecords++
	id := p.numRecords
	size := uint16(len(data))
	p.endFree -= size
	loc := p.endFree + 1
	p.writeHeader()
	p.setSlot(id, size, loc)
	copy(p.block[loc:], data)
	return id, nil
}

// Get returns a view of the record's payload, or false when the id is
// tombstoned or out of range. The view is valid until the next mutation of
// the page.
func (p *SlottedPage) Get(id uint16) ([]byte, bool) {
	size, loc, ok := p.slot(id)
	if !ok || loc == 0 {
		return nil, false
	}
	return p.block[loc : loc+size], true
}

// Put replaces the record's payload with data, sliding neighbors to keep the
// record area packed. A growing record fails with ErrNoRoom when the page
// cannot absorb the extra bytes.
func (p *SlottedPage) Put(id uint16, data []byte) error {
	size, loc, ok := p.slot(id)
	if !ok || loc == 0 {
		return fmt.Errorf("put record %d: %w", id, ErrNoRecord)
	}
	newSize := uint16(len(data))
	if newSize > size {
		extra := newSize - size
		if !p.hasRoom(int(extra)) {
			return fmt.Errorf("put record %d, %d extra bytes: %w", id, extra, ErrNoRoom)
		}
		p.slide(loc, loc-extra)
		copy(p.block[loc-extra:], data)
	} else {
		copy(p.block[loc:], data)
		p.slide(loc+newSize, loc+size)
	}
	_, loc, _ = p.slot(id)
	p.setSlot(id, newSize, loc)
	return nil
}

// Del tombstones the record and reclaims its payload bytes. The id is not
// reused; num_records stays as is.
func (p *SlottedPage) Del(id uint16) {
	size, loc, ok := p.slot(id)
	if !ok || loc == 0 {
		return
	}
	p.setSlot(id, 0, 0)
	p.slide(loc, loc+size)
}

// IDs returns the live (non-tombstoned) record ids in ascending order.
func (p *SlottedPage) IDs() []uint16 {
	ids := make([]uint16, 0, p.numRecords)
	for id := uint16(1); id <= p.numRecords; id++ {
		if _, loc, _ := p.slot(id); loc != 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// hasRoom reports whether one new slot header plus size payload bytes fit in
// the free region.
func (p *SlottedPage) hasRoom(size int) bool {
	return slotSize*(int(p.numRecords)+1)+size <= int(p.endFree)
}

// slide moves the packed record area so that the bytes at start land at end.
// A negative shift (end < start) opens room; a positive shift closes a gap.
// Every live slot whose loc was at or left of start moves by the same shift,
// and endFree follows.
func (p *SlottedPage) slide(start, end uint16) {
	shift := int(end) - int(start)
	if shift == 0 {
		return
	}

	from := int(p.endFree) + 1
	to := from + shift
	n := int(start) - from
	copy(p.block[to:to+n], p.block[from:from+n])

	for _, id := range p.IDs() {
		size, loc, _ := p.slot(id)
		if loc <= start {
			p.setSlot(id, size, uint16(int(loc)+shift))
		}
	}
	p.endFree = uint16(int(p.endFree) + shift)
	p.writeHeader()
}

// slot reads the (size, loc) header for id. ok is false when id is zero or
// beyond the page's id space.
func (p *SlottedPage) slot(id uint16) (size, loc uint16, ok bool) {
	if id == 0 || id > p.numRecords {
		return 0, 0, false
	}
	return p.getN(slotSize * id), p.getN(slotSize*id + 2), true
}

func (p *SlottedPage) setSlot(id, size, loc uint16) {
	p.putN(slotSize*id, size)
	p.putN(slotSize*id+2, loc)
}

// writeHeader persists (num_records, end_free) at offset 0, which is slot 0.
func (p *SlottedPage) writeHeader() {
	p.putN(0, p.numRecords)
	p.putN(2, p.endFree)
}

func (p *SlottedPage) getN(offset uint16) uint16 {
	return binary.LittleEndian.Uint16(p.block[offset:])
}

func (p *SlottedPage) putN(offset, n uint16) {
	binary.LittleEndian.PutUint16(p.block[offset:], n)
}
