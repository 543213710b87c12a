package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrTooBig reports a row whose encoded form cannot be stored.
	ErrTooBig = errors.New("row too big to marshal")
	// ErrCorruptRow reports record bytes that do not decode against the
	// declared columns.
	ErrCorruptRow = errors.New("corrupt row")
)

// MarshalRow encodes row in declared column order: INT as 4 bytes little-
// endian signed, TEXT as a 2-byte little-endian length followed by the bytes,
// BOOLEAN as one 0/1 byte. Fails with ErrTooBig when the encoding would
// exceed a block or a TEXT value is longer than 65535 bytes.
func MarshalRow(row Row, columns []string, attrs []Attribute) ([]byte, error) {
	buf := make([]byte, 0, 64)
	for i, name := range columns {
		value := row[name]
		switch attrs[i].Type {
		case IntType:
			buf = binary.LittleEndian.AppendUint32(buf, uint32(value.Int))
		case TextType:
			if len(value.Text) > math.MaxUint16 {
				return nil, fmt.Errorf("column %s: text of %d bytes: %w", name, len(value.Text), ErrTooBig)
			}
			buf = binary.LittleEndian.AppendUint16(buf, uint16(len(value.Text)))
			buf = append(buf, value.Text...)
		case BooleanType:
			if value.Bool {
				buf = append(buf, 1)
			} else {
				buf = append(buf, 0)
			}
		default:
			return nil, fmt.Errorf("column %s: cannot marshal %v", name, attrs[i].Type)
		}
		if len(buf) > BlockSize {
			return nil, fmt.Errorf("row of %d+ bytes: %w", len(buf), ErrTooBig)
		}
	}
	return buf, nil
}

// UnmarshalRow decodes record bytes produced by MarshalRow over the same
// column list. Reads that would run past the buffer fail with ErrCorruptRow.
func UnmarshalRow(data []byte, columns []string, attrs []Attribute) (Row, error) {
	row := make(Row, len(columns))
	offset := 0
	for i, name := range columns {
		switch attrs[i].Type {
		case IntType:
			if offset+4 > len(data) {
				return nil, fmt.Errorf("column %s: %w", name, ErrCorruptRow)
			}
			row[name] = IntValue(int32(binary.LittleEndian.Uint32(data[offset:])))
			offset += 4
		case TextType:
			if offset+2 > len(data) {
				return nil, fmt.Errorf("column %s: %w", name, ErrCorruptRow)
			}
			size := int(binary.LittleEndian.Uint16(data[offset:]))
			offset += 2
			if offset+size > len(data) {
				return nil, fmt.Errorf("column %s: %w", name, ErrCorruptRow)
			}
			row[name] = TextValue(string(data[offset : offset+size]))
			offset += size
		case BooleanType:
			if offset+1 > len(data) {
				return nil, fmt.Errorf("column %s: %w", name, ErrCorruptRow)
			}
			row[name] = BoolValue(data[offset] != 0)
			offset++
		default:
			return nil, fmt.Errorf("column %s: cannot unmarshal %v", name, attrs[i].Type)
		}
	}
	return row, nil
}
