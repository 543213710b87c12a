// Package storage implements the heap storage engine: typed values and rows,
// slotted pages inside fixed-size blocks, heap files of such pages, and heap
// relations that marshal rows to and from page records.
package storage

import "fmt"

// DataType tags a Value and describes a column.
type DataType uint8

const (
	IntType DataType = iota + 1
	TextType
	BooleanType
)

// String returns the SQL spelling of the type.
func (dt DataType) String() string {
	switch dt {
	case IntType:
		return "INT"
	case TextType:
		return "TEXT"
	case BooleanType:
		return "BOOLEAN"
	default:
		return fmt.Sprintf("DataType(%d)", uint8(dt))
	}
}

// DataTypeOf maps a SQL type name to its DataType tag. The second return is
// false for names the engine does not know.
func DataTypeOf(name string) (DataType, bool) {
	switch name {
	case "INT":
		return IntType, true
	case "TEXT":
		return TextType, true
	case "BOOLEAN":
		return BooleanType, true
	default:
		return 0, false
	}
}

// Attribute describes one column: just a data-type tag, no width or
// nullability.
type Attribute struct {
	Type DataType
}

// Value is a tagged scalar. Only the field matching Type is meaningful;
// the zero values of the others make Value directly comparable with ==.
type Value struct {
	Type DataType
	Int  int32
	Text string
	Bool bool
}

// IntValue returns an INT value.
func IntValue(n int32) Value {
	return Value{Type: IntType, Int: n}
}

// TextValue returns a TEXT value.
func TextValue(s string) Value {
	return Value{Type: TextType, Text: s}
}

// BoolValue returns a BOOLEAN value.
func BoolValue(b bool) Value {
	return Value{Type: BooleanType, Bool: b}
}

// String renders the value the way the shell prints it: INT as decimal, TEXT
// double-quoted, BOOLEAN as true/false.
func (v Value) String() string {
	switch v.Type {
	case IntType:
		return fmt.Sprintf("%d", v.Int)
	case TextType:
		return fmt.Sprintf("%q", v.Text)
	case BooleanType:
		if v.Bool {
			return "true"
		}
		return "false"
	default:
		return "???"
	}
}

// Row maps column names to values. The owning relation's column list is the
// authoritative key set and ordering.
type Row map[string]Value

// Handle locates one record: the block holding it and the record id within
// that block. A handle stays valid until the record it names is deleted.
type Handle struct {
	Block  uint32
	Record uint16
}
