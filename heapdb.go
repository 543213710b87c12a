package heapdb

import "github.com/jward/heapdb/internal/storage"

// Public type aliases for internal storage types that appear in the Engine
// API. These are Go type aliases (=) — identical to the internal types at
// compile time, so no conversion is needed.

type Value = storage.Value
type Row = storage.Row
type Handle = storage.Handle
type Attribute = storage.Attribute
type DataType = storage.DataType

const (
	IntType     = storage.IntType
	TextType    = storage.TextType
	BooleanType = storage.BooleanType
)

// IntValue returns an INT value.
func IntValue(n int32) Value { return storage.IntValue(n) }

// TextValue returns a TEXT value.
func TextValue(s string) Value { return storage.TextValue(s) }

// BoolValue returns a BOOLEAN value.
func BoolValue(b bool) Value { return storage.BoolValue(b) }
