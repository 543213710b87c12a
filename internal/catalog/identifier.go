package catalog

import (
	"strconv"

	"github.com/jward/heapdb/internal/sqlparse"
)

// IsAcceptableIdentifier reports whether id may name a table, column, or
// index. Reserved SQL words pass (the parser already filters the ones that
// matter); purely numeric strings do not; otherwise every character must be
// alphanumeric, '$', or '_'.
func IsAcceptableIdentifier(id string) bool {
	if sqlparse.IsReservedWord(id) {
		return true
	}
	if id == "" {
		return false
	}
	if _, err := strconv.Atoi(id); err == nil {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '$', c == '_':
		default:
			return false
		}
	}
	return true
}

// IsAcceptableDataType reports whether dt is a type the catalog stores.
func IsAcceptableDataType(dt string) bool {
	return dt == "INT" || dt == "TEXT" || dt == "BOOLEAN"
}
