// Package heapdb is a minimal relational storage engine with a SQL DDL
// front-end. Tables are heaps of variable-length rows stored in slotted
// pages inside fixed-size blocks; a self-describing catalog (_tables,
// _columns, _indices) is itself kept in heap relations and bootstrapped on
// first use.
//
// # Layers
//
// From the bottom up:
//
//  1. Block store (internal/blockfile): fixed-size blocks under dense
//     1-based integer keys, one SQLite-backed file per relation.
//
//  2. Slotted page (internal/storage): variable-length records inside one
//     block, with in-place insert, update, delete, and compaction.
//
//  3. Heap file and heap relation (internal/storage): page allocation and
//     typed rows marshalled to and from page records, with sequential
//     scans and predicate filtering.
//
//  4. Catalog (internal/catalog): schema tables with natural-key
//     uniqueness, identifier acceptance, and caches of instantiated
//     relations and indices.
//
// # Usage
//
// Create an Engine over an environment directory, then feed it parsed
// statements:
//
//	e, err := heapdb.New("path/to/env")
//	if err != nil { ... }
//	defer e.Close()
//
//	stmt, err := sqlparse.Parse("CREATE TABLE egg (yolk TEXT, white INT)")
//	result, err := e.Execute(stmt)
//	fmt.Println(result.Message)
//
// The engine executes DDL only: CREATE/DROP TABLE, CREATE/DROP INDEX, and
// the SHOW forms. SELECT also parses (so the shell can echo it) but
// executes to a "not implemented" result; other statements fail to parse.
package heapdb
