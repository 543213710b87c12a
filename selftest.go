package heapdb

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jward/heapdb/internal/sqlparse"
	"github.com/jward/heapdb/internal/storage"
)

const gettysburg = "Four score and seven years ago our fathers brought forth on this continent, a new nation, conceived in Liberty, and dedicated to the proposition that all men are created equal."

// SelfTest runs the built-in suites against a scratch directory under dir,
// printing one line per suite. It backs the shell's "test" command and
// returns true when every suite passes.
func SelfTest(dir string, w io.Writer) bool {
	scratch, err := os.MkdirTemp(dir, "_selftest")
	if err != nil {
		fmt.Fprintf(w, "FAILED TEST: scratch directory: %s\n", err)
		return false
	}
	defer os.RemoveAll(scratch)

	suites := []struct {
		name string
		run  func(dir string) error
	}{
		{"slotted page", testSlottedPage},
		{"heap storage", testHeapStorage},
		{"sql exec", testSQLExec},
	}
	ok := true
	for _, suite := range suites {
		if err := suite.run(scratch); err != nil {
			fmt.Fprintf(w, "FAILED TEST: %s: %s\n", suite.name, err)
			ok = false
		} else {
			fmt.Fprintf(w, "%s tests ok\n", suite.name)
		}
	}
	return ok
}

// testSlottedPage exercises add, get, put in both directions, del, ids, the
// no-room path, and a multi-page volume scan.
func testSlottedPage(string) error {
	page := storage.NewSlottedPage(make([]byte, storage.BlockSize), 1)

	rec1 := []byte("hello\x00")
	id, err := page.Add(rec1)
	if err != nil || id != 1 {
		return fmt.Errorf("add id 1: id=%d err=%v", id, err)
	}
	if got, ok := page.Get(1); !ok || !bytes.Equal(got, rec1) {
		return fmt.Errorf("get 1 back: %q", got)
	}

	rec2 := []byte("goodbye\x00")
	id, err = page.Add(rec2)
	if err != nil || id != 2 {
		return fmt.Errorf("add id 2: id=%d err=%v", id, err)
	}
	if got, ok := page.Get(2); !ok || !bytes.Equal(got, rec2) {
		return fmt.Errorf("get 2 back: %q", got)
	}

	// Expanding put slides record 2 out of the way.
	bigger := []byte("something much bigger\x00")
	if err := page.Put(1, bigger); err != nil {
		return fmt.Errorf("expanding put of 1: %w", err)
	}
	if got, ok := page.Get(2); !ok || !bytes.Equal(got, rec2) {
		return fmt.Errorf("get 2 back after expanding put of 1: %q", got)
	}
	if got, ok := page.Get(1); !ok || !bytes.Equal(got, bigger) {
		return fmt.Errorf("get 1 back after expanding put of 1: %q", got)
	}

	// Contracting put restores the original layout.
	if err := page.Put(1, rec1); err != nil {
		return fmt.Errorf("contracting put of 1: %w", err)
	}
	if got, ok := page.Get(2); !ok || !bytes.Equal(got, rec2) {
		return fmt.Errorf("get 2 back after contracting put of 1: %q", got)
	}
	if got, ok := page.Get(1); !ok || !bytes.Equal(got, rec1) {
		return fmt.Errorf("get 1 back after contracting put of 1: %q", got)
	}

	ids := page.IDs()
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		return fmt.Errorf("ids with 2 records: %v", ids)
	}
	page.Del(1)
	ids = page.IDs()
	if len(ids) != 1 || ids[0] != 2 {
		return fmt.Errorf("ids with 1 record remaining: %v", ids)
	}
	if _, ok := page.Get(1); ok {
		return errors.New("get of deleted record was not gone")
	}

	// Too big only because the page already holds a record.
	if _, err := page.Add(make([]byte, storage.BlockSize-10)); !errors.Is(err, storage.ErrNoRoom) {
		return fmt.Errorf("add too big: %v", err)
	}

	// More volume: the marshalled (-1, gettysburg) record across many pages.
	record := make([]byte, 0, 6+len(gettysburg))
	record = binary.LittleEndian.AppendUint32(record, uint32(0xFFFFFFFF)) // int32(-1)
	record = binary.LittleEndian.AppendUint16(record, uint16(len(gettysburg)))
	record = append(record, gettysburg...)

	var pages []*storage.SlottedPage
	blockID := uint32(1)
	page = storage.NewSlottedPage(make([]byte, storage.BlockSize), blockID)
	for i := 0; i < 10000; i++ {
		if _, err := page.Add(record); errors.Is(err, storage.ErrNoRoom) {
			pages = append(pages, page)
			blockID++
			page = storage.NewSlottedPage(make([]byte, storage.BlockSize), blockID)
			if _, err := page.Add(record); err != nil {
				return fmt.Errorf("add to fresh page: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("volume add: %w", err)
		}
	}
	pages = append(pages, page)
	for _, p := range pages {
		for _, id := range p.IDs() {
			got, ok := p.Get(id)
			if !ok || !bytes.Equal(got, record) {
				return fmt.Errorf("volume block %d record %d mismatch", p.ID(), id)
			}
		}
	}
	return nil
}

func volumeRow(a int32) storage.Row {
	return storage.Row{
		"a": storage.IntValue(a),
		"b": storage.TextValue(gettysburg),
		"c": storage.BoolValue(a%2 == 0),
	}
}

// testHeapStorage exercises relation create/drop, inserts spanning many
// pages, select ordering, project, and delete.
func testHeapStorage(dir string) error {
	columns := []string{"a", "b", "c"}
	attrs := []storage.Attribute{
		{Type: storage.IntType},
		{Type: storage.TextType},
		{Type: storage.BooleanType},
	}

	scratch := storage.NewRelation(dir, "_test_create_drop", columns, attrs)
	if err := scratch.Create(); err != nil {
		return fmt.Errorf("create: %w", err)
	}
	if err := scratch.Drop(); err != nil {
		return fmt.Errorf("drop: %w", err)
	}

	table := storage.NewRelation(dir, "_test_data", columns, attrs)
	if err := table.CreateIfNotExists(); err != nil {
		return fmt.Errorf("create_if_not_exists: %w", err)
	}
	defer table.Drop()

	if _, err := table.Insert(volumeRow(-1)); err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	handles, err := table.Select(nil)
	if err != nil || len(handles) != 1 {
		return fmt.Errorf("select after insert: n=%d err=%v", len(handles), err)
	}
	row, err := table.Project(handles[0], nil)
	if err != nil {
		return fmt.Errorf("project: %w", err)
	}
	if row["a"].Int != -1 || row["b"].Text != gettysburg || row["c"].Bool {
		return fmt.Errorf("projected row mismatch: %v", row)
	}

	var last storage.Handle
	for i := 0; i < 1000; i++ {
		last, err = table.Insert(volumeRow(int32(i)))
		if err != nil {
			return fmt.Errorf("insert %d: %w", i, err)
		}
	}
	handles, err = table.Select(nil)
	if err != nil || len(handles) != 1001 {
		return fmt.Errorf("select after many inserts: n=%d err=%v", len(handles), err)
	}
	want := int32(-1)
	for _, h := range handles {
		row, err := table.Project(h, nil)
		if err != nil {
			return fmt.Errorf("project %v: %w", h, err)
		}
		if row["a"].Int != want || row["c"].Bool != (want%2 == 0) {
			return fmt.Errorf("row %v: a=%d want %d", h, row["a"].Int, want)
		}
		want++
	}

	if err := table.Delete(last); err != nil {
		return fmt.Errorf("del: %w", err)
	}
	handles, err = table.Select(nil)
	if err != nil || len(handles) != 1000 {
		return fmt.Errorf("select after del: n=%d err=%v", len(handles), err)
	}
	return nil
}

// testSQLExec drives the DDL surface end to end against a fresh engine.
func testSQLExec(dir string) error {
	engine, err := New(filepath.Join(dir, "sqlexec"))
	if err != nil {
		return err
	}
	defer engine.Close()

	exec := func(sql string) (*QueryResult, error) {
		stmt, err := sqlparse.Parse(sql)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", sql, err)
		}
		return engine.Execute(stmt)
	}
	expectRows := func(sql string, n int) error {
		result, err := exec(sql)
		if err != nil {
			return fmt.Errorf("%s: %w", sql, err)
		}
		if len(result.Rows) != n {
			return fmt.Errorf("%s: got %d rows, want %d", sql, len(result.Rows), n)
		}
		return nil
	}
	expectMessage := func(sql, message string) error {
		result, err := exec(sql)
		if err != nil {
			return fmt.Errorf("%s: %w", sql, err)
		}
		if result.Message != message {
			return fmt.Errorf("%s: got message %q, want %q", sql, result.Message, message)
		}
		return nil
	}

	// The schema tables describe themselves.
	for _, step := range []struct {
		sql string
		n   int
	}{
		{"show columns from _tables", 1},
		{"show columns from _columns", 3},
		{"show columns from _indices", 6},
		{"show tables", 0},
	} {
		if err := expectRows(step.sql, step.n); err != nil {
			return err
		}
	}

	// Create, index, and tear down a user table.
	steps := []func() error{
		func() error { return expectMessage("create table egg (yolk text, white int, shell int)", "created table egg") },
		func() error { return expectRows("show tables", 1) },
		func() error { return expectRows("show index from egg", 0) },
		func() error { return expectMessage("create index chicken on egg (yolk, shell)", "created index chicken") },
		func() error { return expectRows("show index from egg", 2) },
		func() error { return expectMessage("drop index chicken from egg", "dropped index chicken") },
		func() error { return expectRows("show index from egg", 0) },
		func() error { return expectMessage("drop table egg", "dropped table egg") },
		func() error { return expectRows("show tables", 0) },

		// Indices cascade on drop table.
		func() error { return expectMessage("create table egg (yolk text, white int, shell int)", "created table egg") },
		func() error { return expectMessage("create index chicken on egg (yolk, shell)", "created index chicken") },
		func() error { return expectRows("show index from egg", 2) },
		func() error { return expectMessage("drop table egg", "dropped table egg") },
		func() error { return expectRows("show tables", 0) },
		func() error { return expectRows("show index from egg", 0) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}
