// Package blockfile provides a keyed store of fixed-size blocks backed by a
// single SQLite file. It plays the record-file role for the heap storage
// layer: blocks are addressed by a dense, 1-based integer key, and every
// block is exactly BlockSize bytes.
package blockfile

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/mattn/go-sqlite3"
)

// BlockSize is the fixed length of every block in a store.
const BlockSize = 4096

var (
	// ErrExists is returned by Create when the file is already present.
	ErrExists = errors.New("block file already exists")
	// ErrMissing is returned by Open when the file is not present.
	ErrMissing = errors.New("block file does not exist")
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS blocks (
  id    INTEGER PRIMARY KEY,
  data  BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS meta (
  key    TEXT PRIMARY KEY,
  value  INTEGER NOT NULL
);

INSERT OR IGNORE INTO meta (key, value) VALUES ('block_size', 4096);
`

// Store is a SQLite-backed block file. All access is single-threaded; the
// store performs no locking of its own.
type Store struct {
	path string
	db   *sql.DB
}

// Create makes a new block file at path. Fails with ErrExists when a file is
// already there.
func Create(path string) (*Store, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("create %s: %w", path, ErrExists)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return open(path)
}

// Open opens an existing block file at path. Fails with ErrMissing when no
// file is there.
func Open(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("open %s: %w", path, ErrMissing)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return open(path)
}

func open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A previous owner of the file may still be releasing its lock; retry
	// the first touch briefly before giving up.
	ping := func() error { return db.Ping() }
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 5 * time.Second
	if err := backoff.Retry(ping, bo); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	s := &Store{path: path, db: db}
	if err := s.checkBlockSize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// checkBlockSize enforces the fixed record length recorded when the file was
// first created.
func (s *Store) checkBlockSize() error {
	var size int
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = 'block_size'").Scan(&size)
	if err != nil {
		return fmt.Errorf("read block size: %w", err)
	}
	if size != BlockSize {
		return fmt.Errorf("block size mismatch in %s: file has %d, want %d", s.path, size, BlockSize)
	}
	return nil
}

// Path returns the file path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Get reads the block stored under key. The returned slice is owned by the
// caller and always BlockSize bytes long.
func (s *Store) Get(key uint32) ([]byte, error) {
	var data []byte
	err := s.db.QueryRow("SELECT data FROM blocks WHERE id = ?", int64(key)).Scan(&data)
	if err != nil {
		return nil, fmt.Errorf("get block %d: %w", key, err)
	}
	if len(data) != BlockSize {
		return nil, fmt.Errorf("get block %d: stored length %d, want %d", key, len(data), BlockSize)
	}
	return data, nil
}

// Put writes block under key, replacing any previous contents. The block
// must be exactly BlockSize bytes.
func (s *Store) Put(key uint32, block []byte) error {
	if len(block) != BlockSize {
		return fmt.Errorf("put block %d: length %d, want %d", key, len(block), BlockSize)
	}
	_, err := s.db.Exec(
		"INSERT INTO blocks (id, data) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET data = excluded.data",
		int64(key), block,
	)
	if err != nil {
		return fmt.Errorf("put block %d: %w", key, err)
	}
	return nil
}

// Count returns the number of blocks stored in the file.
func (s *Store) Count() (uint32, error) {
	var n uint32
	if err := s.db.QueryRow("SELECT COUNT(*) FROM blocks").Scan(&n); err != nil {
		return 0, fmt.Errorf("count blocks: %w", err)
	}
	return n, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Remove deletes the block file at path from disk.
func Remove(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}
