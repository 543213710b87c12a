package storage

import (
	"testing"

	"github.com/jward/heapdb/internal/blockfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapFile_CreateForcesFirstBlock(t *testing.T) {
	t.Parallel()
	f := NewHeapFile(t.TempDir(), "first")
	require.NoError(t, f.Create())
	defer f.Close()

	assert.Equal(t, uint32(1), f.Last())
	assert.Equal(t, []uint32{1}, f.BlockIDs())

	page, err := f.Get(1)
	require.NoError(t, err)
	assert.Empty(t, page.IDs())
}

func TestHeapFile_CreateTwiceFails(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	f := NewHeapFile(dir, "dup")
	require.NoError(t, f.Create())
	require.NoError(t, f.Close())

	again := NewHeapFile(dir, "dup")
	require.ErrorIs(t, again.Create(), blockfile.ErrExists)
}

func TestHeapFile_GetNewAllocatesInOrder(t *testing.T) {
	t.Parallel()
	f := NewHeapFile(t.TempDir(), "grow")
	require.NoError(t, f.Create())
	defer f.Close()

	page, err := f.GetNew()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), page.ID())

	page, err = f.GetNew()
	require.NoError(t, err)
	assert.Equal(t, uint32(3), page.ID())
	assert.Equal(t, []uint32{1, 2, 3}, f.BlockIDs())
}

func TestHeapFile_ReopenRecoversLast(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	f := NewHeapFile(dir, "persist")
	require.NoError(t, f.Create())

	page, err := f.GetNew()
	require.NoError(t, err)
	_, err = page.Add([]byte("kept"))
	require.NoError(t, err)
	require.NoError(t, f.Put(page))
	require.NoError(t, f.Close())

	f = NewHeapFile(dir, "persist")
	require.NoError(t, f.Open())
	defer f.Close()
	assert.Equal(t, uint32(2), f.Last())

	page, err = f.Get(2)
	require.NoError(t, err)
	got, ok := page.Get(1)
	require.True(t, ok)
	assert.Equal(t, []byte("kept"), got)
}

func TestHeapFile_CloseIdempotent(t *testing.T) {
	t.Parallel()
	f := NewHeapFile(t.TempDir(), "closer")
	require.NoError(t, f.Create())
	require.NoError(t, f.Close())
	require.NoError(t, f.Close())
}

func TestHeapFile_DropRemovesFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	f := NewHeapFile(dir, "doomed")
	require.NoError(t, f.Create())
	require.NoError(t, f.Drop())

	again := NewHeapFile(dir, "doomed")
	require.ErrorIs(t, again.Open(), blockfile.ErrMissing)
}
