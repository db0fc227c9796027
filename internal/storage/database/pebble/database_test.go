package pebble

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xHustling/ERC721-Drops/internal/storage/database"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestReadWriteDelete(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	// Absent keys surface the shared sentinel so state-resume code can
	// distinguish "fresh store" from a real failure.
	_, err := db.Read(ctx, []byte("missing"))
	assert.ErrorIs(t, err, database.ErrKeyNotFound)

	require.NoError(t, db.Write(ctx, []byte("k"), []byte("v")))
	val, err := db.Read(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)

	require.NoError(t, db.Delete(ctx, []byte("k")))
	_, err = db.Read(ctx, []byte("k"))
	assert.ErrorIs(t, err, database.ErrKeyNotFound)
}

func TestBatchAppliesAllOperations(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, db.Write(ctx, []byte("old"), []byte("x")))

	err := db.Batch(ctx, []database.BatchOperation{
		{Type: database.BatchPut, Key: []byte("a"), Value: []byte("1")},
		{Type: database.BatchPut, Key: []byte("b"), Value: []byte("2")},
		{Type: database.BatchDelete, Key: []byte("old")},
	})
	require.NoError(t, err)

	val, err := db.Read(ctx, []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), val)
	_, err = db.Read(ctx, []byte("old"))
	assert.ErrorIs(t, err, database.ErrKeyNotFound)
}

func TestIteratorRange(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	for _, k := range []string{"p/3", "p/1", "q/1", "p/2", "o/9"} {
		require.NoError(t, db.Write(ctx, []byte(k), []byte(k)))
	}

	// [start, end) in key order; "q/1" sits on the exclusive bound.
	iter, err := db.Iterator(ctx, []byte("p/"), []byte("q/1"))
	require.NoError(t, err)
	defer iter.Close()

	var keys []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
		assert.Equal(t, iter.Key(), iter.Value())
	}
	require.NoError(t, iter.Error())
	assert.Equal(t, []string{"p/1", "p/2", "p/3"}, keys)
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	db, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, db.Write(ctx, []byte("k"), []byte("v")))
	require.NoError(t, db.Close())

	db, err = Open(dir)
	require.NoError(t, err)
	defer db.Close()

	val, err := db.Read(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)
}

func TestClosedDB(t *testing.T) {
	ctx := context.Background()
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = db.Read(ctx, []byte("k"))
	assert.ErrorIs(t, err, database.ErrDBClosed)
	assert.ErrorIs(t, db.Write(ctx, []byte("k"), nil), database.ErrDBClosed)
	require.NoError(t, db.Close())
}
