// internal/storage/record_store_test.go
package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRecord struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestRecordStoreRoundtrip(t *testing.T) {
	store, err := NewRecordStore(t.TempDir())
	require.NoError(t, err)

	in := testRecord{ID: "r1", Name: "first", Count: 3}
	require.NoError(t, store.Save("widgets", "r1", in))

	var out testRecord
	require.NoError(t, store.Load("widgets", "r1", &out))
	assert.Equal(t, in, out)

	// A second save overwrites in place.
	in.Count = 4
	require.NoError(t, store.Save("widgets", "r1", in))
	require.NoError(t, store.Load("widgets", "r1", &out))
	assert.Equal(t, 4, out.Count)
}

func TestRecordStoreExists(t *testing.T) {
	store, err := NewRecordStore(t.TempDir())
	require.NoError(t, err)

	assert.False(t, store.Exists("widgets", "r1"))
	require.NoError(t, store.Save("widgets", "r1", testRecord{ID: "r1"}))
	assert.True(t, store.Exists("widgets", "r1"))
}

func TestRecordStoreDelete(t *testing.T) {
	store, err := NewRecordStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save("widgets", "r1", testRecord{ID: "r1"}))
	require.NoError(t, store.Delete("widgets", "r1"))
	assert.False(t, store.Exists("widgets", "r1"))

	// Deleting a record read through the cache must not serve stale
	// data afterwards.
	require.NoError(t, store.Save("widgets", "r2", testRecord{ID: "r2", Count: 1}))
	var out testRecord
	require.NoError(t, store.Load("widgets", "r2", &out))
	require.NoError(t, store.Delete("widgets", "r2"))
	assert.Error(t, store.Load("widgets", "r2", &out))

	t.Run("missing record", func(t *testing.T) {
		assert.Error(t, store.Delete("widgets", "nope"))
	})
}

func TestRecordStoreListIDs(t *testing.T) {
	store, err := NewRecordStore(t.TempDir())
	require.NoError(t, err)

	t.Run("missing collection is empty, not an error", func(t *testing.T) {
		ids, err := store.ListIDs("nothing-here")
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	require.NoError(t, store.Save("widgets", "a", testRecord{ID: "a"}))
	require.NoError(t, store.Save("widgets", "b", testRecord{ID: "b"}))

	// Stray non-record files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(store.BaseDir, "widgets", "notes.txt"), []byte("x"), 0644))

	ids, err := store.ListIDs("widgets")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}

func TestRecordStoreCollectionsAreIsolated(t *testing.T) {
	store, err := NewRecordStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save("widgets", "r1", testRecord{ID: "r1", Name: "widget"}))
	require.NoError(t, store.Save("gadgets", "r1", testRecord{ID: "r1", Name: "gadget"}))

	var widget, gadget testRecord
	require.NoError(t, store.Load("widgets", "r1", &widget))
	require.NoError(t, store.Load("gadgets", "r1", &gadget))
	assert.Equal(t, "widget", widget.Name)
	assert.Equal(t, "gadget", gadget.Name)
}
