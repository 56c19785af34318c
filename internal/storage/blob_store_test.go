// internal/storage/blob_store_test.go
package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBlobStore(t *testing.T) *BlobStore {
	t.Helper()
	bs, err := NewBlobStore(t.TempDir(), "http://localhost:8080/")
	require.NoError(t, err)
	return bs
}

func TestEnsureBucket(t *testing.T) {
	bs := newTestBlobStore(t)

	require.NoError(t, bs.EnsureBucket("clips"))
	// Provisioning again is a no-op.
	require.NoError(t, bs.EnsureBucket("clips"))

	info, err := os.Stat(filepath.Join(bs.BaseDir, "clips"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	t.Run("path collision with a file", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(bs.BaseDir, "taken"), []byte("x"), 0644))
		assert.Error(t, bs.EnsureBucket("taken"))
	})
}

func TestEnsureRequiredBuckets(t *testing.T) {
	bs := newTestBlobStore(t)
	require.NoError(t, bs.EnsureRequiredBuckets())

	for _, bucket := range RequiredBuckets {
		info, err := os.Stat(filepath.Join(bs.BaseDir, bucket))
		require.NoError(t, err, "bucket %s", bucket)
		assert.True(t, info.IsDir())
	}
}

func TestBlobStorePutGet(t *testing.T) {
	bs := newTestBlobStore(t)
	require.NoError(t, bs.EnsureBucket(BucketUserResponses))

	data := []byte("webm bytes")
	locator, err := bs.Put(BucketUserResponses, "alice/scen1/seg2_1000.webm", data)
	require.NoError(t, err)

	// The trailing slash on the base URL is not doubled.
	assert.Equal(t, "http://localhost:8080/storage/user-responses/alice/scen1/seg2_1000.webm", locator)

	got, err := bs.Get(BucketUserResponses, "alice/scen1/seg2_1000.webm")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	assert.True(t, bs.Exists(BucketUserResponses, "alice/scen1/seg2_1000.webm"))
	assert.False(t, bs.Exists(BucketUserResponses, "alice/scen1/other.webm"))

	t.Run("empty objects are accepted", func(t *testing.T) {
		_, err := bs.Put(BucketUserResponses, "alice/scen1/empty.webm", nil)
		require.NoError(t, err)
		got, err := bs.Get(BucketUserResponses, "alice/scen1/empty.webm")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("missing object", func(t *testing.T) {
		_, err := bs.Get(BucketUserResponses, "nope.webm")
		assert.Error(t, err)
	})
}

func TestBlobStoreDelete(t *testing.T) {
	bs := newTestBlobStore(t)
	require.NoError(t, bs.EnsureBucket("clips"))

	_, err := bs.Put("clips", "a.webm", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, bs.Delete("clips", "a.webm"))
	assert.False(t, bs.Exists("clips", "a.webm"))
	assert.Error(t, bs.Delete("clips", "a.webm"))
}

func TestBlobStoreSizeLimit(t *testing.T) {
	bs := newTestBlobStore(t)
	require.NoError(t, bs.EnsureBucket("clips"))

	_, err := bs.Put("clips", "huge.webm", make([]byte, MaxObjectSize+1))
	assert.Error(t, err)
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		want    string
		wantErr bool
	}{
		{"plain key", "a.webm", "a.webm", false},
		{"namespaced key", "alice/scen/seg_1.webm", "alice/scen/seg_1.webm", false},
		{"leading slash stripped", "/alice/a.webm", "alice/a.webm", false},
		{"backslashes normalized", `alice\a.webm`, "alice/a.webm", false},
		{"empty key", "", "", true},
		{"traversal", "../etc/passwd", "", true},
		{"embedded traversal", "alice/../../x", "", true},
		{"empty path part", "alice//a.webm", "", true},
		{"dot part", "alice/./a.webm", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sanitizeKey(tt.key)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
