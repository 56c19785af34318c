// internal/storage/blob_store.go
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// MaxObjectSize caps uploaded objects at 50 MiB.
const MaxObjectSize = 52428800

// Well-known buckets, provisioned idempotently at startup.
const (
	BucketUserResponses      = "user-responses"
	BucketScenarioVideos     = "scenario-videos"
	BucketScenarioThumbnails = "scenario-thumbnails"
	BucketExpertResponses    = "expert-responses"
)

// RequiredBuckets lists every bucket the application needs.
var RequiredBuckets = []string{
	BucketUserResponses,
	BucketScenarioVideos,
	BucketScenarioThumbnails,
	BucketExpertResponses,
}

// BlobStore is the object-storage collaborator: opaque blobs addressed
// by bucket and key, each upload yielding a public locator URL.
type BlobStore struct {
	BaseDir       string
	PublicBaseURL string // e.g. http://localhost:8080

	mu sync.Mutex
}

// NewBlobStore creates a blob store rooted at baseDir. publicBaseURL
// is the prefix of locators handed back to clients.
func NewBlobStore(baseDir, publicBaseURL string) (*BlobStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("creating blob store directory: %w", err)
	}
	return &BlobStore{
		BaseDir:       baseDir,
		PublicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

// EnsureBucket provisions a bucket if it does not exist yet.
// Check-then-create, safe to run on every startup.
func (bs *BlobStore) EnsureBucket(bucket string) error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	path := filepath.Join(bs.BaseDir, bucket)
	if info, err := os.Stat(path); err == nil {
		if !info.IsDir() {
			return fmt.Errorf("bucket path exists but is not a directory: %s", bucket)
		}
		return nil
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("creating bucket %s: %w", bucket, err)
	}
	return nil
}

// EnsureRequiredBuckets provisions every well-known bucket.
func (bs *BlobStore) EnsureRequiredBuckets() error {
	for _, bucket := range RequiredBuckets {
		if err := bs.EnsureBucket(bucket); err != nil {
			return err
		}
	}
	return nil
}

// Put uploads a blob under bucket/key and returns its public locator.
// Keys may contain slashes (user/scenario/segment namespacing).
func (bs *BlobStore) Put(bucket, key string, data []byte) (string, error) {
	if len(data) > MaxObjectSize {
		return "", fmt.Errorf("object exceeds size limit (%d > %d bytes)", len(data), MaxObjectSize)
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}

	fullPath := filepath.Join(bs.BaseDir, bucket, filepath.FromSlash(cleanKey))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("creating object directory: %w", err)
	}

	tempPath := fullPath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return "", fmt.Errorf("writing object: %w", err)
	}
	if err := os.Rename(tempPath, fullPath); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("finalizing object: %w", err)
	}

	return bs.PublicLocator(bucket, cleanKey), nil
}

// Get reads a blob back by bucket and key.
func (bs *BlobStore) Get(bucket, key string) ([]byte, error) {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(bs.BaseDir, bucket, filepath.FromSlash(cleanKey)))
	if err != nil {
		return nil, fmt.Errorf("reading object %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

// Exists reports whether bucket/key holds an object.
func (bs *BlobStore) Exists(bucket, key string) bool {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return false
	}
	_, statErr := os.Stat(filepath.Join(bs.BaseDir, bucket, filepath.FromSlash(cleanKey)))
	return statErr == nil
}

// Delete removes an object.
func (bs *BlobStore) Delete(bucket, key string) error {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(bs.BaseDir, bucket, filepath.FromSlash(cleanKey))); err != nil {
		return fmt.Errorf("deleting object %s/%s: %w", bucket, key, err)
	}
	return nil
}

// PublicLocator builds the public URL for an object.
func (bs *BlobStore) PublicLocator(bucket, key string) string {
	return fmt.Sprintf("%s/storage/%s/%s", bs.PublicBaseURL, bucket, key)
}

// sanitizeKey rejects traversal attempts and normalizes separators.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimLeft(strings.ReplaceAll(key, "\\", "/"), "/")
	if key == "" {
		return "", fmt.Errorf("empty object key")
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("invalid object key: %s", key)
		}
	}
	return key, nil
}
