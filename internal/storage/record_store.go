// internal/storage/record_store.go
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// RecordStore is the row-oriented database collaborator: JSON records
// addressed by collection and id, one file per record. Concurrency is
// handled with per-file locks; writes are atomic (temp file + rename)
// and reads go through a small TTL cache.
type RecordStore struct {
	BaseDir string

	fileLocks sync.Map // path -> *sync.RWMutex

	cache        map[string]*cacheEntry
	cacheMutex   sync.RWMutex
	cacheExpiry  time.Duration
	maxCacheSize int
}

type cacheEntry struct {
	data      []byte
	timestamp time.Time
}

// NewRecordStore creates a record store rooted at baseDir.
func NewRecordStore(baseDir string) (*RecordStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("creating record store directory: %w", err)
	}

	rs := &RecordStore{
		BaseDir:      baseDir,
		cache:        make(map[string]*cacheEntry),
		cacheExpiry:  5 * time.Minute,
		maxCacheSize: 100,
	}
	rs.startCacheCleanup()
	return rs, nil
}

func (rs *RecordStore) getFileLock(fullPath string) *sync.RWMutex {
	value, _ := rs.fileLocks.LoadOrStore(fullPath, &sync.RWMutex{})
	return value.(*sync.RWMutex)
}

func (rs *RecordStore) recordPath(collection, id string) string {
	return filepath.Join(rs.BaseDir, collection, id+".json")
}

// Save serializes v and writes it atomically as collection/id.
func (rs *RecordStore) Save(collection, id string, v interface{}) error {
	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing record %s/%s: %w", collection, id, err)
	}

	fullDirPath := filepath.Join(rs.BaseDir, collection)
	fullPath := rs.recordPath(collection, id)

	lock := rs.getFileLock(fullPath)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(fullDirPath, 0755); err != nil {
		return fmt.Errorf("creating collection directory: %w", err)
	}

	// Atomic write: temp file then rename.
	tempPath := fullPath + ".tmp"
	if err := os.WriteFile(tempPath, content, 0644); err != nil {
		return fmt.Errorf("writing temp record: %w", err)
	}
	if err := os.Rename(tempPath, fullPath); err != nil {
		if removeErr := os.Remove(tempPath); removeErr != nil {
			fmt.Printf("warning: failed to clean up temp file %s after rename failure: %v\n", tempPath, removeErr)
		}
		return fmt.Errorf("writing record: %w", err)
	}

	rs.invalidateCache(fullPath)
	return nil
}

// Load reads collection/id into v.
func (rs *RecordStore) Load(collection, id string, v interface{}) error {
	content, err := rs.loadRaw(rs.recordPath(collection, id))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(content, v); err != nil {
		return fmt.Errorf("parsing record %s/%s: %w", collection, id, err)
	}
	return nil
}

func (rs *RecordStore) loadRaw(fullPath string) ([]byte, error) {
	rs.cacheMutex.RLock()
	if entry, exists := rs.cache[fullPath]; exists {
		if time.Since(entry.timestamp) < rs.cacheExpiry {
			rs.cacheMutex.RUnlock()
			return entry.data, nil
		}
	}
	rs.cacheMutex.RUnlock()

	lock := rs.getFileLock(fullPath)
	lock.RLock()
	defer lock.RUnlock()

	content, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("reading record: %w", err)
	}

	rs.updateCache(fullPath, content)
	return content, nil
}

// Exists reports whether collection/id is present.
func (rs *RecordStore) Exists(collection, id string) bool {
	_, err := os.Stat(rs.recordPath(collection, id))
	return err == nil
}

// Delete removes collection/id.
func (rs *RecordStore) Delete(collection, id string) error {
	fullPath := rs.recordPath(collection, id)

	lock := rs.getFileLock(fullPath)
	lock.Lock()
	defer lock.Unlock()

	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return fmt.Errorf("record not found: %s/%s", collection, id)
	}
	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}

	rs.invalidateCache(fullPath)
	return nil
}

// ListIDs returns the ids present in a collection. A missing
// collection is an empty collection, not an error.
func (rs *RecordStore) ListIDs(collection string) ([]string, error) {
	fullPath := filepath.Join(rs.BaseDir, collection)
	entries, err := os.ReadDir(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading collection: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}

// -----------------------------------------
// Cache management
// -----------------------------------------

func (rs *RecordStore) updateCache(path string, data []byte) {
	rs.cacheMutex.Lock()
	defer rs.cacheMutex.Unlock()

	rs.cache[path] = &cacheEntry{
		data:      data,
		timestamp: time.Now(),
	}

	if len(rs.cache) > rs.maxCacheSize {
		var oldestKey string
		var oldestTime time.Time
		for key, entry := range rs.cache {
			if oldestKey == "" || entry.timestamp.Before(oldestTime) {
				oldestKey = key
				oldestTime = entry.timestamp
			}
		}
		if oldestKey != "" {
			delete(rs.cache, oldestKey)
		}
	}
}

func (rs *RecordStore) invalidateCache(path string) {
	rs.cacheMutex.Lock()
	defer rs.cacheMutex.Unlock()
	delete(rs.cache, path)
}

func (rs *RecordStore) startCacheCleanup() {
	go func() {
		ticker := time.NewTicker(2 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			rs.cleanupExpiredCache()
		}
	}()
}

func (rs *RecordStore) cleanupExpiredCache() {
	rs.cacheMutex.Lock()
	defer rs.cacheMutex.Unlock()

	now := time.Now()
	for path, entry := range rs.cache {
		if now.Sub(entry.timestamp) > rs.cacheExpiry {
			delete(rs.cache, path)
		}
	}
}
