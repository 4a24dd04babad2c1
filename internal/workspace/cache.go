package workspace

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"lukechampine.com/blake3"
)

type cacheEntry struct {
	doc     *Document
	modTime time.Time
	size    int64
	hash    string
}

// FileCache opens files once and reuses their text models until the file
// changes on disk. Entries are replaced, never mutated, so a looked-up entry
// can be read without the lock. It is safe for concurrent use.
type FileCache struct {
	root string

	mu      sync.Mutex
	entries map[string]*cacheEntry
	loads   int
}

// NewFileCache creates a cache resolving relative paths against root.
func NewFileCache(root string) *FileCache {
	return &FileCache{
		root:    root,
		entries: make(map[string]*cacheEntry),
	}
}

// Root returns the directory relative paths are resolved against.
func (c *FileCache) Root() string {
	return c.root
}

// Abs resolves path against the cache root.
func (c *FileCache) Abs(path string) string {
	if filepath.IsAbs(path) || c.root == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(c.root, path)
}

// Open returns the document for path, reading it when it is not cached or has
// changed since the last read.
func (c *FileCache) Open(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	abs := c.Abs(path)

	c.mu.Lock()
	entry := c.entries[abs]
	c.mu.Unlock()

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", abs, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", abs)
	}
	if entry != nil && entry.modTime.Equal(info.ModTime()) && entry.size == info.Size() {
		return entry.doc, nil
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", abs, err)
	}
	hash := HashContent(content)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loads++
	var doc *Document
	if current := c.entries[abs]; current != nil && current.hash == hash {
		doc = current.doc
	} else {
		doc = NewDocument(abs, content)
	}
	c.entries[abs] = &cacheEntry{
		doc:     doc,
		modTime: info.ModTime(),
		size:    info.Size(),
		hash:    hash,
	}
	return doc, nil
}

// Loads reports how many times a file was read from disk.
func (c *FileCache) Loads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loads
}

// HashContent returns a short blake3 digest of content.
func HashContent(content []byte) string {
	sum := blake3.Sum256(content)
	return hex.EncodeToString(sum[:])[:16]
}
