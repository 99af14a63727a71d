// Package cache remembers which inputs were generated from which source, so
// unchanged files are not rewritten.
package cache

import (
	"context"
	"crypto/sha1"
	"fmt"
	"os"
	"path/filepath"

	"github.com/keshon/datastore"
)

// Cache maps input paths to the hash of what they were generated from.
// A nil *Cache is valid and remembers nothing.
type Cache struct {
	ds     *datastore.DataStore
	cancel context.CancelFunc
}

// Open loads or creates the cache file at path. The store saves in the
// background until ctx is done or Close is called.
func Open(ctx context.Context, path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("open cache %s: %w", path, err)
		}
	}
	ctx, cancel := context.WithCancel(ctx)
	ds, err := datastore.New(ctx, path)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}
	return &Cache{ds: ds, cancel: cancel}, nil
}

// Hash returns a deterministic digest of parts. Parts are length-prefixed so
// moving bytes between them changes the digest.
func Hash(parts ...[]byte) string {
	h := sha1.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%d:", len(p))
		h.Write(p)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Fresh reports whether key was last stored with hash. An unreadable entry
// is never fresh.
func (c *Cache) Fresh(key, hash string) bool {
	if c == nil {
		return false
	}
	var s string
	ok, err := c.ds.Get(key, &s)
	return err == nil && ok && s == hash
}

// Store records hash for key.
func (c *Cache) Store(key, hash string) error {
	if c == nil {
		return nil
	}
	if err := c.ds.Set(key, hash); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

// Forget drops key, e.g. after generation failed.
func (c *Cache) Forget(key string) error {
	if c == nil {
		return nil
	}
	if err := c.ds.Delete(key); err != nil {
		return fmt.Errorf("forget %s: %w", key, err)
	}
	return nil
}

// Close stops background saving and writes the cache to disk.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	c.cancel()
	if err := c.ds.Close(); err != nil {
		return fmt.Errorf("save cache: %w", err)
	}
	return nil
}
