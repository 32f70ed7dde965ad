// Package cache provides a content-addressable store for generated media
// artifacts. Generation is the expensive, paid, non-deterministic operation;
// the cache guarantees a semantically identical request under the same style
// epoch never pays that cost twice.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/jonathan/weathercast/internal/db"
)

// Category partitions the cache namespace by visual treatment.
type Category string

const (
	CategoryScene Category = "scene"
	CategoryTitle Category = "title"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryScene, CategoryTitle:
		return true
	}
	return false
}

// Store is the persistence surface the cache needs. *db.DB satisfies it.
type Store interface {
	LookupCacheEntry(ctx context.Context, fingerprint, category string, epoch int) (*db.CacheEntry, error)
	InsertCacheEntry(ctx context.Context, e *db.CacheEntry) error
	TouchCacheEntry(ctx context.Context, id uuid.UUID) error
}

// GenerateFunc produces an artifact for a descriptor on a cache miss and
// returns the path of the file it wrote.
type GenerateFunc func(ctx context.Context) (string, error)

// Cache resolves generation requests against previously produced artifacts.
type Cache struct {
	store     Store
	generator string
	epoch     int
}

// New creates a cache bound to a generator identity and style epoch.
// Bumping the epoch orphans every existing entry without deleting it.
func New(store Store, generator string, epoch int) (*Cache, error) {
	if epoch < 0 {
		return nil, fmt.Errorf("style epoch must be non-negative, got %d", epoch)
	}
	return &Cache{store: store, generator: generator, epoch: epoch}, nil
}

// Fingerprint returns the deterministic hash addressing a request under the
// cache's generator identity and current epoch.
func (c *Cache) Fingerprint(descriptor string, category Category) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%d", descriptor, category, c.generator, c.epoch)
	return hex.EncodeToString(h.Sum(nil))
}

// Resolve returns an artifact path for the descriptor, reusing a cached one
// when its backing file still exists. A hit whose file has disappeared is
// treated as a miss: the generator runs again and a new row supersedes the
// broken one, which is never deleted.
func (c *Cache) Resolve(ctx context.Context, descriptor string, category Category, generate GenerateFunc) (string, bool, error) {
	if !category.Valid() {
		return "", false, fmt.Errorf("invalid cache category %q", category)
	}

	fingerprint := c.Fingerprint(descriptor, category)

	entry, err := c.store.LookupCacheEntry(ctx, fingerprint, string(category), c.epoch)
	if err != nil {
		return "", false, fmt.Errorf("cache lookup failed: %w", err)
	}

	if entry != nil {
		if _, statErr := os.Stat(entry.ArtifactPath); statErr == nil {
			// Usage metadata is advisory; a failed touch never fails a hit.
			_ = c.store.TouchCacheEntry(ctx, entry.ID)
			return entry.ArtifactPath, true, nil
		}
	}

	path, err := generate(ctx)
	if err != nil {
		return "", false, err
	}

	if err := c.store.InsertCacheEntry(ctx, &db.CacheEntry{
		Fingerprint:  fingerprint,
		Category:     string(category),
		StyleEpoch:   c.epoch,
		ArtifactPath: path,
		Descriptor:   descriptor,
		Generator:    c.generator,
	}); err != nil {
		return "", false, fmt.Errorf("failed to record cache entry: %w", err)
	}

	return path, false, nil
}
