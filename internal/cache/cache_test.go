package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/weathercast/internal/db"
)

// memStore is an in-memory Store with append-only rows, mirroring the
// last-write-wins lookup order of the database.
type memStore struct {
	entries []*db.CacheEntry
	touched map[uuid.UUID]int
}

func newMemStore() *memStore {
	return &memStore{touched: map[uuid.UUID]int{}}
}

func (m *memStore) LookupCacheEntry(_ context.Context, fingerprint, category string, epoch int) (*db.CacheEntry, error) {
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if e.Fingerprint == fingerprint && e.Category == category && e.StyleEpoch == epoch {
			return e, nil
		}
	}
	return nil, nil
}

func (m *memStore) InsertCacheEntry(_ context.Context, e *db.CacheEntry) error {
	e.ID = uuid.New()
	m.entries = append(m.entries, e)
	return nil
}

func (m *memStore) TouchCacheEntry(_ context.Context, id uuid.UUID) error {
	m.touched[id]++
	return nil
}

// countingGenerator writes a throwaway artifact file and counts invocations.
func countingGenerator(t *testing.T, dir string) (GenerateFunc, *int) {
	t.Helper()
	calls := 0
	gen := func(context.Context) (string, error) {
		calls++
		path := filepath.Join(dir, uuid.NewString()+".png")
		require.NoError(t, os.WriteFile(path, []byte("img"), 0o644))
		return path, nil
	}
	return gen, &calls
}

func TestResolve_Idempotent(t *testing.T) {
	store := newMemStore()
	c, err := New(store, "image-gen-v1", 1)
	require.NoError(t, err)

	gen, calls := countingGenerator(t, t.TempDir())
	ctx := context.Background()

	first, cached, err := c.Resolve(ctx, "storm over the bay", CategoryScene, gen)
	require.NoError(t, err)
	assert.False(t, cached)

	second, cached, err := c.Resolve(ctx, "storm over the bay", CategoryScene, gen)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, *calls, "generator must run exactly once for identical requests")
}

func TestResolve_HitUpdatesUsage(t *testing.T) {
	store := newMemStore()
	c, err := New(store, "image-gen-v1", 1)
	require.NoError(t, err)

	gen, _ := countingGenerator(t, t.TempDir())
	ctx := context.Background()

	_, _, err = c.Resolve(ctx, "fog bank", CategoryScene, gen)
	require.NoError(t, err)
	_, _, err = c.Resolve(ctx, "fog bank", CategoryScene, gen)
	require.NoError(t, err)

	require.Len(t, store.entries, 1)
	assert.Equal(t, 1, store.touched[store.entries[0].ID])
}

func TestResolve_SelfHealsMissingFile(t *testing.T) {
	store := newMemStore()
	c, err := New(store, "image-gen-v1", 1)
	require.NoError(t, err)

	gen, calls := countingGenerator(t, t.TempDir())
	ctx := context.Background()

	first, _, err := c.Resolve(ctx, "radar loop", CategoryScene, gen)
	require.NoError(t, err)

	// Simulate the backing file disappearing out from under the cache.
	require.NoError(t, os.Remove(first))

	second, cached, err := c.Resolve(ctx, "radar loop", CategoryScene, gen)
	require.NoError(t, err)
	assert.False(t, cached, "missing file must behave as a miss, not an error")
	assert.NotEqual(t, first, second)
	assert.Equal(t, 2, *calls)
	assert.Len(t, store.entries, 2, "broken row is superseded, never overwritten")

	// The new row now wins future lookups.
	third, cached, err := c.Resolve(ctx, "radar loop", CategoryScene, gen)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, second, third)
}

func TestResolve_EpochBumpOrphansEntries(t *testing.T) {
	store := newMemStore()
	dir := t.TempDir()
	gen, calls := countingGenerator(t, dir)
	ctx := context.Background()

	c1, err := New(store, "image-gen-v1", 1)
	require.NoError(t, err)
	_, _, err = c1.Resolve(ctx, "sunset", CategoryTitle, gen)
	require.NoError(t, err)

	c2, err := New(store, "image-gen-v1", 2)
	require.NoError(t, err)
	_, cached, err := c2.Resolve(ctx, "sunset", CategoryTitle, gen)
	require.NoError(t, err)

	assert.False(t, cached, "epoch bump must invalidate prior entries")
	assert.Equal(t, 2, *calls)
	assert.Len(t, store.entries, 2, "orphaned rows remain in place")
}

func TestResolve_InvalidCategory(t *testing.T) {
	c, err := New(newMemStore(), "image-gen-v1", 1)
	require.NoError(t, err)

	_, _, err = c.Resolve(context.Background(), "x", Category("poster"), func(context.Context) (string, error) {
		t.Fatal("generator must not run for an invalid category")
		return "", nil
	})
	assert.Error(t, err)
}

func TestNew_RejectsNegativeEpoch(t *testing.T) {
	_, err := New(newMemStore(), "image-gen-v1", -1)
	assert.Error(t, err)
}

func TestFingerprint_Deterministic(t *testing.T) {
	c1, err := New(newMemStore(), "image-gen-v1", 3)
	require.NoError(t, err)
	c2, err := New(newMemStore(), "image-gen-v1", 3)
	require.NoError(t, err)

	assert.Equal(t, c1.Fingerprint("p", CategoryScene), c2.Fingerprint("p", CategoryScene))
	assert.NotEqual(t, c1.Fingerprint("p", CategoryScene), c1.Fingerprint("p", CategoryTitle))
	assert.NotEqual(t, c1.Fingerprint("p", CategoryScene), c1.Fingerprint("q", CategoryScene))
}
