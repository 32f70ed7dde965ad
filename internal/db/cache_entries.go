package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LookupCacheEntry retrieves the newest cache entry addressed by
// (fingerprint, category, epoch), or nil if none exists. Duplicate rows from
// racing writers are harmless; the newest wins.
func (db *DB) LookupCacheEntry(ctx context.Context, fingerprint, category string, epoch int) (*CacheEntry, error) {
	var e CacheEntry
	err := db.pool.QueryRow(ctx,
		`SELECT id, fingerprint, category, style_epoch, artifact_path, descriptor,
		        generator, created_at, last_used_at, use_count
		 FROM media_cache
		 WHERE fingerprint = $1 AND category = $2 AND style_epoch = $3
		 ORDER BY created_at DESC
		 LIMIT 1`,
		fingerprint, category, epoch,
	).Scan(&e.ID, &e.Fingerprint, &e.Category, &e.StyleEpoch, &e.ArtifactPath,
		&e.Descriptor, &e.Generator, &e.CreatedAt, &e.LastUsedAt, &e.UseCount)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up cache entry: %w", err)
	}
	return &e, nil
}

// InsertCacheEntry records a freshly generated artifact. Existing rows under
// the same key are never overwritten; they stop being returned once a newer
// row exists.
func (db *DB) InsertCacheEntry(ctx context.Context, e *CacheEntry) error {
	err := db.pool.QueryRow(ctx,
		`INSERT INTO media_cache
		   (fingerprint, category, style_epoch, artifact_path, descriptor, generator, use_count)
		 VALUES ($1, $2, $3, $4, $5, $6, 1)
		 RETURNING id, created_at, last_used_at`,
		e.Fingerprint, e.Category, e.StyleEpoch, e.ArtifactPath, e.Descriptor, e.Generator,
	).Scan(&e.ID, &e.CreatedAt, &e.LastUsedAt)
	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}
	return nil
}

// TouchCacheEntry bumps usage metadata on a cache hit.
func (db *DB) TouchCacheEntry(ctx context.Context, id uuid.UUID) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE media_cache SET use_count = use_count + 1, last_used_at = NOW() WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to touch cache entry: %w", err)
	}
	return nil
}
