package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// InsertSnapshot appends a weather snapshot. The caller treats failures here
// as best-effort; a lost snapshot only shrinks the fallback history.
func (db *DB) InsertSnapshot(ctx context.Context, snap *WeatherSnapshot) error {
	err := db.pool.QueryRow(ctx,
		`INSERT INTO weather_snapshots
		   (episode_id, location, discussion_raw, forecast_raw, report, fetched_at, issued_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		snap.EpisodeID, snap.Location, snap.DiscussionRaw, snap.ForecastRaw,
		snap.Report, snap.FetchedAt, snap.IssuedAt,
	).Scan(&snap.ID)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot retrieves the most recently fetched snapshot for a location
// across all episodes, or nil if none exists.
func (db *DB) LatestSnapshot(ctx context.Context, location string) (*WeatherSnapshot, error) {
	var snap WeatherSnapshot
	err := db.pool.QueryRow(ctx,
		`SELECT id, episode_id, location, discussion_raw, forecast_raw, report, fetched_at, issued_at
		 FROM weather_snapshots
		 WHERE location = $1
		 ORDER BY fetched_at DESC
		 LIMIT 1`,
		location,
	).Scan(&snap.ID, &snap.EpisodeID, &snap.Location, &snap.DiscussionRaw,
		&snap.ForecastRaw, &snap.Report, &snap.FetchedAt, &snap.IssuedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	return &snap, nil
}
