package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/google/uuid"
)

const episodeColumns = `id, broadcast_date, broadcast_time, episode_number, stage,
	weather_fetched_at, weather_stale, script, audio_path, video_path,
	audio_seconds, error_message, created_at, updated_at, completed_at`

func scanEpisode(row pgx.Row) (*Episode, error) {
	var ep Episode
	err := row.Scan(&ep.ID, &ep.BroadcastDate, &ep.BroadcastTime, &ep.EpisodeNumber,
		&ep.Stage, &ep.WeatherFetched, &ep.WeatherStale, &ep.Script, &ep.AudioPath,
		&ep.VideoPath, &ep.AudioSeconds, &ep.ErrorMessage, &ep.CreatedAt,
		&ep.UpdatedAt, &ep.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &ep, nil
}

// CreateEpisode inserts a new episode row in stage init for the given date.
// The episode number is assigned once here: one greater than the current
// maximum, or startNumber when the table is empty. The unique index on
// broadcast_date rejects a second row for the same date.
func (db *DB) CreateEpisode(ctx context.Context, date time.Time, broadcastTime string, startNumber int) (*Episode, error) {
	ep, err := scanEpisode(db.pool.QueryRow(ctx,
		`INSERT INTO episodes (broadcast_date, broadcast_time, episode_number, stage)
		 VALUES ($1, $2, (SELECT COALESCE(MAX(episode_number), $3 - 1) + 1 FROM episodes), $4)
		 RETURNING `+episodeColumns,
		date, broadcastTime, startNumber, StageInit,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create episode: %w", err)
	}
	return ep, nil
}

// GetEpisodeByDate retrieves the episode for a broadcast date, or nil if none exists.
func (db *DB) GetEpisodeByDate(ctx context.Context, date time.Time) (*Episode, error) {
	ep, err := scanEpisode(db.pool.QueryRow(ctx,
		`SELECT `+episodeColumns+` FROM episodes WHERE broadcast_date = $1`, date,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get episode: %w", err)
	}
	return ep, nil
}

// SetEpisodeStage advances an episode to the given stage. The stage and
// updated_at are committed before the stage's work begins; reaching done
// also records completed_at.
func (db *DB) SetEpisodeStage(ctx context.Context, id uuid.UUID, stage Stage) error {
	if !stage.Valid() {
		return fmt.Errorf("invalid stage %q", stage)
	}
	// A forward transition supersedes any error detail from a prior run.
	query := `UPDATE episodes SET stage = $1, error_message = NULL, updated_at = NOW() WHERE id = $2`
	if stage == StageDone {
		query = `UPDATE episodes SET stage = $1, error_message = NULL, updated_at = NOW(), completed_at = NOW() WHERE id = $2`
	}
	if _, err := db.pool.Exec(ctx, query, stage, id); err != nil {
		return fmt.Errorf("failed to set stage %s: %w", stage, err)
	}
	return nil
}

// SetEpisodeError marks the episode's run as failed and records the detail.
func (db *DB) SetEpisodeError(ctx context.Context, id uuid.UUID, message string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE episodes SET stage = $1, error_message = $2, updated_at = NOW() WHERE id = $3`,
		StageError, message, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set error: %w", err)
	}
	return nil
}

// SetEpisodeWeather records the reference timestamp and staleness of the
// weather data used for this episode.
func (db *DB) SetEpisodeWeather(ctx context.Context, id uuid.UUID, fetchedAt time.Time, stale bool) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE episodes SET weather_fetched_at = $1, weather_stale = $2, updated_at = NOW() WHERE id = $3`,
		fetchedAt, stale, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set weather reference: %w", err)
	}
	return nil
}

// SetEpisodeScript persists the generated narration script.
func (db *DB) SetEpisodeScript(ctx context.Context, id uuid.UUID, script string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE episodes SET script = $1, updated_at = NOW() WHERE id = $2`,
		script, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set script: %w", err)
	}
	return nil
}

// SetEpisodeAudio persists the synthesized audio path and its measured duration.
func (db *DB) SetEpisodeAudio(ctx context.Context, id uuid.UUID, path string, seconds float64) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE episodes SET audio_path = $1, audio_seconds = $2, updated_at = NOW() WHERE id = $3`,
		path, seconds, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set audio: %w", err)
	}
	return nil
}

// SetEpisodeVideo persists the composited video path.
func (db *DB) SetEpisodeVideo(ctx context.Context, id uuid.UUID, path string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE episodes SET video_path = $1, updated_at = NOW() WHERE id = $2`,
		path, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set video: %w", err)
	}
	return nil
}

// EpisodeFilters holds optional filters for listing episodes
type EpisodeFilters struct {
	Stage Stage
	Limit int
}

// ListEpisodes retrieves recent episodes, newest broadcast date first.
func (db *DB) ListEpisodes(ctx context.Context, filters EpisodeFilters) ([]Episode, error) {
	if filters.Limit == 0 {
		filters.Limit = 50
	}

	query := `SELECT ` + episodeColumns + ` FROM episodes WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.Stage != "" {
		query += fmt.Sprintf(" AND stage = $%d", argNum)
		args = append(args, filters.Stage)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY broadcast_date DESC LIMIT $%d", argNum)
	args = append(args, filters.Limit)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list episodes: %w", err)
	}
	defer rows.Close()

	var episodes []Episode
	for rows.Next() {
		ep, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan episode: %w", err)
		}
		episodes = append(episodes, *ep)
	}
	return episodes, nil
}
