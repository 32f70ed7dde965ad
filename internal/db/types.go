package db

import (
	"time"

	"github.com/google/uuid"
)

// Stage identifies where an episode is in the generation pipeline.
// The pipeline only ever moves a row forward through these values,
// except into StageError, which any stage can reach.
type Stage string

const (
	StageInit         Stage = "init"
	StageFetching     Stage = "fetching"
	StageGenerating   Stage = "generating"
	StageSynthesizing Stage = "synthesizing"
	StageSyncing      Stage = "syncing"
	StageComposing    Stage = "composing"
	StageDone         Stage = "done"
	StageError        Stage = "error"
)

// Valid reports whether s is one of the known pipeline stages.
func (s Stage) Valid() bool {
	switch s {
	case StageInit, StageFetching, StageGenerating, StageSynthesizing,
		StageSyncing, StageComposing, StageDone, StageError:
		return true
	}
	return false
}

// Terminal reports whether s ends a pipeline run.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageError
}

// Episode represents one scheduled broadcast. At most one row exists per
// broadcast date; rows are never deleted.
type Episode struct {
	ID             uuid.UUID  `json:"id"`
	BroadcastDate  time.Time  `json:"broadcast_date"`
	BroadcastTime  string     `json:"broadcast_time"`
	EpisodeNumber  int        `json:"episode_number"`
	Stage          Stage      `json:"stage"`
	WeatherFetched *time.Time `json:"weather_fetched_at,omitempty"`
	WeatherStale   bool       `json:"weather_stale"`
	Script         *string    `json:"script,omitempty"`
	AudioPath      *string    `json:"audio_path,omitempty"`
	VideoPath      *string    `json:"video_path,omitempty"`
	AudioSeconds   *float64   `json:"audio_seconds,omitempty"`
	ErrorMessage   *string    `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// HasScript reports whether the generating stage's output is persisted.
func (e *Episode) HasScript() bool {
	return e.Script != nil && *e.Script != ""
}

// HasAudio reports whether the synthesizing stage's output is persisted.
func (e *Episode) HasAudio() bool {
	return e.AudioPath != nil && *e.AudioPath != "" && e.AudioSeconds != nil
}

// HasVideo reports whether the composing stage's output is persisted.
func (e *Episode) HasVideo() bool {
	return e.VideoPath != nil && *e.VideoPath != ""
}

// WeatherSnapshot is one fetched weather dataset. Snapshots are append-only
// and exist independently of whether the owning pipeline run succeeded; the
// episode reference is weak and may be nil.
type WeatherSnapshot struct {
	ID            uuid.UUID  `json:"id"`
	EpisodeID     *uuid.UUID `json:"episode_id,omitempty"`
	Location      string     `json:"location"`
	DiscussionRaw string     `json:"discussion_raw"`
	ForecastRaw   string     `json:"forecast_raw"`
	Report        []byte     `json:"report"` // serialized parsed record
	FetchedAt     time.Time  `json:"fetched_at"`
	IssuedAt      *time.Time `json:"issued_at,omitempty"`
}

// CacheEntry maps a media generation request fingerprint to a previously
// produced artifact. Entries are never updated in place except for usage
// metadata; superseded rows are simply left behind.
type CacheEntry struct {
	ID           uuid.UUID `json:"id"`
	Fingerprint  string    `json:"fingerprint"`
	Category     string    `json:"category"`
	StyleEpoch   int       `json:"style_epoch"`
	ArtifactPath string    `json:"artifact_path"`
	Descriptor   string    `json:"descriptor"`
	Generator    string    `json:"generator"`
	CreatedAt    time.Time `json:"created_at"`
	LastUsedAt   time.Time `json:"last_used_at"`
	UseCount     int       `json:"use_count"`
}
