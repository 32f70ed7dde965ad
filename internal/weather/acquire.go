package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/weathercast/internal/db"
)

// DefaultAttempts is how many times a fetch is tried before falling back.
const DefaultAttempts = 3

// DefaultBackoffBase is the base delay for exponential backoff between
// attempts: delay = base * 2^(attempt-1).
const DefaultBackoffBase = 2 * time.Second

// SnapshotStore is the persistence surface for the snapshot fallback log.
// *db.DB satisfies it.
type SnapshotStore interface {
	InsertSnapshot(ctx context.Context, snap *db.WeatherSnapshot) error
	LatestSnapshot(ctx context.Context, location string) (*db.WeatherSnapshot, error)
}

// Result is the outcome of a successful acquisition.
type Result struct {
	Report       *Report
	UsedFallback bool
}

// Service acquires the weather dataset for one explicit location with
// retries, persisting snapshots for later fallback.
type Service struct {
	fetcher  Fetcher
	parser   Parser
	store    SnapshotStore
	location string

	attempts    int
	backoffBase time.Duration

	// Injection points for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewService creates an acquisition service for a location.
func NewService(fetcher Fetcher, parser Parser, store SnapshotStore, location string) *Service {
	return &Service{
		fetcher:     fetcher,
		parser:      parser,
		store:       store,
		location:    location,
		attempts:    DefaultAttempts,
		backoffBase: DefaultBackoffBase,
		now:         time.Now,
		sleep:       sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Acquire produces a fresh, validated weather report, or a clearly marked
// stale one from the snapshot log. Ordinary upstream unavailability is not an
// error; the only fatal path is exhaustion with no snapshot history for the
// location. episodeID, when non-nil, is recorded on the persisted snapshot as
// a weak back-reference.
func (s *Service) Acquire(ctx context.Context, episodeID *uuid.UUID) (*Result, error) {
	var lastErr error

	for attempt := 1; attempt <= s.attempts; attempt++ {
		if attempt > 1 {
			delay := s.backoffBase * (1 << (attempt - 2))
			if err := s.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		discussion, forecast, err := s.fetchBoth(ctx)
		if err != nil {
			lastErr = err
			continue
		}

		report, err := s.parser.Parse(s.location, discussion, forecast)
		if err != nil {
			lastErr = fmt.Errorf("failed to parse weather products: %w", err)
			continue
		}
		report.FetchedAt = s.now().UTC()

		s.persistSnapshot(ctx, episodeID, discussion, forecast, report)
		return &Result{Report: report}, nil
	}

	return s.fallback(ctx, lastErr)
}

// fetchBoth retrieves the two sub-documents concurrently. Both must succeed
// for the attempt to count; either failure fails the whole attempt.
func (s *Service) fetchBoth(ctx context.Context) (string, string, error) {
	var discussion, forecast string

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		discussion, err = s.fetcher.FetchDiscussion(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		forecast, err = s.fetcher.FetchForecast(gCtx)
		return err
	})
	if err := g.Wait(); err != nil {
		return "", "", err
	}
	return discussion, forecast, nil
}

// persistSnapshot records the fetched dataset for future fallback. This is a
// best-effort cache write: its failure must never fail the fetch it records.
func (s *Service) persistSnapshot(ctx context.Context, episodeID *uuid.UUID, discussion, forecast string, report *Report) {
	payload, err := json.Marshal(report)
	if err != nil {
		fmt.Printf("Warning: failed to serialize weather report for snapshot: %v\n", err)
		return
	}

	snap := &db.WeatherSnapshot{
		EpisodeID:     episodeID,
		Location:      s.location,
		DiscussionRaw: discussion,
		ForecastRaw:   forecast,
		Report:        payload,
		FetchedAt:     report.FetchedAt,
		IssuedAt:      report.IssuedAt,
	}
	if err := s.store.InsertSnapshot(ctx, snap); err != nil {
		fmt.Printf("Warning: failed to persist weather snapshot: %v\n", err)
	}
}

// fallback serves the most recent snapshot for the service's location,
// marked stale with its age in whole hours.
func (s *Service) fallback(ctx context.Context, lastErr error) (*Result, error) {
	snap, err := s.store.LatestSnapshot(ctx, s.location)
	if err != nil {
		return nil, fmt.Errorf("weather fetch failed and fallback lookup errored: %w", err)
	}
	if snap == nil {
		return nil, fmt.Errorf("weather fetch failed after %d attempts and no snapshot exists for %s: %w",
			s.attempts, s.location, lastErr)
	}

	var report Report
	if err := json.Unmarshal(snap.Report, &report); err != nil {
		// Snapshot payloads predating the typed record: reparse the raw text.
		parsed, perr := s.parser.Parse(s.location, snap.DiscussionRaw, snap.ForecastRaw)
		if perr != nil {
			return nil, fmt.Errorf("fallback snapshot is unreadable: %w", err)
		}
		report = *parsed
	}

	age := s.now().Sub(snap.FetchedAt)
	report.Stale = true
	report.StaleHours = int(age.Round(time.Hour) / time.Hour)
	report.FetchedAt = snap.FetchedAt

	return &Result{Report: &report, UsedFallback: true}, nil
}
