// Package pipeline orchestrates one broadcast generation run as a staged,
// resumable unit of work keyed by broadcast date. Each stage persists its
// output before the row advances, so a rerun after a crash or error picks up
// at the first stage whose output is missing.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/weathercast/internal/cache"
	"github.com/jonathan/weathercast/internal/db"
	"github.com/jonathan/weathercast/internal/media"
	"github.com/jonathan/weathercast/internal/narration"
	"github.com/jonathan/weathercast/internal/timeline"
	"github.com/jonathan/weathercast/internal/weather"
)

// EpisodeStore is the persistence surface the pipeline drives. *db.DB
// satisfies it.
type EpisodeStore interface {
	GetEpisodeByDate(ctx context.Context, date time.Time) (*db.Episode, error)
	CreateEpisode(ctx context.Context, date time.Time, broadcastTime string, startNumber int) (*db.Episode, error)
	SetEpisodeStage(ctx context.Context, id uuid.UUID, stage db.Stage) error
	SetEpisodeError(ctx context.Context, id uuid.UUID, message string) error
	SetEpisodeWeather(ctx context.Context, id uuid.UUID, fetchedAt time.Time, stale bool) error
	SetEpisodeScript(ctx context.Context, id uuid.UUID, script string) error
	SetEpisodeAudio(ctx context.Context, id uuid.UUID, path string, seconds float64) error
	SetEpisodeVideo(ctx context.Context, id uuid.UUID, path string) error
}

// Acquirer yields the weather report for the run. *weather.Service
// satisfies it.
type Acquirer interface {
	Acquire(ctx context.Context, episodeID *uuid.UUID) (*weather.Result, error)
}

// Imager resolves a still image for a prompt, through the artifact cache.
type Imager interface {
	Image(ctx context.Context, prompt string, category cache.Category) (string, bool, error)
}

// CachedImager routes image requests through the content-addressed cache,
// falling through to the synthesizer on a miss.
type CachedImager struct {
	Cache *cache.Cache
	Synth media.ImageSynthesizer
}

func (c *CachedImager) Image(ctx context.Context, prompt string, category cache.Category) (string, bool, error) {
	return c.Cache.Resolve(ctx, prompt, category, func(ctx context.Context) (string, error) {
		return c.Synth.Synthesize(ctx, prompt)
	})
}

// Deps bundles the pipeline's collaborators.
type Deps struct {
	Episodes   EpisodeStore
	Weather    Acquirer
	Narrator   narration.Generator
	Audio      media.AudioSynthesizer
	Imager     Imager
	Compositor media.Compositor
}

// Options carries per-run settings.
type Options struct {
	TargetDate    time.Time // zero value means today
	BroadcastTime string
	StartNumber   int
	FPS           int
	Verbose       bool
}

// Result reports what a run produced, including outputs recovered from
// earlier runs of the same episode.
type Result struct {
	Episode      *db.Episode
	Report       *weather.Report
	Timeline     *timeline.Timeline
	AudioPath    string
	AudioSeconds float64
	VideoPath    string
	Resumed      bool
	AlreadyDone  bool
}

// NormalizeDate truncates t to its calendar date in its own location.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Run executes (or resumes) the generation pipeline for one broadcast date.
// A completed episode returns immediately without side effects. On failure
// the episode is marked with the failing stage and error detail before the
// error is returned.
func Run(ctx context.Context, deps Deps, opts Options) (*Result, error) {
	target := opts.TargetDate
	if target.IsZero() {
		target = time.Now()
	}
	target = NormalizeDate(target)

	episode, err := deps.Episodes.GetEpisodeByDate(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("failed to load episode for %s: %w", target.Format("2006-01-02"), err)
	}
	resumed := episode != nil
	if episode == nil {
		episode, err = deps.Episodes.CreateEpisode(ctx, target, opts.BroadcastTime, opts.StartNumber)
		if err != nil {
			return nil, fmt.Errorf("failed to create episode for %s: %w", target.Format("2006-01-02"), err)
		}
	}

	res := &Result{Episode: episode, Resumed: resumed}
	if episode.Stage == db.StageDone {
		res.AlreadyDone = true
		if episode.AudioPath != nil {
			res.AudioPath = *episode.AudioPath
		}
		if episode.AudioSeconds != nil {
			res.AudioSeconds = *episode.AudioSeconds
		}
		if episode.VideoPath != nil {
			res.VideoPath = *episode.VideoPath
		}
		return res, nil
	}

	r := &runner{deps: deps, opts: opts, episode: episode}
	if err := r.run(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

type runner struct {
	deps    Deps
	opts    Options
	episode *db.Episode
}

// enter persists the stage transition before the stage's work begins, so an
// interrupted run records how far it got.
func (r *runner) enter(ctx context.Context, stage db.Stage) error {
	if err := r.deps.Episodes.SetEpisodeStage(ctx, r.episode.ID, stage); err != nil {
		return fmt.Errorf("failed to advance episode to %s: %w", stage, err)
	}
	r.episode.Stage = stage
	if r.opts.Verbose {
		fmt.Printf("Stage: %s\n", stage)
	}
	return nil
}

// fail records the failing stage and error detail on the episode, then
// returns the wrapped error. The persistence write is best effort.
func (r *runner) fail(ctx context.Context, stage db.Stage, err error) error {
	wrapped := fmt.Errorf("%s stage failed: %w", stage, err)
	if dbErr := r.deps.Episodes.SetEpisodeError(ctx, r.episode.ID, wrapped.Error()); dbErr != nil {
		fmt.Printf("Warning: failed to record episode error: %v\n", dbErr)
	}
	return wrapped
}

func (r *runner) run(ctx context.Context, res *Result) error {
	script, err := r.ensureScript(ctx, res)
	if err != nil {
		return err
	}

	if r.episode.HasVideo() {
		// Nothing left to synthesize; close out the row.
		res.VideoPath = *r.episode.VideoPath
		if r.episode.AudioPath != nil {
			res.AudioPath = *r.episode.AudioPath
		}
		if r.episode.AudioSeconds != nil {
			res.AudioSeconds = *r.episode.AudioSeconds
		}
		return r.enter(ctx, db.StageDone)
	}

	cues, titleImage, err := r.synthesize(ctx, script, res)
	if err != nil {
		return err
	}

	if err := r.enter(ctx, db.StageSyncing); err != nil {
		return err
	}
	tl := timeline.Build(cues, res.AudioSeconds, r.opts.FPS)
	tl.AudioPath = res.AudioPath
	tl.Title = fmt.Sprintf("Weathercast #%d %s", r.episode.EpisodeNumber, r.episode.BroadcastDate.Format("2006-01-02"))
	if len(cues) == 0 && titleImage != "" {
		// The cue-free fallback timeline shows the title card instead of
		// the bare placeholder.
		tl.Segments[0].Image = titleImage
	}
	res.Timeline = tl

	if err := r.enter(ctx, db.StageComposing); err != nil {
		return err
	}
	videoPath, err := r.deps.Compositor.Render(ctx, tl)
	if err != nil {
		return r.fail(ctx, db.StageComposing, err)
	}
	if err := r.deps.Episodes.SetEpisodeVideo(ctx, r.episode.ID, videoPath); err != nil {
		return fmt.Errorf("failed to persist video path: %w", err)
	}
	r.episode.VideoPath = &videoPath
	res.VideoPath = videoPath

	return r.enter(ctx, db.StageDone)
}

// ensureScript returns the episode's script, fetching weather and generating
// narration only when no script is persisted yet.
func (r *runner) ensureScript(ctx context.Context, res *Result) (*narration.Script, error) {
	if r.episode.HasScript() {
		return narration.Decode(*r.episode.Script), nil
	}

	if err := r.enter(ctx, db.StageFetching); err != nil {
		return nil, err
	}
	acquired, err := r.deps.Weather.Acquire(ctx, &r.episode.ID)
	if err != nil {
		return nil, r.fail(ctx, db.StageFetching, err)
	}
	res.Report = acquired.Report
	if err := r.deps.Episodes.SetEpisodeWeather(ctx, r.episode.ID, acquired.Report.FetchedAt, acquired.Report.Stale); err != nil {
		return nil, fmt.Errorf("failed to persist weather provenance: %w", err)
	}
	if r.opts.Verbose && acquired.UsedFallback {
		fmt.Printf("Using stale snapshot (~%dh old) for %s\n", acquired.Report.StaleHours, acquired.Report.Location)
	}

	if err := r.enter(ctx, db.StageGenerating); err != nil {
		return nil, err
	}
	script, err := r.deps.Narrator.Generate(ctx, acquired.Report, narration.DateContext{
		Date:          r.episode.BroadcastDate,
		BroadcastTime: r.episode.BroadcastTime,
		EpisodeNumber: r.episode.EpisodeNumber,
	})
	if err != nil {
		return nil, r.fail(ctx, db.StageGenerating, err)
	}
	if err := r.deps.Episodes.SetEpisodeScript(ctx, r.episode.ID, script.Text); err != nil {
		return nil, fmt.Errorf("failed to persist script: %w", err)
	}
	r.episode.Script = &script.Text
	return script, nil
}

// synthesize produces the audio track and every scene image in parallel.
// Audio already persisted from an earlier run is reused as is; images always
// go through the cache, which regenerates any artifact whose file is gone.
func (r *runner) synthesize(ctx context.Context, script *narration.Script, res *Result) ([]timeline.Cue, string, error) {
	if err := r.enter(ctx, db.StageSynthesizing); err != nil {
		return nil, "", err
	}

	cues := make([]timeline.Cue, len(script.Cues))
	copy(cues, script.Cues)

	var titleImage string
	g, gctx := errgroup.WithContext(ctx)

	if r.episode.HasAudio() {
		res.AudioPath = *r.episode.AudioPath
		res.AudioSeconds = *r.episode.AudioSeconds
	} else {
		g.Go(func() error {
			path, seconds, err := r.deps.Audio.Synthesize(gctx, script.Narration)
			if err != nil {
				return err
			}
			res.AudioPath = path
			res.AudioSeconds = seconds
			return nil
		})
	}

	g.Go(func() error {
		for i := range cues {
			path, cached, err := r.deps.Imager.Image(gctx, cues[i].Prompt, cache.CategoryScene)
			if err != nil {
				return fmt.Errorf("scene image %d: %w", i+1, err)
			}
			cues[i].Image = path
			if r.opts.Verbose && cached {
				fmt.Printf("Reusing cached image for scene %d\n", i+1)
			}
		}
		if len(cues) == 0 {
			descriptor := fmt.Sprintf("Title card for Weathercast #%d on %s",
				r.episode.EpisodeNumber, r.episode.BroadcastDate.Format("2006-01-02"))
			path, _, err := r.deps.Imager.Image(gctx, descriptor, cache.CategoryTitle)
			if err != nil {
				return fmt.Errorf("title card: %w", err)
			}
			titleImage = path
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, "", r.fail(ctx, db.StageSynthesizing, err)
	}

	if !r.episode.HasAudio() {
		if err := r.deps.Episodes.SetEpisodeAudio(ctx, r.episode.ID, res.AudioPath, res.AudioSeconds); err != nil {
			return nil, "", fmt.Errorf("failed to persist audio: %w", err)
		}
		path, seconds := res.AudioPath, res.AudioSeconds
		r.episode.AudioPath = &path
		r.episode.AudioSeconds = &seconds
	}
	return cues, titleImage, nil
}
