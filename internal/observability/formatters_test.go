package observability

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/weathercast/internal/db"
	"github.com/jonathan/weathercast/internal/narration"
	"github.com/jonathan/weathercast/internal/timeline"
	"github.com/jonathan/weathercast/internal/weather"
)

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	high, low := 72, 55
	report := &weather.Report{
		Location:  "OKX",
		Summary:   "High pressure builds in tonight.",
		FetchedAt: time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC),
		Periods: []weather.ForecastPeriod{
			{Name: "Today", TempHighF: &high, Sky: "sunny"},
			{Name: "Tonight", TempLowF: &low},
		},
	}

	p.PrintReport(report)
	output := buf.String()

	assert.Contains(t, output, "WEATHER REPORT")
	assert.Contains(t, output, "OKX")
	assert.Contains(t, output, "High pressure builds in tonight.")
	assert.Contains(t, output, "Today")
	assert.Contains(t, output, "72°F")
}

func TestPrintReport_Stale(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintReport(&weather.Report{Location: "BOX", Stale: true, StaleHours: 7})

	assert.Contains(t, buf.String(), "about 7h old")
}

func TestPrintReport_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintReport(nil)

	assert.Empty(t, buf.String())
}

func TestPrintScript(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	script := narration.FromSegments([]narration.Segment{
		{Text: "Clear tonight.", ScenePrompt: "starry sky", Caption: "Tonight", Seconds: 6},
		{Text: "Rain tomorrow.", ScenePrompt: "rainy street", Seconds: 9},
	})

	p.PrintScript(script)
	output := buf.String()

	assert.Contains(t, output, "NARRATION SCRIPT")
	assert.Contains(t, output, "Scenes: 2")
	assert.Contains(t, output, "starry sky")
	assert.Contains(t, output, "~6.0s")
}

func TestPrintTimeline(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	tl := timeline.Build([]timeline.Cue{
		{Prompt: "a", Seconds: 5},
		{Prompt: "b", Seconds: 5},
	}, 20, 30)

	p.PrintTimeline(tl)
	output := buf.String()

	assert.Contains(t, output, "TIMELINE")
	assert.Contains(t, output, "2 segments over 600 frames")
}

func TestPrintEpisode(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	video := "/out/episode.mp4"
	errMsg := "composing stage failed: ffmpeg exited 1"
	ep := &db.Episode{
		BroadcastDate: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		BroadcastTime: "18:00",
		EpisodeNumber: 42,
		Stage:         db.StageError,
		VideoPath:     &video,
		ErrorMessage:  &errMsg,
	}

	p.PrintEpisode(ep)
	output := buf.String()

	assert.Contains(t, output, "EPISODE 2026-03-14")
	assert.Contains(t, output, "#42")
	assert.Contains(t, output, "error")
	assert.Contains(t, output, "/out/episode.mp4")
	assert.Contains(t, output, "ffmpeg exited 1")
}
