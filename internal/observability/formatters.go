// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/weathercast/internal/db"
	"github.com/jonathan/weathercast/internal/narration"
	"github.com/jonathan/weathercast/internal/timeline"
	"github.com/jonathan/weathercast/internal/weather"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintReport outputs a human-readable summary of the acquired weather report.
func (p *Printer) PrintReport(report *weather.Report) {
	if report == nil {
		return
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Location: %s\n", report.Location))
	sb.WriteString(fmt.Sprintf("Fetched:  %s\n", report.FetchedAt.Format("2006-01-02 15:04 MST")))
	if report.IssuedAt != nil {
		sb.WriteString(fmt.Sprintf("Issued:   %s\n", report.IssuedAt.Format("2006-01-02 15:04 MST")))
	}
	if report.Stale {
		sb.WriteString(fmt.Sprintf("⚠ Stale snapshot, about %dh old\n", report.StaleHours))
	}
	sb.WriteString("\n")

	if report.Summary != "" {
		sb.WriteString("Summary:\n")
		sb.WriteString(fmt.Sprintf("  %s\n", report.Summary))
		sb.WriteString("\n")
	}

	if len(report.Periods) > 0 {
		sb.WriteString("Periods:\n")
		count := min(len(report.Periods), maxItemsToShow)
		for i := 0; i < count; i++ {
			period := report.Periods[i]
			sb.WriteString(fmt.Sprintf("  • %s", period.Name))
			if period.TempHighF != nil {
				sb.WriteString(fmt.Sprintf(" high %d°F", *period.TempHighF))
			}
			if period.TempLowF != nil {
				sb.WriteString(fmt.Sprintf(" low %d°F", *period.TempLowF))
			}
			if period.Sky != "" {
				sb.WriteString(fmt.Sprintf(", %s", period.Sky))
			}
			sb.WriteString("\n")
		}
		if len(report.Periods) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(report.Periods)-maxItemsToShow))
		}
	}

	p.printBox("WEATHER REPORT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintScript outputs the generated narration with its scene cues.
func (p *Printer) PrintScript(script *narration.Script) {
	if script == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Scenes: %d\n\n", len(script.Cues)))

	count := min(len(script.Cues), maxItemsToShow)
	for i := 0; i < count; i++ {
		cue := script.Cues[i]
		prompt := cue.Prompt
		if len(prompt) > 45 {
			prompt = prompt[:42] + "..."
		}
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, prompt))
		sb.WriteString(fmt.Sprintf("    ~%.1fs", cue.Seconds))
		if cue.Caption != "" {
			caption := cue.Caption
			if len(caption) > 30 {
				caption = caption[:27] + "..."
			}
			sb.WriteString(fmt.Sprintf("  %q", caption))
		}
		sb.WriteString("\n")
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(script.Cues) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more scenes", len(script.Cues)-maxItemsToShow))
	}

	p.printBox("NARRATION SCRIPT", sb.String())
}

// PrintTimeline outputs the synchronized segment schedule.
func (p *Printer) PrintTimeline(tl *timeline.Timeline) {
	if tl == nil || len(tl.Segments) == 0 {
		return
	}

	seconds := float64(tl.TotalFrames) / float64(tl.FPS)
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d segments over %d frames (%.2fs @ %dfps)\n\n",
		len(tl.Segments), tl.TotalFrames, seconds, tl.FPS))

	count := min(len(tl.Segments), maxItemsToShow)
	for i := 0; i < count; i++ {
		seg := tl.Segments[i]
		sb.WriteString(fmt.Sprintf("[%5d, %5d)  %.2fs\n",
			seg.StartFrame, seg.EndFrame, float64(seg.Frames())/float64(tl.FPS)))
	}

	if len(tl.Segments) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more segments\n", len(tl.Segments)-maxItemsToShow))
	}

	p.printBox("TIMELINE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintEpisode outputs one episode row for the episodes subcommands.
func (p *Printer) PrintEpisode(ep *db.Episode) {
	if ep == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Episode:  #%d\n", ep.EpisodeNumber))
	sb.WriteString(fmt.Sprintf("Date:     %s %s\n", ep.BroadcastDate.Format("2006-01-02"), ep.BroadcastTime))
	sb.WriteString(fmt.Sprintf("Stage:    %s\n", ep.Stage))
	if ep.WeatherFetched != nil {
		sb.WriteString(fmt.Sprintf("Weather:  fetched %s", ep.WeatherFetched.Format("2006-01-02 15:04")))
		if ep.WeatherStale {
			sb.WriteString(" (stale)")
		}
		sb.WriteString("\n")
	}
	if ep.AudioPath != nil {
		sb.WriteString(fmt.Sprintf("Audio:    %s", *ep.AudioPath))
		if ep.AudioSeconds != nil {
			sb.WriteString(fmt.Sprintf(" (%.2fs)", *ep.AudioSeconds))
		}
		sb.WriteString("\n")
	}
	if ep.VideoPath != nil {
		sb.WriteString(fmt.Sprintf("Video:    %s\n", *ep.VideoPath))
	}
	if ep.ErrorMessage != nil {
		detail := *ep.ErrorMessage
		if len(detail) > 45 {
			detail = detail[:42] + "..."
		}
		sb.WriteString(fmt.Sprintf("⚠ %s\n", detail))
	}

	p.printBox(fmt.Sprintf("EPISODE %s", ep.BroadcastDate.Format("2006-01-02")), strings.TrimSuffix(sb.String(), "\n"))
}
