package narration

import (
	"fmt"
	"strings"

	"github.com/jonathan/weathercast/internal/weather"
)

// maxDiscussionChars bounds how much raw discussion text goes into the
// prompt; AFD products can run long and the synopsis carries the signal.
const maxDiscussionChars = 6000

func buildPrompt(report *weather.Report, dateCtx DateContext) string {
	var sb strings.Builder

	sb.WriteString("You are the scriptwriter for a short daily video weather broadcast.\n")
	fmt.Fprintf(&sb, "Write the narration for episode %d, airing %s at %s, covering the %s forecast area.\n\n",
		dateCtx.EpisodeNumber, dateCtx.Date.Format("Monday, January 2, 2006"), dateCtx.BroadcastTime, report.Location)

	sb.WriteString("Rules:\n")
	sb.WriteString("- Conversational broadcast tone, 60-120 seconds of speech total.\n")
	sb.WriteString("- Split the narration into 3-6 scenes. Each scene gets an image prompt describing a single still (no text overlays in the image), an optional short on-screen caption, and a duration hint in seconds.\n")
	sb.WriteString("- Cover current conditions, the near-term outlook, and anything notable (wind, precipitation, temperature swings).\n")
	if report.Stale {
		fmt.Fprintf(&sb, "- IMPORTANT: this weather data is about %d hours old. Say so naturally early in the broadcast and hedge specifics accordingly.\n", report.StaleHours)
	}
	sb.WriteString("\nRespond with JSON only, matching: {\"segments\": [{\"text\": string, \"scene_prompt\": string, \"caption\": string, \"seconds\": number}]}\n\n")

	fmt.Fprintf(&sb, "Forecast synopsis:\n%s\n\n", report.Summary)

	if len(report.Periods) > 0 {
		sb.WriteString("Forecast periods: ")
		names := make([]string, 0, len(report.Periods))
		for _, p := range report.Periods {
			names = append(names, p.Name)
		}
		sb.WriteString(strings.Join(names, ", "))
		sb.WriteString("\n\n")
	}

	discussion := report.Discussion
	if len(discussion) > maxDiscussionChars {
		discussion = discussion[:maxDiscussionChars]
	}
	if discussion != "" {
		fmt.Fprintf(&sb, "Full forecast discussion:\n%s\n", discussion)
	}

	return sb.String()
}
