// Package narration generates the broadcast script and its embedded scene
// cues from an acquired weather report.
package narration

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/weathercast/internal/timeline"
)

// Script is a generated narration with its scene cues. Text is the canonical
// persisted form: narration with inline scene markers, from which the cues
// are deterministically recoverable on resume.
type Script struct {
	Text      string
	Narration string
	Cues      []timeline.Cue
}

// Segment is one scene-tagged portion of the narration.
type Segment struct {
	Text        string  `json:"text"`
	ScenePrompt string  `json:"scene_prompt"`
	Caption     string  `json:"caption,omitempty"`
	Seconds     float64 `json:"seconds"`
}

// sceneMarkerRe matches the inline markers Encode emits:
// [SCENE: prompt | caption | 6.5s]
var sceneMarkerRe = regexp.MustCompile(`^\[SCENE: (.*) \| (.*) \| ([0-9]+(?:\.[0-9]+)?)s\]$`)

// sanitizeField strips characters that would corrupt the marker line.
func sanitizeField(s string) string {
	s = strings.ReplaceAll(s, "|", "/")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

// Encode renders segments into the single-text persisted script form.
func Encode(segments []Segment) string {
	var sb strings.Builder
	for i, seg := range segments {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[SCENE: %s | %s | %gs]\n", sanitizeField(seg.ScenePrompt), sanitizeField(seg.Caption), seg.Seconds)
		sb.WriteString(strings.TrimSpace(seg.Text))
	}
	return sb.String()
}

// Decode reconstructs a Script from its persisted text form. Lines that are
// not scene markers accumulate into the narration; marker-free text yields a
// script with no cues.
func Decode(text string) *Script {
	script := &Script{Text: text}

	var narration []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if m := sceneMarkerRe.FindStringSubmatch(trimmed); m != nil {
			seconds, err := strconv.ParseFloat(m[3], 64)
			if err != nil {
				seconds = 0
			}
			script.Cues = append(script.Cues, timeline.Cue{
				Prompt:  m[1],
				Caption: m[2],
				Seconds: seconds,
			})
			continue
		}
		if trimmed != "" {
			narration = append(narration, trimmed)
		}
	}

	script.Narration = strings.Join(narration, "\n")
	return script
}

// FromSegments builds the full Script from generated segments.
func FromSegments(segments []Segment) *Script {
	return Decode(Encode(segments))
}
