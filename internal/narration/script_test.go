package narration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/weathercast/internal/timeline"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	segments := []Segment{
		{Text: "Good evening, here's your forecast.", ScenePrompt: "city skyline at dusk", Caption: "Tonight", Seconds: 6},
		{Text: "Rain moves in after midnight.\nExpect slick roads by morning.", ScenePrompt: "rain on a window", Caption: "Overnight", Seconds: 8.5},
		{Text: "That's all for today.", ScenePrompt: "sunset over hills", Seconds: 4},
	}

	script := FromSegments(segments)

	require.Len(t, script.Cues, 3)
	assert.Equal(t, timeline.Cue{Prompt: "city skyline at dusk", Caption: "Tonight", Seconds: 6}, script.Cues[0])
	assert.Equal(t, timeline.Cue{Prompt: "rain on a window", Caption: "Overnight", Seconds: 8.5}, script.Cues[1])
	assert.Equal(t, timeline.Cue{Prompt: "sunset over hills", Caption: "", Seconds: 4}, script.Cues[2])

	assert.Contains(t, script.Narration, "Good evening, here's your forecast.")
	assert.Contains(t, script.Narration, "Expect slick roads by morning.")
	assert.NotContains(t, script.Narration, "[SCENE:", "markers must not leak into the spoken text")

	// Decoding the persisted text again yields the same cues: resume safety.
	again := Decode(script.Text)
	assert.Equal(t, script.Cues, again.Cues)
	assert.Equal(t, script.Narration, again.Narration)
}

func TestEncode_SanitizesMarkerFields(t *testing.T) {
	script := FromSegments([]Segment{
		{Text: "Windy.", ScenePrompt: "flags | banners\nwhipping", Caption: "Gusts | 40mph", Seconds: 5},
	})

	require.Len(t, script.Cues, 1)
	assert.Equal(t, "flags / banners whipping", script.Cues[0].Prompt)
	assert.Equal(t, "Gusts / 40mph", script.Cues[0].Caption)
}

func TestDecode_MarkerFreeText(t *testing.T) {
	script := Decode("Just a plain narration.\nNo scenes at all.")

	assert.Empty(t, script.Cues)
	assert.Equal(t, "Just a plain narration.\nNo scenes at all.", script.Narration)
}

func TestDecode_IgnoresMalformedMarkers(t *testing.T) {
	text := "[SCENE: missing the rest\nActual narration line."
	script := Decode(text)

	assert.Empty(t, script.Cues)
	assert.Contains(t, script.Narration, "Actual narration line.")
}
