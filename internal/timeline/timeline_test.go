package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertCoverage checks the structural invariants every produced timeline
// must satisfy: ordered, contiguous, starting at frame 0, ending at
// TotalFrames, with no negative-length segments.
func assertCoverage(t *testing.T, tl *Timeline) {
	t.Helper()

	require.NotEmpty(t, tl.Segments)
	assert.Equal(t, 0, tl.Segments[0].StartFrame, "first segment must start at frame 0")
	assert.Equal(t, tl.TotalFrames, tl.Segments[len(tl.Segments)-1].EndFrame,
		"last segment must end at the track end")

	for i, seg := range tl.Segments {
		assert.GreaterOrEqual(t, seg.Frames(), 0, "segment %d has negative length", i)
		if i > 0 {
			assert.Equal(t, tl.Segments[i-1].EndFrame, seg.StartFrame,
				"segment %d must start where segment %d ends", i, i-1)
		}
	}
}

func TestBuild_ProportionalScaling(t *testing.T) {
	// 4 cues with 5s hints against a measured 27s track at 30fps:
	// scale factor 1.35, per-cue frames round(202.5) = 203, and the final
	// segment is clamped to 201 frames so the track is covered exactly.
	cues := []Cue{
		{Prompt: "sunrise over the coast", Seconds: 5, Image: "a.png"},
		{Prompt: "midday radar sweep", Seconds: 5, Image: "b.png"},
		{Prompt: "evening cloud bank", Seconds: 5, Image: "c.png"},
		{Prompt: "overnight lows map", Seconds: 5, Image: "d.png"},
	}

	tl := Build(cues, 27, 30)

	require.Len(t, tl.Segments, 4)
	assert.Equal(t, 810, tl.TotalFrames)
	assert.Equal(t, Segment{StartFrame: 0, EndFrame: 203, Image: "a.png"}, tl.Segments[0])
	assert.Equal(t, Segment{StartFrame: 203, EndFrame: 406, Image: "b.png"}, tl.Segments[1])
	assert.Equal(t, Segment{StartFrame: 406, EndFrame: 609, Image: "c.png"}, tl.Segments[2])
	assert.Equal(t, Segment{StartFrame: 609, EndFrame: 810, Image: "d.png"}, tl.Segments[3])
	assert.Equal(t, 201, tl.Segments[3].Frames())
	assertCoverage(t, tl)
}

func TestBuild_NoCues(t *testing.T) {
	tl := Build(nil, 12.5, 24)

	require.Len(t, tl.Segments, 1)
	assert.Equal(t, PlaceholderImage, tl.Segments[0].Image)
	assert.Equal(t, 300, tl.TotalFrames)
	assertCoverage(t, tl)
}

func TestBuild_RoundingRemainderExtendsLastSegment(t *testing.T) {
	// 3 cues over 10s at 30fps: 100 frames each would cover exactly, but
	// uneven hints force per-cue rounding that leaves a remainder.
	cues := []Cue{
		{Prompt: "one", Seconds: 3.3},
		{Prompt: "two", Seconds: 3.3},
		{Prompt: "three", Seconds: 3.3},
	}

	tl := Build(cues, 10, 30)

	assert.Equal(t, 300, tl.TotalFrames)
	assertCoverage(t, tl)
}

func TestBuild_CoverageInvariants(t *testing.T) {
	tests := []struct {
		name    string
		cues    []Cue
		seconds float64
		fps     int
	}{
		{"single cue", []Cue{{Prompt: "a", Seconds: 7}}, 31.2, 30},
		{"hints longer than audio", []Cue{{Seconds: 60}, {Seconds: 45}}, 8, 24},
		{"hints shorter than audio", []Cue{{Seconds: 1}, {Seconds: 2}}, 95.7, 25},
		{"many small cues", []Cue{{Seconds: 0.5}, {Seconds: 0.5}, {Seconds: 0.5}, {Seconds: 0.5}, {Seconds: 0.5}}, 13.37, 60},
		{"fractional frame total", []Cue{{Seconds: 4}, {Seconds: 4}}, 9.99, 30},
		{"zero duration hints", []Cue{{Seconds: 0}, {Seconds: 0}, {Seconds: 0}}, 6, 30},
		{"zero-length audio", []Cue{{Seconds: 5}, {Seconds: 5}}, 0, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := Build(tt.cues, tt.seconds, tt.fps)
			assert.Len(t, tl.Segments, len(tt.cues))
			assertCoverage(t, tl)
		})
	}
}

func TestBuild_ZeroDurationHintsSplitEvenly(t *testing.T) {
	tl := Build([]Cue{{Seconds: 0}, {Seconds: 0}}, 10, 30)

	require.Len(t, tl.Segments, 2)
	assert.Equal(t, 150, tl.Segments[0].Frames())
	assert.Equal(t, 150, tl.Segments[1].Frames())
}

func TestBuild_TotalFramesUsesCeil(t *testing.T) {
	tl := Build([]Cue{{Seconds: 1}}, 1.001, 30)
	assert.Equal(t, 31, tl.TotalFrames)
	assertCoverage(t, tl)
}
