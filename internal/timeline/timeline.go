// Package timeline maps narration cues onto a fixed-length audio track as a
// frame-accurate, gapless segment sequence.
package timeline

import "math"

// PlaceholderImage is the image reference used when a script carries no cues.
const PlaceholderImage = "placeholder.png"

// Cue is a narrative marker with an image prompt and an advisory duration.
// The duration is a hint authored before the true audio length is known; the
// synchronizer rescales it against the measured track.
type Cue struct {
	Prompt  string  `json:"prompt"`
	Caption string  `json:"caption,omitempty"`
	Seconds float64 `json:"seconds"`
	Image   string  `json:"image,omitempty"`
}

// Segment is a half-open frame span [StartFrame, EndFrame) showing one image.
type Segment struct {
	StartFrame int    `json:"start_frame"`
	EndFrame   int    `json:"end_frame"`
	Image      string `json:"image"`
	Caption    string `json:"caption,omitempty"`
}

// Frames returns the segment's length in frames.
func (s Segment) Frames() int {
	return s.EndFrame - s.StartFrame
}

// Timeline is the synchronized schedule for one broadcast.
type Timeline struct {
	Segments    []Segment `json:"segments"`
	TotalFrames int       `json:"total_frames"`
	FPS         int       `json:"fps"`
	AudioPath   string    `json:"audio_path,omitempty"`
	Title       string    `json:"title,omitempty"`
}

// Build distributes cues across an audio track of exactly known duration.
// Cue durations are advisory; the measured audio length is ground truth, so
// cue durations are scaled proportionally, rounded per cue, clamped to the
// track, and the last segment absorbs any rounding remainder. The result
// always covers [0, TotalFrames) contiguously. Build never fails for
// non-negative inputs.
func Build(cues []Cue, audioSeconds float64, fps int) *Timeline {
	totalFrames := int(math.Ceil(audioSeconds * float64(fps)))
	if totalFrames < 0 {
		totalFrames = 0
	}

	tl := &Timeline{
		TotalFrames: totalFrames,
		FPS:         fps,
	}

	if len(cues) == 0 {
		tl.Segments = []Segment{{StartFrame: 0, EndFrame: totalFrames, Image: PlaceholderImage}}
		return tl
	}

	nominalSum := 0.0
	for _, cue := range cues {
		nominalSum += cue.Seconds
	}
	// Degenerate hints: treat every cue as equally weighted.
	if nominalSum <= 0 {
		scaled := make([]Cue, len(cues))
		copy(scaled, cues)
		for i := range scaled {
			scaled[i].Seconds = 1
		}
		cues = scaled
		nominalSum = float64(len(cues))
	}

	scaleFactor := audioSeconds / nominalSum

	segments := make([]Segment, 0, len(cues))
	currentFrame := 0
	for _, cue := range cues {
		durationFrames := int(math.Round(cue.Seconds * scaleFactor * float64(fps)))
		endFrame := currentFrame + durationFrames
		if endFrame > totalFrames {
			endFrame = totalFrames
		}
		segments = append(segments, Segment{
			StartFrame: currentFrame,
			EndFrame:   endFrame,
			Image:      cue.Image,
			Caption:    cue.Caption,
		})
		currentFrame = endFrame
	}

	// Rounding can leave the walk short of the track end; the last segment
	// absorbs the remainder so coverage is always exact.
	if currentFrame < totalFrames {
		segments[len(segments)-1].EndFrame = totalFrames
	}

	tl.Segments = segments
	return tl
}
