// Package media holds the synthesis and compositing collaborators: audio
// synthesis, image synthesis, and the ffmpeg compositor.
package media

import (
	"context"
	"fmt"

	"github.com/jonathan/weathercast/internal/timeline"
)

// AudioSynthesizer turns narration text into an audio file.
type AudioSynthesizer interface {
	// Synthesize writes the narration audio and returns its file path and
	// measured duration in seconds.
	Synthesize(ctx context.Context, text string) (string, float64, error)
}

// ImageSynthesizer produces a still image for a scene prompt.
type ImageSynthesizer interface {
	// Synthesize writes an image for the prompt and returns its file path.
	Synthesize(ctx context.Context, prompt string) (string, error)
}

// Compositor renders a synchronized timeline into the final video.
type Compositor interface {
	Render(ctx context.Context, tl *timeline.Timeline) (string, error)
}

// Error represents a media tool failure with its captured output.
type Error struct {
	Tool    string
	Message string
	Output  string
	Cause   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Tool, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if e.Output != "" {
		msg += "\n" + e.Output
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}
