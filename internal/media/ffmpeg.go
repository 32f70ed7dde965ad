package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/jonathan/weathercast/internal/timeline"
)

// FFmpegCompositor renders a timeline's still-image segments against the
// narration audio with ffmpeg's concat demuxer.
type FFmpegCompositor struct {
	outDir string
}

// NewFFmpegCompositor creates a compositor writing into outDir.
func NewFFmpegCompositor(outDir string) *FFmpegCompositor {
	return &FFmpegCompositor{outDir: outDir}
}

// Render composites the timeline into an MP4 and returns its path. Segment
// frame spans are converted back to seconds at the timeline's frame rate; the
// concat demuxer holds each still for exactly that long.
func (c *FFmpegCompositor) Render(ctx context.Context, tl *timeline.Timeline) (string, error) {
	if len(tl.Segments) == 0 {
		return "", fmt.Errorf("timeline has no segments")
	}
	if tl.AudioPath == "" {
		return "", fmt.Errorf("timeline has no audio reference")
	}
	if err := os.MkdirAll(c.outDir, 0o755); err != nil {
		return "", fmt.Errorf("create render dir: %w", err)
	}

	listFile := filepath.Join(c.outDir, "segments.txt")
	if err := os.WriteFile(listFile, []byte(ConcatList(tl)), 0o644); err != nil {
		return "", fmt.Errorf("write concat list: %w", err)
	}

	outFile := filepath.Join(c.outDir, "broadcast.mp4")
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-i", tl.AudioPath,
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "22",
		"-vf", "scale=1920:1080:force_original_aspect_ratio=decrease,pad=1920:1080:(ow-iw)/2:(oh-ih)/2,setsar=1",
		"-r", fmt.Sprintf("%d", tl.FPS),
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-shortest",
		outFile,
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		return "", &Error{Tool: "ffmpeg", Message: "render failed", Output: tail(string(out)), Cause: err}
	}

	if _, err := os.Stat(outFile); err != nil {
		return "", &Error{Tool: "ffmpeg", Message: "render produced no output file", Cause: err}
	}
	return outFile, nil
}

// ConcatList builds the ffmpeg concat demuxer input for a timeline. The
// demuxer requires the final image repeated without a duration directive.
func ConcatList(tl *timeline.Timeline) string {
	var sb strings.Builder
	for _, seg := range tl.Segments {
		fmt.Fprintf(&sb, "file '%s'\n", seg.Image)
		fmt.Fprintf(&sb, "duration %.4f\n", float64(seg.Frames())/float64(tl.FPS))
	}
	fmt.Fprintf(&sb, "file '%s'\n", tl.Segments[len(tl.Segments)-1].Image)
	return sb.String()
}

// tail keeps the useful end of ffmpeg's chatty output.
func tail(s string) string {
	const keep = 2000
	if len(s) <= keep {
		return s
	}
	return "..." + s[len(s)-keep:]
}
