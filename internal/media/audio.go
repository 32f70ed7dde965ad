package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// CommandSynthesizer shells out to a TTS command that accepts
// --text "..." --output path/to/file.mp3, and measures the produced audio
// with ffprobe.
type CommandSynthesizer struct {
	command string
	outDir  string
}

// NewCommandSynthesizer creates a synthesizer. An empty command falls back
// to edge-tts when it is on PATH.
func NewCommandSynthesizer(command, outDir string) (*CommandSynthesizer, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		if _, err := exec.LookPath("edge-tts"); err == nil {
			command = "edge-tts"
		} else {
			return nil, fmt.Errorf("no TTS engine found: set tts_command in config or install edge-tts")
		}
	}
	return &CommandSynthesizer{command: command, outDir: outDir}, nil
}

// Synthesize writes narration audio and returns its path and measured
// duration.
func (s *CommandSynthesizer) Synthesize(ctx context.Context, text string) (string, float64, error) {
	if err := os.MkdirAll(s.outDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create audio dir: %w", err)
	}
	outFile := filepath.Join(s.outDir, "narration.mp3")

	var cmd *exec.Cmd
	if s.command == "edge-tts" {
		cmd = exec.CommandContext(ctx, "edge-tts",
			"--voice", "en-US-GuyNeural",
			"--text", text,
			"--write-media", outFile,
		)
	} else {
		cmd = exec.CommandContext(ctx, s.command,
			"--text", text,
			"--output", outFile,
		)
	}

	if out, err := cmd.CombinedOutput(); err != nil {
		return "", 0, &Error{Tool: s.command, Message: "TTS synthesis failed", Output: string(out), Cause: err}
	}

	// The produced file must exist and be measurable; a TTS run that wrote
	// nothing is a failure even when the command exited zero.
	seconds, err := ProbeDuration(ctx, outFile)
	if err != nil {
		return "", 0, err
	}

	return outFile, seconds, nil
}

// ProbeDuration uses ffprobe to measure a media file's duration in seconds.
func ProbeDuration(ctx context.Context, path string) (float64, error) {
	out, err := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return 0, &Error{Tool: "ffprobe", Message: fmt.Sprintf("failed to measure %s", path), Cause: err}
	}

	var seconds float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &seconds); err != nil {
		return 0, &Error{Tool: "ffprobe", Message: "unparseable duration", Output: string(out), Cause: err}
	}
	return seconds, nil
}
