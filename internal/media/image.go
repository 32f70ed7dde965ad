package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// DefaultImageBaseURL is the prompt-to-image HTTP service.
const DefaultImageBaseURL = "https://image.pollinations.ai"

// HTTPImageSynthesizer generates stills through a prompt-in-the-URL image
// service.
type HTTPImageSynthesizer struct {
	baseURL string
	outDir  string
	style   string
	client  *http.Client
}

// NewHTTPImageSynthesizer creates a synthesizer writing into outDir. style is
// appended to every prompt so all stills in a broadcast share a treatment.
func NewHTTPImageSynthesizer(baseURL, outDir, style string) *HTTPImageSynthesizer {
	if baseURL == "" {
		baseURL = DefaultImageBaseURL
	}
	return &HTTPImageSynthesizer{
		baseURL: baseURL,
		outDir:  outDir,
		style:   style,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Synthesize fetches an image for the prompt and saves it locally. The file
// name is derived from the prompt so repeated calls overwrite rather than
// accumulate.
func (s *HTTPImageSynthesizer) Synthesize(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("empty image prompt")
	}
	if err := os.MkdirAll(s.outDir, 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}

	full := prompt
	if s.style != "" {
		full = prompt + ", " + s.style
	}

	imageURL := fmt.Sprintf("%s/prompt/%s?width=1920&height=1080&nologo=true",
		s.baseURL, url.PathEscape(full))

	sum := sha256.Sum256([]byte(full))
	outFile := filepath.Join(s.outDir, hex.EncodeToString(sum[:8])+".jpg")

	if err := s.download(ctx, imageURL, outFile); err != nil {
		return "", err
	}
	return outFile, nil
}

func (s *HTTPImageSynthesizer) download(ctx context.Context, imageURL, outFile string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; Weathercast/1.0)")

	resp, err := s.client.Do(req)
	if err != nil {
		return &Error{Tool: "image service", Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &Error{Tool: "image service", Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Tool: "image service", Message: "failed to read response", Cause: err}
	}
	// A tiny body is an error page, not an image.
	if len(data) < 100 {
		return &Error{Tool: "image service", Message: fmt.Sprintf("response too small (%d bytes)", len(data))}
	}

	return os.WriteFile(outFile, data, 0o644)
}
