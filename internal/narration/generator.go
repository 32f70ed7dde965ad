package narration

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonathan/weathercast/internal/llm"
	"github.com/jonathan/weathercast/internal/schemas"
	"github.com/jonathan/weathercast/internal/weather"
)

// SchemaRelPath is the narration output schema, relative to the repo root.
const SchemaRelPath = "schemas/narration_script.json"

// DateContext carries broadcast identity into script generation.
type DateContext struct {
	Date          time.Time
	BroadcastTime string
	EpisodeNumber int
}

// Generator produces a narration script from a weather report.
type Generator interface {
	Generate(ctx context.Context, report *weather.Report, dateCtx DateContext) (*Script, error)
}

// GeminiGenerator generates scripts with the Gemini API and validates the
// response against the narration schema before accepting it.
type GeminiGenerator struct {
	client     llm.Client
	schemaPath string
}

// NewGeminiGenerator creates a generator. An empty schemaPath resolves the
// bundled schema relative to the working directory.
func NewGeminiGenerator(client llm.Client, schemaPath string) *GeminiGenerator {
	if schemaPath == "" {
		schemaPath = schemas.ResolveSchemaPath(SchemaRelPath)
	}
	return &GeminiGenerator{client: client, schemaPath: schemaPath}
}

type scriptPayload struct {
	Segments []Segment `json:"segments"`
}

// Generate asks the model for a scene-segmented script and returns it in
// canonical encoded form.
func (g *GeminiGenerator) Generate(ctx context.Context, report *weather.Report, dateCtx DateContext) (*Script, error) {
	prompt := buildPrompt(report, dateCtx)

	raw, err := g.client.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("narration generation failed: %w", err)
	}

	if g.schemaPath != "" {
		if err := schemas.ValidateAgainstFile(g.schemaPath, raw); err != nil {
			return nil, fmt.Errorf("narration output rejected: %w", err)
		}
	}

	var payload scriptPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse narration output: %w", err)
	}
	if len(payload.Segments) == 0 {
		return nil, fmt.Errorf("narration output contains no segments")
	}

	return FromSegments(payload.Segments), nil
}
