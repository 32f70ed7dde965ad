// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via
// CLI flags or the environment.
type Config struct {
	// Broadcast identity
	Location      string `json:"location,omitempty" validate:"omitempty,min=2,max=64"`      // NWS office identifier, e.g. OKX
	BroadcastTime string `json:"broadcast_time,omitempty" validate:"omitempty,datetime=15:04"` // Local air time, HH:MM
	StartNumber   int    `json:"start_number,omitempty" validate:"omitempty,min=1"`         // Number given to the first episode

	// Rendering
	FPS        int    `json:"fps,omitempty" validate:"omitempty,min=1,max=120"`
	OutputDir  string `json:"output_dir,omitempty"`
	StyleEpoch int    `json:"style_epoch,omitempty" validate:"omitempty,min=0"`

	// External services
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	WeatherURL  string `json:"weather_url,omitempty" validate:"omitempty,url"`
	ImageURL    string `json:"image_url,omitempty" validate:"omitempty,url"`
	TTSCommand  string `json:"tts_command,omitempty"` // Override for the text-to-speech binary

	// Behavior
	Verbose bool `json:"verbose,omitempty"`
}

// Defaults are the built-in settings applied under any config file or flags.
var Defaults = Config{
	Location:      "OKX",
	BroadcastTime: "18:00",
	StartNumber:   1,
	FPS:           30,
	OutputDir:     "episodes",
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Required fields are not checked here; those are enforced by CLI flag
// validation after merging.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			first := verrs[0]
			return fmt.Errorf("config error: field %q failed %q validation", first.Field(), first.Tag())
		}
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled from
// defaults. This is used to apply config file values as defaults for CLI
// flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Location == "" {
		result.Location = defaults.Location
	}
	if result.BroadcastTime == "" {
		result.BroadcastTime = defaults.BroadcastTime
	}
	if result.StartNumber == 0 {
		result.StartNumber = defaults.StartNumber
	}
	if result.FPS == 0 {
		result.FPS = defaults.FPS
	}
	if result.OutputDir == "" {
		result.OutputDir = defaults.OutputDir
	}
	if result.StyleEpoch == 0 {
		result.StyleEpoch = defaults.StyleEpoch
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.WeatherURL == "" {
		result.WeatherURL = defaults.WeatherURL
	}
	if result.ImageURL == "" {
		result.ImageURL = defaults.ImageURL
	}
	if result.TTSCommand == "" {
		result.TTSCommand = defaults.TTSCommand
	}
	if !result.Verbose {
		result.Verbose = defaults.Verbose
	}

	return result
}
