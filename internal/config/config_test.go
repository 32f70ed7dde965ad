package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, `{
		"location": "BOX",
		"broadcast_time": "07:30",
		"fps": 24,
		"verbose": true
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "BOX", cfg.Location)
	assert.Equal(t, "07:30", cfg.BroadcastTime)
	assert.Equal(t, 24, cfg.FPS)
	assert.True(t, cfg.Verbose)
	assert.Zero(t, cfg.StartNumber)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig("")
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := writeConfigFile(t, `{not json`)
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"empty config is valid", Config{}, false},
		{"defaults are valid", Defaults, false},
		{"bad broadcast time", Config{BroadcastTime: "6pm"}, true},
		{"fps out of range", Config{FPS: 500}, true},
		{"negative style epoch", Config{StyleEpoch: -1}, true},
		{"bad weather url", Config{WeatherURL: "not a url"}, true},
		{"good urls", Config{WeatherURL: "https://forecast.weather.gov", ImageURL: "https://image.pollinations.ai"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{Location: "SEW", Verbose: true}
	merged := cfg.MergeWithDefaults(Defaults)

	assert.Equal(t, "SEW", merged.Location, "explicit value wins")
	assert.Equal(t, "18:00", merged.BroadcastTime)
	assert.Equal(t, 1, merged.StartNumber)
	assert.Equal(t, 30, merged.FPS)
	assert.Equal(t, "episodes", merged.OutputDir)
	assert.True(t, merged.Verbose)

	// The receiver is not mutated.
	assert.Empty(t, cfg.BroadcastTime)
}
