package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/tripboard/internal/config"
)

func TestLoadConfig_DefaultsSurviveEmptyYAML(t *testing.T) {
	cfg, err := config.LoadConfig("", config.EmbeddedConfig(nil))
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Tripboard.System.Logging.Level)
	assert.Equal(t, "data/raw", cfg.Tripboard.Source.CacheDir)
	assert.Equal(t, []string{"2025-01", "2025-02", "2025-03"}, cfg.Tripboard.Source.Months)
	assert.Equal(t, 4096, cfg.Tripboard.Engine.ChunkSize)
	assert.Equal(t, 8, cfg.Tripboard.Engine.NightTopZones)
	assert.Equal(t, "outputs/dashboard.html", cfg.Tripboard.Report.OutputPath)
}

func TestLoadConfig_YAMLOverridesDefaults(t *testing.T) {
	yaml := []byte(`
tripboard:
  system:
    logging:
      level: DEBUG
  source:
    cache_dir: /tmp/tripboard-cache
    months:
      - "2024-11"
  engine:
    night_top_zones: 5
  report:
    panels:
      night:
        colorscale: Cividis
`)
	cfg, err := config.LoadConfig("", config.EmbeddedConfig(yaml))
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Tripboard.System.Logging.Level)
	assert.Equal(t, "/tmp/tripboard-cache", cfg.Tripboard.Source.CacheDir)
	assert.Equal(t, []string{"2024-11"}, cfg.Tripboard.Source.Months)
	assert.Equal(t, 5, cfg.Tripboard.Engine.NightTopZones)
	assert.Equal(t, map[string]interface{}{"colorscale": "Cividis"}, cfg.Tripboard.Report.PanelProperties["night"])
	// Unset keys keep their defaults.
	assert.Equal(t, 4096, cfg.Tripboard.Engine.ChunkSize)
	assert.Equal(t, map[string]interface{}{"color": "#1f77b4"}, cfg.Tripboard.Report.PanelProperties["hourly"])
}

func TestLoadConfig_EnvironmentOverridesYAML(t *testing.T) {
	t.Setenv("TRIPBOARD_SOURCE_CACHE_DIR", "/var/cache/tripboard")
	t.Setenv("TRIPBOARD_ENGINE_CHUNK_SIZE", "128")
	t.Setenv("TRIPBOARD_SOURCE_MONTHS", "2025-05, 2025-06")

	yaml := []byte(`
tripboard:
  source:
    cache_dir: /tmp/from-yaml
`)
	cfg, err := config.LoadConfig("", config.EmbeddedConfig(yaml))
	require.NoError(t, err)

	assert.Equal(t, "/var/cache/tripboard", cfg.Tripboard.Source.CacheDir)
	assert.Equal(t, 128, cfg.Tripboard.Engine.ChunkSize)
	assert.Equal(t, []string{"2025-05", "2025-06"}, cfg.Tripboard.Source.Months)
}

func TestLoadConfig_MalformedYAMLIsFatal(t *testing.T) {
	_, err := config.LoadConfig("", config.EmbeddedConfig([]byte("tripboard: [")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal embedded config")
}
