package config

// Package config provides structures and utilities for managing the tripboard configuration.

// EmbeddedConfig holds the content of the configuration file, typically passed from main.go.
type EmbeddedConfig []byte

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g. "INFO", "DEBUG").
	Level string `yaml:"level"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	// Timezone is the application timezone. Trip timestamps are rendered as stored,
	// so this only affects log output.
	Timezone string `yaml:"timezone"`
	// Logging is the logging configuration.
	Logging LoggingConfig `yaml:"logging"`
}

// SourceConfig holds the remote data source and local cache settings.
type SourceConfig struct {
	// BaseURL is the base URL of the monthly trip record feed.
	BaseURL string `yaml:"base_url"`
	// ZoneLookupURL is the URL of the taxi zone lookup table.
	ZoneLookupURL string `yaml:"zone_lookup_url"`
	// CacheDir is the directory holding the downloaded raw files. A file present
	// under this directory is treated as valid and is never re-fetched.
	CacheDir string `yaml:"cache_dir"`
	// Months is the default list of YYYY-MM months to include.
	Months []string `yaml:"months"`
}

// EngineConfig holds settings for the staging loader and the aggregation engine.
type EngineConfig struct {
	// ChunkSize is the number of parquet rows read and staged per batch.
	ChunkSize int `yaml:"chunk_size"`
	// NightTopZones is the number of top drop-off zones kept per night hour.
	NightTopZones int `yaml:"night_top_zones"`
}

// ReportConfig holds settings for the report composer.
type ReportConfig struct {
	// OutputPath is the default path of the generated HTML document.
	OutputPath string `yaml:"output_path"`
	// Height is the pixel height of each chart panel.
	Height int `yaml:"height"`
	// PanelProperties holds free-form per-panel chart properties
	// (keys: "hourly", "daily", "night"), bound by each panel at render time.
	PanelProperties map[string]map[string]interface{} `yaml:"panels"`
}

// TripboardConfig holds all configuration under the "tripboard" top-level key.
type TripboardConfig struct {
	// System contains system-wide configurations.
	System SystemConfig `yaml:"system"`
	// Source contains remote feed and cache configurations.
	Source SourceConfig `yaml:"source"`
	// Engine contains staging and aggregation configurations.
	Engine EngineConfig `yaml:"engine"`
	// Report contains report composer configurations.
	Report ReportConfig `yaml:"report"`
}

// Config is the root structure for the entire application configuration.
type Config struct {
	Tripboard TripboardConfig `yaml:"tripboard"`
}

// NewConfig returns a new instance of Config with default values.
// The defaults reproduce the public TLC feed locations and the standard
// three-month early-2025 window.
func NewConfig() *Config {
	return &Config{
		Tripboard: TripboardConfig{
			System: SystemConfig{
				Timezone: "UTC",
				Logging:  LoggingConfig{Level: "INFO"},
			},
			Source: SourceConfig{
				BaseURL:       "https://d37ci6vzurychx.cloudfront.net/trip-data",
				ZoneLookupURL: "https://d37ci6vzurychx.cloudfront.net/misc/taxi_zone_lookup.csv",
				CacheDir:      "data/raw",
				Months:        []string{"2025-01", "2025-02", "2025-03"},
			},
			Engine: EngineConfig{
				ChunkSize:     4096,
				NightTopZones: 8,
			},
			Report: ReportConfig{
				OutputPath: "outputs/dashboard.html",
				Height:     420,
				PanelProperties: map[string]map[string]interface{}{
					"hourly": {"color": "#1f77b4"},
					"daily":  {"color": "#ff7f0e"},
					"night":  {"colorscale": "Viridis"},
				},
			},
		},
	}
}
