package report_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/tripboard/internal/aggregate"
	"github.com/tigerroll/tripboard/internal/config"
	"github.com/tigerroll/tripboard/internal/report"
)

func float64Ptr(v float64) *float64 { return &v }

func sampleTables() ([]aggregate.HourlyRow, []aggregate.DailyRow, []aggregate.HotspotRow) {
	hourly := []aggregate.HourlyRow{
		{PickupHour: 0, Trips: 120, AvgPassengerCount: float64Ptr(1.4)},
		{PickupHour: 1, Trips: 80, AvgPassengerCount: nil},
	}
	daily := []aggregate.DailyRow{
		{ServiceDay: "2025-01-01", Trips: 180},
		{ServiceDay: "2025-01-02", Trips: 20},
	}
	night := []aggregate.HotspotRow{
		{PickupHour: 22, ZoneName: "East Village", Trips: 40},
		{PickupHour: 22, ZoneName: "Zone 264", Trips: 12},
	}
	return hourly, daily, night
}

func newComposer(t *testing.T) *report.Composer {
	t.Helper()
	composer, err := report.NewComposer(config.NewConfig())
	require.NoError(t, err)
	return composer
}

func testMetadata() report.Metadata {
	return report.Metadata{
		Months:      []string{"2025-01", "2025-02"},
		RunID:       "test-run",
		GeneratedAt: time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRender_ContainsThreePanelsAndMetadata(t *testing.T) {
	hourly, daily, night := sampleTables()
	document, err := newComposer(t).Render(hourly, daily, night, testMetadata())
	require.NoError(t, err)

	html := string(document)
	assert.Contains(t, html, "cdn.plot.ly")
	assert.Contains(t, html, "NYC Yellow Taxi Ridership Patterns — 2025-01, 2025-02")
	assert.Contains(t, html, `id="hourly-panel"`)
	assert.Contains(t, html, `id="daily-panel"`)
	assert.Contains(t, html, `id="night-panel"`)
	assert.Contains(t, html, `"heatmap"`)
	assert.Contains(t, html, "East Village")
	assert.Contains(t, html, "Zone 264")
	assert.Contains(t, html, "lines+markers")
	assert.Contains(t, html, "#1f77b4")
	assert.Contains(t, html, "#ff7f0e")
	assert.Contains(t, html, "Viridis")
	assert.Contains(t, html, "test-run")
	assert.NotContains(t, html, "No nighttime trip data available.")
}

func TestRender_EmptyNightTableRendersPlaceholder(t *testing.T) {
	hourly, daily, _ := sampleTables()
	document, err := newComposer(t).Render(hourly, daily, nil, testMetadata())
	require.NoError(t, err)

	html := string(document)
	assert.Contains(t, html, "No nighttime trip data available.")
	assert.NotContains(t, html, `"heatmap"`)
}

func TestNewComposer_BindsPanelPropertiesFromConfig(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Tripboard.Report.PanelProperties["hourly"] = map[string]interface{}{"color": "#123456"}
	cfg.Tripboard.Report.PanelProperties["night"] = map[string]interface{}{"colorscale": "Cividis"}

	composer, err := report.NewComposer(cfg)
	require.NoError(t, err)

	hourly, daily, night := sampleTables()
	document, err := composer.Render(hourly, daily, night, testMetadata())
	require.NoError(t, err)

	html := string(document)
	assert.Contains(t, html, "#123456")
	assert.Contains(t, html, "Cividis")
	// The daily panel keeps its default because only hourly and night were overridden.
	assert.Contains(t, html, "#ff7f0e")
	assert.NotContains(t, html, "Viridis")
}

func TestWrite_CreatesParentDirsAndOverwrites(t *testing.T) {
	composer := newComposer(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deeper", "dashboard.html")

	require.NoError(t, composer.Write(path, []byte("first")))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(content))

	require.NoError(t, composer.Write(path, []byte("second")))
	content, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))
}
