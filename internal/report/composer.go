// Package report assembles the three aggregate tables into a single
// self-contained HTML dashboard. The only external reference in the generated
// document is the Plotly runtime loaded from its CDN at view time.
package report

import (
	"bytes"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/tigerroll/tripboard/internal/aggregate"
	"github.com/tigerroll/tripboard/internal/config"
	"github.com/tigerroll/tripboard/internal/support/configbinder"
	"github.com/tigerroll/tripboard/internal/support/exception"
	"github.com/tigerroll/tripboard/internal/support/logger"
)

const moduleName = "report"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// HourlyPanelProperties are the chart properties of the circadian panel.
type HourlyPanelProperties struct {
	Color string `yaml:"color"`
}

// DailyPanelProperties are the chart properties of the daily trend panel.
type DailyPanelProperties struct {
	Color string `yaml:"color"`
}

// NightPanelProperties are the chart properties of the hotspot heat-map panel.
type NightPanelProperties struct {
	Colorscale string `yaml:"colorscale"`
}

// Composer renders the dashboard document and writes it to disk.
type Composer struct {
	height int
	hourly HourlyPanelProperties
	daily  DailyPanelProperties
	night  NightPanelProperties
}

// NewComposer creates a Composer, binding the per-panel chart properties from
// the free-form configuration maps.
func NewComposer(cfg *config.Config) (*Composer, error) {
	c := &Composer{
		height: cfg.Tripboard.Report.Height,
		hourly: HourlyPanelProperties{Color: "#1f77b4"},
		daily:  DailyPanelProperties{Color: "#ff7f0e"},
		night:  NightPanelProperties{Colorscale: "Viridis"},
	}
	if c.height <= 0 {
		c.height = 420
	}

	props := cfg.Tripboard.Report.PanelProperties
	if err := configbinder.Bind(props["hourly"], &c.hourly); err != nil {
		return nil, exception.NewPipelineError(moduleName, "failed to bind hourly panel properties", err)
	}
	if err := configbinder.Bind(props["daily"], &c.daily); err != nil {
		return nil, exception.NewPipelineError(moduleName, "failed to bind daily panel properties", err)
	}
	if err := configbinder.Bind(props["night"], &c.night); err != nil {
		return nil, exception.NewPipelineError(moduleName, "failed to bind night panel properties", err)
	}
	return c, nil
}

// Metadata carries the run details embedded in the document.
type Metadata struct {
	// Months are the covered month identifiers, in request order.
	Months []string
	// RunID identifies the pipeline run that produced the document.
	RunID string
	// GeneratedAt is the render timestamp.
	GeneratedAt time.Time
}

// templateData is the payload handed to the page template.
type templateData struct {
	Title       string
	MonthList   string
	HourlyJSON  template.JS
	DailyJSON   template.JS
	NightJSON   template.JS
	NightEmpty  bool
	RunID       string
	GeneratedAt string
}

// Render produces the full HTML document for the three aggregate tables.
// An empty hotspot table renders an explicit "no data" placeholder in place
// of the heat-map panel.
func (c *Composer) Render(
	hourly []aggregate.HourlyRow,
	daily []aggregate.DailyRow,
	night []aggregate.HotspotRow,
	meta Metadata,
) ([]byte, error) {
	hourlyJSON, err := c.hourlyFigure(hourly)
	if err != nil {
		return nil, err
	}
	dailyJSON, err := c.dailyFigure(daily)
	if err != nil {
		return nil, err
	}

	data := templateData{
		Title:       "NYC Yellow Taxi Ridership Patterns — " + strings.Join(meta.Months, ", "),
		MonthList:   strings.Join(meta.Months, ", "),
		HourlyJSON:  hourlyJSON,
		DailyJSON:   dailyJSON,
		NightEmpty:  len(night) == 0,
		RunID:       meta.RunID,
		GeneratedAt: meta.GeneratedAt.UTC().Format(time.RFC3339),
	}
	if !data.NightEmpty {
		nightJSON, err := c.nightFigure(night)
		if err != nil {
			return nil, err
		}
		data.NightJSON = nightJSON
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, exception.NewPipelineError(moduleName, "failed to execute dashboard template", err)
	}
	return buf.Bytes(), nil
}

// Write stores the rendered document at path, creating parent directories as
// needed and overwriting any existing file unconditionally.
func (c *Composer) Write(path string, document []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return exception.NewPipelineErrorf(moduleName, "failed to create output directory %s", dir, err)
		}
	}
	if err := os.WriteFile(path, document, 0o644); err != nil {
		return exception.NewPipelineErrorf(moduleName, "failed to write dashboard to %s", path, err)
	}
	logger.Infof("Dashboard document written to %s (%d bytes).", path, len(document))
	return nil
}

// figure is the Plotly payload of one panel: a trace list plus a layout.
type figure struct {
	Data   []map[string]interface{} `json:"data"`
	Layout map[string]interface{}   `json:"layout"`
}

func (c *Composer) hourlyFigure(rows []aggregate.HourlyRow) (template.JS, error) {
	hours := make([]int, len(rows))
	trips := make([]int, len(rows))
	avg := make([]interface{}, len(rows))
	for i, row := range rows {
		hours[i] = row.PickupHour
		trips[i] = row.Trips
		if row.AvgPassengerCount != nil {
			avg[i] = *row.AvgPassengerCount
		}
	}

	fig := figure{
		Data: []map[string]interface{}{{
			"type":          "scatter",
			"mode":          "lines+markers",
			"name":          "Trips per hour",
			"x":             hours,
			"y":             trips,
			"customdata":    avg,
			"line":          map[string]interface{}{"color": c.hourly.Color},
			"hovertemplate": "Hour %{x}:00<br>Trips: %{y:,}<br>Avg passengers: %{customdata:.2f}<extra></extra>",
		}},
		Layout: c.layout("Circadian Ridership (Hourly Pickups)", map[string]interface{}{
			"title": "Pickup hour",
			"dtick": 1,
		}, "Trips"),
	}
	return c.marshalFigure(fig, "hourly")
}

func (c *Composer) dailyFigure(rows []aggregate.DailyRow) (template.JS, error) {
	days := make([]string, len(rows))
	trips := make([]int, len(rows))
	for i, row := range rows {
		days[i] = row.ServiceDay
		trips[i] = row.Trips
	}

	fig := figure{
		Data: []map[string]interface{}{{
			"type":          "bar",
			"name":          "Daily trips",
			"x":             days,
			"y":             trips,
			"marker":        map[string]interface{}{"color": c.daily.Color},
			"hovertemplate": "%{x}: %{y:,} trips<extra></extra>",
		}},
		Layout: c.layout("Daily Trip Totals", map[string]interface{}{
			"title": "Service day",
		}, "Trips"),
	}
	return c.marshalFigure(fig, "daily")
}

func (c *Composer) nightFigure(rows []aggregate.HotspotRow) (template.JS, error) {
	// Rows arrive ordered hour asc, trips desc, which keeps the heat-map
	// readable without re-sorting in the browser.
	hours := make([]int, len(rows))
	zones := make([]string, len(rows))
	trips := make([]int, len(rows))
	for i, row := range rows {
		hours[i] = row.PickupHour
		zones[i] = row.ZoneName
		trips[i] = row.Trips
	}

	fig := figure{
		Data: []map[string]interface{}{{
			"type":          "heatmap",
			"x":             hours,
			"y":             zones,
			"z":             trips,
			"colorscale":    c.night.Colorscale,
			"colorbar":      map[string]interface{}{"title": "Trips"},
			"hovertemplate": "Hour %{x}:00<br>%{y}<br>Trips: %{z:,}<extra></extra>",
		}},
		Layout: c.layout("Nighttime Drop-off Hot Spots", map[string]interface{}{
			"title": "Pickup hour",
			"dtick": 1,
		}, "Drop-off zone"),
	}
	return c.marshalFigure(fig, "night")
}

// layout builds the shared Plotly layout of a panel.
func (c *Composer) layout(title string, xaxis map[string]interface{}, yaxisTitle string) map[string]interface{} {
	return map[string]interface{}{
		"title":      map[string]interface{}{"text": title, "x": 0.0, "xanchor": "left"},
		"height":     c.height,
		"template":   "plotly_white",
		"showlegend": false,
		"margin":     map[string]interface{}{"l": 60, "r": 40, "t": 60, "b": 50},
		"xaxis":      xaxis,
		"yaxis":      map[string]interface{}{"title": yaxisTitle},
	}
}

func (c *Composer) marshalFigure(fig figure, panel string) (template.JS, error) {
	payload, err := json.Marshal(fig)
	if err != nil {
		return "", exception.NewPipelineErrorf(moduleName, "failed to marshal %s panel payload", panel, err)
	}
	return template.JS(payload), nil
}
