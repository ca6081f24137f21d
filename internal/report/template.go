package report

import "html/template"

// plotlyCDN is the externally hosted charting runtime, the single network
// reference allowed in the generated document.
const plotlyCDN = "https://cdn.plot.ly/plotly-2.32.0.min.js"

var pageTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>NYC Taxi Dashboard</title>
    <script src="` + plotlyCDN + `" charset="utf-8"></script>
    <style>
      body {
        font-family: 'Helvetica Neue', Arial, sans-serif;
        margin: 40px auto;
        max-width: 1200px;
        line-height: 1.6;
        color: #111;
      }
      h1 { margin-bottom: 0; }
      h2 { margin-top: 2em; }
      a { color: #1f77b4; }
      .panel { margin-top: 1.5em; }
      .panel-row { display: grid; grid-template-columns: 1fr 1fr; gap: 16px; }
      .placeholder {
        display: flex;
        align-items: center;
        justify-content: center;
        min-height: 200px;
        border: 1px dashed #999;
        color: #666;
      }
      footer { margin-top: 3em; font-size: 0.8em; color: #888; }
    </style>
  </head>
  <body>
    <h1>{{.Title}}</h1>
    <h2>Ridership overview</h2>
    <p>
      This dashboard summarizes NYC yellow taxi ridership for {{.MonthList}}.
      Data is sourced from the
      <a href="https://www.nyc.gov/site/tlc/about/tlc-trip-record-data.page">NYC TLC trip record portal</a>
      and aggregated from the public parquet files.
    </p>
    <div id="hourly-panel" class="panel"></div>
    <div class="panel-row">
      <div id="daily-panel" class="panel"></div>
      {{if .NightEmpty}}
      <div id="night-panel" class="panel placeholder">No nighttime trip data available.</div>
      {{else}}
      <div id="night-panel" class="panel"></div>
      {{end}}
    </div>
    <script>
      (function () {
        var hourly = {{.HourlyJSON}};
        Plotly.newPlot("hourly-panel", hourly.data, hourly.layout, {responsive: true});
        var daily = {{.DailyJSON}};
        Plotly.newPlot("daily-panel", daily.data, daily.layout, {responsive: true});
        {{if not .NightEmpty}}
        var night = {{.NightJSON}};
        Plotly.newPlot("night-panel", night.data, night.layout, {responsive: true});
        {{end}}
      })();
    </script>
    <footer>Report {{.RunID}} generated at {{.GeneratedAt}}.</footer>
  </body>
</html>
`))
