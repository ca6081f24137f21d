package job_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/tigerroll/tripboard/internal/aggregate"
	"github.com/tigerroll/tripboard/internal/cache"
	"github.com/tigerroll/tripboard/internal/config"
	"github.com/tigerroll/tripboard/internal/dataset"
	"github.com/tigerroll/tripboard/internal/job"
	"github.com/tigerroll/tripboard/internal/report"
)

func micros(t time.Time) *int64 {
	v := t.UnixMicro()
	return &v
}

func float64Ptr(v float64) *float64 { return &v }
func int64Ptr(v int64) *int64       { return &v }

// tripParquetBytes serializes trip records the way the monthly feed files are
// laid out, so the httptest server can act as the remote CDN.
func tripParquetBytes(t *testing.T, records []dataset.TripRecord) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	pw, err := writer.NewParquetWriterFromWriter(buf, new(dataset.TripRecord), 1)
	require.NoError(t, err)
	for _, rec := range records {
		require.NoError(t, pw.Write(rec))
	}
	require.NoError(t, pw.WriteStop())
	return buf.Bytes()
}

// oneTripPerHour builds the synthetic 24-record month: one trip per hour,
// passenger_count=1, all dropping off in the same unknown zone.
func oneTripPerHour(day time.Time) []dataset.TripRecord {
	var records []dataset.TripRecord
	for hour := 0; hour < 24; hour++ {
		pickup := day.Add(time.Duration(hour) * time.Hour)
		records = append(records, dataset.TripRecord{
			PickupDatetime:    micros(pickup),
			DropoffDatetime:   micros(pickup.Add(10 * time.Minute)),
			PassengerCount:    float64Ptr(1),
			DropoffLocationID: int64Ptr(999),
		})
	}
	return records
}

const zoneCSV = "\"LocationID\",\"Borough\",\"Zone\",\"service_zone\"\n" +
	"1,\"EWR\",\"Newark Airport\",\"EWR\"\n"

// newPipelineFixture stands up a fake feed server and a config pointed at it.
func newPipelineFixture(t *testing.T, parquetPayload []byte) (*config.Config, *int64) {
	t.Helper()
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		if strings.HasSuffix(r.URL.Path, ".csv") {
			w.Write([]byte(zoneCSV))
			return
		}
		w.Write(parquetPayload)
	}))
	t.Cleanup(server.Close)

	cfg := config.NewConfig()
	cfg.Tripboard.Source.BaseURL = server.URL + "/trip-data"
	cfg.Tripboard.Source.ZoneLookupURL = server.URL + "/misc/taxi_zone_lookup.csv"
	cfg.Tripboard.Source.CacheDir = t.TempDir()
	return cfg, &hits
}

func newJob(t *testing.T, cfg *config.Config) *job.DashboardJob {
	t.Helper()
	composer, err := report.NewComposer(cfg)
	require.NoError(t, err)
	return job.NewDashboardJob(cfg, cache.NewResolver(cfg), composer)
}

func TestRun_EndToEndSyntheticMonth(t *testing.T) {
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg, hits := newPipelineFixture(t, tripParquetBytes(t, oneTripPerHour(day)))
	dashboardJob := newJob(t, cfg)

	output := filepath.Join(t.TempDir(), "out", "dashboard.html")
	written, err := dashboardJob.Run(context.Background(), []string{"2025-01"}, output)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(written))

	html, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(html), "NYC Yellow Taxi Ridership Patterns — 2025-01")
	// Every drop-off is in a zone the lookup does not know.
	assert.Contains(t, string(html), "Zone 999")
	assert.EqualValues(t, 2, atomic.LoadInt64(hits)) // one month plus the lookup table

	// Second run against the unchanged cache never queries the network,
	// and the aggregates it is built from are identical.
	_, err = dashboardJob.Run(context.Background(), []string{"2025-01"}, output)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt64(hits))
}

func TestRun_HourlyAggregateOfSyntheticMonth(t *testing.T) {
	// Stage the same synthetic month directly and check the hourly table shape.
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg, _ := newPipelineFixture(t, tripParquetBytes(t, oneTripPerHour(day)))
	resolver := cache.NewResolver(cfg)

	inputs, err := resolver.Resolve(context.Background(), []string{"2025-01"})
	require.NoError(t, err)

	store, err := dataset.OpenStore(":memory:", cfg.Tripboard.Engine.ChunkSize)
	require.NoError(t, err)
	defer store.Close()
	_, err = store.LoadZoneLookup(context.Background(), inputs.ZoneLookupFile)
	require.NoError(t, err)
	staged, err := store.LoadTripFile(context.Background(), inputs.TripFiles[0])
	require.NoError(t, err)
	require.EqualValues(t, 24, staged)

	engine := aggregate.NewEngine(store.DB(), cfg.Tripboard.Engine.NightTopZones)
	hourly, err := engine.HourlyCircadian(context.Background())
	require.NoError(t, err)
	require.Len(t, hourly, 24)
	for i, row := range hourly {
		assert.Equal(t, i, row.PickupHour)
		assert.Equal(t, 1, row.Trips)
		require.NotNil(t, row.AvgPassengerCount)
		assert.Equal(t, 1.0, *row.AvgPassengerCount)
	}

	// Unknown drop-off zones surface through the fallback naming everywhere.
	night, err := engine.NightHotspots(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, night)
	for _, row := range night {
		assert.Equal(t, "Zone 999", row.ZoneName)
	}
}

func TestRun_EmptyNightWindowRendersPlaceholder(t *testing.T) {
	// A single noon trip: hourly and daily tables have data, the night window is empty.
	noon := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	payload := tripParquetBytes(t, []dataset.TripRecord{{
		PickupDatetime:    micros(noon),
		DropoffDatetime:   micros(noon.Add(5 * time.Minute)),
		PassengerCount:    float64Ptr(3),
		DropoffLocationID: int64Ptr(1),
	}})
	cfg, _ := newPipelineFixture(t, payload)
	dashboardJob := newJob(t, cfg)

	output := filepath.Join(t.TempDir(), "dashboard.html")
	_, err := dashboardJob.Run(context.Background(), []string{"2025-03"}, output)
	require.NoError(t, err)

	html, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(html), "No nighttime trip data available.")
	assert.NotContains(t, string(html), `"heatmap"`)
}

func TestRun_MalformedMonthFailsBeforeNetwork(t *testing.T) {
	cfg, hits := newPipelineFixture(t, nil)
	dashboardJob := newJob(t, cfg)

	_, err := dashboardJob.Run(context.Background(), []string{"January"}, filepath.Join(t.TempDir(), "x.html"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid month identifiers")
	assert.EqualValues(t, 0, atomic.LoadInt64(hits))
}
