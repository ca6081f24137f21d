// Package aggregate runs the three analytical queries of the dashboard
// pipeline against the staged dataset. The queries are independent and
// side-effect free; the staging database is read-only here.
package aggregate

import (
	"context"

	"gorm.io/gorm"

	"github.com/tigerroll/tripboard/internal/support/exception"
)

const moduleName = "aggregate"

// HourlyRow is one row of the circadian aggregate: trip count and mean
// passenger count per pickup hour. AvgPassengerCount is nil when every trip
// in the hour has a null passenger count.
type HourlyRow struct {
	PickupHour        int      `gorm:"column:pickup_hour"`
	Trips             int      `gorm:"column:trips"`
	AvgPassengerCount *float64 `gorm:"column:avg_passenger_count"`
}

// DailyRow is one row of the daily trend aggregate.
type DailyRow struct {
	ServiceDay string `gorm:"column:service_day"`
	Trips      int    `gorm:"column:trips"`
}

// HotspotRow is one row of the nighttime hotspot aggregate: a (hour, zone)
// pair ranked among the top zones by trip count within its hour.
type HotspotRow struct {
	PickupHour int    `gorm:"column:pickup_hour"`
	ZoneName   string `gorm:"column:zone_name"`
	Trips      int    `gorm:"column:trips"`
}

// Engine issues the analytical queries against a staged dataset handle.
type Engine struct {
	db            *gorm.DB
	nightTopZones int
}

// NewEngine creates an Engine over the given staging database.
// nightTopZones bounds the hotspot rows kept per night hour; values below one
// fall back to the standard eight.
func NewEngine(db *gorm.DB, nightTopZones int) *Engine {
	if nightTopZones <= 0 {
		nightTopZones = 8
	}
	return &Engine{db: db, nightTopZones: nightTopZones}
}

// HourlyCircadian groups all staged trips by pickup hour (0-23, as stored, no
// normalization) and computes the count and the mean passenger count per hour,
// ordered ascending by hour. Hours with no trips produce no row. The average
// excludes null passenger counts from both numerator and denominator.
func (e *Engine) HourlyCircadian(ctx context.Context) ([]HourlyRow, error) {
	const query = `
		SELECT
			pickup_hour,
			COUNT(*) AS trips,
			AVG(passenger_count) AS avg_passenger_count
		FROM trips
		GROUP BY pickup_hour
		ORDER BY pickup_hour`

	rows := make([]HourlyRow, 0)
	if err := e.db.WithContext(ctx).Raw(query).Scan(&rows).Error; err != nil {
		return nil, exception.NewPipelineError(moduleName, "hourly circadian query failed", err)
	}
	return rows, nil
}

// DailyTrend counts trips per calendar day of the covered months, ordered
// ascending by day.
func (e *Engine) DailyTrend(ctx context.Context) ([]DailyRow, error) {
	const query = `
		SELECT
			service_day,
			COUNT(*) AS trips
		FROM trips
		GROUP BY service_day
		ORDER BY service_day`

	rows := make([]DailyRow, 0)
	if err := e.db.WithContext(ctx).Raw(query).Scan(&rows).Error; err != nil {
		return nil, exception.NewPipelineError(moduleName, "daily trend query failed", err)
	}
	return rows, nil
}

// NightHotspots ranks drop-off zones by trip count for each hour of the night
// window (20:00 through 04:00, spanning midnight) and keeps the top zones per
// hour. Zone names resolve through the lookup table; unmatched or null
// drop-off location ids fall back to "Zone <id>" with a missing id rendered
// as zero. Equal counts within an hour break ties by zone name ascending so
// the ranking is deterministic. An empty night window yields an empty result,
// not an error.
func (e *Engine) NightHotspots(ctx context.Context) ([]HotspotRow, error) {
	const query = `
		WITH ranked AS (
			SELECT
				t.pickup_hour AS pickup_hour,
				COALESCE(z.zone, 'Zone ' || CAST(COALESCE(t.dropoff_location_id, 0) AS TEXT)) AS zone_name,
				COUNT(*) AS trips,
				ROW_NUMBER() OVER (
					PARTITION BY t.pickup_hour
					ORDER BY COUNT(*) DESC,
						COALESCE(z.zone, 'Zone ' || CAST(COALESCE(t.dropoff_location_id, 0) AS TEXT)) ASC
				) AS zone_rank
			FROM trips AS t
			LEFT JOIN zones AS z ON t.dropoff_location_id = z.location_id
			WHERE t.pickup_hour >= 20 OR t.pickup_hour <= 4
			GROUP BY t.pickup_hour, zone_name
		)
		SELECT pickup_hour, zone_name, trips
		FROM ranked
		WHERE zone_rank <= ?
		ORDER BY pickup_hour, trips DESC, zone_name`

	rows := make([]HotspotRow, 0)
	if err := e.db.WithContext(ctx).Raw(query, e.nightTopZones).Scan(&rows).Error; err != nil {
		return nil, exception.NewPipelineError(moduleName, "night hotspot query failed", err)
	}
	return rows, nil
}
