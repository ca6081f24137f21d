// Package dataset stages the cached raw files into an embedded SQLite database
// so the aggregation engine can run plain SQL over the unioned months.
package dataset

import "time"

// TripRecord mirrors the columns of the TLC yellow-taxi parquet schema that the
// pipeline consumes. All fields are optional in the source files; additional
// columns present in the files are ignored by the parquet reader.
type TripRecord struct {
	PickupDatetime    *int64   `parquet:"name=tpep_pickup_datetime, type=INT64, convertedtype=TIMESTAMP_MICROS, repetitiontype=OPTIONAL"`
	DropoffDatetime   *int64   `parquet:"name=tpep_dropoff_datetime, type=INT64, convertedtype=TIMESTAMP_MICROS, repetitiontype=OPTIONAL"`
	PassengerCount    *float64 `parquet:"name=passenger_count, type=DOUBLE, repetitiontype=OPTIONAL"`
	DropoffLocationID *int64   `parquet:"name=DOLocationID, type=INT64, repetitiontype=OPTIONAL"`
}

// PickupTime converts the raw pickup timestamp to a time.Time.
// TLC timestamps are wall-clock values with no zone marker; they are decoded
// as UTC so the stored hour and day survive unchanged.
func (t TripRecord) PickupTime() (time.Time, bool) {
	if t.PickupDatetime == nil {
		return time.Time{}, false
	}
	return time.UnixMicro(*t.PickupDatetime).UTC(), true
}

// StagedTrip is one row of the trips staging table. Hour and day are extracted
// once at load time so the analytical queries group on plain columns.
type StagedTrip struct {
	PickupDatetime    string   `gorm:"column:pickup_datetime"`
	PickupHour        int      `gorm:"column:pickup_hour"`
	ServiceDay        string   `gorm:"column:service_day"`
	DropoffLocationID *int64   `gorm:"column:dropoff_location_id"`
	PassengerCount    *float64 `gorm:"column:passenger_count"`
}

// TableName implements the gorm naming interface.
func (StagedTrip) TableName() string { return "trips" }

// TaxiZone is one row of the zone lookup staging table.
type TaxiZone struct {
	LocationID int64  `gorm:"column:location_id;primaryKey"`
	Zone       string `gorm:"column:zone"`
	Borough    string `gorm:"column:borough"`
}

// TableName implements the gorm naming interface.
func (TaxiZone) TableName() string { return "zones" }
