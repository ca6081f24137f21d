package dataset

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tigerroll/tripboard/internal/support/exception"
	"github.com/tigerroll/tripboard/internal/support/logger"
)

const moduleName = "dataset"

// insertBatchSize is the number of staged rows per INSERT statement.
const insertBatchSize = 500

// Store is an embedded SQLite database holding the staged trips and zones
// tables for one pipeline run. It is read-only for the aggregation engine
// once loading has finished.
type Store struct {
	db        *gorm.DB
	chunkSize int
}

// OpenStore opens a staging database at dsn and creates the schema.
// Use ":memory:" for the per-run in-memory store.
func OpenStore(dsn string, chunkSize int) (*Store, error) {
	if chunkSize <= 0 {
		chunkSize = 4096
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, exception.NewPipelineErrorf(moduleName, "failed to open staging database %s", dsn, err)
	}

	if err := db.AutoMigrate(&StagedTrip{}, &TaxiZone{}); err != nil {
		return nil, exception.NewPipelineError(moduleName, "failed to create staging schema", err)
	}

	return &Store{db: db, chunkSize: chunkSize}, nil
}

// DB exposes the underlying gorm handle for the aggregation engine.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return exception.NewPipelineError(moduleName, "failed to resolve staging connection", err)
	}
	return sqlDB.Close()
}

// LoadTripFile streams one monthly parquet file into the trips table in
// chunk-sized batches. Records with a null pickup or drop-off timestamp are
// dropped here, so every staged row participates in the aggregates.
// It returns the number of rows staged.
func (s *Store) LoadTripFile(ctx context.Context, path string) (int64, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return 0, exception.NewPipelineErrorf(moduleName, "failed to open parquet file %s", path, err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(TripRecord), 4)
	if err != nil {
		return 0, exception.NewPipelineErrorf(moduleName, "failed to read parquet schema of %s", path, err)
	}
	defer pr.ReadStop()

	total := int(pr.GetNumRows())
	var staged int64

	for offset := 0; offset < total; {
		select {
		case <-ctx.Done():
			return staged, ctx.Err()
		default:
		}

		n := s.chunkSize
		if total-offset < n {
			n = total - offset
		}
		records := make([]TripRecord, n)
		if err := pr.Read(&records); err != nil {
			return staged, exception.NewPipelineErrorf(moduleName, "failed to read rows from %s", path, err)
		}
		offset += n

		batch := make([]StagedTrip, 0, n)
		for _, rec := range records {
			pickup, ok := rec.PickupTime()
			if !ok || rec.DropoffDatetime == nil {
				continue
			}
			batch = append(batch, StagedTrip{
				PickupDatetime:    pickup.Format("2006-01-02 15:04:05"),
				PickupHour:        pickup.Hour(),
				ServiceDay:        pickup.Format("2006-01-02"),
				DropoffLocationID: rec.DropoffLocationID,
				PassengerCount:    rec.PassengerCount,
			})
		}
		if len(batch) == 0 {
			continue
		}
		if err := s.db.WithContext(ctx).CreateInBatches(batch, insertBatchSize).Error; err != nil {
			return staged, exception.NewPipelineErrorf(moduleName, "failed to stage rows from %s", path, err)
		}
		staged += int64(len(batch))
	}

	logger.Infof("Staged %d of %d rows from %s.", staged, total, path)
	return staged, nil
}

// LoadZoneLookup reads the zone lookup CSV into the zones table.
// Columns are located by header name so column reordering in the published
// file does not break the load. It returns the number of zones staged.
func (s *Store) LoadZoneLookup(ctx context.Context, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, exception.NewPipelineErrorf(moduleName, "failed to open zone lookup %s", path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	header, err := cr.Read()
	if err != nil {
		return 0, exception.NewPipelineErrorf(moduleName, "failed to read zone lookup header of %s", path, err)
	}

	idCol, zoneCol, boroughCol := -1, -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "locationid":
			idCol = i
		case "zone":
			zoneCol = i
		case "borough":
			boroughCol = i
		}
	}
	if idCol < 0 || zoneCol < 0 || boroughCol < 0 {
		return 0, exception.NewPipelineErrorf(moduleName, "zone lookup %s is missing LocationID, Zone or Borough columns", path)
	}

	var zones []TaxiZone
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, exception.NewPipelineErrorf(moduleName, "failed to read zone lookup row of %s", path, err)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(row[idCol]), 10, 64)
		if err != nil {
			return 0, exception.NewPipelineErrorf(moduleName, "zone lookup %s has a non-numeric LocationID %q", path, row[idCol], err)
		}
		zones = append(zones, TaxiZone{
			LocationID: id,
			Zone:       row[zoneCol],
			Borough:    row[boroughCol],
		})
	}

	if len(zones) > 0 {
		if err := s.db.WithContext(ctx).CreateInBatches(zones, insertBatchSize).Error; err != nil {
			return 0, exception.NewPipelineErrorf(moduleName, "failed to stage zone lookup %s", path, err)
		}
	}

	logger.Infof("Staged %d zones from %s.", len(zones), path)
	return int64(len(zones)), nil
}
