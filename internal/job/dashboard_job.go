// Package job orchestrates one dashboard generation run: resolve the cached
// inputs, stage them, run the three aggregates and write the document.
// The pipeline is strictly sequential and aborts on the first failure.
package job

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/tigerroll/tripboard/internal/aggregate"
	"github.com/tigerroll/tripboard/internal/cache"
	"github.com/tigerroll/tripboard/internal/config"
	"github.com/tigerroll/tripboard/internal/dataset"
	"github.com/tigerroll/tripboard/internal/report"
	"github.com/tigerroll/tripboard/internal/support/exception"
	"github.com/tigerroll/tripboard/internal/support/logger"
)

const moduleName = "job"

// DashboardJob runs the full generation pipeline.
type DashboardJob struct {
	cfg      *config.Config
	resolver *cache.Resolver
	composer *report.Composer
}

// NewDashboardJob creates a DashboardJob.
func NewDashboardJob(cfg *config.Config, resolver *cache.Resolver, composer *report.Composer) *DashboardJob {
	return &DashboardJob{cfg: cfg, resolver: resolver, composer: composer}
}

// Run executes the pipeline for the given months and writes the dashboard to
// outputPath. It returns the absolute path of the written document.
func (j *DashboardJob) Run(ctx context.Context, months []string, outputPath string) (string, error) {
	runID := uuid.New().String()
	logger.Infof("Starting dashboard run %s for months %v.", runID, months)

	inputs, err := j.resolver.Resolve(ctx, months)
	if err != nil {
		return "", err
	}

	store, err := dataset.OpenStore(":memory:", j.cfg.Tripboard.Engine.ChunkSize)
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Warnf("Failed to close staging store: %v", closeErr)
		}
	}()

	if _, err := store.LoadZoneLookup(ctx, inputs.ZoneLookupFile); err != nil {
		return "", err
	}
	var totalTrips int64
	for _, path := range inputs.TripFiles {
		staged, err := store.LoadTripFile(ctx, path)
		if err != nil {
			return "", err
		}
		totalTrips += staged
	}
	logger.Infof("Run %s staged %d trips across %d months.", runID, totalTrips, len(months))

	engine := aggregate.NewEngine(store.DB(), j.cfg.Tripboard.Engine.NightTopZones)
	hourly, err := engine.HourlyCircadian(ctx)
	if err != nil {
		return "", err
	}
	daily, err := engine.DailyTrend(ctx)
	if err != nil {
		return "", err
	}
	night, err := engine.NightHotspots(ctx)
	if err != nil {
		return "", err
	}
	if len(night) == 0 {
		logger.Warnf("Run %s found no trips in the night window; the hotspot panel will render a placeholder.", runID)
	}

	document, err := j.composer.Render(hourly, daily, night, report.Metadata{
		Months:      months,
		RunID:       runID,
		GeneratedAt: time.Now(),
	})
	if err != nil {
		return "", err
	}
	if err := j.composer.Write(outputPath, document); err != nil {
		return "", err
	}

	absPath, err := filepath.Abs(outputPath)
	if err != nil {
		return "", exception.NewPipelineErrorf(moduleName, "failed to resolve output path %s", outputPath, err)
	}
	logger.Infof("Dashboard run %s finished.", runID)
	return absPath, nil
}
