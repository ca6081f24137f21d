// Package app wires the pipeline components into an uber-fx container and
// drives one dashboard generation run.
package app

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"github.com/tigerroll/tripboard/internal/cache"
	"github.com/tigerroll/tripboard/internal/config"
	"github.com/tigerroll/tripboard/internal/job"
	"github.com/tigerroll/tripboard/internal/report"
	"github.com/tigerroll/tripboard/internal/support/logger"
)

// RunParams carry the command-line overrides into the container.
// Zero values mean "use the configured default".
type RunParams struct {
	Months     []string
	OutputPath string
	CacheDir   string
}

// runResult collects the outcome of the one-shot job so RunApplication can
// report it after the container has stopped.
type runResult struct {
	err error
}

// RunApplication sets up and runs the dashboard application using uber-fx.
// It returns the first error encountered by the pipeline or the container.
func RunApplication(appCtx context.Context, envFilePath string, embeddedConfig config.EmbeddedConfig, params RunParams) error {
	cfg, err := config.LoadConfig(envFilePath, embeddedConfig)
	if err != nil {
		return err
	}
	applyOverrides(cfg, params)

	logger.SetLogLevel(cfg.Tripboard.System.Logging.Level)
	logger.Debugf("Log level set to: %s", cfg.Tripboard.System.Logging.Level)

	result := &runResult{}

	fxApp := fx.New(
		fx.WithLogger(logger.NewFxLoggerAdapter),
		fx.Supply(
			cfg,
			result,
			fx.Annotate(
				appCtx,
				fx.As(new(context.Context)),
				fx.ResultTags(`name:"appCtx"`),
			),
		),
		fx.Provide(
			cache.NewResolver,
			report.NewComposer,
			job.NewDashboardJob,
		),
		fx.Invoke(fx.Annotate(startDashboardRun, fx.ParamTags(
			"",              // lc fx.Lifecycle
			"",              // shutdowner fx.Shutdowner
			"",              // dashboardJob *job.DashboardJob
			"",              // cfg *config.Config
			"",              // result *runResult
			`name:"appCtx"`, // appCtx context.Context
		))),
	)

	fxApp.Run()

	if fxApp.Err() != nil {
		return fxApp.Err()
	}
	return result.err
}

// applyOverrides copies the non-zero command-line parameters over the loaded
// configuration before any component is constructed.
func applyOverrides(cfg *config.Config, params RunParams) {
	if len(params.Months) > 0 {
		cfg.Tripboard.Source.Months = params.Months
	}
	if params.OutputPath != "" {
		cfg.Tripboard.Report.OutputPath = params.OutputPath
	}
	if params.CacheDir != "" {
		cfg.Tripboard.Source.CacheDir = params.CacheDir
	}
}

// startDashboardRun is invoked by Fx to begin the one-shot pipeline run.
// The job executes in a goroutine started by the OnStart hook and requests
// application shutdown when it finishes, successfully or not.
func startDashboardRun(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	dashboardJob *job.DashboardJob,
	cfg *config.Config,
	result *runResult,
	appCtx context.Context,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				defer func() {
					if r := recover(); r != nil {
						logger.Errorf("Panic recovered in dashboard run: %v", r)
						result.err = fmt.Errorf("dashboard run panicked: %v", r)
					}
					if err := shutdowner.Shutdown(); err != nil {
						logger.Errorf("Failed to shutdown application: %v", err)
					}
				}()

				outputPath, err := dashboardJob.Run(appCtx, cfg.Tripboard.Source.Months, cfg.Tripboard.Report.OutputPath)
				if err != nil {
					logger.Errorf("Dashboard run failed: %v", err)
					result.err = err
					return
				}
				// The one user-visible confirmation line on success.
				fmt.Printf("Dashboard written to %s\n", outputPath)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Debugf("Application stopping.")
			return nil
		},
	})
}
