package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "embed"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tigerroll/tripboard/internal/app"
	"github.com/tigerroll/tripboard/internal/config"
	"github.com/tigerroll/tripboard/internal/support/logger"
)

// embeddedConfig embeds the application's YAML configuration file.
//
//go:embed resources/application.yaml
var embeddedConfig []byte

func main() {
	months := flag.String("months", "", "Comma-separated list of YYYY-MM months to include (default: configured months).")
	output := flag.String("output", "", "Path where the HTML dashboard will be written (default: configured path).")
	cacheDir := flag.String("cache-dir", "", "Directory holding the downloaded raw files (default: configured path).")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Signal handling for graceful shutdown (e.g. Ctrl+C).
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Warnf("Received signal '%v'. Attempting to stop the run...", sig)
		cancel()
	}()

	// Get the path to the .env file from environment variables. Use ".env" as default if not set.
	envFilePath := os.Getenv("ENV_FILE_PATH")
	if envFilePath == "" {
		envFilePath = ".env"
	}

	params := app.RunParams{
		OutputPath: *output,
		CacheDir:   *cacheDir,
	}
	if *months != "" {
		for _, month := range strings.Split(*months, ",") {
			if month = strings.TrimSpace(month); month != "" {
				params.Months = append(params.Months, month)
			}
		}
	}

	if err := app.RunApplication(ctx, envFilePath, config.EmbeddedConfig(embeddedConfig), params); err != nil {
		logger.Errorf("tripboard failed: %v", err)
		os.Exit(1)
	}
}
