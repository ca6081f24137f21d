// Package cache resolves remote dataset identifiers to local files.
// A file already present under the cache directory is treated as valid and is
// never re-fetched or overwritten; only absent files trigger a download.
package cache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"github.com/hashicorp/go-multierror"

	"github.com/tigerroll/tripboard/internal/config"
	"github.com/tigerroll/tripboard/internal/support/exception"
	"github.com/tigerroll/tripboard/internal/support/logger"
)

const moduleName = "cache"

// monthPattern is the accepted shape of a month identifier.
var monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// ResolvedInputs holds the local paths materialized by a Resolve call.
type ResolvedInputs struct {
	// TripFiles are the monthly parquet files, in the order the months were requested.
	TripFiles []string
	// ZoneLookupFile is the zone lookup CSV.
	ZoneLookupFile string
}

// Resolver downloads monthly trip files and the zone lookup table into a local
// cache directory. The directory is an explicit handle so tests can point the
// resolver at an isolated temporary store.
type Resolver struct {
	baseURL       string
	zoneLookupURL string
	dir           string
	client        *http.Client
}

// NewResolver creates a Resolver from the application configuration.
func NewResolver(cfg *config.Config) *Resolver {
	return &Resolver{
		baseURL:       cfg.Tripboard.Source.BaseURL,
		zoneLookupURL: cfg.Tripboard.Source.ZoneLookupURL,
		dir:           cfg.Tripboard.Source.CacheDir,
		client:        http.DefaultClient,
	}
}

// Dir returns the cache directory this resolver writes to.
func (r *Resolver) Dir() string {
	return r.dir
}

// ValidateMonths checks every month identifier against the YYYY-MM pattern.
// All malformed identifiers are reported at once; no I/O has happened yet
// when this returns.
func (r *Resolver) ValidateMonths(months []string) error {
	var result error
	if len(months) == 0 {
		return exception.NewPipelineError(moduleName, "at least one month must be requested", nil)
	}
	for _, month := range months {
		if !monthPattern.MatchString(month) {
			result = multierror.Append(result, fmt.Errorf("month %q is not in YYYY-MM format (e.g. 2025-01)", month))
		}
	}
	if result != nil {
		return exception.NewPipelineError(moduleName, "invalid month identifiers", result)
	}
	return nil
}

// Resolve validates the requested months and ensures a local copy of each
// monthly trip file plus the zone lookup table exists, downloading only what
// is absent. Any network or filesystem failure aborts the run.
func (r *Resolver) Resolve(ctx context.Context, months []string) (*ResolvedInputs, error) {
	if err := r.ValidateMonths(months); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, exception.NewPipelineErrorf(moduleName, "failed to create cache directory %s", r.dir, err)
	}

	inputs := &ResolvedInputs{}
	for _, month := range months {
		url := fmt.Sprintf("%s/yellow_tripdata_%s.parquet", r.baseURL, month)
		dest := filepath.Join(r.dir, fmt.Sprintf("yellow_tripdata_%s.parquet", month))
		if err := r.ensure(ctx, url, dest); err != nil {
			return nil, err
		}
		inputs.TripFiles = append(inputs.TripFiles, dest)
	}

	zoneDest := filepath.Join(r.dir, "taxi_zone_lookup.csv")
	if err := r.ensure(ctx, r.zoneLookupURL, zoneDest); err != nil {
		return nil, err
	}
	inputs.ZoneLookupFile = zoneDest

	return inputs, nil
}

// ensure downloads url to dest unless dest already exists.
// The body is streamed to a temporary sibling and renamed into place on
// success, so an aborted download never leaves a truncated file that the
// presence check would later trust.
func (r *Resolver) ensure(ctx context.Context, url, dest string) error {
	if _, err := os.Stat(dest); err == nil {
		logger.Debugf("Cache hit for %s, skipping download.", dest)
		return nil
	} else if !os.IsNotExist(err) {
		return exception.NewPipelineErrorf(moduleName, "failed to stat cache file %s", dest, err)
	}

	logger.Infof("Downloading %s -> %s ...", url, dest)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return exception.NewPipelineErrorf(moduleName, "failed to build request for %s", url, err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return exception.NewPipelineErrorf(moduleName, "failed to fetch %s", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return exception.NewPipelineErrorf(moduleName, "unexpected status %d fetching %s", resp.StatusCode, url)
	}

	partial := dest + ".partial"
	out, err := os.Create(partial)
	if err != nil {
		return exception.NewPipelineErrorf(moduleName, "failed to create %s", partial, err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(partial)
		return exception.NewPipelineErrorf(moduleName, "failed to write %s", partial, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(partial)
		return exception.NewPipelineErrorf(moduleName, "failed to close %s", partial, err)
	}
	if err := os.Rename(partial, dest); err != nil {
		os.Remove(partial)
		return exception.NewPipelineErrorf(moduleName, "failed to finalize %s", dest, err)
	}
	return nil
}
