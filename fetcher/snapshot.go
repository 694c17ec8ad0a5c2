package fetcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// SnapshotFetcher wraps a Fetcher and writes every fetched page to a directory.
// The files are a troubleshooting aid only; failing to write one never fails the fetch.
type SnapshotFetcher struct {
	next   Fetcher
	dir    string
	count  int
	logger zerolog.Logger
}

// NewSnapshotFetcher creates dir if needed and returns the wrapping fetcher
func NewSnapshotFetcher(next Fetcher, dir string, logger zerolog.Logger) (*SnapshotFetcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &SnapshotFetcher{next: next, dir: dir, logger: logger}, nil
}

// Fetch implements the Fetcher interface.
// Files are numbered by call order, so page_002.html is the second requested page even if the first failed.
func (sf *SnapshotFetcher) Fetch(ctx context.Context, url string) (string, error) {
	sf.count++
	body, err := sf.next.Fetch(ctx, url)
	if err != nil {
		return "", err
	}

	path := filepath.Join(sf.dir, fmt.Sprintf("page_%03d.html", sf.count))
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		sf.logger.Warn().Err(err).Str("path", path).Msg("Failed to write page snapshot")
	} else {
		sf.logger.Debug().Str("path", path).Str("url", url).Msg("Wrote page snapshot")
	}

	return body, nil
}
