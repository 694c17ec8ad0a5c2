// Package exporter persists scraped reviews to CSV and JSON files.
package exporter

import (
	"review-scraper/config"
	"review-scraper/models"
)

// Export writes reviews to every output configured in cfg and returns the written paths.
// An empty path disables that output. The first write failure is returned.
func Export(cfg config.Output, reviews []models.Review) ([]string, error) {
	var written []string
	if cfg.CSVPath != "" {
		if err := WriteCSV(cfg.CSVPath, reviews); err != nil {
			return written, err
		}
		written = append(written, cfg.CSVPath)
	}
	if cfg.JSONPath != "" {
		if err := WriteJSON(cfg.JSONPath, reviews); err != nil {
			return written, err
		}
		written = append(written, cfg.JSONPath)
	}
	return written, nil
}
