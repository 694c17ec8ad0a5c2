package exporter

import (
	"encoding/json"
	"fmt"
	"os"

	"review-scraper/models"
)

// WriteJSON writes reviews to path as an indented JSON array.
// Absent fields are null and non-ASCII text is kept as is.
func WriteJSON(path string, reviews []models.Review) error {
	if reviews == nil {
		reviews = []models.Review{}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create json file: %w", err)
	}

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(reviews); err != nil {
		f.Close()
		return fmt.Errorf("failed to write json file %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close json file %s: %w", path, err)
	}
	return nil
}
