package exporter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"review-scraper/models"
)

// ErrHeader is returned when a CSV file does not start with the review columns
var ErrHeader = errors.New("unexpected csv header")

// WriteCSV writes reviews to path, one row per record under a header row.
// Absent fields are written as empty cells. The file is truncated first.
func WriteCSV(path string, reviews []models.Review) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}

	if err := writeCSV(f, reviews); err != nil {
		f.Close()
		return fmt.Errorf("failed to write csv file %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close csv file %s: %w", path, err)
	}
	return nil
}

func writeCSV(w io.Writer, reviews []models.Review) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(models.Columns); err != nil {
		return err
	}
	for _, r := range reviews {
		if err := cw.Write(csvRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(r models.Review) []string {
	row := make([]string, 0, len(models.Columns))
	row = append(row, formatFloat(r.Rating))
	row = append(row, formatString(r.Title))
	row = append(row, r.ReviewText)
	row = append(row, formatString(r.ReviewerName))
	row = append(row, formatString(r.Date))
	row = append(row, formatInt(r.HelpfulVotes))
	return row
}

// ReadCSV reads a file written by WriteCSV back into records
func ReadCSV(path string) ([]models.Review, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = len(models.Columns)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv file %s: %w", path, err)
	}
	if len(rows) == 0 || !slices.Equal(rows[0], models.Columns) {
		return nil, fmt.Errorf("%s: %w", path, ErrHeader)
	}

	reviews := make([]models.Review, 0, len(rows)-1)
	for i, row := range rows[1:] {
		r, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", path, i+2, err)
		}
		reviews = append(reviews, r)
	}
	return reviews, nil
}

func parseRow(row []string) (models.Review, error) {
	r := models.Review{
		Title:        parseString(row[1]),
		ReviewText:   row[2],
		ReviewerName: parseString(row[3]),
		Date:         parseString(row[4]),
	}
	if row[0] != "" {
		v, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			return r, fmt.Errorf("invalid rating %q: %w", row[0], err)
		}
		r.Rating = models.Float(v)
	}
	if row[5] != "" {
		n, err := strconv.Atoi(row[5])
		if err != nil {
			return r, fmt.Errorf("invalid helpful_votes %q: %w", row[5], err)
		}
		r.HelpfulVotes = models.Int(n)
	}
	return r, nil
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func parseString(cell string) *string {
	if cell == "" {
		return nil
	}
	return models.String(cell)
}
