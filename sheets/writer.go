package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"review-scraper/models"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// ErrNoCredentials is returned when neither a credentials file nor GOOGLE_SHEETS_CREDENTIALS is available
var ErrNoCredentials = errors.New("google sheets credentials not found")

const maxSheetNameLength = 100

// Writer handles writing reviews to Google Sheets
type Writer struct {
	service       *sheets.Service
	spreadsheetID string
	logger        zerolog.Logger
}

// NewWriter creates a new Google Sheets writer for the spreadsheet at spreadsheetURL.
// Credentials are read from credentialsPath, or from the GOOGLE_SHEETS_CREDENTIALS environment variable when it is empty.
func NewWriter(ctx context.Context, spreadsheetURL, credentialsPath string, logger zerolog.Logger) (*Writer, error) {
	spreadsheetID := ExtractSpreadsheetID(spreadsheetURL)
	if spreadsheetID == "" {
		return nil, fmt.Errorf("no spreadsheet id in %q", spreadsheetURL)
	}

	credsJSON, err := readCredentials(credentialsPath)
	if err != nil {
		return nil, err
	}

	service, err := sheets.NewService(ctx, option.WithCredentialsJSON(credsJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Writer{
		service:       service,
		spreadsheetID: spreadsheetID,
		logger:        logger.With().Str("component", "sheets").Logger(),
	}, nil
}

// readCredentials loads and validates service account credentials
func readCredentials(credentialsPath string) ([]byte, error) {
	var credsJSON []byte
	if credentialsPath != "" {
		data, err := os.ReadFile(credentialsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		credsJSON = data
	} else {
		// Trim whitespace and newlines that might be in the environment variable
		credsEnv := strings.TrimSpace(os.Getenv("GOOGLE_SHEETS_CREDENTIALS"))
		if credsEnv == "" {
			return nil, fmt.Errorf("%w: set sheets.credentials_path or GOOGLE_SHEETS_CREDENTIALS", ErrNoCredentials)
		}
		credsJSON = []byte(credsEnv)
	}

	var creds struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(credsJSON, &creds); err != nil {
		return nil, fmt.Errorf("invalid credentials JSON (check if JSON is properly formatted): %w", err)
	}
	if creds.Type != "service_account" {
		return nil, fmt.Errorf("credentials must be a service account JSON file (type: service_account), got type: %q", creds.Type)
	}
	return credsJSON, nil
}

// CreateSheetAndWriteReviews creates a new sheet at the beginning of the spreadsheet and writes reviews to it.
// sourceURL and info are optional; when set they are written as a metadata row above the header.
// Returns the sheet name and sheet ID (gid) that was created.
func (w *Writer) CreateSheetAndWriteReviews(ctx context.Context, sheetName string, reviews []models.Review, sourceURL, info string) (string, int64, error) {
	sheetName = sanitizeSheetName(sheetName)

	batchUpdateRequest := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{
						Title: sheetName,
						Index: 0,
					},
				},
			},
		},
	}

	batchUpdateResp, err := w.service.Spreadsheets.BatchUpdate(w.spreadsheetID, batchUpdateRequest).Context(ctx).Do()
	if err != nil {
		return "", 0, fmt.Errorf("failed to create sheet: %w", err)
	}

	var sheetID int64
	if len(batchUpdateResp.Replies) > 0 && batchUpdateResp.Replies[0].AddSheet != nil {
		sheetID = batchUpdateResp.Replies[0].AddSheet.Properties.SheetId
	}
	w.logger.Debug().Str("sheet", sheetName).Int64("sheet_id", sheetID).Msg("Created sheet")

	valueRange := &sheets.ValueRange{
		Values: buildValues(reviews, sourceURL, info),
	}
	_, err = w.service.Spreadsheets.Values.Update(w.spreadsheetID, sheetRange(sheetName), valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return "", 0, fmt.Errorf("failed to write to sheet: %w", err)
	}

	w.logger.Info().Str("sheet", sheetName).Int("reviews", len(reviews)).Msg("Wrote reviews to Google Sheets")
	return sheetName, sheetID, nil
}

// SheetURL returns a link that opens the spreadsheet on the given sheet
func (w *Writer) SheetURL(sheetID int64) string {
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit#gid=%d", w.spreadsheetID, sheetID)
}

// buildValues lays out the optional metadata row, the header row and one row per review.
// Absent fields are written as empty cells.
func buildValues(reviews []models.Review, sourceURL, info string) [][]interface{} {
	var values [][]interface{}

	if sourceURL != "" || info != "" {
		metadataRow := []interface{}{"URL", sourceURL}
		if info != "" {
			metadataRow = append(metadataRow, "Run", info)
		}
		values = append(values, metadataRow)
	}

	header := make([]interface{}, 0, len(models.Columns))
	for _, col := range models.Columns {
		header = append(header, col)
	}
	values = append(values, header)

	for _, r := range reviews {
		row := []interface{}{"", "", r.ReviewText, "", "", ""}
		if r.Rating != nil {
			row[0] = *r.Rating
		}
		if r.Title != nil {
			row[1] = *r.Title
		}
		if r.ReviewerName != nil {
			row[3] = *r.ReviewerName
		}
		if r.Date != nil {
			row[4] = *r.Date
		}
		if r.HelpfulVotes != nil {
			row[5] = *r.HelpfulVotes
		}
		values = append(values, row)
	}

	return values
}

// sheetRange returns the A1 range of the top left cell of sheetName
func sheetRange(sheetName string) string {
	return "'" + strings.ReplaceAll(sheetName, "'", "''") + "'!A1"
}

// sanitizeSheetName removes invalid characters from sheet name and caps its length
func sanitizeSheetName(name string) string {
	// Google Sheets sheet names cannot contain: / \ ? * [ ] :
	invalidChars := []string{"/", "\\", "?", "*", "[", "]", ":"}
	result := name
	for _, char := range invalidChars {
		result = strings.ReplaceAll(result, char, "_")
	}
	result = strings.TrimSpace(result)
	if runes := []rune(result); len(runes) > maxSheetNameLength {
		result = strings.TrimSpace(string(runes[:maxSheetNameLength]))
	}
	if result == "" {
		result = "Sheet1"
	}
	return result
}

// ExtractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL.
// A bare ID is returned as is.
func ExtractSpreadsheetID(url string) string {
	// Handle various URL formats:
	// https://docs.google.com/spreadsheets/d/SPREADSHEET_ID/edit
	// https://docs.google.com/spreadsheets/d/SPREADSHEET_ID/edit?usp=sharing
	parts := strings.Split(url, "/d/")
	if len(parts) < 2 {
		if strings.ContainsAny(url, "/?#") {
			return ""
		}
		return strings.TrimSpace(url)
	}

	idPart := parts[1]
	if idx := strings.IndexAny(idPart, "/?#"); idx != -1 {
		idPart = idPart[:idx]
	}

	return strings.TrimSpace(idPart)
}
