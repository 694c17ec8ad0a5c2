package sheets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"review-scraper/models"

	"github.com/stretchr/testify/require"
)

func TestExtractSpreadsheetID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://docs.google.com/spreadsheets/d/1AbC-xyz_09/edit", "1AbC-xyz_09"},
		{"https://docs.google.com/spreadsheets/d/1AbC-xyz_09/edit?usp=sharing", "1AbC-xyz_09"},
		{"https://docs.google.com/spreadsheets/d/1AbC-xyz_09", "1AbC-xyz_09"},
		{"https://docs.google.com/spreadsheets/d/1AbC-xyz_09#gid=0", "1AbC-xyz_09"},
		{"1AbC-xyz_09", "1AbC-xyz_09"},
		{"https://example.com/sheet", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := ExtractSpreadsheetID(tt.url); got != tt.want {
				t.Errorf("ExtractSpreadsheetID(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestSanitizeSheetName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"reviews 2026-10-18 10:00", "reviews 2026-10-18 10_00"},
		{"a/b\\c?d*e[f]g", "a_b_c_d_e_f_g"},
		{"   ", "Sheet1"},
		{strings.Repeat("é", 120), strings.Repeat("é", 100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeSheetName(tt.name); got != tt.want {
				t.Errorf("sanitizeSheetName(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestSheetRange(t *testing.T) {
	require.Equal(t, "'reviews 1'!A1", sheetRange("reviews 1"))
	require.Equal(t, "'it''s'!A1", sheetRange("it's"))
}

func TestBuildValues(t *testing.T) {
	reviews := []models.Review{
		{Rating: models.Float(4), Title: models.String("Good"), ReviewText: "Works as advertised so far.", HelpfulVotes: models.Int(3)},
		{ReviewText: "Nothing else was found here."},
	}

	values := buildValues(reviews, "https://shop.example/r", "run 42")
	require.Len(t, values, 4)
	require.Equal(t, []interface{}{"URL", "https://shop.example/r", "Run", "run 42"}, values[0])
	require.Equal(t, []interface{}{"rating", "title", "review_text", "reviewer_name", "date", "helpful_votes"}, values[1])
	require.Equal(t, []interface{}{4.0, "Good", "Works as advertised so far.", "", "", 3}, values[2])
	require.Equal(t, []interface{}{"", "", "Nothing else was found here.", "", "", ""}, values[3])

	require.Len(t, buildValues(nil, "", ""), 1)
}

func TestReadCredentials(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "sa.json")
	require.NoError(t, os.WriteFile(valid, []byte(`{"type":"service_account","project_id":"p"}`), 0o600))
	user := filepath.Join(dir, "user.json")
	require.NoError(t, os.WriteFile(user, []byte(`{"type":"authorized_user"}`), 0o600))

	_, err := readCredentials(valid)
	require.NoError(t, err)

	_, err = readCredentials(user)
	require.Error(t, err)

	_, err = readCredentials(filepath.Join(dir, "missing.json"))
	require.Error(t, err)

	t.Setenv("GOOGLE_SHEETS_CREDENTIALS", "")
	_, err = readCredentials("")
	require.ErrorIs(t, err, ErrNoCredentials)

	t.Setenv("GOOGLE_SHEETS_CREDENTIALS", "  {\"type\":\"service_account\"}\n")
	data, err := readCredentials("")
	require.NoError(t, err)
	require.Equal(t, `{"type":"service_account"}`, string(data))
}
