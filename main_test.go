package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"review-scraper/config"
	"review-scraper/exporter"
	"review-scraper/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func changedSet(names ...string) func(string) bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(name string) bool { return set[name] }
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"REVIEWS_URL", "REVIEWS_MAX_PAGES", "DATABASE_URL", "GOOGLE_SHEETS_CREDENTIALS_PATH", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID"} {
		t.Setenv(key, "")
	}
}

func TestResolveConfig_Precedence(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
url: https://file.example/reviews
max_pages: 4
scraper:
  delay: 1s
output:
  json: from_file.json
`), 0o644))
	t.Setenv("REVIEWS_MAX_PAGES", "7")

	opts := &options{configPath: path, delay: 0, csvPath: ""}
	cfg, source, err := resolveConfig(opts, nil, changedSet("delay", "csv"))
	require.NoError(t, err)

	require.Equal(t, path, source)
	require.Equal(t, "https://file.example/reviews", cfg.URL)
	require.Equal(t, 7, cfg.MaxPages)
	require.Equal(t, time.Duration(0), cfg.Scraper.Delay)
	require.Equal(t, "", cfg.Output.CSVPath)
	require.Equal(t, "from_file.json", cfg.Output.JSONPath)
}

func TestResolveConfig_DefaultsWithoutFile(t *testing.T) {
	clearEnv(t)
	opts := &options{configPath: filepath.Join(t.TempDir(), "config.yaml")}

	cfg, source, err := resolveConfig(opts, []string{"https://arg.example/reviews"}, changedSet())
	require.NoError(t, err)
	require.Equal(t, "", source)
	require.Equal(t, "https://arg.example/reviews", cfg.URL)
	require.Equal(t, 5, cfg.MaxPages)
	require.Equal(t, "reviews_raw.csv", cfg.Output.CSVPath)

	_, _, err = resolveConfig(opts, []string{"https://arg.example/reviews"}, changedSet("config"))
	require.Error(t, err)
}

func TestResolveConfig_Invalid(t *testing.T) {
	clearEnv(t)
	opts := &options{configPath: filepath.Join(t.TempDir(), "config.yaml"), fetcher: "wget"}

	_, _, err := resolveConfig(opts, nil, changedSet())
	require.Error(t, err)

	_, _, err = resolveConfig(opts, []string{"https://arg.example/r"}, changedSet("fetcher"))
	require.Error(t, err)
}

func TestFormatReviewsConsole(t *testing.T) {
	reviews := []models.Review{
		{Rating: models.Float(4.5), Title: models.String("Good"), ReviewText: "First text", HelpfulVotes: models.Int(2)},
		{ReviewText: "Second text", Date: models.String("Mar 2024")},
		{ReviewText: "Third text"},
	}

	var buf bytes.Buffer
	formatReviewsConsole(&buf, reviews, 2)

	want := "Total reviews scraped: 3\n" +
		"\nReview 1:\n  Rating: 4.5\n  Title: Good\n  Text: First text\n  Helpful votes: 2\n" +
		"\nReview 2:\n  Text: Second text\n  Date: Mar 2024\n"
	require.Equal(t, want, buf.String())
}

// Page 1 answers with one review, page 2 fails; the run still writes both files.
func TestScrapeOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		io.WriteString(w, `<html><body>
<div class="review-card">
  <div class="stars">★★★★</div>
  <div>Solid phone for the money</div>
</div>
</body></html>`)
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := config.GetDefaultConfig()
	cfg.URL = srv.URL + "/product/reviews"
	cfg.MaxPages = 2
	cfg.Scraper.Delay = 0
	cfg.Output.CSVPath = filepath.Join(dir, "reviews_raw.csv")
	cfg.Output.JSONPath = filepath.Join(dir, "reviews_raw.json")
	cfg.Output.SnapshotDir = filepath.Join(dir, "pages")
	require.NoError(t, cfg.Validate())

	var out bytes.Buffer
	a := &app{cfg: cfg, logger: zerolog.New(io.Discard), out: &out, preview: 3}
	require.NoError(t, a.run(context.Background(), 0))

	reviews, err := exporter.ReadCSV(cfg.Output.CSVPath)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	require.Equal(t, "Solid phone for the money", reviews[0].ReviewText)
	require.Equal(t, 4.0, *reviews[0].Rating)

	require.FileExists(t, cfg.Output.JSONPath)
	require.FileExists(t, filepath.Join(cfg.Output.SnapshotDir, "page_001.html"))
	require.NoFileExists(t, filepath.Join(cfg.Output.SnapshotDir, "page_002.html"))
	require.Contains(t, out.String(), "Total reviews scraped: 1")
}

func TestScrapeOnce_ExportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := config.GetDefaultConfig()
	cfg.URL = srv.URL
	cfg.MaxPages = 1
	cfg.Output.CSVPath = filepath.Join(t.TempDir(), "missing", "reviews.csv")
	cfg.Output.JSONPath = ""

	a := &app{cfg: cfg, logger: zerolog.New(io.Discard), out: io.Discard}
	require.Error(t, a.scrapeOnce(context.Background()))
}

func TestScrapeOnce_CanceledKeepsPreviousOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<div class="review"><div>Kept from the finished run, not wiped.</div></div>`)
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := config.GetDefaultConfig()
	cfg.URL = srv.URL
	cfg.MaxPages = 1
	cfg.Output.CSVPath = filepath.Join(dir, "reviews_raw.csv")
	cfg.Output.JSONPath = filepath.Join(dir, "reviews_raw.json")

	a := &app{cfg: cfg, logger: zerolog.New(io.Discard), out: io.Discard}
	require.NoError(t, a.scrapeOnce(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, a.scrapeOnce(ctx), context.Canceled)

	reviews, err := exporter.ReadCSV(cfg.Output.CSVPath)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
}
