package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"review-scraper/config"
	"review-scraper/db"
	"review-scraper/exporter"
	"review-scraper/fetcher"
	"review-scraper/filter"
	"review-scraper/models"
	"review-scraper/notify"
	"review-scraper/paginator"
	"review-scraper/parser"
	"review-scraper/scheduler"
	"review-scraper/sheets"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// app runs scrapes for one resolved configuration
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	out     io.Writer
	preview int
}

// run performs one scrape, or repeats it every interval until ctx is canceled when every is set
func (a *app) run(ctx context.Context, every time.Duration) error {
	if every <= 0 {
		return a.scrapeOnce(ctx)
	}

	s, err := scheduler.NewScheduler(every, a.scrapeOnce, a.logger)
	if err != nil {
		return err
	}
	a.logger.Info().Dur("every", every).Msg("Repeat mode, press Ctrl+C to stop")
	s.Run(ctx)
	return nil
}

// scrapeOnce fetches all pages, writes the output files and feeds the optional sinks.
// Only output file failures are returned; sink failures are logged. A run that starts on a
// canceled context does nothing, so it cannot overwrite the previous run's files.
func (a *app) scrapeOnce(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := a.cfg
	runID := uuid.New()
	logger := a.logger.With().Str("run_id", runID.String()).Logger()
	startedAt := time.Now()

	f, closeFetcher, err := newFetcher(cfg, logger)
	if err != nil {
		return err
	}
	defer closeFetcher()

	logger.Info().Str("url", cfg.URL).Int("max_pages", cfg.MaxPages).Str("fetcher", cfg.Scraper.Fetcher).Msg("Starting scrape")

	p := paginator.New(f, parser.NewParser(cfg.Parser, logger), cfg.Scraper, logger)
	reviews, res := p.Run(ctx, cfg.URL, cfg.MaxPages)
	if ctx.Err() != nil {
		logger.Warn().Msg("Interrupted, writing the reviews collected so far")
	}

	kept := reviews
	if flt := filter.NewFilter(cfg.Filters); flt.Active() {
		kept = flt.ApplyFilters(reviews)
		logger.Info().Int("before", len(reviews)).Int("after", len(kept)).Msg("Applied filters")
	}

	written, err := exporter.Export(cfg.Output, kept)
	if err != nil {
		return fmt.Errorf("failed to export reviews: %w", err)
	}
	for _, path := range written {
		logger.Info().Str("path", path).Int("reviews", len(kept)).Msg("Saved reviews")
	}

	formatReviewsConsole(a.out, kept, a.preview)

	// Optional sinks use a fresh context so an interrupted run is still recorded
	sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Minute)
	defer cancel()

	run := db.Run{
		ID:           runID,
		BaseURL:      cfg.URL,
		MaxPages:     cfg.MaxPages,
		PagesFetched: res.PagesFetched,
		PagesFailed:  res.PagesFailed,
		ReviewCount:  len(kept),
		Duration:     res.Duration,
		StartedAt:    startedAt,
	}
	a.saveToDatabase(sinkCtx, logger, run, kept)
	sheetURL := a.writeToSheets(sinkCtx, logger, run, kept)

	a.sendSummary(logger, notify.Summary{
		RunID:          runID.String(),
		URL:            cfg.URL,
		PagesRequested: res.PagesRequested,
		PagesFetched:   res.PagesFetched,
		PagesFailed:    res.PagesFailed,
		Reviews:        len(reviews),
		Kept:           len(kept),
		AverageRating:  notify.AverageRating(kept),
		Outputs:        written,
		SheetURL:       sheetURL,
		Duration:       time.Since(startedAt),
	})

	logger.Info().Int("pages_fetched", res.PagesFetched).Int("pages_failed", res.PagesFailed).
		Int("reviews", len(kept)).Dur("took", time.Since(startedAt)).Msg("Scraping completed")
	return nil
}

// newFetcher builds the configured fetcher, wrapped for snapshots when a snapshot dir is set.
// The returned func releases the fetcher's resources.
func newFetcher(cfg *config.Config, logger zerolog.Logger) (fetcher.Fetcher, func(), error) {
	var f fetcher.Fetcher
	closeFn := func() {}

	switch cfg.Scraper.Fetcher {
	case config.FetcherRod:
		rf, err := fetcher.NewRodFetcher(cfg.Scraper, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create browser fetcher: %w", err)
		}
		f = rf
		closeFn = func() {
			if err := rf.Close(); err != nil {
				logger.Warn().Err(err).Msg("Failed to close browser")
			}
		}
	default:
		f = fetcher.NewCollyFetcher(cfg.Scraper, logger)
	}

	if cfg.Output.SnapshotDir != "" {
		sf, err := fetcher.NewSnapshotFetcher(f, cfg.Output.SnapshotDir, logger)
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		f = sf
	}

	return f, closeFn, nil
}

func (a *app) saveToDatabase(ctx context.Context, logger zerolog.Logger, run db.Run, reviews []models.Review) {
	if a.cfg.Postgres.URL == "" {
		return
	}

	database, err := db.NewDB(ctx, a.cfg.Postgres.URL, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to connect to database")
		return
	}
	defer database.Close()

	if err := database.SaveRun(ctx, run, reviews); err != nil {
		logger.Warn().Err(err).Msg("Failed to save run to database")
	}
}

// writeToSheets writes the run to a new sheet and returns a link to it, or "" when skipped or failed
func (a *app) writeToSheets(ctx context.Context, logger zerolog.Logger, run db.Run, reviews []models.Review) string {
	if a.cfg.Sheets.SpreadsheetURL == "" {
		return ""
	}

	writer, err := sheets.NewWriter(ctx, a.cfg.Sheets.SpreadsheetURL, a.cfg.Sheets.CredentialsPath, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize Google Sheets writer")
		return ""
	}

	sheetName := fmt.Sprintf("reviews_%s_%s", run.StartedAt.Format("20060102_150405"), run.ID.String()[:8])
	info := fmt.Sprintf("%d reviews, pages %d/%d, run %s", run.ReviewCount, run.PagesFetched, run.MaxPages, run.ID)

	_, sheetID, err := writer.CreateSheetAndWriteReviews(ctx, sheetName, reviews, run.BaseURL, info)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to write to Google Sheets")
		return ""
	}
	return writer.SheetURL(sheetID)
}

func (a *app) sendSummary(logger zerolog.Logger, summary notify.Summary) {
	if a.cfg.Telegram.Token == "" || a.cfg.Telegram.ChatID == 0 {
		return
	}

	n, err := notify.NewNotifier(a.cfg.Telegram.Token, a.cfg.Telegram.ChatID, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize Telegram notifier")
		return
	}
	if err := n.SendSummary(summary); err != nil {
		logger.Warn().Err(err).Msg("Failed to send Telegram summary")
	}
}

// formatReviewsConsole prints the first n reviews, showing only the fields that were found
func formatReviewsConsole(w io.Writer, reviews []models.Review, n int) {
	fmt.Fprintf(w, "Total reviews scraped: %d\n", len(reviews))

	for i, r := range reviews {
		if i >= n {
			break
		}
		fmt.Fprintf(w, "\nReview %d:\n", i+1)
		if r.Rating != nil {
			fmt.Fprintf(w, "  Rating: %g\n", *r.Rating)
		}
		if r.Title != nil {
			fmt.Fprintf(w, "  Title: %s\n", *r.Title)
		}
		fmt.Fprintf(w, "  Text: %s\n", r.ReviewText)
		if r.ReviewerName != nil {
			fmt.Fprintf(w, "  Reviewer: %s\n", *r.ReviewerName)
		}
		if r.Date != nil {
			fmt.Fprintf(w, "  Date: %s\n", *r.Date)
		}
		if r.HelpfulVotes != nil {
			fmt.Fprintf(w, "  Helpful votes: %d\n", *r.HelpfulVotes)
		}
	}
}
