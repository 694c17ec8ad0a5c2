package paginator

import (
	"context"
	"strconv"
	"strings"
	"time"

	"review-scraper/config"
	"review-scraper/fetcher"
	"review-scraper/models"

	"github.com/rs/zerolog"
)

// PageParser turns one page of HTML into review records
type PageParser interface {
	Parse(htmlContent string) ([]models.Review, error)
}

// Result summarizes one pagination run
type Result struct {
	PagesRequested int
	PagesFetched   int
	PagesFailed    int
	Reviews        int
	StoppedEarly   bool
	Duration       time.Duration
}

// Paginator walks review pages sequentially
type Paginator struct {
	fetcher     fetcher.Fetcher
	parser      PageParser
	delay       time.Duration
	stopOnEmpty bool
	logger      zerolog.Logger
}

// New creates a Paginator that fetches with f and parses with p
func New(f fetcher.Fetcher, p PageParser, cfg config.Scraper, logger zerolog.Logger) *Paginator {
	return &Paginator{
		fetcher:     f,
		parser:      p,
		delay:       cfg.Delay,
		stopOnEmpty: cfg.StopOnEmptyPage,
		logger:      logger.With().Str("component", "paginator").Logger(),
	}
}

// PageURL returns the URL of page n: the base itself for page 1, otherwise base with page=n appended
func PageURL(base string, n int) string {
	if n <= 1 {
		return base
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "page=" + strconv.Itoa(n)
}

// Run fetches pages 1..maxPages in order and returns all parsed reviews in page order.
// Pages that fail to fetch or parse are logged and skipped. A canceled context ends the run
// with whatever was collected so far.
func (p *Paginator) Run(ctx context.Context, baseURL string, maxPages int) ([]models.Review, Result) {
	start := time.Now()
	res := Result{PagesRequested: max(maxPages, 0)}
	var reviews []models.Review

	for page := 1; page <= maxPages; page++ {
		if ctx.Err() != nil {
			p.logger.Warn().Int("page", page).Msg("Run canceled")
			break
		}

		pageURL := PageURL(baseURL, page)
		p.logger.Info().Int("page", page).Str("url", pageURL).Msg("Fetching page")

		found, err := p.scrapePage(ctx, pageURL)
		if err != nil {
			res.PagesFailed++
			p.logger.Warn().Err(err).Int("page", page).Str("url", pageURL).Msg("Skipping page")
		} else {
			res.PagesFetched++
			reviews = append(reviews, found...)
			p.logger.Info().Int("page", page).Int("reviews", len(found)).Msg("Page parsed")

			if len(found) == 0 && page > 1 && p.stopOnEmpty {
				res.StoppedEarly = true
				p.logger.Info().Int("page", page).Msg("Empty page, stopping")
				break
			}
		}

		if page < maxPages && !sleepCtx(ctx, p.delay) {
			p.logger.Warn().Int("page", page).Msg("Run canceled")
			break
		}
	}

	res.Reviews = len(reviews)
	res.Duration = time.Since(start)
	return reviews, res
}

func (p *Paginator) scrapePage(ctx context.Context, pageURL string) ([]models.Review, error) {
	body, err := p.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return p.parser.Parse(body)
}

// sleepCtx waits for d unless ctx is done first; it reports whether the full wait elapsed
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
