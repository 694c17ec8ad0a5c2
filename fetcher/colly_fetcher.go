package fetcher

import (
	"context"
	"fmt"
	"net/http"

	"review-scraper/config"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
	"github.com/rs/zerolog"
)

const (
	ctxBodyKey   = "body"
	ctxStatusKey = "status"
)

// CollyFetcher implements the Fetcher interface using colly.
// One collector is created per run and reused for every page, so connections are kept alive.
type CollyFetcher struct {
	collector   *colly.Collector
	headers     http.Header
	maxBodySize int
	logger      zerolog.Logger
}

// NewCollyFetcher creates a new CollyFetcher instance
func NewCollyFetcher(cfg config.Scraper, logger zerolog.Logger) *CollyFetcher {
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultUserAgent
	}

	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(cfg.Timeout)
	c.MaxBodySize = cfg.MaxBodySize

	// Status handling is done here so every 2xx counts as success
	c.ParseHTTPErrorResponse = true

	if cfg.RandomUserAgent {
		extensions.RandomUserAgent(c)
	}

	c.OnRequest(func(r *colly.Request) {
		logger.Debug().Str("url", r.URL.String()).Msg("Requesting page")
	})

	c.OnResponse(func(r *colly.Response) {
		r.Ctx.Put(ctxStatusKey, r.StatusCode)
		r.Ctx.Put(ctxBodyKey, string(r.Body))
	})

	return &CollyFetcher{
		collector:   c,
		headers:     requestHeaders(cfg),
		maxBodySize: cfg.MaxBodySize,
		logger:      logger,
	}
}

// Fetch implements the Fetcher interface
func (cf *CollyFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	reqCtx := colly.NewContext()
	if err := cf.collector.Request(http.MethodGet, url, nil, reqCtx, cf.headers.Clone()); err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}

	status, _ := reqCtx.GetAny(ctxStatusKey).(int)
	if !isSuccess(status) {
		return "", &StatusError{URL: url, Code: status}
	}

	body := reqCtx.Get(ctxBodyKey)
	if body == "" {
		return "", fmt.Errorf("%s: %w", url, ErrEmptyBody)
	}
	// colly stops reading at the limit without an error
	if cf.maxBodySize > 0 && len(body) >= cf.maxBodySize {
		return "", fmt.Errorf("%s: %w (%d bytes)", url, ErrBodyTooLarge, cf.maxBodySize)
	}

	return body, nil
}
