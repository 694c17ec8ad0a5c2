package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"review-scraper/config"
)

var (
	// ErrStatus is matched by every *StatusError
	ErrStatus = errors.New("unexpected response status")
	// ErrEmptyBody is returned when a page answers 2xx without any content
	ErrEmptyBody = errors.New("empty response body")
	// ErrBodyTooLarge is returned when a body reaches the configured size limit and may be cut off
	ErrBodyTooLarge = errors.New("response body reached size limit")
)

// Fetcher interface defines the contract for fetching implementations
type Fetcher interface {
	// Fetch performs a single GET for url and returns the response body.
	// Any failure (network, timeout, non-2xx status) is returned as an error; there are no retries.
	Fetch(ctx context.Context, url string) (string, error)
}

// StatusError reports a response outside the 2xx range
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Is makes errors.Is(err, ErrStatus) hold for any StatusError
func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

// DefaultHeaders returns the browser-like request headers sent with every page request.
// The User-Agent is set separately from config.Scraper.UserAgent.
func DefaultHeaders() http.Header {
	h := http.Header{}
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.5")
	h.Set("Accept-Encoding", "gzip")
	h.Set("Connection", "keep-alive")
	return h
}

// requestHeaders merges the configured extra headers over the defaults
func requestHeaders(cfg config.Scraper) http.Header {
	h := DefaultHeaders()
	for k, v := range cfg.Headers {
		h.Set(k, v)
	}
	return h
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
