package fetcher

import (
	"context"
	"fmt"
	"os"
	"time"

	"review-scraper/config"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"
)

// settleTime is how long a page must stay unchanged before its HTML is read
const settleTime = 500 * time.Millisecond

// RodFetcher implements the Fetcher interface using rod (headless browser).
// It is meant for review pages that only render their content with JavaScript.
type RodFetcher struct {
	browser *rod.Browser
	cfg     config.Scraper
	logger  zerolog.Logger
}

// NewRodFetcher launches a headless browser and connects to it
func NewRodFetcher(cfg config.Scraper, logger zerolog.Logger) (*RodFetcher, error) {
	// Get user data directory from environment; empty means a throwaway profile
	userDataDir := os.Getenv("BROWSER_DATA_DIR")
	if userDataDir != "" {
		if err := os.MkdirAll(userDataDir, 0o755); err != nil {
			logger.Warn().Err(err).Str("dir", userDataDir).Msg("Failed to create browser data directory")
			userDataDir = ""
		}
	}

	l := launcher.New().
		Headless(true).
		Set("disable-blink-features", "AutomationControlled").
		NoSandbox(true).
		Leakless(false).
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-first-run").
		Set("no-default-browser-check").
		Set("disable-extensions").
		Set("mute-audio")
	if userDataDir != "" {
		l = l.UserDataDir(userDataDir)
	}

	// Prefer a system Chrome/Chromium; rod downloads one otherwise
	if path, found := launcher.LookPath(); found {
		l = l.Bin(path)
	}

	browserURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(browserURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &RodFetcher{
		browser: browser,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// Close closes the browser
func (rf *RodFetcher) Close() error {
	if rf.browser != nil {
		return rf.browser.Close()
	}
	return nil
}

// Fetch implements the Fetcher interface.
// The browser does not expose the document status code, so only navigation failures are reported.
func (rf *RodFetcher) Fetch(ctx context.Context, url string) (string, error) {
	page, err := rf.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("failed to open page: %w", err)
	}
	defer page.Close()

	page = page.Timeout(rf.cfg.Timeout)

	userAgent := rf.cfg.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultUserAgent
	}
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: userAgent}); err != nil {
		return "", fmt.Errorf("failed to set user agent: %w", err)
	}

	var extra []string
	for k, v := range requestHeaders(rf.cfg) {
		// The browser negotiates these itself
		if k == "Accept-Encoding" || k == "Connection" || len(v) == 0 {
			continue
		}
		extra = append(extra, k, v[0])
	}
	if _, err := page.SetExtraHeaders(extra); err != nil {
		return "", fmt.Errorf("failed to set headers: %w", err)
	}

	if err := page.Navigate(url); err != nil {
		return "", fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("failed to load %s: %w", url, err)
	}
	if err := page.WaitStable(settleTime); err != nil {
		rf.logger.Warn().Err(err).Str("url", url).Msg("Page did not stabilize, reading it anyway")
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	if html == "" {
		return "", fmt.Errorf("%s: %w", url, ErrEmptyBody)
	}

	return html, nil
}
