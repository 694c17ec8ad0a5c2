package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"review-scraper/config"
	"review-scraper/logging"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// options holds the command line flags; flags override config file and environment values
type options struct {
	configPath  string
	url         string
	pages       int
	csvPath     string
	jsonPath    string
	snapshotDir string
	delay       time.Duration
	timeout     time.Duration
	fetcher     string
	every       time.Duration
	logLevel    string
	pretty      bool
	preview     int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "review-scraper [url]",
		Short: "Scrapes product reviews page by page and writes them to CSV and JSON",
		Long: `Fetches a product review listing and the pages after it (page=2, page=3, ...),
extracts rating, title, text, reviewer, date and helpful votes from every review
and writes the results to CSV and JSON. Failed pages are skipped.

Optionally stores each run in Postgres, writes it to a Google Sheet and sends a
Telegram summary.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, source, err := resolveConfig(opts, args, cmd.Flags().Changed)
			if err != nil {
				return err
			}

			logger := logging.NewLogger(cfg.Log.Level, cfg.Log.Pretty)
			log.Logger = logger
			if source != "" {
				logger.Info().Str("path", source).Msg("Loaded config file")
			} else {
				logger.Debug().Msg("Config file not found. Using default configuration.")
			}

			a := &app{cfg: cfg, logger: logger, out: cmd.OutOrStdout(), preview: opts.preview}
			return a.run(cmd.Context(), opts.every)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.url, "url", "u", "", "Review page URL (page 1)")
	f.IntVarP(&opts.pages, "pages", "p", 0, "Maximum number of pages to scrape (default from config: 5)")
	f.StringVarP(&opts.configPath, "config", "c", "config.yaml", "Path to configuration file")
	f.StringVar(&opts.csvPath, "csv", "", "CSV output path, empty disables CSV output (default from config: reviews_raw.csv)")
	f.StringVar(&opts.jsonPath, "json", "", "JSON output path, empty disables JSON output (default from config: reviews_raw.json)")
	f.StringVar(&opts.snapshotDir, "snapshot-dir", "", "Directory to save every fetched page to")
	f.DurationVar(&opts.delay, "delay", 0, "Pause between page requests (default from config: 2s)")
	f.DurationVar(&opts.timeout, "timeout", 0, "Per request timeout (default from config: 10s)")
	f.StringVar(&opts.fetcher, "fetcher", "", "Page fetcher: colly or rod")
	f.DurationVar(&opts.every, "every", 0, "Repeat the scrape on this interval until interrupted")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	f.BoolVar(&opts.pretty, "pretty", false, "Human readable console logs")
	f.IntVar(&opts.preview, "preview", 3, "Number of reviews to print after the run")

	return cmd
}

// resolveConfig layers defaults, the config file, environment variables and changed flags, then validates.
// It returns the config file path that was read, or "" when defaults were used.
func resolveConfig(opts *options, args []string, changed func(name string) bool) (*config.Config, string, error) {
	cfg := config.GetDefaultConfig()
	source := ""

	if _, err := os.Stat(opts.configPath); err == nil {
		loaded, err := config.LoadConfig(opts.configPath)
		if err != nil {
			return nil, "", err
		}
		cfg, source = loaded, opts.configPath
	} else if !errors.Is(err, os.ErrNotExist) || changed("config") {
		return nil, "", fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, "", err
	}

	if len(args) == 1 {
		cfg.URL = args[0]
	}
	if changed("url") {
		cfg.URL = opts.url
	}
	if changed("pages") {
		cfg.MaxPages = opts.pages
	}
	if changed("csv") {
		cfg.Output.CSVPath = opts.csvPath
	}
	if changed("json") {
		cfg.Output.JSONPath = opts.jsonPath
	}
	if changed("snapshot-dir") {
		cfg.Output.SnapshotDir = opts.snapshotDir
	}
	if changed("delay") {
		cfg.Scraper.Delay = opts.delay
	}
	if changed("timeout") {
		cfg.Scraper.Timeout = opts.timeout
	}
	if changed("fetcher") {
		cfg.Scraper.Fetcher = opts.fetcher
	}
	if changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if changed("pretty") {
		cfg.Log.Pretty = opts.pretty
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, source, nil
}
