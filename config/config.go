package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultUserAgent is the desktop browser identity sent with every request
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Fetcher kinds
const (
	FetcherColly = "colly"
	FetcherRod   = "rod"
)

// Config is the full configuration of one scraping run
type Config struct {
	URL      string `yaml:"url"`
	MaxPages int    `yaml:"max_pages"`

	Scraper Scraper `yaml:"scraper"`
	Parser  Parser  `yaml:"parser"`
	Output  Output  `yaml:"output"`

	Filters Filters `yaml:"filters"`

	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`

	Sheets struct {
		SpreadsheetURL  string `yaml:"spreadsheet_url"`
		CredentialsPath string `yaml:"credentials_path"`
	} `yaml:"sheets"`

	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
}

// Scraper holds the transport and pagination settings
type Scraper struct {
	Fetcher         string            `yaml:"fetcher"`
	UserAgent       string            `yaml:"user_agent"`
	RandomUserAgent bool              `yaml:"random_user_agent"`
	Headers         map[string]string `yaml:"headers"`
	Timeout         time.Duration     `yaml:"timeout"`
	Delay           time.Duration     `yaml:"delay"`
	StopOnEmptyPage bool              `yaml:"stop_on_empty_page"`
	// MaxBodySize caps a response body in bytes; 0 means no limit
	MaxBodySize int `yaml:"max_body_size"`
}

// Parser holds the extraction heuristics that vary between sites
type Parser struct {
	ContainerClasses []string `yaml:"container_classes"`
	MinTextLength    int      `yaml:"min_text_length"`
}

// Filters holds the post-scrape filter criteria; zero values disable a criterion
type Filters struct {
	MinRating       float64 `yaml:"min_rating"`
	MinHelpfulVotes int     `yaml:"min_helpful_votes"`
}

// Output holds the output file locations
type Output struct {
	CSVPath     string `yaml:"csv"`
	JSONPath    string `yaml:"json"`
	SnapshotDir string `yaml:"snapshot_dir"`
}

// LoadConfig loads configuration from a YAML file on top of the defaults
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := GetDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// GetDefaultConfig returns a default configuration
func GetDefaultConfig() *Config {
	cfg := &Config{}
	cfg.MaxPages = 5
	cfg.Scraper = Scraper{
		Fetcher:   FetcherColly,
		UserAgent: DefaultUserAgent,
		Timeout:   10 * time.Second,
		Delay:     2 * time.Second,
	}
	cfg.Parser = Parser{
		MinTextLength: 20,
	}
	cfg.Output = Output{
		CSVPath:  "reviews_raw.csv",
		JSONPath: "reviews_raw.json",
	}
	cfg.Log.Level = "info"
	return cfg
}

// ApplyEnv overrides configuration values with environment variables when they are set
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("REVIEWS_URL"); v != "" {
		c.URL = v
	}
	if v := os.Getenv("REVIEWS_MAX_PAGES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REVIEWS_MAX_PAGES %q: %w", v, err)
		}
		c.MaxPages = n
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Postgres.URL = v
	}
	if v := os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"); v != "" {
		c.Sheets.CredentialsPath = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", v, err)
		}
		c.Telegram.ChatID = id
	}
	return nil
}

// Validate reports the first setting that would make the run unusable
func (c *Config) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return errors.New("url is required")
	}
	if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		return fmt.Errorf("url must start with http:// or https://: %s", c.URL)
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("max_pages must not be negative: %d", c.MaxPages)
	}
	if c.Scraper.Timeout <= 0 {
		return fmt.Errorf("scraper.timeout must be positive: %s", c.Scraper.Timeout)
	}
	if c.Scraper.MaxBodySize < 0 {
		return fmt.Errorf("scraper.max_body_size must not be negative: %d", c.Scraper.MaxBodySize)
	}
	if c.Scraper.Delay < 0 {
		return fmt.Errorf("scraper.delay must not be negative: %s", c.Scraper.Delay)
	}
	switch c.Scraper.Fetcher {
	case FetcherColly, FetcherRod:
	default:
		return fmt.Errorf("unknown scraper.fetcher %q", c.Scraper.Fetcher)
	}
	if c.Filters.MinRating < 0 || c.Filters.MinRating > 5 {
		return fmt.Errorf("filters.min_rating must be between 0 and 5: %g", c.Filters.MinRating)
	}
	if c.Parser.MinTextLength < 0 {
		return fmt.Errorf("parser.min_text_length must not be negative: %d", c.Parser.MinTextLength)
	}
	return nil
}
