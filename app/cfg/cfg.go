package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Application configuration
	Port          string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	FeedsFile     string `long:"feeds-file" env:"FEEDS_FILE" default:"./feeds.yml" description:"YAML file with the ordered feed list (built-in list is used when missing)"`
	DBPath        string `long:"db-path" env:"DB_PATH" default:"./data/feed-reader.db" description:"SQLite database file for the load journal"`
	URLSchemes    string `long:"url-schemes" env:"URL_SCHEMES" default:"http,https" description:"Comma separated URL schemes accepted in the feed list"`
	WorkerCount   int    `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of background workers prefetching feeds"`
	QueueSize     int    `long:"queue-size" env:"QUEUE_SIZE" default:"100" description:"Maximum number of pending feed loads"`
	LoadTimeout   int    `long:"load-timeout" env:"LOAD_TIMEOUT" default:"60" description:"Upper bound for a single feed load in seconds"`
	RefreshPeriod int    `long:"refresh-interval" env:"REFRESH_INTERVAL" default:"600" description:"Prefetch interval and cache lifetime in seconds (0 disables both)"`

	// Upstream fetching
	UserAgent    string `long:"user-agent" env:"USER_AGENT" default:"Feed Reader/1.0" description:"User agent string for HTTP requests"`
	FetchTimeout int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"15" description:"Timeout of a single upstream request in seconds"`
	FetchRetries int    `long:"fetch-retries" env:"FETCH_RETRIES" default:"2" description:"Retries for failed upstream requests"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load parses the process arguments and environment. It returns nil, nil when
// help was requested.
func Load() (*Cfg, error) {
	return LoadArgs(os.Args[1:])
}

func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Port:          raw.Port,
		FeedsFile:     raw.FeedsFile,
		DBPath:        raw.DBPath,
		URLSchemes:    splitList(raw.URLSchemes),
		WorkerCount:   raw.WorkerCount,
		QueueSize:     raw.QueueSize,
		LoadTimeout:   time.Duration(raw.LoadTimeout) * time.Second,
		RefreshPeriod: time.Duration(raw.RefreshPeriod) * time.Second,
		UserAgent:     raw.UserAgent,
		FetchTimeout:  time.Duration(raw.FetchTimeout) * time.Second,
		FetchRetries:  raw.FetchRetries,
		Timezone:      raw.Timezone,
		Debug:         raw.Debug,
		Version:       GetVersion(),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		slog.Warn("Invalid timezone, using system default", "timezone", cfg.Timezone, "error", err)
	}

	return cfg, nil
}

func validate(cfg *Cfg) error {
	if len(cfg.URLSchemes) == 0 {
		return fmt.Errorf("at least one URL scheme is required")
	}
	positiveFields := map[string]int{
		"worker count": cfg.WorkerCount,
		"queue size":   cfg.QueueSize,
	}
	for fieldName, fieldValue := range positiveFields {
		if fieldValue <= 0 {
			return fmt.Errorf("%s must be positive", fieldName)
		}
	}
	if cfg.FetchRetries < 0 {
		return fmt.Errorf("fetch retries must be non-negative")
	}
	if cfg.LoadTimeout <= 0 || cfg.FetchTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if cfg.RefreshPeriod < 0 {
		return fmt.Errorf("refresh interval must be non-negative")
	}
	return nil
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		item = strings.ToLower(strings.TrimSpace(item))
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
