// Package config defines the ingestion configuration and its loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - Validation errors wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Destination store kinds.
const (
	StoreElasticsearch = "elasticsearch"
	StoreSQLite        = "sqlite"
)

// Existence gate modes.
const (
	GateSample = "sample"
	GateExact  = "exact"
)

// CSV encodings.
const (
	EncodingLatin1 = "latin1"
	EncodingUTF8   = "utf8"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Store selects the destination: elasticsearch or sqlite.
	Store        string   `koanf:"store"`
	ESAddresses  []string `koanf:"es_addresses"`
	ESUsername   string   `koanf:"es_username"`
	ESPassword   string   `koanf:"es_password"`
	SQLitePath   string   `koanf:"sqlite_path"`
	GateMode     string   `koanf:"gate_mode"`
	MetricsFile  string   `koanf:"metrics_file"`
	WorkDir      string   `koanf:"work_dir"`
	NewsMapping  string   `koanf:"tvnews_mapping_file"`
	EventMapping string   `koanf:"event_mapping_file"`

	// BatchSize bounds the rows per CSV window.
	BatchSize int `koanf:"batch_size"`
	// BulkSize bounds the documents per bulk submission for line sources.
	BulkSize int `koanf:"bulk_size"`

	// FillValue replaces missing numeric cells (0, or -999999 in some deployments).
	FillValue float64 `koanf:"fill_value"`
	// FillText replaces missing text cells; empty means FillValue rendered as text.
	FillText    string `koanf:"fill_text"`
	CSVEncoding string `koanf:"csv_encoding"`

	StopwordsExtend []string `koanf:"stopwords_extend"`
	StopwordsRemove []string `koanf:"stopwords_remove"`

	FetchTimeoutSeconds int     `koanf:"fetch_timeout_seconds"`
	FetchRatePerSecond  float64 `koanf:"fetch_rate_per_second"`
	UserAgent           string  `koanf:"user_agent"`

	TVNewsURLTemplate string `koanf:"tvnews_url_template"`
	EventsURLTemplate string `koanf:"events_url_template"`

	IncidentIndex string `koanf:"incident_index"`
	TVNewsIndex   string `koanf:"tvnews_index"`
	EventsIndex   string `koanf:"events_index"`
}

// New creates a Config populated with defaults. Context is accepted first to
// satisfy the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Store:               StoreElasticsearch,
		ESAddresses:         []string{"http://localhost:9200"},
		SQLitePath:          "ingestor.db",
		GateMode:            GateSample,
		WorkDir:             os.TempDir(),
		BatchSize:           50_000,
		BulkSize:            50_000,
		FillValue:           0,
		CSVEncoding:         EncodingLatin1,
		FetchTimeoutSeconds: 120,
		FetchRatePerSecond:  2,
		UserAgent:           "ingestor/1.0",
		TVNewsURLTemplate:   "http://data.gdeltproject.org/gdeltv3/iatv/ngrams/{date}.{station}.{order}gram.txt.gz",
		EventsURLTemplate:   "http://data.gdeltproject.org/gdeltv2/{timestamp}.export.CSV.zip",
		IncidentIndex:       "terrorism",
		TVNewsIndex:         "tvnews",
		EventsIndex:         "gdelt-events-2.0",
	}
}

// FetchTimeout returns the HTTP timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// TextFill returns the placeholder for missing text cells.
func (c *Config) TextFill() string {
	if c.FillText != "" {
		return c.FillText
	}
	return strconv.FormatFloat(c.FillValue, 'f', -1, 64)
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreElasticsearch:
		if len(c.ESAddresses) == 0 {
			return fmt.Errorf("%w: es_addresses must not be empty", ErrInvalidConfig)
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite_path must not be empty", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	}

	switch c.GateMode {
	case GateSample, GateExact:
	default:
		return fmt.Errorf("%w: unknown gate_mode %q", ErrInvalidConfig, c.GateMode)
	}

	switch c.CSVEncoding {
	case EncodingLatin1, EncodingUTF8:
	default:
		return fmt.Errorf("%w: unknown csv_encoding %q", ErrInvalidConfig, c.CSVEncoding)
	}

	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch_size must be positive", ErrInvalidConfig)
	}
	if c.BulkSize <= 0 {
		return fmt.Errorf("%w: bulk_size must be positive", ErrInvalidConfig)
	}
	if c.FetchTimeoutSeconds <= 0 {
		return fmt.Errorf("%w: fetch_timeout_seconds must be positive", ErrInvalidConfig)
	}
	if c.FetchRatePerSecond < 0 {
		return fmt.Errorf("%w: fetch_rate_per_second must not be negative", ErrInvalidConfig)
	}
	if c.IncidentIndex == "" || c.TVNewsIndex == "" || c.EventsIndex == "" {
		return fmt.Errorf("%w: index names must not be empty", ErrInvalidConfig)
	}
	if c.WorkDir != "" {
		c.WorkDir = filepath.Clean(c.WorkDir)
	}
	return nil
}
