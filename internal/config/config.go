// Package config reads shingest's settings from the environment.
//
// A .env file in the working directory is loaded first when present;
// variables already set in the environment take precedence over it.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/supaharris/shingest/internal/reference"
	"github.com/supaharris/shingest/internal/source"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds every setting shingest reads from the environment.
type Config struct {
	DatabaseDriver string `envconfig:"DATABASE_DRIVER" default:"sqlite"`
	DatabasePath   string `envconfig:"DATABASE_PATH" default:"supaharris.db"`

	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"supaharris"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"supaharris"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	DataDir     string `envconfig:"DATA_DIR" default:"data"`
	ManifestDir string `envconfig:"MANIFEST_DIR"`
	FixturePath string `envconfig:"FIXTURE_PATH"`

	ADSAPIToken    string        `envconfig:"ADS_API_TOKEN"`
	ADSAPIURL      string        `envconfig:"ADS_API_URL" default:"https://api.adsabs.harvard.edu/v1"`
	ScrapeTimeout  time.Duration `envconfig:"SCRAPE_TIMEOUT" default:"5s"`
	ScrapeRetries  int           `envconfig:"SCRAPE_RETRIES" default:"2"`
	FuzzyThreshold int           `envconfig:"FUZZY_THRESHOLD" default:"90"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY"`

	MetricsTextfile string `envconfig:"METRICS_TEXTFILE"`
	Schedule        string `envconfig:"SCHEDULE" default:"0 3 * * *"`
	LogFormat       string `envconfig:"LOG_FORMAT" default:"console"`
}

// DSN returns the PostgreSQL data source name.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

// Scraping returns the HTTP client settings for reference scrapers.
func (c *Config) Scraping() reference.ClientConfig {
	return reference.ClientConfig{Timeout: c.ScrapeTimeout, Retries: c.ScrapeRetries}
}

// S3 returns the object store settings for remote source files.
func (c *Config) S3() source.S3Config {
	return source.S3Config{
		Endpoint:  c.S3Endpoint,
		Region:    c.S3Region,
		AccessKey: c.S3AccessKey,
		SecretKey: c.S3SecretKey,
	}
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("DATABASE_DRIVER: unknown driver %q (want %s or %s)", c.DatabaseDriver, DriverSQLite, DriverPostgres)
	}
	if c.FuzzyThreshold < 0 || c.FuzzyThreshold > 100 {
		return fmt.Errorf("FUZZY_THRESHOLD: %d is outside 0..100", c.FuzzyThreshold)
	}
	if c.ScrapeRetries < 0 {
		return fmt.Errorf("SCRAPE_RETRIES: must not be negative")
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("LOG_FORMAT: unknown format %q", c.LogFormat)
	}
	return nil
}

// Load loads the configuration from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &c, nil
}
