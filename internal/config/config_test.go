package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, "supaharris.db", cfg.DatabasePath)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "https://api.adsabs.harvard.edu/v1", cfg.ADSAPIURL)
	assert.Equal(t, 5*time.Second, cfg.ScrapeTimeout)
	assert.Equal(t, 2, cfg.ScrapeRetries)
	assert.Equal(t, 90, cfg.FuzzyThreshold)
	assert.Equal(t, "us-east-1", cfg.S3Region)
	assert.Equal(t, "0 3 * * *", cfg.Schedule)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.False(t, cfg.S3().Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_SSLMODE", "require")
	t.Setenv("SCRAPE_TIMEOUT", "250ms")
	t.Setenv("SCRAPE_RETRIES", "0")
	t.Setenv("FUZZY_THRESHOLD", "75")
	t.Setenv("S3_ENDPOINT", "http://localhost:9000")
	t.Setenv("S3_ACCESS_KEY", "minio")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.DatabaseDriver)
	assert.Equal(t, "host=db.internal user=supaharris password=secret dbname=supaharris port=6543 sslmode=require", cfg.DSN())
	assert.Equal(t, 250*time.Millisecond, cfg.Scraping().Timeout)
	assert.Equal(t, 0, cfg.Scraping().Retries)
	assert.Equal(t, 75, cfg.FuzzyThreshold)

	s3 := cfg.S3()
	assert.True(t, s3.Enabled())
	assert.Equal(t, "http://localhost:9000", s3.Endpoint)
	assert.Equal(t, "us-east-1", s3.Region)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value, want string
	}{
		{"driver", "DATABASE_DRIVER", "mysql", "DATABASE_DRIVER"},
		{"threshold", "FUZZY_THRESHOLD", "120", "FUZZY_THRESHOLD"},
		{"retries", "SCRAPE_RETRIES", "-1", "SCRAPE_RETRIES"},
		{"log format", "LOG_FORMAT", "xml", "LOG_FORMAT"},
		{"not a number", "DB_PORT", "five", "DB_PORT"},
		{"not a duration", "SCRAPE_TIMEOUT", "soon", "SCRAPE_TIMEOUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
