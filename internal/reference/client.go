package reference

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout bounds one HTTP request.
	DefaultTimeout = 5 * time.Second
	// DefaultRetries is the number of retries after the first attempt.
	DefaultRetries = 2

	userAgent = "shingest/1 (+https://github.com/supaharris/shingest)"
	maxBody   = 4 << 20
)

// ClientConfig tunes the scraping HTTP client.
type ClientConfig struct {
	Timeout time.Duration
	Retries int
	WaitMin time.Duration
	WaitMax time.Duration
}

// NewClient returns a retrying HTTP client that retries connection
// errors, 429 and 5xx responses with exponential backoff.
func NewClient(cfg ClientConfig, logger *zap.Logger) *retryablehttp.Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	c := retryablehttp.NewClient()
	c.HTTPClient.Timeout = cfg.Timeout
	c.RetryMax = cfg.Retries
	if cfg.WaitMin > 0 {
		c.RetryWaitMin = cfg.WaitMin
	}
	if cfg.WaitMax > 0 {
		c.RetryWaitMax = cfg.WaitMax
	}
	c.Logger = leveledLogger{logger: orNop(logger).Named("http")}
	return c
}

// leveledLogger routes retryablehttp's logging into zap.
type leveledLogger struct {
	logger *zap.Logger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.logger.Sugar().Errorw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.logger.Sugar().Warnw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.logger.Sugar().Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.logger.Sugar().Debugw(msg, kv...) }

var _ retryablehttp.LeveledLogger = leveledLogger{}

// fetch performs req and returns the body of a 200 response.
func fetch(client *retryablehttp.Client, req *retryablehttp.Request) ([]byte, error) {
	req.Header.Set("User-Agent", userAgent)
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", req.URL, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %s", req.URL, resp.Status)
	}
	return body, nil
}

func get(ctx context.Context, client *retryablehttp.Client, url string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return fetch(client, req)
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
