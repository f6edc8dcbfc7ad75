// Package catalog searches the Google Books catalog for titles to add.
package catalog

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Defaults for Config fields left zero.
const (
	DefaultBaseURL           = "https://www.googleapis.com/books/v1"
	DefaultMaxResults        = 10
	MaxMaxResults            = 40 // largest page the volumes API serves
	DefaultRequestsPerSecond = 2.0
	defaultBurst             = 4
	defaultTimeout           = 30 * time.Second
)

// Config configures a Client.
type Config struct {
	BaseURL           string  `mapstructure:"base_url"`
	MaxResults        int     `mapstructure:"max_results"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// Client provides access to the Google Books volumes API.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	baseURL     string
	maxResults  int
	logger      *zap.Logger
}

// NewClient creates a catalog client. httpClient may be nil.
func NewClient(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	cfg.MaxResults = min(cfg.MaxResults, MaxMaxResults)
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient:  httpClient,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), defaultBurst),
		baseURL:     cfg.BaseURL,
		maxResults:  cfg.MaxResults,
		logger:      logger,
	}
}

// wait blocks until the rate limiter allows a request.
func (c *Client) wait(ctx context.Context) error {
	return c.rateLimiter.Wait(ctx)
}
