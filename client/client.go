// Package client is a Go client for the Grounded Web photogrammetry API.
// It keeps a cookie-based session and exposes one service per resource
// kind; dataset creation uploads the dataset's photos through a bounded
// worker pool with retry and partial-failure aggregation.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/groundedweb/groundedweb-go/models"
)

const (
	expectedAPITitle   = "Grounded Web API"
	defaultHTTPTimeout = 5 * time.Minute
)

// Client talks to one Grounded Web deployment. It is safe for concurrent
// use; the upload pipeline shares its HTTP connection pool.
type Client struct {
	baseURL string
	hc      *http.Client
	logger  *slog.Logger
	limiter *rate.Limiter

	checkConnection bool

	mu          sync.Mutex
	currentUser *models.User

	datasets       *DatasetService
	configurations *ConfigurationService
	analyses       *AnalysisService
}

// Option customizes a Client at construction time.
type Option func(*Client)

// WithLogger replaces the default stderr logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithHTTPClient replaces the default HTTP client. The caller is
// responsible for attaching a cookie jar if session auth is needed.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithRateLimit caps the rate of API calls. The default is unlimited.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(limit, burst) }
}

// WithoutConnectionCheck skips the API identity probe during New.
func WithoutConnectionCheck() Option {
	return func(c *Client) { c.checkConnection = false }
}

// New builds a client for the deployment at baseURL (with or without the
// trailing "/api") and, unless disabled, verifies that the URL actually
// serves the Grounded Web API.
func New(ctx context.Context, baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:         normalizeBaseURL(baseURL),
		logger:          defaultLogger(),
		limiter:         rate.NewLimiter(rate.Inf, 0),
		checkConnection: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.hc == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		c.hc = &http.Client{Jar: jar, Timeout: defaultHTTPTimeout}
	}

	c.datasets = &DatasetService{c: c}
	c.configurations = &ConfigurationService{c: c}
	c.analyses = &AnalysisService{c: c}

	if c.checkConnection {
		if err := c.validateAPI(ctx); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Datasets returns the dataset service.
func (c *Client) Datasets() *DatasetService { return c.datasets }

// Configurations returns the configuration service.
func (c *Client) Configurations() *ConfigurationService { return c.configurations }

// Analyses returns the analysis service.
func (c *Client) Analyses() *AnalysisService { return c.analyses }

// CurrentUser returns the user the session is authenticated as, or nil.
func (c *Client) CurrentUser() *models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentUser
}

// IsAuthenticated reports whether a login has succeeded on this client.
func (c *Client) IsAuthenticated() bool {
	return c.CurrentUser() != nil
}

// validateAPI probes the deployment's schema endpoint and checks that it
// identifies itself as the Grounded Web API.
func (c *Client) validateAPI(ctx context.Context) error {
	schemaURL := strings.TrimSuffix(c.baseURL, "/api") + "/schema"

	var schema struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
	}
	if err := c.do(ctx, http.MethodGet, schemaURL, nil, &schema, reqOpts{maxAttempts: 1}); err != nil {
		return fmt.Errorf("unable to validate API identity at %s: %w", schemaURL, err)
	}
	if schema.Info.Title != expectedAPITitle {
		return fmt.Errorf("unexpected API %q at %s (want %q)", schema.Info.Title, schemaURL, expectedAPITitle)
	}
	c.logger.Info("connected to API", slog.String("title", schema.Info.Title))
	return nil
}

func normalizeBaseURL(raw string) string {
	clean := strings.TrimRight(strings.TrimSpace(raw), "/")
	if !strings.HasSuffix(clean, "/api") {
		clean += "/api"
	}
	return clean
}

func defaultLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
