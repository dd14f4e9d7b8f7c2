package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ppiankov/subnet-miner/internal/cache"
	"github.com/ppiankov/subnet-miner/internal/util"
	"github.com/ppiankov/subnet-miner/internal/worker"
)

const (
	publicBaseURL = "https://api.coingecko.com"
	proBaseURL    = "https://pro-api.coingecko.com"

	// FallbackHistoricalUnavailable tags a current price served in place of a historical one
	FallbackHistoricalUnavailable = "historical_data_unavailable"

	historyDateLayout = "02-01-2006"
	lookupTTL         = 24 * time.Hour
	historyTTL        = 24 * time.Hour
)

// ErrRateLimited is returned when CoinGecko answers 429
var ErrRateLimited = errors.New("market data rate limited")

// StatusError reports a non-success response
type StatusError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error (%d) from %s: %s", e.StatusCode, e.Endpoint, e.Body)
}

// Config configures the market data client
type Config struct {
	// APIKey switches to the pro endpoint and is sent as x-cg-pro-api-key
	APIKey string

	// BaseURL overrides the endpoint (tests)
	BaseURL string

	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int

	// CacheTTL applies to current prices
	CacheTTL time.Duration

	// LookupCacheDir persists the coin lookup table across restarts when set
	LookupCacheDir string

	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string

	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Timeout:           10 * time.Second,
		RequestsPerSecond: 0.5,
		Burst:             3,
		CacheTTL:          5 * time.Minute,
	}
}

// Price is a USD quote for one coin
type Price struct {
	CoinID         string   `json:"coin_id"`
	USD            float64  `json:"usd"`
	Change24h      *float64 `json:"usd_24h_change,omitempty"`
	Date           string   `json:"date,omitempty"` // dd-mm-yyyy for historical quotes
	Historical     bool     `json:"historical"`
	FallbackReason string   `json:"fallback_reason,omitempty"`
}

// Client fetches coin metadata and prices from CoinGecko
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *worker.Limiter
	prices     cache.Cache
	lookups    cache.Cache
	cacheTTL   time.Duration
	log        *slog.Logger

	group  singleflight.Group
	mu     sync.RWMutex
	lookup map[string]string // symbol, name or id -> id
	terms  []string          // lookup keys, longest first
	loaded bool
}

// NewClient creates a market data client
func NewClient(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = publicBaseURL
		if cfg.APIKey != "" {
			baseURL = proBaseURL
		}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	var lookups cache.Cache = cache.NewMemoryCache(lookupTTL, 10*time.Minute)
	if cfg.LookupCacheDir != "" {
		lookups = cache.NewLayeredCache(lookupTTL, cfg.LookupCacheDir, lookupTTL)
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			},
		},
		limiter:  worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst),
		prices:   cache.NewMemoryCache(cfg.CacheTTL, time.Minute),
		lookups:  lookups,
		cacheTTL: cfg.CacheTTL,
		log:      log,
	}
}

// getJSON performs a rate-limited GET and decodes the response into out
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	if err := c.limiter.WaitURL(ctx, endpoint); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-pro-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, path)
	case resp.StatusCode != http.StatusOK:
		return &StatusError{StatusCode: resp.StatusCode, Endpoint: path, Body: strings.TrimSpace(string(body))}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
