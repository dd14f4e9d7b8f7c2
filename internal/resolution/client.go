package resolution

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/subnet-miner/internal/util"
)

// DefaultAPIURL is the subnet resolution authority
const DefaultAPIURL = "https://api.subnet90.com"

// StatusError reports a non-success, non-404 response
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Body)
}

// Config configures the resolution client
type Config struct {
	APIURL  string
	Timeout time.Duration

	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string

	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		APIURL:  DefaultAPIURL,
		Timeout: 10 * time.Second,
	}
}

// Evidence is the supporting data attached to an official resolution
type Evidence struct {
	Sources     []string `json:"sources,omitempty"`
	TargetPrice *float64 `json:"target_price,omitempty"`
	FinalPrice  *float64 `json:"final_price,omitempty"`
}

// APIResolution is the authority's answer for one statement
type APIResolution struct {
	StatementID string    `json:"statement_id,omitempty"`
	Resolution  string    `json:"resolution,omitempty"`
	Confidence  *float64  `json:"confidence,omitempty"`
	Reasoning   string    `json:"reasoning,omitempty"`
	Evidence    *Evidence `json:"evidence,omitempty"`
	ResolvedAt  string    `json:"resolved_at,omitempty"`
}

// Client fetches official resolutions by statement ID.
// It never retries; callers own retry policy.
type Client struct {
	apiURL     string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a resolution client
func NewClient(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.APIURL == "" {
		cfg.APIURL = def.APIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		apiURL: strings.TrimRight(cfg.APIURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			},
		},
		log: log,
	}
}

// APIURL returns the authority base URL
func (c *Client) APIURL() string {
	return c.apiURL
}

// Get fetches the resolution for statementID.
// A 404 or an empty ID returns (nil, nil); any other failure returns an error.
func (c *Client) Get(ctx context.Context, statementID string) (*APIResolution, error) {
	if statementID == "" {
		return nil, nil
	}

	endpoint := c.apiURL + "/api/resolutions/" + url.PathEscape(statementID)
	c.log.Debug("fetching resolution", "url", endpoint, "statement_id", statementID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		c.log.Debug("resolution not found", "statement_id", statementID)
		return nil, nil
	default:
		c.log.Warn("resolution API returned error status", "status", resp.StatusCode, "statement_id", statementID)
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var result APIResolution
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	c.log.Info("resolution found", "statement_id", statementID, "resolution", result.Resolution)
	return &result, nil
}
