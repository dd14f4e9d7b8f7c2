package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/ppiankov/subnet-miner/internal/cache"
)

type historyResponse struct {
	ID         string `json:"id"`
	MarketData *struct {
		CurrentPrice map[string]float64 `json:"current_price"`
	} `json:"market_data"`
}

// CurrentPrice returns the latest USD price and 24h change for coinID
func (c *Client) CurrentPrice(ctx context.Context, coinID string) (*Price, error) {
	key := cache.CacheKey("current", coinID)
	if p, ok := c.cachedPrice(key); ok {
		return p, nil
	}

	query := url.Values{
		"ids":                 {coinID},
		"vs_currencies":       {"usd"},
		"include_24hr_change": {"true"},
	}
	var quotes map[string]map[string]float64
	if err := c.getJSON(ctx, "/api/v3/simple/price", query, &quotes); err != nil {
		return nil, fmt.Errorf("current price for %s: %w", coinID, err)
	}

	quote, ok := quotes[coinID]
	if !ok {
		return nil, fmt.Errorf("current price for %s: no data", coinID)
	}
	usd, ok := quote["usd"]
	if !ok {
		return nil, fmt.Errorf("current price for %s: no usd quote", coinID)
	}

	p := &Price{CoinID: coinID, USD: usd}
	if change, ok := quote["usd_24h_change"]; ok {
		p.Change24h = &change
	}
	c.storePrice(key, p, c.cacheTTL)

	c.log.Debug("current price", "coin", coinID, "usd", usd)
	return p, nil
}

// HistoricalPrice returns the USD price of coinID on the given UTC day
func (c *Client) HistoricalPrice(ctx context.Context, coinID string, day time.Time) (*Price, error) {
	date := day.UTC().Format(historyDateLayout)
	key := cache.CacheKey("history", coinID, date)
	if p, ok := c.cachedPrice(key); ok {
		return p, nil
	}

	var hist historyResponse
	path := "/api/v3/coins/" + url.PathEscape(coinID) + "/history"
	if err := c.getJSON(ctx, path, url.Values{"date": {date}}, &hist); err != nil {
		return nil, fmt.Errorf("historical price for %s on %s: %w", coinID, date, err)
	}

	if hist.MarketData == nil {
		return nil, fmt.Errorf("historical price for %s on %s: no market data", coinID, date)
	}
	usd, ok := hist.MarketData.CurrentPrice["usd"]
	if !ok {
		return nil, fmt.Errorf("historical price for %s on %s: no usd quote", coinID, date)
	}

	p := &Price{CoinID: coinID, USD: usd, Date: date, Historical: true}
	c.storePrice(key, p, historyTTL)

	c.log.Debug("historical price", "coin", coinID, "date", date, "usd", usd)
	return p, nil
}

// PriceAt returns the price relevant to a deadline: the historical price on
// the deadline day once it has passed, otherwise the current price. When the
// historical lookup fails for any reason the current price is returned tagged
// with FallbackHistoricalUnavailable.
func (c *Client) PriceAt(ctx context.Context, coinID string, deadline, now time.Time) (*Price, error) {
	if deadline.IsZero() || !deadline.Before(now) {
		return c.CurrentPrice(ctx, coinID)
	}

	p, err := c.HistoricalPrice(ctx, coinID, deadline)
	if err == nil {
		return p, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	c.log.Warn("historical price unavailable, falling back to current price", "coin", coinID, "error", err)

	current, cerr := c.CurrentPrice(ctx, coinID)
	if cerr != nil {
		return nil, cerr
	}
	fallback := *current
	fallback.FallbackReason = FallbackHistoricalUnavailable
	fallback.Historical = false
	return &fallback, nil
}

func (c *Client) cachedPrice(key string) (*Price, bool) {
	raw, ok := c.prices.Get(key)
	if !ok {
		return nil, false
	}
	var p Price
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (c *Client) storePrice(key string, p *Price, ttl time.Duration) {
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	_ = c.prices.Set(key, raw, ttl)
}
