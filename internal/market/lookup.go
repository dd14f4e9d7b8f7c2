package market

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"strings"

	"github.com/ppiankov/subnet-miner/internal/cache"
)

type marketCoin struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// LoadLookup fetches the top 100 coins by market cap and builds the
// symbol/name/id table. Concurrent callers share one fetch; a failed load
// leaves the table unloaded so a later call retries.
func (c *Client) LoadLookup(ctx context.Context) error {
	if c.isLoaded() {
		return nil
	}

	_, err, _ := c.group.Do("lookup", func() (any, error) {
		if c.isLoaded() {
			return nil, nil
		}

		key := cache.CacheKey("lookup", c.baseURL)
		if raw, ok := c.lookups.Get(key); ok {
			var table map[string]string
			if err := json.Unmarshal(raw, &table); err == nil && len(table) > 0 {
				c.setLookup(table)
				c.log.Debug("coin lookup loaded from cache", "mappings", len(table))
				return nil, nil
			}
		}

		query := url.Values{
			"vs_currency": {"usd"},
			"order":       {"market_cap_desc"},
			"per_page":    {"100"},
			"page":        {"1"},
		}
		var coins []marketCoin
		if err := c.getJSON(ctx, "/api/v3/coins/markets", query, &coins); err != nil {
			c.log.Warn("failed to load coin lookup", "error", err)
			return nil, err
		}

		table := make(map[string]string, len(coins)*3)
		for _, coin := range coins {
			if coin.ID == "" {
				continue
			}
			table[strings.ToLower(coin.Symbol)] = coin.ID
			table[strings.ToLower(coin.Name)] = coin.ID
			table[coin.ID] = coin.ID
		}
		delete(table, "")

		c.setLookup(table)
		if raw, err := json.Marshal(table); err == nil {
			_ = c.lookups.Set(key, raw, lookupTTL)
		}
		c.log.Info("coin lookup loaded", "coins", len(coins), "mappings", len(table))
		return nil, nil
	})
	return err
}

func (c *Client) isLoaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

func (c *Client) setLookup(table map[string]string) {
	terms := make([]string, 0, len(table))
	for term := range table {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if len(terms[i]) != len(terms[j]) {
			return len(terms[i]) > len(terms[j])
		}
		return terms[i] < terms[j]
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lookup = table
	c.terms = terms
	c.loaded = true
}

// LookupSize returns the number of mappings in the loaded table
func (c *Client) LookupSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.lookup)
}

// ResolveID maps a symbol or name to a CoinGecko id.
// Unknown symbols are returned lower-cased as-is.
func (c *Client) ResolveID(ctx context.Context, symbol string) string {
	symbol = strings.ToLower(strings.TrimSpace(symbol))
	_ = c.LoadLookup(ctx)

	c.mu.RLock()
	defer c.mu.RUnlock()
	if id, ok := c.lookup[symbol]; ok {
		return id
	}
	return symbol
}

// FindSymbol finds the first known coin mentioned in text as a whole word.
// Longer terms win so "bitcoin cash" is preferred over "bitcoin".
func (c *Client) FindSymbol(ctx context.Context, text string) (string, bool) {
	_ = c.LoadLookup(ctx)

	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return "", false
	}

	lower := strings.ToLower(text)
	for _, term := range c.terms {
		if len(term) < 2 {
			continue
		}
		if containsWord(lower, term) {
			return c.lookup[term], true
		}
	}
	return "", false
}

// containsWord reports whether term occurs in s bounded by non-alphanumerics
func containsWord(s, term string) bool {
	for start := 0; ; {
		idx := strings.Index(s[start:], term)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(term)
		if (idx == 0 || !isWordByte(s[idx-1])) && (end == len(s) || !isWordByte(s[end])) {
			return true
		}
		start = idx + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '_'
}
