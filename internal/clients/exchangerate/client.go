// Package exchangerate provides currency exchange rate fetching and caching
// functionality.
package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ozgurkara/portfoy/internal/clientdata"
)

const cacheTable = "exchangerate"
const cacheTTL = 30 * time.Minute

// Client for exchangerate-api.com
type Client struct {
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewClient creates a new exchangerate-api.com client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   "https://api.exchangerate-api.com/v4/latest",
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log.With().Str("client", "exchangerate-api").Logger(),
		cacheRepo: cacheRepo,
	}
}

// cachedExchangeRate is the structure stored in the cache.
type cachedExchangeRate struct {
	Rate float64 `msgpack:"rate"`
}

// GetRate fetches exchange rate with cache.
// If the API fails, returns stale cached data if available (stale data > no data).
func (c *Client) GetRate(ctx context.Context, fromCurrency, toCurrency string) (float64, error) {
	if fromCurrency == toCurrency {
		return 1.0, nil
	}

	cacheKey := fromCurrency + ":" + toCurrency

	if c.cacheRepo != nil {
		var cached cachedExchangeRate
		fresh, err := c.cacheRepo.GetIfFresh(cacheTable, cacheKey, &cached)
		if err == nil && fresh {
			c.log.Debug().
				Str("from", fromCurrency).
				Str("to", toCurrency).
				Float64("rate", cached.Rate).
				Msg("Cache hit")
			return cached.Rate, nil
		}
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, fromCurrency)
	c.log.Debug().Str("url", url).Msg("Fetching rates")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if staleRate, ok := c.getStaleFromCache(cacheKey); ok {
			c.log.Warn().
				Err(err).
				Str("from", fromCurrency).
				Str("to", toCurrency).
				Float64("rate", staleRate).
				Msg("API failed, using stale cached rate")
			return staleRate, nil
		}
		return 0, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if staleRate, ok := c.getStaleFromCache(cacheKey); ok {
			c.log.Warn().
				Int("status", resp.StatusCode).
				Float64("rate", staleRate).
				Msg("API error, using stale cached rate")
			return staleRate, nil
		}
		return 0, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var result struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if staleRate, ok := c.getStaleFromCache(cacheKey); ok {
			c.log.Warn().Err(err).Float64("rate", staleRate).Msg("Failed to parse API response, using stale cached rate")
			return staleRate, nil
		}
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}

	rate, exists := result.Rates[toCurrency]
	if !exists {
		if staleRate, ok := c.getStaleFromCache(cacheKey); ok {
			c.log.Warn().Float64("rate", staleRate).Msg("Rate missing from response, using stale cached rate")
			return staleRate, nil
		}
		return 0, fmt.Errorf("rate %s->%s not in response", fromCurrency, toCurrency)
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store(cacheTable, cacheKey, cachedExchangeRate{Rate: rate}, cacheTTL); err != nil {
			c.log.Warn().Err(err).Msg("Failed to cache rate")
		}
	}

	return rate, nil
}

// getStaleFromCache reads the cached rate ignoring expiration.
func (c *Client) getStaleFromCache(cacheKey string) (float64, bool) {
	if c.cacheRepo == nil {
		return 0, false
	}
	var cached cachedExchangeRate
	found, err := c.cacheRepo.GetStale(cacheTable, cacheKey, &cached)
	if err != nil || !found {
		return 0, false
	}
	return cached.Rate, true
}
