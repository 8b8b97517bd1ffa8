// Package binance fetches crypto spot prices (USD basis) from the public
// Binance ticker API.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ozgurkara/portfoy/internal/clientdata"
)

const cacheTable = "quotes"
const cacheTTL = 60 * time.Second

// Client for the Binance 24h ticker endpoint.
type Client struct {
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewClient creates a new Binance client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   "https://api.binance.com/api/v3/ticker/24hr",
		client:    &http.Client{Timeout: 8 * time.Second},
		log:       log.With().Str("client", "binance").Logger(),
		cacheRepo: cacheRepo,
	}
}

// Ticker is one symbol's USD price and 24h change.
type Ticker struct {
	Symbol    string  `msgpack:"symbol"`
	PriceUsd  float64 `msgpack:"price_usd"`
	Change24h float64 `msgpack:"change_24h"` // percent
	FetchedAt int64   `msgpack:"fetched_at"`
}

// GetTicker returns the USDT ticker for one crypto symbol (e.g. "BTC"),
// cache-first.
func (c *Client) GetTicker(ctx context.Context, symbol string) (*Ticker, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	cacheKey := "binance:" + symbol

	if c.cacheRepo != nil {
		var cached Ticker
		fresh, err := c.cacheRepo.GetIfFresh(cacheTable, cacheKey, &cached)
		if err == nil && fresh {
			return &cached, nil
		}
	}

	pair := symbol + "USDT"
	url := fmt.Sprintf("%s?symbol=%s", c.baseURL, pair)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if stale, ok := c.getStale(cacheKey); ok {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Binance failed, using stale cached ticker")
			return stale, nil
		}
		return nil, fmt.Errorf("binance request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if stale, ok := c.getStale(cacheKey); ok {
			c.log.Warn().Int("status", resp.StatusCode).Str("symbol", symbol).Msg("Binance error, using stale cached ticker")
			return stale, nil
		}
		return nil, fmt.Errorf("binance returned status %d", resp.StatusCode)
	}

	var raw struct {
		LastPrice          string `json:"lastPrice"`
		PriceChangePercent string `json:"priceChangePercent"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse binance response: %w", err)
	}

	price, err := strconv.ParseFloat(raw.LastPrice, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid binance price %q: %w", raw.LastPrice, err)
	}
	change, _ := strconv.ParseFloat(raw.PriceChangePercent, 64)

	ticker := &Ticker{
		Symbol:    symbol,
		PriceUsd:  price,
		Change24h: change,
		FetchedAt: time.Now().Unix(),
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store(cacheTable, cacheKey, *ticker, cacheTTL); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache ticker")
		}
	}

	return ticker, nil
}

func (c *Client) getStale(cacheKey string) (*Ticker, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}
	var cached Ticker
	found, err := c.cacheRepo.GetStale(cacheTable, cacheKey, &cached)
	if err != nil || !found {
		return nil, false
	}
	return &cached, true
}
