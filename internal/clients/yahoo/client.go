// Package yahoo fetches delayed quotes from the Yahoo Finance v8 chart API.
// Used for equities, forex pairs and commodity futures.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ozgurkara/portfoy/internal/clientdata"
)

const cacheTable = "quotes"
const cacheTTL = 60 * time.Second

// Client for the Yahoo Finance v8 chart endpoint.
type Client struct {
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewClient creates a new Yahoo Finance client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   "https://query2.finance.yahoo.com/v8/finance/chart",
		client:    &http.Client{Timeout: 8 * time.Second},
		log:       log.With().Str("client", "yahoo").Logger(),
		cacheRepo: cacheRepo,
	}
}

// ChartQuote is the latest price of one Yahoo symbol in its own currency.
type ChartQuote struct {
	Symbol        string  `msgpack:"symbol"`
	Price         float64 `msgpack:"price"`
	Currency      string  `msgpack:"currency"`
	PreviousClose float64 `msgpack:"previous_close"`
	FetchedAt     int64   `msgpack:"fetched_at"`
}

// Change24h derives the daily percent change from the previous close.
func (q ChartQuote) Change24h() float64 {
	if q.PreviousClose <= 0 {
		return 0
	}
	return (q.Price - q.PreviousClose) / q.PreviousClose * 100
}

// GetQuote returns the latest price for a Yahoo symbol (e.g. "THYAO.IS",
// "EURTRY=X", "GC=F"), cache-first.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*ChartQuote, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	cacheKey := "yahoo:" + strings.ToUpper(symbol)

	if c.cacheRepo != nil {
		var cached ChartQuote
		fresh, err := c.cacheRepo.GetIfFresh(cacheTable, cacheKey, &cached)
		if err == nil && fresh {
			return &cached, nil
		}
	}

	url := fmt.Sprintf("%s/%s?interval=1d&range=2d", c.baseURL, symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "portfoy/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		if stale, ok := c.getStale(cacheKey); ok {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Yahoo failed, using stale cached quote")
			return stale, nil
		}
		return nil, fmt.Errorf("yahoo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if stale, ok := c.getStale(cacheKey); ok {
			c.log.Warn().Int("status", resp.StatusCode).Str("symbol", symbol).Msg("Yahoo error, using stale cached quote")
			return stale, nil
		}
		return nil, fmt.Errorf("yahoo returned status %d", resp.StatusCode)
	}

	var raw struct {
		Chart struct {
			Result []struct {
				Meta struct {
					RegularMarketPrice float64 `json:"regularMarketPrice"`
					ChartPreviousClose float64 `json:"chartPreviousClose"`
					Currency           string  `json:"currency"`
				} `json:"meta"`
			} `json:"result"`
		} `json:"chart"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse yahoo response: %w", err)
	}

	if len(raw.Chart.Result) == 0 || raw.Chart.Result[0].Meta.RegularMarketPrice <= 0 {
		return nil, fmt.Errorf("yahoo: no result for %s", symbol)
	}

	meta := raw.Chart.Result[0].Meta
	quote := &ChartQuote{
		Symbol:        strings.ToUpper(symbol),
		Price:         meta.RegularMarketPrice,
		Currency:      meta.Currency,
		PreviousClose: meta.ChartPreviousClose,
		FetchedAt:     time.Now().Unix(),
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store(cacheTable, cacheKey, *quote, cacheTTL); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache quote")
		}
	}

	return quote, nil
}

func (c *Client) getStale(cacheKey string) (*ChartQuote, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}
	var cached ChartQuote
	found, err := c.cacheRepo.GetStale(cacheTable, cacheKey, &cached)
	if err != nil || !found {
		return nil, false
	}
	return &cached, true
}
