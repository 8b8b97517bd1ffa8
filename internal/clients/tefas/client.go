// Package tefas fetches Turkish mutual-fund prices from the TEFAS
// comparison API.
package tefas

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ozgurkara/portfoy/internal/clientdata"
)

const cacheTable = "tefas_funds"
const cacheTTL = 6 * time.Hour

// Client for the TEFAS fund comparison endpoint.
type Client struct {
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewClient creates a new TEFAS client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   "https://www.tefas.gov.tr/api/DB/BindComparisonFundReturns",
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log.With().Str("client", "tefas").Logger(),
		cacheRepo: cacheRepo,
	}
}

// FundPrice is one fund's latest unit price.
type FundPrice struct {
	Code      string  `msgpack:"code"`
	Name      string  `msgpack:"name"`
	Price     float64 `msgpack:"price"`
	Change1d  float64 `msgpack:"change_1d"` // percent
	FetchedAt int64   `msgpack:"fetched_at"`
}

// tefasRow mirrors the relevant fields of the TEFAS response.
type tefasRow struct {
	FonKodu   string  `json:"FONKODU"`
	FonUnvan  string  `json:"FONUNVAN"`
	SonFiyat  float64 `json:"SONFIYAT"`
	GetiriGun float64 `json:"GETIRI1G"`
}

// GetFundPrice returns the latest unit price of one fund, cache-first.
func (c *Client) GetFundPrice(ctx context.Context, code string) (*FundPrice, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, fmt.Errorf("fund code is required")
	}

	if c.cacheRepo != nil {
		var cached FundPrice
		fresh, err := c.cacheRepo.GetIfFresh(cacheTable, code, &cached)
		if err == nil && fresh {
			c.log.Debug().Str("code", code).Float64("price", cached.Price).Msg("Cache hit")
			return &cached, nil
		}
	}

	form := url.Values{}
	form.Set("calismatipi", "2")
	form.Set("fontip", "YAT")
	form.Set("fonkod", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Referer", "https://www.tefas.gov.tr/FonKarsilastirma.aspx")

	resp, err := c.client.Do(req)
	if err != nil {
		if stale, ok := c.getStale(code); ok {
			c.log.Warn().Err(err).Str("code", code).Msg("TEFAS failed, using stale cached price")
			return stale, nil
		}
		return nil, fmt.Errorf("TEFAS request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if stale, ok := c.getStale(code); ok {
			c.log.Warn().Int("status", resp.StatusCode).Str("code", code).Msg("TEFAS error, using stale cached price")
			return stale, nil
		}
		return nil, fmt.Errorf("TEFAS returned status %d", resp.StatusCode)
	}

	var result struct {
		Data []tefasRow `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse TEFAS response: %w", err)
	}

	for _, row := range result.Data {
		if strings.EqualFold(row.FonKodu, code) && row.SonFiyat > 0 {
			price := &FundPrice{
				Code:      code,
				Name:      row.FonUnvan,
				Price:     row.SonFiyat,
				Change1d:  row.GetiriGun,
				FetchedAt: time.Now().Unix(),
			}

			if c.cacheRepo != nil {
				if err := c.cacheRepo.Store(cacheTable, code, *price, cacheTTL); err != nil {
					c.log.Warn().Err(err).Str("code", code).Msg("Failed to cache fund price")
				}
			}

			return price, nil
		}
	}

	return nil, fmt.Errorf("fund %s not in TEFAS response", code)
}

func (c *Client) getStale(code string) (*FundPrice, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}
	var cached FundPrice
	found, err := c.cacheRepo.GetStale(cacheTable, code, &cached)
	if err != nil || !found {
		return nil, false
	}
	return &cached, true
}
