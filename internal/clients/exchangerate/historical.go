package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// historicalBaseURL serves dated reference rates. Historical lookups are rare
// (only sells with an explicit sale date) so they are cached aggressively.
const historicalBaseURL = "https://api.frankfurter.app"

const historicalCacheTTL = 30 * 24 * time.Hour

// GetHistoricalRate returns the fromCurrency->toCurrency rate on a past date.
func (c *Client) GetHistoricalRate(ctx context.Context, fromCurrency, toCurrency string, date time.Time) (float64, error) {
	if fromCurrency == toCurrency {
		return 1.0, nil
	}

	day := date.Format("2006-01-02")
	cacheKey := fmt.Sprintf("%s:%s:%s", fromCurrency, toCurrency, day)

	if c.cacheRepo != nil {
		var cached cachedExchangeRate
		fresh, err := c.cacheRepo.GetIfFresh(cacheTable, cacheKey, &cached)
		if err == nil && fresh {
			return cached.Rate, nil
		}
	}

	url := fmt.Sprintf("%s/%s?from=%s&to=%s", historicalBaseURL, day, fromCurrency, toCurrency)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("historical rate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("historical rate API returned status %d", resp.StatusCode)
	}

	var result struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to parse historical rate response: %w", err)
	}

	rate, exists := result.Rates[toCurrency]
	if !exists {
		return 0, fmt.Errorf("historical rate %s->%s not in response", fromCurrency, toCurrency)
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store(cacheTable, cacheKey, cachedExchangeRate{Rate: rate}, historicalCacheTTL); err != nil {
			c.log.Warn().Err(err).Msg("Failed to cache historical rate")
		}
	}

	return rate, nil
}
