// Package valuation computes per-position current value, cost basis and
// profit/loss in both TRY and USD, applying asset-type-specific pricing rules.
package valuation

import "github.com/ozgurkara/portfoy/internal/domain"

// ToTry converts a USD amount to TRY at the given rate.
func ToTry(amountUsd, usdTryRate float64) (float64, error) {
	if usdTryRate <= 0 {
		return 0, domain.ErrRateUnavailable
	}
	return amountUsd * usdTryRate, nil
}

// ToUsd converts a TRY amount to USD at the given rate.
func ToUsd(amountTry, usdTryRate float64) (float64, error) {
	if usdTryRate <= 0 {
		return 0, domain.ErrRateUnavailable
	}
	return amountTry / usdTryRate, nil
}
