package domain

import "errors"

// Sentinel errors for the mutation and valuation paths.
// Ledger mutations return these synchronously and never partially mutate state.
var (
	// ErrInsufficientQuantity - sell amount exceeds the held amount.
	ErrInsufficientQuantity = errors.New("cannot sell more than you own")

	// ErrCurrencyMismatch - merge attempted across incompatible currencies or
	// asset types. Merging is a hard error rather than a guessed conversion.
	ErrCurrencyMismatch = errors.New("holding exists with a different currency or type")

	// ErrPriceUnavailable - no quote for a symbol; valuation reports an
	// explicit unknown state, never a silent zero.
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrInvalidImportShape - import payload failed structural validation.
	// Imports are rejected wholesale, never partially applied.
	ErrInvalidImportShape = errors.New("invalid import payload shape")

	// ErrHoldingNotFound - no holding with the given id.
	ErrHoldingNotFound = errors.New("holding not found")

	// ErrPortfolioNotFound - no portfolio with the given id.
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrInvalidAmount - a quantity or price failed non-negativity checks.
	ErrInvalidAmount = errors.New("amount and price must be non-negative")

	// ErrRateUnavailable - no usable exchange rate (rate <= 0).
	ErrRateUnavailable = errors.New("exchange rate unavailable")
)
