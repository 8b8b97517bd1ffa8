// Package domain contains the core types shared across modules.
// It has no infrastructure dependencies.
package domain

import "time"

// Currency is the denomination of a cost basis or price.
type Currency string

const (
	TRY Currency = "TRY"
	USD Currency = "USD"
)

// Valid reports whether c is a known currency.
func (c Currency) Valid() bool {
	return c == TRY || c == USD
}

// AssetType is the closed set of supported asset classes.
// It determines the pricing rule and sector classification of a holding.
type AssetType string

const (
	AssetStock  AssetType = "stock"
	AssetCrypto AssetType = "crypto"
	AssetGold   AssetType = "gold"
	AssetMetal  AssetType = "metal"
	AssetFund   AssetType = "fund"
	AssetBES    AssetType = "bes"
	AssetForex  AssetType = "forex"
	AssetCustom AssetType = "custom"
)

// AllAssetTypes lists every supported asset type.
var AllAssetTypes = []AssetType{
	AssetStock, AssetCrypto, AssetGold, AssetMetal,
	AssetFund, AssetBES, AssetForex, AssetCustom,
}

// Valid reports whether t is a known asset type.
func (t AssetType) Valid() bool {
	for _, known := range AllAssetTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Holding is an open position in one instrument.
//
// Amount * AvgCost approximates the total cost basis in Currency, except for
// BES holdings where the cost basis is BesPrincipal.
type Holding struct {
	ID          string    `json:"id"`
	PortfolioID string    `json:"portfolioId"`
	Symbol      string    `json:"symbol"`
	Name        string    `json:"name,omitempty"`
	Type        AssetType `json:"type"`
	Amount      float64   `json:"amount"`
	AvgCost     float64   `json:"avgCost"`
	Currency    Currency  `json:"currency"`

	// Snapshots of the total cost in the other currency, taken at acquisition
	// time. They preserve the historical FX exposure instead of re-deriving it
	// from the current rate.
	OriginalCostTry *float64 `json:"originalCostTry,omitempty"`
	OriginalCostUsd *float64 `json:"originalCostUsd,omitempty"`

	// BES pension accounts are valued as principal + yield, not amount * price.
	BesPrincipal float64 `json:"besPrincipal,omitempty"`
	BesYield     float64 `json:"besYield,omitempty"`

	// CustomPrice is a manual price override for user-defined assets that have
	// no market feed. Denominated in Currency.
	CustomPrice *float64 `json:"customPrice,omitempty"`

	DateAdded   int64 `json:"dateAdded"`   // Unix seconds
	LastUpdated int64 `json:"lastUpdated"` // Unix seconds
}

// CostBasis returns the holding's total cost in its own currency.
func (h Holding) CostBasis() float64 {
	if h.Type == AssetBES {
		return h.BesPrincipal
	}
	return h.Amount * h.AvgCost
}

// RealizedTrade is an immutable record of a completed sale.
// ProfitTry is computed once at sale time and never recomputed.
type RealizedTrade struct {
	ID          string    `json:"id"`
	PortfolioID string    `json:"portfolioId"`
	Symbol      string    `json:"symbol"`
	Type        AssetType `json:"type"`
	Currency    Currency  `json:"currency"`
	Amount      float64   `json:"amount"`
	BuyPrice    float64   `json:"buyPrice"`
	SellPrice   float64   `json:"sellPrice"`
	ProfitTry   float64   `json:"profitTry"`
	SoldAt      int64     `json:"soldAt"` // Unix seconds
}

// Quote is an ephemeral current-price snapshot from a market-data provider.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Currency  Currency  `json:"currency"`
	Change24h float64   `json:"change24h"` // percent
	UpdatedAt time.Time `json:"updatedAt"`
}

// Portfolio is a named set of holdings, realized trades and a cash balance.
type Portfolio struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	CashBalance float64 `json:"cashBalance"`
	CreatedAt   int64   `json:"createdAt"` // Unix seconds
}

// PositionValuation is the result of valuing one holding against a quote map.
// When PriceKnown is false, value and profit fields for the current price are
// meaningless and callers must render a pending state rather than zeros.
type PositionValuation struct {
	HoldingID string    `json:"holdingId"`
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name,omitempty"`
	Type      AssetType `json:"type"`
	Amount    float64   `json:"amount"`
	Currency  Currency  `json:"currency"`

	PriceKnown bool    `json:"priceKnown"`
	PriceTry   float64 `json:"priceTry"`
	PriceUsd   float64 `json:"priceUsd"`
	Change24h  float64 `json:"change24h"`

	ValueTry float64 `json:"valueTry"`
	ValueUsd float64 `json:"valueUsd"`
	CostTry  float64 `json:"costTry"`
	CostUsd  float64 `json:"costUsd"`

	ProfitTry    float64 `json:"profitTry"`
	ProfitUsd    float64 `json:"profitUsd"`
	ProfitPctTry float64 `json:"profitPctTry"`
	ProfitPctUsd float64 `json:"profitPctUsd"`
}

// SnapshotPoint is one day of the total portfolio value series.
type SnapshotPoint struct {
	Date     string  `json:"date"` // YYYY-MM-DD
	ValueTry float64 `json:"valueTry"`
}

// InstrumentRef identifies an instrument for a price lookup.
type InstrumentRef struct {
	Symbol string
	Type   AssetType
}
