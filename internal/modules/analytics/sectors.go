// Package analytics aggregates per-position valuations into portfolio-level
// statistics: totals, cash ratio, top holding, sector concentration and
// trend figures over the historical value series.
package analytics

import "github.com/ozgurkara/portfoy/internal/domain"

// SectorOther is the fallback bucket for unclassified symbols.
const SectorOther = "Other"

// symbolSectors is the static symbol-to-sector classification table for
// Borsa Istanbul symbols the app commonly sees. Unlisted symbols fall back to
// a type-level sector or Other.
var symbolSectors = map[string]string{
	// Banks
	"AKBNK": "Banking",
	"GARAN": "Banking",
	"ISCTR": "Banking",
	"YKBNK": "Banking",
	"HALKB": "Banking",
	"VAKBN": "Banking",
	// Airlines
	"THYAO": "Aviation",
	"PGSUS": "Aviation",
	// Holdings
	"KCHOL": "Holding",
	"SAHOL": "Holding",
	"DOHOL": "Holding",
	"AGHOL": "Holding",
	// Industry & energy
	"EREGL": "Iron & Steel",
	"KRDMD": "Iron & Steel",
	"TUPRS": "Energy",
	"ASELS": "Defense",
	"SISE":  "Industry",
	"ARCLK": "Industry",
	// Telecom & retail
	"TCELL": "Telecom",
	"TTKOM": "Telecom",
	"BIMAS": "Retail",
	"MGROS": "Retail",
}

// typeSectors buckets non-stock asset types.
var typeSectors = map[domain.AssetType]string{
	domain.AssetCrypto: "Crypto",
	domain.AssetGold:   "Gold",
	domain.AssetMetal:  "Precious Metals",
	domain.AssetFund:   "Funds",
	domain.AssetBES:    "Pension",
	domain.AssetForex:  "Forex",
}

// SectorOf classifies one position.
func SectorOf(symbol string, assetType domain.AssetType) string {
	if sector, ok := typeSectors[assetType]; ok {
		return sector
	}
	if sector, ok := symbolSectors[symbol]; ok {
		return sector
	}
	return SectorOther
}
