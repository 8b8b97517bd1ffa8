package insights

import (
	"fmt"
	"math"
)

// AssetInsight classifies a single holding into one message.
type AssetInsight struct {
	Type    RecommendationType `json:"type"`
	Icon    string             `json:"icon"`
	Title   string             `json:"title"`
	Message string             `json:"message"`
}

// GenerateAssetInsight maps one holding to a single message by profit-percent
// band. Bands are mutually exclusive and evaluated in priority order; the
// first match wins. Volatility (>5% absolute daily move) overrides only when
// neither profit nor loss is notably extreme.
func GenerateAssetInsight(currentPrice, averageCost, change24h, amount float64) AssetInsight {
	profitPct := 0.0
	if averageCost > 0 {
		profitPct = (currentPrice - averageCost) / averageCost * 100
	}

	switch {
	case profitPct > 50:
		return AssetInsight{
			Type:    TypeSuccess,
			Icon:    "rocket",
			Title:   "Strong profit",
			Message: fmt.Sprintf("This position is up %.1f%%. Consider taking some profit.", profitPct),
		}
	case profitPct >= 20:
		return AssetInsight{
			Type:    TypeSuccess,
			Icon:    "trending-up",
			Title:   "In profit",
			Message: fmt.Sprintf("This position is up %.1f%%.", profitPct),
		}
	case profitPct < -25:
		return AssetInsight{
			Type:    TypeWarning,
			Icon:    "alert-octagon",
			Title:   "Heavy loss",
			Message: fmt.Sprintf("This position is down %.1f%%. Review your thesis.", -profitPct),
		}
	case profitPct < -10:
		return AssetInsight{
			Type:    TypeWarning,
			Icon:    "alert-triangle",
			Title:   "Moderate loss",
			Message: fmt.Sprintf("This position is down %.1f%%.", -profitPct),
		}
	case math.Abs(change24h) > 5:
		return AssetInsight{
			Type:    TypeInfo,
			Icon:    "activity",
			Title:   "High volatility",
			Message: fmt.Sprintf("This asset moved %.1f%% in the last 24 hours.", change24h),
		}
	case profitPct >= 0:
		return AssetInsight{
			Type:    TypeInfo,
			Icon:    "minus",
			Title:   "Balanced",
			Message: fmt.Sprintf("This position is roughly flat (%.1f%%).", profitPct),
		}
	default:
		return AssetInsight{
			Type:    TypeInfo,
			Icon:    "trending-down",
			Title:   "Mild loss",
			Message: fmt.Sprintf("This position is down %.1f%%, within normal fluctuation.", -profitPct),
		}
	}
}
