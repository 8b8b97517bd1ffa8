package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateAssetInsightBands(t *testing.T) {
	tests := []struct {
		name      string
		price     float64
		avgCost   float64
		change24h float64
		wantTitle string
	}{
		{"strong profit above 50", 160, 100, 0, "Strong profit"},
		{"profit at 20", 120, 100, 0, "In profit"},
		{"heavy loss below -25", 70, 100, 0, "Heavy loss"},
		{"moderate loss below -10", 85, 100, 0, "Moderate loss"},
		{"volatility overrides flat", 102, 100, 6, "High volatility"},
		{"volatility does not override heavy loss", 70, 100, 8, "Heavy loss"},
		{"balanced when flat", 101, 100, 1, "Balanced"},
		{"mild loss", 95, 100, 0, "Mild loss"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			insight := GenerateAssetInsight(tt.price, tt.avgCost, tt.change24h, 1)
			assert.Equal(t, tt.wantTitle, insight.Title)
		})
	}
}

func TestGenerateAssetInsightZeroCost(t *testing.T) {
	insight := GenerateAssetInsight(100, 0, 0, 1)
	assert.Equal(t, "Balanced", insight.Title)
}
