package history

import (
	"github.com/markcheno/go-talib"

	"github.com/ozgurkara/portfoy/internal/domain"
)

// smaPeriod is the smoothing window used for the chart overlay.
const smaPeriod = 7

// TrendPoint pairs a raw series point with its smoothed value.
// Smoothed is 0 for the first smaPeriod-1 points where no average exists yet.
type TrendPoint struct {
	Date     string  `json:"date"`
	ValueTry float64 `json:"valueTry"`
	Smoothed float64 `json:"smoothed"`
}

// Trend overlays a simple moving average on the value series for charting.
func Trend(series []domain.SnapshotPoint) []TrendPoint {
	points := make([]TrendPoint, len(series))
	for i, p := range series {
		points[i] = TrendPoint{Date: p.Date, ValueTry: p.ValueTry}
	}

	if len(series) < smaPeriod {
		return points
	}

	values := make([]float64, len(series))
	for i, p := range series {
		values[i] = p.ValueTry
	}

	smoothed := talib.Sma(values, smaPeriod)
	for i := range points {
		points[i].Smoothed = smoothed[i]
	}

	return points
}
