package domain

import (
	"context"
	"time"
)

// MarketDataProvider is the external price-fetching collaborator.
// Implementations must tolerate partial failure: symbols with no quote are
// simply absent from the returned map, the batch itself does not fail.
type MarketDataProvider interface {
	FetchQuotes(ctx context.Context, refs []InstrumentRef) (map[string]Quote, error)
	FetchHistoricalRate(ctx context.Context, date time.Time) (float64, error)
}

// RateSource supplies the current USD/TRY reference rate.
type RateSource interface {
	UsdTryRate() (float64, error)
}

// Notifier delivers user-facing alert messages.
// Push delivery is out of scope; implementations may simply log.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// SeriesStore is the historical series collaborator: one total-value point per
// portfolio per day.
type SeriesStore interface {
	AppendDailySnapshot(portfolioID string, date string, valueTry float64) error
	ReadSeries(portfolioID string) ([]SnapshotPoint, error)
}
