package alerts

// Direction tells which way a price must cross the threshold to trigger.
type Direction string

const (
	DirectionAbove Direction = "above"
	DirectionBelow Direction = "below"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionAbove || d == DirectionBelow
}

// Alert is a one-shot price alert on an instrument. Once triggered it stays
// in the list with TriggeredAt set until deleted.
type Alert struct {
	ID          string    `json:"id"`
	PortfolioID string    `json:"portfolioId"`
	Symbol      string    `json:"symbol"`
	AssetType   string    `json:"assetType"`
	Direction   Direction `json:"direction"`
	Threshold   float64   `json:"threshold"`
	TriggeredAt *int64    `json:"triggeredAt,omitempty"`
	CreatedAt   int64     `json:"createdAt"`
}

// Active reports whether the alert is still waiting to fire.
func (a Alert) Active() bool {
	return a.TriggeredAt == nil
}
