package broker

import "context"

// Position is one open brokerage position. Sourced externally and
// read-only to this core.
type Position struct {
	Ticker        string  `json:"ticker"`
	Quantity      float64 `json:"quantity"`
	AvgEntryPrice float64 `json:"avg_entry_price"`
	CurrentPrice  float64 `json:"current_price"`
	UnrealizedPL  float64 `json:"unrealized_pl"` // currency units
}

// UnrealizedPLPercent returns the unrealized P/L as a signed percentage
// of the entry cost. Zero-cost positions report zero.
func (p Position) UnrealizedPLPercent() float64 {
	cost := p.AvgEntryPrice * p.Quantity
	if cost == 0 {
		return 0
	}
	return 100.0 * p.UnrealizedPL / cost
}

// OrderType distinguishes pending order kinds
type OrderType string

const (
	OrderTypeLimit     OrderType = "LIMIT"
	OrderTypeStop      OrderType = "STOP"
	OrderTypeStopLimit OrderType = "STOP_LIMIT"
)

// PendingOrder is one resting order at the brokerage
type PendingOrder struct {
	Ticker   string    `json:"ticker"`
	Type     OrderType `json:"type"`
	Side     string    `json:"side"` // "buy" or "sell"
	Quantity float64   `json:"quantity"`
	Price    float64   `json:"price"`
}

// IsProtectiveStop reports whether the order would cap downside on an
// existing long position.
func (o PendingOrder) IsProtectiveStop() bool {
	return o.Side == "sell" && (o.Type == OrderTypeStop || o.Type == OrderTypeStopLimit)
}

// Client is the brokerage read boundary. Calls may fail or be
// rate-limited; callers never assume success.
type Client interface {
	GetOpenPositions(ctx context.Context) ([]Position, error)
	GetPendingOrders(ctx context.Context) ([]PendingOrder, error)
}
