package flow

import "time"

// TradeTick is one trade print for a subscribed symbol
type TradeTick struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"` // shares
	Value     float64   `json:"value"`  // currency value of the print
	IsBuy     bool      `json:"is_buy"` // up-tick or at-ask
	Timestamp time.Time `json:"timestamp"`
}

// StreamSnapshot is the derived view of one symbol's trailing window.
// Recomputed on every tick; owned exclusively by the detector.
type StreamSnapshot struct {
	Symbol             string    `json:"symbol"`
	WindowStart        time.Time `json:"window_start"`
	TradeCount         int       `json:"trade_count"`
	TotalVolume        float64   `json:"total_volume"`
	High               float64   `json:"high"`
	Low                float64   `json:"low"`
	FirstPrice         float64   `json:"first_price"`
	LastPrice          float64   `json:"last_price"`
	PriceChangePercent float64   `json:"price_change_percent"`
	VolumeRatio        float64   `json:"volume_ratio"` // window volume vs historical average
	BuyPressure        float64   `json:"buy_pressure"` // up-tick fraction of the last 10 trades
	LargeTradeCount    int       `json:"large_trade_count"`
	LargeTradeValue    float64   `json:"large_trade_value"`
	Accelerating       bool      `json:"accelerating"`
}

// AlertLevel grades an unusual-activity alert
type AlertLevel string

const (
	LevelNotable AlertLevel = "notable"
	LevelStrong  AlertLevel = "strong"
	LevelExtreme AlertLevel = "extreme"
)

// UnusualActivity is emitted once a symbol's unusual score crosses the
// minimum, deduplicated per symbol and cooldown window.
type UnusualActivity struct {
	Symbol             string     `json:"symbol"`
	Score              int        `json:"score"`
	Level              AlertLevel `json:"level"`
	VolumeRatio        float64    `json:"volume_ratio"`
	PriceChangePercent float64    `json:"price_change_percent"`
	LargeTradeCount    int        `json:"large_trade_count"`
	BuyPressure        float64    `json:"buy_pressure"`
	Accelerating       bool       `json:"accelerating"`
	Reasons            []string   `json:"reasons"`
	Timestamp          time.Time  `json:"timestamp"`
}
