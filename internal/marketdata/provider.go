package marketdata

import (
	"context"
	"time"
)

// Quote is a point-in-time market snapshot for one symbol
type Quote struct {
	Symbol         string  `json:"symbol"`
	Price          float64 `json:"price"`
	Volume         float64 `json:"volume"`
	AverageVolume  float64 `json:"average_volume"`
	RelativeVolume float64 `json:"relative_volume"`
	ChangePercent  float64 `json:"change_percent"`
	Timestamp      int64   `json:"timestamp"`
}

// Bar is one daily OHLCV bar
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Technicals holds indicator values computed by the vendor
type Technicals struct {
	SMA20      float64 `json:"sma20"`
	SMA50      float64 `json:"sma50"`
	SMA200     float64 `json:"sma200"`
	RSI        float64 `json:"rsi"`
	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macd_signal"`
	High52Week float64 `json:"high_52_week"`
	Low52Week  float64 `json:"low_52_week"`
}

// Article is a news item for a symbol. Sentiment is vendor-supplied and
// optional; nil means the vendor did not score the article.
type Article struct {
	PublishedAt time.Time `json:"published_at"`
	Headline    string    `json:"headline"`
	Body        string    `json:"body"`
	Sentiment   *float64  `json:"sentiment,omitempty"`
}

// Provider is the market-data boundary. Implementations are rate-limited
// and occasionally failing; callers never assume a call succeeds.
type Provider interface {
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
	GetHistoricalBars(ctx context.Context, symbol string, days int) ([]Bar, error)
	GetTechnicals(ctx context.Context, symbol string) (*Technicals, error)
	GetNews(ctx context.Context, symbol string, limit int) ([]Article, error)
}
