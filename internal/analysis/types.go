package analysis

// ChartBias summarizes the technical signal balance
type ChartBias string

const (
	BiasBullish ChartBias = "bullish"
	BiasBearish ChartBias = "bearish"
	BiasNeutral ChartBias = "neutral"
)

// TechnicalAnalysis is the chart sub-analysis result
type TechnicalAnalysis struct {
	Symbol           string    `json:"symbol"`
	RSI              float64   `json:"rsi"`
	MACD             float64   `json:"macd"`
	MACDSignal       float64   `json:"macd_signal"`
	SMA20            float64   `json:"sma20"`
	SMA50            float64   `json:"sma50"`
	SMA200           float64   `json:"sma200"`
	High52Week       float64   `json:"high_52_week"`
	HighProximity    float64   `json:"high_proximity"` // 100 * price / 52-week high
	BullishSignals   int       `json:"bullish_signals"`
	BearishSignals   int       `json:"bearish_signals"`
	Bias             ChartBias `json:"bias"`
	SupportLevel     float64   `json:"support_level"`
	ResistanceLevels []float64 `json:"resistance_levels"`
	IsFallback       bool      `json:"is_fallback"`
}

// CatalystType classifies the dominant news driver
type CatalystType string

const (
	CatalystEarnings CatalystType = "earnings"
	CatalystFDA      CatalystType = "fda"
	CatalystMerger   CatalystType = "merger"
	CatalystAnalyst  CatalystType = "analyst"
	CatalystGeneral  CatalystType = "general"
	CatalystNone     CatalystType = "none"
)

// NewsAnalysis is the news-sentiment sub-analysis result
type NewsAnalysis struct {
	Symbol       string       `json:"symbol"`
	ArticleCount int          `json:"article_count"` // articles within the freshness window
	Sentiment    float64      `json:"sentiment"`     // summed per-article clamped scores
	Catalyst     CatalystType `json:"catalyst"`
	Freshness    string       `json:"freshness"` // "fresh", "recent", "stale"
	Impact       string       `json:"impact"`    // "high", "medium", "low"
	IsFallback   bool         `json:"is_fallback"`
}

// VolatilityAnalysis is the volatility sub-analysis result
type VolatilityAnalysis struct {
	Symbol     string  `json:"symbol"`
	ATRPercent float64 `json:"atr_percent"` // ATR as % of last close
	SampleDays int     `json:"sample_days"`
	IsFallback bool    `json:"is_fallback"`
}

// Result bundles the three sub-analyses. Warnings records which of them
// fell back to conservative defaults.
type Result struct {
	Technical  TechnicalAnalysis  `json:"technical"`
	News       NewsAnalysis       `json:"news"`
	Volatility VolatilityAnalysis `json:"volatility"`
	Warnings   []string           `json:"warnings"`
}
