package scoring

// TechnicalData is the optional technical block of a snapshot. A nil block
// degrades the score instead of failing the evaluation.
type TechnicalData struct {
	SMA20  float64 `json:"sma20"`
	SMA50  float64 `json:"sma50"`
	SMA200 float64 `json:"sma200"`
	// HighProximity is how much of the recent (52-week) high the current
	// price has reached, as a percentage: 100 * price / high.
	HighProximity float64 `json:"high_proximity"`
	RSI           float64 `json:"rsi"`
}

// StockSnapshot is the normalized market snapshot a scorer evaluates.
// Produced by the market-data layer; immutable once built.
type StockSnapshot struct {
	Symbol         string         `json:"symbol"`
	Price          float64        `json:"price"`
	Volume         float64        `json:"volume"`
	RelativeVolume float64        `json:"relative_volume"` // current / average volume
	ChangePercent  float64        `json:"change_percent"`  // signed daily % change
	Technicals     *TechnicalData `json:"technicals,omitempty"`
}

// Confidence represents the confidence tier of a score or decision
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// CriteriaBreakdown tracks which scored dimensions passed
type CriteriaBreakdown struct {
	PriceCeiling    bool `json:"price_ceiling"`
	VolumeFloor     bool `json:"volume_floor"`
	RelativeVolume  bool `json:"relative_volume"`
	HighProximity   bool `json:"high_proximity"`
	TrendAlignment  bool `json:"trend_alignment"`
	RecentMovement  bool `json:"recent_movement"`
}

// ScoreResult is the outcome of one scoring pass. Created fresh per
// evaluation and never mutated after return.
type ScoreResult struct {
	Symbol          string            `json:"symbol"`
	Score           int               `json:"score"`
	MaxScore        int               `json:"max_score"`
	IsEarlyBreakout bool              `json:"is_early_breakout"`
	IsGoodSetup     bool              `json:"is_good_setup"`
	Confidence      Confidence        `json:"confidence"`
	Warnings        []string          `json:"warnings"`
	Rationale       []string          `json:"rationale"`
	Criteria        CriteriaBreakdown `json:"criteria"`
}

// DimensionWeights holds the point weight of each scored dimension.
// The divergent point scales of the presets (13-point classic vs 16-point
// early detection) are expressed here instead of in separate scorer copies.
type DimensionWeights struct {
	PriceCeiling     int `json:"price_ceiling"`
	VolumeFloor      int `json:"volume_floor"`
	RelativeVolume   int `json:"relative_volume"`
	ProximityFull    int `json:"proximity_full"`
	ProximityPartial int `json:"proximity_partial"`
	AboveShortSMAs   int `json:"above_short_smas"`
	AboveLongSMA     int `json:"above_long_sma"`
	PerfectAlignment int `json:"perfect_alignment"`
	RecentMovement   int `json:"recent_movement"`
}

// ThresholdConfig is a named, immutable scoring parameter set. Exactly one
// config is active per evaluation call; it is always passed explicitly.
type ThresholdConfig struct {
	Name string `json:"name"`

	MaxPrice          float64 `json:"max_price"`           // price ceiling
	MinVolume         float64 `json:"min_volume"`          // share volume floor
	MinRelativeVolume float64 `json:"min_relative_volume"` // current/average floor

	// Proximity band, in percent of the recent high already reached.
	// Below the band the setup is dormant; above it the move already ran.
	MinHighProximity float64 `json:"min_high_proximity"`
	MaxHighProximity float64 `json:"max_high_proximity"`

	// Movement band, in signed percent change. MinChange may be negative:
	// a small pullback counts the same as a small gain.
	MinChange float64 `json:"min_change"`
	MaxChange float64 `json:"max_change"`

	EarlyBreakoutThreshold int `json:"early_breakout_threshold"`
	GoodSetupThreshold     int `json:"good_setup_threshold"`

	Weights DimensionWeights `json:"weights"`
}

// MaxScore returns the maximum attainable score under this config.
func (c ThresholdConfig) MaxScore() int {
	w := c.Weights
	return w.PriceCeiling + w.VolumeFloor + w.RelativeVolume +
		w.ProximityFull + w.AboveShortSMAs + w.AboveLongSMA +
		w.PerfectAlignment + w.RecentMovement
}
