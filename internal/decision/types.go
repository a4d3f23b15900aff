package decision

import (
	"time"

	"trading-assistant/internal/analysis"
	"trading-assistant/internal/scoring"
)

// RiskParameters bound what any single decision may commit. Passed
// explicitly to the engine; there is no process-wide default.
type RiskParameters struct {
	MaxPositionSize        float64   `json:"max_position_size"`   // currency units
	MinPositionSize        float64   `json:"min_position_size"`   // sizes below this veto the trade
	MaxDailyRisk           float64   `json:"max_daily_risk"`      // currency units
	DefaultStopLossPercent float64   `json:"default_stop_loss_percent"`
	ProfitTargetPercents   []float64 `json:"profit_target_percents"`
	MaxVolatilityPercent   float64   `json:"max_volatility_percent"`
	MinScore               float64   `json:"min_score"`    // hard floor on the composite score
	MaxWarnings            int       `json:"max_warnings"` // warning count at or above this vetoes
	MinExpectancy          float64   `json:"min_expectancy"`

	// Historical performance, when available, enables the expectancy gate
	// and Kelly sizing. WinRate is a fraction in [0,1].
	HasHistory bool    `json:"has_history"`
	WinRate    float64 `json:"win_rate"`
	AvgWin     float64 `json:"avg_win"`
	AvgLoss    float64 `json:"avg_loss"` // positive magnitude
}

// DefaultRiskParameters returns conservative retail-account defaults
func DefaultRiskParameters() RiskParameters {
	return RiskParameters{
		MaxPositionSize:        1000.0,
		MinPositionSize:        100.0,
		MaxDailyRisk:           200.0,
		DefaultStopLossPercent: 5.0,
		ProfitTargetPercents:   []float64{3.0, 8.0, 15.0},
		MaxVolatilityPercent:   8.0,
		MinScore:               60.0,
		MaxWarnings:            4,
		MinExpectancy:          5.0,
	}
}

// TradeDecision is the engine's verdict for one symbol at one moment.
// It is fully populated on every path, including rejections.
type TradeDecision struct {
	ID             string                      `json:"id"`
	Symbol         string                      `json:"symbol"`
	Timestamp      time.Time                   `json:"timestamp"`
	ShouldTrade    bool                        `json:"should_trade"`
	Confidence     scoring.Confidence          `json:"confidence"`
	CompositeScore float64                     `json:"composite_score"`
	EarlyBreakout  bool                        `json:"early_breakout"`
	PositionSize   float64                     `json:"position_size"`
	StopLoss       float64                     `json:"stop_loss"`
	ProfitTargets  []float64                   `json:"profit_targets"`
	RiskReward     float64                     `json:"risk_reward"`
	Warnings       []string                    `json:"warnings"`
	Rationale      []string                    `json:"rationale"`
	Technical      analysis.TechnicalAnalysis  `json:"technical"`
	News           analysis.NewsAnalysis       `json:"news"`
	Volatility     analysis.VolatilityAnalysis `json:"volatility"`
}
