package database

import "time"

// DecisionRecord is the persisted form of a trade decision
type DecisionRecord struct {
	ID             string    `json:"id"`
	Symbol         string    `json:"symbol"`
	ShouldTrade    bool      `json:"should_trade"`
	Confidence     string    `json:"confidence"`
	CompositeScore float64   `json:"composite_score"`
	EarlyBreakout  bool      `json:"early_breakout"`
	PositionSize   float64   `json:"position_size"`
	StopLoss       float64   `json:"stop_loss"`
	ProfitTargets  []float64 `json:"profit_targets"`
	RiskReward     float64   `json:"risk_reward"`
	Warnings       []string  `json:"warnings"`
	Rationale      []string  `json:"rationale"`
	AnalysisJSON   []byte    `json:"-"` // raw sub-analysis snapshot
	CreatedAt      time.Time `json:"created_at"`
}

// AlertRecord is one persisted alert from any monitor
type AlertRecord struct {
	ID        int64     `json:"id"`
	Source    string    `json:"source"` // "position_risk" or "unusual_flow"
	Symbol    string    `json:"symbol"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Payload   []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// TradeOutcome closes the loop on a decision for expectancy stats
type TradeOutcome struct {
	ID           int64     `json:"id"`
	DecisionID   string    `json:"decision_id"`
	Symbol       string    `json:"symbol"`
	EntryPrice   float64   `json:"entry_price"`
	ExitPrice    float64   `json:"exit_price"`
	PositionSize float64   `json:"position_size"`
	PnL          float64   `json:"pnl"`
	ClosedAt     time.Time `json:"closed_at"`
}

// PerformanceStats aggregates closed trades into the numbers the
// expectancy gate and Kelly sizing consume.
type PerformanceStats struct {
	TotalTrades int     `json:"total_trades"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	WinRate     float64 `json:"win_rate"` // fraction in [0,1]
	AvgWin      float64 `json:"avg_win"`
	AvgLoss     float64 `json:"avg_loss"` // positive magnitude
	TotalPnL    float64 `json:"total_pnl"`
}
