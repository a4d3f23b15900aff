package decision

import (
	"context"
	"errors"
	"testing"
	"time"

	"trading-assistant/internal/analysis"
	"trading-assistant/internal/marketdata"
	"trading-assistant/internal/scoring"
)

func seedBullishSymbol(mock *marketdata.MockClient) {
	mock.SetTechnicals("ACME", marketdata.Technicals{
		SMA20:      48.0,
		SMA50:      45.0,
		SMA200:     40.0,
		RSI:        60.0,
		MACD:       0.8,
		MACDSignal: 0.5,
		High52Week: 55.0,
	})
	mock.SetBars("ACME", marketdata.GenerateBars(40, 45.0, 3.0))
	mock.SetNews("ACME", []marketdata.Article{
		{
			PublishedAt: time.Now().Add(-2 * time.Hour),
			Headline:    "ACME beats earnings estimates, raises guidance",
		},
	})
}

func bullishSnapshot() scoring.StockSnapshot {
	return scoring.StockSnapshot{
		Symbol:         "ACME",
		Price:          50.0,
		Volume:         2_000_000,
		RelativeVolume: 3.0,
		ChangePercent:  3.0,
	}
}

func newTestEngine(mock *marketdata.MockClient, params RiskParameters) *Engine {
	aggregator := analysis.NewAggregator(mock, analysis.DefaultConfig(), nil)
	return NewEngine(aggregator, scoring.EarlyDetection(), params, nil)
}

func TestValidateTradeApproves(t *testing.T) {
	mock := marketdata.NewMockClient()
	seedBullishSymbol(mock)
	engine := newTestEngine(mock, DefaultRiskParameters())

	d, err := engine.ValidateTrade(context.Background(), bullishSnapshot(), 82.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !d.ShouldTrade {
		t.Fatalf("expected approval, got warnings %v rationale %v", d.Warnings, d.Rationale)
	}
	if d.Confidence != scoring.ConfidenceHigh {
		t.Errorf("expected HIGH confidence, got %s", d.Confidence)
	}
	if !d.EarlyBreakout {
		t.Error("bullish setup inside the proximity band should rescore as an early breakout")
	}
	if d.PositionSize < 100 || d.PositionSize > 1000 {
		t.Errorf("position size %.0f outside [100, 1000]", d.PositionSize)
	}
	if d.StopLoss <= 0 || d.StopLoss >= 50.0 {
		t.Errorf("stop %.2f must sit below entry", d.StopLoss)
	}
	if len(d.ProfitTargets) != 3 {
		t.Fatalf("expected 3 profit targets, got %d", len(d.ProfitTargets))
	}
	for i := 1; i < len(d.ProfitTargets); i++ {
		if d.ProfitTargets[i] <= d.ProfitTargets[i-1] {
			t.Errorf("targets not ascending: %v", d.ProfitTargets)
		}
	}
	if d.RiskReward <= 0 {
		t.Errorf("expected positive risk/reward, got %.2f", d.RiskReward)
	}
	if d.ID == "" {
		t.Error("decision must carry an id")
	}
}

func TestValidateTradeScoreFloor(t *testing.T) {
	engine := newTestEngine(marketdata.NewMockClient(), DefaultRiskParameters())

	d, err := engine.ValidateTrade(context.Background(), bullishSnapshot(), 50.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.ShouldTrade {
		t.Error("score below the floor must reject")
	}
	if d.Confidence != scoring.ConfidenceLow {
		t.Errorf("floor rejection must be LOW confidence, got %s", d.Confidence)
	}
	if len(d.Warnings) != 1 {
		t.Errorf("expected one floor warning, got %v", d.Warnings)
	}
}

// TestValidateTradeSizeVeto exercises the sizing veto: when the computed
// position size lands below the minimum, the trade is refused no matter
// how strong the score and confidence are.
func TestValidateTradeSizeVeto(t *testing.T) {
	mock := marketdata.NewMockClient()
	seedBullishSymbol(mock)
	params := DefaultRiskParameters()
	params.MaxPositionSize = 120.0

	engine := newTestEngine(mock, params)
	d, err := engine.ValidateTrade(context.Background(), bullishSnapshot(), 90.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.PositionSize >= params.MinPositionSize {
		t.Fatalf("test setup broken, size %.0f not below minimum", d.PositionSize)
	}
	if d.ShouldTrade {
		t.Error("size below minimum must veto")
	}
}

// TestValidateTradeNewsFailure checks that a failing news sub-analysis
// still yields a complete decision with a default news block and a
// warning, and never surfaces as an error.
func TestValidateTradeNewsFailure(t *testing.T) {
	mock := marketdata.NewMockClient()
	seedBullishSymbol(mock)
	mock.FailWith("news", errors.New("provider timeout"))

	engine := newTestEngine(mock, DefaultRiskParameters())
	d, err := engine.ValidateTrade(context.Background(), bullishSnapshot(), 82.0)
	if err != nil {
		t.Fatalf("sub-analysis failure must not become an error: %v", err)
	}

	if !d.News.IsFallback {
		t.Error("news block should be the documented fallback")
	}
	if d.News.Catalyst != analysis.CatalystNone {
		t.Errorf("fallback catalyst must be none, got %s", d.News.Catalyst)
	}
	if len(d.Warnings) == 0 {
		t.Error("news fallback must add a warning")
	}
}

func TestValidateTradeWarningCap(t *testing.T) {
	mock := marketdata.NewMockClient()
	mock.FailWith("technicals", errors.New("down"))
	mock.FailWith("bars", errors.New("down"))
	mock.FailWith("news", errors.New("down"))

	params := DefaultRiskParameters()
	params.HasHistory = true
	params.WinRate = 0.3
	params.AvgWin = 50
	params.AvgLoss = 50

	engine := newTestEngine(mock, params)
	d, err := engine.ValidateTrade(context.Background(), bullishSnapshot(), 95.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Three fallback warnings plus the expectancy warning reach the cap.
	if len(d.Warnings) < params.MaxWarnings {
		t.Fatalf("test setup broken, only %d warnings", len(d.Warnings))
	}
	if d.ShouldTrade {
		t.Error("warning count at the cap must veto")
	}
}

func TestValidateTradeBadInput(t *testing.T) {
	engine := newTestEngine(marketdata.NewMockClient(), DefaultRiskParameters())

	if _, err := engine.ValidateTrade(context.Background(), scoring.StockSnapshot{Price: 10}, 80); !errors.Is(err, scoring.ErrNoSymbol) {
		t.Errorf("expected ErrNoSymbol, got %v", err)
	}
	snap := bullishSnapshot()
	snap.Price = 0
	if _, err := engine.ValidateTrade(context.Background(), snap, 80); !errors.Is(err, scoring.ErrInvalidPrice) {
		t.Errorf("expected ErrInvalidPrice, got %v", err)
	}
}

func TestCalculateExpectedValue(t *testing.T) {
	if got := CalculateExpectedValue(0.6, 100, 50); got != 40.0 {
		t.Errorf("expected 40, got %.2f", got)
	}
	if got := CalculateExpectedValue(0.5, 50, 50); got != 0.0 {
		t.Errorf("expected 0, got %.2f", got)
	}
}

func TestCalculateKellySize(t *testing.T) {
	params := DefaultRiskParameters()
	params.WinRate = 0.6
	params.AvgWin = 100
	params.AvgLoss = 50
	// expectancy 40, kelly 0.4, quarter kelly on 1000 is 100
	if got := CalculateKellySize(params); got != 100.0 {
		t.Errorf("expected 100, got %.2f", got)
	}

	params.WinRate = 0.3
	params.AvgLoss = 50
	params.AvgWin = 50
	if got := CalculateKellySize(params); got != 0.0 {
		t.Errorf("non-positive expectancy must size 0, got %.2f", got)
	}

	params.AvgWin = 0
	if got := CalculateKellySize(params); got != 0.0 {
		t.Errorf("zero average win must size 0, got %.2f", got)
	}
}
