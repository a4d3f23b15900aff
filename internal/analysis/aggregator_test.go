package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"trading-assistant/internal/marketdata"
)

func newTestAggregator(provider marketdata.Provider) *Aggregator {
	return NewAggregator(provider, DefaultConfig(), nil)
}

func seedHealthySymbol(mock *marketdata.MockClient) {
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
			Body:        "Quarterly revenue came in well above expectations.",
		},
	})
}

func TestAnalyzeAllSucceed(t *testing.T) {
	mock := marketdata.NewMockClient()
	seedHealthySymbol(mock)

	result := newTestAggregator(mock).Analyze(context.Background(), "ACME", 50.0)

	if len(result.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", result.Warnings)
	}
	if result.Technical.Bias != BiasBullish {
		t.Errorf("expected bullish bias, got %s", result.Technical.Bias)
	}
	if result.Technical.SupportLevel <= 0 {
		t.Error("expected a derived support level")
	}
	if len(result.Technical.ResistanceLevels) != 3 {
		t.Fatalf("expected 3 resistance levels, got %d", len(result.Technical.ResistanceLevels))
	}
	// Third resistance is capped at the 52-week high (55 < 50*1.15).
	if result.Technical.ResistanceLevels[2] != 55.0 {
		t.Errorf("expected third resistance capped at 55.0, got %.2f", result.Technical.ResistanceLevels[2])
	}
	if result.News.Sentiment <= 0 {
		t.Errorf("expected positive sentiment, got %.1f", result.News.Sentiment)
	}
	if result.News.Catalyst != CatalystEarnings {
		t.Errorf("expected earnings catalyst, got %s", result.News.Catalyst)
	}
	if result.News.Freshness != "fresh" {
		t.Errorf("expected fresh news, got %s", result.News.Freshness)
	}
	if result.Volatility.IsFallback {
		t.Error("volatility should compute from bars, not fall back")
	}
	if result.Volatility.ATRPercent <= 0 {
		t.Error("expected positive ATR percent")
	}
}

// TestAnalyzeNewsFailure verifies the partial-failure contract: a failing
// news sub-analysis yields a populated default news block and a warning,
// and no error reaches the caller.
func TestAnalyzeNewsFailure(t *testing.T) {
	mock := marketdata.NewMockClient()
	seedHealthySymbol(mock)
	mock.FailWith("news", errors.New("provider timeout"))

	result := newTestAggregator(mock).Analyze(context.Background(), "ACME", 50.0)

	if !result.News.IsFallback {
		t.Error("news block should be the documented fallback")
	}
	if result.News.Sentiment != 0 {
		t.Errorf("fallback sentiment must be zero, got %.1f", result.News.Sentiment)
	}
	if result.News.Catalyst != CatalystNone {
		t.Errorf("fallback catalyst must be none, got %s", result.News.Catalyst)
	}
	if len(result.Warnings) != 1 {
		t.Errorf("expected exactly one warning, got %v", result.Warnings)
	}
	// The other two sub-analyses still succeed.
	if result.Technical.IsFallback || result.Volatility.IsFallback {
		t.Error("unrelated sub-analyses must not fall back")
	}
}

func TestAnalyzeAllFail(t *testing.T) {
	mock := marketdata.NewMockClient()
	mock.FailWith("technicals", errors.New("down"))
	mock.FailWith("bars", errors.New("down"))
	mock.FailWith("news", errors.New("down"))

	aggregator := newTestAggregator(mock)
	result := aggregator.Analyze(context.Background(), "ACME", 50.0)

	if len(result.Warnings) != 3 {
		t.Errorf("expected three warnings, got %v", result.Warnings)
	}
	if result.Technical.RSI != 50.0 {
		t.Errorf("fallback technical RSI must be neutral 50, got %.1f", result.Technical.RSI)
	}
	if result.Technical.Bias != BiasNeutral {
		t.Errorf("fallback bias must be neutral, got %s", result.Technical.Bias)
	}
	if result.Volatility.ATRPercent != aggregator.config.MinVolatilityPercent {
		t.Errorf("fallback volatility must sit at the floor, got %.1f", result.Volatility.ATRPercent)
	}
}

func TestVolatilityFloorOnShortHistory(t *testing.T) {
	mock := marketdata.NewMockClient()
	seedHealthySymbol(mock)
	mock.SetBars("ACME", marketdata.GenerateBars(5, 45.0, 3.0))

	result := newTestAggregator(mock).Analyze(context.Background(), "ACME", 50.0)

	if result.Volatility.ATRPercent != DefaultConfig().MinVolatilityPercent {
		t.Errorf("short history must floor volatility, got %.2f", result.Volatility.ATRPercent)
	}
	// A floored computation is degraded data, not a failed sub-analysis.
	if len(result.Warnings) != 0 {
		t.Errorf("floored volatility is not a warning, got %v", result.Warnings)
	}
}

func TestVolatilityFloorOnBadLastClose(t *testing.T) {
	mock := marketdata.NewMockClient()
	seedHealthySymbol(mock)
	bars := marketdata.GenerateBars(20, 45.0, 3.0)
	bars[len(bars)-1].Close = 0
	mock.SetBars("ACME", bars)

	result, err := newTestAggregator(mock).analyzeVolatility(context.Background(), "ACME")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ATRPercent != DefaultConfig().MinVolatilityPercent {
		t.Errorf("bad last close must floor volatility, got %.2f", result.ATRPercent)
	}
	if result.SampleDays != len(bars) {
		t.Errorf("expected sample days %d on the fallback, got %d", len(bars), result.SampleDays)
	}
}

func TestNewsIgnoresStaleArticles(t *testing.T) {
	mock := marketdata.NewMockClient()
	seedHealthySymbol(mock)
	mock.SetNews("ACME", []marketdata.Article{
		{PublishedAt: time.Now().Add(-48 * time.Hour), Headline: "ACME beats on earnings"},
	})

	result := newTestAggregator(mock).Analyze(context.Background(), "ACME", 50.0)

	if result.News.ArticleCount != 0 {
		t.Errorf("stale articles must not count, got %d", result.News.ArticleCount)
	}
	if result.News.Sentiment != 0 {
		t.Errorf("stale articles must not score, got %.1f", result.News.Sentiment)
	}
}

func TestPerArticleSentimentClamp(t *testing.T) {
	mock := marketdata.NewMockClient()
	seedHealthySymbol(mock)
	mock.SetNews("ACME", []marketdata.Article{
		{
			PublishedAt: time.Now().Add(-time.Hour),
			Headline:    "ACME beats record, surge on breakthrough approval",
			Body:        "Partnership, contract and buyback announced as demand soars.",
		},
	})

	result := newTestAggregator(mock).Analyze(context.Background(), "ACME", 50.0)

	if result.News.Sentiment > perArticleClamp {
		t.Errorf("single article must be clamped to %.1f, got %.1f", perArticleClamp, result.News.Sentiment)
	}
}
