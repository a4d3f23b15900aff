package analysis

import (
	"context"
	"fmt"
	"sync"

	"trading-assistant/internal/logging"
	"trading-assistant/internal/marketdata"
)

// Config holds aggregator tuning parameters
type Config struct {
	ATRPeriod            int     // trading days for the ATR window
	MinVolatilityPercent float64 // floor applied when bar data is insufficient
	NewsLimit            int     // articles fetched per symbol
	NewsWindowHours      int     // freshness window for scoring
}

// DefaultConfig returns the standard aggregator tuning
func DefaultConfig() Config {
	return Config{
		ATRPeriod:            14,
		MinVolatilityPercent: 2.0,
		NewsLimit:            25,
		NewsWindowHours:      24,
	}
}

// Aggregator fans out the three independent sub-analyses. Failures are
// caught per sub-analysis and replaced with conservative defaults; no
// failure aborts the aggregation or reaches the caller as an error.
type Aggregator struct {
	provider marketdata.Provider
	config   Config
	logger   *logging.Logger
}

// NewAggregator creates an analysis aggregator
func NewAggregator(provider marketdata.Provider, config Config, logger *logging.Logger) *Aggregator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Aggregator{
		provider: provider,
		config:   config,
		logger:   logger.WithComponent("analysis"),
	}
}

// Analyze runs technical, news and volatility sub-analyses concurrently
// with all-settle semantics and returns whichever succeeded, substituting
// defaults for the rest.
func (a *Aggregator) Analyze(ctx context.Context, symbol string, price float64) *Result {
	result := &Result{Warnings: []string{}}

	var (
		wg            sync.WaitGroup
		technicalErr  error
		newsErr       error
		volatilityErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		result.Technical, technicalErr = a.analyzeTechnical(ctx, symbol, price)
	}()
	go func() {
		defer wg.Done()
		result.News, newsErr = a.analyzeNews(ctx, symbol)
	}()
	go func() {
		defer wg.Done()
		result.Volatility, volatilityErr = a.analyzeVolatility(ctx, symbol)
	}()
	wg.Wait()

	if technicalErr != nil {
		a.logger.Warn("technical analysis failed, using defaults", "symbol", symbol, "error", technicalErr)
		result.Technical = fallbackTechnical(symbol, price)
		result.Warnings = append(result.Warnings, "technical analysis unavailable, neutral defaults used")
	}
	if newsErr != nil {
		a.logger.Warn("news analysis failed, using defaults", "symbol", symbol, "error", newsErr)
		result.News = fallbackNews(symbol)
		result.Warnings = append(result.Warnings, "news analysis unavailable, zero sentiment assumed")
	}
	if volatilityErr != nil {
		a.logger.Warn("volatility analysis failed, using defaults", "symbol", symbol, "error", volatilityErr)
		result.Volatility = fallbackVolatility(symbol, a.config.MinVolatilityPercent)
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("volatility analysis unavailable, floored at %.1f%%", a.config.MinVolatilityPercent))
	}

	return result
}

// fallbackTechnical is the documented conservative default: neutral RSI,
// no signal counts, support and resistances derived from price alone.
func fallbackTechnical(symbol string, price float64) TechnicalAnalysis {
	return TechnicalAnalysis{
		Symbol:           symbol,
		RSI:              50.0,
		Bias:             BiasNeutral,
		SupportLevel:     price * 0.95,
		ResistanceLevels: []float64{price * 1.03, price * 1.08, price * 1.15},
		IsFallback:       true,
	}
}

func fallbackNews(symbol string) NewsAnalysis {
	return NewsAnalysis{
		Symbol:     symbol,
		Catalyst:   CatalystNone,
		Freshness:  "stale",
		Impact:     "low",
		IsFallback: true,
	}
}

func fallbackVolatility(symbol string, floorPercent float64) VolatilityAnalysis {
	return VolatilityAnalysis{
		Symbol:     symbol,
		ATRPercent: floorPercent,
		IsFallback: true,
	}
}
