package analysis

import (
	"context"
	"fmt"
	"math"

	"trading-assistant/internal/marketdata"
)

// analyzeVolatility computes a percentage ATR over the most recent trading
// days. Insufficient bar data floors the result instead of failing.
func (a *Aggregator) analyzeVolatility(ctx context.Context, symbol string) (VolatilityAnalysis, error) {
	// One extra bar for the previous close of the first ATR day.
	bars, err := a.provider.GetHistoricalBars(ctx, symbol, a.config.ATRPeriod*2)
	if err != nil {
		return VolatilityAnalysis{}, fmt.Errorf("bars for %s: %w", symbol, err)
	}

	result := VolatilityAnalysis{Symbol: symbol}

	if len(bars) < a.config.ATRPeriod+1 {
		result.ATRPercent = a.config.MinVolatilityPercent
		result.SampleDays = len(bars)
		return result, nil
	}

	atr := averageTrueRange(bars, a.config.ATRPeriod)
	lastClose := bars[len(bars)-1].Close
	if lastClose <= 0 {
		result.ATRPercent = a.config.MinVolatilityPercent
		result.SampleDays = len(bars)
		return result, nil
	}

	result.ATRPercent = 100 * atr / lastClose
	result.SampleDays = a.config.ATRPeriod
	if result.ATRPercent < a.config.MinVolatilityPercent {
		result.ATRPercent = a.config.MinVolatilityPercent
	}
	return result, nil
}

// averageTrueRange computes the ATR over the trailing period
func averageTrueRange(bars []marketdata.Bar, period int) float64 {
	trSum := 0.0
	startIdx := len(bars) - period

	for i := startIdx; i < len(bars); i++ {
		high := bars[i].High
		low := bars[i].Low
		prevClose := bars[i-1].Close

		tr := math.Max(
			high-low,
			math.Max(
				math.Abs(high-prevClose),
				math.Abs(low-prevClose),
			),
		)
		trSum += tr
	}

	return trSum / float64(period)
}
