package analysis

import (
	"context"
	"fmt"
	"math"
)

// analyzeTechnical counts bullish vs bearish signals from vendor technicals
// and derives support and resistance levels around the current price.
func (a *Aggregator) analyzeTechnical(ctx context.Context, symbol string, price float64) (TechnicalAnalysis, error) {
	technicals, err := a.provider.GetTechnicals(ctx, symbol)
	if err != nil {
		return TechnicalAnalysis{}, fmt.Errorf("technicals for %s: %w", symbol, err)
	}

	result := TechnicalAnalysis{
		Symbol:     symbol,
		RSI:        technicals.RSI,
		MACD:       technicals.MACD,
		MACDSignal: technicals.MACDSignal,
		SMA20:      technicals.SMA20,
		SMA50:      technicals.SMA50,
		SMA200:     technicals.SMA200,
		High52Week: technicals.High52Week,
	}
	if technicals.High52Week > 0 {
		result.HighProximity = 100 * price / technicals.High52Week
	}

	// Signal counting: SMA position, SMA ordering, RSI zone, MACD cross,
	// proximity to the 52-week high.
	if technicals.SMA20 > 0 {
		if price > technicals.SMA20 {
			result.BullishSignals++
		} else {
			result.BearishSignals++
		}
	}
	if technicals.SMA50 > 0 {
		if price > technicals.SMA50 {
			result.BullishSignals++
		} else {
			result.BearishSignals++
		}
	}
	if technicals.SMA20 > 0 && technicals.SMA50 > 0 {
		if technicals.SMA20 > technicals.SMA50 {
			result.BullishSignals++
		} else {
			result.BearishSignals++
		}
	}

	switch {
	case technicals.RSI > 70:
		result.BearishSignals++ // overbought
	case technicals.RSI >= 50:
		result.BullishSignals++
	}

	if technicals.MACD != 0 || technicals.MACDSignal != 0 {
		if technicals.MACD > technicals.MACDSignal {
			result.BullishSignals++
		} else {
			result.BearishSignals++
		}
	}

	if result.HighProximity >= 85 {
		result.BullishSignals++
	}

	switch {
	case result.BullishSignals > result.BearishSignals:
		result.Bias = BiasBullish
	case result.BearishSignals > result.BullishSignals:
		result.Bias = BiasBearish
	default:
		result.Bias = BiasNeutral
	}

	// Support: the higher of 98% of SMA20 and 95% of price.
	result.SupportLevel = math.Max(technicals.SMA20*0.98, price*0.95)

	// Resistances: +3%, +8%, then +15% capped at the 52-week high.
	third := price * 1.15
	if technicals.High52Week > 0 && technicals.High52Week < third {
		third = technicals.High52Week
	}
	result.ResistanceLevels = []float64{price * 1.03, price * 1.08, third}

	return result, nil
}
