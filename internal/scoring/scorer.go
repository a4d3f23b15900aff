package scoring

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSymbol is returned when a snapshot has no symbol.
	ErrNoSymbol = errors.New("snapshot has no symbol")
	// ErrInvalidPrice is returned when a snapshot price is zero or negative.
	ErrInvalidPrice = errors.New("snapshot price must be positive")
)

// Score evaluates a snapshot against a threshold config and returns a
// weighted point score with per-dimension rationale. It is deterministic,
// performs no I/O, and degrades gracefully when the technical block is
// missing. Only hard input violations return an error.
func Score(snap StockSnapshot, cfg ThresholdConfig) (*ScoreResult, error) {
	if snap.Symbol == "" {
		return nil, ErrNoSymbol
	}
	if snap.Price <= 0 {
		return nil, ErrInvalidPrice
	}

	w := cfg.Weights
	result := &ScoreResult{
		Symbol:    snap.Symbol,
		MaxScore:  cfg.MaxScore(),
		Warnings:  []string{},
		Rationale: []string{},
	}

	// Dimension 1: price ceiling
	if snap.Price <= cfg.MaxPrice {
		result.Score += w.PriceCeiling
		result.Criteria.PriceCeiling = true
		result.Rationale = append(result.Rationale,
			fmt.Sprintf("price $%.2f within $%.2f ceiling", snap.Price, cfg.MaxPrice))
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("price $%.2f above $%.2f ceiling", snap.Price, cfg.MaxPrice))
	}

	// Dimension 2: volume floor
	if snap.Volume >= cfg.MinVolume {
		result.Score += w.VolumeFloor
		result.Criteria.VolumeFloor = true
		result.Rationale = append(result.Rationale,
			fmt.Sprintf("volume %.0f above %.0f floor", snap.Volume, cfg.MinVolume))
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("volume %.0f below %.0f floor", snap.Volume, cfg.MinVolume))
	}

	// Dimension 3: relative volume floor
	if snap.RelativeVolume >= cfg.MinRelativeVolume {
		result.Score += w.RelativeVolume
		result.Criteria.RelativeVolume = true
		result.Rationale = append(result.Rationale,
			fmt.Sprintf("relative volume %.2fx above %.2fx floor", snap.RelativeVolume, cfg.MinRelativeVolume))
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("relative volume %.2fx below %.2fx floor", snap.RelativeVolume, cfg.MinRelativeVolume))
	}

	scoreProximity(snap, cfg, result)
	scoreTrendAlignment(snap, cfg, result)
	scoreMovement(snap, cfg, result)

	result.IsEarlyBreakout = result.Score >= cfg.EarlyBreakoutThreshold
	result.IsGoodSetup = result.Score >= cfg.GoodSetupThreshold
	result.Confidence = classifyConfidence(result)

	return result, nil
}

// scoreProximity handles dimension 4: proximity-to-high banding. Inside the
// band the setup is still building and earns full credit; above the band the
// move already ran and earns partial credit with a late-entry warning.
func scoreProximity(snap StockSnapshot, cfg ThresholdConfig, result *ScoreResult) {
	w := cfg.Weights
	if snap.Technicals == nil || snap.Technicals.HighProximity <= 0 {
		result.Warnings = append(result.Warnings, "no high-proximity data")
		return
	}

	proximity := snap.Technicals.HighProximity
	switch {
	case proximity >= cfg.MinHighProximity && proximity <= cfg.MaxHighProximity:
		result.Score += w.ProximityFull
		result.Criteria.HighProximity = true
		result.Rationale = append(result.Rationale,
			fmt.Sprintf("at %.1f%% of recent high, building phase (%.1f-%.1f%%)",
				proximity, cfg.MinHighProximity, cfg.MaxHighProximity))
	case proximity > cfg.MaxHighProximity:
		result.Score += w.ProximityPartial
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("at %.1f%% of recent high, already broken out, late entry", proximity))
	default:
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("at %.1f%% of recent high, still far from highs", proximity))
	}
}

// scoreTrendAlignment handles dimension 5: moving-average alignment. The
// long-term SMA is mandatory trend confirmation; its absence or failure is a
// hard warning rather than silence.
func scoreTrendAlignment(snap StockSnapshot, cfg ThresholdConfig, result *ScoreResult) {
	w := cfg.Weights
	t := snap.Technicals
	if t == nil || t.SMA20 <= 0 || t.SMA50 <= 0 {
		result.Warnings = append(result.Warnings, "no moving-average data, trend not confirmed")
		return
	}

	aboveShort := snap.Price > t.SMA20 && snap.Price > t.SMA50
	if aboveShort {
		result.Score += w.AboveShortSMAs
		result.Rationale = append(result.Rationale,
			fmt.Sprintf("price above SMA20 %.2f and SMA50 %.2f", t.SMA20, t.SMA50))
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("price below short-term moving averages (SMA20 %.2f, SMA50 %.2f)", t.SMA20, t.SMA50))
	}

	aboveLong := false
	if t.SMA200 <= 0 {
		result.Warnings = append(result.Warnings, "no SMA200 data, long-term trend not confirmed")
	} else if snap.Price > t.SMA200 {
		aboveLong = true
		result.Score += w.AboveLongSMA
		result.Rationale = append(result.Rationale,
			fmt.Sprintf("price above SMA200 %.2f, long-term trend confirmed", t.SMA200))
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("price below SMA200 %.2f, against long-term trend", t.SMA200))
	}

	result.Criteria.TrendAlignment = aboveShort && aboveLong

	if aboveShort && aboveLong && t.SMA20 > t.SMA50 && t.SMA50 > t.SMA200 {
		result.Score += w.PerfectAlignment
		result.Rationale = append(result.Rationale, "perfect alignment: price > SMA20 > SMA50 > SMA200")
	}
}

// scoreMovement handles dimension 6: recent movement banding. MinChange may
// be negative so a small consolidation pullback scores as well as a small
// gain.
func scoreMovement(snap StockSnapshot, cfg ThresholdConfig, result *ScoreResult) {
	w := cfg.Weights
	change := snap.ChangePercent
	switch {
	case change >= cfg.MinChange && change <= cfg.MaxChange:
		result.Score += w.RecentMovement
		result.Criteria.RecentMovement = true
		result.Rationale = append(result.Rationale,
			fmt.Sprintf("moved %+.2f%%, inside %+.1f%% to %+.1f%% band", change, cfg.MinChange, cfg.MaxChange))
	case change > cfg.MaxChange:
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("already moved %+.2f%%, late entry", change))
	default:
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("moved %+.2f%%, still dormant", change))
	}
}

func classifyConfidence(result *ScoreResult) Confidence {
	switch {
	case result.IsEarlyBreakout && len(result.Warnings) <= 1:
		return ConfidenceHigh
	case result.IsGoodSetup && len(result.Warnings) <= 2:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
