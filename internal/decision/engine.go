package decision

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"trading-assistant/internal/analysis"
	"trading-assistant/internal/logging"
	"trading-assistant/internal/scoring"
)

// Engine turns a scored snapshot into a sized, stop-protected trade
// verdict. All tuning arrives through the constructor; evaluations are
// pure apart from the market-data reads the aggregator performs.
type Engine struct {
	aggregator  *analysis.Aggregator
	scoreConfig scoring.ThresholdConfig
	params      RiskParameters
	logger      *logging.Logger
}

// NewEngine creates a decision engine
func NewEngine(aggregator *analysis.Aggregator, scoreConfig scoring.ThresholdConfig, params RiskParameters, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		aggregator:  aggregator,
		scoreConfig: scoreConfig,
		params:      params,
		logger:      logger.WithComponent("decision"),
	}
}

// ScoreConfig returns the momentum preset the engine rescoring uses
func (e *Engine) ScoreConfig() scoring.ThresholdConfig {
	return e.scoreConfig
}

// ValidateTrade evaluates one symbol and returns a fully-populated
// decision. The composite score is on a 0..100 scale. Rejections return
// shouldTrade=false rather than an error; only a missing symbol or a
// non-positive price is refused at the boundary.
func (e *Engine) ValidateTrade(ctx context.Context, snap scoring.StockSnapshot, compositeScore float64) (*TradeDecision, error) {
	if snap.Symbol == "" {
		return nil, scoring.ErrNoSymbol
	}
	if snap.Price <= 0 {
		return nil, scoring.ErrInvalidPrice
	}

	d := &TradeDecision{
		ID:             uuid.New().String(),
		Symbol:         snap.Symbol,
		Timestamp:      time.Now(),
		CompositeScore: compositeScore,
		Confidence:     scoring.ConfidenceLow,
		Warnings:       []string{},
		Rationale:      []string{},
		ProfitTargets:  []float64{},
	}

	// Hard floor: a weak composite score never reaches the aggregator.
	if compositeScore < e.params.MinScore {
		d.Warnings = append(d.Warnings,
			fmt.Sprintf("composite score %.1f below floor %.1f", compositeScore, e.params.MinScore))
		d.Rationale = append(d.Rationale, "rejected before analysis, score floor not met")
		return d, nil
	}

	result := e.aggregator.Analyze(ctx, snap.Symbol, snap.Price)
	d.Technical = result.Technical
	d.News = result.News
	d.Volatility = result.Volatility
	d.Warnings = append(d.Warnings, result.Warnings...)

	d.Confidence = baseConfidence(compositeScore)

	if result.Technical.Bias == analysis.BiasBearish {
		d.Confidence = downgrade(d.Confidence)
		d.Warnings = append(d.Warnings, "chart bias is bearish")
	}
	if result.News.Sentiment < 0 {
		d.Confidence = downgrade(d.Confidence)
		d.Warnings = append(d.Warnings,
			fmt.Sprintf("news sentiment negative at %.1f", result.News.Sentiment))
	}
	if result.Volatility.ATRPercent > e.params.MaxVolatilityPercent {
		d.Confidence = downgrade(d.Confidence)
		d.Warnings = append(d.Warnings,
			fmt.Sprintf("volatility %.1f%% exceeds maximum %.1f%%", result.Volatility.ATRPercent, e.params.MaxVolatilityPercent))
	}

	// Re-score with the aggregator's technical context so the
	// early-breakout call is consistent across the decision path.
	rescored := e.rescore(snap, result.Technical)
	if rescored != nil {
		d.EarlyBreakout = rescored.IsEarlyBreakout
		if rescored.IsEarlyBreakout {
			d.Rationale = append(d.Rationale,
				fmt.Sprintf("early breakout confirmed at %d/%d momentum points", rescored.Score, rescored.MaxScore))
			if d.Confidence == scoring.ConfidenceMedium {
				d.Confidence = scoring.ConfidenceHigh
			}
		}
	}

	if e.params.HasHistory {
		expectancy := CalculateExpectedValue(e.params.WinRate, e.params.AvgWin, e.params.AvgLoss)
		if expectancy < e.params.MinExpectancy {
			d.Confidence = downgrade(d.Confidence)
			d.Warnings = append(d.Warnings,
				fmt.Sprintf("strategy expectancy %.2f below minimum %.2f", expectancy, e.params.MinExpectancy))
		} else {
			d.Rationale = append(d.Rationale,
				fmt.Sprintf("strategy expectancy %.2f per trade", expectancy))
		}
	}

	d.PositionSize = e.positionSize(compositeScore, d.Confidence, d.EarlyBreakout, result.Volatility.ATRPercent)
	d.StopLoss = e.stopLoss(snap.Price, result.Volatility.ATRPercent, result.Technical.SupportLevel)
	d.ProfitTargets = e.profitTargets(snap.Price, result.Technical.ResistanceLevels)
	d.RiskReward = riskReward(snap.Price, d.StopLoss, d.ProfitTargets)

	d.ShouldTrade = e.verdict(d)
	if d.ShouldTrade {
		d.Rationale = append(d.Rationale,
			fmt.Sprintf("approved: %s confidence, size %.0f, stop %.2f", d.Confidence, d.PositionSize, d.StopLoss))
	}

	e.logger.Info("trade validated",
		"symbol", d.Symbol,
		"should_trade", d.ShouldTrade,
		"confidence", string(d.Confidence),
		"score", compositeScore,
		"size", d.PositionSize,
		"warnings", len(d.Warnings))

	return d, nil
}

// rescore builds a technical block from the chart analysis and runs the
// momentum scorer over it. A scoring failure is not fatal here; the
// decision simply proceeds without the early-breakout signal.
func (e *Engine) rescore(snap scoring.StockSnapshot, technical analysis.TechnicalAnalysis) *scoring.ScoreResult {
	enriched := snap
	if !technical.IsFallback {
		enriched.Technicals = &scoring.TechnicalData{
			SMA20:         technical.SMA20,
			SMA50:         technical.SMA50,
			SMA200:        technical.SMA200,
			HighProximity: technical.HighProximity,
			RSI:           technical.RSI,
		}
	}
	result, err := scoring.Score(enriched, e.scoreConfig)
	if err != nil {
		return nil
	}
	return result
}

func baseConfidence(score float64) scoring.Confidence {
	switch {
	case score >= 80:
		return scoring.ConfidenceHigh
	case score >= 65:
		return scoring.ConfidenceMedium
	default:
		return scoring.ConfidenceLow
	}
}

func downgrade(c scoring.Confidence) scoring.Confidence {
	switch c {
	case scoring.ConfidenceHigh:
		return scoring.ConfidenceMedium
	case scoring.ConfidenceMedium:
		return scoring.ConfidenceLow
	default:
		return scoring.ConfidenceLow
	}
}

// positionSize applies the three sizing multipliers. The result is capped
// at the maximum but deliberately not floored: a size below the minimum
// is a veto signal, not something to round up into a real order.
func (e *Engine) positionSize(score float64, confidence scoring.Confidence, earlyBreakout bool, volatilityPercent float64) float64 {
	confMult := 0.3
	switch confidence {
	case scoring.ConfidenceHigh:
		confMult = 1.0
	case scoring.ConfidenceMedium:
		confMult = 0.6
	}

	// Early breakouts widen the score baseline so lower-score entries
	// still size meaningfully.
	baseline, spread := 60.0, 40.0
	if earlyBreakout {
		baseline, spread = 50.0, 50.0
	}
	scoreMult := math.Max(0.1, (score-baseline)/spread)

	volMult := math.Max(0.3, 1.0-volatilityPercent/100.0)

	size := e.params.MaxPositionSize * confMult * scoreMult * volMult
	if size > e.params.MaxPositionSize {
		size = e.params.MaxPositionSize
	}
	return math.Round(size)
}

// stopLoss takes the higher of a volatility-scaled stop and the technical
// support floor.
func (e *Engine) stopLoss(price, volatilityPercent, supportLevel float64) float64 {
	stop := price * (1.0 - 2.0*volatilityPercent/100.0)
	if supportLevel > stop && supportLevel < price {
		stop = supportLevel
	}
	return stop
}

// profitTargets builds the percent ladder, snapping each rung to a
// resistance level when one sits within 2%.
func (e *Engine) profitTargets(price float64, resistances []float64) []float64 {
	targets := make([]float64, 0, len(e.params.ProfitTargetPercents))
	for _, pct := range e.params.ProfitTargetPercents {
		target := price * (1.0 + pct/100.0)
		for _, resistance := range resistances {
			if resistance > price && math.Abs(resistance-target)/target <= 0.02 {
				target = resistance
				break
			}
		}
		targets = append(targets, target)
	}
	return targets
}

func riskReward(price, stop float64, targets []float64) float64 {
	risk := price - stop
	if risk <= 0 || len(targets) == 0 {
		return 0
	}
	// Reward measured to the middle rung when the ladder has one.
	target := targets[0]
	if len(targets) >= 2 {
		target = targets[1]
	}
	return (target - price) / risk
}

// verdict applies the rule table. Vetoes fire first; approvals then
// depend on the confidence tier, with early breakouts unlocking a lower
// score floor. LOW confidence never auto-approves.
func (e *Engine) verdict(d *TradeDecision) bool {
	if len(d.Warnings) >= e.params.MaxWarnings {
		d.Rationale = append(d.Rationale,
			fmt.Sprintf("vetoed: %d warnings at or above cap %d", len(d.Warnings), e.params.MaxWarnings))
		return false
	}
	if d.PositionSize < e.params.MinPositionSize {
		d.Rationale = append(d.Rationale,
			fmt.Sprintf("vetoed: position size %.0f below minimum %.0f", d.PositionSize, e.params.MinPositionSize))
		return false
	}

	score := d.CompositeScore
	switch d.Confidence {
	case scoring.ConfidenceHigh:
		return score >= 65 || (d.EarlyBreakout && score >= 60)
	case scoring.ConfidenceMedium:
		if d.EarlyBreakout && score >= 70 {
			return true
		}
		return score >= 75 && len(d.Warnings) <= 2
	default:
		return false
	}
}
