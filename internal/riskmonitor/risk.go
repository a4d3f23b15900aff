package riskmonitor

import (
	"fmt"

	"trading-assistant/internal/broker"
)

// RiskLevel classifies a position by unrealized drawdown
type RiskLevel string

const (
	RiskSafe     RiskLevel = "SAFE"
	RiskWarning  RiskLevel = "WARNING"
	RiskDanger   RiskLevel = "DANGER"
	RiskCritical RiskLevel = "CRITICAL"
)

// Thresholds are the ordered drawdown boundaries, each a signed percent.
// A position at or above Safe is SAFE, at or above Warning is WARNING,
// at or above Danger is DANGER, and anything deeper is CRITICAL.
type Thresholds struct {
	Safe    float64 `json:"safe"`
	Warning float64 `json:"warning"`
	Danger  float64 `json:"danger"`
}

// DefaultThresholds returns the standard drawdown boundaries
func DefaultThresholds() Thresholds {
	return Thresholds{Safe: -3.0, Warning: -4.0, Danger: -5.0}
}

// PositionRisk is the per-tick assessment of one open position. It is
// recomputed every tick and never persisted by the monitor.
type PositionRisk struct {
	Ticker          string    `json:"ticker"`
	Level           RiskLevel `json:"level"`
	PLPercent       float64   `json:"pl_percent"`
	CurrentPrice    float64   `json:"current_price"`
	StopLossLevel   float64   `json:"stop_loss_level"`
	HasStopOrder    bool      `json:"has_stop_order"`
	Alerts          []string  `json:"alerts"`
	Recommendations []string  `json:"recommendations"`
}

// ClassifyRisk maps an unrealized P/L percent onto a risk tier
func ClassifyRisk(plPercent float64, t Thresholds) RiskLevel {
	switch {
	case plPercent >= t.Safe:
		return RiskSafe
	case plPercent >= t.Warning:
		return RiskWarning
	case plPercent >= t.Danger:
		return RiskDanger
	default:
		return RiskCritical
	}
}

// AssessPosition computes the risk view of one position against its
// pending orders. Alerts describe the state; recommendations tell the
// holder what to do about it.
func AssessPosition(position broker.Position, orders []broker.PendingOrder, t Thresholds) PositionRisk {
	plPercent := position.UnrealizedPLPercent()
	risk := PositionRisk{
		Ticker:          position.Ticker,
		Level:           ClassifyRisk(plPercent, t),
		PLPercent:       plPercent,
		CurrentPrice:    position.CurrentPrice,
		StopLossLevel:   position.AvgEntryPrice * (1.0 + t.Danger/100.0),
		Alerts:          []string{},
		Recommendations: []string{},
	}

	var unprotectedLimits []broker.PendingOrder
	for _, order := range orders {
		if order.Ticker != position.Ticker {
			continue
		}
		if order.IsProtectiveStop() {
			risk.HasStopOrder = true
		} else if order.Side == "sell" && order.Type == broker.OrderTypeLimit {
			unprotectedLimits = append(unprotectedLimits, order)
		}
	}

	switch risk.Level {
	case RiskWarning:
		risk.Alerts = append(risk.Alerts,
			fmt.Sprintf("%s down %.1f%%, approaching stop territory", position.Ticker, -plPercent))
	case RiskDanger:
		risk.Alerts = append(risk.Alerts,
			fmt.Sprintf("%s down %.1f%%, past the danger threshold", position.Ticker, -plPercent))
		risk.Recommendations = append(risk.Recommendations,
			fmt.Sprintf("tighten or place a stop near %.2f", risk.StopLossLevel))
	case RiskCritical:
		risk.Alerts = append(risk.Alerts,
			fmt.Sprintf("%s down %.1f%%, critical drawdown", position.Ticker, -plPercent))
		risk.Recommendations = append(risk.Recommendations,
			fmt.Sprintf("exit or reduce %s immediately", position.Ticker))
	}

	if !risk.HasStopOrder && len(unprotectedLimits) > 0 {
		risk.Alerts = append(risk.Alerts,
			fmt.Sprintf("%s has %d limit sell order(s) but no protective stop", position.Ticker, len(unprotectedLimits)))
		risk.Recommendations = append(risk.Recommendations,
			fmt.Sprintf("cancel the limit order and place a stop at %.2f", risk.StopLossLevel))
	} else if !risk.HasStopOrder && risk.Level != RiskSafe {
		risk.Recommendations = append(risk.Recommendations,
			fmt.Sprintf("place a protective stop at %.2f", risk.StopLossLevel))
	}

	return risk
}
