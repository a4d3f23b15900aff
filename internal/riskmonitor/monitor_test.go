package riskmonitor

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"trading-assistant/internal/broker"
	"trading-assistant/internal/events"
)

func TestClassifyRisk(t *testing.T) {
	thresholds := Thresholds{Safe: -3, Warning: -4, Danger: -5}

	cases := []struct {
		plPercent float64
		want      RiskLevel
	}{
		{2.0, RiskSafe},
		{0.0, RiskSafe},
		{-3.0, RiskSafe},
		{-3.5, RiskWarning},
		{-4.0, RiskWarning},
		{-4.5, RiskDanger},
		{-5.0, RiskDanger},
		{-5.1, RiskCritical},
		{-20.0, RiskCritical},
	}
	for _, tc := range cases {
		if got := ClassifyRisk(tc.plPercent, thresholds); got != tc.want {
			t.Errorf("ClassifyRisk(%.1f) = %s, want %s", tc.plPercent, got, tc.want)
		}
	}
}

func TestAssessPositionUnprotectedLimit(t *testing.T) {
	position := broker.Position{
		Ticker:        "AAPL",
		Quantity:      10,
		AvgEntryPrice: 100.0,
		CurrentPrice:  95.5,
		UnrealizedPL:  -45.0,
	}
	orders := []broker.PendingOrder{
		{Ticker: "AAPL", Type: broker.OrderTypeLimit, Side: "sell", Quantity: 10, Price: 110.0},
		{Ticker: "OTHER", Type: broker.OrderTypeStop, Side: "sell", Quantity: 5, Price: 50.0},
	}

	risk := AssessPosition(position, orders, DefaultThresholds())

	if risk.Level != RiskDanger {
		t.Errorf("expected DANGER at -4.5%%, got %s", risk.Level)
	}
	if risk.HasStopOrder {
		t.Error("stop order on another ticker must not count as protection")
	}
	if len(risk.Alerts) != 2 {
		t.Errorf("expected danger alert plus unprotected-limit alert, got %v", risk.Alerts)
	}
	// Recommendations are actionable, not just descriptive.
	found := false
	for _, rec := range risk.Recommendations {
		if rec == "cancel the limit order and place a stop at 95.00" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected actionable stop recommendation, got %v", risk.Recommendations)
	}
}

func TestAssessPositionProtected(t *testing.T) {
	position := broker.Position{
		Ticker:        "MSFT",
		Quantity:      5,
		AvgEntryPrice: 400.0,
		CurrentPrice:  404.0,
		UnrealizedPL:  20.0,
	}
	orders := []broker.PendingOrder{
		{Ticker: "MSFT", Type: broker.OrderTypeStop, Side: "sell", Quantity: 5, Price: 380.0},
	}

	risk := AssessPosition(position, orders, DefaultThresholds())

	if risk.Level != RiskSafe {
		t.Errorf("expected SAFE in profit, got %s", risk.Level)
	}
	if !risk.HasStopOrder {
		t.Error("protective stop must be recognized")
	}
	if len(risk.Alerts) != 0 || len(risk.Recommendations) != 0 {
		t.Errorf("safe protected position must be quiet, got %v %v", risk.Alerts, risk.Recommendations)
	}
}

// TestTickAlertDeduplication runs two ticks inside the cooldown window
// and expects exactly one alert for the symbol.
func TestTickAlertDeduplication(t *testing.T) {
	mock := broker.NewMockClient()
	mock.SetPositions([]broker.Position{
		{Ticker: "AAPL", Quantity: 10, AvgEntryPrice: 100.0, CurrentPrice: 93.0, UnrealizedPL: -70.0},
	})

	bus := events.NewEventBus()
	alerts := make(chan events.Event, 8)
	bus.Subscribe(events.EventPositionRiskAlert, func(e events.Event) { alerts <- e })

	config := DefaultConfig()
	config.AlertCooldown = time.Minute
	monitor := NewMonitor(mock, bus, config, zerolog.Nop())

	monitor.Tick(context.Background())
	monitor.Tick(context.Background())

	select {
	case e := <-alerts:
		if e.Data["symbol"] != "AAPL" {
			t.Errorf("unexpected alert symbol %v", e.Data["symbol"])
		}
	case <-time.After(time.Second):
		t.Fatal("expected one alert")
	}
	select {
	case <-alerts:
		t.Fatal("second tick inside the cooldown must not alert again")
	case <-time.After(100 * time.Millisecond):
	}

	if !monitor.AlertedRecently("AAPL") {
		t.Error("cooldown state must record the alert")
	}
}

func TestTickSkipsOnBrokerError(t *testing.T) {
	mock := broker.NewMockClient()
	mock.FailPositions(context.DeadlineExceeded)

	bus := events.NewEventBus()
	batches := make(chan events.Event, 1)
	bus.Subscribe(events.EventPositionRiskBatch, func(e events.Event) { batches <- e })

	monitor := NewMonitor(mock, bus, DefaultConfig(), zerolog.Nop())
	monitor.Tick(context.Background())

	select {
	case <-batches:
		t.Fatal("failed tick must not publish a batch")
	case <-time.After(100 * time.Millisecond):
	}
}
