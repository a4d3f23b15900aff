package riskmonitor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"trading-assistant/internal/broker"
	"trading-assistant/internal/events"
)

// Config tunes one monitor instance
type Config struct {
	Interval      time.Duration `json:"interval"`
	AlertCooldown time.Duration `json:"alert_cooldown"`
	Thresholds    Thresholds    `json:"thresholds"`
}

// DefaultConfig returns the standard monitoring cadence
func DefaultConfig() Config {
	return Config{
		Interval:      30 * time.Second,
		AlertCooldown: 60 * time.Second,
		Thresholds:    DefaultThresholds(),
	}
}

// Monitor polls the brokerage on a fixed interval, reassesses every open
// position, publishes one batched risk event per tick and at most one
// deduplicated alert per symbol per cooldown window. Ticks run strictly
// one at a time; a long tick delays the next rather than overlapping it.
type Monitor struct {
	broker broker.Client
	bus    *events.EventBus
	config Config
	logger zerolog.Logger

	mu        sync.Mutex
	lastAlert map[string]time.Time
	running   bool
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// NewMonitor creates a position risk monitor
func NewMonitor(brokerClient broker.Client, bus *events.EventBus, config Config, logger zerolog.Logger) *Monitor {
	return &Monitor{
		broker:    brokerClient,
		bus:       bus,
		config:    config,
		logger:    logger.With().Str("component", "PositionRiskMonitor").Logger(),
		lastAlert: make(map[string]time.Time),
	}
}

// Start launches the monitoring loop. Safe to call once per instance;
// subsequent calls while running are no-ops.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.stopChan = make(chan struct{})
	m.mu.Unlock()

	m.logger.Info().Dur("interval", m.config.Interval).Msg("Position risk monitor started")
	if m.bus != nil {
		m.bus.PublishMonitorStarted("position_risk", int(m.config.Interval.Seconds()))
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.config.Interval)
		defer ticker.Stop()

		m.Tick(ctx)
		for {
			select {
			case <-ticker.C:
				m.Tick(ctx)
			case <-m.stopChan:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the loop and waits for any in-flight tick
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stopChan)
	m.mu.Unlock()

	m.wg.Wait()
	m.logger.Info().Msg("Position risk monitor stopped")
	if m.bus != nil {
		m.bus.PublishMonitorStopped("position_risk")
	}
}

// Tick performs one full reassessment: two brokerage reads, a risk view
// per open position, one batch event and the deduplicated alerts. A
// failed read logs and skips the tick; the timer keeps running.
func (m *Monitor) Tick(ctx context.Context) {
	positions, err := m.broker.GetOpenPositions(ctx)
	if err != nil {
		m.logger.Error().Err(err).Msg("Failed to fetch positions, skipping tick")
		return
	}
	orders, err := m.broker.GetPendingOrders(ctx)
	if err != nil {
		m.logger.Error().Err(err).Msg("Failed to fetch pending orders, skipping tick")
		return
	}

	assessments := make([]PositionRisk, 0, len(positions))
	for _, position := range positions {
		risk := AssessPosition(position, orders, m.config.Thresholds)
		assessments = append(assessments, risk)

		if risk.Level != RiskSafe || len(risk.Alerts) > 0 {
			m.maybeAlert(risk)
		}
	}

	if m.bus != nil {
		m.bus.PublishPositionRiskBatch(assessments, len(positions))
	}
	m.logger.Debug().Int("positions", len(positions)).Msg("Risk tick complete")
}

// maybeAlert publishes one alert per symbol per cooldown window
func (m *Monitor) maybeAlert(risk PositionRisk) {
	m.mu.Lock()
	last, seen := m.lastAlert[risk.Ticker]
	if seen && time.Since(last) < m.config.AlertCooldown {
		m.mu.Unlock()
		return
	}
	m.lastAlert[risk.Ticker] = time.Now()
	m.mu.Unlock()

	recommendation := ""
	if len(risk.Recommendations) > 0 {
		recommendation = risk.Recommendations[0]
	}
	m.logger.Warn().
		Str("ticker", risk.Ticker).
		Str("level", string(risk.Level)).
		Float64("pl_percent", risk.PLPercent).
		Msg("Position risk alert")
	if m.bus != nil {
		m.bus.PublishPositionRiskAlert(risk.Ticker, string(risk.Level), recommendation, risk.PLPercent)
	}
}

// AlertedRecently reports whether the symbol is inside its cooldown
func (m *Monitor) AlertedRecently(ticker string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	last, seen := m.lastAlert[ticker]
	return seen && time.Since(last) < m.config.AlertCooldown
}
