package flow

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"trading-assistant/internal/events"
)

// Config tunes one detector instance
type Config struct {
	WindowDuration  time.Duration `json:"window_duration"`
	LargeTradeValue float64       `json:"large_trade_value"` // currency floor for a "large" print
	MinVolumeRatio  float64       `json:"min_volume_ratio"`  // alert floor
	MinScore        int           `json:"min_score"`
	AlertCooldown   time.Duration `json:"alert_cooldown"`
	QueueSize       int           `json:"queue_size"` // per-symbol tick buffer
}

// DefaultConfig returns the standard detector tuning
func DefaultConfig() Config {
	return Config{
		WindowDuration:  5 * time.Minute,
		LargeTradeValue: 50_000,
		MinVolumeRatio:  2.0,
		MinScore:        4,
		AlertCooldown:   60 * time.Second,
		QueueSize:       256,
	}
}

// symbolState owns one symbol's rolling window. It is touched only by
// that symbol's consumer goroutine, so no lock guards the window itself.
type symbolState struct {
	ticks     chan TradeTick
	window    []TradeTick
	baseline  float64 // historical average volume per window
	lastAlert time.Time
	done      chan struct{}
}

// Detector consumes trade ticks per subscribed symbol, maintains a
// trailing window, and emits unusual-activity alerts. Ingestion is
// decoupled from aggregation by a bounded queue per symbol; ticks that
// arrive while the queue is full are dropped.
type Detector struct {
	config Config
	bus    *events.EventBus
	logger zerolog.Logger

	mu      sync.RWMutex
	symbols map[string]*symbolState
	onAlert func(UnusualActivity)
	dropped uint64

	wg sync.WaitGroup
}

// NewDetector creates an unusual flow detector
func NewDetector(bus *events.EventBus, config Config, logger zerolog.Logger) *Detector {
	return &Detector{
		config:  config,
		bus:     bus,
		logger:  logger.With().Str("component", "UnusualFlowDetector").Logger(),
		symbols: make(map[string]*symbolState),
	}
}

// OnAlert registers an additional alert sink. Must be set before
// Subscribe; alerts also go to the event bus regardless.
func (d *Detector) OnAlert(fn func(UnusualActivity)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onAlert = fn
}

// Subscribe starts consuming ticks for a symbol. The baseline is the
// symbol's historical average volume over one window duration.
func (d *Detector) Subscribe(symbol string, baselineVolume float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.symbols[symbol]; ok {
		return
	}
	state := &symbolState{
		ticks:    make(chan TradeTick, d.config.QueueSize),
		baseline: baselineVolume,
		done:     make(chan struct{}),
	}
	d.symbols[symbol] = state

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case tick := <-state.ticks:
				d.process(state, tick)
			case <-state.done:
				return
			}
		}
	}()
	d.logger.Info().Str("symbol", symbol).Float64("baseline", baselineVolume).Msg("Subscribed to flow")
}

// Unsubscribe stops the symbol's consumer and discards its window
func (d *Detector) Unsubscribe(symbol string) {
	d.mu.Lock()
	state, ok := d.symbols[symbol]
	if ok {
		delete(d.symbols, symbol)
	}
	d.mu.Unlock()
	if ok {
		close(state.done)
	}
}

// Close stops all consumers
func (d *Detector) Close() {
	d.mu.Lock()
	for symbol, state := range d.symbols {
		close(state.done)
		delete(d.symbols, symbol)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// Ingest queues a tick for its symbol. Unsubscribed symbols and ticks
// arriving on a full queue are dropped.
func (d *Detector) Ingest(tick TradeTick) {
	d.mu.RLock()
	state, ok := d.symbols[tick.Symbol]
	d.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case state.ticks <- tick:
	default:
		d.mu.Lock()
		d.dropped++
		d.mu.Unlock()
	}
}

// Dropped reports how many ticks were shed on full queues
func (d *Detector) Dropped() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.dropped
}

// process applies one tick synchronously: evict, append, derive, score.
func (d *Detector) process(state *symbolState, tick TradeTick) {
	if tick.Value == 0 {
		tick.Value = tick.Price * tick.Volume
	}
	cutoff := tick.Timestamp.Add(-d.config.WindowDuration)
	evicted := 0
	for evicted < len(state.window) && state.window[evicted].Timestamp.Before(cutoff) {
		evicted++
	}
	state.window = append(state.window[evicted:], tick)

	snapshot := d.snapshot(state, tick.Symbol)
	activity, unusual := d.evaluate(snapshot)
	if !unusual {
		return
	}
	if time.Since(state.lastAlert) < d.config.AlertCooldown {
		return
	}
	state.lastAlert = time.Now()

	d.logger.Warn().
		Str("symbol", activity.Symbol).
		Str("level", string(activity.Level)).
		Int("score", activity.Score).
		Float64("volume_ratio", activity.VolumeRatio).
		Msg("Unusual activity detected")
	if d.bus != nil {
		d.bus.PublishUnusualActivity(activity.Symbol, string(activity.Level), activity.Score,
			activity.VolumeRatio, activity.PriceChangePercent)
	}
	d.mu.RLock()
	sink := d.onAlert
	d.mu.RUnlock()
	if sink != nil {
		sink(activity)
	}
}

// snapshot derives the window metrics for one symbol
func (d *Detector) snapshot(state *symbolState, symbol string) StreamSnapshot {
	s := StreamSnapshot{Symbol: symbol}
	if len(state.window) == 0 {
		return s
	}

	s.WindowStart = state.window[0].Timestamp
	s.TradeCount = len(state.window)
	s.FirstPrice = state.window[0].Price
	s.LastPrice = state.window[len(state.window)-1].Price
	s.Low = math.MaxFloat64

	for _, tick := range state.window {
		s.TotalVolume += tick.Volume
		if tick.Price > s.High {
			s.High = tick.Price
		}
		if tick.Price < s.Low {
			s.Low = tick.Price
		}
		if tick.Value >= d.config.LargeTradeValue {
			s.LargeTradeCount++
			s.LargeTradeValue += tick.Value
		}
	}
	if s.FirstPrice > 0 {
		s.PriceChangePercent = 100.0 * (s.LastPrice - s.FirstPrice) / s.FirstPrice
	}
	if state.baseline > 0 {
		s.VolumeRatio = s.TotalVolume / state.baseline
	}

	// Buy pressure over the last 10 trades.
	recent := state.window
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	ups := 0
	for _, tick := range recent {
		if tick.IsBuy {
			ups++
		}
	}
	s.BuyPressure = float64(ups) / float64(len(recent))

	// Accelerating when the last 5 trades average 1.5x the volume of the
	// 5 before them.
	if len(state.window) >= 10 {
		last5 := avgVolume(state.window[len(state.window)-5:])
		prior5 := avgVolume(state.window[len(state.window)-10 : len(state.window)-5])
		s.Accelerating = prior5 > 0 && last5 > 1.5*prior5
	}
	return s
}

func avgVolume(ticks []TradeTick) float64 {
	if len(ticks) == 0 {
		return 0
	}
	total := 0.0
	for _, tick := range ticks {
		total += tick.Volume
	}
	return total / float64(len(ticks))
}

// evaluate scores a snapshot additively and grades the alert level.
// Alerts require both the minimum score and the volume-ratio floor.
func (d *Detector) evaluate(s StreamSnapshot) (UnusualActivity, bool) {
	score := 0
	var reasons []string

	switch {
	case s.VolumeRatio >= 10:
		score += 4
		reasons = append(reasons, fmt.Sprintf("volume %.1fx the historical average", s.VolumeRatio))
	case s.VolumeRatio >= 5:
		score += 3
		reasons = append(reasons, fmt.Sprintf("volume %.1fx the historical average", s.VolumeRatio))
	case s.VolumeRatio >= 2:
		score += 2
		reasons = append(reasons, fmt.Sprintf("volume %.1fx the historical average", s.VolumeRatio))
	}

	magnitude := math.Abs(s.PriceChangePercent)
	switch {
	case magnitude >= 10:
		score += 3
		reasons = append(reasons, fmt.Sprintf("price moved %.1f%% inside the window", s.PriceChangePercent))
	case magnitude >= 5:
		score += 2
		reasons = append(reasons, fmt.Sprintf("price moved %.1f%% inside the window", s.PriceChangePercent))
	case magnitude >= 2:
		score++
		reasons = append(reasons, fmt.Sprintf("price moved %.1f%% inside the window", s.PriceChangePercent))
	}

	switch {
	case s.LargeTradeCount >= 2:
		score += 2
		reasons = append(reasons, fmt.Sprintf("%d large trades totalling %.0f", s.LargeTradeCount, s.LargeTradeValue))
	case s.LargeTradeCount >= 1:
		score++
		reasons = append(reasons, fmt.Sprintf("1 large trade of %.0f", s.LargeTradeValue))
	}

	if s.TradeCount > 0 && (s.BuyPressure >= 0.8 || s.BuyPressure <= 0.2) {
		score++
		reasons = append(reasons, fmt.Sprintf("one-sided tape, buy pressure %.2f", s.BuyPressure))
	}
	if s.Accelerating {
		score++
		reasons = append(reasons, "volume accelerating trade over trade")
	}

	if score < d.config.MinScore || s.VolumeRatio < d.config.MinVolumeRatio {
		return UnusualActivity{}, false
	}

	level := LevelNotable
	switch {
	case score >= 8:
		level = LevelExtreme
	case score >= 6:
		level = LevelStrong
	}

	return UnusualActivity{
		Symbol:             s.Symbol,
		Score:              score,
		Level:              level,
		VolumeRatio:        s.VolumeRatio,
		PriceChangePercent: s.PriceChangePercent,
		LargeTradeCount:    s.LargeTradeCount,
		BuyPressure:        s.BuyPressure,
		Accelerating:       s.Accelerating,
		Reasons:            reasons,
		Timestamp:          time.Now(),
	}, true
}
