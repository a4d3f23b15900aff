package flow

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"trading-assistant/internal/events"
)

func newTestDetector(config Config) *Detector {
	return NewDetector(events.NewEventBus(), config, zerolog.Nop())
}

// TestEvaluateExtreme covers the grading scenario: 12x volume, +11%
// price move and two large trades grade as extreme.
func TestEvaluateExtreme(t *testing.T) {
	detector := newTestDetector(DefaultConfig())

	activity, unusual := detector.evaluate(StreamSnapshot{
		Symbol:             "GME",
		TradeCount:         40,
		VolumeRatio:        12.0,
		PriceChangePercent: 11.0,
		LargeTradeCount:    2,
		LargeTradeValue:    150_000,
		BuyPressure:        0.5,
	})

	if !unusual {
		t.Fatal("expected an alert")
	}
	if activity.Level != LevelExtreme {
		t.Errorf("expected extreme, got %s (score %d)", activity.Level, activity.Score)
	}
	if activity.Score != 9 {
		t.Errorf("expected score 9 (4+3+2), got %d", activity.Score)
	}
	if len(activity.Reasons) != 3 {
		t.Errorf("every triggering dimension must surface a reason, got %v", activity.Reasons)
	}
}

func TestEvaluateVolumeFloor(t *testing.T) {
	detector := newTestDetector(DefaultConfig())

	// Score 5 from price move plus large trades, but volume ratio below
	// the 2x floor.
	_, unusual := detector.evaluate(StreamSnapshot{
		Symbol:             "ACME",
		TradeCount:         20,
		VolumeRatio:        1.5,
		PriceChangePercent: 11.0,
		LargeTradeCount:    2,
		BuyPressure:        0.5,
	})
	if unusual {
		t.Error("volume ratio below the floor must suppress the alert")
	}
}

func TestEvaluateLevels(t *testing.T) {
	detector := newTestDetector(DefaultConfig())

	cases := []struct {
		snapshot StreamSnapshot
		want     AlertLevel
	}{
		// 2 (volume) + 1 (price) + 1 (large) = 4, notable
		{StreamSnapshot{TradeCount: 10, VolumeRatio: 2.5, PriceChangePercent: 3.0, LargeTradeCount: 1, BuyPressure: 0.5}, LevelNotable},
		// 3 (volume) + 2 (price) + 1 (large) = 6, strong
		{StreamSnapshot{TradeCount: 10, VolumeRatio: 6.0, PriceChangePercent: 6.0, LargeTradeCount: 1, BuyPressure: 0.5}, LevelStrong},
	}
	for _, tc := range cases {
		activity, unusual := detector.evaluate(tc.snapshot)
		if !unusual {
			t.Errorf("expected an alert for ratio %.1f", tc.snapshot.VolumeRatio)
			continue
		}
		if activity.Level != tc.want {
			t.Errorf("ratio %.1f: expected %s, got %s (score %d)",
				tc.snapshot.VolumeRatio, tc.want, activity.Level, activity.Score)
		}
	}
}

// TestIngestPipeline feeds ticks through the per-symbol queue and
// expects a single deduplicated alert.
func TestIngestPipeline(t *testing.T) {
	config := DefaultConfig()
	config.AlertCooldown = time.Minute

	detector := newTestDetector(config)
	defer detector.Close()

	alerts := make(chan UnusualActivity, 8)
	detector.OnAlert(func(a UnusualActivity) { alerts <- a })

	// Baseline 10k shares per window; the burst below is ~120k.
	detector.Subscribe("GME", 10_000)

	now := time.Now()
	price := 10.0
	for i := 0; i < 40; i++ {
		price *= 1.003
		tick := TradeTick{
			Symbol:    "GME",
			Price:     price,
			Volume:    3_000,
			IsBuy:     true,
			Timestamp: now.Add(time.Duration(i) * time.Second),
		}
		if i >= 38 {
			tick.Volume = 6_000 // two large prints at the end
		}
		detector.Ingest(tick)
	}

	select {
	case activity := <-alerts:
		if activity.Symbol != "GME" {
			t.Errorf("unexpected symbol %s", activity.Symbol)
		}
		if activity.VolumeRatio < 2.0 {
			t.Errorf("volume ratio %.1f below floor should not have alerted", activity.VolumeRatio)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected an alert from the tick burst")
	}

	// The cooldown suppresses repeats within the window.
	detector.Ingest(TradeTick{Symbol: "GME", Price: price, Volume: 50_000, IsBuy: true, Timestamp: now.Add(time.Minute)})
	deadline := time.After(300 * time.Millisecond)
	extra := 0
	for {
		select {
		case <-alerts:
			extra++
		case <-deadline:
			if extra > 0 {
				t.Errorf("expected cooldown to suppress repeats, got %d extra alerts", extra)
			}
			return
		}
	}
}

func TestWindowEviction(t *testing.T) {
	detector := newTestDetector(DefaultConfig())
	state := &symbolState{baseline: 1_000_000}

	now := time.Now()
	detector.process(state, TradeTick{Symbol: "ACME", Price: 10, Volume: 100, Timestamp: now.Add(-10 * time.Minute)})
	detector.process(state, TradeTick{Symbol: "ACME", Price: 10, Volume: 100, Timestamp: now.Add(-6 * time.Minute)})
	detector.process(state, TradeTick{Symbol: "ACME", Price: 10, Volume: 100, Timestamp: now})

	if len(state.window) != 1 {
		t.Errorf("ticks older than the window must be evicted, kept %d", len(state.window))
	}
}

func TestIngestDropsWhenQueueFull(t *testing.T) {
	config := DefaultConfig()
	config.QueueSize = 1

	detector := NewDetector(nil, config, zerolog.Nop())
	// No consumer: register state directly so the queue backs up.
	detector.symbols["ACME"] = &symbolState{
		ticks: make(chan TradeTick, config.QueueSize),
		done:  make(chan struct{}),
	}

	tick := TradeTick{Symbol: "ACME", Price: 10, Volume: 1, Timestamp: time.Now()}
	detector.Ingest(tick)
	detector.Ingest(tick)

	if detector.Dropped() != 1 {
		t.Errorf("expected 1 dropped tick, got %d", detector.Dropped())
	}
}
