package scoring

import (
	"reflect"
	"testing"
)

func buildingSnapshot() StockSnapshot {
	return StockSnapshot{
		Symbol:         "ACME",
		Price:          50.0,
		Volume:         2_000_000,
		RelativeVolume: 2.5,
		ChangePercent:  1.5,
		Technicals: &TechnicalData{
			SMA20:         48.0,
			SMA50:         45.0,
			SMA200:        40.0,
			HighProximity: 92.0,
			RSI:           58.0,
		},
	}
}

func TestScorePerfectSetup(t *testing.T) {
	cfg := EarlyDetection()
	result, err := Score(buildingSnapshot(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Score != cfg.MaxScore() {
		t.Errorf("expected max score %d, got %d", cfg.MaxScore(), result.Score)
	}
	if result.MaxScore != 16 {
		t.Errorf("early detection preset should be 16-point, got %d", result.MaxScore)
	}
	if !result.IsEarlyBreakout || !result.IsGoodSetup {
		t.Error("perfect setup should flag early breakout and good setup")
	}
	if result.Confidence != ConfidenceHigh {
		t.Errorf("expected HIGH confidence, got %s", result.Confidence)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", result.Warnings)
	}
}

func TestScoreDeterministic(t *testing.T) {
	snap := buildingSnapshot()
	cfg := EarlyDetection()

	first, err := Score(snap, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Score(snap, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("same input must produce identical results, including rationale order")
	}
}

// TestScoreEarlyBreakoutBoundary verifies the decision boundary at the
// early-breakout threshold of 10 on the 16-point scale.
func TestScoreEarlyBreakoutBoundary(t *testing.T) {
	cfg := EarlyDetection()
	if cfg.EarlyBreakoutThreshold != 10 {
		t.Fatalf("expected threshold 10, got %d", cfg.EarlyBreakoutThreshold)
	}

	// Price, volume, relative volume and proximity pass (2+2+2+3);
	// moving averages and movement fail.
	nine := buildingSnapshot()
	nine.ChangePercent = -5.0 // below movement band
	nine.Technicals.SMA20 = 60.0
	nine.Technicals.SMA50 = 62.0
	nine.Technicals.SMA200 = 55.0

	result, err := Score(nine, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Score != 9 {
		t.Fatalf("expected score 9, got %d", result.Score)
	}
	if result.IsEarlyBreakout {
		t.Error("score 9 must not be an early breakout at threshold 10")
	}

	// Price, volume, relative volume, short SMAs and movement pass
	// (2+2+2+2+2); proximity is below the band and SMA200 is missing.
	ten := buildingSnapshot()
	ten.Technicals.HighProximity = 60.0
	ten.Technicals.SMA200 = 0

	result, err = Score(ten, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Score != 10 {
		t.Fatalf("expected score 10, got %d", result.Score)
	}
	if !result.IsEarlyBreakout {
		t.Error("score 10 must be an early breakout at threshold 10")
	}
}

// TestScoreMonotonicRelativeVolume verifies that the score never decreases
// as relative volume rises while everything else is held fixed.
func TestScoreMonotonicRelativeVolume(t *testing.T) {
	cfg := EarlyDetection()
	prev := -1
	for _, rv := range []float64{0.5, 1.0, 1.5, 2.0, 5.0, 20.0} {
		snap := buildingSnapshot()
		snap.RelativeVolume = rv
		result, err := Score(snap, cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Score < prev {
			t.Errorf("score decreased from %d to %d at relative volume %.1f", prev, result.Score, rv)
		}
		prev = result.Score
	}
}

// TestScoreMonotonicProximity verifies that moving from below the proximity
// band into it never reduces the score.
func TestScoreMonotonicProximity(t *testing.T) {
	cfg := EarlyDetection()
	prev := -1
	for _, p := range []float64{50.0, 70.0, 85.0, 92.0, 98.0} {
		snap := buildingSnapshot()
		snap.Technicals.HighProximity = p
		result, err := Score(snap, cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Score < prev {
			t.Errorf("score decreased from %d to %d at proximity %.1f", prev, result.Score, p)
		}
		prev = result.Score
	}
}

func TestScoreMissingTechnicals(t *testing.T) {
	snap := buildingSnapshot()
	snap.Technicals = nil

	result, err := Score(snap, EarlyDetection())
	if err != nil {
		t.Fatalf("missing technicals must degrade, not fail: %v", err)
	}

	// Only the three binary dims plus movement remain attainable.
	if result.Score != 8 {
		t.Errorf("expected score 8 without technicals, got %d", result.Score)
	}
	if result.Criteria.HighProximity || result.Criteria.TrendAlignment {
		t.Error("technical criteria must not pass without technical data")
	}
	if len(result.Warnings) == 0 {
		t.Error("missing technicals must surface warnings")
	}
}

func TestScoreLateEntryPartialCredit(t *testing.T) {
	cfg := EarlyDetection()
	snap := buildingSnapshot()
	snap.Technicals.HighProximity = 99.5 // above the band

	result, err := Score(snap, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Full credit minus the proximity difference (3 full vs 1 partial).
	if result.Score != cfg.MaxScore()-2 {
		t.Errorf("expected partial proximity credit, got score %d of %d", result.Score, cfg.MaxScore())
	}
	found := false
	for _, w := range result.Warnings {
		if w == "at 99.5% of recent high, already broken out, late entry" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected late-entry warning, got %v", result.Warnings)
	}
}

func TestScoreInputValidation(t *testing.T) {
	cfg := EarlyDetection()

	if _, err := Score(StockSnapshot{Price: 10}, cfg); err != ErrNoSymbol {
		t.Errorf("expected ErrNoSymbol, got %v", err)
	}
	if _, err := Score(StockSnapshot{Symbol: "ACME", Price: 0}, cfg); err != ErrInvalidPrice {
		t.Errorf("expected ErrInvalidPrice, got %v", err)
	}
}

func TestPresetScales(t *testing.T) {
	if got := EarlyDetection().MaxScore(); got != 16 {
		t.Errorf("early detection scale should be 16, got %d", got)
	}
	if got := Classic().MaxScore(); got != 13 {
		t.Errorf("classic scale should be 13, got %d", got)
	}
	if _, ok := PresetByName("classic"); !ok {
		t.Error("classic preset should resolve by name")
	}
	if _, ok := PresetByName("unknown"); ok {
		t.Error("unknown preset must not resolve")
	}
}
