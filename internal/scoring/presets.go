package scoring

// Named threshold presets. Callers select one explicitly; there is no
// process-wide default.

// EarlyDetection is tuned to catch setups still in their building phase.
// 16-point scale.
func EarlyDetection() ThresholdConfig {
	return ThresholdConfig{
		Name:              "early_detection",
		MaxPrice:          100.0,
		MinVolume:         500_000,
		MinRelativeVolume: 1.5,
		MinHighProximity:  85.0,
		MaxHighProximity:  98.0,
		MinChange:         -2.0,
		MaxChange:         6.0,

		EarlyBreakoutThreshold: 10,
		GoodSetupThreshold:     8,

		Weights: DimensionWeights{
			PriceCeiling:     2,
			VolumeFloor:      2,
			RelativeVolume:   2,
			ProximityFull:    3,
			ProximityPartial: 1,
			AboveShortSMAs:   2,
			AboveLongSMA:     2,
			PerfectAlignment: 1,
			RecentMovement:   2,
		},
	}
}

// Classic is the original breakout screen: confirmed moves only, no
// alignment bonus. 13-point scale.
func Classic() ThresholdConfig {
	return ThresholdConfig{
		Name:              "classic",
		MaxPrice:          100.0,
		MinVolume:         1_000_000,
		MinRelativeVolume: 2.0,
		MinHighProximity:  90.0,
		MaxHighProximity:  100.0,
		MinChange:         2.0,
		MaxChange:         10.0,

		EarlyBreakoutThreshold: 9,
		GoodSetupThreshold:     7,

		Weights: DimensionWeights{
			PriceCeiling:     2,
			VolumeFloor:      2,
			RelativeVolume:   2,
			ProximityFull:    2,
			ProximityPartial: 1,
			AboveShortSMAs:   2,
			AboveLongSMA:     2,
			PerfectAlignment: 0,
			RecentMovement:   1,
		},
	}
}

// Conservative keeps the early-detection scale but demands more of every
// dimension before flagging a breakout.
func Conservative() ThresholdConfig {
	cfg := EarlyDetection()
	cfg.Name = "conservative"
	cfg.MinVolume = 1_000_000
	cfg.MinRelativeVolume = 2.0
	cfg.MinHighProximity = 88.0
	cfg.MaxHighProximity = 96.0
	cfg.MinChange = -1.0
	cfg.MaxChange = 4.0
	cfg.EarlyBreakoutThreshold = 12
	cfg.GoodSetupThreshold = 10
	return cfg
}

// Aggressive widens the bands and lowers the thresholds for traders who
// accept more false positives in exchange for earlier entries.
func Aggressive() ThresholdConfig {
	cfg := EarlyDetection()
	cfg.Name = "aggressive"
	cfg.MaxPrice = 200.0
	cfg.MinVolume = 250_000
	cfg.MinRelativeVolume = 1.2
	cfg.MinHighProximity = 80.0
	cfg.MaxHighProximity = 99.0
	cfg.MinChange = -3.0
	cfg.MaxChange = 8.0
	cfg.EarlyBreakoutThreshold = 9
	cfg.GoodSetupThreshold = 7
	return cfg
}

// PresetByName returns the named preset, or false when unknown.
func PresetByName(name string) (ThresholdConfig, bool) {
	switch name {
	case "early_detection":
		return EarlyDetection(), true
	case "classic":
		return Classic(), true
	case "conservative":
		return Conservative(), true
	case "aggressive":
		return Aggressive(), true
	default:
		return ThresholdConfig{}, false
	}
}
