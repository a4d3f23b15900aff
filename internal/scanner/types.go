package scanner

import (
	"time"

	"trading-assistant/internal/scoring"
)

// Config tunes the watchlist scanner
type Config struct {
	Enabled       bool          `json:"enabled"`
	ScanInterval  time.Duration `json:"scan_interval"`
	WorkerCount   int           `json:"worker_count"`
	MaxCandidates int           `json:"max_candidates"` // top results kept per scan
	Watchlist     []string      `json:"watchlist"`
	Preset        string        `json:"preset"` // scoring preset name
}

// DefaultConfig returns the standard scanner tuning
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		ScanInterval:  2 * time.Minute,
		WorkerCount:   4,
		MaxCandidates: 10,
		Preset:        "early_detection",
	}
}

// Candidate is one symbol that scored as at least a good setup
type Candidate struct {
	Symbol     string               `json:"symbol"`
	Price      float64              `json:"price"`
	Score      *scoring.ScoreResult `json:"score"`
	EvaluatedAt time.Time           `json:"evaluated_at"`
}

// ScanResult summarizes one scan cycle
type ScanResult struct {
	ScanID         string        `json:"scan_id"`
	StartTime      time.Time     `json:"start_time"`
	EndTime        time.Time     `json:"end_time"`
	Duration       time.Duration `json:"duration"`
	SymbolsScanned int           `json:"symbols_scanned"`
	Candidates     []Candidate   `json:"candidates"`
}
