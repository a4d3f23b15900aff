package scanner

import (
	"context"
	"errors"
	"testing"

	"trading-assistant/internal/events"
	"trading-assistant/internal/marketdata"
)

type staticWatchlist struct {
	symbols []string
	err     error
}

func (s staticWatchlist) GetWatchlist(_ context.Context) ([]string, error) {
	return s.symbols, s.err
}

func seedStrongSymbol(mock *marketdata.MockClient, symbol string, price float64) {
	mock.SetQuote(symbol, marketdata.Quote{
		Price:         price,
		Volume:        2_000_000,
		AverageVolume: 600_000,
		ChangePercent: 3.0,
	})
	mock.SetTechnicals(symbol, marketdata.Technicals{
		SMA20:      price * 0.96,
		SMA50:      price * 0.90,
		SMA200:     price * 0.80,
		RSI:        60,
		High52Week: price / 0.90, // 90% proximity, inside the band
	})
}

func seedWeakSymbol(mock *marketdata.MockClient, symbol string) {
	mock.SetQuote(symbol, marketdata.Quote{
		Price:         500.0, // above the price ceiling
		Volume:        100_000,
		AverageVolume: 300_000,
		ChangePercent: 12.0,
	})
}

func TestScanRanksCandidates(t *testing.T) {
	mock := marketdata.NewMockClient()
	seedStrongSymbol(mock, "AAPL", 50.0)
	seedStrongSymbol(mock, "MSFT", 60.0)
	seedWeakSymbol(mock, "XYZ")

	config := DefaultConfig()
	config.Watchlist = []string{"AAPL", "XYZ"}

	scanner := NewScanner(mock, staticWatchlist{symbols: []string{"MSFT", "AAPL"}}, events.NewEventBus(), config, nil)
	result := scanner.Scan()

	// AAPL appears once despite being in both lists.
	if result.SymbolsScanned != 3 {
		t.Errorf("expected 3 symbols scanned, got %d", result.SymbolsScanned)
	}
	if len(result.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %+v", len(result.Candidates), result.Candidates)
	}
	for _, candidate := range result.Candidates {
		if candidate.Symbol == "XYZ" {
			t.Error("weak symbol must not become a candidate")
		}
		if !candidate.Score.IsGoodSetup {
			t.Errorf("%s candidate is not a good setup", candidate.Symbol)
		}
	}
	// Descending score order.
	if result.Candidates[0].Score.Score < result.Candidates[1].Score.Score {
		t.Error("candidates must be sorted by score descending")
	}

	if scanner.GetLastResult() != result {
		t.Error("last result must be retained")
	}
}

func TestScanSkipsFailingSymbols(t *testing.T) {
	mock := marketdata.NewMockClient()
	seedStrongSymbol(mock, "AAPL", 50.0)
	mock.FailWith("quote", errors.New("provider down"))

	config := DefaultConfig()
	config.Watchlist = []string{"AAPL"}

	scanner := NewScanner(mock, nil, nil, config, nil)
	result := scanner.Scan()

	if result.SymbolsScanned != 1 {
		t.Errorf("expected 1 symbol scanned, got %d", result.SymbolsScanned)
	}
	if len(result.Candidates) != 0 {
		t.Errorf("quote failures must skip the symbol, got %+v", result.Candidates)
	}
}

func TestScanToleratesWatchlistSourceFailure(t *testing.T) {
	mock := marketdata.NewMockClient()
	seedStrongSymbol(mock, "AAPL", 50.0)

	config := DefaultConfig()
	config.Watchlist = []string{"AAPL"}

	scanner := NewScanner(mock, staticWatchlist{err: errors.New("db down")}, nil, config, nil)
	result := scanner.Scan()

	if result.SymbolsScanned != 1 {
		t.Errorf("static watchlist must still scan, got %d", result.SymbolsScanned)
	}
	if len(result.Candidates) != 1 {
		t.Errorf("expected 1 candidate, got %d", len(result.Candidates))
	}
}
