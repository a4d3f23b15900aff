package scanner

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"trading-assistant/internal/events"
	"trading-assistant/internal/logging"
	"trading-assistant/internal/marketdata"
	"trading-assistant/internal/scoring"
)

// WatchlistSource supplies extra symbols beyond the static config list.
// The database repository implements this; a nil source is allowed.
type WatchlistSource interface {
	GetWatchlist(ctx context.Context) ([]string, error)
}

// Scanner sweeps the watchlist on an interval, scores every symbol with
// the configured preset and publishes the top candidates.
type Scanner struct {
	provider    marketdata.Provider
	watchlist   WatchlistSource
	bus         *events.EventBus
	scoreConfig scoring.ThresholdConfig
	config      Config
	logger      *logging.Logger

	stopChan   chan struct{}
	wg         sync.WaitGroup
	mu         sync.RWMutex
	lastResult *ScanResult
}

// NewScanner creates a watchlist scanner
func NewScanner(
	provider marketdata.Provider,
	watchlist WatchlistSource,
	bus *events.EventBus,
	config Config,
	logger *logging.Logger,
) *Scanner {
	if logger == nil {
		logger = logging.Default()
	}
	scoreConfig, ok := scoring.PresetByName(config.Preset)
	if !ok {
		scoreConfig = scoring.EarlyDetection()
	}
	return &Scanner{
		provider:    provider,
		watchlist:   watchlist,
		bus:         bus,
		scoreConfig: scoreConfig,
		config:      config,
		logger:      logger.WithComponent("scanner"),
		stopChan:    make(chan struct{}),
	}
}

// Start begins the background scan loop
func (sc *Scanner) Start() {
	if !sc.config.Enabled {
		sc.logger.Info("Watchlist scanner is disabled")
		return
	}

	sc.wg.Add(1)
	go sc.runScanLoop()
	sc.logger.Info("Watchlist scanner started", "interval", sc.config.ScanInterval.String())
}

// Stop gracefully shuts down the scanner
func (sc *Scanner) Stop() {
	close(sc.stopChan)
	sc.wg.Wait()
}

func (sc *Scanner) runScanLoop() {
	defer sc.wg.Done()

	ticker := time.NewTicker(sc.config.ScanInterval)
	defer ticker.Stop()

	// Run immediately
	sc.scan()

	for {
		select {
		case <-ticker.C:
			sc.scan()
		case <-sc.stopChan:
			sc.logger.Info("Watchlist scanner stopped")
			return
		}
	}
}

// Scan executes a single scan cycle (public method for manual triggering)
func (sc *Scanner) Scan() *ScanResult {
	return sc.scan()
}

func (sc *Scanner) scan() *ScanResult {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	startTime := time.Now()
	scanID := fmt.Sprintf("scan-%d", startTime.Unix())

	symbols := sc.symbolsToScan(ctx)

	symbolChan := make(chan string, len(symbols))
	resultChan := make(chan Candidate, len(symbols))
	var wg sync.WaitGroup

	for i := 0; i < sc.config.WorkerCount; i++ {
		wg.Add(1)
		go sc.worker(ctx, symbolChan, resultChan, &wg)
	}

	go func() {
		for _, symbol := range symbols {
			select {
			case symbolChan <- symbol:
			case <-ctx.Done():
			}
		}
		close(symbolChan)
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	candidates := []Candidate{}
	for candidate := range resultChan {
		candidates = append(candidates, candidate)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Score.Score > candidates[j].Score.Score
	})
	if len(candidates) > sc.config.MaxCandidates {
		candidates = candidates[:sc.config.MaxCandidates]
	}

	result := &ScanResult{
		ScanID:         scanID,
		StartTime:      startTime,
		EndTime:        time.Now(),
		Duration:       time.Since(startTime),
		SymbolsScanned: len(symbols),
		Candidates:     candidates,
	}

	sc.mu.Lock()
	sc.lastResult = result
	sc.mu.Unlock()

	if sc.bus != nil {
		sc.bus.PublishScanUpdate(result.SymbolsScanned, result.Candidates)
	}
	sc.logger.Info("Scan complete",
		"scan_id", scanID,
		"scanned", result.SymbolsScanned,
		"candidates", len(candidates),
		"duration", result.Duration.String())
	return result
}

func (sc *Scanner) worker(ctx context.Context, symbolChan <-chan string, resultChan chan<- Candidate, wg *sync.WaitGroup) {
	defer wg.Done()

	for symbol := range symbolChan {
		select {
		case <-ctx.Done():
			return
		default:
			sc.scanSymbol(ctx, symbol, resultChan)
		}
	}
}

// scanSymbol scores one symbol; only good setups become candidates.
// Provider failures skip the symbol rather than aborting the scan.
func (sc *Scanner) scanSymbol(ctx context.Context, symbol string, resultChan chan<- Candidate) {
	quote, err := sc.provider.GetQuote(ctx, symbol)
	if err != nil {
		sc.logger.Debug("Quote unavailable, skipping", "symbol", symbol, "error", err)
		return
	}

	snapshot := scoring.StockSnapshot{
		Symbol:         symbol,
		Price:          quote.Price,
		Volume:         quote.Volume,
		RelativeVolume: quote.RelativeVolume,
		ChangePercent:  quote.ChangePercent,
	}
	if technicals, err := sc.provider.GetTechnicals(ctx, symbol); err == nil {
		proximity := 0.0
		if technicals.High52Week > 0 {
			proximity = 100.0 * quote.Price / technicals.High52Week
		}
		snapshot.Technicals = &scoring.TechnicalData{
			SMA20:         technicals.SMA20,
			SMA50:         technicals.SMA50,
			SMA200:        technicals.SMA200,
			HighProximity: proximity,
			RSI:           technicals.RSI,
		}
	}

	score, err := scoring.Score(snapshot, sc.scoreConfig)
	if err != nil {
		sc.logger.Debug("Scoring failed, skipping", "symbol", symbol, "error", err)
		return
	}
	if !score.IsGoodSetup {
		return
	}
	resultChan <- Candidate{
		Symbol:      symbol,
		Price:       quote.Price,
		Score:       score,
		EvaluatedAt: time.Now(),
	}
}

// symbolsToScan merges the static watchlist with the dynamic source,
// preserving order and dropping duplicates.
func (sc *Scanner) symbolsToScan(ctx context.Context) []string {
	seen := make(map[string]bool)
	symbols := []string{}
	add := func(symbol string) {
		if symbol != "" && !seen[symbol] {
			seen[symbol] = true
			symbols = append(symbols, symbol)
		}
	}

	for _, symbol := range sc.config.Watchlist {
		add(symbol)
	}
	if sc.watchlist != nil {
		extra, err := sc.watchlist.GetWatchlist(ctx)
		if err != nil {
			sc.logger.Warn("Watchlist source unavailable", "error", err)
		} else {
			for _, symbol := range extra {
				add(symbol)
			}
		}
	}
	return symbols
}

// GetLastResult returns the most recent scan result
func (sc *Scanner) GetLastResult() *ScanResult {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.lastResult
}
