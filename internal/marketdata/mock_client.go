package marketdata

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockClient is a deterministic in-memory Provider. It backs mock mode when
// no vendor is configured and the package tests.
type MockClient struct {
	mu         sync.RWMutex
	quotes     map[string]*Quote
	bars       map[string][]Bar
	technicals map[string]*Technicals
	news       map[string][]Article

	// Per-call forced failures, keyed by "quote", "bars", "technicals", "news".
	failures map[string]error
}

// NewMockClient creates an empty mock provider
func NewMockClient() *MockClient {
	return &MockClient{
		quotes:     make(map[string]*Quote),
		bars:       make(map[string][]Bar),
		technicals: make(map[string]*Technicals),
		news:       make(map[string][]Article),
		failures:   make(map[string]error),
	}
}

// SetQuote registers a quote for a symbol
func (m *MockClient) SetQuote(symbol string, quote Quote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	quote.Symbol = symbol
	if quote.AverageVolume > 0 {
		quote.RelativeVolume = quote.Volume / quote.AverageVolume
	}
	m.quotes[symbol] = &quote
}

// SetBars registers daily bars for a symbol
func (m *MockClient) SetBars(symbol string, bars []Bar) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bars[symbol] = bars
}

// SetTechnicals registers technicals for a symbol
func (m *MockClient) SetTechnicals(symbol string, technicals Technicals) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.technicals[symbol] = &technicals
}

// SetNews registers news articles for a symbol
func (m *MockClient) SetNews(symbol string, articles []Article) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.news[symbol] = articles
}

// FailWith forces the named call ("quote", "bars", "technicals", "news") to
// return the given error. Pass nil to clear.
func (m *MockClient) FailWith(call string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, call)
		return
	}
	m.failures[call] = err
}

func (m *MockClient) GetQuote(_ context.Context, symbol string) (*Quote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failures["quote"]; err != nil {
		return nil, err
	}
	quote, ok := m.quotes[symbol]
	if !ok {
		return nil, fmt.Errorf("no quote for %s", symbol)
	}
	copied := *quote
	return &copied, nil
}

func (m *MockClient) GetHistoricalBars(_ context.Context, symbol string, days int) ([]Bar, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failures["bars"]; err != nil {
		return nil, err
	}
	bars, ok := m.bars[symbol]
	if !ok {
		return nil, fmt.Errorf("no bars for %s", symbol)
	}
	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	out := make([]Bar, len(bars))
	copy(out, bars)
	return out, nil
}

func (m *MockClient) GetTechnicals(_ context.Context, symbol string) (*Technicals, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failures["technicals"]; err != nil {
		return nil, err
	}
	technicals, ok := m.technicals[symbol]
	if !ok {
		return nil, fmt.Errorf("no technicals for %s", symbol)
	}
	copied := *technicals
	return &copied, nil
}

func (m *MockClient) GetNews(_ context.Context, symbol string, limit int) ([]Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failures["news"]; err != nil {
		return nil, err
	}
	articles := m.news[symbol]
	if len(articles) > limit {
		articles = articles[:limit]
	}
	out := make([]Article, len(articles))
	copy(out, articles)
	return out, nil
}

// GenerateBars builds a deterministic uptrending bar series ending today,
// useful for mock mode and volatility tests.
func GenerateBars(days int, startPrice, dailyRangePercent float64) []Bar {
	bars := make([]Bar, days)
	price := startPrice
	day := time.Now().AddDate(0, 0, -days)
	for i := 0; i < days; i++ {
		spread := price * dailyRangePercent / 100
		bars[i] = Bar{
			Date:   day.AddDate(0, 0, i),
			Open:   price,
			High:   price + spread,
			Low:    price - spread,
			Close:  price + spread/2,
			Volume: 1_000_000,
		}
		price = bars[i].Close
	}
	return bars
}
