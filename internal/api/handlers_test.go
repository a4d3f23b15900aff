package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"trading-assistant/internal/analysis"
	"trading-assistant/internal/auth"
	"trading-assistant/internal/broker"
	"trading-assistant/internal/decision"
	"trading-assistant/internal/events"
	"trading-assistant/internal/flow"
	"trading-assistant/internal/logging"
	"trading-assistant/internal/marketdata"
	"trading-assistant/internal/riskmonitor"
	"trading-assistant/internal/scanner"
	"trading-assistant/internal/scoring"
)

func newTestServer(t *testing.T, provider *marketdata.MockClient, brokerClient *broker.MockClient, authService *auth.Service) *Server {
	t.Helper()

	bus := events.NewEventBus()
	logger := logging.New(&logging.Config{Level: "error"})

	aggregator := analysis.NewAggregator(provider, analysis.DefaultConfig(), logger)
	engine := decision.NewEngine(aggregator, scoring.EarlyDetection(), decision.DefaultRiskParameters(), logger)

	scanConfig := scanner.DefaultConfig()
	scanConfig.Watchlist = []string{"AAPL"}
	watchScanner := scanner.NewScanner(provider, nil, bus, scanConfig, logger)

	monitor := riskmonitor.NewMonitor(brokerClient, bus, riskmonitor.DefaultConfig(), zerolog.Nop())
	detector := flow.NewDetector(bus, flow.DefaultConfig(), zerolog.Nop())
	t.Cleanup(detector.Close)

	return NewServer(
		ServerConfig{Port: 0, Host: "127.0.0.1", ProductionMode: true},
		nil, // database disabled
		bus,
		engine,
		provider,
		watchScanner,
		monitor,
		brokerClient,
		detector,
		riskmonitor.DefaultThresholds(),
		authService,
		logger,
	)
}

func seedAnalyzableSymbol(provider *marketdata.MockClient, symbol string) {
	provider.SetQuote(symbol, marketdata.Quote{
		Symbol:         symbol,
		Price:          50.0,
		Volume:         2_000_000,
		RelativeVolume: 3.0,
		ChangePercent:  3.0,
	})
	provider.SetTechnicals(symbol, marketdata.Technicals{
		SMA20:      48.0,
		SMA50:      45.0,
		SMA200:     40.0,
		RSI:        60.0,
		MACD:       0.8,
		MACDSignal: 0.5,
		High52Week: 52.0,
	})
	provider.SetBars(symbol, marketdata.GenerateBars(40, 45.0, 3.0))
	provider.SetNews(symbol, []marketdata.Article{{
		Headline:    symbol + " beats earnings expectations",
		PublishedAt: time.Now().Add(-2 * time.Hour),
	}})
}

func TestHealthWithoutDatabase(t *testing.T) {
	srv := newTestServer(t, marketdata.NewMockClient(), broker.NewMockClient(), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["database"] != "disabled" {
		t.Errorf("expected database=disabled, got %v", body["database"])
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	provider := marketdata.NewMockClient()
	seedAnalyzableSymbol(provider, "NVDA")
	srv := newTestServer(t, provider, broker.NewMockClient(), nil)

	payload := bytes.NewBufferString(`{"composite_score": 82}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze/nvda", payload)
	req.Header.Set("Content-Type", "application/json")
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Success bool                   `json:"success"`
		Data    decision.TradeDecision `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body.Data.Symbol != "NVDA" {
		t.Errorf("expected symbol NVDA, got %q", body.Data.Symbol)
	}
	if !body.Data.ShouldTrade {
		t.Errorf("expected an approved trade, warnings: %v", body.Data.Warnings)
	}
	if body.Data.PositionSize <= 0 {
		t.Errorf("expected a positive position size, got %f", body.Data.PositionSize)
	}
}

func TestAnalyzeUnknownSymbol(t *testing.T) {
	srv := newTestServer(t, marketdata.NewMockClient(), broker.NewMockClient(), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze/ZZZZ", nil)
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 for unknown symbol, got %d", w.Code)
	}
}

func TestRiskPositionsEndpoint(t *testing.T) {
	brokerClient := broker.NewMockClient()
	brokerClient.SetPositions([]broker.Position{{
		Ticker:        "TSLA",
		Quantity:      10,
		AvgEntryPrice: 100.0,
		CurrentPrice:  95.5,
		UnrealizedPL:  -45.0,
	}})
	srv := newTestServer(t, marketdata.NewMockClient(), brokerClient, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/risk/positions", nil)
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Data struct {
			OpenPositions int                        `json:"open_positions"`
			Assessments   []riskmonitor.PositionRisk `json:"assessments"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body.Data.OpenPositions != 1 || len(body.Data.Assessments) != 1 {
		t.Fatalf("expected one assessed position, got %+v", body.Data)
	}
	if body.Data.Assessments[0].Level != riskmonitor.RiskDanger {
		t.Errorf("expected DANGER at -4.5%%, got %s", body.Data.Assessments[0].Level)
	}
}

func TestScanEndpoints(t *testing.T) {
	provider := marketdata.NewMockClient()
	seedAnalyzableSymbol(provider, "AAPL")
	srv := newTestServer(t, provider, broker.NewMockClient(), nil)

	// No scan has run yet
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/scan/results", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before first scan, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/scan", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from manual scan, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/scan/results", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 after scan, got %d", w.Code)
	}
}

func TestAuthProtectedRoutes(t *testing.T) {
	passwords := auth.NewPasswordManager(4, 8)
	tokens := auth.NewJWTManager("test-signing-key-at-least-32-chars", 15*time.Minute, 24*time.Hour)
	authService, err := auth.NewService("operator", "S3cure!pass", passwords, tokens)
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}

	provider := marketdata.NewMockClient()
	seedAnalyzableSymbol(provider, "AAPL")
	srv := newTestServer(t, provider, broker.NewMockClient(), authService)

	// Unauthenticated request is rejected
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/scan/results", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	// Login and retry with the access token
	loginBody := bytes.NewBufferString(`{"username":"operator","password":"S3cure!pass"}`)
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", loginBody)
	req.Header.Set("Content-Type", "application/json")
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", w.Code, w.Body.String())
	}

	var login struct {
		Data auth.TokenPair `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &login); err != nil {
		t.Fatalf("invalid login body: %v", err)
	}
	if login.Data.AccessToken == "" {
		t.Fatal("expected an access token")
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/scan", nil)
	req.Header.Set("Authorization", "Bearer "+login.Data.AccessToken)
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRateLimiterWindow(t *testing.T) {
	rl := NewRateLimiter(2, 50*time.Millisecond)

	if !rl.Allow("/api/analyze") || !rl.Allow("/api/analyze") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("/api/analyze") {
		t.Fatal("third request inside the window should be rejected")
	}
	// Separate keys have separate budgets
	if !rl.Allow("/api/other") {
		t.Fatal("different key should not share the budget")
	}

	time.Sleep(60 * time.Millisecond)
	if !rl.Allow("/api/analyze") {
		t.Fatal("request after the window should pass")
	}
}
