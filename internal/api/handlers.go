package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"trading-assistant/internal/database"
	"trading-assistant/internal/riskmonitor"
	"trading-assistant/internal/scoring"
)

// ============================================================================
// AUTH HANDLERS
// ============================================================================

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "Username and password are required")
		return
	}

	pair, err := s.authService.Login(req.Username, req.Password)
	if err != nil {
		errorResponse(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	successResponse(c, pair)
}

func (s *Server) handleRefresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "Refresh token is required")
		return
	}

	pair, err := s.authService.Refresh(req.RefreshToken)
	if err != nil {
		errorResponse(c, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}
	successResponse(c, pair)
}

func (s *Server) handleLogout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err == nil {
		s.authService.Logout(req.RefreshToken)
	}
	successResponse(c, gin.H{"message": "Logged out"})
}

// ============================================================================
// ANALYSIS & DECISION HANDLERS
// ============================================================================

type analyzeRequest struct {
	// CompositeScore overrides the momentum-derived score when the
	// operator brings an external screener rating (0-100).
	CompositeScore *float64 `json:"composite_score"`
}

// handleAnalyze runs the full decision pipeline for one symbol
func (s *Server) handleAnalyze(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		errorResponse(c, http.StatusBadRequest, "Symbol is required")
		return
	}

	var req analyzeRequest
	// Body is optional, ignore bind errors on an empty payload
	_ = c.ShouldBindJSON(&req)

	ctx := c.Request.Context()

	quote, err := s.provider.GetQuote(ctx, symbol)
	if err != nil {
		errorResponse(c, http.StatusBadGateway, "Quote unavailable for "+symbol)
		return
	}

	snapshot := scoring.StockSnapshot{
		Symbol:         symbol,
		Price:          quote.Price,
		Volume:         quote.Volume,
		RelativeVolume: quote.RelativeVolume,
		ChangePercent:  quote.ChangePercent,
	}
	if technicals, err := s.provider.GetTechnicals(ctx, symbol); err == nil {
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

	compositeScore := s.compositeScore(snapshot, req.CompositeScore)

	dec, err := s.engine.ValidateTrade(ctx, snapshot, compositeScore)
	if err != nil {
		errorResponse(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if s.repo != nil {
		if err := s.repo.SaveDecision(ctx, dec); err != nil {
			s.logger.Error("Failed to persist decision", "symbol", symbol, "error", err)
		}
	}

	verdict := "PASS"
	if dec.ShouldTrade {
		verdict = "TRADE"
	}
	s.eventBus.PublishDecision(dec.ID, dec.Symbol, verdict, dec.CompositeScore, dec.PositionSize)

	successResponse(c, dec)
}

// compositeScore converts the momentum score into the engine's 0-100
// scale unless the caller supplied one.
func (s *Server) compositeScore(snapshot scoring.StockSnapshot, override *float64) float64 {
	if override != nil {
		return *override
	}
	result, err := scoring.Score(snapshot, s.engine.ScoreConfig())
	if err != nil || result.MaxScore == 0 {
		return 0
	}
	return 100.0 * float64(result.Score) / float64(result.MaxScore)
}

// handleListDecisions returns recent persisted decisions
func (s *Server) handleListDecisions(c *gin.Context) {
	if s.repo == nil {
		errorResponse(c, http.StatusServiceUnavailable, "Database is disabled")
		return
	}

	limit := parseLimit(c, 50)
	decisions, err := s.repo.ListRecentDecisions(c.Request.Context(), limit)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to fetch decisions")
		return
	}
	successResponse(c, decisions)
}

// handlePerformance returns aggregated trade outcome statistics
func (s *Server) handlePerformance(c *gin.Context) {
	if s.repo == nil {
		errorResponse(c, http.StatusServiceUnavailable, "Database is disabled")
		return
	}

	stats, err := s.repo.GetPerformanceStats(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to compute performance stats")
		return
	}
	successResponse(c, stats)
}

type outcomeRequest struct {
	Symbol       string  `json:"symbol" binding:"required"`
	EntryPrice   float64 `json:"entry_price" binding:"required"`
	ExitPrice    float64 `json:"exit_price" binding:"required"`
	PositionSize float64 `json:"position_size" binding:"required"`
}

// handleRecordOutcome records a closed trade against its decision
func (s *Server) handleRecordOutcome(c *gin.Context) {
	if s.repo == nil {
		errorResponse(c, http.StatusServiceUnavailable, "Database is disabled")
		return
	}

	decisionID := c.Param("id")
	var req outcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "Invalid outcome payload")
		return
	}
	if req.EntryPrice <= 0 || req.PositionSize <= 0 {
		errorResponse(c, http.StatusBadRequest, "Entry price and position size must be positive")
		return
	}

	shares := req.PositionSize / req.EntryPrice
	outcome := &database.TradeOutcome{
		DecisionID:   decisionID,
		Symbol:       strings.ToUpper(req.Symbol),
		EntryPrice:   req.EntryPrice,
		ExitPrice:    req.ExitPrice,
		PositionSize: req.PositionSize,
		PnL:          (req.ExitPrice - req.EntryPrice) * shares,
		ClosedAt:     time.Now(),
	}

	if err := s.repo.RecordTradeOutcome(c.Request.Context(), outcome); err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to record outcome")
		return
	}
	successResponse(c, outcome)
}

// ============================================================================
// POSITION RISK HANDLERS
// ============================================================================

// handleRiskPositions assesses every open brokerage position on demand
func (s *Server) handleRiskPositions(c *gin.Context) {
	ctx := c.Request.Context()

	positions, err := s.broker.GetOpenPositions(ctx)
	if err != nil {
		errorResponse(c, http.StatusBadGateway, "Failed to fetch open positions")
		return
	}

	orders, err := s.broker.GetPendingOrders(ctx)
	if err != nil {
		errorResponse(c, http.StatusBadGateway, "Failed to fetch pending orders")
		return
	}

	assessments := make([]riskmonitor.PositionRisk, 0, len(positions))
	for _, position := range positions {
		assessments = append(assessments, riskmonitor.AssessPosition(position, orders, s.thresholds))
	}

	successResponse(c, gin.H{
		"open_positions": len(positions),
		"assessments":    assessments,
	})
}

// ============================================================================
// ALERT HANDLERS
// ============================================================================

// handleListAlerts returns persisted alerts, optionally filtered by source
func (s *Server) handleListAlerts(c *gin.Context) {
	if s.repo == nil {
		errorResponse(c, http.StatusServiceUnavailable, "Database is disabled")
		return
	}

	source := c.Query("source")
	limit := parseLimit(c, 50)

	alerts, err := s.repo.ListRecentAlerts(c.Request.Context(), source, limit)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to fetch alerts")
		return
	}
	successResponse(c, alerts)
}

// ============================================================================
// SCANNER HANDLERS
// ============================================================================

// handleScanResults returns the most recent completed scan
func (s *Server) handleScanResults(c *gin.Context) {
	result := s.scanner.GetLastResult()
	if result == nil {
		errorResponse(c, http.StatusNotFound, "No scan has completed yet")
		return
	}
	successResponse(c, result)
}

// handleRunScan triggers a synchronous scan sweep
func (s *Server) handleRunScan(c *gin.Context) {
	result := s.scanner.Scan()
	successResponse(c, result)
}

// ============================================================================
// WATCHLIST HANDLERS
// ============================================================================

func (s *Server) handleGetWatchlist(c *gin.Context) {
	if s.repo == nil {
		errorResponse(c, http.StatusServiceUnavailable, "Database is disabled")
		return
	}

	symbols, err := s.repo.GetWatchlist(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to fetch watchlist")
		return
	}
	successResponse(c, symbols)
}

func (s *Server) handleAddWatchlist(c *gin.Context) {
	if s.repo == nil {
		errorResponse(c, http.StatusServiceUnavailable, "Database is disabled")
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		errorResponse(c, http.StatusBadRequest, "Symbol is required")
		return
	}

	if err := s.repo.AddToWatchlist(c.Request.Context(), symbol); err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to add symbol")
		return
	}
	successResponse(c, gin.H{"symbol": symbol, "message": "Added to watchlist"})
}

func (s *Server) handleRemoveWatchlist(c *gin.Context) {
	if s.repo == nil {
		errorResponse(c, http.StatusServiceUnavailable, "Database is disabled")
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		errorResponse(c, http.StatusBadRequest, "Symbol is required")
		return
	}

	if err := s.repo.RemoveFromWatchlist(c.Request.Context(), symbol); err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to remove symbol")
		return
	}
	successResponse(c, gin.H{"symbol": symbol, "message": "Removed from watchlist"})
}

// ============================================================================
// FLOW STREAM HANDLERS
// ============================================================================

type flowSubscribeRequest struct {
	BaselineVolume float64 `json:"baseline_volume"`
}

func (s *Server) handleFlowSubscribe(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		errorResponse(c, http.StatusBadRequest, "Symbol is required")
		return
	}

	var req flowSubscribeRequest
	_ = c.ShouldBindJSON(&req)

	// Without an explicit baseline fall back to the vendor's average volume
	if req.BaselineVolume <= 0 {
		if quote, err := s.provider.GetQuote(c.Request.Context(), symbol); err == nil && quote.RelativeVolume > 0 {
			req.BaselineVolume = quote.Volume / quote.RelativeVolume
		}
	}
	if req.BaselineVolume <= 0 {
		errorResponse(c, http.StatusBadRequest, "Baseline volume is required when no quote is available")
		return
	}

	s.detector.Subscribe(symbol, req.BaselineVolume)
	successResponse(c, gin.H{"symbol": symbol, "baseline_volume": req.BaselineVolume})
}

func (s *Server) handleFlowUnsubscribe(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		errorResponse(c, http.StatusBadRequest, "Symbol is required")
		return
	}

	s.detector.Unsubscribe(symbol)
	successResponse(c, gin.H{"symbol": symbol, "message": "Unsubscribed"})
}

func parseLimit(c *gin.Context, fallback int) int {
	limit := fallback
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}
	return limit
}
