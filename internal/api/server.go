package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"trading-assistant/internal/auth"
	"trading-assistant/internal/broker"
	"trading-assistant/internal/database"
	"trading-assistant/internal/decision"
	"trading-assistant/internal/events"
	"trading-assistant/internal/flow"
	"trading-assistant/internal/logging"
	"trading-assistant/internal/marketdata"
	"trading-assistant/internal/riskmonitor"
	"trading-assistant/internal/scanner"
)

// RateLimiter implements a simple sliding-window rate limiter per key
type RateLimiter struct {
	requests map[string][]time.Time
	mu       sync.Mutex
	limit    int
	window   time.Duration
}

// NewRateLimiter creates a rate limiter
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

// Allow reports whether a request for the given key fits in the window
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	recent := rl.requests[key][:0]
	for _, t := range rl.requests[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= rl.limit {
		rl.requests[key] = recent
		return false
	}

	rl.requests[key] = append(recent, now)
	return true
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int    `json:"port"`
	Host           string `json:"host"`
	ProductionMode bool   `json:"production_mode"`
}

// Server represents the HTTP API server
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	config     ServerConfig

	repo        *database.Repository
	eventBus    *events.EventBus
	engine      *decision.Engine
	provider    marketdata.Provider
	scanner     *scanner.Scanner
	monitor     *riskmonitor.Monitor
	broker      broker.Client
	detector    *flow.Detector
	thresholds  riskmonitor.Thresholds
	authService *auth.Service
	authEnabled bool
	rateLimiter *RateLimiter
	logger      *logging.Logger

	startedAt time.Time
}

// NewServer creates a new API server
func NewServer(
	config ServerConfig,
	repo *database.Repository,
	eventBus *events.EventBus,
	engine *decision.Engine,
	provider marketdata.Provider,
	watchScanner *scanner.Scanner,
	monitor *riskmonitor.Monitor,
	brokerClient broker.Client,
	detector *flow.Detector,
	thresholds riskmonitor.Thresholds,
	authService *auth.Service, // nil when auth is disabled
	logger *logging.Logger,
) *Server {
	if config.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://localhost:8088"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsConfig.ExposeHeaders = []string{"Content-Length"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	server := &Server{
		router:      router,
		config:      config,
		repo:        repo,
		eventBus:    eventBus,
		engine:      engine,
		provider:    provider,
		scanner:     watchScanner,
		monitor:     monitor,
		broker:      brokerClient,
		detector:    detector,
		thresholds:  thresholds,
		authService: authService,
		authEnabled: authService != nil,
		rateLimiter: NewRateLimiter(120, time.Minute), // vendor quota headroom
		logger:      logger.WithComponent("APIServer"),
		startedAt:   time.Now(),
	}

	server.setupRoutes()

	InitWebSocket(eventBus)

	return server
}

// rateLimitMiddleware throttles endpoints that reach the market data vendor.
// Endpoints that only read internal state are exempt.
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	noRateLimitPaths := map[string]bool{
		"/api/decisions":             true,
		"/api/decisions/performance": true,
		"/api/alerts":                true,
		"/api/scan/results":          true,
		"/api/watchlist":             true,
	}

	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		if noRateLimitPaths[path] {
			c.Next()
			return
		}

		if !s.rateLimiter.Allow(path) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "Rate limit exceeded",
				"message": "Too many requests to this endpoint, slow down to stay inside the vendor quota",
				"path":    path,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	if s.authEnabled {
		authGroup := s.router.Group("/api/auth")
		authGroup.POST("/login", s.handleLogin)
		authGroup.POST("/refresh", s.handleRefresh)
		authGroup.POST("/logout", s.handleLogout)
	}

	s.router.GET("/api/auth/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"auth_enabled": s.authEnabled})
	})

	api := s.router.Group("/api")
	if s.authEnabled {
		api.Use(auth.Middleware(s.authService.JWTManager()))
	}
	api.Use(s.rateLimitMiddleware())
	{
		// Analysis and decisions
		api.POST("/analyze/:symbol", s.handleAnalyze)
		api.GET("/decisions", s.handleListDecisions)
		api.GET("/decisions/performance", s.handlePerformance)
		api.POST("/decisions/:id/outcome", s.handleRecordOutcome)

		// Position risk
		api.GET("/risk/positions", s.handleRiskPositions)

		// Alerts (risk monitor and unusual flow)
		api.GET("/alerts", s.handleListAlerts)

		// Scanner
		api.GET("/scan/results", s.handleScanResults)
		api.POST("/scan", s.handleRunScan)

		// Watchlist
		api.GET("/watchlist", s.handleGetWatchlist)
		api.POST("/watchlist/:symbol", s.handleAddWatchlist)
		api.DELETE("/watchlist/:symbol", s.handleRemoveWatchlist)

		// Unusual flow stream control
		api.POST("/flow/subscribe/:symbol", s.handleFlowSubscribe)
		api.DELETE("/flow/subscribe/:symbol", s.handleFlowUnsubscribe)
	}

	// WebSocket endpoint for real-time events
	s.router.GET("/ws", s.handleWebSocket)
}

// handleHealth returns service health including database reachability
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if s.repo != nil {
		if err := s.repo.HealthCheck(ctx); err != nil {
			dbStatus = "unhealthy"
		}
	} else {
		dbStatus = "disabled"
	}

	status := http.StatusOK
	if dbStatus == "unhealthy" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":   dbStatus,
		"database": dbStatus,
		"uptime":   time.Since(s.startedAt).String(),
	})
}

// Start runs the HTTP server, blocking until shutdown
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting HTTP server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the gin engine for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// errorResponse is a helper to send error responses
func errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":   true,
		"message": message,
	})
}

// successResponse is a helper to send success responses
func successResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}
