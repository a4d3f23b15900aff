package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"trading-assistant/config"
	"trading-assistant/internal/analysis"
	"trading-assistant/internal/api"
	"trading-assistant/internal/auth"
	"trading-assistant/internal/broker"
	"trading-assistant/internal/broker/statement"
	"trading-assistant/internal/database"
	"trading-assistant/internal/decision"
	"trading-assistant/internal/events"
	"trading-assistant/internal/flow"
	"trading-assistant/internal/logging"
	"trading-assistant/internal/marketdata"
	"trading-assistant/internal/notification"
	"trading-assistant/internal/riskmonitor"
	"trading-assistant/internal/scanner"
	"trading-assistant/internal/scoring"
	"trading-assistant/internal/secrets"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logging.New(&logging.Config{
		Level:      cfg.LoggingConfig.Level,
		Output:     cfg.LoggingConfig.Output,
		JSONFormat: cfg.LoggingConfig.JSONFormat,
		Component:  "main",
	})
	logging.SetDefault(logger)
	logger.Info("Structured logging initialized")

	zlog := zerolog.New(os.Stdout).With().Timestamp().Logger()

	eventBus := events.NewEventBus()
	logger.Info("Event bus initialized")

	// Secrets store, with config/env fallback when vault is disabled
	secretsClient, err := secrets.NewClient(cfg.SecretsConfig)
	if err != nil {
		log.Fatalf("Failed to initialize secrets client: %v", err)
	}
	if secretsClient.IsEnabled() {
		logger.Info("Vault secrets store enabled", "address", cfg.SecretsConfig.Address)
	}

	ctx := context.Background()

	// Database is optional; without it decisions and alerts stay in memory
	var repo *database.Repository
	if cfg.DatabaseConfig.Enabled {
		db, err := database.NewDB(cfg.DatabaseConfig.Config, logger)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.RunMigrations(ctx); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		repo = database.NewRepository(db)
		logger.Info("Database connected", "host", cfg.DatabaseConfig.Host, "database", cfg.DatabaseConfig.Database)
	} else {
		logger.Info("Database disabled, running in memory")
	}

	provider := buildProvider(ctx, cfg, secretsClient, logger)

	notifyManager := buildNotifications(ctx, cfg, secretsClient, logger)

	// Momentum preset shared by the scanner and the decision engine
	scoreConfig, ok := scoring.PresetByName(cfg.DecisionConfig.Preset)
	if !ok {
		logger.Warn("Unknown scoring preset, using early detection", "preset", cfg.DecisionConfig.Preset)
		scoreConfig = scoring.EarlyDetection()
	}

	riskParams := cfg.DecisionConfig.Risk
	if repo != nil {
		applyPerformanceHistory(ctx, repo, &riskParams, logger)
	}

	aggregator := analysis.NewAggregator(provider, analysis.DefaultConfig(), logger)
	engine := decision.NewEngine(aggregator, scoreConfig, riskParams, logger)

	// Brokerage positions come from a Trading 212 statement export until
	// a live brokerage API is wired in.
	brokerClient := buildBroker(logger)

	monitor := riskmonitor.NewMonitor(brokerClient, eventBus, cfg.RiskMonitorConfig, zlog)
	monitor.Start(ctx)
	defer monitor.Stop()

	detector := flow.NewDetector(eventBus, cfg.FlowConfig, zlog)
	defer detector.Close()
	subscribeFlowSymbols(ctx, detector, provider, cfg.ScannerConfig.Watchlist, logger)

	var watchlistSource scanner.WatchlistSource
	if repo != nil {
		watchlistSource = repo
	}
	watchScanner := scanner.NewScanner(provider, watchlistSource, eventBus, cfg.ScannerConfig, logger)
	if cfg.ScannerConfig.Enabled {
		watchScanner.Start()
		defer watchScanner.Stop()
	}

	setupEventPersistence(eventBus, repo, notifyManager, detector, logger)

	authService := buildAuth(cfg, logger)

	server := api.NewServer(
		api.ServerConfig{
			Port:           cfg.ServerConfig.Port,
			Host:           cfg.ServerConfig.Host,
			ProductionMode: cfg.ServerConfig.ProductionMode,
		},
		repo,
		eventBus,
		engine,
		provider,
		watchScanner,
		monitor,
		brokerClient,
		detector,
		cfg.RiskMonitorConfig.Thresholds,
		authService,
		logger,
	)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("Failed to start web server: %v", err)
		}
	}()
	logger.Info("Web interface available", "host", cfg.ServerConfig.Host, "port", cfg.ServerConfig.Port)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("Error shutting down web server", "error", err)
	}

	logger.Info("Shutdown complete")
}

// buildProvider wires the market data client, preferring a vault-held
// API key, and wraps it in a Redis cache when one is configured.
func buildProvider(ctx context.Context, cfg *config.Config, secretsClient *secrets.Client, logger *logging.Logger) marketdata.Provider {
	if cfg.MarketDataConfig.MockMode {
		logger.Warn("Market data in mock mode, serving simulated quotes")
		return seededMockProvider(cfg.ScannerConfig.Watchlist)
	}

	apiKey := cfg.MarketDataConfig.APIKey
	if cred, err := secretsClient.Get(ctx, "market-data"); err == nil && cred.Key != "" {
		apiKey = cred.Key
	}

	limiter := marketdata.NewRateLimiter(cfg.MarketDataConfig.RequestsPerMin, time.Minute)
	var provider marketdata.Provider = marketdata.NewClient(apiKey, cfg.MarketDataConfig.BaseURL, limiter)

	if cfg.RedisConfig.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisConfig.Address,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
			PoolSize: cfg.RedisConfig.PoolSize,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unreachable, market data cache disabled", "error", err)
		} else {
			provider = marketdata.NewCachedProvider(provider, rdb, marketdata.DefaultCacheConfig())
			logger.Info("Market data cache enabled", "addr", cfg.RedisConfig.Address)
		}
	}

	return provider
}

// seededMockProvider populates the mock vendor with plausible data for
// the configured watchlist so the dashboard works offline.
func seededMockProvider(watchlist []string) *marketdata.MockClient {
	mockClient := marketdata.NewMockClient()
	basePrice := 40.0
	for _, symbol := range watchlist {
		mockClient.SetQuote(symbol, marketdata.Quote{
			Symbol:         symbol,
			Price:          basePrice,
			Volume:         1_500_000,
			RelativeVolume: 1.8,
			ChangePercent:  2.1,
			Timestamp:      time.Now().UnixMilli(),
		})
		mockClient.SetTechnicals(symbol, marketdata.Technicals{
			SMA20:      basePrice * 0.97,
			SMA50:      basePrice * 0.93,
			SMA200:     basePrice * 0.85,
			RSI:        58,
			MACD:       0.4,
			MACDSignal: 0.3,
			High52Week: basePrice * 1.06,
			Low52Week:  basePrice * 0.6,
		})
		mockClient.SetBars(symbol, marketdata.GenerateBars(60, basePrice*0.9, 2.5))
		basePrice += 7.5
	}
	return mockClient
}

// buildBroker loads open positions from a statement export when
// STATEMENT_CSV points at one; otherwise the book starts empty.
func buildBroker(logger *logging.Logger) broker.Client {
	mockBroker := broker.NewMockClient()

	path := os.Getenv("STATEMENT_CSV")
	if path == "" {
		return mockBroker
	}

	file, err := os.Open(path)
	if err != nil {
		logger.Warn("Cannot open statement export", "path", path, "error", err)
		return mockBroker
	}
	defer file.Close()

	transactions, err := statement.ParseTrading212(file)
	if err != nil {
		logger.Warn("Cannot parse statement export", "path", path, "error", err)
		return mockBroker
	}

	positions := statement.ToBrokerPositions(statement.OpenPositions(transactions))
	mockBroker.SetPositions(positions)
	logger.Info("Loaded positions from statement export", "path", path, "positions", len(positions))
	return mockBroker
}

// buildNotifications assembles the notifier stack, pulling channel
// credentials from the secrets store when present.
func buildNotifications(ctx context.Context, cfg *config.Config, secretsClient *secrets.Client, logger *logging.Logger) *notification.Manager {
	if !cfg.NotificationConfig.Enabled {
		return nil
	}

	manager := notification.NewManager()

	telegramCfg := cfg.NotificationConfig.Telegram
	if cred, err := secretsClient.Get(ctx, "telegram"); err == nil && cred.Secret != "" {
		telegramCfg.BotToken = cred.Secret
	}
	if telegramCfg.Enabled {
		manager.AddNotifier(notification.NewTelegramNotifier(telegramCfg))
		logger.Info("Telegram notifications enabled")
	}

	discordCfg := cfg.NotificationConfig.Discord
	if cred, err := secretsClient.Get(ctx, "discord"); err == nil && cred.Secret != "" {
		discordCfg.WebhookURL = cred.Secret
	}
	if discordCfg.Enabled {
		manager.AddNotifier(notification.NewDiscordNotifier(discordCfg))
		logger.Info("Discord notifications enabled")
	}

	return manager
}

// buildAuth creates the single-operator auth service, or nil when the
// dashboard runs unauthenticated.
func buildAuth(cfg *config.Config, logger *logging.Logger) *auth.Service {
	if !cfg.AuthConfig.Enabled {
		logger.Warn("Authentication disabled, dashboard is open")
		return nil
	}

	passwords := auth.NewPasswordManager(cfg.AuthConfig.BcryptCost, cfg.AuthConfig.MinPasswordLength)
	tokens := auth.NewJWTManager(cfg.AuthConfig.JWTSecret, cfg.AuthConfig.AccessTokenDuration, cfg.AuthConfig.RefreshTokenDuration)

	service, err := auth.NewService(cfg.AuthConfig.Username, cfg.AuthConfig.Password, passwords, tokens)
	if err != nil {
		log.Fatalf("Failed to initialize auth service: %v", err)
	}
	logger.Info("Authentication enabled", "username", cfg.AuthConfig.Username)
	return service
}

// applyPerformanceHistory feeds closed-trade statistics into the
// expectancy gate and Kelly sizing.
func applyPerformanceHistory(ctx context.Context, repo *database.Repository, params *decision.RiskParameters, logger *logging.Logger) {
	stats, err := repo.GetPerformanceStats(ctx)
	if err != nil {
		logger.Warn("Cannot load performance stats", "error", err)
		return
	}
	if stats.TotalTrades < 10 {
		return
	}

	params.HasHistory = true
	params.WinRate = stats.WinRate
	params.AvgWin = stats.AvgWin
	params.AvgLoss = stats.AvgLoss
	logger.Info("Performance history loaded",
		"trades", stats.TotalTrades, "win_rate", stats.WinRate)
}

// subscribeFlowSymbols attaches the unusual flow detector to every
// watchlist symbol, deriving the volume baseline from the vendor quote.
func subscribeFlowSymbols(ctx context.Context, detector *flow.Detector, provider marketdata.Provider, watchlist []string, logger *logging.Logger) {
	for _, symbol := range watchlist {
		quote, err := provider.GetQuote(ctx, symbol)
		if err != nil || quote.RelativeVolume <= 0 {
			continue
		}
		baseline := quote.Volume / quote.RelativeVolume
		detector.Subscribe(symbol, baseline)
		logger.Debug("Flow detector subscribed", "symbol", symbol, "baseline_volume", baseline)
	}
}

// setupEventPersistence writes alert events to the database and relays
// them to the notification channels.
func setupEventPersistence(eventBus *events.EventBus, repo *database.Repository, notifyManager *notification.Manager, detector *flow.Detector, logger *logging.Logger) {
	if notifyManager != nil {
		detector.OnAlert(func(activity flow.UnusualActivity) {
			if err := notifyManager.SendUnusualActivity(activity); err != nil {
				logger.Error("Failed to send flow notification", "symbol", activity.Symbol, "error", err)
			}
		})
	}

	if repo == nil {
		return
	}

	persist := func(source string) events.Subscriber {
		return func(event events.Event) {
			record := &database.AlertRecord{
				Source:  source,
				Symbol:  stringField(event.Data, "symbol"),
				Level:   stringField(event.Data, "level"),
				Message: stringField(event.Data, "recommendation"),
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := repo.SaveAlert(ctx, record); err != nil {
				logger.Error("Failed to persist alert", "source", source, "error", err)
			}
		}
	}

	eventBus.Subscribe(events.EventPositionRiskAlert, persist("position_risk"))
	eventBus.Subscribe(events.EventUnusualActivity, persist("unusual_flow"))
}

func stringField(data map[string]interface{}, key string) string {
	if data == nil {
		return ""
	}
	if s, ok := data[key].(string); ok {
		return s
	}
	return ""
}
