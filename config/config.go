package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"trading-assistant/internal/database"
	"trading-assistant/internal/decision"
	"trading-assistant/internal/flow"
	"trading-assistant/internal/notification"
	"trading-assistant/internal/riskmonitor"
	"trading-assistant/internal/scanner"
	"trading-assistant/internal/secrets"
)

type Config struct {
	MarketDataConfig   MarketDataConfig   `json:"market_data"`
	ScannerConfig      scanner.Config     `json:"scanner"`
	DecisionConfig     DecisionConfig     `json:"decision"`
	RiskMonitorConfig  riskmonitor.Config `json:"risk_monitor"`
	FlowConfig         flow.Config        `json:"flow"`
	NotificationConfig NotificationConfig `json:"notification"`
	DatabaseConfig     DatabaseConfig     `json:"database"`
	RedisConfig        RedisConfig        `json:"redis"`
	SecretsConfig      secrets.Config     `json:"secrets"`
	ServerConfig       ServerConfig       `json:"server"`
	AuthConfig         AuthConfig         `json:"auth"`
	LoggingConfig      LoggingConfig      `json:"logging"`
}

// MarketDataConfig holds the stock data vendor configuration
type MarketDataConfig struct {
	APIKey         string `json:"api_key"`
	BaseURL        string `json:"base_url"`
	MockMode       bool   `json:"mock_mode"` // simulated quotes when no vendor key is configured
	RequestsPerMin int    `json:"requests_per_min"`
}

// DecisionConfig holds decision engine tuning
type DecisionConfig struct {
	Preset string                  `json:"preset"` // momentum scoring preset name
	Risk   decision.RiskParameters `json:"risk"`
}

// NotificationConfig holds outbound alerting configuration
type NotificationConfig struct {
	Enabled  bool                        `json:"enabled"`
	Telegram notification.TelegramConfig `json:"telegram"`
	Discord  notification.DiscordConfig  `json:"discord"`
}

// DatabaseConfig wraps the postgres settings with an enable switch; the
// assistant runs fully in memory when disabled.
type DatabaseConfig struct {
	Enabled bool `json:"enabled"`
	database.Config
}

// RedisConfig holds Redis settings for market data caching
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           int    `json:"port"`
	Host           string `json:"host"`
	ProductionMode bool   `json:"production_mode"`
}

// AuthConfig holds the single-operator account and token settings
type AuthConfig struct {
	Enabled              bool          `json:"enabled"`
	Username             string        `json:"username"`
	Password             string        `json:"password"`
	JWTSecret            string        `json:"jwt_secret"`
	AccessTokenDuration  time.Duration `json:"access_token_duration"`
	RefreshTokenDuration time.Duration `json:"refresh_token_duration"`
	BcryptCost           int           `json:"bcrypt_cost"`
	MinPasswordLength    int           `json:"min_password_length"`
}

type LoggingConfig struct {
	Level      string `json:"level"`       // debug, info, warn, error
	Output     string `json:"output"`      // stdout, stderr, or file path
	JSONFormat bool   `json:"json_format"` // output as JSON
}

// Load reads config.json when present and applies environment
// overrides on top. Environment variables always win.
func Load() (*Config, error) {
	cfg, err := loadFromFile("config.json")
	if err != nil {
		cfg = defaults()
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		ScannerConfig:     scanner.DefaultConfig(),
		RiskMonitorConfig: riskmonitor.DefaultConfig(),
		FlowConfig:        flow.DefaultConfig(),
		DecisionConfig: DecisionConfig{
			Preset: "early_detection",
			Risk:   decision.DefaultRiskParameters(),
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	// Market data vendor
	cfg.MarketDataConfig.APIKey = getEnvOrDefault("MARKET_DATA_API_KEY", cfg.MarketDataConfig.APIKey)
	cfg.MarketDataConfig.BaseURL = getEnvOrDefault("MARKET_DATA_BASE_URL", cfg.MarketDataConfig.BaseURL)
	cfg.MarketDataConfig.MockMode = getEnvOrDefault("MOCK_MODE", boolString(cfg.MarketDataConfig.MockMode)) == "true"
	cfg.MarketDataConfig.RequestsPerMin = getEnvIntOrDefault("MARKET_DATA_REQUESTS_PER_MIN", orInt(cfg.MarketDataConfig.RequestsPerMin, 120))
	if cfg.MarketDataConfig.APIKey == "" {
		cfg.MarketDataConfig.MockMode = true
	}

	// Scanner
	cfg.ScannerConfig.Enabled = getEnvOrDefault("SCANNER_ENABLED", boolString(cfg.ScannerConfig.Enabled)) == "true"
	cfg.ScannerConfig.ScanInterval = getEnvDurationOrDefault("SCANNER_INTERVAL", cfg.ScannerConfig.ScanInterval)
	cfg.ScannerConfig.WorkerCount = getEnvIntOrDefault("SCANNER_WORKERS", cfg.ScannerConfig.WorkerCount)
	cfg.ScannerConfig.Preset = getEnvOrDefault("SCANNER_PRESET", orString(cfg.ScannerConfig.Preset, "early_detection"))
	if watchlist := os.Getenv("SCANNER_WATCHLIST"); watchlist != "" {
		cfg.ScannerConfig.Watchlist = splitSymbols(watchlist)
	}

	// Decision engine
	cfg.DecisionConfig.Preset = getEnvOrDefault("DECISION_PRESET", orString(cfg.DecisionConfig.Preset, "early_detection"))

	// Risk monitor
	cfg.RiskMonitorConfig.Interval = getEnvDurationOrDefault("RISK_MONITOR_INTERVAL", cfg.RiskMonitorConfig.Interval)
	cfg.RiskMonitorConfig.AlertCooldown = getEnvDurationOrDefault("RISK_ALERT_COOLDOWN", cfg.RiskMonitorConfig.AlertCooldown)

	// Notification channels
	cfg.NotificationConfig.Enabled = getEnvOrDefault("NOTIFICATIONS_ENABLED", boolString(cfg.NotificationConfig.Enabled)) == "true"
	cfg.NotificationConfig.Telegram.Enabled = getEnvOrDefault("TELEGRAM_ENABLED", boolString(cfg.NotificationConfig.Telegram.Enabled)) == "true"
	cfg.NotificationConfig.Telegram.BotToken = getEnvOrDefault("TELEGRAM_BOT_TOKEN", cfg.NotificationConfig.Telegram.BotToken)
	cfg.NotificationConfig.Telegram.ChatID = getEnvOrDefault("TELEGRAM_CHAT_ID", cfg.NotificationConfig.Telegram.ChatID)
	cfg.NotificationConfig.Discord.Enabled = getEnvOrDefault("DISCORD_ENABLED", boolString(cfg.NotificationConfig.Discord.Enabled)) == "true"
	cfg.NotificationConfig.Discord.WebhookURL = getEnvOrDefault("DISCORD_WEBHOOK_URL", cfg.NotificationConfig.Discord.WebhookURL)

	// Database
	cfg.DatabaseConfig.Enabled = getEnvOrDefault("DATABASE_ENABLED", boolString(cfg.DatabaseConfig.Enabled)) == "true"
	cfg.DatabaseConfig.Host = getEnvOrDefault("DATABASE_HOST", orString(cfg.DatabaseConfig.Host, "localhost"))
	cfg.DatabaseConfig.Port = getEnvIntOrDefault("DATABASE_PORT", orInt(cfg.DatabaseConfig.Port, 5432))
	cfg.DatabaseConfig.User = getEnvOrDefault("DATABASE_USER", orString(cfg.DatabaseConfig.User, "postgres"))
	cfg.DatabaseConfig.Password = getEnvOrDefault("DATABASE_PASSWORD", cfg.DatabaseConfig.Password)
	cfg.DatabaseConfig.Database = getEnvOrDefault("DATABASE_NAME", orString(cfg.DatabaseConfig.Database, "trading_assistant"))
	cfg.DatabaseConfig.SSLMode = getEnvOrDefault("DATABASE_SSLMODE", orString(cfg.DatabaseConfig.SSLMode, "disable"))

	// Redis cache
	cfg.RedisConfig.Enabled = getEnvOrDefault("REDIS_ENABLED", boolString(cfg.RedisConfig.Enabled)) == "true"
	cfg.RedisConfig.Address = getEnvOrDefault("REDIS_ADDR", orString(cfg.RedisConfig.Address, "localhost:6379"))
	cfg.RedisConfig.Password = getEnvOrDefault("REDIS_PASSWORD", cfg.RedisConfig.Password)
	cfg.RedisConfig.DB = getEnvIntOrDefault("REDIS_DB", cfg.RedisConfig.DB)
	cfg.RedisConfig.PoolSize = getEnvIntOrDefault("REDIS_POOL_SIZE", orInt(cfg.RedisConfig.PoolSize, 10))

	// Secrets store
	cfg.SecretsConfig.Enabled = getEnvOrDefault("VAULT_ENABLED", boolString(cfg.SecretsConfig.Enabled)) == "true"
	cfg.SecretsConfig.Address = getEnvOrDefault("VAULT_ADDR", orString(cfg.SecretsConfig.Address, "http://localhost:8200"))
	cfg.SecretsConfig.Token = getEnvOrDefault("VAULT_TOKEN", cfg.SecretsConfig.Token)
	cfg.SecretsConfig.MountPath = getEnvOrDefault("VAULT_MOUNT_PATH", orString(cfg.SecretsConfig.MountPath, "secret"))
	cfg.SecretsConfig.SecretPath = getEnvOrDefault("VAULT_SECRET_PATH", orString(cfg.SecretsConfig.SecretPath, "trading-assistant/credentials"))
	cfg.SecretsConfig.TLSEnabled = getEnvOrDefault("VAULT_TLS_ENABLED", boolString(cfg.SecretsConfig.TLSEnabled)) == "true"

	// HTTP server
	cfg.ServerConfig.Port = getEnvIntOrDefault("WEB_PORT", orInt(cfg.ServerConfig.Port, 8080))
	cfg.ServerConfig.Host = getEnvOrDefault("WEB_HOST", orString(cfg.ServerConfig.Host, "0.0.0.0"))
	cfg.ServerConfig.ProductionMode = getEnvOrDefault("PRODUCTION_MODE", boolString(cfg.ServerConfig.ProductionMode)) == "true"

	// Auth
	cfg.AuthConfig.Enabled = getEnvOrDefault("AUTH_ENABLED", boolString(cfg.AuthConfig.Enabled)) == "true"
	cfg.AuthConfig.Username = getEnvOrDefault("AUTH_USERNAME", orString(cfg.AuthConfig.Username, "operator"))
	cfg.AuthConfig.Password = getEnvOrDefault("AUTH_PASSWORD", cfg.AuthConfig.Password)
	cfg.AuthConfig.JWTSecret = getEnvOrDefault("AUTH_JWT_SECRET", cfg.AuthConfig.JWTSecret)
	cfg.AuthConfig.AccessTokenDuration = getEnvDurationOrDefault("AUTH_ACCESS_TOKEN_DURATION", orDuration(cfg.AuthConfig.AccessTokenDuration, 15*time.Minute))
	cfg.AuthConfig.RefreshTokenDuration = getEnvDurationOrDefault("AUTH_REFRESH_TOKEN_DURATION", orDuration(cfg.AuthConfig.RefreshTokenDuration, 7*24*time.Hour))
	cfg.AuthConfig.BcryptCost = getEnvIntOrDefault("AUTH_BCRYPT_COST", orInt(cfg.AuthConfig.BcryptCost, 12))
	cfg.AuthConfig.MinPasswordLength = getEnvIntOrDefault("AUTH_MIN_PASSWORD_LENGTH", orInt(cfg.AuthConfig.MinPasswordLength, 8))

	// Logging
	cfg.LoggingConfig.Level = getEnvOrDefault("LOG_LEVEL", orString(cfg.LoggingConfig.Level, "info"))
	cfg.LoggingConfig.Output = getEnvOrDefault("LOG_OUTPUT", orString(cfg.LoggingConfig.Output, "stdout"))
	cfg.LoggingConfig.JSONFormat = getEnvOrDefault("LOG_JSON", boolString(cfg.LoggingConfig.JSONFormat)) == "true"
}

// Validate rejects configurations the process cannot start with
func (c *Config) Validate() error {
	if c.AuthConfig.Enabled {
		if len(c.AuthConfig.JWTSecret) < 32 {
			return fmt.Errorf("auth is enabled but AUTH_JWT_SECRET is shorter than 32 characters")
		}
		if c.AuthConfig.Password == "" {
			return fmt.Errorf("auth is enabled but AUTH_PASSWORD is not set")
		}
	}
	if !c.MarketDataConfig.MockMode && c.MarketDataConfig.BaseURL == "" {
		return fmt.Errorf("market data base URL is required outside mock mode")
	}
	return nil
}

func loadFromFile(filename string) (*Config, error) {
	file, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg := defaults()
	if err := json.Unmarshal(file, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

func splitSymbols(csv string) []string {
	parts := strings.Split(csv, ",")
	symbols := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.ToUpper(strings.TrimSpace(p)); s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func orString(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func orInt(value, fallback int) int {
	if value != 0 {
		return value
	}
	return fallback
}

func orDuration(value, fallback time.Duration) time.Duration {
	if value != 0 {
		return value
	}
	return fallback
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// GenerateSampleConfig creates a sample configuration file
func GenerateSampleConfig(filename string) error {
	cfg := defaults()
	cfg.MarketDataConfig = MarketDataConfig{
		APIKey:         "your_api_key_here",
		BaseURL:        "https://api.example-market-data.com/v1",
		MockMode:       true,
		RequestsPerMin: 120,
	}
	cfg.ScannerConfig.Watchlist = []string{"AAPL", "NVDA", "AMD", "TSLA"}
	cfg.ServerConfig = ServerConfig{Port: 8080, Host: "0.0.0.0"}
	cfg.LoggingConfig = LoggingConfig{Level: "info", Output: "stdout", JSONFormat: true}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filename, data, 0644)
}
