package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"trading-assistant/internal/decision"
	"trading-assistant/internal/flow"
	"trading-assistant/internal/riskmonitor"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	NotifyDecision     NotificationType = "decision"
	NotifyPositionRisk NotificationType = "position_risk"
	NotifyUnusualFlow  NotificationType = "unusual_flow"
	NotifyError        NotificationType = "error"
	NotifyInfo         NotificationType = "info"
)

// Notification represents a notification message
type Notification struct {
	Type      NotificationType
	Title     string
	Message   string
	Symbol    string
	Price     float64
	Timestamp time.Time
	Extra     map[string]interface{}
}

// Notifier interface for different notification providers
type Notifier interface {
	Send(notification *Notification) error
	Name() string
	IsEnabled() bool
}

// Manager fans notifications out to every enabled provider
type Manager struct {
	notifiers []Notifier
	enabled   bool
}

// NewManager creates a new notification manager
func NewManager() *Manager {
	return &Manager{
		notifiers: make([]Notifier, 0),
		enabled:   true,
	}
}

// AddNotifier adds a notification provider
func (m *Manager) AddNotifier(n Notifier) {
	m.notifiers = append(m.notifiers, n)
}

// Send sends a notification to all enabled providers
func (m *Manager) Send(notification *Notification) error {
	if !m.enabled {
		return nil
	}

	var lastErr error
	for _, n := range m.notifiers {
		if n.IsEnabled() {
			if err := n.Send(notification); err != nil {
				lastErr = err
			}
		}
	}
	return lastErr
}

// SendDecision notifies an approved trade decision
func (m *Manager) SendDecision(d *decision.TradeDecision) error {
	verdict := "PASS"
	if d.ShouldTrade {
		verdict = "TRADE"
	}

	targets := make([]string, 0, len(d.ProfitTargets))
	for _, target := range d.ProfitTargets {
		targets = append(targets, fmt.Sprintf("%.2f", target))
	}

	return m.Send(&Notification{
		Type:  NotifyDecision,
		Title: fmt.Sprintf("%s %s (%s)", verdict, d.Symbol, d.Confidence),
		Message: fmt.Sprintf("Score %.0f/100\nSize: %.0f\nStop: %.2f\nTargets: %s\nR/R: %.2f",
			d.CompositeScore, d.PositionSize, d.StopLoss, strings.Join(targets, " / "), d.RiskReward),
		Symbol:    d.Symbol,
		Timestamp: d.Timestamp,
		Extra: map[string]interface{}{
			"decision_id":  d.ID,
			"should_trade": d.ShouldTrade,
			"confidence":   string(d.Confidence),
		},
	})
}

// SendPositionRiskAlert notifies an elevated-risk position
func (m *Manager) SendPositionRiskAlert(risk riskmonitor.PositionRisk) error {
	message := strings.Join(risk.Alerts, "\n")
	if len(risk.Recommendations) > 0 {
		message += "\nAction: " + risk.Recommendations[0]
	}

	return m.Send(&Notification{
		Type:      NotifyPositionRisk,
		Title:     fmt.Sprintf("%s risk: %s (%.1f%%)", risk.Level, risk.Ticker, risk.PLPercent),
		Message:   message,
		Symbol:    risk.Ticker,
		Price:     risk.CurrentPrice,
		Timestamp: time.Now(),
		Extra: map[string]interface{}{
			"level":      string(risk.Level),
			"pl_percent": risk.PLPercent,
		},
	})
}

// SendUnusualActivity notifies an unusual-flow alert
func (m *Manager) SendUnusualActivity(activity flow.UnusualActivity) error {
	return m.Send(&Notification{
		Type:      NotifyUnusualFlow,
		Title:     fmt.Sprintf("Unusual flow (%s): %s", activity.Level, activity.Symbol),
		Message:   strings.Join(activity.Reasons, "\n"),
		Symbol:    activity.Symbol,
		Timestamp: activity.Timestamp,
		Extra: map[string]interface{}{
			"score":        activity.Score,
			"volume_ratio": activity.VolumeRatio,
		},
	})
}

// SendError sends an error notification
func (m *Manager) SendError(title, message string) error {
	return m.Send(&Notification{
		Type:      NotifyError,
		Title:     title,
		Message:   message,
		Timestamp: time.Now(),
	})
}

// =============================================================================
// TELEGRAM NOTIFIER
// =============================================================================

// TelegramNotifier sends notifications via Telegram
type TelegramNotifier struct {
	botToken string
	chatID   string
	enabled  bool
	client   *http.Client
}

// TelegramConfig holds Telegram configuration
type TelegramConfig struct {
	BotToken string `json:"bot_token"`
	ChatID   string `json:"chat_id"`
	Enabled  bool   `json:"enabled"`
}

// NewTelegramNotifier creates a new Telegram notifier
func NewTelegramNotifier(config TelegramConfig) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: config.BotToken,
		chatID:   config.ChatID,
		enabled:  config.Enabled && config.BotToken != "" && config.ChatID != "",
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *TelegramNotifier) Name() string {
	return "telegram"
}

func (t *TelegramNotifier) IsEnabled() bool {
	return t.enabled
}

func (t *TelegramNotifier) Send(notification *Notification) error {
	if !t.enabled {
		return nil
	}

	message := fmt.Sprintf("*%s*\n\n%s", notification.Title, notification.Message)
	payload := map[string]interface{}{
		"chat_id":    t.chatID,
		"text":       message,
		"parse_mode": "Markdown",
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.botToken)
	resp, err := t.client.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}
	return nil
}

// =============================================================================
// DISCORD NOTIFIER
// =============================================================================

// DiscordNotifier sends notifications via Discord webhook
type DiscordNotifier struct {
	webhookURL string
	enabled    bool
	client     *http.Client
}

// DiscordConfig holds Discord configuration
type DiscordConfig struct {
	WebhookURL string `json:"webhook_url"`
	Enabled    bool   `json:"enabled"`
}

// NewDiscordNotifier creates a new Discord notifier
func NewDiscordNotifier(config DiscordConfig) *DiscordNotifier {
	return &DiscordNotifier{
		webhookURL: config.WebhookURL,
		enabled:    config.Enabled && config.WebhookURL != "",
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (d *DiscordNotifier) Name() string {
	return "discord"
}

func (d *DiscordNotifier) IsEnabled() bool {
	return d.enabled
}

func (d *DiscordNotifier) Send(notification *Notification) error {
	if !d.enabled {
		return nil
	}

	color := 0x00FF00
	switch notification.Type {
	case NotifyError, NotifyPositionRisk:
		color = 0xFF0000
	case NotifyUnusualFlow:
		color = 0xFFA500
	}

	embed := map[string]interface{}{
		"title":       notification.Title,
		"description": notification.Message,
		"color":       color,
		"timestamp":   notification.Timestamp.Format(time.RFC3339),
	}
	if notification.Symbol != "" {
		fields := []map[string]interface{}{
			{"name": "Symbol", "value": notification.Symbol, "inline": true},
		}
		if notification.Price > 0 {
			fields = append(fields, map[string]interface{}{
				"name": "Price", "value": fmt.Sprintf("%.2f", notification.Price), "inline": true,
			})
		}
		embed["fields"] = fields
	}

	payload := map[string]interface{}{
		"embeds": []map[string]interface{}{embed},
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal discord payload: %w", err)
	}

	resp, err := d.client.Post(d.webhookURL, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send discord message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("discord API returned status %d", resp.StatusCode)
	}
	return nil
}
