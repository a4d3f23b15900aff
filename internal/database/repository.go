package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"trading-assistant/internal/decision"
)

// Repository provides data access methods
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// HealthCheck performs a database health check
func (r *Repository) HealthCheck(ctx context.Context) error {
	return r.db.Pool.Ping(ctx)
}

// ============================================================================
// DECISIONS
// ============================================================================

// SaveDecision persists a trade decision with its full analysis snapshot
func (r *Repository) SaveDecision(ctx context.Context, d *decision.TradeDecision) error {
	targets, err := json.Marshal(d.ProfitTargets)
	if err != nil {
		return fmt.Errorf("marshal targets: %w", err)
	}
	warnings, err := json.Marshal(d.Warnings)
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}
	rationale, err := json.Marshal(d.Rationale)
	if err != nil {
		return fmt.Errorf("marshal rationale: %w", err)
	}
	analysis, err := json.Marshal(map[string]interface{}{
		"technical":  d.Technical,
		"news":       d.News,
		"volatility": d.Volatility,
	})
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	query := `
		INSERT INTO decisions (id, symbol, should_trade, confidence, composite_score, early_breakout,
		                       position_size, stop_loss, profit_targets, risk_reward, warnings, rationale, analysis, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = r.db.Pool.Exec(ctx, query,
		d.ID, d.Symbol, d.ShouldTrade, string(d.Confidence), d.CompositeScore, d.EarlyBreakout,
		d.PositionSize, d.StopLoss, targets, d.RiskReward, warnings, rationale, analysis, d.Timestamp,
	)
	return err
}

// ListRecentDecisions returns the newest decisions first
func (r *Repository) ListRecentDecisions(ctx context.Context, limit int) ([]*DecisionRecord, error) {
	query := `
		SELECT id, symbol, should_trade, confidence, composite_score, early_breakout,
		       position_size, stop_loss, profit_targets, risk_reward, warnings, rationale, analysis, created_at
		FROM decisions
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*DecisionRecord
	for rows.Next() {
		record := &DecisionRecord{}
		var targets, warnings, rationale []byte
		if err := rows.Scan(
			&record.ID, &record.Symbol, &record.ShouldTrade, &record.Confidence,
			&record.CompositeScore, &record.EarlyBreakout, &record.PositionSize, &record.StopLoss,
			&targets, &record.RiskReward, &warnings, &rationale, &record.AnalysisJSON, &record.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(targets, &record.ProfitTargets); err != nil {
			return nil, fmt.Errorf("decode targets for %s: %w", record.ID, err)
		}
		if err := json.Unmarshal(warnings, &record.Warnings); err != nil {
			return nil, fmt.Errorf("decode warnings for %s: %w", record.ID, err)
		}
		if err := json.Unmarshal(rationale, &record.Rationale); err != nil {
			return nil, fmt.Errorf("decode rationale for %s: %w", record.ID, err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// ============================================================================
// ALERTS
// ============================================================================

// SaveAlert persists one monitor alert
func (r *Repository) SaveAlert(ctx context.Context, alert *AlertRecord) error {
	query := `
		INSERT INTO alerts (source, symbol, level, message, payload)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	payload := alert.Payload
	if payload == nil {
		payload = []byte("{}")
	}
	return r.db.Pool.QueryRow(ctx, query,
		alert.Source, alert.Symbol, alert.Level, alert.Message, payload,
	).Scan(&alert.ID, &alert.CreatedAt)
}

// ListRecentAlerts returns the newest alerts first, optionally filtered
// by source.
func (r *Repository) ListRecentAlerts(ctx context.Context, source string, limit int) ([]*AlertRecord, error) {
	query := `
		SELECT id, source, symbol, level, message, payload, created_at
		FROM alerts
		WHERE ($1 = '' OR source = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Pool.Query(ctx, query, source, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*AlertRecord
	for rows.Next() {
		alert := &AlertRecord{}
		if err := rows.Scan(&alert.ID, &alert.Source, &alert.Symbol, &alert.Level,
			&alert.Message, &alert.Payload, &alert.CreatedAt); err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

// ============================================================================
// TRADE OUTCOMES
// ============================================================================

// RecordTradeOutcome closes the loop on a decision
func (r *Repository) RecordTradeOutcome(ctx context.Context, outcome *TradeOutcome) error {
	query := `
		INSERT INTO trade_outcomes (decision_id, symbol, entry_price, exit_price, position_size, pnl, closed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	closedAt := outcome.ClosedAt
	if closedAt.IsZero() {
		closedAt = time.Now()
	}
	return r.db.Pool.QueryRow(ctx, query,
		outcome.DecisionID, outcome.Symbol, outcome.EntryPrice, outcome.ExitPrice,
		outcome.PositionSize, outcome.PnL, closedAt,
	).Scan(&outcome.ID)
}

// GetPerformanceStats aggregates closed trades into win rate and average
// win/loss magnitudes for the expectancy gate.
func (r *Repository) GetPerformanceStats(ctx context.Context) (*PerformanceStats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE pnl > 0),
		       COUNT(*) FILTER (WHERE pnl <= 0),
		       COALESCE(AVG(pnl) FILTER (WHERE pnl > 0), 0),
		       COALESCE(ABS(AVG(pnl) FILTER (WHERE pnl <= 0)), 0),
		       COALESCE(SUM(pnl), 0)
		FROM trade_outcomes
	`
	stats := &PerformanceStats{}
	err := r.db.Pool.QueryRow(ctx, query).Scan(
		&stats.TotalTrades, &stats.Wins, &stats.Losses,
		&stats.AvgWin, &stats.AvgLoss, &stats.TotalPnL,
	)
	if err != nil {
		return nil, err
	}
	if stats.TotalTrades > 0 {
		stats.WinRate = float64(stats.Wins) / float64(stats.TotalTrades)
	}
	return stats, nil
}

// ============================================================================
// WATCHLIST
// ============================================================================

// AddToWatchlist inserts a symbol, ignoring duplicates
func (r *Repository) AddToWatchlist(ctx context.Context, symbol string) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO watchlist (symbol) VALUES ($1) ON CONFLICT (symbol) DO NOTHING`, symbol)
	return err
}

// RemoveFromWatchlist deletes a symbol
func (r *Repository) RemoveFromWatchlist(ctx context.Context, symbol string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM watchlist WHERE symbol = $1`, symbol)
	return err
}

// GetWatchlist returns all watched symbols in insertion order
func (r *Repository) GetWatchlist(ctx context.Context) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT symbol FROM watchlist ORDER BY added_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, err
		}
		symbols = append(symbols, symbol)
	}
	return symbols, rows.Err()
}
