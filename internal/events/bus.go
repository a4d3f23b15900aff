package events

import (
	"sync"
	"time"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventDecision          EventType = "TRADE_DECISION"
	EventScanUpdate        EventType = "SCAN_UPDATE"
	EventPositionRiskBatch EventType = "POSITION_RISK_BATCH"
	EventPositionRiskAlert EventType = "POSITION_RISK_ALERT"
	EventUnusualActivity   EventType = "UNUSUAL_ACTIVITY"
	EventMonitorStarted    EventType = "MONITOR_STARTED"
	EventMonitorStopped    EventType = "MONITOR_STOPPED"
	EventError             EventType = "ERROR"
)

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Subscriber is a function that handles events
type Subscriber func(Event)

// EventBus manages event publishing and subscriptions
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Subscriber
	allSubs     []Subscriber // Subscribers to all events
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[EventType][]Subscriber),
		allSubs:     make([]Subscriber, 0),
	}
}

// Subscribe registers a subscriber for a specific event type
func (eb *EventBus) Subscribe(eventType EventType, subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscriber)
}

// SubscribeAll registers a subscriber for all events
func (eb *EventBus) SubscribeAll(subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.allSubs = append(eb.allSubs, subscriber)
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if subs, ok := eb.subscribers[event.Type]; ok {
		for _, sub := range subs {
			go sub(event) // Run in goroutine to avoid blocking
		}
	}

	for _, sub := range eb.allSubs {
		go sub(event)
	}
}

// PublishDecision publishes a completed trade decision
func (eb *EventBus) PublishDecision(decisionID, symbol, verdict string, compositeScore float64, positionSize float64) {
	eb.Publish(Event{
		Type: EventDecision,
		Data: map[string]interface{}{
			"decision_id":     decisionID,
			"symbol":          symbol,
			"verdict":         verdict,
			"composite_score": compositeScore,
			"position_size":   positionSize,
		},
	})
}

// PublishScanUpdate publishes the top candidates of a watchlist scan
func (eb *EventBus) PublishScanUpdate(scanned int, candidates interface{}) {
	eb.Publish(Event{
		Type: EventScanUpdate,
		Data: map[string]interface{}{
			"scanned":    scanned,
			"candidates": candidates,
		},
	})
}

// PublishPositionRiskBatch publishes a full portfolio risk snapshot
func (eb *EventBus) PublishPositionRiskBatch(assessments interface{}, openPositions int) {
	eb.Publish(Event{
		Type: EventPositionRiskBatch,
		Data: map[string]interface{}{
			"assessments":    assessments,
			"open_positions": openPositions,
		},
	})
}

// PublishPositionRiskAlert publishes a single elevated-risk position alert
func (eb *EventBus) PublishPositionRiskAlert(symbol, level, recommendation string, plPercent float64) {
	eb.Publish(Event{
		Type: EventPositionRiskAlert,
		Data: map[string]interface{}{
			"symbol":         symbol,
			"level":          level,
			"recommendation": recommendation,
			"pl_percent":     plPercent,
		},
	})
}

// PublishUnusualActivity publishes a detected unusual-flow alert
func (eb *EventBus) PublishUnusualActivity(symbol, level string, score int, volumeRatio, priceChangePercent float64) {
	eb.Publish(Event{
		Type: EventUnusualActivity,
		Data: map[string]interface{}{
			"symbol":               symbol,
			"level":                level,
			"score":                score,
			"volume_ratio":         volumeRatio,
			"price_change_percent": priceChangePercent,
		},
	})
}

// PublishMonitorStarted publishes a monitor lifecycle start event
func (eb *EventBus) PublishMonitorStarted(name string, intervalSeconds int) {
	eb.Publish(Event{
		Type: EventMonitorStarted,
		Data: map[string]interface{}{
			"monitor":          name,
			"interval_seconds": intervalSeconds,
		},
	})
}

// PublishMonitorStopped publishes a monitor lifecycle stop event
func (eb *EventBus) PublishMonitorStopped(name string) {
	eb.Publish(Event{
		Type: EventMonitorStopped,
		Data: map[string]interface{}{
			"monitor": name,
		},
	})
}

// PublishError publishes an error event
func (eb *EventBus) PublishError(source, message string, err error) {
	data := map[string]interface{}{
		"source":  source,
		"message": message,
	}
	if err != nil {
		data["error"] = err.Error()
	}
	eb.Publish(Event{
		Type: EventError,
		Data: data,
	})
}
