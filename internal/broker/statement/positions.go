package statement

import (
	"sort"

	"trading-assistant/internal/broker"
)

// minOpenShares filters fractional dust left by partial sells.
const minOpenShares = 0.0001

// NetPosition is a netted holding derived from a statement.
type NetPosition struct {
	Ticker          string
	Shares          float64
	AvgBuyPrice     float64 // volume-weighted over the buy legs
	LastPrice       float64
	LastTransaction string
}

// OpenPositions nets buys against sells per ticker and keeps only
// holdings with a positive share balance, sorted by ticker.
func OpenPositions(transactions []Transaction) []NetPosition {
	type running struct {
		shares    float64
		buyShares float64
		buyCost   float64
		lastPrice float64
		lastTime  string
	}

	byTicker := make(map[string]*running)
	for _, tx := range transactions {
		if !tx.IsTrade() {
			continue
		}
		state, ok := byTicker[tx.Ticker]
		if !ok {
			state = &running{}
			byTicker[tx.Ticker] = state
		}
		if tx.IsBuy() {
			state.shares += tx.Shares
			state.buyShares += tx.Shares
			state.buyCost += tx.Shares * tx.PricePerUnit
		} else {
			state.shares -= tx.Shares
		}
		state.lastPrice = tx.PricePerUnit
		state.lastTime = tx.Time
	}

	positions := make([]NetPosition, 0, len(byTicker))
	for ticker, state := range byTicker {
		if state.shares <= minOpenShares {
			continue
		}
		p := NetPosition{
			Ticker:          ticker,
			Shares:          state.shares,
			LastPrice:       state.lastPrice,
			LastTransaction: state.lastTime,
		}
		if state.buyShares > 0 {
			p.AvgBuyPrice = state.buyCost / state.buyShares
		}
		positions = append(positions, p)
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i].Ticker < positions[j].Ticker })
	return positions
}

// ToBrokerPositions converts netted holdings into the brokerage position
// shape, marking the statement's last seen price as the current price.
func ToBrokerPositions(positions []NetPosition) []broker.Position {
	out := make([]broker.Position, 0, len(positions))
	for _, p := range positions {
		pos := broker.Position{
			Ticker:        p.Ticker,
			Quantity:      p.Shares,
			AvgEntryPrice: p.AvgBuyPrice,
			CurrentPrice:  p.LastPrice,
		}
		pos.UnrealizedPL = (pos.CurrentPrice - pos.AvgEntryPrice) * pos.Quantity
		out = append(out, pos)
	}
	return out
}
