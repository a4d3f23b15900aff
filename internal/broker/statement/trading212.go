// Package statement imports brokerage CSV exports. Trading 212 exports
// are parsed into typed transactions, netted into open positions, and
// optionally re-emitted in the Interactive Brokers import format.
package statement

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Transaction is one row of a Trading 212 activity export.
type Transaction struct {
	Action       string
	Time         string
	Ticker       string
	Name         string
	Shares       float64
	PricePerUnit float64
	Result       float64
	Total        float64
	ChargeAmount float64
}

// tradeActions are the Trading 212 actions that move a share position.
var tradeActions = map[string]bool{
	"Market buy":      true,
	"Limit buy":       true,
	"Market sell":     true,
	"Limit sell":      true,
	"Stop limit sell": true,
}

// IsTrade reports whether the transaction moves a share position
func (t Transaction) IsTrade() bool {
	return t.Ticker != "" && tradeActions[t.Action]
}

// IsBuy reports whether a trade adds shares
func (t Transaction) IsBuy() bool {
	return strings.Contains(strings.ToLower(t.Action), "buy")
}

// ParseTrading212 reads a Trading 212 CSV export. Rows with no action are
// skipped; unknown actions are kept so downstream conversion can handle
// deposits, dividends and interest.
func ParseTrading212(r io.Reader) ([]Transaction, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"Action", "Time", "Ticker"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var transactions []Transaction
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		action := field(record, "Action")
		if action == "" {
			continue
		}

		tx := Transaction{
			Action:       action,
			Time:         field(record, "Time"),
			Ticker:       field(record, "Ticker"),
			Name:         field(record, "Name"),
			Shares:       parseAmount(field(record, "No. of shares")),
			PricePerUnit: parseAmount(field(record, "Price / share")),
			Result:       parseAmount(field(record, "Result")),
			Total:        parseAmount(field(record, "Total")),
			ChargeAmount: parseAmount(field(record, "Charge amount")),
		}
		transactions = append(transactions, tx)
	}
	return transactions, nil
}

// parseAmount tolerates empty cells and thousands separators
func parseAmount(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}
