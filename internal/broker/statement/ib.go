package statement

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// IBRow is one row of the Interactive Brokers import format. The column
// names carry spaces exactly as the IB importer expects them.
type IBRow struct {
	Symbol      string
	Side        string
	Qty         float64
	FillPrice   string
	Commission  string
	ClosingTime string
}

// exchangeSymbol prefixes a bare ticker for the importer. US tickers
// default to NASDAQ.
func exchangeSymbol(ticker string) string {
	return "NASDAQ:" + ticker
}

// ConvertToIB maps statement transactions onto IB import rows. Trades,
// deposits, dividends and lending interest are carried over; anything
// else is dropped.
func ConvertToIB(transactions []Transaction) []IBRow {
	var rows []IBRow
	for _, tx := range transactions {
		switch {
		case tx.IsTrade():
			if tx.Shares == 0 || tx.PricePerUnit == 0 {
				continue
			}
			side := "Sell"
			commission := "" // sells carry no commission column value
			if tx.IsBuy() {
				side = "Buy"
				commission = "0"
			}
			rows = append(rows, IBRow{
				Symbol:      exchangeSymbol(tx.Ticker),
				Side:        side,
				Qty:         tx.Shares,
				FillPrice:   formatAmount(tx.PricePerUnit),
				Commission:  commission,
				ClosingTime: tx.Time,
			})

		case tx.Action == "Deposit":
			if tx.Total == 0 {
				continue
			}
			rows = append(rows, IBRow{
				Symbol:      "$CASH",
				Side:        "Deposit",
				Qty:         tx.Total,
				FillPrice:   "0",
				Commission:  "0",
				ClosingTime: tx.Time,
			})

		case len(tx.Action) >= 8 && tx.Action[:8] == "Dividend":
			if tx.Ticker == "" || tx.Result == 0 {
				continue
			}
			rows = append(rows, IBRow{
				Symbol:      exchangeSymbol(tx.Ticker),
				Side:        "Dividend",
				Qty:         tx.Result,
				ClosingTime: tx.Time,
			})

		case tx.Action == "Lending interest":
			if tx.Result == 0 {
				continue
			}
			rows = append(rows, IBRow{
				Symbol:      "$CASH",
				Side:        "Interest",
				Qty:         tx.Result,
				ClosingTime: tx.Time,
			})
		}
	}
	return rows
}

// OpenPositionsToIB renders netted holdings as buy-side IB rows.
func OpenPositionsToIB(positions []NetPosition) []IBRow {
	rows := make([]IBRow, 0, len(positions))
	for _, p := range positions {
		rows = append(rows, IBRow{
			Symbol:      exchangeSymbol(p.Ticker),
			Side:        "Buy",
			Qty:         p.Shares,
			FillPrice:   formatAmount(p.LastPrice),
			Commission:  "0",
			ClosingTime: p.LastTransaction,
		})
	}
	return rows
}

// WriteIB writes rows in the IB import CSV format.
func WriteIB(w io.Writer, rows []IBRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Symbol", "Side", "Qty", "Fill Price", "Commission", "Closing Time"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.Symbol,
			row.Side,
			formatAmount(row.Qty),
			row.FillPrice,
			row.Commission,
			row.ClosingTime,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row for %s: %w", row.Symbol, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
