// Command statement converts a Trading 212 CSV export into the
// Interactive Brokers import format, or prints the open positions the
// export implies.
package main

import (
	"fmt"
	"os"

	"trading-assistant/internal/broker/statement"
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  statement convert <export.csv> [output.csv]   convert trades to IB format")
	fmt.Fprintln(os.Stderr, "  statement positions <export.csv>              print open positions")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 3 {
		usage()
	}

	command := os.Args[1]
	inputPath := os.Args[2]

	file, err := os.Open(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot open %s: %v\n", inputPath, err)
		os.Exit(1)
	}
	defer file.Close()

	transactions, err := statement.ParseTrading212(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot parse %s: %v\n", inputPath, err)
		os.Exit(1)
	}

	switch command {
	case "convert":
		runConvert(transactions)
	case "positions":
		runPositions(transactions)
	default:
		usage()
	}
}

func runConvert(transactions []statement.Transaction) {
	rows := statement.ConvertToIB(transactions)

	out := os.Stdout
	if len(os.Args) > 3 {
		f, err := os.Create(os.Args[3])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot create %s: %v\n", os.Args[3], err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	if err := statement.WriteIB(out, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Write failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "Converted %d transactions into %d rows\n", len(transactions), len(rows))
}

func runPositions(transactions []statement.Transaction) {
	positions := statement.OpenPositions(transactions)
	if len(positions) == 0 {
		fmt.Println("No open positions")
		return
	}

	fmt.Printf("%-10s %12s %14s %14s\n", "Ticker", "Shares", "Avg Buy", "Last Price")
	for _, p := range positions {
		fmt.Printf("%-10s %12.4f %14.2f %14.2f\n", p.Ticker, p.Shares, p.AvgBuyPrice, p.LastPrice)
	}
}
