package decision

import "math"

// kellyFraction is the safety multiplier applied to the raw Kelly
// percentage. Full Kelly is far too aggressive for a retail account.
const kellyFraction = 0.25

// CalculateExpectedValue returns the expected profit per trade given a
// historical win rate (fraction) and average win/loss magnitudes.
func CalculateExpectedValue(winRate, avgWin, avgLoss float64) float64 {
	return winRate*avgWin - (1.0-winRate)*avgLoss
}

// CalculateKellySize sizes a position from strategy expectancy using a
// fractional Kelly criterion. Returns 0 when expectancy is non-positive
// or the inputs cannot support the formula.
func CalculateKellySize(params RiskParameters) float64 {
	if params.AvgWin <= 0 {
		return 0
	}
	expectancy := CalculateExpectedValue(params.WinRate, params.AvgWin, params.AvgLoss)
	if expectancy <= 0 {
		return 0
	}

	kellyPercent := expectancy / params.AvgWin
	size := params.MaxPositionSize * kellyPercent * kellyFraction

	if size > params.MaxPositionSize {
		size = params.MaxPositionSize
	}
	if size < params.MinPositionSize {
		size = params.MinPositionSize
	}
	return math.Round(size)
}
