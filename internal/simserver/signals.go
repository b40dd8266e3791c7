package simserver

import "math"

// Signal labels.
const (
	SignalBuy  = "BUY"
	SignalSell = "SELL"
	SignalHold = "HOLD"
)

const (
	minSignalHistory = 26
	rsiWindow        = 14
	supportWindow    = 20
	oversoldRSI      = 30
	overboughtRSI    = 70
)

// deriveSignal classifies closes (oldest first) with EMA crossover, MACD and
// RSI, and proposes a stop-loss below the recent support. ok is false until
// there is enough history for MACD.
func deriveSignal(closes []float64, entry float64) (signal string, stopLoss float64, ok bool) {
	if len(closes) < minSignalHistory {
		return "", 0, false
	}

	emaShort := ema(closes, 9)
	emaLong := ema(closes, 20)

	fast := ema(closes, 12)
	slow := ema(closes, 26)
	macd := make([]float64, len(closes))
	for i := range closes {
		macd[i] = fast[i] - slow[i]
	}
	signalLine := ema(macd, 9)

	last := len(closes) - 1
	rsi := rsiLast(closes, rsiWindow)
	support := minLast(closes, supportWindow)

	switch {
	case emaShort[last] > emaLong[last] && macd[last] > signalLine[last] && rsi < overboughtRSI:
		return SignalBuy, math.Max(support, entry*0.98), true
	case emaShort[last] < emaLong[last] && macd[last] < signalLine[last] && rsi > oversoldRSI:
		return SignalSell, support * 0.98, true
	default:
		return SignalHold, support, true
	}
}

// ema is an exponential moving average seeded with the first value.
func ema(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2 / (float64(span) + 1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// rsiLast is the relative strength index of the final window of price
// changes using simple averages. An undefined RSI is neutral (50).
func rsiLast(closes []float64, window int) float64 {
	if len(closes) <= window {
		return 50
	}
	var gain, loss float64
	for i := len(closes) - window; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	gain /= float64(window)
	loss /= float64(window)

	switch {
	case gain == 0 && loss == 0:
		return 50
	case loss == 0:
		return 100
	}
	return 100 - 100/(1+gain/loss)
}

func minLast(values []float64, window int) float64 {
	start := max(len(values)-window, 0)
	m := math.Inf(1)
	for _, v := range values[start:] {
		m = math.Min(m, v)
	}
	return m
}
