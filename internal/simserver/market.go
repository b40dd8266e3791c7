package simserver

import (
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jonandersen/tradedesk/internal/config"
	"github.com/jonandersen/tradedesk/pkg/tradeapi"
)

const (
	maxHistory   = 50
	maxStepRatio = 0.04 // ±2% per tick
	defaultPrice = 1000
)

var basePrices = map[string]float64{
	"RELIANCE.NS":  2450,
	"TCS.NS":       3500,
	"HDFCBANK.NS":  1600,
	"INFY.NS":      1450,
	"WIPRO.NS":     420,
	"ICICIBANK.NS": 950,
	"ITC.NS":       430,
	"SBIN.NS":      600,
}

var minPrice = decimal.RequireFromString("0.01")

type stock struct {
	name    string
	open    decimal.Decimal
	price   decimal.Decimal
	volume  int64
	history []decimal.Decimal
}

// Market is a random-walk price book for a fixed set of symbols.
type Market struct {
	mu     sync.RWMutex
	rng    *rand.Rand
	order  []string
	stocks map[string]*stock
	last   map[string]tradeapi.Quote
}

// NewMarket creates a market opening at each symbol's base price.
func NewMarket(symbols []config.Symbol, seed int64) *Market {
	m := &Market{
		rng:    rand.New(rand.NewSource(seed)),
		stocks: make(map[string]*stock, len(symbols)),
		last:   map[string]tradeapi.Quote{},
	}
	for _, s := range symbols {
		if _, dup := m.stocks[s.Symbol]; dup {
			continue
		}
		base, ok := basePrices[s.Symbol]
		if !ok {
			base = defaultPrice
		}
		open := decimal.NewFromFloat(base)
		m.order = append(m.order, s.Symbol)
		m.stocks[s.Symbol] = &stock{name: s.Name, open: open, price: open}
	}
	return m
}

// Price returns the current price of symbol.
func (m *Market) Price(symbol string) (decimal.Decimal, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.stocks[symbol]
	if !ok {
		return decimal.Zero, false
	}
	return s.price, true
}

// Tick moves every price and returns the new full snapshot.
func (m *Market) Tick(now time.Time) map[string]tradeapi.Quote {
	m.mu.Lock()
	defer m.mu.Unlock()

	ts := now.UTC().Format(time.RFC3339)
	snapshot := make(map[string]tradeapi.Quote, len(m.stocks))
	for _, sym := range m.order {
		s := m.stocks[sym]

		step := decimal.NewFromFloat(1 + (m.rng.Float64()-0.5)*maxStepRatio)
		s.price = s.price.Mul(step).Round(2)
		if s.price.LessThan(minPrice) {
			s.price = minPrice
		}
		s.volume += m.rng.Int63n(10000)

		s.history = append(s.history, s.price)
		if len(s.history) > maxHistory {
			s.history = s.history[len(s.history)-maxHistory:]
		}

		snapshot[sym] = m.quote(s, ts)
	}
	m.last = snapshot
	return copyQuotes(snapshot)
}

// Snapshot returns the most recent snapshot. It is empty before the first tick.
func (m *Market) Snapshot() map[string]tradeapi.Quote {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyQuotes(m.last)
}

func (m *Market) quote(s *stock, ts string) tradeapi.Quote {
	change := s.price.Sub(s.open).Div(s.open).Mul(decimal.NewFromInt(100)).Round(2)
	history := make([]decimal.Decimal, len(s.history))
	copy(history, s.history)

	q := tradeapi.Quote{
		Name:      s.name,
		Price:     s.price,
		Change:    change,
		Volume:    float64(s.volume),
		Timestamp: ts,
		History:   history,
	}

	closes := make([]float64, len(s.history))
	for i, h := range s.history {
		closes[i] = h.InexactFloat64()
	}
	if signal, stop, ok := deriveSignal(closes, s.price.InexactFloat64()); ok {
		q.TradeSignal = signal
		q.StopLoss = decimal.NewNullDecimal(decimal.NewFromFloat(stop).Round(2))
	}
	return q
}

func copyQuotes(in map[string]tradeapi.Quote) map[string]tradeapi.Quote {
	out := make(map[string]tradeapi.Quote, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
