// Package tradeapi defines the wire types shared by the trading server's push
// channel and its order endpoint.
package tradeapi

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

func init() {
	// Money and prices travel as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Push channel event names.
const (
	EventUpdates         = "updates"
	EventPortfolioUpdate = "portfolio_update"
)

// Order actions.
const (
	ActionBuy  = "buy"
	ActionSell = "sell"
)

// Envelope frames every message on the push channel.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Quote is the live snapshot for one symbol.
type Quote struct {
	Name        string              `json:"name,omitempty"`
	Price       decimal.Decimal     `json:"price"`
	Change      decimal.Decimal     `json:"change"`
	Volume      float64             `json:"volume,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
	TradeSignal string              `json:"trade_signal,omitempty"`
	StopLoss    decimal.NullDecimal `json:"stop_loss"`
	History     []decimal.Decimal   `json:"history,omitempty"`
}

// UpdatesEvent is the payload of an "updates" push. It always carries the
// full board, never a delta.
type UpdatesEvent struct {
	Stocks map[string]Quote `json:"stocks"`
}

// Holding is one position in a portfolio.
type Holding struct {
	Symbol   string          `json:"symbol"`
	Quantity int64           `json:"quantity"`
	AvgPrice decimal.Decimal `json:"avg_price"`
}

// Transaction is one executed order in a portfolio's history.
type Transaction struct {
	Action    string          `json:"action"`
	Symbol    string          `json:"symbol"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// Portfolio is a user's cash balance and holdings.
type Portfolio struct {
	Balance      decimal.Decimal `json:"balance"`
	Holdings     []Holding       `json:"holdings"`
	Transactions []Transaction   `json:"transactions,omitempty"`
}

// PortfolioEvent is the payload of a "portfolio_update" push. Servers
// broadcast it to every viewer; Email says whose portfolio it is.
type PortfolioEvent struct {
	Email     string    `json:"email"`
	Portfolio Portfolio `json:"portfolio"`
}

// OrderRequest is the body of POST /trade.
type OrderRequest struct {
	Action   string `json:"action"`
	Symbol   string `json:"symbol"`
	Quantity int    `json:"quantity"`
}

// OrderResponse is the body returned by POST /trade. A non-empty Error means
// the order was rejected.
type OrderResponse struct {
	Error     string     `json:"error,omitempty"`
	Success   bool       `json:"success,omitempty"`
	Portfolio *Portfolio `json:"portfolio,omitempty"`
}
