package simserver

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jonandersen/tradedesk/pkg/tradeapi"
)

// Rejection messages returned to clients.
const (
	ErrMsgInvalidSymbol     = "Invalid stock symbol"
	ErrMsgInsufficientFunds = "Insufficient funds"
	ErrMsgNotInPortfolio    = "Stock not in portfolio"
	ErrMsgInsufficientStock = "Insufficient stocks to sell"
	ErrMsgQuantity          = "Quantity must be positive"
	ErrMsgInvalidAction     = "Invalid action"
)

// TradeError is a business rejection of an order.
type TradeError struct {
	Message string
}

func (e *TradeError) Error() string { return e.Message }

// applyTrade executes req against p at price. p is modified only on success.
func applyTrade(p *tradeapi.Portfolio, req tradeapi.OrderRequest, price decimal.Decimal, now time.Time) error {
	if req.Quantity <= 0 {
		return &TradeError{Message: ErrMsgQuantity}
	}
	qty := int64(req.Quantity)
	amount := price.Mul(decimal.NewFromInt(qty))

	idx := -1
	for i, h := range p.Holdings {
		if h.Symbol == req.Symbol {
			idx = i
			break
		}
	}

	switch req.Action {
	case tradeapi.ActionBuy:
		if amount.GreaterThan(p.Balance) {
			return &TradeError{Message: ErrMsgInsufficientFunds}
		}
		if idx < 0 {
			p.Holdings = append(p.Holdings, tradeapi.Holding{Symbol: req.Symbol, Quantity: qty, AvgPrice: price})
		} else {
			h := &p.Holdings[idx]
			newQty := h.Quantity + qty
			cost := h.AvgPrice.Mul(decimal.NewFromInt(h.Quantity)).Add(amount)
			h.AvgPrice = cost.DivRound(decimal.NewFromInt(newQty), 4)
			h.Quantity = newQty
		}
		p.Balance = p.Balance.Sub(amount)

	case tradeapi.ActionSell:
		if idx < 0 {
			return &TradeError{Message: ErrMsgNotInPortfolio}
		}
		if qty > p.Holdings[idx].Quantity {
			return &TradeError{Message: ErrMsgInsufficientStock}
		}
		p.Holdings[idx].Quantity -= qty
		if p.Holdings[idx].Quantity == 0 {
			p.Holdings = append(p.Holdings[:idx], p.Holdings[idx+1:]...)
		}
		p.Balance = p.Balance.Add(amount)

	default:
		return &TradeError{Message: ErrMsgInvalidAction}
	}

	p.Transactions = append(p.Transactions, tradeapi.Transaction{
		Action:    req.Action,
		Symbol:    req.Symbol,
		Quantity:  qty,
		Price:     price,
		Timestamp: now.UTC().Format(time.RFC3339),
	})
	return nil
}

// userLocks serialises trades per viewer.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*sync.Mutex)}
}

func (u *userLocks) lock(email string) func() {
	u.mu.Lock()
	l, ok := u.locks[email]
	if !ok {
		l = &sync.Mutex{}
		u.locks[email] = l
	}
	u.mu.Unlock()

	l.Lock()
	return l.Unlock
}
