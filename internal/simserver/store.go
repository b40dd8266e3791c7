package simserver

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jonandersen/tradedesk/pkg/tradeapi"
)

// StartingBalance is the cash every new viewer starts with.
var StartingBalance = decimal.NewFromInt(100000)

// PortfolioStore persists portfolios by viewer identity.
type PortfolioStore interface {
	// Get returns the portfolio for email, or a fresh one with the starting
	// balance if none is stored.
	Get(ctx context.Context, email string) (tradeapi.Portfolio, error)
	Save(ctx context.Context, email string, p tradeapi.Portfolio) error
	Close() error
}

// NewPortfolio returns an empty portfolio with the starting balance.
func NewPortfolio() tradeapi.Portfolio {
	return tradeapi.Portfolio{
		Balance:      StartingBalance,
		Holdings:     []tradeapi.Holding{},
		Transactions: []tradeapi.Transaction{},
	}
}

// Compile-time check to ensure MemoryStore implements PortfolioStore
var _ PortfolioStore = (*MemoryStore)(nil)

// MemoryStore keeps portfolios in process memory.
type MemoryStore struct {
	mu         sync.RWMutex
	portfolios map[string]tradeapi.Portfolio
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{portfolios: make(map[string]tradeapi.Portfolio)}
}

func (s *MemoryStore) Get(_ context.Context, email string) (tradeapi.Portfolio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.portfolios[email]
	if !ok {
		return NewPortfolio(), nil
	}
	return clonePortfolio(p), nil
}

func (s *MemoryStore) Save(_ context.Context, email string, p tradeapi.Portfolio) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.portfolios[email] = clonePortfolio(p)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func clonePortfolio(p tradeapi.Portfolio) tradeapi.Portfolio {
	out := tradeapi.Portfolio{
		Balance:      p.Balance,
		Holdings:     make([]tradeapi.Holding, len(p.Holdings)),
		Transactions: make([]tradeapi.Transaction, len(p.Transactions)),
	}
	copy(out.Holdings, p.Holdings)
	copy(out.Transactions, p.Transactions)
	return out
}
