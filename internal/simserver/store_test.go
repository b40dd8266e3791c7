package simserver

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonandersen/tradedesk/pkg/tradeapi"
)

func samplePortfolio() tradeapi.Portfolio {
	return tradeapi.Portfolio{
		Balance: decimal.RequireFromString("97550.5"),
		Holdings: []tradeapi.Holding{
			{Symbol: "TCS.NS", Quantity: 2, AvgPrice: decimal.RequireFromString("1224.75")},
		},
		Transactions: []tradeapi.Transaction{
			{Action: "buy", Symbol: "TCS.NS", Quantity: 2, Price: decimal.RequireFromString("1224.75"), Timestamp: "2026-03-04T10:00:00Z"},
		},
	}
}

func storeContract(t *testing.T, store PortfolioStore) {
	t.Helper()
	ctx := context.Background()

	p, err := store.Get(ctx, "new@example.com")
	require.NoError(t, err)
	assert.True(t, p.Balance.Equal(StartingBalance))
	assert.NotNil(t, p.Holdings)
	assert.Empty(t, p.Holdings)

	want := samplePortfolio()
	require.NoError(t, store.Save(ctx, "a@example.com", want))

	got, err := store.Get(ctx, "a@example.com")
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(want.Balance))
	require.Len(t, got.Holdings, 1)
	assert.Equal(t, "TCS.NS", got.Holdings[0].Symbol)
	assert.True(t, got.Holdings[0].AvgPrice.Equal(want.Holdings[0].AvgPrice))
	require.Len(t, got.Transactions, 1)

	// Mutating a loaded portfolio does not leak into the store.
	got.Holdings[0].Quantity = 99
	again, err := store.Get(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(2), again.Holdings[0].Quantity)

	require.NoError(t, store.Close())
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	storeContract(t, NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()})))
	assert.True(t, mr.Exists("portfolio:a@example.com"))
}

func TestRedisStore_CorruptDocument(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("portfolio:bad@example.com", "{not json"))

	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer store.Close()

	_, err := store.Get(context.Background(), "bad@example.com")
	assert.ErrorContains(t, err, "failed to decode portfolio")
}

func TestRedisStore_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}))
	defer store.Close()
	mr.Close()

	_, err := store.Get(context.Background(), "a@example.com")
	assert.ErrorContains(t, err, "failed to load portfolio")
}
