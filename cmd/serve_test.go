package cmd

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonandersen/tradedesk/internal/simserver"
)

func TestServeCmd_Flags(t *testing.T) {
	cmd := newServeCmd()
	for _, name := range []string{"addr", "redis", "interval", "seed"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "--%s flag should exist", name)
	}
	assert.Equal(t, ":5000", cmd.Flags().Lookup("addr").DefValue)
	assert.Equal(t, "2s", cmd.Flags().Lookup("interval").DefValue)
}

func TestOpenStore_Memory(t *testing.T) {
	store, err := openStore(context.Background(), "", zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &simserver.MemoryStore{}, store)
}

func TestOpenStore_Redis(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := openStore(context.Background(), mr.Addr(), zap.NewNop())
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &simserver.RedisStore{}, store)
}

func TestOpenStore_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := openStore(context.Background(), addr, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}
