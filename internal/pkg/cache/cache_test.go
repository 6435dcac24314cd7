package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/lk2023060901/mercari-shopper-backend/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "console"})
	require.NoError(t, err)
	return log
}

func newTestClient(t *testing.T, ttl time.Duration) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	client, err := New(&Config{Enabled: true, Addr: mr.Addr(), TTL: ttl}, newTestLogger(t))
	require.NoError(t, err)
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestDisabledCache(t *testing.T) {
	client, err := New(&Config{Enabled: false}, newTestLogger(t))
	assert.NoError(t, err)
	assert.Nil(t, client)

	// A nil client is usable: permanent miss, no-op set.
	_, err = client.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrMiss)
	client.Set(context.Background(), "k", []byte("v"))
	assert.NoError(t, client.Close())
}

func TestNilConfig(t *testing.T) {
	client, err := New(nil, newTestLogger(t))
	assert.NoError(t, err)
	assert.Nil(t, client)
}

func TestSetGet(t *testing.T) {
	client, _ := newTestClient(t, time.Minute)
	ctx := context.Background()

	_, err := client.Get(ctx, "mercari:search:abc")
	assert.ErrorIs(t, err, ErrMiss)

	client.Set(ctx, "mercari:search:abc", []byte(`[{"item_id":"m1"}]`))

	val, err := client.Get(ctx, "mercari:search:abc")
	assert.NoError(t, err)
	assert.Equal(t, []byte(`[{"item_id":"m1"}]`), val)
}

func TestTTLExpiry(t *testing.T) {
	client, mr := newTestClient(t, time.Minute)
	ctx := context.Background()

	client.Set(ctx, "k", []byte("v"))
	mr.FastForward(2 * time.Minute)

	_, err := client.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestConnectFailure(t *testing.T) {
	_, err := New(&Config{Enabled: true, Addr: "127.0.0.1:1"}, newTestLogger(t))
	assert.Error(t, err)
}
