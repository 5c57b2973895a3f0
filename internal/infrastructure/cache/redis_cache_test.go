package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jhoicas/farms-ledger/internal/domain/entity"
	"github.com/jhoicas/farms-ledger/pkg/config"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client), mr
}

func TestRedisCache_GetSet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	var got []*entity.StockBalance
	hit, err := c.Get(ctx, "stock_list:org:abc", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	rows := []*entity.StockBalance{{ID: "s1", PlaceID: "p1", VariantID: "v1", Unit: entity.UnitKilograms, Quantity: decimal.RequireFromString("7.5")}}
	require.NoError(t, c.Set(ctx, "stock_list:org:abc", rows, 10*time.Minute))

	hit, err = c.Get(ctx, "stock_list:org:abc", &got)
	require.NoError(t, err)
	require.True(t, hit)
	require.Len(t, got, 1)
	assert.Equal(t, "s1", got[0].ID)
	assert.True(t, got[0].Quantity.Equal(decimal.RequireFromString("7.5")))

	assert.True(t, mr.Exists(keyPrefix+"stock_list:org:abc"))
	assert.Equal(t, 10*time.Minute, mr.TTL(keyPrefix+"stock_list:org:abc"))
}

func TestRedisCache_Expira(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "bill_list:org:x", []string{"a"}, time.Minute))
	mr.FastForward(2 * time.Minute)

	var got []string
	hit, err := c.Get(ctx, "bill_list:org:x", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisCache_ValorCorrupto(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set(keyPrefix+"record_list:org:y", "{no-json"))

	var got []string
	hit, err := c.Get(context.Background(), "record_list:org:y", &got)
	assert.Error(t, err)
	assert.False(t, hit)
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	_ = client.Close()

	mr.Close()
	_, err = Connect(context.Background(), config.RedisConfig{Addr: mr.Addr()})
	assert.Error(t, err)
}
