package redisx

import (
	"context"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

// expiringRedis reports the key as taken on the first SETNX, then lets it vanish before GET.
type expiringRedis struct {
	redis.Cmdable
	setnx int
	gets  int
	stuck bool
}

func (r *expiringRedis) SetNX(_ context.Context, _ string, _ interface{}, _ time.Duration) *redis.BoolCmd {
	r.setnx++
	return redis.NewBoolResult(!r.stuck && r.setnx > 1, nil)
}

func (r *expiringRedis) Get(_ context.Context, _ string) *redis.StringCmd {
	r.gets++
	return redis.NewStringResult("", redis.Nil)
}

func TestClaimKeyExpiresBetweenCalls(t *testing.T) {
	ctx := context.Background()

	t.Run("claims the key again", func(t *testing.T) {
		rdb := &expiringRedis{}
		v, first, err := NewCache(rdb).Claim(ctx, ScopePaymentCreate, "k", "pending")
		require.NoError(t, err)
		assert.True(t, first)
		assert.Equal(t, "pending", v)
		assert.Equal(t, 2, rdb.setnx)
	})

	t.Run("gives up with an error instead of an empty value", func(t *testing.T) {
		rdb := &expiringRedis{stuck: true}
		v, first, err := NewCache(rdb).Claim(ctx, ScopePaymentCreate, "k", "pending")
		require.Error(t, err)
		assert.False(t, first)
		assert.Empty(t, v)
		assert.Equal(t, claimAttempts, rdb.gets)
	})
}
