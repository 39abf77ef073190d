package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlacklist(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()
	bl := NewBlacklist(db)

	mock.ExpectSet("blacklist:abc", "1", time.Hour).SetVal("OK")
	require.NoError(t, bl.BlacklistToken(ctx, "abc", time.Hour))

	mock.ExpectExists("blacklist:abc").SetVal(1)
	revoked, err := bl.IsTokenBlacklisted(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)

	mock.ExpectExists("blacklist:def").SetVal(0)
	revoked, err = bl.IsTokenBlacklisted(ctx, "def")
	require.NoError(t, err)
	assert.False(t, revoked)

	assert.Error(t, bl.BlacklistToken(ctx, "abc", 0))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBlacklistRedisError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectExists("blacklist:abc").SetErr(errors.New("redis down"))

	_, err := NewBlacklist(db).IsTokenBlacklisted(context.Background(), "abc")
	assert.Error(t, err)
}

func TestRateLimiterAllow(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()
	rl := NewRateLimiter(db)
	key := "ratelimit:api:u-1:coupon_validate"

	mock.ExpectIncr(key).SetVal(1)
	mock.ExpectExpire(key, time.Minute).SetVal(true)
	ok, err := rl.Allow(ctx, "u-1", "coupon_validate", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectIncr(key).SetVal(2)
	ok, err = rl.Allow(ctx, "u-1", "coupon_validate", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectIncr(key).SetVal(3)
	ok, err = rl.Allow(ctx, "u-1", "coupon_validate", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}
