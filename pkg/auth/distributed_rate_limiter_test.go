package auth

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistributedRateLimiterItemKeyHasBothTableKeys(t *testing.T) {
	limiter := NewDistributedUserRateLimiter(nil, "calibration-main", 5)
	windowStart := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC).Truncate(time.Minute)

	key := limiter.itemKey("user-123", windowStart)

	// The tables are composite-keyed, so a key with PK alone would be
	// rejected by DynamoDB and every Allow call would fail open.
	require.Contains(t, key, "PK")
	require.Contains(t, key, "SK")

	pk, ok := key["PK"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, "RATELIMIT#USER#user-123#1772359200", pk.Value)

	sk, ok := key["SK"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, rateLimitSortKey, sk.Value)
}

func TestDistributedRateLimiterSameWindowSameKey(t *testing.T) {
	limiter := NewDistributedUserRateLimiter(nil, "calibration-main", 5)
	windowStart := time.Now().Truncate(time.Minute)

	assert.Equal(t, limiter.itemKey("u", windowStart), limiter.itemKey("u", windowStart))
	assert.NotEqual(t, limiter.itemKey("u", windowStart), limiter.itemKey("u", windowStart.Add(time.Minute)))
}

func TestDistributedRateLimiterNoClientAllowsAll(t *testing.T) {
	limiter := NewDistributedUserRateLimiter(nil, "", 1)

	allowed, err := limiter.Allow(context.Background(), "u")
	require.NoError(t, err)
	assert.True(t, allowed)
	require.NoError(t, limiter.Reset(context.Background(), "u"))
}
