/**
 * @description
 * Distributed rate limiting for anonymous donation submissions, backed by
 * Redis. A fixed-window counter per client IP protects the checkout creation
 * path from abuse. When Redis is not configured the limiter fails open so a
 * missing cache never blocks real donors.
 */

package app

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// The script must be atomic: INCR and PEXPIRE as separate round trips would
// leave a keyless counter behind on a dropped connection, which never expires.
var donationRateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// RedisDonationRateLimiter throttles checkout creation per anonymous caller
// with a fixed window counter in Redis.
type RedisDonationRateLimiter struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisDonationRateLimiter creates a limiter. The prefix namespaces the
// counter keys so the limiter can share a Redis with other tenants.
func NewRedisDonationRateLimiter(client redis.UniversalClient, prefix string) *RedisDonationRateLimiter {
	keyPrefix := strings.TrimSpace(prefix)
	if keyPrefix == "" {
		keyPrefix = "donation:rate_limit"
	}
	keyPrefix = strings.TrimSuffix(keyPrefix, ":")

	return &RedisDonationRateLimiter{
		client: client,
		prefix: keyPrefix,
	}
}

// ConsumeRateLimit counts one attempt by subject within scope and reports the
// window's running total plus how long the caller should wait once over the
// limit. A nil limiter or client, or a non-positive limit, disables limiting
// entirely; the caller treats a zero count as "allowed".
func (r *RedisDonationRateLimiter) ConsumeRateLimit(
	ctx context.Context,
	scope string,
	subject string,
	limit int,
	window time.Duration,
) (count int, retryAfterSeconds int, err error) {
	if r == nil || r.client == nil || limit <= 0 || window <= 0 {
		return 0, 0, nil
	}

	scope = strings.TrimSpace(scope)
	subject = strings.TrimSpace(subject)
	if scope == "" || subject == "" {
		return 0, 0, nil
	}

	// Sub-second windows round up; PTTL resolution makes them meaningless.
	windowMs := window.Milliseconds()
	if windowMs < 1000 {
		windowMs = 1000
	}

	key := fmt.Sprintf("%s:%s:%s", r.prefix, scope, subject)
	raw, err := donationRateLimitScript.Run(ctx, r.client, []string{key}, windowMs).Result()
	if err != nil {
		return 0, 0, err
	}

	reply, ok := raw.([]interface{})
	if !ok || len(reply) != 2 {
		return 0, 0, fmt.Errorf("rate limit script returned %T, want [count, ttl]", raw)
	}
	total, ok := reply[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("rate limit count is %T, want int64", reply[0])
	}
	ttlMs, ok := reply[1].(int64)
	if !ok {
		return int(total), 0, fmt.Errorf("rate limit ttl is %T, want int64", reply[1])
	}
	if ttlMs < 0 {
		ttlMs = windowMs
	}

	retryAfter := int(math.Ceil(float64(ttlMs) / 1000.0))
	if retryAfter < 1 {
		retryAfter = 1
	}

	return int(total), retryAfter, nil
}
