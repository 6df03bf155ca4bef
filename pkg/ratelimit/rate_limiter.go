package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"eventix/internal/shared/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RateLimitType string

const (
	RateLimitTypeDefault  RateLimitType = "default"
	RateLimitTypePublic   RateLimitType = "public"
	RateLimitTypeAuth     RateLimitType = "auth"
	RateLimitTypeBooking  RateLimitType = "booking"
	RateLimitTypeCritical RateLimitType = "critical"
	RateLimitTypeAdmin    RateLimitType = "admin"
	RateLimitTypeUser     RateLimitType = "user"
	RateLimitTypeHealth   RateLimitType = "health"
)

const keyPrefix = "eventix:ratelimit:"

type Config struct {
	Enabled          bool
	WindowDuration   time.Duration
	DefaultRequests  int
	PublicRequests   int
	AuthRequests     int
	BookingRequests  int
	CriticalRequests int
	AdminRequests    int
	UserRequests     int
	HealthRequests   int
	WhitelistedIPs   []string
}

func ConfigFrom(cfg config.RateLimitConfig) *Config {
	return &Config{
		Enabled:          cfg.Enabled,
		WindowDuration:   cfg.WindowDuration,
		DefaultRequests:  cfg.DefaultRequests,
		PublicRequests:   cfg.PublicRequests,
		AuthRequests:     cfg.AuthRequests,
		BookingRequests:  cfg.BookingRequests,
		CriticalRequests: cfg.CriticalRequests,
		AdminRequests:    cfg.AdminRequests,
		UserRequests:     cfg.UserRequests,
		HealthRequests:   cfg.HealthRequests,
		WhitelistedIPs:   cfg.WhitelistedIPs,
	}
}

type Result struct {
	Allowed   bool  `json:"allowed"`
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	ResetTime int64 `json:"reset_time"`
}

// Sliding window over a sorted set scored by request time in milliseconds.
// Returns {allowed, remaining}.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local window_start = tonumber(ARGV[1])
local now = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local window_ms = tonumber(ARGV[4])

redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
local count = redis.call('ZCARD', key)

if count >= limit then
	redis.call('PEXPIRE', key, window_ms)
	return {0, 0}
end

redis.call('ZADD', key, now, ARGV[5])
redis.call('PEXPIRE', key, window_ms)
return {1, limit - count - 1}
`)

// RateLimiter counts requests per client IP and route class in Redis
type RateLimiter struct {
	client    *redis.Client
	config    *Config
	whitelist map[string]bool
	now       func() time.Time
	newMember func(now time.Time) string
}

func NewRateLimiter(client *redis.Client, cfg *Config) *RateLimiter {
	whitelist := make(map[string]bool, len(cfg.WhitelistedIPs))
	for _, ip := range cfg.WhitelistedIPs {
		whitelist[ip] = true
	}
	return &RateLimiter{
		client:    client,
		config:    cfg,
		whitelist: whitelist,
		now:       time.Now,
		newMember: func(now time.Time) string {
			// two requests in the same millisecond must stay distinct members
			return strconv.FormatInt(now.UnixNano(), 10) + "-" + uuid.NewString()[:8]
		},
	}
}

func (r *RateLimiter) IsAllowed(ctx context.Context, clientIP string, limitType RateLimitType) (*Result, error) {
	limit := r.getLimit(limitType)
	now := r.now()

	if !r.config.Enabled || r.whitelist[clientIP] {
		return &Result{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit,
			ResetTime: now.Add(r.config.WindowDuration).Unix(),
		}, nil
	}

	key := keyPrefix + string(limitType) + ":" + clientIP
	return r.checkLimit(ctx, key, limit, now)
}

func (r *RateLimiter) checkLimit(ctx context.Context, key string, limit int, now time.Time) (*Result, error) {
	window := r.config.WindowDuration
	values, err := slidingWindowScript.Run(ctx, r.client, []string{key},
		now.Add(-window).UnixMilli(),
		now.UnixMilli(),
		limit,
		window.Milliseconds(),
		r.newMember(now),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit script failed: %w", err)
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("unexpected rate limit response: %v", values)
	}

	return &Result{
		Allowed:   values[0] == 1,
		Limit:     limit,
		Remaining: int(values[1]),
		ResetTime: now.Add(window).Unix(),
	}, nil
}

func (r *RateLimiter) getLimit(limitType RateLimitType) int {
	switch limitType {
	case RateLimitTypePublic:
		return r.config.PublicRequests
	case RateLimitTypeAuth:
		return r.config.AuthRequests
	case RateLimitTypeBooking:
		return r.config.BookingRequests
	case RateLimitTypeCritical:
		return r.config.CriticalRequests
	case RateLimitTypeAdmin:
		return r.config.AdminRequests
	case RateLimitTypeUser:
		return r.config.UserRequests
	case RateLimitTypeHealth:
		return r.config.HealthRequests
	default:
		return r.config.DefaultRequests
	}
}
