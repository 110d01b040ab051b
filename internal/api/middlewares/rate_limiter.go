package middlewares

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/5w1tchy/library-api/internal/api/apperr"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// limiterTimeout bounds each Redis round trip; on timeout the request is let through.
const limiterTimeout = 200 * time.Millisecond

type KeyFunc func(r *http.Request) string

// PerIPKey keys limits by client IP. Forwarded headers are only read when
// trustProxy is set, i.e. when a proxy that overwrites them sits in front.
func PerIPKey(prefix string, trustProxy bool) KeyFunc {
	return func(r *http.Request) string {
		ip := ClientIP(r, trustProxy)
		if ip == "" {
			ip = "unknown"
		}
		return prefix + ":" + ip
	}
}

// ClientIP is the peer address, or the forwarded client address when trustProxy
// is set and the proxy supplied one.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if xrip := strings.TrimSpace(r.Header.Get("X-Real-IP")); xrip != "" {
			return xrip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

func tooManyRequests(w http.ResponseWriter, r *http.Request, retryAfter int64) {
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
	apperr.Write(w, r, apperr.Problem{
		Status:    http.StatusTooManyRequests,
		Detail:    "rate limit exceeded, retry after " + strconv.FormatInt(retryAfter, 10) + "s",
		Retryable: true,
	})
}

// --------- Token Bucket (Redis + Lua) ---------

// Returns {allowed (1/0), remaining tokens, retry after ms}.
var tokenBucketScript = redis.NewScript(`
local key  = KEYS[1]
local rate = tonumber(ARGV[1])
local cap  = tonumber(ARGV[2])

local t = redis.call('TIME')
local now_ms = (tonumber(t[1]) * 1000) + math.floor(tonumber(t[2]) / 1000)

local data = redis.call('HMGET', key, 'tokens', 'ts')
local tokens = tonumber(data[1])
local ts     = tonumber(data[2])
if tokens == nil then
  tokens = cap
  ts = now_ms
end

local delta_ms = now_ms - ts
if delta_ms > 0 then
  tokens = math.min(cap, tokens + (delta_ms / 1000.0) * rate)
end

local allowed = 0
local retry_after_ms = 0
if tokens >= 1.0 then
  tokens = tokens - 1.0
  allowed = 1
else
  retry_after_ms = math.ceil((1.0 - tokens) * 1000.0 / rate)
end

redis.call('HSET', key, 'tokens', tokens, 'ts', now_ms)
redis.call('PEXPIRE', key, math.ceil((cap / rate) * 1000.0))

return {allowed, math.floor(tokens), retry_after_ms}
`)

// RedisTokenBucket limits bursts: burst requests at once, refilled at ratePerS.
type RedisTokenBucket struct {
	rdb      *redis.Client
	keyFn    KeyFunc
	ratePerS float64
	burst    int
	log      zerolog.Logger
}

func NewRedisTokenBucket(rdb *redis.Client, ratePerSecond float64, burst int, keyFn KeyFunc, log zerolog.Logger) *RedisTokenBucket {
	return &RedisTokenBucket{rdb: rdb, keyFn: keyFn, ratePerS: ratePerSecond, burst: burst, log: log}
}

func (tb *RedisTokenBucket) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := tb.keyFn(r)
		ctx, cancel := context.WithTimeout(r.Context(), limiterTimeout)
		res, err := tokenBucketScript.Run(ctx, tb.rdb, []string{key},
			strconv.FormatFloat(tb.ratePerS, 'f', -1, 64),
			strconv.Itoa(tb.burst),
		).Int64Slice()
		cancel()
		if err != nil || len(res) != 3 {
			tb.log.Warn().Err(err).Str("key", key).Msg("token bucket unavailable, allowing request")
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Policy", "token-bucket")
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(tb.burst))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))

		if res[0] != 1 {
			sec := (res[2] + 999) / 1000
			tb.log.Info().Str("key", key).Int64("retry_after", sec).Msg("token bucket blocked request")
			tooManyRequests(w, r, sec)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --------- Sliding Window (Redis ZSET) ---------

// RedisSlidingWindow allows at most limit requests per key in any window.
type RedisSlidingWindow struct {
	rdb    *redis.Client
	keyFn  KeyFunc
	limit  int
	window time.Duration
	log    zerolog.Logger
	now    func() time.Time
}

func NewRedisSlidingWindow(rdb *redis.Client, limit int, window time.Duration, keyFn KeyFunc, log zerolog.Logger) *RedisSlidingWindow {
	return &RedisSlidingWindow{rdb: rdb, keyFn: keyFn, limit: limit, window: window, log: log, now: time.Now}
}

func (sw *RedisSlidingWindow) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), limiterTimeout)
		defer cancel()

		now := sw.now().UnixMilli()
		windowMs := sw.window.Milliseconds()
		key := sw.keyFn(r)

		pipe := sw.rdb.TxPipeline()
		pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(now-windowMs, 10))
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: uuid.NewString()})
		countCmd := pipe.ZCard(ctx, key)
		oldestCmd := pipe.ZRangeWithScores(ctx, key, 0, 0)
		pipe.PExpire(ctx, key, sw.window+time.Second)
		if _, err := pipe.Exec(ctx); err != nil {
			sw.log.Warn().Err(err).Str("key", key).Msg("sliding window unavailable, allowing request")
			next.ServeHTTP(w, r)
			return
		}
		count := int(countCmd.Val())

		w.Header().Set("X-RateLimit-Policy", "sliding-window")
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(sw.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(0, sw.limit-count)))

		if count > sw.limit {
			var retry int64 = 1
			if oldest := oldestCmd.Val(); len(oldest) == 1 {
				ms := int64(oldest[0].Score) + windowMs - now
				retry = (ms + 999) / 1000
			}
			sw.log.Info().Str("key", key).Int64("retry_after", retry).Msg("sliding window blocked request")
			tooManyRequests(w, r, retry)
			return
		}
		next.ServeHTTP(w, r)
	})
}
