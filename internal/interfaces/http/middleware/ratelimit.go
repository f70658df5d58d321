package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pharmacy/backend/internal/interfaces/http/dto"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

// RateLimitKeyPrefix namespaces limiter keys in the shared store
const RateLimitKeyPrefix = "pos:ratelimit"

// RateLimitConfig holds rate limit middleware configuration
type RateLimitConfig struct {
	Requests int64
	Window   time.Duration
	// Redis, when set, shares counters across instances
	Redis  redis.UniversalClient
	Logger *zap.Logger
}

// NewRateLimiter builds a limiter backed by Redis when a client is given,
// otherwise by process memory
func NewRateLimiter(cfg RateLimitConfig) (*limiter.Limiter, error) {
	rate := limiter.Rate{Period: cfg.Window, Limit: cfg.Requests}

	if cfg.Redis != nil {
		store, err := sredis.NewStoreWithOptions(cfg.Redis, limiter.StoreOptions{
			Prefix: RateLimitKeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		return limiter.New(store, rate), nil
	}

	return limiter.New(memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          RateLimitKeyPrefix,
		CleanUpInterval: cfg.Window * 2,
	}), rate), nil
}

// RateLimit limits requests per actor, or per client IP before authentication.
// Store failures let the request through.
func RateLimit(lim *limiter.Limiter, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		key := rateLimitKey(c)

		result, err := lim.Get(c.Request.Context(), key)
		if err != nil {
			log.Warn("rate limiter unavailable, allowing request",
				zap.String("key", key),
				zap.Error(err),
			)
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
		h.Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(result.Reset, 10))

		if result.Reached {
			retryAfter := max(result.Reset-time.Now().Unix(), 1)
			h.Set("Retry-After", strconv.FormatInt(retryAfter, 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited,
				"Too many requests, please try again later",
				c.GetString(RequestIDKey),
			))
			return
		}

		c.Next()
	}
}

func rateLimitKey(c *gin.Context) string {
	if actor, ok := GetActor(c); ok {
		return "actor:" + actor.TenantID.String() + ":" + actor.UserID.String()
	}
	return "ip:" + c.ClientIP()
}
