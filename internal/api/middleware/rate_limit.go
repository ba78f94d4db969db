package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/biz-directory/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// NewLimiterStore keeps counters in redis when a client is given, so every
// instance behind a load balancer shares them, and in memory otherwise.
func NewLimiterStore(client *redis.Client) (limiter.Store, error) {
	if client == nil {
		return memory.NewStore(), nil
	}
	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: "directory_limiter",
	})
	if err != nil {
		return nil, fmt.Errorf("create redis limiter store: %w", err)
	}
	return store, nil
}

// GlobalRate allows RATE_LIMIT_BURST requests per window, with the window
// sized so the average stays at RATE_LIMIT_RPS per second.
func GlobalRate(cfg *config.Config) limiter.Rate {
	rps := int64(cfg.RateLimitRPS)
	if rps < 1 {
		rps = 1
	}
	burst := int64(cfg.RateLimitBurst)
	if burst <= rps {
		return limiter.Rate{Period: time.Second, Limit: rps}
	}
	return limiter.Rate{
		Period: time.Duration(burst) * time.Second / time.Duration(rps),
		Limit:  burst,
	}
}

// RateLimitMiddleware limits each client across every route it is mounted
// on. name separates the counters of limiters sharing one store.
func RateLimitMiddleware(name string, store limiter.Store, rate limiter.Rate, log logrus.FieldLogger) gin.HandlerFunc {
	return rateLimit(name, store, rate, log, func(c *gin.Context) string {
		return fmt.Sprintf("%s:%s", name, c.ClientIP())
	})
}

// RouteRateLimitMiddleware limits each client per route, so every route it is
// mounted on has its own budget.
func RouteRateLimitMiddleware(name string, store limiter.Store, rate limiter.Rate, log logrus.FieldLogger) gin.HandlerFunc {
	return rateLimit(name, store, rate, log, func(c *gin.Context) string {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		return fmt.Sprintf("%s:%s:%s", name, c.ClientIP(), route)
	})
}

func rateLimit(name string, store limiter.Store, rate limiter.Rate, log logrus.FieldLogger, key func(c *gin.Context) string) gin.HandlerFunc {
	instance := limiter.New(store, rate, limiter.WithTrustForwardHeader(true))

	return mgin.NewMiddleware(instance,
		mgin.WithKeyGetter(key),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			log.WithFields(logrus.Fields{
				"limiter":   name,
				"client_ip": c.ClientIP(),
				"path":      c.Request.URL.Path,
			}).Warn("rate limit exceeded")
			abortTooManyRequests(c)
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			// Fail open when the limiter store is unreachable.
			log.WithError(err).WithField("limiter", name).Error("rate limiter unavailable")
			c.Next()
		}),
	)
}
