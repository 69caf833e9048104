package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/dumeirei/pg-manager-backend/internal/common/cache"
	"github.com/dumeirei/pg-manager-backend/internal/common/response"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	RedisClient *redis.Client
	Name        string        // 限流规则名，作为键的一部分
	Limit       int           // 窗口内允许次数
	Window      time.Duration // 时间窗口
	KeyFunc     func(*gin.Context) string
}

// RateLimit 固定窗口限流中间件，Redis 不可用时放行
func RateLimit(config *RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if config.RedisClient == nil || config.Limit <= 0 {
			c.Next()
			return
		}

		subject := c.ClientIP()
		if config.KeyFunc != nil {
			subject = config.KeyFunc(c)
		}
		key := cache.BuildKey(cache.KeyPrefixRateLimit, config.Name, subject)

		ctx := c.Request.Context()
		count, err := config.RedisClient.Incr(ctx, key).Result()
		if err != nil {
			c.Next()
			return
		}
		if count == 1 {
			config.RedisClient.Expire(ctx, key, config.Window)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Limit))

		if int(count) > config.Limit {
			ttl, _ := config.RedisClient.TTL(ctx, key).Result()
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", fmt.Sprintf("%d", int(ttl.Seconds())))

			response.TooManyRequests(c, "Too many requests, please try again later")
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(config.Limit-int(count)))
		c.Next()
	}
}

// IPRateLimit 按 IP 限流
func IPRateLimit(redisClient *redis.Client, name string, limit int, window time.Duration) gin.HandlerFunc {
	return RateLimit(&RateLimitConfig{
		RedisClient: redisClient,
		Name:        name,
		Limit:       limit,
		Window:      window,
	})
}

// UserRateLimit 按登录用户限流，未登录时退回 IP
func UserRateLimit(redisClient *redis.Client, name string, limit int, window time.Duration) gin.HandlerFunc {
	return RateLimit(&RateLimitConfig{
		RedisClient: redisClient,
		Name:        name,
		Limit:       limit,
		Window:      window,
		KeyFunc: func(c *gin.Context) string {
			if userID := GetUserID(c); userID > 0 {
				return "user:" + strconv.FormatInt(userID, 10)
			}
			return c.ClientIP()
		},
	})
}
