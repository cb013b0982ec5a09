package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/user/iptvhub/internal/utils"
)

// rateLimiterStore 按客户端 IP 保存限流器，闲置 10 分钟后回收
type rateLimiterStore struct {
	mu        sync.Mutex
	limiters  *cache.Cache
	rate      rate.Limit
	burstSize int
}

func newRateLimiterStore(r rate.Limit, burst int) *rateLimiterStore {
	return &rateLimiterStore{
		limiters:  cache.New(10*time.Minute, 20*time.Minute),
		rate:      r,
		burstSize: burst,
	}
}

func (s *rateLimiterStore) getLimiter(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	limiter, ok := s.limiters.Get(key)
	if !ok {
		limiter = rate.NewLimiter(s.rate, s.burstSize)
	}
	s.limiters.SetDefault(key, limiter)
	return limiter.(*rate.Limiter)
}

// RateLimit 按 IP 限流，rps <= 0 时不限
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	if burst < 1 {
		burst = 1
	}
	store := newRateLimiterStore(rate.Limit(rps), burst)
	retryAfter := strconv.Itoa(int(math.Ceil(1 / rps)))

	return func(c *gin.Context) {
		limiter := store.getLimiter(c.ClientIP())
		if !limiter.Allow() {
			c.Header("Retry-After", retryAfter)
			utils.Error(c, http.StatusTooManyRequests, "请求过于频繁")
			return
		}
		c.Next()
	}
}
