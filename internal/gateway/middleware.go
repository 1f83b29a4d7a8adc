package gateway

import (
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"shareit/internal/metrics"
	"shareit/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const requestIDKey = "request_id"

// requestID adopts the caller's X-Request-Id or issues a fresh one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(models.HeaderRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(models.HeaderRequestID, id)
		c.Next()
	}
}

func (g *Gateway) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.IncHTTP("gateway", route, status)

		g.log.Info().
			Str("request_id", c.GetString(requestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// userLimiter keeps one token bucket per caller.
type userLimiter struct {
	limiters  sync.Map
	limit     rate.Limit
	burst     int
	idleAfter time.Duration
	lastSweep atomic.Int64
}

func newUserLimiter(rps float64, burst int) *userLimiter {
	return &userLimiter{
		limit:     rate.Limit(rps),
		burst:     burst,
		idleAfter: 10 * time.Minute,
	}
}

func (l *userLimiter) allow(key string) bool {
	t := time.Now()
	val, ok := l.limiters.Load(key)
	if !ok {
		val, _ = l.limiters.LoadOrStore(key, &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)})
	}
	entry := val.(*limiterEntry)
	entry.lastSeen.Store(t.UnixNano())
	l.sweep(t)
	return entry.limiter.AllowN(t, 1)
}

// sweep drops idle buckets, at most once per idleAfter.
func (l *userLimiter) sweep(t time.Time) {
	last := l.lastSweep.Load()
	if t.UnixNano()-last < int64(l.idleAfter) || !l.lastSweep.CompareAndSwap(last, t.UnixNano()) {
		return
	}
	cutoff := t.Add(-l.idleAfter).UnixNano()
	l.limiters.Range(func(key, val any) bool {
		if val.(*limiterEntry).lastSeen.Load() < cutoff {
			l.limiters.Delete(key)
		}
		return true
	})
}

func (g *Gateway) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if id := strings.TrimSpace(c.GetHeader(models.HeaderUserID)); id != "" {
			key = "user:" + id
		}
		if !g.limiter.allow(key) {
			abortWithError(c, http.StatusTooManyRequests, "TooManyRequests", "rate limit exceeded")
			return
		}
		c.Next()
	}
}

func abortWithError(c *gin.Context, status int, errorClass, message string) {
	c.AbortWithStatusJSON(status, gin.H{"errorClass": errorClass, "message": message})
}

func abortValidation(c *gin.Context, message string) {
	abortWithError(c, http.StatusBadRequest, "ValidationError", message)
}
