package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"onyx.backend/pkg/logger"
	"onyx.backend/pkg/redis"
)

const (
	IdempotencyHeader    = "Idempotency-Key"
	IdempotencyHitHeader = "X-Idempotency-Hit"
	// LockDuration is the time we hold the lock while processing
	LockDuration = 30 * time.Second
	// RetentionDuration is how long we keep the response
	RetentionDuration = 24 * time.Hour

	processingMarker  = "processing"
	maxIdempotencyKey = 255
)

var (
	redisReady = func() bool { return redis.GetClient() != nil }
	redisGet   = redis.Get
	redisSet   = redis.Set
	redisSetNX = redis.SetNX
	redisDel   = redis.Del
)

type cachedResponse struct {
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body"`
}

// handlerHeaders returns the response headers set after the snapshot
// before was taken. Content headers are rebuilt on replay and skipped.
func handlerHeaders(before map[string]struct{}, after http.Header) map[string]string {
	out := make(map[string]string)
	for name, values := range after {
		if _, seen := before[name]; seen || len(values) == 0 {
			continue
		}
		if name == "Content-Type" || name == "Content-Length" {
			continue
		}
		out[name] = values[0]
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware replays the stored 2xx response for a repeated
// Idempotency-Key. Requests without the header, or arriving while Redis is
// unavailable, pass straight through.
func IdempotencyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" || !redisReady() {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKey {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "Idempotency-Key is too long",
				"code":  "VALIDATION_ERROR",
			})
			return
		}

		subject, _ := GetProviderSubject(c)
		storageKey := fmt.Sprintf("idempotency:%s:%s:%s", c.FullPath(), subject, key)
		ctx := c.Request.Context()

		val, err := redisGet(ctx, storageKey)
		switch {
		case err == nil && val == processingMarker:
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"error": "Request already in progress",
				"code":  "IDEMPOTENCY_CONFLICT",
			})
			return
		case err == nil:
			var cached cachedResponse
			if jsonErr := json.Unmarshal([]byte(val), &cached); jsonErr != nil || cached.Status == 0 {
				logger.Warn(ctx, "Discarding unreadable idempotency entry", zap.String("key", storageKey))
				_ = redisDel(ctx, storageKey)
				c.Next()
				return
			}
			for name, value := range cached.Headers {
				c.Header(name, value)
			}
			c.Header(IdempotencyHitHeader, "true")
			c.Data(cached.Status, "application/json; charset=utf-8", []byte(cached.Body))
			c.Abort()
			return
		case !redis.IsNil(err):
			logger.Warn(ctx, "Idempotency lookup failed, processing without it", zap.Error(err))
			c.Next()
			return
		}

		acquired, err := redisSetNX(ctx, storageKey, processingMarker, LockDuration)
		if err != nil {
			logger.Warn(ctx, "Idempotency lock failed, processing without it", zap.Error(err))
			c.Next()
			return
		}
		if !acquired {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"error": "Request already in progress",
				"code":  "IDEMPOTENCY_CONFLICT",
			})
			return
		}

		preset := make(map[string]struct{}, len(c.Writer.Header()))
		for name := range c.Writer.Header() {
			preset[name] = struct{}{}
		}

		w := &responseWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = w

		c.Next()

		status := c.Writer.Status()
		if status >= 200 && status < 300 {
			payload, _ := json.Marshal(cachedResponse{
				Status:  status,
				Headers: handlerHeaders(preset, c.Writer.Header()),
				Body:    w.body.String(),
			})
			if err := redisSet(ctx, storageKey, string(payload), RetentionDuration); err != nil {
				logger.Warn(ctx, "Failed to store idempotent response", zap.Error(err))
			}
			return
		}
		// release the key so the client can retry
		_ = redisDel(ctx, storageKey)
	}
}
