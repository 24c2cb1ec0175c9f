package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go-ems/internal/shared/contextutil"
	"go-ems/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	IdempotencyHeader   = "Idempotency-Key"
	idempotencyTTL      = 24 * time.Hour
	idempotencyLockTTL  = 30 * time.Second
	idempotencyReplayed = "Idempotent-Replayed"
)

type cachedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// bodyCaptureWriter tees the response body so a 2xx result can be replayed.
type bodyCaptureWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyCaptureWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the first 2xx response of a POST carrying an
// Idempotency-Key header, scoped per route and user. A duplicate that
// arrives while the first is still running gets 409 PROCESSING.
func Idempotency(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		idempKey := c.GetHeader(IdempotencyHeader)
		if idempKey == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		logger := contextutil.GetLogger(ctx, nil).Named("middleware.idempotency")

		email := c.GetString(ContextUserEmail)
		cacheKey := fmt.Sprintf("idemp:%s:%s:%s", c.FullPath(), email, idempKey)
		lockKey := cacheKey + ":lock"

		// 1. cek cache
		if val, err := rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached cachedResponse
			if json.Unmarshal(val, &cached) == nil {
				c.Header(idempotencyReplayed, "true")
				c.Data(cached.Status, "application/json; charset=utf-8", cached.Body)
				c.Abort()
				return
			}
		} else if err != redis.Nil {
			// Redis down: proses tanpa idempotency daripada menolak request.
			logger.Warn("idempotency cache unavailable", zap.Error(err))
			c.Next()
			return
		}

		// 2. atomic lock
		isNew, err := rdb.SetNX(ctx, lockKey, "locked", idempotencyLockTTL).Result()
		if err != nil {
			logger.Warn("idempotency lock unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !isNew {
			response.Error(c, http.StatusConflict, "PROCESSING", "Request with this Idempotency-Key is still being processed", nil)
			c.Abort()
			return
		}

		writer := &bodyCaptureWriter{ResponseWriter: c.Writer}
		c.Writer = writer

		c.Next()

		status := writer.Status()
		if status >= 200 && status < 300 {
			payload, err := json.Marshal(cachedResponse{Status: status, Body: writer.buf.Bytes()})
			if err == nil {
				if err := rdb.Set(ctx, cacheKey, payload, idempotencyTTL).Err(); err != nil {
					logger.Warn("idempotency cache write failed", zap.Error(err))
				}
			}
		}
		if err := rdb.Del(ctx, lockKey).Err(); err != nil {
			logger.Warn("idempotency unlock failed", zap.Error(err))
		}
	}
}
