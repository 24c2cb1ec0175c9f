package middleware

import (
	"go-ems/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ContextLogger menempelkan request id dan email user ke logger per request,
// lalu mempropagasikannya ke context standar untuk layer service/repo.
// Dipasang setelah AuthMiddleware agar email sudah tersedia.
func ContextLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.New().String()
		}
		c.Header("X-Request-ID", rid)

		email := c.GetString(ContextUserEmail)

		reqLogger := logger.With(
			zap.String("request_id", rid),
			zap.String("user_email", email),
		)

		ctx := c.Request.Context()
		ctx = contextutil.WithRequestID(ctx, rid)
		ctx = contextutil.WithUserEmail(ctx, email)
		ctx = contextutil.WithLogger(ctx, reqLogger)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
