package leave

import (
	"go-ems/internal/middleware"
	"go-ems/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
	auth gin.HandlerFunc,
	rdb *redis.Client,
	logger *zap.Logger,
) {
	pending := r.Group("/leaves")
	pending.Use(auth, middleware.ContextLogger(logger))
	{
		pending.GET("/pending",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, rbac.ResourceLeave, rbac.ActionReadAll),
			handler.ListPending,
		)
	}

	leaves := r.Group("/employees/:email/leaves")
	leaves.Use(auth, middleware.ContextLogger(logger))
	{
		leaves.GET("", middleware.RateLimitByUser(3, 10), handler.List)
		leaves.GET("/:leaveId", middleware.RateLimitByUser(3, 10), handler.GetByID)

		submit := []gin.HandlerFunc{
			middleware.RateLimitByUser(0.5, 3),
			middleware.RBACAuthorize(rbacService, rbac.ResourceLeave, rbac.ActionSubmit),
		}
		if rdb != nil {
			submit = append(submit, middleware.Idempotency(rdb))
		}
		leaves.POST("", append(submit, handler.Submit)...)

		leaves.POST("/:leaveId/review",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, rbac.ResourceLeave, rbac.ActionReview),
			handler.Review,
		)
		leaves.POST("/:leaveId/cancel",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, rbac.ResourceLeave, rbac.ActionCancel),
			handler.Cancel,
		)
	}
}
