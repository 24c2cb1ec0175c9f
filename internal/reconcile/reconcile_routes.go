package reconcile

import (
	"go-ems/internal/middleware"
	"go-ems/internal/rbac"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
	auth gin.HandlerFunc,
	logger *zap.Logger,
) {
	admin := r.Group("/admin/reconcile")
	admin.Use(auth, middleware.ContextLogger(logger))
	admin.Use(middleware.RBACAuthorize(rbacService, rbac.ResourceMirror, rbac.ActionReconcile))
	{
		admin.POST("", middleware.RateLimitByUser(0.1, 1), handler.Sweep)
		admin.POST("/:email", middleware.RateLimitByUser(1, 5), handler.SyncEmployee)
	}
}
