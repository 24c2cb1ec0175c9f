package employee

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
	employees := r.Group("/employees")
	employees.Use(auth)
	employees.Use(middleware.ContextLogger(logger))
	{
		employees.GET("",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, rbac.ResourceEmployee, rbac.ActionList),
			handler.List,
		)

		// owner atau admin, dicek ulang di service
		employees.GET("/:email",
			middleware.RateLimitByUser(3, 10),
			handler.GetByEmail,
		)

		employees.POST("",
			middleware.RateLimitByUser(0.1, 1),
			middleware.RBACAuthorize(rbacService, rbac.ResourceEmployee, rbac.ActionCreate),
			handler.Onboard,
		)

		employees.PUT("/:email",
			middleware.RateLimitByUser(0.5, 2),
			middleware.RBACAuthorize(rbacService, rbac.ResourceEmployee, rbac.ActionUpdate),
			handler.Update,
		)

		employees.DELETE("/:email",
			middleware.RateLimitByUser(0.05, 1),
			middleware.RBACAuthorize(rbacService, rbac.ResourceEmployee, rbac.ActionDelete),
			handler.Delete,
		)
	}
}
