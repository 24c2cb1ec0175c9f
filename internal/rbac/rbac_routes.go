package rbac

import (
	"go-ems/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, service Service, auth gin.HandlerFunc) {
	group := r.Group("/rbac")
	group.Use(auth)
	{
		group.GET("/policies", middleware.RBACAuthorize(service, ResourceRBAC, ActionInspect), handler.Policies)
		group.POST("/enforce", middleware.RBACAuthorize(service, ResourceRBAC, ActionInspect), handler.Enforce)
	}
}
