package auth

import (
	"go-ems/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, auth gin.HandlerFunc) {
	group := r.Group("/auth")
	{
		group.GET("/me", auth, middleware.RateLimitByUser(2, 5), handler.Me)
		group.POST("/login", middleware.RateLimitByIP(0.08, 5), handler.Login)
		group.POST("/refresh", middleware.RateLimitByIP(1, 5), handler.RefreshToken)
		group.POST("/logout", handler.Logout)
		group.POST("/register", middleware.RateLimitByIP(0.1, 1), handler.Register)
	}
}
