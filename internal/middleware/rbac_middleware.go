package middleware

import (
	"go-ems/internal/session"
	"go-ems/internal/shared/apperror"
	"go-ems/internal/shared/response"

	"github.com/gin-gonic/gin"
)

// RBACService adalah interface lokal supaya middleware tidak bergantung
// ke package rbac.
type RBACService interface {
	Authorize(sess session.Session, resource, action string) error
}

func RBACAuthorize(service RBACService, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := CurrentSession(c)
		if !ok {
			response.FromError(c, apperror.ErrUnauthorized)
			c.Abort()
			return
		}

		if err := service.Authorize(sess, resource, action); err != nil {
			httpErr := apperror.ToHTTP(err)
			details := map[string]string{"required": resource + ":" + action}
			response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, details)
			c.Abort()
			return
		}
		c.Next()
	}
}
