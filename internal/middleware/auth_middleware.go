package middleware

import (
	"strings"

	autherrors "go-ems/internal/auth/errors"
	"go-ems/internal/auth/token"
	"go-ems/internal/session"
	"go-ems/internal/shared/contextutil"
	"go-ems/internal/shared/response"

	"github.com/gin-gonic/gin"
)

const (
	ContextSession   = "session"
	ContextUserEmail = "user_email"
)

// AuthMiddleware verifies the access token (bearer header first, then the
// access_token cookie) and stores the caller's Session on the gin context.
// The role is derived from the email domain, never trusted from the token.
func AuthMiddleware(secret, adminDomain string) gin.HandlerFunc {
	tokens := token.NewManager(secret, 0, 0)

	return func(c *gin.Context) {
		tokenString, _ := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		tokenString = strings.TrimSpace(tokenString)

		if tokenString == "" {
			if cookie, err := c.Cookie("access_token"); err == nil {
				tokenString = cookie
			}
		}

		if tokenString == "" {
			response.FromError(c, autherrors.ErrTokenNotFound)
			c.Abort()
			return
		}

		claims, err := tokens.Parse(tokenString, token.TypeAccess)
		if err != nil {
			response.FromError(c, err)
			c.Abort()
			return
		}

		sess := session.New(claims.Email, session.RoleForEmail(claims.Email, adminDomain))

		c.Set(ContextSession, sess)
		c.Set(ContextUserEmail, sess.Email)
		c.Request = c.Request.WithContext(contextutil.WithUserEmail(c.Request.Context(), sess.Email))

		c.Next()
	}
}

// CurrentSession returns the session stored by AuthMiddleware.
func CurrentSession(c *gin.Context) (session.Session, bool) {
	v, ok := c.Get(ContextSession)
	if !ok {
		return session.Session{}, false
	}
	sess, ok := v.(session.Session)
	return sess, ok && !sess.IsZero()
}

func RoleMiddleware(allowedRoles ...session.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := CurrentSession(c)
		if !ok {
			response.FromError(c, autherrors.ErrTokenNotFound)
			c.Abort()
			return
		}

		for _, role := range allowedRoles {
			if sess.Role == role {
				c.Next()
				return
			}
		}

		response.FromError(c, autherrors.ErrForbidden)
		c.Abort()
	}
}
