package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-ems/internal/auth/token"
	"go-ems/internal/session"
	"go-ems/internal/shared/apperror"
	"go-ems/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func sessionEcho(c *gin.Context) {
	sess, ok := CurrentSession(c)
	if !ok {
		c.Status(http.StatusTeapot)
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": sess.Email, "role": sess.Role})
}

func TestAuthMiddleware(t *testing.T) {
	tokens := token.NewManager(testSecret, time.Minute, time.Hour)
	router := gin.New()
	router.GET("/me", AuthMiddleware(testSecret, "admin.com"), sessionEcho)

	t.Run("bearer token builds session with derived role", func(t *testing.T) {
		// role claim is ignored in favour of the email domain
		access, err := tokens.Issue("Boss@Admin.com", "employee", token.TypeAccess)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+access)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"email":"boss@admin.com","role":"admin"}`, w.Body.String())
	})

	t.Run("cookie token", func(t *testing.T) {
		access, err := tokens.Issue("alice@corp.com", "employee", token.TypeAccess)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: access})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"email":"alice@corp.com","role":"employee"}`, w.Body.String())
	})

	t.Run("missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		refresh, err := tokens.Issue("alice@corp.com", "employee", token.TypeRefresh)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+refresh)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

type stubAuthorizer struct {
	allow map[string]bool
}

func (s stubAuthorizer) Authorize(sess session.Session, resource, action string) error {
	if s.allow[string(sess.Role)+":"+resource+":"+action] {
		return nil
	}
	return apperror.ErrForbidden
}

func withSession(sess session.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextSession, sess)
		c.Set(ContextUserEmail, sess.Email)
		c.Next()
	}
}

func TestRBACAuthorize(t *testing.T) {
	authz := stubAuthorizer{allow: map[string]bool{"admin:leave:review": true}}

	tests := []struct {
		name string
		sess session.Session
		want int
	}{
		{"admin allowed", session.New("boss@admin.com", session.RoleAdmin), http.StatusOK},
		{"employee forbidden", session.New("alice@corp.com", session.RoleEmployee), http.StatusForbidden},
		{"no session", session.Session{}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.POST("/review", withSession(tt.sess), RBACAuthorize(authz, "leave", "review"), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/review", nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRoleMiddleware(t *testing.T) {
	router := gin.New()
	router.GET("/admin", withSession(session.New("alice@corp.com", session.RoleEmployee)), RoleMiddleware(session.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRateLimitByUser(t *testing.T) {
	router := gin.New()
	router.GET("/x", withSession(session.New("alice@corp.com", session.RoleEmployee)), RateLimitByUser(0.001, 1), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/x", nil))
	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestIdempotency(t *testing.T) {
	sess := session.New("alice@corp.com", session.RoleEmployee)
	cacheKey := "idemp:/things:alice@corp.com:key-1"
	lockKey := cacheKey + ":lock"

	newRouter := func(t *testing.T, calls *int) (*gin.Engine, redismock.ClientMock) {
		rdb, mock := redismock.NewClientMock()
		router := gin.New()
		router.POST("/things", withSession(sess), Idempotency(rdb), func(c *gin.Context) {
			*calls++
			response.Success(c, http.StatusCreated, gin.H{"id": "1"}, nil)
		})
		return router, mock
	}

	post := func(router *gin.Engine) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/things", nil)
		req.Header.Set(IdempotencyHeader, "key-1")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("first request runs and caches", func(t *testing.T) {
		calls := 0
		router, mock := newRouter(t, &calls)

		body, _ := json.Marshal(response.ApiEnvelope{Ok: true, Data: gin.H{"id": "1"}})
		payload, _ := json.Marshal(cachedResponse{Status: http.StatusCreated, Body: body})

		mock.ExpectGet(cacheKey).RedisNil()
		mock.ExpectSetNX(lockKey, "locked", idempotencyLockTTL).SetVal(true)
		mock.ExpectSet(cacheKey, payload, idempotencyTTL).SetVal("OK")
		mock.ExpectDel(lockKey).SetVal(1)

		w := post(router)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, 1, calls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("replay returns cached response", func(t *testing.T) {
		calls := 0
		router, mock := newRouter(t, &calls)

		payload, _ := json.Marshal(cachedResponse{Status: http.StatusCreated, Body: json.RawMessage(`{"ok":true,"data":{"id":"1"}}`)})
		mock.ExpectGet(cacheKey).SetVal(string(payload))

		w := post(router)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "true", w.Header().Get(idempotencyReplayed))
		assert.JSONEq(t, `{"ok":true,"data":{"id":"1"}}`, w.Body.String())
		assert.Equal(t, 0, calls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("in flight duplicate", func(t *testing.T) {
		calls := 0
		router, mock := newRouter(t, &calls)

		mock.ExpectGet(cacheKey).RedisNil()
		mock.ExpectSetNX(lockKey, "locked", idempotencyLockTTL).SetVal(false)

		w := post(router)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "PROCESSING")
		assert.Equal(t, 0, calls)
	})
}
