package auth

import (
	"net/http"

	"go-ems/internal/middleware"
	"go-ems/internal/shared/apperror"
	"go-ems/internal/shared/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service       Service
	secureCookies bool
	accessMaxAge  int
	refreshMaxAge int
}

func NewHandler(s Service, secureCookies bool) *Handler {
	return &Handler{
		service:       s,
		secureCookies: secureCookies,
		accessMaxAge:  15 * 60,
		refreshMaxAge: 3600 * 24 * 7,
	}
}

func (h *Handler) setCookie(c *gin.Context, name, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, apperror.MapValidationError(err))
		return
	}

	access, refresh, userResp, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.FromError(c, err)
		return
	}

	h.setCookie(c, "access_token", access, h.accessMaxAge)
	h.setCookie(c, "refresh_token", refresh, h.refreshMaxAge)

	response.Success(c, http.StatusOK, TokenResponse{
		User:         userResp,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil)
}

func (h *Handler) Me(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		response.FromError(c, apperror.ErrUnauthorized)
		return
	}

	userResp, err := h.service.GetMe(c.Request.Context(), sess)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, userResp, nil)
}

func (h *Handler) Logout(c *gin.Context) {
	h.setCookie(c, "access_token", "", -1)
	h.setCookie(c, "refresh_token", "", -1)
	response.Success(c, http.StatusOK, "Logout success.", nil)
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, apperror.MapValidationError(err))
		return
	}

	res, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, res, nil)
}

// RefreshToken reads the token from the JSON body, falling back to the
// refresh_token cookie for browser clients.
func (h *Handler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	_ = c.ShouldBindJSON(&req)

	refreshToken := req.RefreshToken
	if refreshToken == "" {
		if cookie, err := c.Cookie("refresh_token"); err == nil {
			refreshToken = cookie
		}
	}
	if refreshToken == "" {
		response.FromError(c, apperror.RequiredField("Refresh Token"))
		return
	}

	newAccess, newRefresh, userResp, err := h.service.RefreshToken(c.Request.Context(), refreshToken)
	if err != nil {
		response.FromError(c, err)
		return
	}

	h.setCookie(c, "access_token", newAccess, h.accessMaxAge)
	h.setCookie(c, "refresh_token", newRefresh, h.refreshMaxAge)

	response.Success(c, http.StatusOK, TokenResponse{
		User:         userResp,
		AccessToken:  newAccess,
		RefreshToken: newRefresh,
	}, nil)
}
