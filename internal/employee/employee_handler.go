package employee

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"go-ems/internal/middleware"
	"go-ems/internal/shared/apperror"
	"go-ems/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const consistencyHeader = "X-Mirror-Consistency"

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("employee.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("employee request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) Onboard(c *gin.Context) {
	sess, _ := middleware.CurrentSession(c)
	h.logger.Debug("http onboard employee", zap.String("by", sess.Email))

	var req OnboardEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http onboard employee validation failed", zap.Error(err))
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	res, err := h.service.Onboard(c.Request.Context(), sess, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.Header(consistencyHeader, string(res.Consistency))
	response.Success(c, http.StatusCreated, res, nil)
}

func (h *Handler) List(c *gin.Context) {
	sess, _ := middleware.CurrentSession(c)

	resp, err := h.service.List(c.Request.Context(), sess)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	q := strings.TrimSpace(strings.ToLower(c.Query("q")))
	if q != "" {
		filtered := make([]EmployeeResponse, 0, len(resp))
		for _, e := range resp {
			if strings.Contains(strings.ToLower(e.Name), q) ||
				strings.Contains(strings.ToLower(e.Email), q) ||
				strings.Contains(strings.ToLower(e.Project), q) {
				filtered = append(filtered, e)
			}
		}
		resp = filtered
	}

	sortBy := strings.ToLower(strings.TrimSpace(c.DefaultQuery("sort_by", "name")))
	sortDir := strings.ToLower(strings.TrimSpace(c.DefaultQuery("sort_dir", "asc")))
	if sortDir != "desc" {
		sortDir = "asc"
	}
	sort.SliceStable(resp, func(i, j int) bool {
		var less bool
		switch sortBy {
		case "email":
			less = resp[i].Email < resp[j].Email
		case "salary":
			less = resp[i].Salary < resp[j].Salary
		default:
			less = strings.ToLower(resp[i].Name) < strings.ToLower(resp[j].Name)
		}
		if sortDir == "desc" {
			return !less
		}
		return less
	})

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if pageSize < 1 {
		pageSize = 10
	}

	start, end := response.PageBounds(len(resp), page, pageSize)
	meta := response.NewPaginationMeta(int64(len(resp)), page, pageSize)
	response.Success(c, http.StatusOK, resp[start:end], &meta)
}

func (h *Handler) GetByEmail(c *gin.Context) {
	sess, _ := middleware.CurrentSession(c)

	resp, err := h.service.Get(c.Request.Context(), sess, c.Param("email"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Update(c *gin.Context) {
	sess, _ := middleware.CurrentSession(c)
	email := c.Param("email")
	h.logger.Debug("http update employee", zap.String("email", email))

	var req UpdateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http update employee validation failed", zap.Error(err))
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	res, err := h.service.Update(c.Request.Context(), sess, email, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.Header(consistencyHeader, string(res.Consistency))
	response.Success(c, http.StatusOK, res, nil)
}

func (h *Handler) Delete(c *gin.Context) {
	sess, _ := middleware.CurrentSession(c)
	email := c.Param("email")
	h.logger.Debug("http delete employee", zap.String("email", email))

	consistency, err := h.service.Delete(c.Request.Context(), sess, email)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.Header(consistencyHeader, string(consistency))
	response.Success(c, http.StatusOK, gin.H{"deleted": true, "consistency": consistency}, nil)
}
