package leave

import (
	"net/http"
	"strconv"

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
	l := zap.L().Named("leave.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("leave request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) writeResult(c *gin.Context, status int, res LeaveResult) {
	c.Header(consistencyHeader, string(res.Consistency))
	response.Success(c, status, res, nil)
}

func (h *Handler) Submit(c *gin.Context) {
	sess, _ := middleware.CurrentSession(c)

	var req SubmitLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http submit leave validation failed", zap.Error(err))
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	res, err := h.service.Submit(c.Request.Context(), sess, c.Param("email"), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.writeResult(c, http.StatusCreated, res)
}

func (h *Handler) List(c *gin.Context) {
	sess, _ := middleware.CurrentSession(c)

	resp, err := h.service.List(c.Request.Context(), sess, c.Param("email"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	page, pageSize := pageParams(c)
	start, end := response.PageBounds(len(resp), page, pageSize)
	meta := response.NewPaginationMeta(int64(len(resp)), page, pageSize)
	response.Success(c, http.StatusOK, resp[start:end], &meta)
}

func (h *Handler) GetByID(c *gin.Context) {
	sess, _ := middleware.CurrentSession(c)

	resp, err := h.service.Get(c.Request.Context(), sess, c.Param("email"), c.Param("leaveId"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) ListPending(c *gin.Context) {
	sess, _ := middleware.CurrentSession(c)

	resp, err := h.service.ListPending(c.Request.Context(), sess)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	page, pageSize := pageParams(c)
	start, end := response.PageBounds(len(resp), page, pageSize)
	meta := response.NewPaginationMeta(int64(len(resp)), page, pageSize)
	response.Success(c, http.StatusOK, resp[start:end], &meta)
}

func (h *Handler) Review(c *gin.Context) {
	sess, _ := middleware.CurrentSession(c)

	var req ReviewLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	res, err := h.service.Review(c.Request.Context(), sess, c.Param("email"), c.Param("leaveId"), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.writeResult(c, http.StatusOK, res)
}

func (h *Handler) Cancel(c *gin.Context) {
	sess, _ := middleware.CurrentSession(c)

	res, err := h.service.Cancel(c.Request.Context(), sess, c.Param("email"), c.Param("leaveId"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.writeResult(c, http.StatusOK, res)
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if pageSize < 1 {
		pageSize = 10
	}
	return page, pageSize
}
