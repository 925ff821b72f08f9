package handler

import (
	"Orion_Tube/internal/apperr"
	"Orion_Tube/internal/middleware"
	"Orion_Tube/pkg/logger"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ErrorResponse 标准的API错误响应；表单校验失败时用errors字段，拼成"field: msg; field: msg"
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Errors  string `json:"errors,omitempty"`
}

func sendErrorResponse(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, ErrorResponse{Error: message})
}

// sendServiceError 按apperr.Kind映射状态码；Internal不把内部细节返回给前端
func sendServiceError(c *gin.Context, logCtx *logrus.Entry, err error, fallback string) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = apperr.Internal("", fallback, err)
	}

	status := appErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		logCtx.WithError(err).Error(fallback)
	} else {
		logCtx.WithError(err).Warn(fallback)
	}

	resp := ErrorResponse{}
	switch {
	case appErr.Kind == apperr.KindValidation && len(appErr.Fields) > 0:
		resp.Errors = appErr.FieldSummary()
	case appErr.Kind == apperr.KindInternal:
		resp.Error = fallback
	default:
		resp.Error = appErr.Message
	}
	c.AbortWithStatusJSON(status, resp)
}

// URL中取回的是str，统一转化为uint64
func parseVideoID(c *gin.Context) (uint64, bool) {
	videoID, err := strconv.ParseUint(c.Param("video_id"), 10, 64)
	if err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "无效的视频ID")
		return 0, false
	}
	return videoID, true
}

// 路由上挂了AuthMiddleware才会有userID，这里兜底
func requireUserID(c *gin.Context) (uint64, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		sendServiceError(c, logger.Log.WithField("path", c.FullPath()), apperr.Unauthorized("handler.requireUserID", "用户未认证"), "用户未认证")
		return 0, false
	}
	return userID, true
}
