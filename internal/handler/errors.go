package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"weddingtimeline/internal/timeline"
	"weddingtimeline/pkg/logger"
)

// statusFor 错误类别到 HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, timeline.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, timeline.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, timeline.ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, timeline.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, timeline.ErrDependency):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, log *zap.Logger, op string, err error) {
	status := statusFor(err)
	l := logger.WithTrace(c.Request.Context(), log)
	switch status {
	case http.StatusInternalServerError:
		l.Error(op+" failed", zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	case http.StatusBadGateway:
		l.Error(op+" dependency failed", zap.Error(err))
		c.JSON(status, gin.H{"error": "dependency unavailable"})
		return
	}
	l.Warn(op+" rejected", zap.Int("status", status), zap.Error(err))
	c.JSON(status, gin.H{"error": err.Error()})
}

// actorID 由认证中间件写入
func actorID(c *gin.Context) string {
	return c.GetString("user_id")
}
