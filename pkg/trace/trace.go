package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/gin-gonic/gin"
)

// HeaderName trace ID 的 HTTP header
const HeaderName = "X-Trace-ID"

type ctxKey struct{}

// GenerateTraceID 生成一个新的 trace ID
func GenerateTraceID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// FromContext 从 context 中获取 trace_id
func FromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(ctxKey{}).(string); ok {
		return traceID
	}
	return ""
}

// WithContext 将 trace_id 添加到 context 中
func WithContext(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, traceID)
}

// Middleware 读取 X-Trace-ID（或 X-Request-ID），没有则生成，并回写到响应头
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(HeaderName)
		if traceID == "" {
			traceID = c.GetHeader("X-Request-ID")
		}
		if traceID == "" {
			traceID = GenerateTraceID()
		}
		c.Request = c.Request.WithContext(WithContext(c.Request.Context(), traceID))
		c.Header(HeaderName, traceID)
		c.Next()
	}
}
