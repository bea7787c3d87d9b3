package httpserver

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"weddingtimeline/internal/authz"
	"weddingtimeline/internal/handler"
	"weddingtimeline/pkg/logger"
	"weddingtimeline/pkg/metrics"
	"weddingtimeline/pkg/trace"
)

// Pinger 数据库连接池（*pgxpool.Pool）
type Pinger interface {
	Ping(ctx context.Context) error
}

// Connectable MQ 发布者或消费者
type Connectable interface {
	IsConnected() bool
}

// Options 路由依赖。DB 和 MQ 为 nil 表示内存模式，就绪检查跳过它们。
// Registry 只在内存模式下设置。
type Options struct {
	Timeline  *handler.TimelineHandler
	Tasks     *handler.TaskHandler
	Registry  *handler.RegistryHandler
	JWTSecret string
	DB        Pinger
	MQ        []Connectable
	Logger    *zap.Logger
}

func NewRouter(opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(trace.Middleware())
	r.Use(accessLog(opts.Logger))

	// Health endpoints (放在最前面)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/readyz", readiness(opts.DB, opts.MQ))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.Use(AuthMiddleware(opts.JWTSecret))
	{
		api.GET("/categories", opts.Timeline.ListCategories)
		api.POST("/classify", opts.Timeline.Classify)
		api.GET("/templates", opts.Timeline.ListTemplates)
		api.POST("/clients/:id/materialize", RequirePermission(authz.PermissionMaterialize), opts.Timeline.Materialize)
		if opts.Registry != nil {
			api.PUT("/clients/:id", RequirePermission(authz.PermissionMaterialize), opts.Registry.PutClient)
			api.PUT("/meeting-notes/:id", RequirePermission(authz.PermissionCreateTask), opts.Registry.PutMeetingNote)
		}

		tasks := api.Group("/tasks")
		tasks.GET("", RequirePermission(authz.PermissionReadTask), opts.Tasks.ListTasks)
		tasks.POST("", RequirePermission(authz.PermissionCreateTask), opts.Tasks.CreateTask)
		tasks.POST("/from-meeting-note", RequirePermission(authz.PermissionCreateTask), opts.Tasks.CreateFromMeetingNote)
		tasks.GET("/:id", RequirePermission(authz.PermissionReadTask), opts.Tasks.GetTask)
		tasks.PATCH("/:id/status", opts.Tasks.UpdateStatus)
		tasks.DELETE("/:id", opts.Tasks.DeleteTask)
		tasks.GET("/:id/comments", RequirePermission(authz.PermissionReadTask), opts.Tasks.ListComments)
		tasks.POST("/:id/comments", RequirePermission(authz.PermissionReadTask), opts.Tasks.AddComment)
		tasks.PATCH("/:id/comments/:commentID", opts.Tasks.UpdateComment)
		tasks.DELETE("/:id/comments/:commentID", opts.Tasks.DeleteComment)
	}

	return r
}

// accessLog 请求日志和耗时指标
func accessLog(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequestDuration(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), latency)
		if route == "/healthz" || route == "/metrics" {
			return
		}
		logger.WithTrace(c.Request.Context(), log).Info("HTTP Request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

func readiness(db Pinger, deps []Connectable) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_not_ready", "error": err.Error()})
				return
			}
		}
		for _, d := range deps {
			if d != nil && !d.IsConnected() {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "mq_not_ready"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
