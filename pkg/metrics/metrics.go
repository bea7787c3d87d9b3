package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// 慢查询计数
	SlowQueryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_slow_query_total",
			Help: "Total number of queries slower than the configured threshold",
		},
		[]string{"statement"},
	)

	SlowQueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "db_slow_query_duration_seconds",
			Help:    "Duration of slow queries in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 8), // 100ms to ~12s
		},
	)

	// 物化的任务数
	TasksMaterialized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timeline_tasks_materialized_total",
			Help: "Task instances materialized from templates",
		},
		[]string{"section"},
	)

	// 激活批次耗时
	ActivationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "timeline_activation_duration_seconds",
			Help:    "Duration of one client activation run",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		},
	)

	// 通知派发结果
	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timeline_notifications_total",
			Help: "Notification requests by outcome",
		},
		[]string{"channel", "outcome"}, // outcome: sent, failed, rejected
	)

	// 状态变更
	StatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timeline_status_transitions_total",
			Help: "Task status transitions",
		},
		[]string{"from", "to"},
	)

	// 乐观锁冲突
	ConcurrencyConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timeline_concurrency_conflicts_total",
			Help: "Optimistic concurrency conflicts on task mutations",
		},
		[]string{"operation", "outcome"}, // outcome: retried, surfaced
	)

	Celebrations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "timeline_celebrations_total",
			Help: "Milestone/confetti celebrations fired on task completion",
		},
	)

	// 任务创建计数
	TaskCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timeline_tasks_created_total",
			Help: "Task instances created",
		},
		[]string{"source"}, // source: template, manual, meeting_note
	)
)

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncrementSlowQuery 记录慢查询
func IncrementSlowQuery(statement string, duration time.Duration) {
	SlowQueryCount.WithLabelValues(statement).Inc()
	SlowQueryDuration.Observe(duration.Seconds())
}

func IncrementMaterialized(section string) {
	TasksMaterialized.WithLabelValues(section).Inc()
}

func ObserveActivation(duration time.Duration) {
	ActivationDuration.Observe(duration.Seconds())
}

func IncrementNotification(channel, outcome string) {
	NotificationsDispatched.WithLabelValues(channel, outcome).Inc()
}

func IncrementStatusTransition(from, to string) {
	StatusTransitions.WithLabelValues(from, to).Inc()
}

func IncrementConflict(operation, outcome string) {
	ConcurrencyConflicts.WithLabelValues(operation, outcome).Inc()
}

func IncrementCelebration() {
	Celebrations.Inc()
}

func IncrementTaskCreated(source string) {
	TaskCreated.WithLabelValues(source).Inc()
}
