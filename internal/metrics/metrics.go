package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// API 请求计数器
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	// API 请求响应时间
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 任务创建计数器(按类型: standard/directed/quick_service)
	tasksCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasks_created_total",
			Help: "Total number of tasks created",
		},
		[]string{"kind"},
	)

	// 抢单结果计数器(won/lost)
	acceptAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accept_attempts_total",
			Help: "Total number of task accept attempts",
		},
		[]string{"outcome"},
	)

	// 广播通知计数器
	notificationsFanoutTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_fanout_total",
			Help: "Total number of broadcast notifications created",
		},
	)

	// 完成码计数器(issued/verified/rejected/expired)
	completionCodesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "completion_codes_total",
			Help: "Total number of completion code operations",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		apiRequestsTotal,
		apiRequestDuration,
		tasksCreatedTotal,
		acceptAttemptsTotal,
		notificationsFanoutTotal,
		completionCodesTotal,
	)
}

// Handler 返回 Prometheus 指标处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAPIRequest 记录 API 请求指标
func RecordAPIRequest(method, path string, status int, duration float64) {
	apiRequestsTotal.WithLabelValues(method, path, statusLabel(status)).Inc()
	apiRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordTaskCreated 记录任务创建
func RecordTaskCreated(kind string) {
	tasksCreatedTotal.WithLabelValues(kind).Inc()
}

// RecordAcceptAttempt 记录抢单结果
func RecordAcceptAttempt(outcome string) {
	acceptAttemptsTotal.WithLabelValues(outcome).Inc()
}

// RecordFanout 记录广播通知数量
func RecordFanout(count int) {
	notificationsFanoutTotal.Add(float64(count))
}

// RecordCompletionCode 记录完成码操作结果
func RecordCompletionCode(result string) {
	completionCodesTotal.WithLabelValues(result).Inc()
}

// statusLabel 把状态码折叠为 2xx/4xx/5xx,避免标签基数膨胀
func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
