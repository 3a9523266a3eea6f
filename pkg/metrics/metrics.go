// Package metrics 提供监控指标功能.
// 支持Prometheus标准，收集应用、生命周期引擎与系统指标.
//
// Example:
//
//	import "github.com/yeisme/soundvault/pkg/metrics"
//
//	err := metrics.InitMetrics(config.Metrics)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// 记录指标
//	metrics.RequestCounter.WithLabelValues("GET", "/api/v1/audio").Inc()
//	metrics.LifecycleTransitions.WithLabelValues("delete").Inc()
package metrics

import (
	"net/http"
	_ "net/http/pprof" // 自动注册pprof端点

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/soundvault/pkg/configs"
)

// 全局指标变量.
var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// LifecycleTransitions 成功提交的生命周期迁移计数，按操作分类.
	LifecycleTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifecycle_transitions_total",
			Help: "Committed lifecycle transitions by operation",
		},
		[]string{"op"},
	)

	// LifecycleConflicts 乐观并发提交失败计数，按操作分类.
	LifecycleConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifecycle_version_conflicts_total",
			Help: "Optimistic concurrency commit failures by operation",
		},
		[]string{"op"},
	)

	// LifecyclePurges Reconciler 成功清除的记录数.
	LifecyclePurges = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lifecycle_purges_total",
			Help: "Records fully purged by the reconciler",
		},
	)

	// LifecycleOrphans 补偿清理失败产生的孤儿 blob 计数.
	LifecycleOrphans = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lifecycle_orphaned_blobs_total",
			Help: "Blobs orphaned by failed compensating cleanup",
		},
	)

	// ReconcilerSweeps 完成的扫描轮数.
	ReconcilerSweeps = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reconciler_sweeps_total",
			Help: "Completed reconciler sweeps",
		},
	)

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()
)

// InitMetrics 初始化Metrics.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	// 注册标准收集器
	if config.RuntimeMetrics {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	// 注册自定义指标
	registry.MustRegister(
		RequestCounter, RequestDuration,
		LifecycleTransitions, LifecycleConflicts,
		LifecyclePurges, LifecycleOrphans, ReconcilerSweeps,
	)

	return nil
}

// StartMetricsServer 启动Metrics HTTP服务器.
func StartMetricsServer(config configs.MetricsConfig, debugEngine *gin.Engine) error {
	if !config.Enabled {
		return nil
	}

	debugEngine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// 如果启用pprof，注册pprof端点
	if config.Pprof {
		debugEngine.GET("/debug/pprof/*any", gin.WrapH(http.DefaultServeMux))
	}

	return nil
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}
