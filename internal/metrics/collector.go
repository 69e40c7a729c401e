// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/BaSui01/shapeflow/streaming"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器，实现 streaming.Observer
type Collector struct {
	// 校验指标
	validationsTotal   *prometheus.CounterVec
	validationDuration *prometheus.HistogramVec
	nodesTotal         *prometheus.CounterVec

	// 流式恢复指标
	droppedElements  prometheus.Counter
	nullPlaceholders prometheus.Counter
	nullFillers      prometheus.Counter

	// 类型目录指标
	catalogReloads *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// 校验指标
	c.validationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validations_total",
			Help:      "Total number of streaming validations",
		},
		[]string{"mode", "outcome"}, // mode: partial, final
	)

	c.validationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "validation_duration_seconds",
			Help:      "Streaming validation duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
		[]string{"mode"},
	)

	c.nodesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validated_nodes_total",
			Help:      "Total number of validated nodes by completion state",
		},
		[]string{"state"},
	)

	// 流式恢复指标
	c.droppedElements = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_elements_total",
			Help:      "Total number of list items and map entries dropped mid-stream",
		},
	)

	c.nullPlaceholders = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "null_placeholders_total",
			Help:      "Total number of failed class fields replaced by null",
		},
	)

	c.nullFillers = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "null_fillers_total",
			Help:      "Total number of absent class fields filled with pending null",
		},
	)

	// 类型目录指标
	c.catalogReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_reloads_total",
			Help:      "Total number of catalog reloads",
		},
		[]string{"status"},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🌊 校验指标记录
// =============================================================================

// ObserveValidation 记录一次流式校验
func (c *Collector) ObserveValidation(r streaming.Report) {
	mode := modeLabel(r.AllowPartials)
	c.validationsTotal.WithLabelValues(mode, r.Outcome()).Inc()
	c.validationDuration.WithLabelValues(mode).Observe(r.Duration.Seconds())

	c.nodesTotal.WithLabelValues("complete").Add(float64(r.Summary.Complete))
	c.nodesTotal.WithLabelValues("incomplete").Add(float64(r.Summary.Incomplete))
	c.nodesTotal.WithLabelValues("pending").Add(float64(r.Summary.Pending))

	c.droppedElements.Add(float64(r.Stats.Dropped))
	c.nullPlaceholders.Add(float64(r.Stats.Placeholders))
	c.nullFillers.Add(float64(r.Stats.Fillers))
}

// =============================================================================
// 📚 类型目录指标记录
// =============================================================================

// RecordCatalogReload 记录类型目录重载，失败时保留旧目录
func (c *Collector) RecordCatalogReload(err error) {
	if err != nil {
		c.catalogReloads.WithLabelValues("failure").Inc()
		c.logger.Debug("catalog reload recorded as failure", zap.Error(err))
		return
	}
	c.catalogReloads.WithLabelValues("success").Inc()
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// modeLabel 将 allowPartials 转换为 label
func modeLabel(allowPartials bool) string {
	if allowPartials {
		return "partial"
	}
	return "final"
}

var _ streaming.Observer = (*Collector)(nil)
