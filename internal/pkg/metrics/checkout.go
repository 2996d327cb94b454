// internal/pkg/metrics/checkout.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CheckoutMetrics 汇总结账服务暴露给 /metrics 的指标。
type CheckoutMetrics struct {
	Evaluations     *prometheus.CounterVec
	MethodsOffered  *prometheus.CounterVec
	EvalDuration    prometheus.Histogram
	FlowFallbacks   prometheus.Counter
	CacheLookups    *prometheus.CounterVec
	PublishFailures prometheus.Counter
}

// NewCheckoutMetrics 在给定的 Registerer 上注册指标，测试中传入独立的 prometheus.NewRegistry()。
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	f := promauto.With(reg)
	return &CheckoutMetrics{
		Evaluations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "checkout",
			Name:      "evaluations_total",
			Help:      "Number of checkout eligibility evaluations, by flow.",
		}, []string{"flow"}),
		MethodsOffered: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "checkout",
			Name:      "payment_methods_offered_total",
			Help:      "Number of times each payment method was offered.",
		}, []string{"method"}),
		EvalDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "checkout",
			Name:      "evaluation_duration_seconds",
			Help:      "Time spent evaluating a checkout context.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		FlowFallbacks: f.NewCounter(prometheus.CounterOpts{
			Namespace: "checkout",
			Name:      "flow_fallbacks_total",
			Help:      "Evaluations that fell back to the default flow.",
		}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "checkout",
			Name:      "flow_cache_lookups_total",
			Help:      "Flow cache lookups, by result (hit, miss, error).",
		}, []string{"result"}),
		PublishFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: "checkout",
			Name:      "event_publish_failures_total",
			Help:      "Checkout events that could not be published.",
		}),
	}
}
