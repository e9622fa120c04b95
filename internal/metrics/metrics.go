// Package metrics exports Prometheus metrics for mesh traffic.
package metrics

import (
	"context"
	"sync"

	"github.com/aretw0/hivemesh/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Call outcomes used as the "outcome" label.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	registerOnce sync.Once

	meshCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hivemesh",
			Subsystem: "mesh",
			Name:      "calls_total",
			Help:      "Total routed mesh calls.",
		},
		[]string{"shard", "method", "outcome"},
	)
	meshDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hivemesh",
			Subsystem: "mesh",
			Name:      "call_duration_seconds",
			Help:      "Mesh call duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"shard"},
	)
	shards = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "hivemesh",
			Name:      "shards",
			Help:      "Shards currently registered.",
		},
	)
)

// RegisterMetrics registers the collectors with the default registry once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(meshCalls, meshDuration, shards)
	})
}

// RecordCall counts one completed call.
func RecordCall(e *domain.CallEvent) {
	RegisterMetrics()
	outcome := OutcomeOK
	if e.IsError {
		outcome = OutcomeError
	}
	meshCalls.WithLabelValues(e.ShardID, e.Method, outcome).Inc()
	meshDuration.WithLabelValues(e.ShardID).Observe(e.Duration.Seconds())
}

// SetShards updates the shard gauge.
func SetShards(n int) {
	RegisterMetrics()
	shards.Set(float64(n))
}

// Hooks returns lifecycle hooks feeding the collectors. count reports the
// current number of shards.
func Hooks(count func() int) domain.LifecycleHooks {
	refresh := func() {
		if count != nil {
			SetShards(count())
		}
	}
	return domain.LifecycleHooks{
		OnBoot:         func(context.Context, *domain.BootEvent) { refresh() },
		OnShardCreated: func(context.Context, *domain.ShardEvent) { refresh() },
		OnShardDeleted: func(context.Context, *domain.ShardEvent) { refresh() },
		OnCallReturn:   func(_ context.Context, e *domain.CallEvent) { RecordCall(e) },
	}
}
