// Package metrics provides Prometheus instrumentation for the object store.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// StoreMetrics holds all Prometheus metrics for the object store.
type StoreMetrics struct {
	registry *prometheus.Registry

	UploadsTotal   prometheus.Counter
	DownloadsTotal *prometheus.CounterVec // fileshare_downloads_total{outcome}

	BytesStored prometheus.Counter
	BytesServed prometheus.Counter

	SweepRunsTotal      prometheus.Counter
	SweptObjectsTotal   prometheus.Counter
	SweepErrorsTotal    prometheus.Counter
	ExpireOnAccessTotal prometheus.Counter
}

// New initializes all metrics on a fresh registry.
func New() *StoreMetrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &StoreMetrics{
		registry: registry,

		UploadsTotal: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "fileshare_uploads_total",
			Help: "Total objects stored",
		}),
		DownloadsTotal: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "fileshare_downloads_total",
			Help: "Total download attempts by outcome",
		}, []string{"outcome"}),

		BytesStored: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "fileshare_bytes_stored_total",
			Help: "Total plaintext bytes accepted for storage",
		}),
		BytesServed: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "fileshare_bytes_served_total",
			Help: "Total plaintext bytes served to callers",
		}),

		SweepRunsTotal: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "fileshare_sweep_runs_total",
			Help: "Total sweep runs",
		}),
		SweptObjectsTotal: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "fileshare_swept_objects_total",
			Help: "Total expired objects reclaimed by sweeps",
		}),
		SweepErrorsTotal: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "fileshare_sweep_errors_total",
			Help: "Total per-object failures during sweeps",
		}),
		ExpireOnAccessTotal: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "fileshare_expire_on_access_total",
			Help: "Total objects expired by the on-access check",
		}),
	}
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *StoreMetrics) Registry() *prometheus.Registry {
	return m.registry
}
