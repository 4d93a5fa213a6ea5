// Package metrics wraps github.com/prometheus/client_golang counters and
// histograms tracking append latency, merge cluster counts, registry
// sizes, and conflict counts. Exporting these over HTTP is surface wiring
// and out of scope here — Registry is exposed as a plain field the
// orchestrator updates; mounting it on an HTTP handler is left to a future
// consumer.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry holds every metric the ingestion core updates.
type Registry struct {
	AppendDuration  prometheus.Histogram
	AppendTotal     prometheus.Counter
	AppendFailures  *prometheus.CounterVec
	MergeClusters   prometheus.Histogram
	ConflictsTotal  prometheus.Gauge
	EIDRegistrySize prometheus.Gauge
	AIDRegistrySize prometheus.Gauge
}

// New constructs a Registry with every metric registered against its own
// private prometheus.Registerer, so callers that never mount an HTTP
// handler never touch the global default registry.
func New() *Registry {
	r := &Registry{
		AppendDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ares_append_doc_duration_seconds",
			Help:    "append_doc wall-clock duration.",
			Buckets: prometheus.DefBuckets,
		}),
		AppendTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ares_append_doc_total",
			Help: "Total append_doc calls.",
		}),
		AppendFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ares_append_doc_failures_total",
			Help: "append_doc failures by error kind.",
		}, []string{"kind"}),
		MergeClusters: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ares_merge_clusters",
			Help:    "Cluster count per cross-document merge run.",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
		}),
		ConflictsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ares_conflicts_total",
			Help: "Current conflict count on the graph snapshot.",
		}),
		EIDRegistrySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ares_eid_registry_size",
			Help: "Number of distinct EID records allocated.",
		}),
		AIDRegistrySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ares_aid_registry_size",
			Help: "Number of distinct AID records allocated.",
		}),
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(r.AppendDuration, r.AppendTotal, r.AppendFailures,
		r.MergeClusters, r.ConflictsTotal, r.EIDRegistrySize, r.AIDRegistrySize)
	return r
}

// ObserveAppend records one append_doc call's outcome.
func (r *Registry) ObserveAppend(seconds float64, failureKind string) {
	r.AppendTotal.Inc()
	r.AppendDuration.Observe(seconds)
	if failureKind != "" {
		r.AppendFailures.WithLabelValues(failureKind).Inc()
	}
}
