package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records composition and container activity.
type Metrics interface {
	// ContributionDeclared counts one multi-contribution to token.
	ContributionDeclared(token string)
	// CollectionBuilt records the size of the aggregation built for token.
	CollectionBuilt(token string, size int)
	// ModuleScanned counts a module instance visited by the container.
	ModuleScanned()
	// ProvidersInstantiated records the number of bindings built by a compile.
	ProvidersInstantiated(n int)
	// ObserveFinalize records how long finalization took.
	ObserveFinalize(d time.Duration)
}

type prometheusMetrics struct {
	contributions *prometheus.CounterVec
	collections   *prometheus.CounterVec
	collected     *prometheus.GaugeVec
	modules       prometheus.Counter
	providers     prometheus.Gauge
	finalize      prometheus.Histogram
}

// New creates Prometheus backed metrics and registers them with reg. A nil
// reg registers with a fresh registry.
func New(namespace string, reg prometheus.Registerer) (Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &prometheusMetrics{
		contributions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contributions_total",
			Help:      "Multi-contributions declared, by token.",
		}, []string{"token"}),
		collections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collections_built_total",
			Help:      "Aggregation modules built, by token.",
		}, []string{"token"}),
		collected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "collection_size",
			Help:      "Number of contributions in the last aggregation built for a token.",
		}, []string{"token"}),
		modules: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "modules_scanned_total",
			Help:      "Module instances scanned by the container.",
		}),
		providers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "providers_instantiated",
			Help:      "Providers instantiated by the last compile.",
		}),
		finalize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "finalize_duration_seconds",
			Help:      "Time spent finalizing a composition.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	for _, c := range []prometheus.Collector{
		m.contributions, m.collections, m.collected, m.modules, m.providers, m.finalize,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *prometheusMetrics) ContributionDeclared(token string) {
	m.contributions.WithLabelValues(token).Inc()
}

func (m *prometheusMetrics) CollectionBuilt(token string, size int) {
	m.collections.WithLabelValues(token).Inc()
	m.collected.WithLabelValues(token).Set(float64(size))
}

func (m *prometheusMetrics) ModuleScanned() {
	m.modules.Inc()
}

func (m *prometheusMetrics) ProvidersInstantiated(n int) {
	m.providers.Set(float64(n))
}

func (m *prometheusMetrics) ObserveFinalize(d time.Duration) {
	m.finalize.Observe(d.Seconds())
}
