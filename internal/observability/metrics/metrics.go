package metrics

import "github.com/prometheus/client_golang/prometheus"

// GatewayMetrics exposes counters for backend fetches, retries, and the
// response cache.
type GatewayMetrics struct {
	requestsTotal *prometheus.CounterVec
	retriesTotal  *prometheus.CounterVec
	cacheTotal    *prometheus.CounterVec
	staleDiscards prometheus.Counter
}

func NewGatewayMetrics(reg prometheus.Registerer) *GatewayMetrics {
	m := &GatewayMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agenda",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Total backend requests by resource and outcome",
		}, []string{"resource", "outcome"}),
		retriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agenda",
			Subsystem: "gateway",
			Name:      "retries_total",
			Help:      "Total transient-error retries by resource",
		}, []string{"resource"}),
		cacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agenda",
			Subsystem: "gateway",
			Name:      "cache_total",
			Help:      "Response cache lookups by result",
		}, []string{"result"}),
		staleDiscards: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agenda",
			Subsystem: "store",
			Name:      "stale_fetch_discards_total",
			Help:      "Window fetches discarded because a newer window was requested",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.retriesTotal, m.cacheTotal, m.staleDiscards)
	return m
}

func (m *GatewayMetrics) ObserveRequest(resource, outcome string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(resource, outcome).Inc()
}

func (m *GatewayMetrics) ObserveRetry(resource string) {
	if m == nil {
		return
	}
	m.retriesTotal.WithLabelValues(resource).Inc()
}

func (m *GatewayMetrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheTotal.WithLabelValues(result).Inc()
}

func (m *GatewayMetrics) ObserveStaleDiscard() {
	if m == nil {
		return
	}
	m.staleDiscards.Inc()
}
