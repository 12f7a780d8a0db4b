package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/histograms for chat and upstream flows.
type ChatMetrics struct {
	requestsTotal   *prometheus.CounterVec
	upstreamTotal   *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	bookingsTotal   *prometheus.CounterVec
	sessionsEvicted *prometheus.CounterVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthbot",
			Subsystem: "chat",
			Name:      "requests_total",
			Help:      "Total chat requests by route and outcome",
		}, []string{"route", "outcome"}),
		upstreamTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthbot",
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Total remote healthcare API calls",
		}, []string{"operation", "status"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "healthbot",
			Subsystem: "upstream",
			Name:      "latency_seconds",
			Help:      "Latency of remote healthcare API calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthbot",
			Subsystem: "booking",
			Name:      "submissions_total",
			Help:      "Appointment booking submissions by result",
		}, []string{"result"}),
		sessionsEvicted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthbot",
			Subsystem: "session",
			Name:      "evicted_total",
			Help:      "Sessions dropped from the in-memory store",
		}, []string{"reason"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.upstreamTotal, m.upstreamLatency, m.bookingsTotal, m.sessionsEvicted)
	return m
}

func (m *ChatMetrics) ObserveRequest(route, outcome string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(route, outcome).Inc()
}

func (m *ChatMetrics) ObserveUpstream(operation, status string, seconds float64) {
	if m == nil {
		return
	}
	m.upstreamTotal.WithLabelValues(operation, status).Inc()
	m.upstreamLatency.WithLabelValues(operation).Observe(seconds)
}

func (m *ChatMetrics) ObserveBooking(result string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(result).Inc()
}

func (m *ChatMetrics) ObserveEviction(reason string) {
	if m == nil {
		return
	}
	m.sessionsEvicted.WithLabelValues(reason).Inc()
}
