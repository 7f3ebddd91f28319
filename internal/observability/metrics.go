package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics expõe contadores operacionais das decisões de admissão.
type Metrics struct {
	registry *prometheus.Registry

	Decisions *prometheus.CounterVec
	Degraded  prometheus.Counter
	Bypassed  prometheus.Counter
}

// NewMetrics cria um registry próprio com os contadores da camada de admissão.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "admission",
			Name:      "decisions_total",
			Help:      "Decisões do pipeline de admissão por resultado e motivo.",
		}, []string{"outcome", "reason"}),
		Degraded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "admission",
			Name:      "degraded_total",
			Help:      "Decisões tomadas em fail-open por falha do counter store.",
		}),
		Bypassed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "admission",
			Name:      "bypassed_total",
			Help:      "Requisições liberadas pelo allowlist sem avaliação.",
		}),
	}
}

// ObserveVerdict registra uma decisão terminal do pipeline.
func (m *Metrics) ObserveVerdict(allowed bool, reason string, degraded bool) {
	if m == nil {
		return
	}
	outcome := "deny"
	if allowed {
		outcome = "allow"
		reason = ""
	}
	m.Decisions.WithLabelValues(outcome, reason).Inc()
	if degraded {
		m.Degraded.Inc()
	}
}

// Handler expõe o registry no formato Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
