// Package metrics expõe os coletores Prometheus do serviço num registry próprio.
//
// *Metrics implementa os ganchos dos outros pacotes: application.Recorder,
// broadcast.Observer e, via RateLimitStats, o StatsStore do rate limit.
package metrics

import (
	"context"
	"net/http"

	"contact-stream/middleware/ratelimit/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "contact"

type Metrics struct {
	registry *prometheus.Registry

	created       prometheus.Counter
	rejected      *prometheus.CounterVec
	storageErrors *prometheus.CounterVec

	streamsActive     prometheus.Gauge
	published         *prometheus.CounterVec
	delivered         *prometheus.CounterVec
	broadcastFailures *prometheus.CounterVec

	rateDecisions *prometheus.CounterVec
}

func newCounterVec(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

// New cria e registra todos os coletores, incluindo os de runtime Go e processo.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "created_total",
			Help:      "Contact messages persisted.",
		}),
		rejected:      newCounterVec("messages", "rejected_total", "Submissions rejected by validation, by first invalid field.", "field"),
		storageErrors: newCounterVec("storage", "errors_total", "Database operations that failed.", "op"),
		streamsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "active",
			Help:      "Open event stream connections.",
		}),
		published:         newCounterVec("broadcast", "events_total", "Events published to the stream hub.", "event"),
		delivered:         newCounterVec("broadcast", "deliveries_total", "Frames accepted by stream connections.", "event"),
		broadcastFailures: newCounterVec("broadcast", "write_failures_total", "Frames a stream connection could not accept.", "event"),
		rateDecisions:     newCounterVec("ratelimit", "decisions_total", "Rate limit decisions.", "decision", "route"),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.created,
		m.rejected,
		m.storageErrors,
		m.streamsActive,
		m.published,
		m.delivered,
		m.broadcastFailures,
		m.rateDecisions,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serve /metrics a partir do registry próprio.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RegisterPool expõe a ocupação de um pool de vagas (limite de concorrência).
func (m *Metrics) RegisterPool(name string, inUse func() int, capacity int) error {
	labels := prometheus.Labels{"pool": name}
	used := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   namespace,
		Subsystem:   "concurrency",
		Name:        "in_use",
		Help:        "Slots currently held.",
		ConstLabels: labels,
	}, func() float64 { return float64(inUse()) })
	limit := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   namespace,
		Subsystem:   "concurrency",
		Name:        "capacity",
		Help:        "Slots available in total.",
		ConstLabels: labels,
	}, func() float64 { return float64(capacity) })

	if err := m.registry.Register(used); err != nil {
		return err
	}
	return m.registry.Register(limit)
}

// application.Recorder

func (m *Metrics) Submitted()              { m.created.Inc() }
func (m *Metrics) Rejected(field string)   { m.rejected.WithLabelValues(field).Inc() }
func (m *Metrics) StorageFailed(op string) { m.storageErrors.WithLabelValues(op).Inc() }

// broadcast.Observer

func (m *Metrics) Subscribed(active int)   { m.streamsActive.Set(float64(active)) }
func (m *Metrics) Unsubscribed(active int) { m.streamsActive.Set(float64(active)) }

func (m *Metrics) Published(event string, delivered int) {
	m.published.WithLabelValues(event).Inc()
	m.delivered.WithLabelValues(event).Add(float64(delivered))
}

func (m *Metrics) WriteFailed(event string) { m.broadcastFailures.WithLabelValues(event).Inc() }

// RateLimitStats adapta as métricas ao StatsStore do rate limit.
func (m *Metrics) RateLimitStats() domain.StatsStore { return rateLimitStats{m} }

type rateLimitStats struct{ m *Metrics }

func (s rateLimitStats) Record(_ context.Context, ev domain.StatsEvent) error {
	decision := "denied"
	if ev.Allowed {
		decision = "allowed"
	}
	s.m.rateDecisions.WithLabelValues(decision, ev.Path).Inc()
	return nil
}
