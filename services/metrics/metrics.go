// Package metrics exposes the console's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/speakhq/speakadmin/core"
)

const namespace = "speakadmin"

// Metrics implements core.Recorder on its own registry.
type Metrics struct {
	Registry *prometheus.Registry

	counsellorTransitions *prometheus.CounterVec
	invites               *prometheus.CounterVec
	mails                 *prometheus.CounterVec
	moderationActions     *prometheus.CounterVec
	httpRequests          *prometheus.CounterVec
	httpDuration          *prometheus.HistogramVec
	liveSessions          prometheus.Gauge
}

var _ core.Recorder = (*Metrics)(nil)

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		counsellorTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "counsellor_transitions_total",
			Help:      "Counsellor status changes by target status.",
		}, []string{"status"}),
		invites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invites_total",
			Help:      "Invitations by kind and outcome.",
		}, []string{"kind", "outcome"}),
		mails: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mail_sent_total",
			Help:      "Outgoing emails by outcome.",
		}, []string{"outcome"}),
		moderationActions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moderation_actions_total",
			Help:      "Moderation decisions by action.",
		}, []string{"action"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "path", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		}, []string{"method", "path"}),
		liveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "sessions",
			Help:      "Open live update connections.",
		}),
	}
}

func (m *Metrics) CounsellorTransition(status string) {
	m.counsellorTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) Invite(kind, outcome string) {
	m.invites.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) MailSent(outcome string) {
	m.mails.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ModerationAction(action string) {
	m.moderationActions.WithLabelValues(action).Inc()
}

// ObserveRequest records one handled HTTP request; path is the route pattern.
func (m *Metrics) ObserveRequest(method, path string, status int, took time.Duration) {
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(took.Seconds())
}

func (m *Metrics) LiveSessionOpened() { m.liveSessions.Inc() }
func (m *Metrics) LiveSessionClosed() { m.liveSessions.Dec() }

// Handler exposes the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
