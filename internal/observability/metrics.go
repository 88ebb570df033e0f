package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the prometheus collectors the engine records into.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry            *prometheus.Registry
	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec
	collaboratorCalls   *prometheus.CounterVec
	collaboratorRetries *prometheus.CounterVec
	notificationPolls   *prometheus.CounterVec
	optimisticReverts   *prometheus.CounterVec
	activeWorkspaces    prometheus.Gauge
}

// NewMetrics registers collectors on a dedicated registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		httpErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "HTTP responses rendered from domain errors",
		}, []string{"method", "path", "code"}),
		collaboratorCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collaborator_requests_total",
			Help: "Requests issued to the remote collaborator",
		}, []string{"operation", "outcome"}),
		collaboratorRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collaborator_retries_total",
			Help: "Collaborator request retries after network or 5xx failures",
		}, []string{"operation"}),
		notificationPolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_fetches_total",
			Help: "Notification fetches by trigger and outcome",
		}, []string{"outcome"}),
		optimisticReverts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_optimistic_reverts_total",
			Help: "Optimistic notification mutations reversed after a remote failure",
		}, []string{"intent"}),
		activeWorkspaces: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "active_workspaces",
			Help: "Authenticated sessions holding a workspace",
		}),
	}
	m.registry.MustRegister(
		m.httpRequests, m.httpDuration, m.httpErrors,
		m.collaboratorCalls, m.collaboratorRetries,
		m.notificationPolls, m.optimisticReverts, m.activeWorkspaces,
	)
	return m
}

// Registry exposes the registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.httpErrors.WithLabelValues(method, path, code).Inc()
}

// RecordCollaboratorCall counts one logical collaborator operation.
func (m *Metrics) RecordCollaboratorCall(operation, outcome string) {
	if m == nil {
		return
	}
	m.collaboratorCalls.WithLabelValues(operation, outcome).Inc()
}

// RecordCollaboratorRetry counts one retry attempt.
func (m *Metrics) RecordCollaboratorRetry(operation string) {
	if m == nil {
		return
	}
	m.collaboratorRetries.WithLabelValues(operation).Inc()
}

// RecordNotificationFetch counts a notification fetch outcome.
func (m *Metrics) RecordNotificationFetch(outcome string) {
	if m == nil {
		return
	}
	m.notificationPolls.WithLabelValues(outcome).Inc()
}

// RecordRevert counts a reversed optimistic mutation.
func (m *Metrics) RecordRevert(intent string) {
	if m == nil {
		return
	}
	m.optimisticReverts.WithLabelValues(intent).Inc()
}

// WorkspaceOpened and WorkspaceClosed track live workspaces.
func (m *Metrics) WorkspaceOpened() {
	if m == nil {
		return
	}
	m.activeWorkspaces.Inc()
}

func (m *Metrics) WorkspaceClosed() {
	if m == nil {
		return
	}
	m.activeWorkspaces.Dec()
}
