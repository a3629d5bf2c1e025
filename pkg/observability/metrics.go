package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/surveyflow/pkg/condition"
	"github.com/aretw0/surveyflow/pkg/domain"
)

const namespace = "surveyflow"

// Metrics holds the Prometheus collectors of one process.
type Metrics struct {
	registry *prometheus.Registry

	BlockVisits          *prometheus.CounterVec
	Navigations          *prometheus.CounterVec
	Submissions          prometheus.Counter
	ConditionEvaluations *prometheus.CounterVec
	ConditionDuration    *prometheus.HistogramVec
	LayoutDuration       prometheus.Histogram
	HTTPRequests         *prometheus.CounterVec
	HTTPDuration         *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		BlockVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "block_visits_total",
				Help:      "Total number of block entries by the survey runtime",
			},
			[]string{"block_id"},
		),
		Navigations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "navigations_total",
				Help:      "Resolved navigation steps by destination kind and origin",
			},
			[]string{"kind", "sequential"},
		),
		Submissions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Sessions that reached the submit destination",
		}),
		ConditionEvaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "condition_evaluations_total",
				Help:      "Condition evaluations by condition shape and result",
			},
			[]string{"kind", "result"},
		),
		ConditionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "condition_evaluation_seconds",
				Help:      "Time spent evaluating conditions",
				Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
			},
			[]string{"kind"},
		),
		LayoutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_seconds",
			Help:      "Time spent laying out flow graphs",
			Buckets:   prometheus.DefBuckets,
		}),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route, method and status code",
			},
			[]string{"route", "method", "code"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_seconds",
				Help:      "HTTP request latency by route",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
	m.registry.MustRegister(
		m.BlockVisits,
		m.Navigations,
		m.Submissions,
		m.ConditionEvaluations,
		m.ConditionDuration,
		m.LayoutDuration,
		m.HTTPRequests,
		m.HTTPDuration,
	)
	return m
}

// Registry exposes the registry, e.g. for tests or extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ConditionObserver records every evaluation made by a condition.Evaluator.
func (m *Metrics) ConditionObserver() condition.Observer {
	return func(kind string, result bool, elapsed time.Duration) {
		m.ConditionEvaluations.WithLabelValues(kind, strconv.FormatBool(result)).Inc()
		m.ConditionDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	}
}

// ObserveLayout records the duration of one layout pass.
func (m *Metrics) ObserveLayout(elapsed time.Duration) {
	m.LayoutDuration.Observe(elapsed.Seconds())
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(route, method string, code int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Hooks returns lifecycle hooks that feed the runtime counters.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnBlockEnter: func(_ context.Context, e *domain.BlockEvent) {
			m.BlockVisits.WithLabelValues(e.BlockID).Inc()
		},
		OnNavigate: func(_ context.Context, e *domain.NavigationEvent) {
			m.Navigations.WithLabelValues(string(e.Destination.Kind), strconv.FormatBool(e.Sequential)).Inc()
		},
		OnSubmit: func(context.Context, *domain.EventBase) {
			m.Submissions.Inc()
		},
	}
}
