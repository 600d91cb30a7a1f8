package observability

import (
	"context"
	"errors"

	"github.com/aretw0/gcoder/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gcoder"

// Metrics holds the collectors fed by lifecycle hooks.
type Metrics struct {
	Transitions  *prometheus.CounterVec
	Payloads     *prometheus.CounterVec
	Lines        *prometheus.CounterVec
	PayloadLines *prometheus.HistogramVec
	Rejections   *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg.
// Pass prometheus.NewRegistry() in tests to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "stage",
				Name:      "transitions_total",
				Help:      "Total number of stage lifecycle transitions",
			},
			[]string{"stage", "op", "to"},
		),
		Payloads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payloads_emitted_total",
				Help:      "Total number of instruction payloads emitted",
			},
			[]string{"stage", "phase"},
		),
		Lines: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lines_emitted_total",
				Help:      "Total number of instruction lines emitted",
			},
			[]string{"stage"},
		),
		PayloadLines: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "payload_lines",
				Help:      "Number of lines per emitted payload",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"stage"},
		),
		Rejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rejections_total",
				Help:      "Total number of rejected lifecycle calls",
			},
			[]string{"stage", "op", "reason"},
		),
	}
}

// Hooks returns lifecycle callbacks that update the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			m.Transitions.WithLabelValues(e.Stage, e.Op, e.To.String()).Inc()
		},
		OnEmit: func(_ context.Context, e *domain.EmitEvent) {
			m.Payloads.WithLabelValues(e.Stage, string(e.Phase)).Inc()
			m.Lines.WithLabelValues(e.Stage).Add(float64(e.Lines))
			m.PayloadLines.WithLabelValues(e.Stage).Observe(float64(e.Lines))
		},
		OnReject: func(_ context.Context, e *domain.RejectEvent) {
			m.Rejections.WithLabelValues(e.Stage, e.Op, Reason(e.Err)).Inc()
		},
	}
}

// Reason classifies an error into a low-cardinality label value.
func Reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrProtocolViolation):
		return "protocol_violation"
	case errors.Is(err, domain.ErrConfigInvalid):
		return "config_invalid"
	case errors.Is(err, domain.ErrConfigMismatch):
		return "config_mismatch"
	case errors.Is(err, domain.ErrPayloadTypeMismatch):
		return "payload_type_mismatch"
	default:
		return "other"
	}
}
