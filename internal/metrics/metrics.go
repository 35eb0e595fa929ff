package metrics

import (
	"time"

	"bondquest-rounds/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bondquest"

// Metrics holds Prometheus metrics for round play. It satisfies app.RoundObserver.
type Metrics struct {
	RoundsStarted   *prometheus.CounterVec
	RoundsFinished  *prometheus.CounterVec
	RoundsDiscarded *prometheus.CounterVec
	RoundDuration   *prometheus.HistogramVec
	Points          *prometheus.HistogramVec
	ActiveRounds    *prometheus.GaugeVec
}

// New registers the round metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RoundsStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rounds",
				Name:      "started_total",
				Help:      "Rounds started, by kind",
			},
			[]string{"kind"},
		),
		RoundsFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rounds",
				Name:      "finished_total",
				Help:      "Rounds that delivered a result, by kind and how they ended",
			},
			[]string{"kind", "result"},
		),
		RoundsDiscarded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rounds",
				Name:      "discarded_total",
				Help:      "Rounds disposed before delivering a result",
			},
			[]string{"kind"},
		),
		RoundDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "rounds",
				Name:      "duration_seconds",
				Help:      "Time from round start to delivered result",
				Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 45, 60, 90},
			},
			[]string{"kind"},
		),
		Points: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "rounds",
				Name:      "points",
				Help:      "Points awarded per round",
				Buckets:   []float64{0, 5, 10, 15, 20, 30, 40, 60, 80, 140},
			},
			[]string{"kind"},
		),
		ActiveRounds: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "rounds",
				Name:      "active",
				Help:      "Rounds currently running",
			},
			[]string{"kind"},
		),
	}
}

func (m *Metrics) RoundStarted(kind domain.RoundKind) {
	m.RoundsStarted.WithLabelValues(string(kind)).Inc()
	m.ActiveRounds.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) RoundFinished(outcome domain.Outcome, elapsed time.Duration) {
	kind := string(outcome.Kind)
	result := "completed"
	if outcome.TimedOut {
		result = "timed_out"
	}
	m.RoundsFinished.WithLabelValues(kind, result).Inc()
	m.RoundDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	m.Points.WithLabelValues(kind).Observe(float64(outcome.Points))
	m.ActiveRounds.WithLabelValues(kind).Dec()
}

func (m *Metrics) RoundDiscarded(kind domain.RoundKind) {
	m.RoundsDiscarded.WithLabelValues(string(kind)).Inc()
	m.ActiveRounds.WithLabelValues(string(kind)).Dec()
}
