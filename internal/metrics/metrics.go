package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result labels.
const (
	ResultFound     = "found"
	ResultNotFound  = "not_found"
	ResultSame      = "same_player"
	ResultAccepted  = "accepted"
	ResultExhausted = "exhausted"
	ResultOK        = "ok"
	ResultError     = "error"
)

// Metrics owns the collectors exported on /metrics. A nil *Metrics is a valid no-op sink.
type Metrics struct {
	registry *prometheus.Registry

	pathSearches   *prometheus.CounterVec
	pathDegrees    prometheus.Histogram
	pathDuration   prometheus.Histogram
	puzzleResults  *prometheus.CounterVec
	puzzleAttempts prometheus.Histogram
	reloads        *prometheus.CounterVec
	players        prometheus.Gauge
	connections    prometheus.Gauge
	sessions       prometheus.Gauge
}

// New registers all collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		pathSearches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "separation_path_searches_total",
			Help: "Shortest path searches by result",
		}, []string{"result"}),
		pathDegrees: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "separation_path_degrees",
			Help:    "Degrees of separation of found paths",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 8, 10},
		}),
		pathDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "separation_path_duration_seconds",
			Help:    "Shortest path search duration",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		}),
		puzzleResults: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "separation_puzzles_total",
			Help: "Puzzle generation outcomes by difficulty",
		}, []string{"difficulty", "result"}),
		puzzleAttempts: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "separation_puzzle_attempts",
			Help:    "Sampling attempts used per puzzle generation",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
		}),
		reloads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "separation_dataset_reloads_total",
			Help: "Dataset loads by result",
		}, []string{"result"}),
		players: factory.NewGauge(prometheus.GaugeOpts{
			Name: "separation_dataset_players",
			Help: "Players in the active snapshot",
		}),
		connections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "separation_dataset_connections",
			Help: "Teammate connections in the active snapshot",
		}),
		sessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "separation_quiz_sessions",
			Help: "Live quiz sessions",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObservePath records a shortest path search. degrees is ignored unless result is found.
func (m *Metrics) ObservePath(result string, degrees int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.pathSearches.WithLabelValues(result).Inc()
	m.pathDuration.Observe(elapsed.Seconds())
	if result == ResultFound {
		m.pathDegrees.Observe(float64(degrees))
	}
}

// ObservePuzzle records a puzzle generation outcome.
func (m *Metrics) ObservePuzzle(difficulty, result string, attempts int) {
	if m == nil {
		return
	}
	m.puzzleResults.WithLabelValues(difficulty, result).Inc()
	m.puzzleAttempts.Observe(float64(attempts))
}

// ObserveLoad records a dataset load and the resulting graph size.
func (m *Metrics) ObserveLoad(err error, players, connections int) {
	if m == nil {
		return
	}
	if err != nil {
		m.reloads.WithLabelValues(ResultError).Inc()
		return
	}
	m.reloads.WithLabelValues(ResultOK).Inc()
	m.players.Set(float64(players))
	m.connections.Set(float64(connections))
}

// SetSessions records the number of live quiz sessions.
func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(n))
}
