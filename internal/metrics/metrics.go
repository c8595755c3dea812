// Package metrics exposes turn-engine counters for Prometheus. A nil
// *Collector is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dominion"

// Turn outcomes.
const (
	OutcomeCommitted = "committed"
	OutcomeRejected  = "rejected"
	OutcomeConflict  = "conflict"
	OutcomeFailed    = "failed"
)

// Collector holds the engine's metrics on a private registry.
type Collector struct {
	registry *prometheus.Registry

	turnDuration     prometheus.Histogram
	turns            *prometheus.CounterVec
	snapshotFailures prometheus.Counter
	eliminations     *prometheus.CounterVec
	victories        *prometheus.CounterVec
	combats          *prometheus.CounterVec
}

// New creates a Collector and registers its metrics plus the Go runtime
// collectors.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		turnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Wall time to process one game turn.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Turn requests by outcome.",
		}, []string{"outcome"}),
		snapshotFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_failures_total",
			Help:      "Snapshot writes that failed after a committed turn.",
		}),
		eliminations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "empire_defeats_total",
			Help:      "Empires defeated, by defeat type.",
		}, []string{"type"}),
		victories: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "game_victories_total",
			Help:      "Games ended, by victory type.",
		}, []string{"type"}),
		combats: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "combats_total",
			Help:      "Attack orders processed, by result.",
		}, []string{"result"}),
	}
	c.registry.MustRegister(
		c.turnDuration,
		c.turns,
		c.snapshotFailures,
		c.eliminations,
		c.victories,
		c.combats,
		collectors.NewGoCollector(),
	)
	return c
}

// ObserveTurn records one turn request.
func (c *Collector) ObserveTurn(outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.turns.WithLabelValues(outcome).Inc()
	if outcome == OutcomeCommitted {
		c.turnDuration.Observe(d.Seconds())
	}
}

// SnapshotFailed counts a failed post-commit snapshot.
func (c *Collector) SnapshotFailed() {
	if c == nil {
		return
	}
	c.snapshotFailures.Inc()
}

// EmpireDefeated counts a defeat of the given type.
func (c *Collector) EmpireDefeated(defeatType string) {
	if c == nil {
		return
	}
	c.eliminations.WithLabelValues(defeatType).Inc()
}

// GameWon counts a game ending with the given victory type.
func (c *Collector) GameWon(victoryType string) {
	if c == nil {
		return
	}
	c.victories.WithLabelValues(victoryType).Inc()
}

// Combat counts a processed attack order: "victory", "repelled" or "rejected".
func (c *Collector) Combat(result string) {
	if c == nil {
		return
	}
	c.combats.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
