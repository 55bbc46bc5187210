package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Reload outcomes recorded by SnapshotCollector.
const (
	ReloadOK     = "ok"
	ReloadFailed = "error"
)

// SnapshotCollector exposes per-slot snapshot gauges and reload outcomes.
type SnapshotCollector struct {
	gatherer prometheus.Gatherer

	Nodes             *prometheus.GaugeVec
	AgentObservations *prometheus.GaugeVec
	Timesteps         *prometheus.GaugeVec
	Reloads           *prometheus.CounterVec
	ReloadDuration    *prometheus.HistogramVec
}

// NewSnapshotCollector registers snapshot metrics against the provided registerer.
func NewSnapshotCollector(reg prometheus.Registerer) (*SnapshotCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	nodes, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "snapshot_nodes",
		Help: "Number of network nodes in the published snapshot.",
	}, []string{"slot"}), "snapshot_nodes")
	if err != nil {
		return nil, err
	}
	observations, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "snapshot_agent_observations",
		Help: "Number of agent observations in the published snapshot.",
	}, []string{"slot"}), "snapshot_agent_observations")
	if err != nil {
		return nil, err
	}
	timesteps, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "snapshot_timesteps",
		Help: "Number of distinct agent-log timesteps in the published snapshot.",
	}, []string{"slot"}), "snapshot_timesteps")
	if err != nil {
		return nil, err
	}
	reloads, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "snapshot_reloads_total",
		Help: "Snapshot reload attempts, labeled by slot and result.",
	}, []string{"slot", "result"}), "snapshot_reloads_total")
	if err != nil {
		return nil, err
	}
	duration, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "snapshot_reload_duration_seconds",
		Help:    "Time taken to build a snapshot.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"slot"}), "snapshot_reload_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &SnapshotCollector{
		gatherer:          gathererFor(reg),
		Nodes:             nodes,
		AgentObservations: observations,
		Timesteps:         timesteps,
		Reloads:           reloads,
		ReloadDuration:    duration,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *SnapshotCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// SetSnapshotCounts updates the size gauges for slot.
func (c *SnapshotCollector) SetSnapshotCounts(slot string, nodes, observations, timesteps int) {
	if c == nil {
		return
	}
	c.Nodes.WithLabelValues(slot).Set(float64(nodes))
	c.AgentObservations.WithLabelValues(slot).Set(float64(observations))
	c.Timesteps.WithLabelValues(slot).Set(float64(timesteps))
}

// ObserveReload records one reload attempt for slot.
func (c *SnapshotCollector) ObserveReload(slot string, err error, d time.Duration) {
	if c == nil {
		return
	}
	result := ReloadOK
	if err != nil {
		result = ReloadFailed
	}
	c.Reloads.WithLabelValues(slot, result).Inc()
	c.ReloadDuration.WithLabelValues(slot).Observe(d.Seconds())
}
