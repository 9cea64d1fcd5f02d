// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/wikicensorship/dnstrace/pkg/classify"
	"github.com/wikicensorship/dnstrace/pkg/driver"
	"github.com/wikicensorship/dnstrace/pkg/graph"
)

var _ driver.Metrics = (*Sweep)(nil)

// Sweep holds the collectors fed by a live sweep.
type Sweep struct {
	probes *prometheus.CounterVec
	skips  *prometheus.CounterVec
	rtt    *prometheus.HistogramVec
	nodes  prometheus.Gauge
	edges  prometheus.Gauge
}

// NewSweep creates the sweep collectors and registers them on reg.
func NewSweep(reg prometheus.Registerer) (*Sweep, error) {
	s := &Sweep{
		probes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dnstrace_probes_total",
				Help: "Probes sent, by stream and by the class of the replying device.",
			},
			[]string{"stream", "class"},
		),
		skips: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dnstrace_probes_skipped_total",
				Help: "Probes not sent because the stream had reached its resolver.",
			},
			[]string{"stream"},
		),
		rtt: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dnstrace_probe_rtt_seconds",
				Help:    "Round trip time of answered probes.",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
			},
			[]string{"stream"},
		),
		nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dnstrace_graph_nodes",
			Help: "Nodes in the path graph.",
		}),
		edges: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dnstrace_graph_edges",
			Help: "Edges in the path graph.",
		}),
	}

	var err error
	for _, c := range s.List() {
		err = errors.Join(err, reg.Register(c))
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// List returns the collectors of the sweep.
func (s *Sweep) List() []prometheus.Collector {
	return []prometheus.Collector{s.probes, s.skips, s.rtt, s.nodes, s.edges}
}

// ObserveProbe counts a sent probe. Unanswered probes have no rtt.
func (s *Sweep) ObserveProbe(stream graph.StreamKind, class classify.DeviceClass, rtt time.Duration) {
	s.probes.WithLabelValues(stream.String(), class.String()).Inc()
	if class != classify.Unknown {
		s.rtt.WithLabelValues(stream.String()).Observe(rtt.Seconds())
	}
}

// ObserveSkip counts a probe that was not sent.
func (s *Sweep) ObserveSkip(stream graph.StreamKind) {
	s.skips.WithLabelValues(stream.String()).Inc()
}

// SetGraphSize sets the graph gauges.
func (s *Sweep) SetGraphSize(nodes, edges int) {
	s.nodes.Set(float64(nodes))
	s.edges.Set(float64(edges))
}
