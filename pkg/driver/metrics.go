// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"time"

	"github.com/wikicensorship/dnstrace/pkg/classify"
	"github.com/wikicensorship/dnstrace/pkg/graph"
)

// Metrics receives the observations of a sweep.
type Metrics interface {
	// ObserveProbe records a sent probe and the class of the replying device.
	ObserveProbe(stream graph.StreamKind, class classify.DeviceClass, rtt time.Duration)
	// ObserveSkip records a probe that was not sent because its stream reached the destination.
	ObserveSkip(stream graph.StreamKind)
	// SetGraphSize records the current size of the graph.
	SetGraphSize(nodes, edges int)
}

type noopMetrics struct{}

func (noopMetrics) ObserveProbe(graph.StreamKind, classify.DeviceClass, time.Duration) {}
func (noopMetrics) ObserveSkip(graph.StreamKind)                                       {}
func (noopMetrics) SetGraphSize(int, int)                                              {}
