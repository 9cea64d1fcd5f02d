// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wikicensorship/dnstrace/pkg/classify"
	"github.com/wikicensorship/dnstrace/pkg/graph"
)

func TestSweep(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, err := NewSweep(reg)
	require.NoError(t, err)

	s.ObserveProbe(graph.Control, classify.Router, 2*time.Millisecond)
	s.ObserveProbe(graph.Control, classify.Router, 3*time.Millisecond)
	s.ObserveProbe(graph.Test, classify.Middlebox, time.Millisecond)
	s.ObserveProbe(graph.Test, classify.Unknown, 0)
	s.ObserveSkip(graph.Test)
	s.SetGraphSize(5, 7)

	assert.InDelta(t, 2, testutil.ToFloat64(s.probes.WithLabelValues("control", classify.Router.String())), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(s.probes.WithLabelValues("test", classify.Middlebox.String())), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(s.probes.WithLabelValues("test", classify.Unknown.String())), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(s.skips.WithLabelValues("test")), 0)
	assert.InDelta(t, 5, testutil.ToFloat64(s.nodes), 0)
	assert.InDelta(t, 7, testutil.ToFloat64(s.edges), 0)
	// unanswered probes are not timed
	assert.Equal(t, 2, testutil.CollectAndCount(s.rtt))

	t.Run("double registration", func(t *testing.T) {
		_, err := NewSweep(reg)
		var already prometheus.AlreadyRegisteredError
		assert.ErrorAs(t, err, &already)
	})
}
