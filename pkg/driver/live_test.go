// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"bytes"
	"context"
	"errors"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wikicensorship/dnstrace/internal/traceroute"
	"github.com/wikicensorship/dnstrace/pkg/classify"
	"github.com/wikicensorship/dnstrace/pkg/graph"
	"github.com/wikicensorship/dnstrace/pkg/measurement"
)

const (
	controlDomain = "www.example.com"
	testDomain    = "www.twitter.com"
)

var (
	router1  = netip.MustParseAddr("10.0.0.1")
	router2  = netip.MustParseAddr("10.0.0.2")
	resolver = netip.MustParseAddr("8.8.4.4")
)

// censoredPath answers control queries at TTL 3 from the resolver and drops
// test queries from TTL 3 on.
func censoredPath(_ context.Context, req traceroute.Request, _ traceroute.Options) (traceroute.Response, error) {
	switch {
	case req.TTL == 1:
		return traceroute.Response{Status: traceroute.StatusICMP, Addr: router1, TTL: 254, RTT: time.Millisecond, Size: 84}, nil
	case req.TTL == 2:
		return traceroute.Response{Status: traceroute.StatusICMP, Addr: router2, TTL: 253, RTT: 2 * time.Millisecond, Size: 84}, nil
	case req.Query == controlDomain:
		return traceroute.Response{Status: traceroute.StatusAnswer, Addr: req.Resolver, TTL: 61, RTT: 3 * time.Millisecond, Size: 76}, nil
	default:
		return traceroute.Response{Status: traceroute.StatusTimeout, RTT: time.Second}, nil
	}
}

type metricsRecorder struct {
	mu      sync.Mutex
	probes  map[classify.DeviceClass]int
	skips   int
	nodes   int
	edges   int
	updates int
}

func (m *metricsRecorder) ObserveProbe(_ graph.StreamKind, class classify.DeviceClass, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.probes == nil {
		m.probes = map[classify.DeviceClass]int{}
	}
	m.probes[class]++
}

func (m *metricsRecorder) ObserveSkip(graph.StreamKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skips++
}

func (m *metricsRecorder) SetGraphSize(nodes, edges int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes, m.edges = nodes, edges
	m.updates++
}

func newTestConfig(resolvers ...netip.Addr) LiveConfig {
	return LiveConfig{
		Resolvers:     resolvers,
		ControlDomain: controlDomain,
		TestDomain:    testDomain,
		Repeats:       3,
		MaxTTL:        4,
		Record: measurement.Params{
			SrcAddr: "192.0.2.10",
			From:    "203.0.113.7",
			Start:   time.Unix(1700000000, 0),
		},
	}
}

func TestLive_Run(t *testing.T) {
	client := &traceroute.ClientMock{ProbeFunc: censoredPath}
	metrics := &metricsRecorder{}
	checkpoints := 0

	live := NewLive(client, newTestConfig(resolver),
		WithMetrics(metrics),
		WithCheckpoint(func(_ context.Context, g *graph.Graph) error {
			checkpoints++
			return errors.New("disk full")
		}),
		WithClock(func() time.Time { return time.Unix(1700000100, 0) }),
	)

	g, set, err := live.Run(t.Context())
	require.NoError(t, err)

	// control: TTL 1-3 sent, TTL 4 skipped; test: TTL 1-4 sent; three times each
	assert.Len(t, client.ProbeCalls(), 21)
	assert.Equal(t, 3, metrics.skips)
	assert.Equal(t, 6, metrics.probes[classify.Unknown])
	assert.Equal(t, 12, metrics.probes[classify.Router])
	assert.Equal(t, 3, metrics.probes[classify.Linux])
	assert.Equal(t, 12, checkpoints, "a failing checkpoint does not stop the sweep")

	// source, two routers, resolver and one loss per (ttl, repeat) of the test stream
	assert.Equal(t, 10, g.NodeCount())
	assert.Equal(t, 21, g.EdgeCount())
	assert.Equal(t, g.NodeCount(), metrics.nodes)

	dst, ok := g.Node(graph.RealKey(resolver))
	require.True(t, ok)
	assert.Equal(t, classify.Linux, dst.Class)
	assert.Equal(t, graph.ShapeSquare, dst.Shape)

	require.Len(t, set.Records, 2)
	control, test := set.Records[0], set.Records[1]
	assert.Equal(t, controlDomain, control.Annotation)
	assert.Equal(t, testDomain, test.Annotation)
	assert.Len(t, control.Result, 3, "the skip-only TTL 4 is truncated")
	assert.Len(t, test.Result, 4)
	for _, rec := range set.Records {
		assert.True(t, rec.Finalized())
		assert.Equal(t, measurement.RedactedAddr, rec.From)
		assert.Equal(t, "192.0.2.10", rec.SrcAddr)
		assert.Equal(t, int64(1700000100), rec.EndTime)
		assert.Equal(t, "8.8.4.4", rec.DstAddr)
		for _, hop := range rec.Result {
			assert.Len(t, hop.Result, 3, "one result per repeat")
		}
	}
	assert.Equal(t, 61, control.Result[2].Result[0].TTL)
	assert.Equal(t, measurement.Timeout, test.Result[2].Result[0].Kind)
}

func TestLive_Run_ProbeOrder(t *testing.T) {
	other := netip.MustParseAddr("1.0.0.1")
	client := &traceroute.ClientMock{ProbeFunc: censoredPath}
	cfg := newTestConfig(resolver, other)
	cfg.Repeats = 1
	cfg.MaxTTL = 1

	_, set, err := NewLive(client, cfg).Run(t.Context())
	require.NoError(t, err)

	calls := client.ProbeCalls()
	require.Len(t, calls, 4)
	got := []string{}
	for _, c := range calls {
		got = append(got, c.Req.Resolver.String()+" "+c.Req.Query)
	}
	assert.Equal(t, []string{
		"8.8.4.4 " + controlDomain,
		"1.0.0.1 " + controlDomain,
		"8.8.4.4 " + testDomain,
		"1.0.0.1 " + testDomain,
	}, got, "control and test probes of a TTL are adjacent")

	require.Len(t, set.Records, 4)
	order := []string{}
	for _, rec := range set.Records {
		order = append(order, rec.DstAddr+" "+rec.Annotation)
	}
	assert.Equal(t, []string{
		"8.8.4.4 " + controlDomain,
		"8.8.4.4 " + testDomain,
		"1.0.0.1 " + controlDomain,
		"1.0.0.1 " + testDomain,
	}, order, "records of a resolver are stored next to each other")
}

func TestLive_Run_ReplaysToSameShape(t *testing.T) {
	client := &traceroute.ClientMock{ProbeFunc: censoredPath}
	_, set, err := NewLive(client, newTestConfig(resolver)).Run(t.Context())
	require.NoError(t, err)

	first, err := Replay(t.Context(), set)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, set.Save(&buf))
	loaded, err := measurement.Load(t.Context(), &buf)
	require.NoError(t, err)
	require.Empty(t, loaded.Rejected)

	second, err := Replay(t.Context(), loaded)
	require.NoError(t, err)
	assert.Equal(t, first.NodeCount(), second.NodeCount())
	assert.Equal(t, first.EdgeCount(), second.EdgeCount())

	// source, two routers, resolver, and the chained losses at TTL 3 and 4
	assert.Equal(t, 6, second.NodeCount())
	assert.Equal(t, 21, second.EdgeCount())
}

func TestLive_Run_GraphOptions(t *testing.T) {
	client := &traceroute.ClientMock{ProbeFunc: censoredPath}
	cfg := newTestConfig(resolver)
	cfg.Repeats = 1
	g, _, err := NewLive(client, cfg,
		WithGraphOptions(graph.WithEdgeLabel(graph.EdgeLabelRTT), graph.WithMode(graph.Replay)),
	).Run(t.Context())
	require.NoError(t, err)

	assert.Equal(t, graph.Live, g.Mode(), "live graphs always scope losses per probe")
	edges := g.Edges()
	require.NotEmpty(t, edges)
	assert.Equal(t, "1.000", edges[0].Label)
	assert.Equal(t, "*", edges[len(edges)-1].Label)
}

func TestLive_Run_TransportError(t *testing.T) {
	client := &traceroute.ClientMock{ProbeFunc: func(_ context.Context, req traceroute.Request, _ traceroute.Options) (traceroute.Response, error) {
		return traceroute.Response{}, errors.New("socket exploded")
	}}
	cfg := newTestConfig(resolver)
	cfg.Repeats = 1
	cfg.MaxTTL = 2

	g, set, err := NewLive(client, cfg).Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 5, g.NodeCount(), "failed probes are recorded as losses")
	for _, rec := range set.Records {
		for _, hop := range rec.Result {
			assert.Equal(t, measurement.Timeout, hop.Result[0].Kind)
		}
	}
}

func TestLive_Run_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	client := &traceroute.ClientMock{ProbeFunc: func(ctx context.Context, req traceroute.Request, opts traceroute.Options) (traceroute.Response, error) {
		cancel()
		return traceroute.Response{}, ctx.Err()
	}}

	g, set, err := NewLive(client, newTestConfig(resolver)).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, g)
	assert.Nil(t, set)
	assert.Len(t, client.ProbeCalls(), 1)
}

func TestLive_Run_Resolvers(t *testing.T) {
	t.Run("malformed resolvers are skipped", func(t *testing.T) {
		client := &traceroute.ClientMock{ProbeFunc: censoredPath}
		cfg := newTestConfig(netip.MustParseAddr("2001:db8::53"), resolver)
		cfg.Repeats = 1
		cfg.MaxTTL = 1

		_, set, err := NewLive(client, cfg).Run(t.Context())
		require.NoError(t, err)
		assert.Len(t, set.Records, 2)
		assert.Len(t, client.ProbeCalls(), 2)
	})

	t.Run("no usable resolver", func(t *testing.T) {
		client := &traceroute.ClientMock{ProbeFunc: censoredPath}
		_, _, err := NewLive(client, newTestConfig(netip.Addr{})).Run(t.Context())
		assert.ErrorIs(t, err, ErrNoResolvers)
		assert.Empty(t, client.ProbeCalls())
	})

	t.Run("at most six resolvers", func(t *testing.T) {
		client := &traceroute.ClientMock{ProbeFunc: censoredPath}
		resolvers := []netip.Addr{}
		for i := range 8 {
			resolvers = append(resolvers, netip.AddrFrom4([4]byte{9, 9, 9, byte(i + 1)}))
		}
		cfg := newTestConfig(resolvers...)
		cfg.Repeats = 1
		cfg.MaxTTL = 1

		_, set, err := NewLive(client, cfg).Run(t.Context())
		require.NoError(t, err)
		assert.Len(t, set.Records, 2*graph.MaxResolvers)
	})
}

func TestNewLive_Defaults(t *testing.T) {
	l := NewLive(&traceroute.ClientMock{}, LiveConfig{Delay: 250 * time.Millisecond})
	assert.Equal(t, DefaultRepeats, l.cfg.Repeats)
	assert.Equal(t, DefaultMaxTTL, l.cfg.MaxTTL)
	assert.Equal(t, traceroute.DNSPort, l.cfg.Port)
	assert.InDelta(t, 4.0, float64(l.limiter.Limit()), 0.001)
}
