// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"cmp"
	"context"
	"fmt"
	"net/netip"
	"slices"
	"time"

	"github.com/rbmk-project/common/errclass"
	"github.com/wikicensorship/dnstrace/internal/logger"
	"github.com/wikicensorship/dnstrace/internal/traceroute"
	"github.com/wikicensorship/dnstrace/pkg/classify"
	"github.com/wikicensorship/dnstrace/pkg/graph"
	"github.com/wikicensorship/dnstrace/pkg/measurement"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// Sweep defaults.
const (
	DefaultRepeats = 3
	DefaultMaxTTL  = 30
	DefaultDelay   = time.Second
)

// LiveConfig configures a live sweep.
type LiveConfig struct {
	// Resolvers are probed in order. At most [graph.MaxResolvers] are used.
	Resolvers []netip.Addr
	// ControlDomain is queried by the control streams.
	ControlDomain string
	// TestDomain is queried by the test streams.
	TestDomain string
	Repeats    int
	MaxTTL     int
	// Port is the destination port of the probes.
	Port int
	// Timeout is the time a probe waits for a reply.
	Timeout time.Duration
	// Delay is the pause between two probes.
	Delay time.Duration
	// Record holds the facts shared by all records of the sweep.
	Record measurement.Params
}

// Checkpoint is called after every TTL round of a live sweep with the graph
// built so far.
type Checkpoint func(ctx context.Context, g *graph.Graph) error

// LiveOption configures a [Live] driver.
type LiveOption func(*Live)

// WithMetrics sets the receiver of the sweep observations.
func WithMetrics(m Metrics) LiveOption {
	return func(l *Live) { l.metrics = m }
}

// WithCheckpoint sets a function called after every TTL round.
func WithCheckpoint(c Checkpoint) LiveOption {
	return func(l *Live) { l.checkpoint = c }
}

// WithGraphOptions sets options of the built graph. The loss scoping mode is
// always [graph.Live].
func WithGraphOptions(opts ...graph.Option) LiveOption {
	return func(l *Live) { l.graphOpts = append(l.graphOpts, opts...) }
}

// WithClock overrides the clock used for record timestamps.
func WithClock(now func() time.Time) LiveOption {
	return func(l *Live) { l.now = now }
}

// Live probes the network and builds the graph while doing so.
type Live struct {
	client     traceroute.Client
	cfg        LiveConfig
	limiter    *rate.Limiter
	metrics    Metrics
	checkpoint Checkpoint
	graphOpts  []graph.Option
	now        func() time.Time
}

// NewLive returns a live driver sending probes through client.
func NewLive(client traceroute.Client, cfg LiveConfig, opts ...LiveOption) *Live {
	if cfg.Repeats <= 0 {
		cfg.Repeats = DefaultRepeats
	}
	if cfg.MaxTTL <= 0 {
		cfg.MaxTTL = DefaultMaxTTL
	}
	if cfg.Port == 0 {
		cfg.Port = traceroute.DNSPort
	}
	limit := rate.Inf
	if cfg.Delay > 0 {
		limit = rate.Every(cfg.Delay)
	}

	l := &Live{
		client:  client,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		metrics: noopMetrics{},
		now:     time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// stream is the state of one (resolver, kind) probe stream.
type stream struct {
	resolver int
	kind     graph.StreamKind
	dst      netip.Addr
	domain   string
	record   *measurement.Record
	prev     graph.NodeKey
}

// Run performs the sweep. It returns the graph and the finalized records,
// one per stream, with the control record of a resolver before its test record.
// A canceled context aborts the sweep and no result is returned.
func (l *Live) Run(ctx context.Context) (*graph.Graph, *measurement.Set, error) {
	log := logger.FromContext(ctx)
	tracer := trace.SpanFromContext(ctx).TracerProvider().Tracer("driver.Live")
	ctx, span := tracer.Start(ctx, "Sweep", trace.WithAttributes(
		attribute.Int("sweep.resolvers", len(l.cfg.Resolvers)),
		attribute.Int("sweep.repeats", l.cfg.Repeats),
		attribute.Int("sweep.max_ttl", l.cfg.MaxTTL),
		attribute.String("sweep.domain.control", l.cfg.ControlDomain),
		attribute.String("sweep.domain.test", l.cfg.TestDomain),
	))
	defer span.End()

	streams, err := l.streams(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}

	g := graph.New(append(slices.Clone(l.graphOpts), graph.WithMode(graph.Live))...)
	src := g.AddSource(netip.Addr{})
	opts := traceroute.Options{Timeout: l.cfg.Timeout}

	for repeat := range l.cfg.Repeats {
		log.InfoContext(ctx, "Starting sweep repetition", "repeat", repeat+1, "of", l.cfg.Repeats)
		span.AddEvent("Repetition started", trace.WithAttributes(attribute.Int("sweep.repeat", repeat+1)))
		for _, s := range streams {
			s.prev = src
		}

		for ttl := 1; ttl <= l.cfg.MaxTTL; ttl++ {
			for _, s := range streams {
				if err := l.probe(ctx, g, s, repeat, ttl, opts); err != nil {
					span.SetStatus(codes.Error, err.Error())
					return nil, nil, err
				}
			}
			l.metrics.SetGraphSize(g.NodeCount(), g.EdgeCount())
			if l.checkpoint != nil {
				if err := l.checkpoint(ctx, g); err != nil {
					log.WarnContext(ctx, "Checkpoint failed", "ttl", ttl, "error", err, "errClass", errclass.New(err))
				}
			}
		}
	}

	set := &measurement.Set{}
	end := l.now()
	slices.SortStableFunc(streams, func(a, b *stream) int {
		return cmp.Or(cmp.Compare(a.resolver, b.resolver), cmp.Compare(a.kind, b.kind))
	})
	for _, s := range streams {
		s.record.SetEndTime(end)
		set.Add(s.record)
	}
	log.InfoContext(ctx, "Sweep finished", "nodes", g.NodeCount(), "edges", g.EdgeCount(), "records", len(set.Records))
	return g, set, nil
}

// streams returns the probe streams in probing order: every resolver for the
// control domain, then every resolver for the test domain.
func (l *Live) streams(ctx context.Context) ([]*stream, error) {
	log := logger.FromContext(ctx)

	resolvers := l.cfg.Resolvers
	if len(resolvers) > graph.MaxResolvers {
		log.WarnContext(ctx, "Too many resolvers, ignoring the rest", "max", graph.MaxResolvers, "given", len(resolvers))
		resolvers = resolvers[:graph.MaxResolvers]
	}

	byKind := [2][]*stream{}
	for i, dst := range resolvers {
		if !dst.IsValid() || !dst.Unmap().Is4() {
			err := fmt.Errorf("%w: resolver %d %q", ErrMalformedAddress, i, dst)
			log.ErrorContext(ctx, "Skipping resolver", "index", i, "error", err, "errClass", errclass.New(err))
			continue
		}
		dst = dst.Unmap()
		for _, kind := range []graph.StreamKind{graph.Control, graph.Test} {
			domain := l.cfg.ControlDomain
			if kind == graph.Test {
				domain = l.cfg.TestDomain
			}
			params := l.cfg.Record
			params.DstAddr = dst
			params.Annotation = domain
			params.Port = l.cfg.Port
			params.Proto = "udp"
			if params.Start.IsZero() {
				params.Start = l.now()
			}
			byKind[kind] = append(byKind[kind], &stream{
				resolver: i,
				kind:     kind,
				dst:      dst,
				domain:   domain,
				record:   measurement.NewRecord(params),
			})
		}
	}
	if len(byKind[graph.Control]) == 0 {
		return nil, ErrNoResolvers
	}
	return append(byKind[graph.Control], byKind[graph.Test]...), nil
}

// probe sends one probe of a stream, unless the stream already reached its
// destination in this repetition, and merges the outcome into the graph.
func (l *Live) probe(ctx context.Context, g *graph.Graph, s *stream, repeat, ttl int, opts traceroute.Options) error {
	log := logger.FromContext(ctx).With("resolver", s.dst, "stream", s.kind, "repeat", repeat+1, "ttl", ttl)

	if graph.Reached(s.prev, s.dst) {
		l.metrics.ObserveSkip(s.kind)
		return s.record.AddHop(ttl, measurement.SkipResult())
	}

	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("sweep interrupted: %w", err)
	}

	req := traceroute.Request{Resolver: s.dst, Port: l.cfg.Port, TTL: ttl, Query: s.domain}
	resp, err := l.client.Probe(ctx, req, opts)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("sweep interrupted: %w", ctxErr)
		}
		log.ErrorContext(ctx, "Probe failed, recording as lost", "error", err, "errClass", errclass.New(err))
		resp = traceroute.Response{Status: traceroute.StatusTimeout}
	}

	outcome := outcomeOf(resp)
	pc := graph.ProbeContext{
		Resolver:    s.resolver,
		Stream:      s.kind,
		Repeat:      repeat,
		TTL:         ttl,
		Destination: s.dst,
		Annotation:  s.domain,
	}
	s.prev = g.AddHop(s.prev, outcome, pc)

	class := classify.Unknown
	if outcome.Answered {
		class, _ = classify.Classify(outcome.TTL, ttl)
		log.DebugContext(ctx, "Probe answered", "from", resp.Addr, "replyTTL", resp.TTL, "class", class)
	} else {
		log.DebugContext(ctx, "Probe lost", "error", ErrTransportTimeout)
	}
	l.metrics.ObserveProbe(s.kind, class, resp.RTT)

	if err := s.record.AddHop(ttl, resultOf(resp)); err != nil {
		return fmt.Errorf("failed to record hop %d: %w", ttl, err)
	}
	return nil
}

// outcomeOf converts a transport response to a graph outcome.
func outcomeOf(resp traceroute.Response) graph.Outcome {
	if !resp.Answered() {
		return graph.Timeout
	}
	return graph.Outcome{
		Answered: true,
		Addr:     resp.Addr,
		TTL:      resp.TTL,
		RTT:      resp.RTT,
		Size:     resp.Size,
		Summary:  resp.Summary,
	}
}

// resultOf converts a transport response to a persisted result.
func resultOf(resp traceroute.Response) measurement.Result {
	if !resp.Answered() {
		return measurement.TimeoutResult()
	}
	return measurement.Result{
		Kind:    measurement.Answered,
		From:    resp.Addr.String(),
		RTT:     float64(resp.RTT) / float64(time.Millisecond),
		Size:    resp.Size,
		TTL:     resp.TTL,
		Summary: resp.Summary,
	}
}
