// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"context"
	"fmt"
	"net/netip"
	"slices"
	"time"

	"github.com/rbmk-project/common/errclass"
	"github.com/wikicensorship/dnstrace/internal/logger"
	"github.com/wikicensorship/dnstrace/pkg/graph"
	"github.com/wikicensorship/dnstrace/pkg/measurement"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Replay rebuilds the graph of a persisted measurement set.
//
// Records are merged in order. The position of a result within its hop is
// its repeat index. A result flagged late is merged and the result following
// it in the same hop is dropped as its duplicate without taking a repeat
// index. Skip sentinels add nothing. Records whose destination is not an
// IPv4 address are left out.
func Replay(ctx context.Context, set *measurement.Set, opts ...graph.Option) (*graph.Graph, error) {
	log := logger.FromContext(ctx)
	tracer := trace.SpanFromContext(ctx).TracerProvider().Tracer("driver.Replay")
	ctx, span := tracer.Start(ctx, "Replay", trace.WithAttributes(
		attribute.Int("replay.records", len(set.Records)),
		attribute.Int("replay.rejected", len(set.Rejected)),
	))
	defer span.End()

	g := graph.New(append(slices.Clone(opts), graph.WithMode(graph.Replay))...)
	srcAddr, err := netip.ParseAddr(set.SourceAddr())
	if err != nil && len(set.Records) > 0 {
		return nil, fmt.Errorf("%w: source address %q", ErrMalformedAddress, set.SourceAddr())
	}
	src := g.AddSource(srcAddr)

	for i, rec := range set.Records {
		if err := replayRecord(ctx, g, src, i, rec); err != nil {
			log.ErrorContext(ctx, "Skipping record", "index", i, "error", err, "errClass", errclass.New(err))
			span.AddEvent("Record skipped", trace.WithAttributes(attribute.Int("replay.record", i)))
		}
	}

	log.DebugContext(ctx, "Replay finished", "nodes", g.NodeCount(), "edges", g.EdgeCount())
	return g, nil
}

// replayRecord merges one record into the graph.
func replayRecord(ctx context.Context, g *graph.Graph, src graph.NodeKey, index int, rec *measurement.Record) error {
	dst, err := rec.Destination()
	if err != nil {
		return err
	}
	for _, hop := range rec.Result {
		for _, res := range hop.Result {
			if _, err := replayOutcome(res); err != nil {
				return fmt.Errorf("hop %d: %w", hop.Hop, err)
			}
		}
	}
	resolver, kind := graph.StreamOf(index)

	var prev []graph.NodeKey
	for _, hop := range rec.Result {
		repeat := 0
		skipNext := false
		for _, res := range hop.Result {
			if skipNext {
				skipNext = false
				continue
			}
			for len(prev) <= repeat {
				prev = append(prev, src)
			}

			if !graph.Reached(prev[repeat], dst) && !res.IsSkip() {
				if res.Late {
					skipNext = true
				}
				o, _ := replayOutcome(res)
				prev[repeat] = g.AddHop(prev[repeat], o, graph.ProbeContext{
					Resolver:    resolver,
					Stream:      kind,
					Repeat:      repeat,
					TTL:         hop.Hop,
					Destination: dst,
					Annotation:  rec.Annotation,
				})
			}
			repeat++
		}
	}
	return nil
}

// replayOutcome converts a persisted result to a graph outcome.
func replayOutcome(res measurement.Result) (graph.Outcome, error) {
	if res.Kind != measurement.Answered {
		return graph.Timeout, nil
	}
	addr, err := netip.ParseAddr(res.From)
	if err != nil {
		return graph.Outcome{}, fmt.Errorf("%w: %q", ErrMalformedAddress, res.From)
	}
	return graph.Outcome{
		Answered: true,
		Addr:     addr.Unmap(),
		TTL:      res.TTL,
		RTT:      time.Duration(res.RTT * float64(time.Millisecond)),
		Size:     res.Size,
		Summary:  res.Summary,
	}, nil
}
