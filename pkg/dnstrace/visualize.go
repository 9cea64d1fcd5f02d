// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package dnstrace

import (
	"context"
	"fmt"

	"github.com/wikicensorship/dnstrace/internal/logger"
	"github.com/wikicensorship/dnstrace/pkg/driver"
	"github.com/wikicensorship/dnstrace/pkg/graph"
	"github.com/wikicensorship/dnstrace/pkg/measurement"
	"github.com/wikicensorship/dnstrace/pkg/render"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Visualize replays the measurement file at path and writes its graph page
// next to it.
func (r *Runner) Visualize(ctx context.Context, path string) (*Output, error) {
	ctx, runID, done, err := r.start(ctx, "replay")
	if err != nil {
		return nil, err
	}
	defer done()

	ctx, span := otel.Tracer("dnstrace").Start(ctx, "dnstrace.Visualize", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.String("measurement", path),
	))
	defer span.End()

	g, set, err := r.replay(ctx, path)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	out := &Output{
		RunID:           runID,
		MeasurementPath: path,
		PagePath:        render.PagePath(path),
		Graph:           g,
		Set:             set,
	}
	if err := r.renderer.WriteFile(ctx, out.PagePath, g); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	log := logger.FromContext(ctx)
	if r.config.Output.Attach {
		log.InfoContext(ctx, "The page expects the vis-network files next to it", "dir", render.AssetDir)
	}
	log.InfoContext(ctx, "Saved graph", "page", out.PagePath, "nodes", g.NodeCount(), "edges", g.EdgeCount())
	return out, nil
}

// replay loads the measurement at path and rebuilds its graph.
func (r *Runner) replay(ctx context.Context, path string) (*graph.Graph, *measurement.Set, error) {
	log := logger.FromContext(ctx)

	set, err := measurement.LoadFile(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load measurement: %w", err)
	}
	for _, rej := range set.Rejected {
		log.WarnContext(ctx, "Record left out of the graph", "error", rej)
	}

	graphOpts, closeAnnotator := r.graphOptions(ctx)
	defer closeAnnotator()

	g, err := driver.Replay(ctx, set, graphOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to replay measurement: %w", err)
	}
	return g, set, nil
}
