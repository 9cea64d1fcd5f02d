// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package dnstrace

import (
	"context"
	"errors"
	"fmt"
	"net/netip"

	"github.com/rbmk-project/common/errclass"
	"github.com/wikicensorship/dnstrace/internal/logger"
	"github.com/wikicensorship/dnstrace/pkg/config"
	"github.com/wikicensorship/dnstrace/pkg/dnstrace/metrics"
	"github.com/wikicensorship/dnstrace/pkg/driver"
	"github.com/wikicensorship/dnstrace/pkg/graph"
	"github.com/wikicensorship/dnstrace/pkg/measurement"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Trace performs a live sweep. The graph page is rewritten after every TTL
// round, so an interrupted sweep leaves the graph built so far behind. The
// records are written once the sweep is complete.
func (r *Runner) Trace(ctx context.Context) (*Output, error) {
	ctx, runID, done, err := r.start(ctx, "live")
	if err != nil {
		return nil, err
	}
	defer done()
	log := logger.FromContext(ctx)

	ctx, span := otel.Tracer("dnstrace").Start(ctx, "dnstrace.Trace", trace.WithAttributes(attribute.String("run.id", runID)))
	defer span.End()

	sweep, err := r.sweepConfig(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	meta := r.locator.Lookup(ctx)
	if meta.NoInternet {
		log.WarnContext(ctx, "Public address unknown, records keep the placeholder")
	}

	start := r.now()
	out := &Output{
		RunID:           runID,
		MeasurementPath: r.outputPath(start, ".json"),
		PagePath:        r.outputPath(start, ".html"),
	}

	resolvers := parseResolvers(ctx, sweep.Resolvers)
	params := measurement.Params{
		Port:   sweep.Port,
		Start:  start,
		From:   meta.PublicIP,
		ASN:    meta.ASN,
		ASName: meta.ASOrg,
		CC:     meta.Country,
	}
	if src, ok := r.sourceAddr(ctx, resolvers); ok {
		params.SrcAddr = src.String()
	}

	stats, err := metrics.NewSweep(r.metrics.GetRegistry())
	if err != nil {
		return nil, fmt.Errorf("failed to register sweep metrics: %w", err)
	}
	if err := metrics.RegisterRunInfo(r.metrics.GetRegistry(), runID, "live", map[string]string{
		"asn":     meta.ASN,
		"country": meta.Country,
	}); err != nil {
		return nil, fmt.Errorf("failed to register run info: %w", err)
	}

	graphOpts, closeAnnotator := r.graphOptions(ctx)
	defer closeAnnotator()

	live := driver.NewLive(r.client, driver.LiveConfig{
		Resolvers:     resolvers,
		ControlDomain: sweep.ControlDomain,
		TestDomain:    sweep.TestDomain,
		Repeats:       sweep.Repeats,
		MaxTTL:        sweep.MaxTTL,
		Port:          sweep.Port,
		Timeout:       sweep.Timeout,
		Delay:         sweep.Delay,
		Record:        params,
	},
		driver.WithMetrics(stats),
		driver.WithGraphOptions(graphOpts...),
		driver.WithCheckpoint(func(ctx context.Context, g *graph.Graph) error {
			return r.renderer.WriteFile(ctx, out.PagePath, g)
		}),
		driver.WithClock(r.now),
	)

	log.InfoContext(ctx, "Starting sweep", "resolvers", sweep.Resolvers, "control", sweep.ControlDomain, "test", sweep.TestDomain)
	g, set, err := live.Run(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Sweep failed", "error", err, "errClass", errclass.New(err))
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("sweep failed: %w", err)
	}
	out.Graph, out.Set = g, set

	var errs error
	if err := set.SaveFile(out.MeasurementPath); err != nil {
		errs = errors.Join(errs, err)
	}
	if err := r.renderer.WriteFile(ctx, out.PagePath, g); err != nil {
		errs = errors.Join(errs, err)
	}
	if err := r.metrics.WriteFile(ctx); err != nil {
		log.WarnContext(ctx, "Metrics file not written", "error", err)
	}
	if errs != nil {
		span.SetStatus(codes.Error, errs.Error())
		return out, fmt.Errorf("failed to write results: %w", errs)
	}

	log.InfoContext(ctx, "Saved measurement", "measurement", out.MeasurementPath, "page", out.PagePath)
	return out, nil
}

// sweepConfig returns the sweep of the configuration or of the plan file.
func (r *Runner) sweepConfig(ctx context.Context) (config.SweepConfig, error) {
	if !r.config.HasPlan() {
		return r.config.Sweep, nil
	}
	plan, err := config.NewFileLoader(r.config).Load(ctx)
	if err != nil {
		return config.SweepConfig{}, fmt.Errorf("failed to load sweep plan: %w", err)
	}
	return plan, nil
}

// sourceAddr returns the local address used to reach the first usable resolver.
func (r *Runner) sourceAddr(ctx context.Context, resolvers []netip.Addr) (netip.Addr, bool) {
	for _, dst := range resolvers {
		if !dst.Is4() {
			continue
		}
		src, err := r.localAddr(ctx, dst)
		if err != nil {
			logger.FromContext(ctx).DebugContext(ctx, "No local address for resolver", "resolver", dst, "error", err)
			continue
		}
		return src, true
	}
	return netip.Addr{}, false
}

// parseResolvers parses the resolver addresses. Unparseable entries are kept
// as invalid addresses so the sweep reports and skips them in place.
func parseResolvers(ctx context.Context, resolvers []string) []netip.Addr {
	addrs := make([]netip.Addr, 0, len(resolvers))
	for _, s := range resolvers {
		addr, err := netip.ParseAddr(s)
		if err != nil {
			logger.FromContext(ctx).WarnContext(ctx, "Resolver is not an address", "resolver", s, "error", err)
		}
		addrs = append(addrs, addr.Unmap())
	}
	return addrs
}
