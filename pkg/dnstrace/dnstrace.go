// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package dnstrace ties the sweep, the persisted measurements and the graph
// pages together into the runs offered on the command line.
package dnstrace

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/wikicensorship/dnstrace/internal/logger"
	"github.com/wikicensorship/dnstrace/internal/traceroute"
	"github.com/wikicensorship/dnstrace/pkg/api"
	"github.com/wikicensorship/dnstrace/pkg/config"
	"github.com/wikicensorship/dnstrace/pkg/dnstrace/metrics"
	"github.com/wikicensorship/dnstrace/pkg/geolocate"
	"github.com/wikicensorship/dnstrace/pkg/graph"
	"github.com/wikicensorship/dnstrace/pkg/measurement"
	"github.com/wikicensorship/dnstrace/pkg/render"
)

// Locator learns the public address and network of this device.
type Locator interface {
	Lookup(ctx context.Context) geolocate.Meta
}

// Output describes the result of a run.
type Output struct {
	// RunID identifies the run in logs, traces and metrics.
	RunID string
	// MeasurementPath is the JSON file holding the records.
	MeasurementPath string
	// PagePath is the HTML page of the graph.
	PagePath string
	Graph    *graph.Graph
	Set      *measurement.Set
}

// Runner performs dnstrace runs.
type Runner struct {
	config    *config.Config
	client    traceroute.Client
	locator   Locator
	metrics   metrics.Provider
	renderer  *render.Renderer
	newAPI    func(api.Config) api.API
	now       func() time.Time
	newRunID  func() string
	localAddr func(ctx context.Context, dst netip.Addr) (netip.Addr, error)
}

// Option configures a [Runner].
type Option func(*Runner)

// WithClient sets the probe transport.
func WithClient(c traceroute.Client) Option {
	return func(r *Runner) { r.client = c }
}

// WithLocator sets the geolocation source.
func WithLocator(l Locator) Option {
	return func(r *Runner) { r.locator = l }
}

// WithMetrics sets the telemetry provider.
func WithMetrics(p metrics.Provider) Option {
	return func(r *Runner) { r.metrics = p }
}

// New creates a Runner for cfg.
func New(cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{
		config:    cfg,
		client:    traceroute.NewClient(),
		locator:   geolocate.New(cfg.Geolocation),
		metrics:   metrics.New(cfg.Telemetry),
		renderer:  render.New(render.Options{Attach: cfg.Output.Attach}),
		newAPI:    api.New,
		now:       time.Now,
		newRunID:  uuid.NewString,
		localAddr: localAddr,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// start prepares the context of a run and initializes tracing.
// The returned function releases what start acquired.
func (r *Runner) start(ctx context.Context, mode string) (context.Context, string, func(), error) {
	runID := r.newRunID()
	ctx, cancel := logger.NewContextWithLogger(ctx)
	ctx = logger.IntoContext(ctx, logger.FromContext(ctx).With("run", runID, "mode", mode))
	log := logger.FromContext(ctx)

	if r.config.HasTelemetry() {
		if err := r.metrics.InitTracing(ctx); err != nil {
			cancel()
			return nil, "", nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	return ctx, runID, func() {
		if err := r.metrics.Shutdown(context.WithoutCancel(ctx)); err != nil {
			log.ErrorContext(ctx, "Failed to shut down telemetry", "error", err)
		}
		cancel()
	}, nil
}

// graphOptions returns the options shared by all built graphs. The returned
// function closes the annotator, if any.
func (r *Runner) graphOptions(ctx context.Context) ([]graph.Option, func()) {
	opts := []graph.Option{graph.WithEdgeLabel(r.config.Output.EdgeLabel)}
	if !r.config.HasAnnotation() {
		return opts, func() {}
	}

	log := logger.FromContext(ctx)
	a, err := graph.OpenASNAnnotator(r.config.Annotate.ASNDatabase)
	if err != nil {
		log.WarnContext(ctx, "Nodes are not annotated", "error", err)
		return opts, func() {}
	}
	return append(opts, graph.WithAnnotator(a)), func() {
		if err := a.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close ASN database", "error", err)
		}
	}
}

// outputPath returns the path of an output file named after the run start.
func (r *Runner) outputPath(start time.Time, ext string) string {
	return filepath.Join(r.config.Output.Directory, render.BaseName(r.config.Output.Prefix, start)+ext)
}

// localAddr returns the local address the kernel picks to reach dst.
// No packet is sent.
func localAddr(ctx context.Context, dst netip.Addr) (netip.Addr, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp4", netip.AddrPortFrom(dst, traceroute.DNSPort).String())
	if err != nil {
		return netip.Addr{}, err
	}
	defer func() { _ = conn.Close() }()

	ap, err := netip.ParseAddrPort(conn.LocalAddr().String())
	if err != nil {
		return netip.Addr{}, err
	}
	return ap.Addr().Unmap(), nil
}
