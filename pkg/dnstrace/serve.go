// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package dnstrace

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wikicensorship/dnstrace/internal/logger"
	"github.com/wikicensorship/dnstrace/pkg/api"
	"github.com/wikicensorship/dnstrace/pkg/dnstrace/metrics"
	"github.com/wikicensorship/dnstrace/pkg/graph"
	"github.com/wikicensorship/dnstrace/pkg/measurement"
	"github.com/wikicensorship/dnstrace/pkg/render"
)

const shutdownTimeout = 30 * time.Second

// Serve replays the measurement file at path and serves its graph until ctx
// is done. It always returns a non-nil error, [ErrFinalShutdown] after a
// clean shutdown.
func (r *Runner) Serve(ctx context.Context, path string) error {
	ctx, runID, done, err := r.start(ctx, "serve")
	if err != nil {
		return err
	}
	defer done()
	log := logger.FromContext(ctx)

	g, set, err := r.replay(ctx, path)
	if err != nil {
		return err
	}

	stats, err := metrics.NewSweep(r.metrics.GetRegistry())
	if err != nil {
		return fmt.Errorf("failed to register graph metrics: %w", err)
	}
	stats.SetGraphSize(g.NodeCount(), g.EdgeCount())
	if err := metrics.RegisterRunInfo(r.metrics.GetRegistry(), runID, "serve", nil); err != nil {
		return fmt.Errorf("failed to register run info: %w", err)
	}

	routes, err := r.routes(ctx, g, set)
	if err != nil {
		return err
	}

	server := r.newAPI(r.config.Api)
	if err := server.RegisterRoutes(ctx, routes...); err != nil {
		return fmt.Errorf("failed to register routes: %w", err)
	}

	runErr := server.Run(ctx)
	if runErr != nil && ctx.Err() == nil {
		log.ErrorContext(ctx, "Server failed", "error", runErr)
	}

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	var sErrs ErrShutdown
	sErrs.errAPI = server.Shutdown(sctx)
	sErrs.errMetrics = r.metrics.WriteFile(sctx)
	if sErrs.HasError() {
		log.ErrorContext(ctx, "Failed to shutdown gracefully", "contextError", ctx.Err(), "errors", sErrs)
		return errors.Join(ErrFinalShutdown, sErrs)
	}
	if ctx.Err() == nil {
		return errors.Join(ErrFinalShutdown, runErr)
	}
	log.InfoContext(ctx, "Server was shut down")
	return ErrFinalShutdown
}

// routes returns the handlers serving the graph g of set.
func (r *Runner) routes(ctx context.Context, g *graph.Graph, set *measurement.Set) ([]api.Route, error) {
	var page bytes.Buffer
	if err := r.renderer.Render(&page, g); err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}
	doc := render.NewDocument(g)

	graphSchema, err := openapi3gen.NewSchemaRefForValue(render.Document{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate graph schema: %w", err)
	}
	description, err := api.OpenAPI(ctx,
		api.JSONRoute{Path: "/graph", Description: "Nodes and edges of the graph", Schema: graphSchema},
		api.JSONRoute{
			Path:        "/measurement",
			Description: "Records the graph was built from",
			Schema:      openapi3.NewArraySchema().WithItems(measurement.Schema()).NewRef(),
		},
	)
	if err != nil {
		return nil, err
	}

	return []api.Route{
		{Path: "/", Method: http.MethodGet, Handler: func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write(page.Bytes())
		}},
		{Path: "/graph", Method: http.MethodGet, Handler: func(w http.ResponseWriter, req *http.Request) {
			api.WriteJSON(w, req, doc)
		}},
		{Path: "/measurement", Method: http.MethodGet, Handler: func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := set.Save(w); err != nil {
				logger.FromContext(req.Context()).ErrorContext(req.Context(), "Failed to write measurement", "error", err)
			}
		}},
		{Path: "/metrics", Method: http.MethodGet, Handler: promhttp.HandlerFor(
			r.metrics.GetRegistry(),
			promhttp.HandlerOpts{Registry: r.metrics.GetRegistry()},
		).ServeHTTP},
		{Path: "/openapi", Method: http.MethodGet, Handler: api.OpenAPIHandler(description)},
	}, nil
}
