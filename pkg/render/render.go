// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package render turns path graphs into interactive HTML pages backed by
// vis-network, and into the JSON document those pages are drawn from.
package render

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wikicensorship/dnstrace/internal/logger"
	"github.com/wikicensorship/dnstrace/pkg/graph"
)

const (
	// DefaultCDN serves the vis-network bundle when assets are not attached.
	DefaultCDN = "https://unpkg.com/vis-network@9.1.2/standalone/umd/vis-network.min.js"
	// AssetDir is where attached pages expect the vis-network files, relative to the page.
	AssetDir = "lib/vis-9.1.2"

	defaultSize       = "1500px"
	defaultBackground = "#eeeeee"
	fileTimeLayout    = "20060102-1504"
)

//go:embed page.html.tmpl
var pageTemplate string

var page = template.Must(template.New("page").Parse(pageTemplate))

// Options configures a [Renderer].
type Options struct {
	// Title of the page.
	Title string
	// Attach makes the page load vis-network from AssetDir instead of the CDN,
	// so it can be opened without network access.
	Attach bool
	// CDN overrides DefaultCDN.
	CDN string
}

// Renderer writes graph pages.
type Renderer struct {
	opts Options
}

// New creates a Renderer.
func New(opts Options) *Renderer {
	if opts.CDN == "" {
		opts.CDN = DefaultCDN
	}
	if opts.Title == "" {
		opts.Title = "dnstrace"
	}
	return &Renderer{opts: opts}
}

type pageData struct {
	Title      string
	Attach     bool
	AssetDir   string
	CDN        string
	Width      string
	Height     string
	Background template.CSS
	Document   Document
}

// Render writes the page of g to w.
func (r *Renderer) Render(w io.Writer, g *graph.Graph) error {
	return r.render(w, r.opts.Title, g)
}

func (r *Renderer) render(w io.Writer, title string, g *graph.Graph) error {
	if g == nil {
		return ErrNilGraph
	}
	return page.Execute(w, pageData{
		Title:      title,
		Attach:     r.opts.Attach,
		AssetDir:   AssetDir,
		CDN:        r.opts.CDN,
		Width:      defaultSize,
		Height:     defaultSize,
		Background: template.CSS(defaultBackground),
		Document:   NewDocument(g),
	})
}

// WriteFile renders g to path. The page is written to a temporary file next
// to path and renamed, so readers never see a partial page.
func (r *Renderer) WriteFile(ctx context.Context, path string, g *graph.Graph) (err error) {
	log := logger.FromContext(ctx).With("path", path)

	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create page: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, os.Remove(f.Name()))
		}
	}()

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if err = r.render(f, title, g); err != nil {
		return errors.Join(fmt.Errorf("failed to render page: %w", err), f.Close())
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to close page: %w", err)
	}
	if err = os.Chmod(f.Name(), 0o644); err != nil { //nolint:gosec // the page is meant to be shared
		return fmt.Errorf("failed to set page permissions: %w", err)
	}
	if err = os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("failed to move page into place: %w", err)
	}

	log.DebugContext(ctx, "Graph page written", "nodes", g.NodeCount(), "edges", g.EdgeCount())
	return nil
}

// BaseName returns the output name shared by the JSON and HTML files of a
// sweep started at t, without extension.
func BaseName(prefix string, t time.Time) string {
	name := "dns-graph-" + t.Format(fileTimeLayout)
	if prefix == "" {
		return name
	}
	return prefix + "-" + name
}

// PagePath returns the page path belonging to a measurement file.
func PagePath(measurementPath string) string {
	return strings.TrimSuffix(measurementPath, ".json") + ".html"
}
