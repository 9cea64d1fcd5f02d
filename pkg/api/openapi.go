// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/wikicensorship/dnstrace/internal/logger"
	"github.com/wikicensorship/dnstrace/pkg"
)

// JSONRoute documents a route answering with JSON.
type JSONRoute struct {
	Path        string
	Description string
	Schema      *openapi3.SchemaRef
}

// OpenAPI builds the document describing the given JSON routes.
func OpenAPI(ctx context.Context, routes ...JSONRoute) (*openapi3.T, error) {
	doc := &openapi3.T{
		OpenAPI: "3.0.0",
		Info: &openapi3.Info{
			Title:       "dnstrace",
			Description: "Differential DNS traceroute graphs",
			Version:     pkg.Version,
		},
		Paths: openapi3.NewPaths(),
	}

	for _, r := range routes {
		if r.Schema == nil || r.Schema.Value == nil {
			return nil, ErrCreateOpenapiSchema{name: r.Path, err: errNoSchema}
		}
		op := openapi3.NewOperation()
		op.Description = r.Description
		op.AddResponse(http.StatusOK, openapi3.NewResponse().
			WithDescription(r.Description).
			WithJSONSchemaRef(r.Schema))
		doc.AddOperation(r.Path, http.MethodGet, op)
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, ErrCreateOpenapiSchema{name: "document", err: err}
	}
	return doc, nil
}

// OpenAPIHandler serves the document as JSON.
func OpenAPIHandler(doc *openapi3.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, r, doc)
	}
}

// WriteJSON writes v with status 200.
func WriteJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to encode response", "error", err)
	}
}
