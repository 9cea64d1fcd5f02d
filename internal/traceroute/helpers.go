// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/rbmk-project/common/errclass"
	"github.com/wikicensorship/dnstrace/internal/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// basePort is the lowest local port a probe is sent from
	basePort = 30000
	// portRange is the range of ports to generate a random port from
	portRange = 10000
)

// randomPort returns a random port in the interval [30000, 40000)
func randomPort() int {
	return rand.N(portRange) + basePort // #nosec G404 // math.rand is fine here, we're not doing encryption
}

// wrapError wraps err with the formatted message, logs it with the probe it
// belongs to and marks the current OpenTelemetry span as failed.
func wrapError(ctx context.Context, req Request, err error, msg string, args ...any) error {
	if err == nil {
		return nil
	}
	log := logger.FromContext(ctx)
	span := trace.SpanFromContext(ctx)
	caser := cases.Title(language.English)
	wrapped := fmt.Sprintf(msg, args...)

	log.ErrorContext(ctx, caser.String(wrapped),
		"resolver", req.Resolver, "ttl", req.TTL, "query", req.Query,
		"error", err, "errClass", errclass.New(err),
	)
	span.SetStatus(codes.Error, wrapped)
	span.RecordError(err, trace.WithAttributes(
		attribute.String("traceroute.error.class", errclass.New(err)),
		attribute.Int("traceroute.ttl", req.TTL),
	))
	return fmt.Errorf("%s (ttl %d): %w", wrapped, req.TTL, err)
}
