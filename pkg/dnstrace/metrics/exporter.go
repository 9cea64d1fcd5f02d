// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc/credentials"
)

// Exporter selects where traces go.
type Exporter string

const (
	// HTTP exports traces to an otlp collector over http
	HTTP Exporter = "http"
	// GRPC exports traces to an otlp collector over grpc
	GRPC Exporter = "grpc"
	// STDOUT writes traces to stdout
	STDOUT Exporter = "stdout"
	// NOOP drops all traces
	NOOP Exporter = "noop"
)

// ErrUnsupportedExporter is returned for an unknown exporter.
var ErrUnsupportedExporter = errors.New("unsupported exporter")

// String returns the exporter name.
func (e Exporter) String() string {
	return string(e)
}

// Validate checks that the exporter is known. The empty exporter is treated as NOOP.
func (e Exporter) Validate() error {
	switch e {
	case HTTP, GRPC, STDOUT, NOOP, "":
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedExporter, string(e))
	}
}

// IsExporting reports whether the exporter sends traces to a collector.
func (e Exporter) IsExporting() bool {
	return e == HTTP || e == GRPC
}

// Create builds the span exporter described by config.
func (e Exporter) Create(ctx context.Context, config *Config) (sdktrace.SpanExporter, error) {
	switch e {
	case HTTP:
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpointURL(config.Url)}
		if config.Token != "" {
			opts = append(opts, otlptracehttp.WithHeaders(authHeader(config.Token)))
		}
		if config.TLS.Enabled {
			tlsCfg, err := tlsConfig(config.TLS.CertPath)
			if err != nil {
				return nil, err
			}
			opts = append(opts, otlptracehttp.WithTLSClientConfig(tlsCfg))
		} else {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	case GRPC:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpointURL(config.Url)}
		if config.Token != "" {
			opts = append(opts, otlptracegrpc.WithHeaders(authHeader(config.Token)))
		}
		if config.TLS.Enabled {
			tlsCfg, err := tlsConfig(config.TLS.CertPath)
			if err != nil {
				return nil, err
			}
			opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewTLS(tlsCfg)))
		} else {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.New(ctx, opts...)
	case STDOUT:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case NOOP, "":
		return &noopExporter{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExporter, string(e))
	}
}

func authHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// tlsConfig trusts the system pool and, when given, the certificate at certPath.
func tlsConfig(certPath string) (*tls.Config, error) {
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	if certPath != "" {
		pem, err := os.ReadFile(certPath) //#nosec G304 // path is operator configuration
		if err != nil {
			return nil, fmt.Errorf("failed to read certificate: %w", err)
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificate found in %s", certPath)
		}
	}
	return &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

var _ sdktrace.SpanExporter = (*noopExporter)(nil)

type noopExporter struct{}

func (*noopExporter) ExportSpans(context.Context, []sdktrace.ReadOnlySpan) error { return nil }
func (*noopExporter) Shutdown(context.Context) error                             { return nil }
