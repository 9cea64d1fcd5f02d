// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
)

var (
	_ Client = (*dnsClient)(nil)
)

// Client is able to send TTL-limited DNS probes.
//
//go:generate go tool moq -out client_moq.go . Client
type Client interface {
	// Probe sends a single DNS query with the TTL of the request and waits for
	// the first reply. A probe without reply is not an error: it returns a
	// [Response] with [StatusTimeout].
	Probe(ctx context.Context, req Request, opts Options) (Response, error)
}

// NewClient returns the default [Client] using unprivileged UDP sockets.
func NewClient() Client {
	return newDNSClient()
}
