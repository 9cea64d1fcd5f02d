// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package graph

import (
	"net/netip"
	"time"
)

// Mode selects how probes without reply are scoped.
type Mode int

const (
	// Live scopes a loss to its (ttl, repeat, resolver, stream).
	Live Mode = iota
	// Replay anchors a loss to the node that precedes it.
	Replay
)

func (m Mode) String() string {
	if m == Replay {
		return "replay"
	}
	return "live"
}

// StreamKind tells the control stream from the test stream.
type StreamKind int

const (
	// Control streams query a domain known to be accessible.
	Control StreamKind = iota
	// Test streams query the domain suspected to be blocked.
	Test
)

func (s StreamKind) String() string {
	if s == Test {
		return "test"
	}
	return "control"
}

// ProbeContext describes the probe an outcome belongs to.
type ProbeContext struct {
	// Resolver is the index of the resolver in the sweep.
	Resolver int
	Stream   StreamKind
	// Repeat is the 0-based index of the sweep repetition.
	Repeat int
	TTL    int
	// Destination is the resolver address of the stream.
	Destination netip.Addr
	// Annotation is the queried domain.
	Annotation string
}

func (pc ProbeContext) scope() Scope {
	return Scope{TTL: pc.TTL, Repeat: pc.Repeat, Resolver: pc.Resolver, Stream: pc.Stream}
}

// Outcome is the reply to a probe, if any.
type Outcome struct {
	Answered bool
	// Addr is the replying device.
	Addr netip.Addr
	// TTL is the IP TTL observed in the reply.
	TTL  int
	RTT  time.Duration
	Size int
	// Summary describes the reply.
	Summary string
}

// Timeout is the outcome of a probe without reply.
var Timeout = Outcome{}
