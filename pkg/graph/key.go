// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package graph

import (
	"fmt"
	"net/netip"
)

// NodeKind is the kind of a node key.
type NodeKind int

const (
	// KindSource is the prober itself.
	KindSource NodeKind = iota
	// KindReal is a device identified by its address alone.
	KindReal
	// KindMiddlebox is a device with an anomalously low reply TTL, scoped to one stream.
	KindMiddlebox
	// KindLoss is a placeholder for a probe without reply.
	KindLoss
)

func (k NodeKind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindReal:
		return "real"
	case KindMiddlebox:
		return "middlebox"
	case KindLoss:
		return "loss"
	default:
		return "unknown"
	}
}

// Scope identifies the logical probe stream a node belongs to.
// Fields that do not apply to a key are zero.
type Scope struct {
	TTL      int
	Repeat   int
	Resolver int
	Stream   StreamKind
}

func (s Scope) String() string {
	return fmt.Sprintf("ttl=%d,repeat=%d,resolver=%d,stream=%s", s.TTL, s.Repeat, s.Resolver, s.Stream)
}

// NodeKey is the identity of a node. Keys are comparable and two keys are
// the same node iff they are equal.
type NodeKey struct {
	Kind NodeKind
	// Addr is the device address. It is unset for loss placeholders.
	Addr  netip.Addr
	Scope Scope
	// Anchor is the canonical form of the key a replayed loss follows.
	Anchor string
}

// SourceKey returns the key of the prober. An unset address stands for the
// local device of a live sweep.
func SourceKey(addr netip.Addr) NodeKey {
	return NodeKey{Kind: KindSource, Addr: addr}
}

// RealKey returns the key of a device identified by its address.
func RealKey(addr netip.Addr) NodeKey {
	return NodeKey{Kind: KindReal, Addr: addr}
}

// MiddleboxKey returns the key of a middlebox seen by one stream.
func MiddleboxKey(addr netip.Addr, scope Scope) NodeKey {
	scope.TTL = 0
	return NodeKey{Kind: KindMiddlebox, Addr: addr, Scope: scope}
}

// LossKey returns the placeholder key of a live probe without reply.
func LossKey(scope Scope) NodeKey {
	return NodeKey{Kind: KindLoss, Scope: scope}
}

// AnchoredLossKey returns the placeholder key of a replayed probe without
// reply that follows prev. Losses after the same node share one key and
// consecutive losses form a chain.
func AnchoredLossKey(prev NodeKey) NodeKey {
	return NodeKey{Kind: KindLoss, Anchor: prev.String()}
}

// String returns the canonical form of the key.
func (k NodeKey) String() string {
	switch k.Kind {
	case KindSource:
		if !k.Addr.IsValid() {
			return "source"
		}
		return "source:" + k.Addr.String()
	case KindReal:
		return "real:" + k.Addr.String()
	case KindMiddlebox:
		return fmt.Sprintf("middlebox:%s[repeat=%d,resolver=%d,stream=%s]", k.Addr, k.Scope.Repeat, k.Scope.Resolver, k.Scope.Stream)
	case KindLoss:
		if k.Anchor != "" {
			return "loss<" + k.Anchor + ">"
		}
		return "loss[" + k.Scope.String() + "]"
	default:
		return "unknown"
	}
}
