// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package graph

import (
	"net/netip"

	"github.com/wikicensorship/dnstrace/pkg/classify"
)

// Resolution is the identity and class of a probe outcome.
type Resolution struct {
	Key   NodeKey
	Class classify.DeviceClass
	// BackHops is the estimated distance of the device. It is only set for answered probes.
	BackHops int
}

// Resolve maps a probe outcome to the key of its node.
// prev is the key of the previous node of the same stream.
func Resolve(mode Mode, o Outcome, pc ProbeContext, prev NodeKey) Resolution {
	if !o.Answered {
		if mode == Replay {
			return Resolution{Key: AnchoredLossKey(prev), Class: classify.Unknown}
		}
		return Resolution{Key: LossKey(pc.scope()), Class: classify.Unknown}
	}

	class, backHops := classify.Classify(o.TTL, pc.TTL)
	key := RealKey(o.Addr)
	if class == classify.Middlebox {
		key = MiddleboxKey(o.Addr, pc.scope())
	}
	return Resolution{Key: key, Class: class, BackHops: backHops}
}

// Reached reports whether a stream whose last node is prev already reached dst.
// Once it did, further probes of the stream add nothing to the graph.
func Reached(prev NodeKey, dst netip.Addr) bool {
	if !dst.IsValid() {
		return false
	}
	switch prev.Kind {
	case KindReal, KindMiddlebox:
		return prev.Addr == dst
	default:
		return false
	}
}
