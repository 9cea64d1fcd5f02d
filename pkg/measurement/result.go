// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package measurement

import (
	"encoding/json"
	"fmt"
)

// Kind is the variant of a single probe result.
type Kind int

const (
	// Skip marks a probe that was not sent because its stream already
	// reached the destination. It is persisted as {"x":"-"}.
	Skip Kind = iota
	// Timeout marks a probe without any reply. It is persisted as {"x":"*"}.
	Timeout
	// Answered marks a probe that received a reply.
	Answered
)

func (k Kind) String() string {
	switch k {
	case Skip:
		return "skip"
	case Timeout:
		return "timeout"
	case Answered:
		return "answered"
	default:
		return "unknown"
	}
}

const (
	skipMarker    = "-"
	timeoutMarker = "*"
)

// Result is the outcome of one probe of a hop.
type Result struct {
	Kind Kind
	// From is the address of the replying device.
	From string
	// RTT is the round trip time in milliseconds.
	RTT float64
	// Size is the reply size in bytes.
	Size int
	// TTL is the IP TTL of the reply.
	TTL int
	// Summary describes the reply.
	Summary string
	// Packets holds the raw packet descriptions attached to the result.
	Packets []json.RawMessage
	// Late marks a reply that arrived after the probe of the next repeat was
	// sent. The result that follows it in the same hop is its duplicate.
	Late bool
}

// SkipResult returns the sentinel for a probe that contributed nothing new.
func SkipResult() Result {
	return Result{Kind: Skip}
}

// TimeoutResult returns a result for a probe without reply.
func TimeoutResult() Result {
	return Result{Kind: Timeout, Packets: []json.RawMessage{}}
}

// IsSkip reports whether the result is the skip sentinel.
func (r Result) IsSkip() bool {
	return r.Kind == Skip
}

type wireResult struct {
	X       *string           `json:"x,omitempty"`
	From    string            `json:"from,omitempty"`
	RTT     *float64          `json:"rtt,omitempty"`
	Size    int               `json:"size,omitempty"`
	TTL     int               `json:"ttl,omitempty"`
	Summary string            `json:"summary,omitempty"`
	Packets []json.RawMessage `json:"packets,omitempty"`
	Late    json.RawMessage   `json:"late,omitempty"`
}

// MarshalJSON encodes the result in its persisted variant.
func (r Result) MarshalJSON() ([]byte, error) {
	var late json.RawMessage
	if r.Late {
		late = json.RawMessage("true")
	}
	packets := r.Packets
	if packets == nil {
		packets = []json.RawMessage{}
	}

	switch r.Kind {
	case Skip:
		return json.Marshal(struct {
			X string `json:"x"`
		}{X: skipMarker})
	case Timeout:
		return json.Marshal(struct {
			X       string            `json:"x"`
			Packets []json.RawMessage `json:"packets"`
			Late    json.RawMessage   `json:"late,omitempty"`
		}{X: timeoutMarker, Packets: packets, Late: late})
	case Answered:
		return json.Marshal(struct {
			From    string            `json:"from"`
			RTT     float64           `json:"rtt"`
			Size    int               `json:"size"`
			TTL     int               `json:"ttl"`
			Summary string            `json:"summary"`
			Packets []json.RawMessage `json:"packets"`
			Late    json.RawMessage   `json:"late,omitempty"`
		}{From: r.From, RTT: r.RTT, Size: r.Size, TTL: r.TTL, Summary: r.Summary, Packets: packets, Late: late})
	default:
		return nil, fmt.Errorf("%w: unknown result kind %d", ErrPersistenceFormat, r.Kind)
	}
}

// UnmarshalJSON decodes any persisted result variant.
// The presence of a "late" key marks the result as late whatever its value.
func (r *Result) UnmarshalJSON(data []byte) error {
	var w wireResult
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	res := Result{Late: len(w.Late) > 0, Packets: w.Packets}
	switch {
	case w.X != nil && *w.X == skipMarker:
		res = Result{Kind: Skip}
	case w.X != nil:
		res.Kind = Timeout
	case w.From != "":
		res.Kind = Answered
		res.From = w.From
		res.Size = w.Size
		res.TTL = w.TTL
		res.Summary = w.Summary
		if w.RTT != nil {
			res.RTT = *w.RTT
		}
	default:
		return fmt.Errorf("%w: result has neither \"x\" nor \"from\"", ErrPersistenceFormat)
	}

	*r = res
	return nil
}
