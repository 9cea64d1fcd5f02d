// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package measurement models the persisted traceroute records of a sweep.
//
// A [Record] holds the hops of one probe stream (one resolver queried for one
// domain). Each hop keeps one [Result] per repeat. Records are owned by the
// probe loop until [Record.Finalize] is called and are immutable afterwards.
// A [Set] is the ordered list of records written to and read from disk as a
// JSON array.
package measurement

import (
	"net/netip"
	"time"
)

// RedactedAddr replaces the public address of the prober in finalized records.
const RedactedAddr = "127.1.2.7"

// Record field defaults for values the prober does not know.
const (
	defaultSrcAddr = "127.0.0.2"
	defaultFrom    = "127.0.0.1"
	defaultMsmName = "traceroute"
	unset          = -1
)

// Hop holds the results of all repeats for one TTL.
type Hop struct {
	Hop    int      `json:"hop"`
	Result []Result `json:"result"`
}

// skipOnly reports whether the hop carries nothing but skip sentinels.
// An empty hop is skip-only.
func (h Hop) skipOnly() bool {
	for _, r := range h.Result {
		if !r.IsSkip() {
			return false
		}
	}
	return true
}

// Record is one traceroute measurement of a single probe stream.
type Record struct {
	AF         int     `json:"af"`
	DstAddr    string  `json:"dst_addr"`
	DstName    string  `json:"dst_name"`
	Annotation string  `json:"annotation"`
	EndTime    int64   `json:"endtime"`
	From       string  `json:"from"`
	LTS        int     `json:"lts"`
	MsmID      int     `json:"msm_id"`
	MsmName    string  `json:"msm_name"`
	ParisID    int     `json:"paris_id"`
	PrbID      int     `json:"prb_id"`
	Proto      string  `json:"proto"`
	Port       int     `json:"port"`
	Result     []Hop   `json:"result"`
	Size       int     `json:"size"`
	SrcAddr    string  `json:"src_addr"`
	Timestamp  int64   `json:"timestamp"`
	TTR        float64 `json:"ttr"`
	ASN        string  `json:"asn"`
	ASName     string  `json:"asname"`
	CC         string  `json:"cc"`

	finalized bool
}

// Params are the known facts about a record at the start of a measurement.
type Params struct {
	// DstAddr is the resolver address.
	DstAddr netip.Addr
	// Annotation is the queried domain.
	Annotation string
	// Proto is the transport protocol of the probes.
	Proto string
	// Port is the destination port of the probes.
	Port int
	// Start is the time the measurement started.
	Start time.Time
	// SrcAddr is the local address of the prober. Empty keeps the default.
	SrcAddr string
	// From is the public address of the prober. Empty keeps the default.
	From string
	// ASN, ASName and CC describe the network of the prober.
	ASN    string
	ASName string
	CC     string
}

// NewRecord returns an empty record for a measurement described by p.
func NewRecord(p Params) *Record {
	r := &Record{
		AF:         4,
		DstAddr:    p.DstAddr.String(),
		Annotation: p.Annotation,
		EndTime:    unset,
		From:       defaultFrom,
		LTS:        unset,
		MsmID:      unset,
		MsmName:    defaultMsmName,
		ParisID:    unset,
		PrbID:      unset,
		Proto:      p.Proto,
		Port:       p.Port,
		Result:     []Hop{},
		Size:       unset,
		SrcAddr:    defaultSrcAddr,
		Timestamp:  p.Start.Unix(),
		TTR:        unset,
		ASN:        p.ASN,
		ASName:     p.ASName,
		CC:         p.CC,
	}
	if p.SrcAddr != "" {
		r.SrcAddr = p.SrcAddr
	}
	if p.From != "" {
		r.From = p.From
	}
	return r
}

// AddHop appends a result to the given 1-based hop.
// A hop is created when hop is one past the last hop. Any hop beyond that is rejected.
func (r *Record) AddHop(hop int, res Result) error {
	if r.finalized {
		return ErrFinalized
	}
	if hop < 1 || hop > len(r.Result)+1 {
		return ErrHopOutOfOrder{Hop: hop, Len: len(r.Result)}
	}
	if hop == len(r.Result)+1 {
		r.Result = append(r.Result, Hop{Hop: hop, Result: []Result{}})
	}
	r.Result[hop-1].Result = append(r.Result[hop-1].Result, res)
	return nil
}

// Finalize drops the trailing hops that hold nothing but skip sentinels and
// marks the record immutable. Calling it again has no effect.
func (r *Record) Finalize() {
	if r.finalized {
		return
	}
	r.Result = truncate(r.Result)
	r.finalized = true
}

// truncate cuts hops at the first index from which every remaining hop is skip-only.
func truncate(hops []Hop) []Hop {
	cut := len(hops)
	for cut > 0 && hops[cut-1].skipOnly() {
		cut--
	}
	return hops[:cut]
}

// SetEndTime records the end of the measurement, finalizes the record and
// redacts the public address of the prober.
func (r *Record) SetEndTime(end time.Time) {
	r.Finalize()
	r.EndTime = end.Unix()
	if r.SrcAddr == r.From {
		r.SrcAddr = RedactedAddr
	}
	r.From = RedactedAddr
}

// Finalized reports whether the record is immutable.
func (r *Record) Finalized() bool {
	return r.finalized
}

// Destination returns the parsed destination address.
func (r *Record) Destination() (netip.Addr, error) {
	return parseIPv4(r.DstAddr)
}
