// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package measurement

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecord() *Record {
	return NewRecord(Params{
		DstAddr:    netip.MustParseAddr("8.8.4.4"),
		Annotation: "www.example.com",
		Proto:      "udp",
		Port:       53,
		Start:      time.Unix(1700000000, 0),
		SrcAddr:    "192.0.2.10",
		From:       "203.0.113.7",
		ASN:        "AS64500",
	})
}

func answered(from string, ttl int) Result {
	return Result{Kind: Answered, From: from, RTT: 1, Size: 56, TTL: ttl}
}

func TestNewRecord(t *testing.T) {
	r := newTestRecord()
	assert.Equal(t, 4, r.AF)
	assert.Equal(t, "8.8.4.4", r.DstAddr)
	assert.Equal(t, "192.0.2.10", r.SrcAddr)
	assert.Equal(t, "203.0.113.7", r.From)
	assert.Equal(t, int64(1700000000), r.Timestamp)
	assert.Equal(t, int64(-1), r.EndTime)
	assert.Equal(t, "traceroute", r.MsmName)
	assert.Empty(t, r.Result)

	defaults := NewRecord(Params{DstAddr: netip.MustParseAddr("1.0.0.1")})
	assert.Equal(t, defaultSrcAddr, defaults.SrcAddr)
	assert.Equal(t, defaultFrom, defaults.From)
}

func TestRecord_AddHop(t *testing.T) {
	r := newTestRecord()

	require.NoError(t, r.AddHop(1, answered("10.0.0.1", 254)))
	require.NoError(t, r.AddHop(1, TimeoutResult()))
	require.NoError(t, r.AddHop(2, answered("10.0.0.2", 253)))

	var outOfOrder ErrHopOutOfOrder
	err := r.AddHop(4, SkipResult())
	require.ErrorAs(t, err, &outOfOrder)
	assert.Equal(t, ErrHopOutOfOrder{Hop: 4, Len: 2}, outOfOrder)
	assert.Error(t, r.AddHop(0, SkipResult()))

	require.Len(t, r.Result, 2)
	assert.Equal(t, 1, r.Result[0].Hop)
	assert.Len(t, r.Result[0].Result, 2)
	assert.Equal(t, 2, r.Result[1].Hop)

	r.Finalize()
	assert.ErrorIs(t, r.AddHop(3, SkipResult()), ErrFinalized)
}

func TestRecord_Finalize(t *testing.T) {
	tests := []struct {
		name    string
		hops    [][]Result
		wantLen int
	}{
		{
			name: "trailing skip-only hops are cut",
			hops: [][]Result{
				{answered("10.0.0.1", 254)},
				{answered("10.0.0.2", 253)},
				{answered("8.8.4.4", 120)},
				{SkipResult()},
				{SkipResult()},
			},
			wantLen: 3,
		},
		{
			name: "timeouts are kept",
			hops: [][]Result{
				{answered("10.0.0.1", 254)},
				{TimeoutResult(), TimeoutResult()},
				{SkipResult()},
			},
			wantLen: 2,
		},
		{
			name: "skip-only hop followed by content is kept",
			hops: [][]Result{
				{SkipResult()},
				{answered("10.0.0.2", 253)},
			},
			wantLen: 2,
		},
		{
			name: "mixed hop is kept",
			hops: [][]Result{
				{answered("10.0.0.1", 254)},
				{SkipResult(), answered("8.8.4.4", 120)},
			},
			wantLen: 2,
		},
		{
			name:    "all skip",
			hops:    [][]Result{{SkipResult()}, {SkipResult(), SkipResult()}},
			wantLen: 0,
		},
		{
			name:    "empty record",
			wantLen: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRecord()
			for i, results := range tt.hops {
				for _, res := range results {
					require.NoError(t, r.AddHop(i+1, res))
				}
			}

			r.Finalize()
			assert.Len(t, r.Result, tt.wantLen)
			assert.True(t, r.Finalized())

			before := r.Result
			r.Finalize()
			assert.Equal(t, before, r.Result, "finalize must be idempotent")
		})
	}
}

func TestTruncate_EmptyHopCountsAsSkipOnly(t *testing.T) {
	hops := []Hop{
		{Hop: 1, Result: []Result{answered("10.0.0.1", 254)}},
		{Hop: 2, Result: []Result{}},
		{Hop: 3, Result: []Result{SkipResult()}},
	}
	assert.Len(t, truncate(hops), 1)
}

func TestRecord_SetEndTime(t *testing.T) {
	t.Run("public address is redacted", func(t *testing.T) {
		r := newTestRecord()
		require.NoError(t, r.AddHop(1, SkipResult()))

		r.SetEndTime(time.Unix(1700000100, 0))

		assert.Equal(t, int64(1700000100), r.EndTime)
		assert.Equal(t, RedactedAddr, r.From)
		assert.Equal(t, "192.0.2.10", r.SrcAddr)
		assert.Empty(t, r.Result)
		assert.True(t, r.Finalized())
	})

	t.Run("source equal to public address is redacted", func(t *testing.T) {
		r := NewRecord(Params{DstAddr: netip.MustParseAddr("8.8.4.4"), SrcAddr: "203.0.113.7", From: "203.0.113.7"})

		r.SetEndTime(time.Unix(1, 0))

		assert.Equal(t, RedactedAddr, r.SrcAddr)
		assert.Equal(t, RedactedAddr, r.From)
	})
}
