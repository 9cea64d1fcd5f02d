// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package measurement

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validRecord = `{
	"af": 4, "dst_addr": "8.8.4.4", "dst_name": "", "annotation": "www.example.com",
	"endtime": 1700000100, "from": "127.1.2.7", "lts": -1, "msm_id": -1,
	"msm_name": "traceroute", "paris_id": -1, "prb_id": -1, "proto": "udp", "port": 53,
	"result": [
		{"hop": 1, "result": [
			{"from": "10.0.0.1", "rtt": 1.2, "size": 84, "ttl": 254, "summary": "IP / ICMP", "packets": []},
			{"x": "*", "packets": []},
			{"x": "-"}
		]}
	],
	"size": -1, "src_addr": "192.0.2.10", "timestamp": 1700000000, "ttr": -1,
	"asn": "AS64500", "asname": "Example", "cc": "DE"
}`

func TestLoad(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantRecords  int
		wantRejected int
		wantErr      error
	}{
		{
			name:        "single valid record",
			input:       "[" + validRecord + "]",
			wantRecords: 1,
		},
		{
			name:        "empty array",
			input:       "[]",
			wantRecords: 0,
		},
		{
			name:         "record without result is quarantined",
			input:        `[` + validRecord + `, {"dst_addr": "1.0.0.1", "src_addr": "192.0.2.10"}]`,
			wantRecords:  1,
			wantRejected: 1,
		},
		{
			name:         "record with malformed destination is quarantined",
			input:        `[{"dst_addr": "not-an-ip", "src_addr": "192.0.2.10", "result": []}]`,
			wantRejected: 1,
		},
		{
			name:         "result of unknown shape is quarantined",
			input:        `[{"dst_addr": "1.0.0.1", "src_addr": "192.0.2.10", "result": [{"hop": 1, "result": [{"rtt": 3}]}]}]`,
			wantRejected: 1,
		},
		{
			name:         "zero hop is quarantined",
			input:        `[{"dst_addr": "1.0.0.1", "src_addr": "192.0.2.10", "result": [{"hop": 0, "result": []}]}]`,
			wantRejected: 1,
		},
		{
			name:         "answer from IPv6 address is quarantined",
			input:        `[{"dst_addr": "1.0.0.1", "src_addr": "192.0.2.10", "result": [{"hop": 1, "result": [{"from": "2001:db8::1", "ttl": 60}]}]}]`,
			wantRejected: 1,
		},
		{
			name:    "not an array",
			input:   `{"dst_addr": "1.0.0.1"}`,
			wantErr: ErrUnparseable,
		},
		{
			name:    "not json",
			input:   `traceroute`,
			wantErr: ErrUnparseable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := Load(t.Context(), strings.NewReader(tt.input))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, set.Records, tt.wantRecords)
			assert.Len(t, set.Rejected, tt.wantRejected)
			for _, rej := range set.Rejected {
				assert.Error(t, rej)
			}
			for _, rec := range set.Records {
				assert.True(t, rec.Finalized(), "loaded records are immutable")
			}
		})
	}
}

func TestLoad_DecodesVariants(t *testing.T) {
	set, err := Load(t.Context(), strings.NewReader("["+validRecord+"]"))
	require.NoError(t, err)
	require.Len(t, set.Records, 1)

	rec := set.Records[0]
	assert.Equal(t, "192.0.2.10", set.SourceAddr())
	require.Len(t, rec.Result, 1)
	kinds := []Kind{}
	for _, r := range rec.Result[0].Result {
		kinds = append(kinds, r.Kind)
	}
	assert.Equal(t, []Kind{Answered, Timeout, Skip}, kinds)
	assert.Equal(t, 254, rec.Result[0].Result[0].TTL)
}

func TestSet_RoundTrip(t *testing.T) {
	set := &Set{}
	for _, resolver := range []string{"8.8.4.4", "1.0.0.1"} {
		r := newTestRecord()
		r.DstAddr = resolver
		require.NoError(t, r.AddHop(1, answered("10.0.0.1", 254)))
		require.NoError(t, r.AddHop(1, TimeoutResult()))
		require.NoError(t, r.AddHop(2, Result{Kind: Answered, From: resolver, RTT: 20.25, Size: 76, TTL: 118, Summary: "IP / UDP / DNS Ans", Late: true}))
		require.NoError(t, r.AddHop(2, answered(resolver, 118)))
		require.NoError(t, r.AddHop(3, SkipResult()))
		r.SetEndTime(time.Unix(1700000100, 0))
		set.Add(r)
	}

	var buf bytes.Buffer
	require.NoError(t, set.Save(&buf))

	loaded, err := Load(t.Context(), &buf)
	require.NoError(t, err)
	assert.Empty(t, loaded.Rejected)

	if diff := cmp.Diff(set.Records, loaded.Records, cmpopts.IgnoreUnexported(Record{}), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSet_SaveFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dns-graph.json")
	set := &Set{}
	set.Add(newTestRecord())

	require.NoError(t, set.SaveFile(path))
	loaded, err := LoadFile(t.Context(), path)
	require.NoError(t, err)
	assert.Len(t, loaded.Records, 1)

	_, err = LoadFile(t.Context(), filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestSet_SaveEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&Set{}).Save(&buf))
	assert.JSONEq(t, "[]", buf.String())
	assert.Empty(t, (&Set{}).SourceAddr())
}
