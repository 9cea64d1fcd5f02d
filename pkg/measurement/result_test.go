// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package measurement

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_MarshalJSON(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   string
	}{
		{
			name:   "skip sentinel",
			result: SkipResult(),
			want:   `{"x":"-"}`,
		},
		{
			name:   "timeout",
			result: TimeoutResult(),
			want:   `{"x":"*","packets":[]}`,
		},
		{
			name:   "late timeout",
			result: Result{Kind: Timeout, Late: true},
			want:   `{"x":"*","packets":[],"late":true}`,
		},
		{
			name:   "answered",
			result: Result{Kind: Answered, From: "10.0.0.1", RTT: 12.5, Size: 56, TTL: 254, Summary: "IP / ICMP"},
			want:   `{"from":"10.0.0.1","rtt":12.5,"size":56,"ttl":254,"summary":"IP / ICMP","packets":[]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.result)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestResult_MarshalJSON_UnknownKind(t *testing.T) {
	_, err := json.Marshal(Result{Kind: Kind(42)})
	assert.ErrorIs(t, err, ErrPersistenceFormat)
}

func TestResult_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Result
		wantErr bool
	}{
		{
			name:  "skip sentinel",
			input: `{"x":"-"}`,
			want:  Result{Kind: Skip},
		},
		{
			name:  "timeout with packets",
			input: `{"x":"*","packets":[{"raw":"00"}]}`,
			want:  Result{Kind: Timeout, Packets: []json.RawMessage{json.RawMessage(`{"raw":"00"}`)}},
		},
		{
			name:  "answered flagged late with any value",
			input: `{"from":"10.0.0.1","rtt":1.5,"size":70,"ttl":60,"summary":"s","late":false}`,
			want:  Result{Kind: Answered, From: "10.0.0.1", RTT: 1.5, Size: 70, TTL: 60, Summary: "s", Late: true},
		},
		{
			name:    "neither x nor from",
			input:   `{"rtt":1}`,
			wantErr: true,
		},
		{
			name:    "not an object",
			input:   `[]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Result
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
