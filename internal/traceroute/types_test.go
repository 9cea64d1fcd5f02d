// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRequest_Validate(t *testing.T) {
	valid := Request{Resolver: netip.MustParseAddr("8.8.4.4"), TTL: 1, Query: "www.example.com"}

	tests := []struct {
		name    string
		mutate  func(r *Request)
		wantErr bool
	}{
		{name: "valid request", mutate: func(*Request) {}},
		{name: "mapped IPv4 resolver", mutate: func(r *Request) { r.Resolver = netip.MustParseAddr("::ffff:1.0.0.1") }},
		{name: "missing resolver", mutate: func(r *Request) { r.Resolver = netip.Addr{} }, wantErr: true},
		{name: "IPv6 resolver", mutate: func(r *Request) { r.Resolver = netip.MustParseAddr("2001:4860:4860::8844") }, wantErr: true},
		{name: "zero ttl", mutate: func(r *Request) { r.TTL = 0 }, wantErr: true},
		{name: "ttl too high", mutate: func(r *Request) { r.TTL = 256 }, wantErr: true},
		{name: "negative port", mutate: func(r *Request) { r.Port = -1 }, wantErr: true},
		{name: "empty query", mutate: func(r *Request) { r.Query = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := req.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRequest)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRequest_addrPort(t *testing.T) {
	req := Request{Resolver: netip.MustParseAddr("9.9.9.9")}
	assert.Equal(t, netip.MustParseAddrPort("9.9.9.9:53"), req.addrPort())

	req.Port = 5353
	assert.Equal(t, netip.MustParseAddrPort("9.9.9.9:5353"), req.addrPort())
}

func TestOptions_timeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, Options{}.timeout())
	assert.Equal(t, 2*time.Second, Options{Timeout: 2 * time.Second}.timeout())
}

func TestResponse(t *testing.T) {
	assert.False(t, Response{}.Answered())
	assert.Equal(t, "*", Response{}.String())

	resp := Response{Status: StatusICMP, Addr: netip.MustParseAddr("10.0.0.1"), TTL: 254, RTT: time.Millisecond, Summary: "x"}
	assert.True(t, resp.Answered())
	assert.Equal(t, "10.0.0.1 ttl=254 1ms x", resp.String())
	assert.Equal(t, "icmp", StatusICMP.String())
	assert.Equal(t, "answer", StatusAnswer.String())
	assert.Equal(t, "timeout", StatusTimeout.String())
}
