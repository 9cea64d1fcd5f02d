// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"
)

var (
	_ net.Conn        = (*fakeConn)(nil)
	_ syscall.RawConn = (*fakeRawConn)(nil)
)

// fakeConn implements [net.Conn] with no-op methods.
type fakeConn struct {
	writeErr error
	written  []byte
}

func (f *fakeConn) Read(b []byte) (int, error) { return 0, nil }
func (f *fakeConn) Write(b []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.written = append(f.written, b...)
	return len(b), nil
}
func (f *fakeConn) Close() error                       { return nil }
func (f *fakeConn) LocalAddr() net.Addr                { return &net.UDPAddr{} }
func (f *fakeConn) RemoteAddr() net.Addr               { return &net.UDPAddr{} }
func (f *fakeConn) SetDeadline(t time.Time) error      { return nil }
func (f *fakeConn) SetReadDeadline(t time.Time) error  { return nil }
func (f *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

// fakeRawConn implements [syscall.RawConn] for testing.
// It calls the read callback until it returns true, or fails with a deadline
// error once the callback asks to wait.
type fakeRawConn struct{}

func (f *fakeRawConn) Read(fn func(fd uintptr) bool) error {
	if fn(0) {
		return nil
	}
	return os.ErrDeadlineExceeded
}
func (f *fakeRawConn) Control(fn func(fd uintptr)) error    { return nil }
func (f *fakeRawConn) Write(fn func(fd uintptr) bool) error { return nil }

// queue is a scripted pair of socket queues served by a stubbed recvMsg.
type queue struct {
	errQueue []recvResult
	regular  []recvResult
}

type recvResult struct {
	msg *socketMsg
	err error
}

func (q *queue) recv(_ uintptr, _, _ []byte, flags int) (*socketMsg, error) {
	next := &q.regular
	if flags&unix.MSG_ERRQUEUE != 0 {
		next = &q.errQueue
	}
	if len(*next) == 0 {
		return nil, unix.EAGAIN
	}
	r := (*next)[0]
	*next = (*next)[1:]
	return r.msg, r.err
}

func newTestClient(conn *fakeConn, dialErr error) *dnsClient {
	return &dnsClient{
		dialUDP: func(_ context.Context, _ netip.AddrPort, _ int) (*probeConn, error) {
			if dialErr != nil {
				return nil, dialErr
			}
			return &probeConn{Conn: conn, rawConn: &fakeRawConn{}, port: 31337}, nil
		},
		newID: func() uint16 { return 4242 },
	}
}

func TestDNSClient_Probe(t *testing.T) {
	resolver := netip.MustParseAddr("8.8.4.4")
	router := netip.MustParseAddr("10.0.0.1")
	answer := newDNSAnswer(t, 4242, "www.example.com.", "93.184.216.34")
	unrelated := newDNSAnswer(t, 1, "www.example.com.", "10.10.34.34")
	timeExceeded := &socketMsg{
		from: resolver,
		data: make([]byte, 8),
		oob: concat(
			newExtendedErrOOB(unix.SO_EE_ORIGIN_ICMP, uint8(ipv4.ICMPTypeTimeExceeded), 0, router),
			newTTLControlMessage(253),
		),
	}

	tests := []struct {
		name       string
		queue      *queue
		dialErr    error
		writeErr   error
		wantStatus Status
		wantAddr   netip.Addr
		wantTTL    int
		wantErr    bool
	}{
		{
			name:       "icmp time exceeded from the error queue",
			queue:      &queue{errQueue: []recvResult{{msg: timeExceeded}}},
			wantStatus: StatusICMP,
			wantAddr:   router,
			wantTTL:    253,
		},
		{
			name:       "dns answer",
			queue:      &queue{regular: []recvResult{{msg: &socketMsg{from: resolver, data: answer, oob: newTTLControlMessage(119)}}}},
			wantStatus: StatusAnswer,
			wantAddr:   resolver,
			wantTTL:    119,
		},
		{
			name: "pending socket error falls back to the error queue",
			queue: &queue{
				regular:  []recvResult{{err: unix.EHOSTUNREACH}},
				errQueue: []recvResult{{err: unix.EAGAIN}, {msg: timeExceeded}},
			},
			wantStatus: StatusICMP,
			wantAddr:   router,
			wantTTL:    253,
		},
		{
			name: "unrelated answer is skipped",
			queue: &queue{regular: []recvResult{
				{msg: &socketMsg{from: resolver, data: unrelated, oob: newTTLControlMessage(5)}},
				{msg: &socketMsg{from: resolver, data: answer, oob: newTTLControlMessage(119)}},
			}},
			wantStatus: StatusAnswer,
			wantAddr:   resolver,
			wantTTL:    119,
		},
		{
			name:       "nothing arrives",
			queue:      &queue{},
			wantStatus: StatusTimeout,
		},
		{
			name:    "error queue read fails",
			queue:   &queue{errQueue: []recvResult{{err: unix.EBADF}}},
			wantErr: true,
		},
		{
			name:    "dial fails",
			queue:   &queue{},
			dialErr: errors.New("no socket for you"),
			wantErr: true,
		},
		{
			name:     "write fails",
			queue:    &queue{},
			writeErr: unix.ENETUNREACH,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origRecv := recvMsg
			defer func() { recvMsg = origRecv }()
			recvMsg = tt.queue.recv

			conn := &fakeConn{writeErr: tt.writeErr}
			c := newTestClient(conn, tt.dialErr)

			resp, err := c.Probe(t.Context(), Request{Resolver: resolver, TTL: 3, Query: "www.example.com"}, Options{Timeout: 100 * time.Millisecond})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, tt.wantAddr, resp.Addr)
			assert.Equal(t, tt.wantTTL, resp.TTL)
			assert.NotEmpty(t, conn.written, "query should have been written")
		})
	}
}

func TestDNSClient_Probe_InvalidRequest(t *testing.T) {
	c := newTestClient(&fakeConn{}, nil)
	_, err := c.Probe(t.Context(), Request{TTL: 1, Query: "www.example.com"}, Options{})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestProbeConn_read_Canceled(t *testing.T) {
	origRecv := recvMsg
	defer func() { recvMsg = origRecv }()
	recvMsg = (&queue{}).recv

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	pc := &probeConn{Conn: &fakeConn{}, rawConn: &fakeRawConn{}}
	_, err := pc.read(ctx, 1, time.Now().Add(time.Second))
	assert.ErrorIs(t, err, context.Canceled)
}
