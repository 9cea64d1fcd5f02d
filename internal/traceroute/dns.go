// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"syscall"
	"time"

	"github.com/miekg/dns"
	"github.com/wikicensorship/dnstrace/internal/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sys/unix"
)

// probeConn is a connected UDP socket a single probe is sent over.
type probeConn struct {
	net.Conn
	rawConn syscall.RawConn
	port    int
}

type dnsClient struct {
	// dialUDP abstracts the creation of a UDP socket with TTL configured
	dialUDP func(ctx context.Context, addr netip.AddrPort, ttl int) (*probeConn, error)
	// newID returns the id of the next DNS query
	newID func() uint16
}

// newDNSClient constructs a DNS probe client using the run-as-non-root pattern.
func newDNSClient() *dnsClient {
	return &dnsClient{dialUDP: dialUDP, newID: dns.Id}
}

// Probe sends one DNS query with the request TTL and processes the reply.
// We rely on the kernel to deliver ICMP errors on the socket error queue, so no raw socket is required.
func (c *dnsClient) Probe(ctx context.Context, req Request, opts Options) (Response, error) {
	tracer := trace.SpanFromContext(ctx).TracerProvider().Tracer("traceroute.dnsClient")
	ctx, span := tracer.Start(ctx, "Probe", trace.WithAttributes(
		attribute.String("traceroute.resolver", req.Resolver.String()),
		attribute.String("traceroute.query", req.Query),
		attribute.Int("traceroute.ttl", req.TTL),
		attribute.Stringer("traceroute.options.timeout", opts.timeout()),
	))
	defer span.End()

	log := logger.FromContext(ctx).With("resolver", req.Resolver, "ttl", req.TTL)
	if err := req.Validate(); err != nil {
		return Response{}, wrapError(ctx, req, err, "cannot send probe to %s", req.Resolver)
	}

	query := new(dns.Msg)
	query.SetQuestion(dns.Fqdn(req.Query), dns.TypeA)
	query.Id = c.newID()
	payload, err := query.Pack()
	if err != nil {
		return Response{}, wrapError(ctx, req, err, "failed to pack dns query for %s", req.Query)
	}

	pc, err := c.dialUDP(ctx, req.addrPort(), req.TTL)
	if err != nil {
		return Response{}, wrapError(ctx, req, err, "failed to dial UDP connection to %s", req.Resolver)
	}
	defer func() { _ = pc.Close() }()

	log.DebugContext(ctx, "Sending DNS probe", "query", req.Query, "id", query.Id, "localPort", pc.port)
	start := time.Now()
	if _, err := pc.Write(payload); err != nil {
		return Response{}, wrapError(ctx, req, err, "failed sending DNS probe to %s", req.Resolver)
	}

	resp, err := pc.read(ctx, query.Id, start.Add(opts.timeout()))
	if err != nil {
		return Response{}, wrapError(ctx, req, err, "failed to read reply from %s", req.Resolver)
	}
	resp.RTT = time.Since(start)

	if !resp.Answered() {
		log.DebugContext(ctx, "Probe timed out")
		span.AddEvent("Probe timeout exceeded")
		return resp, nil
	}

	log.DebugContext(ctx, "Probe answered", "from", resp.Addr, "replyTTL", resp.TTL, "status", resp.Status, "summary", resp.Summary)
	span.AddEvent("Reply received", trace.WithAttributes(
		attribute.Stringer("traceroute.reply.status", resp.Status),
		attribute.String("traceroute.reply.addr", resp.Addr.String()),
		attribute.Int("traceroute.reply.ttl", resp.TTL),
	))
	return resp, nil
}

// read waits for the first reply to the query with the given id until the deadline.
// The error queue is drained first so an ICMP error wins over the pending socket error
// it also raises on the regular receive path.
func (pc *probeConn) read(ctx context.Context, id uint16, deadline time.Time) (Response, error) {
	log := logger.FromContext(ctx)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := pc.SetReadDeadline(deadline); err != nil {
		return Response{}, fmt.Errorf("failed to set read deadline: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { _ = pc.SetReadDeadline(time.Now()) })
	defer stop()

	buf := make([]byte, dataBufSize)
	oob := make([]byte, oobBufSize)

	var resp Response
	var opErr error
	err := pc.rawConn.Read(func(fd uintptr) bool {
		for {
			msg, rerr := recvMsg(fd, buf, oob, unix.MSG_ERRQUEUE)
			if rerr == nil {
				resp, opErr = parseErrQueueMsg(msg)
				return true
			}
			if !isWouldBlock(rerr) {
				opErr = fmt.Errorf("failed to read error queue: %w", rerr)
				return true
			}

			msg, rerr = recvMsg(fd, buf, oob, 0)
			switch {
			case rerr == nil:
				resp, opErr = parseAnswerMsg(msg, id)
				if errors.Is(opErr, errIDMismatch) {
					log.DebugContext(ctx, "Ignoring unrelated DNS answer", "from", msg.from, "error", opErr)
					opErr = nil
					continue
				}
				return true
			case isRetryableReadError(rerr):
				continue
			case isWouldBlock(rerr):
				return false
			default:
				opErr = fmt.Errorf("failed to read answer: %w", rerr)
				return true
			}
		}
	})

	switch {
	case ctx.Err() != nil:
		return Response{}, ctx.Err()
	case errors.Is(err, os.ErrDeadlineExceeded):
		return Response{Status: StatusTimeout}, nil
	case err != nil:
		return Response{}, fmt.Errorf("failed to read from raw connection: %w", err)
	case opErr != nil:
		return Response{}, opErr
	default:
		return resp, nil
	}
}

// dialUDP sets up a UDP socket with the desired TTL that reports ICMP errors and reply TTLs.
// We bind to a random local port so the kernel returns ICMP replies to this socket.
func dialUDP(ctx context.Context, addr netip.AddrPort, ttl int) (*probeConn, error) {
	port := randomPort()
	dialer := net.Dialer{
		LocalAddr: &net.UDPAddr{Port: port},
		ControlContext: func(_ context.Context, _, _ string, c syscall.RawConn) error {
			var opErr error
			if err := c.Control(func(fd uintptr) {
				opErr = errors.Join(
					unix.SetsockoptInt(int(fd), unix.IPPROTO_IP, unix.IP_TTL, ttl), // #nosec G115
					unix.SetsockoptInt(int(fd), unix.SOL_IP, unix.IP_RECVERR, 1),   // #nosec G115
					unix.SetsockoptInt(int(fd), unix.SOL_IP, unix.IP_RECVTTL, 1),   // #nosec G115
				)
			}); err != nil {
				return err
			}
			return opErr
		},
	}

	conn, err := dialer.DialContext(ctx, "udp4", addr.String())
	if err != nil {
		return nil, err
	}

	sc, ok := conn.(syscall.Conn)
	if !ok {
		_ = conn.Close()
		return nil, fmt.Errorf("the provided connection does not implement syscall.Conn: %T", conn)
	}
	rc, err := sc.SyscallConn()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to get RawConn: %w", err)
	}

	return &probeConn{Conn: conn, rawConn: rc, port: port}, nil
}
