// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"encoding/binary"
	"fmt"
	"net/netip"

	"github.com/google/gopacket/layers"
	"github.com/miekg/dns"
	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"
)

const (
	// oobBufSize is the size of the out-of-band buffer used for receiving control messages.
	oobBufSize = 512
	// dataBufSize is the size of the data buffer. It fits any DNS answer over UDP.
	dataBufSize = 4096
	// minExtendedErrSize is the size of struct sock_extended_err as documented in ip(7).
	minExtendedErrSize = 16
	// sockaddrInSize is the size of the struct sockaddr_in that follows the extended error.
	sockaddrInSize = 16
	// ipUDPHeaderSize is the size of an IPv4 header without options plus a UDP header.
	ipUDPHeaderSize = 28
	// icmpHeaderSize is the size of an IPv4 header without options plus an ICMP header.
	icmpHeaderSize = 28
)

// socketMsg is a message received from the probe socket.
type socketMsg struct {
	// from is the source address reported by recvmsg.
	// For error queue messages this is the original destination.
	from netip.Addr
	// data is the payload. For error queue messages this is the quoted probe payload.
	data []byte
	// oob is the control message data.
	oob []byte
}

// unixRecvMsg is a wrapper around the [unix.Recvmsg] function.
// It allows us to mock the function in tests.
var unixRecvMsg = unix.Recvmsg

// recvMsg performs a single non-blocking recvmsg on the socket.
var recvMsg = func(fd uintptr, buf, oob []byte, flags int) (*socketMsg, error) {
	n, oobn, _, from, err := unixRecvMsg(int(fd), buf, oob, flags|unix.MSG_DONTWAIT)
	if err != nil {
		return nil, err
	}

	return &socketMsg{
		from: addrFromSockaddr(from),
		data: buf[:n],
		oob:  oob[:oobn],
	}, nil
}

// addrFromSockaddr converts a [unix.Sockaddr] into a [netip.Addr].
func addrFromSockaddr(sa unix.Sockaddr) netip.Addr {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return netip.AddrFrom4(a.Addr)
	case *unix.SockaddrInet6:
		return netip.AddrFrom16(a.Addr).Unmap()
	default:
		return netip.Addr{}
	}
}

// parseErrQueueMsg decodes an error queue message into a response.
// The offending device is taken from the address following the extended
// error and its TTL from the IP_TTL control message.
func parseErrQueueMsg(msg *socketMsg) (Response, error) {
	cms, err := unix.ParseSocketControlMessage(msg.oob)
	if err != nil {
		return Response{}, fmt.Errorf("failed to parse control messages: %w", err)
	}

	var (
		ee       unix.SockExtendedErr
		offender netip.Addr
		found    bool
	)
	ttl, ttlErr := ttlFromControlMessages(cms)
	for _, cm := range cms {
		if cm.Header.Level != unix.SOL_IP || cm.Header.Type != unix.IP_RECVERR {
			continue
		}

		ee, err = newSockExtendedErr(cm.Data)
		if err != nil {
			return Response{}, fmt.Errorf("failed to decode extended error: %w", err)
		}
		offender, err = offenderAddr(cm.Data)
		if err != nil {
			return Response{}, err
		}
		found = true
		break
	}
	if !found {
		return Response{}, errNoExtendedErr
	}
	if ee.Origin != unix.SO_EE_ORIGIN_ICMP {
		return Response{}, fmt.Errorf("unexpected extended error origin %d", ee.Origin)
	}
	if ttlErr != nil {
		return Response{}, ttlErr
	}

	timeExceeded := ee.Type == uint8(ipv4.ICMPTypeTimeExceeded)
	destUnreachable := ee.Type == uint8(ipv4.ICMPTypeDestinationUnreachable)
	if !timeExceeded && !destUnreachable {
		return Response{}, fmt.Errorf("unexpected ICMP type %d with code %d", ee.Type, ee.Code)
	}

	return Response{
		Status:  StatusICMP,
		Addr:    offender,
		TTL:     ttl,
		Size:    icmpHeaderSize + ipUDPHeaderSize + len(msg.data),
		Summary: icmpSummary(offender, ee.Type, ee.Code),
	}, nil
}

// parseAnswerMsg decodes a regular message into a DNS answer response.
// Answers that do not carry the id of the query are rejected.
func parseAnswerMsg(msg *socketMsg, id uint16) (Response, error) {
	cms, err := unix.ParseSocketControlMessage(msg.oob)
	if err != nil {
		return Response{}, fmt.Errorf("failed to parse control messages: %w", err)
	}
	ttl, err := ttlFromControlMessages(cms)
	if err != nil {
		return Response{}, err
	}

	answer := new(dns.Msg)
	if err := answer.Unpack(msg.data); err != nil {
		return Response{}, fmt.Errorf("failed to unpack dns answer: %w", err)
	}
	if answer.Id != id {
		return Response{}, fmt.Errorf("%w: got %d, want %d", errIDMismatch, answer.Id, id)
	}

	return Response{
		Status:  StatusAnswer,
		Addr:    msg.from,
		TTL:     ttl,
		Size:    len(msg.data) + ipUDPHeaderSize,
		Summary: answerSummary(answer),
	}, nil
}

// ttlFromControlMessages returns the TTL carried by an IP_TTL control message.
func ttlFromControlMessages(cms []unix.SocketControlMessage) (int, error) {
	for _, cm := range cms {
		if cm.Header.Level != unix.SOL_IP || cm.Header.Type != unix.IP_TTL {
			continue
		}
		if len(cm.Data) < 4 {
			return 0, fmt.Errorf("ttl control message too short: %d bytes", len(cm.Data))
		}
		return int(binary.NativeEndian.Uint32(cm.Data[:4])), nil
	}
	return 0, errNoTTL
}

// newSockExtendedErr converts the first 16 bytes of an IP_RECVERR payload into a [unix.SockExtendedErr].
func newSockExtendedErr(data []byte) (unix.SockExtendedErr, error) {
	if len(data) < minExtendedErrSize {
		return unix.SockExtendedErr{}, fmt.Errorf("extended error too short: %d bytes", len(data))
	}

	return unix.SockExtendedErr{
		Errno:  binary.NativeEndian.Uint32(data[0:4]),
		Origin: data[4],
		Type:   data[5],
		Code:   data[6],
		Info:   binary.NativeEndian.Uint32(data[8:12]),
		Data:   binary.NativeEndian.Uint32(data[12:16]),
	}, nil
}

// offenderAddr reads the address of the device that generated the ICMP error.
// The kernel places a struct sockaddr_in right after the extended error.
func offenderAddr(data []byte) (netip.Addr, error) {
	if len(data) < minExtendedErrSize+sockaddrInSize {
		return netip.Addr{}, fmt.Errorf("offender address missing: %d bytes", len(data))
	}
	family := binary.NativeEndian.Uint16(data[minExtendedErrSize : minExtendedErrSize+2])
	if family != unix.AF_INET {
		return netip.Addr{}, fmt.Errorf("unexpected offender address family %d", family)
	}
	return netip.AddrFrom4([4]byte(data[minExtendedErrSize+4 : minExtendedErrSize+8])), nil
}

// icmpSummary describes an ICMP error in one line.
func icmpSummary(from netip.Addr, icmpType, code uint8) string {
	tc := layers.CreateICMPv4TypeCode(icmpType, code)
	return fmt.Sprintf("IP / ICMP %s > %s", from, tc)
}

// answerSummary describes a DNS answer in one line.
func answerSummary(m *dns.Msg) string {
	for _, rr := range m.Answer {
		switch a := rr.(type) {
		case *dns.A:
			return fmt.Sprintf("IP / UDP / DNS Ans %q", a.A.String())
		case *dns.CNAME:
			return fmt.Sprintf("IP / UDP / DNS Ans %q", a.Target)
		}
	}
	return "IP / UDP / DNS Ans " + dns.RcodeToString[m.Rcode]
}
