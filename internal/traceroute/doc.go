// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package traceroute provides a TTL-limited DNS probe transport.
//
// Each probe is a single DNS query sent over an unprivileged UDP socket whose
// IP TTL is set to the hop under test. The socket has IP_RECVERR and
// IP_RECVTTL enabled so that both possible replies arrive on the same file
// descriptor:
//
//   - ICMP time-exceeded or destination-unreachable messages generated by a
//     router on the path are queued by the kernel on the socket error queue
//     together with the address of the offending device and the TTL of the
//     ICMP packet.
//   - A DNS answer, whether it comes from the resolver or from a device that
//     injects responses, is read from the regular receive queue together with
//     its IP TTL.
//
// The caller gets one [Response] per probe: an answer from a device on the
// path, or a timeout when nothing arrived within [Options.Timeout].
// No raw sockets or NET_RAW capabilities are required.
package traceroute
