// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"errors"

	"golang.org/x/sys/unix"
)

var (
	// ErrInvalidRequest is returned when a probe request cannot be sent.
	ErrInvalidRequest = errors.New("invalid probe request")
	// errIDMismatch is returned when a DNS answer does not belong to the query sent.
	errIDMismatch = errors.New("dns answer id does not match query")
	// errNoExtendedErr is returned when an error queue message carries no IP_RECVERR data.
	errNoExtendedErr = errors.New("no SOL_IP/IP_RECVERR message found")
	// errNoTTL is returned when a message carries no IP_TTL control message.
	errNoTTL = errors.New("no SOL_IP/IP_TTL message found")
)

// isRetryableReadError reports whether a regular read failed because an ICMP
// error is pending on the socket. The error itself is then read from the
// error queue.
func isRetryableReadError(err error) bool {
	return errors.Is(err, unix.EHOSTUNREACH) ||
		errors.Is(err, unix.ECONNREFUSED) ||
		errors.Is(err, unix.ENETUNREACH)
}

// isWouldBlock reports whether the socket had nothing to read.
func isWouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}
