// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"fmt"
	"net/netip"
	"strconv"
	"time"
)

// DNSPort is the default destination port of a probe.
const DNSPort = 53

// DefaultTimeout is the time a probe waits for any reply.
const DefaultTimeout = time.Second

// Request describes a single TTL-limited DNS probe.
type Request struct {
	// Resolver is the IPv4 address of the DNS resolver the query is sent to.
	Resolver netip.Addr `json:"resolver" yaml:"resolver" mapstructure:"resolver"`
	// Port is the destination port. Zero means [DNSPort].
	Port int `json:"port" yaml:"port" mapstructure:"port"`
	// TTL is the IP TTL the query is sent with.
	TTL int `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
	// Query is the domain name asked for.
	Query string `json:"query" yaml:"query" mapstructure:"query"`
}

// Validate checks that the request can be sent.
func (r Request) Validate() error {
	if !r.Resolver.IsValid() || !r.Resolver.Unmap().Is4() {
		return fmt.Errorf("%w: resolver %q is not an IPv4 address", ErrInvalidRequest, r.Resolver)
	}
	if r.TTL < 1 || r.TTL > 255 {
		return fmt.Errorf("%w: ttl %d, must be between 1 and 255", ErrInvalidRequest, r.TTL)
	}
	if r.Port < 0 || r.Port > 65535 {
		return fmt.Errorf("%w: port %d, must be between 0 and 65535", ErrInvalidRequest, r.Port)
	}
	if r.Query == "" {
		return fmt.Errorf("%w: query cannot be empty", ErrInvalidRequest)
	}
	return nil
}

// addrPort returns the destination of the request.
func (r Request) addrPort() netip.AddrPort {
	port := r.Port
	if port == 0 {
		port = DNSPort
	}
	return netip.AddrPortFrom(r.Resolver.Unmap(), uint16(port)) // #nosec G115 // validated above
}

func (r Request) String() string {
	return r.Query + "@" + r.addrPort().String() + " ttl=" + strconv.Itoa(r.TTL)
}

// Options contains the optional configuration of a probe.
type Options struct {
	// Timeout is the time to wait for a reply. Zero means [DefaultTimeout].
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

// Status is the kind of reply a probe received.
type Status int

const (
	// StatusTimeout means no reply arrived in time.
	StatusTimeout Status = iota
	// StatusICMP means a device on the path answered with an ICMP error.
	StatusICMP
	// StatusAnswer means a DNS answer arrived.
	StatusAnswer
)

func (s Status) String() string {
	switch s {
	case StatusICMP:
		return "icmp"
	case StatusAnswer:
		return "answer"
	default:
		return "timeout"
	}
}

// Response is the outcome of a single probe.
// Only Status and RTT are set for timeouts.
type Response struct {
	Status Status `json:"status" yaml:"status"`
	// Addr is the address of the device that answered.
	Addr netip.Addr `json:"addr" yaml:"addr"`
	// TTL is the IP TTL of the reply as it arrived.
	TTL int `json:"ttl" yaml:"ttl"`
	// RTT is the time between sending the query and receiving the reply.
	RTT time.Duration `json:"rtt" yaml:"rtt"`
	// Size is the size in bytes of the reply including the IP and transport headers.
	Size int `json:"size" yaml:"size"`
	// Summary is a one-line human-readable description of the reply.
	Summary string `json:"summary" yaml:"summary"`
}

// Answered reports whether any device replied to the probe.
func (r Response) Answered() bool {
	return r.Status != StatusTimeout
}

func (r Response) String() string {
	if !r.Answered() {
		return "*"
	}
	return fmt.Sprintf("%s ttl=%d %s %s", r.Addr, r.TTL, r.RTT, r.Summary)
}
