// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import "errors"

var (
	// ErrInvalidResolvers is returned when no or too many resolvers are configured
	ErrInvalidResolvers = errors.New("invalid resolvers")
	// ErrInvalidDomain is returned when a probed domain is not a DNS name
	ErrInvalidDomain = errors.New("invalid domain")
	// ErrInvalidRepeats is returned when the repeat count is invalid
	ErrInvalidRepeats = errors.New("invalid repeat count")
	// ErrInvalidMaxTTL is returned when the maximum TTL is out of range
	ErrInvalidMaxTTL = errors.New("invalid maximum ttl")
	// ErrInvalidPort is returned when the probe port is out of range
	ErrInvalidPort = errors.New("invalid port")
	// ErrInvalidTimeout is returned when the probe timeout is invalid
	ErrInvalidTimeout = errors.New("invalid probe timeout")
	// ErrInvalidDelay is returned when the probe delay is invalid
	ErrInvalidDelay = errors.New("invalid probe delay")
	// ErrInvalidEdgeLabel is returned when the edge label mode is unknown
	ErrInvalidEdgeLabel = errors.New("invalid edge label")
	// ErrInvalidOutputDirectory is returned when the output directory is empty
	ErrInvalidOutputDirectory = errors.New("invalid output directory")
)
