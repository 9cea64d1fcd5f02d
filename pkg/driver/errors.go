// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"errors"

	"github.com/wikicensorship/dnstrace/pkg/measurement"
)

var (
	// ErrTransportTimeout marks a probe that received no reply. It is recorded
	// as an unknown device and never aborts a sweep.
	ErrTransportTimeout = errors.New("probe timed out")
	// ErrMalformedAddress aborts the streams of a record whose destination is not IPv4.
	ErrMalformedAddress = measurement.ErrMalformedAddress
	// ErrNoResolvers is returned when a sweep has no usable resolver.
	ErrNoResolvers = errors.New("no usable resolver")
)
