// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package geolocate

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSource is returned when geolocation is enabled without any source.
	ErrNoSource = errors.New("geolocation needs a metadata url or stun servers")
	// ErrDecode is returned when the metadata response is not valid JSON.
	ErrDecode = errors.New("failed to decode metadata response")
	// ErrNoStunServers is returned when a STUN lookup is started without servers.
	ErrNoStunServers = errors.New("no stun servers provided")
)

// ErrUnexpectedStatus is returned when the metadata endpoint does not answer with 200.
type ErrUnexpectedStatus struct {
	Status string
}

func (e *ErrUnexpectedStatus) Error() string {
	return fmt.Sprintf("metadata request failed, status is %s", e.Status)
}
