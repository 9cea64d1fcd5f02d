// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package geolocate

import (
	"errors"
	"fmt"
	"syscall"
)

// nobody is the uid and gid the lookup runs as when started as root.
const nobody = 65534

// dropPrivileges switches the effective ids to nobody when running as root.
// The returned function restores the previous ids.
func dropPrivileges() (func() error, error) {
	uid, gid := syscall.Geteuid(), syscall.Getegid()
	if uid != 0 {
		return func() error { return nil }, nil
	}

	// the group has to go first, nobody may not change it afterwards
	if err := syscall.Setegid(nobody); err != nil {
		return nil, fmt.Errorf("setegid: %w", err)
	}
	if err := syscall.Seteuid(nobody); err != nil {
		return nil, errors.Join(fmt.Errorf("seteuid: %w", err), syscall.Setegid(gid))
	}

	return func() error {
		if err := syscall.Seteuid(uid); err != nil {
			return fmt.Errorf("seteuid: %w", err)
		}
		if err := syscall.Setegid(gid); err != nil {
			return fmt.Errorf("setegid: %w", err)
		}
		return nil
	}, nil
}
