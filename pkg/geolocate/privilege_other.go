// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

//go:build !unix

package geolocate

// dropPrivileges is a no-op where effective ids do not exist.
func dropPrivileges() (func() error, error) {
	return func() error { return nil }, nil
}
