// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAddress is returned for a listening address that is not host:port
	ErrInvalidAddress = errors.New("invalid listening address")
	errNoSchema       = errors.New("no schema")
)

// ErrInvalidMethod is returned when a route uses a method the server does not serve
type ErrInvalidMethod struct {
	Method string
	Path   string
}

func (e *ErrInvalidMethod) Error() string {
	return fmt.Sprintf("method %q is not supported for route %s", e.Method, e.Path)
}

type ErrCreateOpenapiSchema struct {
	name string
	err  error
}

func (e ErrCreateOpenapiSchema) Error() string {
	return fmt.Sprintf("failed to get schema for %s: %v", e.name, e.err)
}

func (e ErrCreateOpenapiSchema) Unwrap() error {
	return e.err
}
