// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package dnstrace

import (
	"errors"
)

// ErrFinalShutdown is returned by Serve once the server has been shut down
var ErrFinalShutdown = errors.New("dnstrace server was shut down")

// ErrShutdown holds any errors that may
// have occurred during shutdown of the server
type ErrShutdown struct {
	errAPI     error
	errMetrics error
}

// HasError returns true if any of the errors are set
func (e ErrShutdown) HasError() bool {
	return e.errAPI != nil || e.errMetrics != nil
}

func (e ErrShutdown) Error() string {
	if !e.HasError() {
		return "shutdown succeeded"
	}
	return errors.Join(e.errAPI, e.errMetrics).Error()
}

func (e ErrShutdown) Unwrap() []error {
	var errs []error
	for _, err := range []error{e.errAPI, e.errMetrics} {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
