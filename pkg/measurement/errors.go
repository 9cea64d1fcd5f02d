// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package measurement

import (
	"errors"
	"fmt"
)

var (
	// ErrPersistenceFormat is returned when a persisted record does not match the schema.
	ErrPersistenceFormat = errors.New("invalid measurement record")
	// ErrUnparseable is returned when a measurement file is not a JSON array.
	ErrUnparseable = errors.New("unparseable measurement file")
	// ErrMalformedAddress is returned when a record carries an address that is not IPv4.
	ErrMalformedAddress = errors.New("malformed address")
	// ErrFinalized is returned when a finalized record is modified.
	ErrFinalized = errors.New("record is finalized")
)

// ErrHopOutOfOrder is returned when a hop is added out of sequence.
type ErrHopOutOfOrder struct {
	// Hop is the rejected hop number.
	Hop int
	// Len is the number of hops the record had.
	Len int
}

func (e ErrHopOutOfOrder) Error() string {
	return fmt.Sprintf("hop %d is out of order, record has %d hops", e.Hop, e.Len)
}

// ErrRejectedRecord describes a record that was quarantined while loading a set.
type ErrRejectedRecord struct {
	// Index is the position of the record in the file.
	Index int
	// Err is the reason.
	Err error
}

func (e *ErrRejectedRecord) Error() string {
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e *ErrRejectedRecord) Unwrap() error {
	return e.Err
}
