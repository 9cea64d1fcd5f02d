// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package measurement

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rbmk-project/common/errclass"
	"github.com/wikicensorship/dnstrace/internal/logger"
)

// Set is an ordered list of records sharing a source address.
type Set struct {
	// Records are the accepted records in file order.
	Records []*Record
	// Rejected holds the records that failed validation while loading.
	Rejected []*ErrRejectedRecord
}

// Add appends a record to the set.
func (s *Set) Add(r *Record) {
	s.Records = append(s.Records, r)
}

// SourceAddr returns the source address of the set, which is the source
// address of its first record.
func (s *Set) SourceAddr() string {
	if len(s.Records) == 0 {
		return ""
	}
	return s.Records[0].SrcAddr
}

// Load reads a set from a JSON array.
// Records that do not match the schema are quarantined in [Set.Rejected].
// Only input that is not a JSON array of objects is an error.
func Load(ctx context.Context, r io.Reader) (*Set, error) {
	log := logger.FromContext(ctx)

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read measurement: %w", err)
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnparseable, err)
	}

	set := &Set{Records: make([]*Record, 0, len(raws))}
	for i, raw := range raws {
		rec, err := decodeRecord(raw)
		if err != nil {
			rejected := &ErrRejectedRecord{Index: i, Err: err}
			log.WarnContext(ctx, "Quarantined measurement record", "index", i, "error", err, "errClass", errclass.New(err))
			set.Rejected = append(set.Rejected, rejected)
			continue
		}
		set.Records = append(set.Records, rec)
	}

	log.DebugContext(ctx, "Loaded measurement", "records", len(set.Records), "rejected", len(set.Rejected))
	return set, nil
}

// decodeRecord validates and decodes a single persisted record.
// Loaded records are finalized.
func decodeRecord(raw json.RawMessage) (*Record, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistenceFormat, err)
	}
	if err := validate(v); err != nil {
		return nil, err
	}

	rec := &Record{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistenceFormat, err)
	}
	if err := rec.check(); err != nil {
		return nil, err
	}
	rec.finalized = true
	return rec, nil
}

// Save writes the set as an indented JSON array.
func (s *Set) Save(w io.Writer) error {
	records := s.Records
	if records == nil {
		records = []*Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode measurement: %w", err)
	}
	return nil
}

// LoadFile reads a set from the file at path.
func LoadFile(ctx context.Context, path string) (*Set, error) {
	f, err := os.Open(path) // #nosec G304 // path is given by the user
	if err != nil {
		return nil, fmt.Errorf("failed to open measurement: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Load(ctx, f)
}

// SaveFile writes the set to the file at path, replacing it.
func (s *Set) SaveFile(path string) (err error) {
	f, err := os.Create(path) // #nosec G304 // path is given by the user
	if err != nil {
		return fmt.Errorf("failed to create measurement file: %w", err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return s.Save(f)
}
