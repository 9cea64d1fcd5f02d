// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package measurement

import (
	"fmt"
	"net/netip"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

var (
	schemaOnce sync.Once
	schema     *openapi3.Schema
)

// Schema returns the OpenAPI schema a persisted record must match.
func Schema() *openapi3.Schema {
	schemaOnce.Do(func() {
		schema = recordSchema()
	})
	return schema
}

func recordSchema() *openapi3.Schema {
	packets := openapi3.NewArraySchema().WithItems(openapi3.NewSchema())

	skip := openapi3.NewObjectSchema().
		WithProperty("x", openapi3.NewStringSchema().WithEnum(skipMarker))
	skip.Required = []string{"x"}

	timeout := openapi3.NewObjectSchema().
		WithProperty("x", openapi3.NewStringSchema().WithEnum(timeoutMarker)).
		WithProperty("packets", packets)
	timeout.Required = []string{"x"}

	answered := openapi3.NewObjectSchema().
		WithProperty("from", openapi3.NewStringSchema().WithMinLength(1)).
		WithProperty("rtt", openapi3.NewFloat64Schema().WithMin(0)).
		WithProperty("size", openapi3.NewIntegerSchema()).
		WithProperty("ttl", openapi3.NewIntegerSchema().WithMin(0).WithMax(255)).
		WithProperty("summary", openapi3.NewStringSchema()).
		WithProperty("packets", packets)
	answered.Required = []string{"from", "ttl"}

	hop := openapi3.NewObjectSchema().
		WithProperty("hop", openapi3.NewIntegerSchema().WithMin(1)).
		WithProperty("result", openapi3.NewArraySchema().WithItems(openapi3.NewAnyOfSchema(skip, timeout, answered)))
	hop.Required = []string{"hop", "result"}

	record := openapi3.NewObjectSchema().
		WithProperty("af", openapi3.NewIntegerSchema()).
		WithProperty("dst_addr", openapi3.NewStringSchema()).
		WithProperty("dst_name", openapi3.NewStringSchema()).
		WithProperty("annotation", openapi3.NewStringSchema()).
		WithProperty("endtime", openapi3.NewIntegerSchema()).
		WithProperty("from", openapi3.NewStringSchema()).
		WithProperty("lts", openapi3.NewIntegerSchema()).
		WithProperty("msm_id", openapi3.NewIntegerSchema()).
		WithProperty("msm_name", openapi3.NewStringSchema()).
		WithProperty("paris_id", openapi3.NewIntegerSchema()).
		WithProperty("prb_id", openapi3.NewIntegerSchema()).
		WithProperty("proto", openapi3.NewStringSchema()).
		WithProperty("port", openapi3.NewIntegerSchema()).
		WithProperty("result", openapi3.NewArraySchema().WithItems(hop)).
		WithProperty("size", openapi3.NewIntegerSchema()).
		WithProperty("src_addr", openapi3.NewStringSchema()).
		WithProperty("timestamp", openapi3.NewIntegerSchema()).
		WithProperty("ttr", openapi3.NewFloat64Schema()).
		WithProperty("asn", openapi3.NewStringSchema()).
		WithProperty("asname", openapi3.NewStringSchema()).
		WithProperty("cc", openapi3.NewStringSchema())
	record.Required = []string{"dst_addr", "src_addr", "result"}
	return record
}

// validate checks a decoded JSON value against the record schema.
func validate(v any) error {
	if err := Schema().VisitJSON(v, openapi3.MultiErrors()); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistenceFormat, err)
	}
	return nil
}

// check verifies the invariants the schema cannot express.
func (r *Record) check() error {
	if _, err := parseIPv4(r.DstAddr); err != nil {
		return fmt.Errorf("dst_addr: %w", err)
	}
	if _, err := parseIPv4(r.SrcAddr); err != nil {
		return fmt.Errorf("src_addr: %w", err)
	}
	for i, h := range r.Result {
		if h.Hop < 1 {
			return fmt.Errorf("%w: hop %d at position %d", ErrPersistenceFormat, h.Hop, i)
		}
		for _, res := range h.Result {
			if res.Kind != Answered {
				continue
			}
			if _, err := parseIPv4(res.From); err != nil {
				return fmt.Errorf("hop %d from: %w", h.Hop, err)
			}
		}
	}
	return nil
}

func parseIPv4(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: %q", ErrMalformedAddress, s)
	}
	addr = addr.Unmap()
	if !addr.Is4() {
		return netip.Addr{}, fmt.Errorf("%w: %q is not IPv4", ErrMalformedAddress, s)
	}
	return addr, nil
}
