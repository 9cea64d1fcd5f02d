// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package graph

import (
	"fmt"
	"net"
	"net/netip"

	"github.com/oschwald/geoip2-golang"
)

var _ Annotator = (*ASNAnnotator)(nil)

// asnLookup is implemented by [geoip2.Reader].
type asnLookup interface {
	ASN(ip net.IP) (*geoip2.ASN, error)
}

// ASNAnnotator annotates devices with their autonomous system from a
// GeoLite2-ASN database.
type ASNAnnotator struct {
	db     asnLookup
	closer func() error
}

// OpenASNAnnotator opens the ASN database at path.
func OpenASNAnnotator(path string) (*ASNAnnotator, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ASN database: %w", err)
	}
	return &ASNAnnotator{db: db, closer: db.Close}, nil
}

// Annotate returns "AS<number> <organization>" or an empty string if the
// address is unknown. Private addresses are never annotated.
func (a *ASNAnnotator) Annotate(addr netip.Addr) string {
	if !addr.IsValid() || addr.IsPrivate() || addr.IsLoopback() {
		return ""
	}
	rec, err := a.db.ASN(net.IP(addr.AsSlice()))
	if err != nil || rec == nil || rec.AutonomousSystemNumber == 0 {
		return ""
	}
	return fmt.Sprintf("AS%d %s", rec.AutonomousSystemNumber, rec.AutonomousSystemOrganization)
}

// Close releases the database.
func (a *ASNAnnotator) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer()
}
