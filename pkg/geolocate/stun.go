// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package geolocate

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/pion/stun/v3"
)

// stunProbe asks the servers in order for the mapped address and returns the
// first one learned.
func stunProbe(ctx context.Context, servers []string, timeout time.Duration) (netip.Addr, error) {
	if len(servers) == 0 {
		return netip.Addr{}, ErrNoStunServers
	}

	var errs []error
	for _, server := range servers {
		addr, err := stunServer(ctx, server, timeout)
		if err == nil {
			return addr, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", server, err))
		if ctx.Err() != nil {
			break
		}
	}
	return netip.Addr{}, errors.Join(errs...)
}

func stunServer(ctx context.Context, server string, timeout time.Duration) (netip.Addr, error) {
	uri, err := stun.ParseURI(stunURI(server))
	if err != nil {
		return netip.Addr{}, err
	}

	client, err := stun.DialURI(uri, &stun.DialConfig{})
	if err != nil {
		return netip.Addr{}, err
	}
	defer client.Close() //nolint:errcheck // nothing to do on close failure

	msg := stun.MustBuild(stun.TransactionID, stun.BindingRequest)
	result := make(chan netip.Addr, 1)
	fail := make(chan error, 1)

	go func() {
		err := client.Do(msg, func(res stun.Event) {
			if res.Error != nil {
				fail <- res.Error
				return
			}
			var xor stun.XORMappedAddress
			if err := xor.GetFrom(res.Message); err != nil {
				fail <- err
				return
			}
			addr, ok := netip.AddrFromSlice(xor.IP)
			if !ok {
				fail <- fmt.Errorf("invalid mapped address %q", xor.IP)
				return
			}
			result <- addr.Unmap()
		})
		if err != nil {
			fail <- err
		}
	}()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	select {
	case addr := <-result:
		return addr, nil
	case err := <-fail:
		return netip.Addr{}, err
	case <-ctx.Done():
		return netip.Addr{}, ctx.Err()
	}
}

// stunURI normalizes a bare host:port into a stun URI.
func stunURI(server string) string {
	s := strings.TrimSpace(server)
	if !strings.HasPrefix(s, "stun:") {
		s = "stun:" + s
	}
	return s
}
