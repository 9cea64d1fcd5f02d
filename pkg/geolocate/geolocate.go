// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package geolocate learns the public address, network and location of the
// measuring host before a sweep. The public address is what gets redacted from
// persisted records; the network metadata is stored alongside them.
package geolocate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"strconv"
	"time"

	"github.com/wikicensorship/dnstrace/internal/helper"
	"github.com/wikicensorship/dnstrace/internal/logger"
)

const (
	// DefaultURL answers with the caller's address and network metadata as JSON.
	DefaultURL = "https://speed.cloudflare.com/meta"
	// DefaultTimeout bounds the whole lookup including retries.
	DefaultTimeout = 10 * time.Second
	// UserAgent is sent with every metadata request.
	UserAgent = "TraceVis/0.7.0 (WikiCensorship)"
	// PlaceholderIP stands in for the public address when it is unknown.
	PlaceholderIP = "127.1.2.7"
	// PlaceholderASN stands in for the network number when it is unknown.
	PlaceholderASN = "AS0"
)

// Config configures the geolocation lookup.
type Config struct {
	// Enabled turns the lookup on. A disabled lookup yields DefaultMeta.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	// URL of the metadata endpoint.
	URL string `json:"url" yaml:"url" mapstructure:"url"`
	// Timeout bounds the whole lookup.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	// Retry configures retries of the metadata request.
	Retry helper.RetryConfig `json:"retry" yaml:"retry" mapstructure:"retry"`
	// StunServers are asked for the mapped address when the metadata endpoint fails.
	StunServers []string `json:"stunServers" yaml:"stunServers" mapstructure:"stunServers"`
	// DropPrivileges runs the lookup as nobody when started as root.
	DropPrivileges bool `json:"dropPrivileges" yaml:"dropPrivileges" mapstructure:"dropPrivileges"`
}

// DefaultConfig returns the configuration used when nothing else is set.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		URL:     DefaultURL,
		Timeout: DefaultTimeout,
		Retry: helper.RetryConfig{
			Count:    2,
			Delay:    time.Second,
			MaxDelay: 2 * time.Second,
		},
		StunServers:    []string{"stun.l.google.com:19302"},
		DropPrivileges: true,
	}
}

// Validate checks the lookup configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.URL == "" && len(c.StunServers) == 0 {
		return ErrNoSource
	}
	if c.Timeout < 0 {
		return fmt.Errorf("geolocation timeout must not be negative: %s", c.Timeout)
	}
	if c.Retry.Count < 0 || c.Retry.Delay < 0 {
		return fmt.Errorf("geolocation retry must not be negative: %+v", c.Retry)
	}
	return nil
}

// Meta is what is known about the measuring host.
type Meta struct {
	// NoInternet is true when no source could be reached.
	NoInternet bool `json:"noInternet"`
	// PublicIP is the address the host is seen with, or PlaceholderIP.
	PublicIP string `json:"publicIp"`
	// ASN is the network number prefixed with "AS", or PlaceholderASN.
	ASN string `json:"asn"`
	// ASOrg is the name of the network.
	ASOrg string `json:"asOrganization"`
	// Country is the ISO country code.
	Country string `json:"country"`
	// City of the host.
	City string `json:"city"`
}

// DefaultMeta is the result when nothing could be learned.
func DefaultMeta() Meta {
	return Meta{
		NoInternet: true,
		PublicIP:   PlaceholderIP,
		ASN:        PlaceholderASN,
	}
}

// PublicAddr returns the public address if it is known.
func (m Meta) PublicAddr() (netip.Addr, bool) {
	addr, err := netip.ParseAddr(m.PublicIP)
	if err != nil || m.PublicIP == PlaceholderIP {
		return netip.Addr{}, false
	}
	return addr, true
}

// metaResponse is the payload of the metadata endpoint.
type metaResponse struct {
	ClientIP       string `json:"clientIp"`
	ASN            *int   `json:"asn"`
	ASOrganization string `json:"asOrganization"`
	Country        string `json:"country"`
	City           string `json:"city"`
}

func (r *metaResponse) apply(m *Meta) {
	m.NoInternet = false
	if r.ClientIP != "" {
		m.PublicIP = r.ClientIP
	}
	if r.ASN != nil {
		m.ASN = "AS" + strconv.Itoa(*r.ASN)
	}
	m.ASOrg = r.ASOrganization
	m.Country = r.Country
	m.City = r.City
}

// Locator performs geolocation lookups.
type Locator struct {
	config Config
	client *http.Client
	stun   func(ctx context.Context, servers []string, timeout time.Duration) (netip.Addr, error)
	drop   func() (restore func() error, err error)
}

// New creates a Locator for the given configuration.
func New(cfg Config) *Locator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Locator{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		stun:   stunProbe,
		drop:   dropPrivileges,
	}
}

// Lookup learns the host's metadata. It never fails: an unreachable or
// disabled source yields DefaultMeta. The lookup runs in its own goroutine,
// with lowered privileges when configured, and is abandoned after the timeout.
func (l *Locator) Lookup(ctx context.Context) Meta {
	log := logger.FromContext(ctx)
	if !l.config.Enabled {
		log.DebugContext(ctx, "Geolocation disabled")
		return DefaultMeta()
	}

	if l.config.DropPrivileges {
		restore, err := l.drop()
		if err != nil {
			log.WarnContext(ctx, "Failed to drop privileges for geolocation", "error", err)
		} else {
			defer func() {
				if err := restore(); err != nil {
					log.ErrorContext(ctx, "Failed to restore privileges after geolocation", "error", err)
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(ctx, l.config.Timeout)
	defer cancel()

	done := make(chan Meta, 1)
	go func() {
		done <- l.lookup(ctx)
	}()

	select {
	case m := <-done:
		return m
	case <-ctx.Done():
		log.WarnContext(ctx, "Geolocation timed out", "timeout", l.config.Timeout)
		return DefaultMeta()
	}
}

func (l *Locator) lookup(ctx context.Context) Meta {
	log := logger.FromContext(ctx)
	m := DefaultMeta()

	if l.config.URL != "" {
		var resp metaResponse
		fetch := helper.Retry(func(ctx context.Context) error {
			r, err := l.fetch(ctx)
			if err != nil {
				return err
			}
			resp = r
			return nil
		}, l.config.Retry)

		err := fetch(ctx)
		if err == nil {
			resp.apply(&m)
			log.InfoContext(ctx, "Detected network of this device", "asn", m.ASN, "organization", m.ASOrg, "country", m.Country, "city", m.City)
			return m
		}
		log.WarnContext(ctx, "Metadata lookup failed", "url", l.config.URL, "error", err)
	}

	if len(l.config.StunServers) > 0 {
		addr, err := l.stun(ctx, l.config.StunServers, l.config.Timeout)
		if err != nil {
			log.WarnContext(ctx, "STUN lookup failed", "error", err)
			return m
		}
		m.NoInternet = false
		m.PublicIP = addr.String()
		log.InfoContext(ctx, "Detected public address through STUN")
	}
	return m
}

// fetch performs a single metadata request.
func (l *Locator) fetch(ctx context.Context) (metaResponse, error) {
	log := logger.FromContext(ctx).With("url", l.config.URL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.config.URL, http.NoBody)
	if err != nil {
		return metaResponse{}, err
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := l.client.Do(req) //nolint:bodyclose // Closed in defer below
	if err != nil {
		return metaResponse{}, err
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close response body", "error", err)
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return metaResponse{}, &ErrUnexpectedStatus{Status: resp.Status}
	}

	var m metaResponse
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return metaResponse{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return m, nil
}
