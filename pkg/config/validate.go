// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/wikicensorship/dnstrace/internal/logger"
	"github.com/wikicensorship/dnstrace/pkg/graph"
)

const maxTTL = 255

var dnsName = regexp.MustCompile(`^([a-z0-9]([a-z0-9\-]{0,61}[a-z0-9])?\.)+[a-z]{2,}$`)

// Validate validates the startup config
func (c *Config) Validate(ctx context.Context) (err error) {
	log := logger.FromContext(ctx)

	if vErr := c.Sweep.Validate(ctx); vErr != nil {
		log.Error("The sweep configuration is invalid")
		err = errors.Join(err, vErr)
	}

	if vErr := c.Output.Validate(ctx); vErr != nil {
		log.Error("The output configuration is invalid")
		err = errors.Join(err, vErr)
	}

	if vErr := c.Geolocation.Validate(); vErr != nil {
		log.Error("The geolocation configuration is invalid")
		err = errors.Join(err, vErr)
	}

	if c.HasTelemetry() {
		if vErr := c.Telemetry.Validate(ctx); vErr != nil {
			log.Error("The telemetry configuration is invalid")
			err = errors.Join(err, vErr)
		}
	}

	if vErr := c.Api.Validate(); vErr != nil {
		log.Error("The api configuration is invalid")
		err = errors.Join(err, vErr)
	}

	if err != nil {
		return fmt.Errorf("validation of configuration failed: %w", err)
	}
	return nil
}

// Validate validates the sweep configuration. Resolver addresses are not
// parsed here: unusable resolvers are skipped by the sweep itself.
func (c *SweepConfig) Validate(ctx context.Context) (err error) {
	log := logger.FromContext(ctx)

	if len(c.Resolvers) == 0 || len(c.Resolvers) > graph.MaxResolvers {
		log.Error("The number of resolvers must be between 1 and the maximum", "resolvers", len(c.Resolvers), "max", graph.MaxResolvers)
		err = errors.Join(err, ErrInvalidResolvers)
	}
	for _, d := range []string{c.ControlDomain, c.TestDomain} {
		if !isDNSName(d) {
			log.Error("The probed domains must be DNS compliant", "domain", d)
			err = errors.Join(err, fmt.Errorf("%w: %q", ErrInvalidDomain, d))
		}
	}
	if c.Repeats < 1 {
		log.Error("The repeat count should be above 0", "repeats", c.Repeats)
		err = errors.Join(err, ErrInvalidRepeats)
	}
	if c.MaxTTL < 1 || c.MaxTTL > maxTTL {
		log.Error("The maximum ttl should be between 1 and 255", "maxTTL", c.MaxTTL)
		err = errors.Join(err, ErrInvalidMaxTTL)
	}
	if c.Port < 1 || c.Port > 65535 {
		log.Error("The port should be between 1 and 65535", "port", c.Port)
		err = errors.Join(err, ErrInvalidPort)
	}
	if c.Timeout <= 0 {
		log.Error("The probe timeout should be above 0", "timeout", c.Timeout)
		err = errors.Join(err, ErrInvalidTimeout)
	}
	if c.Delay < 0 {
		log.Error("The probe delay should be equal or above 0", "delay", c.Delay)
		err = errors.Join(err, ErrInvalidDelay)
	}
	return err
}

// Validate validates the output configuration
func (c *OutputConfig) Validate(ctx context.Context) (err error) {
	log := logger.FromContext(ctx)
	if !c.EdgeLabel.IsValid() {
		log.Error("The edge label is unknown", "edgeLabel", c.EdgeLabel)
		err = errors.Join(err, fmt.Errorf("%w: %q", ErrInvalidEdgeLabel, c.EdgeLabel))
	}
	if c.Directory == "" {
		log.Error("The output directory cannot be empty")
		err = errors.Join(err, ErrInvalidOutputDirectory)
	}
	return err
}

// isDNSName checks if the given string is a valid DNS name
func isDNSName(s string) bool {
	return dnsName.MatchString(strings.ToLower(strings.TrimSuffix(s, ".")))
}
