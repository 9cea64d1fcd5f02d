// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"time"

	"github.com/wikicensorship/dnstrace/pkg/api"
	"github.com/wikicensorship/dnstrace/pkg/dnstrace/metrics"
	"github.com/wikicensorship/dnstrace/pkg/driver"
	"github.com/wikicensorship/dnstrace/pkg/geolocate"
	"github.com/wikicensorship/dnstrace/pkg/graph"
)

// Default probe targets.
const (
	DefaultControlDomain = "www.example.com"
	DefaultTestDomain    = "www.twitter.com"
	DefaultPort          = 53
	DefaultTimeout       = time.Second
)

// DefaultResolvers are probed when no resolvers are configured.
var DefaultResolvers = []string{"8.8.4.4", "1.0.0.1", "9.9.9.9"}

type Config struct {
	// Sweep is the configuration of the live sweep
	Sweep SweepConfig `yaml:"sweep" mapstructure:"sweep"`
	// Output is the configuration of the written files
	Output OutputConfig `yaml:"output" mapstructure:"output"`
	// Geolocation is the configuration of the public address lookup
	Geolocation geolocate.Config `yaml:"geolocation" mapstructure:"geolocation"`
	// Telemetry is the configuration for the telemetry
	Telemetry metrics.Config `yaml:"telemetry" mapstructure:"telemetry"`
	// Annotate is the configuration of the node annotations
	Annotate AnnotateConfig `yaml:"annotate" mapstructure:"annotate"`
	// Api is the configuration for the api server of the serve command
	Api api.Config `yaml:"api" mapstructure:"api"`
}

// SweepConfig describes which resolvers are probed with which domains.
type SweepConfig struct {
	Resolvers     []string `yaml:"resolvers" mapstructure:"resolvers"`
	ControlDomain string   `yaml:"controlDomain" mapstructure:"controlDomain"`
	TestDomain    string   `yaml:"testDomain" mapstructure:"testDomain"`
	// Repeats is how often the whole TTL range is swept
	Repeats int `yaml:"repeats" mapstructure:"repeats"`
	MaxTTL  int `yaml:"maxTTL" mapstructure:"maxTTL"`
	Port    int `yaml:"port" mapstructure:"port"`
	// Timeout is how long a single probe waits for a reply
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// Delay is the pause between two probes
	Delay time.Duration `yaml:"delay" mapstructure:"delay"`
	// Plan is an optional file the sweep is read from instead
	Plan PlanConfig `yaml:"plan" mapstructure:"plan"`
}

// PlanConfig is the configuration of the sweep plan file
type PlanConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// OutputConfig describes the written measurement and graph files.
type OutputConfig struct {
	// Prefix is put in front of the generated file names
	Prefix string `yaml:"prefix" mapstructure:"prefix"`
	// Directory the files are written to
	Directory string `yaml:"directory" mapstructure:"directory"`
	// Attach makes graph pages load vis-network from a local directory
	Attach bool `yaml:"attach" mapstructure:"attach"`
	// EdgeLabel selects what replayed graphs write on their edges
	EdgeLabel graph.EdgeLabel `yaml:"edgeLabel" mapstructure:"edgeLabel"`
}

// AnnotateConfig is the configuration of the ASN annotation of graph nodes.
type AnnotateConfig struct {
	// ASNDatabase is the path of a MaxMind ASN database. Empty disables annotation.
	ASNDatabase string `yaml:"asnDatabase" mapstructure:"asnDatabase"`
}

// Default returns the configuration used for unset values.
func Default() *Config {
	return &Config{
		Sweep: SweepConfig{
			Resolvers:     DefaultResolvers,
			ControlDomain: DefaultControlDomain,
			TestDomain:    DefaultTestDomain,
			Repeats:       driver.DefaultRepeats,
			MaxTTL:        driver.DefaultMaxTTL,
			Port:          DefaultPort,
			Timeout:       DefaultTimeout,
			Delay:         driver.DefaultDelay,
		},
		Output: OutputConfig{
			Directory: ".",
			EdgeLabel: graph.EdgeLabelNone,
		},
		Geolocation: geolocate.DefaultConfig(),
		Api:         api.Config{ListeningAddress: ":8080"},
	}
}

// HasTelemetry returns true if the config has telemetry enabled
func (c *Config) HasTelemetry() bool {
	return c.Telemetry.Enabled
}

// HasAnnotation returns true if an ASN database is configured
func (c *Config) HasAnnotation() bool {
	return c.Annotate.ASNDatabase != ""
}

// HasPlan returns true if the sweep is read from a plan file
func (c *Config) HasPlan() bool {
	return c.Sweep.Plan.Path != ""
}
