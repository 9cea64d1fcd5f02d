// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/wikicensorship/dnstrace/internal/logger"
	"github.com/wikicensorship/dnstrace/pkg/config"
	"github.com/wikicensorship/dnstrace/pkg/dnstrace"
)

// NewCmdTrace creates a new trace command
func NewCmdTrace() *cobra.Command {
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Probe the resolvers and draw the graph",
		Long: "Sends a control and a test query with increasing TTLs to every resolver.\n" +
			"The records are saved as <prefix>-dns-graph-<time>.json and the graph as the matching .html page.\n" +
			"Opening raw sockets needs root or CAP_NET_RAW.",
		Args: cobra.NoArgs,
		RunE: runTrace,
	}

	NewFlag("sweep.resolvers", "ips").StringSlice().Bind(cmd, defaults.Sweep.Resolvers, "sweep: resolvers to probe, at most 6")
	NewFlag("sweep.testDomain", "domain").String().Bind(cmd, defaults.Sweep.TestDomain, "sweep: domain suspected to be censored")
	NewFlag("sweep.controlDomain", "control-domain").String().Bind(cmd, defaults.Sweep.ControlDomain, "sweep: domain known to be reachable")
	NewFlag("sweep.repeats", "repeats").Int().Bind(cmd, defaults.Sweep.Repeats, "sweep: number of times the TTL range is swept")
	NewFlag("sweep.maxTTL", "max-ttl").Int().Bind(cmd, defaults.Sweep.MaxTTL, "sweep: highest TTL probed")
	NewFlag("sweep.port", "port").Int().Bind(cmd, defaults.Sweep.Port, "sweep: destination port of the queries")
	NewFlag("sweep.timeout", "timeout").Duration().Bind(cmd, defaults.Sweep.Timeout, "sweep: time a probe waits for a reply")
	NewFlag("sweep.delay", "delay").Duration().Bind(cmd, defaults.Sweep.Delay, "sweep: pause between two probes")
	NewFlag("sweep.plan.path", "plan").String().Bind(cmd, "", "sweep: YAML file the sweep is read from")
	NewFlag("output.prefix", "prefix").String().Bind(cmd, "", "output: prefix of the written file names")
	NewFlag("output.directory", "directory").String().Bind(cmd, defaults.Output.Directory, "output: directory the files are written to")
	NewFlag("output.attach", "attach").Bool().Bind(cmd, false, "output: load vis-network from the lib directory next to the page instead of the CDN")
	NewFlag("geolocation.enabled", "geolocate").Bool().Bind(cmd, defaults.Geolocation.Enabled, "geolocation: look up the public address and network before the sweep")

	return cmd
}

func runTrace(cmd *cobra.Command, _ []string) error {
	ctx, cancel := newContext(cmd)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	log := logger.FromContext(ctx)

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	out, err := dnstrace.New(cfg).Trace(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Trace failed", "error", err)
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "saved measurement:", out.MeasurementPath)
	fmt.Fprintln(cmd.OutOrStdout(), "saved graph:", out.PagePath)
	return nil
}
