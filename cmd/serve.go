// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/wikicensorship/dnstrace/internal/logger"
	"github.com/wikicensorship/dnstrace/pkg/config"
	"github.com/wikicensorship/dnstrace/pkg/dnstrace"
	"github.com/wikicensorship/dnstrace/pkg/graph"
)

// NewCmdServe creates a new serve command
func NewCmdServe() *cobra.Command {
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   "serve <file.json>",
		Short: "Serve the graph of a saved measurement",
		Long: "Replays the records of a measurement file and serves the graph page, its nodes and edges,\n" +
			"the records and the metrics over HTTP until interrupted.",
		Args: cobra.ExactArgs(1),
		RunE: runServe,
	}

	NewFlag("api.address", "address").String().Bind(cmd, defaults.Api.ListeningAddress, "api: address the server listens on")
	NewFlag("output.edgeLabel", "label").String().Bind(cmd, string(graph.EdgeLabelNone), "output: edge labels, one of none, rtt, backttl")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := newContext(cmd)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	log := logger.FromContext(ctx)

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	err = dnstrace.New(cfg).Serve(ctx, args[0])
	if err == dnstrace.ErrFinalShutdown { //nolint:errorlint // a clean shutdown returns the bare sentinel
		log.InfoContext(ctx, "Server stopped")
		return nil
	}
	return err
}
