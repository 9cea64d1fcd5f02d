// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wikicensorship/dnstrace/pkg/dnstrace"
	"github.com/wikicensorship/dnstrace/pkg/graph"
)

// NewCmdVis creates a new vis command
func NewCmdVis() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vis <file.json>",
		Short: "Draw the graph of a saved measurement",
		Long:  "Replays the records of a measurement file and writes the graph page next to it.",
		Args:  cobra.ExactArgs(1),
		RunE:  runVis,
	}

	NewFlag("output.attach", "attach").Bool().Bind(cmd, false, "output: load vis-network from the lib directory next to the page instead of the CDN")
	NewFlag("output.edgeLabel", "label").String().Bind(cmd, string(graph.EdgeLabelNone), "output: edge labels, one of none, rtt, backttl")

	return cmd
}

func runVis(cmd *cobra.Command, args []string) error {
	ctx, cancel := newContext(cmd)
	defer cancel()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	out, err := dnstrace.New(cfg).Visualize(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "saved graph:", out.PagePath)
	return nil
}
