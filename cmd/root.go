// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/wikicensorship/dnstrace/internal/logger"
	"github.com/wikicensorship/dnstrace/pkg"
	"github.com/wikicensorship/dnstrace/pkg/config"
)

// NewCmdRoot creates a new root command
func NewCmdRoot(version string) *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "dnstrace",
		Short: "dnstrace, the DNS censorship traceroute",
		Long: "dnstrace sends DNS queries with increasing TTLs to public resolvers, once for a\n" +
			"control domain and once for a test domain, and draws the paths of both as a graph.\n" +
			"Devices answering in place of the resolver show up where the paths part.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cobra.OnInitialize(func() {
		initConfig(cfgFile)
	})

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.dnstrace.yaml)")
	NewFlag("telemetry.file", "metrics-file").String().BindPersistent(rootCmd, "", "telemetry: file the prometheus metrics are written to")
	NewFlag("annotate.asnDatabase", "asn-db").String().BindPersistent(rootCmd, "", "annotate: MaxMind ASN database used to annotate graph nodes")

	return rootCmd
}

// Execute adds all child commands to the root command
// and executes the cmd tree
func Execute(version string) {
	if version != "" {
		pkg.Version = version
	}
	cmd := BuildCmd(pkg.Version)

	if err := cmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func BuildCmd(version string) *cobra.Command {
	cmd := NewCmdRoot(version)
	cmd.AddCommand(NewCmdTrace())
	cmd.AddCommand(NewCmdVis())
	cmd.AddCommand(NewCmdServe())
	return cmd
}

func initConfig(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".dnstrace" (without an extension)
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".dnstrace")
	}

	viper.SetOptions(viper.ExperimentalBindStruct())
	viper.SetEnvPrefix("dnstrace")
	dotreplacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(dotreplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig returns the defaults overlaid with the config file, the
// environment and the flags, in increasing precedence.
func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg := config.Default()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newContext returns the context of a command run carrying the logger.
func newContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := logger.IntoContext(cmd.Context(), logger.NewLogger())
	return logger.NewContextWithLogger(ctx)
}
