// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wikicensorship/dnstrace/pkg/graph"
)

func TestBuildCmd(t *testing.T) {
	root := BuildCmd("v1.2.3")
	assert.Equal(t, "v1.2.3", root.Version)

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"trace", "vis", "serve"}, names)
}

func TestFlags_loadConfig(t *testing.T) {
	tests := []struct {
		name    string
		command string
		args    []string
		wantErr bool
	}{
		{
			name:    "trace flags",
			command: "trace",
			args:    []string{"--ips", "8.8.8.8,1.1.1.1", "--domain", "www.wikipedia.org", "--repeats", "2", "--delay", "250ms", "--geolocate=false"},
		},
		{
			name:    "vis label",
			command: "vis",
			args:    []string{"--label", "rtt"},
		},
		{
			name:    "invalid label",
			command: "serve",
			args:    []string{"--label", "hops"},
			wantErr: true,
		},
		{
			name:    "too many resolvers",
			command: "trace",
			args:    []string{"--ips", "1.1.1.1,1.0.0.1,8.8.8.8,8.8.4.4,9.9.9.9,149.112.112.112,208.67.222.222"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			t.Cleanup(viper.Reset)

			cmd := findCmd(t, BuildCmd(""), tt.command)
			require.NoError(t, cmd.ParseFlags(tt.args))
			require.NoError(t, cmd.PreRunE(cmd, nil))

			cfg, err := loadConfig(t.Context())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			switch tt.command {
			case "trace":
				assert.Equal(t, []string{"8.8.8.8", "1.1.1.1"}, cfg.Sweep.Resolvers)
				assert.Equal(t, "www.wikipedia.org", cfg.Sweep.TestDomain)
				assert.Equal(t, 2, cfg.Sweep.Repeats)
				assert.Equal(t, 250*time.Millisecond, cfg.Sweep.Delay)
				assert.False(t, cfg.Geolocation.Enabled)
			case "vis":
				assert.Equal(t, graph.EdgeLabelRTT, cfg.Output.EdgeLabel)
			}
		})
	}
}

func findCmd(t *testing.T, root *cobra.Command, name string) *cobra.Command {
	t.Helper()
	for _, c := range root.Commands() {
		if c.Name() == name {
			return c
		}
	}
	t.Fatalf("command %q not found", name)
	return nil
}
