// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Flag is a command line flag bound to a config key.
type Flag struct {
	key  string
	name string
}

// NewFlag returns a flag called name that sets the config key.
func NewFlag(key, name string) *Flag {
	return &Flag{key: key, name: name}
}

type (
	StringFlag      struct{ *Flag }
	StringSliceFlag struct{ *Flag }
	BoolFlag        struct{ *Flag }
	IntFlag         struct{ *Flag }
	DurationFlag    struct{ *Flag }
)

func (f *Flag) String() StringFlag           { return StringFlag{f} }
func (f *Flag) StringSlice() StringSliceFlag { return StringSliceFlag{f} }
func (f *Flag) Bool() BoolFlag               { return BoolFlag{f} }
func (f *Flag) Int() IntFlag                 { return IntFlag{f} }
func (f *Flag) Duration() DurationFlag       { return DurationFlag{f} }

// Bind registers the flag on cmd. The flag is bound to its config key when
// cmd runs, so commands sharing a key do not shadow each other.
func (f StringFlag) Bind(cmd *cobra.Command, value, usage string) {
	cmd.Flags().String(f.name, value, usage)
	f.bindOnRun(cmd, cmd.Flags())
}

// BindPersistent registers the flag on cmd and all its children.
func (f StringFlag) BindPersistent(cmd *cobra.Command, value, usage string) {
	cmd.PersistentFlags().String(f.name, value, usage)
	cobra.CheckErr(viper.BindPFlag(f.key, cmd.PersistentFlags().Lookup(f.name)))
}

func (f StringSliceFlag) Bind(cmd *cobra.Command, value []string, usage string) {
	cmd.Flags().StringSlice(f.name, value, usage)
	f.bindOnRun(cmd, cmd.Flags())
}

func (f BoolFlag) Bind(cmd *cobra.Command, value bool, usage string) {
	cmd.Flags().Bool(f.name, value, usage)
	f.bindOnRun(cmd, cmd.Flags())
}

func (f IntFlag) Bind(cmd *cobra.Command, value int, usage string) {
	cmd.Flags().Int(f.name, value, usage)
	f.bindOnRun(cmd, cmd.Flags())
}

func (f DurationFlag) Bind(cmd *cobra.Command, value time.Duration, usage string) {
	cmd.Flags().Duration(f.name, value, usage)
	f.bindOnRun(cmd, cmd.Flags())
}

func (f *Flag) bindOnRun(cmd *cobra.Command, flags *pflag.FlagSet) {
	prev := cmd.PreRunE
	cmd.PreRunE = func(c *cobra.Command, args []string) error {
		if prev != nil {
			if err := prev(c, args); err != nil {
				return err
			}
		}
		return viper.BindPFlag(f.key, flags.Lookup(f.name))
	}
}
