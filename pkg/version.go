// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package pkg contains metadata about dnstrace.
package pkg

// Version is the current version of dnstrace.
// It is set at build time by using -ldflags "-X github.com/wikicensorship/dnstrace/pkg.Version=x.x.x".
var Version = "dev"
