// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/wikicensorship/dnstrace/pkg"
)

const (
	runInfoMetricName = "dnstrace_run_info"
	runInfoHelp       = "Identity of the measurement run. Emitted once per run to correlate metrics with traces and output files."
)

// RegisterRunInfo registers the dnstrace_run_info info-style metric on the given registry.
// It sets the gauge to 1 with labels run_id, mode, version, asn and country.
// Missing metadata keys are left empty.
func RegisterRunInfo(registry *prometheus.Registry, runID, mode string, metadata map[string]string) error {
	info := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: runInfoMetricName,
			Help: runInfoHelp,
		},
		[]string{"run_id", "mode", "version", "asn", "country"},
	)
	info.WithLabelValues(runID, mode, pkg.Version, metadata["asn"], metadata["country"]).Set(1)
	return registry.Register(info)
}
