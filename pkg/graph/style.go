// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package graph

import (
	"net/netip"

	"github.com/wikicensorship/dnstrace/pkg/classify"
)

// Node shapes understood by the renderer.
const (
	ShapeDot     = "dot"
	ShapeStar    = "star"
	ShapeSquare  = "square"
	ShapeDiamond = "diamond"
)

const (
	// SourceColor is the color of the prober node.
	SourceColor = "Chocolate"
	// LiveSourceLabel labels the prober node of a live sweep.
	LiveSourceLabel = "this device"
	sourceTitle     = "source address"
	lossLabel       = "***"
	noValue         = "*"
	noAnnotation    = "-"
)

// MaxResolvers is the number of resolvers that have their own stream colors.
const MaxResolvers = 6

var (
	accessibleColors = [MaxResolvers]string{
		"DarkTurquoise", "LimeGreen", "DodgerBlue", "MediumSlateBlue", "Green", "YellowGreen",
	}
	blockedColors = [MaxResolvers]string{
		"HotPink", "Red", "Orange", "DarkGoldenrod", "Brown", "Magenta",
	}
)

// StreamColor returns the edge color of a probe stream.
// Control streams use cool colors and test streams warm ones.
func StreamColor(resolver int, stream StreamKind) string {
	i := resolver % MaxResolvers
	if i < 0 {
		i += MaxResolvers
	}
	if stream == Test {
		return blockedColors[i]
	}
	return accessibleColors[i]
}

// StreamOf returns the resolver index and stream kind of the record at
// position i of a measurement set written by a live sweep, which stores the
// control record of a resolver right before its test record.
func StreamOf(i int) (resolver int, stream StreamKind) {
	return i / 2, StreamKind(i % 2)
}

// shapeOf returns the shape of a resolved node.
func shapeOf(res Resolution, dst netip.Addr) string {
	switch {
	case res.Class == classify.Middlebox:
		return ShapeStar
	case res.Key.Kind == KindReal && res.Key.Addr == dst:
		return ShapeSquare
	default:
		return ShapeDot
	}
}

// EdgeLabel selects what is written on edges.
type EdgeLabel string

const (
	// EdgeLabelNone leaves edges unlabeled.
	EdgeLabelNone EdgeLabel = "none"
	// EdgeLabelRTT labels edges with the round trip time in milliseconds.
	EdgeLabelRTT EdgeLabel = "rtt"
	// EdgeLabelBackTTL labels edges with the estimated back-hop count.
	EdgeLabelBackTTL EdgeLabel = "backttl"
)

// IsValid reports whether the label mode is known.
func (l EdgeLabel) IsValid() bool {
	switch l {
	case EdgeLabelNone, EdgeLabelRTT, EdgeLabelBackTTL:
		return true
	default:
		return false
	}
}
