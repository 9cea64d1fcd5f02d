// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package graph merges the hops of many probe streams into one directed
// multigraph.
//
// Every probe outcome is mapped to a [NodeKey]. Real routers share one node
// across all streams. Devices that answer with an anomalously low TTL are
// treated as middleboxes and get one node per stream, so an interceptor that
// spoofs the address of the resolver does not merge with the resolver itself.
// Probes without reply get placeholder nodes whose scope depends on the
// [Mode] of the graph.
//
// Nodes are inserted at most once. Every call to [Graph.AddHop] appends one
// edge, so parallel edges between the same nodes show how many streams took
// that path.
package graph
