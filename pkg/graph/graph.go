// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package graph

import (
	"net/netip"
	"strconv"

	"github.com/wikicensorship/dnstrace/pkg/classify"
)

// Node is a vertex of the graph.
type Node struct {
	Key   NodeKey
	Label string
	// Title is shown when hovering the node.
	Title string
	Color string
	Shape string
	Class classify.DeviceClass
}

// Edge is a directed edge of the graph. Parallel edges are allowed.
type Edge struct {
	From  NodeKey
	To    NodeKey
	Color string
	Label string
	// Title is an HTML tooltip shown when hovering the edge.
	Title string
}

// Annotator adds information about a device address to its node title.
type Annotator interface {
	Annotate(addr netip.Addr) string
}

// Option configures a [Graph].
type Option func(*Graph)

// WithMode sets how probes without reply are scoped. The default is [Live].
func WithMode(m Mode) Option {
	return func(g *Graph) { g.mode = m }
}

// WithEdgeLabel sets what is written on edges. The default is [EdgeLabelNone].
func WithEdgeLabel(l EdgeLabel) Option {
	return func(g *Graph) {
		if l.IsValid() {
			g.edgeLabel = l
		}
	}
}

// WithAnnotator sets an annotator for the titles of answering devices.
func WithAnnotator(a Annotator) Option {
	return func(g *Graph) { g.annotator = a }
}

// Graph is a directed multigraph of probe paths.
// It has a single writer and is not safe for concurrent use.
type Graph struct {
	mode      Mode
	edgeLabel EdgeLabel
	annotator Annotator

	nodes map[NodeKey]int
	order []Node
	edges []Edge
}

// New returns an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		mode:      Live,
		edgeLabel: EdgeLabelNone,
		nodes:     map[NodeKey]int{},
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Mode returns the loss scoping mode of the graph.
func (g *Graph) Mode() Mode {
	return g.mode
}

// AddSource inserts the prober node and returns its key.
// An unset address adds the local device of a live sweep.
func (g *Graph) AddSource(addr netip.Addr) NodeKey {
	key := SourceKey(addr)
	label := LiveSourceLabel
	if addr.IsValid() {
		label = addr.String()
	}
	g.AddNode(Node{
		Key:   key,
		Label: label,
		Title: sourceTitle,
		Color: SourceColor,
		Shape: ShapeDiamond,
		Class: classify.Unknown,
	})
	return key
}

// AddNode inserts n unless a node with the same key exists.
// It reports whether the node was inserted.
func (g *Graph) AddNode(n Node) bool {
	if _, ok := g.nodes[n.Key]; ok {
		return false
	}
	g.nodes[n.Key] = len(g.order)
	g.order = append(g.order, n)
	return true
}

// AddEdge appends an edge.
func (g *Graph) AddEdge(e Edge) {
	g.edges = append(g.edges, e)
}

// AddHop resolves a probe outcome, inserts its node if absent and appends an
// edge from prev. It returns the key of the outcome's node.
func (g *Graph) AddHop(prev NodeKey, o Outcome, pc ProbeContext) NodeKey {
	res := Resolve(g.mode, o, pc, prev)
	color := StreamColor(pc.Resolver, pc.Stream)

	node := Node{
		Key:   res.Key,
		Label: lossLabel,
		Title: res.Class.String(),
		Color: res.Class.Color(),
		Shape: shapeOf(res, pc.Destination),
		Class: res.Class,
	}
	backHops := classify.NoEstimate
	edgeLabel := ""
	if o.Answered {
		node.Label = o.Addr.String()
		backHops = strconv.Itoa(res.BackHops)
		if g.annotator != nil {
			if a := g.annotator.Annotate(o.Addr); a != "" {
				node.Title += "\n" + a
			}
		}
		switch g.edgeLabel {
		case EdgeLabelRTT:
			edgeLabel = strconv.FormatFloat(milliseconds(o.RTT), 'f', 3, 64)
		case EdgeLabelBackTTL:
			edgeLabel = backHops
		}
	} else if g.edgeLabel != EdgeLabelNone {
		edgeLabel = noValue
	}
	g.AddNode(node)

	g.AddEdge(Edge{
		From:  prev,
		To:    res.Key,
		Color: color,
		Label: edgeLabel,
		Title: tooltip{
			color:      color,
			ttl:        pc.TTL,
			backHops:   backHops,
			requestTo:  pc.Destination.String(),
			annotation: pc.Annotation,
			rtt:        o.RTT,
			size:       o.Size,
			answered:   o.Answered,
			os:         res.Class.String(),
			repeat:     pc.Repeat + 1,
		}.String(),
	})
	return res.Key
}

// Node returns the node with the given key.
func (g *Graph) Node(key NodeKey) (Node, bool) {
	i, ok := g.nodes[key]
	if !ok {
		return Node{}, false
	}
	return g.order[i], true
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []Node {
	return append([]Node(nil), g.order...)
}

// Edges returns the edges in insertion order.
func (g *Graph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.order)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}
