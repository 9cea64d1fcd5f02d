// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"github.com/wikicensorship/dnstrace/pkg/graph"
)

// Document is the drawable form of a graph.
type Document struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is a vis-network node.
type Node struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
	Title string `json:"title,omitempty"`
	Color string `json:"color"`
	Shape string `json:"shape"`
	Class string `json:"class"`
}

// Edge is a vis-network edge.
type Edge struct {
	From  int    `json:"from"`
	To    int    `json:"to"`
	Color string `json:"color"`
	Label string `json:"label,omitempty"`
	Title string `json:"title,omitempty"`
}

// NewDocument converts g. Node ids are the insertion order of the nodes.
func NewDocument(g *graph.Graph) Document {
	nodes := g.Nodes()
	ids := make(map[graph.NodeKey]int, len(nodes))
	doc := Document{
		Nodes: make([]Node, 0, len(nodes)),
		Edges: make([]Edge, 0, g.EdgeCount()),
	}
	for i, n := range nodes {
		ids[n.Key] = i
		doc.Nodes = append(doc.Nodes, Node{
			ID:    i,
			Label: n.Label,
			Title: n.Title,
			Color: n.Color,
			Shape: n.Shape,
			Class: n.Class.String(),
		})
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, Edge{
			From:  ids[e.From],
			To:    ids[e.To],
			Color: e.Color,
			Label: e.Label,
			Title: e.Title,
		})
	}
	return doc
}
