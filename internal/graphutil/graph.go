// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package graphutil

import (
	ybgraph "github.com/yourbasic/graph"
	"golang.org/x/tools/container/intsets"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
)

// IDGraph is a directed graph over the node identifiers 0..order-1, used to work with existing graph libraries.
// It implements the methods to satisfy yourbasic's graph.Iterator and Gonum's graph.Directed.
// Adjacency lists preserve insertion order so that traversals are deterministic.
type IDGraph struct {
	// The order of the graph
	order int

	// Keys are the node IDs in the graph
	Keys []int64

	// succs[x] and preds[x] are the successors and predecessors of node x
	succs [][]int64
	preds [][]int64

	// Edges is an adjacency matrix: Edges[x][y] means there is a directed edge between x and y
	Edges map[int64]map[int64]bool
}

var (
	_ graph.Directed   = (*IDGraph)(nil)
	_ ybgraph.Iterator = (*IDGraph)(nil)
)

// NewIDGraph returns a graph with nodes 0..order-1 and no edges.
func NewIDGraph(order int) *IDGraph {
	keys := make([]int64, order)
	for i := range keys {
		keys[i] = int64(i)
	}
	return &IDGraph{
		order: order,
		Keys:  keys,
		succs: make([][]int64, order),
		preds: make([][]int64, order),
		Edges: make(map[int64]map[int64]bool, order),
	}
}

// AddEdge adds an edge from x to y. Duplicate edges are ignored.
func (g *IDGraph) AddEdge(x, y int) {
	u, v := int64(x), int64(y)
	if g.Edges[u] == nil {
		g.Edges[u] = map[int64]bool{}
	}
	if g.Edges[u][v] {
		return
	}
	g.Edges[u][v] = true
	g.succs[u] = append(g.succs[u], v)
	g.preds[v] = append(g.preds[v], u)
}

// Reverse returns a new graph with all edges reversed.
func (g *IDGraph) Reverse() *IDGraph {
	r := &IDGraph{
		order: g.order,
		Keys:  g.Keys,
		succs: make([][]int64, g.order),
		preds: make([][]int64, g.order),
		Edges: make(map[int64]map[int64]bool, g.order),
	}
	for _, u := range g.Keys {
		for _, v := range g.succs[u] {
			r.AddEdge(int(v), int(u))
		}
	}
	return r
}

// Successors returns the successors of x, in insertion order.
func (g *IDGraph) Successors(x int) []int64 { return g.succs[x] }

// Predecessors returns the predecessors of x, in insertion order.
func (g *IDGraph) Predecessors(x int) []int64 { return g.preds[x] }

// Order implements the order of the graph.Iterator interface for the IDGraph
func (g *IDGraph) Order() int {
	return g.order
}

// Visit implements the graph.Iterator interface for the IDGraph
func (g *IDGraph) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	if v < 0 || v >= g.order {
		return false
	}
	for _, w := range g.succs[v] {
		if do(int(w), 1) {
			return true
		}
	}
	return false
}

// ReachableFrom returns the set of nodes reachable from the roots, roots included, following the edges of any
// graph.Iterator.
func ReachableFrom(g ybgraph.Iterator, roots []int) *intsets.Sparse {
	return ReachableWithin(g, roots, nil)
}

// ReachableWithin returns the set of nodes reachable from the roots by paths staying in within. Roots outside
// within are ignored. A nil within means no restriction.
func ReachableWithin(g ybgraph.Iterator, roots []int, within *intsets.Sparse) *intsets.Sparse {
	seen := &intsets.Sparse{}
	queue := make([]int, 0, len(roots))
	for _, r := range roots {
		if (within == nil || within.Has(r)) && seen.Insert(r) {
			queue = append(queue, r)
		}
	}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		g.Visit(v, func(w int, _ int64) bool {
			if (within == nil || within.Has(w)) && seen.Insert(w) {
				queue = append(queue, w)
			}
			return false
		})
	}
	return seen
}

// *************** Graph interface implementation **********************

// Node implements the Graph interface
func (g *IDGraph) Node(id int64) graph.Node {
	if id < 0 || id >= int64(g.order) {
		return nil
	}
	return IDNode(id)
}

// Nodes returns the set of nodes in the graph
func (g *IDGraph) Nodes() graph.Nodes {
	return nodesOf(g.Keys)
}

// From returns the set of nodes reachable in one step from the id
func (g *IDGraph) From(id int64) graph.Nodes {
	if id < 0 || id >= int64(g.order) {
		return graph.Empty
	}
	return nodesOf(g.succs[id])
}

// To returns the set of nodes that reach the id in one step
func (g *IDGraph) To(id int64) graph.Nodes {
	if id < 0 || id >= int64(g.order) {
		return graph.Empty
	}
	return nodesOf(g.preds[id])
}

// HasEdgeBetween returns a boolean indicating whether an edge exists between the two node identifiers
func (g *IDGraph) HasEdgeBetween(xid, yid int64) bool {
	return g.Edges[xid][yid] || g.Edges[yid][xid]
}

// HasEdgeFromTo returns a boolean indicating whether a directed edge exists from uid to vid
func (g *IDGraph) HasEdgeFromTo(uid, vid int64) bool {
	return g.Edges[uid][vid]
}

// Edge returns the edge between the two identifiers (nil if none exists)
func (g *IDGraph) Edge(uid, vid int64) graph.Edge {
	if g.Edges[uid][vid] {
		return IDEdge{F: IDNode(uid), T: IDNode(vid)}
	}
	return nil
}

func nodesOf(ids []int64) graph.Nodes {
	if len(ids) == 0 {
		return graph.Empty
	}
	nodes := make([]graph.Node, len(ids))
	for i, id := range ids {
		nodes[i] = IDNode(id)
	}
	return iterator.NewOrderedNodes(nodes)
}

// *************** Nodes and edges **********************

// IDNode is a node of an IDGraph
type IDNode int64

// ID returns the id of the node
func (n IDNode) ID() int64 {
	return int64(n)
}

// IDEdge implements the graph.Edge interface
type IDEdge struct {
	F IDNode
	T IDNode
}

// From returns the origin of the edge
func (e IDEdge) From() graph.Node {
	return e.F
}

// To returns the destination of the edge
func (e IDEdge) To() graph.Node {
	return e.T
}

// ReversedEdge returns a new value representing the reversed edge
func (e IDEdge) ReversedEdge() graph.Edge {
	return IDEdge{F: e.T, T: e.F}
}
