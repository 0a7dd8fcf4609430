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

package cfg

import (
	"github.com/awslabs/ar-cfgssa/analysis/syntax"
)

// Options controls graph construction.
type Options struct {
	// MaxNodes bounds the number of nodes of one graph. When the bound is reached, the build stops exploring and
	// the graph is marked truncated. Zero means no bound.
	MaxNodes int
}

// A target is a successor computed by the builder: the node of elem under splits (the exit node when elem is
// nil), reached by an edge of type edge.
type target struct {
	elem   syntax.Element
	splits Splits
	edge   EdgeType
}

type nodeKey struct {
	elem   syntax.Element
	splits string
}

type edgeKey struct {
	from, to int
	typ      EdgeType
}

type builder struct {
	callable *syntax.Callable
	program  *syntax.Program
	opts     Options
	g        *Graph
	index    map[nodeKey]*Node
	edges    map[edgeKey]bool
	queue    []*Node
	firsts   map[syntax.Element]syntax.Element
	levels   map[*syntax.Try]int
}

// Build returns the control-flow graph of c. The program of c must be finalized.
func Build(c *syntax.Callable, opts Options) *Graph {
	b := &builder{
		callable: c,
		program:  c.Program(),
		opts:     opts,
		g:        &Graph{Callable: c, byElement: map[syntax.Element][]*Node{}},
		index:    map[nodeKey]*Node{},
		edges:    map[edgeKey]bool{},
		firsts:   map[syntax.Element]syntax.Element{},
		levels:   map[*syntax.Try]int{},
	}
	b.explore()
	computeBlocks(b.g)
	computeDominance(b.g)
	return b.g
}

func (b *builder) explore() {
	entry := b.newNode(EntryNode, nil, nil)
	b.g.entry = entry
	var start []target
	if b.callable.Body == nil {
		start = []target{{edge: NormalEdge}}
	} else {
		start = b.enter(b.callable.Body, nil, Normal())
	}
	b.link(entry, start)
	for len(b.queue) > 0 {
		n := b.queue[0]
		b.queue = b.queue[1:]
		b.link(n, b.successors(n))
	}
}

func (b *builder) link(n *Node, targets []target) {
	for _, t := range targets {
		m := b.lookup(t)
		if m == nil {
			continue
		}
		k := edgeKey{n.Index, m.Index, t.edge}
		if b.edges[k] {
			continue
		}
		b.edges[k] = true
		e := Edge{From: n, To: m, Type: t.edge}
		n.succs = append(n.succs, e)
		m.preds = append(m.preds, e)
	}
}

// lookup returns the node of t, creating and queuing it when new. It returns nil when the node budget is
// exhausted.
func (b *builder) lookup(t target) *Node {
	if t.elem == nil {
		if b.g.exit == nil {
			if b.full() {
				return nil
			}
			b.g.exit = b.newNode(ExitNode, nil, nil)
		}
		return b.g.exit
	}
	k := nodeKey{t.elem, t.splits.Key()}
	if n, ok := b.index[k]; ok {
		return n
	}
	if b.full() {
		return nil
	}
	n := b.newNode(ElementNode, t.elem, t.splits)
	b.index[k] = n
	b.g.byElement[t.elem] = append(b.g.byElement[t.elem], n)
	b.queue = append(b.queue, n)
	return n
}

func (b *builder) full() bool {
	if b.opts.MaxNodes > 0 && len(b.g.nodes) >= b.opts.MaxNodes {
		b.g.Truncated = true
		return true
	}
	return false
}

func (b *builder) newNode(kind NodeKind, e syntax.Element, splits Splits) *Node {
	n := &Node{Index: len(b.g.nodes), Kind: kind, Element: e, Splits: splits}
	b.g.nodes = append(b.g.nodes, n)
	return n
}

func (b *builder) successors(n *Node) []target {
	var out []target
	for _, c := range b.ownCompletions(n.Element, n.Splits) {
		out = append(out, b.afterOwn(n.Element, c, n.Splits)...)
	}
	return out
}

// enter returns the target starting the execution of e.
func (b *builder) enter(e syntax.Element, s Splits, via Completion) []target {
	return []target{{elem: b.first(e), splits: s, edge: via.EdgeType()}}
}

// at returns the target of the own node of e.
func (b *builder) at(e syntax.Element, s Splits, via Completion) []target {
	return []target{{elem: e, splits: s, edge: via.EdgeType()}}
}

// complete returns the targets following the completion of e with c. The edge type is taken from via, which
// differs from c only when resuming a completion after a finally block.
func (b *builder) complete(e syntax.Element, c, via Completion, s Splits) []target {
	p := e.Parent()
	if p == nil {
		// leaving the callable drops every split
		return []target{{edge: via.EdgeType()}}
	}
	return b.afterChild(p, e, c, via, s)
}

// level returns the number of finally blocks enclosing t.
func (b *builder) level(t *syntax.Try) int {
	if l, ok := b.levels[t]; ok {
		return l
	}
	l := 0
	var x syntax.Element = t
	for p := x.Parent(); p != nil; x, p = p, p.Parent() {
		if pt, ok := p.(*syntax.Try); ok && pt.Finally != nil && x == syntax.Element(pt.Finally) {
			l++
		}
	}
	b.levels[t] = l
	return l
}
