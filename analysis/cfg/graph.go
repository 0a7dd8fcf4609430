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
	"fmt"

	"github.com/awslabs/ar-cfgssa/analysis/syntax"
	"golang.org/x/exp/slices"
)

// NodeKind distinguishes element nodes from the synthetic entry and exit nodes.
type NodeKind uint8

const (
	// ElementNode is the execution of a statement or expression
	ElementNode NodeKind = iota
	// EntryNode is the entry of the callable
	EntryNode
	// ExitNode is the exit of the callable, reached by normal completion, return and uncaught exceptions
	ExitNode
)

// A Node is a program point: an element executed under a set of splits, or the callable entry or exit.
type Node struct {
	Index   int
	Kind    NodeKind
	Element syntax.Element
	Splits  Splits

	succs      []Edge
	preds      []Edge
	block      *BasicBlock
	blockIndex int
}

// An Edge is a possible transition between two nodes.
type Edge struct {
	From *Node
	To   *Node
	Type EdgeType
}

func (e Edge) String() string { return fmt.Sprintf("%d -%s-> %d", e.From.Index, e.Type, e.To.Index) }

// Successors returns the outgoing edges of n.
func (n *Node) Successors() []Edge { return n.succs }

// Predecessors returns the incoming edges of n.
func (n *Node) Predecessors() []Edge { return n.preds }

// Block returns the basic block containing n.
func (n *Node) Block() *BasicBlock { return n.block }

// IndexInBlock returns the position of n in its basic block.
func (n *Node) IndexInBlock() int { return n.blockIndex }

func (n *Node) String() string {
	switch n.Kind {
	case EntryNode:
		return "enter"
	case ExitNode:
		return "exit"
	}
	if len(n.Splits) == 0 {
		return n.Element.String()
	}
	return n.Element.String() + " " + n.Splits.String()
}

// A Graph is the control-flow graph of a callable. It is immutable once built.
type Graph struct {
	Callable *syntax.Callable
	// Truncated is set when the build stopped exploring after creating the maximum number of nodes
	Truncated bool

	nodes     []*Node
	entry     *Node
	exit      *Node
	byElement map[syntax.Element][]*Node

	blocks  []*BasicBlock
	dom     *Dominance
	postdom *Dominance
}

// Entry returns the entry node.
func (g *Graph) Entry() *Node { return g.entry }

// Exit returns the exit node, or nil when the exit is unreachable.
func (g *Graph) Exit() *Node { return g.exit }

// Nodes returns all the nodes, in discovery order from the entry.
func (g *Graph) Nodes() []*Node { return g.nodes }

// NodesOf returns the nodes of element e: one per split set under which e is reachable.
func (g *Graph) NodesOf(e syntax.Element) []*Node { return g.byElement[e] }

// Successors returns the successors of n, restricted to the given edge types when any is given.
func (g *Graph) Successors(n *Node, types ...EdgeType) []*Node {
	var out []*Node
	for _, e := range n.succs {
		if len(types) == 0 || slices.Contains(types, e.Type) {
			out = append(out, e.To)
		}
	}
	return out
}

// Predecessors returns the predecessors of n, restricted to the given edge types when any is given.
func (g *Graph) Predecessors(n *Node, types ...EdgeType) []*Node {
	var out []*Node
	for _, e := range n.preds {
		if len(types) == 0 || slices.Contains(types, e.Type) {
			out = append(out, e.From)
		}
	}
	return out
}

// EdgeTypes returns the types of the edges from a to b.
func (g *Graph) EdgeTypes(a, b *Node) []EdgeType {
	var out []EdgeType
	for _, e := range a.succs {
		if e.To == b {
			out = append(out, e.Type)
		}
	}
	return out
}

// BlockOf returns the basic block of n.
func (g *Graph) BlockOf(n *Node) *BasicBlock { return n.block }

// Blocks returns the basic blocks; the first one is the entry block.
func (g *Graph) Blocks() []*BasicBlock { return g.blocks }

// EntryBlock returns the block of the entry node.
func (g *Graph) EntryBlock() *BasicBlock { return g.entry.block }

// ExitBlock returns the block of the exit node, or nil.
func (g *Graph) ExitBlock() *BasicBlock {
	if g.exit == nil {
		return nil
	}
	return g.exit.block
}

// Dominators returns the dominance information of the block graph.
func (g *Graph) Dominators() *Dominance { return g.dom }

// PostDominators returns the post-dominance information of the block graph, which is empty when the exit is
// unreachable.
func (g *Graph) PostDominators() *Dominance { return g.postdom }

// Dominates returns true if every path from the entry to b goes through a. Reflexive.
func (g *Graph) Dominates(a, b *Node) bool {
	if a.block == b.block {
		return a.blockIndex <= b.blockIndex
	}
	return g.dom.Dominates(a.block.Index, b.block.Index)
}

// StrictlyDominates returns true if a dominates b and a is not b.
func (g *Graph) StrictlyDominates(a, b *Node) bool {
	return a != b && g.Dominates(a, b)
}

// PostDominates returns true if every path from b to the exit goes through a. Reflexive.
func (g *Graph) PostDominates(a, b *Node) bool {
	if a.block == b.block {
		return a.blockIndex >= b.blockIndex
	}
	return g.postdom.Dominates(a.block.Index, b.block.Index)
}

// BlockDominates returns true if block a dominates block b. Reflexive.
func (g *Graph) BlockDominates(a, b *BasicBlock) bool {
	return g.dom.Dominates(a.Index, b.Index)
}

// ImmediateDominator returns the immediate dominator of b, or nil for the entry block.
func (g *Graph) ImmediateDominator(b *BasicBlock) *BasicBlock {
	if i := g.dom.Idom(b.Index); i >= 0 {
		return g.blocks[i]
	}
	return nil
}

// DominatorChildren returns the blocks immediately dominated by b.
func (g *Graph) DominatorChildren(b *BasicBlock) []*BasicBlock {
	return g.blockList(g.dom.Children(b.Index))
}

// DominanceFrontier returns the blocks where the dominance of b ends.
func (g *Graph) DominanceFrontier(b *BasicBlock) []*BasicBlock {
	return g.blockList(g.dom.Frontier(b.Index))
}

func (g *Graph) blockList(ids []int) []*BasicBlock {
	out := make([]*BasicBlock, len(ids))
	for i, id := range ids {
		out[i] = g.blocks[id]
	}
	return out
}
