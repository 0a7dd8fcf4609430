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
	"strings"

	"golang.org/x/exp/slices"
)

// A BasicBlock is a maximal sequence of nodes where each node but the first has a single predecessor, and each
// node but the last has a single successor.
type BasicBlock struct {
	Index int
	Nodes []*Node

	succs []*BasicBlock
	preds []*BasicBlock
}

// Succs returns the successor blocks.
func (b *BasicBlock) Succs() []*BasicBlock { return b.succs }

// Preds returns the predecessor blocks.
func (b *BasicBlock) Preds() []*BasicBlock { return b.preds }

// First returns the first node of the block.
func (b *BasicBlock) First() *Node { return b.Nodes[0] }

// Last returns the last node of the block.
func (b *BasicBlock) Last() *Node { return b.Nodes[len(b.Nodes)-1] }

// IsEntry returns true for the block starting with the callable entry.
func (b *BasicBlock) IsEntry() bool { return b.First().Kind == EntryNode }

// IsExit returns true for the block of the callable exit.
func (b *BasicBlock) IsExit() bool { return b.Last().Kind == ExitNode }

// IsJoin returns true for blocks with at least two predecessors.
func (b *BasicBlock) IsJoin() bool { return len(b.preds) >= 2 }

// IsCondition returns true for blocks with at least two successors.
func (b *BasicBlock) IsCondition() bool { return len(b.succs) >= 2 }

func (b *BasicBlock) String() string {
	names := make([]string, len(b.Nodes))
	for i, n := range b.Nodes {
		names[i] = n.String()
	}
	return fmt.Sprintf("B%d[%s]", b.Index, strings.Join(names, "; "))
}

func computeBlocks(g *Graph) {
	leader := func(n *Node) bool {
		if n.Kind == EntryNode {
			return true
		}
		preds := uniquePreds(n)
		if len(preds) != 1 {
			return true
		}
		p := preds[0]
		return p == n || len(uniqueSuccs(p)) != 1
	}
	for _, n := range g.nodes {
		if n.block != nil || !leader(n) {
			continue
		}
		bb := &BasicBlock{Index: len(g.blocks)}
		g.blocks = append(g.blocks, bb)
		for x := n; ; {
			x.block = bb
			x.blockIndex = len(bb.Nodes)
			bb.Nodes = append(bb.Nodes, x)
			succs := uniqueSuccs(x)
			if len(succs) != 1 || succs[0].block != nil || leader(succs[0]) {
				break
			}
			x = succs[0]
		}
	}
	for _, bb := range g.blocks {
		for _, s := range uniqueSuccs(bb.Last()) {
			if s.block == nil {
				continue
			}
			bb.succs = append(bb.succs, s.block)
			s.block.preds = append(s.block.preds, bb)
		}
	}
}

func uniqueSuccs(n *Node) []*Node {
	var out []*Node
	for _, e := range n.succs {
		if !slices.Contains(out, e.To) {
			out = append(out, e.To)
		}
	}
	return out
}

func uniquePreds(n *Node) []*Node {
	var out []*Node
	for _, e := range n.preds {
		if !slices.Contains(out, e.From) {
			out = append(out, e.From)
		}
	}
	return out
}
