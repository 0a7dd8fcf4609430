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
	"github.com/awslabs/ar-cfgssa/internal/graphutil"
	"golang.org/x/tools/container/intsets"
	"gonum.org/v1/gonum/graph/flow"
)

// Dominance holds the dominator tree and dominance frontiers of a block graph, for dominators or post-dominators.
// Blocks are addressed by index. Blocks not reachable from the root are outside the tree.
type Dominance struct {
	root     int
	tree     []*graphutil.Tree[int]
	pre      []int
	post     []int
	frontier [][]int
}

func computeDominance(g *Graph) {
	bg := graphutil.NewIDGraph(len(g.blocks))
	for _, b := range g.blocks {
		for _, s := range b.succs {
			bg.AddEdge(b.Index, s.Index)
		}
	}
	g.dom = newDominance(bg, g.entry.block.Index)
	if g.exit != nil {
		g.postdom = newDominance(bg.Reverse(), g.exit.block.Index)
	} else {
		g.postdom = newDominance(bg, -1)
	}
}

func newDominance(g *graphutil.IDGraph, root int) *Dominance {
	n := g.Order()
	d := &Dominance{
		root:     root,
		tree:     make([]*graphutil.Tree[int], n),
		pre:      make([]int, n),
		post:     make([]int, n),
		frontier: make([][]int, n),
	}
	for i := range d.pre {
		d.pre[i] = -1
		d.post[i] = -1
	}
	if root < 0 || root >= n {
		return d
	}
	dt := flow.Dominators(graphutil.IDNode(root), g)
	children := make([][]int, n)
	for v := 0; v < n; v++ {
		if v == root {
			continue
		}
		if idom := dt.DominatorOf(int64(v)); idom != nil {
			children[idom.ID()] = append(children[idom.ID()], v)
		}
	}
	d.tree[root] = graphutil.NewTree(root)
	for stack := []int{root}; len(stack) > 0; {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, v := range children[u] {
			d.tree[v] = d.tree[u].AddChild(v)
			stack = append(stack, v)
		}
	}

	counter := 0
	var order []int
	var number func(t *graphutil.Tree[int])
	number = func(t *graphutil.Tree[int]) {
		d.pre[t.Label] = counter
		counter++
		for _, c := range t.Children {
			number(c)
		}
		d.post[t.Label] = counter
		counter++
		order = append(order, t.Label)
	}
	number(d.tree[root])

	// dominator tree children are visited before their parent
	for _, u := range order {
		var df intsets.Sparse
		for _, v := range g.Successors(u) {
			if d.Idom(int(v)) != u {
				df.Insert(int(v))
			}
		}
		for _, c := range d.tree[u].Children {
			for _, v := range d.frontier[c.Label] {
				if d.Idom(v) != u {
					df.Insert(v)
				}
			}
		}
		d.frontier[u] = df.AppendTo(nil)
	}
	return d
}

// Root returns the root block, or -1 when the tree is empty.
func (d *Dominance) Root() int { return d.root }

// Reachable returns true if b is in the tree.
func (d *Dominance) Reachable(b int) bool { return b >= 0 && b < len(d.pre) && d.pre[b] >= 0 }

// Dominates returns true if a dominates b. Reflexive.
func (d *Dominance) Dominates(a, b int) bool {
	if a == b {
		return true
	}
	if !d.Reachable(a) || !d.Reachable(b) {
		return false
	}
	return d.pre[a] <= d.pre[b] && d.post[b] <= d.post[a]
}

// StrictlyDominates returns true if a dominates b and a is not b.
func (d *Dominance) StrictlyDominates(a, b int) bool {
	return a != b && d.Dominates(a, b)
}

// Idom returns the immediate dominator of b, or -1 for the root and blocks outside the tree.
func (d *Dominance) Idom(b int) int {
	if !d.Reachable(b) || d.tree[b].Parent == nil {
		return -1
	}
	return d.tree[b].Parent.Label
}

// Children returns the blocks immediately dominated by b, in increasing order.
func (d *Dominance) Children(b int) []int {
	if !d.Reachable(b) {
		return nil
	}
	out := make([]int, len(d.tree[b].Children))
	for i, c := range d.tree[b].Children {
		out[i] = c.Label
	}
	return out
}

// Path returns the dominators of b from the root down to b itself.
func (d *Dominance) Path(b int) []int {
	if !d.Reachable(b) {
		return nil
	}
	anc := d.tree[b].Ancestors(-1)
	out := make([]int, len(anc))
	for i, t := range anc {
		out[i] = t.Label
	}
	return out
}

// Frontier returns the dominance frontier of b, in increasing order.
func (d *Dominance) Frontier(b int) []int {
	if !d.Reachable(b) {
		return nil
	}
	return d.frontier[b]
}
