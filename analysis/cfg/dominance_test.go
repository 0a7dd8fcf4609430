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
	"testing"

	"github.com/awslabs/ar-cfgssa/analysis/syntax"
)

// reachableWithout returns the blocks reachable from the entry block without going through removed.
func reachableWithout(g *Graph, removed *BasicBlock) map[*BasicBlock]bool {
	seen := map[*BasicBlock]bool{}
	if g.EntryBlock() == removed {
		return seen
	}
	queue := []*BasicBlock{g.EntryBlock()}
	seen[g.EntryBlock()] = true
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		for _, s := range b.Succs() {
			if s != removed && !seen[s] {
				seen[s] = true
				queue = append(queue, s)
			}
		}
	}
	return seen
}

func checkDominance(t *testing.T, g *Graph) {
	for _, a := range g.Blocks() {
		reach := reachableWithout(g, a)
		for _, b := range g.Blocks() {
			expected := a == b || !reach[b]
			if got := g.BlockDominates(a, b); got != expected {
				t.Errorf("Dominates(%v, %v) = %v, want %v", a, b, got, expected)
			}
			if a != b && g.BlockDominates(a, b) && g.BlockDominates(b, a) {
				t.Errorf("dominance cycle between %v and %v", a, b)
			}
		}
	}
	for _, a := range g.Blocks() {
		inFrontier := map[*BasicBlock]bool{}
		for _, b := range g.DominanceFrontier(a) {
			inFrontier[b] = true
		}
		for _, b := range g.Blocks() {
			expected := false
			for _, p := range b.Preds() {
				if g.BlockDominates(a, p) {
					expected = true
				}
			}
			expected = expected && !(a != b && g.BlockDominates(a, b))
			if inFrontier[b] != expected {
				t.Errorf("%v in frontier of %v: got %v, want %v", b, a, inFrontier[b], expected)
			}
		}
	}
	for _, n := range g.Nodes() {
		if !g.Dominates(g.Entry(), n) {
			t.Errorf("entry does not dominate %v", n)
		}
		if n != g.Entry() && g.Dominates(n, g.Entry()) {
			t.Errorf("%v dominates the entry", n)
		}
		if g.Exit() != nil && !g.PostDominates(g.Exit(), n) && g.PostDominators().Reachable(n.Block().Index) {
			t.Errorf("exit does not post-dominate %v", n)
		}
	}
}

func TestDominanceProperties(t *testing.T) {
	programs := []struct {
		name  string
		build func(f *fixture) *Graph
	}{
		{"branches", func(f *fixture) *Graph {
			c, x := f.param("c"), f.local("x")
			return f.build(
				syntax.NewIf(ref(c), assign(x, lit(1)), assign(x, lit(2))),
				syntax.NewIf(syntax.NewAnd(ref(c), ref(x)), do(f.call("a")), nil),
				do(f.call("use", ref(x))))
		}},
		{"loops", func(f *fixture) *Graph {
			c, v := f.param("c"), f.local("v")
			return f.build(
				syntax.NewWhile(ref(c), syntax.NewBlock(
					syntax.NewIf(ref(c), syntax.NewBreak(), nil),
					syntax.NewForEach(v, ref(c), syntax.NewBlock(syntax.NewIf(ref(v), syntax.NewContinue(), nil))),
				)),
				syntax.NewDoWhile(syntax.NewBlock(do(f.call("a"))), ref(c)))
		}},
		{"exceptions", func(f *fixture) *Graph {
			c := f.param("c")
			ioEx := f.p.NewType("IOException", f.p.Exception)
			inner := syntax.NewTry(syntax.NewBlock(do(f.call("g"))),
				[]*syntax.Catch{syntax.NewCatch(ioEx, nil, syntax.NewBlock(syntax.NewReturn(nil)))},
				syntax.NewBlock(do(f.call("h"))))
			return f.build(
				syntax.NewTry(syntax.NewBlock(syntax.NewIf(ref(c), syntax.NewReturn(nil), nil), do(f.call("f"))),
					nil, syntax.NewBlock(inner)),
				do(f.call("after")))
		}},
		{"switch and goto", func(f *fixture) *Graph {
			x := f.param("x")
			return f.build(
				syntax.NewLabeled("top", do(f.call("a"))),
				syntax.NewSwitch(ref(x),
					syntax.NewCase(lit(1), syntax.NewGoto("top")),
					syntax.NewCase(lit(2), syntax.NewGotoCase(lit(1))),
					syntax.NewDefault(syntax.NewBreak())),
				do(f.call("end")))
		}},
	}
	for _, tt := range programs {
		t.Run(tt.name, func(t *testing.T) {
			g := tt.build(newFixture())
			checkDominance(t, g)
		})
	}
}
