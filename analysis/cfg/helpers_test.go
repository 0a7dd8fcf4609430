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

// fixture builds the body of a single static function "test" and the functions it calls.
type fixture struct {
	p       *syntax.Program
	fn      *syntax.Callable
	callees map[string]*syntax.Callable
}

func newFixture() *fixture {
	p := syntax.NewProgram()
	return &fixture{p: p, fn: p.NewFunction(nil, "test"), callees: map[string]*syntax.Callable{}}
}

func (f *fixture) local(name string) *syntax.Variable { return f.fn.NewLocal(name) }

func (f *fixture) param(name string) *syntax.Variable { return f.fn.NewParam(name, syntax.ValueParam) }

func (f *fixture) call(name string, args ...syntax.Expr) *syntax.Call {
	c, ok := f.callees[name]
	if !ok {
		c = f.p.NewFunction(nil, name)
		f.callees[name] = c
	}
	return syntax.NewCall(c, nil, args...)
}

func (f *fixture) build(stmts ...syntax.Stmt) *Graph {
	f.fn.SetBody(syntax.NewBlock(stmts...))
	f.p.Finalize()
	return Build(f.fn, Options{})
}

func ref(v *syntax.Variable) *syntax.LocalRef { return syntax.NewLocalRef(v) }

func lit(v any) *syntax.Literal { return syntax.NewLiteral(v) }

func assign(v *syntax.Variable, x syntax.Expr) *syntax.ExprStmt {
	return syntax.NewExprStmt(syntax.NewAssign(ref(v), x))
}

func do(x syntax.Expr) *syntax.ExprStmt { return syntax.NewExprStmt(x) }

// nodeOf returns the unique node of e.
func nodeOf(t *testing.T, g *Graph, e syntax.Element) *Node {
	t.Helper()
	ns := g.NodesOf(e)
	if len(ns) != 1 {
		t.Fatalf("expected exactly one node for %v, got %d", e, len(ns))
	}
	return ns[0]
}

// nodeWithSplit returns the node of e whose split of kind k has the completion c.
func nodeWithSplit(t *testing.T, g *Graph, e syntax.Element, k SplitKind, c Completion) *Node {
	t.Helper()
	for _, n := range g.NodesOf(e) {
		if s, ok := n.Splits.Get(k); ok && s.Completion == c {
			return n
		}
	}
	t.Fatalf("no node of %v with split %v", e, c)
	return nil
}

func hasSucc(g *Graph, from, to *Node, typ EdgeType) bool {
	for _, n := range g.Successors(from, typ) {
		if n == to {
			return true
		}
	}
	return false
}
