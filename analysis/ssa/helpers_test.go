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

package ssa

import (
	"testing"

	"github.com/awslabs/ar-cfgssa/analysis/callgraph"
	"github.com/awslabs/ar-cfgssa/analysis/cfg"
	"github.com/awslabs/ar-cfgssa/analysis/syntax"
)

// buildAll computes the SSA form of the callables, with a call graph of the whole program.
func buildAll(p *syntax.Program, opts Options, cs ...*syntax.Callable) []*Function {
	p.Finalize()
	pruned := callgraph.Prune(callgraph.Build(p, callgraph.Options{}), nil)
	var res []*Function
	for _, c := range cs {
		res = append(res, Build(Resolve(cfg.Build(c, cfg.Options{}), opts), pruned))
	}
	return res
}

func build(p *syntax.Program, c *syntax.Callable) *Function {
	return buildAll(p, Options{}, c)[0]
}

func ref(v *syntax.Variable) *syntax.LocalRef { return syntax.NewLocalRef(v) }

func lit(v any) *syntax.Literal { return syntax.NewLiteral(v) }

func field(m *syntax.Member) *syntax.MemberRef { return syntax.NewMemberRef(nil, m) }

func assign(target, source syntax.Expr) *syntax.ExprStmt {
	return syntax.NewExprStmt(syntax.NewAssign(target, source))
}

func do(x syntax.Expr) *syntax.ExprStmt { return syntax.NewExprStmt(x) }

func block(stmts ...syntax.Stmt) *syntax.Block { return syntax.NewBlock(stmts...) }

// readOf returns the unique explicit read of e.
func readOf(t *testing.T, fn *Function, e syntax.Element) *Read {
	t.Helper()
	rs := fn.ExplicitReads(e)
	if len(rs) != 1 {
		t.Fatalf("expected one read of %v, got %d", e, len(rs))
	}
	return rs[0]
}

// defAt returns the definition of v at the unique node of e.
func defAt(t *testing.T, fn *Function, e syntax.Element, v *SourceVariable) Definition {
	t.Helper()
	ns := fn.Graph.NodesOf(e)
	if len(ns) != 1 {
		t.Fatalf("expected one node for %v, got %d", e, len(ns))
	}
	return fn.DefinitionAt(ns[0], v)
}

func readsOfKind(d Definition, k ReadKind) []*Read {
	var res []*Read
	for _, r := range d.Reads() {
		if r.Kind == k {
			res = append(res, r)
		}
	}
	return res
}

func containsRead(rs []*Read, r *Read) bool {
	for _, x := range rs {
		if x == r {
			return true
		}
	}
	return false
}

func containsDef(ds []Definition, d Definition) bool {
	for _, x := range ds {
		if x == d {
			return true
		}
	}
	return false
}
