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

package analysis

import (
	"errors"
	"io"
	"testing"

	"github.com/awslabs/ar-cfgssa/analysis/config"
	"github.com/awslabs/ar-cfgssa/analysis/ssa"
	"github.com/awslabs/ar-cfgssa/analysis/syntax"
)

func newTestCache(t *testing.T, p *syntax.Program, yaml string) *Cache {
	t.Helper()
	cfg, err := config.Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("could not parse config: %v", err)
	}
	logger := config.NewLogGroup(cfg)
	logger.SetAllOutput(io.Discard)
	return NewCache(p, logger, cfg)
}

func ref(v *syntax.Variable) *syntax.LocalRef { return syntax.NewLocalRef(v) }

func lit(v any) *syntax.Literal { return syntax.NewLiteral(v) }

// closureProgram is
//
//	outer() { x = 0; d = () => { x = x + 1; }; d(); return x; }
type closureProgram struct {
	p        *syntax.Program
	outer    *syntax.Callable
	inc      *syntax.Callable
	x        *syntax.Variable
	decl     *syntax.LocalDecl
	incr     *syntax.Assign
	call     *syntax.Call
	returned *syntax.LocalRef
}

func newClosureProgram() *closureProgram {
	cp := &closureProgram{p: syntax.NewProgram()}
	cp.outer = cp.p.NewFunction(nil, "outer")
	cp.x = cp.outer.NewLocal("x")
	d := cp.outer.NewLocal("d")
	cp.inc = cp.outer.NewLambda("inc")
	cp.incr = syntax.NewAssign(ref(cp.x), syntax.NewBinary("+", ref(cp.x), lit(1)))
	cp.inc.SetBody(syntax.NewBlock(syntax.NewExprStmt(cp.incr)))
	cp.decl = syntax.NewLocalDecl(cp.x, lit(0))
	cp.call = syntax.NewDelegateCall(ref(d))
	cp.returned = ref(cp.x)
	cp.outer.SetBody(syntax.NewBlock(
		cp.decl,
		syntax.NewLocalDecl(d, syntax.NewLambdaExpr(cp.inc)),
		syntax.NewExprStmt(cp.call),
		syntax.NewReturn(cp.returned),
	))
	return cp
}

// definitionAt returns the definition of the local l at the first node of e
func definitionAt(t *testing.T, fn *ssa.Function, e syntax.Element, l *syntax.Variable) ssa.Definition {
	t.Helper()
	v := fn.Vars.Local(l)
	nodes := fn.Graph.NodesOf(e)
	if v == nil || len(nodes) == 0 {
		t.Fatalf("%s: no variable %s or no node for %s", fn.Callable, l, e)
	}
	d := fn.DefinitionAt(nodes[0], v)
	if d == nil {
		t.Fatalf("%s: no definition of %s at %s", fn.Callable, l, e)
	}
	return d
}

func TestBuildAll(t *testing.T) {
	cp := newClosureProgram()
	c := newTestCache(t, cp.p, "options:\n  num-routines: 2\n")
	c.BuildAll()
	if err := c.CheckError(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if len(c.Functions()) != 2 || c.Function(cp.outer) == nil || c.Function(cp.inc) == nil {
		t.Fatalf("expected outer and inc to be built")
	}
	stats := Statistics(c)
	if stats.NumberOfFunctions != 2 || stats.NumberOfTruncated != 0 || stats.NumberOfDefinitions == 0 {
		t.Errorf("unexpected statistics %s", stats)
	}

	call := definitionAt(t, c.Function(cp.outer), cp.call, cp.x)
	if _, ok := call.(*ssa.ImplicitCallDefinition); !ok {
		t.Fatalf("calling inc should define x, got %v", call)
	}
	r := c.Function(cp.outer).ExplicitReads(cp.returned)
	if len(r) != 1 || r[0].Definition() != call {
		t.Errorf("the returned x should be defined by the call")
	}
}

func TestFlowsIntoClosure(t *testing.T) {
	cp := newClosureProgram()
	c := newTestCache(t, cp.p, "")
	c.BuildAll()

	d0 := definitionAt(t, c.Function(cp.outer), cp.decl, cp.x)
	fn := c.Function(cp.inc)
	entry := fn.DefinitionAt(fn.Graph.Entry(), fn.Vars.Local(cp.x))
	if _, ok := entry.(*ssa.ImplicitEntryDefinition); !ok {
		t.Fatalf("x should have an entry definition in inc, got %v", entry)
	}
	flows := c.FlowsIntoClosure(d0)
	if len(flows) != 1 || flows[0] != entry {
		t.Errorf("x = 0 should flow into the entry definition of inc, got %v", flows)
	}
	if len(c.FlowsOutOfClosure(d0)) != 0 {
		t.Errorf("x = 0 is not a definition of a captured variable")
	}
	call := definitionAt(t, c.Function(cp.outer), cp.call, cp.x)
	if len(c.FlowsIntoClosure(call)) != 0 {
		t.Errorf("the value of x after the call is never observed by a closure")
	}
}

func TestFlowsOutOfClosure(t *testing.T) {
	cp := newClosureProgram()
	c := newTestCache(t, cp.p, "")
	c.BuildAll()

	inc := definitionAt(t, c.Function(cp.inc), cp.incr, cp.x)
	call := definitionAt(t, c.Function(cp.outer), cp.call, cp.x)
	flows := c.FlowsOutOfClosure(inc)
	if len(flows) != 1 || flows[0] != call {
		t.Errorf("x = x + 1 should flow out to the call definition in outer, got %v", flows)
	}
	if len(c.FlowsIntoClosure(inc)) != 0 {
		t.Errorf("inc creates no closure")
	}
}

func TestFlowsWithoutCallDefinitions(t *testing.T) {
	cp := newClosureProgram()
	c := newTestCache(t, cp.p, "options:\n  unsafe-skip-call-definitions: true\n")
	c.BuildAll()
	inc := definitionAt(t, c.Function(cp.inc), cp.incr, cp.x)
	if len(c.FlowsOutOfClosure(inc)) != 0 {
		t.Errorf("without call definitions nothing observes the closure writes")
	}
}

func TestCallableFilters(t *testing.T) {
	p := syntax.NewProgram()
	a := p.NewType("Service", nil)
	handle := a.NewMethod("HandleGet")
	l := handle.NewLambda("cb")
	l.SetBody(lit(1))
	handle.SetBody(syntax.NewBlock(syntax.NewReturn(syntax.NewLambdaExpr(l))))
	other := a.NewMethod("Other").SetBody(syntax.NewBlock())
	abstract := a.NewMethod("Abstract")

	c := newTestCache(t, p, "callable-filters:\n  - type: Service\n    method: Handle.*\n")
	c.BuildAll()
	if c.Function(handle) == nil || c.Function(l) == nil {
		t.Errorf("HandleGet and its lambda should be built")
	}
	if c.Function(other) != nil || c.Function(abstract) != nil {
		t.Errorf("Other and Abstract should not be built")
	}
}

func TestTruncatedGraphsAreReported(t *testing.T) {
	p := syntax.NewProgram()
	f := p.NewFunction(nil, "f")
	x := f.NewLocal("x")
	f.SetBody(syntax.NewBlock(
		syntax.NewLocalDecl(x, lit(0)),
		syntax.NewExprStmt(syntax.NewAssign(ref(x), lit(1))),
		syntax.NewExprStmt(syntax.NewAssign(ref(x), lit(2))),
		syntax.NewReturn(ref(x)),
	))
	c := newTestCache(t, p, "options:\n  max-split-nodes: 4\n")
	c.BuildAll()
	err := c.CheckError()
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected a truncation error, got %v", err)
	}
	if c.CheckError() != nil {
		t.Errorf("errors should be popped once")
	}
	if c.Function(f) == nil || !c.Function(f).Graph.Truncated {
		t.Errorf("truncated graphs are still built")
	}
}

func TestUntrackedMembersFromConfig(t *testing.T) {
	p := syntax.NewProgram()
	a := p.NewType("Logger", nil)
	out := a.NewField("out", nil)
	m := a.NewMethod("log")
	m.SetBody(syntax.NewBlock(
		syntax.NewExprStmt(syntax.NewAssign(syntax.NewMemberRef(nil, out), lit(1))),
		syntax.NewReturn(syntax.NewMemberRef(nil, out)),
	))
	for _, test := range []struct {
		yaml    string
		tracked bool
	}{
		{"", true},
		{"untracked-members:\n  - type: Log.*\n    field: out\n", false},
	} {
		c := newTestCache(t, p, test.yaml)
		c.BuildAll()
		v := c.Function(m).Vars.Field(out)
		if v == nil || v.Tracked != test.tracked {
			t.Errorf("with config %q, Logger.out should have tracked=%v", test.yaml, test.tracked)
		}
	}
}
