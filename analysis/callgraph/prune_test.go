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

package callgraph

import (
	"testing"

	"github.com/awslabs/ar-cfgssa/analysis/syntax"
)

// fieldProgram declares a type A with a field f, a setter writing this.f, a getter reading it, and callers
// reaching the setter through intra-instance and cross-instance calls.
type fieldProgram struct {
	p                   *syntax.Program
	f                   *syntax.Member
	set, get, run, swap *syntax.Callable
	outer               *syntax.Callable
	// sites in run, swap and outer
	runSet, swapSet, outerRun, outerSwap, outerGet, outerNothing syntax.Element
}

func newFieldProgram() *fieldProgram {
	fp := &fieldProgram{p: syntax.NewProgram()}
	a := fp.p.NewType("A", nil)
	fp.f = a.NewField("f", nil)
	fp.set = a.NewMethod("set").SetBody(body(stmt(syntax.NewAssign(syntax.NewMemberRef(nil, fp.f), syntax.NewLiteral(1)))))
	fp.get = a.NewMethod("get").SetBody(syntax.NewMemberRef(syntax.NewThis(), fp.f))
	nothing := a.NewMethod("nothing").SetBody(body())

	fp.run = a.NewMethod("run")
	fp.runSet = syntax.NewCall(fp.set, nil)
	fp.run.SetBody(body(stmt(fp.runSet.(*syntax.Call))))

	fp.swap = a.NewMethod("swap")
	other := fp.swap.NewParam("other", syntax.ValueParam)
	fp.swapSet = syntax.NewCall(fp.set, syntax.NewLocalRef(other))
	fp.swap.SetBody(body(stmt(fp.swapSet.(*syntax.Call))))

	fp.outer = a.NewMethod("outer")
	fp.outerRun = syntax.NewCall(fp.run, syntax.NewThis())
	fp.outerSwap = syntax.NewCall(fp.swap, nil, syntax.NewThis())
	fp.outerGet = syntax.NewCall(fp.get, nil)
	fp.outerNothing = syntax.NewCall(nothing, nil)
	fp.outer.SetBody(body(
		stmt(fp.outerRun.(*syntax.Call)),
		stmt(fp.outerSwap.(*syntax.Call)),
		stmt(fp.outerGet.(*syntax.Call)),
		stmt(fp.outerNothing.(*syntax.Call)),
	))
	return fp
}

func TestEffects(t *testing.T) {
	fp := newFieldProgram()
	g := Build(fp.p, Options{})
	if eff := g.Effects(fp.set); !eff.OwnWrites[fp.f] || eff.OtherWrites[fp.f] || eff.Reads(fp.f) {
		t.Errorf("set should only write its own f: %+v", eff)
	}
	if eff := g.Effects(fp.get); !eff.OwnReads[fp.f] || eff.Writes(fp.f) {
		t.Errorf("get should only read its own f: %+v", eff)
	}
	if eff := g.Effects(fp.outer); eff.Writes(fp.f) || eff.Reads(fp.f) {
		t.Errorf("outer does not access f directly: %+v", eff)
	}
}

func TestMayMutateMembers(t *testing.T) {
	fp := newFieldProgram()
	g := Build(fp.p, Options{})
	k := MemberKey(fp.f)
	for _, pr := range []*Pruned{
		Prune(g, nil),
		Prune(g, map[Key][]*syntax.Callable{k: {fp.run, fp.swap, fp.outer}}),
	} {
		tests := []struct {
			name        string
			site        syntax.Element
			ownInstance bool
			want        bool
		}{
			{"intra-instance call to writer", fp.runSet, true, true},
			{"cross-instance call, own field", fp.swapSet, true, false},
			{"cross-instance call, qualified field", fp.swapSet, false, true},
			{"intra-instance chain", fp.outerRun, true, true},
			{"call reaching a cross-instance write", fp.outerSwap, true, true},
			{"reader only", fp.outerGet, true, false},
			{"no access", fp.outerNothing, false, false},
		}
		for _, test := range tests {
			if got := pr.MayMutate(test.site, k, test.ownInstance); got != test.want {
				t.Errorf("%s: MayMutate = %v, want %v", test.name, got, test.want)
			}
		}
		if !pr.MayRead(fp.outerGet, k) {
			t.Errorf("call to get should read f")
		}
		if pr.MayRead(fp.outerRun, k) || pr.MayRead(fp.outerNothing, k) {
			t.Errorf("calls to run and nothing do not read f")
		}
	}
}

func TestPruneRestriction(t *testing.T) {
	fp := newFieldProgram()
	g := Build(fp.p, Options{})
	k := MemberKey(fp.f)
	// only run tracks f: swap is not reachable from its call sites, so the table ignores it
	pr := Prune(g, map[Key][]*syntax.Callable{k: {fp.run}})
	if pr.Keys() != 1 {
		t.Fatalf("expected one table, got %d", pr.Keys())
	}
	if !pr.MayMutate(fp.runSet, k, true) {
		t.Errorf("run's call to set should mutate f")
	}
	if pr.MayMutate(fp.outerSwap, k, true) {
		t.Errorf("swap is outside the pruned table")
	}
}

func TestMayMutateCapturedVariables(t *testing.T) {
	p := syntax.NewProgram()
	main := p.NewFunction(nil, "main")
	x := main.NewLocal("x")
	d := main.NewLocal("d")
	writer := main.NewLambda("writer").SetBody(body(stmt(syntax.NewAssign(syntax.NewLocalRef(x), syntax.NewLiteral(2)))))
	reader := main.NewLambda("reader").SetBody(syntax.NewLocalRef(x))
	r := main.NewLocal("r")
	callWriter := syntax.NewDelegateCall(syntax.NewLocalRef(d))
	callReader := syntax.NewDelegateCall(syntax.NewLocalRef(r))
	unrelated := p.NewFunction(nil, "unrelated").SetBody(body())
	callUnrelated := syntax.NewCall(unrelated, nil)
	main.SetBody(body(
		syntax.NewLocalDecl(x, syntax.NewLiteral(1)),
		syntax.NewLocalDecl(d, syntax.NewLambdaExpr(writer)),
		syntax.NewLocalDecl(r, syntax.NewLambdaExpr(reader)),
		stmt(callWriter),
		stmt(callReader),
		stmt(callUnrelated),
	))

	g := Build(p, Options{})
	if eff := g.Effects(writer); !eff.CapturedWrites[x] {
		t.Errorf("writer should write captured x")
	}
	if eff := g.Effects(main); eff.CapturedWrites[x] || eff.CapturedReads[x] {
		t.Errorf("x is not captured in main")
	}
	pr := Prune(g, map[Key][]*syntax.Callable{VariableKey(x): {main}})
	k := VariableKey(x)
	if !pr.MayMutate(callWriter, k, false) || pr.MayMutate(callReader, k, false) || pr.MayMutate(callUnrelated, k, false) {
		t.Errorf("only the call to writer may mutate x")
	}
	if !pr.MayRead(callReader, k) || pr.MayRead(callWriter, k) {
		t.Errorf("only the call to reader may read x")
	}
	if !pr.Reaches(main, writer) || pr.Reaches(writer, main) || !pr.Reaches(unrelated, unrelated) {
		t.Errorf("unexpected reachability")
	}
}
