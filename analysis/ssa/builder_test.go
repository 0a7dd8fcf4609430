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

	"github.com/awslabs/ar-cfgssa/analysis/cfg"
	"github.com/awslabs/ar-cfgssa/analysis/syntax"
)

func TestStraightLine(t *testing.T) {
	p := syntax.NewProgram()
	test := p.NewFunction(nil, "test")
	x, y, z := test.NewLocal("x"), test.NewLocal("y"), test.NewLocal("z")
	x1 := syntax.NewAssign(ref(x), lit(1))
	readX1 := ref(x)
	dead := syntax.NewAssign(ref(z), lit(5))
	x2 := syntax.NewAssign(ref(x), lit(2))
	z2 := syntax.NewAssign(ref(z), lit(6))
	readX2, readY, readZ := ref(x), ref(y), ref(z)
	test.SetBody(block(
		do(x1),
		assign(ref(y), readX1),
		do(dead),
		do(x2),
		do(z2),
		syntax.NewReturn(syntax.NewBinary("+", syntax.NewBinary("+", readX2, readY), readZ)),
	))
	fn := build(p, test)
	vx, vz := fn.Vars.Local(x), fn.Vars.Local(z)

	d1 := defAt(t, fn, x1, vx)
	if d1 == nil {
		t.Fatalf("missing definition of x at %v", x1)
	}
	if got := readOf(t, fn, readX1).Definition(); got != d1 {
		t.Errorf("first read of x should be reached by x = 1, got %v", got)
	}
	if len(d1.Reads()) != 1 {
		t.Errorf("x = 1 should have one read, got %v", d1.Reads())
	}
	explicit, ok := d1.(*ExplicitDefinition)
	if !ok || explicit.Assignable().Kind != AssignmentDef || explicit.Assignable().Source() != x1.Source {
		t.Errorf("unexpected definition %v", d1)
	}
	if got := readOf(t, fn, readX2).Definition(); got != defAt(t, fn, x2, vx) {
		t.Errorf("second read of x should be reached by x = 2, got %v", got)
	}
	if defAt(t, fn, dead, vz) != nil {
		t.Errorf("dead store should not define z")
	}
	if got := readOf(t, fn, readZ).Definition(); got == nil || got != defAt(t, fn, z2, vz) {
		t.Errorf("read of z should be reached by z = 6, got %v", got)
	}
	for _, d := range fn.Definitions() {
		if _, phi := d.(*PhiNode); phi {
			t.Errorf("unexpected phi %v", d)
		}
	}
}

func TestIfPhi(t *testing.T) {
	p := syntax.NewProgram()
	test := p.NewFunction(nil, "test")
	c := test.NewParam("c", syntax.ValueParam)
	x := test.NewLocal("x")
	x1 := syntax.NewAssign(ref(x), lit(1))
	x2 := syntax.NewAssign(ref(x), lit(2))
	r := ref(x)
	test.SetBody(block(syntax.NewIf(ref(c), do(x1), do(x2)), syntax.NewReturn(r)))
	fn := build(p, test)
	vx := fn.Vars.Local(x)
	d1, d2 := defAt(t, fn, x1, vx), defAt(t, fn, x2, vx)

	phi, ok := readOf(t, fn, r).Definition().(*PhiNode)
	if !ok {
		t.Fatalf("read after the if should be reached by a phi, got %v", readOf(t, fn, r).Definition())
	}
	if in := phi.Inputs(); len(in) != 2 || !containsDef(in, d1) || !containsDef(in, d2) {
		t.Errorf("phi inputs should be both assignments, got %v", in)
	}
	if u := phi.UltimateDefinitions(); len(u) != 2 || !containsDef(u, d1) || !containsDef(u, d2) {
		t.Errorf("unexpected ultimate definitions %v", u)
	}
	if fn.Phi(phi.Block(), vx) != phi {
		t.Errorf("phi not registered on its block")
	}
	if !d1.IsLiveAtEndOfBlock(d1.Block()) || d1.IsLiveAtEndOfBlock(phi.Block()) {
		t.Errorf("x = 1 should be live at the end of its block only")
	}
	if len(d1.Reads()) != 0 {
		t.Errorf("x = 1 is only read through the phi")
	}
}

func TestIfWithoutElsePhi(t *testing.T) {
	p := syntax.NewProgram()
	test := p.NewFunction(nil, "test")
	c := test.NewParam("c", syntax.ValueParam)
	x := test.NewLocal("x")
	x0 := syntax.NewAssign(ref(x), lit(0))
	x1 := syntax.NewAssign(ref(x), lit(1))
	r := ref(x)
	test.SetBody(block(do(x0), syntax.NewIf(ref(c), do(x1), nil), syntax.NewReturn(r)))
	fn := build(p, test)
	vx := fn.Vars.Local(x)

	phi, ok := readOf(t, fn, r).Definition().(*PhiNode)
	if !ok {
		t.Fatalf("expected a phi")
	}
	if in := phi.Inputs(); len(in) != 2 || !containsDef(in, defAt(t, fn, x0, vx)) || !containsDef(in, defAt(t, fn, x1, vx)) {
		t.Errorf("unexpected phi inputs %v", in)
	}
}

func TestWhilePhi(t *testing.T) {
	p := syntax.NewProgram()
	test := p.NewFunction(nil, "test")
	c := test.NewParam("c", syntax.ValueParam)
	x := test.NewLocal("x")
	x0 := syntax.NewAssign(ref(x), lit(0))
	inBody := ref(x)
	inc := syntax.NewAssign(ref(x), syntax.NewBinary("+", inBody, lit(1)))
	after := ref(x)
	test.SetBody(block(do(x0), syntax.NewWhile(ref(c), do(inc)), syntax.NewReturn(after)))
	fn := build(p, test)
	vx := fn.Vars.Local(x)
	d0, dInc := defAt(t, fn, x0, vx), defAt(t, fn, inc, vx)

	phi, ok := readOf(t, fn, inBody).Definition().(*PhiNode)
	if !ok {
		t.Fatalf("read in the loop body should be reached by a phi")
	}
	if readOf(t, fn, after).Definition() != phi {
		t.Errorf("read after the loop should be reached by the loop phi")
	}
	if in := phi.Inputs(); len(in) != 2 || !containsDef(in, d0) || !containsDef(in, dInc) {
		t.Errorf("unexpected phi inputs %v", in)
	}
	if len(d0.Reads()) != 0 || len(dInc.Reads()) != 0 {
		t.Errorf("assignments are only read through the phi")
	}
	first := phi.FirstReads()
	if len(first) != 2 || !containsRead(first, readOf(t, fn, inBody)) || !containsRead(first, readOf(t, fn, after)) {
		t.Errorf("unexpected first reads %v", first)
	}
	if last := phi.LastReads(); len(last) != 2 {
		t.Errorf("unexpected last reads %v", last)
	}
	if !fn.LiveIn(phi.Block(), vx) {
		t.Errorf("x should be live at the loop head")
	}
}

func TestFirstAndLastReads(t *testing.T) {
	p := syntax.NewProgram()
	test := p.NewFunction(nil, "test")
	x, y, z := test.NewLocal("x"), test.NewLocal("y"), test.NewLocal("z")
	x1 := syntax.NewAssign(ref(x), lit(1))
	r1, r2 := ref(x), ref(x)
	test.SetBody(block(do(x1), assign(ref(y), r1), assign(ref(z), r2), syntax.NewReturn(nil)))
	fn := build(p, test)
	d := defAt(t, fn, x1, fn.Vars.Local(x))
	read1, read2 := readOf(t, fn, r1), readOf(t, fn, r2)
	if rs := d.Reads(); len(rs) != 2 {
		t.Fatalf("expected 2 reads, got %v", rs)
	}
	if first := d.FirstReads(); len(first) != 1 || first[0] != read1 {
		t.Errorf("unexpected first reads %v", first)
	}
	if last := d.LastReads(); len(last) != 1 || last[0] != read2 {
		t.Errorf("unexpected last reads %v", last)
	}
	if fn.Vars.Local(y) == nil || defAt(t, fn, r1.Parent(), fn.Vars.Local(y)) != nil {
		t.Errorf("y is never read, its definition is dead")
	}
}

// fieldProgram declares a type A with a field f, and methods writing and reading it on the receiver.
type fieldProgram struct {
	p        *syntax.Program
	a        *syntax.Type
	f        *syntax.Member
	set, get *syntax.Callable
}

func newFieldProgram() *fieldProgram {
	p := syntax.NewProgram()
	a := p.NewType("A", nil)
	f := a.NewField("f", nil)
	return &fieldProgram{
		p:   p,
		a:   a,
		f:   f,
		set: a.NewMethod("set").SetBody(block(assign(field(f), lit(0)))),
		get: a.NewMethod("get").SetBody(block(syntax.NewReturn(field(f)))),
	}
}

func TestFieldCallDefinition(t *testing.T) {
	fp := newFieldProgram()
	test := fp.a.NewMethod("test")
	w := syntax.NewAssign(field(fp.f), lit(1))
	call := syntax.NewCall(fp.set, nil)
	r := field(fp.f)
	test.SetBody(block(do(w), do(call), syntax.NewReturn(r)))
	fn := build(fp.p, test)
	v := fn.Vars.Field(fp.f)
	if v == nil || !v.Tracked {
		t.Fatalf("this.f should be tracked")
	}

	cd, ok := readOf(t, fn, r).Definition().(*ImplicitCallDefinition)
	if !ok {
		t.Fatalf("read after the call should be reached by a call definition, got %v", readOf(t, fn, r).Definition())
	}
	if cd.Site != call || cd.Certain() {
		t.Errorf("unexpected call definition %v", cd)
	}
	explicit := defAt(t, fn, w, v)
	if explicit == nil || cd.Prior() != explicit {
		t.Errorf("prior of the call definition should be the assignment, got %v", cd.Prior())
	}
	if u := cd.UltimateDefinitions(); len(u) != 2 || !containsDef(u, cd) || !containsDef(u, explicit) {
		t.Errorf("unexpected ultimate definitions %v", u)
	}
	if exits := readsOfKind(cd, ExitRead); len(exits) != 1 {
		t.Errorf("the field should be read at the exit, got %v", cd.Reads())
	}
	if fn.DefinitionAt(fn.Graph.Entry(), v) != nil {
		t.Errorf("entry definition is dead")
	}
}

func TestFieldCallRead(t *testing.T) {
	fp := newFieldProgram()
	test := fp.a.NewMethod("test")
	w1 := syntax.NewAssign(field(fp.f), lit(1))
	call := syntax.NewCall(fp.get, nil)
	w2 := syntax.NewAssign(field(fp.f), lit(2))
	test.SetBody(block(do(w1), do(call), do(w2)))
	fn := build(fp.p, test)
	v := fn.Vars.Field(fp.f)

	d1 := defAt(t, fn, w1, v)
	if d1 == nil {
		t.Fatalf("this.f = 1 is read by the call to get")
	}
	if rs := readsOfKind(d1, CallRead); len(rs) != 1 || rs[0].Element != call {
		t.Errorf("expected a call read at %v, got %v", call, d1.Reads())
	}
	if defAt(t, fn, call, v) != nil {
		t.Errorf("get does not write f")
	}
	d2 := defAt(t, fn, w2, v)
	if d2 == nil {
		t.Fatalf("this.f = 2 is read at the exit")
	}
	// get may throw, so the exit joins the normal and the exceptional path
	var exit *Read
	for _, r := range fn.ReadsAt(fn.Graph.Exit()) {
		if r.Var == v {
			exit = r
		}
	}
	if exit == nil || exit.Kind != ExitRead {
		t.Fatalf("expected an exit read of %v", v)
	}
	phi, ok := exit.Definition().(*PhiNode)
	if !ok {
		t.Fatalf("expected the exit read to be reached by a phi, got %v", exit.Definition())
	}
	if in := phi.Inputs(); len(in) != 2 || !containsDef(in, d2) || !containsDef(in, d1) {
		t.Errorf("unexpected phi inputs %v", in)
	}
}

func TestFieldWrittenOnceInConstructor(t *testing.T) {
	fp := newFieldProgram()
	w := syntax.NewAssign(field(fp.f), lit(1))
	ctor := fp.a.NewConstructor().SetBody(block(do(w)))
	fn := build(fp.p, ctor)

	v := fn.Vars.Field(fp.f)
	if v == nil || !v.Tracked || v.Kind != PlainFieldOrProp {
		t.Fatalf("a field written in a constructor is tracked, got %v", v)
	}
	defs := fn.DefinitionsOf(v)
	if len(defs) != 1 {
		t.Fatalf("want one definition of %v, got %v", v, defs)
	}
	d, ok := defs[0].(*ExplicitDefinition)
	if !ok || d != defAt(t, fn, w, v) {
		t.Fatalf("want the assignment to define %v, got %v", v, defs[0])
	}
	if exits := readsOfKind(d, ExitRead); len(exits) != 1 {
		t.Errorf("the constructor write should be read at the exit, got %v", d.Reads())
	}
}

func TestFieldEntryDefinition(t *testing.T) {
	fp := newFieldProgram()
	test := fp.a.NewMethod("test")
	r1, r2 := field(fp.f), field(fp.f)
	test.SetBody(block(syntax.NewReturn(syntax.NewBinary("+", r1, r2))))
	fn := build(fp.p, test)
	d, ok := readOf(t, fn, r1).Definition().(*ImplicitEntryDefinition)
	if !ok {
		t.Fatalf("expected an entry definition")
	}
	if readOf(t, fn, r2).Definition() != d || d.Node() != fn.Graph.Entry() {
		t.Errorf("both reads should be reached by the entry definition")
	}
	if len(d.FirstReads()) != 1 || d.FirstReads()[0] != readOf(t, fn, r1) {
		t.Errorf("unexpected first reads %v", d.FirstReads())
	}
}

func TestUntrackedFields(t *testing.T) {
	fp := newFieldProgram()
	g := fp.a.NewField("g", nil)
	h := fp.a.NewField("h", nil)
	h.Volatile = true
	test := fp.a.NewMethod("test")
	rg, rh1, rh2, rf1, rf2 := field(g), field(h), field(h), field(fp.f), field(fp.f)
	sum := syntax.NewBinary("+", syntax.NewBinary("+", rg, rh1), syntax.NewBinary("+", rh2, syntax.NewBinary("+", rf1, rf2)))
	test.SetBody(block(syntax.NewReturn(sum)))

	fn := buildAll(fp.p, Options{Untracked: func(m *syntax.Member) bool { return m == fp.f }}, test)[0]
	for _, r := range []syntax.Element{rg, rh1, rh2, rf1, rf2} {
		read := readOf(t, fn, r)
		d, ok := read.Definition().(*ImplicitUntrackedDefinition)
		if !ok || d.Read != read || read.Var.Tracked {
			t.Errorf("%v should be untracked, got %v", r, read.Definition())
		}
		if d != nil && d.IsLiveAtEndOfBlock(d.Block()) {
			t.Errorf("untracked definitions are never live at the end of a block")
		}
	}
	if readOf(t, fn, rh1).Definition() == readOf(t, fn, rh2).Definition() {
		t.Errorf("each untracked read has its own definition")
	}

	fn = buildAll(fp.p, Options{TrackAllFields: true}, test)[0]
	if _, ok := readOf(t, fn, rg).Definition().(*ImplicitEntryDefinition); !ok {
		t.Errorf("g should be tracked when tracking all fields")
	}
	if _, ok := readOf(t, fn, rh1).Definition().(*ImplicitUntrackedDefinition); !ok {
		t.Errorf("volatile fields are never tracked")
	}
}

func TestQualifiedFields(t *testing.T) {
	p := syntax.NewProgram()
	a := p.NewType("A", nil)
	f := a.NewField("f", nil)
	test := p.NewFunction(nil, "test")
	pa, pb := test.NewParam("a", syntax.ValueParam), test.NewParam("b", syntax.ValueParam)
	x := test.NewLocal("x")
	r1 := syntax.NewMemberRef(ref(pa), f)
	reassign := syntax.NewAssign(ref(pa), ref(pb))
	r2 := syntax.NewMemberRef(ref(pa), f)
	test.SetBody(block(assign(ref(x), r1), do(reassign), syntax.NewReturn(syntax.NewBinary("+", r2, ref(x)))))
	fn := build(p, test)
	va := fn.Vars.Local(pa)
	vaf := fn.Vars.Qualified(va, f)
	if vaf == nil || !vaf.Tracked || vaf.Kind != QualifiedFieldOrProp || vaf.String() != "a.f" {
		t.Fatalf("a.f should be a tracked qualified variable, got %v", vaf)
	}

	q1, ok := readOf(t, fn, r1).Definition().(*ImplicitQualifierDefinition)
	if !ok || q1.Node() != fn.Graph.Entry() {
		t.Fatalf("first read of a.f should be reached by the qualifier definition at the entry")
	}
	if param, ok := q1.Qualifier.(*ExplicitDefinition); !ok || param.Assignable().Kind != ParameterDef {
		t.Errorf("qualifier of the entry definition should be the parameter, got %v", q1.Qualifier)
	}
	q2, ok := readOf(t, fn, r2).Definition().(*ImplicitQualifierDefinition)
	if !ok || !q2.Certain() {
		t.Fatalf("second read of a.f should be reached by a certain qualifier definition")
	}
	if q2.Qualifier == nil || q2.Qualifier != defAt(t, fn, reassign, va) {
		t.Errorf("qualifier of the second definition should be a = b, got %v", q2.Qualifier)
	}
}

func TestMaxQualifierDepth(t *testing.T) {
	p := syntax.NewProgram()
	a := p.NewType("A", nil)
	f, g := a.NewField("f", nil), a.NewField("g", a)
	test := p.NewFunction(nil, "test")
	pa := test.NewParam("a", syntax.ValueParam)
	chain := syntax.NewMemberRef(syntax.NewMemberRef(ref(pa), g), f)
	test.SetBody(block(syntax.NewReturn(chain)))
	p.Finalize()
	vs := Resolve(cfg.Build(test, cfg.Options{}), Options{MaxQualifierDepth: 1})
	if vs.VariableOf(chain) != nil {
		t.Errorf("a.g.f exceeds the qualifier depth")
	}
	if v := vs.VariableOf(chain.Qualifier); v == nil || v.String() != "a.g" {
		t.Errorf("a.g should be resolved, got %v", v)
	}
	vs = Resolve(cfg.Build(test, cfg.Options{}), Options{})
	if v := vs.VariableOf(chain); v == nil || v.String() != "a.g.f" {
		t.Errorf("a.g.f should be resolved without a bound, got %v", v)
	}
}

func TestDuplicateOutArguments(t *testing.T) {
	p := syntax.NewProgram()
	g := p.NewFunction(nil, "g")
	p1, p2 := g.NewParam("p1", syntax.OutParam), g.NewParam("p2", syntax.OutParam)
	g.SetBody(block(assign(ref(p1), lit(1)), assign(ref(p2), lit(2))))
	test := p.NewFunction(nil, "test")
	x := test.NewLocal("x")
	x0 := syntax.NewAssign(ref(x), lit(0))
	out1 := syntax.NewOutArg(ref(x))
	call := syntax.NewCall(g, nil, out1, syntax.NewOutArg(ref(x)))
	r := ref(x)
	test.SetBody(block(do(x0), do(call), syntax.NewReturn(r)))
	fn := build(p, test)
	vx := fn.Vars.Local(x)

	d, ok := readOf(t, fn, r).Definition().(*ExplicitDefinition)
	if !ok {
		t.Fatalf("expected an explicit definition at the call")
	}
	if len(d.Assignables) != 2 || d.Certain() || d.Assignable().Kind != OutRefDef {
		t.Errorf("duplicate out arguments should collapse into one uncertain definition, got %v", d)
	}
	if d.Assignable().Target != out1.X {
		t.Errorf("the first argument should be the representative")
	}
	if d.Prior() == nil || d.Prior() != defAt(t, fn, x0, vx) {
		t.Errorf("prior should be x = 0, got %v", d.Prior())
	}
	if len(d.UltimateDefinitions()) != 2 {
		t.Errorf("unexpected ultimate definitions %v", d.UltimateDefinitions())
	}
}

func TestCapturedVariableReads(t *testing.T) {
	p := syntax.NewProgram()
	outer := p.NewFunction(nil, "outer")
	x, r := outer.NewLocal("x"), outer.NewLocal("r")
	l := outer.NewLambda("l")
	inLambda := ref(x)
	l.SetBody(inLambda)
	decl := syntax.NewLocalDecl(x, lit(1))
	mk := syntax.NewLambdaExpr(l)
	x2 := syntax.NewAssign(ref(x), lit(2))
	call := syntax.NewDelegateCall(ref(r))
	outer.SetBody(block(decl, syntax.NewLocalDecl(r, mk), do(x2), do(call)))
	fns := buildAll(p, Options{}, outer, l)
	fo, fl := fns[0], fns[1]
	vx := fo.Vars.Local(x)

	d1 := defAt(t, fo, decl, vx)
	if d1 == nil {
		t.Fatalf("x = 1 is read by the lambda creation")
	}
	if rs := readsOfKind(d1, ClosureRead); len(rs) != 1 || rs[0].Element != mk {
		t.Errorf("expected a closure read at the lambda creation, got %v", d1.Reads())
	}
	d2 := defAt(t, fo, x2, vx)
	if d2 == nil {
		t.Fatalf("x = 2 is read by the call")
	}
	if rs := readsOfKind(d2, CallRead); len(rs) != 1 || rs[0].Element != call {
		t.Errorf("expected a call read, got %v", d2.Reads())
	}
	if len(readsOfKind(d2, ExitRead)) != 1 {
		t.Errorf("variables read by closures are read at the exit")
	}

	lx := fl.Vars.Local(x)
	if lx == nil || !lx.Captured() || lx.Callable != l {
		t.Fatalf("x should be a captured variable of the lambda")
	}
	if _, ok := readOf(t, fl, inLambda).Definition().(*ImplicitEntryDefinition); !ok {
		t.Errorf("captured read should be reached by an entry definition")
	}
}

func TestCapturedVariableWrites(t *testing.T) {
	p := syntax.NewProgram()
	outer := p.NewFunction(nil, "outer")
	x, w := outer.NewLocal("x"), outer.NewLocal("w")
	writer := outer.NewLambda("writer")
	inLambda := syntax.NewAssign(ref(x), lit(2))
	writer.SetBody(block(do(inLambda)))
	decl := syntax.NewLocalDecl(x, lit(1))
	call := syntax.NewDelegateCall(ref(w))
	r := ref(x)
	outer.SetBody(block(decl, syntax.NewLocalDecl(w, syntax.NewLambdaExpr(writer)), do(call), syntax.NewReturn(r)))
	fns := buildAll(p, Options{}, outer, writer)
	fo, fw := fns[0], fns[1]

	cd, ok := readOf(t, fo, r).Definition().(*ImplicitCallDefinition)
	if !ok || cd.Site != call {
		t.Fatalf("read after the call should be reached by a call definition, got %v", readOf(t, fo, r).Definition())
	}
	if cd.Prior() == nil || cd.Prior() != defAt(t, fo, decl, fo.Vars.Local(x)) {
		t.Errorf("prior should be the declaration, got %v", cd.Prior())
	}
	if len(fo.Vars.Keys()) != 1 {
		t.Errorf("expected x as the only key, got %v", fo.Vars.Keys())
	}

	d := defAt(t, fw, inLambda, fw.Vars.Local(x))
	if d == nil || len(readsOfKind(d, ExitRead)) != 1 {
		t.Errorf("write of a captured variable should be read at the lambda exit")
	}
	if fw.DefinitionAt(fw.Graph.Entry(), fw.Vars.Local(x)) != nil {
		t.Errorf("entry definition is dead")
	}

	skipped := buildAll(p, Options{SkipCallDefinitions: true}, outer)[0]
	if _, ok := readOf(t, skipped, r).Definition().(*ExplicitDefinition); !ok {
		t.Errorf("without call definitions the declaration reaches the read")
	}
}
