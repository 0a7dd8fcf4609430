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

package syntax

import "testing"

func TestFinalizeLinksParents(t *testing.T) {
	p := NewProgram()
	c := p.NewFunction(nil, "main")
	x := c.NewLocal("x")
	assign := NewAssign(NewLocalRef(x), NewLiteral(1))
	stmt := NewExprStmt(assign)
	body := NewBlock(NewLocalDecl(x, nil), stmt)
	c.SetBody(body)
	p.Finalize()

	if body.Parent() != nil {
		t.Errorf("root parent should be nil, got %v", body.Parent())
	}
	if assign.Parent() != stmt {
		t.Errorf("expected assignment parent to be the expression statement")
	}
	if assign.Target.Parent() != assign || assign.Source.Parent() != assign {
		t.Errorf("assignment operands not linked to the assignment")
	}
	if assign.Callable() != c {
		t.Errorf("expected enclosing callable %v, got %v", c, assign.Callable())
	}
	if p.Element(assign.ID()) != assign {
		t.Errorf("element lookup by ID failed")
	}
	n := p.NumElements()
	p.Finalize()
	if p.NumElements() != n {
		t.Errorf("Finalize is not idempotent: %d elements, then %d", n, p.NumElements())
	}
}

func TestLambdaBodyBelongsToLambda(t *testing.T) {
	p := NewProgram()
	c := p.NewFunction(nil, "outer")
	l := c.NewLambda("lambda")
	inner := NewReturn(NewLiteral(1))
	l.SetBody(NewBlock(inner))
	c.SetBody(NewBlock(NewExprStmt(NewLambdaExpr(l))))
	p.Finalize()

	if inner.Callable() != l {
		t.Errorf("lambda body should belong to the lambda, got %v", inner.Callable())
	}
	if l.Root() != c || !c.Encloses(l) || l.Encloses(c) {
		t.Errorf("wrong nesting between %v and %v", c, l)
	}
}

func TestTypesAndMembers(t *testing.T) {
	p := NewProgram()
	a := p.NewType("A", nil)
	b := p.NewType("B", a)
	if !b.IsSubtypeOf(a) || !b.IsSubtypeOf(p.Object) || a.IsSubtypeOf(b) {
		t.Errorf("wrong subtyping between A and B")
	}
	if !p.DivideByZero.IsSubtypeOf(p.Exception) {
		t.Errorf("well-known exceptions should inherit from Exception")
	}

	tests := []struct {
		name      string
		member    *Member
		fieldLike bool
	}{
		{"field", a.NewField("f", nil), true},
		{"auto-property", a.NewProperty("p", nil), true},
		{"virtual property", func() *Member { m := a.NewProperty("v", nil); m.Virtual = true; return m }(), false},
		{"property with getter", a.NewProperty("g", nil).WithAccessors(a.NewMethod("get_g"), nil), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.member.FieldLike() != tt.fieldLike {
				t.Errorf("FieldLike() = %v, want %v", tt.member.FieldLike(), tt.fieldLike)
			}
		})
	}
}

func TestOverriders(t *testing.T) {
	p := NewProgram()
	a := p.NewType("A", nil)
	b := p.NewType("B", a)
	c := p.NewType("C", b)
	ma := a.NewMethod("m")
	ma.Virtual = true
	mb := b.NewMethod("m")
	mb.Overrides = ma
	mc := c.NewMethod("m")
	mc.Overrides = mb
	p.Finalize()

	if len(ma.Overriders()) != 2 {
		t.Errorf("expected 2 overriders of A.m, got %v", ma.Overriders())
	}
	if len(mb.Overriders()) != 1 || mb.Overriders()[0] != mc {
		t.Errorf("expected C.m to override B.m, got %v", mb.Overriders())
	}
}

func TestChildrenSkipsNil(t *testing.T) {
	s := NewIf(NewLiteral(true), NewEmpty(), nil)
	if n := len(Children(s)); n != 2 {
		t.Errorf("expected 2 children, got %d", n)
	}
	try := NewTry(NewBlock(), nil, nil)
	if n := len(Children(try)); n != 1 {
		t.Errorf("expected the nil finally block to be skipped, got %d children", n)
	}
}
