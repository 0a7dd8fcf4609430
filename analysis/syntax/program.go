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

import (
	"fmt"
	"strings"
)

// Pos is a source position. The zero value is an unknown position.
type Pos struct {
	Line   int
	Column int
}

// IsValid returns true if the position is known.
func (p Pos) IsValid() bool { return p.Line > 0 }

func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// A Type is a class in the single-inheritance hierarchy of the program.
type Type struct {
	Name      string
	Base      *Type
	Members   []*Member
	Callables []*Callable
	program   *Program
}

// IsSubtypeOf returns true if t is u or inherits from u.
func (t *Type) IsSubtypeOf(u *Type) bool {
	if u == nil {
		return false
	}
	for x := t; x != nil; x = x.Base {
		if x == u {
			return true
		}
	}
	return false
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	return t.Name
}

// NewField declares an instance field of type typ on t.
func (t *Type) NewField(name string, typ *Type) *Member {
	return t.newMember(name, FieldMember, typ)
}

// NewProperty declares an instance property of type typ on t, without accessors.
func (t *Type) NewProperty(name string, typ *Type) *Member {
	return t.newMember(name, PropertyMember, typ)
}

func (t *Type) newMember(name string, kind MemberKind, typ *Type) *Member {
	m := &Member{Name: name, Kind: kind, Owner: t, Type: typ, index: len(t.program.Members)}
	t.Members = append(t.Members, m)
	t.program.Members = append(t.program.Members, m)
	return m
}

// NewMethod declares an instance method on t.
func (t *Type) NewMethod(name string) *Callable {
	c := t.program.newCallable(name, MethodCallable, t)
	t.Callables = append(t.Callables, c)
	return c
}

// NewConstructor declares a constructor of t.
func (t *Type) NewConstructor() *Callable {
	c := t.program.newCallable(".ctor", ConstructorCallable, t)
	t.Callables = append(t.Callables, c)
	return c
}

// MemberKind distinguishes fields from properties.
type MemberKind int

const (
	// FieldMember is a field
	FieldMember MemberKind = iota
	// PropertyMember is a property, possibly with accessor callables
	PropertyMember
)

// A Member is a field or a property.
type Member struct {
	Name     string
	Kind     MemberKind
	Owner    *Type
	Type     *Type
	Static   bool
	Volatile bool
	Virtual  bool
	// Getter and Setter are the accessors of a property with a user-defined body. They are nil for
	// auto-properties and fields.
	Getter *Callable
	Setter *Callable
	index  int
}

// Index returns the position of the member in Program.Members.
func (m *Member) Index() int { return m.index }

// FieldLike returns true when accessing the member cannot run user code: fields, and non-virtual properties
// without user-defined accessors.
func (m *Member) FieldLike() bool {
	return m.Kind == FieldMember || (!m.Virtual && m.Getter == nil && m.Setter == nil)
}

// WithAccessors gives a property a getter and a setter, either of which may be nil.
func (m *Member) WithAccessors(getter, setter *Callable) *Member {
	m.Getter = getter
	m.Setter = setter
	if getter != nil {
		getter.Kind = AccessorCallable
		getter.Static = m.Static
	}
	if setter != nil {
		setter.Kind = AccessorCallable
		setter.Static = m.Static
	}
	return m
}

func (m *Member) String() string {
	if m.Owner == nil {
		return m.Name
	}
	return m.Owner.Name + "." + m.Name
}

// CallableKind classifies callables.
type CallableKind int

const (
	// MethodCallable is an ordinary method or a top-level function when the owner is nil
	MethodCallable CallableKind = iota
	// ConstructorCallable is an instance constructor
	ConstructorCallable
	// AccessorCallable is a property getter or setter
	AccessorCallable
	// LambdaCallable is an anonymous function nested in another callable
	LambdaCallable
)

// A Callable is a method, constructor, accessor or lambda.
type Callable struct {
	Name      string
	Kind      CallableKind
	Owner     *Type
	Static    bool
	Virtual   bool
	Overrides *Callable
	Returns   *Type
	Params    []*Variable
	Locals    []*Variable
	// Body is a statement or, for expression-bodied callables, an expression. It is nil for abstract callables.
	Body Element
	// Outer is the callable a lambda is nested in.
	Outer      *Callable
	overriders []*Callable
	index      int
	program    *Program
}

// Index returns the position of the callable in Program.Callables.
func (c *Callable) Index() int { return c.index }

// Program returns the program declaring c.
func (c *Callable) Program() *Program { return c.program }

// NewParam declares a parameter of c.
func (c *Callable) NewParam(name string, mode ParamMode) *Variable {
	v := &Variable{Name: name, Callable: c, Param: true, Mode: mode}
	c.Params = append(c.Params, v)
	return v
}

// NewLocal declares a local variable of c.
func (c *Callable) NewLocal(name string) *Variable {
	v := &Variable{Name: name, Callable: c}
	c.Locals = append(c.Locals, v)
	return v
}

// NewLambda declares an anonymous function nested in c.
func (c *Callable) NewLambda(name string) *Callable {
	l := c.program.newCallable(name, LambdaCallable, c.Owner)
	l.Outer = c
	l.Static = c.Static
	return l
}

// SetBody attaches a body to c and returns c.
func (c *Callable) SetBody(body Element) *Callable {
	c.Body = body
	return c
}

// IsInstance returns true when c executes with a receiver: instance methods, constructors and accessors, and
// lambdas nested in such callables.
func (c *Callable) IsInstance() bool {
	return !c.Static && c.Owner != nil
}

// Overriders returns the callables that directly or transitively override c. Computed by Program.Finalize.
func (c *Callable) Overriders() []*Callable { return c.overriders }

// Root returns the outermost callable enclosing c, or c itself.
func (c *Callable) Root() *Callable {
	r := c
	for r.Outer != nil {
		r = r.Outer
	}
	return r
}

// Encloses returns true if d is c or nested (transitively) in c.
func (c *Callable) Encloses(d *Callable) bool {
	for x := d; x != nil; x = x.Outer {
		if x == c {
			return true
		}
	}
	return false
}

func (c *Callable) String() string {
	var b strings.Builder
	if c.Outer != nil {
		b.WriteString(c.Outer.String())
		b.WriteString("$")
	} else if c.Owner != nil {
		b.WriteString(c.Owner.Name)
		b.WriteString(".")
	}
	b.WriteString(c.Name)
	return b.String()
}

// ParamMode is the passing mode of a parameter or argument.
type ParamMode int

const (
	// ValueParam is passed by value
	ValueParam ParamMode = iota
	// RefParam is passed by reference, initialized by the caller
	RefParam
	// OutParam is passed by reference and must be assigned by the callee
	OutParam
)

func (m ParamMode) String() string {
	switch m {
	case RefParam:
		return "ref"
	case OutParam:
		return "out"
	default:
		return "value"
	}
}

// A Variable is a local variable or parameter, declared in Callable.
type Variable struct {
	Name     string
	Callable *Callable
	Param    bool
	Mode     ParamMode
	Type     *Type
}

func (v *Variable) String() string { return v.Name }

// A Program is the unit of analysis: the set of types and callables whose control flow and SSA form is computed.
type Program struct {
	Types     []*Type
	Members   []*Member
	Callables []*Callable

	// Object is the root of the type hierarchy
	Object *Type
	// Exception is the root of the exception hierarchy
	Exception *Type
	// InvalidCast is thrown by failing casts
	InvalidCast *Type
	// DivideByZero is thrown by integer division and remainder
	DivideByZero *Type
	// IndexOutOfRange is thrown by indexer accesses
	IndexOutOfRange *Type

	elements  []Element
	finalized bool
}

// NewProgram returns an empty program with the well-known types declared.
func NewProgram() *Program {
	p := &Program{}
	p.Object = p.NewType("Object", nil)
	p.Exception = p.NewType("Exception", p.Object)
	p.InvalidCast = p.NewType("InvalidCastException", p.Exception)
	p.DivideByZero = p.NewType("DivideByZeroException", p.Exception)
	p.IndexOutOfRange = p.NewType("IndexOutOfRangeException", p.Exception)
	return p
}

// NewType declares a class named name inheriting from base. A nil base means Object.
func (p *Program) NewType(name string, base *Type) *Type {
	if base == nil && p.Object != nil {
		base = p.Object
	}
	t := &Type{Name: name, Base: base, program: p}
	p.Types = append(p.Types, t)
	return t
}

// NewStaticField declares a static field on t.
func (p *Program) NewStaticField(t *Type, name string, typ *Type) *Member {
	m := t.NewField(name, typ)
	m.Static = true
	return m
}

// NewFunction declares a static callable. The owner may be nil for top-level functions.
func (p *Program) NewFunction(owner *Type, name string) *Callable {
	c := p.newCallable(name, MethodCallable, owner)
	c.Static = true
	if owner != nil {
		owner.Callables = append(owner.Callables, c)
	}
	return c
}

func (p *Program) newCallable(name string, kind CallableKind, owner *Type) *Callable {
	c := &Callable{Name: name, Kind: kind, Owner: owner, index: len(p.Callables), program: p}
	p.Callables = append(p.Callables, c)
	return c
}

// Element returns the element with identifier id, or nil.
func (p *Program) Element(id int) Element {
	if id < 0 || id >= len(p.elements) {
		return nil
	}
	return p.elements[id]
}

// NumElements returns the number of elements linked by Finalize.
func (p *Program) NumElements() int { return len(p.elements) }

// Finalized returns true once Finalize has run.
func (p *Program) Finalized() bool { return p.finalized }

// Finalize links every element of every callable body to its parent and enclosing callable, assigns element
// identifiers and computes the overriders of virtual callables. It is idempotent.
func (p *Program) Finalize() {
	if p.finalized {
		return
	}
	p.finalized = true
	for _, c := range p.Callables {
		if c.Body != nil {
			p.link(c.Body, nil, c)
		}
	}
	for _, c := range p.Callables {
		for o := c.Overrides; o != nil; o = o.Overrides {
			o.overriders = append(o.overriders, c)
		}
	}
}

func (p *Program) link(e Element, parent Element, c *Callable) {
	n := e.base()
	n.id = len(p.elements)
	n.parent = parent
	n.callable = c
	p.elements = append(p.elements, e)
	for _, child := range Children(e) {
		p.link(child, e, c)
	}
}
