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

// An Element is a statement or expression of a callable body.
type Element interface {
	// ID is the identifier assigned by Program.Finalize
	ID() int
	// Parent is the enclosing element, nil for the root of a callable body
	Parent() Element
	// Callable is the callable whose body contains the element
	Callable() *Callable
	Pos() Pos
	// SetPos records the source position of the element
	SetPos(p Pos)
	String() string
	base() *node
}

// Stmt is a statement element.
type Stmt interface {
	Element
	stmtNode()
}

// Expr is an expression element.
type Expr interface {
	Element
	exprNode()
}

type node struct {
	id       int
	parent   Element
	callable *Callable
	pos      Pos
}

func (n *node) ID() int             { return n.id }
func (n *node) Parent() Element     { return n.parent }
func (n *node) Callable() *Callable { return n.callable }
func (n *node) Pos() Pos            { return n.pos }
func (n *node) SetPos(p Pos)        { n.pos = p }
func (n *node) base() *node         { return n }

type stmt struct{ node }

func (stmt) stmtNode() {}

type expr struct{ node }

func (expr) exprNode() {}

// Statements

// Block is a sequence of statements
type Block struct {
	stmt
	Stmts []Stmt
}

// ExprStmt evaluates an expression for its effects
type ExprStmt struct {
	stmt
	X Expr
}

// If is a conditional statement. Else may be nil.
type If struct {
	stmt
	Cond Expr
	Then Stmt
	Else Stmt
}

// While is a pre-tested loop
type While struct {
	stmt
	Cond Expr
	Body Stmt
}

// DoWhile is a post-tested loop
type DoWhile struct {
	stmt
	Body Stmt
	Cond Expr
}

// For is a three-clause loop. A nil condition loops until exited by a jump.
type For struct {
	stmt
	Init   []Stmt
	Cond   Expr
	Update []Expr
	Body   Stmt
}

// ForEach iterates Var over the elements of Collection
type ForEach struct {
	stmt
	Var        *Variable
	Collection Expr
	Body       Stmt
}

// Switch tests Tag against each case in turn
type Switch struct {
	stmt
	Tag   Expr
	Cases []*Case
}

// Case is a switch section. It either matches a constant Value, or a Type (binding the matched value to Bind when
// non-nil), or is the Default section. Guard is an optional boolean condition evaluated after a match.
type Case struct {
	stmt
	Value   *Literal
	Type    *Type
	Bind    *Variable
	Guard   Expr
	Body    []Stmt
	Default bool
}

// Try is a try statement with optional catch clauses and finally block
type Try struct {
	stmt
	Body    *Block
	Catches []*Catch
	Finally *Block
}

// Catch is a catch clause. A nil Type catches every exception; Var and Filter are optional.
type Catch struct {
	stmt
	Type   *Type
	Var    *Variable
	Filter Expr
	Body   *Block
}

// Break exits the innermost loop or switch
type Break struct{ stmt }

// Continue jumps to the next iteration of the innermost loop
type Continue struct{ stmt }

// Return exits the callable, with an optional value
type Return struct {
	stmt
	X Expr
}

// Throw raises X, or rethrows the exception of the enclosing catch clause when X is nil
type Throw struct {
	stmt
	X Expr
}

// Goto jumps to a labeled statement
type Goto struct {
	stmt
	Label string
}

// GotoCase jumps to the case of the innermost switch matching Value
type GotoCase struct {
	stmt
	Value *Literal
}

// GotoDefault jumps to the default case of the innermost switch
type GotoDefault struct{ stmt }

// Labeled is a statement with a label
type Labeled struct {
	stmt
	Label string
	Stmt  Stmt
}

// LocalDecl declares Var, with an optional initializer
type LocalDecl struct {
	stmt
	Var  *Variable
	Init Expr
}

// Empty is the empty statement
type Empty struct{ stmt }

// Expressions

// Literal is a constant. A nil Value is the null literal.
type Literal struct {
	expr
	Value any
	Type  *Type
}

// LocalRef is an access to a local variable or parameter
type LocalRef struct {
	expr
	Var *Variable
}

// MemberRef is an access to a field or property. A nil Qualifier means an implicit this for instance members.
type MemberRef struct {
	expr
	Qualifier Expr
	Member    *Member
}

// This is the receiver of the enclosing instance callable
type This struct{ expr }

// Assign stores Source into Target. Op is empty for a plain assignment and the operator ("+=", ...) for a
// compound assignment, which also reads Target.
type Assign struct {
	expr
	Op     string
	Target Expr
	Source Expr
}

// IncDec is an increment or decrement ("++" or "--") of Target
type IncDec struct {
	expr
	Op     string
	Prefix bool
	Target Expr
}

// Binary is a binary arithmetic or comparison operation
type Binary struct {
	expr
	Op   string
	L, R Expr
}

// Unary is a unary arithmetic operation
type Unary struct {
	expr
	Op string
	X  Expr
}

// Not is the logical negation
type Not struct {
	expr
	X Expr
}

// And is the short-circuiting conjunction
type And struct {
	expr
	L, R Expr
}

// Or is the short-circuiting disjunction
type Or struct {
	expr
	L, R Expr
}

// Coalesce evaluates R only when L is null
type Coalesce struct {
	expr
	L, R Expr
}

// Conditional is the ternary operator
type Conditional struct {
	expr
	Cond, Then, Else Expr
}

// Call invokes Target on Receiver (nil for static calls or an implicit this), or invokes the delegate value
// Delegate when Target is nil. NonVirtual marks base calls that do not dispatch to overriders.
type Call struct {
	expr
	Target     *Callable
	Receiver   Expr
	Delegate   Expr
	Args       []Expr
	NonVirtual bool
}

// RefArg passes X by reference as a call argument
type RefArg struct {
	expr
	Mode ParamMode
	X    Expr
}

// New creates an instance of Type with constructor Ctor, then evaluates the member initializers in Init, which
// are assignments to members with a nil qualifier.
type New struct {
	expr
	Type *Type
	Ctor *Callable
	Args []Expr
	Init []Expr
}

// NewArray creates an array from its lengths or its initializer elements
type NewArray struct {
	expr
	Elem    *Type
	Lengths []Expr
	Elems   []Expr
}

// Lambda creates a delegate value for the nested callable Fn
type Lambda struct {
	expr
	Fn *Callable
}

// MethodRef creates a delegate value for Target, bound to Receiver when non-nil
type MethodRef struct {
	expr
	Target   *Callable
	Receiver Expr
}

// Is tests the runtime type of X, binding the value to Bind on success when non-nil
type Is struct {
	expr
	X    Expr
	Type *Type
	Bind *Variable
}

// As converts X to Type, or yields null
type As struct {
	expr
	X    Expr
	Type *Type
}

// Cast converts X to Type, or throws
type Cast struct {
	expr
	X    Expr
	Type *Type
}

// ThrowExpr raises X in expression position
type ThrowExpr struct {
	expr
	X Expr
}

// Index accesses an element of X
type Index struct {
	expr
	X   Expr
	Key Expr
}

// String methods

func (s *Block) String() string       { return "{ ... }" }
func (s *ExprStmt) String() string    { return s.X.String() + ";" }
func (s *If) String() string          { return "if (" + str(s.Cond) + ") ..." }
func (s *While) String() string       { return "while (" + str(s.Cond) + ") ..." }
func (s *DoWhile) String() string     { return "do ... while (" + str(s.Cond) + ")" }
func (s *For) String() string         { return "for (...;" + str(s.Cond) + ";...) ..." }
func (s *ForEach) String() string     { return "foreach (" + s.Var.String() + " in " + str(s.Collection) + ") ..." }
func (s *Switch) String() string      { return "switch (" + str(s.Tag) + ") {...}" }
func (s *Try) String() string         { return "try {...}" }
func (s *Break) String() string       { return "break;" }
func (s *Continue) String() string    { return "continue;" }
func (s *Goto) String() string        { return "goto " + s.Label + ";" }
func (s *GotoCase) String() string    { return "goto case " + str(s.Value) + ";" }
func (s *GotoDefault) String() string { return "goto default;" }
func (s *Labeled) String() string     { return s.Label + ": ..." }
func (s *Empty) String() string       { return ";" }

func (s *Case) String() string {
	switch {
	case s.Default:
		return "default:"
	case s.Type != nil && s.Bind != nil:
		return "case " + s.Type.Name + " " + s.Bind.Name + ":"
	case s.Type != nil:
		return "case " + s.Type.Name + ":"
	default:
		return "case " + str(s.Value) + ":"
	}
}

func (s *Catch) String() string {
	name := "Exception"
	if s.Type != nil {
		name = s.Type.Name
	}
	if s.Var != nil {
		name += " " + s.Var.Name
	}
	return "catch (" + name + ") {...}"
}

func (s *Return) String() string {
	if s.X == nil {
		return "return;"
	}
	return "return " + s.X.String() + ";"
}

func (s *Throw) String() string {
	if s.X == nil {
		return "throw;"
	}
	return "throw " + s.X.String() + ";"
}

func (s *LocalDecl) String() string {
	if s.Init == nil {
		return "var " + s.Var.Name + ";"
	}
	return "var " + s.Var.Name + " = " + s.Init.String() + ";"
}

func (e *Literal) String() string {
	switch v := e.Value.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (e *LocalRef) String() string { return e.Var.Name }

func (e *MemberRef) String() string {
	if e.Qualifier == nil {
		return e.Member.Name
	}
	return e.Qualifier.String() + "." + e.Member.Name
}

func (e *This) String() string { return "this" }

func (e *Assign) String() string {
	op := e.Op
	if op == "" {
		op = "="
	}
	return str(e.Target) + " " + op + " " + str(e.Source)
}

func (e *IncDec) String() string {
	if e.Prefix {
		return e.Op + str(e.Target)
	}
	return str(e.Target) + e.Op
}

func (e *Binary) String() string      { return str(e.L) + " " + e.Op + " " + str(e.R) }
func (e *Unary) String() string       { return e.Op + str(e.X) }
func (e *Not) String() string         { return "!" + str(e.X) }
func (e *And) String() string         { return str(e.L) + " && " + str(e.R) }
func (e *Or) String() string          { return str(e.L) + " || " + str(e.R) }
func (e *Coalesce) String() string    { return str(e.L) + " ?? " + str(e.R) }
func (e *Conditional) String() string { return str(e.Cond) + " ? " + str(e.Then) + " : " + str(e.Else) }
func (e *RefArg) String() string      { return e.Mode.String() + " " + str(e.X) }
func (e *Lambda) String() string      { return "(...) => " + e.Fn.Name }
func (e *Is) String() string          { return str(e.X) + " is " + e.Type.String() }
func (e *As) String() string          { return str(e.X) + " as " + e.Type.String() }
func (e *Cast) String() string        { return "(" + e.Type.String() + ")" + str(e.X) }
func (e *ThrowExpr) String() string   { return "throw " + str(e.X) }
func (e *Index) String() string       { return str(e.X) + "[" + str(e.Key) + "]" }

func (e *Call) String() string {
	var name string
	switch {
	case e.Target == nil:
		name = str(e.Delegate)
	case e.Receiver != nil:
		name = e.Receiver.String() + "." + e.Target.Name
	default:
		name = e.Target.Name
	}
	return name + "(" + strs(e.Args) + ")"
}

func (e *New) String() string {
	return "new " + e.Type.String() + "(" + strs(e.Args) + ")"
}

func (e *NewArray) String() string {
	if len(e.Elems) > 0 {
		return "new " + e.Elem.String() + "[] {" + strs(e.Elems) + "}"
	}
	return "new " + e.Elem.String() + "[" + strs(e.Lengths) + "]"
}

func (e *MethodRef) String() string {
	if e.Receiver == nil {
		return "&" + e.Target.Name
	}
	return "&" + e.Receiver.String() + "." + e.Target.Name
}

func str(e Element) string {
	if isNil(e) {
		return ""
	}
	return e.String()
}

func strs(es []Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = str(e)
	}
	return strings.Join(parts, ", ")
}
