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

// Constructors for statements. Pass an untyped nil for an absent optional sub-element.

// NewBlock returns a block of statements.
func NewBlock(stmts ...Stmt) *Block { return &Block{Stmts: stmts} }

// NewExprStmt returns an expression statement.
func NewExprStmt(x Expr) *ExprStmt { return &ExprStmt{X: x} }

// NewIf returns a conditional statement; els may be nil.
func NewIf(cond Expr, then, els Stmt) *If { return &If{Cond: cond, Then: then, Else: els} }

// NewWhile returns a pre-tested loop.
func NewWhile(cond Expr, body Stmt) *While { return &While{Cond: cond, Body: body} }

// NewDoWhile returns a post-tested loop.
func NewDoWhile(body Stmt, cond Expr) *DoWhile { return &DoWhile{Body: body, Cond: cond} }

// NewFor returns a three-clause loop.
func NewFor(init []Stmt, cond Expr, update []Expr, body Stmt) *For {
	return &For{Init: init, Cond: cond, Update: update, Body: body}
}

// NewForEach returns a loop over the elements of coll.
func NewForEach(v *Variable, coll Expr, body Stmt) *ForEach {
	return &ForEach{Var: v, Collection: coll, Body: body}
}

// NewSwitch returns a switch statement.
func NewSwitch(tag Expr, cases ...*Case) *Switch { return &Switch{Tag: tag, Cases: cases} }

// NewCase returns a constant-pattern case.
func NewCase(value *Literal, body ...Stmt) *Case { return &Case{Value: value, Body: body} }

// NewTypeCase returns a type-pattern case binding the value to bind, which may be nil.
func NewTypeCase(t *Type, bind *Variable, body ...Stmt) *Case {
	return &Case{Type: t, Bind: bind, Body: body}
}

// NewDefault returns the default case.
func NewDefault(body ...Stmt) *Case { return &Case{Default: true, Body: body} }

// WithGuard sets the guard of c.
func (c *Case) WithGuard(guard Expr) *Case {
	c.Guard = guard
	return c
}

// NewTry returns a try statement; finally may be nil.
func NewTry(body *Block, catches []*Catch, finally *Block) *Try {
	return &Try{Body: body, Catches: catches, Finally: finally}
}

// NewCatch returns a catch clause; t and v may be nil.
func NewCatch(t *Type, v *Variable, body *Block) *Catch { return &Catch{Type: t, Var: v, Body: body} }

// WithFilter sets the filter of c.
func (c *Catch) WithFilter(filter Expr) *Catch {
	c.Filter = filter
	return c
}

// NewBreak returns a break statement.
func NewBreak() *Break { return &Break{} }

// NewContinue returns a continue statement.
func NewContinue() *Continue { return &Continue{} }

// NewReturn returns a return statement; x may be nil.
func NewReturn(x Expr) *Return { return &Return{X: x} }

// NewThrow returns a throw statement; a nil x rethrows.
func NewThrow(x Expr) *Throw { return &Throw{X: x} }

// NewGoto returns a goto statement.
func NewGoto(label string) *Goto { return &Goto{Label: label} }

// NewGotoCase returns a goto case statement.
func NewGotoCase(value *Literal) *GotoCase { return &GotoCase{Value: value} }

// NewGotoDefault returns a goto default statement.
func NewGotoDefault() *GotoDefault { return &GotoDefault{} }

// NewLabeled returns a labeled statement.
func NewLabeled(label string, s Stmt) *Labeled { return &Labeled{Label: label, Stmt: s} }

// NewLocalDecl returns a local declaration; init may be nil.
func NewLocalDecl(v *Variable, init Expr) *LocalDecl { return &LocalDecl{Var: v, Init: init} }

// NewEmpty returns the empty statement.
func NewEmpty() *Empty { return &Empty{} }

// Constructors for expressions.

// NewLiteral returns a constant.
func NewLiteral(v any) *Literal { return &Literal{Value: v} }

// NewNull returns the null literal.
func NewNull() *Literal { return &Literal{} }

// NewLocalRef returns an access to v.
func NewLocalRef(v *Variable) *LocalRef { return &LocalRef{Var: v} }

// NewMemberRef returns an access to m qualified by q, which may be nil.
func NewMemberRef(q Expr, m *Member) *MemberRef { return &MemberRef{Qualifier: q, Member: m} }

// NewThis returns the receiver.
func NewThis() *This { return &This{} }

// NewAssign returns a plain assignment.
func NewAssign(target, source Expr) *Assign { return &Assign{Target: target, Source: source} }

// NewCompoundAssign returns an assignment combined with op, such as "+=".
func NewCompoundAssign(op string, target, source Expr) *Assign {
	return &Assign{Op: op, Target: target, Source: source}
}

// NewIncDec returns a postfix increment or decrement.
func NewIncDec(op string, target Expr) *IncDec { return &IncDec{Op: op, Target: target} }

// NewBinary returns a binary operation.
func NewBinary(op string, l, r Expr) *Binary { return &Binary{Op: op, L: l, R: r} }

// NewUnary returns a unary operation.
func NewUnary(op string, x Expr) *Unary { return &Unary{Op: op, X: x} }

// NewNot returns a logical negation.
func NewNot(x Expr) *Not { return &Not{X: x} }

// NewAnd returns a short-circuiting conjunction.
func NewAnd(l, r Expr) *And { return &And{L: l, R: r} }

// NewOr returns a short-circuiting disjunction.
func NewOr(l, r Expr) *Or { return &Or{L: l, R: r} }

// NewCoalesce returns a null-coalescing expression.
func NewCoalesce(l, r Expr) *Coalesce { return &Coalesce{L: l, R: r} }

// NewConditional returns a ternary expression.
func NewConditional(cond, then, els Expr) *Conditional {
	return &Conditional{Cond: cond, Then: then, Else: els}
}

// NewCall returns a call to target on recv, which may be nil.
func NewCall(target *Callable, recv Expr, args ...Expr) *Call {
	return &Call{Target: target, Receiver: recv, Args: args}
}

// NewDelegateCall returns a call of the delegate value d.
func NewDelegateCall(d Expr, args ...Expr) *Call { return &Call{Delegate: d, Args: args} }

// NewOutArg passes x as an out argument.
func NewOutArg(x Expr) *RefArg { return &RefArg{Mode: OutParam, X: x} }

// NewRefArg passes x as a ref argument.
func NewRefArg(x Expr) *RefArg { return &RefArg{Mode: RefParam, X: x} }

// NewNew returns an object creation.
func NewNew(t *Type, ctor *Callable, args ...Expr) *New { return &New{Type: t, Ctor: ctor, Args: args} }

// WithInit sets the member initializers of e.
func (e *New) WithInit(init ...Expr) *New {
	e.Init = init
	return e
}

// NewNewArray returns an array creation.
func NewNewArray(elem *Type, lengths []Expr, elems []Expr) *NewArray {
	return &NewArray{Elem: elem, Lengths: lengths, Elems: elems}
}

// NewLambdaExpr returns a delegate value for fn.
func NewLambdaExpr(fn *Callable) *Lambda { return &Lambda{Fn: fn} }

// NewMethodRef returns a delegate value for target bound to recv, which may be nil.
func NewMethodRef(target *Callable, recv Expr) *MethodRef {
	return &MethodRef{Target: target, Receiver: recv}
}

// NewIs returns a type test; bind may be nil.
func NewIs(x Expr, t *Type, bind *Variable) *Is { return &Is{X: x, Type: t, Bind: bind} }

// NewAs returns a safe conversion.
func NewAs(x Expr, t *Type) *As { return &As{X: x, Type: t} }

// NewCast returns a conversion that may throw.
func NewCast(x Expr, t *Type) *Cast { return &Cast{X: x, Type: t} }

// NewThrowExpr returns a throw expression.
func NewThrowExpr(x Expr) *ThrowExpr { return &ThrowExpr{X: x} }

// NewIndex returns an indexer access.
func NewIndex(x, key Expr) *Index { return &Index{X: x, Key: key} }
