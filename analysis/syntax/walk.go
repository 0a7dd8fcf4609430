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

import "reflect"

// Children returns the direct sub-elements of e in source order. Nested lambda bodies are not children of the
// lambda expression: they belong to their own callable. Nil sub-elements are skipped.
func Children(e Element) []Element {
	var out []Element
	add := func(x Element) {
		if !isNil(x) {
			out = append(out, x)
		}
	}
	switch e := e.(type) {
	case *Block:
		for _, s := range e.Stmts {
			add(s)
		}
	case *ExprStmt:
		add(e.X)
	case *If:
		add(e.Cond)
		add(e.Then)
		add(e.Else)
	case *While:
		add(e.Cond)
		add(e.Body)
	case *DoWhile:
		add(e.Body)
		add(e.Cond)
	case *For:
		for _, s := range e.Init {
			add(s)
		}
		add(e.Cond)
		for _, u := range e.Update {
			add(u)
		}
		add(e.Body)
	case *ForEach:
		add(e.Collection)
		add(e.Body)
	case *Switch:
		add(e.Tag)
		for _, c := range e.Cases {
			add(c)
		}
	case *Case:
		add(e.Value)
		add(e.Guard)
		for _, s := range e.Body {
			add(s)
		}
	case *Try:
		add(e.Body)
		for _, c := range e.Catches {
			add(c)
		}
		add(e.Finally)
	case *Catch:
		add(e.Filter)
		add(e.Body)
	case *Return:
		add(e.X)
	case *Throw:
		add(e.X)
	case *Labeled:
		add(e.Stmt)
	case *LocalDecl:
		add(e.Init)
	case *MemberRef:
		add(e.Qualifier)
	case *Assign:
		add(e.Target)
		add(e.Source)
	case *IncDec:
		add(e.Target)
	case *Binary:
		add(e.L)
		add(e.R)
	case *Unary:
		add(e.X)
	case *Not:
		add(e.X)
	case *And:
		add(e.L)
		add(e.R)
	case *Or:
		add(e.L)
		add(e.R)
	case *Coalesce:
		add(e.L)
		add(e.R)
	case *Conditional:
		add(e.Cond)
		add(e.Then)
		add(e.Else)
	case *Call:
		add(e.Receiver)
		add(e.Delegate)
		for _, a := range e.Args {
			add(a)
		}
	case *RefArg:
		add(e.X)
	case *New:
		for _, a := range e.Args {
			add(a)
		}
		for _, i := range e.Init {
			add(i)
		}
	case *NewArray:
		for _, l := range e.Lengths {
			add(l)
		}
		for _, x := range e.Elems {
			add(x)
		}
	case *MethodRef:
		add(e.Receiver)
	case *Is:
		add(e.X)
	case *As:
		add(e.X)
	case *Cast:
		add(e.X)
	case *ThrowExpr:
		add(e.X)
	case *Index:
		add(e.X)
		add(e.Key)
	}
	return out
}

// Walk traverses the tree rooted at e in pre-order. Children of an element are skipped when f returns false.
func Walk(e Element, f func(Element) bool) {
	if isNil(e) || !f(e) {
		return
	}
	for _, c := range Children(e) {
		Walk(c, f)
	}
}

// Inspect calls f on every element of every callable body of p, in program order.
func Inspect(p *Program, f func(*Callable, Element) bool) {
	for _, c := range p.Callables {
		if c.Body == nil {
			continue
		}
		Walk(c.Body, func(e Element) bool { return f(c, e) })
	}
}

// TypeOf returns the static type of an expression when it is known, or nil.
func TypeOf(e Expr) *Type {
	switch e := e.(type) {
	case *Literal:
		return e.Type
	case *LocalRef:
		return e.Var.Type
	case *MemberRef:
		return e.Member.Type
	case *New:
		return e.Type
	case *Cast:
		return e.Type
	case *As:
		return e.Type
	case *Call:
		if e.Target != nil {
			return e.Target.Returns
		}
	case *Assign:
		return TypeOf(e.Target)
	case *Conditional:
		if t := TypeOf(e.Then); t != nil {
			return t
		}
		return TypeOf(e.Else)
	case *Coalesce:
		return TypeOf(e.L)
	}
	return nil
}

// Unparen strips RefArg wrappers from e.
func Unparen(e Expr) Expr {
	for {
		r, ok := e.(*RefArg)
		if !ok {
			return e
		}
		e = r.X
	}
}

func isNil(e Element) bool {
	if e == nil {
		return true
	}
	v := reflect.ValueOf(e)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// IsNil returns true if e is nil or a typed nil element.
func IsNil(e Element) bool { return isNil(e) }

// AccessOf returns whether the variable or member access e is read, written, or both, by its parent. Compound
// assignments and increments both read and write their target; out arguments only write it.
func AccessOf(e Expr) (read, write bool) {
	switch p := e.Parent().(type) {
	case *Assign:
		if p.Target == e {
			return p.Op != "", true
		}
	case *IncDec:
		return true, true
	case *RefArg:
		return p.Mode != OutParam, true
	}
	return true, false
}

// WriteSite returns the element at which a write to the access e happens: the enclosing assignment, increment,
// or the call receiving it by reference.
func WriteSite(e Expr) Element {
	switch p := e.Parent().(type) {
	case *Assign, *IncDec:
		return p
	case *RefArg:
		return p.Parent()
	}
	return e
}

// OnReceiver returns true when r accesses an instance member of the receiver of the enclosing callable, either
// through an implicit or an explicit this.
func (r *MemberRef) OnReceiver() bool {
	if r.Member.Static {
		return false
	}
	if IsNil(r.Qualifier) {
		return !r.InInitializer()
	}
	_, ok := Unparen(r.Qualifier).(*This)
	return ok
}

// InInitializer returns true when r is the target of a member initializer of a New expression, where a nil
// qualifier designates the created object.
func (r *MemberRef) InInitializer() bool {
	a, ok := r.Parent().(*Assign)
	if !ok || a.Target != Expr(r) {
		return false
	}
	n, ok := a.Parent().(*New)
	if !ok {
		return false
	}
	for _, x := range n.Init {
		if x == Expr(a) {
			return true
		}
	}
	return false
}
