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
	"github.com/awslabs/ar-cfgssa/analysis/syntax"
)

// preOrder returns true for elements whose node precedes the nodes of their children.
func preOrder(e syntax.Element) bool {
	switch e := e.(type) {
	case *syntax.Block:
		return len(e.Stmts) > 0
	case *syntax.ExprStmt, *syntax.If, *syntax.While, *syntax.DoWhile, *syntax.For, *syntax.Switch,
		*syntax.Try, *syntax.Labeled:
		return true
	}
	return false
}

// HasNode returns true if e gets its own nodes when reachable: false for operators that are pure control flow in
// a boolean context and for by-reference argument wrappers.
func HasNode(e syntax.Element) bool {
	switch e.(type) {
	case *syntax.RefArg:
		return false
	case *syntax.And, *syntax.Or, *syntax.Not, *syntax.Conditional:
		if _, ok := constBool(e); ok {
			return true
		}
		return !inBooleanContext(e)
	}
	return true
}

// evalChildren returns the children of a post-order element in evaluation order. Case patterns and type operands
// are not evaluated.
func evalChildren(e syntax.Element) []syntax.Element {
	if _, ok := constBool(e); ok {
		return nil
	}
	switch e.(type) {
	case *syntax.Case, *syntax.Catch, *syntax.Lambda:
		return nil
	}
	return syntax.Children(e)
}

func (b *builder) first(e syntax.Element) syntax.Element {
	if f, ok := b.firsts[e]; ok {
		return f
	}
	f := e
	switch e := e.(type) {
	case *syntax.ForEach:
		if e.Collection != nil {
			f = b.first(e.Collection)
		}
	case *syntax.Case, *syntax.Catch:
	default:
		if !preOrder(e) {
			if ch := evalChildren(e); len(ch) > 0 {
				f = b.first(ch[0])
			}
		}
	}
	b.firsts[e] = f
	return f
}

// inBooleanContext returns true if e is evaluated for its truth value only.
func inBooleanContext(e syntax.Element) bool {
	switch p := e.Parent().(type) {
	case *syntax.If:
		return e == syntax.Element(p.Cond)
	case *syntax.While:
		return e == syntax.Element(p.Cond)
	case *syntax.DoWhile:
		return e == syntax.Element(p.Cond)
	case *syntax.For:
		return e == syntax.Element(p.Cond)
	case *syntax.And, *syntax.Or, *syntax.Not:
		return true
	case *syntax.Conditional:
		if e == syntax.Element(p.Cond) {
			return true
		}
		return !HasNode(p) && inBooleanContext(p)
	case *syntax.Catch:
		return e == syntax.Element(p.Filter)
	case *syntax.Case:
		return e == syntax.Element(p.Guard)
	}
	return false
}

// inNullnessContext returns true if e is tested for null by a ?? operator.
func inNullnessContext(e syntax.Element) bool {
	if p, ok := e.Parent().(*syntax.Coalesce); ok {
		return e == syntax.Element(p.L)
	}
	return false
}

// constBool returns the value of a boolean expression that is constant, and whether it is.
func constBool(e syntax.Element) (bool, bool) {
	switch e := e.(type) {
	case *syntax.Literal:
		v, ok := e.Value.(bool)
		return v, ok
	case *syntax.Not:
		v, ok := constBool(e.X)
		return !v, ok
	case *syntax.And:
		l, lok := constBool(e.L)
		if lok && !l {
			return false, true
		}
		r, rok := constBool(e.R)
		if rok && !r && lok {
			return false, true
		}
		return l && r, lok && rok
	case *syntax.Or:
		l, lok := constBool(e.L)
		if lok && l {
			return true, true
		}
		r, rok := constBool(e.R)
		if rok && r && lok {
			return true, true
		}
		return l || r, lok && rok
	}
	return false, false
}

// ownCompletions returns the completions of the own node of e under splits s.
func (b *builder) ownCompletions(e syntax.Element, s Splits) []Completion {
	if e == nil {
		return nil
	}
	switch e := e.(type) {
	case *syntax.ForEach:
		return []Completion{Emptiness(true), Emptiness(false)}
	case *syntax.Case:
		if e.Default {
			return []Completion{Match(true)}
		}
		return []Completion{Match(true), Match(false)}
	case *syntax.Catch:
		return b.catchCompletions(e, s)
	case *syntax.Break:
		return []Completion{Break()}
	case *syntax.Continue:
		return []Completion{Continue()}
	case *syntax.Return:
		return []Completion{Return()}
	case *syntax.Goto:
		return []Completion{GotoLabel(e.Label)}
	case *syntax.GotoCase:
		return []Completion{GotoCase(caseKey(e.Value))}
	case *syntax.GotoDefault:
		return []Completion{GotoDefault()}
	case *syntax.Throw:
		return []Completion{Throw(b.thrownType(e.X, e))}
	case *syntax.ThrowExpr:
		return []Completion{Throw(b.thrownType(e.X, e))}
	case syntax.Stmt:
		return []Completion{Normal()}
	}
	var cs []Completion
	switch {
	case inBooleanContext(e):
		if v, ok := constBool(e); ok {
			cs = []Completion{Boolean(v)}
		} else {
			cs = []Completion{Boolean(true), Boolean(false)}
		}
	case inNullnessContext(e):
		cs = nullness(e)
	default:
		cs = []Completion{Normal()}
	}
	if t := b.throws(e); t != nil {
		cs = append(cs, Throw(t))
	}
	return cs
}

func nullness(e syntax.Element) []Completion {
	switch e := e.(type) {
	case *syntax.Literal:
		return []Completion{Nullness(e.Value == nil)}
	case *syntax.New, *syntax.NewArray, *syntax.This, *syntax.Lambda, *syntax.MethodRef:
		return []Completion{Nullness(false)}
	}
	return []Completion{Nullness(true), Nullness(false)}
}

// throws returns the type of the exception the own node of e may raise, or nil.
func (b *builder) throws(e syntax.Element) *syntax.Type {
	switch e := e.(type) {
	case *syntax.Call, *syntax.New:
		return b.program.Exception
	case *syntax.MemberRef:
		if !e.Member.FieldLike() {
			return b.program.Exception
		}
	case *syntax.Cast:
		return b.program.InvalidCast
	case *syntax.Binary:
		if e.Op == "/" || e.Op == "%" {
			return b.program.DivideByZero
		}
	case *syntax.Assign:
		if e.Op == "/=" || e.Op == "%=" {
			return b.program.DivideByZero
		}
	case *syntax.Index:
		return b.program.IndexOutOfRange
	}
	return nil
}

// thrownType returns the static type of the exception raised by a throw of x. A rethrow raises the type caught
// by the enclosing catch clause.
func (b *builder) thrownType(x syntax.Expr, at syntax.Element) *syntax.Type {
	if x != nil {
		if t := syntax.TypeOf(x); t != nil && t.IsSubtypeOf(b.program.Exception) {
			return t
		}
		return b.program.Exception
	}
	for p := at.Parent(); p != nil; p = p.Parent() {
		if c, ok := p.(*syntax.Catch); ok && c.Type != nil {
			return c.Type
		}
	}
	return b.program.Exception
}

// catchCompletions decides whether a catch clause can match the exception under test.
func (b *builder) catchCompletions(c *syntax.Catch, s Splits) []Completion {
	h, ok := s.Get(HandlerKind)
	if !ok || c.Type == nil {
		if c.Type == nil {
			return []Completion{Match(true)}
		}
		return []Completion{Match(true), Match(false)}
	}
	thrown := h.Exception()
	switch {
	case thrown.IsSubtypeOf(c.Type):
		return []Completion{Match(true)}
	case c.Type.IsSubtypeOf(thrown):
		return []Completion{Match(true), Match(false)}
	default:
		return []Completion{Match(false)}
	}
}

func caseKey(l *syntax.Literal) string {
	if l == nil {
		return ""
	}
	return l.String()
}
