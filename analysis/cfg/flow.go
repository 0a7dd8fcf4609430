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
	"golang.org/x/exp/slices"
)

// afterOwn returns the successors of the own node of e when it completes with c.
func (b *builder) afterOwn(e syntax.Element, c Completion, s Splits) []target {
	switch e := e.(type) {
	case *syntax.Block:
		if stmts := stmtList(e.Stmts); len(stmts) > 0 {
			return b.enter(stmts[0], s, c)
		}
	case *syntax.ExprStmt:
		return b.enterOr(e.X, s, c, func() []target { return b.complete(e, c, c, s) })
	case *syntax.If:
		if e.Cond == nil {
			return append(b.ifBranch(e, e.Then, s, c), b.ifBranch(e, e.Else, s, c)...)
		}
		return b.enter(e.Cond, s, c)
	case *syntax.While:
		return b.loopHead(e.Cond, e.Body, s, c)
	case *syntax.DoWhile:
		return b.loopHead(e.Body, e.Cond, s, c)
	case *syntax.For:
		if inits := stmtList(e.Init); len(inits) > 0 {
			return b.enter(inits[0], s, c)
		}
		return b.forHead(e, s, c)
	case *syntax.ForEach:
		if c.Value {
			return b.complete(e, Normal(), c, s)
		}
		return b.enterOr(e.Body, s, c, func() []target { return b.at(e, s, c) })
	case *syntax.Switch:
		return b.enterOr(e.Tag, s, c, func() []target { return b.firstCase(e, s, c) })
	case *syntax.Case:
		if !c.Value {
			return b.nextCase(e, s, c)
		}
		return b.enterOr(e.Guard, s, c, func() []target { return b.caseBody(e, s, c) })
	case *syntax.Try:
		return b.enterOr(e.Body, s, c, func() []target { return b.leaveTry(e, c, c, s) })
	case *syntax.Catch:
		if !c.Value {
			return b.nextCatch(e, s, c)
		}
		return b.enterOr(e.Filter, s, c, func() []target { return b.catchBody(e, s, c) })
	case *syntax.Labeled:
		return b.enterOr(e.Stmt, s, c, func() []target { return b.complete(e, c, c, s) })
	}
	return b.complete(e, c, c, s)
}

// afterChild returns the successors of the completion of child, a child of p, with c.
func (b *builder) afterChild(p, child syntax.Element, c, via Completion, s Splits) []target {
	switch p := p.(type) {
	case *syntax.Block:
		return b.sequence(p, stmtList(p.Stmts), child, c, via, s)
	case *syntax.ExprStmt, *syntax.Labeled:
		return b.complete(p, c, via, s)

	case *syntax.If:
		if child != syntax.Element(p.Cond) || c.Kind != BooleanCompletion {
			return b.complete(p, c, via, s)
		}
		if c.Value {
			return b.ifBranch(p, p.Then, s, via)
		}
		return b.ifBranch(p, p.Else, s, via)

	case *syntax.While:
		if child == syntax.Element(p.Cond) {
			if c.Kind != BooleanCompletion {
				return b.complete(p, c, via, s)
			}
			if !c.Value {
				return b.complete(p, Normal(), via, s)
			}
			return b.enterOr(p.Body, s, via, func() []target { return b.enter(p.Cond, s, via) })
		}
		return b.loopBody(p, c, via, s, func(via Completion) []target { return b.loopHead(p.Cond, p.Body, s, via) })

	case *syntax.DoWhile:
		if child == syntax.Element(p.Cond) {
			if c.Kind != BooleanCompletion {
				return b.complete(p, c, via, s)
			}
			if !c.Value {
				return b.complete(p, Normal(), via, s)
			}
			return b.loopHead(p.Body, p.Cond, s, via)
		}
		return b.loopBody(p, c, via, s, func(via Completion) []target { return b.loopHead(p.Cond, p.Body, s, via) })

	case *syntax.For:
		return b.afterForChild(p, child, c, via, s)

	case *syntax.ForEach:
		if child == syntax.Element(p.Collection) {
			if !c.IsValue() {
				return b.complete(p, c, via, s)
			}
			return b.at(p, s, via)
		}
		return b.loopBody(p, c, via, s, func(via Completion) []target { return b.at(p, s, via) })

	case *syntax.Switch:
		if child == syntax.Element(p.Tag) {
			if !c.IsValue() {
				return b.complete(p, c, via, s)
			}
			return b.firstCase(p, s, via)
		}
		switch c.Kind {
		case BreakCompletion:
			return b.complete(p, BreakNormal(), via, s)
		case GotoCaseCompletion, GotoDefaultCompletion:
			if cs := findCase(p, c); cs != nil {
				return b.caseBody(cs, s, via)
			}
		}
		return b.complete(p, c, via, s)

	case *syntax.Case:
		if child == syntax.Element(p.Guard) {
			if c.Kind != BooleanCompletion {
				return b.complete(p, c, via, s)
			}
			if c.Value {
				return b.caseBody(p, s, via)
			}
			return b.nextCase(p, s, via)
		}
		return b.sequence(p, stmtList(p.Body), child, c, via, s)

	case *syntax.Try:
		return b.afterTryChild(p, child, c, via, s)

	case *syntax.Catch:
		if child == syntax.Element(p.Filter) {
			if c.Kind == BooleanCompletion && c.Value {
				return b.catchBody(p, s, via)
			}
			// a filter that is false or throws skips the clause
			return b.nextCatch(p, s, via)
		}
		return b.complete(p, c, via, s)

	case *syntax.And:
		return b.shortCircuit(p, p.L, p.R, true, child, c, via, s)
	case *syntax.Or:
		return b.shortCircuit(p, p.L, p.R, false, child, c, via, s)

	case *syntax.Not:
		if c.Kind != BooleanCompletion {
			return b.complete(p, c, via, s)
		}
		if HasNode(p) {
			return b.at(p, s, via)
		}
		nc := Boolean(!c.Value)
		return b.complete(p, nc, nc, s)

	case *syntax.Conditional:
		if child == syntax.Element(p.Cond) {
			if c.Kind != BooleanCompletion {
				return b.complete(p, c, via, s)
			}
			if c.Value {
				return b.enterOr(p.Then, s, via, func() []target { return b.complete(p, Normal(), via, s) })
			}
			return b.enterOr(p.Else, s, via, func() []target { return b.complete(p, Normal(), via, s) })
		}
		if HasNode(p) && c.IsValue() {
			return b.at(p, s, via)
		}
		return b.complete(p, c, via, s)

	case *syntax.Coalesce:
		if !c.IsValue() {
			return b.complete(p, c, via, s)
		}
		if child == syntax.Element(p.L) && c.Kind == NullnessCompletion && c.Value {
			return b.enterOr(p.R, s, via, func() []target { return b.at(p, s, via) })
		}
		return b.at(p, s, via)
	}
	return b.postOrder(p, child, c, via, s)
}

// postOrder continues with the next evaluated child of p, or with the node of p after the last one.
func (b *builder) postOrder(p, child syntax.Element, c, via Completion, s Splits) []target {
	if !c.IsValue() {
		return b.complete(p, c, via, s)
	}
	ch := evalChildren(p)
	if i := slices.Index(ch, child); i >= 0 && i+1 < len(ch) {
		return b.enter(ch[i+1], s, via)
	}
	if !HasNode(p) {
		return b.complete(p, c, via, s)
	}
	return b.at(p, s, via)
}

func (b *builder) sequence(p syntax.Element, stmts []syntax.Element, child syntax.Element, c, via Completion,
	s Splits) []target {
	if c.IsNormal() {
		if i := slices.Index(stmts, child); i >= 0 && i+1 < len(stmts) {
			return b.enter(stmts[i+1], s, via)
		}
	}
	if c.Kind == GotoLabelCompletion {
		for _, st := range stmts {
			if l, ok := st.(*syntax.Labeled); ok && l.Label == c.Label {
				return b.enter(l, s, via)
			}
		}
	}
	return b.complete(p, c, via, s)
}

func (b *builder) shortCircuit(p syntax.Element, l, r syntax.Expr, continueOn bool, child syntax.Element,
	c, via Completion, s Splits) []target {
	if c.Kind != BooleanCompletion {
		return b.complete(p, c, via, s)
	}
	if child == syntax.Element(l) && c.Value == continueOn && r != nil {
		return b.enter(r, s, via)
	}
	if HasNode(p) {
		return b.at(p, s, via)
	}
	return b.complete(p, c, via, s)
}

func (b *builder) ifBranch(p *syntax.If, branch syntax.Stmt, s Splits, via Completion) []target {
	return b.enterOr(branch, s, via, func() []target { return b.complete(p, Normal(), via, s) })
}

// loopHead enters test, or body when the test is absent.
func (b *builder) loopHead(test, body syntax.Element, s Splits, via Completion) []target {
	if !syntax.IsNil(test) {
		return b.enter(test, s, via)
	}
	if !syntax.IsNil(body) {
		return b.enter(body, s, via)
	}
	return nil
}

// loopBody handles the completion of the body of loop p: normal and continue completions iterate.
func (b *builder) loopBody(p syntax.Element, c, via Completion, s Splits,
	again func(via Completion) []target) []target {
	switch {
	case c.IsNormal() || c.Kind == ContinueCompletion:
		return again(via)
	case c.Kind == BreakCompletion:
		return b.complete(p, BreakNormal(), via, s)
	default:
		return b.complete(p, c, via, s)
	}
}

func (b *builder) afterForChild(p *syntax.For, child syntax.Element, c, via Completion, s Splits) []target {
	if i := slices.Index(stmtList(p.Init), child); i >= 0 {
		inits := stmtList(p.Init)
		if !c.IsNormal() {
			return b.complete(p, c, via, s)
		}
		if i+1 < len(inits) {
			return b.enter(inits[i+1], s, via)
		}
		return b.forHead(p, s, via)
	}
	if child == syntax.Element(p.Cond) {
		if c.Kind != BooleanCompletion {
			return b.complete(p, c, via, s)
		}
		if !c.Value {
			return b.complete(p, Normal(), via, s)
		}
		return b.enterOr(p.Body, s, via, func() []target { return b.forUpdate(p, 0, s, via) })
	}
	if i := slices.Index(exprList(p.Update), child); i >= 0 {
		if !c.IsValue() {
			return b.complete(p, c, via, s)
		}
		return b.forUpdate(p, i+1, s, via)
	}
	return b.loopBody(p, c, via, s, func(via Completion) []target { return b.forUpdate(p, 0, s, via) })
}

func (b *builder) forHead(p *syntax.For, s Splits, via Completion) []target {
	return b.loopHead(p.Cond, p.Body, s, via)
}

func (b *builder) forUpdate(p *syntax.For, i int, s Splits, via Completion) []target {
	if updates := exprList(p.Update); i < len(updates) {
		return b.enter(updates[i], s, via)
	}
	return b.forHead(p, s, via)
}

// caseOrder returns the cases of a switch in the order they are tested: non-default cases in declaration order,
// then the default case.
func caseOrder(sw *syntax.Switch) []*syntax.Case {
	var out, defaults []*syntax.Case
	for _, c := range sw.Cases {
		switch {
		case c == nil:
		case c.Default:
			defaults = append(defaults, c)
		default:
			out = append(out, c)
		}
	}
	return append(out, defaults...)
}

func (b *builder) firstCase(sw *syntax.Switch, s Splits, via Completion) []target {
	order := caseOrder(sw)
	if len(order) == 0 {
		return b.complete(sw, Normal(), via, s)
	}
	return b.at(order[0], s, via)
}

func (b *builder) nextCase(cs *syntax.Case, s Splits, via Completion) []target {
	sw, ok := cs.Parent().(*syntax.Switch)
	if !ok {
		return nil
	}
	order := caseOrder(sw)
	for i, x := range order {
		if x == cs && i+1 < len(order) {
			return b.at(order[i+1], s, via)
		}
	}
	return b.complete(sw, Normal(), via, s)
}

// caseBody enters the statements of cs. A case without statements shares the statements of the next case in
// declaration order.
func (b *builder) caseBody(cs *syntax.Case, s Splits, via Completion) []target {
	sw, ok := cs.Parent().(*syntax.Switch)
	if !ok {
		return nil
	}
	seen := false
	for _, x := range sw.Cases {
		if x == cs {
			seen = true
		}
		if seen && x != nil {
			if stmts := stmtList(x.Body); len(stmts) > 0 {
				return b.enter(stmts[0], s, via)
			}
		}
	}
	return b.complete(sw, Normal(), via, s)
}

func findCase(sw *syntax.Switch, c Completion) *syntax.Case {
	for _, x := range sw.Cases {
		if x == nil {
			continue
		}
		if c.Kind == GotoDefaultCompletion && x.Default {
			return x
		}
		if c.Kind == GotoCaseCompletion && x.Value != nil && caseKey(x.Value) == c.Label {
			return x
		}
	}
	return nil
}

func (b *builder) afterTryChild(p *syntax.Try, child syntax.Element, c, via Completion, s Splits) []target {
	switch {
	case child == syntax.Element(p.Body):
		if catches := catchList(p); c.Kind == ThrowCompletion && len(catches) > 0 {
			h := Split{Kind: HandlerKind, Try: p, Completion: c}
			return []target{{elem: catches[0], splits: s.With(h), edge: via.EdgeType()}}
		}
		return b.leaveTry(p, c, via, s)
	case p.Finally != nil && child == syntax.Element(p.Finally):
		k := FinallyKind(b.level(p))
		split, ok := s.Get(k)
		s = s.Without(k)
		if ok && c.IsNormal() {
			return b.complete(p, split.Completion, split.Completion, s)
		}
		return b.complete(p, c, via, s)
	default:
		return b.leaveTry(p, c, via, s)
	}
}

// leaveTry runs the finally block of p, if any, before completing p with c.
func (b *builder) leaveTry(p *syntax.Try, c, via Completion, s Splits) []target {
	if p.Finally == nil {
		return b.complete(p, c, via, s)
	}
	split := Split{Kind: FinallyKind(b.level(p)), Try: p, Completion: c}
	return b.enter(p.Finally, s.With(split), via)
}

func (b *builder) catchBody(cc *syntax.Catch, s Splits, via Completion) []target {
	s = s.Without(HandlerKind)
	if cc.Body == nil {
		return b.complete(cc, Normal(), via, s)
	}
	return b.enter(cc.Body, s, via)
}

// nextCatch tests the next catch clause, or propagates the exception under test out of the try statement.
func (b *builder) nextCatch(cc *syntax.Catch, s Splits, via Completion) []target {
	t, ok := cc.Parent().(*syntax.Try)
	if !ok {
		return nil
	}
	catches := catchList(t)
	for i, x := range catches {
		if x == cc && i+1 < len(catches) {
			return b.at(catches[i+1], s, via)
		}
	}
	exc := b.program.Exception
	if h, ok := s.Get(HandlerKind); ok {
		exc = h.Exception()
	}
	return b.leaveTry(t, Throw(exc), via, s.Without(HandlerKind))
}

func (b *builder) enterOr(e syntax.Element, s Splits, via Completion, orElse func() []target) []target {
	if syntax.IsNil(e) {
		return orElse()
	}
	return b.enter(e, s, via)
}

func catchList(t *syntax.Try) []*syntax.Catch {
	var out []*syntax.Catch
	for _, c := range t.Catches {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

func stmtList(stmts []syntax.Stmt) []syntax.Element {
	out := make([]syntax.Element, 0, len(stmts))
	for _, s := range stmts {
		if !syntax.IsNil(s) {
			out = append(out, s)
		}
	}
	return out
}

func exprList(exprs []syntax.Expr) []syntax.Element {
	out := make([]syntax.Element, 0, len(exprs))
	for _, e := range exprs {
		if !syntax.IsNil(e) {
			out = append(out, e)
		}
	}
	return out
}
