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
	"github.com/awslabs/ar-cfgssa/analysis/syntax"
	"golang.org/x/tools/container/intsets"
)

// delegateFlow is a flow-insensitive analysis of the callables that delegate values may designate. Values flow
// from lambdas and method references through locals, parameters, members and call returns. The analysis is
// solved by iterating to a fixpoint over the sets of callable indices attached to each variable, member and
// callable return.
type delegateFlow struct {
	p *syntax.Program

	vars    map[*syntax.Variable]*intsets.Sparse
	members map[*syntax.Member]*intsets.Sparse
	returns map[*syntax.Callable]*intsets.Sparse

	varSources    map[*syntax.Variable][]syntax.Expr
	memberSources map[*syntax.Member][]syntax.Expr
	returnSources map[*syntax.Callable][]syntax.Expr
	calls         []syntax.Expr
}

type callee struct {
	target   *syntax.Callable
	delegate bool
}

func newDelegateFlow(p *syntax.Program) *delegateFlow {
	f := &delegateFlow{
		p:             p,
		vars:          map[*syntax.Variable]*intsets.Sparse{},
		members:       map[*syntax.Member]*intsets.Sparse{},
		returns:       map[*syntax.Callable]*intsets.Sparse{},
		varSources:    map[*syntax.Variable][]syntax.Expr{},
		memberSources: map[*syntax.Member][]syntax.Expr{},
		returnSources: map[*syntax.Callable][]syntax.Expr{},
	}
	for _, c := range p.Callables {
		if body, ok := c.Body.(syntax.Expr); ok {
			f.returnSources[c] = append(f.returnSources[c], body)
		}
	}
	syntax.Inspect(p, func(c *syntax.Callable, e syntax.Element) bool {
		switch e := e.(type) {
		case *syntax.Assign:
			if e.Op == "" || e.Op == "+=" {
				f.addSource(e.Target, e.Source)
			}
		case *syntax.LocalDecl:
			if !syntax.IsNil(e.Init) {
				f.varSources[e.Var] = append(f.varSources[e.Var], e.Init)
			}
		case *syntax.Return:
			if !syntax.IsNil(e.X) {
				f.returnSources[c] = append(f.returnSources[c], e.X)
			}
		case *syntax.Call, *syntax.New:
			f.calls = append(f.calls, e.(syntax.Expr))
		}
		return true
	})
	return f
}

func (f *delegateFlow) addSource(target, source syntax.Expr) {
	switch t := syntax.Unparen(target).(type) {
	case *syntax.LocalRef:
		f.varSources[t.Var] = append(f.varSources[t.Var], source)
	case *syntax.MemberRef:
		f.memberSources[t.Member] = append(f.memberSources[t.Member], source)
	}
}

// solve iterates until no set changes, or for at most max rounds when max is positive.
func (f *delegateFlow) solve(max int) {
	for round := 0; max <= 0 || round < max; round++ {
		changed := false
		for v, sources := range f.varSources {
			for _, src := range sources {
				changed = setOf(f.vars, v).UnionWith(f.eval(src)) || changed
			}
		}
		for m, sources := range f.memberSources {
			for _, src := range sources {
				changed = setOf(f.members, m).UnionWith(f.eval(src)) || changed
			}
		}
		for c, sources := range f.returnSources {
			for _, src := range sources {
				changed = setOf(f.returns, c).UnionWith(f.eval(src)) || changed
			}
		}
		for _, site := range f.calls {
			args := arguments(site)
			for _, target := range f.callees(site) {
				for i, param := range target.target.Params {
					if i < len(args) {
						changed = setOf(f.vars, param).UnionWith(f.eval(args[i])) || changed
					}
				}
			}
		}
		if !changed {
			return
		}
	}
}

func setOf[K comparable](m map[K]*intsets.Sparse, k K) *intsets.Sparse {
	s, ok := m[k]
	if !ok {
		s = &intsets.Sparse{}
		m[k] = s
	}
	return s
}

// eval returns the callables the expression may evaluate to, as a new set.
func (f *delegateFlow) eval(e syntax.Expr) *intsets.Sparse {
	res := &intsets.Sparse{}
	switch e := syntax.Unparen(e).(type) {
	case *syntax.Lambda:
		res.Insert(e.Fn.Index())
	case *syntax.MethodRef:
		for _, c := range dispatch(e.Target, false) {
			res.Insert(c.Index())
		}
	case *syntax.LocalRef:
		if s, ok := f.vars[e.Var]; ok {
			res.Copy(s)
		}
	case *syntax.MemberRef:
		if s, ok := f.members[e.Member]; ok {
			res.Copy(s)
		}
	case *syntax.Call:
		for _, c := range f.callees(e) {
			if s, ok := f.returns[c.target]; ok {
				res.UnionWith(s)
			}
		}
	case *syntax.Conditional:
		res.Union(f.eval(e.Then), f.eval(e.Else))
	case *syntax.Coalesce:
		res.Union(f.eval(e.L), f.eval(e.R))
	case *syntax.Assign:
		res.Copy(f.eval(e.Source))
	case *syntax.Cast:
		res.Copy(f.eval(e.X))
	case *syntax.As:
		res.Copy(f.eval(e.X))
	}
	return res
}

// callees returns the callables that may run at the element, if it is a call site.
func (f *delegateFlow) callees(e syntax.Element) []callee {
	var res []callee
	add := func(cs []*syntax.Callable, delegate bool) {
		for _, c := range cs {
			res = append(res, callee{target: c, delegate: delegate})
		}
	}
	switch e := e.(type) {
	case *syntax.Call:
		if e.Target != nil {
			add(dispatch(e.Target, e.NonVirtual), false)
		} else if !syntax.IsNil(e.Delegate) {
			for _, i := range f.eval(e.Delegate).AppendTo(nil) {
				add([]*syntax.Callable{f.p.Callables[i]}, true)
			}
		}
	case *syntax.New:
		if e.Ctor != nil {
			add([]*syntax.Callable{e.Ctor}, false)
		}
	case *syntax.MemberRef:
		if read, _ := syntax.AccessOf(e); read && e.Member.Getter != nil {
			add(dispatch(e.Member.Getter, false), false)
		}
	case *syntax.Assign:
		add(setters(e.Target), false)
	case *syntax.IncDec:
		add(setters(e.Target), false)
	}
	return res
}

func setters(target syntax.Expr) []*syntax.Callable {
	if m, ok := syntax.Unparen(target).(*syntax.MemberRef); ok && m.Member.Setter != nil {
		return dispatch(m.Member.Setter, false)
	}
	return nil
}

// dispatch returns c and, unless the call is non-virtual, the callables overriding it.
func dispatch(c *syntax.Callable, nonVirtual bool) []*syntax.Callable {
	if nonVirtual {
		return []*syntax.Callable{c}
	}
	return append([]*syntax.Callable{c}, c.Overriders()...)
}

func arguments(site syntax.Expr) []syntax.Expr {
	switch s := site.(type) {
	case *syntax.Call:
		return s.Args
	case *syntax.New:
		return s.Args
	}
	return nil
}
