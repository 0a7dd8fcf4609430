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
	"fmt"

	"github.com/awslabs/ar-cfgssa/analysis/callgraph"
	"github.com/awslabs/ar-cfgssa/analysis/cfg"
	"github.com/awslabs/ar-cfgssa/analysis/syntax"
	"github.com/awslabs/ar-cfgssa/internal/graphutil"
)

// Options of the SSA construction.
type Options struct {
	// TrackAllFields tracks every field-like member, regardless of how it is used
	TrackAllFields bool
	// MaxQualifierDepth bounds the number of qualifiers of a qualified field. Zero means no bound.
	MaxQualifierDepth int
	// SkipCallDefinitions disables implicit definitions and reads at call sites. This is unsound.
	SkipCallDefinitions bool
	// Untracked returns true for members that must never be tracked. May be nil.
	Untracked func(*syntax.Member) bool
}

// VarKind is the kind of a source variable.
type VarKind int

const (
	// LocalVar is a local variable or parameter
	LocalVar VarKind = iota
	// PlainFieldOrProp is a field or property accessed on the receiver, or a static member
	PlainFieldOrProp
	// QualifiedFieldOrProp is a field or property accessed through another source variable
	QualifiedFieldOrProp
)

func (k VarKind) String() string {
	switch k {
	case LocalVar:
		return "local"
	case PlainFieldOrProp:
		return "field"
	default:
		return "qualified"
	}
}

// A SourceVariable is a variable of the SSA form of a callable. Source variables are interned per callable, so
// that two accesses to the same variable share the same pointer.
type SourceVariable struct {
	// Index is the position of the variable in Variables.All
	Index int
	Kind  VarKind
	// Callable is the callable where the variable is accessed
	Callable *syntax.Callable
	// Local is set for LocalVar
	Local *syntax.Variable
	// Member is set for PlainFieldOrProp and QualifiedFieldOrProp
	Member *syntax.Member
	// Qualifier is set for QualifiedFieldOrProp
	Qualifier *SourceVariable
	// Tracked is false for variables that get an ImplicitUntrackedDefinition at each read
	Tracked bool

	depth      int
	accesses   int
	reads      bool
	writes     bool
	inLoop     bool
	qualifying []*SourceVariable
}

// Captured returns true for local variables declared in an enclosing callable.
func (v *SourceVariable) Captured() bool {
	return v.Kind == LocalVar && v.Local.Callable != v.Callable
}

// Field returns true for fields and properties.
func (v *SourceVariable) Field() bool { return v.Kind != LocalVar }

// Qualifying returns the qualified variables whose qualifier is v.
func (v *SourceVariable) Qualifying() []*SourceVariable { return v.qualifying }

// Key returns the call graph key of the variable: its member, or its declaration for locals.
func (v *SourceVariable) Key() callgraph.Key {
	if v.Kind == LocalVar {
		return callgraph.VariableKey(v.Local)
	}
	return callgraph.MemberKey(v.Member)
}

func (v *SourceVariable) String() string {
	switch v.Kind {
	case LocalVar:
		return v.Local.Name
	case PlainFieldOrProp:
		if v.Member.Static {
			return v.Member.String()
		}
		return "this." + v.Member.Name
	default:
		return fmt.Sprintf("%s.%s", v.Qualifier, v.Member.Name)
	}
}

type varKey struct {
	local     *syntax.Variable
	member    *syntax.Member
	qualifier *SourceVariable
}

// Variables holds the source variables of a callable, resolved from its control-flow graph.
type Variables struct {
	Graph *cfg.Graph
	// All is the list of variables, in order of first access
	All []*SourceVariable
	// ClosureReads and ClosureWrites are the variables declared in the callable or an enclosing one that
	// lambdas nested in the callable read or write.
	ClosureReads  map[*syntax.Variable]bool
	ClosureWrites map[*syntax.Variable]bool

	opts      Options
	interned  map[varKey]*SourceVariable
	byElement map[syntax.Element]*SourceVariable
}

// Resolve computes the source variables accessed by the callable of g, and decides which are tracked. Locals
// are always tracked. A field-like member that is not volatile is tracked when it is accessed more than once,
// accessed in a loop, or both read and written, and, for qualified accesses, when the qualifier is tracked.
func Resolve(g *cfg.Graph, opts Options) *Variables {
	vs := &Variables{
		Graph:         g,
		ClosureReads:  map[*syntax.Variable]bool{},
		ClosureWrites: map[*syntax.Variable]bool{},
		opts:          opts,
		interned:      map[varKey]*SourceVariable{},
		byElement:     map[syntax.Element]*SourceVariable{},
	}
	c := g.Callable
	if c.Body == nil {
		return vs
	}
	loops := graphutil.Cyclic(g.Blocks(), func(b *cfg.BasicBlock) []*cfg.BasicBlock { return b.Succs() })
	syntax.Walk(c.Body, func(e syntax.Element) bool {
		x, ok := e.(syntax.Expr)
		if !ok {
			return true
		}
		v := vs.resolve(x)
		if v == nil {
			return true
		}
		read, write := syntax.AccessOf(x)
		v.accesses++
		v.reads = v.reads || read
		v.writes = v.writes || write
		for _, n := range g.NodesOf(syntax.WriteSite(x)) {
			v.inLoop = v.inLoop || loops[n.Block()]
		}
		for _, n := range g.NodesOf(x) {
			v.inLoop = v.inLoop || loops[n.Block()]
		}
		return true
	})
	// variables only declared or bound are locals too
	syntax.Walk(c.Body, func(e syntax.Element) bool {
		if v := boundVariable(e); v != nil {
			vs.local(v)
		}
		return true
	})
	for _, p := range c.Params {
		vs.local(p)
	}
	for _, v := range vs.All {
		v.Tracked = vs.trackable(v)
	}
	vs.closureAccesses()
	return vs
}

// boundVariable returns the variable declared by e, if any.
func boundVariable(e syntax.Element) *syntax.Variable {
	switch e := e.(type) {
	case *syntax.LocalDecl:
		return e.Var
	case *syntax.ForEach:
		return e.Var
	case *syntax.Catch:
		return e.Var
	case *syntax.Is:
		return e.Bind
	case *syntax.Case:
		return e.Bind
	}
	return nil
}

func (vs *Variables) intern(k varKey, create func() *SourceVariable) *SourceVariable {
	if v, ok := vs.interned[k]; ok {
		return v
	}
	v := create()
	v.Index = len(vs.All)
	v.Callable = vs.Graph.Callable
	vs.interned[k] = v
	vs.All = append(vs.All, v)
	if v.Qualifier != nil {
		v.Qualifier.qualifying = append(v.Qualifier.qualifying, v)
	}
	return v
}

func (vs *Variables) local(l *syntax.Variable) *SourceVariable {
	return vs.intern(varKey{local: l}, func() *SourceVariable {
		return &SourceVariable{Kind: LocalVar, Local: l}
	})
}

// resolve returns the source variable accessed by e, or nil.
func (vs *Variables) resolve(e syntax.Expr) *SourceVariable {
	if v, ok := vs.byElement[e]; ok {
		return v
	}
	var v *SourceVariable
	switch x := e.(type) {
	case *syntax.LocalRef:
		v = vs.local(x.Var)
	case *syntax.MemberRef:
		switch {
		case x.Member.Static || x.OnReceiver():
			v = vs.intern(varKey{member: x.Member}, func() *SourceVariable {
				return &SourceVariable{Kind: PlainFieldOrProp, Member: x.Member}
			})
		case syntax.IsNil(x.Qualifier):
		default:
			q := vs.resolve(syntax.Unparen(x.Qualifier))
			if q == nil || (vs.opts.MaxQualifierDepth > 0 && q.depth+1 > vs.opts.MaxQualifierDepth) {
				break
			}
			v = vs.intern(varKey{member: x.Member, qualifier: q}, func() *SourceVariable {
				return &SourceVariable{Kind: QualifiedFieldOrProp, Member: x.Member, Qualifier: q, depth: q.depth + 1}
			})
		}
	}
	vs.byElement[e] = v
	return v
}

func (vs *Variables) trackable(v *SourceVariable) bool {
	if v.Kind == LocalVar {
		return true
	}
	m := v.Member
	if !m.FieldLike() || m.Volatile || (vs.opts.Untracked != nil && vs.opts.Untracked(m)) {
		return false
	}
	if v.Qualifier != nil && !vs.trackable(v.Qualifier) {
		return false
	}
	// fields are read at the exit, so a write is always followed by a read
	return vs.opts.TrackAllFields || v.accesses > 1 || v.inLoop || v.writes
}

// closureAccesses collects the variables of the callable, or of its enclosing callables, accessed by nested
// lambdas.
func (vs *Variables) closureAccesses() {
	c := vs.Graph.Callable
	for _, l := range c.Program().Callables {
		if l == c || !c.Encloses(l) || l.Body == nil {
			continue
		}
		syntax.Walk(l.Body, func(e syntax.Element) bool {
			r, ok := e.(*syntax.LocalRef)
			if !ok || !r.Var.Callable.Encloses(c) {
				return true
			}
			read, write := syntax.AccessOf(r)
			if read {
				vs.ClosureReads[r.Var] = true
			}
			if write {
				vs.ClosureWrites[r.Var] = true
			}
			return true
		})
	}
}

// VariableOf returns the source variable accessed by e, or nil.
func (vs *Variables) VariableOf(e syntax.Element) *SourceVariable {
	if x, ok := e.(syntax.Expr); ok {
		return vs.byElement[x]
	}
	if v := boundVariable(e); v != nil {
		return vs.interned[varKey{local: v}]
	}
	return nil
}

// Local returns the source variable of a local variable or parameter accessed or declared in the callable,
// or nil.
func (vs *Variables) Local(l *syntax.Variable) *SourceVariable { return vs.interned[varKey{local: l}] }

// Field returns the source variable of a member accessed on the receiver, or a static member, or nil.
func (vs *Variables) Field(m *syntax.Member) *SourceVariable { return vs.interned[varKey{member: m}] }

// Qualified returns the source variable of a member accessed through q, or nil.
func (vs *Variables) Qualified(q *SourceVariable, m *syntax.Member) *SourceVariable {
	return vs.interned[varKey{member: m, qualifier: q}]
}

// callAffected returns true when calls may define v: tracked fields, captured variables, and locals that nested
// lambdas write.
func (vs *Variables) callAffected(v *SourceVariable) bool {
	if !v.Tracked {
		return false
	}
	return v.Field() || v.Captured() || vs.ClosureWrites[v.Local]
}

// callObserved returns true when calls may read v.
func (vs *Variables) callObserved(v *SourceVariable) bool {
	if !v.Tracked {
		return false
	}
	return v.Field() || v.Captured() || vs.ClosureReads[v.Local]
}

// Keys returns the call graph keys of the tracked variables calls may read or write, for pruning.
func (vs *Variables) Keys() []callgraph.Key {
	seen := map[callgraph.Key]bool{}
	var keys []callgraph.Key
	for _, v := range vs.All {
		if !vs.callAffected(v) && !vs.callObserved(v) {
			continue
		}
		if k := v.Key(); !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}
