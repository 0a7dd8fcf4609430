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
	"github.com/awslabs/ar-cfgssa/analysis/callgraph"
	"github.com/awslabs/ar-cfgssa/analysis/cfg"
	"github.com/awslabs/ar-cfgssa/analysis/syntax"
	"golang.org/x/tools/container/intsets"
)

type candidateKind int

const (
	readCandidate candidateKind = iota
	untrackedCandidate
	explicitCandidate
	entryCandidate
	callCandidate
	qualifierCandidate
)

// A candidate is a reference to a variable at a node, before dead definitions are removed. The candidates of a
// block are in execution order. Within a node: untracked definitions and reads, then explicit writes, then call
// definitions. Qualifier definitions immediately follow the definition of their qualifier.
type candidate struct {
	kind        candidateKind
	node        *cfg.Node
	v           *SourceVariable
	readKind    ReadKind
	elem        syntax.Element
	assignables []*AssignableDefinition
	certain     bool
	qualifier   *candidate
	def         Definition
}

func (c *candidate) isWrite() bool { return c.kind >= explicitCandidate }

type builder struct {
	fn     *Function
	vars   *Variables
	pruned *callgraph.Pruned
	cands  [][]*candidate
	gen    []*intsets.Sparse
	kill   []*intsets.Sparse
	// closure reads of lambdas, by lambda callable
	lambdaReads map[*syntax.Callable]map[*syntax.Variable]bool
}

// Build computes the SSA form of the callable of vs. The pruned call graph decides which calls may read and
// write fields and captured variables; when it is nil, calls have no effect on variables.
func Build(vs *Variables, pruned *callgraph.Pruned) *Function {
	g := vs.Graph
	n := len(g.Blocks())
	fn := &Function{
		Callable: g.Callable,
		Graph:    g,
		Vars:     vs,
		defsOf:   map[*SourceVariable][]Definition{},
		readsOf:  map[*SourceVariable][]*Read{},
		defsAt:   map[*cfg.Node][]Definition{},
		readsAt:  map[*cfg.Node][]*Read{},
		phis:     map[*cfg.BasicBlock]map[*SourceVariable]*PhiNode{},
		refs:     make([][]blockRef, n),
		last:     make([]map[*SourceVariable]Definition, n),
		ends:     make([]map[*SourceVariable]Definition, n),
		liveIn:   make([]*intsets.Sparse, n),
		liveOut:  make([]*intsets.Sparse, n),
	}
	if vs.opts.SkipCallDefinitions {
		pruned = nil
	}
	b := &builder{
		fn:          fn,
		vars:        vs,
		pruned:      pruned,
		cands:       make([][]*candidate, n),
		gen:         make([]*intsets.Sparse, n),
		kill:        make([]*intsets.Sparse, n),
		lambdaReads: map[*syntax.Callable]map[*syntax.Variable]bool{},
	}
	for _, blk := range g.Blocks() {
		for _, node := range blk.Nodes {
			b.collect(blk, node)
		}
	}
	b.liveness()
	b.place()
	b.placePhis()
	b.resolve()
	return fn
}

func (b *builder) add(blk *cfg.BasicBlock, c *candidate) *candidate {
	b.cands[blk.Index] = append(b.cands[blk.Index], c)
	return c
}

// addWrite adds a write candidate followed by the qualifier definitions it causes.
func (b *builder) addWrite(blk *cfg.BasicBlock, c *candidate) {
	b.add(blk, c)
	for _, q := range c.v.Qualifying() {
		if q.Tracked {
			b.addWrite(blk, &candidate{kind: qualifierCandidate, node: c.node, v: q, certain: c.certain, qualifier: c})
		}
	}
}

func (b *builder) addRead(blk *cfg.BasicBlock, node *cfg.Node, v *SourceVariable, kind ReadKind, elem syntax.Element) {
	if v.Tracked {
		b.add(blk, &candidate{kind: readCandidate, node: node, v: v, readKind: kind, elem: elem})
	} else if kind == ExplicitRead {
		b.add(blk, &candidate{kind: untrackedCandidate, node: node, v: v, readKind: kind, elem: elem})
	}
}

func (b *builder) collect(blk *cfg.BasicBlock, node *cfg.Node) {
	vs := b.vars
	switch node.Kind {
	case cfg.EntryNode:
		for _, p := range b.fn.Callable.Params {
			v := vs.Local(p)
			if p.Mode == syntax.OutParam || v == nil {
				continue
			}
			a := &AssignableDefinition{Kind: ParameterDef, Variable: v}
			b.addWrite(blk, &candidate{kind: explicitCandidate, node: node, v: v, assignables: []*AssignableDefinition{a}, certain: true})
		}
		for _, v := range vs.All {
			if v.Tracked && (v.Kind == PlainFieldOrProp || v.Captured()) {
				b.addWrite(blk, &candidate{kind: entryCandidate, node: node, v: v, certain: true})
			}
		}
		return
	case cfg.ExitNode:
		for _, v := range vs.All {
			if b.readAtExit(v) {
				b.addRead(blk, node, v, ExitRead, nil)
			}
		}
		return
	}

	e := node.Element
	if x, ok := e.(syntax.Expr); ok {
		if v := vs.VariableOf(x); v != nil {
			if read, _ := syntax.AccessOf(x); read {
				b.addRead(blk, node, v, ExplicitRead, x)
			}
		}
	}
	if l, ok := e.(*syntax.Lambda); ok {
		reads := b.closureReads(l.Fn)
		for _, v := range vs.All {
			if v.Kind == LocalVar && reads[v.Local] {
				b.addRead(blk, node, v, ClosureRead, l)
			}
		}
	}
	site := b.isSite(e)
	if site {
		for _, v := range vs.All {
			if vs.callObserved(v) && b.pruned.MayRead(e, v.Key()) {
				b.addRead(blk, node, v, CallRead, e)
			}
		}
	}
	for _, c := range b.explicitWrites(node) {
		b.addWrite(blk, c)
	}
	if site {
		for _, v := range vs.All {
			own := v.Kind == PlainFieldOrProp && !v.Member.Static
			if vs.callAffected(v) && b.pruned.MayMutate(e, v.Key(), own) {
				b.addWrite(blk, &candidate{kind: callCandidate, node: node, v: v, elem: e})
			}
		}
	}
}

func (b *builder) isSite(e syntax.Element) bool {
	return b.pruned != nil && len(b.pruned.Graph.Callees(e)) > 0
}

// readAtExit returns true for the variables whose value is observable after the callable returns.
func (b *builder) readAtExit(v *SourceVariable) bool {
	if !v.Tracked {
		return false
	}
	switch {
	case v.Field():
		return true
	case v.Captured():
		return v.writes
	case v.Local.Param && v.Local.Mode != syntax.ValueParam:
		return true
	}
	return b.vars.ClosureReads[v.Local]
}

// closureReads returns the variables declared outside fn that fn, or a lambda nested in it, reads.
func (b *builder) closureReads(fn *syntax.Callable) map[*syntax.Variable]bool {
	if r, ok := b.lambdaReads[fn]; ok {
		return r
	}
	r := map[*syntax.Variable]bool{}
	for _, l := range fn.Program().Callables {
		if !fn.Encloses(l) || l.Body == nil {
			continue
		}
		syntax.Walk(l.Body, func(e syntax.Element) bool {
			if ref, ok := e.(*syntax.LocalRef); ok && !fn.Encloses(ref.Var.Callable) {
				if read, _ := syntax.AccessOf(ref); read {
					r[ref.Var] = true
				}
			}
			return true
		})
	}
	b.lambdaReads[fn] = r
	return r
}

// explicitWrites returns the write candidates of the element of node. Writes of the same variable by several
// by-reference arguments of a call are grouped in one uncertain candidate.
func (b *builder) explicitWrites(node *cfg.Node) []*candidate {
	var as []*AssignableDefinition
	vs := b.vars
	target := func(kind AssignableKind, elem syntax.Element, x syntax.Expr) {
		x = syntax.Unparen(x)
		if v := vs.VariableOf(x); v != nil && v.Tracked {
			as = append(as, &AssignableDefinition{Kind: kind, Element: elem, Target: x, Variable: v})
		}
	}
	bound := func(kind AssignableKind, elem syntax.Element, l *syntax.Variable) {
		if l == nil {
			return
		}
		if v := vs.Local(l); v != nil {
			as = append(as, &AssignableDefinition{Kind: kind, Element: elem, Variable: v})
		}
	}
	switch e := node.Element.(type) {
	case *syntax.Assign:
		target(AssignmentDef, e, e.Target)
	case *syntax.IncDec:
		target(IncDecDef, e, e.Target)
	case *syntax.Call:
		for _, arg := range e.Args {
			if r, ok := arg.(*syntax.RefArg); ok {
				target(OutRefDef, e, r.X)
			}
		}
	case *syntax.New:
		for _, arg := range e.Args {
			if r, ok := arg.(*syntax.RefArg); ok {
				target(OutRefDef, e, r.X)
			}
		}
	case *syntax.LocalDecl:
		if !syntax.IsNil(e.Init) {
			bound(DeclarationDef, e, e.Var)
		}
	case *syntax.ForEach:
		bound(ForEachDef, e, e.Var)
	case *syntax.Catch:
		bound(CatchDef, e, e.Var)
	case *syntax.Is:
		bound(PatternDef, e, e.Bind)
	case *syntax.Case:
		bound(PatternDef, e, e.Bind)
	}
	var res []*candidate
	byVar := map[*SourceVariable]*candidate{}
	for _, a := range as {
		if c, ok := byVar[a.Variable]; ok {
			c.assignables = append(c.assignables, a)
			c.certain = false
			continue
		}
		c := &candidate{kind: explicitCandidate, node: node, v: a.Variable, assignables: []*AssignableDefinition{a}, certain: true}
		byVar[a.Variable] = c
		res = append(res, c)
	}
	return res
}

// liveness computes the variables live at the entry and exit of each block. Reads generate liveness, certain
// writes kill it, uncertain writes are transparent.
func (b *builder) liveness() {
	fn := b.fn
	blocks := fn.Graph.Blocks()
	for i := range blocks {
		gen, kill := &intsets.Sparse{}, &intsets.Sparse{}
		decided := &intsets.Sparse{}
		for _, c := range b.cands[i] {
			switch {
			case c.kind == untrackedCandidate || decided.Has(c.v.Index):
			case c.kind == readCandidate:
				gen.Insert(c.v.Index)
				decided.Insert(c.v.Index)
			case c.isWrite() && c.certain:
				kill.Insert(c.v.Index)
				decided.Insert(c.v.Index)
			}
		}
		b.gen[i], b.kill[i] = gen, kill
		fn.liveIn[i], fn.liveOut[i] = &intsets.Sparse{}, &intsets.Sparse{}
	}
	for changed := true; changed; {
		changed = false
		for i := len(blocks) - 1; i >= 0; i-- {
			out := fn.liveOut[i]
			for _, s := range blocks[i].Succs() {
				if out.UnionWith(fn.liveIn[s.Index]) {
					changed = true
				}
			}
			in := &intsets.Sparse{}
			in.Difference(out, b.kill[i])
			in.UnionWith(b.gen[i])
			if !in.Equals(fn.liveIn[i]) {
				fn.liveIn[i] = in
				changed = true
			}
		}
	}
}

// liveAfter returns true if the variable of the i-th candidate of the block may be read after it, before a
// certain write.
func (b *builder) liveAfter(blk int, i int) bool {
	v := b.cands[blk][i].v
	for _, c := range b.cands[blk][i+1:] {
		if c.v != v || c.kind == untrackedCandidate {
			continue
		}
		if c.kind == readCandidate {
			return true
		}
		if c.certain {
			return false
		}
	}
	return b.fn.liveOut[blk].Has(v.Index)
}

// place creates the reads and the live definitions, in block order.
func (b *builder) place() {
	fn := b.fn
	for _, blk := range fn.Graph.Blocks() {
		i := blk.Index
		for j, c := range b.cands[i] {
			switch c.kind {
			case readCandidate:
				fn.addRead(&Read{Kind: c.readKind, Node: c.node, Var: c.v, Element: c.elem})
			case untrackedCandidate:
				r := &Read{Kind: c.readKind, Node: c.node, Var: c.v, Element: c.elem}
				d := &ImplicitUntrackedDefinition{Read: r}
				fn.addDef(d, c.v, c.node, true)
				fn.addRead(r)
				r.def = d
				d.reads = append(d.reads, r)
			default:
				if !b.liveAfter(i, j) {
					continue
				}
				c.def = b.newDef(c)
				fn.addDef(c.def, c.v, c.node, c.certain)
			}
		}
	}
}

func (b *builder) newDef(c *candidate) Definition {
	switch c.kind {
	case explicitCandidate:
		return &ExplicitDefinition{Assignables: c.assignables}
	case entryCandidate:
		return &ImplicitEntryDefinition{}
	case callCandidate:
		return &ImplicitCallDefinition{Site: c.elem}
	default:
		d := &ImplicitQualifierDefinition{}
		if c.qualifier.def != nil {
			d.Qualifier = c.qualifier.def
		}
		return d
	}
}

// placePhis inserts phi nodes at the iterated dominance frontier of the blocks defining each variable, where
// the variable is live.
func (b *builder) placePhis() {
	fn := b.fn
	for _, v := range b.vars.All {
		defs := fn.defsOf[v]
		if !v.Tracked || len(defs) == 0 {
			continue
		}
		var work []*cfg.BasicBlock
		inWork := &intsets.Sparse{}
		for _, d := range defs {
			if inWork.Insert(d.Block().Index) {
				work = append(work, d.Block())
			}
		}
		placed := &intsets.Sparse{}
		for len(work) > 0 {
			x := work[len(work)-1]
			work = work[:len(work)-1]
			for _, y := range fn.Graph.DominanceFrontier(x) {
				if !placed.Insert(y.Index) {
					continue
				}
				if fn.liveIn[y.Index].Has(v.Index) {
					fn.addPhi(y, v)
				}
				if inWork.Insert(y.Index) {
					work = append(work, y)
				}
			}
		}
	}
}

// resolve links every read and every uncertain definition to its reaching definition: the last definition
// before it in its block, or the phi node of the block, or the definition reaching the end of the immediate
// dominator.
func (b *builder) resolve() {
	fn := b.fn
	for _, blk := range fn.Graph.Blocks() {
		last := map[*SourceVariable]Definition{}
		for v, phi := range fn.phis[blk] {
			last[v] = phi
		}
		for _, r := range fn.refs[blk.Index] {
			if r.def != nil {
				last[r.v] = r.def
			}
		}
		fn.last[blk.Index] = last
	}
	for _, blk := range fn.Graph.Blocks() {
		cur := map[*SourceVariable]Definition{}
		reaching := func(v *SourceVariable) Definition {
			if d, ok := cur[v]; ok {
				return d
			}
			if phi, ok := fn.phis[blk][v]; ok {
				return phi
			}
			if idom := fn.Graph.ImmediateDominator(blk); idom != nil {
				return fn.endDefinition(idom, v)
			}
			return nil
		}
		for _, r := range fn.refs[blk.Index] {
			switch {
			case r.def != nil:
				if _, untracked := r.def.(*ImplicitUntrackedDefinition); untracked {
					continue
				}
				if base := r.def.base(); !base.certain {
					base.prior = reaching(r.v)
				}
				cur[r.v] = r.def
			case r.read != nil && r.read.def == nil:
				if d := reaching(r.v); d != nil {
					r.read.def = d
					d.base().reads = append(d.base().reads, r.read)
				}
			}
		}
	}
}
