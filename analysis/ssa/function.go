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
	"sync"

	"github.com/awslabs/ar-cfgssa/analysis/cfg"
	"github.com/awslabs/ar-cfgssa/analysis/syntax"
	"golang.org/x/exp/slices"
	"golang.org/x/tools/container/intsets"
)

// Function is the SSA form of a callable. It is immutable once built, and safe for concurrent use.
type Function struct {
	Callable *syntax.Callable
	Graph    *cfg.Graph
	Vars     *Variables

	defs    []Definition
	reads   []*Read
	defsOf  map[*SourceVariable][]Definition
	readsOf map[*SourceVariable][]*Read
	defsAt  map[*cfg.Node][]Definition
	readsAt map[*cfg.Node][]*Read
	phis    map[*cfg.BasicBlock]map[*SourceVariable]*PhiNode

	// refs are the definitions and reads of each block, in execution order, phi nodes excluded
	refs [][]blockRef
	// last is the last definition of each variable in each block, phi nodes included
	last    []map[*SourceVariable]Definition
	liveIn  []*intsets.Sparse
	liveOut []*intsets.Sparse

	mu   sync.Mutex
	ends []map[*SourceVariable]Definition
}

type blockRef struct {
	v    *SourceVariable
	def  Definition
	read *Read
}

func (fn *Function) register(d Definition, v *SourceVariable, node *cfg.Node, certain bool) *defBase {
	b := d.base()
	b.self = d
	b.fn = fn
	b.v = v
	b.node = node
	b.block = node.Block()
	b.certain = certain
	fn.defs = append(fn.defs, d)
	fn.defsOf[v] = append(fn.defsOf[v], d)
	return b
}

func (fn *Function) addDef(d Definition, v *SourceVariable, node *cfg.Node, certain bool) {
	b := fn.register(d, v, node, certain)
	i := b.block.Index
	b.pos = len(fn.refs[i])
	fn.refs[i] = append(fn.refs[i], blockRef{v: v, def: d})
	fn.defsAt[node] = append(fn.defsAt[node], d)
}

func (fn *Function) addPhi(blk *cfg.BasicBlock, v *SourceVariable) {
	phi := &PhiNode{}
	fn.register(phi, v, blk.First(), true).pos = -1
	if fn.phis[blk] == nil {
		fn.phis[blk] = map[*SourceVariable]*PhiNode{}
	}
	fn.phis[blk][v] = phi
}

func (fn *Function) addRead(r *Read) {
	i := r.Node.Block().Index
	r.pos = len(fn.refs[i])
	fn.refs[i] = append(fn.refs[i], blockRef{v: r.Var, read: r})
	fn.reads = append(fn.reads, r)
	fn.readsOf[r.Var] = append(fn.readsOf[r.Var], r)
	fn.readsAt[r.Node] = append(fn.readsAt[r.Node], r)
}

// endDefinition returns the definition of v reaching the end of blk, or nil.
func (fn *Function) endDefinition(blk *cfg.BasicBlock, v *SourceVariable) Definition {
	fn.mu.Lock()
	defer fn.mu.Unlock()
	return fn.endDefinitionLocked(blk, v)
}

func (fn *Function) endDefinitionLocked(blk *cfg.BasicBlock, v *SourceVariable) Definition {
	if d, ok := fn.last[blk.Index][v]; ok {
		return d
	}
	if fn.ends[blk.Index] == nil {
		fn.ends[blk.Index] = map[*SourceVariable]Definition{}
	}
	if d, ok := fn.ends[blk.Index][v]; ok {
		return d
	}
	var d Definition
	if idom := fn.Graph.ImmediateDominator(blk); idom != nil {
		d = fn.endDefinitionLocked(idom, v)
	}
	fn.ends[blk.Index][v] = d
	return d
}

// Definitions returns all the definitions, phi nodes last.
func (fn *Function) Definitions() []Definition { return fn.defs }

// DefinitionsOf returns the definitions of v.
func (fn *Function) DefinitionsOf(v *SourceVariable) []Definition { return fn.defsOf[v] }

// Reads returns all the reads, explicit and implicit.
func (fn *Function) Reads() []*Read { return fn.reads }

// ReadsOf returns the reads of v.
func (fn *Function) ReadsOf(v *SourceVariable) []*Read { return fn.readsOf[v] }

// ReadsAt returns the reads at a node.
func (fn *Function) ReadsAt(n *cfg.Node) []*Read { return fn.readsAt[n] }

// Variables returns the source variables of the callable.
func (fn *Function) Variables() []*SourceVariable { return fn.Vars.All }

// VariableOf returns the source variable accessed or declared by an element, or nil.
func (fn *Function) VariableOf(e syntax.Element) *SourceVariable { return fn.Vars.VariableOf(e) }

// DefinitionAt returns the definition of v at node n, or nil. Phi nodes are not returned.
func (fn *Function) DefinitionAt(n *cfg.Node, v *SourceVariable) Definition {
	for _, d := range fn.defsAt[n] {
		if d.Variable() == v {
			return d
		}
	}
	return nil
}

// DefinitionsAt returns the definitions at node n, phi nodes excluded.
func (fn *Function) DefinitionsAt(n *cfg.Node) []Definition { return fn.defsAt[n] }

// Phi returns the phi node of v at the start of blk, or nil.
func (fn *Function) Phi(blk *cfg.BasicBlock, v *SourceVariable) *PhiNode { return fn.phis[blk][v] }

// PhisAt returns the phi nodes at the start of blk, ordered by variable.
func (fn *Function) PhisAt(blk *cfg.BasicBlock) []*PhiNode {
	res := make([]*PhiNode, 0, len(fn.phis[blk]))
	for _, p := range fn.phis[blk] {
		res = append(res, p)
	}
	slices.SortFunc(res, func(a, b *PhiNode) bool { return a.v.Index < b.v.Index })
	return res
}

// ReachingDefinition returns the unique definition reaching a read.
func (fn *Function) ReachingDefinition(r *Read) Definition { return r.def }

// ExplicitReads returns the reads of an access element, one per node of the element.
func (fn *Function) ExplicitReads(e syntax.Element) []*Read {
	var res []*Read
	for _, n := range fn.Graph.NodesOf(e) {
		for _, r := range fn.readsAt[n] {
			if r.Kind == ExplicitRead && r.Element == e {
				res = append(res, r)
			}
		}
	}
	return res
}

// LiveIn returns true if v may be read after the start of blk before being certainly redefined.
func (fn *Function) LiveIn(blk *cfg.BasicBlock, v *SourceVariable) bool {
	return fn.liveIn[blk.Index].Has(v.Index)
}

// LiveOut returns true if v may be read after the end of blk before being certainly redefined.
func (fn *Function) LiveOut(blk *cfg.BasicBlock, v *SourceVariable) bool {
	return fn.liveOut[blk.Index].Has(v.Index)
}
