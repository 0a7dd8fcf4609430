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
	"github.com/awslabs/ar-cfgssa/analysis/cfg"
)

// walkState is a position in the references of a block.
type walkState struct {
	blk  *cfg.BasicBlock
	from int
}

// scanForward visits the references of v reachable from the position, block by block. visit is called on each
// reference of v, and stops the path when it returns true. end is called when a path reaches a phi node of v,
// or leaves a block without successors; it stops the whole walk when it returns true.
func (fn *Function) scanForward(start walkState, v *SourceVariable, visit func(blockRef) bool, end func() bool) {
	work := []walkState{start}
	visited := map[*cfg.BasicBlock]bool{}
	for len(work) > 0 {
		s := work[len(work)-1]
		work = work[:len(work)-1]
		stopped := false
		refs := fn.refs[s.blk.Index]
		for i := s.from; i < len(refs); i++ {
			if refs[i].v == v && visit(refs[i]) {
				stopped = true
				break
			}
		}
		if stopped {
			continue
		}
		if len(s.blk.Succs()) == 0 && end() {
			return
		}
		for _, succ := range s.blk.Succs() {
			if fn.phis[succ][v] != nil {
				if end() {
					return
				}
				continue
			}
			if !visited[succ] {
				visited[succ] = true
				work = append(work, walkState{blk: succ})
			}
		}
	}
}

func (d *defBase) FirstReads() []*Read {
	var res []*Read
	seen := map[*Read]bool{}
	d.fn.scanForward(walkState{blk: d.block, from: d.pos + 1}, d.v, func(r blockRef) bool {
		if r.read != nil && r.read.def == d.self && !seen[r.read] {
			seen[r.read] = true
			res = append(res, r.read)
		}
		return true
	}, func() bool { return false })
	return res
}

func (d *defBase) LastReads() []*Read {
	var res []*Read
	for _, r := range d.reads {
		last := false
		d.fn.scanForward(walkState{blk: r.Node.Block(), from: r.pos + 1}, d.v, func(next blockRef) bool {
			if next.def != nil {
				last = true
			}
			return true
		}, func() bool {
			last = true
			return true
		})
		if last {
			res = append(res, r)
		}
	}
	return res
}

func (d *defBase) IsLiveAtEndOfBlock(b *cfg.BasicBlock) bool {
	if _, untracked := d.self.(*ImplicitUntrackedDefinition); untracked {
		return false
	}
	return d.fn.LiveOut(b, d.v) && d.fn.endDefinition(b, d.v) == d.self
}

func (d *defBase) UltimateDefinitions() []Definition {
	var res []Definition
	seen := map[Definition]bool{}
	var visit func(Definition)
	visit = func(x Definition) {
		if x == nil || seen[x] {
			return
		}
		seen[x] = true
		if phi, ok := x.(*PhiNode); ok {
			for _, in := range phi.Inputs() {
				visit(in)
			}
			return
		}
		res = append(res, x)
		if !x.Certain() {
			visit(x.Prior())
		}
	}
	visit(d.self)
	return res
}
