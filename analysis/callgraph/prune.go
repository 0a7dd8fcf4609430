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
	"fmt"
	"sync"

	"github.com/awslabs/ar-cfgssa/analysis/syntax"
	"github.com/awslabs/ar-cfgssa/internal/graphutil"
	ybgraph "github.com/yourbasic/graph"
	"golang.org/x/tools/container/intsets"
)

// A Key identifies a member, or a local variable captured by closures, whose value calls may affect.
type Key struct {
	Member   *syntax.Member
	Variable *syntax.Variable
}

// MemberKey returns the key of a member.
func MemberKey(m *syntax.Member) Key { return Key{Member: m} }

// VariableKey returns the key of a local variable.
func VariableKey(v *syntax.Variable) Key { return Key{Variable: v} }

func (k Key) String() string {
	if k.Member != nil {
		return k.Member.String()
	}
	if k.Variable != nil {
		return fmt.Sprintf("%s.%s", k.Variable.Callable, k.Variable.Name)
	}
	return "<nil>"
}

// reach holds sets of callable indices.
type reach struct {
	// own is the set of callables that may write the member on their receiver, through intra-instance calls
	own *intsets.Sparse
	// general is the set of callables that may write the key on any other instance, or through a cross-instance
	// call into an own-instance writer. For static members and variables, it is the set of all writers.
	general *intsets.Sparse
	// readers is the set of callables that may read the key
	readers *intsets.Sparse
}

// Pruned holds the reach tables of a set of keys. Tables are computed on construction for the keys of interest,
// and on demand, without restriction, for other keys. A Pruned is safe for concurrent use.
type Pruned struct {
	Graph *Graph

	allT   *ybgraph.Immutable
	intraT *ybgraph.Immutable

	mu        sync.Mutex
	tables    map[Key]*reach
	reachable map[int]*intsets.Sparse
}

// Prune computes the reach tables of the keys in interests, each mapped to the callables that track it. The
// tables only contain callables forward-reachable from the call sites of the tracking callables.
func Prune(g *Graph, interests map[Key][]*syntax.Callable) *Pruned {
	p := &Pruned{
		Graph:     g,
		allT:      ybgraph.Transpose(g.all),
		intraT:    ybgraph.Transpose(g.intra),
		tables:    make(map[Key]*reach, len(interests)),
		reachable: map[int]*intsets.Sparse{},
	}
	for k, trackers := range interests {
		var roots []int
		for _, c := range trackers {
			for _, site := range g.SitesOf(c) {
				for _, e := range g.Callees(site) {
					roots = append(roots, e.Callee.Index())
				}
			}
		}
		p.tables[k] = p.compute(k, graphutil.ReachableFrom(g.all, roots))
	}
	return p
}

// Keys returns the number of keys with a computed table.
func (p *Pruned) Keys() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tables)
}

func (p *Pruned) table(k Key) *reach {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.tables[k]
	if !ok {
		t = p.compute(k, nil)
		p.tables[k] = t
	}
	return t
}

// compute builds the table of k with callables restricted to within, or unrestricted when within is nil.
func (p *Pruned) compute(k Key, within *intsets.Sparse) *reach {
	var ownSeeds, generalSeeds, readSeeds []int
	for _, c := range p.Graph.Program.Callables {
		if within != nil && !within.Has(c.Index()) {
			continue
		}
		eff := p.Graph.Effects(c)
		if k.Member != nil {
			if eff.OwnWrites[k.Member] {
				ownSeeds = append(ownSeeds, c.Index())
			}
			if eff.OtherWrites[k.Member] || eff.StaticWrites[k.Member] {
				generalSeeds = append(generalSeeds, c.Index())
			}
			if eff.Reads(k.Member) {
				readSeeds = append(readSeeds, c.Index())
			}
		} else if k.Variable != nil {
			if eff.CapturedWrites[k.Variable] {
				generalSeeds = append(generalSeeds, c.Index())
			}
			if eff.CapturedReads[k.Variable] {
				readSeeds = append(readSeeds, c.Index())
			}
		}
	}
	r := &reach{own: graphutil.ReachableWithin(p.intraT, ownSeeds, within)}
	// cross-instance calls into own-instance writers may write any instance
	for _, e := range p.Graph.edges {
		if !e.IntraInstance && r.own.Has(e.Callee.Index()) {
			generalSeeds = append(generalSeeds, e.Caller.Index())
		}
	}
	r.general = graphutil.ReachableWithin(p.allT, generalSeeds, within)
	r.readers = graphutil.ReachableWithin(p.allT, readSeeds, within)
	return r
}

// MayMutate returns true if a call at site may write the key. For members, ownInstance indicates whether the
// key is accessed on the receiver of the callable containing the site: own-instance writers then only count
// when called through intra-instance edges.
func (p *Pruned) MayMutate(site syntax.Element, k Key, ownInstance bool) bool {
	edges := p.Graph.Callees(site)
	if len(edges) == 0 {
		return false
	}
	t := p.table(k)
	for _, e := range edges {
		i := e.Callee.Index()
		if t.general.Has(i) {
			return true
		}
		if t.own.Has(i) && (e.IntraInstance || !ownInstance) {
			return true
		}
	}
	return false
}

// MayRead returns true if a call at site may read the key.
func (p *Pruned) MayRead(site syntax.Element, k Key) bool {
	edges := p.Graph.Callees(site)
	if len(edges) == 0 {
		return false
	}
	t := p.table(k)
	for _, e := range edges {
		if t.readers.Has(e.Callee.Index()) {
			return true
		}
	}
	return false
}

// Reaches returns true if there is a path of calls from one callable to the other. Every callable reaches
// itself.
func (p *Pruned) Reaches(from, to *syntax.Callable) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.reachable[from.Index()]
	if !ok {
		s = graphutil.ReachableFrom(p.Graph.all, []int{from.Index()})
		p.reachable[from.Index()] = s
	}
	return s.Has(to.Index())
}
