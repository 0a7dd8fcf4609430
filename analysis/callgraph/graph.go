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
	"sort"
	"strings"

	"github.com/awslabs/ar-cfgssa/analysis/syntax"
	"github.com/awslabs/ar-cfgssa/internal/graphutil"
	ybgraph "github.com/yourbasic/graph"
	"golang.org/x/tools/container/intsets"
)

// Options of the call graph construction.
type Options struct {
	// MaxDelegateIterations bounds the number of rounds of the delegate flow fixpoint. Zero means no bound.
	MaxDelegateIterations int
}

// An Edge is a call from Caller to Callee at Site.
//
// Site is a *syntax.Call, a *syntax.New, a *syntax.MemberRef reading a property with a getter, or the
// *syntax.Assign or *syntax.IncDec writing a property with a setter.
type Edge struct {
	Site   syntax.Element
	Caller *syntax.Callable
	Callee *syntax.Callable
	// IntraInstance is true when the callee runs on the receiver of the caller
	IntraInstance bool
	// Delegate is true when the edge was found by the delegate flow analysis
	Delegate bool
}

func (e *Edge) String() string {
	s := fmt.Sprintf("%s -> %s at %s", e.Caller, e.Callee, e.Site)
	if e.IntraInstance {
		s += " [this]"
	}
	return s
}

// Graph is the call graph of a program.
type Graph struct {
	Program *syntax.Program

	edges   []*Edge
	out     map[*syntax.Callable][]*Edge
	in      map[*syntax.Callable][]*Edge
	bySite  map[syntax.Element][]*Edge
	sites   map[*syntax.Callable][]syntax.Element
	effects map[*syntax.Callable]*Effects

	// all is the adjacency over callable indices, intra only keeps intra-instance edges
	all   *ybgraph.Mutable
	intra *ybgraph.Mutable
}

// Build computes the call graph of the program. The program is finalized if it was not.
func Build(p *syntax.Program, opts Options) *Graph {
	p.Finalize()
	g := &Graph{
		Program: p,
		out:     map[*syntax.Callable][]*Edge{},
		in:      map[*syntax.Callable][]*Edge{},
		bySite:  map[syntax.Element][]*Edge{},
		sites:   map[*syntax.Callable][]syntax.Element{},
		effects: map[*syntax.Callable]*Effects{},
		all:     ybgraph.New(len(p.Callables)),
		intra:   ybgraph.New(len(p.Callables)),
	}
	flow := newDelegateFlow(p)
	flow.solve(opts.MaxDelegateIterations)

	syntax.Inspect(p, func(c *syntax.Callable, e syntax.Element) bool {
		for _, callee := range flow.callees(e) {
			g.addEdge(c, callee.target, e, callee.delegate)
		}
		return true
	})
	for _, c := range p.Callables {
		g.effects[c] = computeEffects(c)
	}
	return g
}

func (g *Graph) addEdge(caller, callee *syntax.Callable, site syntax.Element, delegate bool) {
	for _, e := range g.bySite[site] {
		if e.Callee == callee {
			return
		}
	}
	e := &Edge{
		Site:          site,
		Caller:        caller,
		Callee:        callee,
		IntraInstance: intraInstance(caller, callee, site),
		Delegate:      delegate,
	}
	if len(g.bySite[site]) == 0 {
		g.sites[caller] = append(g.sites[caller], site)
	}
	g.edges = append(g.edges, e)
	g.out[caller] = append(g.out[caller], e)
	g.in[callee] = append(g.in[callee], e)
	g.bySite[site] = append(g.bySite[site], e)
	g.all.Add(caller.Index(), callee.Index())
	if e.IntraInstance {
		g.intra.Add(caller.Index(), callee.Index())
	}
}

// intraInstance returns true when callee runs on the same receiver as caller when called at site.
func intraInstance(caller, callee *syntax.Callable, site syntax.Element) bool {
	if !caller.IsInstance() || !callee.IsInstance() {
		return false
	}
	switch s := site.(type) {
	case *syntax.New:
		return false
	case *syntax.Call:
		if s.Target == nil {
			// delegate call: a lambda created in an instance context captures the receiver
			return callee.Kind == syntax.LambdaCallable && callee.Root().Owner == caller.Root().Owner
		}
		return isThis(s.Receiver)
	case *syntax.MemberRef:
		return s.OnReceiver()
	case *syntax.Assign:
		if m, ok := s.Target.(*syntax.MemberRef); ok {
			return m.OnReceiver()
		}
	case *syntax.IncDec:
		if m, ok := s.Target.(*syntax.MemberRef); ok {
			return m.OnReceiver()
		}
	}
	return false
}

func isThis(e syntax.Expr) bool {
	if syntax.IsNil(e) {
		return true
	}
	_, ok := syntax.Unparen(e).(*syntax.This)
	return ok
}

// Edges returns all the edges of the graph, in construction order.
func (g *Graph) Edges() []*Edge { return g.edges }

// Callees returns the edges out of a call site.
func (g *Graph) Callees(site syntax.Element) []*Edge { return g.bySite[site] }

// Out returns the edges out of c.
func (g *Graph) Out(c *syntax.Callable) []*Edge { return g.out[c] }

// In returns the edges into c.
func (g *Graph) In(c *syntax.Callable) []*Edge { return g.in[c] }

// SitesOf returns the call sites in the body of c that have at least one callee, in program order.
func (g *Graph) SitesOf(c *syntax.Callable) []syntax.Element { return g.sites[c] }

// Effects returns the effect summary of c.
func (g *Graph) Effects(c *syntax.Callable) *Effects {
	if eff, ok := g.effects[c]; ok {
		return eff
	}
	return &Effects{}
}

// Reachable returns the callables reachable from the roots, roots included.
func (g *Graph) Reachable(roots ...*syntax.Callable) []*syntax.Callable {
	ids := make([]int, len(roots))
	for i, r := range roots {
		ids[i] = r.Index()
	}
	return g.callables(graphutil.ReachableFrom(g.all, ids))
}

func (g *Graph) callables(set *intsets.Sparse) []*syntax.Callable {
	var res []*syntax.Callable
	for _, i := range set.AppendTo(nil) {
		res = append(res, g.Program.Callables[i])
	}
	return res
}

// Recursive returns the groups of mutually recursive callables, including self-recursive callables, each group
// sorted by callable index.
func (g *Graph) Recursive() [][]*syntax.Callable {
	var res [][]*syntax.Callable
	for _, comp := range ybgraph.StrongComponents(g.all) {
		if len(comp) == 1 && !g.all.Edge(comp[0], comp[0]) {
			continue
		}
		sort.Ints(comp)
		group := make([]*syntax.Callable, len(comp))
		for i, id := range comp {
			group[i] = g.Program.Callables[id]
		}
		res = append(res, group)
	}
	sort.Slice(res, func(i, j int) bool { return res[i][0].Index() < res[j][0].Index() })
	return res
}

// Stats summarizes the shape of the graph for logging.
func (g *Graph) Stats() string {
	s := ybgraph.Check(g.all)
	return fmt.Sprintf("%d callables, %d edges (%d delegate, %d intra-instance), %d recursive groups, %d isolated",
		g.all.Order(), len(g.edges), g.count(func(e *Edge) bool { return e.Delegate }),
		g.count(func(e *Edge) bool { return e.IntraInstance }), len(g.Recursive()), s.Isolated)
}

func (g *Graph) count(f func(*Edge) bool) int {
	n := 0
	for _, e := range g.edges {
		if f(e) {
			n++
		}
	}
	return n
}

func (g *Graph) String() string {
	var b strings.Builder
	for _, e := range g.edges {
		b.WriteString(e.String())
		b.WriteString("\n")
	}
	return b.String()
}
