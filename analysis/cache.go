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

package analysis

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/awslabs/ar-cfgssa/analysis/callgraph"
	"github.com/awslabs/ar-cfgssa/analysis/cfg"
	"github.com/awslabs/ar-cfgssa/analysis/config"
	"github.com/awslabs/ar-cfgssa/analysis/ssa"
	"github.com/awslabs/ar-cfgssa/analysis/syntax"
	"github.com/awslabs/ar-cfgssa/internal/funcutil"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ErrTruncated is recorded for callables whose control-flow graph reached the maximum number of nodes.
var ErrTruncated = errors.New("control-flow graph truncated")

// Cache holds the whole-program information shared by the per-callable builds: the call graph, the pruned
// reachability tables and the built functions.
type Cache struct {
	// The logger used during the analysis (can be used to control output).
	Logger *config.LogGroup

	// The configuration of the analysis
	Config *config.Config

	// The program to be analyzed.
	Program *syntax.Program

	// CallGraph is the call graph of the whole program, available after BuildAll
	CallGraph *callgraph.Graph

	// Pruned contains the reachability tables used by the implicit call definitions, available after BuildAll
	Pruned *callgraph.Pruned

	functions map[*syntax.Callable]*ssa.Function

	// Stored errors
	errors     map[error]bool
	errorMutex sync.Mutex
}

// NewCache returns a properly initialized cache
func NewCache(p *syntax.Program, l *config.LogGroup, c *config.Config) *Cache {
	return &Cache{
		Logger:    l,
		Config:    c,
		Program:   p,
		functions: map[*syntax.Callable]*ssa.Function{},
		errors:    map[error]bool{},
	}
}

// AddError records a non-fatal error of the analysis
func (c *Cache) AddError(e error) {
	c.errorMutex.Lock()
	defer c.errorMutex.Unlock()
	if e != nil {
		c.errors[e] = true
	}
}

// CheckError pops one of the recorded errors, or returns nil if there is none
func (c *Cache) CheckError() error {
	c.errorMutex.Lock()
	defer c.errorMutex.Unlock()
	for e := range c.errors {
		delete(c.errors, e)
		return e
	}
	return nil
}

// SsaOptions returns the options of the SSA construction set by the configuration
func (c *Cache) SsaOptions() ssa.Options {
	opts := ssa.Options{
		TrackAllFields:      c.Config.TrackAllFields,
		MaxQualifierDepth:   c.Config.MaxQualifierDepth,
		SkipCallDefinitions: c.Config.UnsafeSkipCallDefinitions,
	}
	if len(c.Config.UntrackedMembers) > 0 {
		opts.Untracked = func(m *syntax.Member) bool {
			owner := ""
			if m.Owner != nil {
				owner = m.Owner.Name
			}
			return c.Config.IsUntracked(owner, m.Name)
		}
	}
	return opts
}

// selected returns the callables to build: callables with a body matching the configuration filters. Lambdas are
// selected with the callable they are nested in.
func (c *Cache) selected() []*syntax.Callable {
	return funcutil.Filter(c.Program.Callables, func(f *syntax.Callable) bool {
		if f.Body == nil {
			c.Logger.Tracef("skipping %s: no body", f)
			return false
		}
		root := f.Root()
		owner := ""
		if root.Owner != nil {
			owner = root.Owner.Name
		}
		return c.Config.MatchCallable(owner, root.Name)
	})
}

// BuildAll builds the call graph once, then the control-flow graph and the SSA form of every selected callable.
// The builds run on Config.NumRoutines workers and share only read-only data.
func (c *Cache) BuildAll() {
	numRoutines := c.Config.NumRoutines
	if numRoutines <= 0 {
		numRoutines = runtime.NumCPU()
	}

	start := time.Now()
	c.CallGraph = callgraph.Build(c.Program, callgraph.Options{MaxDelegateIterations: c.Config.MaxDelegateIterations})
	c.Logger.Infof("Call graph built in %.2f s: %s", time.Since(start).Seconds(), c.CallGraph.Stats())

	callables := c.selected()
	opts := c.SsaOptions()
	start = time.Now()
	vars := funcutil.MapParallel(callables, func(f *syntax.Callable) *ssa.Variables {
		g := cfg.Build(f, cfg.Options{MaxNodes: c.Config.MaxSplitNodes})
		if g.Truncated {
			c.AddError(fmt.Errorf("%s: %w", f, ErrTruncated))
			c.Logger.Warnf("%s: control-flow graph truncated after %d nodes", f, len(g.Nodes()))
		}
		if c.Logger.LogsTrace() {
			c.Logger.Tracef("%s: %d nodes, %d blocks", f, len(g.Nodes()), len(g.Blocks()))
		}
		return ssa.Resolve(g, opts)
	}, numRoutines)
	c.Logger.Infof("%d control-flow graphs built in %.2f s", len(vars), time.Since(start).Seconds())

	start = time.Now()
	interests := map[callgraph.Key][]*syntax.Callable{}
	for _, vs := range vars {
		for _, k := range vs.Keys() {
			interests[k] = append(interests[k], vs.Graph.Callable)
		}
	}
	c.Pruned = callgraph.Prune(c.CallGraph, interests)
	c.Logger.Infof("Call graph pruned for %d keys in %.2f s", len(interests), time.Since(start).Seconds())

	start = time.Now()
	fns := funcutil.MapParallel(vars, func(vs *ssa.Variables) *ssa.Function {
		fn := ssa.Build(vs, c.Pruned)
		if c.Logger.LogsDebug() {
			c.Logger.Debugf("%s: %d variables, %d definitions, %d reads",
				fn.Callable, len(fn.Variables()), len(fn.Definitions()), len(fn.Reads()))
		}
		return fn
	}, numRoutines)
	for _, fn := range fns {
		c.functions[fn.Callable] = fn
	}
	c.Logger.Infof("SSA built in %.2f s: %s", time.Since(start).Seconds(), Statistics(c))
}

// Function returns the SSA form of the callable, or nil if it was not built
func (c *Cache) Function(f *syntax.Callable) *ssa.Function {
	return c.functions[f]
}

// Functions returns the built functions, ordered by callable index
func (c *Cache) Functions() []*ssa.Function {
	res := maps.Values(c.functions)
	slices.SortFunc(res, func(a, b *ssa.Function) bool { return a.Callable.Index() < b.Callable.Index() })
	return res
}

// FlowsIntoClosure returns the entry definitions of captured variables that may observe the value of d: the
// entry definitions in the closures created where d is live, and in the closures called where d is live.
func (c *Cache) FlowsIntoClosure(d ssa.Definition) []ssa.Definition {
	v := d.Variable()
	if v.Kind != ssa.LocalVar {
		return nil
	}
	var created []*syntax.Callable
	called := map[*syntax.Callable]bool{}
	for _, r := range d.Reads() {
		switch r.Kind {
		case ssa.ClosureRead:
			if l, ok := r.Element.(*syntax.Lambda); ok {
				created = append(created, l.Fn)
			}
		case ssa.CallRead:
			for _, e := range c.CallGraph.Callees(r.Element) {
				for _, f := range c.CallGraph.Reachable(e.Callee) {
					called[f] = true
				}
			}
		}
	}
	return c.definitionsOf(v.Local, func(fn *ssa.Function, def ssa.Definition) bool {
		if _, ok := def.(*ssa.ImplicitEntryDefinition); !ok || fn.Callable == v.Callable {
			return false
		}
		return called[fn.Callable] || funcutil.Exists(created, func(l *syntax.Callable) bool {
			return l.Encloses(fn.Callable)
		})
	})
}

// FlowsOutOfClosure returns the implicit call definitions, outside of the closure defining d, that may observe
// the value of d: d must be live at the exit of its closure, and the call must reach the closure.
func (c *Cache) FlowsOutOfClosure(d ssa.Definition) []ssa.Definition {
	v := d.Variable()
	if !v.Captured() {
		return nil
	}
	exits := funcutil.Exists(d.Reads(), func(r *ssa.Read) bool { return r.Kind == ssa.ExitRead })
	if !exits {
		return nil
	}
	return c.definitionsOf(v.Local, func(fn *ssa.Function, def ssa.Definition) bool {
		call, ok := def.(*ssa.ImplicitCallDefinition)
		if !ok || fn.Callable == v.Callable {
			return false
		}
		return funcutil.Exists(c.CallGraph.Callees(call.Site), func(e *callgraph.Edge) bool {
			return c.Pruned.Reaches(e.Callee, v.Callable)
		})
	})
}

// definitionsOf returns the definitions of the local l, in every built function, for which keep returns true
func (c *Cache) definitionsOf(l *syntax.Variable, keep func(*ssa.Function, ssa.Definition) bool) []ssa.Definition {
	var res []ssa.Definition
	for _, fn := range c.Functions() {
		sv := fn.Vars.Local(l)
		if sv == nil {
			continue
		}
		for _, def := range fn.DefinitionsOf(sv) {
			if keep(fn, def) {
				res = append(res, def)
			}
		}
	}
	return res
}
