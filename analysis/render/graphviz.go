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

// Package render writes control-flow graphs, call graphs and SSA definitions in the Graphviz format or as colored
// text, for debugging.
package render

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/awslabs/ar-cfgssa/analysis/callgraph"
	"github.com/awslabs/ar-cfgssa/analysis/cfg"
	"github.com/awslabs/ar-cfgssa/analysis/syntax"
	"github.com/awslabs/ar-cfgssa/internal/formatutil"
	"github.com/awslabs/ar-cfgssa/internal/funcutil"
)

// edgeAttrs defines specific attributes for specific control-flow edges
// - exception edges are red and dashed
// - conditional edges are labelled with their type
// - all other edges have the default style
func edgeAttrs(t cfg.EdgeType) string {
	switch t {
	case cfg.NormalEdge:
		return ""
	case cfg.ExceptionEdge:
		return " [color=red, style=dashed, label=exception]"
	case cfg.TrueEdge, cfg.MatchEdge, cfg.NonNullEdge, cfg.NonEmptyEdge:
		return fmt.Sprintf(" [color=darkgreen, label=%s]", formatutil.DotLabel(t.String()))
	default:
		return fmt.Sprintf(" [label=%s]", formatutil.DotLabel(t.String()))
	}
}

// WriteCfgGraphviz writes a graphviz representation of the control-flow graph to w. When blocks is true, the nodes
// of each basic block are grouped in a cluster.
func WriteCfgGraphviz(g *cfg.Graph, w io.Writer, blocks bool) error {
	b := bufio.NewWriter(w)
	fmt.Fprintf(b, "digraph %s {\n  node [shape=box];\n", formatutil.DotLabel(g.Callable.String()))
	if blocks {
		for _, blk := range g.Blocks() {
			fmt.Fprintf(b, "  subgraph cluster_%d {\n    label=%s;\n", blk.Index, formatutil.DotLabel(fmt.Sprintf("B%d", blk.Index)))
			for _, n := range blk.Nodes {
				fmt.Fprintf(b, "    n%d [label=%s];\n", n.Index, formatutil.DotLabel(n.String()))
			}
			b.WriteString("  }\n")
		}
	} else {
		for _, n := range g.Nodes() {
			fmt.Fprintf(b, "  n%d [label=%s];\n", n.Index, formatutil.DotLabel(n.String()))
		}
	}
	for _, n := range g.Nodes() {
		for _, e := range n.Successors() {
			fmt.Fprintf(b, "  n%d -> n%d%s;\n", e.From.Index, e.To.Index, edgeAttrs(e.Type))
		}
	}
	b.WriteString("}\n")
	if err := b.Flush(); err != nil {
		return fmt.Errorf("error while writing graph: %w", err)
	}
	return nil
}

// WriteCallGraphGraphviz writes a graphviz representation of the call graph to w. Only the edges between callables
// for which keep returns true are written; a nil keep writes every edge.
//   - delegate edges are blue
//   - intra-instance edges are dashed
func WriteCallGraphGraphviz(cg *callgraph.Graph, w io.Writer, keep func(*syntax.Callable) bool) error {
	b := bufio.NewWriter(w)
	b.WriteString("digraph callgraph {\n")
	names := map[string]bool{}
	for _, c := range cg.Program.Callables {
		if keep == nil || keep(c) {
			names[c.String()] = true
		}
	}
	for _, name := range funcutil.SetToOrderedSlice(names) {
		fmt.Fprintf(b, "  %s;\n", formatutil.DotLabel(name))
	}
	for _, e := range cg.Edges() {
		if keep != nil && (!keep(e.Caller) || !keep(e.Callee)) {
			continue
		}
		var attrs []string
		if e.Delegate {
			attrs = append(attrs, "color=blue")
		}
		if e.IntraInstance {
			attrs = append(attrs, "style=dashed")
		}
		fmt.Fprintf(b, "  %s -> %s", formatutil.DotLabel(e.Caller.String()), formatutil.DotLabel(e.Callee.String()))
		for i, a := range attrs {
			if i == 0 {
				b.WriteString(" [")
			} else {
				b.WriteString(", ")
			}
			b.WriteString(a)
		}
		if len(attrs) > 0 {
			b.WriteString("]")
		}
		b.WriteString(";\n")
	}
	b.WriteString("}\n")
	if err := b.Flush(); err != nil {
		return fmt.Errorf("error while writing graph: %w", err)
	}
	return nil
}

// GraphvizToFile creates filename and writes a graph to it with write
func GraphvizToFile(filename string, write func(io.Writer) error) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("could not create file: %w", err)
	}
	defer f.Close()
	if err := write(f); err != nil {
		return fmt.Errorf("error while writing graph: %w", err)
	}
	return nil
}
