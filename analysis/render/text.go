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

package render

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/awslabs/ar-cfgssa/analysis"
	"github.com/awslabs/ar-cfgssa/analysis/ssa"
	"github.com/awslabs/ar-cfgssa/internal/formatutil"
	"github.com/awslabs/ar-cfgssa/internal/funcutil"
)

// WriteFunction writes the basic blocks of fn with, for every node, the reads and definitions happening at the
// node. Phi nodes are listed at the start of their block.
func WriteFunction(fn *ssa.Function, w io.Writer) error {
	b := bufio.NewWriter(w)
	fmt.Fprintf(b, "%s %s\n", formatutil.Bold("func"), formatutil.Bold(fn.Callable))
	if fn.Graph.Truncated {
		fmt.Fprintf(b, "  %s\n", formatutil.Red("truncated"))
	}
	for _, blk := range fn.Graph.Blocks() {
		fmt.Fprintf(b, "%s", formatutil.Purple(fmt.Sprintf("B%d", blk.Index)))
		if idom := fn.Graph.ImmediateDominator(blk); idom != nil {
			fmt.Fprintf(b, " %s", formatutil.Faint(fmt.Sprintf("idom B%d", idom.Index)))
		}
		b.WriteString(":\n")
		for _, phi := range fn.PhisAt(blk) {
			inputs := funcutil.Map(phi.Inputs(), func(d ssa.Definition) string { return d.String() })
			fmt.Fprintf(b, "  %s = %s(%s)\n", formatutil.Yellow(phi.Variable()), formatutil.Yellow("phi"),
				strings.Join(inputs, ", "))
		}
		for _, n := range blk.Nodes {
			fmt.Fprintf(b, "  %d: %s\n", n.Index, formatutil.SanitizeRepr(n))
			for _, r := range fn.ReadsAt(n) {
				fmt.Fprintf(b, "      %s %s <- %s\n", formatutil.Cyan("read"), r.Var, r.Definition())
			}
			for _, d := range fn.DefinitionsAt(n) {
				kind := formatutil.Green("def")
				if !d.Certain() {
					kind = formatutil.Magenta("def?")
				}
				fmt.Fprintf(b, "      %s %s (%d reads)\n", kind, d, len(d.Reads()))
			}
		}
	}
	return b.Flush()
}

// OutputFunctions writes every function of the cache in its own file of dirName.
func OutputFunctions(c *analysis.Cache, dirName string) error {
	if err := os.MkdirAll(dirName, 0700); err != nil {
		return fmt.Errorf("could not create directory %s: %w", dirName, err)
	}
	for _, fn := range c.Functions() {
		name := strings.NewReplacer("/", "_", "$", "_").Replace(fn.Callable.String())
		filename := filepath.Join(dirName, fmt.Sprintf("%d-%s.ssa", fn.Callable.Index(), name))
		f, err := os.Create(filename)
		if err != nil {
			return fmt.Errorf("could not create file %s: %w", filename, err)
		}
		err = WriteFunction(fn, f)
		f.Close()
		if err != nil {
			return fmt.Errorf("error while writing %s: %w", filename, err)
		}
	}
	return nil
}
