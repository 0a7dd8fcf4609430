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

package graphutil

// StronglyConnectedComponents returns the strongly connected components of the graph given by nodes and
// successors, using Tarjan's algorithm without recursion so that long chains of basic blocks do not grow the
// goroutine stack.
// Components are in reverse topological order: a component appears before the components that can reach it.
// The order of nodes within a component is arbitrary.
func StronglyConnectedComponents[T comparable](nodes []T, successors func(T) []T) [][]T {
	type frame struct {
		v     T
		succs []T
		next  int
	}
	var (
		sccs    [][]T
		stack   []T
		onStack = map[T]bool{}
		index   = map[T]int{}
		low     = map[T]int{}
		counter int
		frames  []*frame
	)
	push := func(v T) {
		index[v] = counter
		low[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true
		frames = append(frames, &frame{v: v, succs: successors(v)})
	}
	for _, root := range nodes {
		if _, seen := index[root]; seen {
			continue
		}
		push(root)
		for len(frames) > 0 {
			f := frames[len(frames)-1]
			if f.next < len(f.succs) {
				w := f.succs[f.next]
				f.next++
				if _, seen := index[w]; !seen {
					push(w)
				} else if onStack[w] && index[w] < low[f.v] {
					low[f.v] = index[w]
				}
				continue
			}
			frames = frames[:len(frames)-1]
			if len(frames) > 0 {
				if parent := frames[len(frames)-1].v; low[f.v] < low[parent] {
					low[parent] = low[f.v]
				}
			}
			if low[f.v] != index[f.v] {
				continue
			}
			var scc []T
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == f.v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}
	return sccs
}

// Cyclic returns the set of nodes that lie on a cycle: members of a component with more than one node, and
// nodes with an edge to themselves.
func Cyclic[T comparable](nodes []T, successors func(T) []T) map[T]bool {
	res := map[T]bool{}
	for _, scc := range StronglyConnectedComponents(nodes, successors) {
		if len(scc) > 1 {
			for _, v := range scc {
				res[v] = true
			}
			continue
		}
		for _, w := range successors(scc[0]) {
			if w == scc[0] {
				res[w] = true
			}
		}
	}
	return res
}
