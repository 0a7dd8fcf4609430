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
	"fmt"

	"github.com/awslabs/ar-cfgssa/analysis/ssa"
)

// Result contains general statistics about the functions built by a cache
type Result struct {
	NumberOfFunctions   uint
	NumberOfTruncated   uint
	NumberOfNodes       uint
	NumberOfBlocks      uint
	NumberOfVariables   uint
	NumberOfDefinitions uint
	NumberOfPhis        uint
	NumberOfReads       uint
}

// Statistics returns a Result with general statistics about the functions of the cache.
func Statistics(c *Cache) Result {
	result := Result{}
	for _, fn := range c.functions {
		result.NumberOfFunctions++
		if fn.Graph.Truncated {
			result.NumberOfTruncated++
		}
		result.NumberOfNodes += uint(len(fn.Graph.Nodes()))
		result.NumberOfBlocks += uint(len(fn.Graph.Blocks()))
		result.NumberOfVariables += uint(len(fn.Variables()))
		result.NumberOfReads += uint(len(fn.Reads()))
		for _, d := range fn.Definitions() {
			result.NumberOfDefinitions++
			if _, ok := d.(*ssa.PhiNode); ok {
				result.NumberOfPhis++
			}
		}
	}
	return result
}

func (r Result) String() string {
	return fmt.Sprintf("%d functions (%d truncated), %d nodes, %d blocks, %d variables, %d definitions (%d phis), %d reads",
		r.NumberOfFunctions, r.NumberOfTruncated, r.NumberOfNodes, r.NumberOfBlocks, r.NumberOfVariables,
		r.NumberOfDefinitions, r.NumberOfPhis, r.NumberOfReads)
}
