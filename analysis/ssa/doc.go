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

/*
Package ssa computes a sparse static single assignment form over the control-flow graph of a callable.

The SSA form covers source variables: local variables and parameters, fields and field-like properties accessed
on the receiver, and fields accessed through a chain of qualifiers rooted at a variable. Variables declared in
an enclosing callable and captured by a lambda are source variables of the lambda.

Every read of a source variable has exactly one reaching definition, which is one of:
  - an ExplicitDefinition, for assignments, declarations with initializers, out and ref arguments, pattern
    bindings, catch and foreach variables and parameters,
  - an ImplicitEntryDefinition, for fields and captured variables at the entry of the callable,
  - an ImplicitCallDefinition, where a call may update a field or a captured variable,
  - an ImplicitQualifierDefinition, where the qualifier of a qualified field is redefined,
  - an ImplicitUntrackedDefinition, just before reads of fields that are not tracked,
  - a PhiNode, where definitions merge.

Definitions are only created when they are live. Fields are tracked when they are used often enough for the
SSA form to pay off; see Resolve.

Typical usage:

	vars := ssa.Resolve(cfg.Build(callable, cfg.Options{}), ssa.Options{})
	fn := ssa.Build(vars, callgraph.Prune(cg, nil))
	for _, read := range fn.Reads() {
		def := fn.ReachingDefinition(read)
		...
	}
*/
package ssa
