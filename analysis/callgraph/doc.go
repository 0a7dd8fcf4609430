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
Package callgraph builds the whole-program call graph used by the SSA construction to approximate the effects of
calls on fields, properties and captured variables.

Edges come from direct calls (the static target and, for virtual dispatch, its overriders), constructor
invocations, property accessors and delegate invocations. Delegate targets are computed by a light flow analysis
over lambdas, method references, locals, members, parameters and call returns. An edge is intra-instance when the
callee runs on the same receiver as the caller.

A Pruned view holds, for the members and captured variables the SSA construction tracks, the set of callables
that may write or read them, directly or through calls. Sites are queried with MayMutate and MayRead.
*/
package callgraph
