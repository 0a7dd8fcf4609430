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

// Package cfg builds control-flow graphs for the callables of a syntax.Program.
//
// Every statement or expression that executes at runtime gets a node; a node is identified by its element and by
// the splits active when control reaches it. Splits duplicate the nodes of finally blocks (one copy per way the
// protected try can complete) and of catch clause tests (one copy per exception type under test), so that the
// graph does not merge paths that resume differently.
//
// Statements are pre-order: the node of a statement precedes the nodes of its children. Jump statements, local
// declarations, return and throw, as well as all expressions, are post-order. Short-circuiting operators in a
// boolean context have no node of their own: their operands branch directly.
//
// Nodes are grouped into basic blocks, on which dominators, post-dominators and dominance frontiers are computed.
package cfg
