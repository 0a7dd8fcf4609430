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

// Package syntax contains the abstract syntax model consumed by the control-flow and SSA engine.
//
// A Program owns the types, members and callables of the analyzed code. Callable bodies are trees of statements
// and expressions built with the New* helpers; once every body is attached, Program.Finalize links each element to
// its parent and enclosing callable and assigns it a stable identifier. The engine never mutates a finalized program.
//
// The model is permissive: shapes that are not meaningful (a nil condition, a case with no body) simply contribute
// no children to the traversal.
package syntax
