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

package ssa

import (
	"fmt"
	"sync"

	"github.com/awslabs/ar-cfgssa/analysis/cfg"
	"github.com/awslabs/ar-cfgssa/analysis/syntax"
)

// AssignableKind is the kind of a source-level write.
type AssignableKind int

const (
	// AssignmentDef is a plain or compound assignment
	AssignmentDef AssignableKind = iota
	// IncDecDef is an increment or a decrement
	IncDecDef
	// DeclarationDef is a local declaration with an initializer
	DeclarationDef
	// OutRefDef is an out or ref argument of a call
	OutRefDef
	// PatternDef is the variable bound by a type test or a typed case
	PatternDef
	// CatchDef is the variable of a catch clause
	CatchDef
	// ForEachDef is the variable of a foreach loop
	ForEachDef
	// ParameterDef is the implicit write of a parameter at the callable entry
	ParameterDef
)

var assignableKindNames = [...]string{"assign", "incdec", "decl", "outref", "pattern", "catch", "foreach", "param"}

func (k AssignableKind) String() string { return assignableKindNames[k] }

// An AssignableDefinition is a write of a source variable in the program.
type AssignableDefinition struct {
	Kind AssignableKind
	// Element is the element performing the write: the assignment, the call, the declaration... It is nil
	// for parameters.
	Element syntax.Element
	// Target is the access being written, for assignments, increments and out or ref arguments
	Target   syntax.Expr
	Variable *SourceVariable
}

// Source returns the expression whose value is written, when there is one.
func (a *AssignableDefinition) Source() syntax.Expr {
	switch e := a.Element.(type) {
	case *syntax.Assign:
		if e.Op == "" {
			return e.Source
		}
	case *syntax.LocalDecl:
		return e.Init
	}
	return nil
}

func (a *AssignableDefinition) String() string {
	if a.Element == nil {
		return fmt.Sprintf("%s %s", a.Kind, a.Variable)
	}
	return fmt.Sprintf("%s %s at %s", a.Kind, a.Variable, a.Element)
}

// ReadKind distinguishes reads in the program from the implicit reads of the SSA construction.
type ReadKind int

const (
	// ExplicitRead is an access reading a variable
	ExplicitRead ReadKind = iota
	// ExitRead is a read at the callable exit of a variable that outlives the call: fields, by-reference
	// parameters and variables shared with closures
	ExitRead
	// CallRead is a read at a call site whose callees may read the variable
	CallRead
	// ClosureRead is a read at the creation of a lambda that reads the variable
	ClosureRead
)

// A Read is a read of a source variable at a node.
type Read struct {
	Kind ReadKind
	Node *cfg.Node
	Var  *SourceVariable
	// Element is the access for explicit reads, the call site for call reads and the lambda for closure reads.
	// It is nil for exit reads.
	Element syntax.Element

	def Definition
	pos int
}

// Definition returns the unique definition reaching the read. It is nil only for locals read before any
// assignment.
func (r *Read) Definition() Definition { return r.def }

func (r *Read) String() string {
	switch r.Kind {
	case ExitRead:
		return fmt.Sprintf("exit read of %s", r.Var)
	case CallRead:
		return fmt.Sprintf("call read of %s at %s", r.Var, r.Element)
	case ClosureRead:
		return fmt.Sprintf("closure read of %s at %s", r.Var, r.Element)
	}
	return fmt.Sprintf("read of %s at %s", r.Var, r.Node)
}

// A Definition is an SSA definition. The concrete types are *ExplicitDefinition, *ImplicitEntryDefinition,
// *ImplicitCallDefinition, *ImplicitQualifierDefinition, *ImplicitUntrackedDefinition and *PhiNode.
type Definition interface {
	// Variable returns the source variable defined
	Variable() *SourceVariable
	// Node returns the node where the definition occurs. For phi nodes, this is the first node of the block.
	Node() *cfg.Node
	// Block returns the basic block of the definition
	Block() *cfg.BasicBlock
	// Certain returns false for definitions that may leave the previous value in place
	Certain() bool
	// Prior returns the definition reaching an uncertain definition, or nil
	Prior() Definition
	// Reads returns the reads the definition reaches
	Reads() []*Read
	// FirstReads returns the reads of the definition that can be reached from it without going through another
	// read of the definition
	FirstReads() []*Read
	// LastReads returns the reads of the definition from which a redefinition or the end of the callable can be
	// reached without going through another read of the definition
	LastReads() []*Read
	// IsLiveAtEndOfBlock returns true if the definition reaches the end of b and the variable is live there
	IsLiveAtEndOfBlock(b *cfg.BasicBlock) bool
	// UltimateDefinitions returns the non-phi definitions reaching this one through phi inputs and through the
	// prior definitions of uncertain definitions, including the definition itself when it is not a phi
	UltimateDefinitions() []Definition
	String() string

	base() *defBase
}

type defBase struct {
	self    Definition
	fn      *Function
	v       *SourceVariable
	node    *cfg.Node
	block   *cfg.BasicBlock
	pos     int
	certain bool
	prior   Definition
	reads   []*Read
}

func (d *defBase) Variable() *SourceVariable { return d.v }
func (d *defBase) Node() *cfg.Node           { return d.node }
func (d *defBase) Block() *cfg.BasicBlock    { return d.block }
func (d *defBase) Certain() bool             { return d.certain }
func (d *defBase) Prior() Definition         { return d.prior }
func (d *defBase) Reads() []*Read            { return d.reads }
func (d *defBase) base() *defBase            { return d }
func (d *defBase) location() string          { return fmt.Sprintf("%s at %s", d.v, d.node) }
func (d *defBase) certainty() string {
	if d.certain {
		return ""
	}
	return " (uncertain)"
}

// ExplicitDefinition is a definition by writes in the program. There is more than one assignable definition
// when the same variable is passed several times by reference to a call: the definition is then uncertain and
// the first argument is the representative.
type ExplicitDefinition struct {
	defBase
	Assignables []*AssignableDefinition
}

// Assignable returns the representative write of the definition.
func (d *ExplicitDefinition) Assignable() *AssignableDefinition { return d.Assignables[0] }

func (d *ExplicitDefinition) String() string {
	return fmt.Sprintf("def(%s) %s%s", d.Assignable().Kind, d.location(), d.certainty())
}

// ImplicitEntryDefinition is the value of a field or a captured variable when the callable starts.
type ImplicitEntryDefinition struct{ defBase }

func (d *ImplicitEntryDefinition) String() string { return "entry def " + d.v.String() }

// ImplicitCallDefinition is a possible update of a field or captured variable by a call.
type ImplicitCallDefinition struct {
	defBase
	Site syntax.Element
}

func (d *ImplicitCallDefinition) String() string { return "call def " + d.location() }

// ImplicitQualifierDefinition is a definition of a qualified field caused by a definition of its qualifier.
type ImplicitQualifierDefinition struct {
	defBase
	// Qualifier is the definition of the qualifier variable, nil when that definition is dead
	Qualifier Definition
}

func (d *ImplicitQualifierDefinition) String() string {
	return "qualifier def " + d.location() + d.certainty()
}

// ImplicitUntrackedDefinition stands for the unknown value of an untracked field, right before its read.
type ImplicitUntrackedDefinition struct {
	defBase
	Read *Read
}

func (d *ImplicitUntrackedDefinition) String() string { return "untracked def " + d.location() }

// PhiNode merges the definitions of a variable reaching a join block. Its inputs are computed on first use.
type PhiNode struct {
	defBase
	once   sync.Once
	inputs []Definition
}

// Inputs returns the definitions reaching the end of the predecessors of the block, without duplicates.
func (p *PhiNode) Inputs() []Definition {
	p.once.Do(func() {
		seen := map[Definition]bool{}
		for _, pred := range p.block.Preds() {
			d := p.fn.endDefinition(pred, p.v)
			if d != nil && !seen[d] {
				seen[d] = true
				p.inputs = append(p.inputs, d)
			}
		}
	})
	return p.inputs
}

func (p *PhiNode) String() string { return fmt.Sprintf("phi(%s) at block %d", p.v, p.block.Index) }
