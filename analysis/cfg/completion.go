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

package cfg

import (
	"fmt"

	"github.com/awslabs/ar-cfgssa/analysis/syntax"
)

// CompletionKind is the kind of a Completion.
type CompletionKind uint8

const (
	// NormalCompletion is ordinary completion
	NormalCompletion CompletionKind = iota
	// BooleanCompletion is the completion of a condition, with a truth value
	BooleanCompletion
	// NullnessCompletion is the completion of the left operand of ??, with whether it was null
	NullnessCompletion
	// ThrowCompletion raises an exception of a given type
	ThrowCompletion
	// BreakCompletion exits the innermost loop or switch
	BreakCompletion
	// BreakNormalCompletion is the completion of a loop or switch exited by break. It sequences like normal
	// completion.
	BreakNormalCompletion
	// ContinueCompletion jumps to the next iteration of the innermost loop
	ContinueCompletion
	// ReturnCompletion exits the callable
	ReturnCompletion
	// GotoLabelCompletion jumps to a label
	GotoLabelCompletion
	// GotoCaseCompletion jumps to a case of the innermost switch
	GotoCaseCompletion
	// GotoDefaultCompletion jumps to the default case of the innermost switch
	GotoDefaultCompletion
	// MatchCompletion is the completion of a case or catch clause test
	MatchCompletion
	// EmptinessCompletion is the completion of a foreach test: true when the collection has no more elements
	EmptinessCompletion
)

// A Completion describes how the execution of an element ends. Completions are comparable.
type Completion struct {
	Kind CompletionKind
	// Value is the outcome of boolean, nullness, match and emptiness completions
	Value bool
	// Exception is the type thrown by throw completions
	Exception *syntax.Type
	// Label is the target of goto-label completions, or the case value of goto-case completions
	Label string
}

// Normal returns the normal completion.
func Normal() Completion { return Completion{Kind: NormalCompletion} }

// Boolean returns a boolean completion.
func Boolean(v bool) Completion { return Completion{Kind: BooleanCompletion, Value: v} }

// Nullness returns a nullness completion, where isNull tells whether the value was null.
func Nullness(isNull bool) Completion { return Completion{Kind: NullnessCompletion, Value: isNull} }

// Throw returns a completion raising an exception of type t.
func Throw(t *syntax.Type) Completion { return Completion{Kind: ThrowCompletion, Exception: t} }

// Break returns the completion of a break statement.
func Break() Completion { return Completion{Kind: BreakCompletion} }

// BreakNormal returns the completion of a loop or switch exited by break.
func BreakNormal() Completion { return Completion{Kind: BreakNormalCompletion} }

// Continue returns the completion of a continue statement.
func Continue() Completion { return Completion{Kind: ContinueCompletion} }

// Return returns the completion of a return statement.
func Return() Completion { return Completion{Kind: ReturnCompletion} }

// GotoLabel returns the completion of a goto statement.
func GotoLabel(label string) Completion { return Completion{Kind: GotoLabelCompletion, Label: label} }

// GotoCase returns the completion of a goto case statement with the given case value.
func GotoCase(value string) Completion { return Completion{Kind: GotoCaseCompletion, Label: value} }

// GotoDefault returns the completion of a goto default statement.
func GotoDefault() Completion { return Completion{Kind: GotoDefaultCompletion} }

// Match returns the completion of a case or catch clause test.
func Match(matched bool) Completion { return Completion{Kind: MatchCompletion, Value: matched} }

// Emptiness returns the completion of a foreach test.
func Emptiness(empty bool) Completion { return Completion{Kind: EmptinessCompletion, Value: empty} }

// IsNormal returns true for completions after which execution continues with the next element: normal and
// break-normal completions.
func (c Completion) IsNormal() bool {
	return c.Kind == NormalCompletion || c.Kind == BreakNormalCompletion
}

// IsValue returns true for the completions of an expression that produced a value.
func (c Completion) IsValue() bool {
	return c.Kind == NormalCompletion || c.Kind == BooleanCompletion || c.Kind == NullnessCompletion
}

// IsAbrupt returns true for completions that transfer control to a non-sequential target.
func (c Completion) IsAbrupt() bool {
	switch c.Kind {
	case ThrowCompletion, BreakCompletion, ContinueCompletion, ReturnCompletion,
		GotoLabelCompletion, GotoCaseCompletion, GotoDefaultCompletion:
		return true
	}
	return false
}

// EdgeType returns the type of the edges leaving an element that completed with c.
func (c Completion) EdgeType() EdgeType {
	switch c.Kind {
	case BooleanCompletion:
		if c.Value {
			return TrueEdge
		}
		return FalseEdge
	case NullnessCompletion:
		if c.Value {
			return NullEdge
		}
		return NonNullEdge
	case MatchCompletion:
		if c.Value {
			return MatchEdge
		}
		return NoMatchEdge
	case EmptinessCompletion:
		if c.Value {
			return EmptyEdge
		}
		return NonEmptyEdge
	case ThrowCompletion:
		return ExceptionEdge
	case BreakCompletion, BreakNormalCompletion:
		return BreakEdge
	case ContinueCompletion:
		return ContinueEdge
	case ReturnCompletion:
		return ReturnEdge
	case GotoLabelCompletion, GotoCaseCompletion, GotoDefaultCompletion:
		return GotoEdge
	default:
		return NormalEdge
	}
}

func (c Completion) String() string {
	switch c.Kind {
	case NormalCompletion:
		return "normal"
	case BooleanCompletion:
		return fmt.Sprintf("%t", c.Value)
	case NullnessCompletion:
		if c.Value {
			return "null"
		}
		return "non-null"
	case ThrowCompletion:
		return "throw(" + c.Exception.String() + ")"
	case BreakCompletion:
		return "break"
	case BreakNormalCompletion:
		return "normal (break)"
	case ContinueCompletion:
		return "continue"
	case ReturnCompletion:
		return "return"
	case GotoLabelCompletion:
		return "goto(" + c.Label + ")"
	case GotoCaseCompletion:
		return "goto case(" + c.Label + ")"
	case GotoDefaultCompletion:
		return "goto default"
	case MatchCompletion:
		if c.Value {
			return "match"
		}
		return "no-match"
	case EmptinessCompletion:
		if c.Value {
			return "empty"
		}
		return "non-empty"
	}
	return "?"
}

// EdgeType is the type of a control-flow edge.
type EdgeType uint8

const (
	// NormalEdge is a sequential successor
	NormalEdge EdgeType = iota
	// TrueEdge is taken when a condition holds
	TrueEdge
	// FalseEdge is taken when a condition does not hold
	FalseEdge
	// NullEdge is taken when the left operand of ?? is null
	NullEdge
	// NonNullEdge is taken when the left operand of ?? is not null
	NonNullEdge
	// MatchEdge is taken when a case or catch clause matches
	MatchEdge
	// NoMatchEdge is taken when a case or catch clause does not match
	NoMatchEdge
	// EmptyEdge leaves a foreach loop
	EmptyEdge
	// NonEmptyEdge enters the body of a foreach loop
	NonEmptyEdge
	// BreakEdge is taken by a break, or when resuming a break after a finally block
	BreakEdge
	// ContinueEdge is taken by a continue
	ContinueEdge
	// ReturnEdge is taken by a return
	ReturnEdge
	// GotoEdge is taken by goto statements
	GotoEdge
	// ExceptionEdge is taken when an exception is raised
	ExceptionEdge
)

var edgeNames = [...]string{
	NormalEdge:    "normal",
	TrueEdge:      "true",
	FalseEdge:     "false",
	NullEdge:      "null",
	NonNullEdge:   "non-null",
	MatchEdge:     "match",
	NoMatchEdge:   "no-match",
	EmptyEdge:     "empty",
	NonEmptyEdge:  "non-empty",
	BreakEdge:     "break",
	ContinueEdge:  "continue",
	ReturnEdge:    "return",
	GotoEdge:      "goto",
	ExceptionEdge: "exception",
}

func (t EdgeType) String() string {
	if int(t) < len(edgeNames) {
		return edgeNames[t]
	}
	return "?"
}
