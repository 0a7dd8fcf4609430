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
	"testing"

	"github.com/awslabs/ar-cfgssa/analysis/syntax"
)

func TestSplitsAreRankOrdered(t *testing.T) {
	p := syntax.NewProgram()
	t0, t1 := syntax.NewTry(nil, nil, nil), syntax.NewTry(nil, nil, nil)
	h := Split{Kind: HandlerKind, Completion: Throw(p.Exception)}
	f1 := Split{Kind: FinallyKind(1), Try: t1, Completion: Return()}
	f0 := Split{Kind: FinallyKind(0), Try: t0, Completion: Normal()}

	var ss Splits
	ss = ss.With(h).With(f1).With(f0)
	if len(ss) != 3 || ss[0].Kind != f0.Kind || ss[1].Kind != f1.Kind || !ss[2].Kind.Handler {
		t.Fatalf("splits not ordered by rank: %v", ss)
	}

	replaced := ss.With(Split{Kind: FinallyKind(0), Try: t0, Completion: Break()})
	if s, _ := replaced.Get(FinallyKind(0)); s.Completion != Break() || len(replaced) != 3 {
		t.Errorf("With should replace the split of the same kind: %v", replaced)
	}
	if s, _ := ss.Get(FinallyKind(0)); s.Completion != Normal() {
		t.Errorf("With should not modify the receiver")
	}
	if replaced.Key() == ss.Key() {
		t.Errorf("different splits should have different keys")
	}
	if ss.Without(HandlerKind).Key() != (Splits{f0, f1}).Key() {
		t.Errorf("wrong key after removing the handler split")
	}
	if Splits(nil).Without(HandlerKind) != nil || Splits(nil).Key() != "" {
		t.Errorf("empty splits should stay empty")
	}
}

func TestCompletionEdgeTypes(t *testing.T) {
	p := syntax.NewProgram()
	tests := []struct {
		c    Completion
		edge EdgeType
	}{
		{Normal(), NormalEdge},
		{Boolean(true), TrueEdge},
		{Boolean(false), FalseEdge},
		{Nullness(true), NullEdge},
		{Nullness(false), NonNullEdge},
		{Throw(p.Exception), ExceptionEdge},
		{Break(), BreakEdge},
		{BreakNormal(), BreakEdge},
		{Continue(), ContinueEdge},
		{Return(), ReturnEdge},
		{GotoLabel("L"), GotoEdge},
		{GotoCase("1"), GotoEdge},
		{GotoDefault(), GotoEdge},
		{Match(true), MatchEdge},
		{Match(false), NoMatchEdge},
		{Emptiness(true), EmptyEdge},
		{Emptiness(false), NonEmptyEdge},
	}
	for _, tt := range tests {
		t.Run(tt.c.String(), func(t *testing.T) {
			if got := tt.c.EdgeType(); got != tt.edge {
				t.Errorf("expected %v, got %v", tt.edge, got)
			}
		})
	}
	if !BreakNormal().IsNormal() || Break().IsNormal() || !Break().IsAbrupt() || BreakNormal().IsAbrupt() {
		t.Errorf("break-normal should sequence like normal completion, break should not")
	}
}
