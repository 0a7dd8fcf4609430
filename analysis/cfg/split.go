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
	"strings"

	"github.com/awslabs/ar-cfgssa/analysis/syntax"
)

// SplitKind identifies the slot of a split. Finally splits have one kind per finally nesting level; all finally
// kinds rank before the exception handler kind.
type SplitKind struct {
	Handler bool
	// Level is the number of finally blocks enclosing the try statement of a finally split
	Level int
}

func (k SplitKind) rank() int {
	if k.Handler {
		return 1 << 30
	}
	return k.Level
}

// HandlerKind is the kind of exception handler splits.
var HandlerKind = SplitKind{Handler: true}

// FinallyKind returns the kind of finally splits of try statements at the given nesting level.
func FinallyKind(level int) SplitKind { return SplitKind{Level: level} }

// A Split tags the nodes of a finally block with the completion to resume once the block completes, or the nodes
// of catch clause tests with the exception under test.
type Split struct {
	Kind SplitKind
	// Try is the try statement whose finally block or catch clauses are split
	Try *syntax.Try
	// Completion is the completion resumed after the finally block, or the throw completion under test
	Completion Completion
}

// Exception returns the exception type of a handler split.
func (s Split) Exception() *syntax.Type { return s.Completion.Exception }

func (s Split) String() string {
	if s.Kind.Handler {
		return "handler:" + s.Completion.Exception.String()
	}
	return fmt.Sprintf("finally(%d):%s", s.Kind.Level, s.Completion)
}

// Splits is a set of splits with at most one split per kind, ordered by rank. Values are never modified in place.
type Splits []Split

// Get returns the split of kind k.
func (ss Splits) Get(k SplitKind) (Split, bool) {
	for _, s := range ss {
		if s.Kind == k {
			return s, true
		}
	}
	return Split{}, false
}

// With returns a copy of ss where the split of the kind of s is replaced by s.
func (ss Splits) With(s Split) Splits {
	out := make(Splits, 0, len(ss)+1)
	inserted := false
	for _, x := range ss {
		if x.Kind == s.Kind {
			continue
		}
		if !inserted && x.Kind.rank() > s.Kind.rank() {
			out = append(out, s)
			inserted = true
		}
		out = append(out, x)
	}
	if !inserted {
		out = append(out, s)
	}
	return out
}

// Without returns a copy of ss without the split of kind k.
func (ss Splits) Without(k SplitKind) Splits {
	if _, ok := ss.Get(k); !ok {
		return ss
	}
	out := make(Splits, 0, len(ss))
	for _, x := range ss {
		if x.Kind != k {
			out = append(out, x)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Key returns a canonical string for the set. Two sets with the same key are equal.
func (ss Splits) Key() string {
	if len(ss) == 0 {
		return ""
	}
	var b strings.Builder
	for i, s := range ss {
		if i > 0 {
			b.WriteByte('|')
		}
		if s.Kind.Handler {
			fmt.Fprintf(&b, "h%p", s.Completion.Exception)
		} else {
			fmt.Fprintf(&b, "f%d:%d:%p:%s", s.Kind.Level, s.Try.ID(), s.Completion.Exception, s.Completion)
		}
	}
	return b.String()
}

func (ss Splits) String() string {
	parts := make([]string, len(ss))
	for i, s := range ss {
		parts[i] = s.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
