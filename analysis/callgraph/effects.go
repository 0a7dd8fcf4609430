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

package callgraph

import (
	"github.com/awslabs/ar-cfgssa/analysis/syntax"
)

// Effects summarizes the accesses of a callable body to members and to variables declared in enclosing
// callables. Nested lambdas have their own summaries.
type Effects struct {
	// OwnWrites and OwnReads are the instance members accessed on the receiver
	OwnWrites map[*syntax.Member]bool
	OwnReads  map[*syntax.Member]bool
	// OtherWrites and OtherReads are the instance members accessed through any other qualifier
	OtherWrites map[*syntax.Member]bool
	OtherReads  map[*syntax.Member]bool
	// StaticWrites and StaticReads are the static members accessed
	StaticWrites map[*syntax.Member]bool
	StaticReads  map[*syntax.Member]bool
	// CapturedWrites and CapturedReads are the variables of enclosing callables accessed
	CapturedWrites map[*syntax.Variable]bool
	CapturedReads  map[*syntax.Variable]bool
}

func newEffects() *Effects {
	return &Effects{
		OwnWrites:      map[*syntax.Member]bool{},
		OwnReads:       map[*syntax.Member]bool{},
		OtherWrites:    map[*syntax.Member]bool{},
		OtherReads:     map[*syntax.Member]bool{},
		StaticWrites:   map[*syntax.Member]bool{},
		StaticReads:    map[*syntax.Member]bool{},
		CapturedWrites: map[*syntax.Variable]bool{},
		CapturedReads:  map[*syntax.Variable]bool{},
	}
}

func computeEffects(c *syntax.Callable) *Effects {
	eff := newEffects()
	if c.Body == nil {
		return eff
	}
	syntax.Walk(c.Body, func(e syntax.Element) bool {
		switch e := e.(type) {
		case *syntax.MemberRef:
			read, write := syntax.AccessOf(e)
			reads, writes := eff.OtherReads, eff.OtherWrites
			switch {
			case e.Member.Static:
				reads, writes = eff.StaticReads, eff.StaticWrites
			case e.OnReceiver():
				reads, writes = eff.OwnReads, eff.OwnWrites
			}
			if read {
				reads[e.Member] = true
			}
			if write {
				writes[e.Member] = true
			}
		case *syntax.LocalRef:
			if e.Var.Callable == c {
				break
			}
			read, write := syntax.AccessOf(e)
			if read {
				eff.CapturedReads[e.Var] = true
			}
			if write {
				eff.CapturedWrites[e.Var] = true
			}
		}
		return true
	})
	return eff
}

// Writes returns true if the callable writes the member, on any instance.
func (eff *Effects) Writes(m *syntax.Member) bool {
	return eff.OwnWrites[m] || eff.OtherWrites[m] || eff.StaticWrites[m]
}

// Reads returns true if the callable reads the member, on any instance.
func (eff *Effects) Reads(m *syntax.Member) bool {
	return eff.OwnReads[m] || eff.OtherReads[m] || eff.StaticReads[m]
}
