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

package config

import "regexp"

// A CodeIdentifier identifies a code element of the analyzed program: a member, a method or a type, or a combination
// of those. The string specifications are regexes when they compile to a regex, otherwise they are compared as plain
// strings.
type CodeIdentifier struct {
	Type   string `yaml:"type"`
	Method string `yaml:"method"`
	Field  string `yaml:"field"`
	// This will not be part of the yaml config
	computedRegexs *codeIdentifierRegex
}

type codeIdentifierRegex struct {
	typeRegex   *regexp.Regexp
	methodRegex *regexp.Regexp
	fieldRegex  *regexp.Regexp
}

// compileRegexes compiles the strings in the code identifier into regexes. It compiles all identifiers into regexes
// or none.
func compileRegexes(cid CodeIdentifier) CodeIdentifier {
	typeRegex, err := regexp.Compile(anchor(cid.Type))
	if err != nil {
		return cid
	}
	methodRegex, err := regexp.Compile(anchor(cid.Method))
	if err != nil {
		return cid
	}
	fieldRegex, err := regexp.Compile(anchor(cid.Field))
	if err != nil {
		return cid
	}
	cid.computedRegexs = &codeIdentifierRegex{typeRegex, methodRegex, fieldRegex}
	return cid
}

// anchor makes s match whole names only
func anchor(s string) string {
	return "^(?:" + s + ")$"
}

// equalOnNonEmptyFields returns true if each of the receiver's fields are either equal to the corresponding
// argument's field, or the argument's field is empty
func (cid *CodeIdentifier) equalOnNonEmptyFields(cidRef CodeIdentifier) bool {
	if cidRef.computedRegexs != nil {
		return (cidRef.Type == "" || cidRef.computedRegexs.typeRegex.MatchString(cid.Type)) &&
			(cidRef.Method == "" || cidRef.computedRegexs.methodRegex.MatchString(cid.Method)) &&
			(cidRef.Field == "" || cidRef.computedRegexs.fieldRegex.MatchString(cid.Field))
	}
	return (cidRef.Type == "" || cid.Type == cidRef.Type) &&
		(cidRef.Method == "" || cid.Method == cidRef.Method) &&
		(cidRef.Field == "" || cid.Field == cidRef.Field)
}

// ExistsCid is true if there is some x in a such that f(x) is true.
func ExistsCid(a []CodeIdentifier, f func(identifier CodeIdentifier) bool) bool {
	for _, x := range a {
		if f(x) {
			return true
		}
	}
	return false
}
