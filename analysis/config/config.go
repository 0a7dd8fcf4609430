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

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config contains the options of the engine and the code identifiers that refine which callables and members are
// analyzed. If some field is not defined in the config file, it will be empty/zero in the struct.
type Config struct {
	Options `yaml:"options"`

	// UntrackedMembers lists the fields and properties that are never tracked by the SSA, even when
	// track-all-fields is set. Only the Type and Field entries of the identifiers are used.
	UntrackedMembers []CodeIdentifier `yaml:"untracked-members"`

	// CallableFilters restricts the callables for which a control-flow graph and an SSA form are built. When empty,
	// every callable with a body is built. Only the Type and Method entries of the identifiers are used.
	CallableFilters []CodeIdentifier `yaml:"callable-filters"`
}

// Options are the settings of the engine
type Options struct {
	// LogLevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`

	// SilenceWarn suppresses warnings
	SilenceWarn bool `yaml:"silence-warn"`

	// NumRoutines is the number of workers building graphs in parallel. Values <= 0 mean one worker per CPU.
	NumRoutines int `yaml:"num-routines"`

	// MaxSplitNodes bounds the number of nodes of a single control-flow graph. Graphs reaching the bound are
	// truncated and reported. Values <= 0 mean no bound.
	MaxSplitNodes int `yaml:"max-split-nodes"`

	// MaxQualifierDepth bounds the number of qualifiers of a tracked qualified field, e.g. a.b.c has depth 2.
	MaxQualifierDepth int `yaml:"max-qualifier-depth"`

	// MaxDelegateIterations bounds the rounds of the delegate flow analysis of the call graph. Values <= 0 mean no
	// bound.
	MaxDelegateIterations int `yaml:"max-delegate-iterations"`

	// TrackAllFields tracks every field and property, including the ones accessed once in a callable.
	TrackAllFields bool `yaml:"track-all-fields"`

	// UnsafeSkipCallDefinitions disables the implicit definitions at call sites. The resulting definitions miss the
	// effects of callees.
	UnsafeSkipCallDefinitions bool `yaml:"unsafe-skip-call-definitions"`
}

// NewDefault returns an empty default config.
func NewDefault() *Config {
	return &Config{
		UntrackedMembers: nil,
		CallableFilters:  nil,
		Options: Options{
			LogLevel:                  int(InfoLevel),
			SilenceWarn:               false,
			NumRoutines:               0,
			MaxSplitNodes:             DefaultMaxSplitNodes,
			MaxQualifierDepth:         DefaultMaxQualifierDepth,
			MaxDelegateIterations:     0,
			TrackAllFields:            false,
			UnsafeSkipCallDefinitions: false,
		},
	}
}

// Load reads a configuration from a file
func Load(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return cfg, nil
}

// Parse reads a configuration from the yaml contents b. Fields missing from b keep their default value.
func Parse(b []byte) (*Config, error) {
	cfg := NewDefault()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}
	if cfg.LogLevel < int(ErrLevel) || cfg.LogLevel > int(TraceLevel) {
		return nil, fmt.Errorf("log-level must be between %d and %d, got %d", ErrLevel, TraceLevel, cfg.LogLevel)
	}
	if cfg.MaxQualifierDepth < 0 {
		return nil, fmt.Errorf("max-qualifier-depth must be positive, got %d", cfg.MaxQualifierDepth)
	}

	for i, cid := range cfg.UntrackedMembers {
		cfg.UntrackedMembers[i] = compileRegexes(cid)
	}
	for i, cid := range cfg.CallableFilters {
		cfg.CallableFilters[i] = compileRegexes(cid)
	}
	return cfg, nil
}

// IsUntracked returns true if the member named field of the type named typ matches one of the untracked members
func (c Config) IsUntracked(typ string, field string) bool {
	cid := CodeIdentifier{Type: typ, Field: field}
	return ExistsCid(c.UntrackedMembers, cid.equalOnNonEmptyFields)
}

// MatchCallable returns true if the callable named method declared in the type named typ must be built. Functions
// without a declaring type have an empty typ.
func (c Config) MatchCallable(typ string, method string) bool {
	if len(c.CallableFilters) == 0 {
		return true
	}
	cid := CodeIdentifier{Type: typ, Method: method}
	return ExistsCid(c.CallableFilters, cid.equalOnNonEmptyFields)
}

// Verbose returns true is the configuration verbosity setting is larger than Info (i.e. Debug or Trace)
func (c Config) Verbose() bool {
	return c.LogLevel >= int(DebugLevel)
}
