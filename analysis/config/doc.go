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
Package config provides a simple way to manage configuration files.

Use [Load](filename) to load a configuration from a specific filename, or [Parse] to read it from bytes.

A config file should be in yaml format. The top-level fields can be any of the fields defined in the Config
struct type. For example, a valid config file is as follows:

	options:
	  log-level: 4
	  num-routines: 8
	  max-qualifier-depth: 2
	  track-all-fields: true

	untracked-members:
	  - type: Logger
	    field: .*

	callable-filters:
	  - type: Service
	    method: Handle.*

# Identifying code elements

The config uses [CodeIdentifier] to identify types, methods and members of the analyzed program. The string
specifications are seen as regexes matching whole names if they can be compiled to regexes, otherwise they are
strings. An empty entry matches anything.

# Unsafe options

All the options that might affect the soundness of the definitions computed by the engine are prefixed by `unsafe-`.
*/
package config
