// Copyright 2025 The Prototruth Authors.
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

package protodiff

import (
	"github.com/prototruth/prototruth/fieldscope"
)

// FieldComparison selects how field presence affects equality of singular
// fields.
type FieldComparison int

const (
	// Equal treats a field that is unset on one side and explicitly set to
	// its default value on the other as different: the presence mismatch
	// alone is actionable.
	Equal FieldComparison = iota
	// Equivalent treats an unset field as equal to a field explicitly set
	// to the type's default value.
	Equivalent
)

// RepeatedFieldComparison selects how repeated fields are compared.
type RepeatedFieldComparison int

const (
	// AsList compares repeated fields position-wise.
	AsList RepeatedFieldComparison = iota
	// AsSet pairs up elements of the two sides regardless of position,
	// maximizing the number of equal pairs.
	AsSet
)

// Config is the equivalence relation used for one comparison.
//
// Config is an immutable value; the With* methods return updated copies.
// A zero Config is not valid, use DefaultConfig.
type Config struct {
	fieldComparison    FieldComparison
	repeatedComparison RepeatedFieldComparison
	reportMatches      bool
	scope              fieldscope.FieldScope
}

// DefaultConfig returns the strictest configuration: presence-sensitive
// field comparison, positional repeated-field comparison, no match
// reporting, and a scope covering every field.
func DefaultConfig() Config {
	return Config{scope: fieldscope.All()}
}

// WithFieldComparison returns a copy of c using the given presence mode.
func (c Config) WithFieldComparison(fc FieldComparison) Config {
	c.fieldComparison = fc
	return c
}

// WithRepeatedFieldComparison returns a copy of c using the given repeated
// field mode.
func (c Config) WithRepeatedFieldComparison(rc RepeatedFieldComparison) Config {
	c.repeatedComparison = rc
	return c
}

// ReportingMatches returns a copy of c that reports (or stops reporting)
// Matched events for field occurrences that compare equal.
//
// Only occurrences that exist produce notices: a field unset on both
// sides, or an empty repeated or map field, emits nothing.
func (c Config) ReportingMatches(report bool) Config {
	c.reportMatches = report
	return c
}

// WithScope returns a copy of c comparing only fields inside the given
// scope. Fields outside the scope produce Ignored events.
//
// The scope replaces any previously configured one; compose scopes with
// fieldscope.And before installing them.
func (c Config) WithScope(s fieldscope.FieldScope) Config {
	c.scope = s
	return c
}
