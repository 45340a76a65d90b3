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

// Package prototruth provides fluent structural equality assertions for
// protobuf messages with actionable failure narratives.
//
//	prototruth.AssertThat(prototruth.TB(t), got).
//	    IgnoringRepeatedFieldOrder().
//	    IsEqualTo(want)
//
// By default comparisons are strict with respect to repeated field order
// and field presence; the fluent configuration methods relax them per
// assertion. Each configuration method returns an updated Subject copy, so
// Subject values are immutable and freely shareable.
package prototruth

import (
	"fmt"
	"strings"
	"testing"

	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/prototruth/prototruth/fieldscope"
	"github.com/prototruth/prototruth/protodiff"
)

// FailureSink receives the rendered narrative of one failed assertion.
// It is the only way this package signals a failure; it never returns
// a value to the assertion.
type FailureSink interface {
	Fail(message string)
}

// TB adapts a testing.TB into a FailureSink that fails the test with the
// narrative.
func TB(t testing.TB) FailureSink { return tbSink{t} }

type tbSink struct{ t testing.TB }

func (s tbSink) Fail(message string) {
	s.t.Helper()
	s.t.Error(message)
}

// Subject is one message under assertion together with the comparison
// configuration accumulated so far.
//
// Subject is a value type: configuration methods return copies, so
// a Subject can be stored and reused, and concurrent use of one Subject
// value is safe as long as the FailureSink is.
type Subject struct {
	sink   FailureSink
	actual proto.Message

	name                     string
	ignoreFieldAbsence       bool
	ignoreRepeatedFieldOrder bool
	reportMismatchesOnly     bool
	scope                    fieldscope.FieldScope
}

// AssertThat returns a Subject for m that reports failed assertions to
// sink.
func AssertThat(sink FailureSink, m proto.Message) Subject {
	return Subject{sink: sink, actual: m, scope: fieldscope.All()}
}

// Named returns a Subject whose failure narratives refer to the message by
// the given name.
func (s Subject) Named(name string) Subject {
	s.name = name
	return s
}

// IgnoringFieldAbsence makes the comparison treat an unset field and
// a field explicitly set to its default value as equal.
func (s Subject) IgnoringFieldAbsence() Subject {
	s.ignoreFieldAbsence = true
	return s
}

// IgnoringRepeatedFieldOrder makes the comparison treat repeated fields as
// unordered sets rather than positional lists.
func (s Subject) IgnoringRepeatedFieldOrder() Subject {
	s.ignoreRepeatedFieldOrder = true
	return s
}

// WithPartialScope restricts the comparison to the intersection of the
// active scope and the given one.
func (s Subject) WithPartialScope(scope fieldscope.FieldScope) Subject {
	s.scope = fieldscope.And(s.scope, scope)
	return s
}

// IgnoringFields subtracts the given direct-child field numbers from the
// active scope.
func (s Subject) IgnoringFields(fieldNumbers ...protoreflect.FieldNumber) Subject {
	s.scope = fieldscope.And(s.scope, fieldscope.Ignoring(fieldNumbers...))
	return s
}

// IgnoringFieldDescriptors subtracts the given direct-child fields from
// the active scope.
func (s Subject) IgnoringFieldDescriptors(fds ...protoreflect.FieldDescriptor) Subject {
	s.scope = fieldscope.And(s.scope, fieldscope.IgnoringDescriptors(fds...))
	return s
}

// IgnoringFieldScope subtracts the given scope from the active one.
//
// The subtracted scope's complement ranges over the full field universe of
// the schema, so this is exactly And(active, Not(scope)); see
// [fieldscope.Not] for the consequences of that.
func (s Subject) IgnoringFieldScope(scope fieldscope.FieldScope) Subject {
	s.scope = fieldscope.And(s.scope, fieldscope.Not(scope))
	return s
}

// ReportingMismatchesOnly suppresses the full-diff and notice-only
// sections of failure narratives, leaving only actionable differences.
func (s Subject) ReportingMismatchesOnly() Subject {
	s.reportMismatchesOnly = true
	return s
}

// IsEqualTo asserts that the subject message is structurally equal to
// expected under the active configuration, reporting a narrative to the
// sink otherwise.
//
// If either message is nil or the two messages have different schemas, the
// structural engine is bypassed and the check degrades to proto.Equal.
//
// A configuration error (an ignored field number that does not exist in
// the schema, a bad mask path, ...) panics: this is assertion misuse, not
// a comparison outcome.
func (s Subject) IsEqualTo(expected proto.Message) {
	if !s.structurallyComparable(expected) {
		if !nativeEqual(expected, s.actual) {
			s.sink.Fail(s.nativeNarrative("equal", expected))
		}
		return
	}
	rep := &aggregator{}
	equal, err := protodiff.Compare(expected, s.actual, s.config(), rep)
	if err != nil {
		panic(fmt.Sprintf("prototruth: invalid comparison configuration: %v", err))
	}
	if !equal {
		s.sink.Fail(rep.failEqual(s, expected))
	}
}

// IsNotEqualTo asserts that the subject message is structurally unequal to
// expected under the active configuration, reporting a narrative to the
// sink otherwise.
func (s Subject) IsNotEqualTo(expected proto.Message) {
	if !s.structurallyComparable(expected) {
		if nativeEqual(expected, s.actual) {
			s.sink.Fail(s.nativeNarrative("not equal", expected))
		}
		return
	}
	rep := &aggregator{}
	equal, err := protodiff.Compare(expected, s.actual, s.config(), rep)
	if err != nil {
		panic(fmt.Sprintf("prototruth: invalid comparison configuration: %v", err))
	}
	if equal {
		s.sink.Fail(rep.failNotEqual(s, expected))
	}
}

// HasAllRequiredFields asserts that every required field of the subject
// message and its submessages is set.
func (s Subject) HasAllRequiredFields() {
	if err := proto.CheckInitialized(s.actual); err != nil {
		s.sink.Fail(fmt.Sprintf(
			"Not true that %s has all required fields set. Missing: %v",
			s.displayName(), err))
	}
}

// structurallyComparable reports whether both messages are usable and
// share a schema, i.e. whether the structural engine applies at all.
func (s Subject) structurallyComparable(expected proto.Message) bool {
	if s.actual == nil || expected == nil {
		return false
	}
	x, y := expected.ProtoReflect(), s.actual.ProtoReflect()
	return x.IsValid() && y.IsValid() && x.Descriptor() == y.Descriptor()
}

func nativeEqual(x, y proto.Message) bool {
	return proto.Equal(x, y)
}

func (s Subject) nativeNarrative(relation string, expected proto.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Not true that %s.", s.relationClause(relation))
	dumpBoth(&b, s.actual, expected)
	return b.String()
}

// relationClause renders "messages compare equal", or with a custom name
// "the config compares equal".
func (s Subject) relationClause(relation string) string {
	if s.name != "" {
		return fmt.Sprintf("%s compares %s", s.name, relation)
	}
	return fmt.Sprintf("messages compare %s", relation)
}

func (s Subject) displayName() string {
	if s.name != "" {
		return s.name
	}
	return "messages"
}

// dump renders a whole message in multi-line text format, the raw fallback
// used when no structured path information exists.
func dump(m proto.Message) string {
	if m == nil || !m.ProtoReflect().IsValid() {
		return "<nil>\n"
	}
	txt := prototext.Format(m)
	if txt == "" {
		txt = "<empty>\n"
	}
	return txt
}

func (s Subject) config() protodiff.Config {
	fc := protodiff.Equal
	if s.ignoreFieldAbsence {
		fc = protodiff.Equivalent
	}
	rc := protodiff.AsList
	if s.ignoreRepeatedFieldOrder {
		rc = protodiff.AsSet
	}
	return protodiff.DefaultConfig().
		WithFieldComparison(fc).
		WithRepeatedFieldComparison(rc).
		ReportingMatches(!s.reportMismatchesOnly).
		WithScope(s.scope)
}
