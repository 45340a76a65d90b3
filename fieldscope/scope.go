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

// Package fieldscope implements composable predicates over protobuf field
// paths.
//
// A FieldScope describes which field paths of a message participate in
// a structural comparison. Scopes are built with the combinators in this
// package ([All], [Ignoring], [And], [Not], [FromFieldMask], ...) and are
// schema-agnostic until they are compiled. [FieldScope.Compile] binds
// a scope to one concrete message schema, validating it eagerly: any
// reference to a field that does not exist in the schema is a configuration
// error returned from Compile, never deferred to comparison time.
//
// The compiled form, [Criteria], answers membership queries for concrete
// [protopath.Path] values rooted at the bound schema.
package fieldscope

import (
	"fmt"
	"strings"

	"google.golang.org/protobuf/reflect/protopath"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// FieldScope is a predicate over field paths.
//
// Scope values are immutable; combinators return new scopes. A scope only
// becomes schema-aware when compiled.
type FieldScope interface {
	// Compile binds the scope to the schema of the messages about to be
	// compared and returns the resulting membership test.
	//
	// Compile validates the scope against the schema. Referencing a field
	// number or descriptor that is not declared in desc is a configuration
	// error and is returned here.
	Compile(desc protoreflect.MessageDescriptor) (*Criteria, error)

	// String returns a human-readable rendering of the scope, used in
	// configuration error messages.
	String() string
}

// Criteria is a FieldScope compiled against one message schema.
type Criteria struct {
	desc   protoreflect.MessageDescriptor
	covers func(protopath.Path) bool
}

// Descriptor returns the schema this Criteria was compiled against.
func (c *Criteria) Descriptor() protoreflect.MessageDescriptor { return c.desc }

// Covers reports whether the given path participates in the comparison.
//
// The path must be rooted at the compiled schema, i.e. start with
// a protopath.Root step, the way the differencer builds them.
func (c *Criteria) Covers(p protopath.Path) bool { return c.covers(p) }

// firstField returns the field descriptor of the first field-access step
// of p, or nil if p contains none (e.g. a bare root path).
func firstField(p protopath.Path) protoreflect.FieldDescriptor {
	for _, step := range p {
		if step.Kind() == protopath.FieldAccessStep {
			return step.FieldDescriptor()
		}
	}
	return nil
}

// All returns a scope matching every field path.
func All() FieldScope { return allScope{} }

type allScope struct{}

func (allScope) Compile(desc protoreflect.MessageDescriptor) (*Criteria, error) {
	return &Criteria{desc: desc, covers: func(protopath.Path) bool { return true }}, nil
}

func (allScope) String() string { return "all" }

// Ignoring returns a scope matching every field path except those rooted at
// the given direct-child field numbers of the compared message.
//
// Excluding a field excludes its entire subtree.
func Ignoring(fieldNumbers ...protoreflect.FieldNumber) FieldScope {
	return ignoringNumbers(fieldNumbers)
}

type ignoringNumbers []protoreflect.FieldNumber

func (s ignoringNumbers) Compile(desc protoreflect.MessageDescriptor) (*Criteria, error) {
	ignored := make(map[protoreflect.FieldNumber]bool, len(s))
	for _, num := range s {
		if desc.Fields().ByNumber(num) == nil {
			return nil, fmt.Errorf("fieldscope: message %s has no field number %d", desc.FullName(), num)
		}
		ignored[num] = true
	}
	return &Criteria{desc: desc, covers: func(p protopath.Path) bool {
		fd := firstField(p)
		return fd == nil || !ignored[fd.Number()]
	}}, nil
}

func (s ignoringNumbers) String() string {
	parts := make([]string, len(s))
	for i, num := range s {
		parts[i] = fmt.Sprintf("%d", num)
	}
	return fmt.Sprintf("ignoring(%s)", strings.Join(parts, ", "))
}

// IgnoringDescriptors returns a scope matching every field path except those
// rooted at the given direct-child fields of the compared message.
//
// Each descriptor must belong to the schema the scope is compiled against.
func IgnoringDescriptors(fds ...protoreflect.FieldDescriptor) FieldScope {
	return ignoringDescriptors(fds)
}

type ignoringDescriptors []protoreflect.FieldDescriptor

func (s ignoringDescriptors) Compile(desc protoreflect.MessageDescriptor) (*Criteria, error) {
	ignored := make(map[protoreflect.FieldNumber]bool, len(s))
	for _, fd := range s {
		if fd == nil {
			return nil, fmt.Errorf("fieldscope: nil field descriptor")
		}
		if fd.ContainingMessage().FullName() != desc.FullName() {
			return nil, fmt.Errorf("fieldscope: field %s is not declared in %s", fd.FullName(), desc.FullName())
		}
		ignored[fd.Number()] = true
	}
	return &Criteria{desc: desc, covers: func(p protopath.Path) bool {
		fd := firstField(p)
		return fd == nil || !ignored[fd.Number()]
	}}, nil
}

func (s ignoringDescriptors) String() string {
	parts := make([]string, len(s))
	for i, fd := range s {
		if fd == nil {
			parts[i] = "<nil>"
		} else {
			parts[i] = string(fd.FullName())
		}
	}
	return fmt.Sprintf("ignoringDescriptors(%s)", strings.Join(parts, ", "))
}

// And returns the intersection of two scopes: a path is matched iff both
// a and b match it.
func And(a, b FieldScope) FieldScope { return andScope{a, b} }

type andScope struct{ a, b FieldScope }

func (s andScope) Compile(desc protoreflect.MessageDescriptor) (*Criteria, error) {
	ca, err := s.a.Compile(desc)
	if err != nil {
		return nil, err
	}
	cb, err := s.b.Compile(desc)
	if err != nil {
		return nil, err
	}
	return &Criteria{desc: desc, covers: func(p protopath.Path) bool {
		return ca.covers(p) && cb.covers(p)
	}}, nil
}

func (s andScope) String() string { return fmt.Sprintf("(%s & %s)", s.a, s.b) }

// Not returns the complement of a scope.
//
// The complement ranges over the full field-path universe of the schema the
// scope is compiled against, not over any previously narrowed universe.
// In particular Not(And(a, b)) matches every path not matched by both
// a and b, including paths a alone never matched.
func Not(s FieldScope) FieldScope { return notScope{s} }

type notScope struct{ s FieldScope }

func (s notScope) Compile(desc protoreflect.MessageDescriptor) (*Criteria, error) {
	c, err := s.s.Compile(desc)
	if err != nil {
		return nil, err
	}
	return &Criteria{desc: desc, covers: func(p protopath.Path) bool {
		return !c.covers(p)
	}}, nil
}

func (s notScope) String() string { return fmt.Sprintf("!%s", s.s) }
