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

package fieldscope

import (
	"fmt"
	"strings"

	"google.golang.org/protobuf/reflect/protopath"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/known/fieldmaskpb"
)

// FromFieldMask returns a scope covering exactly the subtrees named by
// a standard field mask.
//
// Mask paths use field names separated by dots. A path may address map
// entries by key and repeated elements with a `*` wildcard, e.g.
// "attrs.some_key.name" or "items.*.id". A path covers the named field and
// everything below it; ancestor fields of a mask path are also covered,
// since they must be traversed to reach the masked leaves.
//
// A mask with no paths covers the entire message, matching field mask
// conventions for read masks.
//
// The mask paths are validated against the schema at compile time; naming
// a field that does not exist, or descending into a non-message field, is
// a configuration error.
func FromFieldMask(fm *fieldmaskpb.FieldMask) FieldScope {
	return maskScope{fm}
}

type maskScope struct{ fm *fieldmaskpb.FieldMask }

func (s maskScope) Compile(desc protoreflect.MessageDescriptor) (*Criteria, error) {
	root := &maskNode{}
	for _, path := range s.fm.GetPaths() {
		if path == "" {
			return nil, fmt.Errorf("fieldscope: empty field mask path")
		}
		if err := root.parse(desc, path, strings.Split(path, ".")); err != nil {
			return nil, err
		}
	}
	return &Criteria{desc: desc, covers: root.covers}, nil
}

func (s maskScope) String() string {
	return fmt.Sprintf("fieldMask(%s)", strings.Join(s.fm.GetPaths(), ", "))
}

// maskNode is one level of a parsed field mask tree.
//
// A node with no children covers its entire subtree. Map keys and the `*`
// wildcard are stored as child names alongside field names, the way the
// containing path segment spells them.
type maskNode struct {
	children map[string]*maskNode
}

func (n *maskNode) child(name string) *maskNode {
	if n.children == nil {
		n.children = map[string]*maskNode{}
	}
	c := n.children[name]
	if c == nil {
		c = &maskNode{}
		n.children[name] = c
	}
	return c
}

// parse validates the remaining segments of one mask path against desc and
// merges them into the tree rooted at n.
func (n *maskNode) parse(desc protoreflect.MessageDescriptor, path string, segs []string) error {
	if len(segs) == 0 {
		return nil
	}
	seg := segs[0]
	fd := desc.Fields().ByName(protoreflect.Name(seg))
	if fd == nil {
		return fmt.Errorf("fieldscope: bad field mask path %q: message %s has no field %q", path, desc.FullName(), seg)
	}
	node := n.child(seg)
	rest := segs[1:]
	if len(rest) == 0 {
		return nil
	}
	switch {
	case fd.IsMap():
		// The next segment is a concrete key or the `*` wildcard; anything
		// beyond it addresses the map value.
		node = node.child(rest[0])
		rest = rest[1:]
		if len(rest) == 0 {
			return nil
		}
		value := fd.MapValue()
		if value.Message() == nil {
			return fmt.Errorf("fieldscope: bad field mask path %q: map %q has non-message values; it cannot have subfields", path, seg)
		}
		return node.parse(value.Message(), path, rest)
	case fd.IsList():
		if rest[0] != "*" {
			return fmt.Errorf("fieldscope: bad field mask path %q: repeated field %q must be followed by `*`", path, seg)
		}
		node = node.child("*")
		rest = rest[1:]
		if len(rest) == 0 {
			return nil
		}
		if fd.Message() == nil {
			return fmt.Errorf("fieldscope: bad field mask path %q: repeated field %q has non-message elements; it cannot have subfields", path, seg)
		}
		return node.parse(fd.Message(), path, rest)
	case fd.Message() != nil:
		return node.parse(fd.Message(), path, rest)
	default:
		return fmt.Errorf("fieldscope: bad field mask path %q: field %q is not a message field; it cannot have subfields", path, seg)
	}
}

// covers walks the tree along the path. Reaching a leaf node means the
// entire remaining subtree is covered; running out of path while children
// remain means the path is an ancestor of masked leaves and is covered
// partially, which still participates in comparison.
func (n *maskNode) covers(p protopath.Path) bool {
	node := n
	for _, step := range p {
		if step.Kind() == protopath.RootStep {
			continue
		}
		if len(node.children) == 0 {
			return true
		}
		var child *maskNode
		switch step.Kind() {
		case protopath.FieldAccessStep:
			child = node.children[string(step.FieldDescriptor().Name())]
		case protopath.ListIndexStep:
			child = node.children["*"]
		case protopath.MapIndexStep:
			child = node.children[step.MapIndex().String()]
			if child == nil {
				child = node.children["*"]
			}
		}
		if child == nil {
			return false
		}
		node = child
	}
	return true
}
