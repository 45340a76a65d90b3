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
	"testing"

	"google.golang.org/protobuf/reflect/protopath"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"

	. "github.com/smartystreets/goconvey/convey"
)

// descriptor.proto messages double as test schemas: DescriptorProto has
// singular scalars, singular messages, repeated messages and repeated
// scalars.
var testDesc = (&descriptorpb.DescriptorProto{}).ProtoReflect().Descriptor()

func field(name protoreflect.Name) protoreflect.FieldDescriptor {
	fd := testDesc.Fields().ByName(name)
	if fd == nil {
		panic("no field " + name)
	}
	return fd
}

func fieldPath(names ...protoreflect.Name) protopath.Path {
	p := protopath.Path{protopath.Root(testDesc)}
	desc := testDesc
	for _, name := range names {
		fd := desc.Fields().ByName(name)
		if fd == nil {
			panic("no field " + name)
		}
		p = append(p, protopath.FieldAccess(fd))
		if fd.Message() != nil {
			desc = fd.Message()
		}
	}
	return p
}

func TestAll(t *testing.T) {
	t.Parallel()

	Convey("All covers every path", t, func() {
		c, err := All().Compile(testDesc)
		So(err, ShouldBeNil)
		So(c.Covers(fieldPath("name")), ShouldBeTrue)
		So(c.Covers(fieldPath("options", "deprecated")), ShouldBeTrue)
		So(c.Descriptor().FullName(), ShouldEqual, testDesc.FullName())
	})
}

func TestIgnoring(t *testing.T) {
	t.Parallel()

	Convey("Ignoring", t, func() {
		Convey("excludes the named fields and their subtrees", func() {
			c, err := Ignoring(field("name").Number(), field("options").Number()).Compile(testDesc)
			So(err, ShouldBeNil)
			So(c.Covers(fieldPath("name")), ShouldBeFalse)
			So(c.Covers(fieldPath("options")), ShouldBeFalse)
			So(c.Covers(fieldPath("options", "deprecated")), ShouldBeFalse)
			So(c.Covers(fieldPath("field")), ShouldBeTrue)
		})

		Convey("rejects unknown field numbers at compile time", func() {
			_, err := Ignoring(999).Compile(testDesc)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "has no field number 999")
		})
	})

	Convey("IgnoringDescriptors", t, func() {
		Convey("excludes by descriptor", func() {
			c, err := IgnoringDescriptors(field("reserved_name")).Compile(testDesc)
			So(err, ShouldBeNil)
			So(c.Covers(fieldPath("reserved_name")), ShouldBeFalse)
			So(c.Covers(fieldPath("name")), ShouldBeTrue)
		})

		Convey("rejects descriptors of a foreign schema", func() {
			foreign := (&descriptorpb.FieldDescriptorProto{}).ProtoReflect().Descriptor().Fields().ByName("number")
			_, err := IgnoringDescriptors(foreign).Compile(testDesc)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "is not declared in")
		})
	})
}

func TestComposition(t *testing.T) {
	t.Parallel()

	Convey("And intersects", t, func() {
		c, err := And(Ignoring(field("name").Number()), Ignoring(field("field").Number())).Compile(testDesc)
		So(err, ShouldBeNil)
		So(c.Covers(fieldPath("name")), ShouldBeFalse)
		So(c.Covers(fieldPath("field")), ShouldBeFalse)
		So(c.Covers(fieldPath("options")), ShouldBeTrue)
	})

	Convey("And surfaces compile errors from either side", t, func() {
		_, err := And(All(), Ignoring(999)).Compile(testDesc)
		So(err, ShouldNotBeNil)
	})

	Convey("Not complements over the full universe", t, func() {
		// Ignoring(name) as a scope covers everything but `name`, so its
		// complement covers exactly `name`'s subtree.
		c, err := Not(Ignoring(field("name").Number())).Compile(testDesc)
		So(err, ShouldBeNil)
		So(c.Covers(fieldPath("name")), ShouldBeTrue)
		So(c.Covers(fieldPath("field")), ShouldBeFalse)
	})

	Convey("And(a, Not(b)) does not narrow Not(b) to a's universe", t, func() {
		// a covers everything except `name`; b covers everything except
		// `field`. Not(b) therefore covers only `field`, regardless of a.
		a := Ignoring(field("name").Number())
		b := Ignoring(field("field").Number())
		c, err := And(a, Not(b)).Compile(testDesc)
		So(err, ShouldBeNil)
		So(c.Covers(fieldPath("field")), ShouldBeTrue)
		So(c.Covers(fieldPath("name")), ShouldBeFalse)
		So(c.Covers(fieldPath("options")), ShouldBeFalse)
	})
}
