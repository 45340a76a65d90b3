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
	"google.golang.org/protobuf/types/known/fieldmaskpb"
	"google.golang.org/protobuf/types/known/structpb"

	. "github.com/smartystreets/goconvey/convey"
)

func maskOf(paths ...string) FieldScope {
	return FromFieldMask(&fieldmaskpb.FieldMask{Paths: paths})
}

func TestFromFieldMask(t *testing.T) {
	t.Parallel()

	Convey("FromFieldMask", t, func() {
		Convey("empty mask covers everything", func() {
			c, err := maskOf().Compile(testDesc)
			So(err, ShouldBeNil)
			So(c.Covers(fieldPath("name")), ShouldBeTrue)
			So(c.Covers(fieldPath("options", "deprecated")), ShouldBeTrue)
		})

		Convey("leaf paths cover their subtree only", func() {
			c, err := maskOf("options").Compile(testDesc)
			So(err, ShouldBeNil)
			So(c.Covers(fieldPath("options")), ShouldBeTrue)
			So(c.Covers(fieldPath("options", "deprecated")), ShouldBeTrue)
			So(c.Covers(fieldPath("name")), ShouldBeFalse)
		})

		Convey("ancestors of a masked leaf stay covered", func() {
			c, err := maskOf("options.deprecated").Compile(testDesc)
			So(err, ShouldBeNil)
			So(c.Covers(fieldPath("options")), ShouldBeTrue)
			So(c.Covers(fieldPath("options", "deprecated")), ShouldBeTrue)
			So(c.Covers(fieldPath("options", "map_entry")), ShouldBeFalse)
		})

		Convey("repeated fields use the `*` wildcard", func() {
			c, err := maskOf("field.*.name").Compile(testDesc)
			So(err, ShouldBeNil)
			fieldFd := field("field")
			nameFd := fieldFd.Message().Fields().ByName("name")
			numberFd := fieldFd.Message().Fields().ByName("number")
			elem := protopath.Path{
				protopath.Root(testDesc),
				protopath.FieldAccess(fieldFd),
				protopath.ListIndex(2),
			}
			So(c.Covers(elem), ShouldBeTrue)
			So(c.Covers(append(elem, protopath.FieldAccess(nameFd))), ShouldBeTrue)
			So(c.Covers(append(elem, protopath.FieldAccess(numberFd))), ShouldBeFalse)
		})

		Convey("map entries are addressed by key", func() {
			structDesc := (&structpb.Struct{}).ProtoReflect().Descriptor()
			fieldsFd := structDesc.Fields().ByName("fields")
			c, err := maskOf("fields.a").Compile(structDesc)
			So(err, ShouldBeNil)
			entry := func(key string) protopath.Path {
				return protopath.Path{
					protopath.Root(structDesc),
					protopath.FieldAccess(fieldsFd),
					protopath.MapIndex(protoreflect.ValueOfString(key).MapKey()),
				}
			}
			So(c.Covers(entry("a")), ShouldBeTrue)
			So(c.Covers(entry("b")), ShouldBeFalse)

			c, err = maskOf("fields.*").Compile(structDesc)
			So(err, ShouldBeNil)
			So(c.Covers(entry("b")), ShouldBeTrue)
		})

		Convey("bad paths are compile errors", func() {
			_, err := maskOf("no_such_field").Compile(testDesc)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, `has no field "no_such_field"`)

			_, err = maskOf("name.sub").Compile(testDesc)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "not a message field")

			_, err = maskOf("field.name").Compile(testDesc)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "must be followed by `*`")

			_, err = maskOf("reserved_name.*.x").Compile(testDesc)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "non-message elements")

			_, err = maskOf("").Compile(testDesc)
			So(err, ShouldNotBeNil)
		})
	})
}
