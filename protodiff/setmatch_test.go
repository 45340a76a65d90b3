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
	"testing"

	"google.golang.org/protobuf/reflect/protopath"

	"github.com/prototruth/prototruth/fieldscope"

	. "github.com/smartystreets/goconvey/convey"
)

func matchNames(xs, ys []string) matching {
	x, y := msg(xs...).ProtoReflect(), msg(ys...).ProtoReflect()
	fd := x.Descriptor().Fields().ByName("reserved_name")
	crit, err := fieldscope.All().Compile(x.Descriptor())
	So(err, ShouldBeNil)
	d := &differ{cfg: DefaultConfig(), crit: crit}
	path := protopath.Path{protopath.Root(x.Descriptor()), protopath.FieldAccess(fd)}
	return d.matchElements(path, fd, x.Get(fd).List(), y.Get(fd).List())
}

func TestMatchElements(t *testing.T) {
	t.Parallel()

	Convey("matchElements", t, func() {
		Convey("pairs equal elements first, smallest actual index wins", func() {
			m := matchNames([]string{"a", "b"}, []string{"b", "b", "a"})
			So(m.pairs, ShouldResemble, []pair{{x: 0, y: 2}, {x: 1, y: 0}})
			So(m.unmatchedX, ShouldBeEmpty)
			So(m.unmatchedY, ShouldResemble, []int{1})
		})

		Convey("pairs leftovers positionally", func() {
			m := matchNames([]string{"a", "b"}, []string{"c", "d"})
			So(m.pairs, ShouldResemble, []pair{{x: 0, y: 0}, {x: 1, y: 1}})
			So(m.unmatchedX, ShouldBeEmpty)
			So(m.unmatchedY, ShouldBeEmpty)
		})

		Convey("reports one-sided surplus as unmatched", func() {
			m := matchNames([]string{"a", "b", "c"}, []string{"b"})
			// Only "b" finds an equal partner; with no actual elements
			// left over, both remaining expected elements go unmatched.
			So(m.pairs, ShouldResemble, []pair{{x: 1, y: 0}})
			So(m.unmatchedX, ShouldResemble, []int{0, 2})
			So(m.unmatchedY, ShouldBeEmpty)
		})

		Convey("is monotonic for appended identical pairs", func() {
			base := matchNames([]string{"a", "b"}, []string{"b", "x"})
			grown := matchNames([]string{"a", "b", "z"}, []string{"b", "x", "z"})
			// The pairing of the pre-existing elements is untouched; the
			// appended identical pair matches itself.
			So(grown.pairs[:len(base.pairs)], ShouldResemble, base.pairs)
			So(grown.pairs[len(base.pairs):], ShouldResemble, []pair{{x: 2, y: 2}})
		})

		Convey("is deterministic across runs", func() {
			first := matchNames([]string{"a", "a", "b"}, []string{"b", "a", "c"})
			for i := 0; i < 10; i++ {
				So(matchNames([]string{"a", "a", "b"}, []string{"b", "a", "c"}), ShouldResemble, first)
			}
		})
	})
}
