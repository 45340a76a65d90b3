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
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mgutz/ansi"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/reflect/protopath"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// StreamReporter renders each diff event as one line of text, e.g.
//
//	added: b[2]: "three"
//	deleted: options.deprecated: true
//	modified: name: "x" -> "y"
//	matched: number: 5
//	ignored: json_name
//
// When an event's expected-side and actual-side positions differ, as for
// element pairs matched up by unordered repeated comparison, both render:
//
//	modified: b[0] -> b[1]: "x" -> "y"
//
// Scalars render Go-style with strings quoted, enums by value name, and
// message subtrees as single-line text format in braces.
type StreamReporter struct {
	W io.Writer

	// Colorize adds ANSI color codes per line: red for added, green for
	// deleted, the diff polarity used across this module's renderings.
	Colorize bool
}

// Report implements Reporter.
func (r *StreamReporter) Report(t ReportType, x, y protoreflect.Message, path, actualPath protopath.Path) {
	p := pathString(path)
	if ap := pathString(actualPath); ap != p {
		p += " -> " + ap
	}
	var line string
	switch t {
	case Added:
		line = fmt.Sprintf("added: %s: %s", p, renderSide(y, actualPath))
	case Deleted:
		line = fmt.Sprintf("deleted: %s: %s", p, renderSide(x, path))
	case Modified:
		line = fmt.Sprintf("modified: %s: %s -> %s", p, renderSide(x, path), renderSide(y, actualPath))
	case Matched:
		line = fmt.Sprintf("matched: %s: %s", p, renderSide(x, path))
	case Ignored:
		line = fmt.Sprintf("ignored: %s", p)
	default:
		line = fmt.Sprintf("%s: %s", t, p)
	}
	if r.Colorize {
		switch t {
		case Added:
			line = ansi.Red + line + ansi.Reset
		case Deleted:
			line = ansi.Green + line + ansi.Reset
		}
	}
	fmt.Fprintln(r.W, line)
}

// pathString renders a path without its root step: `a.b[2]` rather than
// `(pkg.Msg).a.b[2]`.
func pathString(p protopath.Path) string {
	if len(p) > 0 && p.Index(0).Kind() == protopath.RootStep {
		p = p[1:]
	}
	return strings.TrimPrefix(p.String(), ".")
}

func renderSide(m protoreflect.Message, path protopath.Path) string {
	v, fd, ok := valueAt(m, path)
	if !ok {
		return "<absent>"
	}
	return formatValue(fd, v)
}

// valueAt resolves the value the last path step addresses within m, which
// is the message containing the reported field. Returns ok=false when the
// side lacks the occurrence (e.g. the actual side of a Deleted event).
func valueAt(m protoreflect.Message, path protopath.Path) (protoreflect.Value, protoreflect.FieldDescriptor, bool) {
	if m == nil || !m.IsValid() || len(path) == 0 {
		return protoreflect.Value{}, nil, false
	}
	last := path.Index(-1)
	switch last.Kind() {
	case protopath.FieldAccessStep:
		fd := last.FieldDescriptor()
		return m.Get(fd), fd, true
	case protopath.ListIndexStep:
		fd := path.Index(-2).FieldDescriptor()
		l := m.Get(fd).List()
		if i := last.ListIndex(); i < l.Len() {
			return l.Get(i), fd, true
		}
	case protopath.MapIndexStep:
		fd := path.Index(-2).FieldDescriptor()
		mp := m.Get(fd).Map()
		if k := last.MapIndex(); mp.Has(k) {
			return mp.Get(k), fd.MapValue(), true
		}
	}
	return protoreflect.Value{}, nil, false
}

func formatValue(fd protoreflect.FieldDescriptor, v protoreflect.Value) string {
	switch vi := v.Interface().(type) {
	case protoreflect.Message:
		return "{" + prototext.MarshalOptions{}.Format(vi.Interface()) + "}"
	case string:
		return strconv.Quote(vi)
	case []byte:
		return strconv.Quote(string(vi))
	case protoreflect.EnumNumber:
		if ev := fd.Enum().Values().ByNumber(vi); ev != nil {
			return string(ev.Name())
		}
		return fmt.Sprintf("%d", vi)
	default:
		return fmt.Sprintf("%v", vi)
	}
}
