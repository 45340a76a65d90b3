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

package prototruth

import (
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protopath"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/testing/protocmp"

	"github.com/prototruth/prototruth/protodiff"
)

// aggregator buffers the full event stream of one comparison. The
// renderers below need global knowledge of the stream (any failures at
// all? any notices at all?) before choosing a presentation, so events are
// never rendered incrementally.
type aggregator struct {
	records     []protodiff.Record
	anyFailures bool
	anyNotices  bool
}

func (a *aggregator) Report(t protodiff.ReportType, x, y protoreflect.Message, path, actualPath protopath.Path) {
	if t.IsFailure() {
		a.anyFailures = true
	} else {
		a.anyNotices = true
	}
	a.records = append(a.records, protodiff.Record{Type: t, X: x, Y: y, Path: path, ActualPath: actualPath})
}

func (a *aggregator) render(b *strings.Builder, onlyFailures bool) {
	sr := &protodiff.StreamReporter{W: b}
	for _, r := range a.records {
		if onlyFailures && !r.Type.IsFailure() {
			continue
		}
		sr.Report(r.Type, r.X, r.Y, r.Path, r.ActualPath)
	}
}

// failEqual renders the narrative for an equality assertion that did not
// hold. Primary content is the actionable events; unless restricted to
// mismatches only, a full rendering of the whole stream follows. With no
// failures and no notices at all there is no structured path information
// to explain the discrepancy, so both values are dumped whole, with
// a go-cmp diff when it adds signal.
func (a *aggregator) failEqual(s Subject, expected proto.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Not true that %s. ", s.relationClause("equal"))
	if a.anyFailures {
		b.WriteString("Differences were found:\n")
		a.render(&b, true)
		if a.anyNotices && !s.reportMismatchesOnly {
			b.WriteString("\nFull diff:\n")
			a.render(&b, false)
		}
		return b.String()
	}
	b.WriteString("No differences were reported.")
	if !s.reportMismatchesOnly {
		if a.anyNotices {
			b.WriteString("\nFull diff:\n")
			a.render(&b, false)
		} else {
			dumpBoth(&b, s.actual, expected)
		}
	}
	return b.String()
}

// failNotEqual renders the narrative for an inequality assertion that did
// not hold: the messages were found equal, so any buffered events are
// necessarily ignorable.
func (a *aggregator) failNotEqual(s Subject, expected proto.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Not true that %s. ", s.relationClause("not equal"))
	if len(a.records) > 0 && !s.reportMismatchesOnly {
		b.WriteString("Only ignorable differences were found:\n")
		a.render(&b, false)
		return b.String()
	}
	b.WriteString("No differences were found.")
	if !s.reportMismatchesOnly {
		dumpBoth(&b, s.actual, expected)
	}
	return b.String()
}

// dumpBoth renders both whole values side by side, with a cmp diff when
// both are usable messages. Shared by the structured fallbacks above and
// the native-equality narratives of the facade.
func dumpBoth(b *strings.Builder, actual, expected proto.Message) {
	fmt.Fprintf(b, "\nActual:\n%sExpected:\n%s", dump(actual), dump(expected))
	if actual == nil || expected == nil ||
		!actual.ProtoReflect().IsValid() || !expected.ProtoReflect().IsValid() {
		return
	}
	if diff := cmp.Diff(expected, actual, protocmp.Transform()); diff != "" {
		fmt.Fprintf(b, "Diff (-expected +actual):\n%s", diff)
	}
}
