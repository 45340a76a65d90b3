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
	"google.golang.org/protobuf/reflect/protopath"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// ReportType classifies one diff event.
type ReportType int

const (
	// Added means the field occurrence is present on the actual side only.
	Added ReportType = iota
	// Deleted means the field occurrence is present on the expected side
	// only.
	Deleted
	// Modified means the field occurrence is present on both sides with
	// different values.
	Modified
	// Matched means the field occurrence compared equal. Only emitted when
	// match reporting is enabled.
	Matched
	// Ignored means the field path is outside the configured scope and was
	// skipped.
	Ignored
)

// IsFailure reports whether this event kind is actionable, i.e. whether it
// makes the compared messages unequal. Matched and Ignored are notices and
// never cause inequality by themselves.
func (t ReportType) IsFailure() bool {
	return t == Added || t == Deleted || t == Modified
}

func (t ReportType) String() string {
	switch t {
	case Added:
		return "added"
	case Deleted:
		return "deleted"
	case Modified:
		return "modified"
	case Matched:
		return "matched"
	case Ignored:
		return "ignored"
	}
	return "unknown"
}

// Record is one immutable diff event.
//
// X and Y are the expected-side and actual-side messages containing the
// reported field occurrence; a side that lacks the enclosing subtree holds
// an invalid message. Path locates the occurrence on the expected side,
// ActualPath on the actual side; both start with a protopath.Root step.
// The two differ only in the element indices of repeated fields paired up
// by unordered comparison, and are otherwise step-for-step identical.
type Record struct {
	Type       ReportType
	X, Y       protoreflect.Message
	Path       protopath.Path
	ActualPath protopath.Path
}

// Reporter consumes the stream of diff events produced by one Compare call.
//
// Events arrive in deterministic order: schema field order, with repeated
// fields expanded in index order (AsList) or matched-pair order (AsSet).
// path locates the occurrence on the expected side and actualPath on the
// actual side; see Record. Both paths are owned by the Reporter and remain
// valid after Report returns.
type Reporter interface {
	Report(t ReportType, x, y protoreflect.Message, path, actualPath protopath.Path)
}
