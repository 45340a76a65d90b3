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

// Package protodiff compares two protobuf messages of the same schema
// under a configurable equivalence relation and reports the outcome as
// a stream of per-field diff events.
//
// The comparison walks the schema recursively, field by field in
// declaration order, so the event stream is deterministic for identical
// inputs. Field presence handling, repeated field ordering and the set of
// participating field paths are all configurable through [Config].
//
// Compare is synchronous and purely computational; its cost is bounded by
// the input sizes. The one performance-sensitive spot is unordered repeated
// field comparison: pairing two repeated fields of sizes m and n costs
// O(m*n) element comparisons.
package protodiff

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protopath"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/prototruth/prototruth/fieldscope"
)

// Compare walks expected and actual under cfg, streaming one event per
// compared field occurrence to r, and reports whether the messages are
// equal under cfg: true iff no actionable event was produced.
//
// r may be nil to compute equality without collecting events.
//
// Inequality is a normal outcome, not an error. An error is returned only
// for caller contract violations: a nil or invalid message, messages of
// different schemas, or a scope in cfg that does not compile against the
// schema (an unknown field number, a bad mask path, ...).
func Compare(expected, actual proto.Message, cfg Config, r Reporter) (bool, error) {
	if expected == nil || actual == nil {
		return false, errors.New("protodiff: cannot compare nil messages")
	}
	x, y := expected.ProtoReflect(), actual.ProtoReflect()
	if !x.IsValid() || !y.IsValid() {
		return false, errors.New("protodiff: cannot compare invalid messages")
	}
	if x.Descriptor() != y.Descriptor() {
		return false, fmt.Errorf("protodiff: mismatched message types: %s vs %s",
			x.Descriptor().FullName(), y.Descriptor().FullName())
	}
	scope := cfg.scope
	if scope == nil {
		return false, errors.New("protodiff: config has no scope, use DefaultConfig")
	}
	crit, err := scope.Compile(x.Descriptor())
	if err != nil {
		return false, err
	}
	d := &differ{cfg: cfg, crit: crit, rep: r}
	// The two sides carry separate path slices so unordered repeated
	// comparison can report an element pair at both of its positions.
	rx := protopath.Path{protopath.Root(x.Descriptor())}
	ry := protopath.Path{protopath.Root(x.Descriptor())}
	return d.diffMessage(rx, ry, x, y), nil
}

// differ carries the state of one Compare call. It is not reused across
// calls; the quiet sub-comparisons used by the unordered matcher run on
// reporterless copies.
type differ struct {
	cfg  Config
	crit *fieldscope.Criteria
	rep  Reporter
}

func (d *differ) report(t ReportType, x, y protoreflect.Message, px, py protopath.Path) {
	if d.rep == nil {
		return
	}
	// The path slices are rebuilt in place during traversal; hand the
	// reporter its own copies.
	d.rep.Report(t, x, y, slices.Clone(px), slices.Clone(py))
}

// diffMessage compares every declared field of the schema, extending the
// two side paths in lockstep per field. Returns true iff no actionable
// difference was found below them.
func (d *differ) diffMessage(px, py protopath.Path, x, y protoreflect.Message) bool {
	equal := true
	fields := x.Descriptor().Fields()
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		fx := append(px, protopath.FieldAccess(fd))
		fy := append(py, protopath.FieldAccess(fd))
		if !d.crit.Covers(fx) {
			d.report(Ignored, x, y, fx, fy)
			continue
		}
		if !d.diffField(fx, fy, x, y, fd) {
			equal = false
		}
	}
	return equal
}

func (d *differ) diffField(px, py protopath.Path, x, y protoreflect.Message, fd protoreflect.FieldDescriptor) bool {
	switch {
	case fd.IsMap():
		return d.diffMap(px, py, x, y, fd)
	case fd.IsList():
		if d.cfg.repeatedComparison == AsSet {
			return d.diffSet(px, py, x, y, fd)
		}
		return d.diffList(px, py, x, y, fd)
	default:
		return d.diffSingular(px, py, x, y, fd)
	}
}

// diffSingular compares a singular scalar or message field.
func (d *differ) diffSingular(px, py protopath.Path, x, y protoreflect.Message, fd protoreflect.FieldDescriptor) bool {
	hasX, hasY := x.Has(fd), y.Has(fd)
	if d.cfg.fieldComparison == Equal {
		if hasX != hasY {
			if hasX {
				d.report(Deleted, x, y, px, py)
			} else {
				d.report(Added, x, y, px, py)
			}
			return false
		}
		if !hasX {
			return true
		}
	} else if !hasX && !hasY {
		return true
	}
	// Under Equivalent, Get yields the type's default for an unset field,
	// so an absent message field compares as an empty message.
	if fd.Message() != nil {
		return d.diffMessage(px, py, x.Get(fd).Message(), y.Get(fd).Message())
	}
	if x.Get(fd).Equal(y.Get(fd)) {
		if d.cfg.reportMatches {
			d.report(Matched, x, y, px, py)
		}
		return true
	}
	d.report(Modified, x, y, px, py)
	return false
}

// diffList compares a repeated field position-wise. Elements past the
// shorter length are reported per index as Added or Deleted.
func (d *differ) diffList(px, py protopath.Path, x, y protoreflect.Message, fd protoreflect.FieldDescriptor) bool {
	lx, ly := x.Get(fd).List(), y.Get(fd).List()
	m, n := lx.Len(), ly.Len()
	equal := m == n
	for i := 0; i < min(m, n); i++ {
		if !d.diffElement(append(px, protopath.ListIndex(i)), append(py, protopath.ListIndex(i)), x, y, fd, lx.Get(i), ly.Get(i)) {
			equal = false
		}
	}
	for i := n; i < m; i++ {
		d.report(Deleted, x, y, append(px, protopath.ListIndex(i)), append(py, protopath.ListIndex(i)))
	}
	for i := m; i < n; i++ {
		d.report(Added, x, y, append(px, protopath.ListIndex(i)), append(py, protopath.ListIndex(i)))
	}
	return equal
}

// diffElement compares two paired elements as a singular value of the
// element type.
func (d *differ) diffElement(px, py protopath.Path, x, y protoreflect.Message, fd protoreflect.FieldDescriptor, vx, vy protoreflect.Value) bool {
	if fd.Message() != nil {
		return d.diffMessage(px, py, vx.Message(), vy.Message())
	}
	if vx.Equal(vy) {
		if d.cfg.reportMatches {
			d.report(Matched, x, y, px, py)
		}
		return true
	}
	d.report(Modified, x, y, px, py)
	return false
}

// diffSet compares a repeated field as an unordered set, delegating the
// pairing to the matcher. Pairs are reported in ascending expected-index
// order, each event carrying both the expected-side and the actual-side
// element position; then unmatched expected elements as Deleted, then
// unmatched actual elements as Added.
func (d *differ) diffSet(px, py protopath.Path, x, y protoreflect.Message, fd protoreflect.FieldDescriptor) bool {
	lx, ly := x.Get(fd).List(), y.Get(fd).List()
	m := d.matchElements(px, fd, lx, ly)
	equal := len(m.unmatchedX) == 0 && len(m.unmatchedY) == 0
	for _, p := range m.pairs {
		epx := append(px, protopath.ListIndex(p.x))
		epy := append(py, protopath.ListIndex(p.y))
		if d.elementsEqual(epx, fd, lx.Get(p.x), ly.Get(p.y)) {
			if d.cfg.reportMatches {
				d.report(Matched, x, y, epx, epy)
			}
			continue
		}
		if !d.diffElement(epx, epy, x, y, fd, lx.Get(p.x), ly.Get(p.y)) {
			equal = false
		}
	}
	for _, i := range m.unmatchedX {
		d.report(Deleted, x, y, append(px, protopath.ListIndex(i)), append(py, protopath.ListIndex(i)))
	}
	for _, j := range m.unmatchedY {
		d.report(Added, x, y, append(px, protopath.ListIndex(j)), append(py, protopath.ListIndex(j)))
	}
	return equal
}

// diffMap compares map fields entry-wise, iterating keys in sorted order so
// the event stream is deterministic. Entry paths are checked against the
// scope like field paths: a mask may exclude individual keys.
func (d *differ) diffMap(px, py protopath.Path, x, y protoreflect.Message, fd protoreflect.FieldDescriptor) bool {
	mx, my := x.Get(fd).Map(), y.Get(fd).Map()
	equal := true
	for _, k := range sortedKeys(mx, my) {
		kx := append(px, protopath.MapIndex(k))
		ky := append(py, protopath.MapIndex(k))
		if !d.crit.Covers(kx) {
			d.report(Ignored, x, y, kx, ky)
			continue
		}
		hasX, hasY := mx.Has(k), my.Has(k)
		switch {
		case hasX && !hasY:
			d.report(Deleted, x, y, kx, ky)
			equal = false
		case !hasX && hasY:
			d.report(Added, x, y, kx, ky)
			equal = false
		default:
			if !d.diffElement(kx, ky, x, y, fd.MapValue(), mx.Get(k), my.Get(k)) {
				equal = false
			}
		}
	}
	return equal
}

// elementsEqual reports whether two repeated-field elements compare fully
// equal under the active configuration, without emitting events.
func (d *differ) elementsEqual(path protopath.Path, fd protoreflect.FieldDescriptor, vx, vy protoreflect.Value) bool {
	if fd.Message() != nil {
		// diffMessage extends the two side paths in place, so each side
		// needs its own backing array.
		q := &differ{cfg: d.cfg, crit: d.crit}
		return q.diffMessage(path, slices.Clone(path), vx.Message(), vy.Message())
	}
	return vx.Equal(vy)
}

// sortedKeys returns the union of the keys of both maps in a canonical
// order. Map keys are bools, integers or strings, never compound values.
func sortedKeys(mx, my protoreflect.Map) []protoreflect.MapKey {
	keys := make([]protoreflect.MapKey, 0, mx.Len()+my.Len())
	mx.Range(func(k protoreflect.MapKey, _ protoreflect.Value) bool {
		keys = append(keys, k)
		return true
	})
	my.Range(func(k protoreflect.MapKey, _ protoreflect.Value) bool {
		if !mx.Has(k) {
			keys = append(keys, k)
		}
		return true
	})
	sort.Slice(keys, func(i, j int) bool { return keyLess(keys[i], keys[j]) })
	return keys
}

func keyLess(a, b protoreflect.MapKey) bool {
	switch av := a.Interface().(type) {
	case bool:
		return !av && b.Bool()
	case int32:
		return av < int32(b.Int())
	case int64:
		return av < b.Int()
	case uint32:
		return av < uint32(b.Uint())
	case uint64:
		return av < b.Uint()
	case string:
		return av < b.String()
	}
	return false
}
