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

// pair is one matched (expected index, actual index) element pair.
type pair struct {
	x, y int
}

// matching is the outcome of pairing up two repeated fields under AsSet.
// pairs is ordered by ascending expected index; the unmatched slices are
// ascending.
type matching struct {
	pairs      []pair
	unmatchedX []int
	unmatchedY []int
}

// matchElements pairs up the elements of two repeated fields compared as
// sets.
//
// The pairing is greedy and deterministic. A first pass walks expected
// indices in ascending order and pairs each element with the
// smallest-index unmatched actual element that compares fully equal under
// the active configuration. A second pass pairs the remaining elements of
// both sides in ascending index order; those pairs carry actual
// differences and are reported as Modified. Whatever is left over on
// either side is unmatched.
//
// Ties between equally good pairings always resolve to the
// lexicographically smallest (expected, actual) index pair, so re-running
// the comparison on the same inputs yields an identical event stream, and
// appending an identical element pair to both sides does not perturb the
// pairing of elements that compared equal before.
//
// The first pass is the O(m*n) hot spot documented on [Compare].
func (d *differ) matchElements(path protopath.Path, fd protoreflect.FieldDescriptor, lx, ly protoreflect.List) matching {
	m, n := lx.Len(), ly.Len()
	matchOf := make([]int, m)
	usedY := make([]bool, n)

	// Pass 1: equal pairs, smallest actual index first.
	for i := 0; i < m; i++ {
		matchOf[i] = -1
		// The index only disambiguates paths for the scope check, which
		// cannot distinguish element positions; any index works here.
		ep := append(path, protopath.ListIndex(i))
		for j := 0; j < n; j++ {
			if usedY[j] {
				continue
			}
			if d.elementsEqual(ep, fd, lx.Get(i), ly.Get(j)) {
				matchOf[i] = j
				usedY[j] = true
				break
			}
		}
	}

	// Pass 2: pair leftovers positionally; they differ by construction.
	j := 0
	for i := 0; i < m; i++ {
		if matchOf[i] != -1 {
			continue
		}
		for j < n && usedY[j] {
			j++
		}
		if j == n {
			break
		}
		matchOf[i] = j
		usedY[j] = true
	}

	var ret matching
	for i := 0; i < m; i++ {
		if matchOf[i] == -1 {
			ret.unmatchedX = append(ret.unmatchedX, i)
		} else {
			ret.pairs = append(ret.pairs, pair{x: i, y: matchOf[i]})
		}
	}
	for j := 0; j < n; j++ {
		if !usedY[j] {
			ret.unmatchedY = append(ret.unmatchedY, j)
		}
	}
	return ret
}
