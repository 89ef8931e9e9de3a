// Copyright 2026 Google LLC
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

package partition

import (
	"strconv"
	"strings"
)

// Group is one mini-batch: the records sharing identical values for every
// requested partition key. Index is the group's position in first-seen order
// over the input sequence.
type Group struct {
	Index   int
	Key     []KeyValue
	Records []Record
}

// Grouping is the result of partitioning a record sequence by a key set.
// Groups holds the mini-batches in first-seen order of their key tuples, so
// regrouping identical input reproduces identical group numbering; that keeps
// a platform-level retry of a single failed group safe.
type Grouping struct {
	Keys   []string
	Groups []Group

	byTuple map[string]int
}

// Lookup returns the group whose key tuple equals values, in Keys order.
func (g *Grouping) Lookup(values ...string) (*Group, bool) {
	idx, ok := g.byTuple[tupleID(values)]
	if !ok {
		return nil, false
	}
	return &g.Groups[idx], true
}

// Len returns the number of groups.
func (g *Grouping) Len() int {
	return len(g.Groups)
}

// GroupBy assigns every record to exactly one group matching its values for
// the requested keys. Records are visited in input order and each distinct
// key tuple opens a new group, so the output order is deterministic. A record
// lacking a requested key yields a *MissingKeyError; a repeated requested key
// yields an *InvalidKeyError. GroupBy has no side effects and allocates only
// its result, so concurrent callers need no coordination.
func GroupBy(records []Record, keys []string) (*Grouping, error) {
	seen := map[string]bool{}
	for _, k := range keys {
		if seen[k] {
			return nil, &InvalidKeyError{Key: k, Reason: "requested more than once"}
		}
		seen[k] = true
	}

	grouping := &Grouping{
		Keys:    append([]string(nil), keys...),
		byTuple: map[string]int{},
	}

	for _, rec := range records {
		values := make([]string, len(keys))
		tuple := make([]KeyValue, len(keys))
		for i, k := range keys {
			v, ok := rec.Value(k)
			if !ok {
				return nil, &MissingKeyError{Key: k, Path: rec.Path}
			}
			values[i] = v
			tuple[i] = KeyValue{Key: k, Value: v}
		}

		id := tupleID(values)
		idx, ok := grouping.byTuple[id]
		if !ok {
			idx = len(grouping.Groups)
			grouping.byTuple[id] = idx
			grouping.Groups = append(grouping.Groups, Group{Index: idx, Key: tuple})
		}
		grouping.Groups[idx].Records = append(grouping.Groups[idx].Records, rec)
	}

	return grouping, nil
}

// ValidateKeys checks a requested key set against the keys a template
// discovers: every requested key must be known and appear at most once.
func ValidateKeys(discovered, requested []string) error {
	known := map[string]bool{}
	for _, k := range discovered {
		known[k] = true
	}

	seen := map[string]bool{}
	for _, k := range requested {
		if seen[k] {
			return &InvalidKeyError{Key: k, Reason: "requested more than once"}
		}
		seen[k] = true
		if !known[k] {
			return &InvalidKeyError{Key: k, Reason: "not a key of the partition format"}
		}
	}
	return nil
}

// tupleID encodes a value tuple as a single map key. Values are quoted so a
// separator character inside a value cannot collide with the joint.
func tupleID(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = strconv.Quote(v)
	}
	return strings.Join(quoted, ",")
}
