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

// Package partition derives key/value attributes from dataset file paths and
// groups files sharing the same attribute values into mini-batches, one unit
// of work per distinct value combination.
package partition

import (
	"fmt"
	"strings"
)

// KeyValue is one partition attribute of a file.
type KeyValue struct {
	Key   string
	Value string
}

// Record is a file path plus the partition attributes derived from it, in
// template order.
type Record struct {
	Path   string
	Fields []KeyValue
}

// Value returns the record's value for the given partition key.
func (r Record) Value(key string) (string, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Template is a compiled partition path format such as
// "{user}/{season}/{genres}.wav". Each slash-separated segment holds at most
// one {key} placeholder, optionally surrounded by literal text; segments
// without a placeholder must match the path literally. Matching is applied to
// the trailing segments of a path, so files may live arbitrarily deep under
// the dataset root as long as the last segments fit the format.
type Template struct {
	raw      string
	segments []templateSegment
	keys     []string
}

// templateSegment is either a literal (key == "") or a placeholder with
// optional literal prefix/suffix text.
type templateSegment struct {
	key    string
	prefix string
	suffix string
}

// CompileTemplate parses a partition format string. It fails on empty
// segments, malformed or empty placeholders, more than one placeholder in a
// segment, a repeated key name, or a format with no placeholders at all.
func CompileTemplate(format string) (*Template, error) {
	if format == "" {
		return nil, fmt.Errorf("partition format is empty")
	}

	var segments []templateSegment
	var keys []string
	seen := map[string]bool{}

	for _, raw := range strings.Split(format, "/") {
		if raw == "" {
			return nil, fmt.Errorf("partition format %q contains an empty path segment", format)
		}
		seg, err := compileSegment(raw)
		if err != nil {
			return nil, fmt.Errorf("partition format %q: %w", format, err)
		}
		if seg.key != "" {
			if seen[seg.key] {
				return nil, fmt.Errorf("partition format %q names key %q more than once", format, seg.key)
			}
			seen[seg.key] = true
			keys = append(keys, seg.key)
		}
		segments = append(segments, seg)
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("partition format %q contains no {key} placeholders", format)
	}

	return &Template{raw: format, segments: segments, keys: keys}, nil
}

func compileSegment(raw string) (templateSegment, error) {
	open := strings.Index(raw, "{")
	if open < 0 {
		if strings.Contains(raw, "}") {
			return templateSegment{}, fmt.Errorf("segment %q has %q without a matching %q", raw, "}", "{")
		}
		return templateSegment{prefix: raw}, nil
	}

	end := strings.Index(raw, "}")
	if end < open {
		return templateSegment{}, fmt.Errorf("segment %q has mismatched braces", raw)
	}

	key := raw[open+1 : end]
	if key == "" {
		return templateSegment{}, fmt.Errorf("segment %q has an empty placeholder name", raw)
	}
	rest := raw[end+1:]
	if strings.ContainsAny(rest, "{}") {
		return templateSegment{}, fmt.Errorf("segment %q has more than one placeholder", raw)
	}

	return templateSegment{
		key:    key,
		prefix: raw[:open],
		suffix: rest,
	}, nil
}

// String returns the original format string.
func (t *Template) String() string {
	return t.raw
}

// Keys returns the placeholder names in template order.
func (t *Template) Keys() []string {
	keys := make([]string, len(t.keys))
	copy(keys, t.keys)
	return keys
}

// Parse matches the trailing segments of a slash-separated path against the
// template and returns the derived record. Matching is strictly positional
// and case-sensitive; any mismatch is a *ParseError.
func (t *Template) Parse(path string) (Record, error) {
	segs := strings.Split(path, "/")
	if len(segs) < len(t.segments) {
		return Record{}, &ParseError{
			Path:     path,
			Template: t.raw,
			Reason:   fmt.Sprintf("path has %d segments, format requires %d", len(segs), len(t.segments)),
		}
	}

	// Only the trailing segments participate in the match.
	segs = segs[len(segs)-len(t.segments):]

	fields := make([]KeyValue, 0, len(t.keys))
	for i, ts := range t.segments {
		got := segs[i]
		if ts.key == "" {
			if got != ts.prefix {
				return Record{}, &ParseError{
					Path:     path,
					Template: t.raw,
					Reason:   fmt.Sprintf("segment %q does not match literal %q", got, ts.prefix),
				}
			}
			continue
		}
		if !strings.HasPrefix(got, ts.prefix) || !strings.HasSuffix(got, ts.suffix) {
			return Record{}, &ParseError{
				Path:     path,
				Template: t.raw,
				Reason:   fmt.Sprintf("segment %q does not match pattern %q", got, ts.prefix+"{"+ts.key+"}"+ts.suffix),
			}
		}
		if len(got) <= len(ts.prefix)+len(ts.suffix) {
			return Record{}, &ParseError{
				Path:     path,
				Template: t.raw,
				Reason:   fmt.Sprintf("segment %q leaves key %q empty", got, ts.key),
			}
		}
		fields = append(fields, KeyValue{Key: ts.key, Value: got[len(ts.prefix) : len(got)-len(ts.suffix)]})
	}

	return Record{Path: path, Fields: fields}, nil
}
