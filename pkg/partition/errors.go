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

import "fmt"

// ParseError reports a path that does not match a partition template. The
// path in question is unusable; whether to skip it or abort the whole run is
// the caller's decision.
type ParseError struct {
	Path     string
	Template string
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("path %q does not match partition format %q: %s", e.Path, e.Template, e.Reason)
}

// MissingKeyError reports a record that lacks a requested partition key. It
// indicates a configuration error and should abort a run before any work is
// dispatched.
type MissingKeyError struct {
	Key  string
	Path string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("record %q has no value for partition key %q", e.Path, e.Key)
}

// InvalidKeyError reports a requested partition key that is unknown or
// repeated. It indicates a configuration error.
type InvalidKeyError struct {
	Key    string
	Reason string
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("invalid partition key %q: %s", e.Key, e.Reason)
}
