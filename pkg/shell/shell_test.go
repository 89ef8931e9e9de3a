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

package shell

import (
	"strings"
	"testing"
)

func TestRandomString(t *testing.T) {
	s := RandomString(8)
	if len(s) != 8 {
		t.Errorf("RandomString(8) returned %q with length %d", s, len(s))
	}
	for _, r := range s {
		if r < 'a' || r > 'z' {
			t.Errorf("RandomString(8) returned %q with non-lowercase character %q", s, r)
		}
	}
}

func TestExecuteCommandMissingBinary(t *testing.T) {
	res := ExecuteCommand("mlbatch-no-such-binary")
	if res.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1 for a missing binary", res.ExitCode)
	}
	if strings.TrimSpace(res.Stderr) == "" {
		t.Errorf("Stderr is empty for a missing binary")
	}
}
