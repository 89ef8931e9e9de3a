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

package sink

import (
	"testing"

	"github.com/spf13/afero"

	"mlbatch-toolkit/pkg/partition"
)

func readOutput(t *testing.T, fsys afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		t.Fatalf("failed to read %q: %v", path, err)
	}
	return string(data)
}

func TestAppendTrailingColumns(t *testing.T) {
	fsys := afero.NewMemMapFs()
	w, err := Open(fsys, "out/results.txt")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	keys := []partition.KeyValue{{Key: "user", Value: "user4"}, {Key: "genres", Value: "piano"}}
	if err := w.Append("user4/spring/piano.wav,0.93", keys); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := w.Append("user4/fall/piano.wav,0.87", keys); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	want := "user4/spring/piano.wav,0.93,user4,piano\n" +
		"user4/fall/piano.wav,0.87,user4,piano\n"
	if got := readOutput(t, fsys, "out/results.txt"); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestOpenAppendsToExistingOutput(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "results.txt", []byte("earlier,row\n"), 0644); err != nil {
		t.Fatalf("failed to seed output: %v", err)
	}

	w, err := Open(fsys, "results.txt")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := w.Append("later,row", nil); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	want := "earlier,row\nlater,row\n"
	if got := readOutput(t, fsys, "results.txt"); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestOpenRepairsPartialTrailingLine(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "results.txt", []byte("complete,row\npartial,ro"), 0644); err != nil {
		t.Fatalf("failed to seed output: %v", err)
	}

	w, err := Open(fsys, "results.txt")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := w.Append("retried,row", nil); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	want := "complete,row\nretried,row\n"
	if got := readOutput(t, fsys, "results.txt"); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open(afero.NewMemMapFs(), ""); err == nil {
		t.Errorf("Open with empty path succeeded, want error")
	}
}
