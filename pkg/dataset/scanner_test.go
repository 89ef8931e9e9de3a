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

package dataset

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

func writeFiles(t *testing.T, fsys afero.Fs, files map[string]string) {
	t.Helper()
	for path, content := range files {
		if err := afero.WriteFile(fsys, path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %q: %v", path, err)
		}
	}
}

func TestScanReturnsLexicalOrder(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, map[string]string{
		"data/user2/summer/piano.wav":   "",
		"data/user1/winter/disco.wav":   "",
		"data/user1/fall/orchestra.wav": "",
		"data/user4/fall/piano.wav":     "",
	})

	got, err := Scan(fsys, ScanOptions{Root: "data"})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	want := []string{
		"user1/fall/orchestra.wav",
		"user1/winter/disco.wav",
		"user2/summer/piano.wav",
		"user4/fall/piano.wav",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Scan listing mismatch (-want +got):\n%s", diff)
	}

	again, err := Scan(fsys, ScanOptions{Root: "data"})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if diff := cmp.Diff(got, again); diff != "" {
		t.Errorf("repeated Scan disagreed (-first +second):\n%s", diff)
	}
}

func TestScanHonorsIgnoreFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, map[string]string{
		"data/.batchignore":           "**/*.tmp\nscratch/\n",
		"data/user1/winter/disco.wav": "",
		"data/user1/winter/disco.tmp": "",
		"data/scratch/leftover.wav":   "",
	})

	got, err := Scan(fsys, ScanOptions{Root: "data"})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	want := []string{"user1/winter/disco.wav"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Scan listing mismatch (-want +got):\n%s", diff)
	}
}

func TestScanExtraPatterns(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, map[string]string{
		"data/user1/winter/disco.wav": "",
		"data/user1/notes.txt":        "",
	})

	got, err := Scan(fsys, ScanOptions{Root: "data", IgnorePatterns: []string{"**/*.txt"}})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	want := []string{"user1/winter/disco.wav"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Scan listing mismatch (-want +got):\n%s", diff)
	}
}

func TestScanRejectsBadRoots(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, map[string]string{"data/file.wav": ""})

	if _, err := Scan(fsys, ScanOptions{Root: ""}); err == nil {
		t.Errorf("Scan with empty root succeeded, want error")
	}
	if _, err := Scan(fsys, ScanOptions{Root: "missing"}); err == nil {
		t.Errorf("Scan of missing root succeeded, want error")
	}
	if _, err := Scan(fsys, ScanOptions{Root: "data/file.wav"}); err == nil {
		t.Errorf("Scan of a file root succeeded, want error")
	}
}
