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

package orchestrator

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"mlbatch-toolkit/pkg/partition"
)

func TestCommandArgs(t *testing.T) {
	job := JobDefinition{
		Script:     "python score.py",
		ScriptArgs: []string{"--model", "weights.pt"},
		Partition: []partition.KeyValue{
			{Key: "user", Value: "user2"},
			{Key: "genres", Value: "piano"},
		},
		Files:       []string{"user2/summer/piano.wav"},
		DatasetRoot: "/mnt/data",
		OutputPath:  "/mnt/output/results.txt",
	}

	want := []string{
		"--model", "weights.pt",
		"--output", "/mnt/output/results.txt",
		"--partition", "user=user2",
		"--partition", "genres=piano",
		"/mnt/data/user2/summer/piano.wav",
	}
	if diff := cmp.Diff(want, CommandArgs(job)); diff != "" {
		t.Errorf("CommandArgs mismatch (-want +got):\n%s", diff)
	}
}

func TestCommandArgsMinimal(t *testing.T) {
	job := JobDefinition{
		Script: "score.sh",
		Files:  []string{"a.wav", "b.wav"},
	}

	want := []string{"a.wav", "b.wav"}
	if diff := cmp.Diff(want, CommandArgs(job)); diff != "" {
		t.Errorf("CommandArgs mismatch (-want +got):\n%s", diff)
	}
}
