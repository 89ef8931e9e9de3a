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

package plan

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"mlbatch-toolkit/pkg/partition"
)

func audioFs(t *testing.T) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	for _, path := range []string{
		"data/user1/winter/disco.wav",
		"data/user1/fall/orchestra.wav",
		"data/user2/summer/piano.wav",
		"data/user3/fall/spirituality.wav",
		"data/user4/spring/piano.wav",
		"data/user4/fall/piano.wav",
	} {
		if err := afero.WriteFile(fsys, path, []byte{}, 0644); err != nil {
			t.Fatalf("failed to write %q: %v", path, err)
		}
	}
	return fsys
}

func audioConfig() Config {
	return Config{
		Name:            "genre-scoring",
		DatasetRoot:     "data",
		PartitionFormat: "{user}/{season}/{genres}.wav",
		PartitionKeys:   []string{"user", "genres"},
		Script:          "scoring/score.py",
		Output:          "out/results.txt",
	}
}

func TestBuildAudioPlan(t *testing.T) {
	p, err := Build(audioFs(t), audioConfig())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(p.Batches) != 5 {
		t.Fatalf("Build produced %d batches, want 5", len(p.Batches))
	}
	if p.RunID == "" {
		t.Errorf("Build left RunID empty")
	}
	if diff := cmp.Diff([]string{"user", "genres"}, p.Keys); diff != "" {
		t.Errorf("plan keys mismatch (-want +got):\n%s", diff)
	}

	for i, b := range p.Batches {
		if b.Index != i {
			t.Errorf("batch %d carries index %d", i, b.Index)
		}
	}
	if p.Batches[0].JobName != "genre-scoring-batch-000" {
		t.Errorf("first job name = %q", p.Batches[0].JobName)
	}

	// Scan order is lexical, so user4's fall file is seen before its spring
	// file; both share one batch because season is not a grouping key.
	last := p.Batches[len(p.Batches)-1]
	wantKey := []partition.KeyValue{{Key: "user", Value: "user4"}, {Key: "genres", Value: "piano"}}
	if diff := cmp.Diff(wantKey, last.Partition); diff != "" {
		t.Errorf("last batch key mismatch (-want +got):\n%s", diff)
	}
	wantFiles := []string{"user4/fall/piano.wav", "user4/spring/piano.wav"}
	if diff := cmp.Diff(wantFiles, last.Files); diff != "" {
		t.Errorf("last batch files mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildIsReproducible(t *testing.T) {
	fsys := audioFs(t)
	cfg := audioConfig()

	first, err := Build(fsys, cfg)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	second, err := Build(fsys, cfg)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// RunID differs per build; everything dispatch depends on must not.
	first.RunID, second.RunID = "", ""
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated Build disagreed (-first +second):\n%s", diff)
	}
}

func TestBuildUnknownKey(t *testing.T) {
	cfg := audioConfig()
	cfg.PartitionKeys = []string{"user", "decade"}

	_, err := Build(audioFs(t), cfg)
	var invalidErr *partition.InvalidKeyError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("Build returned %v, want *InvalidKeyError", err)
	}
	if invalidErr.Key != "decade" {
		t.Errorf("InvalidKeyError names %q, want %q", invalidErr.Key, "decade")
	}
}

func TestBuildUnmatchedFile(t *testing.T) {
	fsys := audioFs(t)
	if err := afero.WriteFile(fsys, "data/README.md", []byte("docs"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	cfg := audioConfig()
	_, err := Build(fsys, cfg)
	var parseErr *partition.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Build returned %v, want *ParseError", err)
	}

	cfg.SkipUnmatched = true
	p, err := Build(fsys, cfg)
	if err != nil {
		t.Fatalf("Build with skip_unmatched failed: %v", err)
	}
	if len(p.Batches) != 5 {
		t.Errorf("Build produced %d batches, want 5", len(p.Batches))
	}
	if diff := cmp.Diff([]string{"README.md"}, p.Skipped); diff != "" {
		t.Errorf("skipped paths mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanMarshalRoundTrip(t *testing.T) {
	p, err := Build(audioFs(t), audioConfig())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	data, err := p.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded Plan
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal plan YAML: %v", err)
	}
	if diff := cmp.Diff(p, &decoded); diff != "" {
		t.Errorf("plan round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfig(t *testing.T) {
	fsys := afero.NewMemMapFs()
	content := `
name: genre-scoring
dataset_root: data
partition_format: "{user}/{season}/{genres}.wav"
partition_keys: [user, genres]
script: scoring/score.py
output: out/results.txt
error_threshold: 2
compute:
  cluster_name: inference-cluster
  cluster_location: us-central1-a
  accelerator_type: nvidia-tesla-a100
`
	if err := afero.WriteFile(fsys, "run.yaml", []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadConfig(fsys, "run.yaml")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "genre-scoring" || cfg.ErrorThreshold != 2 {
		t.Errorf("LoadConfig decoded %+v", cfg)
	}
	if cfg.Compute.AcceleratorType != "nvidia-tesla-a100" {
		t.Errorf("Compute.AcceleratorType = %q", cfg.Compute.AcceleratorType)
	}
	if diff := cmp.Diff([]string{"user", "genres"}, cfg.PartitionKeys); diff != "" {
		t.Errorf("partition keys mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing name", func(c *Config) { c.Name = "" }},
		{"missing root", func(c *Config) { c.DatasetRoot = "" }},
		{"missing script", func(c *Config) { c.Script = "" }},
		{"no keys", func(c *Config) { c.PartitionKeys = nil }},
		{"bad format", func(c *Config) { c.PartitionFormat = "no-placeholders" }},
		{"unknown key", func(c *Config) { c.PartitionKeys = []string{"decade"} }},
		{"duplicate key", func(c *Config) { c.PartitionKeys = []string{"user", "user"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := audioConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Validate accepted config with %s", tt.name)
			}
		})
	}
}
