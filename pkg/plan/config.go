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

// Package plan turns a declarative batch-inference run config into an
// ordered dispatch plan, one unit of work per partition group.
package plan

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"mlbatch-toolkit/pkg/partition"
)

// Config describes one batch-inference run.
type Config struct {
	// Name prefixes the derived job names. Required.
	Name string `yaml:"name"`
	// DatasetRoot is the directory whose files feed the run. Required.
	DatasetRoot string `yaml:"dataset_root"`
	// PartitionFormat names the partition keys positionally, one per path
	// segment, e.g. "{user}/{season}/{genres}.wav". Required.
	PartitionFormat string `yaml:"partition_format"`
	// PartitionKeys is the ordered subset of format keys to group by.
	// Required, non-empty.
	PartitionKeys []string `yaml:"partition_keys"`
	// Script is the scoring command run once per mini-batch. Required.
	Script string `yaml:"script"`
	// ScriptArgs are extra arguments passed before the per-batch arguments.
	ScriptArgs []string `yaml:"script_args"`
	// Output is the path of the aggregated append-row result file.
	Output string `yaml:"output"`
	// ErrorThreshold is the number of failed mini-batches tolerated before
	// the run aborts; negative means unlimited.
	ErrorThreshold int `yaml:"error_threshold"`
	// SkipUnmatched skips files that do not match PartitionFormat instead of
	// aborting the run.
	SkipUnmatched bool `yaml:"skip_unmatched"`
	// IgnorePatterns excludes files from the dataset scan, in addition to
	// the root's .batchignore file.
	IgnorePatterns []string `yaml:"ignore_patterns"`

	Compute ComputeConfig `yaml:"compute"`
}

// ComputeConfig carries the cluster-facing settings a dispatched job needs.
type ComputeConfig struct {
	ProjectID        string `yaml:"project"`
	ClusterName      string `yaml:"cluster_name"`
	ClusterLocation  string `yaml:"cluster_location"`
	AcceleratorType  string `yaml:"accelerator_type"`
	NodeCount        int    `yaml:"node_count"`
	ProcessesPerNode int    `yaml:"processes_per_node"`
}

// LoadConfig reads and validates a run config from a YAML file.
func LoadConfig(fsys afero.Fs, path string) (Config, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to read run config %q", path)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "failed to parse run config %q", path)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrapf(err, "invalid run config %q", path)
	}
	return cfg, nil
}

// Validate checks required fields and that the partition key set is a valid
// subset of the format's keys.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name must be set")
	}
	if c.DatasetRoot == "" {
		return fmt.Errorf("dataset_root must be set")
	}
	if c.Script == "" {
		return fmt.Errorf("script must be set")
	}
	if len(c.PartitionKeys) == 0 {
		return fmt.Errorf("partition_keys must name at least one key")
	}

	tmpl, err := partition.CompileTemplate(c.PartitionFormat)
	if err != nil {
		return err
	}
	return partition.ValidateKeys(tmpl.Keys(), c.PartitionKeys)
}
