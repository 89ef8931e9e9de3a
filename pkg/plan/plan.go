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
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"mlbatch-toolkit/pkg/dataset"
	"mlbatch-toolkit/pkg/logging"
	"mlbatch-toolkit/pkg/partition"
)

// MiniBatch is one planned unit of work: the files sharing a partition key
// tuple, plus the job name it will be dispatched under.
type MiniBatch struct {
	Index     int                  `yaml:"index"`
	JobName   string               `yaml:"job_name"`
	Partition []partition.KeyValue `yaml:"partition"`
	Files     []string             `yaml:"files"`
}

// Plan is the full dispatch plan for a run. Batch numbering follows the
// grouper's first-seen order, so rebuilding a plan from identical input
// reproduces identical job names and an individual batch can be retried.
type Plan struct {
	RunID   string      `yaml:"run_id"`
	Name    string      `yaml:"name"`
	Keys    []string    `yaml:"partition_keys"`
	Batches []MiniBatch `yaml:"batches"`
	// Skipped lists paths dropped by skip_unmatched, for the run log.
	Skipped []string `yaml:"skipped,omitempty"`
}

// Build scans the dataset root, parses every file against the partition
// format, groups by the configured key set, and derives one mini-batch per
// group. With cfg.SkipUnmatched unset, the first unparseable path aborts the
// build.
func Build(fsys afero.Fs, cfg Config) (*Plan, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tmpl, err := partition.CompileTemplate(cfg.PartitionFormat)
	if err != nil {
		return nil, err
	}

	paths, err := dataset.Scan(fsys, dataset.ScanOptions{
		Root:           cfg.DatasetRoot,
		IgnorePatterns: cfg.IgnorePatterns,
	})
	if err != nil {
		return nil, err
	}

	var records []partition.Record
	var skipped []string
	for _, path := range paths {
		rec, err := tmpl.Parse(path)
		if err != nil {
			var parseErr *partition.ParseError
			if cfg.SkipUnmatched && errors.As(err, &parseErr) {
				logging.Warn("Skipping unmatched file: %v", parseErr)
				skipped = append(skipped, path)
				continue
			}
			return nil, err
		}
		records = append(records, rec)
	}

	grouping, err := partition.GroupBy(records, cfg.PartitionKeys)
	if err != nil {
		return nil, err
	}

	p := &Plan{
		RunID:   uuid.New().String(),
		Name:    cfg.Name,
		Keys:    grouping.Keys,
		Skipped: skipped,
	}
	for _, grp := range grouping.Groups {
		files := make([]string, 0, len(grp.Records))
		for _, rec := range grp.Records {
			files = append(files, rec.Path)
		}
		p.Batches = append(p.Batches, MiniBatch{
			Index:     grp.Index,
			JobName:   fmt.Sprintf("%s-batch-%03d", cfg.Name, grp.Index),
			Partition: grp.Key,
			Files:     files,
		})
	}

	logging.Info("Planned %d mini-batches over %d files (%d skipped)",
		len(p.Batches), len(records), len(skipped))
	return p, nil
}

// Marshal renders the plan as YAML.
func (p *Plan) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal plan: %w", err)
	}
	return data, nil
}
