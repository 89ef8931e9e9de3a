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
	"path"

	"mlbatch-toolkit/pkg/partition"
)

// JobDefinition holds all the necessary parameters to dispatch one
// mini-batch as a unit of work. This struct is intended to be general enough
// to support various orchestrators, with specific orchestrator
// implementations extracting the fields relevant to them.
type JobDefinition struct {
	JobName    string
	RunID      string
	BatchIndex int

	// Script plus ScriptArgs form the scoring command; Partition and Files
	// are appended as per-batch arguments.
	Script     string
	ScriptArgs []string
	Partition  []partition.KeyValue
	Files      []string

	DatasetRoot  string
	OutputPath   string
	SnapshotPath string

	// Cluster-facing options.
	ProjectID       string
	ClusterName     string
	ClusterLocation string
	AcceleratorType string
}

// Orchestrator defines the interface for dispatching mini-batch jobs.
type Orchestrator interface {
	// SubmitJob takes a JobDefinition and orchestrates its execution.
	SubmitJob(job JobDefinition) error
}

// CommandArgs assembles the argument list of a mini-batch's scoring command:
// configured extra args, then --output when set, then one --partition
// key=value per grouping key, then the batch's files resolved against the
// dataset root.
func CommandArgs(job JobDefinition) []string {
	args := append([]string{}, job.ScriptArgs...)
	if job.OutputPath != "" {
		args = append(args, "--output", job.OutputPath)
	}
	for _, kv := range job.Partition {
		args = append(args, "--partition", kv.Key+"="+kv.Value)
	}
	for _, f := range job.Files {
		if job.DatasetRoot != "" {
			f = path.Join(job.DatasetRoot, f)
		}
		args = append(args, f)
	}
	return args
}
