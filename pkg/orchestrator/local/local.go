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

// Package local runs mini-batch scoring commands in-process, one at a time,
// and aggregates their stdout into the append-row sink. It is the
// development-loop counterpart of the cluster orchestrators.
package local

import (
	"fmt"
	"strings"

	"mlbatch-toolkit/pkg/logging"
	"mlbatch-toolkit/pkg/orchestrator"
	"mlbatch-toolkit/pkg/shell"
	"mlbatch-toolkit/pkg/sink"
)

// Runner abstracts command execution so tests can substitute a fake.
type Runner func(name string, args ...string) shell.Result

// Orchestrator implements orchestrator.Orchestrator by executing the scoring
// command per mini-batch. The scoring command receives the batch's partition
// arguments and files and is expected to emit one result row per file on
// stdout; each row lands in the sink with the batch's partition values as
// trailing columns.
type Orchestrator struct {
	// ErrorThreshold is the number of failed mini-batches tolerated before
	// SubmitJob starts refusing work; negative means unlimited.
	ErrorThreshold int
	// Run executes commands; defaults to shell.ExecuteCommand.
	Run Runner

	sink   *sink.Writer
	failed int
}

// New returns a local orchestrator writing rows to the given sink.
func New(out *sink.Writer, errorThreshold int) *Orchestrator {
	return &Orchestrator{
		ErrorThreshold: errorThreshold,
		Run:            shell.ExecuteCommand,
		sink:           out,
	}
}

// Failed reports how many mini-batches have failed so far.
func (o *Orchestrator) Failed() int {
	return o.failed
}

// SubmitJob runs one mini-batch to completion. A non-zero scoring exit
// counts against the error threshold but does not abort the run by itself;
// crossing the threshold does.
func (o *Orchestrator) SubmitJob(job orchestrator.JobDefinition) error {
	if o.ErrorThreshold >= 0 && o.failed > o.ErrorThreshold {
		return fmt.Errorf("aborting run: %d mini-batches failed, threshold is %d", o.failed, o.ErrorThreshold)
	}

	// The sink owns the aggregated output; the script only writes stdout.
	argsJob := job
	argsJob.OutputPath = ""
	args := orchestrator.CommandArgs(argsJob)

	logging.Info("Running %s (%d files)...", job.JobName, len(job.Files))
	logging.Debug("Command: %s %s", job.Script, strings.Join(args, " "))

	run := o.Run
	if run == nil {
		run = shell.ExecuteCommand
	}
	res := run(job.Script, args...)
	if res.ExitCode != 0 {
		o.failed++
		logging.Error("Mini-batch %s failed with exit code %d: %s", job.JobName, res.ExitCode, strings.TrimSpace(res.Stderr))
		if o.ErrorThreshold >= 0 && o.failed > o.ErrorThreshold {
			return fmt.Errorf("aborting run: %d mini-batches failed, threshold is %d", o.failed, o.ErrorThreshold)
		}
		return nil
	}

	rows := splitRows(res.Stdout)
	if len(rows) != len(job.Files) {
		logging.Warn("Mini-batch %s emitted %d rows for %d files", job.JobName, len(rows), len(job.Files))
	}
	for _, row := range rows {
		if err := o.sink.Append(row, job.Partition); err != nil {
			return err
		}
	}

	logging.Info("Mini-batch %s completed: %d rows", job.JobName, len(rows))
	return nil
}

func splitRows(stdout string) []string {
	var rows []string
	for _, line := range strings.Split(stdout, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, line)
	}
	return rows
}
