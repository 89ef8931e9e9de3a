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

package cmd

import (
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"mlbatch-toolkit/pkg/logging"
	"mlbatch-toolkit/pkg/orchestrator"
	"mlbatch-toolkit/pkg/orchestrator/k8sjob"
	"mlbatch-toolkit/pkg/orchestrator/local"
	"mlbatch-toolkit/pkg/plan"
	"mlbatch-toolkit/pkg/sink"
	"mlbatch-toolkit/pkg/snapshot"
)

var (
	runConfigPath  string
	runLocal       bool
	containerImage string
	manifestDir    string
	maxRetries     int
	snapshotPath   string
	scriptDir      string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "Path to the run config YAML. Required.")
	runCmd.Flags().BoolVar(&runLocal, "local", false, "Run every mini-batch locally instead of dispatching to a cluster.")
	runCmd.Flags().StringVarP(&containerImage, "image", "i", "", "Container image the scoring command runs in. Required unless --local.")
	runCmd.Flags().StringVarP(&manifestDir, "manifest-dir", "o", "", "Write one Job manifest per mini-batch to this directory instead of applying them.")
	runCmd.Flags().IntVar(&maxRetries, "max-retries", 1, "Maximum Kubernetes retries per mini-batch before it fails.")
	runCmd.Flags().StringVar(&snapshotPath, "snapshot", "", "Write a tar.gz snapshot of the script directory to this path before dispatching.")
	runCmd.Flags().StringVar(&scriptDir, "script-dir", "", "Directory to snapshot; defaults to the scoring script's directory.")

	_ = runCmd.MarkFlagRequired("config")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Builds the mini-batch plan and dispatches one scoring job per mini-batch.",
	Long: `The 'run' command builds the same plan as 'plan' and then dispatches it:
with --local every mini-batch's scoring command runs in-process and its rows
are aggregated into the configured output file; otherwise each mini-batch
becomes a Kubernetes Job manifest, written to --manifest-dir or applied to
the configured cluster.`,
	Run:          runRunCmd,
	SilenceUsage: true,
}

func runRunCmd(cmd *cobra.Command, args []string) {
	logging.Info("Executing mlbatch run command...")

	if runLocal && containerImage != "" {
		logging.Fatal("--image cannot be provided with --local as no container is used.")
	}
	if runLocal && manifestDir != "" {
		logging.Fatal("--manifest-dir cannot be provided with --local as no manifest is generated.")
	}
	if !runLocal && containerImage == "" {
		logging.Fatal("Either --local or --image must be provided.")
	}

	fsys := afero.NewOsFs()

	cfg, err := plan.LoadConfig(fsys, runConfigPath)
	if err != nil {
		logging.Fatal("Failed to load run config: %v", err)
	}

	p, err := plan.Build(fsys, cfg)
	if err != nil {
		logging.Fatal("Failed to build plan: %v", err)
	}
	if len(p.Batches) == 0 {
		logging.Fatal("Plan contains no mini-batches; nothing to dispatch.")
	}

	digest := maybeSnapshot(fsys, cfg)

	var orch orchestrator.Orchestrator
	var out *sink.Writer
	if runLocal {
		out, err = sink.Open(fsys, cfg.Output)
		if err != nil {
			logging.Fatal("Failed to open output file: %v", err)
		}
		defer out.Close()
		orch = local.New(out, cfg.ErrorThreshold)
	} else {
		k8sOrch, err := k8sjob.New(k8sjob.Options{
			Image:          containerImage,
			OutputDir:      manifestDir,
			MaxRetries:     maxRetries,
			SnapshotDigest: digest,
		})
		if err != nil {
			logging.Fatal("Failed to create orchestrator: %v", err)
		}
		if err := k8sOrch.Configure(cfg.Compute.ProjectID, cfg.Compute.ClusterName, cfg.Compute.ClusterLocation); err != nil {
			logging.Fatal("Failed to configure cluster access: %v", err)
		}
		orch = k8sOrch
	}

	for _, batch := range p.Batches {
		job := orchestrator.JobDefinition{
			JobName:         batch.JobName,
			RunID:           p.RunID,
			BatchIndex:      batch.Index,
			Script:          cfg.Script,
			ScriptArgs:      cfg.ScriptArgs,
			Partition:       batch.Partition,
			Files:           batch.Files,
			DatasetRoot:     cfg.DatasetRoot,
			OutputPath:      cfg.Output,
			SnapshotPath:    snapshotPath,
			ProjectID:       cfg.Compute.ProjectID,
			ClusterName:     cfg.Compute.ClusterName,
			ClusterLocation: cfg.Compute.ClusterLocation,
			AcceleratorType: cfg.Compute.AcceleratorType,
		}
		if err := orch.SubmitJob(job); err != nil {
			logging.Fatal("mlbatch run failed: %v", err)
		}
	}

	logging.Info("mlbatch run completed: %d mini-batches dispatched.", len(p.Batches))
}

func maybeSnapshot(fsys afero.Fs, cfg plan.Config) string {
	if snapshotPath == "" {
		return ""
	}

	dir := scriptDir
	if dir == "" {
		dir = filepath.Dir(cfg.Script)
	}
	digest, err := snapshot.Create(fsys, dir, snapshotPath, nil)
	if err != nil {
		logging.Fatal("Failed to create script snapshot: %v", err)
	}
	return digest
}
