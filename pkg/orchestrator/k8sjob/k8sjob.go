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

// Package k8sjob dispatches mini-batches as Kubernetes Jobs: one rendered
// Job manifest per mini-batch, written to a directory or applied with
// kubectl.
package k8sjob

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"mlbatch-toolkit/pkg/logging"
	"mlbatch-toolkit/pkg/orchestrator"
	"mlbatch-toolkit/pkg/shell"
)

// JobTemplate is the Go template for generating a Kubernetes Job manifest
// for one mini-batch.
const JobTemplate = `
apiVersion: batch/v1
kind: Job
metadata:
  name: {{.JobName}}
  labels:
    mlbatch.dev/run: {{.RunID}}
    mlbatch.dev/batch: "{{.BatchIndex}}"
  annotations:
    mlbatch.dev/partition: "{{.PartitionLabel}}"
{{- if .SnapshotDigest }}
    mlbatch.dev/snapshot-sha256: {{.SnapshotDigest}}
{{- end }}
spec:
  backoffLimit: {{.MaxRetries}}
  template:
    metadata:
      labels:
        mlbatch.dev/run: {{.RunID}}
    spec:
      restartPolicy: Never
      containers:
      - name: scoring-container
        image: {{.Image}}
        command: ["/bin/bash", "-c", "{{.Command}}"]
        resources:
          limits:
            nvidia.com/gpu: {{.GpuLimit}}
            cpu: {{.CPULimit}}
            memory: {{.MemoryLimit}}
        volumeMounts:
        - name: dataset
          mountPath: /mnt/data
      volumes:
      - name: dataset
        emptyDir: {}
{{- if .AcceleratorTypeLabel }}
      nodeSelector:
        cloud.google.com/gke-accelerator: {{.AcceleratorTypeLabel}}
{{- end }}
`

// Options configures the k8sjob orchestrator itself, as opposed to the
// per-batch JobDefinition.
type Options struct {
	// Image is the container image the scoring command runs in. Required.
	Image string
	// OutputDir receives one <job-name>.yaml per mini-batch. When empty,
	// manifests are applied to the configured cluster instead.
	OutputDir string
	// MaxRetries bounds per-batch Kubernetes retries.
	MaxRetries int
	// SnapshotDigest annotates manifests with the script snapshot they
	// expect.
	SnapshotDigest string
}

// Orchestrator implements orchestrator.Orchestrator for Kubernetes Jobs.
type Orchestrator struct {
	opts Options
}

// New validates the options and returns a k8sjob orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.Image == "" {
		return nil, fmt.Errorf("container image must be set")
	}
	return &Orchestrator{opts: opts}, nil
}

// Configure points kubectl at the target cluster. It is a no-op when
// manifests are only written to a directory.
func (o *Orchestrator) Configure(projectID, clusterName, clusterLocation string) error {
	if o.opts.OutputDir != "" {
		return nil
	}
	if clusterName == "" || clusterLocation == "" {
		return fmt.Errorf("cluster name and location must be set to apply manifests")
	}

	logging.Info("Configuring kubectl for cluster '%s'...", clusterName)
	res := shell.ExecuteCommand("gcloud", "container", "clusters", "get-credentials",
		clusterName, "--zone", clusterLocation, "--project", projectID)
	if res.ExitCode != 0 {
		return fmt.Errorf("failed to get cluster credentials: %s\n%s", res.Stderr, res.Stdout)
	}
	logging.Info("kubectl configured successfully.")
	return nil
}

// SubmitJob renders the mini-batch's Job manifest and writes or applies it.
func (o *Orchestrator) SubmitJob(job orchestrator.JobDefinition) error {
	manifest, err := GenerateManifest(o.opts, job)
	if err != nil {
		return err
	}

	if o.opts.OutputDir != "" {
		if err := os.MkdirAll(o.opts.OutputDir, 0755); err != nil {
			return fmt.Errorf("failed to create manifest directory %q: %w", o.opts.OutputDir, err)
		}
		outPath := filepath.Join(o.opts.OutputDir, job.JobName+".yaml")
		if err := os.WriteFile(outPath, []byte(manifest), 0644); err != nil {
			return fmt.Errorf("failed to write manifest to %q: %w", outPath, err)
		}
		logging.Info("Saved manifest for %s to %s", job.JobName, outPath)
		return nil
	}

	return o.applyManifest(job.JobName, manifest)
}

func (o *Orchestrator) applyManifest(jobName, manifest string) error {
	logging.Info("Applying manifest for %s...", jobName)
	cmd := shell.NewCommand("kubectl", "apply", "-f", "-")
	cmd.SetInput(manifest)
	res := cmd.Execute()
	if res.ExitCode != 0 {
		return fmt.Errorf("kubectl apply failed with exit code %d: %s\n%s", res.ExitCode, res.Stderr, res.Stdout)
	}
	logging.Info("Job %s submitted.", jobName)
	return nil
}

// resourceLimits maps an accelerator type to container resource limits.
func resourceLimits(acceleratorType string) (gpu, cpu, memory string) {
	switch acceleratorType {
	case "nvidia-tesla-a100":
		return "1", "8", "64Gi"
	case "nvidia-tesla-t4":
		return "1", "4", "16Gi"
	default: // CPU-only scoring
		return "0", "2", "8Gi"
	}
}

// GenerateManifest renders the Kubernetes Job manifest for one mini-batch.
func GenerateManifest(opts Options, job orchestrator.JobDefinition) (string, error) {
	if job.JobName == "" {
		return "", fmt.Errorf("job name must be set")
	}

	gpuLimit, cpuLimit, memoryLimit := resourceLimits(job.AcceleratorType)

	command := job.Script + " " + strings.Join(orchestrator.CommandArgs(job), " ")

	partitionParts := make([]string, 0, len(job.Partition))
	for _, kv := range job.Partition {
		partitionParts = append(partitionParts, kv.Key+"="+kv.Value)
	}

	tmpl, err := template.New("job").Parse(JobTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse job template: %w", err)
	}

	data := struct {
		JobName              string
		RunID                string
		BatchIndex           int
		PartitionLabel       string
		SnapshotDigest       string
		MaxRetries           int
		Image                string
		Command              string
		AcceleratorTypeLabel string
		GpuLimit             string
		CPULimit             string
		MemoryLimit          string
	}{
		JobName:              job.JobName,
		RunID:                job.RunID,
		BatchIndex:           job.BatchIndex,
		PartitionLabel:       strings.Join(partitionParts, ","),
		SnapshotDigest:       opts.SnapshotDigest,
		MaxRetries:           opts.MaxRetries,
		Image:                opts.Image,
		Command:              command,
		AcceleratorTypeLabel: job.AcceleratorType,
		GpuLimit:             gpuLimit,
		CPULimit:             cpuLimit,
		MemoryLimit:          memoryLimit,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute job template: %w", err)
	}
	return buf.String(), nil
}
