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
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"mlbatch-toolkit/pkg/logging"
	"mlbatch-toolkit/pkg/plan"
)

var (
	planConfigPath string
	planOutputPath string
)

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().StringVarP(&planConfigPath, "config", "c", "", "Path to the run config YAML. Required.")
	planCmd.Flags().StringVarP(&planOutputPath, "out", "o", "", "Write the plan as YAML to this path instead of only printing it.")

	_ = planCmd.MarkFlagRequired("config")
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Computes the mini-batch plan for a run config without dispatching anything.",
	Long: `The 'plan' command scans the configured dataset root, parses every file
against the partition format, groups files by the configured partition keys,
and prints the resulting mini-batches. The same plan is what 'run' dispatches,
so 'plan' is a dry run of the grouping.`,
	Run:          runPlanCmd,
	SilenceUsage: true,
}

func runPlanCmd(cmd *cobra.Command, args []string) {
	fsys := afero.NewOsFs()

	cfg, err := plan.LoadConfig(fsys, planConfigPath)
	if err != nil {
		logging.Fatal("Failed to load run config: %v", err)
	}

	p, err := plan.Build(fsys, cfg)
	if err != nil {
		logging.Fatal("Failed to build plan: %v", err)
	}

	printPlan(p)

	if planOutputPath != "" {
		data, err := p.Marshal()
		if err != nil {
			logging.Fatal("Failed to marshal plan: %v", err)
		}
		if err := afero.WriteFile(fsys, planOutputPath, data, 0644); err != nil {
			logging.Fatal("Failed to write plan to %s: %v", planOutputPath, err)
		}
		logging.Info("Plan written to %s", planOutputPath)
	}
}

func printPlan(p *plan.Plan) {
	header := color.New(color.Bold)
	header.Printf("Run %s: %d mini-batches over keys [%s]\n", p.Name, len(p.Batches), strings.Join(p.Keys, ", "))

	for _, b := range p.Batches {
		parts := make([]string, 0, len(b.Partition))
		for _, kv := range b.Partition {
			parts = append(parts, fmt.Sprintf("%s=%s", kv.Key, kv.Value))
		}
		fmt.Printf("  %s  %s  %s\n",
			color.CyanString("%-28s", b.JobName),
			color.GreenString("(%s)", strings.Join(parts, ", ")),
			fmt.Sprintf("%d file(s)", len(b.Files)))
	}

	if len(p.Skipped) > 0 {
		color.Yellow("  %d file(s) skipped as unmatched", len(p.Skipped))
	}
}
