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
	"mlbatch-toolkit/pkg/logging"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "mlbatch",
	Short: "Partitions a file dataset into mini-batches and dispatches one scoring job per mini-batch.",
	Long: `mlbatch reads a declarative run config describing a file dataset, a
partition format naming the keys encoded in its folder structure, and a
scoring script. It groups the dataset's files by the chosen partition keys
and dispatches one unit of work per distinct key combination, locally or as
Kubernetes Job manifests.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging.")
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}
