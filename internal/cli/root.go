// Copyright 2025 The Draftflow Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cli implements the draftflow command-line interface.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// Global flags shared by all subcommands.
var (
	flagConfig string
	flagJSON   bool
)

// SetVersion sets the version information (called from main).
func SetVersion(v, c, b string) {
	version, commit, buildDate = v, c, b
}

// NewRootCommand creates the root Cobra command for draftflow.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draftflow",
		Short: "Draftflow - personalized email draft generation",
		Long: `Draftflow generates personalized email drafts through a staged LLM
pipeline: parsing, intent classification, drafting, tone styling,
personalization, review, and refinement.

Run 'draftflow generate' to compose a draft from a plain request.
Run 'draftflow regenerate' to rework a draft you have edited.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config file (default: ~/.draftflow/config.yaml)")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output in JSON format")

	cmd.AddCommand(newGenerateCommand())
	cmd.AddCommand(newRegenerateCommand())
	cmd.AddCommand(newHistoryCommand())
	cmd.AddCommand(newProfileCommand())
	cmd.AddCommand(newMetricsCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}
