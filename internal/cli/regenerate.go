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

package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/draftflow/draftflow/pkg/draft"
)

func newRegenerateCommand() *cobra.Command {
	var (
		originalFile string
		editedFile   string
		tone         string
		intent       string
		userID       string
		length       int
		forceFull    bool
	)

	cmd := &cobra.Command{
		Use:   "regenerate",
		Short: "Rework an edited draft",
		Long: `Regenerate compares the original draft against your edited version and
reworks it. Small edits get a quick polish pass; substantial edits
re-run the styling and personalization stages on the edited text.

Both drafts are read from files:

  draftflow regenerate --original draft.txt --edited draft-edited.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			original, err := os.ReadFile(originalFile)
			if err != nil {
				return fmt.Errorf("reading original draft: %w", err)
			}
			edited, err := os.ReadFile(editedFile)
			if err != nil {
				return fmt.Errorf("reading edited draft: %w", err)
			}

			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.Service.Regenerate(cmd.Context(), draft.RegenerateRequest{
				Original:          string(original),
				Edited:            string(edited),
				Tone:              tone,
				Intent:            intent,
				UserID:            userID,
				LengthPreference:  length,
				ForceFullWorkflow: forceFull,
			})
			if err != nil {
				return err
			}

			if flagJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.FinalDraft)
			return nil
		},
	}

	cmd.Flags().StringVar(&originalFile, "original", "", "Path to the original draft (required)")
	cmd.Flags().StringVar(&editedFile, "edited", "", "Path to the edited draft (required)")
	cmd.Flags().StringVar(&tone, "tone", "", "Tone of the draft (formal, casual, assertive, empathetic)")
	cmd.Flags().StringVar(&intent, "intent", "", "Intent of the original draft, if known")
	cmd.Flags().StringVar(&userID, "user", "", "User ID for profile-based personalization")
	cmd.Flags().IntVar(&length, "length", 0, "Target word count (0 = default)")
	cmd.Flags().BoolVar(&forceFull, "force-full", false, "Force the full rework sequence regardless of edit size")
	_ = cmd.MarkFlagRequired("original")
	_ = cmd.MarkFlagRequired("edited")

	return cmd
}
