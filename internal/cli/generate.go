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
	"strings"

	"github.com/spf13/cobra"

	"github.com/draftflow/draftflow/internal/log"
	"github.com/draftflow/draftflow/internal/store"
	"github.com/draftflow/draftflow/pkg/draft"
)

func newGenerateCommand() *cobra.Command {
	var (
		tone    string
		userID  string
		length  int
		devMode bool
		noSave  bool
	)

	cmd := &cobra.Command{
		Use:   "generate [request text]",
		Short: "Generate an email draft from a plain-language request",
		Long: `Generate runs the full drafting pipeline on a plain-language request
and prints the resulting email draft.

The request describes who the email is for and what it should say, e.g.:

  draftflow generate "thank Sarah for the design review feedback"
  draftflow generate --tone casual "ask Mike to reschedule Friday's sync"

With --dev-mode the per-stage trace is included in JSON output.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.Service.Generate(cmd.Context(), draft.GenerateRequest{
				InputText:        strings.Join(args, " "),
				Tone:             tone,
				UserID:           userID,
				LengthPreference: length,
				DeveloperMode:    devMode,
			})
			if err != nil {
				return err
			}

			if !noSave {
				rec := &store.DraftRecord{
					UserID:     userID,
					InputText:  strings.Join(args, " "),
					FinalDraft: result.FinalDraft,
					Intent:     string(result.Intent),
					Tone:       tone,
				}
				if err := app.Store.SaveDraft(cmd.Context(), rec); err != nil {
					log.WithUser(app.Logger, userID).Warn("failed to save draft history", "error", err)
				}
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

	cmd.Flags().StringVar(&tone, "tone", "", "Tone of the draft (formal, casual, assertive, empathetic)")
	cmd.Flags().StringVar(&userID, "user", "", "User ID for profile-based personalization")
	cmd.Flags().IntVar(&length, "length", 0, "Target word count (0 = default)")
	cmd.Flags().BoolVar(&devMode, "dev-mode", false, "Include per-stage trace in JSON output")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Skip saving the draft to history")

	return cmd
}
