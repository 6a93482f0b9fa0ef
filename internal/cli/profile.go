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

	"github.com/spf13/cobra"

	"github.com/draftflow/draftflow/pkg/draft"
)

func newProfileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage writing profiles used for personalization",
	}

	cmd.AddCommand(newProfileGetCommand())
	cmd.AddCommand(newProfileSetCommand())

	return cmd
}

func newProfileGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <user-id>",
		Short: "Show a user's writing profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			profile, err := app.Store.LoadProfile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if profile == nil {
				return fmt.Errorf("no profile found for user %q", args[0])
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(profile)
		},
	}
}

func newProfileSetCommand() *cobra.Command {
	var (
		name       string
		title      string
		company    string
		signature  string
		styleNotes string
	)

	cmd := &cobra.Command{
		Use:   "set <user-id>",
		Short: "Create or update a user's writing profile",
		Long: `Set stores the personalization profile for a user. Unset flags keep
their current values when a profile already exists.

  draftflow profile set alice --name "Alice Chen" --title "Product Manager"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			profile, err := app.Store.LoadProfile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if profile == nil {
				def := draft.DefaultProfile()
				profile = &def
			}

			if cmd.Flags().Changed("name") {
				profile.UserName = name
			}
			if cmd.Flags().Changed("title") {
				profile.UserTitle = title
			}
			if cmd.Flags().Changed("company") {
				profile.UserCompany = company
			}
			if cmd.Flags().Changed("signature") {
				profile.Signature = signature
			}
			if cmd.Flags().Changed("style-notes") {
				profile.StyleNotes = styleNotes
			}

			if err := app.Store.SaveProfile(cmd.Context(), args[0], profile); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Profile saved for user %q\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Sender's display name")
	cmd.Flags().StringVar(&title, "title", "", "Sender's job title")
	cmd.Flags().StringVar(&company, "company", "", "Sender's company")
	cmd.Flags().StringVar(&signature, "signature", "", "Signature closing phrase")
	cmd.Flags().StringVar(&styleNotes, "style-notes", "", "Freeform writing style notes")

	return cmd
}
