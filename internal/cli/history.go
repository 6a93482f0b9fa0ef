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
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newHistoryCommand() *cobra.Command {
	var (
		userID string
		limit  int
		full   bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previously generated drafts",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			records, err := app.Store.ListDrafts(cmd.Context(), userID, limit)
			if err != nil {
				return err
			}

			if flagJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}

			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No drafts found.")
				return nil
			}

			if full {
				for _, r := range records {
					fmt.Fprintf(cmd.OutOrStdout(), "--- %s  %s  [%s/%s]\n%s\n\n",
						r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.Intent, r.Tone, r.FinalDraft)
				}
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CREATED\tINTENT\tTONE\tREQUEST")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					r.CreatedAt.Format("2006-01-02 15:04"), r.Intent, r.Tone, truncate(r.InputText, 60))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "Filter by user ID")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of drafts to list (0 = all)")
	cmd.Flags().BoolVar(&full, "full", false, "Print full draft bodies")

	return cmd
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
