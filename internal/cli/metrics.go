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
)

func newMetricsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show session usage metrics and governor limits",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			summary := app.Metrics.Summary()
			stats := app.Governor.Stats()

			if flagJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"session":  summary,
					"governor": stats,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session %s\n", summary.SessionID)
			fmt.Fprintf(out, "  calls: %d (success %d, error %d)\n", summary.Calls, summary.Successes, summary.Errors)
			fmt.Fprintf(out, "  tokens: %d in / %d out / %d total\n", summary.InputTokens, summary.OutputTokens, summary.TotalTokens)
			fmt.Fprintf(out, "  cost: $%.4f\n", summary.TotalCostUSD)
			fmt.Fprintf(out, "  avg latency: %.1fms\n", summary.AvgLatencyMS)
			if len(summary.ByErrorKind) > 0 {
				fmt.Fprintln(out, "  errors by kind:")
				for kind, n := range summary.ByErrorKind {
					fmt.Fprintf(out, "    %s: %d\n", kind, n)
				}
			}
			fmt.Fprintf(out, "Governor\n")
			fmt.Fprintf(out, "  requests in window: %d / %d\n", stats.RequestsInWindow, stats.MaxRequestsPerMinute)
			fmt.Fprintf(out, "  day cost: $%.4f / $%.2f\n", stats.DayCostUSD, stats.DailyBudgetUSD)
			return nil
		},
	}

	return cmd
}
