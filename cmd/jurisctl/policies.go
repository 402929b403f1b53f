package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var policiesCmd = &cobra.Command{
	Use:   "policies",
	Short: "List the approval policies loaded on the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		var result struct {
			Policies []struct {
				ID          string `json:"id"`
				DisplayName string `json:"displayName"`
				Enabled     bool   `json:"enabled"`
				Selector    struct {
					Industries []string `json:"industries"`
					Currencies []string `json:"currencies"`
				} `json:"selector"`
				Gate struct {
					RequiredCount int  `json:"requiredCount"`
					RejectOnFirst bool `json:"rejectOnFirst"`
				} `json:"gate"`
			} `json:"policies"`
		}
		if err := client.getJSON(apiBase+"/policies", &result); err != nil {
			return fmt.Errorf("failed to list policies: %w", err)
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(result)
		}

		headers := []string{"ID", "Name", "Enabled", "Industries", "Currencies", "Approvals"}
		rows := make([][]string, 0, len(result.Policies))
		for _, p := range result.Policies {
			rows = append(rows, []string{
				p.ID,
				p.DisplayName,
				strconv.FormatBool(p.Enabled),
				orDash(strings.Join(p.Selector.Industries, ",")),
				orDash(strings.Join(p.Selector.Currencies, ",")),
				strconv.Itoa(p.Gate.RequiredCount),
			})
		}
		printTable(headers, rows)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(policiesCmd)
}
