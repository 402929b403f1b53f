package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "Manage baseline versions",
}

var versionsListCmd = &cobra.Command{
	Use:   "list <portfolio-id>",
	Short: "List baseline versions for a portfolio",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		var result struct {
			Versions []struct {
				ID            string `json:"id"`
				VersionNumber int    `json:"versionNumber"`
				Status        string `json:"status"`
				ChangeSummary string `json:"changeSummary"`
				CreatedBy     string `json:"createdBy"`
				CreatedAt     string `json:"createdAt"`
				IsActive      bool   `json:"isActive"`
			} `json:"versions"`
			TotalSize int `json:"totalSize"`
		}
		path := fmt.Sprintf("%s/portfolios/%s/versions", apiBase, args[0])
		if err := client.getJSON(path, &result); err != nil {
			return fmt.Errorf("failed to list versions: %w", err)
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(result)
		}

		headers := []string{"ID", "Version", "Status", "Active", "Summary", "Created By", "Created At"}
		rows := make([][]string, 0, len(result.Versions))
		for _, v := range result.Versions {
			active := ""
			if v.IsActive {
				active = "*"
			}
			rows = append(rows, []string{
				truncate(v.ID, 12),
				fmt.Sprintf("v%d", v.VersionNumber),
				v.Status,
				active,
				orDash(truncate(v.ChangeSummary, 40)),
				v.CreatedBy,
				v.CreatedAt,
			})
		}
		printTable(headers, rows)
		fmt.Printf("Total: %d\n", result.TotalSize)
		return nil
	},
}

var (
	versionParent  string
	versionSummary string
)

var versionsCreateCmd = &cobra.Command{
	Use:   "create <portfolio-id>",
	Short: "Create a new draft baseline version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		body := map[string]string{
			"parentVersionId": versionParent,
			"changeSummary":   versionSummary,
		}

		var result map[string]any
		path := fmt.Sprintf("%s/portfolios/%s/versions", apiBase, args[0])
		if err := client.postJSON(path, body, &result); err != nil {
			return fmt.Errorf("failed to create version: %w", err)
		}

		return printOutput(result)
	},
}

var versionsGetCmd = &cobra.Command{
	Use:   "get <version-id>",
	Short: "Get a baseline version with its modules",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		result, err := client.getRaw(fmt.Sprintf("%s/versions/%s", apiBase, args[0]))
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}

		return printOutput(result)
	},
}

var summaryValue string

var versionsSetSummaryCmd = &cobra.Command{
	Use:   "set-summary <version-id>",
	Short: "Update the change summary of a draft version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		body := map[string]string{"changeSummary": summaryValue}

		var result map[string]any
		path := fmt.Sprintf("%s/versions/%s", apiBase, args[0])
		if err := client.patchJSON(path, body, &result); err != nil {
			return fmt.Errorf("failed to update version: %w", err)
		}

		return printOutput(result)
	},
}

var versionsDeleteCmd = &cobra.Command{
	Use:   "delete <version-id>",
	Short: "Delete a draft baseline version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		path := fmt.Sprintf("%s/versions/%s", apiBase, args[0])
		if err := client.delete(path); err != nil {
			return fmt.Errorf("failed to delete version: %w", err)
		}

		fmt.Printf("Version %s deleted\n", args[0])
		return nil
	},
}

var moduleFile string

var versionsSetModuleCmd = &cobra.Command{
	Use:   "set-module <version-id> <module-type>",
	Short: "Replace a module's payload from a JSON file",
	Long: `Replace a module's payload from a JSON file (or stdin with -f -).

Module types: mandate_terms, exclusions, risk_appetite,
governance_thresholds, reporting_obligations.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		var data []byte
		var err error
		if moduleFile == "-" {
			data, err = os.ReadFile("/dev/stdin")
		} else {
			data, err = os.ReadFile(moduleFile)
		}
		if err != nil {
			return fmt.Errorf("failed to read payload: %w", err)
		}

		var payload map[string]any
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("payload is not valid JSON: %w", err)
		}

		body := map[string]any{"payload": payload}

		var result map[string]any
		path := fmt.Sprintf("%s/versions/%s/modules/%s", apiBase, args[0], args[1])
		if err := client.putJSON(path, body, &result); err != nil {
			return fmt.Errorf("failed to update module: %w", err)
		}

		return printOutput(result)
	},
}

var versionsHistoryCmd = &cobra.Command{
	Use:   "history <version-id>",
	Short: "Show the audit history for a version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistory(fmt.Sprintf("%s/versions/%s/history", apiBase, args[0]))
	},
}

var versionsDecisionsCmd = &cobra.Command{
	Use:   "decisions <version-id>",
	Short: "List approval decisions for the current review cycle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		var result struct {
			Decisions []struct {
				Reviewer  string `json:"reviewer"`
				Verdict   string `json:"verdict"`
				Comment   string `json:"comment"`
				CreatedAt string `json:"createdAt"`
			} `json:"decisions"`
		}
		path := fmt.Sprintf("%s/versions/%s/decisions", apiBase, args[0])
		if err := client.getJSON(path, &result); err != nil {
			return fmt.Errorf("failed to list decisions: %w", err)
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(result)
		}

		headers := []string{"Reviewer", "Verdict", "Comment", "Time"}
		rows := make([][]string, 0, len(result.Decisions))
		for _, d := range result.Decisions {
			rows = append(rows, []string{
				d.Reviewer,
				d.Verdict,
				orDash(truncate(d.Comment, 40)),
				d.CreatedAt,
			})
		}
		printTable(headers, rows)
		return nil
	},
}

func init() {
	versionsCreateCmd.Flags().StringVar(&versionParent, "parent", "", "Parent version ID to copy module content from")
	versionsCreateCmd.Flags().StringVar(&versionSummary, "summary", "", "Change summary for the new draft")

	versionsSetSummaryCmd.Flags().StringVar(&summaryValue, "summary", "", "New change summary (required)")
	_ = versionsSetSummaryCmd.MarkFlagRequired("summary")

	versionsSetModuleCmd.Flags().StringVarP(&moduleFile, "file", "f", "", "Path to JSON payload file, or - for stdin (required)")
	_ = versionsSetModuleCmd.MarkFlagRequired("file")

	versionsCmd.AddCommand(versionsListCmd)
	versionsCmd.AddCommand(versionsCreateCmd)
	versionsCmd.AddCommand(versionsGetCmd)
	versionsCmd.AddCommand(versionsSetSummaryCmd)
	versionsCmd.AddCommand(versionsDeleteCmd)
	versionsCmd.AddCommand(versionsSetModuleCmd)
	versionsCmd.AddCommand(versionsHistoryCmd)
	versionsCmd.AddCommand(versionsDecisionsCmd)

	rootCmd.AddCommand(versionsCmd)
}
