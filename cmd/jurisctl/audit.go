package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query the company audit trail (company admins only)",
}

var (
	auditActor     string
	auditEventType string
	auditOutcome   string
	auditPortfolio string
)

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit events for your company",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		query := url.Values{}
		if auditActor != "" {
			query.Set("actor", auditActor)
		}
		if auditEventType != "" {
			query.Set("eventType", auditEventType)
		}
		if auditOutcome != "" {
			query.Set("outcome", auditOutcome)
		}
		if auditPortfolio != "" {
			query.Set("portfolioId", auditPortfolio)
		}

		path := apiBase + "/audit/events"
		if len(query) > 0 {
			path += "?" + query.Encode()
		}

		var result struct {
			Events []struct {
				ID          string `json:"id"`
				EventType   string `json:"eventType"`
				Actor       string `json:"actor"`
				Action      string `json:"action"`
				Outcome     string `json:"outcome"`
				PortfolioID string `json:"portfolioId"`
				VersionID   string `json:"versionId"`
				CreatedAt   string `json:"createdAt"`
			} `json:"events"`
			TotalSize int `json:"totalSize"`
		}
		if err := client.getJSON(path, &result); err != nil {
			return fmt.Errorf("failed to list audit events: %w", err)
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(result)
		}

		headers := []string{"ID", "Event", "Actor", "Action", "Outcome", "Portfolio", "Version", "Time"}
		rows := make([][]string, 0, len(result.Events))
		for _, e := range result.Events {
			rows = append(rows, []string{
				truncate(e.ID, 12),
				e.EventType,
				e.Actor,
				orDash(e.Action),
				e.Outcome,
				orDash(truncate(e.PortfolioID, 12)),
				orDash(truncate(e.VersionID, 12)),
				e.CreatedAt,
			})
		}
		printTable(headers, rows)
		fmt.Printf("Total: %d\n", result.TotalSize)
		return nil
	},
}

var auditGetCmd = &cobra.Command{
	Use:   "get <event-id>",
	Short: "Get a single audit event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		result, err := client.getRaw(fmt.Sprintf("%s/audit/events/%s", apiBase, args[0]))
		if err != nil {
			return fmt.Errorf("failed to get audit event: %w", err)
		}

		return printOutput(result)
	},
}

func init() {
	auditListCmd.Flags().StringVar(&auditActor, "actor", "", "Filter by acting user")
	auditListCmd.Flags().StringVar(&auditEventType, "event-type", "", "Filter by event type (request, lifecycle)")
	auditListCmd.Flags().StringVar(&auditOutcome, "outcome", "", "Filter by outcome (success, denied, failure)")
	auditListCmd.Flags().StringVar(&auditPortfolio, "portfolio", "", "Filter by portfolio ID")

	auditCmd.AddCommand(auditListCmd)
	auditCmd.AddCommand(auditGetCmd)

	rootCmd.AddCommand(auditCmd)
}
