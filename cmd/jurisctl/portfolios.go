package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const apiBase = "/api/v1"

var portfoliosCmd = &cobra.Command{
	Use:   "portfolios",
	Short: "Manage portfolios",
}

var portfoliosListCmd = &cobra.Command{
	Use:   "list",
	Short: "List portfolios in your company",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		var result struct {
			Portfolios []struct {
				ID                      string `json:"id"`
				Name                    string `json:"name"`
				Industry                string `json:"industry"`
				Currency                string `json:"currency"`
				Status                  string `json:"status"`
				ActiveBaselineVersionID string `json:"activeBaselineVersionId"`
				CreatedAt               string `json:"createdAt"`
			} `json:"portfolios"`
			TotalSize int `json:"totalSize"`
		}
		if err := client.getJSON(apiBase+"/portfolios", &result); err != nil {
			return fmt.Errorf("failed to list portfolios: %w", err)
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(result)
		}

		headers := []string{"ID", "Name", "Industry", "Currency", "Status", "Active Version", "Created"}
		rows := make([][]string, 0, len(result.Portfolios))
		for _, p := range result.Portfolios {
			rows = append(rows, []string{
				truncate(p.ID, 12),
				p.Name,
				orDash(p.Industry),
				orDash(p.Currency),
				p.Status,
				orDash(truncate(p.ActiveBaselineVersionID, 12)),
				p.CreatedAt,
			})
		}
		printTable(headers, rows)
		fmt.Printf("Total: %d\n", result.TotalSize)
		return nil
	},
}

var (
	portfolioName     string
	portfolioIndustry string
	portfolioCurrency string
	portfolioTimezone string
)

var portfoliosCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a portfolio",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		body := map[string]string{
			"name":     portfolioName,
			"industry": portfolioIndustry,
			"currency": portfolioCurrency,
			"timezone": portfolioTimezone,
		}

		var result map[string]any
		if err := client.postJSON(apiBase+"/portfolios", body, &result); err != nil {
			return fmt.Errorf("failed to create portfolio: %w", err)
		}

		return printOutput(result)
	},
}

var portfoliosGetCmd = &cobra.Command{
	Use:   "get <portfolio-id>",
	Short: "Get a portfolio",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		result, err := client.getRaw(fmt.Sprintf("%s/portfolios/%s", apiBase, args[0]))
		if err != nil {
			return fmt.Errorf("failed to get portfolio: %w", err)
		}

		return printOutput(result)
	},
}

var portfoliosHistoryCmd = &cobra.Command{
	Use:   "history <portfolio-id>",
	Short: "Show the audit history for a portfolio",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistory(fmt.Sprintf("%s/portfolios/%s/history", apiBase, args[0]))
	},
}

// runHistory fetches and renders an audit event page. Shared between the
// portfolio and version history commands.
func runHistory(path string) error {
	client := newClient()

	var result struct {
		Events []struct {
			EventType string `json:"eventType"`
			Actor     string `json:"actor"`
			Action    string `json:"action"`
			Outcome   string `json:"outcome"`
			Reason    string `json:"reason"`
			CreatedAt string `json:"createdAt"`
		} `json:"events"`
		TotalSize int `json:"totalSize"`
	}
	if err := client.getJSON(path, &result); err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}

	if outputFmt == "json" || outputFmt == "yaml" {
		return printOutput(result)
	}

	headers := []string{"Event", "Actor", "Action", "Outcome", "Reason", "Time"}
	rows := make([][]string, 0, len(result.Events))
	for _, e := range result.Events {
		rows = append(rows, []string{
			e.EventType,
			e.Actor,
			e.Action,
			e.Outcome,
			orDash(truncate(e.Reason, 40)),
			e.CreatedAt,
		})
	}
	printTable(headers, rows)
	fmt.Printf("Total: %d\n", result.TotalSize)
	return nil
}

func init() {
	portfoliosCreateCmd.Flags().StringVar(&portfolioName, "name", "", "Portfolio name (required)")
	portfoliosCreateCmd.Flags().StringVar(&portfolioIndustry, "industry", "", "Industry code")
	portfoliosCreateCmd.Flags().StringVar(&portfolioCurrency, "currency", "", "Operating currency")
	portfoliosCreateCmd.Flags().StringVar(&portfolioTimezone, "timezone", "", "Portfolio timezone")
	_ = portfoliosCreateCmd.MarkFlagRequired("name")

	portfoliosCmd.AddCommand(portfoliosListCmd)
	portfoliosCmd.AddCommand(portfoliosCreateCmd)
	portfoliosCmd.AddCommand(portfoliosGetCmd)
	portfoliosCmd.AddCommand(portfoliosHistoryCmd)

	rootCmd.AddCommand(portfoliosCmd)
}
