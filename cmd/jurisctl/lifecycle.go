package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

var submitCmd = &cobra.Command{
	Use:   "submit <version-id>",
	Short: "Submit a draft version for approval",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		var result map[string]any
		path := fmt.Sprintf("%s/versions/%s/submit", apiBase, args[0])
		if err := client.postJSON(path, struct{}{}, &result); err != nil {
			return fmt.Errorf("failed to submit: %w", err)
		}

		return printOutput(result)
	},
}

var approveComment string

var approveCmd = &cobra.Command{
	Use:   "approve <version-id>",
	Short: "Approve a version pending review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		body := map[string]string{"comment": approveComment}

		var result map[string]any
		path := fmt.Sprintf("%s/versions/%s/approve", apiBase, args[0])
		if err := client.postJSON(path, body, &result); err != nil {
			return fmt.Errorf("failed to approve: %w", err)
		}

		return printOutput(result)
	},
}

var rejectReason string

var rejectCmd = &cobra.Command{
	Use:   "reject <version-id>",
	Short: "Reject a version pending review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		body := map[string]string{"reason": rejectReason}

		var result map[string]any
		path := fmt.Sprintf("%s/versions/%s/reject", apiBase, args[0])
		if err := client.postJSON(path, body, &result); err != nil {
			return fmt.Errorf("failed to reject: %w", err)
		}

		return printOutput(result)
	},
}

var preflightCmd = &cobra.Command{
	Use:   "preflight <version-id>",
	Short: "Check whether a version can be published",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		var result struct {
			CanPublish          bool     `json:"canPublish"`
			Blockers            []string `json:"blockers"`
			WillArchiveExisting bool     `json:"willArchiveExisting"`
		}
		path := fmt.Sprintf("%s/versions/%s/publish/preflight", apiBase, args[0])
		if err := client.getJSON(path, &result); err != nil {
			return fmt.Errorf("preflight failed: %w", err)
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(result)
		}

		if result.CanPublish {
			fmt.Println("Publishable: yes")
		} else {
			fmt.Println("Publishable: no")
			for _, b := range result.Blockers {
				fmt.Printf("  - %s\n", b)
			}
		}
		if result.WillArchiveExisting {
			fmt.Println("Publishing will archive the currently active version.")
		}
		return nil
	},
}

var publishConfirm bool

var publishCmd = &cobra.Command{
	Use:   "publish <version-id>",
	Short: "Publish an approved version",
	Long: `Publish an approved version, making it the portfolio's active baseline.

If another version is already active the server asks for confirmation
before archiving it; pass --confirm to proceed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		body := map[string]bool{"confirmArchivePrevious": publishConfirm}

		path := fmt.Sprintf("%s/versions/%s/publish", apiBase, args[0])
		resp, err := client.do(http.MethodPost, path, body)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		// A conflict with a confirmation payload means an active version
		// is in the way, not that the request was malformed.
		if resp.StatusCode == http.StatusConflict {
			var result struct {
				ConfirmationRequired bool `json:"confirmationRequired"`
				CurrentActiveVersion *struct {
					ID            string `json:"id"`
					VersionNumber int    `json:"versionNumber"`
				} `json:"currentActiveVersion"`
			}
			bodyBytes, _ := io.ReadAll(resp.Body)
			if json.Unmarshal(bodyBytes, &result) == nil && result.ConfirmationRequired {
				if cur := result.CurrentActiveVersion; cur != nil {
					fmt.Printf("Version v%d (%s) is currently active and will be archived.\n",
						cur.VersionNumber, cur.ID)
				}
				return fmt.Errorf("confirmation required: re-run with --confirm to archive the active version")
			}
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(bodyBytes))
		}

		if resp.StatusCode != http.StatusOK {
			bodyBytes, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(bodyBytes))
		}

		var result map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("decode error: %w", err)
		}
		return printOutput(result)
	},
}

func init() {
	approveCmd.Flags().StringVar(&approveComment, "comment", "", "Approval comment")
	rejectCmd.Flags().StringVar(&rejectReason, "reason", "", "Rejection reason (required)")
	_ = rejectCmd.MarkFlagRequired("reason")
	publishCmd.Flags().BoolVar(&publishConfirm, "confirm", false, "Confirm archiving the currently active version")

	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(approveCmd)
	rootCmd.AddCommand(rejectCmd)
	rootCmd.AddCommand(preflightCmd)
	rootCmd.AddCommand(publishCmd)
}
