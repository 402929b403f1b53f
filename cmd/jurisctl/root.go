package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	serverURL   string
	outputFmt   string
	userID      string
	companyID   string
	companyRole string
)

var rootCmd = &cobra.Command{
	Use:   "jurisctl",
	Short: "CLI for the baseline server",
	Long: `jurisctl is a CLI for managing portfolio baselines on the baseline server.

It drives the full baseline lifecycle: creating portfolios and draft
versions, editing module content, submitting drafts for review,
approving or rejecting them, and publishing approved versions.

Identity is passed through headers the same way the API gateway does
it; use --user, --company, and --role or the JURIS_USER, JURIS_COMPANY,
and JURIS_ROLE environment variables.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Baseline server URL")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "", "Acting user ID (default: from JURIS_USER env)")
	rootCmd.PersistentFlags().StringVar(&companyID, "company", "", "Company ID (default: from JURIS_COMPANY env)")
	rootCmd.PersistentFlags().StringVar(&companyRole, "role", "", "Company role: owner, org_admin, member (default: from JURIS_ROLE env or \"member\")")

	rootCmd.AddCommand(healthCmd)
}

// resolvedUser returns the effective acting user.
// Priority: --user flag > JURIS_USER env var.
func resolvedUser() string {
	if userID != "" {
		return userID
	}
	return os.Getenv("JURIS_USER")
}

// resolvedCompany returns the effective company scope.
func resolvedCompany() string {
	if companyID != "" {
		return companyID
	}
	return os.Getenv("JURIS_COMPANY")
}

// resolvedRole returns the effective company role.
func resolvedRole() string {
	if companyRole != "" {
		return companyRole
	}
	if role := os.Getenv("JURIS_ROLE"); role != "" {
		return role
	}
	return "member"
}
