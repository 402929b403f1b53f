package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check server health and readiness",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		checks := map[string]any{}
		for name, path := range map[string]string{
			"liveness":  "/livez",
			"readiness": "/readyz",
		} {
			var resp map[string]any
			if err := client.getJSON(path, &resp); err != nil {
				if name == "liveness" {
					return fmt.Errorf("server unreachable: %w", err)
				}
				// The server may still be waiting on its database.
				resp = map[string]any{"status": "unknown", "error": err.Error()}
			}
			checks[name] = resp
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(checks)
		}

		rows := make([][]string, 0, len(checks))
		for _, name := range []string{"liveness", "readiness"} {
			status := "unknown"
			if m, ok := checks[name].(map[string]any); ok {
				if s, ok := m["status"].(string); ok {
					status = s
				}
			}
			rows = append(rows, []string{name, status})
		}
		printTable([]string{"Check", "Status"}, rows)
		return nil
	},
}
