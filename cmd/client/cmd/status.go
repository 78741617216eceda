package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var logsLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show synchronization status",
	RunE: func(cmd *cobra.Command, args []string) error {
		remote, local, err := app.Status(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetch status: %w", err)
		}

		fmt.Println("Server:")
		if remote.LastSyncAt != nil {
			fmt.Printf("  Last sync:  %s\n", remote.LastSyncAt.Format(time.RFC3339))
		} else {
			fmt.Println("  Last sync:  never")
		}
		if remote.LastRunID != "" {
			fmt.Printf("  Last run:   %s\n", remote.LastRunID)
		}
		fmt.Printf("  Pending:    %d records\n", remote.PendingTotal)
		for t, n := range remote.Pending {
			if n > 0 {
				fmt.Printf("    %-10s %d\n", t, n)
			}
		}

		fmt.Println("Workstation:")
		var localTotal int
		for t, n := range local {
			localTotal += n
			if n > 0 {
				fmt.Printf("    %-10s %d\n", t, n)
			}
		}
		fmt.Printf("  Pending:    %d records\n", localTotal)

		if remote.IsSynced && localTotal == 0 {
			color.Green("Everything is in sync")
		} else {
			color.Yellow("Unsynced changes present, run: pharmsync-cli sync")
		}
		return nil
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show past synchronization sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, err := app.Logs(cmd.Context(), logsLimit)
		if err != nil {
			return fmt.Errorf("fetch logs: %w", err)
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions yet")
			return nil
		}

		for _, s := range sessions {
			line := fmt.Sprintf("%s  %-13s %-11s up:%-4d down:%-4d conflicts:%d",
				s.StartedAt.Format("2006-01-02 15:04:05"),
				s.Direction, s.Status, s.Uploaded, s.Downloaded, s.Conflicts)
			switch s.Status {
			case "completed":
				color.Green(line)
			case "failed":
				color.Red("%s  %s", line, s.ErrorMessage)
			case "conflict":
				color.Yellow(line)
			default:
				fmt.Println(line)
			}
		}
		return nil
	},
}

func init() {
	logsCmd.Flags().IntVar(&logsLimit, "limit", 20, "number of sessions to show")
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(logsCmd)
}
