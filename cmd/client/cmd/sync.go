package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one synchronization cycle",
	Long: `Pushes pending local changes to the central server, pulls remote
changes and advances the local watermark.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Starting synchronization...")

		result, err := app.Sync(cmd.Context())
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		color.Green("Synchronization finished")
		fmt.Printf("  Uploaded:   %d records\n", result.Uploaded)
		fmt.Printf("  Downloaded: %d records\n", result.Downloaded)
		fmt.Printf("  Duration:   %v\n", result.Duration.Round(time.Millisecond))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
