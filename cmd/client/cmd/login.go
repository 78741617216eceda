package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store the pharmacy API key",
	Long: `Stores the API key used to authenticate against the central server.
The key has the form "<pharmacy_id>:<secret>" and is written to the
client's config directory with owner-only permissions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Print("Enter API key: ")
		key, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("read api key: %w", err)
		}
		fmt.Println()

		trimmed := strings.TrimSpace(string(key))
		if !strings.Contains(trimmed, ":") {
			return fmt.Errorf("api key must look like <pharmacy_id>:<secret>")
		}

		if err := app.SaveAPIKey(trimmed); err != nil {
			return err
		}

		if err := app.CheckConnection(cmd.Context()); err != nil {
			color.Yellow("Key saved, but the server is unreachable: %v", err)
			return nil
		}

		color.Green("API key saved, server connection OK")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
