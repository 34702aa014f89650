package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newRecentCmd(app *App) *cobra.Command {
	var sessionID string
	var limit int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List recently logged entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := app.Wizard.Recent(context.Background(), sessionID, limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing logged yet.")
				return nil
			}
			for _, d := range entries {
				day := ""
				if d.SpentOn != nil {
					day = d.SpentOn.Format("2006-01-02")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-30s %5gh  #%s\n", day, d.IssueName, d.Hours, d.ExternalID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "console", "Session id")
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of entries to show")

	return cmd
}
