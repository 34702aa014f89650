package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newChatCmd(app *App) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Run the time-entry dialogue in the terminal",
		Long: `Run the guided time-entry dialogue locally, without a chat
platform. Useful for trying a deployment before wiring the bridge.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.IsInteractive != nil && !app.IsInteractive() {
				return fmt.Errorf("chat needs an interactive terminal")
			}
			_, err := tea.NewProgram(newChatModel(app, sessionID)).Run()
			return err
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "console", "Session id to run the dialogue under")

	return cmd
}
